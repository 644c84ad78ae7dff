// Package engine renders quicksetup config trees.
//
// # Overview
//
// A config file is a JSON array of command nodes. Each node is an object
// with exactly one key, the command tag, whose value is the command
// payload:
//
//	[
//	  {"set_var": {"key": "NAME", "value": "hello"}},
//	  {"exec": {"install_run": "echo %NAME%"}}
//	]
//
// The renderer walks the array in order and executes each node for the
// requested action (install, uninstall or update).
//
// # Outcomes
//
// Every command returns (bool, error):
//
//   - (true, nil): the step succeeded, continue with the next sibling
//   - (false, nil): the step failed in a controlled way; the enclosing
//     sequence stops and reports false to its parent
//   - (_, err): the run is aborted; nothing else is started
//
// # Structural Commands
//
// Four commands are built in and registered by RegisterBuiltins:
//
//   - if: compares two expanded operands and renders run or else
//   - paralel: renders each child concurrently and waits for all of them
//   - include: renders another config file, at most once per run
//   - set_var: stores a string, integer or boolean variable
//
// Leaf commands that touch the operating system live in package handlers.
//
// # Variables
//
// String payload fields tagged `template:"expand"` are expanded before a
// command sees them. Every %NAME% is replaced with the variable NAME;
// unknown names are logged and left as written.
package engine
