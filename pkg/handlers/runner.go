// Package handlers implements the leaf commands of a quicksetup config:
// shell and PowerShell execution, package managers, directories and the
// Windows registry.
package handlers

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// ProcessRunner starts a process and waits for it to exit.
type ProcessRunner interface {
	// Run returns the exit code of the process. A non-nil error means the
	// process could not be started or waited on at all.
	Run(ctx context.Context, name string, args ...string) (int, error)
}

// OSRunner runs processes on the host with inherited standard streams.
type OSRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewOSRunner creates a runner attached to the process stdio.
func NewOSRunner() *OSRunner {
	return &OSRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run implements ProcessRunner. The context is not used to kill the child:
// a started installer always runs to completion.
func (r *OSRunner) Run(_ context.Context, name string, args ...string) (int, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}

// Env holds the collaborators shared by the leaf commands.
type Env struct {
	Runner ProcessRunner
	Hive   RegistryHive

	// GOOS selects the platform shell; defaults to runtime.GOOS.
	GOOS string
}

// DefaultEnv returns the host environment.
func DefaultEnv() Env {
	return Env{
		Runner: NewOSRunner(),
		Hive:   NewOSHive(),
		GOOS:   runtime.GOOS,
	}
}

func (e Env) goos() string {
	if e.GOOS == "" {
		return runtime.GOOS
	}
	return e.GOOS
}

// shellCommand wraps a command line for the platform shell.
func (e Env) shellCommand(line string) (string, []string) {
	if e.goos() == "windows" {
		return "cmd", []string{"/C", line}
	}
	return "sh", []string{"-c", line}
}
