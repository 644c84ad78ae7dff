package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// Tree is an ordered sequence of command nodes as they appear in a config
// file. Nodes stay raw until the renderer reaches them.
type Tree []json.RawMessage

// Node is a parsed command node: a single-key object naming the tag and
// carrying its payload.
type Node struct {
	Tag     string
	Payload json.RawMessage
}

// ParseTree parses a config document whose root must be a JSON array.
func ParseTree(data []byte) (Tree, error) {
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, NewConfigurationError("config must be a JSON array of command nodes", err).
			WithCode(ErrCodeMalformedJSON)
	}
	return tree, nil
}

// LoadTree reads and parses a config file.
func LoadTree(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigurationError(fmt.Sprintf("failed to read config file %q", path), err).
			WithCode(ErrCodeIncludeLoad).
			WithDetail("path", path)
	}
	tree, err := ParseTree(data)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.WithDetail("path", path)
		}
		return nil, err
	}
	return tree, nil
}

// ParseNode validates that raw is an object with exactly one key.
func ParseNode(raw json.RawMessage) (Node, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return Node{}, NewConfigurationError(fmt.Sprintf("command node must be a JSON object, found %s", abbreviate(raw)), err).
			WithCode(ErrCodeMalformedNode)
	}
	if len(obj) != 1 {
		return Node{}, NewConfigurationError(
			fmt.Sprintf("command node must have exactly one key, found %d in %s", len(obj), abbreviate(raw)), nil).
			WithCode(ErrCodeMalformedNode)
	}

	var node Node
	for tag, payload := range obj {
		node = Node{Tag: tag, Payload: payload}
	}
	return node, nil
}

// Single wraps one raw node into a one-element tree.
func Single(raw json.RawMessage) Tree {
	return Tree{raw}
}

// abbreviate shortens raw JSON for error messages.
func abbreviate(raw json.RawMessage) string {
	const limit = 120
	s := string(raw)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
