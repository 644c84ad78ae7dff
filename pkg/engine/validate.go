package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Validate checks a tree without executing it: every node must be a
// single-key object with a registered tag, and the branches of if and
// paralel nodes are checked recursively. Included files are not followed
// since their paths may depend on variables set at run time.
// All problems found are joined into the returned error.
func Validate(reg *Registry, tree Tree) error {
	var errs []error
	validateTree(reg, tree, "$", &errs)
	return errors.Join(errs...)
}

func validateTree(reg *Registry, tree Tree, path string, errs *[]error) {
	for i, raw := range tree {
		at := fmt.Sprintf("%s[%d]", path, i)

		node, err := ParseNode(raw)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s: %w", at, err))
			continue
		}
		if !reg.Has(node.Tag) {
			*errs = append(*errs, fmt.Errorf("%s: %w", at,
				NewConfigurationError(fmt.Sprintf("no command registered for tag %q", node.Tag), nil).
					WithTag(node.Tag).
					WithCode(ErrCodeUnknownTag)))
			continue
		}

		at += "." + node.Tag
		switch node.Tag {
		case TagConditional:
			var p struct {
				Condition *string `json:"condition"`
				Run       Tree    `json:"run"`
				Else      Tree    `json:"else"`
			}
			if err := json.Unmarshal(node.Payload, &p); err != nil {
				*errs = append(*errs, invalidPayload(at, node.Tag, err))
				continue
			}
			if p.Condition == nil || strings.TrimSpace(*p.Condition) == "" {
				*errs = append(*errs, invalidPayload(at, node.Tag, errors.New("condition is required")))
			}
			validateTree(reg, p.Run, at+".run", errs)
			validateTree(reg, p.Else, at+".else", errs)
		case TagParallel:
			var p struct {
				Run *Tree `json:"run"`
			}
			if err := json.Unmarshal(node.Payload, &p); err != nil {
				*errs = append(*errs, invalidPayload(at, node.Tag, err))
				continue
			}
			if p.Run == nil {
				*errs = append(*errs, invalidPayload(at, node.Tag, errors.New("run is required")))
				continue
			}
			validateTree(reg, *p.Run, at+".run", errs)
		}
	}
}

func invalidPayload(at, tag string, err error) error {
	return fmt.Errorf("%s: %w", at,
		NewConfigurationError("payload does not match the command shape", err).
			WithTag(tag).
			WithCode(ErrCodeInvalidPayload))
}
