package engine

import (
	"fmt"
)

// ActionType selects which per-action behaviour leaf commands run.
// It is chosen once per process and passed by value everywhere.
type ActionType int

const (
	// ActionInstall provisions whatever the config describes.
	ActionInstall ActionType = iota

	// ActionUninstall removes what an install put in place.
	ActionUninstall

	// ActionUpdate brings an existing install up to date.
	ActionUpdate
)

// String returns the lowercase action name.
func (a ActionType) String() string {
	switch a {
	case ActionInstall:
		return "install"
	case ActionUninstall:
		return "uninstall"
	case ActionUpdate:
		return "update"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Validate checks if the action type is one of the known values.
func (a ActionType) Validate() error {
	switch a {
	case ActionInstall, ActionUninstall, ActionUpdate:
		return nil
	default:
		return fmt.Errorf("invalid action type: %d", int(a))
	}
}

// ParseActionType parses "install", "uninstall" or "update".
func ParseActionType(s string) (ActionType, error) {
	switch s {
	case "install":
		return ActionInstall, nil
	case "uninstall":
		return ActionUninstall, nil
	case "update":
		return ActionUpdate, nil
	default:
		return 0, fmt.Errorf("invalid action type: %q", s)
	}
}

// Select returns the value matching the action out of three candidates.
func Select[T any](a ActionType, install, uninstall, update T) T {
	switch a {
	case ActionUninstall:
		return uninstall
	case ActionUpdate:
		return update
	default:
		return install
	}
}
