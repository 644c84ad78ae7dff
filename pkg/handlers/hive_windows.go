//go:build windows

package handlers

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// osHive reads and writes HKEY_CURRENT_USER.
type osHive struct {
	root registry.Key
}

// NewOSHive returns the HKEY_CURRENT_USER hive.
func NewOSHive() RegistryHive {
	return osHive{root: registry.CURRENT_USER}
}

func (h osHive) OpenForWrite(path string) error {
	k, err := registry.OpenKey(h.root, path, registry.WRITE)
	if err != nil {
		return translate(fmt.Sprintf("open %s", path), err)
	}
	return k.Close()
}

func (h osHive) GetString(path, name string) (string, error) {
	k, err := registry.OpenKey(h.root, path, registry.QUERY_VALUE)
	if err != nil {
		return "", translate(fmt.Sprintf("open %s", path), err)
	}
	defer k.Close()

	s, _, err := k.GetStringValue(name)
	if err != nil {
		return "", translate(path+`\`+name, err)
	}
	return s, nil
}

func (h osHive) GetDWORD(path, name string) (uint32, error) {
	k, err := registry.OpenKey(h.root, path, registry.QUERY_VALUE)
	if err != nil {
		return 0, translate(fmt.Sprintf("open %s", path), err)
	}
	defer k.Close()

	n, valType, err := k.GetIntegerValue(name)
	if err != nil {
		return 0, translate(path+`\`+name, err)
	}
	if valType != registry.DWORD {
		return 0, fmt.Errorf("%s\\%s: %w", path, name, ErrUnexpectedType)
	}
	return uint32(n), nil
}

func (h osHive) SetString(path, name, value string) error {
	k, err := registry.OpenKey(h.root, path, registry.SET_VALUE)
	if err != nil {
		return translate(fmt.Sprintf("open %s", path), err)
	}
	defer k.Close()

	if err := k.SetStringValue(name, value); err != nil {
		return translate(path+`\`+name, err)
	}
	return nil
}

func (h osHive) DeleteValue(path, name string) error {
	k, err := registry.OpenKey(h.root, path, registry.ALL_ACCESS)
	if err != nil {
		return translate(fmt.Sprintf("open %s", path), err)
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil {
		return translate(path+`\`+name, err)
	}
	return nil
}

// translate maps registry errors onto the package sentinels.
func translate(op string, err error) error {
	switch {
	case errors.Is(err, registry.ErrNotExist):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, registry.ErrUnexpectedType):
		return fmt.Errorf("%s: %w", op, ErrUnexpectedType)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
