package handlers

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound is returned when a registry key or value does not exist.
	ErrNotFound = errors.New("registry key or value not found")

	// ErrUnexpectedType is returned when a value exists with another type.
	ErrUnexpectedType = errors.New("registry value has unexpected type")

	// ErrUnsupported is returned by the hive on platforms without a registry.
	ErrUnsupported = errors.New("registry is not supported on this platform")
)

// RegistryHive is the subset of HKEY_CURRENT_USER the registry commands use.
// Paths are subkey paths relative to the hive root.
type RegistryHive interface {
	// OpenForWrite checks that path exists and can be written.
	OpenForWrite(path string) error
	GetString(path, name string) (string, error)
	GetDWORD(path, name string) (uint32, error)
	SetString(path, name, value string) error
	DeleteValue(path, name string) error
}

// MemoryHive is an in-memory RegistryHive. Keys must be created with
// CreateKey before values can be written to them.
type MemoryHive struct {
	mu   sync.RWMutex
	keys map[string]map[string]any

	// FailWrites, when set, is returned by every write operation.
	FailWrites error
}

// NewMemoryHive creates an empty hive.
func NewMemoryHive() *MemoryHive {
	return &MemoryHive{keys: make(map[string]map[string]any)}
}

// CreateKey adds an empty key.
func (h *MemoryHive) CreateKey(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.keys[path]; !ok {
		h.keys[path] = make(map[string]any)
	}
}

// Put stores a string or uint32 value, creating the key if needed.
func (h *MemoryHive) Put(path, name string, value any) {
	h.CreateKey(path)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys[path][name] = value
}

// Value returns a raw value.
func (h *MemoryHive) Value(path, name string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.keys[path][name]
	return v, ok
}

func (h *MemoryHive) OpenForWrite(path string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.FailWrites != nil {
		return h.FailWrites
	}
	if _, ok := h.keys[path]; !ok {
		return fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	return nil
}

func (h *MemoryHive) GetString(path, name string) (string, error) {
	v, err := h.get(path, name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s\\%s: %w", path, name, ErrUnexpectedType)
	}
	return s, nil
}

func (h *MemoryHive) GetDWORD(path, name string) (uint32, error) {
	v, err := h.get(path, name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(uint32)
	if !ok {
		return 0, fmt.Errorf("%s\\%s: %w", path, name, ErrUnexpectedType)
	}
	return n, nil
}

func (h *MemoryHive) SetString(path, name, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailWrites != nil {
		return h.FailWrites
	}
	key, ok := h.keys[path]
	if !ok {
		return fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	key[name] = value
	return nil
}

func (h *MemoryHive) DeleteValue(path, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailWrites != nil {
		return h.FailWrites
	}
	key, ok := h.keys[path]
	if !ok {
		return fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	if _, ok := key[name]; !ok {
		return fmt.Errorf("%s\\%s: %w", path, name, ErrNotFound)
	}
	delete(key, name)
	return nil
}

func (h *MemoryHive) get(path, name string) (any, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	key, ok := h.keys[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	v, ok := key[name]
	if !ok {
		return nil, fmt.Errorf("%s\\%s: %w", path, name, ErrNotFound)
	}
	return v, nil
}
