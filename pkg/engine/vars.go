package engine

import (
	"encoding/json"
	"sort"
	"sync"
)

// Reserved variable keys set by the host before the root tree is rendered.
const (
	// VarConfigDir holds the canonical directory of the root config file,
	// including a trailing path separator.
	VarConfigDir = "CONF_DIR"

	// VarCommandLine holds the quoted command line used to start the run.
	VarCommandLine = "CMD"
)

// Vars is the flat key/value store shared by every command of a run.
// Each Get and Set takes the lock once; there are no multi-key transactions,
// so concurrent parallel branches writing the same key race and the last
// write wins.
type Vars struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewVars creates an empty store.
func NewVars() *Vars {
	return &Vars{values: make(map[string]any)}
}

// Set stores value under key, replacing any previous value.
func (v *Vars) Set(key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[key] = value
}

// Get returns the raw stored value.
func (v *Vars) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[key]
	return val, ok
}

// Keys returns the stored keys in sorted order.
func (v *Vars) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of every stored value.
func (v *Vars) Snapshot() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]any, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// Lookup returns the value stored under key reinterpreted as T. It reports
// false when the key is absent or the value does not convert to T, e.g. a
// string looked up as an integer or a negative number looked up as uint.
func Lookup[T any](v *Vars, key string) (T, bool) {
	var zero T

	raw, ok := v.Get(key)
	if !ok {
		return zero, false
	}
	if typed, ok := raw.(T); ok {
		return typed, true
	}

	// Fall back to a JSON round trip so that numeric widths convert freely
	// while kinds (string vs number vs bool) stay strict.
	data, err := json.Marshal(raw)
	if err != nil {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, false
	}
	return out, true
}

// GetString returns a string value.
func (v *Vars) GetString(key string) (string, bool) {
	return Lookup[string](v, key)
}

// GetUint returns an unsigned integer value.
func (v *Vars) GetUint(key string) (uint64, bool) {
	return Lookup[uint64](v, key)
}

// GetBool returns a boolean value.
func (v *Vars) GetBool(key string) (bool, bool) {
	return Lookup[bool](v, key)
}
