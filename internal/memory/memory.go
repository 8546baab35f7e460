// Package memory tracks which locations inside expanded records were
// originally JSON encoded as escaped strings, so the inverse transform can
// restore them.
//
// A location is addressed by a path: the record's identity seed followed by
// the chain of field names and array indices leading to the value. The seed
// is hashed before use so keys stay short and the memory artifact never
// embeds raw record content.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Marker is the value stored for every registered location. Only one variant
// exists: the location held a JSON-encoded string.
const Marker = "json_str"

// keySep joins path segments into a single map key.
const keySep = "."

// Key renders a path as the string used in the memory map. The first segment
// (the record identity seed) is replaced by its xxhash digest; the remaining
// segments are joined verbatim.
func Key(path []string) string {
	segs := make([]string, len(path))
	segs[0] = strconv.FormatUint(xxhash.Sum64String(path[0]), 16)
	copy(segs[1:], path[1:])
	return strings.Join(segs, keySep)
}

// Classify reports whether value encodes a JSON object or array. The value is
// trimmed, must begin with "{" or "[", and must parse as JSON; anything that
// merely looks like JSON classifies false and is left untouched by the
// caller. Strings encoding a bare scalar ("42", "true") never classify true.
func Classify(value string) bool {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return false
	}
	return json.Valid([]byte(trimmed))
}

// Memory is the registry of encoded-string locations for one buffer build.
type Memory struct {
	entries map[string]string
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{entries: make(map[string]string)}
}

// Record registers the location at path. Re-recording the same path is a
// no-op beyond overwriting the marker.
func (m *Memory) Record(path []string) {
	m.entries[Key(path)] = Marker
}

// Lookup reports whether the location at path was registered.
func (m *Memory) Lookup(path []string) bool {
	_, ok := m.entries[Key(path)]
	return ok
}

// Len returns the number of registered locations.
func (m *Memory) Len() int {
	return len(m.entries)
}

// Keys returns all registered keys in unspecified order.
func (m *Memory) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// Save writes the memory map to path as a pretty-printed JSON object.
func (m *Memory) Save(path string) error {
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal memory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	return nil
}

// Load reads a memory map previously written by Save. A missing file is
// returned as the underlying fs error so callers can distinguish it from a
// parse failure.
func Load(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse memory file %s: %w", path, err)
	}

	return &Memory{entries: entries}, nil
}
