// Package transform implements the two structural transforms between the
// compact source representation and the expanded buffer representation.
//
// Simplify expands every string value that encodes a JSON object or array
// into the decoded value, recording each expansion in a memory registry.
// Flatten is the exact inverse given the same registry: every registered
// object or array location is re-serialized to a compact JSON string.
package transform

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tbrandt/ndedit/internal/jsonval"
	"github.com/tbrandt/ndedit/internal/memory"
)

// identitySeed derives the path root for a record. Records carrying a string
// "id" field use it directly; everything else falls back to the record's
// compact serialization. The fallback produces long seeds for large records,
// which is accepted: the seed is hashed and never displayed.
//
// The seed must be computed before Simplify mutates the record, or the paths
// recorded during expansion will not match the paths a later Flatten derives
// from the buffer.
func identitySeed(record any) (string, error) {
	if obj, ok := record.(*jsonval.Object); ok {
		if id, present := obj.Get("id"); present {
			if s, isString := id.(string); isString {
				return s, nil
			}
		}
	}

	data, err := jsonval.Compact(record)
	if err != nil {
		return "", fmt.Errorf("failed to derive record identity: %w", err)
	}
	return string(data), nil
}

// Simplify expands record in place, registering every decoded location in
// mem. The returned value is the expanded record (the same value for objects
// and arrays, a new value when the record itself was replaced).
func Simplify(record any, mem *memory.Memory) (any, error) {
	seed, err := identitySeed(record)
	if err != nil {
		return nil, err
	}
	return simplifyValue(record, []string{seed}, mem)
}

func simplifyValue(v any, path []string, mem *memory.Memory) (any, error) {
	switch t := v.(type) {
	case *jsonval.Object:
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			expanded, err := simplifyValue(pair.Value, append(path, pair.Key), mem)
			if err != nil {
				return nil, err
			}
			t.Set(pair.Key, expanded)
		}
		return t, nil

	case []any:
		for i, elem := range t {
			expanded, err := simplifyValue(elem, append(path, strconv.Itoa(i)), mem)
			if err != nil {
				return nil, err
			}
			t[i] = expanded
		}
		return t, nil

	case string:
		// A record that is itself a bare string is never expanded. The seed
		// would be its quoted serialization while a later Flatten reseeds
		// from the expanded value, so the lookup could not match and the
		// source line would be rewritten. Only strings reached under a
		// record are candidates.
		if len(path) == 1 {
			return t, nil
		}
		if !memory.Classify(t) {
			return t, nil
		}
		// The decode substitutes in place: record the current path and
		// re-walk the decoded value at that same path, so encoded strings
		// nested inside it are found by the normal descent.
		mem.Record(path)
		parsed, err := jsonval.Parse([]byte(strings.TrimSpace(t)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode string at %s: %w", strings.Join(path[1:], "."), err)
		}
		return simplifyValue(parsed, path, mem)

	case nil, bool, json.Number:
		return t, nil

	default:
		return nil, fmt.Errorf("unsupported JSON value of type %T at %s", v, strings.Join(path[1:], "."))
	}
}

// Flatten restores record to its source form in place: every object or array
// whose path is registered in mem is replaced by its compact JSON-string
// serialization. Scalar leaves are never re-encoded regardless of registry
// contents; only whole object/array values were ever string-encoded in
// source data.
func Flatten(record any, mem *memory.Memory) (any, error) {
	seed, err := identitySeed(record)
	if err != nil {
		return nil, err
	}
	return flattenValue(record, []string{seed}, mem)
}

func flattenValue(v any, path []string, mem *memory.Memory) (any, error) {
	switch t := v.(type) {
	case *jsonval.Object:
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			packed, err := flattenValue(pair.Value, append(path, pair.Key), mem)
			if err != nil {
				return nil, err
			}
			t.Set(pair.Key, packed)
		}
		return encodeIfRegistered(t, path, mem)

	case []any:
		for i, elem := range t {
			packed, err := flattenValue(elem, append(path, strconv.Itoa(i)), mem)
			if err != nil {
				return nil, err
			}
			t[i] = packed
		}
		return encodeIfRegistered(t, path, mem)

	case nil, bool, json.Number, string:
		return t, nil

	default:
		return nil, fmt.Errorf("unsupported JSON value of type %T at %s", v, strings.Join(path[1:], "."))
	}
}

// encodeIfRegistered replaces v with its compact string form when its own
// path is registered. Children have already been packed at this point.
func encodeIfRegistered(v any, path []string, mem *memory.Memory) (any, error) {
	if !mem.Lookup(path) {
		return v, nil
	}
	data, err := jsonval.Compact(v)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode value at %s: %w", strings.Join(path[1:], "."), err)
	}
	return string(data), nil
}
