// Package fieldfilter screens dashboard-library NDJSON exports against an
// allowed-field list.
//
// A dashboard export mixes saved objects of several types; searches and
// visualizations reference index fields, some of them inside double-encoded
// attribute payloads (searchSourceJSON, visState). An object is safe when
// every field it references appears in the allowed set; unsafe objects are
// filtered out so the export can be loaded against a reduced index mapping.
package fieldfilter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/tbrandt/ndedit/internal/jsonval"
)

// FieldSet is the allow-list of index fields. A set loaded from a missing
// file allows everything, so the filter degrades to a pass-through.
type FieldSet struct {
	fields   map[string]struct{}
	allowAll bool
}

// AllowAll returns a set that contains every field.
func AllowAll() *FieldSet {
	return &FieldSet{allowAll: true}
}

// NewFieldSet builds a set from explicit field names.
func NewFieldSet(fields []string) *FieldSet {
	set := &FieldSet{fields: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		set.fields[f] = struct{}{}
	}
	return set
}

// LoadFieldSet reads one field name per line from path. A missing file
// yields an allow-all set.
func LoadFieldSet(path string) (*FieldSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return AllowAll(), nil
		}
		return nil, fmt.Errorf("failed to open field list: %w", err)
	}
	defer f.Close()

	var fields []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			fields = append(fields, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read field list: %w", err)
	}

	return NewFieldSet(fields), nil
}

// Contains reports whether field is allowed.
func (s *FieldSet) Contains(field string) bool {
	if s.allowAll {
		return true
	}
	_, ok := s.fields[field]
	return ok
}

// containsAll reports whether every field is allowed.
func (s *FieldSet) containsAll(fields []string) bool {
	for _, f := range fields {
		if !s.Contains(f) {
			return false
		}
	}
	return true
}

// ReadLibrary parses a dashboard NDJSON export. Objects without a "type"
// attribute carry no field references and are dropped.
func ReadLibrary(r io.Reader) ([]any, error) {
	var items []any

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		item, err := jsonval.Parse(scanner.Bytes())
		if err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNum, err)
		}
		if _, ok := getString(item, "type"); !ok {
			continue
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan library: %w", err)
	}

	return items, nil
}

// Filter returns the items whose referenced fields are all allowed. Types
// other than search and visualization pass through untouched.
func Filter(items []any, allowed *FieldSet, logger *log.Logger) ([]any, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[filter] ", log.LstdFlags)
	}

	var kept []any
	for _, item := range items {
		typ, _ := getString(item, "type")

		var (
			fields []string
			err    error
			check  bool
		)
		switch typ {
		case "search":
			fields, err = searchFields(item, logger)
			check = true
		case "visualization":
			fields, err = visualizationFields(item)
			check = true
		}
		if err != nil {
			return nil, err
		}

		if check {
			if !allowed.containsAll(fields) {
				logger.Printf("%s fields %v -> filtered out", typ, fields)
				continue
			}
			logger.Printf("%s fields %v -> safe", typ, fields)
		}
		kept = append(kept, item)
	}

	return kept, nil
}

// searchFields collects the fields a saved search references: its column
// list (minus the pseudo-column _source) plus any fields named by a kuery
// query inside the double-encoded searchSourceJSON attribute.
func searchFields(item any, logger *log.Logger) ([]string, error) {
	var fields []string

	for _, col := range getStringArray(item, "attributes", "columns") {
		if col != "_source" {
			fields = append(fields, col)
		}
	}

	raw, ok := getString(item, "attributes", "kibanaSavedObjectMeta", "searchSourceJSON")
	if !ok {
		return fields, nil
	}
	searchSource, err := jsonval.Parse([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid searchSourceJSON: %w", err)
	}

	lang, _ := getString(searchSource, "query", "language")
	if lang != "kuery" {
		logger.Printf("non-kuery search query, skipping field extraction")
		return fields, nil
	}
	if query, ok := getString(searchSource, "query", "query"); ok {
		fields = append(fields, KueryFields(query)...)
	}

	return fields, nil
}

// visualizationFields collects the fields a visualization references from
// its double-encoded visState attribute: aggregation params and input
// control bindings.
func visualizationFields(item any) ([]string, error) {
	raw, ok := getString(item, "attributes", "visState")
	if !ok {
		return nil, nil
	}
	visState, err := jsonval.Parse([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid visState: %w", err)
	}

	var fields []string

	for _, agg := range getArray(visState, "aggs") {
		if field, ok := getString(agg, "params", "field"); ok {
			fields = append(fields, field)
		}
	}

	for _, control := range getArray(visState, "params", "controls") {
		if field, ok := getString(control, "fieldName"); ok {
			fields = append(fields, field)
		}
	}

	return fields, nil
}

// WriteNDJSON writes items one compact JSON object per line.
func WriteNDJSON(w io.Writer, items []any) error {
	for _, item := range items {
		line, err := jsonval.Compact(item)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// getString walks nested objects by key and returns a string leaf.
func getString(v any, keys ...string) (string, bool) {
	leaf, ok := walk(v, keys)
	if !ok {
		return "", false
	}
	s, ok := leaf.(string)
	return s, ok
}

// getArray walks nested objects by key and returns an array leaf.
func getArray(v any, keys ...string) []any {
	leaf, ok := walk(v, keys)
	if !ok {
		return nil
	}
	arr, _ := leaf.([]any)
	return arr
}

// getStringArray returns the string elements of an array leaf.
func getStringArray(v any, keys ...string) []string {
	var out []string
	for _, elem := range getArray(v, keys...) {
		if s, ok := elem.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func walk(v any, keys []string) (any, bool) {
	cur := v
	for _, key := range keys {
		obj, ok := cur.(*jsonval.Object)
		if !ok {
			return nil, false
		}
		cur, ok = obj.Get(key)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
