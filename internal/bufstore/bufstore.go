// Package bufstore persists the buffer and memory artifacts and orchestrates
// whole-file rebuilds between them and the NDJSON source.
//
// Both rebuild directions are all-or-nothing by construction: each fully
// reads its inputs, transforms entirely in memory, and only then overwrites
// its output files. A failure anywhere before the write phase leaves every
// file exactly as it was.
package bufstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/tbrandt/ndedit/internal/config"
	"github.com/tbrandt/ndedit/internal/jsonval"
	"github.com/tbrandt/ndedit/internal/memory"
	"github.com/tbrandt/ndedit/internal/transform"
)

// Store owns the buffer and memory artifacts for one source file.
type Store struct {
	paths  config.Paths
	logger *log.Logger
}

// New creates a Store over the given artifact paths.
// If logger is nil, a default logger writing to stderr is used.
func New(paths config.Paths, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	return &Store{paths: paths, logger: logger}
}

// Paths returns the artifact paths this store operates on.
func (s *Store) Paths() config.Paths {
	return s.paths
}

// CreateBuffers rebuilds the buffer and memory files from the source.
//
// The source is read line by line; each line is parsed and expanded into a
// shared memory registry. Any line that fails to parse aborts the entire
// rebuild with a ParseError naming the line number, before either artifact
// is overwritten.
func (s *Store) CreateBuffers() error {
	data, err := os.ReadFile(s.paths.Source)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	records := []any{}
	mem := memory.New()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		record, err := jsonval.Parse(scanner.Bytes())
		if err != nil {
			return &ParseError{File: s.paths.Source, Line: lineNum, Err: err}
		}

		expanded, err := transform.Simplify(record, mem)
		if err != nil {
			return &ParseError{File: s.paths.Source, Line: lineNum, Err: err}
		}
		records = append(records, expanded)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan source: %w", err)
	}

	buffer, err := jsonval.Indent(records)
	if err != nil {
		return fmt.Errorf("failed to render buffer: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.paths.Buffer), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := mem.Save(s.paths.Memory); err != nil {
		return err
	}
	if err := os.WriteFile(s.paths.Buffer, buffer, 0644); err != nil {
		return fmt.Errorf("failed to write buffer file: %w", err)
	}

	s.logger.Printf("Expanded %d records (%d encoded locations)", len(records), mem.Len())
	return nil
}

// RegenerateSource rebuilds the source file from the buffer and memory
// files, one compact JSON object per line.
func (s *Store) RegenerateSource() error {
	data, err := os.ReadFile(s.paths.Buffer)
	if err != nil {
		return fmt.Errorf("failed to read buffer: %w", err)
	}

	parsed, err := jsonval.Parse(data)
	if err != nil {
		return &ParseError{File: s.paths.Buffer, Err: err}
	}
	records, ok := parsed.([]any)
	if !ok {
		return &ParseError{File: s.paths.Buffer, Err: errors.New("buffer must be a JSON array")}
	}

	mem, err := memory.Load(s.paths.Memory)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &MissingMemoryError{Path: s.paths.Memory}
		}
		return &ParseError{File: s.paths.Memory, Err: err}
	}

	var out bytes.Buffer
	for _, record := range records {
		packed, err := transform.Flatten(record, mem)
		if err != nil {
			return fmt.Errorf("failed to pack record: %w", err)
		}
		line, err := jsonval.Compact(packed)
		if err != nil {
			return fmt.Errorf("failed to render record: %w", err)
		}
		out.Write(line)
		out.WriteByte('\n')
	}

	if err := os.WriteFile(s.paths.Source, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write source file: %w", err)
	}

	s.logger.Printf("Packed %d records to %s", len(records), s.paths.Source)
	return nil
}

// BackupSource writes a one-time copy of the source next to it, returning
// the backup path.
func (s *Store) BackupSource() (string, error) {
	src, err := os.Open(s.paths.Source)
	if err != nil {
		return "", fmt.Errorf("failed to open source for backup: %w", err)
	}
	defer src.Close()

	backupPath := s.paths.Source + ".bk"
	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(backupPath)
		return "", fmt.Errorf("failed to copy source to backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to finish backup: %w", err)
	}

	return backupPath, nil
}
