package bufstore

import "fmt"

// ParseError reports malformed JSON in a source line, the buffer file, or
// the memory file. It is fatal to the current rebuild only; previously valid
// files are left untouched.
type ParseError struct {
	// File is the path of the offending file.
	File string
	// Line is the 1-based source line, or 0 when the whole file failed.
	Line int
	// Err is the underlying decode error.
	Err error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: invalid JSON on line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: invalid JSON: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingMemoryError reports that the source cannot be regenerated because
// the memory file is gone: without it there is no way to determine which
// fields must be re-encoded.
type MissingMemoryError struct {
	// Path is where the memory file was expected.
	Path string
}

func (e *MissingMemoryError) Error() string {
	return fmt.Sprintf("memory file %s does not exist; the buffer cannot be packed without it", e.Path)
}
