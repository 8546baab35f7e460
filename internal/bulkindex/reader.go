package bulkindex

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// decompressed pairs a decoding reader with every underlying resource that
// must be released when reading finishes.
type decompressed struct {
	io.Reader
	closers []func() error
}

func (d *decompressed) Close() error {
	var first error
	for _, close := range d.closers {
		if err := close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openInput opens the dataset for line reading, transparently decompressing
// by file extension (.gz, .bz2, .zst). An empty path reads stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return &decompressed{Reader: gz, closers: []func() error{gz.Close, file.Close}}, nil

	case strings.HasSuffix(path, ".bz2"):
		return &decompressed{Reader: bzip2.NewReader(file), closers: []func() error{file.Close}}, nil

	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		closeDec := func() error {
			dec.Close()
			return nil
		}
		return &decompressed{Reader: dec, closers: []func() error{closeDec, file.Close}}, nil

	default:
		return file, nil
	}
}
