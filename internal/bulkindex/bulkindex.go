// Package bulkindex streams NDJSON datasets into an OpenSearch or
// Elasticsearch cluster through the _bulk API.
//
// Lines are grouped into batches and uploaded by a pool of concurrent
// workers. By default each document gets a deterministic _id derived from
// its content, so re-running an import is idempotent. Live mode instead
// lets the cluster assign ids and rewrites embedded timestamps to the
// current time, simulating a fresh ingest stream.
package bulkindex

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultEndpoint    = "http://localhost:9200"
	defaultBatchSize   = 8192
	defaultConcurrency = 32

	maxRetries     = 5
	initialBackoff = 500 * time.Millisecond
)

// Options configures one bulk-indexing run.
type Options struct {
	// File is the dataset path; plain, .gz, .bz2, or .zst NDJSON. Empty
	// reads stdin.
	File string
	// Index is the target index name.
	Index string
	// Endpoint is the cluster base URL.
	Endpoint string
	// Username and Password enable HTTP basic authentication when both set.
	Username string
	Password string
	// Limit caps how many lines are read; 0 reads everything.
	Limit int
	// BatchSize is the number of documents per _bulk request.
	BatchSize int
	// Concurrency is the number of parallel upload workers.
	Concurrency int
	// Live skips the deterministic _id and rewrites timestamps to now.
	Live bool
}

// Stats reports what a finished run processed.
type Stats struct {
	Lines   int64
	Batches int64
}

// Run reads the dataset and uploads it batch by batch. The first upload
// failure cancels the run and is returned.
func Run(ctx context.Context, opts Options, logger *log.Logger) (*Stats, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[bulkindex] ", log.LstdFlags)
	}
	if opts.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}

	input, err := openInput(opts.File)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	client := &http.Client{Timeout: 5 * time.Minute}
	stats := &Stats{}
	var completed atomic.Int64

	// The channel doubles as the pending-batch cap: the reader blocks once
	// the workers fall this far behind, bounding memory.
	batches := make(chan []string, 2*opts.Concurrency)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.Concurrency; i++ {
		g.Go(func() error {
			for batch := range batches {
				if err := uploadBatch(ctx, client, &opts, batch); err != nil {
					return err
				}
				done := completed.Add(1)
				if done%100 == 0 {
					logger.Printf("Completed %d batches", done)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(batches)

		scanner := bufio.NewScanner(input)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

		batch := make([]string, 0, opts.BatchSize)
		for scanner.Scan() {
			if opts.Limit > 0 && stats.Lines >= int64(opts.Limit) {
				break
			}
			batch = append(batch, scanner.Text())
			stats.Lines++

			if len(batch) >= opts.BatchSize {
				stats.Batches++
				select {
				case batches <- batch:
				case <-ctx.Done():
					return ctx.Err()
				}
				batch = make([]string, 0, opts.BatchSize)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read dataset: %w", err)
		}

		if len(batch) > 0 {
			stats.Batches++
			select {
			case batches <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Printf("Indexed %d documents in %d batches", stats.Lines, stats.Batches)
	return stats, nil
}

// uploadBatch posts one _bulk body, retrying 429 responses with
// exponential backoff.
func uploadBatch(ctx context.Context, client *http.Client, opts *Options, batch []string) error {
	body := bulkBody(batch, opts.Index, opts.Live, time.Now().UTC())
	url := opts.Endpoint + "/_bulk"

	delay := initialBackoff
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-ndjson")
		if opts.Username != "" && opts.Password != "" {
			req.SetBasicAuth(opts.Username, opts.Password)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("bulk request failed: %w", err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("bulk request failed with status %d", resp.StatusCode)
		}
		return nil
	}
}

// bulkBody renders the action/document line pairs for one batch.
func bulkBody(batch []string, index string, live bool, now time.Time) string {
	var b strings.Builder
	for _, line := range batch {
		if live {
			fmt.Fprintf(&b, "{\"create\":{\"_index\":%q}}\n", index)
			b.WriteString(replaceTimestamps(line, now))
		} else {
			fmt.Fprintf(&b, "{\"create\":{\"_index\":%q,\"_id\":%q}}\n", index, docID(line))
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// docID derives a stable document id from the document content, so
// re-importing the same dataset overwrites instead of duplicating.
func docID(line string) string {
	sum := sha256.Sum256([]byte(line))
	return hex.EncodeToString(sum[:12])
}

// Matches ISO 8601 timestamps like 2024-11-20T18:35:12.123Z,
// 2024-11-20T18:35:12+00:00, and 2024-11-20 18:35:12.
var timestampPattern = regexp.MustCompile(
	`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d{3,9})?(?:Z|[+-]\d{2}:\d{2})?`,
)

// replaceTimestamps rewrites every embedded timestamp to now, so replayed
// datasets look current to time-filtered dashboards.
func replaceTimestamps(line string, now time.Time) string {
	stamp := now.Format("2006-01-02T15:04:05.000Z")
	return timestampPattern.ReplaceAllString(line, stamp)
}
