package loadtest

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sample is one measured request.
type Sample struct {
	QueryName    string
	ResponseTime time.Duration
	StatusCode   int
	Success      bool
	ErrorMessage string
}

// row is a sample stamped at the moment it was recorded.
type row struct {
	sample Sample
	at     time.Time
}

// Recorder batches samples and writes them to the database from a
// background goroutine. A batch is flushed when it reaches the configured
// size or when the flush interval elapses, whichever comes first.
type Recorder struct {
	db            *DB
	runID         string
	batchSize     int
	flushInterval time.Duration
	logger        *log.Logger

	rows chan row
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRecorder starts a recorder for a fresh run. Call Close to drain
// pending samples.
func NewRecorder(db *DB, cfg DatabaseConfig, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.New(os.Stderr, "[loadtest] ", log.LstdFlags)
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 100
	}
	flushInterval := cfg.FlushDuration()
	if flushInterval <= 0 {
		flushInterval = time.Second
	}

	r := &Recorder{
		db:            db,
		runID:         uuid.NewString(),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        logger,
		rows:          make(chan row, 4*batchSize),
	}

	r.wg.Add(1)
	go r.writeLoop()

	return r
}

// RunID returns the identifier samples are recorded under.
func (r *Recorder) RunID() string {
	return r.runID
}

// Record queues one sample. Returns an error after Close.
func (r *Recorder) Record(s Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("recorder is closed")
	}
	r.rows <- row{sample: s, at: time.Now().UTC()}
	return nil
}

// Close stops the writer and flushes all remaining samples.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.rows)
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}

// writeLoop drains the sample channel into batched inserts.
func (r *Recorder) writeLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	batch := make([]row, 0, r.batchSize)
	for {
		select {
		case rw, ok := <-r.rows:
			if !ok {
				r.flush(batch)
				return
			}
			batch = append(batch, rw)
			if len(batch) >= r.batchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

// flush writes one batch in a single transaction.
func (r *Recorder) flush(batch []row) {
	if len(batch) == 0 {
		return
	}

	tx, err := r.db.conn.Begin()
	if err != nil {
		r.logger.Printf("Failed to begin flush transaction: %v", err)
		return
	}

	stmt, err := tx.Prepare(
		`INSERT INTO response_times
		 (run_id, timestamp, query_name, response_time_ms, status_code, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		r.logger.Printf("Failed to prepare flush statement: %v", err)
		_ = tx.Rollback()
		return
	}

	for _, rw := range batch {
		success := 0
		if rw.sample.Success {
			success = 1
		}
		_, err := stmt.Exec(
			r.runID,
			rw.at.Format(time.RFC3339Nano),
			rw.sample.QueryName,
			float64(rw.sample.ResponseTime)/float64(time.Millisecond),
			rw.sample.StatusCode,
			success,
			rw.sample.ErrorMessage,
		)
		if err != nil {
			r.logger.Printf("Failed to insert sample: %v", err)
			_ = stmt.Close()
			_ = tx.Rollback()
			return
		}
	}

	_ = stmt.Close()
	if err := tx.Commit(); err != nil {
		r.logger.Printf("Failed to commit %d samples: %v", len(batch), err)
	}
}
