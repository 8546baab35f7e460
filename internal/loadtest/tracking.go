package loadtest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TrackStart records the start of a run using the configured tracking
// method: a row in the runs table or a line in a plain text log.
func (c *Config) TrackStart(db *DB, runID string) error {
	switch c.RunTracking.Method {
	case "database":
		snapshot, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to snapshot config: %w", err)
		}
		return db.StartRun(runID, string(snapshot))
	case "file":
		return appendTrackingLine(c.trackingFile(), runID, "started")
	default:
		return fmt.Errorf("invalid run_tracking.method: %q", c.RunTracking.Method)
	}
}

// TrackEnd records the end of a run with the given status.
func (c *Config) TrackEnd(db *DB, runID, status string) error {
	switch c.RunTracking.Method {
	case "database":
		return db.EndRun(runID, status)
	case "file":
		return appendTrackingLine(c.trackingFile(), runID, status)
	default:
		return fmt.Errorf("invalid run_tracking.method: %q", c.RunTracking.Method)
	}
}

func (c *Config) trackingFile() string {
	if c.RunTracking.File != "" {
		return c.RunTracking.File
	}
	return "run_ids.txt"
}

func appendTrackingLine(path, runID, status string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open tracking file: %w", err)
	}
	defer f.Close()

	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := fmt.Fprintf(f, "%s -- %s -- %s\n", stamp, runID, status); err != nil {
		return fmt.Errorf("failed to append tracking line: %w", err)
	}
	return nil
}
