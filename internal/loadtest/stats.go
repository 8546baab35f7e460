package loadtest

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// LatencyStats summarizes a distribution of response times.
type LatencyStats struct {
	Min          time.Duration
	Max          time.Duration
	Mean         time.Duration
	P50          time.Duration
	P95          time.Duration
	P99          time.Duration
	TotalQueries int
	Errors       int
}

// RunSummary aggregates one run's samples, overall and per query name.
type RunSummary struct {
	RunID   string
	Overall *LatencyStats
	Queries map[string]*LatencyStats
}

// computeLatencyStats calculates statistics from a slice of durations.
func computeLatencyStats(durations []time.Duration, errors int) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{Errors: errors}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	mean := sum / time.Duration(len(durations))

	return &LatencyStats{
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Mean:         mean,
		P50:          sorted[len(sorted)*50/100],
		P95:          sorted[len(sorted)*95/100],
		P99:          sorted[len(sorted)*99/100],
		TotalQueries: len(durations),
		Errors:       errors,
	}
}

// SummarizeRun reads all samples for a run and computes latency statistics.
func (db *DB) SummarizeRun(runID string) (*RunSummary, error) {
	rows, err := db.conn.Query(
		`SELECT query_name, response_time_ms, success FROM response_times WHERE run_id = ?`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var (
		allDurations []time.Duration
		allErrors    int
	)
	perQuery := make(map[string][]time.Duration)
	perQueryErrors := make(map[string]int)

	for rows.Next() {
		var (
			name    string
			ms      float64
			success int
		)
		if err := rows.Scan(&name, &ms, &success); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		d := time.Duration(ms * float64(time.Millisecond))
		allDurations = append(allDurations, d)
		perQuery[name] = append(perQuery[name], d)
		if success == 0 {
			allErrors++
			perQueryErrors[name]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}

	summary := &RunSummary{
		RunID:   runID,
		Overall: computeLatencyStats(allDurations, allErrors),
		Queries: make(map[string]*LatencyStats, len(perQuery)),
	}
	for name, durations := range perQuery {
		summary.Queries[name] = computeLatencyStats(durations, perQueryErrors[name])
	}

	return summary, nil
}

// LatestRunID returns the run ID of the most recently started run.
func (db *DB) LatestRunID() (string, error) {
	var runID string
	err := db.conn.QueryRow(
		`SELECT run_id FROM runs ORDER BY start_time DESC LIMIT 1`,
	).Scan(&runID)
	if err != nil {
		return "", fmt.Errorf("failed to find latest run: %w", err)
	}
	return runID, nil
}

// Format renders the statistics for terminal output.
func (s *LatencyStats) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Total Queries: %d\n", s.TotalQueries)
	fmt.Fprintf(&b, "  Errors:        %d\n", s.Errors)
	fmt.Fprintf(&b, "  Min:           %v\n", s.Min)
	fmt.Fprintf(&b, "  P50 (Median):  %v\n", s.P50)
	fmt.Fprintf(&b, "  Mean:          %v\n", s.Mean)
	fmt.Fprintf(&b, "  P95:           %v\n", s.P95)
	fmt.Fprintf(&b, "  P99:           %v\n", s.P99)
	fmt.Fprintf(&b, "  Max:           %v\n", s.Max)
	return b.String()
}
