package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tbrandt/ndedit/internal/jsonval"
	"github.com/tbrandt/ndedit/internal/loadtest"
	"github.com/tbrandt/ndedit/internal/ui"
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Record and summarize load-test response times",
	Long: `Track load-test response times in a SQLite database.

Samples are written in batches from a background writer so recording stays
cheap on the hot path. Each invocation of record gets a fresh run ID; the
summary command reports latency percentiles per query and overall.`,
}

var loadtestInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the load-test database and schema",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadLoadtestConfig(cmd)

		db, err := loadtest.Open(cfg.Database.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		fmt.Printf("%s Initialized %s\n", ui.RenderPass("*"), cfg.Database.File)
	},
}

var loadtestRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record NDJSON samples from stdin as one run",
	Long: `Read samples from stdin, one JSON object per line, and record them.

Each line carries query_name, response_time_ms, status_code, success, and
error_message. The run is tracked according to run_tracking.method and its
ID is printed when recording finishes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadLoadtestConfig(cmd)

		db, err := loadtest.Open(cfg.Database.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		rec := loadtest.NewRecorder(db, cfg.Database, nil)
		if err := cfg.TrackStart(db, rec.RunID()); err != nil {
			fmt.Fprintf(os.Stderr, "Error tracking run start: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Started run %s\n", rec.RunID())

		status := "completed"
		count := 0
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			sample, err := parseSample(scanner.Bytes())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error on line %d: %v\n", count+1, err)
				status = "failed"
				break
			}
			if err := rec.Record(sample); err != nil {
				fmt.Fprintf(os.Stderr, "Error recording sample: %v\n", err)
				status = "failed"
				break
			}
			count++
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			status = "failed"
		}

		if err := rec.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error flushing samples: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.TrackEnd(db, rec.RunID(), status); err != nil {
			fmt.Fprintf(os.Stderr, "Error tracking run end: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Recorded %d samples for run %s\n", ui.RenderPass("*"), count, rec.RunID())
		if status != "completed" {
			os.Exit(1)
		}
	},
}

var loadtestSummaryCmd = &cobra.Command{
	Use:   "summary [run-id]",
	Short: "Print latency statistics for a run",
	Long: `Summarize one run's response times, overall and per query name.

Without a run ID the most recently started run is summarized.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadLoadtestConfig(cmd)

		db, err := loadtest.Open(cfg.Database.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		var runID string
		if len(args) == 1 {
			runID = args[0]
		} else {
			runID, err = db.LatestRunID()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		summary, err := db.SummarizeRun(runID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error summarizing run: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Run %s\n\n", ui.RenderAccent("*"), summary.RunID)
		fmt.Println("Overall:")
		fmt.Print(summary.Overall.Format())
		for name, stats := range summary.Queries {
			fmt.Printf("\n%s:\n", name)
			fmt.Print(stats.Format())
		}
	},
}

// loadLoadtestConfig reads the --config TOML file or exits.
func loadLoadtestConfig(cmd *cobra.Command) *loadtest.Config {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadtest.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// parseSample decodes one stdin line into a sample.
func parseSample(line []byte) (loadtest.Sample, error) {
	v, err := jsonval.Parse(line)
	if err != nil {
		return loadtest.Sample{}, err
	}
	obj, ok := v.(*jsonval.Object)
	if !ok {
		return loadtest.Sample{}, fmt.Errorf("sample must be a JSON object")
	}

	var sample loadtest.Sample
	if name, ok := obj.Get("query_name"); ok {
		sample.QueryName, _ = name.(string)
	}
	if sample.QueryName == "" {
		return loadtest.Sample{}, fmt.Errorf("sample missing query_name")
	}
	if ms, ok := obj.Get("response_time_ms"); ok {
		if num, ok := ms.(json.Number); ok {
			f, err := num.Float64()
			if err != nil {
				return loadtest.Sample{}, fmt.Errorf("invalid response_time_ms: %w", err)
			}
			sample.ResponseTime = time.Duration(f * float64(time.Millisecond))
		}
	}
	if code, ok := obj.Get("status_code"); ok {
		if num, ok := code.(json.Number); ok {
			n, err := num.Int64()
			if err != nil {
				return loadtest.Sample{}, fmt.Errorf("invalid status_code: %w", err)
			}
			sample.StatusCode = int(n)
		}
	}
	if success, ok := obj.Get("success"); ok {
		sample.Success, _ = success.(bool)
	}
	if msg, ok := obj.Get("error_message"); ok {
		sample.ErrorMessage, _ = msg.(string)
	}

	return sample, nil
}

func init() {
	loadtestCmd.PersistentFlags().StringP("config", "c", "config.toml", "Load-test configuration file")
	loadtestCmd.AddCommand(loadtestInitCmd)
	loadtestCmd.AddCommand(loadtestRecordCmd)
	loadtestCmd.AddCommand(loadtestSummaryCmd)
	rootCmd.AddCommand(loadtestCmd)
}
