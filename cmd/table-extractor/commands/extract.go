package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spherical/table-extractor/cmd/table-extractor/ui"
	"github.com/spherical/table-extractor/internal/config"
	"github.com/spherical/table-extractor/internal/observability"
	"github.com/spherical/table-extractor/pkg/extractor"
)

var (
	extractJSON      bool
	extractOutputDir string
	extractJobs      int
	extractTimeout   time.Duration
)

var extractCmd = &cobra.Command{
	Use:   "extract file.pdf...",
	Short: "Extract course records from one or more PDFs",
	Long: `Extract course records from the first page of each PDF and print them.
With --output-dir the spreadsheet and the records of each file are saved as
<name>.xlsx and <name>.json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print results as JSON")
	extractCmd.Flags().StringVarP(&extractOutputDir, "output-dir", "o", "", "directory for .xlsx and .json outputs")
	extractCmd.Flags().IntVarP(&extractJobs, "jobs", "j", 1, "number of files processed concurrently")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 10*time.Minute, "overall timeout")
	rootCmd.AddCommand(extractCmd)
}

// processor is the part of extractor.Client the command needs.
type processor interface {
	Stream(ctx context.Context, pdfPath string, events chan<- extractor.StreamEvent) (*extractor.Result, error)
}

var newProcessor = func(cfg *config.Config, logger *observability.Logger) (processor, error) {
	return extractor.NewClientWithConfig(cfg, logger)
}

// fileResult is the outcome for one input file.
type fileResult struct {
	File     string             `json:"file"`
	Data     []extractor.Record `json:"data"`
	Error    string             `json:"error,omitempty"`
	Tables   int                `json:"tables"`
	Duration time.Duration      `json:"-"`
	workbook []byte
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), extractTimeout)
	defer cancel()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ui.InitUI(noColor, verbose, extractJSON)

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		Output:      os.Stderr,
		ServiceName: cfg.Observability.ServiceName,
	})

	proc, err := newProcessor(cfg, logger)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}

	if extractJobs < 1 {
		extractJobs = 1
	}

	results := processFiles(ctx, proc, args, extractJobs)

	if extractOutputDir != "" {
		if err := writeOutputs(extractOutputDir, results); err != nil {
			return err
		}
		ui.Info("Outputs written to %s", extractOutputDir)
	}

	if extractJSON {
		if err := printJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		printSummary(results)
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// processFiles runs every file through proc with at most jobs in flight. A
// failing file does not stop the others. Results keep the input order.
func processFiles(ctx context.Context, proc processor, files []string, jobs int) []fileResult {
	results := make([]fileResult, len(files))

	if len(files) == 1 {
		results[0] = processWithSpinner(ctx, proc, files[0])
		return results
	}

	bar := ui.NewProgressBar(int64(len(files)), "Extracting")
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		g.Go(func() error {
			mu.Lock()
			bar.Describe(filepath.Base(file))
			mu.Unlock()
			results[i] = processOne(gctx, proc, file, nil)
			mu.Lock()
			bar.Add(1)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	bar.Finish()
	return results
}

func processWithSpinner(ctx context.Context, proc processor, file string) fileResult {
	spinner := ui.NewSpinner(fmt.Sprintf("Extracting %s...", filepath.Base(file)))
	spinner.Start()

	var stages []string
	events := make(chan extractor.StreamEvent, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			if e.Type == extractor.EventStageComplete {
				stages = append(stages, fmt.Sprintf("%s: %s", e.Stage, e.Payload))
				spinner.UpdateMessage(fmt.Sprintf("%s: %s", filepath.Base(file), e.Payload))
			}
		}
	}()

	result := processOne(ctx, proc, file, events)
	close(events)
	<-done
	spinner.Stop()

	if ui.Verbose() {
		for _, s := range stages {
			ui.Info("%s", s)
		}
	}
	return result
}

func processOne(ctx context.Context, proc processor, file string, events chan<- extractor.StreamEvent) fileResult {
	start := time.Now()
	res, err := proc.Stream(ctx, file, events)
	if err != nil {
		return fileResult{File: file, Error: err.Error(), Duration: time.Since(start)}
	}
	data := res.Records
	if data == nil {
		data = []extractor.Record{}
	}
	return fileResult{
		File:     file,
		Data:     data,
		Tables:   res.Tables,
		Duration: time.Since(start),
		workbook: res.Workbook,
	}
}

// writeOutputs saves <name>.xlsx and <name>.json for every successful file.
// Inputs sharing a base name get -2, -3, ... suffixes in input order.
func writeOutputs(dir string, results []fileResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	used := make(map[string]bool)
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		base := outputBase(r.File, used)

		if err := os.WriteFile(filepath.Join(dir, base+".xlsx"), r.workbook, 0o644); err != nil {
			return fmt.Errorf("write spreadsheet for %s: %w", r.File, err)
		}

		data, err := json.MarshalIndent(map[string]any{"data": r.Data}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode records for %s: %w", r.File, err)
		}
		if err := os.WriteFile(filepath.Join(dir, base+".json"), append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write records for %s: %w", r.File, err)
		}
	}
	return nil
}

func outputBase(file string, used map[string]bool) string {
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	base := stem
	for n := 2; used[base]; n++ {
		base = fmt.Sprintf("%s-%d", stem, n)
	}
	used[base] = true
	return base
}

func printJSON(w io.Writer, results []fileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func printSummary(results []fileResult) {
	for _, r := range results {
		ui.Section(r.File)
		if r.Error != "" {
			ui.Error("%s", r.Error)
			continue
		}

		rows := make([][]string, len(r.Data))
		for i, rec := range r.Data {
			rows[i] = []string{rec.CourseCode, rec.CourseName, rec.Section}
		}
		if len(rows) == 0 {
			ui.Warning("no complete course rows found")
		} else {
			ui.Table([]string{"Course Code", "Course Name", "Section"}, rows)
			ui.Newline()
			ui.Success("%d records", len(rows))
		}
		ui.KeyValue("Tables", fmt.Sprint(r.Tables))
		ui.KeyValue("Duration", ui.FormatDuration(r.Duration))
	}
}
