// Package pipeline wires the streaming parser, route loaders, matcher,
// step correction and daily aggregation into one run and writes the
// resulting artifacts.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
	"github.com/h3x89/Apple-Health-Data-Analyzer/healthexport"
	"github.com/h3x89/Apple-Health-Data-Analyzer/route"
)

// Options configures a reconciliation run.
type Options struct {
	// ExportPath is the Apple Health export log (export.xml).
	ExportPath string
	// RoutesDir holds the workout route files (.gpx / .fit). Optional.
	RoutesDir string
	// OutDir receives the artifacts. Created if missing.
	OutDir string

	Config healthdata.Config

	// Logger for run diagnostics. Defaults to stderr.
	Logger *zerolog.Logger
}

// Result reports what a run produced.
type Result struct {
	Entries   []healthdata.DailyLedgerEntry
	Warnings  []healthdata.Warning
	HeartRate map[string]healthdata.HeartRateStats

	LedgerJSONPath    string
	LedgerParquetPath string
	SummaryPath       string
	CaptionPath       string

	SampleCount      int
	SessionCount     int
	SkippedFragments int
	RoutesLoaded     int
}

// ledgerFile is the on-disk shape of ledger.json.
type ledgerFile struct {
	Entries  []healthdata.DailyLedgerEntry `json:"entries"`
	Warnings []healthdata.Warning          `json:"warnings,omitempty"`
}

// Run executes the full reconciliation and writes ledger.json,
// ledger.parquet, summary.txt and caption.txt into OutDir. Only a fatal
// parse error or I/O failure aborts the run; every other condition degrades
// into a warning on the Result.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.ExportPath) == "" {
		return nil, fmt.Errorf("export path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	logger := runLogger(opts.Logger)
	cfg := opts.Config

	samples, sessions, skipped, err := parseExport(ctx, opts.ExportPath, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int("samples", len(samples)).
		Int("sessions", len(sessions)).
		Int("skipped_fragments", skipped).
		Msg("export parsed")

	routes, routeWarnings := loadRoutes(opts.RoutesDir, logger)

	healthdata.MatchRoutes(sessions, routes, cfg.MatchTolerance)

	steps := make([]*healthdata.QuantitySample, 0, len(samples))
	for _, s := range samples {
		if s.Type == healthdata.SampleSteps {
			steps = append(steps, s)
		}
	}
	correction := healthdata.CorrectSteps(steps, sessions, cfg)

	agg := healthdata.NewAggregator(cfg)
	if skipped > 0 {
		agg.Warn(healthdata.Warning{
			Kind:    healthdata.WarnSkippedFragments,
			Message: fmt.Sprintf("%d malformed fragments skipped during parse", skipped),
		})
	}
	for _, w := range routeWarnings {
		agg.Warn(w)
	}
	for _, s := range samples {
		agg.AddSample(s)
	}
	for _, session := range sessions {
		agg.AddSession(session, sessionMetrics(session, routes, cfg, agg))
	}
	agg.SetCorrectedSteps(correction)

	entries, warnings := agg.Finalize()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hrSamples := make([]*healthdata.QuantitySample, 0, len(samples))
	for _, s := range samples {
		if s.Type == healthdata.SampleHeartRate && cfg.InPeriod(s.Start) {
			hrSamples = append(hrSamples, s)
		}
	}

	result := &Result{
		Entries:          entries,
		Warnings:         warnings,
		HeartRate:        healthdata.HeartRateByDay(hrSamples),
		SampleCount:      len(samples),
		SessionCount:     len(sessions),
		SkippedFragments: skipped,
		RoutesLoaded:     routes.Len(),
	}
	if err := writeArtifacts(opts.OutDir, result); err != nil {
		return nil, err
	}

	logger.Info().
		Int("days", len(entries)).
		Int("warnings", len(warnings)).
		Str("out_dir", opts.OutDir).
		Msg("ledger written")
	return result, nil
}

func runLogger(override *zerolog.Logger) zerolog.Logger {
	if override != nil {
		return *override
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// parseExport drains the export log in one pass, deduplicating samples by
// key and applying the duplicate policy. Cancellation is honored between
// records.
func parseExport(ctx context.Context, path string, cfg healthdata.Config) ([]*healthdata.QuantitySample, []*healthdata.WorkoutSession, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("open export log: %w", err)
	}
	defer f.Close()

	var (
		samples  []*healthdata.QuantitySample
		sessions []*healthdata.WorkoutSession
	)
	dedupe := healthdata.NewSampleDeduper()
	parser := healthexport.NewParser(f)

	for parser.Next() {
		if err := ctx.Err(); err != nil {
			return nil, nil, 0, err
		}
		rec := parser.Record()
		switch {
		case rec.Sample != nil:
			if dedupe.Keep(rec.Sample) && cfg.KeepSample(rec.Sample) {
				samples = append(samples, rec.Sample)
			}
		case rec.Workout != nil:
			sessions = append(sessions, rec.Workout)
		}
	}
	if err := parser.Err(); err != nil {
		return nil, nil, 0, err
	}
	return samples, sessions, parser.Skipped(), nil
}

// loadRoutes reads every track file in dir. A file that fails to load drops
// that route with a warning; the run continues and affected sessions fall
// back to device-reported metrics.
func loadRoutes(dir string, logger zerolog.Logger) (*healthdata.RouteSet, []healthdata.Warning) {
	routes := healthdata.NewRouteSet()
	if strings.TrimSpace(dir) == "" {
		return routes, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return routes, []healthdata.Warning{{
			Kind:    healthdata.WarnRouteDropped,
			Message: fmt.Sprintf("routes directory unreadable: %v", err),
		}}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var warnings []healthdata.Warning
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		var r *healthdata.Route
		var loadErr error
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".gpx":
			r, loadErr = route.LoadGPX(path)
		case ".fit":
			r, loadErr = route.LoadFIT(path)
		default:
			continue
		}

		if loadErr != nil {
			logger.Warn().Str("file", entry.Name()).Err(loadErr).Msg("route dropped")
			warnings = append(warnings, healthdata.Warning{
				Kind:    healthdata.WarnRouteDropped,
				Message: loadErr.Error(),
			})
			continue
		}
		routes.Add(r)
	}
	return routes, warnings
}

// sessionMetrics recomputes route metrics for a matched session. A
// degenerate route surfaces a warning and falls back to device-reported
// values by returning nil.
func sessionMetrics(s *healthdata.WorkoutSession, routes *healthdata.RouteSet, cfg healthdata.Config, agg *healthdata.Aggregator) *healthdata.RouteMetrics {
	if s.RouteID == "" {
		return nil
	}
	r := routes.Get(s.RouteID)
	if r == nil {
		return nil
	}
	metrics, err := route.ComputeMetrics(r, cfg.MaxSpeedFor(s.Activity))
	if err != nil {
		agg.Warn(healthdata.Warning{
			Kind:    healthdata.WarnRouteDropped,
			Date:    s.Day(),
			Message: err.Error(),
		})
		return nil
	}
	return &metrics
}

func writeArtifacts(outDir string, result *Result) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	result.LedgerJSONPath = filepath.Join(outDir, "ledger.json")
	if err := writeJSON(result.LedgerJSONPath, ledgerFile{Entries: result.Entries, Warnings: result.Warnings}); err != nil {
		return fmt.Errorf("write ledger.json: %w", err)
	}

	result.LedgerParquetPath = filepath.Join(outDir, "ledger.parquet")
	if err := writeLedgerParquet(result.LedgerParquetPath, result.Entries); err != nil {
		return fmt.Errorf("write ledger.parquet: %w", err)
	}

	result.SummaryPath = filepath.Join(outDir, "summary.txt")
	summary := healthdata.BuildSummary(result.Entries, result.HeartRate, result.Warnings)
	if err := os.WriteFile(result.SummaryPath, []byte(summary), 0o644); err != nil {
		return fmt.Errorf("write summary.txt: %w", err)
	}

	result.CaptionPath = filepath.Join(outDir, "caption.txt")
	caption := healthdata.BuildCaption(result.Entries)
	if err := os.WriteFile(result.CaptionPath, []byte(caption+"\n"), 0o644); err != nil {
		return fmt.Errorf("write caption.txt: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
