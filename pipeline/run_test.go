package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
)

const testExport = `<?xml version="1.0" encoding="UTF-8"?>
<HealthData locale="en_US">
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="Watch" unit="count" startDate="2025-05-10 08:00:00 +0200" endDate="2025-05-10 09:00:00 +0200" value="3000"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="Watch" unit="count" startDate="2025-05-10 10:15:00 +0200" endDate="2025-05-10 10:45:00 +0200" value="1200"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="Watch" unit="count" startDate="2025-05-10 10:15:00 +0200" endDate="2025-05-10 10:45:00 +0200" value="1200"/>
 <Record type="HKQuantityTypeIdentifierStepCount" sourceName="Watch" unit="count" startDate="2025-05-10 14:00:00 +0200" endDate="2025-05-10 15:00:00 +0200" value="3800"/>
 <Record type="HKQuantityTypeIdentifierActiveEnergyBurned" sourceName="Watch" unit="kcal" startDate="2025-05-10 10:00:00 +0200" endDate="2025-05-10 11:30:00 +0200" value="540"/>
 <Record type="HKQuantityTypeIdentifierBasalEnergyBurned" sourceName="Watch" unit="kcal" startDate="2025-05-10 00:00:00 +0200" endDate="2025-05-10 23:59:00 +0200" value="1600"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" sourceName="Watch" unit="count/min" startDate="2025-05-10 10:20:00 +0200" endDate="2025-05-10 10:20:00 +0200" value="150"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" sourceName="Watch" unit="count/min" startDate="2025-05-10 22:00:00 +0200" endDate="2025-05-10 22:00:00 +0200" value="70"/>
 <Workout workoutActivityType="HKWorkoutActivityTypeCycling" startDate="2025-05-10 10:00:00 +0200" endDate="2025-05-10 11:30:00 +0200" sourceName="Watch">
  <WorkoutStatistics type="HKQuantityTypeIdentifierDistanceCycling" sum="24.0" unit="km"/>
 </Workout>
</HealthData>`

const testRouteGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="Apple Health Export">
 <trk><trkseg>
  <trkpt lat="52.2297" lon="21.0122"><ele>110</ele><time>2025-05-10T08:05:00Z</time></trkpt>
  <trkpt lat="52.2397" lon="21.0222"><ele>140</ele><time>2025-05-10T08:35:00Z</time></trkpt>
  <trkpt lat="52.2497" lon="21.0322"><ele>125</ele><time>2025-05-10T09:25:00Z</time></trkpt>
 </trkseg></trk>
</gpx>`

func writeFixture(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	exportPath := writeFixture(t, dir, "export.xml", testExport)
	routesDir := filepath.Join(dir, "workout-routes")
	if err := os.MkdirAll(routesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// GPS timestamps are UTC; 08:05Z to 09:25Z covers the 10:00 +0200
	// session once the 5 minute tolerance pads the window.
	writeFixture(t, routesDir, "route_2025-05-10.gpx", testRouteGPX)
	outDir := filepath.Join(dir, "out")

	logger := zerolog.Nop()
	result, err := Run(context.Background(), Options{
		ExportPath: exportPath,
		RoutesDir:  routesDir,
		OutDir:     outDir,
		Config:     healthdata.DefaultConfig(),
		Logger:     &logger,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.SampleCount != 7 {
		t.Fatalf("samples = %d, want 7 (one exact duplicate suppressed)", result.SampleCount)
	}
	if result.SessionCount != 1 {
		t.Fatalf("sessions = %d, want 1", result.SessionCount)
	}
	if result.RoutesLoaded != 1 {
		t.Fatalf("routes loaded = %d, want 1", result.RoutesLoaded)
	}
	if result.SkippedFragments != 0 {
		t.Fatalf("skipped = %d, want 0", result.SkippedFragments)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(result.Entries))
	}
	day := result.Entries[0]
	if day.Date != "2025-05-10" {
		t.Fatalf("date = %s, want 2025-05-10", day.Date)
	}
	// 8000 raw steps minus the 1200 overlapping the cycling session.
	if day.CorrectedSteps != 6800 {
		t.Fatalf("corrected steps = %d, want 6800", day.CorrectedSteps)
	}
	if day.TotalEnergyKcal != 2140 {
		t.Fatalf("energy = %v, want 2140", day.TotalEnergyKcal)
	}
	if day.WorkoutCount != 1 {
		t.Fatalf("workout count = %d, want 1", day.WorkoutCount)
	}

	// Route distance replaces the 24 km device figure.
	cycling := day.DistanceByActivity[healthdata.ActivityCycling]
	if cycling <= 0 {
		t.Fatal("cycling distance missing")
	}
	if math.Abs(cycling-24000) < 1 {
		t.Fatalf("device distance used instead of route distance: %v", cycling)
	}
	if day.ElevationGainM != 30 {
		t.Fatalf("elevation = %v, want 30 (route climb)", day.ElevationGainM)
	}

	for _, path := range []string{
		result.LedgerJSONPath,
		result.LedgerParquetPath,
		result.SummaryPath,
		result.CaptionPath,
	} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("artifact missing: %v", err)
		}
		if info.Size() == 0 {
			t.Fatalf("artifact empty: %s", path)
		}
	}

	data, err := os.ReadFile(result.LedgerJSONPath)
	if err != nil {
		t.Fatal(err)
	}
	var ledger ledgerFile
	if err := json.Unmarshal(data, &ledger); err != nil {
		t.Fatalf("ledger.json invalid: %v", err)
	}
	if len(ledger.Entries) != 1 || ledger.Entries[0].CorrectedSteps != 6800 {
		t.Fatalf("ledger.json entries = %+v", ledger.Entries)
	}

	hr, ok := result.HeartRate["2025-05-10"]
	if !ok {
		t.Fatalf("no heart-rate stats for 2025-05-10: %v", result.HeartRate)
	}
	if hr.Samples != 2 || hr.Min != 70 || hr.Max != 150 || hr.Avg != 110 {
		t.Fatalf("heart-rate stats = %+v", hr)
	}
	summary, err := os.ReadFile(result.SummaryPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(summary), "HR 110 bpm (70-150)") {
		t.Fatalf("summary.txt missing heart-rate stats:\n%s", summary)
	}
}

func TestRunWithoutRoutesFallsBackToDeviceDistance(t *testing.T) {
	dir := t.TempDir()
	exportPath := writeFixture(t, dir, "export.xml", testExport)
	outDir := filepath.Join(dir, "out")

	logger := zerolog.Nop()
	result, err := Run(context.Background(), Options{
		ExportPath: exportPath,
		OutDir:     outDir,
		Config:     healthdata.DefaultConfig(),
		Logger:     &logger,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	day := result.Entries[0]
	if got := day.DistanceByActivity[healthdata.ActivityCycling]; got != 24000 {
		t.Fatalf("cycling distance = %v, want device-reported 24000", got)
	}
	if day.ElevationGainM != 0 {
		t.Fatalf("elevation without routes = %v, want 0", day.ElevationGainM)
	}
}

func TestRunBadRouteDegradesToWarning(t *testing.T) {
	dir := t.TempDir()
	exportPath := writeFixture(t, dir, "export.xml", testExport)
	routesDir := filepath.Join(dir, "workout-routes")
	if err := os.MkdirAll(routesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFixture(t, routesDir, "broken.gpx", `<gpx><trk><trkseg>`)
	outDir := filepath.Join(dir, "out")

	logger := zerolog.Nop()
	result, err := Run(context.Background(), Options{
		ExportPath: exportPath,
		RoutesDir:  routesDir,
		OutDir:     outDir,
		Config:     healthdata.DefaultConfig(),
		Logger:     &logger,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.RoutesLoaded != 0 {
		t.Fatalf("routes loaded = %d, want 0", result.RoutesLoaded)
	}
	var found bool
	for _, w := range result.Warnings {
		if w.Kind == healthdata.WarnRouteDropped {
			found = true
		}
	}
	if !found {
		t.Fatalf("no route-dropped warning in %v", result.Warnings)
	}
	// The run still completes with device metrics.
	if result.Entries[0].DistanceByActivity[healthdata.ActivityCycling] != 24000 {
		t.Fatalf("device fallback missing: %+v", result.Entries[0])
	}
}

func TestRunFatalOnCorruptExport(t *testing.T) {
	dir := t.TempDir()
	exportPath := writeFixture(t, dir, "export.xml", `<HealthData><Record <<<garbage`)
	outDir := filepath.Join(dir, "out")

	logger := zerolog.Nop()
	_, err := Run(context.Background(), Options{
		ExportPath: exportPath,
		OutDir:     outDir,
		Config:     healthdata.DefaultConfig(),
		Logger:     &logger,
	})
	if err == nil {
		t.Fatal("corrupt export did not fail the run")
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "ledger.json")); !os.IsNotExist(statErr) {
		t.Fatal("failed run must not publish artifacts")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	exportPath := writeFixture(t, dir, "export.xml", testExport)
	outDir := filepath.Join(dir, "out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger := zerolog.Nop()
	_, err := Run(ctx, Options{
		ExportPath: exportPath,
		OutDir:     outDir,
		Config:     healthdata.DefaultConfig(),
		Logger:     &logger,
	})
	if err == nil {
		t.Fatal("cancelled run did not fail")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "config.yaml", `
match_tolerance_minutes: 10
non_ambulatory: [cycling]
max_speed_kmh:
  cycling: 80
period_start: "2025-05-01"
period_end: "2025-05-31"
duplicate_policy: prefer_source
preferred_source: Watch
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MatchTolerance.Minutes() != 10 {
		t.Fatalf("tolerance = %v, want 10m", cfg.MatchTolerance)
	}
	if !cfg.Suppressed(healthdata.ActivityCycling) || cfg.Suppressed(healthdata.ActivitySkating) {
		t.Fatalf("non_ambulatory override not applied: %v", cfg.NonAmbulatory)
	}
	if got := cfg.MaxSpeedFor(healthdata.ActivityCycling); math.Abs(got-80.0/3.6) > 1e-9 {
		t.Fatalf("cycling max speed = %v, want %v", got, 80.0/3.6)
	}
	if cfg.PeriodStart.Format("2006-01-02") != "2025-05-01" {
		t.Fatalf("period start = %v", cfg.PeriodStart)
	}
	if cfg.DuplicatePolicy != healthdata.DuplicatePreferSource || cfg.PreferredSource != "Watch" {
		t.Fatalf("duplicate policy = %v/%v", cfg.DuplicatePolicy, cfg.PreferredSource)
	}
}

func TestLoadConfigRejectsUnknownPolicy(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "config.yaml", "duplicate_policy: newest_wins\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("unknown duplicate_policy accepted")
	}
}
