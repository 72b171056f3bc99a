package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
	"github.com/h3x89/Apple-Health-Data-Analyzer/healthexport"
	"github.com/h3x89/Apple-Health-Data-Analyzer/pipeline"
)

func main() {
	var (
		exportPath = flag.String("export", "export.xml", "Path to the Apple Health export.xml")
		configPath = flag.String("config", "", "Optional YAML config file")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [--export export.xml] [--config c.yaml]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := healthdata.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = pipeline.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stepreport failed: %v\n", err)
			os.Exit(1)
		}
	}

	f, err := os.Open(*exportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stepreport failed: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var (
		steps    []*healthdata.QuantitySample
		sessions []*healthdata.WorkoutSession
	)
	dedupe := healthdata.NewSampleDeduper()
	parser := healthexport.NewParser(f)
	for parser.Next() {
		rec := parser.Record()
		switch {
		case rec.Sample != nil && rec.Sample.Type == healthdata.SampleSteps:
			if dedupe.Keep(rec.Sample) && cfg.KeepSample(rec.Sample) {
				steps = append(steps, rec.Sample)
			}
		case rec.Workout != nil:
			sessions = append(sessions, rec.Workout)
		}
	}
	if err := parser.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "stepreport failed: %v\n", err)
		os.Exit(1)
	}

	result := healthdata.CorrectSteps(steps, sessions, cfg)

	suppressedNames := make([]string, 0, len(cfg.NonAmbulatory))
	for at := range cfg.NonAmbulatory {
		suppressedNames = append(suppressedNames, string(at))
	}
	sort.Strings(suppressedNames)

	fmt.Printf("Step correction report (%s)\n", *exportPath)
	fmt.Printf("Suppressed activity types: %s\n\n", strings.Join(suppressedNames, ", "))
	fmt.Printf("Raw steps:        %d\n", result.TotalRaw())
	fmt.Printf("Subtracted:       %d\n", result.TotalRaw()-result.TotalCorrected())
	fmt.Printf("Corrected steps:  %d\n\n", result.TotalCorrected())

	days := make([]string, 0, len(result.RawByDay))
	for day := range result.RawByDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		fmt.Printf("%s  raw %6d  -%6d  => %6d\n",
			day,
			result.RawByDay[day],
			result.SubtractedByDay[day],
			result.CorrectedByDay[day],
		)
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if parser.Skipped() > 0 {
		fmt.Printf("warning: %d malformed fragments skipped\n", parser.Skipped())
	}
}
