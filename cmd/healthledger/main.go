package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
	"github.com/h3x89/Apple-Health-Data-Analyzer/pipeline"
)

func main() {
	var (
		exportPath = flag.String("export", "", "Path to the Apple Health export.xml")
		routesDir  = flag.String("routes", "", "Directory with workout route files (.gpx/.fit)")
		outDir     = flag.String("out", "", "Output directory")
		configPath = flag.String("config", "", "Optional YAML config file")
		fromDate   = flag.String("from", "", "Reporting period start (YYYY-MM-DD)")
		toDate     = flag.String("to", "", "Reporting period end (YYYY-MM-DD)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --export export.xml --out outdir [--routes dir] [--config c.yaml] [--from 2025-05-01] [--to 2025-05-31]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*exportPath) == "" || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := healthdata.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = pipeline.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "healthledger failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := applyPeriod(&cfg, *fromDate, *toDate); err != nil {
		fmt.Fprintf(os.Stderr, "healthledger failed: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := pipeline.Run(ctx, pipeline.Options{
		ExportPath: *exportPath,
		RoutesDir:  *routesDir,
		OutDir:     *outDir,
		Config:     cfg,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthledger failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("healthledger complete\n")
	fmt.Printf("days:            %d\n", len(result.Entries))
	fmt.Printf("samples:         %d\n", result.SampleCount)
	fmt.Printf("sessions:        %d\n", result.SessionCount)
	fmt.Printf("routes loaded:   %d\n", result.RoutesLoaded)
	fmt.Printf("ledger.json:     %s\n", result.LedgerJSONPath)
	fmt.Printf("ledger.parquet:  %s\n", result.LedgerParquetPath)
	fmt.Printf("summary.txt:     %s\n", result.SummaryPath)
	fmt.Printf("caption.txt:     %s\n", result.CaptionPath)
	for _, w := range result.Warnings {
		fmt.Printf("warning:         %s\n", w)
	}
}

func applyPeriod(cfg *healthdata.Config, from, to string) error {
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return fmt.Errorf("parse --from: %w", err)
		}
		cfg.PeriodStart = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return fmt.Errorf("parse --to: %w", err)
		}
		cfg.PeriodEnd = t
	}
	return nil
}
