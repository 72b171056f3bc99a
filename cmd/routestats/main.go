package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
	"github.com/h3x89/Apple-Health-Data-Analyzer/route"
)

func main() {
	var (
		routesDir = flag.String("routes", "workout-routes", "Directory with workout route files (.gpx/.fit)")
		maxKmh    = flag.Float64("max-speed", 120, "Max plausible inter-point speed in km/h (0 disables the gate)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [--routes dir] [--max-speed 120]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	entries, err := os.ReadDir(*routesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "routestats failed: %v\n", err)
		os.Exit(1)
	}

	var (
		totalDistance  float64
		totalElevation float64
		totalDuration  float64
		loaded         int
	)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(*routesDir, entry.Name())

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
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", entry.Name(), loadErr)
			continue
		}

		metrics, err := route.ComputeMetrics(r, *maxKmh/3.6)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", entry.Name(), err)
			continue
		}

		start, _ := r.Span()
		fmt.Printf("%s  %s  %6.1f km  +%5.0f m  %5.1f min  %4.1f km/h  (%d points)\n",
			start.Format("2006-01-02"),
			entry.Name(),
			metrics.DistanceM/1000.0,
			metrics.ElevationGainM,
			metrics.DurationS/60.0,
			metrics.AvgSpeedMPS*3.6,
			len(r.Points),
		)

		totalDistance += metrics.DistanceM
		totalElevation += metrics.ElevationGainM
		totalDuration += metrics.DurationS
		loaded++
	}

	if loaded == 0 {
		fmt.Println("no routes found")
		return
	}

	fmt.Printf("\nTotal: %d routes, %.1f km, +%.0f m, %.1f hours\n",
		loaded,
		totalDistance/1000.0,
		totalElevation,
		totalDuration/3600.0,
	)
	fmt.Printf("Average per route: %.1f km, +%.0f m, %.1f min\n",
		totalDistance/float64(loaded)/1000.0,
		totalElevation/float64(loaded),
		totalDuration/float64(loaded)/60.0,
	)
}
