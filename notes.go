package healthdata

import (
	"fmt"
	"strings"
)

// LedgerTotals sums a ledger across its whole period.
type LedgerTotals struct {
	Days               int
	CorrectedSteps     int64
	TotalEnergyKcal    float64
	DistanceByActivity map[ActivityType]float64
	ElevationGainM     float64
	WorkoutCount       int
}

// Totals accumulates period totals over the given entries.
func Totals(entries []DailyLedgerEntry) LedgerTotals {
	t := LedgerTotals{DistanceByActivity: make(map[ActivityType]float64)}
	for _, e := range entries {
		t.Days++
		t.CorrectedSteps += e.CorrectedSteps
		t.TotalEnergyKcal += e.TotalEnergyKcal
		t.ElevationGainM += e.ElevationGainM
		t.WorkoutCount += e.WorkoutCount
		for at, d := range e.DistanceByActivity {
			t.DistanceByActivity[at] += d
		}
	}
	return t
}

// BuildSummary turns a reconciled ledger into a detailed text report.
// heartRate may be nil when no heart-rate samples were recorded.
func BuildSummary(entries []DailyLedgerEntry, heartRate map[string]HeartRateStats, warnings []Warning) string {
	var b strings.Builder

	t := Totals(entries)
	fmt.Fprintf(&b, "Activity ledger: %d days\n", t.Days)
	fmt.Fprintf(
		&b,
		"Workouts %d | Corrected steps %d | Energy %.0f kcal | Elevation +%.0f m\n",
		t.WorkoutCount,
		t.CorrectedSteps,
		t.TotalEnergyKcal,
		t.ElevationGainM,
	)
	for _, at := range ActivityTypes {
		if d := t.DistanceByActivity[at]; d > 0 {
			fmt.Fprintf(&b, "  %-8s %.1f km\n", at, d/1000.0)
		}
	}

	b.WriteString("\nDaily breakdown:\n")
	for _, e := range entries {
		var distance float64
		for _, d := range e.DistanceByActivity {
			distance += d
		}
		fmt.Fprintf(
			&b,
			"%s  steps %6d | %5.1f km | %6.0f kcal | +%4.0f m | %d workouts",
			e.Date,
			e.CorrectedSteps,
			distance/1000.0,
			e.TotalEnergyKcal,
			e.ElevationGainM,
			e.WorkoutCount,
		)
		if hr, ok := heartRate[e.Date]; ok {
			fmt.Fprintf(&b, " | HR %.0f bpm (%.0f-%.0f)", hr.Avg, hr.Min, hr.Max)
		}
		b.WriteByte('\n')
	}

	if len(warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}

// BuildCaption renders the period totals as a short shareable caption.
func BuildCaption(entries []DailyLedgerEntry) string {
	t := Totals(entries)

	var b strings.Builder
	fmt.Fprintf(&b, "%d workouts | %d steps", t.WorkoutCount, t.CorrectedSteps)
	for _, at := range ActivityTypes {
		if d := t.DistanceByActivity[at]; d > 0 {
			fmt.Fprintf(&b, " | %.1f km %s", d/1000.0, at)
		}
	}
	if t.TotalEnergyKcal > 0 {
		fmt.Fprintf(&b, " | %.0f kcal", t.TotalEnergyKcal)
	}
	if t.ElevationGainM > 0 {
		fmt.Fprintf(&b, " | +%.0f m", t.ElevationGainM)
	}
	return b.String()
}
