package healthdata

import (
	"fmt"
	"sort"
	"time"
)

// SampleDeduper suppresses exact duplicates by sample key. Overlapping
// export ranges replay the same records; the first occurrence wins.
type SampleDeduper struct {
	seen map[SampleKey]struct{}
}

// NewSampleDeduper returns an empty deduper.
func NewSampleDeduper() *SampleDeduper {
	return &SampleDeduper{seen: make(map[SampleKey]struct{})}
}

// Keep reports whether the sample's key has not been seen before, and
// records it.
func (d *SampleDeduper) Keep(s *QuantitySample) bool {
	key := s.Key()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Aggregator buckets corrected metrics by calendar day. It accumulates in
// one pass; Finalize is the only publication point, so a cancelled run that
// never finalizes publishes nothing.
type Aggregator struct {
	cfg      Config
	days     map[string]*DailyLedgerEntry
	warnings []Warning
}

// NewAggregator returns an aggregator for the configured reporting period.
func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{
		cfg:  cfg,
		days: make(map[string]*DailyLedgerEntry),
	}
}

func (a *Aggregator) entry(day string) *DailyLedgerEntry {
	e, ok := a.days[day]
	if !ok {
		e = &DailyLedgerEntry{
			Date:               day,
			DistanceByActivity: make(map[ActivityType]float64),
		}
		a.days[day] = e
	}
	return e
}

// AddSample accumulates an energy sample into its day. Step samples are fed
// through CorrectSteps instead, and heart-rate samples carry no ledger
// column.
func (a *Aggregator) AddSample(s *QuantitySample) {
	if !a.cfg.InPeriod(s.Start) {
		return
	}
	switch s.Type {
	case SampleActiveEnergy, SampleBasalEnergy:
		a.entry(s.Day()).TotalEnergyKcal += s.Value
	}
}

// AddSession accumulates one workout session. When metrics from a matched
// route are provided, the route distance is used for the session's
// activity-type bucket and the device-reported distance is ignored; a
// session without route metrics falls back to the device-reported distance
// if present. Distance is never counted from both sources. Sessions with
// invalid timestamps are excluded with a warning.
func (a *Aggregator) AddSession(s *WorkoutSession, metrics *RouteMetrics) {
	if !s.HasValidTimes() {
		a.warnings = append(a.warnings, Warning{
			Kind:    WarnExcludedSession,
			Message: fmt.Sprintf("session %s (%s) has invalid timestamps, excluded from aggregation", s.ID, s.Activity),
		})
		return
	}
	if !a.cfg.InPeriod(s.Start) {
		return
	}

	e := a.entry(s.Day())
	e.WorkoutCount++

	switch {
	case metrics != nil:
		e.DistanceByActivity[s.Activity] += metrics.DistanceM
		e.ElevationGainM += metrics.ElevationGainM
	case s.DeviceDistanceM != nil:
		e.DistanceByActivity[s.Activity] += *s.DeviceDistanceM
	}
}

// SetCorrectedSteps records the step-correction outcome, overriding any
// previous step totals for the affected days.
func (a *Aggregator) SetCorrectedSteps(result CorrectionResult) {
	for day, corrected := range result.CorrectedByDay {
		t, err := time.Parse("2006-01-02", day)
		if err != nil || !a.cfg.InPeriod(t) {
			continue
		}
		a.entry(day).CorrectedSteps = corrected
	}
	a.warnings = append(a.warnings, result.Warnings...)
}

// Warn records an externally produced warning so Finalize surfaces it with
// the rest.
func (a *Aggregator) Warn(w Warning) {
	a.warnings = append(a.warnings, w)
}

// Finalize emits the sorted ledger for the requested period together with
// every warning collected. When the period is fully configured, each
// calendar day in it gets an entry even if empty.
func (a *Aggregator) Finalize() ([]DailyLedgerEntry, []Warning) {
	if !a.cfg.PeriodStart.IsZero() && !a.cfg.PeriodEnd.IsZero() {
		for day := a.cfg.PeriodStart; !day.After(a.cfg.PeriodEnd); day = day.AddDate(0, 0, 1) {
			a.entry(day.Format("2006-01-02"))
		}
	}

	out := make([]DailyLedgerEntry, 0, len(a.days))
	for _, e := range a.days {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, a.warnings
}

// MergeLedgers combines partial per-file ledgers additively by date key.
// Workers that processed distinct files merge after completion instead of
// writing into a shared map.
func MergeLedgers(parts ...[]DailyLedgerEntry) []DailyLedgerEntry {
	merged := make(map[string]*DailyLedgerEntry)
	for _, part := range parts {
		for _, e := range part {
			m, ok := merged[e.Date]
			if !ok {
				m = &DailyLedgerEntry{
					Date:               e.Date,
					DistanceByActivity: make(map[ActivityType]float64),
				}
				merged[e.Date] = m
			}
			m.CorrectedSteps += e.CorrectedSteps
			m.TotalEnergyKcal += e.TotalEnergyKcal
			m.ElevationGainM += e.ElevationGainM
			m.WorkoutCount += e.WorkoutCount
			for at, d := range e.DistanceByActivity {
				m.DistanceByActivity[at] += d
			}
		}
	}

	out := make([]DailyLedgerEntry, 0, len(merged))
	for _, e := range merged {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
