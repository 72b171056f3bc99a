package healthdata

import "time"

// DuplicatePolicy decides how overlapping samples from multiple source
// devices combine. Exact-key duplicates are suppressed regardless of policy.
type DuplicatePolicy string

const (
	// DuplicateSum keeps every key-distinct sample and sums them, matching
	// the device vendor's own daily totals.
	DuplicateSum DuplicatePolicy = "sum"
	// DuplicatePreferSource keeps only samples reported by PreferredSource.
	DuplicatePreferSource DuplicatePolicy = "prefer_source"
)

// Config carries the reconciliation tunables. Correction rules are explicit
// values here, not hard-coded tables, so tests can override them.
type Config struct {
	// MatchTolerance pads the session window on both sides when matching
	// routes, absorbing GPS warm-up and cool-down lag.
	MatchTolerance time.Duration

	// NonAmbulatory lists activity types whose wrist motion registers
	// spurious steps; their overlapping step samples are subtracted.
	NonAmbulatory map[ActivityType]bool

	// MaxSpeedMPS gates implausible jumps between consecutive route points
	// per activity type. Zero disables the gate for that type.
	MaxSpeedMPS map[ActivityType]float64

	// PeriodStart and PeriodEnd bound the reporting period (inclusive
	// calendar days). Zero values leave the corresponding side open.
	PeriodStart time.Time
	PeriodEnd   time.Time

	DuplicatePolicy DuplicatePolicy
	PreferredSource string
}

const defaultMaxSpeedMPS = 120.0 / 3.6 // 120 km/h

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MatchTolerance: 5 * time.Minute,
		NonAmbulatory: map[ActivityType]bool{
			ActivityCycling: true,
			ActivitySkating: true,
		},
		MaxSpeedMPS: map[ActivityType]float64{
			ActivityCycling: defaultMaxSpeedMPS,
			ActivitySkating: defaultMaxSpeedMPS,
			ActivityHiking:  defaultMaxSpeedMPS,
			ActivityRunning: defaultMaxSpeedMPS,
			ActivityWalking: defaultMaxSpeedMPS,
			ActivityOther:   defaultMaxSpeedMPS,
		},
		DuplicatePolicy: DuplicateSum,
	}
}

// MaxSpeedFor returns the plausibility gate for an activity type, falling
// back to the default gate when the type has no explicit entry.
func (c Config) MaxSpeedFor(at ActivityType) float64 {
	if v, ok := c.MaxSpeedMPS[at]; ok {
		return v
	}
	return defaultMaxSpeedMPS
}

// Suppressed reports whether step samples overlapping this activity type
// should be subtracted.
func (c Config) Suppressed(at ActivityType) bool {
	return c.NonAmbulatory[at]
}

// InPeriod reports whether a timestamp falls inside the reporting period.
func (c Config) InPeriod(t time.Time) bool {
	if !c.PeriodStart.IsZero() && t.Before(c.PeriodStart) {
		return false
	}
	if !c.PeriodEnd.IsZero() && !t.Before(c.PeriodEnd.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// KeepSample applies the duplicate policy to one sample. Exact-key dedup is
// handled separately by SampleDeduper.
func (c Config) KeepSample(s *QuantitySample) bool {
	if c.DuplicatePolicy == DuplicatePreferSource && c.PreferredSource != "" {
		return s.SourceDevice == c.PreferredSource
	}
	return true
}
