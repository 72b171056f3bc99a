package healthdata

import "fmt"

// CorrectionResult is the per-day outcome of the step correction.
type CorrectionResult struct {
	// RawByDay is the uncorrected step total per calendar day.
	RawByDay map[string]int64
	// SubtractedByDay is the step total attributed to suppressed sessions.
	SubtractedByDay map[string]int64
	// CorrectedByDay is max(raw - subtracted, 0) per day.
	CorrectedByDay map[string]int64

	Warnings []Warning
}

// TotalRaw returns the raw step total across all days.
func (r CorrectionResult) TotalRaw() int64 { return sumByDay(r.RawByDay) }

// TotalCorrected returns the corrected step total across all days.
func (r CorrectionResult) TotalCorrected() int64 { return sumByDay(r.CorrectedByDay) }

func sumByDay(m map[string]int64) int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}

// CorrectSteps removes step counts attributed to non-ambulatory workouts.
// A step sample is attributed when its [Start, End) interval overlaps any
// suppressed session's [Start, End); partial overlap counts in full, and
// each sample is subtracted at most once no matter how many suppressed
// sessions overlap it. Days never go negative: a subtraction that would is
// clamped to zero and recorded as a warning.
//
// The samples are expected to be deduplicated by key already; pass them
// through a SampleDeduper first when draining a parser.
func CorrectSteps(steps []*QuantitySample, sessions []*WorkoutSession, cfg Config) CorrectionResult {
	result := CorrectionResult{
		RawByDay:        make(map[string]int64),
		SubtractedByDay: make(map[string]int64),
		CorrectedByDay:  make(map[string]int64),
	}

	suppressed := make([]*WorkoutSession, 0, len(sessions))
	for _, s := range sessions {
		if s.HasValidTimes() && cfg.Suppressed(s.Activity) {
			suppressed = append(suppressed, s)
		}
	}

	for _, sample := range steps {
		if sample.Type != SampleSteps {
			continue
		}
		day := sample.Day()
		value := int64(sample.Value)
		result.RawByDay[day] += value

		for _, s := range suppressed {
			if sample.Start.Before(s.End) && sample.End.After(s.Start) {
				result.SubtractedByDay[day] += value
				break
			}
		}
	}

	for day, raw := range result.RawByDay {
		corrected := raw - result.SubtractedByDay[day]
		if corrected < 0 {
			result.Warnings = append(result.Warnings, Warning{
				Kind:    WarnCorrectionClamped,
				Date:    day,
				Message: fmt.Sprintf("correction of %d steps exceeds raw total %d, clamped to zero", result.SubtractedByDay[day], raw),
			})
			corrected = 0
		}
		result.CorrectedByDay[day] = corrected
	}

	return result
}
