package healthdata

// HeartRateStats summarizes one day's heart-rate samples in beats per
// minute. Heart rate has no ledger column; it is reported alongside the
// ledger instead.
type HeartRateStats struct {
	Avg     float64 `json:"avg"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Samples int     `json:"samples"`
}

// HeartRateByDay reduces heart-rate samples to per-day statistics. Samples
// of other types are ignored, so a mixed stream can be passed as-is.
func HeartRateByDay(samples []*QuantitySample) map[string]HeartRateStats {
	type acc struct {
		sum, min, max float64
		n             int
	}
	byDay := make(map[string]*acc)
	for _, s := range samples {
		if s.Type != SampleHeartRate {
			continue
		}
		a, ok := byDay[s.Day()]
		if !ok {
			a = &acc{min: s.Value, max: s.Value}
			byDay[s.Day()] = a
		}
		if s.Value < a.min {
			a.min = s.Value
		}
		if s.Value > a.max {
			a.max = s.Value
		}
		a.sum += s.Value
		a.n++
	}

	out := make(map[string]HeartRateStats, len(byDay))
	for day, a := range byDay {
		out[day] = HeartRateStats{
			Avg:     a.sum / float64(a.n),
			Min:     a.min,
			Max:     a.max,
			Samples: a.n,
		}
	}
	return out
}
