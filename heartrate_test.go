package healthdata

import (
	"math"
	"testing"
)

func hrSample(t *testing.T, at string, bpm float64) *QuantitySample {
	t.Helper()
	return &QuantitySample{
		Type:         SampleHeartRate,
		Start:        mustTime(t, at),
		End:          mustTime(t, at),
		Value:        bpm,
		Unit:         "count/min",
		SourceDevice: "Watch",
	}
}

func TestHeartRateByDay(t *testing.T) {
	samples := []*QuantitySample{
		hrSample(t, "2025-05-10T08:00:00Z", 62),
		hrSample(t, "2025-05-10T10:30:00Z", 158),
		hrSample(t, "2025-05-10T22:00:00Z", 71),
		hrSample(t, "2025-05-11T09:00:00Z", 80),
		// Other sample types in the same stream are ignored.
		stepSample(t, "2025-05-10T08:00:00Z", "2025-05-10T09:00:00Z", 3000),
	}

	stats := HeartRateByDay(samples)
	if len(stats) != 2 {
		t.Fatalf("got %d days, want 2", len(stats))
	}

	day := stats["2025-05-10"]
	if day.Samples != 3 {
		t.Fatalf("samples = %d, want 3", day.Samples)
	}
	if day.Min != 62 || day.Max != 158 {
		t.Fatalf("min/max = %v/%v, want 62/158", day.Min, day.Max)
	}
	if want := (62.0 + 158.0 + 71.0) / 3.0; math.Abs(day.Avg-want) > 1e-9 {
		t.Fatalf("avg = %v, want %v", day.Avg, want)
	}

	if got := stats["2025-05-11"]; got.Samples != 1 || got.Avg != 80 || got.Min != 80 || got.Max != 80 {
		t.Fatalf("single-sample day = %+v", got)
	}
}

func TestHeartRateByDayEmpty(t *testing.T) {
	stats := HeartRateByDay([]*QuantitySample{
		stepSample(t, "2025-05-10T08:00:00Z", "2025-05-10T09:00:00Z", 3000),
	})
	if len(stats) != 0 {
		t.Fatalf("got %d days, want 0", len(stats))
	}
}
