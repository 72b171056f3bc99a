package route

import (
	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
	"github.com/h3x89/Apple-Health-Data-Analyzer/spatial"
)

// ComputeMetrics derives distance, elevation gain, duration and average
// speed from a point sequence. maxSpeedMPS gates implausible jumps:
// consecutive pairs implying a higher speed are treated as GPS noise and
// excluded from the distance sum without aborting the computation. Zero
// disables the gate.
//
// A single-point or zero-duration route fails with DegenerateRouteError;
// the caller falls back to device-reported metrics.
func ComputeMetrics(r *healthdata.Route, maxSpeedMPS float64) (healthdata.RouteMetrics, error) {
	start, end := r.Span()
	duration := end.Sub(start).Seconds()
	if duration <= 0 {
		return healthdata.RouteMetrics{}, &healthdata.DegenerateRouteError{RouteID: r.ID}
	}

	metrics := healthdata.RouteMetrics{
		DistanceM:      distanceSum(r.Points, maxSpeedMPS),
		ElevationGainM: elevationGain(r.Points),
		DurationS:      duration,
	}
	metrics.AvgSpeedMPS = metrics.DistanceM / duration
	return metrics, nil
}

func distanceSum(points []healthdata.RoutePoint, maxSpeedMPS float64) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		d := spatial.Distance(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		if maxSpeedMPS > 0 {
			dt := cur.Time.Sub(prev.Time).Seconds()
			if dt <= 0 || d/dt > maxSpeedMPS {
				continue
			}
		}
		total += d
	}
	return total
}

// elevationGain sums positive elevation deltas. Points without elevation
// are skipped pairwise: the delta is computed against the last point that
// had one.
func elevationGain(points []healthdata.RoutePoint) float64 {
	gain := 0.0
	var last *float64
	for _, pt := range points {
		if pt.Elevation == nil {
			continue
		}
		if last != nil && *pt.Elevation > *last {
			gain += *pt.Elevation - *last
		}
		last = pt.Elevation
	}
	return gain
}
