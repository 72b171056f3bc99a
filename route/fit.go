package route

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/tormoder/fit"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
)

// LoadFIT decodes a FIT activity file and converts its GPS records into a
// route, using the same error taxonomy as the GPX loader. Records without a
// position fix are dropped.
func LoadFIT(path string) (*healthdata.Route, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open route file: %w", err)
	}
	defer f.Close()

	decoded, err := fit.Decode(f)
	if err != nil {
		return nil, &healthdata.MalformedRouteError{Path: path, Err: err}
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, &healthdata.MalformedRouteError{Path: path, Err: fmt.Errorf("activity FIT expected: %w", err)}
	}

	var points []healthdata.RoutePoint
	for _, rec := range activity.Records {
		if rec == nil || rec.Timestamp.IsZero() || fit.IsBaseTime(rec.Timestamp) {
			continue
		}
		if rec.PositionLat.Invalid() || rec.PositionLong.Invalid() {
			continue
		}

		point := healthdata.RoutePoint{
			Time: rec.Timestamp,
			Lat:  rec.PositionLat.Degrees(),
			Lon:  rec.PositionLong.Degrees(),
		}
		if alt := altitudeMeters(rec); alt != nil {
			point.Elevation = alt
		}
		points = append(points, point)
	}
	if len(points) == 0 {
		return nil, &healthdata.EmptyRouteError{Path: path}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	return &healthdata.Route{
		ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String(),
		Points: points,
	}, nil
}

func altitudeMeters(rec *fit.RecordMsg) *float64 {
	alt := rec.GetEnhancedAltitudeScaled()
	if math.IsNaN(alt) {
		alt = rec.GetAltitudeScaled()
	}
	if math.IsNaN(alt) {
		return nil
	}
	return &alt
}
