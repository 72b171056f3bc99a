package healthdata

import (
	"sort"
	"time"
)

// MatchRoutes assigns at most one route to each workout session by temporal
// overlap. A route qualifies when its span intersects the session window
// padded by the tolerance on both sides. Among qualifying routes the one
// with the greatest overlap wins; ties go to the smallest absolute
// start-time difference, then the lowest route ID. Assignment is exclusive
// and proceeds greedily in session start-time order, so re-running on the
// same inputs in any order yields the same result.
func MatchRoutes(sessions []*WorkoutSession, routes *RouteSet, tolerance time.Duration) {
	ordered := make([]*WorkoutSession, 0, len(sessions))
	for _, s := range sessions {
		if s.HasValidTimes() {
			ordered = append(ordered, s)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].Start.Before(ordered[j].Start)
		}
		return ordered[i].ID < ordered[j].ID
	})

	candidates := routes.All()
	taken := make(map[string]bool, len(candidates))

	for _, session := range ordered {
		windowStart := session.Start.Add(-tolerance)
		windowEnd := session.End.Add(tolerance)

		var best *Route
		var bestOverlap time.Duration
		var bestStartDiff time.Duration

		for _, route := range candidates {
			if taken[route.ID] {
				continue
			}
			routeStart, routeEnd := route.Span()
			overlap := overlapDuration(routeStart, routeEnd, windowStart, windowEnd)
			if overlap < 0 {
				continue
			}
			startDiff := absDuration(routeStart.Sub(session.Start))
			if best == nil ||
				overlap > bestOverlap ||
				(overlap == bestOverlap && startDiff < bestStartDiff) {
				best = route
				bestOverlap = overlap
				bestStartDiff = startDiff
			}
		}

		if best != nil {
			session.RouteID = best.ID
			taken[best.ID] = true
		}
	}
}

// overlapDuration returns the length of the intersection of [aStart, aEnd]
// and [bStart, bEnd], negative when the intervals are disjoint. A zero
// result means the intervals touch, which still counts as an intersection.
func overlapDuration(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	return end.Sub(start)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
