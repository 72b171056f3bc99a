package healthdata

import (
	"sort"
	"time"
)

// SampleType identifies the metric a quantity sample measures.
type SampleType string

const (
	SampleSteps        SampleType = "steps"
	SampleActiveEnergy SampleType = "active_energy"
	SampleBasalEnergy  SampleType = "basal_energy"
	SampleHeartRate    SampleType = "heart_rate"
)

// QuantitySample is a single timestamped measurement from the export log.
// Samples are immutable once parsed and unique per SampleKey; overlapping
// export ranges produce exact duplicates that must be suppressed by key.
type QuantitySample struct {
	Type         SampleType `json:"type"`
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	Value        float64    `json:"value"`
	Unit         string     `json:"unit"`
	SourceDevice string     `json:"source_device"`
}

// SampleKey is the uniqueness key for quantity samples.
type SampleKey struct {
	Type         SampleType
	StartUnixNs  int64
	EndUnixNs    int64
	SourceDevice string
}

// Key returns the sample's uniqueness key.
func (s *QuantitySample) Key() SampleKey {
	return SampleKey{
		Type:         s.Type,
		StartUnixNs:  s.Start.UnixNano(),
		EndUnixNs:    s.End.UnixNano(),
		SourceDevice: s.SourceDevice,
	}
}

// Day returns the calendar day the sample belongs to, in the timestamp's
// own fixed offset.
func (s *QuantitySample) Day() string {
	return s.Start.Format("2006-01-02")
}

// ActivityType classifies a workout session.
type ActivityType string

const (
	ActivityCycling ActivityType = "cycling"
	ActivitySkating ActivityType = "skating"
	ActivityHiking  ActivityType = "hiking"
	ActivityRunning ActivityType = "running"
	ActivityWalking ActivityType = "walking"
	ActivityOther   ActivityType = "other"
)

// ActivityTypes lists every known activity type in ledger column order.
var ActivityTypes = []ActivityType{
	ActivityCycling,
	ActivitySkating,
	ActivityHiking,
	ActivityRunning,
	ActivityWalking,
	ActivityOther,
}

// WorkoutSession is a discrete recorded activity. It is created by the
// parser and enriched exactly once by the matcher with a weak route
// reference; it is never mutated after enrichment.
type WorkoutSession struct {
	ID               string       `json:"id"`
	Activity         ActivityType `json:"activity_type"`
	Start            time.Time    `json:"start"`
	End              time.Time    `json:"end"`
	DeviceDistanceM  *float64     `json:"device_distance_m,omitempty"`
	DeviceEnergyKcal *float64     `json:"device_energy_kcal,omitempty"`

	// RouteID references the matched route in a RouteSet. Empty means
	// no route matched, which is not an error.
	RouteID string `json:"route_id,omitempty"`
}

// HasValidTimes reports whether the session carries usable timestamps.
func (w *WorkoutSession) HasValidTimes() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.Start.Before(w.End)
}

// Day returns the calendar day of the session start.
func (w *WorkoutSession) Day() string {
	return w.Start.Format("2006-01-02")
}

// RoutePoint is one timestamped GPS/barometric fix.
type RoutePoint struct {
	Time      time.Time `json:"time"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Elevation *float64  `json:"elevation,omitempty"`
}

// Route is an ordered, non-empty point sequence recorded during one session.
type Route struct {
	ID     string       `json:"id"`
	Points []RoutePoint `json:"points"`
}

// Span returns the route's first and last point timestamps.
func (r *Route) Span() (start, end time.Time) {
	if len(r.Points) == 0 {
		return time.Time{}, time.Time{}
	}
	return r.Points[0].Time, r.Points[len(r.Points)-1].Time
}

// RouteSet stores routes independently of the sessions that reference them.
type RouteSet struct {
	byID map[string]*Route
}

// NewRouteSet returns an empty route store.
func NewRouteSet() *RouteSet {
	return &RouteSet{byID: make(map[string]*Route)}
}

// Add stores a route. A route with a duplicate ID replaces the previous one.
func (rs *RouteSet) Add(r *Route) {
	rs.byID[r.ID] = r
}

// Get returns the route with the given ID, or nil.
func (rs *RouteSet) Get(id string) *Route {
	return rs.byID[id]
}

// Len returns the number of stored routes.
func (rs *RouteSet) Len() int {
	return len(rs.byID)
}

// All returns every stored route sorted by start time, then ID.
func (rs *RouteSet) All() []*Route {
	out := make([]*Route, 0, len(rs.byID))
	for _, r := range rs.byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		si, _ := out[i].Span()
		sj, _ := out[j].Span()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RouteMetrics holds values derived from a point sequence. They are
// recomputed on every run, never cached.
type RouteMetrics struct {
	DistanceM      float64 `json:"distance_m"`
	ElevationGainM float64 `json:"elevation_gain_m"`
	DurationS      float64 `json:"duration_s"`
	AvgSpeedMPS    float64 `json:"avg_speed_mps"`
}

// DailyLedgerEntry is the finalized, corrected, deduplicated summary of one
// calendar day. Entries are created by the Aggregator and never mutated
// externally.
type DailyLedgerEntry struct {
	Date               string                   `json:"date"`
	CorrectedSteps     int64                    `json:"corrected_steps"`
	TotalEnergyKcal    float64                  `json:"total_energy_kcal"`
	DistanceByActivity map[ActivityType]float64 `json:"distance_by_activity"`
	ElevationGainM     float64                  `json:"elevation_gain_m"`
	WorkoutCount       int                      `json:"workout_count"`
}
