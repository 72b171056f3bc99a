package healthdata

import "fmt"

// ParseError reports unrecoverable structural corruption in the primary
// export log. It is the only fatal condition; everything else degrades to a
// warning.
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("export log corrupt at byte %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptyRouteError reports a track file that contained no points.
type EmptyRouteError struct {
	Path string
}

func (e *EmptyRouteError) Error() string {
	return fmt.Sprintf("route %s contains no track points", e.Path)
}

// MalformedRouteError reports unparsable coordinate or time fields in a
// track file.
type MalformedRouteError struct {
	Path string
	Err  error
}

func (e *MalformedRouteError) Error() string {
	return fmt.Sprintf("route %s is malformed: %v", e.Path, e.Err)
}

func (e *MalformedRouteError) Unwrap() error { return e.Err }

// DegenerateRouteError reports a route whose metrics cannot be derived
// (single point or zero duration). Callers fall back to device-reported
// values.
type DegenerateRouteError struct {
	RouteID string
}

func (e *DegenerateRouteError) Error() string {
	return fmt.Sprintf("route %s has zero duration, metrics unavailable", e.RouteID)
}

// WarningKind classifies a non-fatal condition surfaced to the caller.
type WarningKind string

const (
	WarnSkippedFragments  WarningKind = "skipped_fragments"
	WarnCorrectionClamped WarningKind = "correction_clamped"
	WarnExcludedSession   WarningKind = "excluded_session"
	WarnRouteDropped      WarningKind = "route_dropped"
)

// Warning is a non-fatal condition recorded during a run. Warnings are
// returned alongside results and never silently dropped.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Date    string      `json:"date,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Date != "" {
		return fmt.Sprintf("%s [%s]: %s", w.Kind, w.Date, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}
