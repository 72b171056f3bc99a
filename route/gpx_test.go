package route

import (
	"errors"
	"strings"
	"testing"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="Apple Health Export">
 <trk>
  <name>Route 2025-05-10</name>
  <trkseg>
   <trkpt lat="52.2297" lon="21.0122">
    <ele>110.5</ele>
    <time>2025-05-10T10:00:00Z</time>
   </trkpt>
   <trkpt lat="52.2305" lon="21.0131">
    <ele>112.0</ele>
    <time>2025-05-10T10:00:05Z</time>
   </trkpt>
   <trkpt lat="52.2312" lon="21.0140">
    <time>2025-05-10T10:00:10Z</time>
   </trkpt>
  </trkseg>
 </trk>
</gpx>`

func TestParseGPX(t *testing.T) {
	r, err := ParseGPX(strings.NewReader(sampleGPX), "route_2025-05-10.gpx")
	if err != nil {
		t.Fatalf("ParseGPX: %v", err)
	}
	if len(r.Points) != 3 {
		t.Fatalf("got %d points, want 3", len(r.Points))
	}
	if r.Points[0].Lat != 52.2297 || r.Points[0].Lon != 21.0122 {
		t.Fatalf("first point = %+v", r.Points[0])
	}
	if r.Points[0].Elevation == nil || *r.Points[0].Elevation != 110.5 {
		t.Fatalf("first point elevation = %v, want 110.5", r.Points[0].Elevation)
	}
	if r.Points[2].Elevation != nil {
		t.Fatalf("point without <ele> should carry nil elevation")
	}
	if r.ID == "" {
		t.Fatal("route ID is empty")
	}
}

func TestParseGPXDeterministicID(t *testing.T) {
	a, err := ParseGPX(strings.NewReader(sampleGPX), "route_2025-05-10.gpx")
	if err != nil {
		t.Fatalf("ParseGPX: %v", err)
	}
	b, err := ParseGPX(strings.NewReader(sampleGPX), "route_2025-05-10.gpx")
	if err != nil {
		t.Fatalf("ParseGPX: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("same file produced different IDs: %s vs %s", a.ID, b.ID)
	}
	c, err := ParseGPX(strings.NewReader(sampleGPX), "route_2025-05-11.gpx")
	if err != nil {
		t.Fatalf("ParseGPX: %v", err)
	}
	if a.ID == c.ID {
		t.Fatal("different files produced the same ID")
	}
}

func TestParseGPXSortsUnorderedPoints(t *testing.T) {
	const unordered = `<gpx><trk><trkseg>
   <trkpt lat="52.0" lon="21.0"><time>2025-05-10T10:00:10Z</time></trkpt>
   <trkpt lat="52.1" lon="21.1"><time>2025-05-10T10:00:00Z</time></trkpt>
  </trkseg></trk></gpx>`

	r, err := ParseGPX(strings.NewReader(unordered), "unordered.gpx")
	if err != nil {
		t.Fatalf("ParseGPX: %v", err)
	}
	if !r.Points[0].Time.Before(r.Points[1].Time) {
		t.Fatalf("points not sorted by time: %v, %v", r.Points[0].Time, r.Points[1].Time)
	}
}

func TestParseGPXEmpty(t *testing.T) {
	const empty = `<gpx><trk><trkseg></trkseg></trk></gpx>`
	_, err := ParseGPX(strings.NewReader(empty), "empty.gpx")
	var emptyErr *healthdata.EmptyRouteError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("err = %v, want EmptyRouteError", err)
	}
}

func TestParseGPXMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"truncated xml", `<gpx><trk><trkseg><trkpt lat="52.0" lon="21.0">`},
		{"bad coordinate", `<gpx><trk><trkseg><trkpt lat="north" lon="21.0"><time>2025-05-10T10:00:00Z</time></trkpt></trkseg></trk></gpx>`},
		{"bad time", `<gpx><trk><trkseg><trkpt lat="52.0" lon="21.0"><time>yesterday</time></trkpt></trkseg></trk></gpx>`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseGPX(strings.NewReader(c.data), c.name+".gpx")
			var malformed *healthdata.MalformedRouteError
			if !errors.As(err, &malformed) {
				t.Fatalf("err = %v, want MalformedRouteError", err)
			}
		})
	}
}
