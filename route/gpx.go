// Package route loads workout track files into ordered point sequences and
// derives metrics from them.
package route

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
)

type gpxFile struct {
	Tracks []gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat       string  `xml:"lat,attr"`
	Lon       string  `xml:"lon,attr"`
	Elevation *string `xml:"ele"`
	Time      string  `xml:"time"`
}

// LoadGPX parses one GPX track file into a route with a non-empty point
// sequence sorted ascending by timestamp. The route ID is derived from the
// path so repeated runs over the same files stay deterministic.
func LoadGPX(path string) (*healthdata.Route, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open route file: %w", err)
	}
	defer f.Close()

	return ParseGPX(f, path)
}

// ParseGPX parses GPX data from r. The name is used for error reporting and
// for the deterministic route ID.
func ParseGPX(r io.Reader, name string) (*healthdata.Route, error) {
	var doc gpxFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &healthdata.MalformedRouteError{Path: name, Err: err}
	}

	var points []healthdata.RoutePoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				point, err := pt.toRoutePoint()
				if err != nil {
					return nil, &healthdata.MalformedRouteError{Path: name, Err: err}
				}
				points = append(points, point)
			}
		}
	}
	if len(points) == 0 {
		return nil, &healthdata.EmptyRouteError{Path: name}
	}

	// Never assume the source is sorted.
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	return &healthdata.Route{
		ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String(),
		Points: points,
	}, nil
}

func (pt gpxPoint) toRoutePoint() (healthdata.RoutePoint, error) {
	lat, err := parseCoord(pt.Lat, "lat")
	if err != nil {
		return healthdata.RoutePoint{}, err
	}
	lon, err := parseCoord(pt.Lon, "lon")
	if err != nil {
		return healthdata.RoutePoint{}, err
	}
	ts, err := time.Parse(time.RFC3339, pt.Time)
	if err != nil {
		return healthdata.RoutePoint{}, fmt.Errorf("track point time %q: %w", pt.Time, err)
	}

	point := healthdata.RoutePoint{Time: ts, Lat: lat, Lon: lon}
	if pt.Elevation != nil {
		ele, err := parseCoord(*pt.Elevation, "ele")
		if err != nil {
			return healthdata.RoutePoint{}, err
		}
		point.Elevation = &ele
	}
	return point, nil
}

func parseCoord(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("track point %s %q: %w", field, s, err)
	}
	return v, nil
}
