// Package healthexport streams typed records out of an Apple Health export
// log. The export is a single XML document that routinely runs to gigabytes,
// so the parser works token by token and never materializes more than one
// record at a time.
package healthexport

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
)

// TimeLayout is the fixed-offset timestamp format used throughout the
// export, e.g. "2025-05-01 16:32:36 +0200".
const TimeLayout = "2006-01-02 15:04:05 -0700"

// Record is one parsed element: exactly one of Sample or Workout is set.
type Record struct {
	Sample  *healthdata.QuantitySample
	Workout *healthdata.WorkoutSession
}

// Parser is a single-pass pull iterator over an export log. It is not
// restartable; re-parsing requires a fresh reader.
//
//	p := healthexport.NewParser(f)
//	for p.Next() {
//	    rec := p.Record()
//	    ...
//	}
//	if err := p.Err(); err != nil { ... }
type Parser struct {
	dec     *xml.Decoder
	rec     Record
	err     error
	done    bool
	skipped int
}

// NewParser returns a parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{dec: xml.NewDecoder(r)}
}

// Next advances to the next well-formed sample or workout. It returns false
// at the end of the log or on a fatal structural error; check Err to tell
// the two apart.
func (p *Parser) Next() bool {
	if p.done {
		return false
	}
	for {
		tok, err := p.dec.Token()
		if err != nil {
			p.done = true
			if !errors.Is(err, io.EOF) {
				p.err = &healthdata.ParseError{Offset: p.dec.InputOffset(), Err: err}
			}
			return false
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "Record":
			sample, ok := p.parseRecord(start)
			if err := p.dec.Skip(); err != nil {
				p.done = true
				p.err = &healthdata.ParseError{Offset: p.dec.InputOffset(), Err: err}
				return false
			}
			if ok {
				p.rec = Record{Sample: sample}
				return true
			}
		case "Workout":
			workout, ok, err := p.parseWorkout(start)
			if err != nil {
				p.done = true
				p.err = err
				return false
			}
			if ok {
				p.rec = Record{Workout: workout}
				return true
			}
		}
	}
}

// Record returns the record produced by the last successful Next.
func (p *Parser) Record() Record { return p.rec }

// Err returns the fatal error that stopped the parse, or nil after a clean
// end of log.
func (p *Parser) Err() error { return p.err }

// Skipped returns the running count of malformed fragments dropped so far.
func (p *Parser) Skipped() int { return p.skipped }

var sampleTypes = map[string]healthdata.SampleType{
	"HKQuantityTypeIdentifierStepCount":          healthdata.SampleSteps,
	"HKQuantityTypeIdentifierActiveEnergyBurned": healthdata.SampleActiveEnergy,
	"HKQuantityTypeIdentifierBasalEnergyBurned":  healthdata.SampleBasalEnergy,
	"HKQuantityTypeIdentifierHeartRate":          healthdata.SampleHeartRate,
}

// parseRecord reads one Record element's attributes. Record types the
// ledger does not consume are well-formed but irrelevant and return
// (nil, false) without counting as skipped; relevant records with
// unparsable fields count.
func (p *Parser) parseRecord(start xml.StartElement) (*healthdata.QuantitySample, bool) {
	attrs := attrMap(start)

	sampleType, relevant := sampleTypes[attrs["type"]]
	if !relevant {
		return nil, false
	}

	startTime, err1 := time.Parse(TimeLayout, attrs["startDate"])
	endTime, err2 := time.Parse(TimeLayout, attrs["endDate"])
	value, err3 := strconv.ParseFloat(attrs["value"], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		p.skipped++
		return nil, false
	}

	return &healthdata.QuantitySample{
		Type:         sampleType,
		Start:        startTime,
		End:          endTime,
		Value:        value,
		Unit:         attrs["unit"],
		SourceDevice: attrs["sourceName"],
	}, true
}

type workoutXML struct {
	ActivityType string           `xml:"workoutActivityType,attr"`
	StartDate    string           `xml:"startDate,attr"`
	EndDate      string           `xml:"endDate,attr"`
	Statistics   []workoutStatXML `xml:"WorkoutStatistics"`
}

type workoutStatXML struct {
	Type string `xml:"type,attr"`
	Sum  string `xml:"sum,attr"`
	Unit string `xml:"unit,attr"`
}

func (p *Parser) parseWorkout(start xml.StartElement) (*healthdata.WorkoutSession, bool, error) {
	var w workoutXML
	if err := p.dec.DecodeElement(&w, &start); err != nil {
		var syntax *xml.SyntaxError
		if errors.As(err, &syntax) {
			return nil, false, &healthdata.ParseError{Offset: p.dec.InputOffset(), Err: err}
		}
		p.skipped++
		return nil, false, nil
	}

	startTime, err1 := time.Parse(TimeLayout, w.StartDate)
	endTime, err2 := time.Parse(TimeLayout, w.EndDate)
	if err1 != nil || err2 != nil || !startTime.Before(endTime) {
		p.skipped++
		return nil, false, nil
	}

	session := &healthdata.WorkoutSession{
		ID:       uuid.NewString(),
		Activity: activityTypeFrom(w.ActivityType),
		Start:    startTime,
		End:      endTime,
	}

	for _, stat := range w.Statistics {
		sum, err := strconv.ParseFloat(stat.Sum, 64)
		if err != nil || sum <= 0 {
			continue
		}
		switch {
		case strings.Contains(stat.Type, "Distance"):
			m := distanceToMeters(sum, stat.Unit)
			session.DeviceDistanceM = &m
		case stat.Type == "HKQuantityTypeIdentifierActiveEnergyBurned":
			kcal := energyToKcal(sum, stat.Unit)
			session.DeviceEnergyKcal = &kcal
		}
	}

	return session, true, nil
}

func activityTypeFrom(hkType string) healthdata.ActivityType {
	switch {
	case strings.Contains(hkType, "Cycling"):
		return healthdata.ActivityCycling
	case strings.Contains(hkType, "Skating"):
		return healthdata.ActivitySkating
	case strings.Contains(hkType, "Hiking"):
		return healthdata.ActivityHiking
	case strings.Contains(hkType, "Running"):
		return healthdata.ActivityRunning
	case strings.Contains(hkType, "Walking"):
		return healthdata.ActivityWalking
	default:
		return healthdata.ActivityOther
	}
}

func distanceToMeters(v float64, unit string) float64 {
	switch unit {
	case "km":
		return v * 1000.0
	case "mi":
		return v * 1609.344
	default: // already meters
		return v
	}
}

func energyToKcal(v float64, unit string) float64 {
	switch unit {
	case "kJ":
		return v / 4.184
	default: // kcal / Cal
		return v
	}
}

func attrMap(start xml.StartElement) map[string]string {
	m := make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		m[a.Name.Local] = a.Value
	}
	return m
}
