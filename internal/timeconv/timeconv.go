// Package timeconv parses timestamp literals of the form
// "2021-06-02T08:00:02 ET", where the trailing token is a short zone name.
package timeconv

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/araddon/dateparse"
)

// Zones maps the short zone suffixes to IANA location names
var Zones = map[string]string{
	"ET":  "America/New_York",
	"CT":  "America/Chicago",
	"MT":  "America/Denver",
	"PT":  "America/Los_Angeles",
	"UTC": "UTC",
	"Z":   "UTC",
	"NY":  "America/New_York",
	"LON": "Europe/London",
	"UK":  "Europe/London",
	"TYO": "Asia/Tokyo",
	"JP":  "Asia/Tokyo",
	"SGP": "Asia/Singapore",
	"HK":  "Asia/Hong_Kong",
	"SYD": "Australia/Sydney",
}

var (
	locMu sync.Mutex
	locs  = map[string]*time.Location{}
)

// Location resolves a short zone name
func Location(zone string) (*time.Location, error) {
	name, ok := Zones[strings.ToUpper(zone)]
	if !ok {
		return nil, fmt.Errorf("unknown time zone %q", zone)
	}

	locMu.Lock()
	defer locMu.Unlock()
	if loc, ok := locs[name]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %s: %w", name, err)
	}
	locs[name] = loc
	return loc, nil
}

// ParseInstant parses "<datetime> <zone>". Without a known zone suffix the
// whole string is parsed and taken as UTC unless it carries an offset.
// The result is always in UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	loc := time.UTC
	datetime := s
	if idx := strings.LastIndexByte(s, ' '); idx > 0 {
		if zl, err := Location(s[idx+1:]); err == nil {
			loc = zl
			datetime = strings.TrimSpace(s[:idx])
		}
	}

	ts, err := dateparse.ParseIn(datetime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}

// MustParseInstant panics on malformed literals; for fixtures only
func MustParseInstant(s string) time.Time {
	ts, err := ParseInstant(s)
	if err != nil {
		panic(err)
	}
	return ts
}
