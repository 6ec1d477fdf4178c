// Package locate aggregates inmate searches across the public record
// sources that cover the Texas inmate population: the federal Bureau of
// Prisons locator and the TDCJ offender search. Each source implements the
// Source interface; the Locator fans a logical query out to all requested
// sources concurrently and merges the outcomes.
package locate

import (
	"encoding/json"
	"fmt"
	"time"
)

// Jurisdiction identifies which source produced a record or error.
type Jurisdiction string

const (
	Federal Jurisdiction = "Federal"
	Texas   Jurisdiction = "Texas"
)

// Record is the canonical, source-agnostic shape of one inmate match.
// Records are values: constructed once per query and never updated.
type Record struct {
	ID           string       `json:"id"`
	Jurisdiction Jurisdiction `json:"jurisdiction"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Unit         string       `json:"unit"`
	Race         string       `json:"race,omitempty"`
	Sex          string       `json:"sex,omitempty"`
	URL          string       `json:"url,omitempty"`
	Release      Release      `json:"release"`
	FetchedAt    time.Time    `json:"fetched_at"`
}

type releaseKind int

const (
	releaseUnknown releaseKind = iota
	releaseDate
	releaseRaw
)

// Release is the tri-state release field: a parsed calendar date, a raw
// string the source reported but which is not a date (for example "LIFE"),
// or unknown. The zero value is unknown.
type Release struct {
	kind releaseKind
	date time.Time
	raw  string
}

// ReleaseOn returns a Release holding a parsed calendar date.
func ReleaseOn(d time.Time) Release {
	return Release{kind: releaseDate, date: d}
}

// ReleaseRaw returns a Release preserving an un-parseable source string.
func ReleaseRaw(s string) Release {
	return Release{kind: releaseRaw, raw: s}
}

// Date returns the parsed release date, if there is one.
func (r Release) Date() (time.Time, bool) {
	return r.date, r.kind == releaseDate
}

// Raw returns the preserved source string, if there is one.
func (r Release) Raw() (string, bool) {
	return r.raw, r.kind == releaseRaw
}

// Known reports whether the source provided any release information.
func (r Release) Known() bool {
	return r.kind != releaseUnknown
}

func (r Release) String() string {
	switch r.kind {
	case releaseDate:
		return r.date.Format("2006-01-02")
	case releaseRaw:
		return r.raw
	default:
		return ""
	}
}

// MarshalJSON encodes a date as "YYYY-MM-DD", a raw string verbatim, and
// unknown as null.
func (r Release) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case releaseDate:
		return json.Marshal(r.date.Format("2006-01-02"))
	case releaseRaw:
		return json.Marshal(r.raw)
	default:
		return []byte("null"), nil
	}
}

// QueryError pairs a failed source with its underlying error. One aggregate
// call produces at most one QueryError per source.
type QueryError struct {
	Jurisdiction Jurisdiction `json:"jurisdiction"`
	Err          error        `json:"-"`
}

func (e QueryError) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Jurisdiction, e.Err)
}

func (e QueryError) Unwrap() error {
	return e.Err
}

func (e QueryError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Jurisdiction Jurisdiction `json:"jurisdiction"`
		Error        string       `json:"error"`
	}{e.Jurisdiction, e.Err.Error()})
}

// Result is the merged outcome of one aggregate call. Records and Errors
// are ordered by source completion; an empty Records with a non-empty
// Errors means every source was tried and nothing was found.
type Result struct {
	Records []Record     `json:"records"`
	Errors  []QueryError `json:"errors"`
}
