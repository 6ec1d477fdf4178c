package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested search does not exist.
var ErrNotFound = errors.New("not found")

// Search is one recorded aggregate query.
type Search struct {
	ID            string
	Kind          string // "id" or "name"
	Query         string // the inmate ID, or "First Last"
	Jurisdictions string // comma-joined jurisdiction tags
	RecordCount   int
	ErrorCount    int
	CreatedAt     time.Time
}

// SearchRecord is one record a search returned, flattened for display.
type SearchRecord struct {
	SearchID     string `json:"-"`
	InmateID     string `json:"inmate_id"`
	Jurisdiction string `json:"jurisdiction"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Unit         string `json:"unit"`
	Race         string `json:"race,omitempty"`
	Sex          string `json:"sex,omitempty"`
	URL          string `json:"url,omitempty"`
	Release      string `json:"release,omitempty"` // display form: date, raw string, or empty
}
