package fbop

import (
	"time"

	"github.com/txbooks/locator/internal/locate"
)

// texasUnits are the BOP facility codes for Texas institutions.
var texasUnits = map[string]struct{}{
	"BAS": {}, "BML": {}, "BMM": {}, "BMP": {}, "BSC": {}, "BIG": {},
	"BRY": {}, "CRW": {}, "EDN": {}, "FTW": {}, "DAL": {}, "HOU": {},
	"LAT": {}, "REE": {}, "RVS": {}, "SEA": {}, "TEX": {}, "TRV": {},
}

// specialUnits are transient statuses that stand in for a facility code.
// Inmates in these states may still be in scope, so they are kept.
var specialUnits = map[string]struct{}{
	"TEMP RELEASE": {},
	"IN TRANSIT":   {},
}

// inTexas reports whether the record's unit is a Texas facility or one of
// the special transient statuses.
func inTexas(rec locate.Record) bool {
	if _, ok := texasUnits[rec.Unit]; ok {
		return true
	}
	_, ok := specialUnits[rec.Unit]
	return ok
}

// released reports whether the record's release date has passed. A raw
// release string (life sentence, etc.) or an unknown release is not
// comparable and counts as not released. A release date equal to today
// counts as released.
func released(rec locate.Record, today time.Time) bool {
	d, ok := rec.Release.Date()
	if !ok {
		return false
	}
	return !today.Before(d)
}
