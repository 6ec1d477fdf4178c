package tdcj

import (
	"net/url"
	"time"

	"github.com/txbooks/locator/internal/locate"
	"github.com/txbooks/locator/internal/nameparse"
	"github.com/txbooks/locator/internal/scrape"
)

// Column labels as the offender search renders them.
const (
	colNumber  = "TDCJ Number"
	colName    = "Name"
	colUnit    = "Unit of Assignment"
	colRace    = "Race"
	colGender  = "Gender"
	colRelease = "Projected Release Date"
)

// dateLayout is the YYYY-MM-DD format of the projected release column.
const dateLayout = "2006-01-02"

// normalize maps one scraped table row onto the canonical record shape.
// Rows without a TDCJ number can't satisfy the record invariants and are
// dropped.
func (c *Client) normalize(row scrape.Row) (locate.Record, bool) {
	id := row.Fields[colNumber]
	if id == "" {
		c.logger.Debug("row has no TDCJ number, skipping")
		return locate.Record{}, false
	}

	rec := locate.Record{
		ID:           id,
		Jurisdiction: locate.Texas,
		Unit:         row.Fields[colUnit],
		Race:         row.Fields[colRace],
		Sex:          row.Fields[colGender],
		FetchedAt:    time.Now(),
	}
	rec.FirstName, rec.LastName = nameparse.Split(row.Fields[colName])

	if row.Href != "" {
		rec.URL = c.resolveURL(row.Href)
	}

	if raw := row.Fields[colRelease]; raw != "" {
		if d, err := time.Parse(dateLayout, raw); err == nil {
			rec.Release = locate.ReleaseOn(d)
		} else {
			c.logger.Debug("failed to parse release date", "value", raw)
			rec.Release = locate.ReleaseRaw(raw)
		}
	}

	c.logger.Debug("matched", "last", rec.LastName, "first", rec.FirstName, "id", rec.ID)
	return rec, true
}

// resolveURL builds the canonical detail-page URL from a row's relative
// link.
func (c *Client) resolveURL(href string) string {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
