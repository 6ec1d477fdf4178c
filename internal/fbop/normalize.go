package fbop

import (
	"time"

	"github.com/txbooks/locator/internal/locate"
)

// dateLayout is the MM/DD/YYYY format the locator uses for release dates.
const dateLayout = "01/02/2006"

// normalize maps one raw locator entry onto the canonical record shape.
// The locator has no public detail page, so URL stays empty.
func (c *Client) normalize(e entry) locate.Record {
	return locate.Record{
		ID:           e.InmateNum,
		Jurisdiction: locate.Federal,
		FirstName:    e.NameFirst,
		LastName:     e.NameLast,
		Unit:         e.FaclCode,
		Race:         e.Race,
		Sex:          e.Gender,
		Release:      c.deriveRelease(e),
		FetchedAt:    time.Now(),
	}
}

// deriveRelease resolves the two release fields in priority order: the
// actual date, then the projected date, then whichever raw string is
// non-empty. Parse failures degrade to the next option; they are never
// errors.
func (c *Client) deriveRelease(e entry) locate.Release {
	if d, err := time.Parse(dateLayout, e.ActRelDate); err == nil {
		return locate.ReleaseOn(d)
	} else if e.ActRelDate != "" {
		c.logger.Debug("failed to parse actual release date", "value", e.ActRelDate)
	}

	if d, err := time.Parse(dateLayout, e.ProjRelDate); err == nil {
		return locate.ReleaseOn(d)
	} else if e.ProjRelDate != "" {
		c.logger.Debug("failed to parse projected release date", "value", e.ProjRelDate)
	}

	if e.ProjRelDate != "" {
		return locate.ReleaseRaw(e.ProjRelDate)
	}
	if e.ActRelDate != "" {
		return locate.ReleaseRaw(e.ActRelDate)
	}

	c.logger.Debug("entry carries no release date", "id", e.InmateNum)
	return locate.Release{}
}
