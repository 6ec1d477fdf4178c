package locate

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors. ErrInvalidID and ErrUnknownJurisdiction report bad caller
// input and are returned directly from the aggregate call; they never appear
// in a Result's error list. ErrSourceUnavailable classifies per-source
// runtime failures (transport, timeout, backend rejection) and is always
// captured as a QueryError instead of failing the call.
var (
	ErrInvalidID           = errors.New("invalid inmate id")
	ErrUnknownJurisdiction = errors.New("unknown jurisdiction")
	ErrSourceUnavailable   = errors.New("source unavailable")
)

// Source is one queryable backend. Implementations are safe for concurrent
// use and never take out-of-band dependencies on each other.
type Source interface {
	// Jurisdiction returns the tag stamped on this source's records.
	Jurisdiction() Jurisdiction

	// ValidateID reports whether id is well formed for this source,
	// without any network interaction. Failures wrap ErrInvalidID.
	ValidateID(id string) error

	// QueryByID returns all matches for an inmate ID. The timeout bounds
	// the network exchange only; zero means no limit.
	QueryByID(ctx context.Context, id string, timeout time.Duration) ([]Record, error)

	// QueryByName returns all matches for a first/last name pair. Empty
	// components act as wildcards, exactly as the backend interprets them.
	QueryByName(ctx context.Context, first, last string, timeout time.Duration) ([]Record, error)
}

// Observer receives one measurement per source per aggregate call. Calls
// are serialized by the Locator, never concurrent.
type Observer interface {
	ObserveQuery(j Jurisdiction, err error, elapsed time.Duration)
}
