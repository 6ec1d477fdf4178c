// Package tdcj queries the Texas Department of Criminal Justice offender
// search. The backend renders results as an HTML table, so matches are
// scraped rather than decoded. It only covers its own jurisdiction, so no
// post-filtering is applied.
package tdcj

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/txbooks/locator/internal/locate"
	"github.com/txbooks/locator/internal/scrape"
)

const (
	defaultBaseURL = "https://offender.tdcj.texas.gov"
	searchPath     = "/OffenderSearch/search.action"

	// tableMarker is the class the results table carries. Its absence is
	// indistinguishable from zero matches, so both degrade to an empty
	// result.
	tableMarker = "tdcj_table"
)

// Client is the Texas source adapter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client. An empty baseURL selects the public TDCJ endpoint.
func New(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 0},
		logger:     logger.With("source", locate.Texas),
	}
}

func (c *Client) Jurisdiction() locate.Jurisdiction {
	return locate.Texas
}

// FormatInmateID zero-pads a TDCJ number to eight digits.
func FormatInmateID(id string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a Texas inmate number", locate.ErrInvalidID, id)
	}
	return fmt.Sprintf("%08d", n), nil
}

func (c *Client) ValidateID(id string) error {
	_, err := FormatInmateID(id)
	return err
}

// QueryByID queries the offender search with a TDCJ number.
func (c *Client) QueryByID(ctx context.Context, id string, timeout time.Duration) ([]locate.Record, error) {
	formatted, err := FormatInmateID(id)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("querying with id", "id", formatted)

	matches, err := c.query(ctx, url.Values{"tdcj": {formatted}}, timeout)
	if err != nil {
		return nil, err
	}
	if len(matches) > 1 {
		c.logger.Error("multiple results returned for an id query", "id", formatted, "count", len(matches))
	}
	return matches, nil
}

// QueryByName queries the offender search with a first/last name pair.
func (c *Client) QueryByName(ctx context.Context, first, last string, timeout time.Duration) ([]locate.Record, error) {
	c.logger.Debug("querying with name", "last", last, "first", first)
	return c.query(ctx, url.Values{"firstName": {first}, "lastName": {last}}, timeout)
}

func (c *Client) query(ctx context.Context, overrides url.Values, timeout time.Duration) ([]locate.Record, error) {
	params := url.Values{
		"btnSearch": {"Search"},
		"gender":    {"ALL"},
		"page":      {"index"},
		"race":      {"ALL"},
		"tdcj":      {""},
		"sid":       {""},
		"lastName":  {""},
		"firstName": {""},
	}
	for k, v := range overrides {
		params[k] = v
	}

	body, err := c.submit(ctx, params, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", locate.ErrSourceUnavailable, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.logger.Debug("response is not parseable html, treating as zero results", "error", err)
		return nil, nil
	}

	rows, found := scrape.Table(doc, tableMarker)
	if !found {
		// Could be genuine zero matches or a malformed page; the markup
		// doesn't let us tell them apart.
		c.logger.Debug("results table not found, treating as zero results", "marker", tableMarker)
		return nil, nil
	}

	matches := make([]locate.Record, 0, len(rows))
	for _, row := range rows {
		rec, ok := c.normalize(row)
		if !ok {
			continue
		}
		matches = append(matches, rec)
	}
	c.logger.Debug("query finished", "matches", len(matches))
	return matches, nil
}

// submit performs the network exchange. The search form is submitted as a
// POST with the parameters in the query string, which is what the backend
// expects. Backend rejection (non-2xx) is a failure, not an empty result.
func (c *Client) submit(ctx context.Context, params url.Values, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying offender search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
