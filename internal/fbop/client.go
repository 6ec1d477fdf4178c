// Package fbop queries the federal Bureau of Prisons inmate locator. The
// backend is nationwide, so results are filtered down to the Texas
// population after normalization.
package fbop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/txbooks/locator/internal/locate"
)

const (
	defaultBaseURL = "https://www.bop.gov"
	locatorPath    = "/PublicInfo/execute/inmateloc"
)

// Client is the Federal source adapter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// now supplies the date the release filter is evaluated at.
	now func() time.Time
}

// New creates a Client. An empty baseURL selects the public BOP endpoint.
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
		logger:     logger.With("source", locate.Federal),
		now:        time.Now,
	}
}

func (c *Client) Jurisdiction() locate.Jurisdiction {
	return locate.Federal
}

// FormatInmateID strips separators from a federal register number, checks
// that it is numeric and fits eight digits, and reformats it as NNNNN-NNN.
func FormatInmateID(id string) (string, error) {
	cleaned := strings.NewReplacer("-", "", " ", "").Replace(id)
	n, err := strconv.ParseUint(cleaned, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a federal inmate number", locate.ErrInvalidID, id)
	}
	if n > 99999999 {
		return "", fmt.Errorf("%w: %q has more than 8 digits", locate.ErrInvalidID, id)
	}
	padded := fmt.Sprintf("%08d", n)
	return padded[:5] + "-" + padded[5:], nil
}

func (c *Client) ValidateID(id string) error {
	_, err := FormatInmateID(id)
	return err
}

// QueryByID queries the locator with a register number.
func (c *Client) QueryByID(ctx context.Context, id string, timeout time.Duration) ([]locate.Record, error) {
	formatted, err := FormatInmateID(id)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("querying with id", "id", formatted)
	return c.query(ctx, url.Values{"inmateNum": {formatted}}, timeout)
}

// QueryByName queries the locator with a first/last name pair. Empty
// components act as wildcards.
func (c *Client) QueryByName(ctx context.Context, first, last string, timeout time.Duration) ([]locate.Record, error) {
	c.logger.Debug("querying with name", "last", last, "first", first)
	return c.query(ctx, url.Values{"nameFirst": {first}, "nameLast": {last}}, timeout)
}

// entry mirrors one element of the InmateLocator array.
type entry struct {
	InmateNum   string `json:"inmateNum"`
	NameFirst   string `json:"nameFirst"`
	NameLast    string `json:"nameLast"`
	FaclCode    string `json:"faclCode"`
	Race        string `json:"race"`
	Gender      string `json:"gender"`
	ActRelDate  string `json:"actRelDate"`
	ProjRelDate string `json:"projRelDate"`
}

func (c *Client) query(ctx context.Context, overrides url.Values, timeout time.Duration) ([]locate.Record, error) {
	params := url.Values{
		"age":        {""},
		"inmateNum":  {""},
		"nameFirst":  {""},
		"nameLast":   {""},
		"nameMiddle": {""},
		"output":     {"json"},
		"race":       {""},
		"sex":        {""},
		"todo":       {"query"},
	}
	for k, v := range overrides {
		params[k] = v
	}

	body, err := c.submit(ctx, params, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", locate.ErrSourceUnavailable, err)
	}

	var payload struct {
		InmateLocator []entry `json:"InmateLocator"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", locate.ErrSourceUnavailable, err)
	}
	// The backend omits the top-level key entirely when there are no
	// matches, so its absence means zero results rather than an error.
	if payload.InmateLocator == nil {
		c.logger.Debug("response has no InmateLocator key, treating as zero results")
		return nil, nil
	}

	matches := make([]locate.Record, 0, len(payload.InmateLocator))
	today := dateOnly(c.now())
	for _, e := range payload.InmateLocator {
		rec := c.normalize(e)
		if !inTexas(rec) || released(rec, today) {
			continue
		}
		matches = append(matches, rec)
	}
	c.logger.Debug("query finished", "matches", len(matches), "raw", len(payload.InmateLocator))
	return matches, nil
}

// submit performs the network exchange. The timeout bounds this exchange
// only; parsing and filtering happen outside it.
func (c *Client) submit(ctx context.Context, params url.Values, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+locatorPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying locator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
