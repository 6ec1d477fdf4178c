// Package api exposes the locator over HTTP and MCP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/txbooks/locator/internal/locate"
	"github.com/txbooks/locator/internal/storage"
)

// Deps holds dependencies for the HTTP handler.
type Deps struct {
	Locator *locate.Locator
	Store   *storage.Store // optional; if nil, searches are not recorded
	Token   string         // optional; if empty, endpoints are unauthenticated
	Logger  *slog.Logger
}

// SearchResponse is the JSON shape of one aggregate search.
type SearchResponse struct {
	ID      string              `json:"id"`
	Records []locate.Record     `json:"records"`
	Errors  []locate.QueryError `json:"errors"`
}

// NewHandler builds the HTTP router: /search, /history, /healthz, /metrics.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Get("/search", handleSearch(deps))
		r.Get("/history", handleHistory(deps))
		r.Get("/history/{id}", handleGetSearch(deps))
	})

	return r
}

func handleSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		id := q.Get("id")
		first, last := q.Get("first"), q.Get("last")

		if id == "" && first == "" && last == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "one of id or first/last is required")
			return
		}
		if id != "" && (first != "" || last != "") {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "id and first/last are mutually exclusive")
			return
		}

		opts, err := parseQueryOptions(q.Get("jurisdictions"), q.Get("timeout"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		var (
			kind   string
			query  string
			result locate.Result
		)
		if id != "" {
			kind, query = "id", id
			result, err = deps.Locator.QueryByID(r.Context(), id, opts)
		} else {
			kind, query = "name", strings.TrimSpace(first+" "+last)
			result, err = deps.Locator.QueryByName(r.Context(), first, last, opts)
		}
		if err != nil {
			switch {
			case errors.Is(err, locate.ErrInvalidID), errors.Is(err, locate.ErrUnknownJurisdiction):
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			default:
				httpError(w, http.StatusInternalServerError, "internal_error", "%v", err)
			}
			return
		}

		searchID := uuid.New().String()
		if deps.Store != nil {
			if err := recordSearch(deps.Store, searchID, kind, query, opts.Jurisdictions, result); err != nil {
				deps.Logger.Error("recording search failed", "error", err)
			}
		}

		resp := SearchResponse{ID: searchID, Records: result.Records, Errors: result.Errors}
		if resp.Records == nil {
			resp.Records = []locate.Record{}
		}
		if resp.Errors == nil {
			resp.Errors = []locate.QueryError{}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			httpError(w, http.StatusNotFound, "invalid_request_error", "search history is not enabled")
			return
		}

		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid limit %q", raw)
				return
			}
			limit = n
		}

		searches, err := deps.Store.RecentSearches(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "listing searches: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"searches": searchViews(searches)})
	}
}

func handleGetSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			httpError(w, http.StatusNotFound, "invalid_request_error", "search history is not enabled")
			return
		}

		id := chi.URLParam(r, "id")
		search, records, err := deps.Store.GetSearch(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "invalid_request_error", "search %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "loading search: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"search":  searchView(search),
			"records": records,
		})
	}
}

func parseQueryOptions(jurisdictions, timeout string) (locate.QueryOptions, error) {
	var opts locate.QueryOptions
	if jurisdictions != "" {
		for _, j := range strings.Split(jurisdictions, ",") {
			j = strings.TrimSpace(j)
			if j != "" {
				opts.Jurisdictions = append(opts.Jurisdictions, locate.Jurisdiction(j))
			}
		}
	}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return locate.QueryOptions{}, fmt.Errorf("invalid timeout %q", timeout)
		}
		opts.Timeout = d
	}
	return opts, nil
}

func recordSearch(store *storage.Store, id, kind, query string, jurisdictions []locate.Jurisdiction, result locate.Result) error {
	tags := make([]string, len(jurisdictions))
	for i, j := range jurisdictions {
		tags[i] = string(j)
	}

	records := make([]storage.SearchRecord, len(result.Records))
	for i, rec := range result.Records {
		records[i] = storage.SearchRecord{
			SearchID:     id,
			InmateID:     rec.ID,
			Jurisdiction: string(rec.Jurisdiction),
			FirstName:    rec.FirstName,
			LastName:     rec.LastName,
			Unit:         rec.Unit,
			Race:         rec.Race,
			Sex:          rec.Sex,
			URL:          rec.URL,
			Release:      rec.Release.String(),
		}
	}

	return store.SaveSearch(storage.Search{
		ID:            id,
		Kind:          kind,
		Query:         query,
		Jurisdictions: strings.Join(tags, ","),
		RecordCount:   len(result.Records),
		ErrorCount:    len(result.Errors),
		CreatedAt:     time.Now().UTC(),
	}, records)
}

type searchJSON struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Query         string    `json:"query"`
	Jurisdictions string    `json:"jurisdictions,omitempty"`
	RecordCount   int       `json:"record_count"`
	ErrorCount    int       `json:"error_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func searchView(s storage.Search) searchJSON {
	return searchJSON{
		ID:            s.ID,
		Kind:          s.Kind,
		Query:         s.Query,
		Jurisdictions: s.Jurisdictions,
		RecordCount:   s.RecordCount,
		ErrorCount:    s.ErrorCount,
		CreatedAt:     s.CreatedAt,
	}
}

func searchViews(searches []storage.Search) []searchJSON {
	views := make([]searchJSON, len(searches))
	for i, s := range searches {
		views[i] = searchView(s)
	}
	return views
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
