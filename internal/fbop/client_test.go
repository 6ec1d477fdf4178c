package fbop

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/txbooks/locator/internal/locate"
)

// locatorJSON builds a locator response with the given entries.
func locatorJSON(entries ...entry) []byte {
	b, _ := json.Marshal(map[string][]entry{"InmateLocator": entries})
	return b
}

func testEntry(unit, actRel, projRel string) entry {
	return entry{
		InmateNum:   "12345-678",
		NameFirst:   "JOHN",
		NameLast:    "DOE",
		FaclCode:    unit,
		Race:        "White",
		Gender:      "Male",
		ActRelDate:  actRel,
		ProjRelDate: projRel,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, slog.New(slog.DiscardHandler))
}

func TestFormatInmateID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "12345678", want: "12345-678"},
		{in: "1-2345678", want: "12345-678"},
		{in: "42", want: "00000-042"},
		{in: "00123456", want: "00123-456"},
		{in: "12 345 678", want: "12345-678"},
		{in: "123456789", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "12_345", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := FormatInmateID(tt.in)
		if tt.wantErr {
			if !errors.Is(err, locate.ErrInvalidID) {
				t.Errorf("FormatInmateID(%q) err = %v, want ErrInvalidID", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("FormatInmateID(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatInmateID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQueryByID_InvalidIDBeforeAnyNetwork(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write(locatorJSON())
	})

	_, err := c.QueryByID(context.Background(), "not-a-number", 0)
	if !errors.Is(err, locate.ErrInvalidID) {
		t.Fatalf("err = %v, want ErrInvalidID", err)
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("backend received %d request(s), want 0", n)
	}
}

func TestQueryByID_SendsFormattedID(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write(locatorJSON())
	})

	if _, err := c.QueryByID(context.Background(), "1-2345678", 0); err != nil {
		t.Fatalf("QueryByID: %v", err)
	}

	if gotQuery["inmateNum"] != "12345-678" {
		t.Errorf("inmateNum = %q, want %q", gotQuery["inmateNum"], "12345-678")
	}
	if gotQuery["output"] != "json" {
		t.Errorf("output = %q, want %q", gotQuery["output"], "json")
	}
	if gotQuery["todo"] != "query" {
		t.Errorf("todo = %q, want %q", gotQuery["todo"], "query")
	}
}

func TestQueryByName_PassesComponentsVerbatim(t *testing.T) {
	var first, last string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		first = r.URL.Query().Get("nameFirst")
		last = r.URL.Query().Get("nameLast")
		w.Write(locatorJSON())
	})

	if _, err := c.QueryByName(context.Background(), "", "Doe", 0); err != nil {
		t.Fatalf("QueryByName: %v", err)
	}

	if first != "" || last != "Doe" {
		t.Errorf("name params = (%q, %q), want (\"\", \"Doe\")", first, last)
	}
}

func TestQuery_MissingKeyMeansZeroResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	records, err := c.QueryByName(context.Background(), "John", "Doe", 0)
	if err != nil {
		t.Fatalf("missing key should not be an error, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestQuery_ServerErrorIsSourceUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.QueryByName(context.Background(), "John", "Doe", 0)
	if !errors.Is(err, locate.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestQuery_UndecodableBodyIsSourceUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	})

	_, err := c.QueryByName(context.Background(), "John", "Doe", 0)
	if !errors.Is(err, locate.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestQuery_TimeoutIsSourceUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write(locatorJSON())
	})

	_, err := c.QueryByName(context.Background(), "John", "Doe", 20*time.Millisecond)
	if !errors.Is(err, locate.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestQuery_UnitFilter(t *testing.T) {
	texas := testEntry("BAS", "", "")
	transit := testEntry("IN TRANSIT", "", "")
	elsewhere := testEntry("NYM", "", "")

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(locatorJSON(texas, transit, elsewhere))
	})

	records, err := c.QueryByName(context.Background(), "John", "Doe", 0)
	if err != nil {
		t.Fatalf("QueryByName: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (out-of-state unit must be dropped)", len(records))
	}
	for _, rec := range records {
		if rec.Unit == "NYM" {
			t.Errorf("out-of-state unit %q survived the filter", rec.Unit)
		}
	}
}

func TestQuery_ReleaseFilter(t *testing.T) {
	now := time.Date(2030, 6, 15, 13, 45, 0, 0, time.UTC)

	tests := []struct {
		name string
		e    entry
		kept bool
	}{
		{"released yesterday", testEntry("BAS", "06/14/2030", ""), false},
		{"released today", testEntry("BAS", "06/15/2030", ""), false},
		{"releases tomorrow", testEntry("BAS", "06/16/2030", ""), true},
		{"life sentence", testEntry("BAS", "LIFE", ""), true},
		{"no release info", testEntry("BAS", "", ""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write(locatorJSON(tt.e))
			})
			c.now = func() time.Time { return now }

			records, err := c.QueryByName(context.Background(), "John", "Doe", 0)
			if err != nil {
				t.Fatalf("QueryByName: %v", err)
			}
			if kept := len(records) == 1; kept != tt.kept {
				t.Errorf("kept = %v, want %v", kept, tt.kept)
			}
		})
	}
}

func TestNormalize_Fields(t *testing.T) {
	c := New("http://unused", slog.New(slog.DiscardHandler))
	rec := c.normalize(testEntry("BAS", "", "06/16/2030"))

	if rec.ID != "12345-678" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Jurisdiction != locate.Federal {
		t.Errorf("Jurisdiction = %q, want Federal", rec.Jurisdiction)
	}
	if rec.FirstName != "JOHN" || rec.LastName != "DOE" {
		t.Errorf("name = (%q, %q)", rec.FirstName, rec.LastName)
	}
	if rec.Unit != "BAS" {
		t.Errorf("Unit = %q", rec.Unit)
	}
	if rec.Race != "White" || rec.Sex != "Male" {
		t.Errorf("race/sex = (%q, %q)", rec.Race, rec.Sex)
	}
	if rec.URL != "" {
		t.Errorf("URL = %q, want empty (the locator has no detail pages)", rec.URL)
	}
	if rec.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	c := New("http://unused", slog.New(slog.DiscardHandler))
	e := testEntry("BAS", "LIFE", "06/16/2030")

	a := c.normalize(e)
	b := c.normalize(e)

	a.FetchedAt = time.Time{}
	b.FetchedAt = time.Time{}
	if a != b {
		t.Errorf("normalizing twice differs beyond FetchedAt:\n%+v\n%+v", a, b)
	}
}

func TestDeriveRelease_Priority(t *testing.T) {
	c := New("http://unused", slog.New(slog.DiscardHandler))

	tests := []struct {
		name     string
		act      string
		proj     string
		wantDate string
		wantRaw  string
	}{
		{name: "actual date wins", act: "06/16/2030", proj: "07/01/2031", wantDate: "2030-06-16"},
		{name: "projected date when actual unparseable", act: "UNKNOWN", proj: "07/01/2031", wantDate: "2031-07-01"},
		{name: "raw projected when neither parses", act: "UNKNOWN", proj: "LIFE", wantRaw: "LIFE"},
		{name: "raw actual when projected empty", act: "LIFE", proj: "", wantRaw: "LIFE"},
		{name: "absent when both empty", act: "", proj: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := c.deriveRelease(testEntry("BAS", tt.act, tt.proj))

			switch {
			case tt.wantDate != "":
				d, ok := rel.Date()
				if !ok {
					t.Fatalf("want date %s, got %v", tt.wantDate, rel)
				}
				if got := d.Format("2006-01-02"); got != tt.wantDate {
					t.Errorf("date = %s, want %s", got, tt.wantDate)
				}
			case tt.wantRaw != "":
				raw, ok := rel.Raw()
				if !ok {
					t.Fatalf("want raw %q, got %v", tt.wantRaw, rel)
				}
				if raw != tt.wantRaw {
					t.Errorf("raw = %q, want %q", raw, tt.wantRaw)
				}
			default:
				if rel.Known() {
					t.Errorf("want absent release, got %v", rel)
				}
			}
		})
	}
}
