package storage

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSearch(id string, at time.Time) Search {
	return Search{
		ID:            id,
		Kind:          "name",
		Query:         "John Doe",
		Jurisdictions: "Federal,Texas",
		RecordCount:   1,
		ErrorCount:    0,
		CreatedAt:     at,
	}
}

func TestOpen_RunsMigrations(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(versions) == 0 {
		t.Fatal("no migrations applied")
	}
	if versions[0] != 1 {
		t.Errorf("first migration = %d, want 1", versions[0])
	}
}

func TestSaveAndGetSearch(t *testing.T) {
	s := openTestStore(t)

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	search := testSearch("s-1", at)
	records := []SearchRecord{{
		SearchID:     "s-1",
		InmateID:     "00112233",
		Jurisdiction: "Texas",
		FirstName:    "JOHN",
		LastName:     "DOE",
		Unit:         "Polunsky",
		Release:      "2031-04-09",
	}}

	if err := s.SaveSearch(search, records); err != nil {
		t.Fatalf("SaveSearch: %v", err)
	}

	got, gotRecords, err := s.GetSearch("s-1")
	if err != nil {
		t.Fatalf("GetSearch: %v", err)
	}
	if got.Query != "John Doe" || got.Kind != "name" {
		t.Errorf("search = %+v", got)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, at)
	}
	if len(gotRecords) != 1 {
		t.Fatalf("got %d records, want 1", len(gotRecords))
	}
	if gotRecords[0].InmateID != "00112233" || gotRecords[0].Release != "2031-04-09" {
		t.Errorf("record = %+v", gotRecords[0])
	}
}

func TestGetSearch_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, _, err := s.GetSearch("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecentSearches_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"s-old", "s-mid", "s-new"} {
		if err := s.SaveSearch(testSearch(id, base.Add(time.Duration(i)*time.Hour)), nil); err != nil {
			t.Fatalf("SaveSearch(%s): %v", id, err)
		}
	}

	searches, err := s.RecentSearches(2)
	if err != nil {
		t.Fatalf("RecentSearches: %v", err)
	}
	if len(searches) != 2 {
		t.Fatalf("got %d searches, want 2", len(searches))
	}
	if searches[0].ID != "s-new" || searches[1].ID != "s-mid" {
		t.Errorf("order = [%s, %s], want [s-new, s-mid]", searches[0].ID, searches[1].ID)
	}
}

func TestSaveSearch_NoRecords(t *testing.T) {
	s := openTestStore(t)

	search := testSearch("s-empty", time.Now())
	search.RecordCount = 0
	search.ErrorCount = 2

	if err := s.SaveSearch(search, nil); err != nil {
		t.Fatalf("SaveSearch: %v", err)
	}

	got, records, err := s.GetSearch("s-empty")
	if err != nil {
		t.Fatalf("GetSearch: %v", err)
	}
	if got.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2", got.ErrorCount)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}
