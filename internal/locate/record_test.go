package locate

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRelease_ZeroValueIsUnknown(t *testing.T) {
	var r Release

	if r.Known() {
		t.Error("zero Release reports Known() = true")
	}
	if _, ok := r.Date(); ok {
		t.Error("zero Release reports a date")
	}
	if _, ok := r.Raw(); ok {
		t.Error("zero Release reports a raw string")
	}
	if r.String() != "" {
		t.Errorf("String() = %q, want empty", r.String())
	}
}

func TestRelease_Date(t *testing.T) {
	d := time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC)
	r := ReleaseOn(d)

	got, ok := r.Date()
	if !ok {
		t.Fatal("Date() reported no date")
	}
	if !got.Equal(d) {
		t.Errorf("Date() = %v, want %v", got, d)
	}
	if _, ok := r.Raw(); ok {
		t.Error("date Release also reports a raw string")
	}
	if r.String() != "2030-06-15" {
		t.Errorf("String() = %q, want %q", r.String(), "2030-06-15")
	}
}

func TestRelease_RawPreservesString(t *testing.T) {
	r := ReleaseRaw("LIFE")

	raw, ok := r.Raw()
	if !ok {
		t.Fatal("Raw() reported no string")
	}
	if raw != "LIFE" {
		t.Errorf("Raw() = %q, want %q", raw, "LIFE")
	}
	if _, ok := r.Date(); ok {
		t.Error("raw Release also reports a date")
	}
}

func TestRelease_MarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		release Release
		want    string
	}{
		{"unknown", Release{}, "null"},
		{"date", ReleaseOn(time.Date(2030, 6, 15, 0, 0, 0, 0, time.UTC)), `"2030-06-15"`},
		{"raw", ReleaseRaw("LIFE"), `"LIFE"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.release)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("Marshal = %s, want %s", b, tt.want)
			}
		})
	}
}

func TestQueryError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	qe := QueryError{Jurisdiction: Federal, Err: cause}

	if !errors.Is(qe, cause) {
		t.Error("QueryError does not unwrap to its cause")
	}
	if got := qe.Error(); got != "Federal query failed: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestQueryError_MarshalJSON(t *testing.T) {
	qe := QueryError{Jurisdiction: Texas, Err: errors.New("boom")}

	b, err := json.Marshal(qe)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"jurisdiction":"Texas","error":"boom"}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}
}
