package shared

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/api/v1/payrolls", 20, 0},
		{"explicit", "/api/v1/payrolls?limit=5&offset=40", 5, 40},
		{"clamped to max", "/api/v1/payrolls?limit=9999", 100, 0},
		{"garbage falls back", "/api/v1/payrolls?limit=abc&offset=-3", 20, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := ParsePagination(httptest.NewRequest("GET", tc.url, nil), 20, 100)
			if page.Limit != tc.wantLimit || page.Offset != tc.wantOffset {
				t.Fatalf("got limit=%d offset=%d, want limit=%d offset=%d",
					page.Limit, page.Offset, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	short, err := ParseDate("2025-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !short.Equal(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parsed date: %v", short)
	}

	full, err := ParseDate("2025-01-31T12:30:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full.Hour() != 12 {
		t.Fatalf("expected RFC3339 time of day to survive, got %v", full)
	}

	empty, err := ParseDate("")
	if err != nil || !empty.IsZero() {
		t.Fatalf("expected empty input to yield zero time, got %v, %v", empty, err)
	}

	if _, err := ParseDate("31/01/2025"); err == nil {
		t.Fatal("expected unsupported layout to fail")
	}
}
