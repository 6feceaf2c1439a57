package validation

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

var testDefaults = ListingDefaults{
	Adults:     2,
	Children:   0,
	Offset:     0,
	Limit:      3,
	MaxLimit:   50,
	WindowDays: 7,
	Location:   time.FixedZone("UTC+8", 8*60*60),
}

func TestDefaultWindow_UsesBusinessTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)

	// 2025-05-31 17:30 UTC is already 2025-06-01 01:30 in UTC+8.
	now := time.Date(2025, 5, 31, 17, 30, 0, 0, time.UTC)
	start, end := DefaultWindow(now, loc, 7)

	if start != "2025-06-02" {
		t.Errorf("Expected start 2025-06-02, got %s", start)
	}
	if end != "2025-06-09" {
		t.Errorf("Expected end 2025-06-09, got %s", end)
	}

	// Still 2025-05-31 in UTC+8.
	now = time.Date(2025, 5, 31, 15, 0, 0, 0, time.UTC)
	start, _ = DefaultWindow(now, loc, 7)
	if start != "2025-06-01" {
		t.Errorf("Expected start 2025-06-01, got %s", start)
	}
}

func TestParseListingQuery_Defaults(t *testing.T) {
	now := time.Date(2025, 12, 30, 4, 0, 0, 0, time.UTC)

	q, err := ParseListingQuery(url.Values{}, now, testDefaults)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if q.StartDate != "2025-12-31" || q.EndDate != "2026-01-07" {
		t.Errorf("Expected default window 2025-12-31..2026-01-07, got %s..%s", q.StartDate, q.EndDate)
	}
	if q.Adults != 2 || q.Children != 0 || q.Offset != 0 || q.Limit != 3 {
		t.Errorf("Unexpected defaults: %+v", q)
	}
}

func TestParseListingQuery_Explicit(t *testing.T) {
	values := url.Values{
		"startDate": {"2025-06-01"},
		"endDate":   {"2025-06-10"},
		"adults":    {"4"},
		"children":  {"1"},
		"offset":    {"3"},
		"limit":     {"6"},
	}

	q, err := ParseListingQuery(values, time.Now(), testDefaults)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if q.StartDate != "2025-06-01" || q.EndDate != "2025-06-10" || q.Adults != 4 ||
		q.Children != 1 || q.Offset != 3 || q.Limit != 6 {
		t.Errorf("Unexpected query: %+v", q)
	}
}

func TestParseListingQuery_CapsLimit(t *testing.T) {
	q, err := ParseListingQuery(url.Values{"limit": {"10000"}}, time.Now(), testDefaults)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if q.Limit != 50 {
		t.Errorf("Expected limit capped to 50, got %d", q.Limit)
	}
}

func TestParseListingQuery_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		field  string
	}{
		{"non-numeric adults", url.Values{"adults": {"two"}}, "adults"},
		{"negative children", url.Values{"children": {"-1"}}, "children"},
		{"negative offset", url.Values{"offset": {"-5"}}, "offset"},
		{"zero limit", url.Values{"limit": {"0"}}, "limit"},
		{"bad start date", url.Values{"startDate": {"06/01/2025"}}, "startDate"},
		{"reversed range", url.Values{"startDate": {"2025-06-10"}, "endDate": {"2025-06-01"}}, "endDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseListingQuery(tt.values, time.Now(), testDefaults)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, vErr.Field)
			}
		})
	}
}

func TestValidateVillaID(t *testing.T) {
	if err := ValidateVillaID("ocean-breeze", "villaId"); err != nil {
		t.Errorf("Expected valid id, got %v", err)
	}
	if err := ValidateVillaID("", "villaId"); err == nil {
		t.Error("Expected error for empty id")
	}
	if err := ValidateVillaID("v1; DROP TABLE offers", "villaId"); err == nil {
		t.Error("Expected error for invalid characters")
	}
}

func TestValidateDate(t *testing.T) {
	if err := ValidateDate("2025-06-01", "checkinDate"); err != nil {
		t.Errorf("Expected valid date, got %v", err)
	}
	if err := ValidateDate("2025-13-01", "checkinDate"); err == nil {
		t.Error("Expected error for invalid month")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  V1\x00\x07 "); got != "V1" {
		t.Errorf("Expected V1, got %q", got)
	}
}
