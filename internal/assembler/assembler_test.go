package assembler

import (
	"encoding/json"
	"testing"

	"villa-offers-api/internal/logger"
	"villa-offers-api/internal/models"
)

func strPtr(s string) *string { return &s }

func newTestAssembler() *Assembler {
	return New(NewNames(nil), logger.NewNop())
}

func TestDecodeList(t *testing.T) {
	log := logger.NewNop()
	tests := []struct {
		name string
		raw  *string
		want int
	}{
		{"nil", nil, 0},
		{"blank", strPtr("   "), 0},
		{"json null", strPtr("null"), 0},
		{"empty array", strPtr("[]"), 0},
		{"valid", strPtr(`["a","b","c"]`), 3},
		{"malformed", strPtr(`["a",`), 0},
		{"object", strPtr(`{"a":1}`), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeList[string](log, "test", tt.raw, Identity{VillaID: "V1"})
			if got == nil {
				t.Fatal("Expected non-nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("Expected %d items, got %d", tt.want, len(got))
			}
		})
	}
}

func TestAssembleRow_MixedPerkIDs(t *testing.T) {
	a := newTestAssembler()
	row := models.OfferRow{Offer: models.Offer{
		ID:      1,
		VillaID: "V1",
		PerkIDs: strPtr(`["early-checkin", 42]`),
	}}

	got := a.AssembleRow(row)

	if len(got.PerkIDs) != 2 || got.PerkIDs[0] != "early-checkin" || got.PerkIDs[1] != "42" {
		t.Errorf("Expected [early-checkin 42], got %v", got.PerkIDs)
	}
}

func TestAssemble_MalformedJSONIsolatedPerRow(t *testing.T) {
	a := newTestAssembler()
	rows := []models.OfferRow{
		{
			Offer: models.Offer{ID: 1, VillaID: "V1", CheckinDate: "2025-06-01", Nights: 3, PerkIDs: strPtr(`not json`)},
			Room: &models.RoomDescription{
				VillaID:   "V1",
				ImageURLs: strPtr(`["https://img/1.jpg"`),
				Amenities: strPtr(`["pool","wifi"]`),
			},
		},
		{
			Offer: models.Offer{ID: 2, VillaID: "V2", CheckinDate: "2025-06-01", Nights: 4, PerkIDs: strPtr(`["p1"]`)},
			Room: &models.RoomDescription{
				VillaID:   "V2",
				ImageURLs: strPtr(`["https://img/2.jpg"]`),
				Amenities: strPtr(`{broken`),
			},
		},
	}

	got := a.Assemble(rows)

	if len(got) != 2 {
		t.Fatalf("Expected 2 offers, got %d", len(got))
	}
	if len(got[0].PerkIDs) != 0 || len(got[0].ImageURLs) != 0 {
		t.Errorf("Expected empty perks and images for row 1, got %v %v", got[0].PerkIDs, got[0].ImageURLs)
	}
	if len(got[0].Amenities) != 2 {
		t.Errorf("Expected row 1 amenities untouched, got %v", got[0].Amenities)
	}
	if len(got[1].PerkIDs) != 1 || len(got[1].ImageURLs) != 1 {
		t.Errorf("Expected row 2 perks and images intact, got %v %v", got[1].PerkIDs, got[1].ImageURLs)
	}
	if len(got[1].Amenities) != 0 {
		t.Errorf("Expected empty amenities for row 2, got %v", got[1].Amenities)
	}
}

func TestAssembleRow_MissingCatalog(t *testing.T) {
	a := newTestAssembler()
	got := a.AssembleRow(models.OfferRow{Offer: models.Offer{ID: 7, VillaID: "V9"}})

	if got.Tagline != nil || got.Description != nil || got.WebpageURL != nil {
		t.Errorf("Expected nil catalog fields, got %+v", got)
	}
	if got.ImageURLs == nil || len(got.ImageURLs) != 0 {
		t.Errorf("Expected empty images, got %v", got.ImageURLs)
	}

	body, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	for _, key := range []string{"tagline", "amenities", "imageUrls"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("Expected %q to be present in output", key)
		}
	}
	if fields["tagline"] != nil {
		t.Errorf("Expected tagline null, got %v", fields["tagline"])
	}
}

func TestAssembleRow_LegacyAliases(t *testing.T) {
	a := newTestAssembler()
	got := a.AssembleRow(models.OfferRow{Offer: models.Offer{
		ID:             3,
		VillaID:        "ocean-breeze",
		CheckinDate:    "2025-06-01",
		Nights:         5,
		PriceForGuests: 1234.5,
	}})

	if got.RoomName != "Ocean Breeze Villa" {
		t.Errorf("Expected mapped room name, got %q", got.RoomName)
	}
	if got.CheckInDate != "2025-06-01" {
		t.Errorf("Expected check_in_date alias, got %q", got.CheckInDate)
	}
	if got.AvailableCount != 1 {
		t.Errorf("Expected available_count 1, got %d", got.AvailableCount)
	}
	if got.Price != 1234.5 || got.NightsCount != 5 {
		t.Errorf("Expected price and nights aliases, got %v %d", got.Price, got.NightsCount)
	}

	body, _ := json.Marshal(got)
	var fields map[string]interface{}
	json.Unmarshal(body, &fields)
	if fields["check_in_date"] != "2025-06-01" || fields["checkinDate"] != "2025-06-01" {
		t.Errorf("Expected both date fields in JSON, got %s", body)
	}
}

func TestNames_DisplayName(t *testing.T) {
	names := NewNames(map[string]string{"custom": "Custom Hideaway", "ocean-breeze": "Ocean Breeze Estate"})

	if got := names.DisplayName("custom"); got != "Custom Hideaway" {
		t.Errorf("Expected override, got %q", got)
	}
	if got := names.DisplayName("ocean-breeze"); got != "Ocean Breeze Estate" {
		t.Errorf("Expected override to win over default, got %q", got)
	}
	if got := names.DisplayName("lotus-pond"); got != "Lotus Pond Villa" {
		t.Errorf("Expected default name, got %q", got)
	}
	if got := names.DisplayName("V42"); got != "The V42 Villa" {
		t.Errorf("Expected templated fallback, got %q", got)
	}
}
