package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Offer statuses eligible for selection.
const (
	StatusTargetMet  = "TargetMet"
	StatusBestEffort = "BestEffort"
)

// EligibleStatuses lists the offer statuses the listing pipeline considers.
var EligibleStatuses = []string{StatusTargetMet, StatusBestEffort}

// DateLayout is the calendar date format used for check-in dates.
const DateLayout = "2006-01-02"

// Offer is one priced, bookable (villa, check-in, nights, occupancy) combination
// as stored in the offers table.
type Offer struct {
	ID                  int64      `json:"id"`
	VillaID             string     `json:"villa_id"`
	CheckinDate         string     `json:"checkin_date"` // YYYY-MM-DD
	Nights              int        `json:"nights"`
	Adults              int        `json:"adults"`
	Children            int        `json:"children"`
	AttractivenessScore float64    `json:"attractiveness_score"`
	OfferStatus         string     `json:"offer_status"`
	PriceForGuests      float64    `json:"price_for_guests"`
	TotalFaceValue      float64    `json:"total_face_value"`
	GuestSavingsValue   float64    `json:"guest_savings_value"`
	GuestSavingsPercent float64    `json:"guest_savings_percent"`
	PerkIDs             *string    `json:"perk_ids"` // raw JSON text
	HasWowFactorPerk    bool       `json:"has_wow_factor_perk"`
	LastCalculatedAt    *time.Time `json:"last_calculated_at"`
}

// PerkID identifies a perk. Stored perk lists mix quoted and bare numeric ids,
// so both decode to the same string form.
type PerkID string

func (p *PerkID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PerkID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = PerkID(n.String())
	return nil
}

// RoomDescription is the catalog entry for a villa. List fields hold raw JSON text.
type RoomDescription struct {
	VillaID     string  `json:"villa_id"`
	Tagline     *string `json:"tagline"`
	Description *string `json:"description"`
	RoomSize    *string `json:"room_size"`
	Bathrooms   *int    `json:"bathrooms"`
	Bedrooms    *int    `json:"bedrooms"`
	ViewType    *string `json:"view_type"`
	PoolType    *string `json:"pool_type"`
	ImageURLs   *string `json:"image_urls"`
	Amenities   *string `json:"amenities"`
	WebpageURL  *string `json:"webpage_url"`
}

// OfferRow is an Offer left-joined with its RoomDescription. Room is nil when the
// villa has no catalog entry.
type OfferRow struct {
	Offer
	Room *RoomDescription
}

// ChampionKey identifies one (villa, check-in date) slot and the score of its
// best offer.
type ChampionKey struct {
	VillaID     string  `json:"villa_id"`
	CheckinDate string  `json:"checkin_date"`
	Score       float64 `json:"score"`
}

// SlotKey returns the dedupe key for the slot.
func (k ChampionKey) SlotKey() string {
	return k.VillaID + "|" + k.CheckinDate
}

// ChampionQuery filters the local champion selection.
type ChampionQuery struct {
	StartDate string
	EndDate   string
	Adults    int
	Children  int
}

// ListingQuery is the parsed request for the last-minute listing.
type ListingQuery struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Adults    int    `json:"adults" validate:"gte=0,lte=50"`
	Children  int    `json:"children" validate:"gte=0,lte=50"`
	Offset    int    `json:"offset" validate:"gte=0"`
	Limit     int    `json:"limit" validate:"gte=1"`
}

// Pagination is the page metadata returned with a listing.
type Pagination struct {
	Offset         int  `json:"offset"`
	Limit          int  `json:"limit"`
	HasMore        bool `json:"hasMore"`
	TotalAvailable int  `json:"totalAvailable"`
}

// EnrichedOffer is the flat, externally stable listing record. It carries the
// native fields plus the legacy aliases older clients still read.
type EnrichedOffer struct {
	// Native
	OfferID             int64      `json:"offerId"`
	VillaID             string     `json:"villaId"`
	VillaName           string     `json:"villaName"`
	CheckinDate         string     `json:"checkinDate"`
	Nights              int        `json:"nights"`
	Adults              int        `json:"adults"`
	Children            int        `json:"children"`
	AttractivenessScore float64    `json:"attractivenessScore"`
	OfferStatus         string     `json:"offerStatus"`
	PriceForGuests      float64    `json:"priceForGuests"`
	TotalFaceValue      float64    `json:"totalFaceValue"`
	GuestSavingsValue   float64    `json:"guestSavingsValue"`
	GuestSavingsPercent float64    `json:"guestSavingsPercent"`
	PerkIDs             []PerkID   `json:"perkIds"`
	HasWowFactorPerk    bool       `json:"hasWowFactorPerk"`
	LastCalculatedAt    *time.Time `json:"lastCalculatedAt"`

	// Catalog
	Tagline     *string  `json:"tagline"`
	Description *string  `json:"description"`
	RoomSize    *string  `json:"roomSize"`
	Bathrooms   *int     `json:"bathrooms"`
	Bedrooms    *int     `json:"bedrooms"`
	ViewType    *string  `json:"viewType"`
	PoolType    *string  `json:"poolType"`
	ImageURLs   []string `json:"imageUrls"`
	Amenities   []string `json:"amenities"`
	WebpageURL  *string  `json:"webpageUrl"`

	LegacyFields
}

// LegacyFields mirrors the pre-redesign listing schema.
type LegacyFields struct {
	RoomName       string  `json:"room_name"`
	CheckInDate    string  `json:"check_in_date"`
	AvailableCount int     `json:"available_count"`
	Price          float64 `json:"price"`
	NightsCount    int     `json:"nights_count"`
}

// ListingResponse is the payload of the last-minute listing endpoint.
type ListingResponse struct {
	Success     bool            `json:"success"`
	Count       int             `json:"count"`
	Data        []EnrichedOffer `json:"data"`
	Pagination  Pagination      `json:"pagination"`
	QueryParams ListingQuery    `json:"query_params"`
}

// OfferResponse wraps a single raw offer row.
type OfferResponse struct {
	Success bool  `json:"success"`
	Data    Offer `json:"data"`
}

// CacheResponse is the payload of the cache read endpoint.
type CacheResponse struct {
	Success         bool            `json:"success"`
	Version         string          `json:"version,omitempty"`
	LastRefreshedAt *time.Time      `json:"lastRefreshedAt"`
	Count           int             `json:"count"`
	Data            []EnrichedOffer `json:"data"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
