// Package seed loads offer and catalog fixtures into the offer store.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"villa-offers-api/internal/models"
)

// Fixture is the YAML seed file layout.
type Fixture struct {
	Rooms  []Room  `yaml:"rooms"`
	Offers []Offer `yaml:"offers"`
}

// Room is one room_descriptions row. List fields are stored as JSON text.
type Room struct {
	VillaID     string   `yaml:"villa_id"`
	Tagline     *string  `yaml:"tagline"`
	Description *string  `yaml:"description"`
	RoomSize    *string  `yaml:"room_size"`
	Bathrooms   *int     `yaml:"bathrooms"`
	Bedrooms    *int     `yaml:"bedrooms"`
	ViewType    *string  `yaml:"view_type"`
	PoolType    *string  `yaml:"pool_type"`
	ImageURLs   []string `yaml:"image_urls"`
	Amenities   []string `yaml:"amenities"`
	WebpageURL  *string  `yaml:"webpage_url"`
}

// Offer is one offers row. RawPerkIDs, when set, is stored verbatim and wins
// over PerkIDs; it lets fixtures carry malformed data.
type Offer struct {
	VillaID             string     `yaml:"villa_id"`
	CheckinDate         string     `yaml:"checkin_date"`
	Nights              int        `yaml:"nights"`
	Adults              int        `yaml:"adults"`
	Children            int        `yaml:"children"`
	AttractivenessScore float64    `yaml:"attractiveness_score"`
	OfferStatus         string     `yaml:"offer_status"`
	PriceForGuests      float64    `yaml:"price_for_guests"`
	TotalFaceValue      float64    `yaml:"total_face_value"`
	GuestSavingsValue   float64    `yaml:"guest_savings_value"`
	GuestSavingsPercent float64    `yaml:"guest_savings_percent"`
	PerkIDs             []string   `yaml:"perk_ids"`
	RawPerkIDs          *string    `yaml:"raw_perk_ids"`
	HasWowFactorPerk    bool       `yaml:"has_wow_factor_perk"`
	LastCalculatedAt    *time.Time `yaml:"last_calculated_at"`
}

// Store is the write side used by Apply.
type Store interface {
	UpsertOffer(ctx context.Context, offer models.Offer) (int64, error)
	UpsertRoomDescription(ctx context.Context, room models.RoomDescription) error
}

// Load reads a YAML fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML fixture and checks required fields.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	for i, r := range f.Rooms {
		if r.VillaID == "" {
			return nil, fmt.Errorf("rooms[%d]: villa_id is required", i)
		}
	}
	for i, o := range f.Offers {
		if o.VillaID == "" {
			return nil, fmt.Errorf("offers[%d]: villa_id is required", i)
		}
		if _, err := time.Parse(models.DateLayout, o.CheckinDate); err != nil {
			return nil, fmt.Errorf("offers[%d]: checkin_date must be YYYY-MM-DD", i)
		}
		if o.Nights < 1 {
			return nil, fmt.Errorf("offers[%d]: nights must be positive", i)
		}
		if f.Offers[i].OfferStatus == "" {
			f.Offers[i].OfferStatus = models.StatusTargetMet
		}
	}

	return &f, nil
}

// Result counts the rows written by Apply.
type Result struct {
	Rooms  int
	Offers int
}

// Apply upserts every room, then every offer. Re-running a fixture is
// idempotent.
func Apply(ctx context.Context, store Store, f *Fixture) (Result, error) {
	var res Result

	for _, r := range f.Rooms {
		room, err := r.toModel()
		if err != nil {
			return res, err
		}
		if err := store.UpsertRoomDescription(ctx, room); err != nil {
			return res, fmt.Errorf("room %s: %w", r.VillaID, err)
		}
		res.Rooms++
	}

	for _, o := range f.Offers {
		offer, err := o.toModel()
		if err != nil {
			return res, err
		}
		if _, err := store.UpsertOffer(ctx, offer); err != nil {
			return res, fmt.Errorf("offer %s/%s/%d: %w", o.VillaID, o.CheckinDate, o.Nights, err)
		}
		res.Offers++
	}

	return res, nil
}

func (r Room) toModel() (models.RoomDescription, error) {
	images, err := jsonText(r.ImageURLs)
	if err != nil {
		return models.RoomDescription{}, err
	}
	amenities, err := jsonText(r.Amenities)
	if err != nil {
		return models.RoomDescription{}, err
	}

	return models.RoomDescription{
		VillaID:     r.VillaID,
		Tagline:     r.Tagline,
		Description: r.Description,
		RoomSize:    r.RoomSize,
		Bathrooms:   r.Bathrooms,
		Bedrooms:    r.Bedrooms,
		ViewType:    r.ViewType,
		PoolType:    r.PoolType,
		ImageURLs:   images,
		Amenities:   amenities,
		WebpageURL:  r.WebpageURL,
	}, nil
}

func (o Offer) toModel() (models.Offer, error) {
	perks := o.RawPerkIDs
	if perks == nil {
		var err error
		if perks, err = jsonText(o.PerkIDs); err != nil {
			return models.Offer{}, err
		}
	}

	return models.Offer{
		VillaID:             o.VillaID,
		CheckinDate:         o.CheckinDate,
		Nights:              o.Nights,
		Adults:              o.Adults,
		Children:            o.Children,
		AttractivenessScore: o.AttractivenessScore,
		OfferStatus:         o.OfferStatus,
		PriceForGuests:      o.PriceForGuests,
		TotalFaceValue:      o.TotalFaceValue,
		GuestSavingsValue:   o.GuestSavingsValue,
		GuestSavingsPercent: o.GuestSavingsPercent,
		PerkIDs:             perks,
		HasWowFactorPerk:    o.HasWowFactorPerk,
		LastCalculatedAt:    o.LastCalculatedAt,
	}, nil
}

// jsonText encodes a list as stored JSON text; nil stays NULL.
func jsonText(list []string) (*string, error) {
	if list == nil {
		return nil, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
