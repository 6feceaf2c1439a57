// Package assembler maps joined offer rows onto the flat listing schema.
package assembler

import (
	"villa-offers-api/internal/logger"
	"villa-offers-api/internal/models"
)

// Field names used in decode diagnostics.
const (
	FieldPerkIDs   = "perk_ids"
	FieldImageURLs = "image_urls"
	FieldAmenities = "amenities"
)

// Assembler turns OfferRows into EnrichedOffers.
type Assembler struct {
	names Names
	log   *logger.Logger
}

func New(names Names, log *logger.Logger) *Assembler {
	return &Assembler{names: names, log: log}
}

// Assemble maps every row, keeping input order. It never fails: bad embedded
// JSON degrades to an empty list for that field only.
func (a *Assembler) Assemble(rows []models.OfferRow) []models.EnrichedOffer {
	out := make([]models.EnrichedOffer, 0, len(rows))
	for _, row := range rows {
		out = append(out, a.AssembleRow(row))
	}
	return out
}

// AssembleRow maps a single row.
func (a *Assembler) AssembleRow(row models.OfferRow) models.EnrichedOffer {
	id := Identity{
		OfferID:     row.ID,
		VillaID:     row.VillaID,
		CheckinDate: row.CheckinDate,
		Nights:      row.Nights,
	}

	offer := models.EnrichedOffer{
		OfferID:             row.ID,
		VillaID:             row.VillaID,
		VillaName:           a.names.DisplayName(row.VillaID),
		CheckinDate:         row.CheckinDate,
		Nights:              row.Nights,
		Adults:              row.Adults,
		Children:            row.Children,
		AttractivenessScore: row.AttractivenessScore,
		OfferStatus:         row.OfferStatus,
		PriceForGuests:      row.PriceForGuests,
		TotalFaceValue:      row.TotalFaceValue,
		GuestSavingsValue:   row.GuestSavingsValue,
		GuestSavingsPercent: row.GuestSavingsPercent,
		PerkIDs:             DecodeList[models.PerkID](a.log, FieldPerkIDs, row.PerkIDs, id),
		HasWowFactorPerk:    row.HasWowFactorPerk,
		LastCalculatedAt:    row.LastCalculatedAt,
		ImageURLs:           []string{},
		Amenities:           []string{},
	}

	if room := row.Room; room != nil {
		offer.Tagline = room.Tagline
		offer.Description = room.Description
		offer.RoomSize = room.RoomSize
		offer.Bathrooms = room.Bathrooms
		offer.Bedrooms = room.Bedrooms
		offer.ViewType = room.ViewType
		offer.PoolType = room.PoolType
		offer.ImageURLs = DecodeList[string](a.log, FieldImageURLs, room.ImageURLs, id)
		offer.Amenities = DecodeList[string](a.log, FieldAmenities, room.Amenities, id)
		offer.WebpageURL = room.WebpageURL
	}

	offer.LegacyFields = ToLegacy(offer)
	return offer
}

// ToLegacy derives the pre-redesign aliases from the native fields.
// available_count is always 1: the row itself is the available offer.
func ToLegacy(offer models.EnrichedOffer) models.LegacyFields {
	return models.LegacyFields{
		RoomName:       offer.VillaName,
		CheckInDate:    offer.CheckinDate,
		AvailableCount: 1,
		Price:          offer.PriceForGuests,
		NightsCount:    offer.Nights,
	}
}
