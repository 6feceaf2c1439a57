package database

import (
	"context"
	"fmt"
	"time"

	"villa-offers-api/internal/models"
)

// The listing pipeline never writes. These upserts back the seed command and tests.

// UpsertOffer creates or updates an offer keyed by (villa, check-in, nights,
// adults, children) and returns its row id.
func (db *DB) UpsertOffer(ctx context.Context, offer models.Offer) (int64, error) {
	query := `INSERT INTO offers (
		villa_id, checkin_date, nights, adults, children, attractiveness_score,
		offer_status, price_for_guests, total_face_value, guest_savings_value,
		guest_savings_percent, perk_ids, has_wow_factor_perk, last_calculated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)` + db.upsertClause(
		[]string{"villa_id", "checkin_date", "nights", "adults", "children"},
		[]string{
			"attractiveness_score", "offer_status", "price_for_guests", "total_face_value",
			"guest_savings_value", "guest_savings_percent", "perk_ids", "has_wow_factor_perk",
			"last_calculated_at",
		},
	)

	var lastCalculated interface{}
	if offer.LastCalculatedAt != nil {
		lastCalculated = offer.LastCalculatedAt.UTC().Format(time.RFC3339)
	}

	if _, err := db.conn.ExecContext(ctx, query,
		offer.VillaID,
		offer.CheckinDate,
		offer.Nights,
		offer.Adults,
		offer.Children,
		offer.AttractivenessScore,
		offer.OfferStatus,
		offer.PriceForGuests,
		offer.TotalFaceValue,
		offer.GuestSavingsValue,
		offer.GuestSavingsPercent,
		offer.PerkIDs,
		offer.HasWowFactorPerk,
		lastCalculated,
	); err != nil {
		return 0, fmt.Errorf("failed to upsert offer: %w", Classify(err))
	}

	var id int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM offers WHERE villa_id = ? AND checkin_date = ? AND nights = ? AND adults = ? AND children = ?`,
		offer.VillaID, offer.CheckinDate, offer.Nights, offer.Adults, offer.Children,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to read offer id: %w", Classify(err))
	}

	return id, nil
}

// UpsertRoomDescription creates or updates a villa's catalog entry.
func (db *DB) UpsertRoomDescription(ctx context.Context, room models.RoomDescription) error {
	query := `INSERT INTO room_descriptions (
		villa_id, tagline, description, room_size, bathrooms, bedrooms,
		view_type, pool_type, image_urls, amenities, webpage_url
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)` + db.upsertClause(
		[]string{"villa_id"},
		[]string{
			"tagline", "description", "room_size", "bathrooms", "bedrooms",
			"view_type", "pool_type", "image_urls", "amenities", "webpage_url",
		},
	)

	if _, err := db.conn.ExecContext(ctx, query,
		room.VillaID,
		room.Tagline,
		room.Description,
		room.RoomSize,
		room.Bathrooms,
		room.Bedrooms,
		room.ViewType,
		room.PoolType,
		room.ImageURLs,
		room.Amenities,
		room.WebpageURL,
	); err != nil {
		return fmt.Errorf("failed to upsert room description: %w", Classify(err))
	}

	return nil
}

// upsertClause renders the driver's conflict-update suffix.
func (db *DB) upsertClause(conflict, update []string) string {
	clause := ""
	if db.driver == "mysql" {
		clause = "\n\tON DUPLICATE KEY UPDATE "
		for i, col := range update {
			if i > 0 {
				clause += ", "
			}
			clause += fmt.Sprintf("%s = VALUES(%s)", col, col)
		}
		return clause
	}

	clause = "\n\tON CONFLICT("
	for i, col := range conflict {
		if i > 0 {
			clause += ", "
		}
		clause += col
	}
	clause += ") DO UPDATE SET "
	for i, col := range update {
		if i > 0 {
			clause += ", "
		}
		clause += fmt.Sprintf("%s = excluded.%s", col, col)
	}
	return clause
}
