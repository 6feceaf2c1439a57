package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"villa-offers-api/internal/models"
)

const offerColumns = `o.id, o.villa_id, o.checkin_date, o.nights, o.adults, o.children,
	o.attractiveness_score, o.offer_status, o.price_for_guests, o.total_face_value,
	o.guest_savings_value, o.guest_savings_percent, o.perk_ids, o.has_wow_factor_perk,
	o.last_calculated_at`

const roomColumns = `r.villa_id, r.tagline, r.description, r.room_size, r.bathrooms,
	r.bedrooms, r.view_type, r.pool_type, r.image_urls, r.amenities, r.webpage_url`

// SelectLocalChampions returns the best offer's slot for every (villa, check-in)
// pair in [StartDate, EndDate] with the exact occupancy and an eligible status.
// Ties on score go to the fewest nights, then the lowest row id. The result is
// ordered by score descending.
func (db *DB) SelectLocalChampions(ctx context.Context, q models.ChampionQuery) ([]models.ChampionKey, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	statusIn, statusArgs := placeholders(models.EligibleStatuses)
	query := `SELECT villa_id, checkin_date, attractiveness_score FROM (
			SELECT villa_id, checkin_date, attractiveness_score,
				ROW_NUMBER() OVER (
					PARTITION BY villa_id, checkin_date
					ORDER BY attractiveness_score DESC, nights ASC, id ASC
				) AS slot_rank
			FROM offers
			WHERE checkin_date BETWEEN ? AND ?
			AND adults = ?
			AND children = ?
			AND offer_status IN (` + statusIn + `)
		) ranked
		WHERE slot_rank = 1
		ORDER BY attractiveness_score DESC, villa_id ASC, checkin_date ASC`

	args := append([]interface{}{q.StartDate, q.EndDate, q.Adults, q.Children}, statusArgs...)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select local champions: %w", Classify(err))
	}
	defer rows.Close()

	champions := []models.ChampionKey{}
	for rows.Next() {
		var key models.ChampionKey
		if err := rows.Scan(&key.VillaID, &key.CheckinDate, &key.Score); err != nil {
			return nil, fmt.Errorf("failed to scan champion: %w", err)
		}
		key.CheckinDate = normalizeDate(key.CheckinDate)
		champions = append(champions, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating champions: %w", Classify(err))
	}

	return champions, nil
}

// ExpandOffers returns every night-length variant of the given slots with the
// same occupancy and status filter, joined with the room catalog, ordered by
// score descending across the whole set.
func (db *DB) ExpandOffers(ctx context.Context, keys []models.ChampionKey, adults, children int) ([]models.OfferRow, error) {
	if len(keys) == 0 {
		return []models.OfferRow{}, nil
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	slots := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)*2+2+len(models.EligibleStatuses))
	for _, key := range keys {
		slots = append(slots, "(o.villa_id = ? AND o.checkin_date = ?)")
		args = append(args, key.VillaID, key.CheckinDate)
	}
	statusIn, statusArgs := placeholders(models.EligibleStatuses)
	args = append(args, adults, children)
	args = append(args, statusArgs...)

	query := `SELECT ` + offerColumns + `, ` + roomColumns + `
		FROM offers o
		LEFT JOIN room_descriptions r ON r.villa_id = o.villa_id
		WHERE (` + strings.Join(slots, " OR ") + `)
		AND o.adults = ?
		AND o.children = ?
		AND o.offer_status IN (` + statusIn + `)
		ORDER BY o.attractiveness_score DESC, o.villa_id ASC, o.checkin_date ASC, o.nights ASC, o.id ASC`

	return db.queryOfferRows(ctx, "expand offers", query, args...)
}

// LoadFutureOffers returns every offer checking in on or after today, any
// occupancy and status, joined with the room catalog.
func (db *DB) LoadFutureOffers(ctx context.Context, today string) ([]models.OfferRow, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + offerColumns + `, ` + roomColumns + `
		FROM offers o
		LEFT JOIN room_descriptions r ON r.villa_id = o.villa_id
		WHERE o.checkin_date >= ?
		ORDER BY o.checkin_date ASC, o.villa_id ASC, o.nights ASC, o.adults ASC, o.children ASC, o.id ASC`

	return db.queryOfferRows(ctx, "load future offers", query, today)
}

// GetOffer returns the raw offer row for a check-in date and villa. When several
// night or occupancy variants exist the highest-scoring one is returned.
func (db *DB) GetOffer(ctx context.Context, checkinDate, villaID string) (*models.Offer, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + offerColumns + `
		FROM offers o
		WHERE o.checkin_date = ? AND o.villa_id = ?
		ORDER BY o.attractiveness_score DESC, o.nights ASC, o.id ASC
		LIMIT 1`

	var offer models.Offer
	err := scanOffer(db.conn.QueryRowContext(ctx, query, checkinDate, villaID), &offer, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", Classify(err))
	}

	return &offer, nil
}

func (db *DB) queryOfferRows(ctx context.Context, op, query string, args ...interface{}) ([]models.OfferRow, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, Classify(err))
	}
	defer rows.Close()

	result := []models.OfferRow{}
	for rows.Next() {
		var row models.OfferRow
		var room roomScan
		if err := scanOffer(rows, &row.Offer, &room); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		row.Room = room.toModel()
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", Classify(err))
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// roomScan holds the nullable left-joined catalog columns.
type roomScan struct {
	villaID     sql.NullString
	tagline     sql.NullString
	description sql.NullString
	roomSize    sql.NullString
	bathrooms   sql.NullInt64
	bedrooms    sql.NullInt64
	viewType    sql.NullString
	poolType    sql.NullString
	imageURLs   sql.NullString
	amenities   sql.NullString
	webpageURL  sql.NullString
}

func (r *roomScan) dest() []interface{} {
	return []interface{}{
		&r.villaID, &r.tagline, &r.description, &r.roomSize, &r.bathrooms,
		&r.bedrooms, &r.viewType, &r.poolType, &r.imageURLs, &r.amenities, &r.webpageURL,
	}
}

// toModel returns nil when the join found no catalog row.
func (r *roomScan) toModel() *models.RoomDescription {
	if !r.villaID.Valid {
		return nil
	}
	return &models.RoomDescription{
		VillaID:     r.villaID.String,
		Tagline:     nullString(r.tagline),
		Description: nullString(r.description),
		RoomSize:    nullString(r.roomSize),
		Bathrooms:   nullInt(r.bathrooms),
		Bedrooms:    nullInt(r.bedrooms),
		ViewType:    nullString(r.viewType),
		PoolType:    nullString(r.poolType),
		ImageURLs:   nullString(r.imageURLs),
		Amenities:   nullString(r.amenities),
		WebpageURL:  nullString(r.webpageURL),
	}
}

func scanOffer(s scanner, offer *models.Offer, room *roomScan) error {
	var perkIDs, lastCalculated sql.NullString
	dest := []interface{}{
		&offer.ID, &offer.VillaID, &offer.CheckinDate, &offer.Nights, &offer.Adults, &offer.Children,
		&offer.AttractivenessScore, &offer.OfferStatus, &offer.PriceForGuests, &offer.TotalFaceValue,
		&offer.GuestSavingsValue, &offer.GuestSavingsPercent, &perkIDs, &offer.HasWowFactorPerk,
		&lastCalculated,
	}
	if room != nil {
		dest = append(dest, room.dest()...)
	}

	if err := s.Scan(dest...); err != nil {
		return err
	}

	offer.CheckinDate = normalizeDate(offer.CheckinDate)
	offer.PerkIDs = nullString(perkIDs)
	offer.LastCalculatedAt = parseTimestamp(lastCalculated)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
}

// parseTimestamp accepts the formats sqlite and MySQL hand back; an unreadable
// value is treated as absent.
func parseTimestamp(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v.String); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// normalizeDate trims a DATE/DATETIME value to YYYY-MM-DD.
func normalizeDate(s string) string {
	if len(s) > len(models.DateLayout) {
		return s[:len(models.DateLayout)]
	}
	return s
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func placeholders(values []string) (string, []interface{}) {
	marks := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	return strings.Join(marks, ","), args
}
