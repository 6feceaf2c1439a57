// Package ranking pages the score-ordered champion slots of a listing.
package ranking

import "villa-offers-api/internal/models"

// Page is one window over the deduplicated champion slots.
type Page struct {
	Keys           []models.ChampionKey
	Offset         int
	Limit          int
	TotalAvailable int
	HasMore        bool
}

// Paginate keeps the first occurrence of every (villa, check-in) slot, then
// skips offset slots and takes up to limit, preserving the input order.
// TotalAvailable counts the unique slots before paging. Callers pass a limit
// of at least 1; a negative offset is treated as 0.
func Paginate(champions []models.ChampionKey, offset, limit int) Page {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 1
	}

	seen := make(map[string]struct{}, len(champions))
	unique := make([]models.ChampionKey, 0, len(champions))
	for _, key := range champions {
		slot := key.SlotKey()
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		unique = append(unique, key)
	}

	total := len(unique)
	start := offset
	if start > total {
		start = total
	}
	end := total
	if limit < total-start {
		end = start + limit
	}

	keys := make([]models.ChampionKey, end-start)
	copy(keys, unique[start:end])

	return Page{
		Keys:           keys,
		Offset:         offset,
		Limit:          limit,
		TotalAvailable: total,
		HasMore:        offset < total && limit < total-offset,
	}
}

// ClampLimit applies the listing defaults: values below 1 become def, values
// above max are capped.
func ClampLimit(limit, def, max int) int {
	if limit < 1 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}
