package assembler

import (
	"encoding/json"
	"strings"

	"villa-offers-api/internal/logger"
	"villa-offers-api/internal/metrics"
)

// Identity names the offer a decoded field belongs to, for diagnostics.
type Identity struct {
	OfferID     int64
	VillaID     string
	CheckinDate string
	Nights      int
}

// DecodeList decodes an optional JSON array column. Absent, blank or JSON null
// text yields an empty list. Malformed text also yields an empty list and is
// logged once with the field name and offer identity.
func DecodeList[T any](log *logger.Logger, field string, raw *string, id Identity) []T {
	if raw == nil {
		return []T{}
	}
	text := strings.TrimSpace(*raw)
	if text == "" || text == "null" {
		return []T{}
	}

	var out []T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		metrics.MalformedJSONFields.WithLabelValues(field).Inc()
		log.Warn("malformed JSON field, using empty list",
			"field", field,
			"offer_id", id.OfferID,
			"villa_id", id.VillaID,
			"checkin_date", id.CheckinDate,
			"nights", id.Nights,
			"error", err,
		)
		return []T{}
	}
	if out == nil {
		return []T{}
	}
	return out
}
