package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"villa-offers-api/internal/models"
)

var (
	villaIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
	validate     = validator.New(validator.WithRequiredStructEnabled())
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ListingDefaults holds the values applied to absent listing parameters.
type ListingDefaults struct {
	Adults     int
	Children   int
	Offset     int
	Limit      int
	MaxLimit   int
	WindowDays int
	Location   *time.Location
}

// DefaultWindow returns tomorrow and tomorrow+days as calendar dates in loc.
func DefaultWindow(now time.Time, loc *time.Location, days int) (string, string) {
	local := now.In(loc)
	tomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return tomorrow.Format(models.DateLayout), tomorrow.AddDate(0, 0, days).Format(models.DateLayout)
}

// ParseListingQuery reads the listing parameters, applying defaults for
// anything absent. Limits above MaxLimit are capped rather than rejected.
func ParseListingQuery(values url.Values, now time.Time, d ListingDefaults) (models.ListingQuery, error) {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	defStart, defEnd := DefaultWindow(now, loc, d.WindowDays)

	q := models.ListingQuery{
		StartDate: defStart,
		EndDate:   defEnd,
		Adults:    d.Adults,
		Children:  d.Children,
		Offset:    d.Offset,
		Limit:     d.Limit,
	}

	if v := SanitizeString(values.Get("startDate")); v != "" {
		q.StartDate = v
	}
	if v := SanitizeString(values.Get("endDate")); v != "" {
		q.EndDate = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"adults", &q.Adults},
		{"children", &q.Children},
		{"offset", &q.Offset},
		{"limit", &q.Limit},
	}
	for _, p := range ints {
		raw := SanitizeString(values.Get(p.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return models.ListingQuery{}, &ValidationError{Field: p.name, Message: "must be an integer"}
		}
		*p.dst = n
	}

	if d.MaxLimit > 0 && q.Limit > d.MaxLimit {
		q.Limit = d.MaxLimit
	}

	if err := ValidateListingQuery(q); err != nil {
		return models.ListingQuery{}, err
	}

	return q, nil
}

// ValidateListingQuery checks the struct rules and the date ordering.
func ValidateListingQuery(q models.ListingQuery) error {
	if err := validate.Struct(q); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{Field: jsonFieldName(fe.Field()), Message: describe(fe)}
		}
		return &ValidationError{Field: "query", Message: err.Error()}
	}

	if q.EndDate < q.StartDate {
		return &ValidationError{Field: "endDate", Message: "must not be before startDate"}
	}

	return nil
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

// ValidateDate checks a YYYY-MM-DD calendar date.
func ValidateDate(date, fieldName string) error {
	if date == "" {
		return &ValidationError{Field: fieldName, Message: "is required"}
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return &ValidationError{Field: fieldName, Message: "must be a date in YYYY-MM-DD format"}
	}
	return nil
}

// ValidateVillaID checks a villa identifier.
func ValidateVillaID(id, fieldName string) error {
	if id == "" {
		return &ValidationError{Field: fieldName, Message: "is required"}
	}
	if !villaIDRegex.MatchString(id) {
		return &ValidationError{Field: fieldName, Message: "must be an alphanumeric villa identifier"}
	}
	return nil
}

func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}
