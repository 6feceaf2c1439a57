package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"villa-offers-api/internal/database"
	"villa-offers-api/internal/features"
	"villa-offers-api/internal/logger"
	"villa-offers-api/internal/models"
	"villa-offers-api/internal/service"
	"villa-offers-api/internal/validation"
)

// Handler provides HTTP handlers for the API.
type Handler struct {
	service  *service.Service
	features *features.Manager
	log      *logger.Logger
	defaults validation.ListingDefaults
	now      func() time.Time
}

// NewHandlerOptions holds options for creating a handler.
type NewHandlerOptions struct {
	Defaults validation.ListingDefaults
	Features *features.Manager
	Logger   *logger.Logger
	// Now is the clock used for the default date window.
	Now func() time.Time
}

// DefaultHandlerOptions returns default handler options.
func DefaultHandlerOptions() NewHandlerOptions {
	return NewHandlerOptions{
		Defaults: validation.ListingDefaults{
			Adults:     2,
			Children:   0,
			Offset:     0,
			Limit:      3,
			MaxLimit:   50,
			WindowDays: 7,
			Location:   time.UTC,
		},
		Logger: logger.NewNop(),
		Now:    time.Now,
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service) *Handler {
	return NewHandlerWithOptions(svc, DefaultHandlerOptions())
}

// NewHandlerWithOptions creates a new handler instance with custom options.
func NewHandlerWithOptions(svc *service.Service, opts NewHandlerOptions) *Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Handler{
		service:  svc,
		features: opts.Features,
		log:      opts.Logger,
		defaults: opts.Defaults,
		now:      opts.Now,
	}
}

// Routes mounts the API routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/offers/last-minute", h.ListLastMinuteOffers)
		r.Get("/offers/{checkinDate}/{villaId}", h.GetOffer)
		r.Get("/cache/offers", h.GetCachedOffers)
		r.Post("/cache/offers/refresh", h.RefreshCache)
	})
	r.Get("/health", h.Health)
}

// ListLastMinuteOffers handles GET /api/offers/last-minute
func (h *Handler) ListLastMinuteOffers(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ParseListingQuery(r.URL.Query(), h.now(), h.defaults)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	resp, err := h.service.ListLastMinuteOffers(r.Context(), q)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetOffer handles GET /api/offers/{checkinDate}/{villaId}
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	checkinDate := validation.SanitizeString(chi.URLParam(r, "checkinDate"))
	villaID := validation.SanitizeString(chi.URLParam(r, "villaId"))

	offer, err := h.service.GetOffer(r.Context(), checkinDate, villaID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.OfferResponse{Success: true, Data: *offer})
}

// GetCachedOffers handles GET /api/cache/offers
func (h *Handler) GetCachedOffers(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.Snapshot().Response())
}

// RefreshCache handles POST /api/cache/offers/refresh
func (h *Handler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	if !h.features.IsEnabled(features.FeatureManualCacheRefresh) {
		h.respondError(w, http.StatusNotFound, "not found")
		return
	}

	snap, err := h.service.RefreshSnapshot(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, snap.Response())
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// respondServiceError maps service and store errors onto HTTP statuses.
// Unclassified errors are logged and reported without detail.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.respondError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, database.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "offer not found")
	case errors.Is(err, database.ErrStoreUnavailable):
		h.log.Error("offer store unavailable", "path", r.URL.Path, "error", err)
		h.respondError(w, http.StatusServiceUnavailable, "offer store unavailable")
	case errors.Is(err, database.ErrTableMissing):
		h.log.Error("offer store table missing", "path", r.URL.Path, "error", err)
		h.respondError(w, http.StatusNotFound, "offer data not found")
	case errors.Is(err, database.ErrAccessDenied):
		h.log.Error("offer store access denied", "path", r.URL.Path, "error", err)
		h.respondError(w, http.StatusUnauthorized, "offer store access denied")
	default:
		h.log.Error("request failed", "path", r.URL.Path, "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Success: false, Error: message})
}
