package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"villa-offers-api/internal/assembler"
	"villa-offers-api/internal/cache"
	"villa-offers-api/internal/database"
	"villa-offers-api/internal/events"
	"villa-offers-api/internal/features"
	"villa-offers-api/internal/logger"
	"villa-offers-api/internal/metrics"
	"villa-offers-api/internal/models"
	"villa-offers-api/internal/ranking"
	"villa-offers-api/internal/tracing"
	"villa-offers-api/internal/validation"
)

// Store is the read-only view of the offer store the listing needs.
type Store interface {
	SelectLocalChampions(ctx context.Context, q models.ChampionQuery) ([]models.ChampionKey, error)
	ExpandOffers(ctx context.Context, keys []models.ChampionKey, adults, children int) ([]models.OfferRow, error)
	GetOffer(ctx context.Context, checkinDate, villaID string) (*models.Offer, error)
}

// Options configures a Service. Zero values fall back to the listing defaults.
type Options struct {
	DefaultLimit    int
	MaxLimit        int
	ListingCache    cache.Cache
	ListingCacheTTL time.Duration
	Features        *features.Manager
	Events          *events.Manager
}

// Service runs the last-minute listing pipeline: champion selection, paging,
// expansion and assembly.
type Service struct {
	store     Store
	assembler *assembler.Assembler
	snapshots *cache.Manager
	log       *logger.Logger
	opts      Options
}

// NewService creates a new service instance.
func NewService(store Store, asm *assembler.Assembler, snapshots *cache.Manager, log *logger.Logger, opts Options) *Service {
	if opts.DefaultLimit < 1 {
		opts.DefaultLimit = 3
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = 50
	}
	return &Service{
		store:     store,
		assembler: asm,
		snapshots: snapshots,
		log:       log,
		opts:      opts,
	}
}

// ListLastMinuteOffers returns the page of offers for q. Slots are chosen by
// their best offer's score, then every night variant of the chosen slots is
// returned, ordered by score across the whole page.
func (s *Service) ListLastMinuteOffers(ctx context.Context, q models.ListingQuery) (resp models.ListingResponse, err error) {
	start := time.Now()
	fromCache := false
	defer func() {
		label := outcome(err)
		if fromCache {
			label = "cached"
		}
		metrics.ListingLatency.Observe(time.Since(start).Seconds())
		metrics.ListingRequests.WithLabelValues(label).Inc()
	}()

	q.Limit = ranking.ClampLimit(q.Limit, s.opts.DefaultLimit, s.opts.MaxLimit)
	if q.Offset < 0 {
		q.Offset = 0
	}
	if err := validation.ValidateListingQuery(q); err != nil {
		return models.ListingResponse{}, err
	}

	ctx, span := tracing.StartSpan(ctx, "listing.last_minute",
		attribute.String("listing.start_date", q.StartDate),
		attribute.String("listing.end_date", q.EndDate),
		attribute.Int("listing.adults", q.Adults),
		attribute.Int("listing.children", q.Children),
		attribute.Int("listing.offset", q.Offset),
		attribute.Int("listing.limit", q.Limit),
	)
	defer func() { tracing.EndSpan(span, err) }()

	if cached, ok := s.cachedListing(ctx, q); ok {
		fromCache = true
		return cached, nil
	}

	champions, err := s.selectChampions(ctx, q)
	if err != nil {
		return models.ListingResponse{}, err
	}
	metrics.ChampionSlots.Observe(float64(len(champions)))

	page := ranking.Paginate(champions, q.Offset, q.Limit)

	rows, err := s.expand(ctx, page.Keys, q.Adults, q.Children)
	if err != nil {
		return models.ListingResponse{}, err
	}

	data := s.assembler.Assemble(rows)
	resp = models.ListingResponse{
		Success: true,
		Count:   len(data),
		Data:    data,
		Pagination: models.Pagination{
			Offset:         q.Offset,
			Limit:          q.Limit,
			HasMore:        page.HasMore,
			TotalAvailable: page.TotalAvailable,
		},
		QueryParams: q,
	}

	s.storeListing(ctx, q, resp)
	s.opts.Events.PublishListingServed(ctx, events.ListingServedData{
		StartDate:      q.StartDate,
		EndDate:        q.EndDate,
		Adults:         q.Adults,
		Children:       q.Children,
		Offset:         q.Offset,
		Returned:       resp.Count,
		TotalAvailable: page.TotalAvailable,
	})

	return resp, nil
}

func (s *Service) selectChampions(ctx context.Context, q models.ListingQuery) (champions []models.ChampionKey, err error) {
	ctx, span := tracing.StartSpan(ctx, "listing.select_champions")
	defer func() { tracing.EndSpan(span, err) }()

	champions, err = s.store.SelectLocalChampions(ctx, models.ChampionQuery{
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Adults:    q.Adults,
		Children:  q.Children,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select champions: %w", err)
	}
	span.SetAttributes(attribute.Int("listing.champions", len(champions)))
	return champions, nil
}

func (s *Service) expand(ctx context.Context, keys []models.ChampionKey, adults, children int) (rows []models.OfferRow, err error) {
	if len(keys) == 0 {
		return []models.OfferRow{}, nil
	}

	ctx, span := tracing.StartSpan(ctx, "listing.expand_offers", attribute.Int("listing.slots", len(keys)))
	defer func() { tracing.EndSpan(span, err) }()

	rows, err = s.store.ExpandOffers(ctx, keys, adults, children)
	if err != nil {
		return nil, fmt.Errorf("failed to expand offers: %w", err)
	}
	return rows, nil
}

func (s *Service) listingCacheActive() bool {
	return s.opts.ListingCache != nil && s.opts.ListingCacheTTL > 0 &&
		s.opts.Features.IsEnabled(features.FeatureListingCache)
}

func (s *Service) cachedListing(ctx context.Context, q models.ListingQuery) (models.ListingResponse, bool) {
	if !s.listingCacheActive() {
		return models.ListingResponse{}, false
	}

	var resp models.ListingResponse
	err := cache.GetJSON(ctx, s.opts.ListingCache, cache.ListingKey(q), &resp)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.log.Warn("listing cache read failed", "error", err)
		}
		return models.ListingResponse{}, false
	}

	s.opts.Events.PublishListingServed(ctx, events.ListingServedData{
		StartDate:      q.StartDate,
		EndDate:        q.EndDate,
		Adults:         q.Adults,
		Children:       q.Children,
		Offset:         q.Offset,
		Returned:       resp.Count,
		TotalAvailable: resp.Pagination.TotalAvailable,
		FromCache:      true,
	})
	return resp, true
}

func (s *Service) storeListing(ctx context.Context, q models.ListingQuery, resp models.ListingResponse) {
	if !s.listingCacheActive() {
		return
	}
	if err := cache.SetJSON(ctx, s.opts.ListingCache, cache.ListingKey(q), resp, s.opts.ListingCacheTTL); err != nil {
		s.log.Warn("listing cache write failed", "error", err)
	}
}

// GetOffer returns the raw offer row for a check-in date and villa.
func (s *Service) GetOffer(ctx context.Context, checkinDate, villaID string) (*models.Offer, error) {
	if err := validation.ValidateDate(checkinDate, "checkinDate"); err != nil {
		return nil, err
	}
	if err := validation.ValidateVillaID(villaID, "villaId"); err != nil {
		return nil, err
	}

	offer, err := s.store.GetOffer(ctx, checkinDate, villaID)
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// Snapshot returns the current offer cache snapshot.
func (s *Service) Snapshot() *cache.Snapshot {
	return s.snapshots.Snapshot()
}

// RefreshSnapshot rebuilds the offer cache snapshot and drops cached listings.
func (s *Service) RefreshSnapshot(ctx context.Context) (*cache.Snapshot, error) {
	snap, err := s.snapshots.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if s.opts.ListingCache != nil {
		if err := s.opts.ListingCache.Clear(ctx); err != nil {
			s.log.Warn("listing cache clear failed", "error", err)
		}
	}
	return snap, nil
}

func outcome(err error) string {
	var vErr *validation.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &vErr):
		return "invalid"
	case errors.Is(err, database.ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, database.ErrTableMissing):
		return "table_missing"
	case errors.Is(err, database.ErrAccessDenied):
		return "access_denied"
	}
	return "error"
}
