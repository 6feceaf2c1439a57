package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"villa-offers-api/internal/assembler"
	"villa-offers-api/internal/events"
	"villa-offers-api/internal/logger"
	"villa-offers-api/internal/metrics"
	"villa-offers-api/internal/models"
)

// Snapshot is an immutable point-in-time copy of all future offers. Records
// must not be modified once the snapshot is published.
type Snapshot struct {
	Version         string
	LastRefreshedAt *time.Time
	Records         []models.EnrichedOffer
}

// Count returns the number of records.
func (s *Snapshot) Count() int {
	return len(s.Records)
}

// Response renders the snapshot for the cache read endpoint.
func (s *Snapshot) Response() models.CacheResponse {
	return models.CacheResponse{
		Success:         true,
		Version:         s.Version,
		LastRefreshedAt: s.LastRefreshedAt,
		Count:           len(s.Records),
		Data:            s.Records,
	}
}

var emptySnapshot = &Snapshot{Records: []models.EnrichedOffer{}}

// Loader reads every offer checking in on or after today (YYYY-MM-DD).
type Loader interface {
	LoadFutureOffers(ctx context.Context, today string) ([]models.OfferRow, error)
}

// Manager owns the process-wide offer snapshot. Readers get whichever snapshot
// was last published; Refresh builds a complete replacement and swaps the
// pointer once.
type Manager struct {
	current   atomic.Pointer[Snapshot]
	refreshMu sync.Mutex

	loader    Loader
	assembler *assembler.Assembler
	events    *events.Manager
	log       *logger.Logger
	location  *time.Location
	now       func() time.Time
}

// ManagerOptions configures a Manager. Now defaults to time.Now and Location to UTC.
type ManagerOptions struct {
	Events   *events.Manager
	Location *time.Location
	Now      func() time.Time
}

func NewManager(loader Loader, asm *assembler.Assembler, log *logger.Logger, opts ManagerOptions) *Manager {
	m := &Manager{
		loader:    loader,
		assembler: asm,
		events:    opts.Events,
		log:       log,
		location:  opts.Location,
		now:       opts.Now,
	}
	if m.location == nil {
		m.location = time.UTC
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.current.Store(emptySnapshot)
	return m
}

// Snapshot returns the current snapshot. Never nil.
func (m *Manager) Snapshot() *Snapshot {
	return m.current.Load()
}

// Refresh loads all future offers and publishes them as a new snapshot. On
// failure the previous snapshot stays in place.
func (m *Manager) Refresh(ctx context.Context) (*Snapshot, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	now := m.now()
	today := now.In(m.location).Format(models.DateLayout)

	rows, err := m.loader.LoadFutureOffers(ctx, today)
	if err != nil {
		metrics.SnapshotRefreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load offer snapshot: %w", err)
	}

	refreshedAt := now.UTC()
	next := &Snapshot{
		Version:         uuid.NewString(),
		LastRefreshedAt: &refreshedAt,
		Records:         m.assembler.Assemble(rows),
	}
	m.current.Store(next)

	metrics.SnapshotRefreshes.WithLabelValues("ok").Inc()
	metrics.SnapshotRecords.Set(float64(next.Count()))
	m.log.Info("offer snapshot refreshed", "version", next.Version, "records", next.Count(), "from", today)
	if m.events != nil {
		m.events.PublishSnapshotRefreshed(ctx, next.Version, next.Count(), refreshedAt)
	}

	return next, nil
}

// Warm performs the startup load. A failure is logged and the empty snapshot is
// kept so the process can still serve.
func (m *Manager) Warm(ctx context.Context) {
	if _, err := m.Refresh(ctx); err != nil {
		m.log.Error("initial offer snapshot load failed, serving empty cache", "error", err)
	}
}
