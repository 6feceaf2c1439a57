package features

import (
	"sort"
	"sync"
)

// FeatureFlag represents a feature flag configuration.
type FeatureFlag struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// Manager manages feature flags.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]*FeatureFlag
}

// NewManager creates a new feature flag manager.
func NewManager() *Manager {
	return &Manager{
		flags: make(map[string]*FeatureFlag),
	}
}

// Register registers a new feature flag.
func (m *Manager) Register(name string, enabled bool, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flags[name] = &FeatureFlag{
		Name:        name,
		Enabled:     enabled,
		Description: description,
	}
}

// IsEnabled checks if a feature flag is enabled. Unknown flags are disabled,
// and so is every flag on a nil manager.
func (m *Manager) IsEnabled(name string) bool {
	if m == nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[name]
	if !exists {
		return false
	}

	return flag.Enabled
}

// GetAll returns copies of all feature flags sorted by name.
func (m *Manager) GetAll() []FeatureFlag {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]FeatureFlag, 0, len(m.flags))
	for _, v := range m.flags {
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Predefined feature flag names
const (
	// FeatureListingCache serves repeated listing queries from the response cache
	FeatureListingCache = "listing_cache"
	// FeatureManualCacheRefresh exposes the snapshot refresh endpoint
	FeatureManualCacheRefresh = "manual_cache_refresh"
	// FeatureScheduledCacheRefresh rebuilds the snapshot on the configured cron
	FeatureScheduledCacheRefresh = "scheduled_cache_refresh"
	// FeatureEventHooks enables event subscribers
	FeatureEventHooks = "event_hooks"
)
