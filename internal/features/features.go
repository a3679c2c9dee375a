// Package features holds runtime feature flags.
package features

import "sync"

// Flag names.
const (
	// FeatureRequireDeliveryHistory excludes buyers with no recorded
	// delivery history from winning auctions.
	FeatureRequireDeliveryHistory = "require_delivery_history"
	// FeatureCacheEnabled gates the resource listing cache.
	FeatureCacheEnabled = "cache_enabled"
	// FeatureEventHooksEnabled gates the asynchronous event hooks.
	FeatureEventHooksEnabled = "event_hooks_enabled"
)

// FeatureFlag is one named toggle.
type FeatureFlag struct {
	Name        string
	Enabled     bool
	Description string
}

// Manager holds feature flags. Flags are registered once at startup and
// handed to the components that consult them, rather than read as ambient
// global state.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]FeatureFlag
}

// NewManager creates an empty flag manager.
func NewManager() *Manager {
	return &Manager{flags: make(map[string]FeatureFlag)}
}

// Register adds a flag with its initial state.
func (m *Manager) Register(name string, enabled bool, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[name] = FeatureFlag{Name: name, Enabled: enabled, Description: description}
}

// IsEnabled reports whether a flag is on. Unknown flags are off.
func (m *Manager) IsEnabled(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[name].Enabled
}

// Enable turns a registered flag on.
func (m *Manager) Enable(name string) {
	m.setEnabled(name, true)
}

// Disable turns a registered flag off.
func (m *Manager) Disable(name string) {
	m.setEnabled(name, false)
}

func (m *Manager) setEnabled(name string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if flag, ok := m.flags[name]; ok {
		flag.Enabled = enabled
		m.flags[name] = flag
	}
}

// Snapshot returns a copy of every registered flag.
func (m *Manager) Snapshot() []FeatureFlag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FeatureFlag, 0, len(m.flags))
	for _, f := range m.flags {
		out = append(out, f)
	}
	return out
}
