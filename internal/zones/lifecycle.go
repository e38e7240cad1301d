package zones

import "smc-trading-bot/internal/market"

// Manager owns the live zone set. Detectors only append; all aging,
// invalidation, and removal happens here. Zone IDs are sequential so a
// replayed bar sequence produces identical IDs.
type Manager struct {
	zones    []*Zone
	maxAge   int // bars a zone may live before expiring
	maxZones int // cap on concurrently tracked zones, oldest dropped first
	nextID   int
}

// NewManager creates a zone lifecycle manager
func NewManager(maxAge, maxZones int) *Manager {
	if maxAge < 1 {
		maxAge = 100
	}
	if maxZones < 1 {
		maxZones = 40
	}
	return &Manager{maxAge: maxAge, maxZones: maxZones, nextID: 1}
}

// Add registers a detector-emitted zone, assigns its ID, and prunes the
// oldest active zone when the cap is exceeded. Returns the stored zone.
func (m *Manager) Add(z *Zone) *Zone {
	z.ID = m.nextID
	m.nextID++
	m.zones = append(m.zones, z)

	if active := m.countActive(); active > m.maxZones {
		for _, old := range m.zones {
			if old.Status == StatusActive {
				old.Status = StatusExpired
				break
			}
		}
	}
	return z
}

// Update runs the per-bar aging and invalidation pass over active zones.
// Zones flipped by a detector earlier in the same bar are already non-active
// and are skipped. Returns the zones expired and violated this pass.
func (m *Manager) Update(bar market.Bar, index int) (expired, violated []*Zone) {
	for _, z := range m.zones {
		if z.Status != StatusActive {
			continue
		}

		if index-z.BirthIndex > m.maxAge {
			z.Status = StatusExpired
			expired = append(expired, z)
			continue
		}

		if z.Direction == market.Bullish && bar.Close < z.Bottom {
			z.Status = StatusViolated
			violated = append(violated, z)
		} else if z.Direction == market.Bearish && bar.Close > z.Top {
			z.Status = StatusViolated
			violated = append(violated, z)
		}
	}
	return expired, violated
}

// Sweep removes non-active zones from the set. Called at end of bar so every
// consumer within the bar still sees zones that died during it.
func (m *Manager) Sweep() {
	kept := m.zones[:0]
	for _, z := range m.zones {
		if z.Status == StatusActive {
			kept = append(kept, z)
		}
	}
	// Clear trailing references so removed zones can be collected
	for i := len(kept); i < len(m.zones); i++ {
		m.zones[i] = nil
	}
	m.zones = kept
}

// Active returns the active zones in insertion order
func (m *Manager) Active() []*Zone {
	active := make([]*Zone, 0, len(m.zones))
	for _, z := range m.zones {
		if z.Status == StatusActive {
			active = append(active, z)
		}
	}
	return active
}

// ActiveOfKind returns active zones of one kind
func (m *Manager) ActiveOfKind(kind Kind) []*Zone {
	var out []*Zone
	for _, z := range m.zones {
		if z.Status == StatusActive && z.Kind == kind {
			out = append(out, z)
		}
	}
	return out
}

// Clear drops every zone. Called at daily reset.
func (m *Manager) Clear() {
	m.zones = nil
}

// Count returns the number of tracked zones
func (m *Manager) Count() int {
	return len(m.zones)
}

func (m *Manager) countActive() int {
	n := 0
	for _, z := range m.zones {
		if z.Status == StatusActive {
			n++
		}
	}
	return n
}
