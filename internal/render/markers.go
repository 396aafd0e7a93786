package render

import (
	"log/slog"
	"sync"

	"github.com/mudseason/road-hazard-service/internal/domain"
	"github.com/mudseason/road-hazard-service/internal/observability"
)

// markerEntry binds an incident id to its live map resources. Owned
// exclusively by the Manager; destroyed entries are never reused. It holds
// only what cleanup needs, never the incident list.
type markerEntry struct {
	incidentID string
	handle     MarkerHandle
	element    Element
}

// Manager reconciles the rendered marker set against each new visible set.
// Per incident id the lifecycle is ABSENT, RENDERED, ABSENT: ids leaving the
// visible set are destroyed (unbind + remove), ids entering are created, ids
// present in both are left untouched so an unchanged marker never flickers.
type Manager struct {
	engine  Engine
	popups  *PopupController
	logger  *slog.Logger
	metrics *observability.Metrics

	mu        sync.Mutex
	rendered  map[string]*markerEntry
	incidents []domain.Incident
	zoom      float64
	closed    bool
}

// NewManager creates a Manager starting at the given zoom level.
func NewManager(engine Engine, popups *PopupController, zoom float64, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		engine:   engine,
		popups:   popups,
		logger:   logger,
		metrics:  metrics,
		rendered: make(map[string]*markerEntry),
		zoom:     zoom,
	}
}

// SetData installs a new incident snapshot and reconciles. Safe to call from
// the poller's tick goroutine.
func (m *Manager) SetData(incidents []domain.Incident) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incidents = incidents
	m.reconcileLocked()
}

// SetZoom records a zoom change and reconciles.
func (m *Manager) SetZoom(zoom float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zoom = zoom
	m.reconcileLocked()
}

// Close destroys every rendered marker and closes any open popup. The
// manager accepts no further work afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, entry := range m.rendered {
		m.destroyLocked(entry)
	}
	m.popups.CloseAll()
}

// RenderedIDs returns the ids currently on the map, for diagnostics.
func (m *Manager) RenderedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rendered))
	for id := range m.rendered {
		ids = append(ids, id)
	}
	return ids
}

// reconcileLocked diffs the rendered set against the currently visible set.
// A full diff by id each tick is deliberate: snapshots arrive as whole-list
// replacements, and the diff structurally prevents duplicate markers or
// leaked listeners when the same id reappears across ticks.
func (m *Manager) reconcileLocked() {
	if m.closed || !m.engine.Ready() {
		// Map not ready: skip the whole step, retried on the next data or
		// zoom event.
		return
	}

	visible := make(map[string]domain.Incident, len(m.incidents))
	for _, inc := range m.incidents {
		if domain.Visible(inc.Severity, m.zoom) {
			visible[inc.ID] = inc
		}
	}

	for id, entry := range m.rendered {
		if _, ok := visible[id]; !ok {
			m.destroyLocked(entry)
		}
	}
	for id, inc := range visible {
		if _, ok := m.rendered[id]; !ok {
			m.createLocked(inc)
		}
	}

	m.metrics.MarkersLive.Set(float64(len(m.rendered)))
}

func (m *Manager) createLocked(inc domain.Incident) {
	el := m.engine.NewMarkerElement(inc)
	// The click handler captures the incident by value, not the live list.
	m.engine.Bind(el, func() { m.popups.Toggle(inc) })

	handle, err := m.engine.AddMarker(inc.Location, el)
	if err != nil {
		m.engine.Unbind(el)
		m.logger.Warn("add marker failed", "incident_id", inc.ID, "error", err)
		return
	}

	m.rendered[inc.ID] = &markerEntry{incidentID: inc.ID, handle: handle, element: el}
	m.metrics.MarkersCreated.Inc()
}

func (m *Manager) destroyLocked(entry *markerEntry) {
	m.engine.Unbind(entry.element)
	m.engine.RemoveMarker(entry.handle)
	delete(m.rendered, entry.incidentID)
	m.metrics.MarkersDestroyed.Inc()
	// A popup anchored to a removed marker must not outlive it.
	m.popups.CloseFor(entry.incidentID)
}
