// Package render owns the live set of map markers and the single detail
// popup. It reconciles pipeline snapshots against the map on every data or
// zoom change and guarantees listener and DOM cleanup.
package render

import "github.com/mudseason/road-hazard-service/internal/domain"

// Handles are opaque tokens minted by the map engine; the render layer only
// stores and returns them.
type (
	MarkerHandle any
	PopupHandle  any
	Element      any
)

// Engine is the external map collaborator. Implementations bridge to the
// actual rendering surface (a browser map via websocket, a test fake). All
// calls happen on the render layer's lock; implementations must not call
// back into the render layer.
type Engine interface {
	// Ready reports whether the map can accept mutations. When false the
	// render layer skips the whole step and retries on the next event.
	Ready() bool

	// NewMarkerElement builds the marker's DOM element for an incident.
	NewMarkerElement(incident domain.Incident) Element

	// AddMarker places an element on the map at a coordinate.
	AddMarker(at domain.LatLng, el Element) (MarkerHandle, error)

	// RemoveMarker removes a previously added marker.
	RemoveMarker(h MarkerHandle)

	// Bind attaches the element's click handler; Unbind detaches it.
	// Every bound element is unbound exactly once before removal.
	Bind(el Element, onClick func())
	Unbind(el Element)

	// OpenPopup opens a detail popup; ClosePopup tears it down.
	OpenPopup(at domain.LatLng, html string) (PopupHandle, error)
	ClosePopup(h PopupHandle)
}
