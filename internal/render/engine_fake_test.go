package render

import (
	"fmt"
	"sync"

	"github.com/mudseason/road-hazard-service/internal/domain"
)

// fakeEngine records every map mutation so tests can assert on marker and
// popup lifecycles. Click handlers are kept so tests can simulate clicks.
type fakeEngine struct {
	mu       sync.Mutex
	ready    bool
	failAdd  bool
	nextID   int
	markers  map[MarkerHandle]domain.LatLng
	handlers map[Element]func()
	popups   map[PopupHandle]string

	added     int
	removed   int
	bound     int
	unbound   int
	popupsCut int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		ready:    true,
		markers:  make(map[MarkerHandle]domain.LatLng),
		handlers: make(map[Element]func()),
		popups:   make(map[PopupHandle]string),
	}
}

type fakeElement struct {
	incidentID string
}

func (f *fakeEngine) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeEngine) setReady(ready bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = ready
}

func (f *fakeEngine) NewMarkerElement(inc domain.Incident) Element {
	return &fakeElement{incidentID: inc.ID}
}

func (f *fakeEngine) AddMarker(at domain.LatLng, el Element) (MarkerHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdd {
		return nil, fmt.Errorf("map surface rejected marker")
	}
	f.nextID++
	h := fmt.Sprintf("marker-%d", f.nextID)
	f.markers[h] = at
	f.added++
	return h, nil
}

func (f *fakeEngine) RemoveMarker(h MarkerHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.markers, h)
	f.removed++
}

func (f *fakeEngine) Bind(el Element, onClick func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[el] = onClick
	f.bound++
}

func (f *fakeEngine) Unbind(el Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, el)
	f.unbound++
}

func (f *fakeEngine) OpenPopup(_ domain.LatLng, html string) (PopupHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	h := fmt.Sprintf("popup-%d", f.nextID)
	f.popups[h] = html
	return h, nil
}

func (f *fakeEngine) ClosePopup(h PopupHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.popups, h)
	f.popupsCut++
}

// click simulates a user click on the marker rendered for an incident id.
func (f *fakeEngine) click(incidentID string) bool {
	f.mu.Lock()
	var handler func()
	for el, h := range f.handlers {
		if fe, ok := el.(*fakeElement); ok && fe.incidentID == incidentID {
			handler = h
			break
		}
	}
	f.mu.Unlock()

	if handler == nil {
		return false
	}
	handler()
	return true
}

func (f *fakeEngine) openPopupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.popups)
}

func (f *fakeEngine) liveMarkerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.markers)
}

func (f *fakeEngine) liveHandlerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}
