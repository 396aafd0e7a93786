package render

import (
	"log/slog"
	"testing"
	"time"

	"github.com/mudseason/road-hazard-service/internal/domain"
	"github.com/mudseason/road-hazard-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPopups(engine Engine) *PopupController {
	return NewPopupController(engine, slog.Default(), observability.NewMetricsForTesting())
}

func TestPopup_ToggleOpensAndCloses(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPopups(engine)
	inc := incident("a", domain.SeverityMajor)

	p.Toggle(inc)
	assert.Equal(t, "a", p.OpenID())
	assert.Equal(t, 1, engine.openPopupCount())

	// Clicking the same marker again closes it.
	p.Toggle(inc)
	assert.Empty(t, p.OpenID())
	assert.Zero(t, engine.openPopupCount())
}

func TestPopup_AtMostOneOpen(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPopups(engine)

	p.Toggle(incident("x", domain.SeverityMajor))
	require.Equal(t, "x", p.OpenID())

	p.Toggle(incident("y", domain.SeverityMajor))
	assert.Equal(t, "y", p.OpenID())
	assert.Equal(t, 1, engine.openPopupCount(), "prior popup closed before the new one shows")
	assert.Equal(t, 1, engine.popupsCut)
}

func TestPopup_CloseAll(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPopups(engine)

	// A no-op when nothing is open.
	p.CloseAll()
	assert.Zero(t, engine.popupsCut)

	p.Toggle(incident("a", domain.SeverityMajor))
	p.CloseAll()
	assert.Empty(t, p.OpenID())
	assert.Zero(t, engine.openPopupCount())
}

func TestPopup_CloseForOnlyMatchingID(t *testing.T) {
	engine := newFakeEngine()
	p := newTestPopups(engine)

	p.Toggle(incident("a", domain.SeverityMajor))

	p.CloseFor("b")
	assert.Equal(t, "a", p.OpenID())

	p.CloseFor("a")
	assert.Empty(t, p.OpenID())
}

func TestPopupHTML_EscapesAndFormats(t *testing.T) {
	start := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 4, 17, 0, 0, 0, time.UTC)
	inc := domain.Incident{
		ID:          "vt511-1",
		Type:        domain.TypeClosure,
		Severity:    domain.SeverityCritical,
		Status:      domain.StatusActive,
		RoadName:    "US-2",
		Description: "bridge out <script>alert(1)</script>",
		TimeWindow:  domain.TimeWindow{Start: &start, End: &end},
		Source:      "vt511",
	}

	html := popupHTML(inc)
	assert.Contains(t, html, "<h3>Road Closure</h3>")
	assert.Contains(t, html, "US-2")
	assert.Contains(t, html, "ACTIVE · CRITICAL")
	assert.Contains(t, html, "Nov 3 09:00 to Nov 4 17:00")
	assert.Contains(t, html, "&lt;script&gt;", "feed text must be escaped")
	assert.NotContains(t, html, "<script>")
}

func TestWindowText(t *testing.T) {
	start := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 4, 17, 0, 0, 0, time.UTC)

	assert.Equal(t, "Nov 3 09:00 to Nov 4 17:00", windowText(domain.TimeWindow{Start: &start, End: &end}))
	assert.Equal(t, "Since Nov 3 09:00", windowText(domain.TimeWindow{Start: &start}))
	assert.Equal(t, "Until Nov 4 17:00", windowText(domain.TimeWindow{End: &end}))
	assert.Empty(t, windowText(domain.TimeWindow{}))
}
