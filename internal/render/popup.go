package render

import (
	"html/template"
	"log/slog"
	"strings"
	"sync"

	"github.com/mudseason/road-hazard-service/internal/domain"
	"github.com/mudseason/road-hazard-service/internal/observability"
)

// popupTmpl renders the detail popup body. Kept minimal; styling belongs to
// the map shell.
var popupTmpl = template.Must(template.New("popup").Parse(`<div class="incident-popup">
<h3>{{.Title}}</h3>
{{if .RoadName}}<p class="road">{{.RoadName}}</p>{{end}}
<p class="status">{{.Status}} · {{.Severity}}</p>
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .Window}}<p class="window">{{.Window}}</p>{{end}}
<p class="source">Source: {{.Source}}</p>
</div>`))

type popupData struct {
	Title       string
	RoadName    string
	Status      domain.Status
	Severity    domain.Severity
	Description string
	Window      string
	Source      string
}

// PopupController enforces at-most-one open detail popup. It is a two-state
// machine, CLOSED or OPEN(id): opening the same id toggles closed, opening a
// different id closes the prior popup before opening the new one so two are
// never open at once, even transiently.
type PopupController struct {
	engine  Engine
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	openID string
	handle PopupHandle
}

// NewPopupController creates a PopupController.
func NewPopupController(engine Engine, logger *slog.Logger, metrics *observability.Metrics) *PopupController {
	return &PopupController{engine: engine, logger: logger, metrics: metrics}
}

// Toggle handles a marker click: open the incident's popup, closing any
// other popup first, or close it when its marker is clicked again.
func (p *PopupController) Toggle(inc domain.Incident) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.openID == inc.ID {
		p.closeLocked()
		return
	}
	if p.openID != "" {
		p.closeLocked()
	}

	handle, err := p.engine.OpenPopup(inc.Location, popupHTML(inc))
	if err != nil {
		p.logger.Warn("open popup failed", "incident_id", inc.ID, "error", err)
		return
	}
	p.openID = inc.ID
	p.handle = handle
	p.metrics.PopupOpens.Inc()
}

// CloseAll closes whatever popup is open. Called on map background clicks
// and on teardown.
func (p *PopupController) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.openID != "" {
		p.closeLocked()
	}
}

// CloseFor closes the popup only if it belongs to the given incident.
func (p *PopupController) CloseFor(incidentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.openID == incidentID {
		p.closeLocked()
	}
}

// OpenID returns the id of the open popup, or "" when closed.
func (p *PopupController) OpenID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.openID
}

func (p *PopupController) closeLocked() {
	p.engine.ClosePopup(p.handle)
	p.openID = ""
	p.handle = nil
}

func popupHTML(inc domain.Incident) string {
	var sb strings.Builder
	err := popupTmpl.Execute(&sb, popupData{
		Title:       title(inc),
		RoadName:    inc.RoadName,
		Status:      inc.Status,
		Severity:    inc.Severity,
		Description: inc.Description,
		Window:      windowText(inc.TimeWindow),
		Source:      inc.Source,
	})
	if err != nil {
		// The template is static and the data plain values; execution
		// cannot realistically fail, but degrade to an empty body anyway.
		return ""
	}
	return sb.String()
}

func title(inc domain.Incident) string {
	switch inc.Type {
	case domain.TypeAccident:
		return "Accident"
	case domain.TypeConstruction:
		return "Construction"
	case domain.TypeClosure:
		return "Road Closure"
	case domain.TypeFlooding:
		return "Flooding"
	default:
		return "Hazard"
	}
}

func windowText(w domain.TimeWindow) string {
	const layout = "Jan 2 15:04"
	switch {
	case w.Start != nil && w.End != nil:
		return w.Start.Format(layout) + " to " + w.End.Format(layout)
	case w.Start != nil:
		return "Since " + w.Start.Format(layout)
	case w.End != nil:
		return "Until " + w.End.Format(layout)
	default:
		return ""
	}
}
