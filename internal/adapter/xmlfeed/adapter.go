// Package xmlfeed adapts the 511-style XML incident/closure feed to
// candidate records.
package xmlfeed

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mudseason/road-hazard-service/internal/adapter/fetch"
	"github.com/mudseason/road-hazard-service/internal/domain"
)

const sourceName = "vt511"

// typeVocab maps the feed's event type vocabulary to canonical types.
// Anything unrecognized falls back to HAZARD.
var typeVocab = map[string]domain.IncidentType{
	"accidentsAndIncidents": domain.TypeAccident,
	"accident":              domain.TypeAccident,
	"roadwork":              domain.TypeConstruction,
	"construction":          domain.TypeConstruction,
	"closures":              domain.TypeClosure,
	"closure":               domain.TypeClosure,
	"flooding":              domain.TypeFlooding,
}

// severityVocab maps the feed's Low|Medium|High words to canonical
// severities. Anything unrecognized falls back to MINOR.
var severityVocab = map[string]domain.Severity{
	"low":    domain.SeverityMinor,
	"medium": domain.SeverityModerate,
	"high":   domain.SeverityMajor,
}

// timestampLayouts covers the formats observed in the feed.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Adapter fetches and decodes the XML event feed.
type Adapter struct {
	url    string
	client fetch.Getter
	logger *slog.Logger
}

// New creates an XML feed adapter.
func New(url string, client fetch.Getter, logger *slog.Logger) *Adapter {
	return &Adapter{url: url, client: client, logger: logger}
}

// Name identifies the adapter in logs and metrics and namespaces its IDs.
func (a *Adapter) Name() string { return sourceName }

// Fetch retrieves the feed and converts every decodable event. A record
// with no resolvable start coordinates is dropped silently; a payload that
// fails to decode is an error for the whole source.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	body, err := a.client.Get(ctx, a.url)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode xml feed: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(doc.Incidents)+len(doc.LaneClosures))
	for _, ev := range doc.Incidents {
		if c, ok := a.convert(ev, domain.ClassLive, domain.TypeHazard); ok {
			candidates = append(candidates, c)
		}
	}
	for _, ev := range doc.LaneClosures {
		if c, ok := a.convert(ev, domain.ClassPlanned, domain.TypeClosure); ok {
			candidates = append(candidates, c)
		}
	}

	a.logger.Debug("xml feed fetched",
		"incidents", len(doc.Incidents),
		"lane_closures", len(doc.LaneClosures),
		"candidates", len(candidates),
	)
	return candidates, nil
}

// convert maps one XML event element to a candidate. fallbackType is used
// when the type attribute is missing or unrecognized: HAZARD for incidents,
// CLOSURE for laneClosure elements.
func (a *Adapter) convert(ev event, class domain.SourceClass, fallbackType domain.IncidentType) (domain.Candidate, bool) {
	if ev.Start == nil || (ev.Start.Lat == 0 && ev.Start.Lon == 0) {
		return domain.Candidate{}, false
	}

	typ, ok := typeVocab[ev.Type]
	if !ok {
		typ = fallbackType
	}
	sev, ok := severityVocab[strings.ToLower(strings.TrimSpace(ev.Severity))]
	if !ok {
		sev = domain.SeverityMinor
	}

	localID := ev.SourceID
	if localID == "" {
		localID = ev.CreatedTimestamp
	}

	var window domain.TimeWindow
	if ts, err := parseTimestamp(ev.CreatedTimestamp); err == nil {
		window.Start = &ts
	}

	return domain.Candidate{
		Source:       sourceName,
		LocalID:      localID,
		Type:         typ,
		FeedSeverity: sev,
		Location:     microDegrees(ev.Start.Lat, ev.Start.Lon),
		Geometry:     routeGeometry(ev),
		Window:       window,
		RoadName:     ev.Start.Roadway,
		Description:  describe(ev),
		Class:        class,
	}, true
}

// routeGeometry builds a LineString from start, ordered midpoints, and end.
// Returns nil when the event has no route beyond its start point.
func routeGeometry(ev event) *domain.Geometry {
	if ev.End == nil && len(ev.Midpoints) == 0 {
		return nil
	}

	mids := make([]point, len(ev.Midpoints))
	copy(mids, ev.Midpoints)
	sort.Slice(mids, func(i, j int) bool { return mids[i].Order < mids[j].Order })

	points := make([]domain.LatLng, 0, len(mids)+2)
	points = append(points, microDegrees(ev.Start.Lat, ev.Start.Lon))
	for _, m := range mids {
		points = append(points, microDegrees(m.Lat, m.Lon))
	}
	if ev.End != nil && (ev.End.Lat != 0 || ev.End.Lon != 0) {
		points = append(points, microDegrees(ev.End.Lat, ev.End.Lon))
	}
	return &domain.Geometry{Kind: domain.GeometryLineString, Points: points}
}

// describe folds lane and restriction details into the description text.
func describe(ev event) string {
	parts := make([]string, 0, 3)
	if d := strings.TrimSpace(ev.Desc); d != "" {
		parts = append(parts, d)
	}
	if l := strings.TrimSpace(ev.AffectedLanes); l != "" {
		parts = append(parts, l)
	}
	if ev.Restrictions != nil {
		if w := strings.TrimSpace(ev.Restrictions.Weight); w != "" {
			parts = append(parts, "Weight limit "+w)
		}
		if w := strings.TrimSpace(ev.Restrictions.Width); w != "" {
			parts = append(parts, "Width limit "+w)
		}
	}
	return strings.Join(parts, "; ")
}

// microDegrees converts integer micro-degree coordinates to decimal degrees.
func microDegrees(lat, lon int64) domain.LatLng {
	return domain.LatLng{
		Lat: float64(lat) / 1_000_000,
		Lng: float64(lon) / 1_000_000,
	}
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
