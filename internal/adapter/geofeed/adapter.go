// Package geofeed adapts vendor GeoJSON feature-collection feeds (planned
// construction projects, traffic advisories) to candidate records.
package geofeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mudseason/road-hazard-service/internal/adapter/fetch"
	"github.com/mudseason/road-hazard-service/internal/domain"
)

// PropertyMap names the vendor-specific property keys carrying each field.
// Empty keys disable that field.
type PropertyMap struct {
	ID          string
	Name        string
	Description string
	RoadName    string
	StartDate   string
	EndDate     string
}

// Adapter fetches one GeoJSON feature feed. Each configured vendor feed gets
// its own Adapter instance with its own source name, incident type, and
// property mapping.
type Adapter struct {
	url    string
	source string
	typ    domain.IncidentType
	class  domain.SourceClass
	props  PropertyMap
	client fetch.Getter
	logger *slog.Logger
}

// New creates a GeoJSON feed adapter.
func New(url, source string, typ domain.IncidentType, class domain.SourceClass, props PropertyMap, client fetch.Getter, logger *slog.Logger) *Adapter {
	return &Adapter{url: url, source: source, typ: typ, class: class, props: props, client: client, logger: logger}
}

// Name identifies the adapter in logs and metrics and namespaces its IDs.
func (a *Adapter) Name() string { return a.source }

// Fetch retrieves the feed and converts each feature with a resolvable
// representative coordinate. Features with unsupported or malformed
// geometry are skipped silently.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	body, err := a.client.Get(ctx, a.url)
	if err != nil {
		return nil, err
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decode geojson feed: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(fc.Features))
	for _, f := range fc.Features {
		if c, ok := a.convert(f); ok {
			candidates = append(candidates, c)
		}
	}

	a.logger.Debug("geojson feed fetched", "source", a.source, "features", len(fc.Features), "candidates", len(candidates))
	return candidates, nil
}

func (a *Adapter) convert(f feature) (domain.Candidate, bool) {
	loc, ok := representativeCoordinate(f.Geometry)
	if !ok {
		return domain.Candidate{}, false
	}

	localID := f.stringProp(a.props.ID)
	if localID == "" {
		localID = f.stringProp(a.props.Name)
	}

	desc := f.stringProp(a.props.Description)
	if name := f.stringProp(a.props.Name); name != "" && desc == "" {
		desc = name
	}

	return domain.Candidate{
		Source:      a.source,
		LocalID:     localID,
		Type:        a.typ,
		Location:    loc,
		Window:      domain.TimeWindow{Start: f.timeProp(a.props.StartDate), End: f.timeProp(a.props.EndDate)},
		RoadName:    f.stringProp(a.props.RoadName),
		Description: desc,
		Class:       a.class,
	}, true
}

// representativeCoordinate extracts a single marker coordinate from a
// GeoJSON geometry: a Point directly, the midpoint-index vertex of a
// LineString or MultiPoint, and the midpoint-index vertex of a Polygon's
// first ring. The approximation is intentional; markers do not need exact
// centroids.
func representativeCoordinate(g geometry) (domain.LatLng, bool) {
	switch g.Type {
	case "Point":
		var coord []float64
		if err := json.Unmarshal(g.Coordinates, &coord); err != nil || len(coord) < 2 {
			return domain.LatLng{}, false
		}
		return lngLat(coord), true

	case "LineString", "MultiPoint":
		var coords [][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) == 0 {
			return domain.LatLng{}, false
		}
		mid := coords[len(coords)/2]
		if len(mid) < 2 {
			return domain.LatLng{}, false
		}
		return lngLat(mid), true

	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil || len(rings) == 0 || len(rings[0]) == 0 {
			return domain.LatLng{}, false
		}
		ring := rings[0]
		mid := ring[len(ring)/2]
		if len(mid) < 2 {
			return domain.LatLng{}, false
		}
		return lngLat(mid), true

	default:
		return domain.LatLng{}, false
	}
}

// lngLat converts a GeoJSON [lng, lat] position to a LatLng.
func lngLat(coord []float64) domain.LatLng {
	return domain.LatLng{Lat: coord[1], Lng: coord[0]}
}

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties map[string]any `json:"properties"`
	Geometry   geometry       `json:"geometry"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func (f feature) stringProp(key string) string {
	if key == "" {
		return ""
	}
	v, ok := f.Properties[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// timeProp parses a date property as RFC3339 or plain date. Returns nil when
// absent or unparseable; classification treats missing times as ongoing.
func (f feature) timeProp(key string) *time.Time {
	s := f.stringProp(key)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
