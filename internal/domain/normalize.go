package domain

import "sort"

// RejectStats counts records excluded or repaired during normalization.
// Diagnostics only; rejects are never surfaced to the UI.
type RejectStats struct {
	MissingID       int
	OutOfRegion     int
	Excluded        int // expired or too-far-future
	GeometryCleared int // malformed geometry nulled, record kept
}

// Normalizer merges candidate records into canonical Incidents. It never
// panics or fails wholesale: a single malformed record is skipped and
// counted while the remainder proceeds.
type Normalizer struct {
	region     BoundingBox
	classifier *Classifier
}

// NewNormalizer creates a Normalizer bound to a region and classifier.
func NewNormalizer(region BoundingBox, classifier *Classifier) *Normalizer {
	return &Normalizer{region: region, classifier: classifier}
}

// Normalize validates, classifies, and converts candidates. Output is sorted
// by ID so identical inputs under an identical clock produce identical
// output, independent of adapter completion order.
func (n *Normalizer) Normalize(candidates []Candidate) ([]Incident, RejectStats) {
	var stats RejectStats
	incidents := make([]Incident, 0, len(candidates))

	for _, c := range candidates {
		if c.Source == "" || c.LocalID == "" {
			stats.MissingID++
			continue
		}
		if !n.region.Contains(c.Location) {
			stats.OutOfRegion++
			continue
		}

		status, ok := n.classifier.Classify(c.Window, c.Class)
		if !ok {
			stats.Excluded++
			continue
		}

		geom := c.Geometry
		if geom != nil && !wellFormed(geom) {
			geom = nil
			stats.GeometryCleared++
		}

		incidents = append(incidents, Incident{
			ID:          c.Source + "-" + c.LocalID,
			Type:        c.Type,
			Severity:    DeriveSeverity(c.Type, c.FeedSeverity),
			Location:    c.Location,
			Geometry:    geom,
			TimeWindow:  c.Window,
			Status:      status,
			RoadName:    c.RoadName,
			Description: c.Description,
			Source:      c.Source,
		})
	}

	sort.Slice(incidents, func(i, j int) bool { return incidents[i].ID < incidents[j].ID })
	return incidents, stats
}

// wellFormed reports whether a geometry has enough points to render:
// a LineString needs at least 2, a Polygon ring at least 3.
func wellFormed(g *Geometry) bool {
	switch g.Kind {
	case GeometryLineString:
		return len(g.Points) >= 2
	case GeometryPolygon:
		return len(g.Points) >= 3
	default:
		return false
	}
}
