package domain

import "time"

// IncidentType is the canonical hazard category.
type IncidentType string

const (
	TypeAccident     IncidentType = "ACCIDENT"
	TypeConstruction IncidentType = "CONSTRUCTION"
	TypeClosure      IncidentType = "CLOSURE"
	TypeFlooding     IncidentType = "FLOODING"
	TypeHazard       IncidentType = "HAZARD"
)

// Severity is the coarseness bucket used for zoom-based culling.
type Severity string

const (
	SeverityMinor    Severity = "MINOR"
	SeverityModerate Severity = "MODERATE"
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
)

// Status is the temporal activity state of an incident. There is no EXPIRED
// status: expired records are dropped during normalization, never stored.
type Status string

const (
	StatusUpcoming Status = "UPCOMING"
	StatusActive   Status = "ACTIVE"
	StatusEnding   Status = "ENDING"
)

// SourceClass distinguishes live-traffic feeds from scheduled-work feeds for
// temporal classification.
type SourceClass string

const (
	ClassLive    SourceClass = "live"
	ClassPlanned SourceClass = "planned"
)

// LatLng is a WGS-84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeometryKind names the supported route/area geometry types.
type GeometryKind string

const (
	GeometryLineString GeometryKind = "LineString"
	GeometryPolygon    GeometryKind = "Polygon"
)

// Geometry is an optional route or area attached to an incident. Absence
// means point rendering only.
type Geometry struct {
	Kind   GeometryKind `json:"kind"`
	Points []LatLng     `json:"points"`
}

// TimeWindow holds the reported start/end of an incident. Most feeds omit
// one or both.
type TimeWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Incident is the canonical, source-agnostic record consumed by the
// rendering layer. Immutable once constructed; every Incident emitted by the
// pipeline has an in-region Location and a non-expired Status.
type Incident struct {
	ID          string       `json:"id"`
	Type        IncidentType `json:"type"`
	Severity    Severity     `json:"severity"`
	Location    LatLng       `json:"location"`
	Geometry    *Geometry    `json:"geometry,omitempty"`
	TimeWindow  TimeWindow   `json:"time_window"`
	Status      Status       `json:"status"`
	RoadName    string       `json:"road_name,omitempty"`
	Description string       `json:"description,omitempty"`
	Source      string       `json:"source"`
}

// Candidate is the adapter-common record shape before normalization. Adapters
// have already mapped their feed vocabulary onto the canonical enums; the
// normalizer still owns validation, severity derivation, and classification.
type Candidate struct {
	Source       string
	LocalID      string
	Type         IncidentType
	FeedSeverity Severity // zero value when the feed reports no severity
	Location     LatLng
	Geometry     *Geometry
	Window       TimeWindow
	RoadName     string
	Description  string
	Class        SourceClass
}

// BoundingBox is the configured region; incidents outside it are rejected.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether p lies inside the box, bounds inclusive.
func (b BoundingBox) Contains(p LatLng) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}
