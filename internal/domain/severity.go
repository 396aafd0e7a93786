package domain

// severityRank orders severities for comparison. Unknown values rank below
// MINOR so a garbled feed word can never escalate an incident.
var severityRank = map[Severity]int{
	SeverityMinor:    1,
	SeverityModerate: 2,
	SeverityMajor:    3,
	SeverityCritical: 4,
}

// typeSeverityFloor is the minimum severity implied by the incident type.
// A full road closure is always critical regardless of what the feed says.
var typeSeverityFloor = map[IncidentType]Severity{
	TypeClosure:      SeverityCritical,
	TypeAccident:     SeverityMajor,
	TypeFlooding:     SeverityMajor,
	TypeConstruction: SeverityModerate,
	TypeHazard:       SeverityMinor,
}

// DeriveSeverity computes the canonical severity for an incident: the
// maximum of the feed-reported severity (already mapped to the canonical
// enum, or empty) and the per-type floor. Derived once at normalization,
// never re-derived at filter time.
func DeriveSeverity(t IncidentType, feed Severity) Severity {
	floor, ok := typeSeverityFloor[t]
	if !ok {
		floor = SeverityMinor
	}
	if severityRank[feed] > severityRank[floor] {
		return feed
	}
	return floor
}

// Zoom thresholds for severity-based culling. CRITICAL incidents are always
// visible; everything else fades in as the map zooms toward street level.
const (
	majorMinZoom  = 8
	minorMinZoom  = 10
)

// Visible reports whether an incident of the given severity should render at
// the given zoom level. Pure function; the rendering layer calls it on every
// data or zoom change.
func Visible(s Severity, zoom float64) bool {
	switch s {
	case SeverityCritical:
		return true
	case SeverityMajor:
		return zoom >= majorMinZoom
	default:
		return zoom >= minorMinZoom
	}
}
