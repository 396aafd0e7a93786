// Package domain models road-condition and hazard data reconciled from
// multiple government feeds.
//
// # Data Sources
//
// Three structurally incompatible feeds contribute records:
//
//   - A 511-style XML event feed publishing <incident> and <laneClosure>
//     elements. Coordinates are integer micro-degrees ("44123456" means
//     44.123456°). Severity is a Low|Medium|High vocabulary. Route geometry,
//     when present, is a startLocation, ordered midpoints, and an
//     endLocation.
//   - A USGS-style instantaneous-values JSON feed of stream gauges. A gauge
//     contributes a FLOODING record only while its latest reading is at or
//     above flood stage and recent enough to trust.
//   - Optional vendor GeoJSON feature feeds (construction projects, traffic
//     advisories) with vendor-specific property names.
//
// Each adapter maps its feed's vocabulary onto the canonical [IncidentType]
// and [Severity] enums and emits [Candidate] records; [Normalizer] merges
// candidates into validated [Incident] values.
//
// # ID Generation
//
// Incident IDs are namespaced by source: "<source>-<sourceLocalId>". The
// same real-world event reported by two sources keeps two IDs; deduplication
// is out of scope.
//
// # Severity
//
// Canonical severity is a coarseness bucket used for zoom-based culling,
// distinct from feed-reported severity text. It is derived once during
// normalization as the maximum of the mapped feed word and a per-type floor:
//
//	CLOSURE  → CRITICAL
//	ACCIDENT → MAJOR
//	FLOODING → MAJOR
//	CONSTRUCTION → MODERATE
//	otherwise → MINOR
//
// A feed can escalate severity above the floor but never demote a closure
// below CRITICAL.
//
// # Temporal Classification
//
// Status (UPCOMING, ACTIVE, ENDING) is derived from the record's time window
// against an injected clock. Records past their grace window or beyond the
// look-ahead horizon are dropped outright — expiry is a filter, not a
// display state. Look-ahead and grace are per source class because live
// incident feeds and planned construction feeds have very different
// reporting latency. [Classifier] is the only component that reads "now".
package domain
