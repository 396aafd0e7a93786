package geofeed

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mudseason/road-hazard-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGetter struct {
	payload []byte
	err     error
}

func (s *stubGetter) Get(_ context.Context, _ string) ([]byte, error) {
	return s.payload, s.err
}

var testProps = PropertyMap{
	ID:          "project_id",
	Name:        "project_name",
	Description: "details",
	RoadName:    "route",
	StartDate:   "start_date",
	EndDate:     "end_date",
}

func newTestAdapter(payload string) *Adapter {
	return New(
		"http://vendor/projects.json",
		"vtransprojects",
		domain.TypeConstruction,
		domain.ClassPlanned,
		testProps,
		&stubGetter{payload: []byte(payload)},
		slog.Default(),
	)
}

func TestFetch_PointFeature(t *testing.T) {
	payload := `{"type":"FeatureCollection","features":[{
		"properties": {
			"project_id": "P-100",
			"project_name": "Exit 8 interchange",
			"details": "Bridge deck replacement",
			"route": "I-89",
			"start_date": "2025-11-01",
			"end_date": "2025-11-20"
		},
		"geometry": {"type": "Point", "coordinates": [-72.58, 44.26]}
	}]}`

	candidates, err := newTestAdapter(payload).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "vtransprojects", c.Source)
	assert.Equal(t, "P-100", c.LocalID)
	assert.Equal(t, domain.TypeConstruction, c.Type)
	assert.Equal(t, domain.ClassPlanned, c.Class)
	assert.Equal(t, domain.LatLng{Lat: 44.26, Lng: -72.58}, c.Location)
	assert.Equal(t, "I-89", c.RoadName)
	assert.Equal(t, "Bridge deck replacement", c.Description)
	require.NotNil(t, c.Window.Start)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), *c.Window.Start)
	require.NotNil(t, c.Window.End)
	assert.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), *c.Window.End)
}

func TestFetch_LineStringMidpoint(t *testing.T) {
	payload := `{"features":[{
		"properties": {"project_id": "P-101"},
		"geometry": {"type": "LineString", "coordinates": [[-72.0,44.0],[-72.1,44.1],[-72.2,44.2],[-72.3,44.3],[-72.4,44.4]]}
	}]}`

	candidates, err := newTestAdapter(payload).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, domain.LatLng{Lat: 44.2, Lng: -72.2}, candidates[0].Location)
}

func TestFetch_PolygonFirstRingMidpoint(t *testing.T) {
	payload := `{"features":[{
		"properties": {"project_id": "P-102"},
		"geometry": {"type": "Polygon", "coordinates": [[[-72.0,44.0],[-72.1,44.0],[-72.1,44.1],[-72.0,44.1],[-72.0,44.0]]]}
	}]}`

	candidates, err := newTestAdapter(payload).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, domain.LatLng{Lat: 44.1, Lng: -72.1}, candidates[0].Location)
}

func TestFetch_UnsupportedGeometrySkipped(t *testing.T) {
	payload := `{"features":[
		{"properties": {"project_id": "P-103"}, "geometry": {"type": "GeometryCollection"}},
		{"properties": {"project_id": "P-104"}, "geometry": {"type": "Point", "coordinates": [-72.5, 44.5]}}
	]}`

	candidates, err := newTestAdapter(payload).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "P-104", candidates[0].LocalID)
}

func TestFetch_MalformedCoordinatesSkipped(t *testing.T) {
	payload := `{"features":[
		{"properties": {"project_id": "P-105"}, "geometry": {"type": "Point", "coordinates": "nope"}},
		{"properties": {"project_id": "P-106"}, "geometry": {"type": "LineString", "coordinates": []}}
	]}`

	candidates, err := newTestAdapter(payload).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFetch_NameFallsBackAsID(t *testing.T) {
	payload := `{"features":[{
		"properties": {"project_name": "Scenic overlook repair"},
		"geometry": {"type": "Point", "coordinates": [-72.5, 44.5]}
	}]}`

	candidates, err := newTestAdapter(payload).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Scenic overlook repair", candidates[0].LocalID)
	assert.Equal(t, "Scenic overlook repair", candidates[0].Description)
}

func TestFetch_NumericID(t *testing.T) {
	payload := `{"features":[{
		"properties": {"project_id": 4711},
		"geometry": {"type": "Point", "coordinates": [-72.5, 44.5]}
	}]}`

	candidates, err := newTestAdapter(payload).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "4711", candidates[0].LocalID)
}

func TestFetch_MalformedJSON(t *testing.T) {
	_, err := newTestAdapter("[{").Fetch(context.Background())
	assert.Error(t, err)
}
