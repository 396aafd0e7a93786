// Package gauges adapts a USGS-style instantaneous-values stream gauge feed
// to candidate flood records.
package gauges

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mudseason/road-hazard-service/internal/adapter/fetch"
	"github.com/mudseason/road-hazard-service/internal/domain"
)

const sourceName = "gauges"

// Thresholds gates which gauge sites surface as flood hazards.
type Thresholds struct {
	// FloodStageFt is the minimum gauge height, in feet, for a site to
	// count as flooding.
	FloodStageFt float64
	// MaxReadingAge is how stale the latest reading may be before the site
	// is ignored. A gauge that stopped reporting is not evidence of
	// flooding.
	MaxReadingAge time.Duration
}

// Adapter fetches the gauge feed and emits a FLOODING candidate per site
// whose latest reading is both above flood stage and recent. Below-threshold
// or stale sites emit nothing; there is no inactive sentinel.
type Adapter struct {
	url        string
	client     fetch.Getter
	thresholds Thresholds
	clock      clockwork.Clock
	logger     *slog.Logger
}

// New creates a gauge adapter. The clock is injected so recency checks are
// deterministic under test; a nil clock falls back to the real clock.
func New(url string, client fetch.Getter, thresholds Thresholds, clock clockwork.Clock, logger *slog.Logger) *Adapter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Adapter{url: url, client: client, thresholds: thresholds, clock: clock, logger: logger}
}

// Name identifies the adapter in logs and metrics and namespaces its IDs.
func (a *Adapter) Name() string { return sourceName }

// Fetch retrieves the feed and emits candidates for flooding sites. A site
// with an unparseable reading is skipped, not fatal.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	body, err := a.client.Get(ctx, a.url)
	if err != nil {
		return nil, err
	}

	var doc response
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode gauge feed: %w", err)
	}

	now := a.clock.Now()
	var candidates []domain.Candidate
	for _, series := range doc.Value.TimeSeries {
		c, ok := a.convert(series, now)
		if !ok {
			continue
		}
		candidates = append(candidates, c)
	}

	a.logger.Debug("gauge feed fetched", "sites", len(doc.Value.TimeSeries), "flooding", len(candidates))
	return candidates, nil
}

func (a *Adapter) convert(series timeSeries, now time.Time) (domain.Candidate, bool) {
	siteCode := series.SourceInfo.siteCode()
	if siteCode == "" {
		return domain.Candidate{}, false
	}

	reading, readingTime, ok := latestReading(series)
	if !ok {
		return domain.Candidate{}, false
	}
	if reading < a.thresholds.FloodStageFt {
		return domain.Candidate{}, false
	}
	if now.Sub(readingTime) > a.thresholds.MaxReadingAge {
		return domain.Candidate{}, false
	}

	start := readingTime
	return domain.Candidate{
		Source:  sourceName,
		LocalID: siteCode,
		Type:    domain.TypeFlooding,
		Location: domain.LatLng{
			Lat: series.SourceInfo.GeoLocation.GeogLocation.Latitude,
			Lng: series.SourceInfo.GeoLocation.GeogLocation.Longitude,
		},
		Window:      domain.TimeWindow{Start: &start},
		Description: fmt.Sprintf("%s: gauge height %.1f ft", series.SourceInfo.SiteName, reading),
		Class:       domain.ClassLive,
	}, true
}

// latestReading returns the most recent parseable reading in the series.
// Readings usually arrive oldest-first but the feed does not guarantee it.
func latestReading(series timeSeries) (float64, time.Time, bool) {
	if len(series.Values) == 0 {
		return 0, time.Time{}, false
	}

	var (
		best     float64
		bestTime time.Time
		found    bool
	)
	for _, v := range series.Values[0].Value {
		ts, err := time.Parse(time.RFC3339, v.DateTime)
		if err != nil {
			continue
		}
		height, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			continue
		}
		if !found || ts.After(bestTime) {
			best = height
			bestTime = ts
			found = true
		}
	}
	return best, bestTime, found
}
