// Command feedcheck fetches the configured feeds once and prints the
// normalized incidents, for sanity-checking live endpoints before pointing
// the service at them.
//
// Usage:
//
//	go run ./cmd/feedcheck \
//	  -xml-url https://511.example.gov/events.xml \
//	  -gauge-url https://waterservices.example.gov/nwis/iv/... \
//	  -geo-urls https://vendor.example.com/projects.geojson
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mudseason/road-hazard-service/internal/adapter/fetch"
	"github.com/mudseason/road-hazard-service/internal/adapter/gauges"
	"github.com/mudseason/road-hazard-service/internal/adapter/geofeed"
	"github.com/mudseason/road-hazard-service/internal/adapter/xmlfeed"
	"github.com/mudseason/road-hazard-service/internal/domain"
	"github.com/mudseason/road-hazard-service/internal/observability"
	"github.com/mudseason/road-hazard-service/internal/pipeline"
)

func main() {
	xmlURL := flag.String("xml-url", "", "XML event feed URL (required)")
	gaugeURL := flag.String("gauge-url", "", "stream gauge feed URL (optional)")
	geoURLs := flag.String("geo-urls", "", "comma-separated GeoJSON feed URLs (optional)")
	bbox := flag.String("bbox", "42.6,-73.6,45.1,-71.4", "region as minLat,minLng,maxLat,maxLng")
	timeout := flag.Duration("timeout", 15*time.Second, "per-fetch timeout")
	floodStage := flag.Float64("flood-stage-ft", 7.0, "gauge height flood threshold in feet")
	verbose := flag.Bool("v", false, "log adapter debug output")
	flag.Parse()

	if *xmlURL == "" {
		fmt.Fprintln(os.Stderr, "feedcheck: -xml-url is required")
		flag.Usage()
		os.Exit(2)
	}

	region, err := parseBBox(*bbox)
	if err != nil {
		fmt.Fprintf(os.Stderr, "feedcheck: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	client := fetch.NewClient(*timeout)
	sources := []pipeline.Source{xmlfeed.New(*xmlURL, client, logger)}
	if *gaugeURL != "" {
		thresholds := gauges.Thresholds{FloodStageFt: *floodStage, MaxReadingAge: 6 * time.Hour}
		sources = append(sources, gauges.New(*gaugeURL, client, thresholds, nil, logger))
	}
	for i, raw := range splitList(*geoURLs) {
		name := fmt.Sprintf("geofeed-%d", i+1)
		if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
			name = u.Hostname()
		}
		sources = append(sources, geofeed.New(
			raw, name, domain.TypeConstruction, domain.ClassPlanned,
			geofeed.PropertyMap{
				ID:          "id",
				Name:        "name",
				Description: "description",
				RoadName:    "road",
				StartDate:   "start_date",
				EndDate:     "end_date",
			},
			client, logger,
		))
	}

	classifier := domain.NewClassifier(nil,
		domain.ClassWindows{LookAhead: 24 * time.Hour, Grace: 30 * time.Minute},
		domain.ClassWindows{LookAhead: 7 * 24 * time.Hour, Grace: 24 * time.Hour},
	)
	normalizer := domain.NewNormalizer(region, classifier)

	poller := pipeline.New(sources, normalizer, nil, time.Minute, nil, logger, observability.NewMetricsForTesting())

	ctx, cancel := context.WithTimeout(context.Background(), 2*(*timeout))
	defer cancel()

	if err := poller.RunOnce(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "feedcheck: refresh failed: %v\n", err)
		os.Exit(1)
	}

	incidents := poller.Snapshot()
	bySource := map[string]int{}
	for _, inc := range incidents {
		bySource[inc.Source]++
		fmt.Printf("%-10s %-12s %-8s  %9.5f,%10.5f  %s\n",
			inc.Status, inc.Type, inc.Severity, inc.Location.Lat, inc.Location.Lng, describe(inc))
	}

	fmt.Printf("\n%d incidents", len(incidents))
	for source, n := range bySource {
		fmt.Printf("  %s=%d", source, n)
	}
	fmt.Println()
}

func describe(inc domain.Incident) string {
	if inc.RoadName != "" && inc.Description != "" {
		return inc.RoadName + ": " + inc.Description
	}
	if inc.RoadName != "" {
		return inc.RoadName
	}
	if inc.Description != "" {
		return inc.Description
	}
	return inc.ID
}

func parseBBox(s string) (domain.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.BoundingBox{}, fmt.Errorf("invalid -bbox %q (want minLat,minLng,maxLat,maxLng)", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%f", &vals[i]); err != nil {
			return domain.BoundingBox{}, fmt.Errorf("invalid -bbox %q", s)
		}
	}
	return domain.BoundingBox{MinLat: vals[0], MinLng: vals[1], MaxLat: vals[2], MaxLng: vals[3]}, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
