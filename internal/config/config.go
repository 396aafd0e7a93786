package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mudseason/road-hazard-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Feed endpoints. The XML event feed is required; the others are
	// optional and disabled when unset.
	XMLFeedURL  string
	GaugeURL    string
	GeoFeedURLs []string

	// Region bounding box; incidents outside it are rejected.
	Region domain.BoundingBox

	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	GaugeCacheTTL   time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Temporal classifier windows per source class.
	LiveLookAhead    time.Duration
	LiveGrace        time.Duration
	PlannedLookAhead time.Duration
	PlannedGrace     time.Duration

	// Stream gauge thresholds. Approximate by design; tune per deployment.
	GaugeFloodStageFt  float64
	GaugeMaxReadingAge time.Duration

	// Optional Kafka sink for normalized incident snapshots.
	KafkaSinkEnabled bool
	KafkaBrokers     []string
	KafkaSinkTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	refreshInterval, err := durationEnv("REFRESH_INTERVAL", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := durationEnv("FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	gaugeCacheTTL, err := durationEnv("GAUGE_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	liveLookAhead, err := durationEnv("LIVE_LOOKAHEAD", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	liveGrace, err := durationEnv("LIVE_GRACE", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	plannedLookAhead, err := durationEnv("PLANNED_LOOKAHEAD", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	plannedGrace, err := durationEnv("PLANNED_GRACE", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	gaugeMaxAge, err := durationEnv("GAUGE_MAX_READING_AGE", 6*time.Hour)
	if err != nil {
		return nil, err
	}
	floodStage, err := floatEnv("GAUGE_FLOOD_STAGE_FT", 7.0)
	if err != nil {
		return nil, err
	}
	region, err := regionEnv()
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_SINK_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		XMLFeedURL:  os.Getenv("XML_FEED_URL"),
		GaugeURL:    os.Getenv("GAUGE_FEED_URL"),
		GeoFeedURLs: splitList(os.Getenv("GEO_FEED_URLS")),

		Region: region,

		RefreshInterval: refreshInterval,
		FetchTimeout:    fetchTimeout,
		GaugeCacheTTL:   gaugeCacheTTL,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		LiveLookAhead:    liveLookAhead,
		LiveGrace:        liveGrace,
		PlannedLookAhead: plannedLookAhead,
		PlannedGrace:     plannedGrace,

		GaugeFloodStageFt:  floodStage,
		GaugeMaxReadingAge: gaugeMaxAge,

		KafkaSinkEnabled: kafkaEnabled,
		KafkaBrokers:     splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "road-hazard-incidents"),
	}

	if cfg.XMLFeedURL == "" {
		return nil, errors.New("XML_FEED_URL is required")
	}
	if cfg.RefreshInterval <= 0 {
		return nil, errors.New("REFRESH_INTERVAL must be positive")
	}
	if cfg.KafkaSinkEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_SINK_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaSinkEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_ENABLED is true but KAFKA_SINK_TOPIC is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

// regionEnv parses REGION_BBOX as "minLat,minLng,maxLat,maxLng".
// Defaults to a Vermont bounding box.
func regionEnv() (domain.BoundingBox, error) {
	s := os.Getenv("REGION_BBOX")
	if s == "" {
		return domain.BoundingBox{MinLat: 42.6, MaxLat: 45.1, MinLng: -73.6, MaxLng: -71.4}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.BoundingBox{}, fmt.Errorf("invalid REGION_BBOX: %q (want minLat,minLng,maxLat,maxLng)", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("invalid REGION_BBOX: %q", s)
		}
		vals[i] = v
	}
	box := domain.BoundingBox{MinLat: vals[0], MinLng: vals[1], MaxLat: vals[2], MaxLng: vals[3]}
	if box.MinLat >= box.MaxLat || box.MinLng >= box.MaxLng {
		return domain.BoundingBox{}, fmt.Errorf("invalid REGION_BBOX: %q (min must be below max)", s)
	}
	return box, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
