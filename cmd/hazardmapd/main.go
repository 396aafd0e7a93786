package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/mudseason/road-hazard-service/internal/adapter/fetch"
	"github.com/mudseason/road-hazard-service/internal/adapter/gauges"
	"github.com/mudseason/road-hazard-service/internal/adapter/geofeed"
	"github.com/mudseason/road-hazard-service/internal/adapter/httpapi"
	kafkaadapter "github.com/mudseason/road-hazard-service/internal/adapter/kafka"
	"github.com/mudseason/road-hazard-service/internal/adapter/xmlfeed"
	"github.com/mudseason/road-hazard-service/internal/config"
	"github.com/mudseason/road-hazard-service/internal/domain"
	"github.com/mudseason/road-hazard-service/internal/observability"
	"github.com/mudseason/road-hazard-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := fetch.NewClient(cfg.FetchTimeout)
	sources := buildSources(cfg, client, logger)

	classifier := domain.NewClassifier(nil,
		domain.ClassWindows{LookAhead: cfg.LiveLookAhead, Grace: cfg.LiveGrace},
		domain.ClassWindows{LookAhead: cfg.PlannedLookAhead, Grace: cfg.PlannedGrace},
	)
	normalizer := domain.NewNormalizer(cfg.Region, classifier)

	// Kafka sink is feature-flagged via KAFKA_SINK_ENABLED.
	var publisher pipeline.Publisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaSinkEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		publisher = kafkaWriter
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	poller := pipeline.New(sources, normalizer, publisher, cfg.RefreshInterval, nil, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, poller, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := poller.Run(ctx); err != nil {
			logger.Error("poller error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildSources wires the configured feed adapters. The XML event feed is
// always present; gauges and vendor GeoJSON feeds are optional.
func buildSources(cfg *config.Config, client *fetch.Client, logger *slog.Logger) []pipeline.Source {
	sources := []pipeline.Source{xmlfeed.New(cfg.XMLFeedURL, client, logger)}

	if cfg.GaugeURL != "" {
		// Gauge sites publish every 15 minutes or so; the TTL cache keeps
		// refresh ticks from hammering the upstream.
		cached := fetch.NewCachedClient(client, cfg.GaugeCacheTTL, nil)
		thresholds := gauges.Thresholds{
			FloodStageFt:  cfg.GaugeFloodStageFt,
			MaxReadingAge: cfg.GaugeMaxReadingAge,
		}
		sources = append(sources, gauges.New(cfg.GaugeURL, cached, thresholds, nil, logger))
	}

	for i, feedURL := range cfg.GeoFeedURLs {
		sources = append(sources, geofeed.New(
			feedURL,
			geoFeedSourceName(feedURL, i),
			domain.TypeConstruction,
			domain.ClassPlanned,
			geofeed.PropertyMap{
				ID:          "id",
				Name:        "name",
				Description: "description",
				RoadName:    "road",
				StartDate:   "start_date",
				EndDate:     "end_date",
			},
			client,
			logger,
		))
	}

	return sources
}

// geoFeedSourceName derives a stable source name from the feed host so
// incident ids stay meaningful across restarts.
func geoFeedSourceName(feedURL string, index int) string {
	if u, err := url.Parse(feedURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return fmt.Sprintf("geofeed-%d", index+1)
}
