package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// feed pipeline and the marker rendering layer.
type Metrics struct {
	FetchSuccess    *prometheus.CounterVec // labels: source
	FetchFailures   *prometheus.CounterVec // labels: source
	RecordsEmitted  *prometheus.CounterVec // labels: source
	RecordsRejected *prometheus.CounterVec // labels: reason={missing_id,out_of_region,excluded,geometry_cleared}

	IncidentsCurrent  prometheus.Gauge
	RefreshDuration   prometheus.Histogram
	RefreshSuperseded prometheus.Counter
	AllSourcesFailed  prometheus.Gauge
	PollerRunning     prometheus.Gauge

	// Rendering layer metrics.
	MarkersLive      prometheus.Gauge
	MarkersCreated   prometheus.Counter
	MarkersDestroyed prometheus.Counter
	PopupOpens       prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchSuccess,
		m.FetchFailures,
		m.RecordsEmitted,
		m.RecordsRejected,
		m.IncidentsCurrent,
		m.RefreshDuration,
		m.RefreshSuperseded,
		m.AllSourcesFailed,
		m.PollerRunning,
		m.MarkersLive,
		m.MarkersCreated,
		m.MarkersDestroyed,
		m.PopupOpens,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_hazard",
			Name:      "fetch_success_total",
			Help:      "Successful feed fetches by source.",
		}, []string{"source"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_hazard",
			Name:      "fetch_failures_total",
			Help:      "Failed feed fetches by source (network, HTTP, or parse).",
		}, []string{"source"}),
		RecordsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_hazard",
			Name:      "records_emitted_total",
			Help:      "Candidate records emitted by source adapters.",
		}, []string{"source"}),
		RecordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_hazard",
			Name:      "records_rejected_total",
			Help:      "Records rejected or repaired during normalization, by reason.",
		}, []string{"reason"}),
		IncidentsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "road_hazard",
			Name:      "incidents_current",
			Help:      "Incidents in the current pipeline snapshot.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "road_hazard",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-install refresh tick.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RefreshSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "road_hazard",
			Name:      "refresh_superseded_total",
			Help:      "Refresh ticks discarded because a newer tick finished first.",
		}),
		AllSourcesFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "road_hazard",
			Name:      "all_sources_failed",
			Help:      "1 when every feed failed on the most recent tick, 0 otherwise.",
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "road_hazard",
			Name:      "poller_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		MarkersLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "road_hazard",
			Name:      "markers_live",
			Help:      "Markers currently rendered on the map.",
		}),
		MarkersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "road_hazard",
			Name:      "markers_created_total",
			Help:      "MarkerEntries constructed and added to the map.",
		}),
		MarkersDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "road_hazard",
			Name:      "markers_destroyed_total",
			Help:      "MarkerEntries destroyed (listener detached, removed from map).",
		}),
		PopupOpens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "road_hazard",
			Name:      "popup_opens_total",
			Help:      "Detail popups opened.",
		}),
	}
}
