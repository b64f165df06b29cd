// Package metrics exposes Prometheus metrics for the IVR service.
// All values are gathered at scrape time from live providers.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionCounter exposes the number of live IVR sessions.
type SessionCounter interface {
	Len() int
}

// RowCounter returns a table's row count.
type RowCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Collector is a prometheus.Collector that gathers service metrics at
// scrape time. Any provider may be nil if unavailable.
type Collector struct {
	sessions   SessionCounter
	recordings RowCounter
	recipients RowCounter
	campaigns  RowCounter
	startTime  time.Time

	activeSessionsDesc *prometheus.Desc
	recordingsDesc     *prometheus.Desc
	recipientsDesc     *prometheus.Desc
	campaignsDesc      *prometheus.Desc
	uptimeDesc         *prometheus.Desc
}

// NewCollector creates a new metrics collector.
func NewCollector(
	sessions SessionCounter,
	recordings RowCounter,
	recipients RowCounter,
	campaigns RowCounter,
	startTime time.Time,
) *Collector {
	return &Collector{
		sessions:   sessions,
		recordings: recordings,
		recipients: recipients,
		campaigns:  campaigns,
		startTime:  startTime,

		activeSessionsDesc: prometheus.NewDesc(
			"leanivr_active_sessions",
			"Number of live IVR sessions",
			nil, nil,
		),
		recordingsDesc: prometheus.NewDesc(
			"leanivr_recordings",
			"Number of stored IVR recordings",
			nil, nil,
		),
		recipientsDesc: prometheus.NewDesc(
			"leanivr_recipients",
			"Number of outreach recipients",
			nil, nil,
		),
		campaignsDesc: prometheus.NewDesc(
			"leanivr_campaigns",
			"Number of campaigns",
			nil, nil,
		),
		uptimeDesc: prometheus.NewDesc(
			"leanivr_uptime_seconds",
			"Seconds since the process started",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSessionsDesc
	ch <- c.recordingsDesc
	ch <- c.recipientsDesc
	ch <- c.campaignsDesc
	ch <- c.uptimeDesc
}

// Collect implements prometheus.Collector. It queries all providers at
// scrape time.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.sessions != nil {
		ch <- prometheus.MustNewConstMetric(
			c.activeSessionsDesc, prometheus.GaugeValue,
			float64(c.sessions.Len()),
		)
	}

	c.collectCount(ctx, ch, c.recordingsDesc, c.recordings, "recordings")
	c.collectCount(ctx, ch, c.recipientsDesc, c.recipients, "recipients")
	c.collectCount(ctx, ch, c.campaignsDesc, c.campaigns, "campaigns")

	ch <- prometheus.MustNewConstMetric(
		c.uptimeDesc, prometheus.GaugeValue,
		time.Since(c.startTime).Seconds(),
	)
}

func (c *Collector) collectCount(ctx context.Context, ch chan<- prometheus.Metric, desc *prometheus.Desc, counter RowCounter, name string) {
	if counter == nil {
		return
	}
	count, err := counter.Count(ctx)
	if err != nil {
		slog.Error("metrics: failed to count "+name, "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(count))
}

// Handler registers the collector on a fresh registry and returns the
// scrape endpoint handler.
func Handler(c *Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
