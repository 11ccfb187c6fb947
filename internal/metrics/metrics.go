// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package metrics exposes run progress as Prometheus metrics. Metrics live
// in their own registry so several runs in one process do not collide.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/kwgrid/internal/listener"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/result"
)

const MetricsNamespace = "kwgrid"

// Metrics records suite, test and keyword outcomes. It is a listener.
type Metrics struct {
	listener.Base

	registry *prometheus.Registry

	suitesTotal     *prometheus.CounterVec
	testsTotal      *prometheus.CounterVec
	itemsTotal      *prometheus.CounterVec
	testDuration    prometheus.Histogram
	keywordDuration *prometheus.HistogramVec
	runInfo         *prometheus.GaugeVec
	runDuration     prometheus.Gauge
}

var _ listener.Listener = (*Metrics)(nil)

// New creates the metrics in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		suitesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "suites_total",
			Help:      "Count of finished suites by status",
		}, []string{"status"}),
		testsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "tests_total",
			Help:      "Count of finished tests by status",
		}, []string{"status"}),
		itemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "body_items_total",
			Help:      "Count of finished keywords and control structures by kind and status",
		}, []string{"kind", "status"}),
		testDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "test_duration_seconds",
			Help:      "Duration of tests",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		keywordDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "keyword_duration_seconds",
			Help:      "Duration of keywords by owner library or resource",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"owner"}),
		runInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_tests",
			Help:      "Test counts of the last finished run",
		}, []string{"run_id", "result"}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last finished run",
		}),
	}
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EndSuite(_ context.Context, _ *model.Suite, res *result.Result) {
	m.suitesTotal.WithLabelValues(string(res.Status)).Inc()
}

func (m *Metrics) EndTest(_ context.Context, _ *model.Test, res *result.Result) {
	m.testsTotal.WithLabelValues(string(res.Status)).Inc()
	m.testDuration.Observe(res.Elapsed().Seconds())
}

func (m *Metrics) EndItem(_ context.Context, _ *model.Arena, _ model.ItemID, res *result.Result) {
	m.itemsTotal.WithLabelValues(string(res.Kind), string(res.Status)).Inc()
	if res.Kind == result.KindKeyword && res.Status != result.StatusNotRun {
		m.keywordDuration.WithLabelValues(res.Owner).Observe(res.Elapsed().Seconds())
	}
}

// RecordRun stores the totals of a finished run.
func (m *Metrics) RecordRun(run *result.Run) {
	stats := run.Stats()
	id := run.ID.String()
	m.runInfo.WithLabelValues(id, "total").Set(float64(stats.Total))
	m.runInfo.WithLabelValues(id, "passed").Set(float64(stats.Passed))
	m.runInfo.WithLabelValues(id, "failed").Set(float64(stats.Failed))
	m.runInfo.WithLabelValues(id, "skipped").Set(float64(stats.Skipped))
	end := run.End
	if end.IsZero() {
		end = time.Now()
	}
	m.runDuration.Set(end.Sub(run.Start).Seconds())
}
