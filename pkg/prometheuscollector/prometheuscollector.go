// Package prometheuscollector allows to expose upload metrics for
// Prometheus.
//
// Using the provided collector, you can easily expose metrics for tusc in the
// Prometheus exposition format (https://prometheus.io/docs/instrumenting/exposition_formats/):
//
//	metrics := client.NewMetrics()
//	c, err := client.NewClient(file, client.Config{Metrics: metrics})
//	collector := prometheuscollector.New(metrics)
//	prometheus.MustRegister(collector)
package prometheuscollector

import (
	"sync/atomic"

	"github.com/tus/tusc/pkg/client"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	uploadsCreatedDesc = prometheus.NewDesc(
		"tusc_uploads_created",
		"Number of uploads created on a server.",
		nil, nil)
	uploadsResumedDesc = prometheus.NewDesc(
		"tusc_uploads_resumed",
		"Number of uploads resumed from a stored upload URL.",
		nil, nil)
	uploadsFinishedDesc = prometheus.NewDesc(
		"tusc_uploads_finished",
		"Number of finished uploads.",
		nil, nil)
	uploadsTerminatedDesc = prometheus.NewDesc(
		"tusc_uploads_terminated",
		"Number of cancelled uploads.",
		nil, nil)
	bytesSentDesc = prometheus.NewDesc(
		"tusc_bytes_sent",
		"Number of bytes acknowledged by servers.",
		nil, nil)
	retriesTotalDesc = prometheus.NewDesc(
		"tusc_retries_total",
		"Number of chunk retries handed to retry hooks.",
		nil, nil)
)

type Collector struct {
	metrics client.Metrics
}

// New creates a new collector which reads from the provided Metrics struct.
func New(metrics client.Metrics) Collector {
	return Collector{
		metrics: metrics,
	}
}

func (_ Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- uploadsCreatedDesc
	descs <- uploadsResumedDesc
	descs <- uploadsFinishedDesc
	descs <- uploadsTerminatedDesc
	descs <- bytesSentDesc
	descs <- retriesTotalDesc
}

func (c Collector) Collect(metrics chan<- prometheus.Metric) {
	metrics <- prometheus.MustNewConstMetric(
		uploadsCreatedDesc,
		prometheus.CounterValue,
		float64(atomic.LoadUint64(c.metrics.UploadsCreated)),
	)

	metrics <- prometheus.MustNewConstMetric(
		uploadsResumedDesc,
		prometheus.CounterValue,
		float64(atomic.LoadUint64(c.metrics.UploadsResumed)),
	)

	metrics <- prometheus.MustNewConstMetric(
		uploadsFinishedDesc,
		prometheus.CounterValue,
		float64(atomic.LoadUint64(c.metrics.UploadsFinished)),
	)

	metrics <- prometheus.MustNewConstMetric(
		uploadsTerminatedDesc,
		prometheus.CounterValue,
		float64(atomic.LoadUint64(c.metrics.UploadsTerminated)),
	)

	metrics <- prometheus.MustNewConstMetric(
		bytesSentDesc,
		prometheus.CounterValue,
		float64(atomic.LoadUint64(c.metrics.BytesSent)),
	)

	metrics <- prometheus.MustNewConstMetric(
		retriesTotalDesc,
		prometheus.CounterValue,
		float64(atomic.LoadUint64(c.metrics.RetriesTotal)),
	)
}
