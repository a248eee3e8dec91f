// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts extraction outcomes in a private Prometheus
// registry that can be written to a node-exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const namespace = "evidence"

// Recorder holds the run counters. A nil *Recorder discards observations.
type Recorder struct {
	registry  *prometheus.Registry
	cells     *prometheus.CounterVec
	documents *prometheus.CounterVec
	species   prometheus.Gauge
	duration  prometheus.Histogram
}

// New returns a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_total",
			Help:      "Evidence cells processed, by final status.",
		}, []string{"status"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Citation lookups, by resolved document kind.",
		}, []string{"kind"}),
		species: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "taxonomy_species",
			Help:      "Species names in the loaded taxonomy index.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cell_duration_seconds",
			Help:      "Time spent processing one evidence cell.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}
	r.registry.MustRegister(r.cells, r.documents, r.species, r.duration)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveCell records one processed cell.
func (r *Recorder) ObserveCell(res types.CellResult) {
	if r == nil {
		return
	}
	r.cells.WithLabelValues(string(res.Status)).Inc()
	r.duration.Observe(res.Duration.Seconds())
}

// ObserveDocument records one resolved citation.
func (r *Recorder) ObserveDocument(kind types.DocumentKind) {
	if r == nil {
		return
	}
	r.documents.WithLabelValues(string(kind)).Inc()
}

// SetSpecies records the taxonomy index size.
func (r *Recorder) SetSpecies(n int) {
	if r == nil {
		return
	}
	r.species.Set(float64(n))
}

// WriteFile writes all metrics in the text exposition format to path.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
