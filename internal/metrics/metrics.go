/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

// Package metrics provides Prometheus metrics for the transcript hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loqa_transcript"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Detection metrics
	DetectionsTotal   *prometheus.CounterVec
	DetectionMixed    prometheus.Counter
	DetectionDuration prometheus.Histogram

	// Translation metrics
	TranslationsTotal    *prometheus.CounterVec
	TranslationCacheHits prometheus.Counter
	TranslationFallbacks prometheus.Counter
	TranslationDuration  *prometheus.HistogramVec

	// Store metrics
	StoreMutations *prometheus.CounterVec
	StoreEntries   prometheus.Gauge
	ExportsTotal   *prometheus.CounterVec

	// Session persistence metrics
	SessionSaves prometheus.Counter
	SessionLoads prometheus.Counter
}

// Default is the global metrics instance.
var Default = New()

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DetectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Total number of language detections by detected language",
		}, []string{"language"}),
		DetectionMixed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_mixed_total",
			Help:      "Total number of mixed-language detections",
		}),
		DetectionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "Duration of detection calls in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		TranslationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translations_total",
			Help:      "Total number of translation requests by engine and status",
		}, []string{"engine", "status"}),
		TranslationCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_cache_hits_total",
			Help:      "Total number of translation cache hits",
		}),
		TranslationFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "translation_fallbacks_total",
			Help:      "Total number of retries against the guaranteed fallback engine",
		}),
		TranslationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "translation_duration_seconds",
			Help:      "Duration of translation engine calls in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"engine"}),
		StoreMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mutations_total",
			Help:      "Total number of transcript store mutations by operation",
		}, []string{"operation"}),
		StoreEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_entries",
			Help:      "Current number of entries across live transcript stores",
		}),
		ExportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of transcript exports by format",
		}, []string{"format"}),
		SessionSaves: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_saves_total",
			Help:      "Total number of session snapshots written to storage",
		}),
		SessionLoads: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_loads_total",
			Help:      "Total number of session snapshots read from storage",
		}),
	}
}
