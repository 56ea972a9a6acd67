// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	liveAllocationsDesc = prometheus.NewDesc(
		"memtrack_live_allocations",
		"Number of live allocations per heap.",
		[]string{"heap"}, nil,
	)
	liveBytesDesc = prometheus.NewDesc(
		"memtrack_live_bytes",
		"Bytes requested by live allocations per heap.",
		[]string{"heap"}, nil,
	)
	arenaUsedDesc = prometheus.NewDesc(
		"memtrack_arena_used_bytes",
		"Arena bytes held per heap, headers and padding included.",
		[]string{"heap"}, nil,
	)
	headerSizeDesc = prometheus.NewDesc(
		"memtrack_header_size_bytes",
		"Size of one allocation header.",
		nil, nil,
	)
)

type collector struct{ t *Tracker }

var _ prometheus.Collector = collector{}

// Collector exposes heap usage of the tracker.
func (t *Tracker) Collector() prometheus.Collector {
	return collector{t}
}

func (c collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- liveAllocationsDesc
	ch <- liveBytesDesc
	ch <- arenaUsedDesc
	ch <- headerSizeDesc
}

func (c collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(headerSizeDesc, prometheus.GaugeValue,
		float64(c.t.layout.Size()))
	for _, h := range c.t.Heaps() {
		stats := h.Stats()
		ch <- prometheus.MustNewConstMetric(liveAllocationsDesc, prometheus.GaugeValue,
			float64(stats.Live), h.Name())
		ch <- prometheus.MustNewConstMetric(liveBytesDesc, prometheus.GaugeValue,
			float64(stats.LiveBytes), h.Name())
		ch <- prometheus.MustNewConstMetric(arenaUsedDesc, prometheus.GaugeValue,
			float64(stats.Used), h.Name())
	}
}
