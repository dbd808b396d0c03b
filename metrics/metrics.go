// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package metrics exports the state of the RRC layer to Prometheus.
package metrics

import (
	"github.com/omec-project/gnbrrc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gnbrrc"

type UeSnapshot struct {
	Rnti        uint16
	RanUeNgapId int64
	State       string
	NofDrbs     int
	Handover    bool
}

type PoolSnapshot struct {
	Name     string
	Used     int
	Capacity int
}

// Snapshot is a consistent copy of the controller state taken under the
// registry lock.
type Snapshot struct {
	Ues           []UeSnapshot
	Pools         []PoolSnapshot
	PagingBacklog int
	QueueDepth    int
}

// StateCount returns the number of UEs per RRC state.
func (s Snapshot) StateCount() map[string]int {
	count := make(map[string]int)
	for _, ue := range s.Ues {
		count[ue.State]++
	}
	return count
}

type Collector struct {
	users         *prometheus.GaugeVec
	poolUsed      *prometheus.GaugeVec
	poolCapacity  *prometheus.GaugeVec
	pagingBacklog prometheus.Gauge
	queueDepth    prometheus.Gauge
	releases      *prometheus.CounterVec
	handovers     *prometheus.CounterVec
	rejects       prometheus.Counter
}

// NewCollector registers every RRC metric on reg, or on the default
// registerer when reg is nil.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		users: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rrc",
			Name:      "users",
			Help:      "Number of UEs per RRC state",
		}, []string{"state"}),
		poolUsed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pucch",
			Name:      "resources_used",
			Help:      "Allocated PUCCH resources per pool",
		}, []string{"pool"}),
		poolCapacity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pucch",
			Name:      "resources_capacity",
			Help:      "Total PUCCH resources per pool",
		}, []string{"pool"}),
		pagingBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "paging",
			Name:      "pending_records",
			Help:      "Paging records waiting for their paging occasion",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rrc",
			Name:      "event_queue_depth",
			Help:      "Events waiting in the RRC work channel",
		}),
		releases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rrc",
			Name:      "releases_total",
			Help:      "UE sessions removed, by cause",
		}, []string{"cause"}),
		handovers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mobility",
			Name:      "handovers_total",
			Help:      "Finished handover attempts, by outcome",
		}, []string{"outcome"}),
		rejects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rrc",
			Name:      "rejects_total",
			Help:      "RRCReject messages sent",
		}),
	}
}

// Update publishes a snapshot. States without UEs are reset to zero.
func (c *Collector) Update(s Snapshot, states []string) {
	count := s.StateCount()
	for _, st := range states {
		c.users.WithLabelValues(st).Set(float64(count[st]))
	}
	for _, p := range s.Pools {
		c.poolUsed.WithLabelValues(p.Name).Set(float64(p.Used))
		c.poolCapacity.WithLabelValues(p.Name).Set(float64(p.Capacity))
	}
	c.pagingBacklog.Set(float64(s.PagingBacklog))
	c.queueDepth.Set(float64(s.QueueDepth))
	logger.MetricsLog.Debugf("published %d UEs", len(s.Ues))
}

func (c *Collector) Released(cause string) {
	if c == nil {
		return
	}
	c.releases.WithLabelValues(cause).Inc()
}

func (c *Collector) Handover(outcome string) {
	if c == nil {
		return
	}
	c.handovers.WithLabelValues(outcome).Inc()
}

func (c *Collector) Rejected() {
	if c == nil {
		return
	}
	c.rejects.Inc()
}
