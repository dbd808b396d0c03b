// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"slices"
	"time"

	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/security"
)

const (
	DefaultInactivityTimeout  = 30 * time.Second
	DefaultSweepInterval      = time.Second
	DefaultEventQueueLen      = 512
	DefaultMaxUsers           = 512
	DefaultMaxPagingRecords   = 64
	DefaultPagingCycle        = 128
	DefaultHoExecutionTimeout = 2 * time.Second
)

type PucchCfg struct {
	Periods      []uint32
	NofPrb       uint32
	SfMapping    []uint32
	Capacity     uint32
	NPucchOffset uint32
	// SR only
	DsrTransMax uint32
	// CQI only
	SimultaneousAckCqi bool
}

// QosClass is the radio configuration provisioned for one 5QI.
type QosClass struct {
	FiveQi             int64
	RlcMode            message.RlcMode
	PdcpDiscardTimer   uint32
	Priority           uint8
	PrioritisedBitRate uint32
	BucketSizeDuration uint32
}

type PagingCfg struct {
	// T in radio frames
	DefaultPagingCycle uint32
	// nB in radio frames, a divisor or multiple of T
	Nb                uint32
	MaxPendingRecords int
}

type MobilityCfg struct {
	A3Offset         int
	ExecutionTimeout time.Duration
	Neighbours       []uint16
}

// RrcCfg is built once at start and never modified afterwards.
type RrcCfg struct {
	Cell               CellInfo
	InactivityTimeout  time.Duration
	SweepInterval      time.Duration
	EventQueueLen      int
	MaxUsers           int
	Security           security.Preferences
	Sr                 PucchCfg
	Cqi                PucchCfg
	Qos                map[int64]QosClass
	Paging             PagingCfg
	Sibs               [][]byte
	SibRefreshInterval time.Duration
	Mobility           MobilityCfg
}

func (c *RrcCfg) QosClassOf(fiveQi int64) (QosClass, bool) {
	q, ok := c.Qos[fiveQi]
	return q, ok
}

func (c *RrcCfg) IsNeighbour(pci uint16) bool {
	return slices.Contains(c.Mobility.Neighbours, pci)
}
