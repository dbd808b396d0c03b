// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package pucch keeps the occupancy of the periodic uplink control resources
// (scheduling request and periodic CQI) shared by every attached UE.
package pucch

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/omec-project/gnbrrc/logger"
)

var (
	ErrExhausted     = errors.New("no free PUCCH resource")
	ErrInvalidPeriod = errors.New("unsupported periodicity")
	ErrNotAllocated  = errors.New("PUCCH resource is not allocated")
)

const (
	maxNofPrb       = 100
	maxNofSubframes = 80
)

// IndexFunc converts a periodicity and subframe offset to the configuration
// index signalled to the UE.
type IndexFunc func(period, subframe uint32) (uint32, error)

type Config struct {
	Name         string
	Periods      []uint32
	NofPrb       uint32
	SfMapping    []uint32
	Capacity     uint32
	NPucchOffset uint32
	Index        IndexFunc
}

// Entry is one granted resource. (Slot, SubIndex) is unique among the
// entries currently held from the same pool.
type Entry struct {
	Period      uint32
	Prb         uint32
	Slot        uint32
	Subframe    uint32
	Lane        uint32
	SubIndex    uint32
	ConfigIndex uint32
}

func (e Entry) String() string {
	return fmt.Sprintf("period=%d prb=%d sf=%d n_pucch=%d idx=%d",
		e.Period, e.Prb, e.Subframe, e.SubIndex, e.ConfigIndex)
}

// Pool is not safe for concurrent Allocate/Release; the RRC worker is its
// only writer. Used and Capacity may be read from any goroutine.
type Pool struct {
	cfg   Config
	lanes [][][]bool // [prb][slot][lane]
	used  atomic.Int32
}

func NewPool(cfg Config) (*Pool, error) {
	if cfg.NofPrb == 0 || cfg.NofPrb > maxNofPrb {
		return nil, fmt.Errorf("%s pool: nofPrb %d out of range [1, %d]", cfg.Name, cfg.NofPrb, maxNofPrb)
	}
	if len(cfg.SfMapping) == 0 || len(cfg.SfMapping) > maxNofSubframes {
		return nil, fmt.Errorf("%s pool: sfMapping needs between 1 and %d entries", cfg.Name, maxNofSubframes)
	}
	if cfg.Capacity == 0 {
		return nil, fmt.Errorf("%s pool: capacity must be positive", cfg.Name)
	}
	if len(cfg.Periods) == 0 {
		return nil, fmt.Errorf("%s pool: no periodicity configured", cfg.Name)
	}
	if cfg.Index == nil {
		return nil, fmt.Errorf("%s pool: no index function", cfg.Name)
	}
	for _, period := range cfg.Periods {
		if _, err := cfg.Index(period, 0); err != nil {
			return nil, fmt.Errorf("%s pool: %w", cfg.Name, err)
		}
	}

	p := &Pool{cfg: cfg}
	p.lanes = make([][][]bool, cfg.NofPrb)
	for prb := range p.lanes {
		p.lanes[prb] = make([][]bool, len(cfg.SfMapping))
		for slot := range p.lanes[prb] {
			p.lanes[prb][slot] = make([]bool, cfg.Capacity)
		}
	}
	return p, nil
}

func NewSrPool(periods []uint32, nofPrb uint32, sfMapping []uint32, capacity, nPucchOffset uint32) (*Pool, error) {
	return NewPool(Config{
		Name:         "SR",
		Periods:      periods,
		NofPrb:       nofPrb,
		SfMapping:    sfMapping,
		Capacity:     capacity,
		NPucchOffset: nPucchOffset,
		Index:        SrConfigIndex,
	})
}

func NewCqiPool(periods []uint32, nofPrb uint32, sfMapping []uint32, capacity, nPucchOffset uint32) (*Pool, error) {
	return NewPool(Config{
		Name:         "CQI",
		Periods:      periods,
		NofPrb:       nofPrb,
		SfMapping:    sfMapping,
		Capacity:     capacity,
		NPucchOffset: nPucchOffset,
		Index:        CqiConfigIndex,
	})
}

func (p *Pool) Name() string { return p.cfg.Name }

// DefaultPeriod is the first configured periodicity.
func (p *Pool) DefaultPeriod() uint32 { return p.cfg.Periods[0] }

func (p *Pool) occupancy(prb, slot int) int {
	n := 0
	for _, held := range p.lanes[prb][slot] {
		if held {
			n++
		}
	}
	return n
}

// Allocate picks the least loaded (prb, slot) cell whose subframe fits the
// requested period and grants its lowest free lane.
func (p *Pool) Allocate(period uint32) (Entry, error) {
	if !slices.Contains(p.cfg.Periods, period) {
		return Entry{}, fmt.Errorf("%s pool: %w %d", p.cfg.Name, ErrInvalidPeriod, period)
	}

	bestPrb, bestSlot := -1, -1
	minUsers := int(p.cfg.Capacity) + 1
	for prb := range p.lanes {
		for slot, sf := range p.cfg.SfMapping {
			if sf >= period {
				continue
			}
			if n := p.occupancy(prb, slot); n < minUsers {
				minUsers = n
				bestPrb, bestSlot = prb, slot
			}
		}
	}
	if bestPrb < 0 {
		return Entry{}, fmt.Errorf("%s pool: %w: no subframe mapping below period %d",
			p.cfg.Name, ErrInvalidPeriod, period)
	}
	if minUsers >= int(p.cfg.Capacity) {
		logger.PucchLog.Warnf("%s pool exhausted for period %d", p.cfg.Name, period)
		return Entry{}, fmt.Errorf("%s pool: %w for period %d", p.cfg.Name, ErrExhausted, period)
	}

	lanes := p.lanes[bestPrb][bestSlot]
	lane := slices.Index(lanes, false)
	subframe := p.cfg.SfMapping[bestSlot]
	idx, err := p.cfg.Index(period, subframe)
	if err != nil {
		return Entry{}, err
	}
	lanes[lane] = true
	p.used.Add(1)

	e := Entry{
		Period:      period,
		Prb:         uint32(bestPrb),
		Slot:        uint32(bestSlot),
		Subframe:    subframe,
		Lane:        uint32(lane),
		SubIndex:    p.cfg.NPucchOffset + uint32(bestPrb)*p.cfg.Capacity + uint32(lane),
		ConfigIndex: idx,
	}
	logger.PucchLog.Debugf("%s allocated %s (users in cell=%d)", p.cfg.Name, e, minUsers+1)
	return e, nil
}

// Release returns a granted entry. Releasing an entry that is not held is a
// caller defect and is reported, never clamped.
func (p *Pool) Release(e Entry) error {
	if int(e.Prb) >= len(p.lanes) || int(e.Slot) >= len(p.cfg.SfMapping) || e.Lane >= p.cfg.Capacity {
		return fmt.Errorf("%s pool: %w: %s outside grid", p.cfg.Name, ErrNotAllocated, e)
	}
	lanes := p.lanes[e.Prb][e.Slot]
	if !lanes[e.Lane] {
		return fmt.Errorf("%s pool: %w: %s", p.cfg.Name, ErrNotAllocated, e)
	}
	lanes[e.Lane] = false
	p.used.Add(-1)
	logger.PucchLog.Debugf("%s released %s", p.cfg.Name, e)
	return nil
}

// Occupancy reports how many entries hold the given cell.
func (p *Pool) Occupancy(prb, slot uint32) int {
	if int(prb) >= len(p.lanes) || int(slot) >= len(p.cfg.SfMapping) {
		return 0
	}
	return p.occupancy(int(prb), int(slot))
}

func (p *Pool) Used() int {
	return int(p.used.Load())
}

func (p *Pool) Capacity() int {
	return int(p.cfg.NofPrb) * len(p.cfg.SfMapping) * int(p.cfg.Capacity)
}
