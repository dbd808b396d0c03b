// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"errors"
	"sync"

	"github.com/eapache/queue"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
)

var ErrPagingQueueFull = errors.New("paging queue full")

// maximum number of records in one Paging message, TS 38.331 maxNrofPageRec
const maxPageRec = 32

// paging occasion subframes indexed by Ns and i_s
var poSubframes = map[uint32][]uint32{
	1: {9},
	2: {4, 9},
	4: {0, 4, 5, 9},
}

type PagingQueue struct {
	mu      sync.Mutex
	records *queue.Queue
	cfg     PagingCfg
}

func NewPagingQueue(cfg PagingCfg) *PagingQueue {
	if cfg.DefaultPagingCycle == 0 {
		cfg.DefaultPagingCycle = DefaultPagingCycle
	}
	if cfg.Nb == 0 {
		cfg.Nb = cfg.DefaultPagingCycle
	}
	if cfg.MaxPendingRecords <= 0 {
		cfg.MaxPendingRecords = DefaultMaxPagingRecords
	}
	return &PagingQueue{records: queue.New(), cfg: cfg}
}

// Add queues a paging record. A record for a UE that is already pending
// replaces the previous one.
func (p *PagingQueue) Add(rec message.PagingRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < p.records.Length(); i++ {
		if p.records.Get(i).(message.PagingRecord).UeId == rec.UeId {
			n := p.records.Length()
			for range n {
				r := p.records.Remove().(message.PagingRecord)
				if r.UeId == rec.UeId {
					r = rec
				}
				p.records.Add(r)
			}
			return nil
		}
	}
	if p.records.Length() >= p.cfg.MaxPendingRecords {
		return ErrPagingQueueFull
	}
	p.records.Add(rec)
	return nil
}

func (p *PagingQueue) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.records.Length()
}

// Occasion computes the paging frame offset and the paging occasion subframe
// of a UE, TS 38.304 section 7.1 with the FDD subframe pattern.
func (p *PagingQueue) Occasion(sTmsi uint64) (pfOffset, subframe uint32) {
	t := p.cfg.DefaultPagingCycle
	n := min(t, p.cfg.Nb)
	ns := max(1, p.cfg.Nb/t)
	ueId := uint32(sTmsi % 1024)
	pfOffset = (t / n) * (ueId % n)
	is := (ueId / n) % ns
	pattern, ok := poSubframes[ns]
	if !ok {
		pattern = poSubframes[1]
		is = 0
	}
	return pfOffset, pattern[is]
}

// Due removes and returns the records whose paging occasion is at tti.
func (p *PagingQueue) Due(tti uint32) []message.PagingRecord {
	sfn := (tti / 10) % 1024
	sf := tti % 10
	t := p.cfg.DefaultPagingCycle

	p.mu.Lock()
	defer p.mu.Unlock()
	var due []message.PagingRecord
	n := p.records.Length()
	for range n {
		rec := p.records.Remove().(message.PagingRecord)
		pf, po := p.Occasion(rec.STmsi)
		if len(due) < maxPageRec && sfn%t == pf && sf == po {
			due = append(due, rec)
			continue
		}
		p.records.Add(rec)
	}
	if len(due) > 0 {
		logger.PagingLog.Debugf("tti %d: %d paging records due, %d pending", tti, len(due), p.records.Length())
	}
	return due
}
