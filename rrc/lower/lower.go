// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package lower holds an in-process MAC, RLC and PDCP used when the gNB
// runs without a radio stack attached. They keep the per-UE configuration
// pushed by RRC and hand downlink SDUs to a sink.
package lower

import (
	"fmt"
	"sync"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/security"
)

// Sink receives every downlink SDU written to RLC or PDCP.
type Sink func(rnti uint16, lcid uint32, sdu []byte)

type bearerKey struct {
	rnti uint16
	lcid uint32
}

// Mac stores the dedicated configuration of every UE.
type Mac struct {
	mu   sync.Mutex
	cfgs map[uint16]context.UeMacCfg
	phy  map[uint16]bool
}

func NewMac() *Mac {
	return &Mac{cfgs: make(map[uint16]context.UeMacCfg), phy: make(map[uint16]bool)}
}

func (m *Mac) UeCfg(rnti uint16, cfg context.UeMacCfg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfgs[rnti] = cfg
	logger.L2Log.Debugf("MAC RNTI 0x%x configured with %d LCIDs", rnti, len(cfg.Lcids))
	return nil
}

func (m *Mac) UeRem(rnti uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cfgs, rnti)
	delete(m.phy, rnti)
}

func (m *Mac) UpdUser(newRnti, oldRnti uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.cfgs[oldRnti]
	if !ok {
		return fmt.Errorf("MAC RNTI 0x%x not configured", oldRnti)
	}
	delete(m.cfgs, oldRnti)
	delete(m.cfgs, newRnti)
	m.cfgs[newRnti] = cfg
	return nil
}

func (m *Mac) PhyConfigEnabled(rnti uint16, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phy[rnti] = enabled
}

// Config returns the configuration last pushed for rnti.
func (m *Mac) Config(rnti uint16) (context.UeMacCfg, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.cfgs[rnti]
	return cfg, ok
}

func (m *Mac) NofUsers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cfgs)
}

// bearers is the bearer table shared by RLC and PDCP. erase, when set, is
// called on every entry that leaves the table.
type bearers[T any] struct {
	mu      sync.Mutex
	entries map[bearerKey]T
	sink    Sink
	name    string
	erase   func(T)
}

func (b *bearers[T]) add(rnti uint16, lcid uint32, v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := bearerKey{rnti, lcid}
	if old, ok := b.entries[k]; ok && b.erase != nil {
		b.erase(old)
	}
	b.entries[k] = v
}

func (b *bearers[T]) drop(k bearerKey) {
	if b.erase != nil {
		b.erase(b.entries[k])
	}
	delete(b.entries, k)
}

func (b *bearers[T]) del(rnti uint16, lcid uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[bearerKey{rnti, lcid}]; ok {
		b.drop(bearerKey{rnti, lcid})
	}
}

func (b *bearers[T]) remUser(rnti uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k := range b.entries {
		if k.rnti == rnti {
			b.drop(k)
		}
	}
}

// updUser moves the entries of oldRnti. An entry already held by newRnti
// on the same LCID is dropped.
func (b *bearers[T]) updUser(newRnti, oldRnti uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	moved := make(map[bearerKey]T)
	for k, v := range b.entries {
		if k.rnti == oldRnti {
			delete(b.entries, k)
			moved[bearerKey{newRnti, k.lcid}] = v
		}
	}
	for k, v := range moved {
		if _, ok := b.entries[k]; ok {
			b.drop(k)
		}
		b.entries[k] = v
	}
}

func (b *bearers[T]) get(rnti uint16, lcid uint32) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.entries[bearerKey{rnti, lcid}]
	return v, ok
}

func (b *bearers[T]) write(rnti uint16, lcid uint32, sdu []byte) {
	if _, ok := b.get(rnti, lcid); !ok {
		logger.L2Log.Warnf("%s RNTI 0x%x: no bearer on LCID %d, SDU dropped", b.name, rnti, lcid)
		return
	}
	if b.sink != nil {
		b.sink(rnti, lcid, sdu)
	}
}

type Rlc struct {
	bearers[message.RlcMode]
}

func NewRlc(sink Sink) *Rlc {
	return &Rlc{bearers[message.RlcMode]{entries: make(map[bearerKey]message.RlcMode), sink: sink, name: "RLC"}}
}

func (r *Rlc) AddUser(rnti uint16) { r.add(rnti, context.LcidSrb0, message.RlcTm) }
func (r *Rlc) RemUser(rnti uint16) { r.remUser(rnti) }

func (r *Rlc) AddBearer(rnti uint16, lcid uint32, mode message.RlcMode) {
	r.add(rnti, lcid, mode)
}

func (r *Rlc) DelBearer(rnti uint16, lcid uint32)            { r.del(rnti, lcid) }
func (r *Rlc) WriteSdu(rnti uint16, lcid uint32, sdu []byte) { r.write(rnti, lcid, sdu) }
func (r *Rlc) UpdUser(newRnti, oldRnti uint16)               { r.updUser(newRnti, oldRnti) }

func (r *Rlc) Reestablish(rnti uint16) {
	logger.L2Log.Debugf("RLC RNTI 0x%x re-established", rnti)
}

// Mode returns the RLC mode of a bearer.
func (r *Rlc) Mode(rnti uint16, lcid uint32) (message.RlcMode, bool) { return r.get(rnti, lcid) }

// PdcpBearer is the security state of one PDCP entity.
type PdcpBearer struct {
	Config     security.AsConfig
	Integrity  bool
	Encryption bool
}

// Pdcp keeps one PdcpBearer per entity, in place, so that its keys are
// overwritten when the entity goes away.
type Pdcp struct {
	bearers[*PdcpBearer]
}

func NewPdcp(sink Sink) *Pdcp {
	return &Pdcp{bearers[*PdcpBearer]{
		entries: make(map[bearerKey]*PdcpBearer),
		sink:    sink,
		name:    "PDCP",
		erase:   func(b *PdcpBearer) { *b = PdcpBearer{} },
	}}
}

func (p *Pdcp) AddUser(rnti uint16) {
	logger.L2Log.Debugf("PDCP RNTI 0x%x added", rnti)
}

func (p *Pdcp) RemUser(rnti uint16)                           { p.remUser(rnti) }
func (p *Pdcp) AddBearer(rnti uint16, lcid uint32)            { p.add(rnti, lcid, &PdcpBearer{}) }
func (p *Pdcp) DelBearer(rnti uint16, lcid uint32)            { p.del(rnti, lcid) }
func (p *Pdcp) WriteSdu(rnti uint16, lcid uint32, sdu []byte) { p.write(rnti, lcid, sdu) }
func (p *Pdcp) UpdUser(newRnti, oldRnti uint16)               { p.updUser(newRnti, oldRnti) }
func (p *Pdcp) Reestablish(rnti uint16)                       { p.resetSecurity(rnti) }

// Bearer returns a copy of the state of a PDCP entity.
func (p *Pdcp) Bearer(rnti uint16, lcid uint32) (PdcpBearer, bool) {
	b, ok := p.get(rnti, lcid)
	if !ok {
		return PdcpBearer{}, false
	}
	return *b, true
}

func (p *Pdcp) ConfigSecurity(rnti uint16, lcid uint32, cfg security.AsConfig) {
	p.update(rnti, lcid, func(b *PdcpBearer) { b.Config = cfg })
}

func (p *Pdcp) EnableIntegrity(rnti uint16, lcid uint32) {
	p.update(rnti, lcid, func(b *PdcpBearer) { b.Integrity = true })
}

func (p *Pdcp) EnableEncryption(rnti uint16, lcid uint32) {
	p.update(rnti, lcid, func(b *PdcpBearer) { b.Encryption = true })
}

func (p *Pdcp) update(rnti uint16, lcid uint32, fn func(*PdcpBearer)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.entries[bearerKey{rnti, lcid}]
	if !ok {
		logger.L2Log.Warnf("PDCP RNTI 0x%x: no bearer on LCID %d", rnti, lcid)
		return
	}
	fn(b)
}

func (p *Pdcp) resetSecurity(rnti uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, b := range p.entries {
		if k.rnti == rnti {
			*b = PdcpBearer{}
		}
	}
}
