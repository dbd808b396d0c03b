// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ishidawataru/sctp"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/metrics"
	"github.com/omec-project/gnbrrc/pucch"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/util/idgenerator"
	gtpv1 "github.com/wmnsk/go-gtp/gtpv1"
)

var (
	ErrQueueFull = errors.New("RRC event queue full")
	ErrStopped   = errors.New("RRC stopped")
	ErrUeExists  = errors.New("UE already exists")
	ErrMaxUsers  = errors.New("maximum number of UEs reached")
)

var rrcContext = RRCContext{}

type RRCContext struct {
	NfInfo             GnbNfInfo
	AmfSctpAddresses   []*sctp.SCTPAddr
	LocalSctpAddress   *sctp.SCTPAddr
	GtpBindAddress     string
	MetricsBindAddress string

	Cfg RrcCfg

	// ID generator
	RanUeNgapIdGenerator *idgenerator.IDGenerator
	TeidGenerator        *idgenerator.IDGenerator

	// UE registry, RNTI as key. UeMu is held only for lookups, inserts and
	// erases, never across a call into another layer.
	UeMu     sync.Mutex
	UePool   map[uint16]*RrcUe
	RanUeIdx map[int64]uint16

	// PUCCH pools, only touched by the RRC worker
	SrPool  *pucch.Pool
	CqiPool *pucch.Pool

	Paging *PagingQueue
	Sibs   *SibCache
	Lower  LowerLayers

	RcvEventCh chan RrcEvt
	stopped    atomic.Bool
	Metrics    *metrics.Collector

	NgapServer *NgapServer
	GtpuConn   *gtpv1.UPlaneConn

	// Pools
	AmfPool                sync.Map // map[string]*GnbAmf, SCTPAddr as key
	AmfReInitAvailableList sync.Map // map[string]bool, SCTPAddr as key
	UpfUDPAddrs            sync.Map // map[string]*net.UDPAddr, UPF address as key
	AllocatedUeTeid        sync.Map // map[uint32]TunnelEndpoint, TEID as key

	Ctx context.Context
	Wg  sync.WaitGroup
	Now func() time.Time
}

// TunnelEndpoint locates the radio bearer behind a local TEID.
type TunnelEndpoint struct {
	Rnti uint16
	Lcid uint32
}

// RRCSelf returns the process wide RRC context
func RRCSelf() *RRCContext {
	return &rrcContext
}

// NewRRCContext builds a standalone context, used by tests and tools that
// run more than one controller.
func NewRRCContext(cfg RrcCfg, lower LowerLayers) (*RRCContext, error) {
	c := &RRCContext{}
	if err := c.Init(cfg, lower); err != nil {
		return nil, err
	}
	return c, nil
}

// Init applies the runtime configuration and allocates every shared
// structure of the controller.
func (c *RRCContext) Init(cfg RrcCfg, lower LowerLayers) error {
	if cfg.InactivityTimeout <= 0 {
		cfg.InactivityTimeout = DefaultInactivityTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.EventQueueLen <= 0 {
		cfg.EventQueueLen = DefaultEventQueueLen
	}
	if cfg.MaxUsers <= 0 {
		cfg.MaxUsers = DefaultMaxUsers
	}
	if cfg.Mobility.ExecutionTimeout <= 0 {
		cfg.Mobility.ExecutionTimeout = DefaultHoExecutionTimeout
	}

	srPool, err := pucch.NewSrPool(cfg.Sr.Periods, cfg.Sr.NofPrb, cfg.Sr.SfMapping, cfg.Sr.Capacity, cfg.Sr.NPucchOffset)
	if err != nil {
		return fmt.Errorf("SR pool: %+v", err)
	}
	cqiPool, err := pucch.NewCqiPool(cfg.Cqi.Periods, cfg.Cqi.NofPrb, cfg.Cqi.SfMapping, cfg.Cqi.Capacity,
		cfg.Cqi.NPucchOffset)
	if err != nil {
		return fmt.Errorf("CQI pool: %+v", err)
	}

	c.Cfg = cfg
	c.Lower = lower
	c.SrPool = srPool
	c.CqiPool = cqiPool
	c.Paging = NewPagingQueue(cfg.Paging)
	c.Sibs = NewSibCache(StaticSibs(cfg.Sibs))
	c.UePool = make(map[uint16]*RrcUe)
	c.RanUeIdx = make(map[int64]uint16)
	c.RcvEventCh = make(chan RrcEvt, cfg.EventQueueLen)
	c.RanUeNgapIdGenerator = idgenerator.NewGenerator(0, MaxValueOfRanUeNgapID)
	if c.TeidGenerator == nil {
		c.TeidGenerator = idgenerator.NewGenerator(1, 0xffffffff)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	c.stopped.Store(false)
	return nil
}

// NewUe creates and registers the session of a new RNTI.
func (c *RRCContext) NewUe(rnti uint16) (*RrcUe, error) {
	c.UeMu.Lock()
	defer c.UeMu.Unlock()
	if _, ok := c.UePool[rnti]; ok {
		return nil, fmt.Errorf("RNTI 0x%x: %w", rnti, ErrUeExists)
	}
	if len(c.UePool) >= c.Cfg.MaxUsers {
		return nil, ErrMaxUsers
	}
	ranUeNgapId, err := c.RanUeNgapIdGenerator.Allocate()
	if err != nil {
		return nil, fmt.Errorf("allocate RAN UE NGAP ID: %+v", err)
	}
	ue := NewRrcUe(rnti, c.Now())
	ue.RanUeNgapId = ranUeNgapId
	c.UePool[rnti] = ue
	c.RanUeIdx[ranUeNgapId] = rnti
	logger.CtxLog.Infof("new UE RNTI 0x%x RAN UE NGAP ID %d", rnti, ranUeNgapId)
	return ue, nil
}

func (c *RRCContext) UePoolLoad(rnti uint16) (*RrcUe, bool) {
	c.UeMu.Lock()
	defer c.UeMu.Unlock()
	ue, ok := c.UePool[rnti]
	return ue, ok
}

func (c *RRCContext) FindByRanUeNgapId(id int64) (*RrcUe, bool) {
	c.UeMu.Lock()
	defer c.UeMu.Unlock()
	rnti, ok := c.RanUeIdx[id]
	if !ok {
		return nil, false
	}
	ue, ok := c.UePool[rnti]
	return ue, ok
}

// RntiOf returns the current RNTI of the UE holding a RAN UE NGAP ID.
func (c *RRCContext) RntiOf(ranUeNgapId int64) (uint16, bool) {
	c.UeMu.Lock()
	defer c.UeMu.Unlock()
	rnti, ok := c.RanUeIdx[ranUeNgapId]
	return rnti, ok
}

// DeleteUe erases the session from the registry and frees its RAN UE NGAP
// ID. It does not release any resource of the session.
func (c *RRCContext) DeleteUe(rnti uint16) bool {
	c.UeMu.Lock()
	defer c.UeMu.Unlock()
	ue, ok := c.UePool[rnti]
	if !ok {
		return false
	}
	delete(c.UePool, rnti)
	if idx, ok := c.RanUeIdx[ue.RanUeNgapId]; ok && idx == rnti {
		delete(c.RanUeIdx, ue.RanUeNgapId)
		c.RanUeNgapIdGenerator.FreeID(ue.RanUeNgapId)
	}
	return true
}

// RekeyUe moves a session from oldRnti to newRnti, keeping its identity.
func (c *RRCContext) RekeyUe(oldRnti, newRnti uint16) error {
	c.UeMu.Lock()
	defer c.UeMu.Unlock()
	ue, ok := c.UePool[oldRnti]
	if !ok {
		return fmt.Errorf("RNTI 0x%x not found", oldRnti)
	}
	if _, busy := c.UePool[newRnti]; busy {
		return fmt.Errorf("RNTI 0x%x: %w", newRnti, ErrUeExists)
	}
	delete(c.UePool, oldRnti)
	ue.Rnti = newRnti
	c.UePool[newRnti] = ue
	c.RanUeIdx[ue.RanUeNgapId] = newRnti
	return nil
}

// Rntis returns the registered RNTIs.
func (c *RRCContext) Rntis() []uint16 {
	c.UeMu.Lock()
	defer c.UeMu.Unlock()
	rntis := make([]uint16, 0, len(c.UePool))
	for rnti := range c.UePool {
		rntis = append(rntis, rnti)
	}
	return rntis
}

func (c *RRCContext) GetNofUsers() int {
	c.UeMu.Lock()
	defer c.UeMu.Unlock()
	return len(c.UePool)
}

func (c *RRCContext) enqueue(evt RrcEvt) error {
	if c.stopped.Load() {
		return ErrStopped
	}
	select {
	case c.RcvEventCh <- evt:
		return nil
	default:
		logger.RrcLog.Warnf("event queue full, dropping event type %d", evt.Type())
		return ErrQueueFull
	}
}

// WritePdu queues a decoded uplink message received on a signalling bearer.
func (c *RRCContext) WritePdu(rnti uint16, lcid uint32, msg *message.UlMessage) error {
	return c.enqueue(NewRrcPduEvt(rnti, lcid, nil, msg))
}

// WritePduRaw queues an encoded uplink PDU; it is decoded by the worker.
func (c *RRCContext) WritePduRaw(rnti uint16, lcid uint32, pdu []byte) error {
	return c.enqueue(NewRrcPduEvt(rnti, lcid, pdu, nil))
}

func (c *RRCContext) AddUser(rnti uint16) error {
	return c.enqueue(NewAddUserEvt(rnti))
}

func (c *RRCContext) UpdUser(newRnti, oldRnti uint16) error {
	return c.enqueue(NewUpdUserEvt(newRnti, oldRnti))
}

func (c *RRCContext) RemUser(rnti uint16) error {
	return c.enqueue(NewControlEvt(rnti, LcidRemUser, CauseNormalRelease))
}

func (c *RRCContext) RlFailure(rnti uint16) error {
	return c.enqueue(NewControlEvt(rnti, LcidRlfUser, CauseRadioConnectionLost))
}

// MaxRetxAttempted is raised by RLC and handled as a radio link failure.
func (c *RRCContext) MaxRetxAttempted(rnti uint16) error {
	return c.enqueue(NewControlEvt(rnti, LcidRlfUser, CauseFailureInRadioInterface))
}

func (c *RRCContext) SetActivityUser(rnti uint16) error {
	return c.enqueue(NewControlEvt(rnti, LcidActUser, CauseNormalRelease))
}

// ReleaseComplete is called once the core network released the UE context;
// the UE is sent an RRCRelease and removed.
func (c *RRCContext) ReleaseComplete(rnti uint16) error {
	return c.enqueue(NewControlEvt(rnti, LcidRelUser, CauseNormalRelease))
}

func (c *RRCContext) SetupUeCtxt(evt *SetupUeCtxtEvt) error {
	return c.enqueue(evt)
}

func (c *RRCContext) ModifyUeCtxt(evt *ModifyUeCtxtEvt) error {
	return c.enqueue(evt)
}

func (c *RRCContext) SetupUeErabs(evt *SetupUeErabsEvt) error {
	return c.enqueue(evt)
}

func (c *RRCContext) ReleaseErabs(evt *ReleaseErabsEvt) error {
	return c.enqueue(evt)
}

func (c *RRCContext) WriteDlInfo(ranUeNgapId, amfUeNgapId int64, nasPdu []byte) error {
	return c.enqueue(&DlInfoEvt{RanUeNgapId: ranUeNgapId, AmfUeNgapId: amfUeNgapId, NasPdu: nasPdu})
}

func (c *RRCContext) HoPreparationComplete(rnti uint16, success bool, container []byte) error {
	return c.enqueue(NewHoPrepCompleteEvt(rnti, success, container))
}

// Stop refuses any further event and queues the exit marker behind the
// events already accepted.
func (c *RRCContext) Stop() {
	if c.stopped.Swap(true) {
		return
	}
	c.RcvEventCh <- NewControlEvt(0, LcidExit, CauseShutdown)
}

func (c *RRCContext) Stopped() bool {
	return c.stopped.Load()
}

// Tick is the periodic sweep. UEs idle for longer than the inactivity
// timeout and handovers past their execution deadline are queued on the
// work channel; nothing is removed here. It returns the number of markers
// queued.
func (c *RRCContext) Tick() int {
	now := c.Now()
	var markers []*RrcPduEvt

	c.UeMu.Lock()
	for rnti, ue := range c.UePool {
		switch {
		case ue.State() != UeStateReleaseRequested && ue.IdleFor(now) > c.Cfg.InactivityTimeout:
			if ue.MarkRemovalQueued() {
				logger.RrcLog.Infof("RNTI 0x%x inactive for %s, queued for removal",
					rnti, ue.IdleFor(now).Truncate(time.Millisecond))
				markers = append(markers, NewControlEvt(rnti, LcidRemUser, CauseUserInactivity))
			}
		case ue.HoExpired(now):
			ue.SetHoDeadline(time.Time{})
			markers = append(markers, NewControlEvt(rnti, LcidHoTimeout, CauseHandoverFailure))
		}
	}
	c.UeMu.Unlock()

	queued := 0
	for _, m := range markers {
		if err := c.enqueue(m); err != nil {
			if m.Lcid == LcidRemUser {
				if ue, ok := c.UePoolLoad(m.Rnti); ok {
					ue.ClearRemovalQueued()
				}
			}
			continue
		}
		queued++
	}
	return queued
}

// AddPagingId registers a paging request of the core network.
func (c *RRCContext) AddPagingId(ueId uint32, sTmsi uint64) error {
	err := c.Paging.Add(message.PagingRecord{UeId: ueId, STmsi: sTmsi})
	if err != nil {
		logger.PagingLog.Warnf("paging UE %d: %+v", ueId, err)
		return err
	}
	logger.PagingLog.Infof("paging UE %d 5G-S-TMSI 0x%012x queued", ueId, sTmsi)
	return nil
}

// IsPagingOpportunity returns the encoded Paging message to send at tti, if
// any UE has its paging occasion there.
func (c *RRCContext) IsPagingOpportunity(tti uint32) ([]byte, bool) {
	due := c.Paging.Due(tti)
	if len(due) == 0 {
		return nil, false
	}
	if c.Lower.Codec == nil {
		logger.PagingLog.Errorln("no codec to encode Paging")
		return nil, false
	}
	payload, err := c.Lower.Codec.EncodePaging(due)
	if err != nil {
		logger.PagingLog.Errorf("encode Paging failed: %+v", err)
		return nil, false
	}
	return payload, true
}

func (c *RRCContext) ReadPduBcch(sibIdx uint32) ([]byte, bool) {
	return c.Sibs.Read(sibIdx)
}

func (c *RRCContext) GenerateSibs() error {
	return c.Sibs.Generate(c.Now())
}

// GetMetrics takes a snapshot of every session. Only fields that other
// goroutines may read are used.
func (c *RRCContext) GetMetrics() metrics.Snapshot {
	s := metrics.Snapshot{
		PagingBacklog: c.Paging.Len(),
		QueueDepth:    len(c.RcvEventCh),
		Pools: []metrics.PoolSnapshot{
			{Name: c.SrPool.Name(), Used: c.SrPool.Used(), Capacity: c.SrPool.Capacity()},
			{Name: c.CqiPool.Name(), Used: c.CqiPool.Used(), Capacity: c.CqiPool.Capacity()},
		},
	}
	c.UeMu.Lock()
	defer c.UeMu.Unlock()
	for rnti, ue := range c.UePool {
		s.Ues = append(s.Ues, metrics.UeSnapshot{
			Rnti:        rnti,
			RanUeNgapId: ue.RanUeNgapId,
			State:       ue.State().String(),
			NofDrbs:     ue.NofDrbs(),
			Handover:    ue.HandoverActive(),
		})
	}
	return s
}

// PublishMetrics exports the current snapshot.
func (c *RRCContext) PublishMetrics() {
	if c.Metrics == nil {
		return
	}
	c.Metrics.Update(c.GetMetrics(), StateNames())
}

func StateNames() []string {
	names := make([]string, 0, nofUeStates)
	for s := UeStateIdle; s < nofUeStates; s++ {
		names = append(names, s.String())
	}
	return names
}

// NewGnbAmf registers the AMF behind sctpAddr, replacing any previous
// association with the same address.
func (c *RRCContext) NewGnbAmf(sctpAddr string, conn AmfConn) *GnbAmf {
	amf := NewGnbAmf(sctpAddr, conn)
	if old, loaded := c.AmfPool.Swap(sctpAddr, amf); loaded {
		logger.CtxLog.Warnf("NGAP association with AMF[%s] replaced", sctpAddr)
		amf.NgapUeList = old.(*GnbAmf).NgapUeList
		for _, ue := range amf.NgapUeList {
			ue.AMF = amf
		}
	}
	return amf
}

func (c *RRCContext) AMFPoolLoad(sctpAddr string) (*GnbAmf, bool) {
	amf, ok := c.AmfPool.Load(sctpAddr)
	if ok {
		return amf.(*GnbAmf), ok
	} else {
		return nil, ok
	}
}

func (c *RRCContext) DeleteGnbAmf(sctpAddr string) {
	c.AmfPool.Delete(sctpAddr)
}

// AMFSelection picks the AMF for a new UE: the one whose GUAMI matches the
// AMF Set ID and Pointer of the 5G-S-TMSI if there is one, else the first
// AMF that is not overloaded.
func (c *RRCContext) AMFSelection(sTmsi uint64) *GnbAmf {
	var match, fallback, overloaded *GnbAmf
	setId := uint16(sTmsi>>38) & 0x3ff
	pointer := uint8(sTmsi>>32) & 0x3f
	c.AmfPool.Range(func(_, v any) bool {
		amf := v.(*GnbAmf)
		switch {
		case amf.Overloaded():
			if overloaded == nil {
				overloaded = amf
			}
		case sTmsi != 0 && amf.ServesAmfSetAndPointer(setId, pointer):
			match = amf
			return false
		case fallback == nil:
			fallback = amf
		}
		return true
	})
	switch {
	case match != nil:
		return match
	case fallback != nil:
		return fallback
	default:
		return overloaded
	}
}

// FindNgapUe looks the UE up across every AMF association.
func (c *RRCContext) FindNgapUe(ranUeNgapId int64) (*NgapUe, bool) {
	var found *NgapUe
	c.AmfPool.Range(func(_, v any) bool {
		found = v.(*GnbAmf).FindUeByRanUeNgapID(ranUeNgapId)
		return found == nil
	})
	return found, found != nil
}

// NeighbourGnb resolves the node serving a neighbour PCI.
func (c *RRCContext) NeighbourGnb(pci uint16) (NeighbourGnb, bool) {
	for _, n := range c.NfInfo.Neighbours {
		if n.Pci == pci {
			return n, true
		}
	}
	return NeighbourGnb{}, false
}

func (c *RRCContext) AMFReInitAvailableListLoad(sctpAddr string) (bool, bool) {
	flag, ok := c.AmfReInitAvailableList.Load(sctpAddr)
	if ok {
		return flag.(bool), ok
	} else {
		return true, ok
	}
}

func (c *RRCContext) AMFReInitAvailableListStore(sctpAddr string, flag bool) {
	c.AmfReInitAvailableList.Store(sctpAddr, flag)
}

func (c *RRCContext) DeleteUPFUDPAddr(upfAddr string) {
	c.UpfUDPAddrs.Delete(upfAddr)
}

func (c *RRCContext) UPFUDPAddrLoad(upfAddr string) (*net.UDPAddr, bool) {
	addr, ok := c.UpfUDPAddrs.Load(upfAddr)
	if ok {
		return addr.(*net.UDPAddr), ok
	} else {
		return nil, ok
	}
}

func (c *RRCContext) UPFUDPAddrStore(upfAddr string, addr *net.UDPAddr) {
	c.UpfUDPAddrs.Store(upfAddr, addr)
}

// NewTEID allocates a local TEID for a data radio bearer.
func (c *RRCContext) NewTEID(ep TunnelEndpoint) (uint32, error) {
	teid64, err := c.TeidGenerator.Allocate()
	if err != nil {
		return 0, fmt.Errorf("new TEID failed: %+v", err)
	}
	teid32 := uint32(teid64)
	c.AllocatedUeTeid.Store(teid32, ep)
	return teid32, nil
}

func (c *RRCContext) DeleteTEID(teid uint32) {
	if _, ok := c.AllocatedUeTeid.LoadAndDelete(teid); ok {
		c.TeidGenerator.FreeID(int64(teid))
	}
}

func (c *RRCContext) AllocatedUETEIDLoad(teid uint32) (TunnelEndpoint, bool) {
	ep, ok := c.AllocatedUeTeid.Load(teid)
	if ok {
		return ep.(TunnelEndpoint), ok
	} else {
		return TunnelEndpoint{}, ok
	}
}

// AllocatedUETEIDStore points an allocated TEID at another bearer, used when
// the RNTI of a UE changes.
func (c *RRCContext) AllocatedUETEIDStore(teid uint32, ep TunnelEndpoint) {
	c.AllocatedUeTeid.Store(teid, ep)
}
