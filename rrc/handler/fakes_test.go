// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/security"
	"github.com/stretchr/testify/require"
)

type fakeMac struct {
	cfgs    map[uint16]context.UeMacCfg
	removed []uint16
	updated [][2]uint16
	err     error
}

func (m *fakeMac) UeCfg(rnti uint16, cfg context.UeMacCfg) error {
	if m.err != nil {
		return m.err
	}
	m.cfgs[rnti] = cfg
	return nil
}

func (m *fakeMac) UeRem(rnti uint16) {
	delete(m.cfgs, rnti)
	m.removed = append(m.removed, rnti)
}

func (m *fakeMac) UpdUser(newRnti, oldRnti uint16) error {
	m.updated = append(m.updated, [2]uint16{newRnti, oldRnti})
	m.cfgs[newRnti] = m.cfgs[oldRnti]
	delete(m.cfgs, oldRnti)
	return nil
}

func (m *fakeMac) PhyConfigEnabled(uint16, bool) {}

type sdu struct {
	rnti uint16
	lcid uint32
}

type fakeRlc struct {
	bearers map[sdu]message.RlcMode
	sdus    []sdu
	reest   []uint16
}

func (r *fakeRlc) AddUser(rnti uint16) { r.bearers[sdu{rnti, context.LcidSrb0}] = message.RlcAm }
func (r *fakeRlc) RemUser(rnti uint16) {
	for k := range r.bearers {
		if k.rnti == rnti {
			delete(r.bearers, k)
		}
	}
}

func (r *fakeRlc) AddBearer(rnti uint16, lcid uint32, mode message.RlcMode) {
	r.bearers[sdu{rnti, lcid}] = mode
}
func (r *fakeRlc) DelBearer(rnti uint16, lcid uint32)      { delete(r.bearers, sdu{rnti, lcid}) }
func (r *fakeRlc) WriteSdu(rnti uint16, lcid uint32, _ []byte) { r.sdus = append(r.sdus, sdu{rnti, lcid}) }
func (r *fakeRlc) Reestablish(rnti uint16)                   { r.reest = append(r.reest, rnti) }
func (r *fakeRlc) UpdUser(newRnti, oldRnti uint16) {
	for k, v := range r.bearers {
		if k.rnti == oldRnti {
			delete(r.bearers, k)
			r.bearers[sdu{newRnti, k.lcid}] = v
		}
	}
}

type fakePdcp struct {
	bearers   map[sdu]bool
	sdus      []sdu
	secured   map[sdu]security.AsConfig
	nofConfig int
	trace     *[]string
}

func (p *fakePdcp) ConfigSecurity(rnti uint16, lcid uint32, cfg security.AsConfig) {
	p.secured[sdu{rnti, lcid}] = cfg
	p.nofConfig++
	*p.trace = append(*p.trace, fmt.Sprintf("keys:%d", lcid))
}

func (p *fakePdcp) EnableIntegrity(_ uint16, lcid uint32) {
	*p.trace = append(*p.trace, fmt.Sprintf("integrity:%d", lcid))
}

func (p *fakePdcp) EnableEncryption(_ uint16, lcid uint32) {
	*p.trace = append(*p.trace, fmt.Sprintf("ciphering:%d", lcid))
}
func (p *fakePdcp) AddUser(uint16) {}
func (p *fakePdcp) RemUser(rnti uint16) {
	for k := range p.bearers {
		if k.rnti == rnti {
			delete(p.bearers, k)
		}
	}
}
func (p *fakePdcp) AddBearer(rnti uint16, lcid uint32) { p.bearers[sdu{rnti, lcid}] = true }
func (p *fakePdcp) DelBearer(rnti uint16, lcid uint32) { delete(p.bearers, sdu{rnti, lcid}) }
func (p *fakePdcp) WriteSdu(rnti uint16, lcid uint32, _ []byte) {
	p.sdus = append(p.sdus, sdu{rnti, lcid})
}
func (p *fakePdcp) Reestablish(uint16) {}
func (p *fakePdcp) UpdUser(newRnti, oldRnti uint16) {
	for k := range p.bearers {
		if k.rnti == oldRnti {
			delete(p.bearers, k)
			p.bearers[sdu{newRnti, k.lcid}] = true
		}
	}
}

type fakeGtpu struct {
	nextTeid   uint32
	tunnels    map[sdu]uint32
	remBearers []sdu
	err        error
}

func (g *fakeGtpu) AddBearer(rnti uint16, lcid uint32, _ net.IP, _ uint32, _ uint8) (uint32, error) {
	if g.err != nil {
		return 0, g.err
	}
	g.nextTeid++
	g.tunnels[sdu{rnti, lcid}] = g.nextTeid
	return g.nextTeid, nil
}

func (g *fakeGtpu) RemBearer(rnti uint16, lcid uint32) {
	g.remBearers = append(g.remBearers, sdu{rnti, lcid})
	delete(g.tunnels, sdu{rnti, lcid})
}

func (g *fakeGtpu) RemUser(rnti uint16) {
	for k := range g.tunnels {
		if k.rnti == rnti {
			delete(g.tunnels, k)
		}
	}
}

func (g *fakeGtpu) UpdUser(newRnti, oldRnti uint16) {
	for k, v := range g.tunnels {
		if k.rnti == oldRnti {
			delete(g.tunnels, k)
			g.tunnels[sdu{newRnti, k.lcid}] = v
		}
	}
}

type fakeCore struct {
	initialUe       []context.UeIds
	ulNas           [][]byte
	ctxtComplete    [][]context.ErabResult
	ctxtFailure     []context.ReleaseCause
	erabSetup       [][]context.ErabFailure
	erabSetupOk     [][]context.ErabResult
	erabRelease     [][]uint8
	modified        int
	userRelease     []context.ReleaseCause
	releaseComplete int
	hoRequired      []uint16
	hoCancel        []context.ReleaseCause
}

func (f *fakeCore) InitialUe(ids context.UeIds, _ message.EstablishmentCause, _ []byte, _ uint64) {
	f.initialUe = append(f.initialUe, ids)
}
func (f *fakeCore) WriteUlNas(_ context.UeIds, nas []byte) { f.ulNas = append(f.ulNas, nas) }
func (f *fakeCore) CtxtSetupComplete(_ context.UeIds, setup []context.ErabResult, _ []context.ErabFailure) {
	f.ctxtComplete = append(f.ctxtComplete, setup)
}

func (f *fakeCore) CtxtSetupFailure(_ context.UeIds, cause context.ReleaseCause) {
	f.ctxtFailure = append(f.ctxtFailure, cause)
}

func (f *fakeCore) ErabSetupResponse(_ context.UeIds, setup []context.ErabResult, failed []context.ErabFailure) {
	f.erabSetupOk = append(f.erabSetupOk, setup)
	f.erabSetup = append(f.erabSetup, failed)
}

func (f *fakeCore) ErabReleaseResponse(_ context.UeIds, released []uint8) {
	f.erabRelease = append(f.erabRelease, released)
}
func (f *fakeCore) CtxtModifyResponse(context.UeIds) { f.modified++ }
func (f *fakeCore) UserRelease(_ context.UeIds, cause context.ReleaseCause) {
	f.userRelease = append(f.userRelease, cause)
}
func (f *fakeCore) ReleaseComplete(context.UeIds) { f.releaseComplete++ }
func (f *fakeCore) HandoverRequired(_ context.UeIds, pci uint16, _ []byte) {
	f.hoRequired = append(f.hoRequired, pci)
}

func (f *fakeCore) HandoverCancel(_ context.UeIds, cause context.ReleaseCause) {
	f.hoCancel = append(f.hoCancel, cause)
}

type fakeCodec struct {
	sent      []*message.DlMessage
	decoded   *message.UlMessage
	decodeErr error
	trace     *[]string
}

func (f *fakeCodec) DecodeUl(uint32, []byte) (*message.UlMessage, error) {
	if f.decodeErr != nil {
		return nil, f.decodeErr
	}
	return f.decoded, nil
}

func (f *fakeCodec) EncodeDl(msg *message.DlMessage) ([]byte, error) {
	f.sent = append(f.sent, msg)
	*f.trace = append(*f.trace, msg.Kind.String())
	return []byte{byte(msg.Kind), msg.TransactionId}, nil
}

func (f *fakeCodec) EncodePaging([]message.PagingRecord) ([]byte, error) {
	return nil, errors.New("not used")
}

type testEnv struct {
	c     *context.RRCContext
	now   time.Time
	mac   *fakeMac
	rlc   *fakeRlc
	pdcp  *fakePdcp
	gtpu  *fakeGtpu
	core  *fakeCore
	codec *fakeCodec
	// PDCP security calls and encoded DL messages, in order
	trace []string
}

var (
	testKey  = []byte("0123456789abcdef0123456789abcdef")
	testCaps = security.Capabilities{Ciphering: 0xc000, Integrity: 0xc000}
	upfAddr  = net.IPv4(10, 100, 200, 1)
)

const servingPci = 1

func testCfg() context.RrcCfg {
	return context.RrcCfg{
		Cell:              context.CellInfo{Pci: servingPci},
		InactivityTimeout: 30 * time.Second,
		EventQueueLen:     32,
		MaxUsers:          8,
		Security: security.Preferences{
			Ciphering: []security.CipheringAlgorithm{security.NEA2, security.NEA1},
			Integrity: []security.IntegrityAlgorithm{security.NIA2, security.NIA1},
		},
		Sr:  context.PucchCfg{Periods: []uint32{10}, NofPrb: 1, SfMapping: []uint32{0, 1}, Capacity: 2},
		Cqi: context.PucchCfg{Periods: []uint32{40}, NofPrb: 1, SfMapping: []uint32{0}, Capacity: 2},
		Qos: map[int64]context.QosClass{
			9: {FiveQi: 9, RlcMode: message.RlcAm, Priority: 11, PrioritisedBitRate: 8},
			1: {FiveQi: 1, RlcMode: message.RlcUmBidirectional, Priority: 6},
		},
		Paging: context.PagingCfg{DefaultPagingCycle: 32, Nb: 32},
		Mobility: context.MobilityCfg{
			A3Offset:         3,
			ExecutionTimeout: 2 * time.Second,
			Neighbours:       []uint16{2, 3},
		},
	}
}

func newTestEnv(t *testing.T, opts ...func(*context.RrcCfg)) *testEnv {
	t.Helper()
	cfg := testCfg()
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &testEnv{
		now:   time.Unix(1700000000, 0),
		mac:   &fakeMac{cfgs: map[uint16]context.UeMacCfg{}},
		rlc:   &fakeRlc{bearers: map[sdu]message.RlcMode{}},
		pdcp:  &fakePdcp{bearers: map[sdu]bool{}, secured: map[sdu]security.AsConfig{}},
		gtpu:  &fakeGtpu{nextTeid: 0x100, tunnels: map[sdu]uint32{}},
		core:  &fakeCore{},
		codec: &fakeCodec{},
	}
	e.pdcp.trace = &e.trace
	e.codec.trace = &e.trace
	e.c = &context.RRCContext{Now: func() time.Time { return e.now }}
	require.NoError(t, e.c.Init(cfg, context.LowerLayers{
		Mac:   e.mac,
		Rlc:   e.rlc,
		Pdcp:  e.pdcp,
		Gtpu:  e.gtpu,
		Core:  e.core,
		Codec: e.codec,
	}))
	return e
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

func (e *testEnv) ul(rnti uint16, lcid uint32, msg *message.UlMessage) {
	HandleEvent(e.c, context.NewRrcPduEvt(rnti, lcid, nil, msg))
}

func (e *testEnv) marker(rnti uint16, lcid uint32, cause context.ReleaseCause) {
	HandleEvent(e.c, context.NewControlEvt(rnti, lcid, cause))
}

// drain processes every queued event the way the RRC worker does.
func (e *testEnv) drain() int {
	n := 0
	for {
		select {
		case evt := <-e.c.RcvEventCh:
			HandleEvent(e.c, evt)
			n++
		default:
			return n
		}
	}
}

func (e *testEnv) lastDl() *message.DlMessage {
	if len(e.codec.sent) == 0 {
		return nil
	}
	return e.codec.sent[len(e.codec.sent)-1]
}

func (e *testEnv) dlKinds() []message.DlKind {
	kinds := make([]message.DlKind, 0, len(e.codec.sent))
	for _, m := range e.codec.sent {
		kinds = append(kinds, m.Kind)
	}
	return kinds
}

func (e *testEnv) ue(t *testing.T, rnti uint16) *context.RrcUe {
	t.Helper()
	ue, ok := e.c.UePoolLoad(rnti)
	require.True(t, ok, "RNTI 0x%x not registered", rnti)
	return ue
}

// toSecurity drives a new UE up to the point where it waits for the
// SecurityModeComplete.
func (e *testEnv) toSecurity(t *testing.T, rnti uint16) *context.RrcUe {
	t.Helper()
	HandleEvent(e.c, context.NewAddUserEvt(rnti))
	e.ul(rnti, context.LcidSrb0, &message.UlMessage{
		Kind:         message.UlSetupRequest,
		SetupRequest: &message.SetupRequest{UeIdentity: 0x1234, Cause: message.CauseMoData},
	})
	require.Equal(t, message.DlSetup, e.lastDl().Kind)
	e.ul(rnti, context.LcidSrb1, &message.UlMessage{
		Kind:          message.UlSetupComplete,
		TransactionId: e.lastDl().TransactionId,
		SetupComplete: &message.SetupComplete{NasPdu: []byte{0x7e, 0x00, 0x41}},
	})
	ue := e.ue(t, rnti)
	require.Equal(t, context.UeStateWaitSecurityComplete, ue.State())

	HandleEvent(e.c, &context.SetupUeCtxtEvt{
		RanUeNgapId:  ue.RanUeNgapId,
		AmfUeNgapId:  100 + int64(rnti),
		SecurityKey:  testKey,
		Capabilities: testCaps,
		Erabs: []context.ErabSetupReq{
			{ErabId: 1, FiveQi: 9, Qfi: 1, UpfAddr: upfAddr, TeidOut: 0x10},
		},
		NasPdu: []byte{0x7e, 0x02},
	})
	require.Equal(t, message.DlSecurityModeCommand, e.lastDl().Kind)
	return ue
}

// connect runs the whole establishment of a UE.
func (e *testEnv) connect(t *testing.T, rnti uint16) *context.RrcUe {
	t.Helper()
	ue := e.toSecurity(t, rnti)
	e.ul(rnti, context.LcidSrb1, &message.UlMessage{
		Kind:          message.UlSecurityModeComplete,
		TransactionId: e.lastDl().TransactionId,
	})
	require.Equal(t, message.DlCapabilityEnquiry, e.lastDl().Kind)
	e.ul(rnti, context.LcidSrb1, &message.UlMessage{
		Kind:          message.UlCapabilityInformation,
		TransactionId: e.lastDl().TransactionId,
		Capability:    &message.Capability{Nr: []byte{0x01, 0x02}},
	})
	require.Equal(t, message.DlReconfiguration, e.lastDl().Kind)
	e.completeReconfiguration(t, ue)
	return ue
}

func (e *testEnv) completeReconfiguration(t *testing.T, ue *context.RrcUe) {
	t.Helper()
	require.Equal(t, message.DlReconfiguration, e.lastDl().Kind)
	e.ul(ue.Rnti, context.LcidSrb1, &message.UlMessage{
		Kind:          message.UlReconfigurationComplete,
		TransactionId: e.lastDl().TransactionId,
	})
}
