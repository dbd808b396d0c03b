// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"errors"
	"testing"
	"time"

	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagingCodec struct {
	records [][]message.PagingRecord
	err     error
}

func (p *pagingCodec) DecodeUl(uint32, []byte) (*message.UlMessage, error) { return nil, nil }
func (p *pagingCodec) EncodeDl(*message.DlMessage) ([]byte, error)         { return nil, nil }
func (p *pagingCodec) EncodePaging(r []message.PagingRecord) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.records = append(p.records, r)
	return []byte{byte(len(r))}, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testCfg() RrcCfg {
	return RrcCfg{
		InactivityTimeout: 30 * time.Second,
		EventQueueLen:     16,
		MaxUsers:          4,
		Sr:                PucchCfg{Periods: []uint32{10}, NofPrb: 1, SfMapping: []uint32{0, 1}, Capacity: 2},
		Cqi:               PucchCfg{Periods: []uint32{40}, NofPrb: 1, SfMapping: []uint32{0}, Capacity: 2},
		Paging:            PagingCfg{DefaultPagingCycle: 32, Nb: 32, MaxPendingRecords: 2},
		Sibs:              [][]byte{{0x01, 0x02}, {0x03}},
	}
}

func newTestContext(t *testing.T) (*RRCContext, *clock) {
	t.Helper()
	clk := &clock{t: time.Unix(1700000000, 0)}
	c := &RRCContext{Now: clk.now}
	require.NoError(t, c.Init(testCfg(), LowerLayers{Codec: &pagingCodec{}}))
	return c, clk
}

func drain(c *RRCContext) []*RrcPduEvt {
	var out []*RrcPduEvt
	for {
		select {
		case evt := <-c.RcvEventCh:
			if pdu, ok := evt.(*RrcPduEvt); ok {
				out = append(out, pdu)
			}
		default:
			return out
		}
	}
}

func TestRegistry(t *testing.T) {
	c, _ := newTestContext(t)

	ue, err := c.NewUe(0x46)
	require.NoError(t, err)
	_, err = c.NewUe(0x46)
	require.ErrorIs(t, err, ErrUeExists)

	got, ok := c.FindByRanUeNgapId(ue.RanUeNgapId)
	require.True(t, ok)
	assert.Same(t, ue, got)

	_, err = c.NewUe(0x47)
	require.NoError(t, err)
	require.NoError(t, c.RekeyUe(0x46, 0x50))
	_, ok = c.UePoolLoad(0x46)
	assert.False(t, ok)
	got, ok = c.FindByRanUeNgapId(ue.RanUeNgapId)
	require.True(t, ok)
	assert.Equal(t, uint16(0x50), got.Rnti)
	require.ErrorIs(t, c.RekeyUe(0x50, 0x47), ErrUeExists)

	assert.True(t, c.DeleteUe(0x50))
	assert.False(t, c.DeleteUe(0x50))
	_, ok = c.FindByRanUeNgapId(ue.RanUeNgapId)
	assert.False(t, ok)
	assert.Equal(t, 1, c.GetNofUsers())
}

func TestRegistryMaxUsers(t *testing.T) {
	c, _ := newTestContext(t)
	for rnti := uint16(1); rnti <= 4; rnti++ {
		_, err := c.NewUe(rnti)
		require.NoError(t, err)
	}
	_, err := c.NewUe(5)
	require.ErrorIs(t, err, ErrMaxUsers)
}

func TestTickQueuesInactiveUe(t *testing.T) {
	c, clk := newTestContext(t)
	idle, err := c.NewUe(5)
	require.NoError(t, err)
	active, err := c.NewUe(6)
	require.NoError(t, err)

	clk.advance(31 * time.Second)
	active.Touch(clk.now())

	assert.Equal(t, 1, c.Tick())
	// the sweep never removes by itself
	assert.Equal(t, 2, c.GetNofUsers())
	_, ok := c.UePoolLoad(5)
	assert.True(t, ok)

	markers := drain(c)
	require.Len(t, markers, 1)
	assert.Equal(t, uint16(5), markers[0].Rnti)
	assert.Equal(t, LcidRemUser, markers[0].Lcid)
	assert.Equal(t, CauseUserInactivity, markers[0].Cause)

	// not queued twice while the first marker is pending
	assert.Equal(t, 0, c.Tick())
	idle.ClearRemovalQueued()
	assert.Equal(t, 1, c.Tick())
}

func TestTickHandoverDeadline(t *testing.T) {
	c, clk := newTestContext(t)
	ue, err := c.NewUe(9)
	require.NoError(t, err)
	ue.SetHoDeadline(clk.now().Add(time.Second))

	assert.Equal(t, 0, c.Tick())
	clk.advance(2 * time.Second)
	ue.Touch(clk.now())
	assert.Equal(t, 1, c.Tick())
	markers := drain(c)
	require.Len(t, markers, 1)
	assert.Equal(t, LcidHoTimeout, markers[0].Lcid)
	assert.Equal(t, 0, c.Tick(), "deadline is cleared once signalled")
}

func TestEnqueueAfterStop(t *testing.T) {
	c, _ := newTestContext(t)
	require.NoError(t, c.AddUser(1))
	c.Stop()
	require.ErrorIs(t, c.RlFailure(1), ErrStopped)

	evts := drain(c)
	require.Len(t, evts, 1)
	assert.Equal(t, LcidExit, evts[0].Lcid)
}

func TestEnqueueQueueFull(t *testing.T) {
	c, _ := newTestContext(t)
	for i := range testCfg().EventQueueLen {
		require.NoError(t, c.SetActivityUser(uint16(i)))
	}
	require.ErrorIs(t, c.SetActivityUser(99), ErrQueueFull)
}

func TestPaging(t *testing.T) {
	c, _ := newTestContext(t)
	codec := c.Lower.Codec.(*pagingCodec)

	require.NoError(t, c.AddPagingId(1, 70))
	require.NoError(t, c.AddPagingId(2, 40))
	require.ErrorIs(t, c.AddPagingId(3, 41), ErrPagingQueueFull)
	// same UE again replaces its record
	require.NoError(t, c.AddPagingId(1, 70))
	assert.Equal(t, 2, c.Paging.Len())

	// UE_ID 70: PF offset 6, PO subframe 9
	_, ok := c.IsPagingOpportunity(68)
	assert.False(t, ok)
	payload, ok := c.IsPagingOpportunity(69)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, payload)
	require.Len(t, codec.records, 1)
	assert.Equal(t, uint32(1), codec.records[0][0].UeId)
	assert.Equal(t, 1, c.Paging.Len())

	// UE_ID 40: PF offset 8, one paging cycle later still matches
	_, ok = c.IsPagingOpportunity((32+8)*10 + 9)
	assert.True(t, ok)
	assert.Equal(t, 0, c.Paging.Len())
}

func TestPagingOccasion(t *testing.T) {
	p := NewPagingQueue(PagingCfg{DefaultPagingCycle: 32, Nb: 64})
	pf, sf := p.Occasion(70)
	assert.Equal(t, uint32(6), pf)
	assert.Equal(t, uint32(4), sf)
	pf, sf = p.Occasion(40)
	assert.Equal(t, uint32(8), pf)
	assert.Equal(t, uint32(9), sf)

	p = NewPagingQueue(PagingCfg{DefaultPagingCycle: 32, Nb: 8})
	pf, sf = p.Occasion(13)
	assert.Equal(t, uint32(20), pf)
	assert.Equal(t, uint32(9), sf)
}

func TestPagingEncodeFailure(t *testing.T) {
	c, _ := newTestContext(t)
	c.Lower.Codec.(*pagingCodec).err = errors.New("boom")
	require.NoError(t, c.AddPagingId(1, 70))
	_, ok := c.IsPagingOpportunity(69)
	assert.False(t, ok)
}

func TestSibCache(t *testing.T) {
	c, _ := newTestContext(t)
	_, ok := c.ReadPduBcch(0)
	assert.False(t, ok, "nothing before the first generation")

	require.NoError(t, c.GenerateSibs())
	sib, ok := c.ReadPduBcch(1)
	require.True(t, ok)
	assert.Equal(t, []byte{0x03}, sib)
	_, ok = c.ReadPduBcch(2)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Sibs.Generation())

	failing := NewSibCache(func() ([][]byte, error) { return nil, errors.New("no SIB") })
	require.Error(t, failing.Generate(time.Now()))
	assert.Equal(t, 0, failing.Len())
}

func TestGetMetrics(t *testing.T) {
	c, _ := newTestContext(t)
	ue, err := c.NewUe(0x46)
	require.NoError(t, err)
	require.NoError(t, ue.SetState(UeStateWaitSetupComplete))
	_, _, err = ue.SetupErab(ErabSetupReq{ErabId: 1, FiveQi: 9}, QosClass{FiveQi: 9})
	require.NoError(t, err)
	e, err := c.SrPool.Allocate(10)
	require.NoError(t, err)
	ue.Sr = &e

	s := c.GetMetrics()
	require.Len(t, s.Ues, 1)
	assert.Equal(t, "WAIT FOR CON SETUP COMPLETE", s.Ues[0].State)
	assert.Equal(t, 1, s.Ues[0].NofDrbs)
	assert.Equal(t, 1, s.Pools[0].Used)
	assert.Equal(t, "SR", s.Pools[0].Name)
}

func TestInitRejectsBadPool(t *testing.T) {
	cfg := testCfg()
	cfg.Sr.Periods = []uint32{7}
	_, err := NewRRCContext(cfg, LowerLayers{})
	require.Error(t, err)
}
