// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"testing"
	"time"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/metrics"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func measurement(servingRsrp int, neighbours ...message.NeighbourResult) *message.UlMessage {
	return &message.UlMessage{
		Kind:        message.UlMeasurementReport,
		Measurement: &message.MeasurementReport{MeasId: 1, ServingRsrp: servingRsrp, Neighbours: neighbours},
	}
}

func TestHandoverTrigger(t *testing.T) {
	tests := []struct {
		name    string
		report  *message.UlMessage
		trigger bool
	}{
		{"below offset", measurement(-100, message.NeighbourResult{Pci: 2, Rsrp: -97}), false},
		{"not a neighbour", measurement(-100, message.NeighbourResult{Pci: 9, Rsrp: -80}), false},
		{"no neighbour", measurement(-100), false},
		{"best neighbour wins", measurement(-100,
			message.NeighbourResult{Pci: 9, Rsrp: -80},
			message.NeighbourResult{Pci: 3, Rsrp: -90}), false},
		{"above offset", measurement(-100,
			message.NeighbourResult{Pci: 2, Rsrp: -99},
			message.NeighbourResult{Pci: 3, Rsrp: -96}), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			ue := e.connect(t, 5)
			e.ul(5, context.LcidSrb1, tc.report)
			if !tc.trigger {
				assert.Nil(t, ue.Mobility)
				assert.Empty(t, e.core.hoRequired)
				return
			}
			require.NotNil(t, ue.Mobility)
			assert.Equal(t, context.HoStateAwaitingTarget, ue.Mobility.State())
			assert.Equal(t, []uint16{3}, e.core.hoRequired)
			assert.True(t, ue.HandoverActive())
		})
	}
}

func TestHandoverCompletes(t *testing.T) {
	e := newTestEnv(t)
	reg := prometheus.NewRegistry()
	e.c.Metrics = metrics.NewCollector(reg)
	ue := e.connect(t, 5)

	e.ul(5, context.LcidSrb1, measurement(-100, message.NeighbourResult{Pci: 2, Rsrp: -90}))
	// a second report while preparing changes nothing
	e.ul(5, context.LcidSrb1, measurement(-100, message.NeighbourResult{Pci: 3, Rsrp: -85}))
	assert.Equal(t, []uint16{2}, e.core.hoRequired)

	require.NoError(t, e.c.HoPreparationComplete(5, true, []byte{0xaa, 0xbb}))
	e.drain()
	assert.Equal(t, context.HoStateExecuting, ue.Mobility.State())
	assert.Equal(t, message.DlHandoverCommand, e.lastDl().Kind)
	assert.Equal(t, []byte{0xaa, 0xbb}, e.lastDl().RawPayload)

	// the target took over, the core releases the source side
	require.NoError(t, e.c.ReleaseComplete(5))
	e.drain()
	assert.Equal(t, 0, e.c.GetNofUsers())
	assert.Empty(t, e.core.hoCancel)
	assert.Equal(t, 1, e.core.releaseComplete)
	n, err := testutil.GatherAndCount(reg, "gnbrrc_mobility_handovers_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandoverPreparationFailureKeepsSession(t *testing.T) {
	e := newTestEnv(t)
	ue := e.connect(t, 5)
	root := ue.Security.Keys().Root

	e.ul(5, context.LcidSrb1, measurement(-100, message.NeighbourResult{Pci: 2, Rsrp: -90}))
	HandleEvent(e.c, context.NewHoPrepCompleteEvt(5, false, nil))

	assert.Nil(t, ue.Mobility)
	assert.False(t, ue.HandoverActive())
	assert.Equal(t, context.UeStateConnected, ue.State())
	assert.Len(t, ue.Erabs, 1)
	assert.Equal(t, root, ue.Security.Keys().Root)
	assert.Empty(t, e.core.hoCancel)
	assert.Equal(t, 1, e.c.SrPool.Used())

	// a later report may start a new attempt
	e.ul(5, context.LcidSrb1, measurement(-100, message.NeighbourResult{Pci: 2, Rsrp: -90}))
	assert.NotNil(t, ue.Mobility)
}

func TestHandoverExecutionTimeout(t *testing.T) {
	e := newTestEnv(t)
	ue := e.connect(t, 5)
	e.ul(5, context.LcidSrb1, measurement(-100, message.NeighbourResult{Pci: 2, Rsrp: -90}))
	HandleEvent(e.c, context.NewHoPrepCompleteEvt(5, true, []byte{0x01}))
	require.Equal(t, context.HoStateExecuting, ue.Mobility.State())

	e.advance(time.Second)
	assert.Equal(t, 0, e.c.Tick())
	e.advance(2 * time.Second)
	assert.Equal(t, 1, e.c.Tick())
	e.drain()

	assert.Nil(t, ue.Mobility)
	assert.Equal(t, []context.ReleaseCause{context.CauseHandoverFailure}, e.core.hoCancel)
	assert.Equal(t, context.UeStateConnected, ue.State())
	assert.Len(t, ue.Drbs, 1)
}

func TestHoPrepCompleteWithoutHandover(t *testing.T) {
	e := newTestEnv(t)
	ue := e.connect(t, 5)
	sent := len(e.codec.sent)
	HandleEvent(e.c, context.NewHoPrepCompleteEvt(5, true, []byte{0x01}))
	assert.Nil(t, ue.Mobility)
	assert.Len(t, e.codec.sent, sent)
}
