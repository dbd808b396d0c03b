// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"testing"
	"time"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reestRequest(crnti, pci uint16, cause message.ReestablishmentCause) *message.UlMessage {
	return &message.UlMessage{
		Kind:            message.UlReestablishmentRequest,
		Reestablishment: &message.ReestablishmentRequest{CRnti: crnti, Pci: pci, Cause: cause},
	}
}

func TestReestablishmentRestoresContext(t *testing.T) {
	e := newTestEnv(t)
	ue := e.connect(t, 0x46)
	ranUeNgapId := ue.RanUeNgapId
	root := ue.Security.Keys().Root
	rrcInt := ue.Security.Keys().RrcInt
	erab := ue.Erabs[1]
	sr := ue.Sr

	e.advance(5 * time.Second)
	HandleEvent(e.c, context.NewAddUserEvt(0x50))
	e.trace = nil
	e.ul(0x50, context.LcidSrb0, reestRequest(0x46, servingPci, message.ReestOtherFailure))

	_, ok := e.c.UePoolLoad(0x46)
	assert.False(t, ok)
	// SRB1 ciphering starts only once the RRCReestablishment is out
	assert.Equal(t, []string{
		"keys:1", "integrity:1", "RRCReestablishment", "ciphering:1",
		"keys:2", "integrity:2", "ciphering:2",
		"keys:4", "ciphering:4",
		"RRCReconfiguration",
	}, e.trace)
	got := e.ue(t, 0x50)
	assert.Same(t, ue, got)
	assert.Equal(t, uint16(0x50), got.Rnti)
	assert.Equal(t, ranUeNgapId, got.RanUeNgapId)
	byId, ok := e.c.FindByRanUeNgapId(ranUeNgapId)
	require.True(t, ok)
	assert.Same(t, ue, byId)

	assert.Equal(t, root, got.Security.Keys().Root)
	assert.Equal(t, rrcInt, got.Security.Keys().RrcInt)
	assert.Same(t, erab, got.Erabs[1])
	assert.Same(t, sr, got.Sr)
	assert.Equal(t, 1, e.c.SrPool.Used(), "no second SR for the same UE")

	assert.Equal(t, [][2]uint16{{0x50, 0x46}}, e.mac.updated)
	assert.Contains(t, e.rlc.reest, uint16(0x50))
	assert.Contains(t, e.gtpu.tunnels, sdu{0x50, 4})
	assert.Contains(t, e.pdcp.secured, sdu{0x50, context.LcidSrb1})

	kinds := e.dlKinds()
	assert.Equal(t, []message.DlKind{message.DlReestablishment, message.DlReconfiguration}, kinds[len(kinds)-2:])
	reconf := e.lastDl().Reconfiguration
	assert.True(t, reconf.FullConfig)
	assert.Len(t, reconf.Drbs, 1)
	assert.Equal(t, context.UeStateWaitReconfigComplete, got.State())

	e.ul(0x50, context.LcidSrb1, &message.UlMessage{Kind: message.UlReestablishmentComplete})
	e.completeReconfiguration(t, got)
	assert.Equal(t, context.UeStateConnected, got.State())
	assert.Len(t, e.core.ctxtComplete, 1)
	assert.Empty(t, e.core.userRelease)
}

func TestReestablishmentRejected(t *testing.T) {
	tests := []struct {
		name  string
		req   *message.UlMessage
		setup func(e *testEnv, old *context.RrcUe)
	}{
		{
			name: "invalid cause",
			req:  reestRequest(0x46, servingPci, message.ReestSpare),
		},
		{
			name: "other cell",
			req:  reestRequest(0x46, servingPci+1, message.ReestReconfigurationFailure),
		},
		{
			name: "unknown C-RNTI",
			req:  reestRequest(0x99, servingPci, message.ReestOtherFailure),
		},
		{
			name: "context expired",
			req:  reestRequest(0x46, servingPci, message.ReestOtherFailure),
			setup: func(e *testEnv, _ *context.RrcUe) {
				e.advance(31 * time.Second)
			},
		},
		{
			name: "handover in progress",
			req:  reestRequest(0x46, servingPci, message.ReestHandoverFailure),
			setup: func(e *testEnv, old *context.RrcUe) {
				e.ul(old.Rnti, context.LcidSrb1, &message.UlMessage{
					Kind: message.UlMeasurementReport,
					Measurement: &message.MeasurementReport{
						ServingRsrp: -110,
						Neighbours:  []message.NeighbourResult{{Pci: 2, Rsrp: -90}},
					},
				})
				require.True(t, old.HandoverActive())
			},
		},
		{
			name: "radio link failure already reported",
			req:  reestRequest(0x46, servingPci, message.ReestOtherFailure),
			setup: func(e *testEnv, old *context.RrcUe) {
				e.marker(old.Rnti, context.LcidRlfUser, context.CauseRadioConnectionLost)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			old := e.connect(t, 0x46)
			if tc.setup != nil {
				tc.setup(e, old)
			}
			state := old.State()
			root := old.Security.Keys().Root

			HandleEvent(e.c, context.NewAddUserEvt(0x50))
			e.ul(0x50, context.LcidSrb0, tc.req)

			assert.Equal(t, message.DlReject, e.lastDl().Kind)
			assert.Equal(t, sdu{0x50, context.LcidSrb0}, e.rlc.sdus[len(e.rlc.sdus)-1])
			_, ok := e.c.UePoolLoad(0x50)
			assert.False(t, ok, "temporary session removed")

			kept := e.ue(t, 0x46)
			assert.Same(t, old, kept)
			assert.Equal(t, state, kept.State())
			assert.Equal(t, root, kept.Security.Keys().Root)
			assert.Empty(t, e.mac.updated)
		})
	}
}

func TestReestablishmentOnlyFromIdle(t *testing.T) {
	e := newTestEnv(t)
	e.connect(t, 0x46)
	e.ul(0x50, context.LcidSrb0, &message.UlMessage{
		Kind:         message.UlSetupRequest,
		SetupRequest: &message.SetupRequest{},
	})
	sent := len(e.codec.sent)

	e.ul(0x50, context.LcidSrb0, reestRequest(0x46, servingPci, message.ReestOtherFailure))
	assert.Len(t, e.codec.sent, sent)
	assert.Equal(t, context.UeStateWaitSetupComplete, e.ue(t, 0x50).State())
	assert.Equal(t, context.UeStateConnected, e.ue(t, 0x46).State())
}
