// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
)

const (
	hoOutcomeCompleted = "completed"
	hoOutcomeFailed    = "failed"
)

// handleMeasurementReport starts a handover when the best neighbour is a
// configured one and beats the serving cell by the A3 offset.
func handleMeasurementReport(c *context.RRCContext, ue *context.RrcUe, msg *message.UlMessage) {
	if !ue.IsConnected() || msg.Measurement == nil {
		discard(ue, msg, "not connected")
		return
	}
	if ue.Mobility != nil {
		logger.MobLog.Debugf("RNTI 0x%x: handover already %s", ue.Rnti, ue.Mobility.State())
		return
	}
	best, ok := msg.Measurement.Best()
	if !ok {
		return
	}
	if !c.Cfg.IsNeighbour(best.Pci) {
		logger.MobLog.Debugf("RNTI 0x%x: PCI %d is not a neighbour", ue.Rnti, best.Pci)
		return
	}
	if best.Rsrp-msg.Measurement.ServingRsrp <= c.Cfg.Mobility.A3Offset {
		return
	}

	now := c.Now()
	m := context.NewMobilityCtx(ue.Rnti, best.Pci, now)
	ue.SetMobility(m)
	if err := m.Fire(context.HoEvtRequired); err != nil {
		logger.MobLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
		ue.SetMobility(nil)
		return
	}
	ue.SetHoDeadline(now.Add(c.Cfg.Mobility.ExecutionTimeout))
	c.Lower.Core.HandoverRequired(ue.Ids(), best.Pci, ue.Capabilities.Container)
}

// HandleHoPrepComplete forwards the handover command of the target or
// abandons the handover.
func HandleHoPrepComplete(c *context.RRCContext, evt *context.HoPrepCompleteEvt) {
	ue, ok := c.UePoolLoad(evt.Rnti)
	if !ok {
		logger.MobLog.DPanicf("handover preparation outcome for unknown RNTI 0x%x", evt.Rnti)
		return
	}
	m := ue.Mobility
	if m == nil || m.State() != context.HoStateAwaitingTarget {
		logger.MobLog.Warnf("RNTI 0x%x: no handover awaiting its target", ue.Rnti)
		return
	}
	if !evt.Success || len(evt.Container) == 0 {
		failHandover(c, ue, context.CauseHandoverFailure, false)
		return
	}
	if err := m.Fire(context.HoEvtCommand); err != nil {
		logger.MobLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
		failHandover(c, ue, context.CauseHandoverFailure, true)
		return
	}
	ue.SetHoDeadline(c.Now().Add(c.Cfg.Mobility.ExecutionTimeout))
	sendDl(c, ue, &message.DlMessage{Kind: message.DlHandoverCommand, RawPayload: evt.Container})
}

func handleHandoverTimeout(c *context.RRCContext, ue *context.RrcUe) {
	if ue.Mobility == nil || ue.Mobility.Finished() {
		return
	}
	logger.MobLog.Warnf("RNTI 0x%x: handover timed out in %s", ue.Rnti, ue.Mobility.State())
	failHandover(c, ue, context.CauseHandoverFailure, true)
}

// failHandover ends the handover and drops the sub-context. The session
// stays as it was before the handover started.
func failHandover(c *context.RRCContext, ue *context.RrcUe, cause context.ReleaseCause, cancel bool) {
	m := ue.Mobility
	m.Cause = cause
	if m.Can(context.HoEvtFail) {
		if err := m.Fire(context.HoEvtFail); err != nil {
			logger.MobLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
		}
	}
	if cancel {
		c.Lower.Core.HandoverCancel(ue.Ids(), cause)
	}
	ue.SetMobility(nil)
	c.Metrics.Handover(hoOutcomeFailed)
}

// completeHandover is called when the core releases the source side.
func completeHandover(c *context.RRCContext, ue *context.RrcUe) {
	m := ue.Mobility
	if !m.Can(context.HoEvtComplete) {
		failHandover(c, ue, context.CauseHandoverCancelled, false)
		return
	}
	if err := m.Fire(context.HoEvtComplete); err != nil {
		logger.MobLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
	}
	ue.SetMobility(nil)
	c.Metrics.Handover(hoOutcomeCompleted)
}
