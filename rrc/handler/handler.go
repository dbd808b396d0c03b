// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package handler runs the per-UE RRC procedures. Every function here is
// called from the RRC worker only.
package handler

import (
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
)

func HandleEvent(c *context.RRCContext, evt context.RrcEvt) {
	switch evt.Type() {
	case context.RrcPdu:
		HandleRrcPdu(c, evt.(*context.RrcPduEvt))
	case context.AddUser:
		HandleAddUser(c, evt.(*context.AddUserEvt))
	case context.UpdUser:
		HandleUpdUser(c, evt.(*context.UpdUserEvt))
	case context.SetupUeCtxt:
		HandleSetupUeCtxt(c, evt.(*context.SetupUeCtxtEvt))
	case context.ModifyUeCtxt:
		HandleModifyUeCtxt(c, evt.(*context.ModifyUeCtxtEvt))
	case context.SetupUeErabs:
		HandleSetupUeErabs(c, evt.(*context.SetupUeErabsEvt))
	case context.ReleaseErabs:
		HandleReleaseErabs(c, evt.(*context.ReleaseErabsEvt))
	case context.DlInfo:
		HandleDlInfo(c, evt.(*context.DlInfoEvt))
	case context.HoPrepComplete:
		HandleHoPrepComplete(c, evt.(*context.HoPrepCompleteEvt))
	default:
		logger.RrcLog.Errorf("undefined RRC event type %d", evt.Type())
	}
}

// HandleRrcPdu processes either a control marker or an uplink message of a
// signalling bearer.
func HandleRrcPdu(c *context.RRCContext, evt *context.RrcPduEvt) {
	if context.IsControlLcid(evt.Lcid) {
		handleControl(c, evt)
		return
	}

	msg := evt.Msg
	if msg == nil {
		var err error
		msg, err = c.Lower.Codec.DecodeUl(evt.Lcid, evt.Pdu)
		if err != nil {
			logger.RrcLog.Warnf("RNTI 0x%x LCID %d: discarding undecodable PDU: %+v", evt.Rnti, evt.Lcid, err)
			return
		}
	}

	ue, ok := c.UePoolLoad(evt.Rnti)
	if !ok {
		// a connection request may arrive before MAC announced the UE
		if evt.Lcid != context.LcidSrb0 ||
			(msg.Kind != message.UlSetupRequest && msg.Kind != message.UlReestablishmentRequest) {
			logger.RrcLog.Warnf("%s from unknown RNTI 0x%x discarded", msg.Kind, evt.Rnti)
			return
		}
		if ue, ok = createUe(c, evt.Rnti); !ok {
			return
		}
	}
	ue.Touch(c.Now())

	if !lcidMatches(evt.Lcid, msg.Kind) {
		discard(ue, msg, "wrong logical channel")
		return
	}

	switch msg.Kind {
	case message.UlSetupRequest:
		handleSetupRequest(c, ue, msg)
	case message.UlReestablishmentRequest:
		handleReestablishmentRequest(c, ue, msg)
	case message.UlSetupComplete:
		handleSetupComplete(c, ue, msg)
	case message.UlSecurityModeComplete:
		handleSecurityModeComplete(c, ue, msg)
	case message.UlSecurityModeFailure:
		handleSecurityModeFailure(c, ue)
	case message.UlCapabilityInformation:
		handleCapabilityInformation(c, ue, msg)
	case message.UlReconfigurationComplete:
		handleReconfigurationComplete(c, ue, msg)
	case message.UlReestablishmentComplete:
		handleReestablishmentComplete(c, ue, msg)
	case message.UlInformationTransfer:
		handleUlInformationTransfer(c, ue, msg)
	case message.UlMeasurementReport:
		handleMeasurementReport(c, ue, msg)
	default:
		discard(ue, msg, "unsupported message")
	}
}

func lcidMatches(lcid uint32, kind message.UlKind) bool {
	switch kind {
	case message.UlSetupRequest, message.UlReestablishmentRequest:
		return lcid == context.LcidSrb0
	default:
		return lcid == context.LcidSrb1 || lcid == context.LcidSrb2
	}
}

// discard drops a message that is not valid for the session right now. The
// session is left untouched.
func discard(ue *context.RrcUe, msg *message.UlMessage, reason string) {
	logger.RrcLog.Warnf("RNTI 0x%x: %s discarded in state %s: %s", ue.Rnti, msg.Kind, ue.State(), reason)
}

func handleControl(c *context.RRCContext, evt *context.RrcPduEvt) {
	if evt.Lcid == context.LcidExit {
		logger.RrcLog.Debugln("exit marker reached the handler")
		return
	}
	ue, ok := c.UePoolLoad(evt.Rnti)
	if !ok {
		logger.RrcLog.DPanicf("control marker 0x%x for unknown RNTI 0x%x", evt.Lcid, evt.Rnti)
		return
	}

	switch evt.Lcid {
	case context.LcidRemUser:
		handleRemUser(c, ue, evt.Cause)
	case context.LcidRelUser:
		handleRelUser(c, ue)
	case context.LcidRlfUser:
		handleRadioLinkFailure(c, ue, evt.Cause)
	case context.LcidActUser:
		ue.Touch(c.Now())
	case context.LcidHoTimeout:
		handleHandoverTimeout(c, ue)
	default:
		logger.RrcLog.Errorf("undefined control marker 0x%x", evt.Lcid)
	}
}

func handleRemUser(c *context.RRCContext, ue *context.RrcUe, cause context.ReleaseCause) {
	if cause == context.CauseUserInactivity {
		ue.ClearRemovalQueued()
		// activity may have been reported after the sweep queued the marker
		if ue.IdleFor(c.Now()) <= c.Cfg.InactivityTimeout {
			logger.RrcLog.Debugf("RNTI 0x%x active again, removal cancelled", ue.Rnti)
			return
		}
		releaseUe(c, ue, cause)
		return
	}
	removeUe(c, ue, cause)
}

// handleRelUser answers the release command of the core network.
func handleRelUser(c *context.RRCContext, ue *context.RrcUe) {
	if ue.Mobility != nil {
		completeHandover(c, ue)
	}
	sendRelease(c, ue)
	if err := ue.SetState(context.UeStateReleaseRequested); err != nil {
		logger.RrcLog.Errorf("%+v", err)
	}
	if ue.CoreAttached {
		c.Lower.Core.ReleaseComplete(ue.Ids())
	}
	ue.CoreNotified = true
	removeUe(c, ue, context.CauseNormalRelease)
}

// handleRadioLinkFailure asks the core network to release the UE on the
// first failure. A UE the core never learned about is removed at once.
func handleRadioLinkFailure(c *context.RRCContext, ue *context.RrcUe, cause context.ReleaseCause) {
	ue.RlfCount++
	logger.RrcLog.Infof("RNTI 0x%x radio link failure #%d (%s)", ue.Rnti, ue.RlfCount, cause)
	if ue.RlfCount > 1 {
		return
	}
	if !ue.CoreAttached {
		removeUe(c, ue, cause)
		return
	}
	if !ue.CoreNotified {
		c.Lower.Core.UserRelease(ue.Ids(), cause)
		ue.CoreNotified = true
	}
}
