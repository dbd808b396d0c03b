// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"errors"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
)

func HandleAddUser(c *context.RRCContext, evt *context.AddUserEvt) {
	if _, ok := c.UePoolLoad(evt.Rnti); ok {
		logger.RrcLog.Warnf("RNTI 0x%x already exists", evt.Rnti)
		return
	}
	createUe(c, evt.Rnti)
}

// createUe registers a new session with SRB0 only. SRB1 and SRB2 are
// provisioned in the session and brought up in the lower layers later.
func createUe(c *context.RRCContext, rnti uint16) (*context.RrcUe, bool) {
	ue, err := c.NewUe(rnti)
	if err != nil {
		if errors.Is(err, context.ErrMaxUsers) {
			c.Metrics.Rejected()
		}
		logger.RrcLog.Warnf("create UE RNTI 0x%x: %+v", rnti, err)
		return nil, false
	}
	ue.ProvisionSrbs()
	c.Lower.Rlc.AddUser(rnti)
	c.Lower.Pdcp.AddUser(rnti)
	return ue, true
}

func handleSetupRequest(c *context.RRCContext, ue *context.RrcUe, msg *message.UlMessage) {
	if ue.State() != context.UeStateIdle || msg.SetupRequest == nil {
		discard(ue, msg, "connection already requested")
		return
	}
	ue.EstablishmentCause = msg.SetupRequest.Cause

	// SR is mandatory, CQI is not
	sr, err := c.SrPool.Allocate(c.SrPool.DefaultPeriod())
	if err != nil {
		logger.RrcLog.Warnf("RNTI 0x%x: %+v, rejecting connection", ue.Rnti, err)
		sendDl(c, ue, &message.DlMessage{Kind: message.DlReject, WaitTime: rejectWaitTime})
		c.Metrics.Rejected()
		removeUe(c, ue, context.CauseRadioResourcesUnavailable)
		return
	}
	ue.Sr = &sr
	if cqi, err := c.CqiPool.Allocate(c.CqiPool.DefaultPeriod()); err != nil {
		logger.RrcLog.Warnf("RNTI 0x%x: %+v, continuing without periodic CQI", ue.Rnti, err)
	} else {
		ue.Cqi = &cqi
	}

	c.Lower.Rlc.AddBearer(ue.Rnti, context.LcidSrb1, message.RlcAm)
	c.Lower.Pdcp.AddBearer(ue.Rnti, context.LcidSrb1)
	if err := configureMac(c, ue); err != nil {
		logger.RrcLog.Errorf("RNTI 0x%x: MAC configuration failed: %+v", ue.Rnti, err)
		sendDl(c, ue, &message.DlMessage{Kind: message.DlReject, WaitTime: rejectWaitTime})
		c.Metrics.Rejected()
		removeUe(c, ue, context.CauseRadioResourcesUnavailable)
		return
	}
	if err := ue.SetState(context.UeStateWaitSetupComplete); err != nil {
		logger.RrcLog.Errorf("%+v", err)
		return
	}
	sendDl(c, ue, &message.DlMessage{
		Kind:          message.DlSetup,
		TransactionId: ue.NextTransaction(),
		Setup: &message.Reconfiguration{
			Srbs: []uint8{1},
			Sr:   ue.Sr,
			Cqi:  ue.Cqi,
		},
	})
}

func handleSetupComplete(c *context.RRCContext, ue *context.RrcUe, msg *message.UlMessage) {
	if ue.State() != context.UeStateWaitSetupComplete || msg.SetupComplete == nil {
		discard(ue, msg, "no RRCSetup pending")
		return
	}
	if !ue.CompleteTransaction(msg.TransactionId) {
		discard(ue, msg, "transaction mismatch")
		return
	}
	ue.STmsi = msg.SetupComplete.STmsi
	ue.SetupCompleted = true
	if err := ue.SetState(context.UeStateWaitSecurityComplete); err != nil {
		logger.RrcLog.Errorf("%+v", err)
		return
	}
	c.Lower.Core.InitialUe(ue.Ids(), ue.EstablishmentCause, msg.SetupComplete.NasPdu, ue.STmsi)
	ue.CoreAttached = true

	// otherwise deferred until the initial context setup arrives
	if ue.Security.HasRootKey() {
		startSecurityMode(c, ue)
	}
}

// startSecurityMode selects the algorithms, derives the AS keys, turns on
// SRB1 integrity and sends the SecurityModeCommand. SRB1 stays unciphered
// until the SecurityModeComplete.
func startSecurityMode(c *context.RRCContext, ue *context.RrcUe) {
	if err := ue.Security.Negotiate(c.Cfg.Security); err != nil {
		logger.SecLog.Warnf("RNTI 0x%x: %+v", ue.Rnti, err)
		failSecurity(c, ue)
		return
	}
	if err := ue.Security.DeriveKeys(); err != nil {
		logger.SecLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
		failSecurity(c, ue)
		return
	}
	if _, err := ue.Security.ActivateSignaling(c.Lower.Pdcp, ue.Rnti, context.LcidSrb1); err != nil {
		logger.SecLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
		failSecurity(c, ue)
		return
	}
	sendDl(c, ue, &message.DlMessage{
		Kind:          message.DlSecurityModeCommand,
		TransactionId: ue.NextTransaction(),
		Security: &message.SecurityAlgorithms{
			Ciphering: uint8(ue.Security.Ciphering),
			Integrity: uint8(ue.Security.Integrity),
		},
	})
}

func handleSecurityModeComplete(c *context.RRCContext, ue *context.RrcUe, msg *message.UlMessage) {
	if ue.State() != context.UeStateWaitSecurityComplete || !ue.Security.SignalingActive() {
		discard(ue, msg, "no SecurityModeCommand pending")
		return
	}
	if !ue.CompleteTransaction(msg.TransactionId) {
		discard(ue, msg, "transaction mismatch")
		return
	}
	if _, err := ue.Security.StartSignalingCiphering(c.Lower.Pdcp, ue.Rnti, context.LcidSrb1); err != nil {
		logger.SecLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
		failSecurity(c, ue)
		return
	}
	if err := ue.SetState(context.UeStateWaitCapabilityInfo); err != nil {
		logger.RrcLog.Errorf("%+v", err)
		return
	}
	if ue.Capabilities.Cached {
		logger.RrcLog.Debugf("RNTI 0x%x: capabilities cached, skipping enquiry", ue.Rnti)
		sendInitialReconfiguration(c, ue)
		return
	}
	sendDl(c, ue, &message.DlMessage{
		Kind:          message.DlCapabilityEnquiry,
		TransactionId: ue.NextTransaction(),
	})
}

// handleSecurityModeFailure releases the UE whatever its state.
func handleSecurityModeFailure(c *context.RRCContext, ue *context.RrcUe) {
	logger.SecLog.Warnf("RNTI 0x%x: SecurityModeFailure in state %s", ue.Rnti, ue.State())
	failSecurity(c, ue)
}

func failSecurity(c *context.RRCContext, ue *context.RrcUe) {
	if ue.CoreAttached && !ue.CoreNotified {
		c.Lower.Core.CtxtSetupFailure(ue.Ids(), context.CauseSecurityFailure)
		ue.CoreNotified = true
	}
	releaseUe(c, ue, context.CauseSecurityFailure)
}

func handleCapabilityInformation(c *context.RRCContext, ue *context.RrcUe, msg *message.UlMessage) {
	if ue.State() != context.UeStateWaitCapabilityInfo || msg.Capability == nil {
		discard(ue, msg, "no UECapabilityEnquiry pending")
		return
	}
	if !ue.CompleteTransaction(msg.TransactionId) {
		discard(ue, msg, "transaction mismatch")
		return
	}
	ue.Capabilities = context.UeCapabilities{
		Cached: true,
		Nr:     len(msg.Capability.Nr) > 0,
		Eutra:  len(msg.Capability.Eutra) > 0,
	}
	if ue.Capabilities.Nr {
		ue.Capabilities.Container = msg.Capability.Nr
	} else {
		ue.Capabilities.Container = msg.Capability.Eutra
	}
	logger.RrcLog.Infof("RNTI 0x%x capabilities: NR %t, E-UTRA %t", ue.Rnti, ue.Capabilities.Nr, ue.Capabilities.Eutra)
	sendInitialReconfiguration(c, ue)
}

// sendInitialReconfiguration brings up SRB2 and every data bearer set up by
// the core so far.
func sendInitialReconfiguration(c *context.RRCContext, ue *context.RrcUe) {
	c.Lower.Rlc.AddBearer(ue.Rnti, context.LcidSrb2, message.RlcAm)
	c.Lower.Pdcp.AddBearer(ue.Rnti, context.LcidSrb2)
	if err := protectSrb(c, ue, ue.Rnti, context.LcidSrb2); err != nil {
		logger.SecLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
		failSecurity(c, ue)
		return
	}
	if !activateDrbs(c, ue) {
		failSecurity(c, ue)
		return
	}
	if err := configureMac(c, ue); err != nil {
		logger.RrcLog.Errorf("RNTI 0x%x: MAC configuration failed: %+v", ue.Rnti, err)
	}

	reconf := &message.Reconfiguration{
		Srbs:    []uint8{2},
		Drbs:    ue.DrbConfigs(),
		Sr:      ue.Sr,
		Cqi:     ue.Cqi,
		NasPdus: takeNas(ue),
	}
	if ue.Capabilities.Nr && len(c.Cfg.Mobility.Neighbours) > 0 {
		reconf.Meas = &message.MeasConfig{
			A3Offset:   c.Cfg.Mobility.A3Offset,
			Neighbours: c.Cfg.Mobility.Neighbours,
		}
	}
	sendReconfiguration(c, ue, reconf)
}

// protectSrb turns on integrity and then ciphering on a signalling bearer
// once AS security is established with the UE.
func protectSrb(c *context.RRCContext, ue *context.RrcUe, rnti uint16, lcid uint32) error {
	if _, err := ue.Security.ActivateSignaling(c.Lower.Pdcp, rnti, lcid); err != nil {
		return err
	}
	_, err := ue.Security.StartSignalingCiphering(c.Lower.Pdcp, rnti, lcid)
	return err
}

// applyKeys puts the current keys in use on every bearer. The UE is
// released when that fails.
func applyKeys(c *context.RRCContext, ue *context.RrcUe) bool {
	for _, id := range ue.SrbIds() {
		if err := protectSrb(c, ue, ue.Rnti, ue.Srbs[id].Lcid); err != nil {
			logger.SecLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
			failSecurity(c, ue)
			return false
		}
	}
	if !activateDrbs(c, ue) {
		failSecurity(c, ue)
		return false
	}
	return true
}

func sendReconfiguration(c *context.RRCContext, ue *context.RrcUe, reconf *message.Reconfiguration) {
	if err := ue.SetState(context.UeStateWaitReconfigComplete); err != nil {
		logger.RrcLog.Errorf("%+v", err)
		return
	}
	sendDl(c, ue, &message.DlMessage{
		Kind:            message.DlReconfiguration,
		TransactionId:   ue.NextTransaction(),
		Reconfiguration: reconf,
	})
}

func handleReconfigurationComplete(c *context.RRCContext, ue *context.RrcUe, msg *message.UlMessage) {
	if ue.State() != context.UeStateWaitReconfigComplete {
		discard(ue, msg, "no RRCReconfiguration pending")
		return
	}
	if !ue.CompleteTransaction(msg.TransactionId) {
		discard(ue, msg, "transaction mismatch")
		return
	}
	// a refreshed key is used from the reconfiguration complete on
	if ue.PendingProcedure == context.ProcedureCtxtModify && !applyKeys(c, ue) {
		return
	}
	if err := ue.SetState(context.UeStateConnected); err != nil {
		logger.RrcLog.Errorf("%+v", err)
		return
	}
	logger.RrcLog.Infof("%s connected", ue)
	completeProcedure(c, ue)
	replayDeferred(c, ue)
}

// completeProcedure reports the outcome of the core procedure that caused
// the last reconfiguration.
func completeProcedure(c *context.RRCContext, ue *context.RrcUe) {
	core := c.Lower.Core
	switch ue.PendingProcedure {
	case context.ProcedureCtxtSetup:
		core.CtxtSetupComplete(ue.Ids(), ue.ErabsSetup, ue.ErabsFailed)
	case context.ProcedureErabSetup:
		core.ErabSetupResponse(ue.Ids(), ue.ErabsSetup, ue.ErabsFailed)
	case context.ProcedureErabRelease:
		core.ErabReleaseResponse(ue.Ids(), ue.ErabsFreed)
	case context.ProcedureCtxtModify:
		core.CtxtModifyResponse(ue.Ids())
	case context.ProcedureReestablishment, context.ProcedureRntiUpdate:
		logger.RrcLog.Infof("RNTI 0x%x: procedure %d completed", ue.Rnti, ue.PendingProcedure)
	}
	ue.PendingProcedure = context.ProcedureNone
	ue.ErabsSetup = nil
	ue.ErabsFailed = nil
	ue.ErabsFreed = nil
}

// deferEvent parks a core request that arrived while the UE is being
// (re)configured.
func deferEvent(ue *context.RrcUe, evt context.RrcEvt) bool {
	switch ue.State() {
	case context.UeStateWaitSecurityComplete, context.UeStateWaitCapabilityInfo, context.UeStateWaitReconfigComplete:
		logger.RrcLog.Debugf("RNTI 0x%x: event type %d deferred in state %s", ue.Rnti, evt.Type(), ue.State())
		ue.Deferred = append(ue.Deferred, evt)
		return true
	}
	return false
}

func replayDeferred(c *context.RRCContext, ue *context.RrcUe) {
	pending := ue.Deferred
	ue.Deferred = nil
	for i, evt := range pending {
		if !ue.IsConnected() {
			ue.Deferred = append(ue.Deferred, pending[i:]...)
			return
		}
		HandleEvent(c, evt)
	}
}

func handleUlInformationTransfer(c *context.RRCContext, ue *context.RrcUe, msg *message.UlMessage) {
	switch ue.State() {
	case context.UeStateIdle, context.UeStateWaitSetupComplete, context.UeStateReleaseRequested:
		discard(ue, msg, "no core connection")
		return
	}
	if len(msg.NasPdu) == 0 {
		discard(ue, msg, "empty NAS PDU")
		return
	}
	c.Lower.Core.WriteUlNas(ue.Ids(), msg.NasPdu)
}

func HandleDlInfo(c *context.RRCContext, evt *context.DlInfoEvt) {
	ue, ok := c.FindByRanUeNgapId(evt.RanUeNgapId)
	if !ok {
		logger.RrcLog.DPanicf("DL NAS for unknown RAN UE NGAP ID %d", evt.RanUeNgapId)
		return
	}
	if ue.AmfUeNgapId < 0 {
		ue.AmfUeNgapId = evt.AmfUeNgapId
	}
	switch ue.State() {
	case context.UeStateIdle, context.UeStateWaitSetupComplete, context.UeStateReleaseRequested:
		logger.RrcLog.Warnf("%s: DL NAS discarded", ue)
		return
	}
	sendDl(c, ue, &message.DlMessage{
		Kind:          message.DlInformationTransfer,
		TransactionId: ue.TransactionId,
		NasPdu:        evt.NasPdu,
	})
}

// HandleUpdUser handles a UE that identified itself with a previous C-RNTI
// during random access: the new temporary session goes away and the old
// one is refreshed.
func HandleUpdUser(c *context.RRCContext, evt *context.UpdUserEvt) {
	if evt.NewRnti == evt.OldRnti {
		logger.RrcLog.Warnf("RNTI update 0x%x -> 0x%x ignored", evt.OldRnti, evt.NewRnti)
		return
	}
	if tmp, ok := c.UePoolLoad(evt.NewRnti); ok {
		teardown(c, tmp)
	}
	old, ok := c.UePoolLoad(evt.OldRnti)
	if !ok {
		logger.RrcLog.Warnf("RNTI update 0x%x -> 0x%x: old RNTI unknown", evt.OldRnti, evt.NewRnti)
		return
	}
	old.Touch(c.Now())
	if !old.IsConnected() {
		releaseUe(c, old, context.CauseRadioConnectionLost)
		return
	}
	old.PendingProcedure = context.ProcedureRntiUpdate
	sendReconfiguration(c, old, &message.Reconfiguration{Sr: old.Sr, Cqi: old.Cqi})
}

func configureMac(c *context.RRCContext, ue *context.RrcUe) error {
	return c.Lower.Mac.UeCfg(ue.Rnti, context.UeMacCfg{Sr: ue.Sr, Cqi: ue.Cqi, Lcids: ue.Lcids()})
}

func takeNas(ue *context.RrcUe) [][]byte {
	nas := ue.NasPending
	ue.NasPending = nil
	return nas
}
