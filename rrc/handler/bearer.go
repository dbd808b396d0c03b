// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"slices"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
)

// HandleSetupUeCtxt handles the initial context setup of the core network.
func HandleSetupUeCtxt(c *context.RRCContext, evt *context.SetupUeCtxtEvt) {
	ue, ok := c.FindByRanUeNgapId(evt.RanUeNgapId)
	if !ok {
		logger.RrcLog.DPanicf("initial context setup for unknown RAN UE NGAP ID %d", evt.RanUeNgapId)
		return
	}
	state := ue.State()
	if state != context.UeStateWaitSetupComplete && state != context.UeStateWaitSecurityComplete {
		logger.RrcLog.Warnf("%s: initial context setup discarded", ue)
		return
	}
	if ue.PendingProcedure != context.ProcedureNone {
		logger.RrcLog.Warnf("%s: initial context setup while procedure %d pending", ue, ue.PendingProcedure)
		return
	}
	ue.AmfUeNgapId = evt.AmfUeNgapId
	ue.PendingProcedure = context.ProcedureCtxtSetup

	if err := ue.Security.SetRootKey(evt.SecurityKey); err != nil {
		logger.SecLog.Warnf("RNTI 0x%x: %+v", ue.Rnti, err)
		failSecurity(c, ue)
		return
	}
	ue.Security.SetCapabilities(evt.Capabilities)
	if evt.Ambr != nil {
		ue.Ambr = evt.Ambr
	}
	if len(evt.RadioCapability) > 0 {
		ue.Capabilities = context.UeCapabilities{Cached: true, Nr: true, Container: evt.RadioCapability}
	}
	if len(evt.NasPdu) > 0 {
		ue.NasPending = append(ue.NasPending, evt.NasPdu)
	}
	setupErabs(c, ue, evt.Erabs)

	if state == context.UeStateWaitSecurityComplete {
		startSecurityMode(c, ue)
	}
}

// setupErabs installs the requested bearers in every layer and records the
// per-bearer outcome for the response. It returns the DRB ids set up.
func setupErabs(c *context.RRCContext, ue *context.RrcUe, reqs []context.ErabSetupReq) []uint8 {
	var ids []uint8
	for _, req := range reqs {
		qos, ok := c.Cfg.QosClassOf(req.FiveQi)
		if !ok {
			logger.RrcLog.Warnf("RNTI 0x%x ERAB %d: 5QI %d not provisioned", ue.Rnti, req.ErabId, req.FiveQi)
			failErab(ue, req.ErabId, context.CauseUnsupportedQos)
			continue
		}
		prev, prevDrb := ue.Erabs[req.ErabId], ue.Drbs[req.ErabId]
		erab, replaced, err := ue.SetupErab(req, qos)
		if err != nil {
			logger.RrcLog.Warnf("RNTI 0x%x: %+v", ue.Rnti, err)
			failErab(ue, req.ErabId, context.CauseRadioResourcesUnavailable)
			continue
		}
		lcid := context.DrbLcid(erab.Id)
		if !replaced {
			c.Lower.Rlc.AddBearer(ue.Rnti, lcid, qos.RlcMode)
			c.Lower.Pdcp.AddBearer(ue.Rnti, lcid)
		}
		// on success the tunnel replaces the one of a previous setup
		teidIn, err := c.Lower.Gtpu.AddBearer(ue.Rnti, lcid, req.UpfAddr, req.TeidOut, req.Qfi)
		if err != nil {
			logger.GtpLog.Warnf("RNTI 0x%x ERAB %d: %+v", ue.Rnti, erab.Id, err)
			if replaced {
				ue.RestoreErab(prev, prevDrb)
			} else {
				removeDrb(c, ue, erab.Id)
			}
			failErab(ue, req.ErabId, context.CauseRadioResourcesUnavailable)
			continue
		}
		if replaced {
			logger.RrcLog.Infof("RNTI 0x%x ERAB %d set up again, tunnel replaced", ue.Rnti, erab.Id)
		}
		erab.TeidIn = teidIn
		if len(erab.NasPdu) > 0 {
			ue.NasPending = append(ue.NasPending, erab.NasPdu)
		}
		ue.ErabsSetup = slices.DeleteFunc(ue.ErabsSetup, func(r context.ErabResult) bool { return r.ErabId == erab.Id })
		ue.ErabsSetup = append(ue.ErabsSetup, context.ErabResult{ErabId: erab.Id, TeidIn: teidIn, Qfi: erab.Qfi})
		ids = append(ids, erab.Id)
	}
	return ids
}

func failErab(ue *context.RrcUe, id uint8, cause context.ReleaseCause) {
	ue.ErabsSetup = slices.DeleteFunc(ue.ErabsSetup, func(r context.ErabResult) bool { return r.ErabId == id })
	ue.ErabsFailed = append(ue.ErabsFailed, context.ErabFailure{ErabId: id, Cause: cause})
}

func removeDrb(c *context.RRCContext, ue *context.RrcUe, id uint8) bool {
	if !ue.ReleaseErab(id) {
		return false
	}
	lcid := context.DrbLcid(id)
	c.Lower.Gtpu.RemBearer(ue.Rnti, lcid)
	c.Lower.Rlc.DelBearer(ue.Rnti, lcid)
	c.Lower.Pdcp.DelBearer(ue.Rnti, lcid)
	ue.Security.Forget(lcid)
	return true
}

// activateDrbs enables ciphering on every data bearer.
func activateDrbs(c *context.RRCContext, ue *context.RrcUe) bool {
	for _, cfg := range ue.DrbConfigs() {
		if _, err := ue.Security.ActivateUserPlane(c.Lower.Pdcp, ue.Rnti, cfg.Lcid); err != nil {
			logger.SecLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
			return false
		}
	}
	return true
}

func HandleSetupUeErabs(c *context.RRCContext, evt *context.SetupUeErabsEvt) {
	ue, ok := c.FindByRanUeNgapId(evt.RanUeNgapId)
	if !ok {
		logger.RrcLog.DPanicf("bearer setup for unknown RAN UE NGAP ID %d", evt.RanUeNgapId)
		return
	}
	if !ue.IsConnected() {
		if !deferEvent(ue, evt) {
			logger.RrcLog.Warnf("%s: bearer setup discarded", ue)
		}
		return
	}

	ue.PendingProcedure = context.ProcedureErabSetup
	ids := setupErabs(c, ue, evt.Erabs)
	if len(ids) == 0 {
		completeProcedure(c, ue)
		return
	}
	if !activateDrbs(c, ue) {
		failSecurity(c, ue)
		return
	}
	if err := configureMac(c, ue); err != nil {
		logger.RrcLog.Errorf("RNTI 0x%x: MAC configuration failed: %+v", ue.Rnti, err)
	}
	sendReconfiguration(c, ue, &message.Reconfiguration{
		Drbs:    ue.DrbConfigs(ids...),
		NasPdus: takeNas(ue),
	})
}

func HandleReleaseErabs(c *context.RRCContext, evt *context.ReleaseErabsEvt) {
	ue, ok := c.FindByRanUeNgapId(evt.RanUeNgapId)
	if !ok {
		logger.RrcLog.DPanicf("bearer release for unknown RAN UE NGAP ID %d", evt.RanUeNgapId)
		return
	}
	if !ue.IsConnected() {
		if !deferEvent(ue, evt) {
			logger.RrcLog.Warnf("%s: bearer release discarded", ue)
		}
		return
	}

	ue.PendingProcedure = context.ProcedureErabRelease
	for _, id := range evt.ErabIds {
		if removeDrb(c, ue, id) {
			ue.ErabsFreed = append(ue.ErabsFreed, id)
		} else {
			logger.RrcLog.Warnf("RNTI 0x%x: ERAB %d not set up", ue.Rnti, id)
		}
	}
	if len(ue.ErabsFreed) == 0 {
		completeProcedure(c, ue)
		return
	}
	if err := configureMac(c, ue); err != nil {
		logger.RrcLog.Errorf("RNTI 0x%x: MAC configuration failed: %+v", ue.Rnti, err)
	}
	var nas [][]byte
	if len(evt.NasPdu) > 0 {
		nas = [][]byte{evt.NasPdu}
	}
	sendReconfiguration(c, ue, &message.Reconfiguration{
		ReleaseDrbs: slices.Clone(ue.ErabsFreed),
		NasPdus:     nas,
	})
}

// HandleModifyUeCtxt applies a new key, new security capabilities or a new
// AMBR. A new key is announced with a reconfiguration still protected by the
// old one and applied when it completes; anything else is answered at once.
func HandleModifyUeCtxt(c *context.RRCContext, evt *context.ModifyUeCtxtEvt) {
	ue, ok := c.FindByRanUeNgapId(evt.RanUeNgapId)
	if !ok {
		logger.RrcLog.DPanicf("context modification for unknown RAN UE NGAP ID %d", evt.RanUeNgapId)
		return
	}
	if !ue.IsConnected() {
		if !deferEvent(ue, evt) {
			logger.RrcLog.Warnf("%s: context modification discarded", ue)
		}
		return
	}

	if evt.Ambr != nil {
		ue.Ambr = evt.Ambr
	}
	if evt.Capabilities != nil {
		ue.Security.SetCapabilities(*evt.Capabilities)
	}
	if len(evt.SecurityKey) == 0 && evt.Capabilities == nil {
		c.Lower.Core.CtxtModifyResponse(ue.Ids())
		return
	}

	if len(evt.SecurityKey) > 0 {
		if err := ue.Security.SetRootKey(evt.SecurityKey); err != nil {
			logger.SecLog.Warnf("RNTI 0x%x: %+v", ue.Rnti, err)
			failSecurity(c, ue)
			return
		}
	}
	if err := ue.Security.Negotiate(c.Cfg.Security); err != nil {
		logger.SecLog.Warnf("RNTI 0x%x: %+v", ue.Rnti, err)
		failSecurity(c, ue)
		return
	}
	if !ue.Security.Derived() {
		if err := ue.Security.DeriveKeys(); err != nil {
			logger.SecLog.Errorf("RNTI 0x%x: %+v", ue.Rnti, err)
			failSecurity(c, ue)
			return
		}
	}
	ue.PendingProcedure = context.ProcedureCtxtModify
	sendReconfiguration(c, ue, &message.Reconfiguration{})
}
