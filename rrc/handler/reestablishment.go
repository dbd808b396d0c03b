// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"errors"
	"fmt"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
)

var (
	ErrReestInvalidCause   = errors.New("invalid re-establishment cause")
	ErrReestUnknownCell    = errors.New("PCI is not the serving cell")
	ErrReestUnknownRnti    = errors.New("previous C-RNTI unknown")
	ErrReestNoSecurity     = errors.New("AS security not active")
	ErrReestExpired        = errors.New("previous context expired")
	ErrReestHandover       = errors.New("handover in progress")
	ErrReestReleasePending = errors.New("release in progress")
)

// handleReestablishmentRequest resumes the context of a UE that lost its
// connection, moving it to the RNTI of the temporary session the request
// came from. Rejected requests leave the previous context untouched.
func handleReestablishmentRequest(c *context.RRCContext, tmp *context.RrcUe, msg *message.UlMessage) {
	if tmp.State() != context.UeStateIdle || msg.Reestablishment == nil {
		discard(tmp, msg, "connection already requested")
		return
	}
	req := msg.Reestablishment
	old, err := validateReestablishment(c, tmp, req)
	if err != nil {
		logger.RrcLog.Warnf("RNTI 0x%x: re-establishment from C-RNTI 0x%x (%s) rejected: %+v",
			tmp.Rnti, req.CRnti, req.Cause, err)
		sendDl(c, tmp, &message.DlMessage{Kind: message.DlReject, WaitTime: rejectWaitTime})
		c.Metrics.Rejected()
		removeUe(c, tmp, context.CauseUnspecified)
		return
	}

	newRnti, oldRnti := tmp.Rnti, old.Rnti
	teardown(c, tmp)
	if err := rekey(c, old, newRnti); err != nil {
		logger.RrcLog.Errorf("re-establishment 0x%x -> 0x%x: %+v", oldRnti, newRnti, err)
		releaseUe(c, old, context.CauseFailureInRadioInterface)
		return
	}
	logger.RrcLog.Infof("RNTI 0x%x re-established as 0x%x (%s)", oldRnti, newRnti, req.Cause)

	old.Touch(c.Now())
	old.RlfCount = 0
	c.Lower.Rlc.Reestablish(newRnti)
	c.Lower.Pdcp.Reestablish(newRnti)
	old.Security.ResetActivations()
	if _, err := old.Security.ActivateSignaling(c.Lower.Pdcp, newRnti, context.LcidSrb1); err != nil {
		logger.SecLog.Errorf("RNTI 0x%x: %+v", newRnti, err)
		failSecurity(c, old)
		return
	}

	// RRCReestablishment is integrity protected only
	sendDl(c, old, &message.DlMessage{Kind: message.DlReestablishment, TransactionId: old.NextTransaction()})
	if _, err := old.Security.StartSignalingCiphering(c.Lower.Pdcp, newRnti, context.LcidSrb1); err != nil {
		logger.SecLog.Errorf("RNTI 0x%x: %+v", newRnti, err)
		failSecurity(c, old)
		return
	}

	// SRB2 and the DRBs are resumed by a full reconfiguration
	if err := protectSrb(c, old, newRnti, context.LcidSrb2); err != nil {
		logger.SecLog.Errorf("RNTI 0x%x: %+v", newRnti, err)
		failSecurity(c, old)
		return
	}
	if !activateDrbs(c, old) {
		failSecurity(c, old)
		return
	}
	if err := configureMac(c, old); err != nil {
		logger.RrcLog.Errorf("RNTI 0x%x: MAC configuration failed: %+v", newRnti, err)
	}
	if old.PendingProcedure == context.ProcedureNone {
		old.PendingProcedure = context.ProcedureReestablishment
	}
	reconf := &message.Reconfiguration{
		Srbs:       old.SrbIds(),
		Drbs:       old.DrbConfigs(),
		Sr:         old.Sr,
		Cqi:        old.Cqi,
		FullConfig: true,
	}
	if old.State() == context.UeStateWaitReconfigComplete {
		sendDl(c, old, &message.DlMessage{
			Kind:            message.DlReconfiguration,
			TransactionId:   old.NextTransaction(),
			Reconfiguration: reconf,
		})
		return
	}
	sendReconfiguration(c, old, reconf)
}

func validateReestablishment(c *context.RRCContext, tmp *context.RrcUe,
	req *message.ReestablishmentRequest,
) (*context.RrcUe, error) {
	switch req.Cause {
	case message.ReestReconfigurationFailure, message.ReestHandoverFailure, message.ReestOtherFailure:
	default:
		return nil, ErrReestInvalidCause
	}
	if req.Pci != c.Cfg.Cell.Pci {
		return nil, fmt.Errorf("%w: %d", ErrReestUnknownCell, req.Pci)
	}
	old, ok := c.UePoolLoad(req.CRnti)
	if !ok || old == tmp {
		return nil, ErrReestUnknownRnti
	}
	if old.HandoverActive() {
		return nil, ErrReestHandover
	}
	if old.CoreNotified || old.State() == context.UeStateReleaseRequested {
		return nil, ErrReestReleasePending
	}
	if old.State() != context.UeStateConnected && old.State() != context.UeStateWaitReconfigComplete {
		return nil, fmt.Errorf("%w: state %s", ErrReestNoSecurity, old.State())
	}
	if !old.Security.SignalingActive() {
		return nil, ErrReestNoSecurity
	}
	if old.IdleFor(c.Now()) > c.Cfg.InactivityTimeout {
		return nil, ErrReestExpired
	}
	return old, nil
}

// rekey moves a session to newRnti in the registry and in every layer.
func rekey(c *context.RRCContext, ue *context.RrcUe, newRnti uint16) error {
	oldRnti := ue.Rnti
	if err := c.RekeyUe(oldRnti, newRnti); err != nil {
		return err
	}
	if err := c.Lower.Mac.UpdUser(newRnti, oldRnti); err != nil {
		return fmt.Errorf("MAC: %+v", err)
	}
	c.Lower.Rlc.UpdUser(newRnti, oldRnti)
	c.Lower.Pdcp.UpdUser(newRnti, oldRnti)
	c.Lower.Gtpu.UpdUser(newRnti, oldRnti)
	return nil
}

func handleReestablishmentComplete(c *context.RRCContext, ue *context.RrcUe, msg *message.UlMessage) {
	if ue.State() != context.UeStateWaitReconfigComplete {
		discard(ue, msg, "no re-establishment pending")
		return
	}
	ue.Touch(c.Now())
	logger.RrcLog.Infof("RNTI 0x%x: RRCReestablishmentComplete", ue.Rnti)
}
