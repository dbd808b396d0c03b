// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
)

// seconds the UE waits before retrying after an RRCReject
const rejectWaitTime = 10

// sendDl encodes msg and hands it to RLC for SRB0 or to PDCP otherwise.
func sendDl(c *context.RRCContext, ue *context.RrcUe, msg *message.DlMessage) bool {
	pdu, err := c.Lower.Codec.EncodeDl(msg)
	if err != nil {
		logger.RrcLog.Errorf("RNTI 0x%x: encode %s failed: %+v", ue.Rnti, msg.Kind, err)
		return false
	}
	switch {
	case msg.Kind.Ccch():
		c.Lower.Rlc.WriteSdu(ue.Rnti, context.LcidSrb0, pdu)
	case msg.Kind == message.DlInformationTransfer && ue.IsConnected():
		c.Lower.Pdcp.WriteSdu(ue.Rnti, context.LcidSrb2, pdu)
	default:
		c.Lower.Pdcp.WriteSdu(ue.Rnti, context.LcidSrb1, pdu)
	}
	logger.RrcLog.Infof("RNTI 0x%x: sent %s (%d bytes)", ue.Rnti, msg.Kind, len(pdu))
	return true
}

// sendRelease sends RRCRelease when SRB1 exists.
func sendRelease(c *context.RRCContext, ue *context.RrcUe) {
	switch ue.State() {
	case context.UeStateIdle, context.UeStateReleaseRequested:
		return
	}
	sendDl(c, ue, &message.DlMessage{Kind: message.DlRelease, TransactionId: ue.NextTransaction()})
}

// releaseUe tells the UE to leave RRC_CONNECTED and removes its session.
func releaseUe(c *context.RRCContext, ue *context.RrcUe, cause context.ReleaseCause) {
	sendRelease(c, ue)
	if err := ue.SetState(context.UeStateReleaseRequested); err != nil {
		logger.RrcLog.Errorf("%+v", err)
	}
	removeUe(c, ue, cause)
}

// removeUe destroys a session: its PUCCH resources go back to the pools,
// every layer forgets the RNTI, the core network is told unless it already
// knows, and the keys are overwritten whatever happens on the way.
func removeUe(c *context.RRCContext, ue *context.RrcUe, cause context.ReleaseCause) {
	defer ue.Security.Erase()

	if ue.Mobility != nil {
		failHandover(c, ue, cause, false)
	}
	teardown(c, ue)

	if ue.CoreAttached && !ue.CoreNotified {
		c.Lower.Core.UserRelease(ue.Ids(), cause)
		ue.CoreNotified = true
	}
	c.Metrics.Released(cause.String())
	logger.RrcLog.Infof("RNTI 0x%x removed (%s)", ue.Rnti, cause)
}

// teardown releases the radio resources of a session and deletes it from the
// registry, without telling the core network.
func teardown(c *context.RRCContext, ue *context.RrcUe) {
	defer ue.Security.Erase()

	if ue.Sr != nil {
		if err := c.SrPool.Release(*ue.Sr); err != nil {
			logger.PucchLog.DPanicf("RNTI 0x%x: %+v", ue.Rnti, err)
		}
		ue.Sr = nil
	}
	if ue.Cqi != nil {
		if err := c.CqiPool.Release(*ue.Cqi); err != nil {
			logger.PucchLog.DPanicf("RNTI 0x%x: %+v", ue.Rnti, err)
		}
		ue.Cqi = nil
	}

	c.Lower.Gtpu.RemUser(ue.Rnti)
	c.Lower.Mac.UeRem(ue.Rnti)
	c.Lower.Rlc.RemUser(ue.Rnti)
	c.Lower.Pdcp.RemUser(ue.Rnti)

	if !c.DeleteUe(ue.Rnti) {
		logger.RrcLog.DPanicf("RNTI 0x%x missing from the registry on removal", ue.Rnti)
	}
}

// RemoveAll removes every session, used on shutdown.
func RemoveAll(c *context.RRCContext, cause context.ReleaseCause) int {
	n := 0
	for _, rnti := range c.Rntis() {
		ue, ok := c.UePoolLoad(rnti)
		if !ok {
			continue
		}
		removeUe(c, ue, cause)
		n++
	}
	return n
}
