// SPDX-FileCopyrightText: 2025 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"errors"
	"net"

	"github.com/omec-project/gnbrrc/context"
	gtpMsg "github.com/omec-project/gnbrrc/gtp/message"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/util"
	"github.com/wmnsk/go-gtp/gtpv1"
	gtpv1Msg "github.com/wmnsk/go-gtp/gtpv1/message"
)

// Tunnel is the NG-U side of one data radio bearer.
type Tunnel struct {
	Rnti    uint16
	Lcid    uint32
	TeidIn  uint32
	TeidOut uint32
	Qfi     uint8
	UpfAddr *net.UDPAddr
}

// HandleTPDU hands a downlink G-PDU to the PDCP entity of its bearer.
func HandleTPDU(rrcCtx *context.RRCContext, c gtpv1.Conn, senderAddr net.Addr, msg gtpv1Msg.Message) error {
	tpdu, ok := msg.(*gtpv1Msg.TPDU)
	if !ok {
		return errors.New("not a T-PDU")
	}
	pkt, err := gtpMsg.ParseTPDU(tpdu)
	if err != nil && !errors.Is(err, gtpMsg.ErrNoPduSessionContainer) {
		return err
	}
	forwardDL(rrcCtx, pkt)
	return nil
}

func forwardDL(rrcCtx *context.RRCContext, pkt *gtpMsg.Packet) {
	defer util.RecoverWithLog(logger.GtpLog)

	ep, ok := rrcCtx.AllocatedUETEIDLoad(pkt.TEID)
	if !ok {
		logger.GtpLog.Errorf("no bearer for TEID 0x%x", pkt.TEID)
		return
	}
	if pkt.HasQoS {
		logger.GtpLog.Debugf("QFI: %d, RQI: %v", pkt.QFI, pkt.RQI)
	}
	if rrcCtx.Lower.Pdcp == nil {
		logger.GtpLog.Warnln("no PDCP attached, downlink packet dropped")
		return
	}
	rrcCtx.Lower.Pdcp.WriteSdu(ep.Rnti, ep.Lcid, pkt.Payload)
	logger.GtpLog.Debugf("forward Uu <- N3, RNTI 0x%x LCID %d, %d bytes", ep.Rnti, ep.Lcid, len(pkt.Payload))
}

// ForwardUL encapsulates an uplink SDU of a data radio bearer towards the UPF.
func ForwardUL(conn net.PacketConn, tunnel Tunnel, sdu []byte) error {
	defer util.RecoverWithLog(logger.GtpLog)

	if conn == nil {
		return gtpv1.ErrConnNotOpened
	}
	gtpPacket, err := gtpMsg.BuildUplinkPacket(tunnel.TeidOut, tunnel.Qfi, sdu)
	if err != nil {
		return err
	}
	n, err := conn.WriteTo(gtpPacket, tunnel.UpfAddr)
	if err != nil {
		logGTPWriteError(err)
		return err
	}
	logger.GtpLog.Debugf("forward Uu -> N3, wrote %d bytes", n)
	return nil
}

func logGTPWriteError(err error) {
	logger.GtpLog.Errorf("write to UPF failed: %+v", err)
	if errors.Is(err, gtpv1.ErrConnNotOpened) {
		logger.GtpLog.Errorln("the connection has been closed")
	}
}
