// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/gtp/handler"
	gtpMsg "github.com/omec-project/gnbrrc/gtp/message"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/util"
	gtpv1 "github.com/wmnsk/go-gtp/gtpv1"
	gtpv1Msg "github.com/wmnsk/go-gtp/gtpv1/message"
)

type bearerKey struct {
	rnti uint16
	lcid uint32
}

// Gtpu terminates the NG-U tunnels of every data radio bearer.
type Gtpu struct {
	rrcCtx  *context.RRCContext
	mu      sync.Mutex
	tunnels map[bearerKey]*handler.Tunnel
}

var _ context.Gtpu = (*Gtpu)(nil)

func NewGtpu(rrcCtx *context.RRCContext) *Gtpu {
	return &Gtpu{rrcCtx: rrcCtx, tunnels: make(map[bearerKey]*handler.Tunnel)}
}

// resolveUPF returns the GTP-U endpoint of a UPF, resolved once.
func (g *Gtpu) resolveUPF(upfAddr net.IP) (*net.UDPAddr, error) {
	if upfAddr == nil {
		return nil, errors.New("no UPF address")
	}
	key := upfAddr.String()
	if addr, ok := g.rrcCtx.UPFUDPAddrLoad(key); ok {
		return addr, nil
	}
	upfUDPAddr := net.JoinHostPort(key, strconv.Itoa(gtpMsg.GTPU_PORT))
	addr, err := net.ResolveUDPAddr("udp", upfUDPAddr)
	if err != nil {
		logger.GtpLog.Errorf("resolve UDP address %s failed: %+v", upfUDPAddr, err)
		return nil, errors.New("resolve Address Failed")
	}
	g.rrcCtx.UPFUDPAddrStore(key, addr)
	return addr, nil
}

func (g *Gtpu) AddBearer(rnti uint16, lcid uint32, upfAddr net.IP, teidOut uint32, qfi uint8) (uint32, error) {
	addr, err := g.resolveUPF(upfAddr)
	if err != nil {
		return 0, err
	}
	teidIn, err := g.rrcCtx.NewTEID(context.TunnelEndpoint{Rnti: rnti, Lcid: lcid})
	if err != nil {
		return 0, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	key := bearerKey{rnti, lcid}
	if old, ok := g.tunnels[key]; ok {
		g.rrcCtx.DeleteTEID(old.TeidIn)
	}
	g.tunnels[key] = &handler.Tunnel{
		Rnti:    rnti,
		Lcid:    lcid,
		TeidIn:  teidIn,
		TeidOut: teidOut,
		Qfi:     qfi,
		UpfAddr: addr,
	}
	logger.GtpLog.Infof("RNTI 0x%x LCID %d: tunnel TEID in 0x%x out 0x%x to %s", rnti, lcid, teidIn, teidOut, addr)
	return teidIn, nil
}

func (g *Gtpu) RemBearer(rnti uint16, lcid uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := bearerKey{rnti, lcid}
	if t, ok := g.tunnels[key]; ok {
		g.rrcCtx.DeleteTEID(t.TeidIn)
		delete(g.tunnels, key)
	}
}

func (g *Gtpu) RemUser(rnti uint16) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, t := range g.tunnels {
		if key.rnti == rnti {
			g.rrcCtx.DeleteTEID(t.TeidIn)
			delete(g.tunnels, key)
		}
	}
}

// UpdUser moves the tunnels of oldRnti to newRnti. TEIDs are kept, the UPF
// sees no change.
func (g *Gtpu) UpdUser(newRnti, oldRnti uint16) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, t := range g.tunnels {
		if key.rnti != oldRnti {
			continue
		}
		delete(g.tunnels, key)
		t.Rnti = newRnti
		g.tunnels[bearerKey{newRnti, key.lcid}] = t
		g.rrcCtx.AllocatedUETEIDStore(t.TeidIn, context.TunnelEndpoint{Rnti: newRnti, Lcid: key.lcid})
	}
}

// Tunnel returns a copy of the tunnel of a bearer.
func (g *Gtpu) Tunnel(rnti uint16, lcid uint32) (handler.Tunnel, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tunnels[bearerKey{rnti, lcid}]
	if !ok {
		return handler.Tunnel{}, false
	}
	return *t, true
}

// WriteSdu sends an uplink SDU of a data radio bearer to its UPF.
func (g *Gtpu) WriteSdu(rnti uint16, lcid uint32, sdu []byte) error {
	t, ok := g.Tunnel(rnti, lcid)
	if !ok {
		return fmt.Errorf("RNTI 0x%x LCID %d: no tunnel", rnti, lcid)
	}
	if g.rrcCtx.GtpuConn == nil {
		return gtpv1.ErrConnNotOpened
	}
	return handler.ForwardUL(g.rrcCtx.GtpuConn, t, sdu)
}

// Run binds the NG-U socket and starts serving downlink G-PDUs.
func Run(rrcCtx *context.RRCContext, wg *sync.WaitGroup) error {
	localUDPAddr := net.JoinHostPort(rrcCtx.GtpBindAddress, strconv.Itoa(gtpMsg.GTPU_PORT))
	laddr, err := net.ResolveUDPAddr("udp", localUDPAddr)
	if err != nil {
		logger.GtpLog.Errorf("resolve UDP address %s failed: %+v", localUDPAddr, err)
		return errors.New("resolve Address Failed")
	}

	conn := gtpv1.NewUPlaneConn(laddr)
	conn.AddHandler(gtpv1Msg.MsgTypeTPDU, func(c gtpv1.Conn, senderAddr net.Addr, msg gtpv1Msg.Message) error {
		return handler.HandleTPDU(rrcCtx, c, senderAddr, msg)
	})
	rrcCtx.GtpuConn = conn

	wg.Add(1)
	go func() {
		defer util.RecoverWithLog(logger.GtpLog)
		defer func() {
			logger.GtpLog.Infoln("GTP-U server stopped")
			wg.Done()
		}()
		if err := conn.ListenAndServe(rrcCtx.Ctx); err != nil {
			logger.GtpLog.Errorf("GTP-U server on %s: %+v", localUDPAddr, err)
		}
	}()
	return nil
}

func Stop(rrcCtx *context.RRCContext) {
	logger.GtpLog.Infoln("close GTP-U server")

	if rrcCtx.GtpuConn == nil {
		return
	}
	if err := rrcCtx.GtpuConn.Close(); err != nil {
		logger.GtpLog.Errorf("stop GTP-U server error: %+v", err)
	}
}
