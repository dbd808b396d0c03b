// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"errors"
	"io"
	"math/bits"
	"sync"
	"time"

	"github.com/ishidawataru/sctp"
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/ngap"
	"github.com/omec-project/gnbrrc/ngap/handler"
	"github.com/omec-project/gnbrrc/ngap/message"
	"github.com/omec-project/gnbrrc/util"
	libNgap "github.com/omec-project/ngap"
)

// Run connects to every configured AMF and starts the goroutine owning the
// NG-C state. rrcCtx.NgapServer must be set.
func Run(rrcCtx *context.RRCContext, wg *sync.WaitGroup) error {
	if rrcCtx.NgapServer == nil {
		return errors.New("NGAP server not initialized")
	}

	localAddr := rrcCtx.LocalSctpAddress

	for _, remoteAddr := range rrcCtx.AmfSctpAddresses {
		errChan := make(chan error)
		wg.Add(1)
		go listenAndServe(localAddr, remoteAddr, errChan, rrcCtx, wg)
		if err, ok := <-errChan; ok {
			logger.NgapLog.Errorln(err)
			return errors.New("NGAP service run failed")
		}
	}

	wg.Add(1)
	go runNgapEventHandler(rrcCtx, wg)

	return nil
}

func runNgapEventHandler(rrcCtx *context.RRCContext, wg *sync.WaitGroup) {
	defer util.RecoverWithLog(logger.NgapLog)

	defer func() {
		logger.NgapLog.Infoln("NGAP server stopped")
		wg.Done()
	}()

	ngapServer := rrcCtx.NgapServer
	for {
		select {
		case rcvPkt := <-ngapServer.RcvNgapPktCh:
			if len(rcvPkt.Buf) == 0 {
				if rcvPkt.Conn == nil { // server stopped
					return
				}
				handler.HandleAmfConnectionLost(rrcCtx, rcvPkt.Conn)
				continue
			}
			ngap.Dispatch(rrcCtx, rcvPkt.Conn, rcvPkt.Buf)
		case rcvEvt := <-ngapServer.RcvEventCh:
			handler.HandleEvent(rrcCtx, rcvEvt)
		}
	}
}

// handleConnError closes the connection and sends an error to errChan
func handleConnError(conn *sctp.SCTPConn, logMsg string, err error, errChan chan<- error) {
	logger.NgapLog.Errorf(logMsg+": %+v", err)
	if conn != nil {
		errConn := conn.Close()
		if errConn != nil {
			logger.NgapLog.Errorf("conn close error: %+v", errConn)
		}
	}
	errChan <- errors.New(logMsg)
}

func listenAndServe(localAddr, remoteAddr *sctp.SCTPAddr, errChan chan<- error,
	rrcCtx *context.RRCContext, wg *sync.WaitGroup,
) {
	defer util.RecoverWithLog(logger.NgapLog)
	defer func() {
		logger.NgapLog.Infoln("NGAP receiver stopped")
		wg.Done()
	}()

	var conn *sctp.SCTPConn
	var err error

	// Try to connect up to 3 times
	for i := range 3 {
		conn, err = sctp.DialSCTP("sctp", localAddr, remoteAddr)
		if err == nil {
			break
		}
		logger.NgapLog.Errorf("dial SCTP: %+v", err)
		if i == 2 {
			logger.NgapLog.Debugf("AMF SCTP address: %s", remoteAddr.String())
			handleConnError(nil, "failed to connect to AMF", err, errChan)
			return
		}
		logger.NgapLog.Infoln("retry to connect AMF after 1 second")
		time.Sleep(1 * time.Second)
	}

	// Set default sender SCTP information sinfo_ppid = NGAP_PPID = 60
	info, err := conn.GetDefaultSentParam()
	if err != nil {
		handleConnError(conn, "GetDefaultSentParam()", err, errChan)
		return
	}
	// sctp expects the PPID in host byte order
	info.PPID = bits.ReverseBytes32(libNgap.PPID)
	if err = conn.SetDefaultSentParam(info); err != nil {
		handleConnError(conn, "SetDefaultSentParam()", err, errChan)
		return
	}

	// Subscribe receiver SCTP information
	if err = conn.SubscribeEvents(sctp.SCTP_EVENT_DATA_IO); err != nil {
		handleConnError(conn, "SubscribeEvents()", err, errChan)
		return
	}

	rrcCtx.NgapServer.Conn = append(rrcCtx.NgapServer.Conn, conn)

	// Send NG setup request
	message.SendNGSetupRequest(rrcCtx, conn)
	close(errChan)

	data := make([]byte, context.MAX_BUF_MSG_LEN)

	for {
		n, info, err := conn.SCTPRead(data)
		if err != nil {
			logger.NgapLog.Debugf("AMF SCTP address: %+v", conn.RemoteAddr().String())
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				logger.NgapLog.Warnln("close connection")
				_ = conn.Close()
				rrcCtx.NgapServer.RcvNgapPktCh <- context.NgapReceivePacket{Conn: conn} // signal closed
				return
			}
			logger.NgapLog.Errorf("read from SCTP connection failed: %+v", err)
			return
		}
		logger.NgapLog.Debugf("successfully read %d bytes", n)

		if info == nil || bits.ReverseBytes32(info.PPID) != libNgap.PPID {
			logger.NgapLog.Warn("received SCTP PPID != 60")
			continue
		}

		forwardData := make([]byte, n)
		copy(forwardData, data[:n])

		rrcCtx.NgapServer.RcvNgapPktCh <- context.NgapReceivePacket{
			Conn: conn,
			Buf:  forwardData,
		}
	}
}

func Stop(rrcCtx *context.RRCContext) {
	logger.NgapLog.Infoln("close NGAP server")

	if rrcCtx.NgapServer == nil {
		return
	}
	for _, ngapServerConn := range rrcCtx.NgapServer.Conn {
		if err := ngapServerConn.Close(); err != nil {
			logger.NgapLog.Errorf("stop ngap server error: %+v", err)
		}
	}
	select {
	case rrcCtx.NgapServer.RcvNgapPktCh <- context.NgapReceivePacket{}:
	default:
		logger.NgapLog.Warnln("NGAP packet channel full, event handler not signalled")
	}
}
