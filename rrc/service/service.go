// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package service

import (
	ctx "context"
	"errors"
	"fmt"
	"sync"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/handler"
	"github.com/omec-project/gnbrrc/util"
)

// Run starts the RRC worker, the inactivity sweep and, when configured, the
// SIB refresh. The worker returns once Stop was called on rrcCtx and every
// session was released.
func Run(rrcCtx *context.RRCContext, wg *sync.WaitGroup) error {
	if rrcCtx.RcvEventCh == nil {
		return errors.New("RRC context not initialised")
	}
	if err := rrcCtx.GenerateSibs(); err != nil {
		return fmt.Errorf("generate SIBs: %+v", err)
	}

	parent := rrcCtx.Ctx
	if parent == nil {
		parent = ctx.Background()
	}
	timers := []*context.Timer{
		context.NewPeriodicTimer(parent, rrcCtx.Cfg.SweepInterval, func() {
			if n := rrcCtx.Tick(); n > 0 {
				logger.RrcLog.Debugf("sweep queued %d markers", n)
			}
			rrcCtx.PublishMetrics()
		}),
	}
	if rrcCtx.Cfg.SibRefreshInterval > 0 {
		timers = append(timers, context.NewPeriodicTimer(parent, rrcCtx.Cfg.SibRefreshInterval, func() {
			if err := rrcCtx.GenerateSibs(); err != nil {
				logger.RrcLog.Errorf("refresh SIBs: %+v", err)
			}
		}))
	}

	wg.Add(1)
	go runRrcEventHandler(rrcCtx, timers, wg)

	logger.RrcLog.Infoln("RRC worker started")
	return nil
}

func runRrcEventHandler(rrcCtx *context.RRCContext, timers []*context.Timer, wg *sync.WaitGroup) {
	defer util.RecoverWithLog(logger.RrcLog)

	defer func() {
		logger.RrcLog.Infoln("RRC worker stopped")
		wg.Done()
	}()

	for evt := range rrcCtx.RcvEventCh {
		handle(rrcCtx, evt)
		if isExit(evt) {
			for _, t := range timers {
				t.Stop()
			}
			shutdown(rrcCtx)
			return
		}
	}
}

func handle(rrcCtx *context.RRCContext, evt context.RrcEvt) {
	defer util.RecoverWithLog(logger.RrcLog)
	handler.HandleEvent(rrcCtx, evt)
}

func isExit(evt context.RrcEvt) bool {
	pdu, ok := evt.(*context.RrcPduEvt)
	return ok && pdu.Lcid == context.LcidExit
}

// shutdown handles the events that raced with Stop, then releases every
// remaining session.
func shutdown(rrcCtx *context.RRCContext) {
	for drained := false; !drained; {
		select {
		case evt := <-rrcCtx.RcvEventCh:
			handle(rrcCtx, evt)
		default:
			drained = true
		}
	}
	n := handler.RemoveAll(rrcCtx, context.CauseShutdown)
	logger.RrcLog.Infof("released %d UEs on shutdown", n)
	rrcCtx.PublishMetrics()
}
