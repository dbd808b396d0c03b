// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"context"
	"time"

	"github.com/looplab/fsm"
	"github.com/omec-project/gnbrrc/logger"
)

const (
	HoStatePreparing      = "preparing"
	HoStateAwaitingTarget = "awaiting_target"
	HoStateExecuting      = "executing_handover"
	HoStateCompleted      = "completed"
	HoStateFailed         = "failed"
)

const (
	HoEvtRequired = "handover_required"
	HoEvtCommand  = "handover_command"
	HoEvtComplete = "handover_complete"
	HoEvtFail     = "handover_fail"
)

// MobilityCtx is the handover sub-context of a connected UE. It lives from
// the triggering measurement report until the handover completes or fails.
type MobilityCtx struct {
	Rnti      uint16
	TargetPci uint16
	StartedAt time.Time
	Cause     ReleaseCause

	fsm *fsm.FSM
}

func NewMobilityCtx(rnti, targetPci uint16, now time.Time) *MobilityCtx {
	m := &MobilityCtx{Rnti: rnti, TargetPci: targetPci, StartedAt: now}
	m.fsm = fsm.NewFSM(
		HoStatePreparing,
		fsm.Events{
			{Name: HoEvtRequired, Src: []string{HoStatePreparing}, Dst: HoStateAwaitingTarget},
			{Name: HoEvtCommand, Src: []string{HoStateAwaitingTarget}, Dst: HoStateExecuting},
			{Name: HoEvtComplete, Src: []string{HoStateExecuting}, Dst: HoStateCompleted},
			{
				Name: HoEvtFail,
				Src:  []string{HoStatePreparing, HoStateAwaitingTarget, HoStateExecuting},
				Dst:  HoStateFailed,
			},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.MobLog.Infof("RNTI 0x%x handover to PCI %d: %s -> %s (%s)",
					m.Rnti, m.TargetPci, e.Src, e.Dst, e.Event)
			},
		},
	)
	return m
}

func (m *MobilityCtx) State() string {
	return m.fsm.Current()
}

// Fire applies one handover event. Events that are not valid in the current
// state return an error and leave the state unchanged.
func (m *MobilityCtx) Fire(event string) error {
	return m.fsm.Event(context.Background(), event)
}

func (m *MobilityCtx) Can(event string) bool {
	return m.fsm.Can(event)
}

func (m *MobilityCtx) Finished() bool {
	return m.fsm.Is(HoStateCompleted) || m.fsm.Is(HoStateFailed)
}
