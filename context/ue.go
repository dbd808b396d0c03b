// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/omec-project/gnbrrc/pucch"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/security"
)

type UeState uint32

const (
	UeStateIdle UeState = iota
	UeStateWaitSetupComplete
	UeStateWaitSecurityComplete
	UeStateWaitCapabilityInfo
	UeStateWaitReconfigComplete
	UeStateConnected
	UeStateReleaseRequested
	nofUeStates
)

var ueStateNames = [nofUeStates]string{
	UeStateIdle:                 "IDLE",
	UeStateWaitSetupComplete:    "WAIT FOR CON SETUP COMPLETE",
	UeStateWaitSecurityComplete: "WAIT FOR SECURITY MODE COMPLETE",
	UeStateWaitCapabilityInfo:   "WAIT FOR UE CAPABILITY INFORMATION",
	UeStateWaitReconfigComplete: "WAIT FOR CON RECONF COMPLETE",
	UeStateConnected:            "RRC CONNECTED",
	UeStateReleaseRequested:     "RELEASE REQUEST",
}

func (s UeState) String() string {
	if s < nofUeStates {
		return ueStateNames[s]
	}
	return fmt.Sprintf("UeState(%d)", uint32(s))
}

// ueTransitions lists, for every state, the states it may move to. Release
// is reachable from everywhere.
var ueTransitions = [nofUeStates][]UeState{
	UeStateIdle:                 {UeStateWaitSetupComplete},
	UeStateWaitSetupComplete:    {UeStateWaitSecurityComplete},
	UeStateWaitSecurityComplete: {UeStateWaitCapabilityInfo, UeStateWaitReconfigComplete},
	UeStateWaitCapabilityInfo:   {UeStateWaitReconfigComplete},
	UeStateWaitReconfigComplete: {UeStateConnected},
	UeStateConnected:            {UeStateWaitReconfigComplete},
	UeStateReleaseRequested:     {},
}

// CanTransition reports whether from -> to is part of the session lifecycle.
func CanTransition(from, to UeState) bool {
	if from >= nofUeStates || to >= nofUeStates {
		return false
	}
	if to == UeStateReleaseRequested {
		return true
	}
	return slices.Contains(ueTransitions[from], to)
}

type ProcedureType uint8

const (
	ProcedureNone ProcedureType = iota
	ProcedureCtxtSetup
	ProcedureErabSetup
	ProcedureErabRelease
	ProcedureCtxtModify
	ProcedureReestablishment
	ProcedureRntiUpdate
)

// UeCapabilities is the tagged capability data of a UE. Cached is set once a
// UECapabilityInformation was received or the core provided a container.
type UeCapabilities struct {
	Cached    bool
	Nr        bool
	Eutra     bool
	Container []byte
}

// RrcUe is the session of one UE. Apart from the atomics, it is only read
// and written by the RRC worker.
type RrcUe struct {
	Rnti          uint16
	state         atomic.Uint32
	lastActivity  atomic.Int64
	hoDeadline    atomic.Int64
	hoActive      atomic.Bool
	nofDrbs       atomic.Int32
	// set while a removal marker for the UE sits in the work channel
	removalQueued atomic.Bool
	TInit         time.Time

	RanUeNgapId  int64
	AmfUeNgapId  int64
	CoreAttached bool
	CoreNotified bool

	Security     *security.Context
	Capabilities UeCapabilities

	TransactionId      uint8
	PendingTransaction *uint8
	PendingProcedure   ProcedureType

	Srbs  map[uint8]*Srb
	Drbs  map[uint8]*Drb
	Erabs map[uint8]*Erab
	// results collected for the pending core procedure
	ErabsSetup  []ErabResult
	ErabsFailed []ErabFailure
	ErabsFreed  []uint8

	Sr  *pucch.Entry
	Cqi *pucch.Entry

	Mobility *MobilityCtx

	// core requests that arrived during a reconfiguration, replayed once
	// the UE is connected again
	Deferred []RrcEvt

	RlfCount           int
	EstablishmentCause message.EstablishmentCause
	STmsi              uint64
	NasPending         [][]byte
	SetupCompleted     bool
	Ambr               *Ambr
}

func NewRrcUe(rnti uint16, now time.Time) *RrcUe {
	ue := &RrcUe{
		Rnti:        rnti,
		TInit:       now,
		RanUeNgapId: -1,
		AmfUeNgapId: AmfUeNgapIdUnspecified,
		Security:    security.NewContext(),
		Srbs:        make(map[uint8]*Srb),
		Drbs:        make(map[uint8]*Drb),
		Erabs:       make(map[uint8]*Erab),
	}
	ue.lastActivity.Store(now.UnixNano())
	return ue
}

func (ue *RrcUe) State() UeState {
	return UeState(ue.state.Load())
}

// SetState moves the session to next. Transitions outside the lifecycle are
// refused and leave the state unchanged.
func (ue *RrcUe) SetState(next UeState) error {
	cur := ue.State()
	if !CanTransition(cur, next) {
		return fmt.Errorf("RNTI 0x%x: invalid transition %s -> %s", ue.Rnti, cur, next)
	}
	ue.state.Store(uint32(next))
	return nil
}

func (ue *RrcUe) Touch(now time.Time) {
	ue.lastActivity.Store(now.UnixNano())
}

func (ue *RrcUe) LastActivity() time.Time {
	return time.Unix(0, ue.lastActivity.Load())
}

func (ue *RrcUe) IdleFor(now time.Time) time.Duration {
	return now.Sub(ue.LastActivity())
}

func (ue *RrcUe) SetHoDeadline(t time.Time) {
	if t.IsZero() {
		ue.hoDeadline.Store(0)
		return
	}
	ue.hoDeadline.Store(t.UnixNano())
}

// HoExpired reports whether a handover execution deadline is set and past.
func (ue *RrcUe) HoExpired(now time.Time) bool {
	d := ue.hoDeadline.Load()
	return d != 0 && now.UnixNano() > d
}

// SetMobility attaches or, with nil, detaches the handover sub-context.
func (ue *RrcUe) SetMobility(m *MobilityCtx) {
	ue.Mobility = m
	ue.hoActive.Store(m != nil)
	if m == nil {
		ue.SetHoDeadline(time.Time{})
	}
}

func (ue *RrcUe) HandoverActive() bool {
	return ue.hoActive.Load()
}

func (ue *RrcUe) NofDrbs() int {
	return int(ue.nofDrbs.Load())
}

// MarkRemovalQueued returns false when a removal is already queued.
func (ue *RrcUe) MarkRemovalQueued() bool {
	return ue.removalQueued.CompareAndSwap(false, true)
}

func (ue *RrcUe) ClearRemovalQueued() {
	ue.removalQueued.Store(false)
}

func (ue *RrcUe) Ids() UeIds {
	return UeIds{Rnti: ue.Rnti, RanUeNgapId: ue.RanUeNgapId, AmfUeNgapId: ue.AmfUeNgapId}
}

// NextTransaction returns a fresh transaction identifier and records it as
// the one the next response must carry.
func (ue *RrcUe) NextTransaction() uint8 {
	ue.TransactionId = (ue.TransactionId + 1) % (MaxTransactionId + 1)
	id := ue.TransactionId
	ue.PendingTransaction = &id
	return id
}

// CompleteTransaction consumes the pending identifier when id matches it.
func (ue *RrcUe) CompleteTransaction(id uint8) bool {
	if ue.PendingTransaction == nil || *ue.PendingTransaction != id {
		return false
	}
	ue.PendingTransaction = nil
	return true
}

func (ue *RrcUe) IsConnected() bool {
	return ue.State() == UeStateConnected
}

func (ue *RrcUe) String() string {
	return fmt.Sprintf("UE[rnti=0x%x ranUeNgapId=%d state=%s]", ue.Rnti, ue.RanUeNgapId, ue.State())
}
