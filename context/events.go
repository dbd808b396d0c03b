// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"net"

	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/security"
)

// RrcEventType enumerates the events carried by the RRC work channel
type RrcEventType int64

const (
	RrcPdu RrcEventType = iota
	AddUser
	UpdUser
	SetupUeCtxt
	ModifyUeCtxt
	SetupUeErabs
	ReleaseErabs
	DlInfo
	HoPrepComplete
)

// RrcEvt is the interface for all RRC work channel events
type RrcEvt interface {
	Type() RrcEventType
}

// RrcPduEvt carries an uplink PDU of a signalling bearer or, when Lcid is one
// of the reserved control LCIDs, a control marker for the UE.
type RrcPduEvt struct {
	Rnti  uint16
	Lcid  uint32
	Pdu   []byte
	Msg   *message.UlMessage
	Cause ReleaseCause
}

func (e *RrcPduEvt) Type() RrcEventType { return RrcPdu }

func NewRrcPduEvt(rnti uint16, lcid uint32, pdu []byte, msg *message.UlMessage) *RrcPduEvt {
	return &RrcPduEvt{Rnti: rnti, Lcid: lcid, Pdu: pdu, Msg: msg}
}

func NewControlEvt(rnti uint16, lcid uint32, cause ReleaseCause) *RrcPduEvt {
	return &RrcPduEvt{Rnti: rnti, Lcid: lcid, Cause: cause}
}

// AddUserEvt is raised by MAC when a random access procedure completes
type AddUserEvt struct {
	Rnti uint16
}

func (e *AddUserEvt) Type() RrcEventType { return AddUser }

func NewAddUserEvt(rnti uint16) *AddUserEvt {
	return &AddUserEvt{Rnti: rnti}
}

// UpdUserEvt is raised when a UE identifies itself with its previous C-RNTI
type UpdUserEvt struct {
	NewRnti uint16
	OldRnti uint16
}

func (e *UpdUserEvt) Type() RrcEventType { return UpdUser }

func NewUpdUserEvt(newRnti, oldRnti uint16) *UpdUserEvt {
	return &UpdUserEvt{NewRnti: newRnti, OldRnti: oldRnti}
}

type Ambr struct {
	Ul uint64
	Dl uint64
}

// ErabSetupReq describes one bearer requested by the core network.
type ErabSetupReq struct {
	ErabId  uint8
	FiveQi  int64
	Qfi     uint8
	UpfAddr net.IP
	TeidOut uint32
	NasPdu  []byte
}

// SetupUeCtxtEvt is the initial context setup of the core network
type SetupUeCtxtEvt struct {
	RanUeNgapId     int64
	AmfUeNgapId     int64
	SecurityKey     []byte
	Capabilities    security.Capabilities
	Erabs           []ErabSetupReq
	NasPdu          []byte
	Ambr            *Ambr
	RadioCapability []byte
}

func (e *SetupUeCtxtEvt) Type() RrcEventType { return SetupUeCtxt }

// ModifyUeCtxtEvt refreshes the key, the capabilities or the AMBR of a UE.
// Nil members are left unchanged.
type ModifyUeCtxtEvt struct {
	RanUeNgapId  int64
	SecurityKey  []byte
	Capabilities *security.Capabilities
	Ambr         *Ambr
}

func (e *ModifyUeCtxtEvt) Type() RrcEventType { return ModifyUeCtxt }

type SetupUeErabsEvt struct {
	RanUeNgapId int64
	Erabs       []ErabSetupReq
}

func (e *SetupUeErabsEvt) Type() RrcEventType { return SetupUeErabs }

type ReleaseErabsEvt struct {
	RanUeNgapId int64
	ErabIds     []uint8
	NasPdu      []byte
}

func (e *ReleaseErabsEvt) Type() RrcEventType { return ReleaseErabs }

// DlInfoEvt carries a downlink NAS PDU
type DlInfoEvt struct {
	RanUeNgapId int64
	AmfUeNgapId int64
	NasPdu      []byte
}

func (e *DlInfoEvt) Type() RrcEventType { return DlInfo }

// HoPrepCompleteEvt is the outcome of handover preparation towards a target
type HoPrepCompleteEvt struct {
	Rnti      uint16
	Success   bool
	Container []byte
}

func (e *HoPrepCompleteEvt) Type() RrcEventType { return HoPrepComplete }

func NewHoPrepCompleteEvt(rnti uint16, success bool, container []byte) *HoPrepCompleteEvt {
	return &HoPrepCompleteEvt{Rnti: rnti, Success: success, Container: container}
}
