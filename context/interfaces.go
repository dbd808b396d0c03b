// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"net"

	"github.com/omec-project/gnbrrc/pucch"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/security"
)

// UeMacCfg is the dedicated configuration pushed to the MAC scheduler.
type UeMacCfg struct {
	Sr    *pucch.Entry
	Cqi   *pucch.Entry
	Lcids []uint32
}

type Mac interface {
	UeCfg(rnti uint16, cfg UeMacCfg) error
	UeRem(rnti uint16)
	UpdUser(newRnti, oldRnti uint16) error
	PhyConfigEnabled(rnti uint16, enabled bool)
}

type Rlc interface {
	AddUser(rnti uint16)
	RemUser(rnti uint16)
	AddBearer(rnti uint16, lcid uint32, mode message.RlcMode)
	DelBearer(rnti uint16, lcid uint32)
	WriteSdu(rnti uint16, lcid uint32, sdu []byte)
	Reestablish(rnti uint16)
	UpdUser(newRnti, oldRnti uint16)
}

type Pdcp interface {
	security.Activator
	AddUser(rnti uint16)
	RemUser(rnti uint16)
	AddBearer(rnti uint16, lcid uint32)
	DelBearer(rnti uint16, lcid uint32)
	WriteSdu(rnti uint16, lcid uint32, sdu []byte)
	Reestablish(rnti uint16)
	UpdUser(newRnti, oldRnti uint16)
}

// Gtpu binds a data radio bearer to its NG-U tunnel and returns the local
// TEID allocated for the downlink.
type Gtpu interface {
	AddBearer(rnti uint16, lcid uint32, upfAddr net.IP, teidOut uint32, qfi uint8) (uint32, error)
	RemBearer(rnti uint16, lcid uint32)
	RemUser(rnti uint16)
	UpdUser(newRnti, oldRnti uint16)
}

type ErabResult struct {
	ErabId   uint8
	TeidIn   uint32
	Addr     net.IP
	Qfi      uint8
	Transfer []byte
}

type ErabFailure struct {
	ErabId uint8
	Cause  ReleaseCause
}

// CoreNetwork receives every upward notification of the RRC layer. All
// calls are made from the RRC worker and must not block.
type CoreNetwork interface {
	InitialUe(ids UeIds, cause message.EstablishmentCause, nasPdu []byte, sTmsi uint64)
	WriteUlNas(ids UeIds, nasPdu []byte)
	CtxtSetupComplete(ids UeIds, setup []ErabResult, failed []ErabFailure)
	CtxtSetupFailure(ids UeIds, cause ReleaseCause)
	ErabSetupResponse(ids UeIds, setup []ErabResult, failed []ErabFailure)
	ErabReleaseResponse(ids UeIds, released []uint8)
	CtxtModifyResponse(ids UeIds)
	UserRelease(ids UeIds, cause ReleaseCause)
	ReleaseComplete(ids UeIds)
	HandoverRequired(ids UeIds, targetPci uint16, container []byte)
	HandoverCancel(ids UeIds, cause ReleaseCause)
}

type Codec interface {
	DecodeUl(lcid uint32, pdu []byte) (*message.UlMessage, error)
	EncodeDl(msg *message.DlMessage) ([]byte, error)
	EncodePaging(records []message.PagingRecord) ([]byte, error)
}

// LowerLayers groups the collaborators the controller drives.
type LowerLayers struct {
	Mac   Mac
	Rlc   Rlc
	Pdcp  Pdcp
	Gtpu  Gtpu
	Core  CoreNetwork
	Codec Codec
}

// UeIds is a snapshot of the identities of one UE, safe to hand over to
// another goroutine.
type UeIds struct {
	Rnti        uint16
	RanUeNgapId int64
	AmfUeNgapId int64
}

type ReleaseCause uint8

const (
	CauseNormalRelease ReleaseCause = iota
	CauseUserInactivity
	CauseRadioConnectionLost
	CauseFailureInRadioInterface
	CauseSecurityFailure
	CauseRadioResourcesUnavailable
	CauseUnsupportedQos
	CauseHandoverCancelled
	CauseHandoverFailure
	CauseShutdown
	CauseUnspecified
)

var releaseCauseNames = [...]string{
	CauseNormalRelease:             "normal-release",
	CauseUserInactivity:            "user-inactivity",
	CauseRadioConnectionLost:       "radio-connection-with-ue-lost",
	CauseFailureInRadioInterface:   "failure-in-radio-interface-procedure",
	CauseSecurityFailure:           "security-failure",
	CauseRadioResourcesUnavailable: "radio-resources-not-available",
	CauseUnsupportedQos:            "unsupported-qos",
	CauseHandoverCancelled:         "handover-cancelled",
	CauseHandoverFailure:           "handover-failure",
	CauseShutdown:                  "shutdown",
	CauseUnspecified:               "unspecified",
}

func (c ReleaseCause) String() string {
	if int(c) < len(releaseCauseNames) {
		return releaseCauseNames[c]
	}
	return "unknown"
}
