// SPDX-FileCopyrightText: 2025 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"net"

	"github.com/omec-project/gnbrrc/rrc/message"
)

const (
	MAX_BUF_MSG_LEN               = 65535
	RECEIVE_NGAPPACKET_CHANNEL_LEN = 512
	RECEIVE_NGAPEVENT_CHANNEL_LEN  = 512
)

// AmfConn is the part of an SCTP association the NGAP layer writes to.
type AmfConn interface {
	Write(b []byte) (int, error)
	Close() error
	RemoteAddr() net.Addr
}

// NgapServer manages SCTP connections and event channels
type NgapServer struct {
	Conn         []AmfConn
	RcvNgapPktCh chan NgapReceivePacket
	RcvEventCh   chan NgapEvt
}

func NewNgapServer() *NgapServer {
	return &NgapServer{
		RcvNgapPktCh: make(chan NgapReceivePacket, RECEIVE_NGAPPACKET_CHANNEL_LEN),
		RcvEventCh:   make(chan NgapEvt, RECEIVE_NGAPEVENT_CHANNEL_LEN),
	}
}

// NgapReceivePacket represents a received NGAP packet
type NgapReceivePacket struct {
	Conn AmfConn
	Buf  []byte
}

// NgapEventType enumerates NGAP event types
type NgapEventType int64

const (
	SendInitialUEMessage NgapEventType = iota
	SendUplinkNASTransport
	SendInitialContextSetupResponse
	SendInitialContextSetupFailure
	SendPDUSessionResourceSetupResponse
	SendPDUSessionResourceReleaseResponse
	SendUEContextModificationResponse
	SendUEContextReleaseRequest
	SendUEContextReleaseComplete
	SendHandoverRequired
	SendHandoverCancel
)

var ngapEventNames = [...]string{
	SendInitialUEMessage:                  "InitialUEMessage",
	SendUplinkNASTransport:                "UplinkNASTransport",
	SendInitialContextSetupResponse:       "InitialContextSetupResponse",
	SendInitialContextSetupFailure:        "InitialContextSetupFailure",
	SendPDUSessionResourceSetupResponse:   "PDUSessionResourceSetupResponse",
	SendPDUSessionResourceReleaseResponse: "PDUSessionResourceReleaseResponse",
	SendUEContextModificationResponse:     "UEContextModificationResponse",
	SendUEContextReleaseRequest:           "UEContextReleaseRequest",
	SendUEContextReleaseComplete:          "UEContextReleaseComplete",
	SendHandoverRequired:                  "HandoverRequired",
	SendHandoverCancel:                    "HandoverCancel",
}

func (t NgapEventType) String() string {
	if t >= 0 && int(t) < len(ngapEventNames) {
		return ngapEventNames[t]
	}
	return "unknown"
}

// NgapEvt is the interface for all NGAP events
type NgapEvt interface {
	Type() NgapEventType
}

// SendInitialUEMessageEvt event
type SendInitialUEMessageEvt struct {
	Ids    UeIds
	Cause  message.EstablishmentCause
	NasPDU []byte
	STmsi  uint64
}

func (e *SendInitialUEMessageEvt) Type() NgapEventType { return SendInitialUEMessage }

func NewSendInitialUEMessageEvt(ids UeIds, cause message.EstablishmentCause, nasPDU []byte, sTmsi uint64,
) *SendInitialUEMessageEvt {
	return &SendInitialUEMessageEvt{Ids: ids, Cause: cause, NasPDU: nasPDU, STmsi: sTmsi}
}

// SendUplinkNASTransportEvt event
type SendUplinkNASTransportEvt struct {
	Ids UeIds
	Pdu []byte
}

func (e *SendUplinkNASTransportEvt) Type() NgapEventType { return SendUplinkNASTransport }

func NewSendUplinkNASTransportEvt(ids UeIds, pdu []byte) *SendUplinkNASTransportEvt {
	return &SendUplinkNASTransportEvt{Ids: ids, Pdu: pdu}
}

// SendInitialContextSetupRespEvt event
type SendInitialContextSetupRespEvt struct {
	Ids    UeIds
	Setup  []ErabResult
	Failed []ErabFailure
}

func (e *SendInitialContextSetupRespEvt) Type() NgapEventType { return SendInitialContextSetupResponse }

func NewSendInitialContextSetupRespEvt(ids UeIds, setup []ErabResult, failed []ErabFailure,
) *SendInitialContextSetupRespEvt {
	return &SendInitialContextSetupRespEvt{Ids: ids, Setup: setup, Failed: failed}
}

// SendInitialContextSetupFailureEvt event
type SendInitialContextSetupFailureEvt struct {
	Ids   UeIds
	Cause ReleaseCause
}

func (e *SendInitialContextSetupFailureEvt) Type() NgapEventType { return SendInitialContextSetupFailure }

func NewSendInitialContextSetupFailureEvt(ids UeIds, cause ReleaseCause) *SendInitialContextSetupFailureEvt {
	return &SendInitialContextSetupFailureEvt{Ids: ids, Cause: cause}
}

// SendPDUSessionResourceSetupResEvt event
type SendPDUSessionResourceSetupResEvt struct {
	Ids    UeIds
	Setup  []ErabResult
	Failed []ErabFailure
}

func (e *SendPDUSessionResourceSetupResEvt) Type() NgapEventType {
	return SendPDUSessionResourceSetupResponse
}

func NewSendPDUSessionResourceSetupResEvt(ids UeIds, setup []ErabResult, failed []ErabFailure,
) *SendPDUSessionResourceSetupResEvt {
	return &SendPDUSessionResourceSetupResEvt{Ids: ids, Setup: setup, Failed: failed}
}

// SendPDUSessionResourceReleaseResEvt event
type SendPDUSessionResourceReleaseResEvt struct {
	Ids      UeIds
	Released []uint8
}

func (e *SendPDUSessionResourceReleaseResEvt) Type() NgapEventType {
	return SendPDUSessionResourceReleaseResponse
}

func NewSendPDUSessionResourceReleaseResEvt(ids UeIds, released []uint8) *SendPDUSessionResourceReleaseResEvt {
	return &SendPDUSessionResourceReleaseResEvt{Ids: ids, Released: released}
}

// SendUEContextModificationResEvt event
type SendUEContextModificationResEvt struct {
	Ids UeIds
}

func (e *SendUEContextModificationResEvt) Type() NgapEventType {
	return SendUEContextModificationResponse
}

func NewSendUEContextModificationResEvt(ids UeIds) *SendUEContextModificationResEvt {
	return &SendUEContextModificationResEvt{Ids: ids}
}

// SendUEContextReleaseRequestEvt event
type SendUEContextReleaseRequestEvt struct {
	Ids   UeIds
	Cause ReleaseCause
}

func (e *SendUEContextReleaseRequestEvt) Type() NgapEventType { return SendUEContextReleaseRequest }

func NewSendUEContextReleaseRequestEvt(ids UeIds, cause ReleaseCause) *SendUEContextReleaseRequestEvt {
	return &SendUEContextReleaseRequestEvt{Ids: ids, Cause: cause}
}

// SendUEContextReleaseCompleteEvt event
type SendUEContextReleaseCompleteEvt struct {
	Ids UeIds
}

func (e *SendUEContextReleaseCompleteEvt) Type() NgapEventType { return SendUEContextReleaseComplete }

func NewSendUEContextReleaseCompleteEvt(ids UeIds) *SendUEContextReleaseCompleteEvt {
	return &SendUEContextReleaseCompleteEvt{Ids: ids}
}

// SendHandoverRequiredEvt event
type SendHandoverRequiredEvt struct {
	Ids       UeIds
	TargetPci uint16
	Container []byte
}

func (e *SendHandoverRequiredEvt) Type() NgapEventType { return SendHandoverRequired }

func NewSendHandoverRequiredEvt(ids UeIds, targetPci uint16, container []byte) *SendHandoverRequiredEvt {
	return &SendHandoverRequiredEvt{Ids: ids, TargetPci: targetPci, Container: container}
}

// SendHandoverCancelEvt event
type SendHandoverCancelEvt struct {
	Ids   UeIds
	Cause ReleaseCause
}

func (e *SendHandoverCancelEvt) Type() NgapEventType { return SendHandoverCancel }

func NewSendHandoverCancelEvt(ids UeIds, cause ReleaseCause) *SendHandoverCancelEvt {
	return &SendHandoverCancelEvt{Ids: ids, Cause: cause}
}
