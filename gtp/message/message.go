// SPDX-FileCopyrightText: 2025 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"encoding/hex"
	"errors"

	"github.com/omec-project/gnbrrc/logger"
	"github.com/wmnsk/go-gtp/gtpv1/message"
)

// [TS 38.415] 5.5.2 Frame format for the PDU Session user plane protocol
const (
	DL_PDU_SESSION_INFORMATION_TYPE = 0x00
	UL_PDU_SESSION_INFORMATION_TYPE = 0x10
)

const GTPU_PORT = 2152

var ErrNoPduSessionContainer = errors.New("no PDU session container in extension headers")

// Packet is a G-PDU received on NG-U with the QoS marking of its PDU
// session container, if any.
type Packet struct {
	TEID    uint32
	Payload []byte
	HasQoS  bool
	QFI     uint8
	RQI     bool
}

// ParseTPDU extracts the payload and the QoS flow of a G-PDU.
func ParseTPDU(pdu *message.TPDU) (*Packet, error) {
	if pdu == nil {
		return nil, errors.New("nil TPDU")
	}
	p := &Packet{TEID: pdu.TEID(), Payload: pdu.Payload}
	if !pdu.HasExtensionHeader() {
		return p, nil
	}
	for _, eh := range pdu.ExtensionHeaders {
		if eh.Type != message.ExtHeaderTypePDUSessionContainer {
			logger.GtpLog.Warnf("unsupported extension header type: %x", eh.Type)
			continue
		}
		if len(eh.Content) < 2 {
			logger.GtpLog.Errorf("PDU session container too short: %d bytes", len(eh.Content))
			continue
		}
		p.HasQoS = true
		p.RQI = (eh.Content[1]>>6)&0x1 == 1
		p.QFI = eh.Content[1] & 0x3f
		logger.GtpLog.Debugf("PDU session container type %d: %s", eh.Content[0]>>4, hex.EncodeToString(eh.Content))
	}
	if !p.HasQoS {
		return p, ErrNoPduSessionContainer
	}
	return p, nil
}

// BuildUplinkPacket encapsulates an uplink SDU of QoS flow qfi.
func BuildUplinkPacket(teid uint32, qfi uint8, payload []byte) ([]byte, error) {
	return buildPacket(teid, UL_PDU_SESSION_INFORMATION_TYPE, qfi, payload)
}

// BuildDownlinkPacket is the UPF side of BuildUplinkPacket.
func BuildDownlinkPacket(teid uint32, qfi uint8, payload []byte) ([]byte, error) {
	return buildPacket(teid, DL_PDU_SESSION_INFORMATION_TYPE, qfi, payload)
}

func buildPacket(teid uint32, pduType, qfi uint8, payload []byte) ([]byte, error) {
	header := message.NewHeader(0x34, message.MsgTypeTPDU, teid, 0x00, payload).WithExtensionHeaders(
		message.NewExtensionHeader(
			message.ExtHeaderTypePDUSessionContainer,
			[]byte{pduType, qfi & 0x3f},
			message.ExtHeaderTypeNoMoreExtensionHeaders,
		),
	)
	b := make([]byte, header.MarshalLen())
	if err := header.MarshalTo(b); err != nil {
		logger.GtpLog.Errorf("go-gtp MarshalTo error: %+v", err)
		return nil, err
	}
	return b, nil
}
