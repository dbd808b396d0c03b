// SPDX-FileCopyrightText: 2025 Intel Corporation
// Copyright 2021 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"net"
	"slices"

	"github.com/omec-project/ngap/ngapType"
)

const AmfUeNgapIdUnspecified int64 = -1

// UeCtxRelState indicates UE Context release state
// NGAP has already received UE Context release command
// None: not ongoing, Ongoing: release in progress
type UeCtxRelState bool

const (
	UeCtxRelStateNone    UeCtxRelState = false
	UeCtxRelStateOngoing UeCtxRelState = true
)

// NgapUe is the NG-C side of a UE: its identities towards the AMF and the
// PDU sessions the AMF set up. The radio side lives in RrcUe.
type NgapUe struct {
	// UE identity
	RanUeNgapId  int64
	AmfUeNgapId  int64
	Rnti         uint16
	MaskedIMEISV *ngapType.MaskedIMEISV // TS 38.413 9.3.1.54

	// Relative Context
	AMF *GnbAmf

	// PDU Session
	PduSessions map[int64]*PDUSession // pduSessionId as key
	// unsuccessful transfers of sessions rejected before reaching RRC,
	// reported with the next setup response
	FailedSetup map[int64][]byte

	// Others
	Guami        *ngapType.GUAMI
	IndexToRfsp  int64
	AllowedNssai *ngapType.AllowedNSSAI

	UeCtxRelState UeCtxRelState
	// target cell of the handover being prepared, if any
	HoTargetPci *uint16
}

// PDUSession holds PDU session information
type PDUSession struct {
	Id     int64 // PDU Session ID
	Snssai ngapType.SNSSAI
	// QoS flow carried by the data radio bearer
	Qfi     uint8
	FiveQi  int64
	UpfAddr net.IP
	TeidOut uint32
	TeidIn  uint32
	GnbAddr net.IP
}

// GetUserLocationInformation returns the NR location of the serving cell.
func (ue *NgapUe) GetUserLocationInformation(loc ngapType.UserLocationInformationNR) *ngapType.UserLocationInformation {
	info := loc
	return &ngapType.UserLocationInformation{
		Present:                   ngapType.UserLocationInformationPresentUserLocationInformationNR,
		UserLocationInformationNR: &info,
	}
}

// FindPDUSession returns the PDU session for the given ID, or nil if not found
func (ue *NgapUe) FindPDUSession(pduSessionID int64) *PDUSession {
	return ue.PduSessions[pduSessionID]
}

// StorePDUSession records or replaces a PDU session
func (ue *NgapUe) StorePDUSession(s *PDUSession) {
	ue.PduSessions[s.Id] = s
}

// DeletePDUSession removes the PDU session for the given ID
func (ue *NgapUe) DeletePDUSession(pduSessionId int64) {
	delete(ue.PduSessions, pduSessionId)
}

// PDUSessionIds returns the session identifiers in ascending order.
func (ue *NgapUe) PDUSessionIds() []int64 {
	ids := make([]int64, 0, len(ue.PduSessions))
	for id := range ue.PduSessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// TakeFailedSetup returns and forgets the sessions rejected while parsing
// the last setup request.
func (ue *NgapUe) TakeFailedSetup() map[int64][]byte {
	failed := ue.FailedSetup
	ue.FailedSetup = nil
	return failed
}

// Detach removes the UE from its AMF.
func (ue *NgapUe) Detach() {
	if ue.AMF != nil {
		ue.AMF.DeleteNgapUe(ue.RanUeNgapId)
	}
}
