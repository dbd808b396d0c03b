// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package message is the decoded form of the NR RRC messages exchanged with
// the UE. The codec turns ASN.1 PDUs into these values and back.
package message

import (
	"fmt"

	"github.com/omec-project/gnbrrc/pucch"
)

type UlKind uint8

const (
	UlUnknown UlKind = iota
	UlSetupRequest
	UlReestablishmentRequest
	UlSetupComplete
	UlSecurityModeComplete
	UlSecurityModeFailure
	UlCapabilityInformation
	UlReconfigurationComplete
	UlReestablishmentComplete
	UlInformationTransfer
	UlMeasurementReport
)

var ulKindNames = [...]string{
	UlUnknown:                 "Unknown",
	UlSetupRequest:            "RRCSetupRequest",
	UlReestablishmentRequest:  "RRCReestablishmentRequest",
	UlSetupComplete:           "RRCSetupComplete",
	UlSecurityModeComplete:    "SecurityModeComplete",
	UlSecurityModeFailure:     "SecurityModeFailure",
	UlCapabilityInformation:   "UECapabilityInformation",
	UlReconfigurationComplete: "RRCReconfigurationComplete",
	UlReestablishmentComplete: "RRCReestablishmentComplete",
	UlInformationTransfer:     "ULInformationTransfer",
	UlMeasurementReport:       "MeasurementReport",
}

func (k UlKind) String() string {
	if int(k) < len(ulKindNames) {
		return ulKindNames[k]
	}
	return fmt.Sprintf("UlKind(%d)", k)
}

// EstablishmentCause follows the enumeration order of TS 38.331.
type EstablishmentCause uint8

const (
	CauseEmergency EstablishmentCause = iota
	CauseHighPriorityAccess
	CauseMtAccess
	CauseMoSignalling
	CauseMoData
	CauseMoVoiceCall
	CauseMoVideoCall
	CauseMoSms
	CauseMpsPriorityAccess
	CauseMcsPriorityAccess
)

// ReestablishmentCause follows the enumeration order of TS 38.331.
type ReestablishmentCause uint8

const (
	ReestReconfigurationFailure ReestablishmentCause = iota
	ReestHandoverFailure
	ReestOtherFailure
	ReestSpare
)

func (c ReestablishmentCause) String() string {
	switch c {
	case ReestReconfigurationFailure:
		return "reconfigurationFailure"
	case ReestHandoverFailure:
		return "handoverFailure"
	case ReestOtherFailure:
		return "otherFailure"
	default:
		return "spare"
	}
}

type SetupRequest struct {
	// 39-bit random value or 5G-S-TMSI part 1
	UeIdentity uint64
	Cause      EstablishmentCause
}

type ReestablishmentRequest struct {
	CRnti     uint16
	Pci       uint16
	ShortMacI uint16
	Cause     ReestablishmentCause
}

type SetupComplete struct {
	SelectedPlmn uint8
	NasPdu       []byte
	// 5G-S-TMSI, zero when the UE did not send one
	STmsi uint64
}

// Capability carries the UE radio capability containers per RAT.
type Capability struct {
	Nr    []byte
	Eutra []byte
}

type NeighbourResult struct {
	Pci  uint16
	Rsrp int
}

// MeasurementReport holds RSRP values already converted to dBm.
type MeasurementReport struct {
	MeasId      uint8
	ServingRsrp int
	Neighbours  []NeighbourResult
}

// Best returns the strongest neighbour, if any.
func (m *MeasurementReport) Best() (NeighbourResult, bool) {
	if len(m.Neighbours) == 0 {
		return NeighbourResult{}, false
	}
	best := m.Neighbours[0]
	for _, n := range m.Neighbours[1:] {
		if n.Rsrp > best.Rsrp {
			best = n
		}
	}
	return best, true
}

// UlMessage is one decoded uplink CCCH or DCCH message. Only the field that
// matches Kind is set.
type UlMessage struct {
	Kind          UlKind
	TransactionId uint8

	SetupRequest    *SetupRequest
	Reestablishment *ReestablishmentRequest
	SetupComplete   *SetupComplete
	Capability      *Capability
	NasPdu          []byte
	Measurement     *MeasurementReport
}

type DlKind uint8

const (
	DlSetup DlKind = iota
	DlReject
	DlSecurityModeCommand
	DlCapabilityEnquiry
	DlReconfiguration
	DlRelease
	DlReestablishment
	DlInformationTransfer
	// DlHandoverCommand is an already encoded RRCReconfiguration built by the
	// target cell.
	DlHandoverCommand
)

var dlKindNames = [...]string{
	DlSetup:               "RRCSetup",
	DlReject:              "RRCReject",
	DlSecurityModeCommand: "SecurityModeCommand",
	DlCapabilityEnquiry:   "UECapabilityEnquiry",
	DlReconfiguration:     "RRCReconfiguration",
	DlRelease:             "RRCRelease",
	DlReestablishment:     "RRCReestablishment",
	DlInformationTransfer: "DLInformationTransfer",
	DlHandoverCommand:     "HandoverCommand",
}

func (k DlKind) String() string {
	if int(k) < len(dlKindNames) {
		return dlKindNames[k]
	}
	return fmt.Sprintf("DlKind(%d)", k)
}

// Ccch reports whether the message is sent on SRB0.
func (k DlKind) Ccch() bool {
	return k == DlSetup || k == DlReject
}

type RlcMode uint8

const (
	RlcAm RlcMode = iota
	RlcUmBidirectional
	// SRB0 only
	RlcTm
)

type DrbConfig struct {
	Id     uint8
	Lcid   uint32
	FiveQi int64
	Mode   RlcMode
	// priority and prioritisedBitRate of the logical channel
	Priority           uint8
	PrioritisedBitRate uint32
	BucketSizeDuration uint32
	PdcpDiscardTimer   uint32
}

type MeasConfig struct {
	A3Offset   int
	Neighbours []uint16
}

type SecurityAlgorithms struct {
	Ciphering uint8
	Integrity uint8
}

// Reconfiguration lists the delta applied by one RRCReconfiguration.
type Reconfiguration struct {
	Srbs        []uint8
	Drbs        []DrbConfig
	ReleaseDrbs []uint8
	Sr          *pucch.Entry
	Cqi         *pucch.Entry
	Meas        *MeasConfig
	NasPdus     [][]byte
	FullConfig  bool
}

// DlMessage is one downlink message. Only the field matching Kind is read.
type DlMessage struct {
	Kind          DlKind
	TransactionId uint8

	Setup           *Reconfiguration
	Security        *SecurityAlgorithms
	Reconfiguration *Reconfiguration
	// next hop chaining count for RRCReestablishment
	Ncc        uint8
	NasPdu     []byte
	WaitTime   uint8
	RawPayload []byte
}

// PagingRecord identifies one paged UE by its 48-bit 5G-S-TMSI.
type PagingRecord struct {
	UeId  uint32
	STmsi uint64
}
