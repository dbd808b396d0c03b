// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package codec converts between UPER encoded NR RRC PDUs and the decoded
// messages of package message.
package codec

import (
	"errors"
	"fmt"

	"github.com/lvdund/asn1go/aper"
	"github.com/lvdund/rrc"
	rrcies "github.com/lvdund/rrc/ies"
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/rrc/message"
)

var (
	ErrEmptyPdu       = errors.New("empty RRC PDU")
	ErrUnsupportedMsg = errors.New("unsupported RRC message")
)

// RSRP-Range 0 maps to -156 dBm.
const rsrpOffset = 156

// Codec implements context.Codec on top of the lvdund/rrc ASN.1 types.
type Codec struct{}

func New() *Codec {
	return &Codec{}
}

// DecodeUl decodes a UL-CCCH message when lcid is SRB0 and a UL-DCCH
// message otherwise.
func (c *Codec) DecodeUl(lcid uint32, pdu []byte) (*message.UlMessage, error) {
	if len(pdu) == 0 {
		return nil, ErrEmptyPdu
	}
	if lcid == context.LcidSrb0 {
		return decodeCcch(pdu)
	}
	return decodeDcch(pdu)
}

func decodeCcch(pdu []byte) (*message.UlMessage, error) {
	var msg rrcies.UL_CCCH_Message
	if err := rrc.Decode(pdu, &msg); err != nil {
		return nil, fmt.Errorf("decode UL-CCCH: %w", err)
	}
	c1 := msg.Message.C1
	if msg.Message.Choice != rrcies.UL_CCCH_MessageType_Choice_C1 || c1 == nil {
		return nil, fmt.Errorf("UL-CCCH: %w", ErrUnsupportedMsg)
	}

	switch c1.Choice {
	case rrcies.UL_CCCH_MessageType_C1_Choice_RrcSetupRequest:
		if c1.RrcSetupRequest == nil {
			break
		}
		ies := c1.RrcSetupRequest.RrcSetupRequest
		return &message.UlMessage{
			Kind: message.UlSetupRequest,
			SetupRequest: &message.SetupRequest{
				UeIdentity: ueIdentity(ies.Ue_Identity),
				Cause:      establishmentCause(ies.EstablishmentCause),
			},
		}, nil
	case rrcies.UL_CCCH_MessageType_C1_Choice_RrcReestablishmentRequest:
		if c1.RrcReestablishmentRequest == nil {
			break
		}
		ies := c1.RrcReestablishmentRequest.RrcReestablishmentRequest
		return &message.UlMessage{
			Kind: message.UlReestablishmentRequest,
			Reestablishment: &message.ReestablishmentRequest{
				CRnti: uint16(ies.Ue_Identity.C_RNTI.Value),
				Pci:   uint16(ies.Ue_Identity.PhysCellId.Value),
				Cause: reestablishmentCause(ies.ReestablishmentCause),
			},
		}, nil
	}
	return nil, fmt.Errorf("UL-CCCH choice %d: %w", c1.Choice, ErrUnsupportedMsg)
}

func decodeDcch(pdu []byte) (*message.UlMessage, error) {
	var msg rrcies.UL_DCCH_Message
	if err := rrc.Decode(pdu, &msg); err != nil {
		return nil, fmt.Errorf("decode UL-DCCH: %w", err)
	}
	c1 := msg.Message.C1
	if msg.Message.Choice != rrcies.UL_DCCH_MessageType_Choice_C1 || c1 == nil {
		return nil, fmt.Errorf("UL-DCCH: %w", ErrUnsupportedMsg)
	}

	switch c1.Choice {
	case rrcies.UL_DCCH_MessageType_C1_Choice_RrcSetupComplete:
		if m := c1.RrcSetupComplete; m != nil && m.CriticalExtensions.RrcSetupComplete != nil {
			return decodeSetupComplete(m)
		}
	case rrcies.UL_DCCH_MessageType_C1_Choice_SecurityModeComplete:
		if m := c1.SecurityModeComplete; m != nil {
			return &message.UlMessage{
				Kind:          message.UlSecurityModeComplete,
				TransactionId: uint8(m.Rrc_TransactionIdentifier.Value),
			}, nil
		}
	case rrcies.UL_DCCH_MessageType_C1_Choice_SecurityModeFailure:
		if m := c1.SecurityModeFailure; m != nil {
			return &message.UlMessage{
				Kind:          message.UlSecurityModeFailure,
				TransactionId: uint8(m.Rrc_TransactionIdentifier.Value),
			}, nil
		}
	case rrcies.UL_DCCH_MessageType_C1_Choice_UeCapabilityInformation:
		if m := c1.UeCapabilityInformation; m != nil && m.CriticalExtensions.UeCapabilityInformation != nil {
			return decodeCapabilityInformation(m)
		}
	case rrcies.UL_DCCH_MessageType_C1_Choice_RrcReconfigurationComplete:
		if m := c1.RrcReconfigurationComplete; m != nil {
			return &message.UlMessage{
				Kind:          message.UlReconfigurationComplete,
				TransactionId: uint8(m.Rrc_TransactionIdentifier.Value),
			}, nil
		}
	case rrcies.UL_DCCH_MessageType_C1_Choice_RrcReestablishmentComplete:
		if m := c1.RrcReestablishmentComplete; m != nil {
			return &message.UlMessage{
				Kind:          message.UlReestablishmentComplete,
				TransactionId: uint8(m.Rrc_TransactionIdentifier.Value),
			}, nil
		}
	case rrcies.UL_DCCH_MessageType_C1_Choice_UlInformationTransfer:
		if m := c1.UlInformationTransfer; m != nil {
			ies := m.CriticalExtensions.UlInformationTransfer
			if ies == nil || ies.DedicatedNAS_Message == nil {
				return nil, errors.New("ULInformationTransfer without NAS")
			}
			return &message.UlMessage{
				Kind:   message.UlInformationTransfer,
				NasPdu: ies.DedicatedNAS_Message.Value,
			}, nil
		}
	case rrcies.UL_DCCH_MessageType_C1_Choice_MeasurementReport:
		if m := c1.MeasurementReport; m != nil && m.CriticalExtensions.MeasurementReport != nil {
			return decodeMeasurementReport(m.CriticalExtensions.MeasurementReport)
		}
	}
	return nil, fmt.Errorf("UL-DCCH choice %d: %w", c1.Choice, ErrUnsupportedMsg)
}

func decodeSetupComplete(m *rrcies.RRCSetupComplete) (*message.UlMessage, error) {
	ies := m.CriticalExtensions.RrcSetupComplete
	complete := &message.SetupComplete{
		SelectedPlmn: uint8(ies.SelectedPLMN_Identity),
		NasPdu:       ies.DedicatedNAS_Message.Value,
	}
	if v := ies.Ng_5G_S_TMSI_Value; v != nil &&
		v.Choice == rrcies.RRCSetupComplete_IEs_ng_5G_S_TMSI_Value_Choice_Ng_5G_S_TMSI {
		complete.STmsi = bitsToUint(v.Ng_5G_S_TMSI.Value)
	}
	return &message.UlMessage{
		Kind:          message.UlSetupComplete,
		TransactionId: uint8(m.Rrc_TransactionIdentifier.Value),
		SetupComplete: complete,
	}, nil
}

func decodeCapabilityInformation(m *rrcies.UECapabilityInformation) (*message.UlMessage, error) {
	ies := m.CriticalExtensions.UeCapabilityInformation
	capability := &message.Capability{}
	if list := ies.Ue_CapabilityRAT_ContainerList; list != nil {
		for _, container := range list.Value {
			switch container.Rat_Type.Value {
			case rrcies.RAT_Type_Enum_nr:
				capability.Nr = []byte(container.Ue_CapabilityRAT_Container)
			case rrcies.RAT_Type_Enum_eutra:
				capability.Eutra = []byte(container.Ue_CapabilityRAT_Container)
			}
		}
	}
	return &message.UlMessage{
		Kind:          message.UlCapabilityInformation,
		TransactionId: uint8(m.Rrc_TransactionIdentifier.Value),
		Capability:    capability,
	}, nil
}

func decodeMeasurementReport(ies *rrcies.MeasurementReport_IEs) (*message.UlMessage, error) {
	results := ies.MeasResults
	if len(results.MeasResultServingMOList.Value) == 0 {
		return nil, errors.New("MeasurementReport without serving cell result")
	}
	serving, ok := ssbRsrp(results.MeasResultServingMOList.Value[0].MeasResultServingCell.MeasResult)
	if !ok {
		return nil, errors.New("MeasurementReport without serving cell RSRP")
	}
	report := &message.MeasurementReport{
		MeasId:      uint8(results.MeasId.Value),
		ServingRsrp: serving,
	}
	neigh := results.MeasResultNeighCells
	if neigh != nil && neigh.Choice == rrcies.MeasResults_measResultNeighCells_Choice_MeasResultListNR &&
		neigh.MeasResultListNR != nil {
		for _, n := range neigh.MeasResultListNR.Value {
			rsrp, ok := ssbRsrp(n.MeasResult)
			if !ok || n.PhysCellId == nil {
				continue
			}
			report.Neighbours = append(report.Neighbours, message.NeighbourResult{
				Pci:  uint16(n.PhysCellId.Value),
				Rsrp: rsrp,
			})
		}
	}
	return &message.UlMessage{Kind: message.UlMeasurementReport, Measurement: report}, nil
}

func ssbRsrp(r *rrcies.MeasResultNR_measResult) (int, bool) {
	if r == nil || r.CellResults == nil || r.CellResults.ResultsSSB_Cell == nil ||
		r.CellResults.ResultsSSB_Cell.Rsrp == nil {
		return 0, false
	}
	return int(r.CellResults.ResultsSSB_Cell.Rsrp.Value) - rsrpOffset, true
}

func ueIdentity(id rrcies.InitialUE_Identity) uint64 {
	switch id.Choice {
	case rrcies.InitialUE_Identity_Choice_RandomValue:
		return bitsToUint(id.RandomValue)
	case rrcies.InitialUE_Identity_Choice_Ng_5G_S_TMSI_Part1:
		return bitsToUint(id.Ng_5G_S_TMSI_Part1)
	}
	return 0
}

var establishmentCauses = map[uint64]message.EstablishmentCause{
	uint64(rrcies.EstablishmentCause_Enum_emergency):          message.CauseEmergency,
	uint64(rrcies.EstablishmentCause_Enum_highPriorityAccess): message.CauseHighPriorityAccess,
	uint64(rrcies.EstablishmentCause_Enum_mt_Access):          message.CauseMtAccess,
	uint64(rrcies.EstablishmentCause_Enum_mo_Signalling):      message.CauseMoSignalling,
	uint64(rrcies.EstablishmentCause_Enum_mo_Data):            message.CauseMoData,
	uint64(rrcies.EstablishmentCause_Enum_mo_VoiceCall):       message.CauseMoVoiceCall,
	uint64(rrcies.EstablishmentCause_Enum_mo_VideoCall):       message.CauseMoVideoCall,
	uint64(rrcies.EstablishmentCause_Enum_mo_SMS):             message.CauseMoSms,
	uint64(rrcies.EstablishmentCause_Enum_mps_PriorityAccess): message.CauseMpsPriorityAccess,
	uint64(rrcies.EstablishmentCause_Enum_mcs_PriorityAccess): message.CauseMcsPriorityAccess,
}

func establishmentCause(c rrcies.EstablishmentCause) message.EstablishmentCause {
	if cause, ok := establishmentCauses[uint64(c.Value)]; ok {
		return cause
	}
	return message.CauseMoSignalling
}

func reestablishmentCause(c rrcies.ReestablishmentCause) message.ReestablishmentCause {
	switch uint64(c.Value) {
	case uint64(rrcies.ReestablishmentCause_Enum_reconfigurationFailure):
		return message.ReestReconfigurationFailure
	case uint64(rrcies.ReestablishmentCause_Enum_handoverFailure):
		return message.ReestHandoverFailure
	case uint64(rrcies.ReestablishmentCause_Enum_otherFailure):
		return message.ReestOtherFailure
	}
	return message.ReestSpare
}

// bitsToUint reads at most 64 leading bits of b as a big endian number.
func bitsToUint(b aper.BitString) uint64 {
	var v uint64
	n := int(b.NumBits)
	for i := 0; i < n && i < 64 && i/8 < len(b.Bytes); i++ {
		if b.Bytes[i/8]&(0x80>>(i%8)) != 0 {
			v |= 1 << (n - 1 - i)
		}
	}
	return v
}

func uintToBits(v uint64, n int) aper.BitString {
	b := aper.BitString{Bytes: make([]byte, (n+7)/8), NumBits: uint64(n)}
	for i := 0; i < n; i++ {
		if v&(1<<(n-1-i)) != 0 {
			b.Bytes[i/8] |= 0x80 >> (i % 8)
		}
	}
	return b
}
