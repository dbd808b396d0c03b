// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"errors"
	"fmt"

	"github.com/lvdund/asn1go/aper"
	"github.com/lvdund/rrc"
	rrcies "github.com/lvdund/rrc/ies"
	"github.com/omec-project/gnbrrc/rrc/message"
)

var cipheringAlgorithms = [...]rrcies.CipheringAlgorithm{
	{Value: rrcies.CipheringAlgorithm_Enum_nea0},
	{Value: rrcies.CipheringAlgorithm_Enum_nea1},
	{Value: rrcies.CipheringAlgorithm_Enum_nea2},
	{Value: rrcies.CipheringAlgorithm_Enum_nea3},
}

var integrityAlgorithms = [...]rrcies.IntegrityProtAlgorithm{
	{Value: rrcies.IntegrityProtAlgorithm_Enum_nia0},
	{Value: rrcies.IntegrityProtAlgorithm_Enum_nia1},
	{Value: rrcies.IntegrityProtAlgorithm_Enum_nia2},
	{Value: rrcies.IntegrityProtAlgorithm_Enum_nia3},
}

// EncodeDl encodes msg as a DL-CCCH message for RRCSetup and RRCReject and as
// a DL-DCCH message otherwise. A handover command is already encoded.
func (c *Codec) EncodeDl(msg *message.DlMessage) ([]byte, error) {
	switch msg.Kind {
	case message.DlSetup:
		return encodeSetup(msg)
	case message.DlReject:
		return encodeCcch(&rrcies.DL_CCCH_MessageType_C1{
			Choice: rrcies.DL_CCCH_MessageType_C1_Choice_RrcReject,
			RrcReject: &rrcies.RRCReject{
				CriticalExtensions: rrcies.RRCReject_CriticalExtensions{
					Choice: rrcies.RRCReject_CriticalExtensions_Choice_RrcReject,
					RrcReject: &rrcies.RRCReject_IEs{
						WaitTime: &rrcies.RejectWaitTime{Value: uint64(msg.WaitTime)},
					},
				},
			},
		})
	case message.DlSecurityModeCommand:
		return encodeSecurityModeCommand(msg)
	case message.DlCapabilityEnquiry:
		return encodeDcch(&rrcies.DL_DCCH_MessageType_C1{
			Choice: rrcies.DL_DCCH_MessageType_C1_Choice_UeCapabilityEnquiry,
			UeCapabilityEnquiry: &rrcies.UECapabilityEnquiry{
				Rrc_TransactionIdentifier: transactionId(msg),
				CriticalExtensions: rrcies.UECapabilityEnquiry_CriticalExtensions{
					Choice: rrcies.UECapabilityEnquiry_CriticalExtensions_Choice_UeCapabilityEnquiry,
					UeCapabilityEnquiry: &rrcies.UECapabilityEnquiry_IEs{
						Ue_CapabilityRAT_RequestList: rrcies.UE_CapabilityRAT_RequestList{
							Value: []rrcies.UE_CapabilityRAT_Request{
								{Rat_Type: rrcies.RAT_Type{Value: rrcies.RAT_Type_Enum_nr}},
								{Rat_Type: rrcies.RAT_Type{Value: rrcies.RAT_Type_Enum_eutra}},
							},
						},
					},
				},
			},
		})
	case message.DlReconfiguration:
		return encodeReconfiguration(msg)
	case message.DlRelease:
		return encodeDcch(&rrcies.DL_DCCH_MessageType_C1{
			Choice: rrcies.DL_DCCH_MessageType_C1_Choice_RrcRelease,
			RrcRelease: &rrcies.RRCRelease{
				Rrc_TransactionIdentifier: transactionId(msg),
				CriticalExtensions: rrcies.RRCRelease_CriticalExtensions{
					Choice:     rrcies.RRCRelease_CriticalExtensions_Choice_RrcRelease,
					RrcRelease: &rrcies.RRCRelease_IEs{},
				},
			},
		})
	case message.DlReestablishment:
		return encodeDcch(&rrcies.DL_DCCH_MessageType_C1{
			Choice: rrcies.DL_DCCH_MessageType_C1_Choice_RrcReestablishment,
			RrcReestablishment: &rrcies.RRCReestablishment{
				Rrc_TransactionIdentifier: transactionId(msg),
				CriticalExtensions: rrcies.RRCReestablishment_CriticalExtensions{
					Choice: rrcies.RRCReestablishment_CriticalExtensions_Choice_RrcReestablishment,
					RrcReestablishment: &rrcies.RRCReestablishment_IEs{
						NextHopChainingCount: rrcies.NextHopChainingCount{Value: uint64(msg.Ncc)},
					},
				},
			},
		})
	case message.DlInformationTransfer:
		return encodeDcch(&rrcies.DL_DCCH_MessageType_C1{
			Choice: rrcies.DL_DCCH_MessageType_C1_Choice_DlInformationTransfer,
			DlInformationTransfer: &rrcies.DLInformationTransfer{
				Rrc_TransactionIdentifier: transactionId(msg),
				CriticalExtensions: rrcies.DLInformationTransfer_CriticalExtensions{
					Choice: rrcies.DLInformationTransfer_CriticalExtensions_Choice_DlInformationTransfer,
					DlInformationTransfer: &rrcies.DLInformationTransfer_IEs{
						DedicatedNAS_Message: &rrcies.DedicatedNAS_Message{Value: msg.NasPdu},
					},
				},
			},
		})
	case message.DlHandoverCommand:
		if len(msg.RawPayload) == 0 {
			return nil, errors.New("empty handover command")
		}
		return msg.RawPayload, nil
	}
	return nil, fmt.Errorf("%s: %w", msg.Kind, ErrUnsupportedMsg)
}

func transactionId(msg *message.DlMessage) rrcies.RRC_TransactionIdentifier {
	return rrcies.RRC_TransactionIdentifier{Value: uint64(msg.TransactionId)}
}

func encodeCcch(c1 *rrcies.DL_CCCH_MessageType_C1) ([]byte, error) {
	msg := rrcies.DL_CCCH_Message{
		Message: rrcies.DL_CCCH_MessageType{
			Choice: rrcies.DL_CCCH_MessageType_Choice_C1,
			C1:     c1,
		},
	}
	encoded, err := rrc.Encode(&msg)
	if err != nil {
		return nil, fmt.Errorf("encode DL-CCCH: %w", err)
	}
	return encoded, nil
}

func encodeDcch(c1 *rrcies.DL_DCCH_MessageType_C1) ([]byte, error) {
	msg := rrcies.DL_DCCH_Message{
		Message: rrcies.DL_DCCH_MessageType{
			Choice: rrcies.DL_DCCH_MessageType_Choice_C1,
			C1:     c1,
		},
	}
	encoded, err := rrc.Encode(&msg)
	if err != nil {
		return nil, fmt.Errorf("encode DL-DCCH: %w", err)
	}
	return encoded, nil
}

// masterCellGroup encodes the CellGroupConfig carried as an OCTET STRING.
// SR and CQI resources are configured by the MAC.
func masterCellGroup() ([]byte, error) {
	cellGroup := rrcies.CellGroupConfig{
		CellGroupId:  rrcies.CellGroupId{Value: 0},
		SpCellConfig: &rrcies.SpCellConfig{},
	}
	encoded, err := rrc.Encode(&cellGroup)
	if err != nil {
		return nil, fmt.Errorf("encode CellGroupConfig: %w", err)
	}
	return encoded, nil
}

func encodeSetup(msg *message.DlMessage) ([]byte, error) {
	if msg.Setup == nil {
		return nil, errors.New("RRCSetup without configuration")
	}
	cellGroup, err := masterCellGroup()
	if err != nil {
		return nil, err
	}
	return encodeCcch(&rrcies.DL_CCCH_MessageType_C1{
		Choice: rrcies.DL_CCCH_MessageType_C1_Choice_RrcSetup,
		RrcSetup: &rrcies.RRCSetup{
			Rrc_TransactionIdentifier: transactionId(msg),
			CriticalExtensions: rrcies.RRCSetup_CriticalExtensions{
				Choice: rrcies.RRCSetup_CriticalExtensions_Choice_RrcSetup,
				RrcSetup: &rrcies.RRCSetup_IEs{
					RadioBearerConfig: radioBearerConfig(msg.Setup),
					MasterCellGroup:   aper.OctetString(cellGroup),
				},
			},
		},
	})
}

func encodeSecurityModeCommand(msg *message.DlMessage) ([]byte, error) {
	sec := msg.Security
	if sec == nil || int(sec.Ciphering) >= len(cipheringAlgorithms) || int(sec.Integrity) >= len(integrityAlgorithms) {
		return nil, errors.New("SecurityModeCommand without valid algorithms")
	}
	integrity := integrityAlgorithms[sec.Integrity]
	return encodeDcch(&rrcies.DL_DCCH_MessageType_C1{
		Choice: rrcies.DL_DCCH_MessageType_C1_Choice_SecurityModeCommand,
		SecurityModeCommand: &rrcies.SecurityModeCommand{
			Rrc_TransactionIdentifier: transactionId(msg),
			CriticalExtensions: rrcies.SecurityModeCommand_CriticalExtensions{
				Choice: rrcies.SecurityModeCommand_CriticalExtensions_Choice_SecurityModeCommand,
				SecurityModeCommand: &rrcies.SecurityModeCommand_IEs{
					SecurityConfigSMC: rrcies.SecurityConfigSMC{
						SecurityAlgorithmConfig: rrcies.SecurityAlgorithmConfig{
							CipheringAlgorithm:     cipheringAlgorithms[sec.Ciphering],
							IntegrityProtAlgorithm: &integrity,
						},
					},
				},
			},
		},
	})
}

func encodeReconfiguration(msg *message.DlMessage) ([]byte, error) {
	reconf := msg.Reconfiguration
	if reconf == nil {
		return nil, errors.New("RRCReconfiguration without configuration")
	}
	ies := &rrcies.RRCReconfiguration_IEs{}
	if len(reconf.Srbs) > 0 || len(reconf.Drbs) > 0 || len(reconf.ReleaseDrbs) > 0 {
		rb := radioBearerConfig(reconf)
		ies.RadioBearerConfig = &rb
	}

	ext := &rrcies.RRCReconfiguration_v1530_IEs{}
	if reconf.Sr != nil || reconf.Cqi != nil || reconf.FullConfig {
		cellGroup, err := masterCellGroup()
		if err != nil {
			return nil, err
		}
		mcg := aper.OctetString(cellGroup)
		ext.MasterCellGroup = &mcg
	}
	if reconf.FullConfig {
		ext.FullConfig = &rrcies.RRCReconfiguration_v1530_IEs_fullConfig{
			Value: rrcies.RRCReconfiguration_v1530_IEs_fullConfig_Enum_true,
		}
	}
	for _, nas := range reconf.NasPdus {
		ext.DedicatedNAS_MessageList = append(ext.DedicatedNAS_MessageList, rrcies.DedicatedNAS_Message{Value: nas})
	}
	if ext.MasterCellGroup != nil || ext.FullConfig != nil || len(ext.DedicatedNAS_MessageList) > 0 {
		ies.NonCriticalExtension = ext
	}

	return encodeDcch(&rrcies.DL_DCCH_MessageType_C1{
		Choice: rrcies.DL_DCCH_MessageType_C1_Choice_RrcReconfiguration,
		RrcReconfiguration: &rrcies.RRCReconfiguration{
			Rrc_TransactionIdentifier: transactionId(msg),
			CriticalExtensions: rrcies.RRCReconfiguration_CriticalExtensions{
				Choice:             rrcies.RRCReconfiguration_CriticalExtensions_Choice_RrcReconfiguration,
				RrcReconfiguration: ies,
			},
		},
	})
}

func radioBearerConfig(reconf *message.Reconfiguration) rrcies.RadioBearerConfig {
	var rb rrcies.RadioBearerConfig
	if len(reconf.Srbs) > 0 {
		srbs := &rrcies.SRB_ToAddModList{}
		for _, id := range reconf.Srbs {
			srbs.Value = append(srbs.Value, rrcies.SRB_ToAddMod{
				Srb_Identity: rrcies.SRB_Identity{Value: uint64(id)},
			})
		}
		rb.Srb_ToAddModList = srbs
	}
	if len(reconf.Drbs) > 0 {
		drbs := &rrcies.DRB_ToAddModList{}
		for _, drb := range reconf.Drbs {
			drbs.Value = append(drbs.Value, rrcies.DRB_ToAddMod{
				Drb_Identity: rrcies.DRB_Identity{Value: uint64(drb.Id)},
			})
		}
		rb.Drb_ToAddModList = drbs
	}
	if len(reconf.ReleaseDrbs) > 0 {
		release := &rrcies.DRB_ToReleaseList{}
		for _, id := range reconf.ReleaseDrbs {
			release.Value = append(release.Value, rrcies.DRB_Identity{Value: uint64(id)})
		}
		rb.Drb_ToReleaseList = release
	}
	return rb
}

// EncodePaging builds a PCCH Paging message with one record per 5G-S-TMSI.
func (c *Codec) EncodePaging(records []message.PagingRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, errors.New("no paging record")
	}
	list := &rrcies.PagingRecordList{}
	for _, r := range records {
		list.Value = append(list.Value, rrcies.PagingRecord{
			Ue_Identity: rrcies.PagingUE_Identity{
				Choice:       rrcies.PagingUE_Identity_Choice_Ng_5G_S_TMSI,
				Ng_5G_S_TMSI: &rrcies.NG_5G_S_TMSI{Value: uintToBits(r.STmsi, 48)},
			},
		})
	}
	msg := rrcies.PCCH_Message{
		Message: rrcies.PCCH_MessageType{
			Choice: rrcies.PCCH_MessageType_Choice_C1,
			C1: &rrcies.PCCH_MessageType_C1{
				Choice: rrcies.PCCH_MessageType_C1_Choice_Paging,
				Paging: &rrcies.Paging{PagingRecordList: list},
			},
		},
	}
	encoded, err := rrc.Encode(&msg)
	if err != nil {
		return nil, fmt.Errorf("encode Paging: %w", err)
	}
	return encoded, nil
}
