// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"testing"

	"github.com/lvdund/asn1go/aper"
	"github.com/lvdund/rrc"
	rrcies "github.com/lvdund/rrc/ies"
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeUlDcch(t *testing.T, c1 *rrcies.UL_DCCH_MessageType_C1) []byte {
	t.Helper()
	msg := rrcies.UL_DCCH_Message{
		Message: rrcies.UL_DCCH_MessageType{
			Choice: rrcies.UL_DCCH_MessageType_Choice_C1,
			C1:     c1,
		},
	}
	pdu, err := rrc.Encode(&msg)
	require.NoError(t, err)
	return pdu
}

func decodeDlDcch(t *testing.T, pdu []byte) *rrcies.DL_DCCH_MessageType_C1 {
	t.Helper()
	var msg rrcies.DL_DCCH_Message
	require.NoError(t, rrc.Decode(pdu, &msg))
	require.NotNil(t, msg.Message.C1)
	return msg.Message.C1
}

func TestDecodeSetupRequest(t *testing.T) {
	req := rrcies.RRCSetupRequest{
		RrcSetupRequest: rrcies.RRCSetupRequest_IEs{
			Ue_Identity: rrcies.InitialUE_Identity{
				Choice:      rrcies.InitialUE_Identity_Choice_RandomValue,
				RandomValue: aper.BitString{Bytes: []byte{0x1A, 0x2B, 0x3C, 0x4D, 0x5E}, NumBits: 39},
			},
			EstablishmentCause: rrcies.EstablishmentCause{Value: rrcies.EstablishmentCause_Enum_mo_Signalling},
			Spare:              aper.BitString{Bytes: []byte{0x00}, NumBits: 1},
		},
	}
	msg := rrcies.UL_CCCH_Message{
		Message: rrcies.UL_CCCH_MessageType{
			Choice: rrcies.UL_CCCH_MessageType_Choice_C1,
			C1: &rrcies.UL_CCCH_MessageType_C1{
				Choice:          rrcies.UL_CCCH_MessageType_C1_Choice_RrcSetupRequest,
				RrcSetupRequest: &req,
			},
		},
	}
	pdu, err := rrc.Encode(&msg)
	require.NoError(t, err)

	ul, err := New().DecodeUl(context.LcidSrb0, pdu)
	require.NoError(t, err)
	assert.Equal(t, message.UlSetupRequest, ul.Kind)
	assert.Equal(t, message.CauseMoSignalling, ul.SetupRequest.Cause)
	assert.Equal(t, uint64(0x1A2B3C4D5E)>>1, ul.SetupRequest.UeIdentity)
}

func TestDecodeSetupComplete(t *testing.T) {
	pdu := encodeUlDcch(t, &rrcies.UL_DCCH_MessageType_C1{
		Choice: rrcies.UL_DCCH_MessageType_C1_Choice_RrcSetupComplete,
		RrcSetupComplete: &rrcies.RRCSetupComplete{
			Rrc_TransactionIdentifier: rrcies.RRC_TransactionIdentifier{Value: 1},
			CriticalExtensions: rrcies.RRCSetupComplete_CriticalExtensions{
				Choice: rrcies.RRCSetupComplete_CriticalExtensions_Choice_RrcSetupComplete,
				RrcSetupComplete: &rrcies.RRCSetupComplete_IEs{
					SelectedPLMN_Identity: 1,
					DedicatedNAS_Message:  rrcies.DedicatedNAS_Message{Value: []byte{0x7e, 0x00, 0x41}},
				},
			},
		},
	})

	ul, err := New().DecodeUl(context.LcidSrb1, pdu)
	require.NoError(t, err)
	assert.Equal(t, message.UlSetupComplete, ul.Kind)
	assert.Equal(t, uint8(1), ul.TransactionId)
	assert.Equal(t, uint8(1), ul.SetupComplete.SelectedPlmn)
	assert.Equal(t, []byte{0x7e, 0x00, 0x41}, ul.SetupComplete.NasPdu)
	assert.Zero(t, ul.SetupComplete.STmsi)
}

func TestDecodeUlInformationTransfer(t *testing.T) {
	pdu := encodeUlDcch(t, &rrcies.UL_DCCH_MessageType_C1{
		Choice: rrcies.UL_DCCH_MessageType_C1_Choice_UlInformationTransfer,
		UlInformationTransfer: &rrcies.ULInformationTransfer{
			CriticalExtensions: rrcies.ULInformationTransfer_CriticalExtensions{
				Choice: rrcies.ULInformationTransfer_CriticalExtensions_Choice_UlInformationTransfer,
				UlInformationTransfer: &rrcies.ULInformationTransfer_IEs{
					DedicatedNAS_Message: &rrcies.DedicatedNAS_Message{Value: []byte{0x7e, 0x02}},
				},
			},
		},
	})

	ul, err := New().DecodeUl(context.LcidSrb2, pdu)
	require.NoError(t, err)
	assert.Equal(t, message.UlInformationTransfer, ul.Kind)
	assert.Equal(t, []byte{0x7e, 0x02}, ul.NasPdu)
}

func TestDecodeMeasurementReport(t *testing.T) {
	serving := rrcies.RSRP_Range{Value: uint64(-80 + rsrpOffset)}
	target := rrcies.RSRP_Range{Value: uint64(-75 + rsrpOffset)}
	pci := rrcies.PhysCellId{Value: 2}
	pdu := encodeUlDcch(t, &rrcies.UL_DCCH_MessageType_C1{
		Choice: rrcies.UL_DCCH_MessageType_C1_Choice_MeasurementReport,
		MeasurementReport: &rrcies.MeasurementReport{
			CriticalExtensions: rrcies.MeasurementReport_CriticalExtensions{
				Choice: rrcies.MeasurementReport_CriticalExtensions_Choice_MeasurementReport,
				MeasurementReport: &rrcies.MeasurementReport_IEs{
					MeasResults: rrcies.MeasResults{
						MeasId: rrcies.MeasId{Value: 1},
						MeasResultServingMOList: rrcies.MeasResultServMOList{
							Value: []rrcies.MeasResultServMO{{
								ServCellId: rrcies.ServCellIndex{Value: 0},
								MeasResultServingCell: rrcies.MeasResultNR{
									MeasResult: &rrcies.MeasResultNR_measResult{
										CellResults: &rrcies.MeasResultNR_measResult_cellResults{
											ResultsSSB_Cell: &rrcies.MeasQuantityResults{Rsrp: &serving},
										},
									},
								},
							}},
						},
						MeasResultNeighCells: &rrcies.MeasResults_measResultNeighCells{
							Choice: rrcies.MeasResults_measResultNeighCells_Choice_MeasResultListNR,
							MeasResultListNR: &rrcies.MeasResultListNR{
								Value: []rrcies.MeasResultNR{{
									PhysCellId: &pci,
									MeasResult: &rrcies.MeasResultNR_measResult{
										CellResults: &rrcies.MeasResultNR_measResult_cellResults{
											ResultsSSB_Cell: &rrcies.MeasQuantityResults{Rsrp: &target},
										},
									},
								}},
							},
						},
					},
				},
			},
		},
	})

	ul, err := New().DecodeUl(context.LcidSrb1, pdu)
	require.NoError(t, err)
	require.Equal(t, message.UlMeasurementReport, ul.Kind)
	assert.Equal(t, -80, ul.Measurement.ServingRsrp)
	assert.Equal(t, []message.NeighbourResult{{Pci: 2, Rsrp: -75}}, ul.Measurement.Neighbours)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	c := New()
	_, err := c.DecodeUl(context.LcidSrb1, nil)
	assert.ErrorIs(t, err, ErrEmptyPdu)
	_, err = c.DecodeUl(context.LcidSrb1, []byte{0xff, 0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestEncodeDlInformationTransfer(t *testing.T) {
	pdu, err := New().EncodeDl(&message.DlMessage{
		Kind:          message.DlInformationTransfer,
		TransactionId: 2,
		NasPdu:        []byte{0x7e, 0x00, 0x42},
	})
	require.NoError(t, err)

	c1 := decodeDlDcch(t, pdu)
	require.Equal(t, rrcies.DL_DCCH_MessageType_C1_Choice_DlInformationTransfer, c1.Choice)
	ies := c1.DlInformationTransfer.CriticalExtensions.DlInformationTransfer
	require.NotNil(t, ies)
	assert.Equal(t, []byte{0x7e, 0x00, 0x42}, []byte(ies.DedicatedNAS_Message.Value))
}

func TestEncodeReconfigurationCarriesNas(t *testing.T) {
	pdu, err := New().EncodeDl(&message.DlMessage{
		Kind:          message.DlReconfiguration,
		TransactionId: 3,
		Reconfiguration: &message.Reconfiguration{
			Srbs:    []uint8{2},
			Drbs:    []message.DrbConfig{{Id: 1, Lcid: 4, FiveQi: 9}},
			NasPdus: [][]byte{{0x7e, 0x01}, {0x7e, 0x02}},
		},
	})
	require.NoError(t, err)

	c1 := decodeDlDcch(t, pdu)
	require.Equal(t, rrcies.DL_DCCH_MessageType_C1_Choice_RrcReconfiguration, c1.Choice)
	reconf := c1.RrcReconfiguration
	assert.Equal(t, uint64(3), uint64(reconf.Rrc_TransactionIdentifier.Value))
	ies := reconf.CriticalExtensions.RrcReconfiguration
	require.NotNil(t, ies)
	require.NotNil(t, ies.NonCriticalExtension)
	require.Len(t, ies.NonCriticalExtension.DedicatedNAS_MessageList, 2)
	assert.Equal(t, []byte{0x7e, 0x02}, []byte(ies.NonCriticalExtension.DedicatedNAS_MessageList[1].Value))
}

func TestEncodeHandoverCommandIsRaw(t *testing.T) {
	c := New()
	pdu, err := c.EncodeDl(&message.DlMessage{Kind: message.DlHandoverCommand, RawPayload: []byte{0x0a, 0x0b}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x0b}, pdu)

	_, err = c.EncodeDl(&message.DlMessage{Kind: message.DlHandoverCommand})
	assert.Error(t, err)
}

func TestEncodeRejectsIncompleteMessages(t *testing.T) {
	c := New()
	for _, msg := range []*message.DlMessage{
		{Kind: message.DlSetup},
		{Kind: message.DlReconfiguration},
		{Kind: message.DlSecurityModeCommand},
		{Kind: message.DlSecurityModeCommand, Security: &message.SecurityAlgorithms{Ciphering: 7}},
		{Kind: message.DlKind(99)},
	} {
		_, err := c.EncodeDl(msg)
		assert.Error(t, err, msg.Kind.String())
	}
	_, err := c.EncodePaging(nil)
	assert.Error(t, err)
}

func TestBitStrings(t *testing.T) {
	tmsi := uint64(0x0102_0304_0506)
	b := uintToBits(tmsi, 48)
	assert.Equal(t, uint64(48), b.NumBits)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, b.Bytes)
	assert.Equal(t, tmsi, bitsToUint(b))

	assert.Equal(t, uint64(0x1f), bitsToUint(aper.BitString{Bytes: []byte{0xf8}, NumBits: 5}))
}
