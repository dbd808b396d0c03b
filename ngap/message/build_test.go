// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/omec-project/aper"
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/util"
	"github.com/omec-project/ngap"
	"github.com/omec-project/ngap/ngapType"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNfInfo() context.GnbNfInfo {
	return context.GnbNfInfo{
		GlobalGnbId: context.GlobalGnbId{
			PlmnId:      context.PlmnId{Mcc: "208", Mnc: "93"},
			GnbId:       0x19b,
			GnbIdLength: 22,
		},
		RanNodeName: "gnb-test",
		SupportedTaList: []context.SupportedTAItem{{
			Tac: "000001",
			BroadcastPlmnList: []context.BroadcastPlmnItem{{
				PlmnId: context.PlmnId{Mcc: "208", Mnc: "93"},
				TaiSliceSupportList: []context.SliceSupportItem{
					{Snssai: context.SnssaiItem{Sst: 1, Sd: "010203"}},
				},
			}},
		}},
	}
}

func testCell() context.CellInfo {
	return context.CellInfo{Pci: 1, CellId: 0x19b01, Tac: "000001"}
}

func TestBuildNGSetupRequest(t *testing.T) {
	pkt, err := BuildNGSetupRequest(testNfInfo())
	require.NoError(t, err)

	pdu, err := ngap.Decoder(pkt)
	require.NoError(t, err)
	require.Equal(t, ngapType.NGAPPDUPresentInitiatingMessage, pdu.Present)
	assert.Equal(t, int64(ngapType.ProcedureCodeNGSetup), pdu.InitiatingMessage.ProcedureCode.Value)

	request := pdu.InitiatingMessage.Value.NGSetupRequest
	require.NotNil(t, request)
	var name string
	var taCount int
	for _, ie := range request.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDRANNodeName:
			name = ie.Value.RANNodeName.Value
		case ngapType.ProtocolIEIDSupportedTAList:
			taCount = len(ie.Value.SupportedTAList.List)
		}
	}
	assert.Equal(t, "gnb-test", name)
	assert.Equal(t, 1, taCount)
}

func TestBuildInitialUEMessage(t *testing.T) {
	ue := &context.NgapUe{RanUeNgapId: 7, AmfUeNgapId: context.AmfUeNgapIdUnspecified}
	uli := BuildUserLocationInformationNR(testNfInfo().GlobalGnbId.PlmnId, testCell())
	sTmsi := uint64(0x0102c0ffee42)

	pkt, err := BuildInitialUEMessage(ue, uli, message.CauseMoSignalling, []byte{0x7e, 0x00, 0x41},
		sTmsi)
	require.NoError(t, err)

	pdu, err := ngap.Decoder(pkt)
	require.NoError(t, err)
	initialUEMessage := pdu.InitiatingMessage.Value.InitialUEMessage
	require.NotNil(t, initialUEMessage)

	var ranId int64
	var nas []byte
	var tmsi *ngapType.FiveGSTMSI
	for _, ie := range initialUEMessage.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDRANUENGAPID:
			ranId = ie.Value.RANUENGAPID.Value
		case ngapType.ProtocolIEIDNASPDU:
			nas = ie.Value.NASPDU.Value
		case ngapType.ProtocolIEIDFiveGSTMSI:
			tmsi = ie.Value.FiveGSTMSI
		}
	}
	assert.Equal(t, int64(7), ranId)
	assert.Equal(t, []byte{0x7e, 0x00, 0x41}, nas)
	require.NotNil(t, tmsi)
	decoded, err := util.FiveGSTMSIToUint(tmsi)
	require.NoError(t, err)
	assert.Equal(t, sTmsi, decoded)
}

func TestBuildInitialUEMessageWithoutSTmsi(t *testing.T) {
	ue := &context.NgapUe{RanUeNgapId: 1}
	uli := BuildUserLocationInformationNR(testNfInfo().GlobalGnbId.PlmnId, testCell())

	pkt, err := BuildInitialUEMessage(ue, uli, message.CauseMoSignalling, []byte{0x7e}, 0)
	require.NoError(t, err)
	pdu, err := ngap.Decoder(pkt)
	require.NoError(t, err)
	for _, ie := range pdu.InitiatingMessage.Value.InitialUEMessage.ProtocolIEs.List {
		assert.NotEqual(t, int64(ngapType.ProtocolIEIDFiveGSTMSI), ie.Id.Value)
	}

	_, err = BuildInitialUEMessage(nil, uli, message.CauseMoSignalling, nil, 0)
	assert.ErrorIs(t, err, ErrNilUe)
}

func TestCauseFromRelease(t *testing.T) {
	testCases := []struct {
		cause   context.ReleaseCause
		present int
		value   aper.Enumerated
	}{
		{context.CauseNormalRelease, ngapType.CausePresentNas, ngapType.CauseNasPresentNormalRelease},
		{context.CauseUserInactivity, ngapType.CausePresentRadioNetwork,
			ngapType.CauseRadioNetworkPresentUserInactivity},
		{context.CauseRadioConnectionLost, ngapType.CausePresentRadioNetwork,
			ngapType.CauseRadioNetworkPresentRadioConnectionWithUeLost},
	}
	for _, tc := range testCases {
		t.Run(tc.cause.String(), func(t *testing.T) {
			cause := CauseFromRelease(tc.cause)
			require.NotNil(t, cause)
			assert.Equal(t, tc.present, cause.Present)
			switch cause.Present {
			case ngapType.CausePresentNas:
				assert.Equal(t, tc.value, cause.Nas.Value)
			case ngapType.CausePresentRadioNetwork:
				assert.Equal(t, tc.value, cause.RadioNetwork.Value)
			}
		})
	}
}

func TestBuildPDUSessionResourceSetupResponseTransfer(t *testing.T) {
	raw, err := BuildPDUSessionResourceSetupResponseTransfer(0xa1b2c3d4, net.ParseIP("10.1.2.3"), 9)
	require.NoError(t, err)

	transfer := ngapType.PDUSessionResourceSetupResponseTransfer{}
	require.NoError(t, aper.UnmarshalWithParams(raw, &transfer, "valueExt"))

	info := transfer.DLQosFlowPerTNLInformation
	require.NotNil(t, info.UPTransportLayerInformation.GTPTunnel)
	assert.Equal(t, uint32(0xa1b2c3d4), binary.BigEndian.Uint32(info.UPTransportLayerInformation.GTPTunnel.GTPTEID.Value))
	require.Len(t, info.AssociatedQosFlowList.List, 1)
	assert.Equal(t, int64(9), info.AssociatedQosFlowList.List[0].QosFlowIdentifier.Value)
}

func TestRRCContainerFromTargetToSource(t *testing.T) {
	container := ngapType.TargetNGRANNodeToSourceNGRANNodeTransparentContainer{
		RRCContainer: ngapType.RRCContainer{Value: aper.OctetString{0x08, 0x10, 0x20}},
	}
	raw, err := aper.MarshalWithParams(container, "valueExt")
	require.NoError(t, err)

	rrc, err := RRCContainerFromTargetToSource(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0x10, 0x20}, rrc)

	_, err = RRCContainerFromTargetToSource([]byte{0xff})
	assert.Error(t, err)
}

func TestBuildSourceToTargetTransparentContainer(t *testing.T) {
	ue := &context.NgapUe{
		RanUeNgapId: 3,
		PduSessions: map[int64]*context.PDUSession{5: {Id: 5, Qfi: 1}},
	}
	plmn := util.PlmnIdToNgap(testNfInfo().GlobalGnbId.PlmnId)
	cell := ngapType.NRCGI{PLMNIdentity: plmn, NRCellIdentity: ngapType.NRCellIdentity{Value: util.NrCellIdToNgap(1)}}

	raw, err := BuildSourceToTargetTransparentContainer(ue, []byte{0x01}, cell, cell)
	require.NoError(t, err)

	var decoded ngapType.SourceNGRANNodeToTargetNGRANNodeTransparentContainer
	require.NoError(t, aper.UnmarshalWithParams(raw, &decoded, "valueExt"))
	assert.Equal(t, aper.OctetString{0x01}, decoded.RRCContainer.Value)
	require.NotNil(t, decoded.PDUSessionResourceInformationList)
	assert.Equal(t, int64(5), decoded.PDUSessionResourceInformationList.List[0].PDUSessionID.Value)

	_, err = BuildSourceToTargetTransparentContainer(ue, nil, cell, cell)
	assert.Error(t, err)
}

func TestBuildErrorIndication(t *testing.T) {
	ranId := int64(4)
	cause := BuildCause(ngapType.CausePresentRadioNetwork, ngapType.CauseRadioNetworkPresentUnknownLocalUENGAPID)
	pkt, err := BuildErrorIndication(nil, &ranId, cause, nil)
	require.NoError(t, err)

	pdu, err := ngap.Decoder(pkt)
	require.NoError(t, err)
	errorIndication := pdu.InitiatingMessage.Value.ErrorIndication
	require.NotNil(t, errorIndication)
	var gotCause *ngapType.Cause
	for _, ie := range errorIndication.ProtocolIEs.List {
		if ie.Id.Value == ngapType.ProtocolIEIDCause {
			gotCause = ie.Value.Cause
		}
	}
	require.NotNil(t, gotCause)
	assert.Equal(t, ngapType.CauseRadioNetworkPresentUnknownLocalUENGAPID, gotCause.RadioNetwork.Value)
}
