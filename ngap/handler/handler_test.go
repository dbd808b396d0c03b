// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"net"
	"testing"
	"time"

	"github.com/omec-project/aper"
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/util"
	"github.com/omec-project/ngap"
	"github.com/omec-project/ngap/ngapConvert"
	"github.com/omec-project/ngap/ngapType"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAddr string

func (a fakeAddr) Network() string { return "sctp" }
func (a fakeAddr) String() string  { return string(a) }

type fakeConn struct {
	addr    fakeAddr
	written [][]byte
}

func (c *fakeConn) Write(b []byte) (int, error) {
	c.written = append(c.written, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) RemoteAddr() net.Addr { return c.addr }

// pdu decodes the i-th message written to the AMF.
func (c *fakeConn) pdu(t *testing.T, i int) *ngapType.NGAPPDU {
	t.Helper()
	require.Greater(t, len(c.written), i, "message %d not sent", i)
	pdu, err := ngap.Decoder(c.written[i])
	require.NoError(t, err)
	return pdu
}

type testEnv struct {
	rrcCtx *context.RRCContext
	conn   *fakeConn
	amf    *context.GnbAmf
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := context.RrcCfg{
		Cell:              context.CellInfo{Pci: 1, CellId: 0x19b01, Tac: "000001"},
		InactivityTimeout: 30 * time.Second,
		EventQueueLen:     16,
		MaxUsers:          4,
		Sr: context.PucchCfg{
			Periods: []uint32{10}, NofPrb: 1, SfMapping: []uint32{0, 1}, Capacity: 2,
		},
		Cqi: context.PucchCfg{
			Periods: []uint32{40}, NofPrb: 1, SfMapping: []uint32{0}, Capacity: 2,
		},
		Paging: context.PagingCfg{DefaultPagingCycle: 32, Nb: 32, MaxPendingRecords: 4},
		Sibs:   [][]byte{{0x01}},
	}
	rrcCtx, err := context.NewRRCContext(cfg, context.LowerLayers{})
	require.NoError(t, err)
	rrcCtx.NfInfo = context.GnbNfInfo{
		GlobalGnbId: context.GlobalGnbId{
			PlmnId:      context.PlmnId{Mcc: "208", Mnc: "93"},
			GnbId:       0x19b,
			GnbIdLength: 22,
		},
		Neighbours: []context.NeighbourGnb{
			{Pci: 7, GnbId: 0x19c, GnbIdLength: 22, CellId: 0x19c01, Tac: "000001"},
		},
	}
	rrcCtx.GtpBindAddress = "10.0.0.10"

	conn := &fakeConn{addr: "10.0.0.1:38412"}
	amf := rrcCtx.NewGnbAmf(string(conn.addr), conn)
	return &testEnv{rrcCtx: rrcCtx, conn: conn, amf: amf}
}

// attach registers a UE on both sides, as after the Initial UE Message.
func (e *testEnv) attach(t *testing.T, rnti uint16) *context.NgapUe {
	t.Helper()
	ue, err := e.rrcCtx.NewUe(rnti)
	require.NoError(t, err)
	return e.amf.NewNgapUe(context.UeIds{
		Rnti:        rnti,
		RanUeNgapId: ue.RanUeNgapId,
		AmfUeNgapId: context.AmfUeNgapIdUnspecified,
	})
}

func (e *testEnv) events() []context.RrcEvt {
	var out []context.RrcEvt
	for {
		select {
		case evt := <-e.rrcCtx.RcvEventCh:
			out = append(out, evt)
		default:
			return out
		}
	}
}

func errorIndicationCause(t *testing.T, pdu *ngapType.NGAPPDU) *ngapType.Cause {
	t.Helper()
	require.NotNil(t, pdu.InitiatingMessage)
	errorIndication := pdu.InitiatingMessage.Value.ErrorIndication
	require.NotNil(t, errorIndication)
	for _, ie := range errorIndication.ProtocolIEs.List {
		if ie.Id.Value == ngapType.ProtocolIEIDCause {
			return ie.Value.Cause
		}
	}
	return nil
}

func downlinkNASTransport(amfId, ranId int64, nas []byte) *ngapType.NGAPPDU {
	msg := new(ngapType.DownlinkNASTransport)

	ie := ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Value.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: amfId}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	ie = ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Value.RANUENGAPID = &ngapType.RANUENGAPID{Value: ranId}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	ie = ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDNASPDU
	ie.Value.NASPDU = &ngapType.NASPDU{Value: nas}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	pdu := &ngapType.NGAPPDU{
		Present:           ngapType.NGAPPDUPresentInitiatingMessage,
		InitiatingMessage: new(ngapType.InitiatingMessage),
	}
	pdu.InitiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodeDownlinkNASTransport
	pdu.InitiatingMessage.Value.DownlinkNASTransport = msg
	return pdu
}

func TestInitialUEMessage(t *testing.T) {
	e := newTestEnv(t)
	ue, err := e.rrcCtx.NewUe(0x46)
	require.NoError(t, err)
	ids := context.UeIds{Rnti: 0x46, RanUeNgapId: ue.RanUeNgapId, AmfUeNgapId: context.AmfUeNgapIdUnspecified}

	HandleEvent(e.rrcCtx, context.NewSendInitialUEMessageEvt(ids, message.CauseMoSignalling, []byte{0x7e, 0x00}, 0))

	pdu := e.conn.pdu(t, 0)
	require.NotNil(t, pdu.InitiatingMessage)
	assert.Equal(t, int64(ngapType.ProcedureCodeInitialUEMessage), pdu.InitiatingMessage.ProcedureCode.Value)
	ngapUe := e.amf.FindUeByRanUeNgapID(ue.RanUeNgapId)
	require.NotNil(t, ngapUe)
	assert.Equal(t, uint16(0x46), ngapUe.Rnti)
}

func TestInitialUEMessageWithoutAmf(t *testing.T) {
	e := newTestEnv(t)
	e.rrcCtx.DeleteGnbAmf(string(e.conn.addr))
	ue, err := e.rrcCtx.NewUe(0x46)
	require.NoError(t, err)
	ids := context.UeIds{Rnti: 0x46, RanUeNgapId: ue.RanUeNgapId, AmfUeNgapId: context.AmfUeNgapIdUnspecified}

	HandleEvent(e.rrcCtx, context.NewSendInitialUEMessageEvt(ids, message.CauseMoSignalling, []byte{0x7e}, 0))

	assert.Empty(t, e.conn.written)
	events := e.events()
	require.Len(t, events, 1)
	release, ok := events[0].(*context.RrcPduEvt)
	require.True(t, ok)
	assert.Equal(t, uint16(0x46), release.Rnti)
	assert.Equal(t, context.LcidRelUser, release.Lcid)
}

func TestDownlinkNASTransport(t *testing.T) {
	e := newTestEnv(t)
	ue := e.attach(t, 0x46)

	HandleDownlinkNASTransport(e.rrcCtx, e.amf, downlinkNASTransport(100, ue.RanUeNgapId, []byte{0x7e, 0x01}))

	assert.Equal(t, int64(100), ue.AmfUeNgapId)
	assert.Empty(t, e.conn.written)
	events := e.events()
	require.Len(t, events, 1)
	dlInfo, ok := events[0].(*context.DlInfoEvt)
	require.True(t, ok)
	assert.Equal(t, ue.RanUeNgapId, dlInfo.RanUeNgapId)
	assert.Equal(t, int64(100), dlInfo.AmfUeNgapId)
	assert.Equal(t, []byte{0x7e, 0x01}, dlInfo.NasPdu)
}

func TestDownlinkNASTransportInconsistentAmfId(t *testing.T) {
	e := newTestEnv(t)
	ue := e.attach(t, 0x46)
	ue.AmfUeNgapId = 100

	HandleDownlinkNASTransport(e.rrcCtx, e.amf, downlinkNASTransport(101, ue.RanUeNgapId, []byte{0x7e}))

	assert.Empty(t, e.events())
	cause := errorIndicationCause(t, e.conn.pdu(t, 0))
	require.NotNil(t, cause)
	assert.Equal(t, ngapType.CauseRadioNetworkPresentInconsistentRemoteUENGAPID, cause.RadioNetwork.Value)
	assert.Equal(t, int64(100), ue.AmfUeNgapId)
}

func TestDownlinkNASTransportUnknownUe(t *testing.T) {
	e := newTestEnv(t)

	HandleDownlinkNASTransport(e.rrcCtx, e.amf, downlinkNASTransport(100, 55, []byte{0x7e}))

	assert.Empty(t, e.events())
	cause := errorIndicationCause(t, e.conn.pdu(t, 0))
	require.NotNil(t, cause)
	assert.Equal(t, ngapType.CauseRadioNetworkPresentUnknownLocalUENGAPID, cause.RadioNetwork.Value)
}

func ueContextReleaseCommand(amfId, ranId int64) *ngapType.NGAPPDU {
	msg := new(ngapType.UEContextReleaseCommand)

	ie := ngapType.UEContextReleaseCommandIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDUENGAPIDs
	ie.Value.UENGAPIDs = &ngapType.UENGAPIDs{
		Present: ngapType.UENGAPIDsPresentUENGAPIDPair,
		UENGAPIDPair: &ngapType.UENGAPIDPair{
			AMFUENGAPID: ngapType.AMFUENGAPID{Value: amfId},
			RANUENGAPID: ngapType.RANUENGAPID{Value: ranId},
		},
	}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	ie = ngapType.UEContextReleaseCommandIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDCause
	ie.Value.Cause = &ngapType.Cause{
		Present: ngapType.CausePresentNas,
		Nas:     &ngapType.CauseNas{Value: ngapType.CauseNasPresentNormalRelease},
	}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	pdu := &ngapType.NGAPPDU{
		Present:           ngapType.NGAPPDUPresentInitiatingMessage,
		InitiatingMessage: new(ngapType.InitiatingMessage),
	}
	pdu.InitiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodeUEContextRelease
	pdu.InitiatingMessage.Value.UEContextReleaseCommand = msg
	return pdu
}

func TestUEContextReleaseCommand(t *testing.T) {
	e := newTestEnv(t)
	ue := e.attach(t, 0x46)
	ue.AmfUeNgapId = 100

	HandleUEContextReleaseCommand(e.rrcCtx, e.amf, ueContextReleaseCommand(100, ue.RanUeNgapId))

	assert.Empty(t, e.conn.written)
	assert.Equal(t, context.UeCtxRelStateOngoing, ue.UeCtxRelState)
	events := e.events()
	require.Len(t, events, 1)
	release, ok := events[0].(*context.RrcPduEvt)
	require.True(t, ok)
	assert.Equal(t, context.LcidRelUser, release.Lcid)

	// RRC reports the UE released
	HandleEvent(e.rrcCtx, context.NewSendUEContextReleaseCompleteEvt(context.UeIds{
		Rnti: 0x46, RanUeNgapId: ue.RanUeNgapId, AmfUeNgapId: 100,
	}))
	pdu := e.conn.pdu(t, 0)
	require.NotNil(t, pdu.SuccessfulOutcome)
	assert.Equal(t, int64(ngapType.ProcedureCodeUEContextRelease), pdu.SuccessfulOutcome.ProcedureCode.Value)
	assert.Nil(t, e.amf.FindUeByRanUeNgapID(ue.RanUeNgapId))
}

func TestUEContextReleaseCommandWithoutRadio(t *testing.T) {
	e := newTestEnv(t)
	ue := e.amf.NewNgapUe(context.UeIds{Rnti: 0x50, RanUeNgapId: 9, AmfUeNgapId: 100})

	HandleUEContextReleaseCommand(e.rrcCtx, e.amf, ueContextReleaseCommand(100, ue.RanUeNgapId))

	assert.Empty(t, e.events())
	pdu := e.conn.pdu(t, 0)
	require.NotNil(t, pdu.SuccessfulOutcome)
	assert.NotNil(t, pdu.SuccessfulOutcome.Value.UEContextReleaseComplete)
	assert.Nil(t, e.amf.FindUeByRanUeNgapID(9))
}

func paging(sTmsi uint64, tac string) *ngapType.NGAPPDU {
	msg := new(ngapType.Paging)

	ie := ngapType.PagingIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDUEPagingIdentity
	ie.Value.UEPagingIdentity = &ngapType.UEPagingIdentity{
		Present:    ngapType.UEPagingIdentityPresentFiveGSTMSI,
		FiveGSTMSI: util.UintToFiveGSTMSI(sTmsi),
	}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	ie = ngapType.PagingIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDTAIListForPaging
	ie.Value.TAIListForPaging = &ngapType.TAIListForPaging{
		List: []ngapType.TAIListForPagingItem{{
			TAI: ngapType.TAI{
				PLMNIdentity: util.PlmnIdToNgap(context.PlmnId{Mcc: "208", Mnc: "93"}),
				TAC:          util.TacToNgap(tac),
			},
		}},
	}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	pdu := &ngapType.NGAPPDU{
		Present:           ngapType.NGAPPDUPresentInitiatingMessage,
		InitiatingMessage: new(ngapType.InitiatingMessage),
	}
	pdu.InitiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodePaging
	pdu.InitiatingMessage.Value.Paging = msg
	return pdu
}

func TestPaging(t *testing.T) {
	e := newTestEnv(t)

	HandlePaging(e.rrcCtx, e.amf, paging(0x0102c0ffee42, "000002"))
	assert.Equal(t, 0, e.rrcCtx.Paging.Len())

	HandlePaging(e.rrcCtx, e.amf, paging(0x0102c0ffee42, "000001"))
	assert.Equal(t, 1, e.rrcCtx.Paging.Len())
	assert.Empty(t, e.conn.written)
}

func setupRequestTransfer(t *testing.T, upf string, teid uint32, fiveQi int64) []byte {
	t.Helper()
	transfer := ngapType.PDUSessionResourceSetupRequestTransfer{}

	ie := ngapType.PDUSessionResourceSetupRequestTransferIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDULNGUUPTNLInformation
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.PDUSessionResourceSetupRequestTransferIEsPresentULNGUUPTNLInformation
	ie.Value.ULNGUUPTNLInformation = &ngapType.UPTransportLayerInformation{
		Present: ngapType.UPTransportLayerInformationPresentGTPTunnel,
		GTPTunnel: &ngapType.GTPTunnel{
			TransportLayerAddress: ngapConvert.IPAddressToNgap(upf, ""),
			GTPTEID:               ngapType.GTPTEID{Value: aper.OctetString{byte(teid >> 24), byte(teid >> 16), byte(teid >> 8), byte(teid)}},
		},
	}
	transfer.ProtocolIEs.List = append(transfer.ProtocolIEs.List, ie)

	ie = ngapType.PDUSessionResourceSetupRequestTransferIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDPDUSessionType
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.PDUSessionResourceSetupRequestTransferIEsPresentPDUSessionType
	ie.Value.PDUSessionType = &ngapType.PDUSessionType{Value: ngapType.PDUSessionTypePresentIpv4}
	transfer.ProtocolIEs.List = append(transfer.ProtocolIEs.List, ie)

	ie = ngapType.PDUSessionResourceSetupRequestTransferIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDQosFlowSetupRequestList
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.PDUSessionResourceSetupRequestTransferIEsPresentQosFlowSetupRequestList
	item := ngapType.QosFlowSetupRequestItem{}
	item.QosFlowIdentifier.Value = 1
	item.QosFlowLevelQosParameters.QosCharacteristics.Present = ngapType.QosCharacteristicsPresentNonDynamic5QI
	item.QosFlowLevelQosParameters.QosCharacteristics.NonDynamic5QI = &ngapType.NonDynamic5QIDescriptor{
		FiveQI: ngapType.FiveQI{Value: fiveQi},
	}
	item.QosFlowLevelQosParameters.AllocationAndRetentionPriority.PriorityLevelARP.Value = 1
	ie.Value.QosFlowSetupRequestList = &ngapType.QosFlowSetupRequestList{
		List: []ngapType.QosFlowSetupRequestItem{item},
	}
	transfer.ProtocolIEs.List = append(transfer.ProtocolIEs.List, ie)

	raw, err := aper.MarshalWithParams(transfer, "valueExt")
	require.NoError(t, err)
	return raw
}

func pduSessionResourceSetupRequest(amfId, ranId int64, transfers map[int64][]byte) *ngapType.NGAPPDU {
	msg := new(ngapType.PDUSessionResourceSetupRequest)

	ie := ngapType.PDUSessionResourceSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Value.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: amfId}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	ie = ngapType.PDUSessionResourceSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Value.RANUENGAPID = &ngapType.RANUENGAPID{Value: ranId}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	list := new(ngapType.PDUSessionResourceSetupListSUReq)
	for _, id := range []int64{1, 2, 3, 4, 5} {
		transfer, ok := transfers[id]
		if !ok {
			continue
		}
		list.List = append(list.List, ngapType.PDUSessionResourceSetupItemSUReq{
			PDUSessionID:                           ngapType.PDUSessionID{Value: id},
			SNSSAI:                                 util.SNssaiToNgap(context.SnssaiItem{Sst: 1}),
			PDUSessionResourceSetupRequestTransfer: transfer,
		})
	}
	ie = ngapType.PDUSessionResourceSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDPDUSessionResourceSetupListSUReq
	ie.Value.PDUSessionResourceSetupListSUReq = list
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	pdu := &ngapType.NGAPPDU{
		Present:           ngapType.NGAPPDUPresentInitiatingMessage,
		InitiatingMessage: new(ngapType.InitiatingMessage),
	}
	pdu.InitiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodePDUSessionResourceSetup
	pdu.InitiatingMessage.Value.PDUSessionResourceSetupRequest = msg
	return pdu
}

func setupResponseLists(t *testing.T, pdu *ngapType.NGAPPDU) (setup, failed []int64) {
	t.Helper()
	require.NotNil(t, pdu.SuccessfulOutcome)
	response := pdu.SuccessfulOutcome.Value.PDUSessionResourceSetupResponse
	require.NotNil(t, response)
	for _, ie := range response.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDPDUSessionResourceSetupListSURes:
			for _, item := range ie.Value.PDUSessionResourceSetupListSURes.List {
				setup = append(setup, item.PDUSessionID.Value)
			}
		case ngapType.ProtocolIEIDPDUSessionResourceFailedToSetupListSURes:
			for _, item := range ie.Value.PDUSessionResourceFailedToSetupListSURes.List {
				failed = append(failed, item.PDUSessionID.Value)
			}
		}
	}
	return setup, failed
}

func TestPDUSessionResourceSetup(t *testing.T) {
	e := newTestEnv(t)
	ue := e.attach(t, 0x46)
	ue.AmfUeNgapId = 100

	HandlePDUSessionResourceSetupRequest(e.rrcCtx, e.amf, pduSessionResourceSetupRequest(100, ue.RanUeNgapId,
		map[int64][]byte{
			1: setupRequestTransfer(t, "10.0.0.2", 0x0a0b0c0d, 9),
			2: {0xde, 0xad},
		}))

	assert.Empty(t, e.conn.written)
	events := e.events()
	require.Len(t, events, 1)
	setupEvt, ok := events[0].(*context.SetupUeErabsEvt)
	require.True(t, ok)
	require.Len(t, setupEvt.Erabs, 1)
	erab := setupEvt.Erabs[0]
	assert.Equal(t, uint8(1), erab.ErabId)
	assert.Equal(t, int64(9), erab.FiveQi)
	assert.Equal(t, uint8(1), erab.Qfi)
	assert.Equal(t, uint32(0x0a0b0c0d), erab.TeidOut)
	assert.True(t, erab.UpfAddr.Equal(net.ParseIP("10.0.0.2")))
	require.NotNil(t, ue.FindPDUSession(1))
	assert.Nil(t, ue.FindPDUSession(2))

	// RRC set up the bearer
	HandleEvent(e.rrcCtx, context.NewSendPDUSessionResourceSetupResEvt(
		context.UeIds{Rnti: 0x46, RanUeNgapId: ue.RanUeNgapId, AmfUeNgapId: 100},
		[]context.ErabResult{{ErabId: 1, TeidIn: 0x55, Qfi: 1}}, nil))

	setup, failed := setupResponseLists(t, e.conn.pdu(t, 0))
	assert.Equal(t, []int64{1}, setup)
	assert.Equal(t, []int64{2}, failed)
	assert.Equal(t, uint32(0x55), ue.FindPDUSession(1).TeidIn)
	assert.True(t, ue.FindPDUSession(1).GnbAddr.Equal(net.ParseIP("10.0.0.10")))
	assert.Nil(t, ue.FailedSetup)
}

func TestPDUSessionResourceSetupAllRejected(t *testing.T) {
	e := newTestEnv(t)
	ue := e.attach(t, 0x46)
	ue.AmfUeNgapId = 100

	HandlePDUSessionResourceSetupRequest(e.rrcCtx, e.amf, pduSessionResourceSetupRequest(100, ue.RanUeNgapId,
		map[int64][]byte{3: {0x00}}))

	assert.Empty(t, e.events())
	setup, failed := setupResponseLists(t, e.conn.pdu(t, 0))
	assert.Empty(t, setup)
	assert.Equal(t, []int64{3}, failed)
}

func TestPDUSessionResourceSetupRejectedByRadio(t *testing.T) {
	e := newTestEnv(t)
	ue := e.attach(t, 0x46)
	ue.AmfUeNgapId = 100

	HandlePDUSessionResourceSetupRequest(e.rrcCtx, e.amf, pduSessionResourceSetupRequest(100, ue.RanUeNgapId,
		map[int64][]byte{4: setupRequestTransfer(t, "10.0.0.2", 1, 200)}))
	e.events()

	HandleEvent(e.rrcCtx, context.NewSendPDUSessionResourceSetupResEvt(
		context.UeIds{Rnti: 0x46, RanUeNgapId: ue.RanUeNgapId, AmfUeNgapId: 100},
		nil, []context.ErabFailure{{ErabId: 4, Cause: context.CauseUnsupportedQos}}))

	setup, failed := setupResponseLists(t, e.conn.pdu(t, 0))
	assert.Empty(t, setup)
	assert.Equal(t, []int64{4}, failed)
	assert.Nil(t, ue.FindPDUSession(4))
}

func ngReset() *ngapType.NGAPPDU {
	msg := new(ngapType.NGReset)

	ie := ngapType.NGResetIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDCause
	ie.Value.Cause = &ngapType.Cause{
		Present: ngapType.CausePresentMisc,
		Misc:    &ngapType.CauseMisc{Value: ngapType.CauseMiscPresentOmIntervention},
	}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	ie = ngapType.NGResetIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDResetType
	ie.Value.ResetType = &ngapType.ResetType{Present: ngapType.ResetTypePresentNGInterface}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	pdu := &ngapType.NGAPPDU{
		Present:           ngapType.NGAPPDUPresentInitiatingMessage,
		InitiatingMessage: new(ngapType.InitiatingMessage),
	}
	pdu.InitiatingMessage.ProcedureCode.Value = ngapType.ProcedureCodeNGReset
	pdu.InitiatingMessage.Value.NGReset = msg
	return pdu
}

func TestNGResetWholeInterface(t *testing.T) {
	e := newTestEnv(t)
	e.attach(t, 0x46)
	e.attach(t, 0x47)

	HandleNGReset(e.rrcCtx, e.amf, ngReset())

	assert.Empty(t, e.amf.NgapUeList)
	pdu := e.conn.pdu(t, 0)
	require.NotNil(t, pdu.SuccessfulOutcome)
	assert.NotNil(t, pdu.SuccessfulOutcome.Value.NGResetAcknowledge)

	released := map[uint16]bool{}
	for _, evt := range e.events() {
		release, ok := evt.(*context.RrcPduEvt)
		require.True(t, ok)
		assert.Equal(t, context.LcidRelUser, release.Lcid)
		released[release.Rnti] = true
	}
	assert.Equal(t, map[uint16]bool{0x46: true, 0x47: true}, released)
}

func TestAmfConnectionLost(t *testing.T) {
	e := newTestEnv(t)
	e.attach(t, 0x46)

	HandleAmfConnectionLost(e.rrcCtx, e.conn)

	_, ok := e.rrcCtx.AMFPoolLoad(string(e.conn.addr))
	assert.False(t, ok)
	events := e.events()
	require.Len(t, events, 1)
	assert.Equal(t, context.LcidRelUser, events[0].(*context.RrcPduEvt).Lcid)
}

func handoverCommand(amfId, ranId int64, rrcContainer []byte) (*ngapType.NGAPPDU, error) {
	container, err := aper.MarshalWithParams(ngapType.TargetNGRANNodeToSourceNGRANNodeTransparentContainer{
		RRCContainer: ngapType.RRCContainer{Value: rrcContainer},
	}, "valueExt")
	if err != nil {
		return nil, err
	}

	msg := new(ngapType.HandoverCommand)

	ie := ngapType.HandoverCommandIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Value.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: amfId}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	ie = ngapType.HandoverCommandIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Value.RANUENGAPID = &ngapType.RANUENGAPID{Value: ranId}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	ie = ngapType.HandoverCommandIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDTargetToSourceTransparentContainer
	ie.Value.TargetToSourceTransparentContainer = &ngapType.TargetToSourceTransparentContainer{Value: container}
	msg.ProtocolIEs.List = append(msg.ProtocolIEs.List, ie)

	pdu := &ngapType.NGAPPDU{
		Present:           ngapType.NGAPPDUPresentSuccessfulOutcome,
		SuccessfulOutcome: new(ngapType.SuccessfulOutcome),
	}
	pdu.SuccessfulOutcome.ProcedureCode.Value = ngapType.ProcedureCodeHandoverPreparation
	pdu.SuccessfulOutcome.Value.HandoverCommand = msg
	return pdu, nil
}

func TestHandoverPreparation(t *testing.T) {
	e := newTestEnv(t)
	ue := e.attach(t, 0x46)
	ue.AmfUeNgapId = 100
	ids := context.UeIds{Rnti: 0x46, RanUeNgapId: ue.RanUeNgapId, AmfUeNgapId: 100}

	HandleEvent(e.rrcCtx, context.NewSendHandoverRequiredEvt(ids, 7, []byte{0x0a, 0x0b}))

	pdu := e.conn.pdu(t, 0)
	require.NotNil(t, pdu.InitiatingMessage)
	require.NotNil(t, pdu.InitiatingMessage.Value.HandoverRequired)
	require.NotNil(t, ue.HoTargetPci)
	assert.Equal(t, uint16(7), *ue.HoTargetPci)

	command, err := handoverCommand(100, ue.RanUeNgapId, []byte{0x0c})
	require.NoError(t, err)
	HandleHandoverCommand(e.rrcCtx, e.amf, command)

	events := e.events()
	require.Len(t, events, 1)
	complete, ok := events[0].(*context.HoPrepCompleteEvt)
	require.True(t, ok)
	assert.Equal(t, uint16(0x46), complete.Rnti)
	assert.True(t, complete.Success)
	assert.Equal(t, []byte{0x0c}, complete.Container)
}

func TestHandoverCancel(t *testing.T) {
	e := newTestEnv(t)
	ue := e.attach(t, 0x46)
	ue.AmfUeNgapId = 100
	pci := uint16(7)
	ue.HoTargetPci = &pci

	HandleEvent(e.rrcCtx, context.NewSendHandoverCancelEvt(
		context.UeIds{Rnti: 0x46, RanUeNgapId: ue.RanUeNgapId, AmfUeNgapId: 100}, context.CauseHandoverCancelled))

	pdu := e.conn.pdu(t, 0)
	require.NotNil(t, pdu.InitiatingMessage)
	assert.NotNil(t, pdu.InitiatingMessage.Value.HandoverCancel)
	assert.Nil(t, ue.HoTargetPci)
}

func TestUEContextReleaseRequestOnce(t *testing.T) {
	e := newTestEnv(t)
	ue := e.attach(t, 0x46)
	ue.AmfUeNgapId = 100
	ids := context.UeIds{Rnti: 0x46, RanUeNgapId: ue.RanUeNgapId, AmfUeNgapId: 100}

	HandleEvent(e.rrcCtx, context.NewSendUEContextReleaseRequestEvt(ids, context.CauseUserInactivity))
	HandleEvent(e.rrcCtx, context.NewSendUEContextReleaseRequestEvt(ids, context.CauseRadioConnectionLost))

	require.Len(t, e.conn.written, 1)
	pdu := e.conn.pdu(t, 0)
	require.NotNil(t, pdu.InitiatingMessage)
	assert.NotNil(t, pdu.InitiatingMessage.Value.UEContextReleaseRequest)
}
