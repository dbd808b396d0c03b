// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"bytes"
	"encoding/binary"
	"net"
	"time"

	"github.com/omec-project/aper"
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	ngap_message "github.com/omec-project/gnbrrc/ngap/message"
	"github.com/omec-project/gnbrrc/util"
	"github.com/omec-project/ngap/ngapConvert"
	"github.com/omec-project/ngap/ngapType"
)

func HandleNGSetupResponse(rrcCtx *context.RRCContext, sctpAddr string, conn context.AmfConn,
	message *ngapType.NGAPPDU,
) {
	logger.NgapLog.Infoln("handle NG Setup Response")

	var amfName *ngapType.AMFName
	var servedGUAMIList *ngapType.ServedGUAMIList
	var relativeAMFCapacity *ngapType.RelativeAMFCapacity
	var plmnSupportList *ngapType.PLMNSupportList
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	successfulOutcome := message.SuccessfulOutcome
	if successfulOutcome == nil {
		logger.NgapLog.Errorln("successful Outcome is nil")
		return
	}

	ngSetupResponse := successfulOutcome.Value.NGSetupResponse
	if ngSetupResponse == nil {
		logger.NgapLog.Errorln("ngSetupResponse is nil")
		return
	}

	for _, ie := range ngSetupResponse.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFName:
			logger.NgapLog.Debugln("decode IE AMFName")
			amfName = ie.Value.AMFName
			if amfName == nil {
				logger.NgapLog.Errorln("AMFName is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDServedGUAMIList:
			logger.NgapLog.Debugln("decode IE ServedGUAMIList")
			servedGUAMIList = ie.Value.ServedGUAMIList
			if servedGUAMIList == nil {
				logger.NgapLog.Errorln("ServedGUAMIList is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDRelativeAMFCapacity:
			logger.NgapLog.Debugln("decode IE RelativeAMFCapacity")
			relativeAMFCapacity = ie.Value.RelativeAMFCapacity
		case ngapType.ProtocolIEIDPLMNSupportList:
			logger.NgapLog.Debugln("decode IE PLMNSupportList")
			plmnSupportList = ie.Value.PLMNSupportList
			if plmnSupportList == nil {
				logger.NgapLog.Errorln("PLMNSupportList is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if len(iesCriticalityDiagnostics.List) != 0 {
		logger.NgapLog.Debugln("sending error indication to AMF, because some mandatory IEs were not included")

		cause := ngap_message.BuildCause(ngapType.CausePresentProtocol, ngapType.CauseProtocolPresentAbstractSyntaxErrorReject)

		procedureCode := ngapType.ProcedureCodeNGSetup
		triggeringMessage := ngapType.TriggeringMessagePresentSuccessfulOutcome
		procedureCriticality := ngapType.CriticalityPresentReject

		criticalityDiagnostics := buildCriticalityDiagnostics(
			&procedureCode, &triggeringMessage, &procedureCriticality, &iesCriticalityDiagnostics)

		ngap_message.SendErrorIndicationWithSctpConn(conn, nil, nil, cause, &criticalityDiagnostics)

		return
	}

	amfInfo := rrcCtx.NewGnbAmf(sctpAddr, conn)
	amfInfo.AMFName = amfName
	amfInfo.ServedGUAMIList = servedGUAMIList
	amfInfo.PLMNSupportList = plmnSupportList
	if relativeAMFCapacity != nil {
		amfInfo.RelativeAMFCapacity = relativeAMFCapacity
	}

	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}
	logger.NgapLog.Infof("NG setup with AMF[%s] %s complete", sctpAddr, amfName.Value)
}

func HandleNGSetupFailure(rrcCtx *context.RRCContext, sctpAddr string, conn context.AmfConn,
	message *ngapType.NGAPPDU,
) {
	logger.NgapLog.Infoln("handle NG Setup Failure")

	var cause *ngapType.Cause
	var timeToWait *ngapType.TimeToWait
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	unsuccessfulOutcome := message.UnsuccessfulOutcome
	if unsuccessfulOutcome == nil {
		logger.NgapLog.Errorln("unsuccessful Message is nil")
		return
	}

	ngSetupFailure := unsuccessfulOutcome.Value.NGSetupFailure
	if ngSetupFailure == nil {
		logger.NgapLog.Errorln("NGSetupFailure is nil")
		return
	}

	for _, ie := range ngSetupFailure.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDCause:
			logger.NgapLog.Debugln("decode IE Cause")
			cause = ie.Value.Cause
			if cause == nil {
				logger.NgapLog.Errorln("cause is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDTimeToWait:
			logger.NgapLog.Debugln("decode IE TimeToWait")
			timeToWait = ie.Value.TimeToWait
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 {
		logger.NgapLog.Debugln("sending error indication to AMF, because some mandatory IEs were not included")

		cause = ngap_message.BuildCause(ngapType.CausePresentProtocol, ngapType.CauseProtocolPresentAbstractSyntaxErrorReject)

		procedureCode := ngapType.ProcedureCodeNGSetup
		triggeringMessage := ngapType.TriggeringMessagePresentUnsuccessfullOutcome
		procedureCriticality := ngapType.CriticalityPresentReject

		criticalityDiagnostics := buildCriticalityDiagnostics(
			&procedureCode, &triggeringMessage, &procedureCriticality, &iesCriticalityDiagnostics)

		ngap_message.SendErrorIndicationWithSctpConn(conn, nil, nil, cause, &criticalityDiagnostics)

		return
	}

	if cause != nil {
		printAndGetCause(cause)
	}

	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}

	if waitingTime := timeToWaitSeconds(timeToWait); waitingTime != 0 {
		logger.NgapLog.Infof("wait at least %ds to reinitialize with same AMF[%s]", waitingTime, sctpAddr)
		rrcCtx.AMFReInitAvailableListStore(sctpAddr, false)
		time.AfterFunc(time.Duration(waitingTime)*time.Second, func() {
			rrcCtx.AMFReInitAvailableListStore(sctpAddr, true)
			ngap_message.SendNGSetupRequest(rrcCtx, conn)
		})
	}
}

func timeToWaitSeconds(timeToWait *ngapType.TimeToWait) int {
	if timeToWait == nil {
		return 0
	}
	switch timeToWait.Value {
	case ngapType.TimeToWaitPresentV1s:
		return 1
	case ngapType.TimeToWaitPresentV2s:
		return 2
	case ngapType.TimeToWaitPresentV5s:
		return 5
	case ngapType.TimeToWaitPresentV10s:
		return 10
	case ngapType.TimeToWaitPresentV20s:
		return 20
	case ngapType.TimeToWaitPresentV60s:
		return 60
	}
	return 0
}

// releaseRadio asks RRC to release a UE whose NG-C context is already gone;
// no UE Context Release Complete follows.
func releaseRadio(rrcCtx *context.RRCContext, ue *context.NgapUe) {
	rnti, ok := rrcCtx.RntiOf(ue.RanUeNgapId)
	if !ok {
		return
	}
	if err := rrcCtx.ReleaseComplete(rnti); err != nil {
		logger.NgapLog.Errorf("release RNTI 0x%x: %+v", rnti, err)
	}
}

func HandleNGReset(rrcCtx *context.RRCContext, amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle NG Reset")

	var cause *ngapType.Cause
	var resetType *ngapType.ResetType

	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("InitiatingMessage is nil")
		return
	}

	nGReset := initiatingMessage.Value.NGReset
	if nGReset == nil {
		logger.NgapLog.Errorln("nGReset is nil")
		return
	}

	for _, ie := range nGReset.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDCause:
			logger.NgapLog.Debugln("decode IE Cause")
			cause = ie.Value.Cause
		case ngapType.ProtocolIEIDResetType:
			logger.NgapLog.Debugln("decode IE ResetType")
			resetType = ie.Value.ResetType
			if resetType == nil {
				logger.NgapLog.Errorln("ResetType is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 || resetType == nil {
		procudureCode := ngapType.ProcedureCodeNGReset
		trigger := ngapType.TriggeringMessagePresentInitiatingMessage
		criticality := ngapType.CriticalityPresentReject
		criticalityDiagnostics := buildCriticalityDiagnostics(
			&procudureCode, &trigger, &criticality, &iesCriticalityDiagnostics)
		ngap_message.SendErrorIndication(amf, nil, nil, nil, &criticalityDiagnostics)
		return
	}

	if cause != nil {
		printAndGetCause(cause)
	}

	switch resetType.Present {
	case ngapType.ResetTypePresentNGInterface:
		logger.NgapLog.Debugln("ResetType Present: NG Interface")
		for _, ue := range amf.RemoveAllRelatedUe() {
			releaseRadio(rrcCtx, ue)
		}
		ngap_message.SendNGResetAcknowledge(amf, nil, nil)
	case ngapType.ResetTypePresentPartOfNGInterface:
		logger.NgapLog.Debugln("ResetType Present: Part of NG Interface")

		partOfNGInterface := resetType.PartOfNGInterface
		if partOfNGInterface == nil {
			logger.NgapLog.Errorln("PartOfNGInterface is nil")
			return
		}

		for _, ueAssociatedLogicalNGConnectionItem := range partOfNGInterface.List {
			var ue *context.NgapUe
			if ueAssociatedLogicalNGConnectionItem.RANUENGAPID != nil {
				logger.NgapLog.Debugf("RanUeNgapID[%d]", ueAssociatedLogicalNGConnectionItem.RANUENGAPID.Value)
				ue = amf.FindUeByRanUeNgapID(ueAssociatedLogicalNGConnectionItem.RANUENGAPID.Value)
			} else if ueAssociatedLogicalNGConnectionItem.AMFUENGAPID != nil {
				logger.NgapLog.Debugf("AmfUeNgapID[%d]", ueAssociatedLogicalNGConnectionItem.AMFUENGAPID.Value)
				ue = amf.FindUeByAmfUeNgapID(ueAssociatedLogicalNGConnectionItem.AMFUENGAPID.Value)
			}

			if ue == nil {
				logger.NgapLog.Warnln("cannot not find UE Context")
				continue
			}
			ue.Detach()
			releaseRadio(rrcCtx, ue)
		}
		ngap_message.SendNGResetAcknowledge(amf, partOfNGInterface, nil)
	default:
		logger.NgapLog.Warnf("invalid ResetType[%d]", resetType.Present)
	}
}

// HandleAmfConnectionLost drops the association with an AMF whose SCTP
// connection closed, releasing every UE it served.
func HandleAmfConnectionLost(rrcCtx *context.RRCContext, conn context.AmfConn) {
	sctpAddr := conn.RemoteAddr().String()
	logger.NgapLog.Warnf("lost connection with AMF[%s]", sctpAddr)

	amf, ok := rrcCtx.AMFPoolLoad(sctpAddr)
	if !ok {
		return
	}
	for _, ue := range amf.RemoveAllRelatedUe() {
		releaseRadio(rrcCtx, ue)
	}
	rrcCtx.DeleteGnbAmf(sctpAddr)
}

func HandleNGResetAcknowledge(amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle NG Reset Acknowledge")

	var uEAssociatedLogicalNGConnectionList *ngapType.UEAssociatedLogicalNGConnectionList
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	successfulOutcome := message.SuccessfulOutcome
	if successfulOutcome == nil {
		logger.NgapLog.Errorln("successfulOutcome is nil")
		return
	}

	nGResetAcknowledge := successfulOutcome.Value.NGResetAcknowledge
	if nGResetAcknowledge == nil {
		logger.NgapLog.Errorln("nGResetAcknowledge is nil")
		return
	}

	for _, ie := range nGResetAcknowledge.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDUEAssociatedLogicalNGConnectionList:
			logger.NgapLog.Debugln("decode IE UEAssociatedLogicalNGConnectionList")
			uEAssociatedLogicalNGConnectionList = ie.Value.UEAssociatedLogicalNGConnectionList
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if uEAssociatedLogicalNGConnectionList != nil {
		logger.NgapLog.Debugf("%d UE association(s) has been reset", len(uEAssociatedLogicalNGConnectionList.List))
		for i, item := range uEAssociatedLogicalNGConnectionList.List {
			if item.AMFUENGAPID != nil && item.RANUENGAPID != nil {
				logger.NgapLog.Debugf("%d: AmfUeNgapID[%d] RanUeNgapID[%d]",
					i+1, item.AMFUENGAPID.Value, item.RANUENGAPID.Value)
			} else if item.AMFUENGAPID != nil {
				logger.NgapLog.Debugf("%d: AmfUeNgapID[%d] RanUeNgapID[unknown]", i+1, item.AMFUENGAPID.Value)
			} else if item.RANUENGAPID != nil {
				logger.NgapLog.Debugf("%d: AmfUeNgapID[unknown] RanUeNgapID[%d]", i+1, item.RANUENGAPID.Value)
			}
		}
	}

	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}
}

// findUe resolves the UE of a UE associated message. An unknown RAN UE NGAP
// ID or a mismatching AMF UE NGAP ID is answered with an Error Indication.
func findUe(amf *context.GnbAmf, amfUeNgapID *ngapType.AMFUENGAPID, ranUeNgapID *ngapType.RANUENGAPID,
) *context.NgapUe {
	ue := amf.FindUeByRanUeNgapID(ranUeNgapID.Value)
	if ue == nil {
		logger.NgapLog.Errorf("unknown local UE NGAP ID. RanUeNgapID: %d", ranUeNgapID.Value)
		cause := ngap_message.BuildCause(ngapType.CausePresentRadioNetwork,
			ngapType.CauseRadioNetworkPresentUnknownLocalUENGAPID)
		ngap_message.SendErrorIndication(amf, &amfUeNgapID.Value, &ranUeNgapID.Value, cause, nil)
		return nil
	}
	switch ue.AmfUeNgapId {
	case context.AmfUeNgapIdUnspecified:
		ue.AmfUeNgapId = amfUeNgapID.Value
	case amfUeNgapID.Value:
	default:
		logger.NgapLog.Errorf("inconsistent AmfUeNgapID %d for RanUeNgapID %d, expected %d",
			amfUeNgapID.Value, ranUeNgapID.Value, ue.AmfUeNgapId)
		cause := ngap_message.BuildCause(ngapType.CausePresentRadioNetwork,
			ngapType.CauseRadioNetworkPresentInconsistentRemoteUENGAPID)
		ngap_message.SendErrorIndication(amf, &amfUeNgapID.Value, &ranUeNgapID.Value, cause, nil)
		return nil
	}
	return ue
}

// reportMissingIEs answers a message lacking mandatory IEs with an Error
// Indication.
func reportMissingIEs(amf *context.GnbAmf, procedureCode int64, amfUeNgapID *ngapType.AMFUENGAPID,
	ranUeNgapID *ngapType.RANUENGAPID, iesCriticalityDiagnostics *ngapType.CriticalityDiagnosticsIEList,
) {
	logger.NgapLog.Debugln("sending error indication to AMF, because some mandatory IEs were not included")
	cause := ngap_message.BuildCause(ngapType.CausePresentProtocol,
		ngapType.CauseProtocolPresentAbstractSyntaxErrorFalselyConstructedMessage)
	trigger := ngapType.TriggeringMessagePresentInitiatingMessage
	criticality := ngapType.CriticalityPresentReject
	criticalityDiagnostics := buildCriticalityDiagnostics(&procedureCode, &trigger, &criticality,
		iesCriticalityDiagnostics)
	var amfId, ranId *int64
	if amfUeNgapID != nil {
		amfId = &amfUeNgapID.Value
	}
	if ranUeNgapID != nil {
		ranId = &ranUeNgapID.Value
	}
	ngap_message.SendErrorIndication(amf, amfId, ranId, cause, &criticalityDiagnostics)
}

// setupItem is a PDU session of either an Initial Context Setup Request or a
// PDU Session Resource Setup Request.
type setupItem struct {
	id       int64
	snssai   ngapType.SNSSAI
	nasPdu   *ngapType.NASPDU
	transfer aper.OctetString
}

func setupItemsCxtReq(list *ngapType.PDUSessionResourceSetupListCxtReq) []setupItem {
	if list == nil {
		return nil
	}
	items := make([]setupItem, 0, len(list.List))
	for _, item := range list.List {
		items = append(items, setupItem{
			id:       item.PDUSessionID.Value,
			snssai:   item.SNSSAI,
			nasPdu:   item.NASPDU,
			transfer: item.PDUSessionResourceSetupRequestTransfer,
		})
	}
	return items
}

func setupItemsSUReq(list *ngapType.PDUSessionResourceSetupListSUReq) []setupItem {
	if list == nil {
		return nil
	}
	items := make([]setupItem, 0, len(list.List))
	for _, item := range list.List {
		items = append(items, setupItem{
			id:       item.PDUSessionID.Value,
			snssai:   item.SNSSAI,
			nasPdu:   item.PDUSessionNASPDU,
			transfer: item.PDUSessionResourceSetupRequestTransfer,
		})
	}
	return items
}

func unsuccessfulTransfer(cause ngapType.Cause, criticalityDiagnostics *ngapType.CriticalityDiagnostics) []byte {
	transfer, err := ngap_message.BuildPDUSessionResourceSetupUnsuccessfulTransfer(cause, criticalityDiagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build PDUSessionResourceSetupUnsuccessfulTransfer Error: %+v", err)
	}
	return transfer
}

// collectErabs turns the PDU sessions of a setup request into bearer
// requests. Sessions that cannot be set up are kept in ue.FailedSetup.
func collectErabs(ue *context.NgapUe, items []setupItem) []context.ErabSetupReq {
	ue.FailedSetup = nil
	erabs := make([]context.ErabSetupReq, 0, len(items))
	for _, item := range items {
		pduSession, erab, failure := handlePDUSessionResourceSetupRequestTransfer(item)
		if failure != nil {
			if ue.FailedSetup == nil {
				ue.FailedSetup = make(map[int64][]byte)
			}
			ue.FailedSetup[item.id] = failure
			continue
		}
		ue.StorePDUSession(pduSession)
		erabs = append(erabs, erab)
	}
	return erabs
}

// handlePDUSessionResourceSetupRequestTransfer reads the UPF tunnel and the
// first QoS flow of a PDU session. A session that cannot be accepted yields
// the unsuccessful transfer to report instead.
func handlePDUSessionResourceSetupRequestTransfer(item setupItem,
) (*context.PDUSession, context.ErabSetupReq, []byte) {
	var ulNGUUPTNLInformation *ngapType.UPTransportLayerInformation
	var pduSessionType *ngapType.PDUSessionType
	var qosFlowSetupRequestList *ngapType.QosFlowSetupRequestList
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if item.id < 0 || item.id > 255 {
		cause := ngap_message.BuildCause(ngapType.CausePresentProtocol, ngapType.CauseProtocolPresentSemanticError)
		return nil, context.ErabSetupReq{}, unsuccessfulTransfer(*cause, nil)
	}

	transfer := ngapType.PDUSessionResourceSetupRequestTransfer{}
	if err := aper.UnmarshalWithParams(item.transfer, &transfer, "valueExt"); err != nil {
		logger.NgapLog.Errorf("decode PDUSessionResourceSetupRequestTransfer[%d] error: %+v", item.id, err)
		cause := ngap_message.BuildCause(ngapType.CausePresentProtocol, ngapType.CauseProtocolPresentTransferSyntaxError)
		return nil, context.ErabSetupReq{}, unsuccessfulTransfer(*cause, nil)
	}

	for _, ie := range transfer.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDULNGUUPTNLInformation:
			ulNGUUPTNLInformation = ie.Value.ULNGUUPTNLInformation
			if ulNGUUPTNLInformation == nil {
				diagItem := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, diagItem)
			}
		case ngapType.ProtocolIEIDPDUSessionType:
			pduSessionType = ie.Value.PDUSessionType
			if pduSessionType == nil {
				diagItem := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, diagItem)
			}
		case ngapType.ProtocolIEIDQosFlowSetupRequestList:
			qosFlowSetupRequestList = ie.Value.QosFlowSetupRequestList
			if qosFlowSetupRequestList == nil {
				diagItem := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, diagItem)
			}
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 {
		cause := ngap_message.BuildCause(ngapType.CausePresentProtocol,
			ngapType.CauseProtocolPresentAbstractSyntaxErrorFalselyConstructedMessage)
		criticalityDiagnostics := buildCriticalityDiagnostics(nil, nil, nil, &iesCriticalityDiagnostics)
		return nil, context.ErabSetupReq{}, unsuccessfulTransfer(*cause, &criticalityDiagnostics)
	}

	semanticError := func(reason string) (*context.PDUSession, context.ErabSetupReq, []byte) {
		logger.NgapLog.Errorf("PDU session %d: %s", item.id, reason)
		cause := ngap_message.BuildCause(ngapType.CausePresentProtocol, ngapType.CauseProtocolPresentSemanticError)
		return nil, context.ErabSetupReq{}, unsuccessfulTransfer(*cause, nil)
	}

	if ulNGUUPTNLInformation == nil || ulNGUUPTNLInformation.GTPTunnel == nil {
		return semanticError("UL NG-U UP TNL information is not a GTP tunnel")
	}
	gtpTunnel := ulNGUUPTNLInformation.GTPTunnel
	if len(gtpTunnel.GTPTEID.Value) != 4 {
		return semanticError("malformed GTP TEID")
	}
	upfIPv4, upfIPv6 := ngapConvert.IPAddressToString(gtpTunnel.TransportLayerAddress)
	upfAddr := net.ParseIP(upfIPv4)
	if upfAddr == nil {
		upfAddr = net.ParseIP(upfIPv6)
	}
	if upfAddr == nil {
		return semanticError("malformed UPF transport layer address")
	}

	if qosFlowSetupRequestList == nil || len(qosFlowSetupRequestList.List) == 0 {
		return semanticError("no QoS flow")
	}
	if len(qosFlowSetupRequestList.List) > 1 {
		logger.NgapLog.Warnf("PDU session %d: only the first of %d QoS flows is carried",
			item.id, len(qosFlowSetupRequestList.List))
	}
	qosFlow := qosFlowSetupRequestList.List[0]
	var fiveQi int64
	characteristics := qosFlow.QosFlowLevelQosParameters.QosCharacteristics
	switch characteristics.Present {
	case ngapType.QosCharacteristicsPresentNonDynamic5QI:
		fiveQi = characteristics.NonDynamic5QI.FiveQI.Value
	case ngapType.QosCharacteristicsPresentDynamic5QI:
		if characteristics.Dynamic5QI.FiveQI == nil {
			return semanticError("dynamic 5QI without standardized value")
		}
		fiveQi = characteristics.Dynamic5QI.FiveQI.Value
	default:
		return semanticError("unknown QoS characteristics")
	}

	pduSession := &context.PDUSession{
		Id:      item.id,
		Snssai:  item.snssai,
		Qfi:     uint8(qosFlow.QosFlowIdentifier.Value),
		FiveQi:  fiveQi,
		UpfAddr: upfAddr,
		TeidOut: binary.BigEndian.Uint32(gtpTunnel.GTPTEID.Value),
	}
	erab := context.ErabSetupReq{
		ErabId:  uint8(item.id),
		FiveQi:  fiveQi,
		Qfi:     pduSession.Qfi,
		UpfAddr: upfAddr,
		TeidOut: pduSession.TeidOut,
	}
	if item.nasPdu != nil {
		erab.NasPdu = item.nasPdu.Value
	}
	return pduSession, erab, nil
}

func failedListCxtFail(items []setupItem, cause ngapType.Cause) *ngapType.PDUSessionResourceFailedToSetupListCxtFail {
	if len(items) == 0 {
		return nil
	}
	list := new(ngapType.PDUSessionResourceFailedToSetupListCxtFail)
	for _, item := range items {
		ngap_message.AppendPDUSessionResourceFailedToSetupListCxtfail(list, item.id, unsuccessfulTransfer(cause, nil))
	}
	return list
}

func HandleInitialContextSetupRequest(rrcCtx *context.RRCContext, amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Initial Context Setup Request")

	var amfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	var ueAggregateMaximumBitRate *ngapType.UEAggregateMaximumBitRate
	var guami *ngapType.GUAMI
	var pduSessionResourceSetupListCxtReq *ngapType.PDUSessionResourceSetupListCxtReq
	var allowedNSSAI *ngapType.AllowedNSSAI
	var ueSecurityCapabilities *ngapType.UESecurityCapabilities
	var securityKey *ngapType.SecurityKey
	var traceActivation *ngapType.TraceActivation
	var ueRadioCapability *ngapType.UERadioCapability
	var indexToRFSP *ngapType.IndexToRFSP
	var maskedIMEISV *ngapType.MaskedIMEISV
	var nasPDU *ngapType.NASPDU
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("Initiating Message is nil")
		return
	}

	initialContextSetupRequest := initiatingMessage.Value.InitialContextSetupRequest
	if initialContextSetupRequest == nil {
		logger.NgapLog.Errorln("InitialContextSetupRequest is nil")
		return
	}

	for _, ie := range initialContextSetupRequest.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE AMFUENGAPID")
			amfUeNgapID = ie.Value.AMFUENGAPID
			if amfUeNgapID == nil {
				logger.NgapLog.Errorf("AMFUENGAPID is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDRANUENGAPID:
			logger.NgapLog.Debugln("decode IE RANUENGAPID")
			ranUeNgapID = ie.Value.RANUENGAPID
			if ranUeNgapID == nil {
				logger.NgapLog.Errorf("RANUENGAPID is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDUEAggregateMaximumBitRate:
			logger.NgapLog.Debugln("decode IE UEAggregateMaximumBitRate")
			ueAggregateMaximumBitRate = ie.Value.UEAggregateMaximumBitRate
		case ngapType.ProtocolIEIDGUAMI:
			logger.NgapLog.Debugln("decode IE GUAMI")
			guami = ie.Value.GUAMI
			if guami == nil {
				logger.NgapLog.Errorf("GUAMI is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDPDUSessionResourceSetupListCxtReq:
			logger.NgapLog.Debugln("decode IE PDUSessionResourceSetupListCxtReq")
			pduSessionResourceSetupListCxtReq = ie.Value.PDUSessionResourceSetupListCxtReq
		case ngapType.ProtocolIEIDAllowedNSSAI:
			logger.NgapLog.Debugln("decode IE AllowedNSSAI")
			allowedNSSAI = ie.Value.AllowedNSSAI
			if allowedNSSAI == nil {
				logger.NgapLog.Errorf("AllowedNSSAI is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDUESecurityCapabilities:
			logger.NgapLog.Debugln("decode IE UESecurityCapabilities")
			ueSecurityCapabilities = ie.Value.UESecurityCapabilities
			if ueSecurityCapabilities == nil {
				logger.NgapLog.Errorf("UESecurityCapabilities is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDSecurityKey:
			logger.NgapLog.Debugln("decode IE SecurityKey")
			securityKey = ie.Value.SecurityKey
			if securityKey == nil {
				logger.NgapLog.Errorln("SecurityKey is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDTraceActivation:
			logger.NgapLog.Debugln("decode IE TraceActivation")
			traceActivation = ie.Value.TraceActivation
			if traceActivation != nil {
				logger.NgapLog.Warnln("not Supported IE [TraceActivation]")
			}
		case ngapType.ProtocolIEIDUERadioCapability:
			logger.NgapLog.Debugln("decode IE UERadioCapability")
			ueRadioCapability = ie.Value.UERadioCapability
		case ngapType.ProtocolIEIDIndexToRFSP:
			logger.NgapLog.Debugln("decode IE IndexToRFSP")
			indexToRFSP = ie.Value.IndexToRFSP
		case ngapType.ProtocolIEIDMaskedIMEISV:
			logger.NgapLog.Debugln("decode IE MaskedIMEISV")
			maskedIMEISV = ie.Value.MaskedIMEISV
		case ngapType.ProtocolIEIDNASPDU:
			logger.NgapLog.Debugln("decode IE NAS PDU")
			nasPDU = ie.Value.NASPDU
		}
	}

	items := setupItemsCxtReq(pduSessionResourceSetupListCxtReq)

	if len(iesCriticalityDiagnostics.List) > 0 {
		if amfUeNgapID == nil || ranUeNgapID == nil {
			reportMissingIEs(amf, ngapType.ProcedureCodeInitialContextSetup, amfUeNgapID, ranUeNgapID,
				&iesCriticalityDiagnostics)
			return
		}
		ue := findUe(amf, amfUeNgapID, ranUeNgapID)
		if ue == nil {
			return
		}
		logger.NgapLog.Debugln("sending unsuccessful outcome to AMF, because some mandatory IEs were not included")
		cause := ngap_message.BuildCause(ngapType.CausePresentProtocol,
			ngapType.CauseProtocolPresentAbstractSyntaxErrorFalselyConstructedMessage)
		criticalityDiagnostics := buildCriticalityDiagnostics(nil, nil, nil, &iesCriticalityDiagnostics)
		ngap_message.SendInitialContextSetupFailure(ue, *cause, failedListCxtFail(items, *cause), &criticalityDiagnostics)
		return
	}

	ue := findUe(amf, amfUeNgapID, ranUeNgapID)
	if ue == nil {
		return
	}

	ue.Guami = guami
	ue.AllowedNssai = allowedNSSAI
	ue.MaskedIMEISV = maskedIMEISV
	if indexToRFSP != nil {
		ue.IndexToRfsp = indexToRFSP.Value
	}

	key, err := util.SecurityKeyFromNgap(securityKey)
	if err != nil {
		logger.NgapLog.Errorf("RanUeNgapID[%d]: %+v", ue.RanUeNgapId, err)
		cause := ngap_message.BuildCause(ngapType.CausePresentProtocol, ngapType.CauseProtocolPresentSemanticError)
		ngap_message.SendInitialContextSetupFailure(ue, *cause, failedListCxtFail(items, *cause), nil)
		return
	}

	evt := &context.SetupUeCtxtEvt{
		RanUeNgapId:  ue.RanUeNgapId,
		AmfUeNgapId:  ue.AmfUeNgapId,
		SecurityKey:  key,
		Capabilities: util.SecurityCapabilitiesFromNgap(ueSecurityCapabilities),
		Erabs:        collectErabs(ue, items),
	}
	if ueAggregateMaximumBitRate != nil {
		evt.Ambr = util.BitRateFromNgap(ueAggregateMaximumBitRate)
	}
	if ueRadioCapability != nil {
		evt.RadioCapability = ueRadioCapability.Value
	}
	if nasPDU != nil {
		evt.NasPdu = nasPDU.Value
	}

	if err := rrcCtx.SetupUeCtxt(evt); err != nil {
		logger.NgapLog.Errorf("RanUeNgapID[%d] context setup: %+v", ue.RanUeNgapId, err)
		cause := ngap_message.CauseFromRelease(context.CauseRadioResourcesUnavailable)
		for _, item := range items {
			ue.DeletePDUSession(item.id)
		}
		ue.FailedSetup = nil
		ngap_message.SendInitialContextSetupFailure(ue, *cause, failedListCxtFail(items, *cause), nil)
	}
}

func HandleUEContextModificationRequest(rrcCtx *context.RRCContext, amf *context.GnbAmf,
	message *ngapType.NGAPPDU,
) {
	logger.NgapLog.Infoln("handle UE Context Modification Request")

	var amfUeNgapID *ngapType.AMFUENGAPID
	var newAmfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	var securityKey *ngapType.SecurityKey
	var indexToRFSP *ngapType.IndexToRFSP
	var ueAggregateMaximumBitRate *ngapType.UEAggregateMaximumBitRate
	var ueSecurityCapabilities *ngapType.UESecurityCapabilities
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("Initiating Message is nil")
		return
	}

	ueContextModificationRequest := initiatingMessage.Value.UEContextModificationRequest
	if ueContextModificationRequest == nil {
		logger.NgapLog.Errorln("UEContextModificationRequest is nil")
		return
	}

	for _, ie := range ueContextModificationRequest.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE AMFUENGAPID")
			amfUeNgapID = ie.Value.AMFUENGAPID
			if amfUeNgapID == nil {
				logger.NgapLog.Errorln("AMFUENGAPID is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDRANUENGAPID:
			logger.NgapLog.Debugln("decode IE RANUENGAPID")
			ranUeNgapID = ie.Value.RANUENGAPID
			if ranUeNgapID == nil {
				logger.NgapLog.Errorln("RANUENGAPID is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDSecurityKey:
			logger.NgapLog.Debugln("decode IE SecurityKey")
			securityKey = ie.Value.SecurityKey
		case ngapType.ProtocolIEIDIndexToRFSP:
			logger.NgapLog.Debugln("decode IE IndexToRFSP")
			indexToRFSP = ie.Value.IndexToRFSP
		case ngapType.ProtocolIEIDUEAggregateMaximumBitRate:
			logger.NgapLog.Debugln("decode IE UEAggregateMaximumBitRate")
			ueAggregateMaximumBitRate = ie.Value.UEAggregateMaximumBitRate
		case ngapType.ProtocolIEIDUESecurityCapabilities:
			logger.NgapLog.Debugln("decode IE UESecurityCapabilities")
			ueSecurityCapabilities = ie.Value.UESecurityCapabilities
		case ngapType.ProtocolIEIDNewAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE NewAMFUENGAPID")
			newAmfUeNgapID = ie.Value.NewAMFUENGAPID
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 {
		reportMissingIEs(amf, ngapType.ProcedureCodeUEContextModification, amfUeNgapID, ranUeNgapID,
			&iesCriticalityDiagnostics)
		return
	}

	ue := findUe(amf, amfUeNgapID, ranUeNgapID)
	if ue == nil {
		return
	}

	if newAmfUeNgapID != nil {
		logger.NgapLog.Debugf("new AmfUeNgapID[%d]", newAmfUeNgapID.Value)
		ue.AmfUeNgapId = newAmfUeNgapID.Value
	}
	if indexToRFSP != nil {
		ue.IndexToRfsp = indexToRFSP.Value
	}

	evt := &context.ModifyUeCtxtEvt{RanUeNgapId: ue.RanUeNgapId}
	if securityKey != nil {
		key, err := util.SecurityKeyFromNgap(securityKey)
		if err != nil {
			logger.NgapLog.Errorf("RanUeNgapID[%d]: %+v", ue.RanUeNgapId, err)
			cause := ngap_message.BuildCause(ngapType.CausePresentProtocol, ngapType.CauseProtocolPresentSemanticError)
			ngap_message.SendUEContextModificationFailure(ue, *cause, nil)
			return
		}
		evt.SecurityKey = key
	}
	if ueSecurityCapabilities != nil {
		capabilities := util.SecurityCapabilitiesFromNgap(ueSecurityCapabilities)
		evt.Capabilities = &capabilities
	}
	if ueAggregateMaximumBitRate != nil {
		evt.Ambr = util.BitRateFromNgap(ueAggregateMaximumBitRate)
	}

	if err := rrcCtx.ModifyUeCtxt(evt); err != nil {
		logger.NgapLog.Errorf("RanUeNgapID[%d] context modification: %+v", ue.RanUeNgapId, err)
		cause := ngap_message.CauseFromRelease(context.CauseRadioResourcesUnavailable)
		ngap_message.SendUEContextModificationFailure(ue, *cause, nil)
	}
}

func HandleUEContextReleaseCommand(rrcCtx *context.RRCContext, amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle UE Context Release Command")

	var ueNgapIDs *ngapType.UENGAPIDs
	var cause *ngapType.Cause
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("Initiating Message is nil")
		return
	}

	ueContextReleaseCommand := initiatingMessage.Value.UEContextReleaseCommand
	if ueContextReleaseCommand == nil {
		logger.NgapLog.Errorln("UEContextReleaseCommand is nil")
		return
	}

	for _, ie := range ueContextReleaseCommand.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDUENGAPIDs:
			logger.NgapLog.Debugln("decode IE UENGAPIDs")
			ueNgapIDs = ie.Value.UENGAPIDs
			if ueNgapIDs == nil {
				logger.NgapLog.Errorln("UENGAPIDs is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDCause:
			logger.NgapLog.Debugln("decode IE Cause")
			cause = ie.Value.Cause
			if cause == nil {
				logger.NgapLog.Errorln("Cause is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentIgnore, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 || ueNgapIDs == nil {
		reportMissingIEs(amf, ngapType.ProcedureCodeUEContextRelease, nil, nil, &iesCriticalityDiagnostics)
		return
	}

	var ue *context.NgapUe
	var amfUeNgapID int64
	switch ueNgapIDs.Present {
	case ngapType.UENGAPIDsPresentUENGAPIDPair:
		amfUeNgapID = ueNgapIDs.UENGAPIDPair.AMFUENGAPID.Value
		ue = amf.FindUeByRanUeNgapID(ueNgapIDs.UENGAPIDPair.RANUENGAPID.Value)
	case ngapType.UENGAPIDsPresentAMFUENGAPID:
		amfUeNgapID = ueNgapIDs.AMFUENGAPID.Value
		ue = amf.FindUeByAmfUeNgapID(amfUeNgapID)
	}

	if ue == nil {
		logger.NgapLog.Errorf("no UE context for AmfUeNgapID[%d]", amfUeNgapID)
		errCause := ngap_message.BuildCause(ngapType.CausePresentRadioNetwork,
			ngapType.CauseRadioNetworkPresentUnknownLocalUENGAPID)
		ngap_message.SendErrorIndication(amf, &amfUeNgapID, nil, errCause, nil)
		return
	}
	if ue.AmfUeNgapId == context.AmfUeNgapIdUnspecified {
		ue.AmfUeNgapId = amfUeNgapID
	}

	if cause != nil {
		printAndGetCause(cause)
	}

	ue.UeCtxRelState = context.UeCtxRelStateOngoing

	if rnti, ok := rrcCtx.RntiOf(ue.RanUeNgapId); ok {
		err := rrcCtx.ReleaseComplete(rnti)
		if err == nil {
			// UE Context Release Complete follows once RRC has released the UE
			return
		}
		logger.NgapLog.Errorf("release RNTI 0x%x: %+v", rnti, err)
	}
	uli := ngap_message.BuildUserLocationInformationNR(rrcCtx.NfInfo.GlobalGnbId.PlmnId, rrcCtx.Cfg.Cell)
	ngap_message.SendUEContextReleaseComplete(ue, uli, nil)
	ue.Detach()
}

func HandleDownlinkNASTransport(rrcCtx *context.RRCContext, amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Downlink NAS Transport")

	var amfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	var oldAMF *ngapType.AMFName
	var nasPDU *ngapType.NASPDU
	var indexToRFSP *ngapType.IndexToRFSP
	var allowedNSSAI *ngapType.AllowedNSSAI
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("Initiating Message is nil")
		return
	}

	downlinkNASTransport := initiatingMessage.Value.DownlinkNASTransport
	if downlinkNASTransport == nil {
		logger.NgapLog.Errorln("DownlinkNASTransport is nil")
		return
	}

	for _, ie := range downlinkNASTransport.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE AMFUENGAPID")
			amfUeNgapID = ie.Value.AMFUENGAPID
			if amfUeNgapID == nil {
				logger.NgapLog.Errorln("AMFUENGAPID is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDRANUENGAPID:
			logger.NgapLog.Debugln("decode IE RANUENGAPID")
			ranUeNgapID = ie.Value.RANUENGAPID
			if ranUeNgapID == nil {
				logger.NgapLog.Errorln("RANUENGAPID is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDOldAMF:
			logger.NgapLog.Debugln("decode IE OldAMF")
			oldAMF = ie.Value.OldAMF
		case ngapType.ProtocolIEIDNASPDU:
			logger.NgapLog.Debugln("decode IE NASPDU")
			nasPDU = ie.Value.NASPDU
			if nasPDU == nil {
				logger.NgapLog.Errorln("NASPDU is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDIndexToRFSP:
			logger.NgapLog.Debugln("decode IE IndexToRFSP")
			indexToRFSP = ie.Value.IndexToRFSP
		case ngapType.ProtocolIEIDAllowedNSSAI:
			logger.NgapLog.Debugln("decode IE AllowedNSSAI")
			allowedNSSAI = ie.Value.AllowedNSSAI
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 || nasPDU == nil {
		reportMissingIEs(amf, ngapType.ProcedureCodeDownlinkNASTransport, amfUeNgapID, ranUeNgapID,
			&iesCriticalityDiagnostics)
		return
	}

	ue := findUe(amf, amfUeNgapID, ranUeNgapID)
	if ue == nil {
		return
	}

	if oldAMF != nil {
		logger.NgapLog.Debugf("old AMF: %s", oldAMF.Value)
	}
	if indexToRFSP != nil {
		ue.IndexToRfsp = indexToRFSP.Value
	}
	if allowedNSSAI != nil {
		ue.AllowedNssai = allowedNSSAI
	}

	if err := rrcCtx.WriteDlInfo(ue.RanUeNgapId, ue.AmfUeNgapId, nasPDU.Value); err != nil {
		logger.NgapLog.Errorf("RanUeNgapID[%d] downlink NAS: %+v", ue.RanUeNgapId, err)
	}
}

func HandlePDUSessionResourceSetupRequest(rrcCtx *context.RRCContext, amf *context.GnbAmf,
	message *ngapType.NGAPPDU,
) {
	logger.NgapLog.Infoln("handle PDU Session Resource Setup Request")

	var amfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	var nasPDU *ngapType.NASPDU
	var pduSessionResourceSetupListSUReq *ngapType.PDUSessionResourceSetupListSUReq
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("Initiating Message is nil")
		return
	}

	pduSessionResourceSetupRequest := initiatingMessage.Value.PDUSessionResourceSetupRequest
	if pduSessionResourceSetupRequest == nil {
		logger.NgapLog.Errorln("PDUSessionResourceSetupRequest is nil")
		return
	}

	for _, ie := range pduSessionResourceSetupRequest.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE AMFUENGAPID")
			amfUeNgapID = ie.Value.AMFUENGAPID
			if amfUeNgapID == nil {
				logger.NgapLog.Errorln("AMFUENGAPID is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDRANUENGAPID:
			logger.NgapLog.Debugln("decode IE RANUENGAPID")
			ranUeNgapID = ie.Value.RANUENGAPID
			if ranUeNgapID == nil {
				logger.NgapLog.Errorln("RANUENGAPID is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDNASPDU:
			logger.NgapLog.Debugln("decode IE NASPDU")
			nasPDU = ie.Value.NASPDU
		case ngapType.ProtocolIEIDPDUSessionResourceSetupListSUReq:
			logger.NgapLog.Debugln("decode IE PDUSessionResourceSetupRequestList")
			pduSessionResourceSetupListSUReq = ie.Value.PDUSessionResourceSetupListSUReq
			if pduSessionResourceSetupListSUReq == nil {
				logger.NgapLog.Errorln("PDUSessionResourceSetupRequestList is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 || pduSessionResourceSetupListSUReq == nil {
		reportMissingIEs(amf, ngapType.ProcedureCodePDUSessionResourceSetup, amfUeNgapID, ranUeNgapID,
			&iesCriticalityDiagnostics)
		return
	}

	ue := findUe(amf, amfUeNgapID, ranUeNgapID)
	if ue == nil {
		return
	}

	if nasPDU != nil {
		if err := rrcCtx.WriteDlInfo(ue.RanUeNgapId, ue.AmfUeNgapId, nasPDU.Value); err != nil {
			logger.NgapLog.Errorf("RanUeNgapID[%d] downlink NAS: %+v", ue.RanUeNgapId, err)
		}
	}

	items := setupItemsSUReq(pduSessionResourceSetupListSUReq)
	erabs := collectErabs(ue, items)
	if len(erabs) == 0 {
		sendSetupResponseSURes(ue, nil, nil, ue.TakeFailedSetup())
		return
	}

	if err := rrcCtx.SetupUeErabs(&context.SetupUeErabsEvt{RanUeNgapId: ue.RanUeNgapId, Erabs: erabs}); err != nil {
		logger.NgapLog.Errorf("RanUeNgapID[%d] bearer setup: %+v", ue.RanUeNgapId, err)
		failed := make([]context.ErabFailure, 0, len(erabs))
		for _, erab := range erabs {
			failed = append(failed, context.ErabFailure{
				ErabId: erab.ErabId,
				Cause:  context.CauseRadioResourcesUnavailable,
			})
		}
		sendSetupResponseSURes(ue, nil, failed, ue.TakeFailedSetup())
	}
}

func HandlePDUSessionResourceReleaseCommand(rrcCtx *context.RRCContext, amf *context.GnbAmf,
	message *ngapType.NGAPPDU,
) {
	logger.NgapLog.Infoln("handle PDU Session Resource Release Command")

	var amfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	var nasPDU *ngapType.NASPDU
	var pduSessionResourceToReleaseListRelCmd *ngapType.PDUSessionResourceToReleaseListRelCmd
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("Initiating Message is nil")
		return
	}

	pDUSessionResourceReleaseCommand := initiatingMessage.Value.PDUSessionResourceReleaseCommand
	if pDUSessionResourceReleaseCommand == nil {
		logger.NgapLog.Errorln("pDUSessionResourceReleaseCommand is nil")
		return
	}

	for _, ie := range pDUSessionResourceReleaseCommand.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE AMFUENGAPID")
			amfUeNgapID = ie.Value.AMFUENGAPID
			if amfUeNgapID == nil {
				logger.NgapLog.Errorln("AMFUENGAPID is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDRANUENGAPID:
			logger.NgapLog.Debugln("decode IE RANUENGAPID")
			ranUeNgapID = ie.Value.RANUENGAPID
			if ranUeNgapID == nil {
				logger.NgapLog.Errorln("RANUENGAPID is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDNASPDU:
			logger.NgapLog.Debugln("decode IE NASPDU")
			nasPDU = ie.Value.NASPDU
		case ngapType.ProtocolIEIDPDUSessionResourceToReleaseListRelCmd:
			logger.NgapLog.Debugln("decode IE PDUSessionResourceToReleaseListRelCmd")
			pduSessionResourceToReleaseListRelCmd = ie.Value.PDUSessionResourceToReleaseListRelCmd
			if pduSessionResourceToReleaseListRelCmd == nil {
				logger.NgapLog.Errorln("PDUSessionResourceToReleaseListRelCmd is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 || pduSessionResourceToReleaseListRelCmd == nil {
		reportMissingIEs(amf, ngapType.ProcedureCodePDUSessionResourceRelease, amfUeNgapID, ranUeNgapID,
			&iesCriticalityDiagnostics)
		return
	}

	ue := findUe(amf, amfUeNgapID, ranUeNgapID)
	if ue == nil {
		return
	}

	evt := &context.ReleaseErabsEvt{RanUeNgapId: ue.RanUeNgapId}
	for _, item := range pduSessionResourceToReleaseListRelCmd.List {
		evt.ErabIds = append(evt.ErabIds, uint8(item.PDUSessionID.Value))
	}
	if nasPDU != nil {
		evt.NasPdu = nasPDU.Value
	}

	if err := rrcCtx.ReleaseErabs(evt); err != nil {
		logger.NgapLog.Errorf("RanUeNgapID[%d] bearer release: %+v", ue.RanUeNgapId, err)
	}
}

func HandlePaging(rrcCtx *context.RRCContext, amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Paging")

	var uePagingIdentity *ngapType.UEPagingIdentity
	var taiListForPaging *ngapType.TAIListForPaging
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("Initiating Message is nil")
		return
	}

	paging := initiatingMessage.Value.Paging
	if paging == nil {
		logger.NgapLog.Errorln("Paging is nil")
		return
	}

	for _, ie := range paging.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDUEPagingIdentity:
			logger.NgapLog.Debugln("decode IE UEPagingIdentity")
			uePagingIdentity = ie.Value.UEPagingIdentity
			if uePagingIdentity == nil {
				logger.NgapLog.Errorln("UEPagingIdentity is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentIgnore, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDTAIListForPaging:
			logger.NgapLog.Debugln("decode IE TAIListForPaging")
			taiListForPaging = ie.Value.TAIListForPaging
			if taiListForPaging == nil {
				logger.NgapLog.Errorln("TAIListForPaging is nil")
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentIgnore, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 || uePagingIdentity == nil || taiListForPaging == nil {
		if amf != nil {
			reportMissingIEs(amf, ngapType.ProcedureCodePaging, nil, nil, &iesCriticalityDiagnostics)
		}
		return
	}

	servedTac := util.TacToNgap(rrcCtx.Cfg.Cell.Tac)
	served := false
	for _, item := range taiListForPaging.List {
		if bytes.Equal(item.TAI.TAC.Value, servedTac.Value) {
			served = true
			break
		}
	}
	if !served {
		logger.NgapLog.Debugln("paging area does not include the served cell")
		return
	}

	if uePagingIdentity.Present != ngapType.UEPagingIdentityPresentFiveGSTMSI || uePagingIdentity.FiveGSTMSI == nil {
		logger.NgapLog.Warnln("paging identity is not a 5G-S-TMSI")
		return
	}
	sTmsi, err := util.FiveGSTMSIToUint(uePagingIdentity.FiveGSTMSI)
	if err != nil {
		logger.NgapLog.Errorf("paging: %+v", err)
		return
	}
	// UE_ID of TS 38.304 is 5G-S-TMSI mod 1024
	if err := rrcCtx.AddPagingId(uint32(sTmsi%1024), sTmsi); err != nil {
		logger.NgapLog.Warnf("paging 5G-S-TMSI 0x%x: %+v", sTmsi, err)
	}
}

func HandleHandoverCommand(rrcCtx *context.RRCContext, amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Handover Command")

	var amfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	var pduSessionResourceToReleaseListHOCmd *ngapType.PDUSessionResourceToReleaseListHOCmd
	var targetToSourceTransparentContainer *ngapType.TargetToSourceTransparentContainer
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	successfulOutcome := message.SuccessfulOutcome
	if successfulOutcome == nil {
		logger.NgapLog.Errorln("successful Outcome is nil")
		return
	}

	handoverCommand := successfulOutcome.Value.HandoverCommand
	if handoverCommand == nil {
		logger.NgapLog.Errorln("HandoverCommand is nil")
		return
	}

	for _, ie := range handoverCommand.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE AMFUENGAPID")
			amfUeNgapID = ie.Value.AMFUENGAPID
			if amfUeNgapID == nil {
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDRANUENGAPID:
			logger.NgapLog.Debugln("decode IE RANUENGAPID")
			ranUeNgapID = ie.Value.RANUENGAPID
			if ranUeNgapID == nil {
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDPDUSessionResourceToReleaseListHOCmd:
			logger.NgapLog.Debugln("decode IE PDUSessionResourceToReleaseListHOCmd")
			pduSessionResourceToReleaseListHOCmd = ie.Value.PDUSessionResourceToReleaseListHOCmd
		case ngapType.ProtocolIEIDTargetToSourceTransparentContainer:
			logger.NgapLog.Debugln("decode IE TargetToSourceTransparentContainer")
			targetToSourceTransparentContainer = ie.Value.TargetToSourceTransparentContainer
			if targetToSourceTransparentContainer == nil {
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentReject, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 || amfUeNgapID == nil || ranUeNgapID == nil {
		reportMissingIEs(amf, ngapType.ProcedureCodeHandoverPreparation, amfUeNgapID, ranUeNgapID,
			&iesCriticalityDiagnostics)
		return
	}

	ue := findUe(amf, amfUeNgapID, ranUeNgapID)
	if ue == nil {
		return
	}
	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}

	rnti, ok := rrcCtx.RntiOf(ue.RanUeNgapId)
	if !ok {
		logger.NgapLog.Warnf("RanUeNgapID[%d] left before the handover command", ue.RanUeNgapId)
		return
	}
	if ue.HoTargetPci == nil {
		logger.NgapLog.Warnf("RanUeNgapID[%d] has no handover in preparation", ue.RanUeNgapId)
	}

	if pduSessionResourceToReleaseListHOCmd != nil {
		for _, item := range pduSessionResourceToReleaseListHOCmd.List {
			logger.NgapLog.Infof("PDU session %d not admitted by the target", item.PDUSessionID.Value)
		}
	}

	var container []byte
	if targetToSourceTransparentContainer != nil {
		var err error
		container, err = ngap_message.RRCContainerFromTargetToSource(targetToSourceTransparentContainer.Value)
		if err != nil {
			logger.NgapLog.Errorf("RanUeNgapID[%d] target to source container: %+v", ue.RanUeNgapId, err)
		}
	}
	if err := rrcCtx.HoPreparationComplete(rnti, container != nil, container); err != nil {
		logger.NgapLog.Errorf("RanUeNgapID[%d] handover preparation: %+v", ue.RanUeNgapId, err)
	}
}

func HandleHandoverPreparationFailure(rrcCtx *context.RRCContext, amf *context.GnbAmf,
	message *ngapType.NGAPPDU,
) {
	logger.NgapLog.Infoln("handle Handover Preparation Failure")

	var amfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	var cause *ngapType.Cause
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	unsuccessfulOutcome := message.UnsuccessfulOutcome
	if unsuccessfulOutcome == nil {
		logger.NgapLog.Errorln("unsuccessful Outcome is nil")
		return
	}

	handoverPreparationFailure := unsuccessfulOutcome.Value.HandoverPreparationFailure
	if handoverPreparationFailure == nil {
		logger.NgapLog.Errorln("HandoverPreparationFailure is nil")
		return
	}

	for _, ie := range handoverPreparationFailure.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE AMFUENGAPID")
			amfUeNgapID = ie.Value.AMFUENGAPID
			if amfUeNgapID == nil {
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentIgnore, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDRANUENGAPID:
			logger.NgapLog.Debugln("decode IE RANUENGAPID")
			ranUeNgapID = ie.Value.RANUENGAPID
			if ranUeNgapID == nil {
				item := buildCriticalityDiagnosticsIEItem(
					ngapType.CriticalityPresentIgnore, ie.Id.Value, ngapType.TypeOfErrorPresentMissing)
				iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, item)
			}
		case ngapType.ProtocolIEIDCause:
			logger.NgapLog.Debugln("decode IE Cause")
			cause = ie.Value.Cause
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if len(iesCriticalityDiagnostics.List) > 0 || amfUeNgapID == nil || ranUeNgapID == nil {
		reportMissingIEs(amf, ngapType.ProcedureCodeHandoverPreparation, amfUeNgapID, ranUeNgapID,
			&iesCriticalityDiagnostics)
		return
	}

	if cause != nil {
		printAndGetCause(cause)
	}
	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}

	ue := findUe(amf, amfUeNgapID, ranUeNgapID)
	if ue == nil {
		return
	}
	ue.HoTargetPci = nil

	rnti, ok := rrcCtx.RntiOf(ue.RanUeNgapId)
	if !ok {
		return
	}
	if err := rrcCtx.HoPreparationComplete(rnti, false, nil); err != nil {
		logger.NgapLog.Errorf("RanUeNgapID[%d] handover preparation: %+v", ue.RanUeNgapId, err)
	}
}

func HandleHandoverCancelAcknowledge(amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Handover Cancel Acknowledge")

	var amfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil || message.SuccessfulOutcome == nil {
		logger.NgapLog.Errorln("successful Outcome is nil")
		return
	}

	handoverCancelAcknowledge := message.SuccessfulOutcome.Value.HandoverCancelAcknowledge
	if handoverCancelAcknowledge == nil {
		logger.NgapLog.Errorln("HandoverCancelAcknowledge is nil")
		return
	}

	for _, ie := range handoverCancelAcknowledge.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE AMFUENGAPID")
			amfUeNgapID = ie.Value.AMFUENGAPID
		case ngapType.ProtocolIEIDRANUENGAPID:
			logger.NgapLog.Debugln("decode IE RANUENGAPID")
			ranUeNgapID = ie.Value.RANUENGAPID
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if amfUeNgapID != nil && ranUeNgapID != nil {
		logger.NgapLog.Debugf("handover of AmfUeNgapID[%d] RanUeNgapID[%d] cancelled",
			amfUeNgapID.Value, ranUeNgapID.Value)
	}
	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}
}

func HandleErrorIndication(amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Error Indication")

	var aMFUENGAPID *ngapType.AMFUENGAPID
	var rANUENGAPID *ngapType.RANUENGAPID
	var cause *ngapType.Cause
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	if amf == nil {
		logger.NgapLog.Errorln("corresponding AMF context not found")
		return
	}
	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}
	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("InitiatingMessage is nil")
		return
	}
	errorIndication := initiatingMessage.Value.ErrorIndication
	if errorIndication == nil {
		logger.NgapLog.Errorln("ErrorIndication is nil")
		return
	}

	for _, ie := range errorIndication.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			aMFUENGAPID = ie.Value.AMFUENGAPID
			logger.NgapLog.Debugln("decode IE AmfUeNgapID")
		case ngapType.ProtocolIEIDRANUENGAPID:
			rANUENGAPID = ie.Value.RANUENGAPID
			logger.NgapLog.Debugln("decode IE RanUeNgapID")
		case ngapType.ProtocolIEIDCause:
			cause = ie.Value.Cause
			logger.NgapLog.Debugln("decode IE Cause")
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
		}
	}

	if cause == nil && criticalityDiagnostics == nil {
		logger.NgapLog.Errorln("both Cause IE and CriticalityDiagnostics IE are nil, should have at least one")
		return
	}

	if (aMFUENGAPID == nil) != (rANUENGAPID == nil) {
		logger.NgapLog.Errorln("one of UE NGAP ID is not included in this message")
		return
	}

	if (aMFUENGAPID != nil) && (rANUENGAPID != nil) {
		logger.NgapLog.Debugln("UE-associated procedure error")
		logger.NgapLog.Warnf("AMF UE NGAP ID is defined, value = %d", aMFUENGAPID.Value)
		logger.NgapLog.Warnf("RAN UE NGAP ID is defined, value = %d", rANUENGAPID.Value)
	}

	if cause != nil {
		printAndGetCause(cause)
	}

	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}
}

func HandleAMFConfigurationUpdate(amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle AMF Configuration Update")

	var aMFName *ngapType.AMFName
	var servedGUAMIList *ngapType.ServedGUAMIList
	var relativeAMFCapacity *ngapType.RelativeAMFCapacity
	var pLMNSupportList *ngapType.PLMNSupportList
	var aMFTNLAssociationToAddList *ngapType.AMFTNLAssociationToAddList
	var aMFTNLAssociationToRemoveList *ngapType.AMFTNLAssociationToRemoveList
	var aMFTNLAssociationToUpdateList *ngapType.AMFTNLAssociationToUpdateList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("InitiatingMessage is nil")
		return
	}

	aMFConfigurationUpdate := initiatingMessage.Value.AMFConfigurationUpdate
	if aMFConfigurationUpdate == nil {
		logger.NgapLog.Errorln("aMFConfigurationUpdate is nil")
		return
	}

	for _, ie := range aMFConfigurationUpdate.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFName:
			logger.NgapLog.Debugln("decode IE AMFName")
			aMFName = ie.Value.AMFName
		case ngapType.ProtocolIEIDServedGUAMIList:
			logger.NgapLog.Debugln("decode IE ServedGUAMIList")
			servedGUAMIList = ie.Value.ServedGUAMIList
		case ngapType.ProtocolIEIDRelativeAMFCapacity:
			logger.NgapLog.Debugln("decode IE RelativeAMFCapacity")
			relativeAMFCapacity = ie.Value.RelativeAMFCapacity
		case ngapType.ProtocolIEIDPLMNSupportList:
			logger.NgapLog.Debugln("decode IE PLMNSupportList")
			pLMNSupportList = ie.Value.PLMNSupportList
		case ngapType.ProtocolIEIDAMFTNLAssociationToAddList:
			logger.NgapLog.Debugln("decode IE AMFTNLAssociationToAddList")
			aMFTNLAssociationToAddList = ie.Value.AMFTNLAssociationToAddList
		case ngapType.ProtocolIEIDAMFTNLAssociationToRemoveList:
			logger.NgapLog.Debugln("decode IE AMFTNLAssociationToRemoveList")
			aMFTNLAssociationToRemoveList = ie.Value.AMFTNLAssociationToRemoveList
		case ngapType.ProtocolIEIDAMFTNLAssociationToUpdateList:
			logger.NgapLog.Debugln("decode IE AMFTNLAssociationToUpdateList")
			aMFTNLAssociationToUpdateList = ie.Value.AMFTNLAssociationToUpdateList
		}
	}

	if aMFName != nil {
		amf.AMFName = aMFName
	}
	if servedGUAMIList != nil {
		amf.ServedGUAMIList = servedGUAMIList
	}
	if relativeAMFCapacity != nil {
		amf.RelativeAMFCapacity = relativeAMFCapacity
	}
	if pLMNSupportList != nil {
		amf.PLMNSupportList = pLMNSupportList
	}

	successList := []ngapType.AMFTNLAssociationSetupItem{}
	if aMFTNLAssociationToAddList != nil {
		for _, item := range aMFTNLAssociationToAddList.List {
			tnlItem := amf.AddAMFTNLAssociationItem(item.AMFTNLAssociationAddress)
			tnlItem.TNLAddressWeightFactor = &item.TNLAddressWeightFactor.Value
			if item.TNLAssociationUsage != nil {
				tnlItem.TNLAssociationUsage = item.TNLAssociationUsage
			}
			setupItem := ngapType.AMFTNLAssociationSetupItem{
				AMFTNLAssociationAddress: item.AMFTNLAssociationAddress,
			}
			successList = append(successList, setupItem)
		}
	}
	if aMFTNLAssociationToRemoveList != nil {
		for _, item := range aMFTNLAssociationToRemoveList.List {
			amf.DeleteAMFTNLAssociationItem(item.AMFTNLAssociationAddress)
		}
	}
	if aMFTNLAssociationToUpdateList != nil {
		for _, item := range aMFTNLAssociationToUpdateList.List {
			tnlItem := amf.FindAMFTNLAssociationItem(item.AMFTNLAssociationAddress)
			if tnlItem == nil {
				continue
			}
			if item.TNLAddressWeightFactor != nil {
				tnlItem.TNLAddressWeightFactor = &item.TNLAddressWeightFactor.Value
			}
			if item.TNLAssociationUsage != nil {
				tnlItem.TNLAssociationUsage = item.TNLAssociationUsage
			}
		}
	}

	var setupList *ngapType.AMFTNLAssociationSetupList
	if len(successList) > 0 {
		setupList = &ngapType.AMFTNLAssociationSetupList{
			List: successList,
		}
	}
	ngap_message.SendAMFConfigurationUpdateAcknowledge(amf, setupList, nil, nil)
}

func HandleRANConfigurationUpdateAcknowledge(amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle RAN Configuration Update Acknowledge")

	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	successfulOutcome := message.SuccessfulOutcome
	if successfulOutcome == nil {
		logger.NgapLog.Errorln("SuccessfulOutcome is nil")
		return
	}

	rANConfigurationUpdateAcknowledge := successfulOutcome.Value.RANConfigurationUpdateAcknowledge
	if rANConfigurationUpdateAcknowledge == nil {
		logger.NgapLog.Errorln("rANConfigurationUpdateAcknowledge is nil")
		return
	}

	for _, ie := range rANConfigurationUpdateAcknowledge.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}
}

func HandleRANConfigurationUpdateFailure(rrcCtx *context.RRCContext, amf *context.GnbAmf,
	message *ngapType.NGAPPDU,
) {
	logger.NgapLog.Infoln("handle RAN Configuration Update Failure")

	var cause *ngapType.Cause
	var timeToWait *ngapType.TimeToWait
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	unsuccessfulOutcome := message.UnsuccessfulOutcome
	if unsuccessfulOutcome == nil {
		logger.NgapLog.Errorln("unsuccessfulOutcome is nil")
		return
	}

	rANConfigurationUpdateFailure := unsuccessfulOutcome.Value.RANConfigurationUpdateFailure
	if rANConfigurationUpdateFailure == nil {
		logger.NgapLog.Errorln("rANConfigurationUpdateFailure is nil")
		return
	}

	for _, ie := range rANConfigurationUpdateFailure.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDCause:
			logger.NgapLog.Debugln("decode IE Cause")
			cause = ie.Value.Cause
		case ngapType.ProtocolIEIDTimeToWait:
			logger.NgapLog.Debugln("decode IE TimeToWait")
			timeToWait = ie.Value.TimeToWait
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if cause != nil {
		printAndGetCause(cause)
	}

	printCriticalityDiagnostics(criticalityDiagnostics)

	if waitingTime := timeToWaitSeconds(timeToWait); waitingTime != 0 {
		logger.NgapLog.Infof("wait at least %ds to resend RAN Configuration Update to same AMF[%s]",
			waitingTime, amf.SCTPAddr)
		rrcCtx.AMFReInitAvailableListStore(amf.SCTPAddr, false)
		time.AfterFunc(time.Duration(waitingTime)*time.Second, func() {
			logger.NgapLog.Infoln("re-send Ran Configuration Update Message when waiting time expired")
			rrcCtx.AMFReInitAvailableListStore(amf.SCTPAddr, true)
			ngap_message.SendRANConfigurationUpdate(rrcCtx, amf)
		})
		return
	}
	ngap_message.SendRANConfigurationUpdate(rrcCtx, amf)
}

func HandleDownlinkRANConfigurationTransfer(message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Downlink RAN Configuration Transfer")
}

func HandleAMFStatusIndication(message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle AMF Status Indication")
}

func HandleLocationReportingControl(message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Location Reporting Control")
}

func HandleOverloadStart(amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Overload Start")

	var aMFOverloadResponse *ngapType.OverloadResponse
	var aMFTrafficLoadReductionIndication *ngapType.TrafficLoadReductionIndication
	var overloadStartNSSAIList *ngapType.OverloadStartNSSAIList

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("InitiatingMessage is nil")
		return
	}

	overloadStart := initiatingMessage.Value.OverloadStart
	if overloadStart == nil {
		logger.NgapLog.Errorln("overloadStart is nil")
		return
	}

	for _, ie := range overloadStart.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFOverloadResponse:
			logger.NgapLog.Debugln("decode IE AMFOverloadResponse")
			aMFOverloadResponse = ie.Value.AMFOverloadResponse
		case ngapType.ProtocolIEIDAMFTrafficLoadReductionIndication:
			logger.NgapLog.Debugln("decode IE AMFTrafficLoadReductionIndication")
			aMFTrafficLoadReductionIndication = ie.Value.AMFTrafficLoadReductionIndication
		case ngapType.ProtocolIEIDOverloadStartNSSAIList:
			logger.NgapLog.Debugln("decode IE OverloadStartNSSAIList")
			overloadStartNSSAIList = ie.Value.OverloadStartNSSAIList
		}
	}
	amf.StartOverload(aMFOverloadResponse, aMFTrafficLoadReductionIndication, overloadStartNSSAIList)
}

func HandleOverloadStop(amf *context.GnbAmf, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Overload Stop")

	if amf == nil {
		logger.NgapLog.Errorln("AMF Context is nil")
		return
	}
	amf.StopOverload()
}

func buildCriticalityDiagnostics(
	procedureCode *int64,
	triggeringMessage *aper.Enumerated,
	procedureCriticality *aper.Enumerated,
	iesCriticalityDiagnostics *ngapType.CriticalityDiagnosticsIEList) (
	criticalityDiagnostics ngapType.CriticalityDiagnostics,
) {
	if procedureCode != nil {
		criticalityDiagnostics.ProcedureCode = new(ngapType.ProcedureCode)
		criticalityDiagnostics.ProcedureCode.Value = *procedureCode
	}

	if triggeringMessage != nil {
		criticalityDiagnostics.TriggeringMessage = new(ngapType.TriggeringMessage)
		criticalityDiagnostics.TriggeringMessage.Value = *triggeringMessage
	}

	if procedureCriticality != nil {
		criticalityDiagnostics.ProcedureCriticality = new(ngapType.Criticality)
		criticalityDiagnostics.ProcedureCriticality.Value = *procedureCriticality
	}

	if iesCriticalityDiagnostics != nil && len(iesCriticalityDiagnostics.List) > 0 {
		criticalityDiagnostics.IEsCriticalityDiagnostics = iesCriticalityDiagnostics
	}

	return criticalityDiagnostics
}

func buildCriticalityDiagnosticsIEItem(ieCriticality aper.Enumerated, ieID int64, typeOfErr aper.Enumerated) (
	item ngapType.CriticalityDiagnosticsIEItem,
) {
	item = ngapType.CriticalityDiagnosticsIEItem{
		IECriticality: ngapType.Criticality{
			Value: ieCriticality,
		},
		IEID: ngapType.ProtocolIEID{
			Value: ieID,
		},
		TypeOfError: ngapType.TypeOfError{
			Value: typeOfErr,
		},
	}

	return item
}

func printAndGetCause(cause *ngapType.Cause) (present int, value aper.Enumerated) {
	present = cause.Present
	switch cause.Present {
	case ngapType.CausePresentRadioNetwork:
		logger.NgapLog.Warnf("cause RadioNetwork[%d]", cause.RadioNetwork.Value)
		value = cause.RadioNetwork.Value
	case ngapType.CausePresentTransport:
		logger.NgapLog.Warnf("cause Transport[%d]", cause.Transport.Value)
		value = cause.Transport.Value
	case ngapType.CausePresentProtocol:
		logger.NgapLog.Warnf("cause Protocol[%d]", cause.Protocol.Value)
		value = cause.Protocol.Value
	case ngapType.CausePresentNas:
		logger.NgapLog.Warnf("cause Nas[%d]", cause.Nas.Value)
		value = cause.Nas.Value
	case ngapType.CausePresentMisc:
		logger.NgapLog.Warnf("cause Misc[%d]", cause.Misc.Value)
		value = cause.Misc.Value
	default:
		logger.NgapLog.Errorf("invalid Cause group[%d]", cause.Present)
	}
	return
}

func printCriticalityDiagnostics(criticalityDiagnostics *ngapType.CriticalityDiagnostics) {
	if criticalityDiagnostics == nil {
		return
	}
	iesCriticalityDiagnostics := criticalityDiagnostics.IEsCriticalityDiagnostics
	if iesCriticalityDiagnostics == nil {
		logger.NgapLog.Warnln("IEsCriticalityDiagnostics is nil")
		return
	}
	for index, item := range iesCriticalityDiagnostics.List {
		logger.NgapLog.Warnf("criticality IE item %d:", index+1)
		logger.NgapLog.Warnf("IE ID: %d", item.IEID.Value)

		switch item.IECriticality.Value {
		case ngapType.CriticalityPresentReject:
			logger.NgapLog.Warnln("IE Criticality: Reject")
		case ngapType.CriticalityPresentIgnore:
			logger.NgapLog.Warnln("IE Criticality: Ignore")
		case ngapType.CriticalityPresentNotify:
			logger.NgapLog.Warnln("IE Criticality: Notify")
		}

		switch item.TypeOfError.Value {
		case ngapType.TypeOfErrorPresentNotUnderstood:
			logger.NgapLog.Warnln("type of error: Not Understood")
		case ngapType.TypeOfErrorPresentMissing:
			logger.NgapLog.Warnln("type of error: Missing")
		}
	}
}
