// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"maps"
	"net"
	"slices"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	ngap_message "github.com/omec-project/gnbrrc/ngap/message"
	"github.com/omec-project/gnbrrc/util"
	"github.com/omec-project/ngap/ngapType"
)

// HandleEvent turns an upward notification of the RRC layer into the NGAP
// message it stands for.
func HandleEvent(rrcCtx *context.RRCContext, ngapEvent context.NgapEvt) {
	logger.NgapLog.Debugf("handle NGAP event %s", ngapEvent.Type())

	switch ngapEvent.Type() {
	case context.SendInitialUEMessage:
		HandleSendInitialUEMessage(rrcCtx, ngapEvent.(*context.SendInitialUEMessageEvt))
	case context.SendUplinkNASTransport:
		HandleSendUplinkNASTransport(rrcCtx, ngapEvent.(*context.SendUplinkNASTransportEvt))
	case context.SendInitialContextSetupResponse:
		HandleSendInitialContextSetupResponse(rrcCtx, ngapEvent.(*context.SendInitialContextSetupRespEvt))
	case context.SendInitialContextSetupFailure:
		HandleSendInitialContextSetupFailure(rrcCtx, ngapEvent.(*context.SendInitialContextSetupFailureEvt))
	case context.SendPDUSessionResourceSetupResponse:
		HandleSendPDUSessionResourceSetupResponse(rrcCtx, ngapEvent.(*context.SendPDUSessionResourceSetupResEvt))
	case context.SendPDUSessionResourceReleaseResponse:
		HandleSendPDUSessionResourceReleaseResponse(rrcCtx, ngapEvent.(*context.SendPDUSessionResourceReleaseResEvt))
	case context.SendUEContextModificationResponse:
		HandleSendUEContextModificationResponse(rrcCtx, ngapEvent.(*context.SendUEContextModificationResEvt))
	case context.SendUEContextReleaseRequest:
		HandleSendUEContextReleaseRequest(rrcCtx, ngapEvent.(*context.SendUEContextReleaseRequestEvt))
	case context.SendUEContextReleaseComplete:
		HandleSendUEContextReleaseComplete(rrcCtx, ngapEvent.(*context.SendUEContextReleaseCompleteEvt))
	case context.SendHandoverRequired:
		HandleSendHandoverRequired(rrcCtx, ngapEvent.(*context.SendHandoverRequiredEvt))
	case context.SendHandoverCancel:
		HandleSendHandoverCancel(rrcCtx, ngapEvent.(*context.SendHandoverCancelEvt))
	default:
		logger.NgapLog.Errorf("unknown NGAP event type: %d", ngapEvent.Type())
	}
}

func userLocation(rrcCtx *context.RRCContext) ngapType.UserLocationInformationNR {
	return ngap_message.BuildUserLocationInformationNR(rrcCtx.NfInfo.GlobalGnbId.PlmnId, rrcCtx.Cfg.Cell)
}

func eventUe(rrcCtx *context.RRCContext, ids context.UeIds) *context.NgapUe {
	ue, ok := rrcCtx.FindNgapUe(ids.RanUeNgapId)
	if !ok {
		logger.NgapLog.Warnf("no NG context for RanUeNgapID[%d] RNTI 0x%x", ids.RanUeNgapId, ids.Rnti)
		return nil
	}
	ue.Rnti = ids.Rnti
	return ue
}

func HandleSendInitialUEMessage(rrcCtx *context.RRCContext, evt *context.SendInitialUEMessageEvt) {
	logger.NgapLog.Debugln("handle SendInitialUEMessage event")

	amf := rrcCtx.AMFSelection(evt.STmsi)
	if amf == nil {
		logger.NgapLog.Errorf("no AMF available for RNTI 0x%x", evt.Ids.Rnti)
		if err := rrcCtx.ReleaseComplete(evt.Ids.Rnti); err != nil {
			logger.NgapLog.Errorf("release RNTI 0x%x: %+v", evt.Ids.Rnti, err)
		}
		return
	}
	ue := amf.NewNgapUe(evt.Ids)
	ngap_message.SendInitialUEMessage(ue, userLocation(rrcCtx), evt.Cause, evt.NasPDU, evt.STmsi)
}

func HandleSendUplinkNASTransport(rrcCtx *context.RRCContext, evt *context.SendUplinkNASTransportEvt) {
	logger.NgapLog.Debugln("handle SendUplinkNASTransport event")

	ue := eventUe(rrcCtx, evt.Ids)
	if ue == nil {
		return
	}
	ngap_message.SendUplinkNASTransport(ue, userLocation(rrcCtx), evt.Pdu)
}

// setupResponseTransfer stores the downlink tunnel on the PDU session and
// encodes it for the AMF.
func setupResponseTransfer(rrcCtx *context.RRCContext, ue *context.NgapUe, result context.ErabResult,
) (int64, []byte, bool) {
	id := int64(result.ErabId)
	addr := result.Addr
	if addr == nil {
		addr = net.ParseIP(rrcCtx.GtpBindAddress)
	}
	if pduSession := ue.FindPDUSession(id); pduSession != nil {
		pduSession.TeidIn = result.TeidIn
		pduSession.GnbAddr = addr
	}
	transfer := result.Transfer
	if transfer == nil {
		var err error
		transfer, err = ngap_message.BuildPDUSessionResourceSetupResponseTransfer(result.TeidIn, addr, result.Qfi)
		if err != nil {
			logger.NgapLog.Errorf("build PDUSessionResourceSetupResponseTransfer Error: %+v", err)
			return id, nil, false
		}
	}
	return id, transfer, true
}

func failureTransfer(ue *context.NgapUe, failure context.ErabFailure) (int64, []byte) {
	id := int64(failure.ErabId)
	ue.DeletePDUSession(id)
	return id, unsuccessfulTransfer(*ngap_message.CauseFromRelease(failure.Cause), nil)
}

func HandleSendInitialContextSetupResponse(rrcCtx *context.RRCContext, evt *context.SendInitialContextSetupRespEvt) {
	logger.NgapLog.Debugln("handle SendInitialContextSetupResponse event")

	ue := eventUe(rrcCtx, evt.Ids)
	if ue == nil {
		return
	}

	var responseList *ngapType.PDUSessionResourceSetupListCxtRes
	var failedList *ngapType.PDUSessionResourceFailedToSetupListCxtRes

	for _, result := range evt.Setup {
		id, transfer, ok := setupResponseTransfer(rrcCtx, ue, result)
		if !ok {
			continue
		}
		if responseList == nil {
			responseList = new(ngapType.PDUSessionResourceSetupListCxtRes)
		}
		ngap_message.AppendPDUSessionResourceSetupListCxtRes(responseList, id, transfer)
	}
	appendFailed := func(id int64, transfer []byte) {
		if failedList == nil {
			failedList = new(ngapType.PDUSessionResourceFailedToSetupListCxtRes)
		}
		ngap_message.AppendPDUSessionResourceFailedToSetupListCxtRes(failedList, id, transfer)
	}
	for _, failure := range evt.Failed {
		appendFailed(failureTransfer(ue, failure))
	}
	for _, id := range sortedFailedIds(ue.FailedSetup) {
		appendFailed(id, ue.FailedSetup[id])
	}
	ue.FailedSetup = nil

	ngap_message.SendInitialContextSetupResponse(ue, responseList, failedList, nil)
}

func HandleSendInitialContextSetupFailure(rrcCtx *context.RRCContext, evt *context.SendInitialContextSetupFailureEvt) {
	logger.NgapLog.Debugln("handle SendInitialContextSetupFailure event")

	ue := eventUe(rrcCtx, evt.Ids)
	if ue == nil {
		return
	}

	cause := ngap_message.CauseFromRelease(evt.Cause)
	var failedList *ngapType.PDUSessionResourceFailedToSetupListCxtFail
	appendFailed := func(id int64, transfer []byte) {
		if failedList == nil {
			failedList = new(ngapType.PDUSessionResourceFailedToSetupListCxtFail)
		}
		ngap_message.AppendPDUSessionResourceFailedToSetupListCxtfail(failedList, id, transfer)
	}
	for _, id := range ue.PDUSessionIds() {
		ue.DeletePDUSession(id)
		appendFailed(id, unsuccessfulTransfer(*cause, nil))
	}
	for _, id := range sortedFailedIds(ue.FailedSetup) {
		appendFailed(id, ue.FailedSetup[id])
	}
	ue.FailedSetup = nil

	ngap_message.SendInitialContextSetupFailure(ue, *cause, failedList, nil)
}

// sendSetupResponseSURes answers a PDU Session Resource Setup Request.
// failedSetup holds the sessions rejected before reaching RRC.
func sendSetupResponseSURes(ue *context.NgapUe, setup []setupResult, failed []context.ErabFailure,
	failedSetup map[int64][]byte,
) {
	var responseList *ngapType.PDUSessionResourceSetupListSURes
	var failedList *ngapType.PDUSessionResourceFailedToSetupListSURes

	for _, result := range setup {
		if responseList == nil {
			responseList = new(ngapType.PDUSessionResourceSetupListSURes)
		}
		ngap_message.AppendPDUSessionResourceSetupListSURes(responseList, result.id, result.transfer)
	}
	appendFailed := func(id int64, transfer []byte) {
		if failedList == nil {
			failedList = new(ngapType.PDUSessionResourceFailedToSetupListSURes)
		}
		ngap_message.AppendPDUSessionResourceFailedToSetupListSURes(failedList, id, transfer)
	}
	for _, failure := range failed {
		appendFailed(failureTransfer(ue, failure))
	}
	for _, id := range sortedFailedIds(failedSetup) {
		appendFailed(id, failedSetup[id])
	}

	ngap_message.SendPDUSessionResourceSetupResponse(ue, responseList, failedList, nil)
}

func sortedFailedIds(failedSetup map[int64][]byte) []int64 {
	return slices.Sorted(maps.Keys(failedSetup))
}

type setupResult struct {
	id       int64
	transfer []byte
}

func HandleSendPDUSessionResourceSetupResponse(rrcCtx *context.RRCContext,
	evt *context.SendPDUSessionResourceSetupResEvt,
) {
	logger.NgapLog.Debugln("handle SendPDUSessionResourceSetupResponse event")

	ue := eventUe(rrcCtx, evt.Ids)
	if ue == nil {
		return
	}

	setup := make([]setupResult, 0, len(evt.Setup))
	for _, result := range evt.Setup {
		id, transfer, ok := setupResponseTransfer(rrcCtx, ue, result)
		if !ok {
			continue
		}
		setup = append(setup, setupResult{id: id, transfer: transfer})
	}
	sendSetupResponseSURes(ue, setup, evt.Failed, ue.TakeFailedSetup())
}

func HandleSendPDUSessionResourceReleaseResponse(rrcCtx *context.RRCContext,
	evt *context.SendPDUSessionResourceReleaseResEvt,
) {
	logger.NgapLog.Debugln("handle SendPDUSessionResourceReleaseResponse event")

	ue := eventUe(rrcCtx, evt.Ids)
	if ue == nil {
		return
	}

	var releasedList ngapType.PDUSessionResourceReleasedListRelRes
	for _, erabId := range evt.Released {
		id := int64(erabId)
		ue.DeletePDUSession(id)
		transfer, err := ngap_message.BuildPDUSessionResourceReleaseResponseTransfer()
		if err != nil {
			logger.NgapLog.Errorf("build PDUSessionResourceReleaseResponseTransfer Error: %+v", err)
			continue
		}
		ngap_message.AppendPDUSessionResourceReleasedListRelRes(&releasedList, id, transfer)
	}
	ngap_message.SendPDUSessionResourceReleaseResponse(ue, userLocation(rrcCtx), releasedList, nil)
}

func HandleSendUEContextModificationResponse(rrcCtx *context.RRCContext,
	evt *context.SendUEContextModificationResEvt,
) {
	logger.NgapLog.Debugln("handle SendUEContextModificationResponse event")

	ue := eventUe(rrcCtx, evt.Ids)
	if ue == nil {
		return
	}
	ngap_message.SendUEContextModificationResponse(ue, nil)
}

func HandleSendUEContextReleaseRequest(rrcCtx *context.RRCContext, evt *context.SendUEContextReleaseRequestEvt) {
	logger.NgapLog.Debugln("handle SendUEContextReleaseRequest event")

	ue := eventUe(rrcCtx, evt.Ids)
	if ue == nil {
		return
	}
	if ue.UeCtxRelState == context.UeCtxRelStateOngoing {
		logger.NgapLog.Debugf("RanUeNgapID[%d] release already ongoing", ue.RanUeNgapId)
		return
	}
	ue.UeCtxRelState = context.UeCtxRelStateOngoing
	ngap_message.SendUEContextReleaseRequest(ue, *ngap_message.CauseFromRelease(evt.Cause))
}

func HandleSendUEContextReleaseComplete(rrcCtx *context.RRCContext, evt *context.SendUEContextReleaseCompleteEvt) {
	logger.NgapLog.Debugln("handle SendUEContextReleaseComplete event")

	ue := eventUe(rrcCtx, evt.Ids)
	if ue == nil {
		return
	}
	ngap_message.SendUEContextReleaseComplete(ue, userLocation(rrcCtx), nil)
	ue.Detach()
}

func HandleSendHandoverRequired(rrcCtx *context.RRCContext, evt *context.SendHandoverRequiredEvt) {
	logger.NgapLog.Debugln("handle SendHandoverRequired event")

	ue := eventUe(rrcCtx, evt.Ids)
	if ue == nil {
		return
	}

	plmnId := rrcCtx.NfInfo.GlobalGnbId.PlmnId
	target, ok := rrcCtx.NeighbourGnb(evt.TargetPci)
	if !ok {
		// intra gNB cell, the target is this node
		logger.NgapLog.Warnf("PCI %d is not a provisioned neighbour, targeting the own gNB", evt.TargetPci)
		target = context.NeighbourGnb{
			Pci:         evt.TargetPci,
			GnbId:       rrcCtx.NfInfo.GlobalGnbId.GnbId,
			GnbIdLength: rrcCtx.NfInfo.GlobalGnbId.GnbIdLength,
			CellId:      rrcCtx.Cfg.Cell.CellId,
			Tac:         rrcCtx.Cfg.Cell.Tac,
		}
	}

	targetCell := ngapType.NRCGI{
		PLMNIdentity:   util.PlmnIdToNgap(plmnId),
		NRCellIdentity: ngapType.NRCellIdentity{Value: util.NrCellIdToNgap(target.CellId)},
	}
	servingCell := ngapType.NRCGI{
		PLMNIdentity:   util.PlmnIdToNgap(plmnId),
		NRCellIdentity: ngapType.NRCellIdentity{Value: util.NrCellIdToNgap(rrcCtx.Cfg.Cell.CellId)},
	}
	container, err := ngap_message.BuildSourceToTargetTransparentContainer(ue, evt.Container, targetCell, servingCell)
	if err != nil {
		logger.NgapLog.Errorf("build SourceToTargetTransparentContainer Error: %+v", err)
		if rnti, ok := rrcCtx.RntiOf(ue.RanUeNgapId); ok {
			if err := rrcCtx.HoPreparationComplete(rnti, false, nil); err != nil {
				logger.NgapLog.Errorf("RanUeNgapID[%d] handover preparation: %+v", ue.RanUeNgapId, err)
			}
		}
		return
	}

	pci := evt.TargetPci
	ue.HoTargetPci = &pci
	cause := ngap_message.BuildCause(ngapType.CausePresentRadioNetwork,
		ngapType.CauseRadioNetworkPresentHandoverDesirableForRadioReason)
	ngap_message.SendHandoverRequired(ue, ngap_message.BuildTargetID(plmnId, target), *cause, container)
}

func HandleSendHandoverCancel(rrcCtx *context.RRCContext, evt *context.SendHandoverCancelEvt) {
	logger.NgapLog.Debugln("handle SendHandoverCancel event")

	ue := eventUe(rrcCtx, evt.Ids)
	if ue == nil {
		return
	}
	ngap_message.SendHandoverCancel(ue, *ngap_message.CauseFromRelease(evt.Cause))
	ue.HoTargetPci = nil
}
