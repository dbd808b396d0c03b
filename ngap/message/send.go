// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/ngap/ngapType"
)

func SendToAmf(amf *context.GnbAmf, pkt []byte) {
	switch {
	case amf == nil:
		logger.NgapLog.Errorln("AMF Context is nil")
	case amf.SCTPConn == nil:
		logger.NgapLog.Errorf("no SCTP association with AMF[%s]", amf.SCTPAddr)
	default:
		if n, err := amf.SCTPConn.Write(pkt); err != nil {
			logger.NgapLog.Errorf("write to SCTP socket failed: %+v", err)
		} else {
			logger.NgapLog.Debugf("wrote %d bytes", n)
		}
	}
}

func sendToUeAmf(ue *context.NgapUe, pkt []byte) {
	if ue.AMF == nil {
		logger.NgapLog.Errorf("UE[%d] is not bound to an AMF", ue.RanUeNgapId)
		return
	}
	SendToAmf(ue.AMF, pkt)
}

func SendNGSetupRequest(rrcCtx *context.RRCContext, conn context.AmfConn) {
	logger.NgapLog.Infoln("send NG Setup Request")

	sctpAddr := conn.RemoteAddr().String()

	if available, _ := rrcCtx.AMFReInitAvailableListLoad(sctpAddr); !available {
		logger.NgapLog.Warnf("wait at least for the indicated time before reinitiating toward same AMF[%s]", sctpAddr)
		return
	}
	pkt, err := BuildNGSetupRequest(rrcCtx.NfInfo)
	if err != nil {
		logger.NgapLog.Errorf("build NGSetup Request failed: %+v", err)
		return
	}

	if n, err := conn.Write(pkt); err != nil {
		logger.NgapLog.Errorf("write to SCTP socket failed: %+v", err)
	} else {
		logger.NgapLog.Debugf("wrote %d bytes", n)
	}
}

// partOfNGInterface: if reset type is "reset all", set it to nil TS 38.413 9.2.6.11
func SendNGReset(
	amf *context.GnbAmf,
	cause ngapType.Cause,
	partOfNGInterface *ngapType.UEAssociatedLogicalNGConnectionList,
) {
	logger.NgapLog.Infoln("send NG Reset")

	pkt, err := BuildNGReset(cause, partOfNGInterface)
	if err != nil {
		logger.NgapLog.Errorf("build NGReset failed: %s", err.Error())
		return
	}

	SendToAmf(amf, pkt)
}

func SendNGResetAcknowledge(
	amf *context.GnbAmf,
	partOfNGInterface *ngapType.UEAssociatedLogicalNGConnectionList,
	diagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send NG Reset Acknowledge")

	if partOfNGInterface != nil && len(partOfNGInterface.List) == 0 {
		logger.NgapLog.Errorln("length of partOfNGInterface is 0")
		return
	}

	pkt, err := BuildNGResetAcknowledge(partOfNGInterface, diagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build NGReset Acknowledge failed: %s", err.Error())
		return
	}

	SendToAmf(amf, pkt)
}

func SendRANConfigurationUpdate(rrcCtx *context.RRCContext, amf *context.GnbAmf) {
	logger.NgapLog.Infoln("send RAN Configuration Update")

	if available, _ := rrcCtx.AMFReInitAvailableListLoad(amf.SCTPAddr); !available {
		logger.NgapLog.Warnf(
			"wait at least for the indicated time before reinitiating toward same AMF[%s]", amf.SCTPAddr)
		return
	}

	pkt, err := BuildRANConfigurationUpdate(rrcCtx.NfInfo)
	if err != nil {
		logger.NgapLog.Errorf("build RAN Configuration Update failed: %+v", err)
		return
	}

	SendToAmf(amf, pkt)
}

func SendInitialUEMessage(ue *context.NgapUe, uli ngapType.UserLocationInformationNR,
	cause message.EstablishmentCause, nasPdu []byte, sTmsi uint64,
) {
	logger.NgapLog.Infoln("send Initial UE Message")

	pkt, err := BuildInitialUEMessage(ue, uli, cause, nasPdu, sTmsi)
	if err != nil {
		logger.NgapLog.Errorf("build Initial UE Message failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendUplinkNASTransport(ue *context.NgapUe, uli ngapType.UserLocationInformationNR, nasPdu []byte) {
	logger.NgapLog.Infoln("send Uplink NAS Transport")

	if len(nasPdu) == 0 {
		logger.NgapLog.Errorln("NAS Pdu is nil")
		return
	}

	pkt, err := BuildUplinkNASTransport(ue, uli, nasPdu)
	if err != nil {
		logger.NgapLog.Errorf("build Uplink NAS Transport failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendInitialContextSetupResponse(
	ue *context.NgapUe,
	responseList *ngapType.PDUSessionResourceSetupListCxtRes,
	failedList *ngapType.PDUSessionResourceFailedToSetupListCxtRes,
	criticalityDiagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send Initial Context Setup Response")

	if responseList != nil && len(responseList.List) > context.MaxNumOfPDUSessions {
		logger.NgapLog.Errorln("pdu list out of range")
		return
	}

	if failedList != nil && len(failedList.List) > context.MaxNumOfPDUSessions {
		logger.NgapLog.Errorln("pdu list out of range")
		return
	}

	pkt, err := BuildInitialContextSetupResponse(ue, responseList, failedList, criticalityDiagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build Initial Context Setup Response failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendInitialContextSetupFailure(
	ue *context.NgapUe,
	cause ngapType.Cause,
	failedList *ngapType.PDUSessionResourceFailedToSetupListCxtFail,
	criticalityDiagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send Initial Context Setup Failure")

	if failedList != nil && len(failedList.List) > context.MaxNumOfPDUSessions {
		logger.NgapLog.Errorln("pdu list out of range")
		return
	}

	pkt, err := BuildInitialContextSetupFailure(ue, cause, failedList, criticalityDiagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build Initial Context Setup Failure failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendPDUSessionResourceSetupResponse(
	ue *context.NgapUe,
	responseList *ngapType.PDUSessionResourceSetupListSURes,
	failedListSURes *ngapType.PDUSessionResourceFailedToSetupListSURes,
	criticalityDiagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send PDU Session Resource Setup Response")

	pkt, err := BuildPDUSessionResourceSetupResponse(ue, responseList, failedListSURes, criticalityDiagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build PDU Session Resource Setup Response failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendPDUSessionResourceReleaseResponse(
	ue *context.NgapUe,
	uli ngapType.UserLocationInformationNR,
	relList ngapType.PDUSessionResourceReleasedListRelRes,
	diagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send PDU Session Resource Release Response")

	if len(relList.List) < 1 {
		logger.NgapLog.Errorln(
			"PDUSessionResourceReleasedListRelRes is nil. This message shall contain at least one Item")
		return
	}

	pkt, err := BuildPDUSessionResourceReleaseResponse(ue, uli, relList, diagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build PDU Session Resource Release Response failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendUEContextModificationResponse(
	ue *context.NgapUe,
	criticalityDiagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send UE Context Modification Response")

	pkt, err := BuildUEContextModificationResponse(ue, criticalityDiagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build UE Context Modification Response failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendUEContextModificationFailure(
	ue *context.NgapUe,
	cause ngapType.Cause,
	criticalityDiagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send UE Context Modification Failure")

	pkt, err := BuildUEContextModificationFailure(ue, cause, criticalityDiagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build UE Context Modification Failure failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendUEContextReleaseRequest(ue *context.NgapUe, cause ngapType.Cause) {
	logger.NgapLog.Infoln("send UE Context Release Request")

	pkt, err := BuildUEContextReleaseRequest(ue, cause)
	if err != nil {
		logger.NgapLog.Errorf("build UE Context Release Request failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendUEContextReleaseComplete(
	ue *context.NgapUe,
	uli ngapType.UserLocationInformationNR,
	criticalityDiagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send UE Context Release Complete")

	pkt, err := BuildUEContextReleaseComplete(ue, uli, criticalityDiagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build UE Context Release Complete failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendHandoverRequired(ue *context.NgapUe, targetID ngapType.TargetID, cause ngapType.Cause,
	sourceToTarget []byte,
) {
	logger.NgapLog.Infoln("send Handover Required")

	pkt, err := BuildHandoverRequired(ue, targetID, cause, sourceToTarget)
	if err != nil {
		logger.NgapLog.Errorf("build Handover Required failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendHandoverCancel(ue *context.NgapUe, cause ngapType.Cause) {
	logger.NgapLog.Infoln("send Handover Cancel")

	pkt, err := BuildHandoverCancel(ue, cause)
	if err != nil {
		logger.NgapLog.Errorf("build Handover Cancel failed: %+v", err)
		return
	}

	sendToUeAmf(ue, pkt)
}

func SendErrorIndication(
	amf *context.GnbAmf,
	amfUENGAPID *int64,
	ranUENGAPID *int64,
	cause *ngapType.Cause,
	criticalityDiagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send Error Indication")

	pkt, err := BuildErrorIndication(amfUENGAPID, ranUENGAPID, cause, criticalityDiagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build Error Indication failed: %+v", err)
		return
	}

	SendToAmf(amf, pkt)
}

// SendErrorIndicationWithSctpConn answers on a raw association, before any
// AMF context exists for it.
func SendErrorIndicationWithSctpConn(
	conn context.AmfConn,
	amfUENGAPID *int64,
	ranUENGAPID *int64,
	cause *ngapType.Cause,
	criticalityDiagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send Error Indication")

	pkt, err := BuildErrorIndication(amfUENGAPID, ranUENGAPID, cause, criticalityDiagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build Error Indication failed: %+v", err)
		return
	}

	if n, err := conn.Write(pkt); err != nil {
		logger.NgapLog.Errorf("write to SCTP socket failed: %+v", err)
	} else {
		logger.NgapLog.Debugf("wrote %d bytes", n)
	}
}

func SendAMFConfigurationUpdateAcknowledge(
	amf *context.GnbAmf,
	setupList *ngapType.AMFTNLAssociationSetupList,
	failList *ngapType.TNLAssociationList,
	diagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send AMF Configuration Update Acknowledge")

	pkt, err := BuildAMFConfigurationUpdateAcknowledge(setupList, failList, diagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build AMF Configuration Update Acknowledge failed: %+v", err)
		return
	}

	SendToAmf(amf, pkt)
}

func SendAMFConfigurationUpdateFailure(
	amf *context.GnbAmf,
	ngCause ngapType.Cause,
	time *ngapType.TimeToWait,
	diagnostics *ngapType.CriticalityDiagnostics,
) {
	logger.NgapLog.Infoln("send AMF Configuration Update Failure")

	pkt, err := BuildAMFConfigurationUpdateFailure(ngCause, time, diagnostics)
	if err != nil {
		logger.NgapLog.Errorf("build AMF Configuration Update Failure failed: %+v", err)
		return
	}

	SendToAmf(amf, pkt)
}
