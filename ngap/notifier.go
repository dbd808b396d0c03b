// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package ngap

import (
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
)

// Notifier hands the upward notifications of the RRC worker over to the NGAP
// goroutine. It never blocks: when the NGAP event channel is full the
// notification is dropped.
type Notifier struct {
	server *context.NgapServer
}

var _ context.CoreNetwork = (*Notifier)(nil)

func NewNotifier(server *context.NgapServer) *Notifier {
	return &Notifier{server: server}
}

func (n *Notifier) push(evt context.NgapEvt) {
	select {
	case n.server.RcvEventCh <- evt:
	default:
		logger.NgapLog.Errorf("NGAP event channel full, dropping %s", evt.Type())
	}
}

func (n *Notifier) InitialUe(ids context.UeIds, cause message.EstablishmentCause, nasPdu []byte, sTmsi uint64) {
	n.push(context.NewSendInitialUEMessageEvt(ids, cause, nasPdu, sTmsi))
}

func (n *Notifier) WriteUlNas(ids context.UeIds, nasPdu []byte) {
	n.push(context.NewSendUplinkNASTransportEvt(ids, nasPdu))
}

func (n *Notifier) CtxtSetupComplete(ids context.UeIds, setup []context.ErabResult, failed []context.ErabFailure) {
	n.push(context.NewSendInitialContextSetupRespEvt(ids, setup, failed))
}

func (n *Notifier) CtxtSetupFailure(ids context.UeIds, cause context.ReleaseCause) {
	n.push(context.NewSendInitialContextSetupFailureEvt(ids, cause))
}

func (n *Notifier) ErabSetupResponse(ids context.UeIds, setup []context.ErabResult, failed []context.ErabFailure) {
	n.push(context.NewSendPDUSessionResourceSetupResEvt(ids, setup, failed))
}

func (n *Notifier) ErabReleaseResponse(ids context.UeIds, released []uint8) {
	n.push(context.NewSendPDUSessionResourceReleaseResEvt(ids, released))
}

func (n *Notifier) CtxtModifyResponse(ids context.UeIds) {
	n.push(context.NewSendUEContextModificationResEvt(ids))
}

func (n *Notifier) UserRelease(ids context.UeIds, cause context.ReleaseCause) {
	n.push(context.NewSendUEContextReleaseRequestEvt(ids, cause))
}

func (n *Notifier) ReleaseComplete(ids context.UeIds) {
	n.push(context.NewSendUEContextReleaseCompleteEvt(ids))
}

func (n *Notifier) HandoverRequired(ids context.UeIds, targetPci uint16, container []byte) {
	n.push(context.NewSendHandoverRequiredEvt(ids, targetPci, container))
}

func (n *Notifier) HandoverCancel(ids context.UeIds, cause context.ReleaseCause) {
	n.push(context.NewSendHandoverCancelEvt(ids, cause))
}
