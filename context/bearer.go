// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"fmt"
	"maps"
	"net"
	"slices"

	"github.com/omec-project/gnbrrc/rrc/message"
)

// Srb is a signalling radio bearer, SRB1 or SRB2.
type Srb struct {
	Id   uint8
	Lcid uint32
}

// Drb is a data radio bearer
type Drb struct {
	Id     uint8
	Lcid   uint32
	ErabId uint8
	Qos    QosClass
}

// Erab holds the QoS and tunnel parameters of an end to end bearer
type Erab struct {
	Id      uint8
	FiveQi  int64
	Qfi     uint8
	UpfAddr net.IP
	TeidOut uint32
	TeidIn  uint32
	NasPdu  []byte
}

func DrbLcid(drbId uint8) uint32 {
	return uint32(drbId) + DrbLcidOffset
}

// ProvisionSrbs creates SRB1 and SRB2, which exist for the whole session.
func (ue *RrcUe) ProvisionSrbs() {
	for id := uint8(1); id <= 2; id++ {
		ue.Srbs[id] = &Srb{Id: id, Lcid: uint32(id)}
	}
}

// SetupErab stores an end to end bearer and its data radio bearer. A request
// for an id that already exists replaces the previous entry. The returned
// flag is true when an entry was replaced.
func (ue *RrcUe) SetupErab(req ErabSetupReq, qos QosClass) (*Erab, bool, error) {
	if req.ErabId == 0 || int(req.ErabId) > MaxNofDrbs {
		return nil, false, fmt.Errorf("ERAB id %d out of range [1, %d]", req.ErabId, MaxNofDrbs)
	}
	_, replaced := ue.Erabs[req.ErabId]
	erab := &Erab{
		Id:      req.ErabId,
		FiveQi:  req.FiveQi,
		Qfi:     req.Qfi,
		UpfAddr: req.UpfAddr,
		TeidOut: req.TeidOut,
		NasPdu:  req.NasPdu,
	}
	ue.Erabs[req.ErabId] = erab
	// DRB id follows the ERAB id
	ue.Drbs[req.ErabId] = &Drb{
		Id:     req.ErabId,
		Lcid:   DrbLcid(req.ErabId),
		ErabId: req.ErabId,
		Qos:    qos,
	}
	ue.nofDrbs.Store(int32(len(ue.Drbs)))
	return erab, replaced, nil
}

// RestoreErab puts back the entries SetupErab replaced.
func (ue *RrcUe) RestoreErab(erab *Erab, drb *Drb) {
	ue.Erabs[erab.Id] = erab
	ue.Drbs[drb.Id] = drb
	ue.nofDrbs.Store(int32(len(ue.Drbs)))
}

// ReleaseErab removes the bearer and reports whether it existed.
func (ue *RrcUe) ReleaseErab(id uint8) bool {
	if _, ok := ue.Erabs[id]; !ok {
		return false
	}
	delete(ue.Erabs, id)
	delete(ue.Drbs, id)
	ue.nofDrbs.Store(int32(len(ue.Drbs)))
	return true
}

// DrbConfigs lists the data radio bearers sorted by id.
func (ue *RrcUe) DrbConfigs(ids ...uint8) []message.DrbConfig {
	if len(ids) == 0 {
		ids = slices.Sorted(maps.Keys(ue.Drbs))
	}
	cfgs := make([]message.DrbConfig, 0, len(ids))
	for _, id := range ids {
		drb, ok := ue.Drbs[id]
		if !ok {
			continue
		}
		cfgs = append(cfgs, message.DrbConfig{
			Id:                 drb.Id,
			Lcid:               drb.Lcid,
			FiveQi:             drb.Qos.FiveQi,
			Mode:               drb.Qos.RlcMode,
			Priority:           drb.Qos.Priority,
			PrioritisedBitRate: drb.Qos.PrioritisedBitRate,
			BucketSizeDuration: drb.Qos.BucketSizeDuration,
			PdcpDiscardTimer:   drb.Qos.PdcpDiscardTimer,
		})
	}
	return cfgs
}

func (ue *RrcUe) SrbIds() []uint8 {
	return slices.Sorted(maps.Keys(ue.Srbs))
}

// Lcids returns every logical channel configured for the UE.
func (ue *RrcUe) Lcids() []uint32 {
	lcids := []uint32{LcidSrb0}
	for _, id := range ue.SrbIds() {
		lcids = append(lcids, ue.Srbs[id].Lcid)
	}
	for _, id := range slices.Sorted(maps.Keys(ue.Drbs)) {
		lcids = append(lcids, ue.Drbs[id].Lcid)
	}
	return lcids
}
