// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"bytes"

	"github.com/omec-project/aper"
	"github.com/omec-project/ngap/ngapConvert"
	"github.com/omec-project/ngap/ngapType"
)

// GnbAmf is one AMF this node holds an NG-C association with. It is only
// touched by the NGAP goroutine.
type GnbAmf struct {
	SCTPAddr              string
	SCTPConn              AmfConn
	AMFName               *ngapType.AMFName
	ServedGUAMIList       *ngapType.ServedGUAMIList
	RelativeAMFCapacity   *ngapType.RelativeAMFCapacity
	PLMNSupportList       *ngapType.PLMNSupportList
	AMFTNLAssociationList map[string]*AMFTNLAssociationItem // v4+v6 as key
	// Overload related
	AMFOverloadContent *AMFOverloadContent
	// Relative Context
	NgapUeList map[int64]*NgapUe // ranUeNgapId as key
}

// AMFTNLAssociationItem holds TNL association info
type AMFTNLAssociationItem struct {
	Ipv4                   string
	Ipv6                   string
	TNLAssociationUsage    *ngapType.TNLAssociationUsage
	TNLAddressWeightFactor *int64
}

// AMFOverloadContent holds overload info for AMF
type AMFOverloadContent struct {
	Action     *ngapType.OverloadAction
	TrafficInd *int64
	NSSAIList  []SliceOverloadItem
}

// SliceOverloadItem holds overload info for a slice
type SliceOverloadItem struct {
	SNssaiList []ngapType.SNSSAI
	Action     *ngapType.OverloadAction
	TrafficInd *int64
}

func NewGnbAmf(sctpAddr string, conn AmfConn) *GnbAmf {
	return &GnbAmf{
		SCTPAddr:              sctpAddr,
		SCTPConn:              conn,
		AMFTNLAssociationList: make(map[string]*AMFTNLAssociationItem),
		NgapUeList:            make(map[int64]*NgapUe),
	}
}

// NewNgapUe binds the UE to this AMF.
func (amf *GnbAmf) NewNgapUe(ids UeIds) *NgapUe {
	ue := &NgapUe{
		RanUeNgapId: ids.RanUeNgapId,
		AmfUeNgapId: ids.AmfUeNgapId,
		Rnti:        ids.Rnti,
		AMF:         amf,
		PduSessions: make(map[int64]*PDUSession),
	}
	amf.NgapUeList[ids.RanUeNgapId] = ue
	return ue
}

func (amf *GnbAmf) FindUeByRanUeNgapID(id int64) *NgapUe {
	return amf.NgapUeList[id]
}

// FindUeByAmfUeNgapID returns NgapUe by AmfUeNgapId
func (amf *GnbAmf) FindUeByAmfUeNgapID(id int64) *NgapUe {
	for _, ue := range amf.NgapUeList {
		if ue.AmfUeNgapId == id {
			return ue
		}
	}
	return nil
}

func (amf *GnbAmf) DeleteNgapUe(id int64) {
	delete(amf.NgapUeList, id)
}

// RemoveAllRelatedUe forgets every UE of this AMF and returns them.
func (amf *GnbAmf) RemoveAllRelatedUe() []*NgapUe {
	ues := make([]*NgapUe, 0, len(amf.NgapUeList))
	for id, ue := range amf.NgapUeList {
		ues = append(ues, ue)
		delete(amf.NgapUeList, id)
	}
	return ues
}

// tnlAssocKey generates a unique key for TNL association map
func tnlAssocKey(v4, v6 string) string {
	return v4 + ":" + v6
}

// AddAMFTNLAssociationItem adds a TNL association item
func (amf *GnbAmf) AddAMFTNLAssociationItem(info ngapType.CPTransportLayerInformation) *AMFTNLAssociationItem {
	item := &AMFTNLAssociationItem{}
	item.Ipv4, item.Ipv6 = ngapConvert.IPAddressToString(*info.EndpointIPAddress)
	amf.AMFTNLAssociationList[tnlAssocKey(item.Ipv4, item.Ipv6)] = item
	return item
}

// FindAMFTNLAssociationItem finds a TNL association item
func (amf *GnbAmf) FindAMFTNLAssociationItem(info ngapType.CPTransportLayerInformation) *AMFTNLAssociationItem {
	v4, v6 := ngapConvert.IPAddressToString(*info.EndpointIPAddress)
	return amf.AMFTNLAssociationList[tnlAssocKey(v4, v6)]
}

// DeleteAMFTNLAssociationItem deletes a TNL association item
func (amf *GnbAmf) DeleteAMFTNLAssociationItem(info ngapType.CPTransportLayerInformation) {
	v4, v6 := ngapConvert.IPAddressToString(*info.EndpointIPAddress)
	delete(amf.AMFTNLAssociationList, tnlAssocKey(v4, v6))
}

// StartOverload sets overload content for AMF
func (amf *GnbAmf) StartOverload(
	resp *ngapType.OverloadResponse, trafloadInd *ngapType.TrafficLoadReductionIndication,
	nssai *ngapType.OverloadStartNSSAIList,
) *AMFOverloadContent {
	if resp == nil && trafloadInd == nil && nssai == nil {
		return nil
	}
	content := AMFOverloadContent{}
	if resp != nil {
		content.Action = resp.OverloadAction
	}
	if trafloadInd != nil {
		content.TrafficInd = &trafloadInd.Value
	}
	if nssai != nil {
		for _, item := range nssai.List {
			sliceItem := SliceOverloadItem{}
			for _, item2 := range item.SliceOverloadList.List {
				sliceItem.SNssaiList = append(sliceItem.SNssaiList, item2.SNSSAI)
			}
			if item.SliceOverloadResponse != nil {
				sliceItem.Action = item.SliceOverloadResponse.OverloadAction
			}
			if item.SliceTrafficLoadReductionIndication != nil {
				sliceItem.TrafficInd = &item.SliceTrafficLoadReductionIndication.Value
			}
			content.NSSAIList = append(content.NSSAIList, sliceItem)
		}
	}
	amf.AMFOverloadContent = &content
	return amf.AMFOverloadContent
}

// StopOverload clears overload content
func (amf *GnbAmf) StopOverload() {
	amf.AMFOverloadContent = nil
}

// Overloaded reports whether the AMF asked to stop receiving new signalling.
func (amf *GnbAmf) Overloaded() bool {
	c := amf.AMFOverloadContent
	if c == nil || c.Action == nil {
		return false
	}
	return c.Action.Value == ngapType.OverloadActionPresentRejectNonEmergencyMoDt ||
		c.Action.Value == ngapType.OverloadActionPresentRejectRrcCrSignalling
}

// FindAvailableAMFByCompareGUAMI compares incoming GUAMI with AMF served GUAMI
// Returns true if AMF is available for UE
func (amf *GnbAmf) FindAvailableAMFByCompareGUAMI(ueSpecifiedGUAMI *ngapType.GUAMI) bool {
	if amf.ServedGUAMIList == nil {
		return false
	}
	codedUESpecifiedGUAMI, err := aper.MarshalWithParams(ueSpecifiedGUAMI, "valueExt")
	if err != nil {
		return false
	}
	for _, amfServedGUAMI := range amf.ServedGUAMIList.List {
		codedAMFServedGUAMI, err := aper.MarshalWithParams(&amfServedGUAMI.GUAMI, "valueExt")
		if err != nil {
			return false
		}
		if bytes.Equal(codedAMFServedGUAMI, codedUESpecifiedGUAMI) {
			return true
		}
	}
	return false
}

// ServesAmfSetAndPointer reports whether one of the served GUAMIs carries
// the AMF Set ID and AMF Pointer of a 5G-S-TMSI.
func (amf *GnbAmf) ServesAmfSetAndPointer(setId uint16, pointer uint8) bool {
	if amf.ServedGUAMIList == nil {
		return false
	}
	for _, item := range amf.ServedGUAMIList.List {
		set := item.GUAMI.AMFSetID.Value
		ptr := item.GUAMI.AMFPointer.Value
		if len(set.Bytes) < 2 || len(ptr.Bytes) < 1 {
			continue
		}
		// AMF Set ID is 10 bits, AMF Pointer 6 bits, both left aligned
		gotSet := (uint16(set.Bytes[0])<<8 | uint16(set.Bytes[1])) >> 6
		gotPtr := ptr.Bytes[0] >> 2
		if gotSet == setId && gotPtr == pointer {
			return true
		}
	}
	return false
}

// FindAvailableAMFByCompareSelectedPLMNId compares incoming PLMNId with AMF supported PLMNId
// Returns true if AMF supports the selected PLMNId
func (amf *GnbAmf) FindAvailableAMFByCompareSelectedPLMNId(ueSpecifiedSelectedPLMNId *ngapType.PLMNIdentity) bool {
	if amf.PLMNSupportList == nil {
		return false
	}
	for _, amfServedPLMNId := range amf.PLMNSupportList.List {
		if bytes.Equal(amfServedPLMNId.PLMNIdentity.Value, ueSpecifiedSelectedPLMNId.Value) {
			return true
		}
	}
	return false
}
