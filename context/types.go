// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

type GnbNfInfo struct {
	GlobalGnbId     GlobalGnbId       `yaml:"globalGnbId"`
	RanNodeName     string            `yaml:"name,omitempty"`
	SupportedTaList []SupportedTAItem `yaml:"supportedTaList"`
	Neighbours      []NeighbourGnb    `yaml:"neighbours,omitempty"`
}

type GlobalGnbId struct {
	PlmnId PlmnId `yaml:"plmnId"`
	GnbId  uint32 `yaml:"gnbId"`
	// length of the gNB ID in bits, 22..32
	GnbIdLength uint8 `yaml:"gnbIdLength,omitempty"`
}

type SupportedTAItem struct {
	Tac               string              `yaml:"tac"`
	BroadcastPlmnList []BroadcastPlmnItem `yaml:"broadcastPlmnList"`
}

type BroadcastPlmnItem struct {
	PlmnId              PlmnId             `yaml:"plmnId"`
	TaiSliceSupportList []SliceSupportItem `yaml:"taiSliceSupportList"`
}

type PlmnId struct {
	Mcc string `yaml:"mcc"`
	Mnc string `yaml:"mnc"`
}

type SliceSupportItem struct {
	Snssai SnssaiItem `yaml:"snssai"`
}

type SnssaiItem struct {
	Sst int32  `yaml:"sst"`
	Sd  string `yaml:"sd,omitempty"`
}

type AmfSctpAddresses struct {
	IpAddresses []string `yaml:"ipList"`
	Port        int      `yaml:"port,omitempty"`
}

// CellInfo describes the single NR cell served by this node.
type CellInfo struct {
	Pci       uint16 `yaml:"pci"`
	CellId    uint64 `yaml:"cellId"`
	NofPrb    uint32 `yaml:"nofPrb"`
	Tac       string `yaml:"tac"`
	DlArfcn   uint32 `yaml:"dlArfcn,omitempty"`
	Bandwidth uint32 `yaml:"bandwidth,omitempty"`
}

// NeighbourGnb is the node serving a neighbour cell, used to address
// Handover Required.
type NeighbourGnb struct {
	Pci         uint16 `yaml:"pci"`
	GnbId       uint32 `yaml:"gnbId"`
	GnbIdLength uint8  `yaml:"gnbIdLength,omitempty"`
	CellId      uint64 `yaml:"cellId"`
	Tac         string `yaml:"tac"`
}
