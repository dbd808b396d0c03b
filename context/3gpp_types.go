// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

const (
	MaxValueOfRanUeNgapID int64 = 4294967295
	MaxNumOfPDUSessions   int   = 256
	MaxNofDrbs            int   = 8
	MaxNofRnti            int   = 0xffff
)

// Logical channels of the signalling radio bearers, TS 38.321 Table 6.2.1-1.
const (
	LcidSrb0 uint32 = 0
	LcidSrb1 uint32 = 1
	LcidSrb2 uint32 = 2
	// DRB n is carried on LCID n+3
	DrbLcidOffset uint32 = 3
)

// Reserved LCIDs marking control events on the RRC work channel. They never
// collide with a logical channel of the air interface.
const (
	LcidExit      uint32 = 0xffff0000
	LcidRemUser   uint32 = 0xffff0001
	LcidRelUser   uint32 = 0xffff0002
	LcidRlfUser   uint32 = 0xffff0003
	LcidActUser   uint32 = 0xffff0004
	LcidHoTimeout uint32 = 0xffff0005
)

func IsControlLcid(lcid uint32) bool {
	return lcid >= LcidExit
}

// RRC transaction identifiers are two bits wide, TS 38.331.
const MaxTransactionId uint8 = 3
