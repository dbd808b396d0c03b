// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/omec-project/aper"
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/security"
	"github.com/omec-project/ngap/ngapType"
)

const (
	nrCellIdentityLen = 36
	defaultGnbIdLen   = 22
)

func PlmnIdToNgap(plmnId context.PlmnId) (ngapPlmnId ngapType.PLMNIdentity) {
	var hexString string
	mcc := strings.Split(plmnId.Mcc, "")
	mnc := strings.Split(plmnId.Mnc, "")
	if len(mcc) != 3 || len(mnc) < 2 || len(mnc) > 3 {
		logger.UtilLog.Errorf("malformed PLMN ID %s-%s", plmnId.Mcc, plmnId.Mnc)
		return
	}
	if len(plmnId.Mnc) == 2 {
		hexString = mcc[1] + mcc[0] + "f" + mcc[2] + mnc[1] + mnc[0]
	} else {
		hexString = mcc[1] + mcc[0] + mnc[0] + mcc[2] + mnc[2] + mnc[1]
	}
	var err error
	ngapPlmnId.Value, err = hex.DecodeString(hexString)
	if err != nil {
		logger.UtilLog.Errorf("decode string error: %+v", err)
	}
	return
}

// GnbIdToNgap left aligns the gNB ID in a bit string of bitLength bits,
// 22 when unset.
func GnbIdToNgap(gnbId uint32, bitLength uint8) (ngapGnbId *aper.BitString) {
	if bitLength < 22 || bitLength > 32 {
		bitLength = defaultGnbIdLen
	}
	ngapGnbId = new(aper.BitString)
	ngapGnbId.Bytes = make([]byte, 4)
	binary.BigEndian.PutUint32(ngapGnbId.Bytes, gnbId<<(32-bitLength))
	ngapGnbId.Bytes = ngapGnbId.Bytes[:(bitLength+7)/8]
	ngapGnbId.BitLength = uint64(bitLength)
	return
}

// NrCellIdToNgap encodes the 36 bit NR Cell Identity.
func NrCellIdToNgap(cellId uint64) aper.BitString {
	v := (cellId & (1<<nrCellIdentityLen - 1)) << 4
	b := make([]byte, 5)
	for i := range b {
		b[i] = byte(v >> (8 * (4 - i)))
	}
	return aper.BitString{Bytes: b, BitLength: nrCellIdentityLen}
}

func TacToNgap(tac string) ngapType.TAC {
	v, err := hex.DecodeString(tac)
	if err != nil || len(v) != 3 {
		logger.UtilLog.Errorf("malformed TAC %q", tac)
		return ngapType.TAC{Value: make([]byte, 3)}
	}
	return ngapType.TAC{Value: v}
}

func SNssaiToNgap(snssai context.SnssaiItem) ngapType.SNSSAI {
	s := ngapType.SNSSAI{SST: ngapType.SST{Value: []byte{byte(snssai.Sst)}}}
	if snssai.Sd != "" {
		sd, err := hex.DecodeString(snssai.Sd)
		if err != nil || len(sd) != 3 {
			logger.UtilLog.Errorf("malformed SD %q", snssai.Sd)
		} else {
			s.SD = &ngapType.SD{Value: sd}
		}
	}
	return s
}

// FiveGSTMSIToUint packs AMF Set ID, AMF Pointer and 5G-TMSI into the 48 bit
// value carried by RRC.
func FiveGSTMSIToUint(tmsi *ngapType.FiveGSTMSI) (uint64, error) {
	set := tmsi.AMFSetID.Value
	ptr := tmsi.AMFPointer.Value
	t := tmsi.FiveGTMSI.Value
	if len(set.Bytes) < 2 || len(ptr.Bytes) < 1 || len(t) != 4 {
		return 0, fmt.Errorf("malformed 5G-S-TMSI")
	}
	setId := uint64(binary.BigEndian.Uint16(set.Bytes[:2]) >> 6)
	pointer := uint64(ptr.Bytes[0] >> 2)
	return setId<<38 | pointer<<32 | uint64(binary.BigEndian.Uint32(t)), nil
}

// UintToFiveGSTMSI is the reverse of FiveGSTMSIToUint.
func UintToFiveGSTMSI(v uint64) *ngapType.FiveGSTMSI {
	setId := uint16(v>>38) & 0x3ff
	pointer := uint8(v>>32) & 0x3f
	tmsi := make([]byte, 4)
	binary.BigEndian.PutUint32(tmsi, uint32(v))
	set := make([]byte, 2)
	binary.BigEndian.PutUint16(set, setId<<6)
	return &ngapType.FiveGSTMSI{
		AMFSetID:   ngapType.AMFSetID{Value: aper.BitString{Bytes: set, BitLength: 10}},
		AMFPointer: ngapType.AMFPointer{Value: aper.BitString{Bytes: []byte{pointer << 2}, BitLength: 6}},
		FiveGTMSI:  ngapType.FiveGTMSI{Value: tmsi},
	}
}

// SecurityCapabilitiesFromNgap keeps the 16 bit NR algorithm bitmaps, where
// the first bit stands for 128-NEA1 and 128-NIA1.
func SecurityCapabilitiesFromNgap(caps *ngapType.UESecurityCapabilities) security.Capabilities {
	return security.Capabilities{
		Ciphering: bitmap16(caps.NRencryptionAlgorithms.Value),
		Integrity: bitmap16(caps.NRintegrityProtectionAlgorithms.Value),
	}
}

func bitmap16(b aper.BitString) uint16 {
	switch len(b.Bytes) {
	case 0:
		return 0
	case 1:
		return uint16(b.Bytes[0]) << 8
	default:
		return binary.BigEndian.Uint16(b.Bytes[:2])
	}
}

// SecurityKeyFromNgap returns the 256 bit K_gNB.
func SecurityKeyFromNgap(key *ngapType.SecurityKey) ([]byte, error) {
	if key.Value.BitLength != 256 || len(key.Value.Bytes) != 32 {
		return nil, fmt.Errorf("security key of %d bits", key.Value.BitLength)
	}
	return append([]byte(nil), key.Value.Bytes...), nil
}

// BitRateFromNgap converts a UE AMBR to bit/s.
func BitRateFromNgap(ambr *ngapType.UEAggregateMaximumBitRate) *context.Ambr {
	return &context.Ambr{
		Ul: uint64(ambr.UEAggregateMaximumBitRateUL.Value),
		Dl: uint64(ambr.UEAggregateMaximumBitRateDL.Value),
	}
}
