// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"encoding/hex"
	"fmt"
	"math"
	"net"
	"strings"

	"github.com/ishidawataru/sctp"
	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/factory"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/security"
)

const (
	ngap_sctp_port       int   = 38412
	requiredTacLength    int   = 6
	requiredSdLength     int   = 6
	defaultGnbIdLength   uint8 = 22
	defaultMetricsListen       = "0.0.0.0:9089"
)

// InitRrcContext fills the process wide context from the loaded
// configuration. The RRC configuration is left in Cfg for Init.
func InitRrcContext() bool {
	gnbCfg := factory.GnbRrcConfig.Configuration
	if gnbCfg == nil {
		logger.CtxLog.Errorln("no gNB RRC configuration found")
		return false
	}

	n := context.RRCSelf()

	// gNB NF information
	n.NfInfo = gnbCfg.GnbInfo
	if !formatGlobalGnbId(&n.NfInfo.GlobalGnbId) {
		return false
	}
	if !formatSupportedTAList(&n.NfInfo) {
		return false
	}

	// AMF SCTP addresses
	if len(gnbCfg.AmfSctpAddresses) == 0 {
		logger.CtxLog.Errorln("no AMF specified")
		return false
	}
	for _, amfAddress := range gnbCfg.AmfSctpAddresses {
		amfSCTPAddr := new(sctp.SCTPAddr)
		for _, ipAddrStr := range amfAddress.IpAddresses {
			ipAddr, err := net.ResolveIPAddr("ip", ipAddrStr)
			if err != nil {
				logger.CtxLog.Errorf("resolve AMF IP address failed: %+v", err)
				return false
			}
			amfSCTPAddr.IPAddrs = append(amfSCTPAddr.IPAddrs, *ipAddr)
		}
		amfSCTPAddr.Port = amfAddress.Port
		if amfAddress.Port == 0 {
			amfSCTPAddr.Port = ngap_sctp_port
		}
		n.AmfSctpAddresses = append(n.AmfSctpAddresses, amfSCTPAddr)
	}

	// Local SCTP address
	if !checkEmpty(gnbCfg.LocalSctpAddress, "local SCTP bind address is empty") {
		return false
	}
	localSCTPAddr := new(sctp.SCTPAddr)
	ipAddr, err := net.ResolveIPAddr("ip", gnbCfg.LocalSctpAddress)
	if err != nil {
		logger.CtxLog.Errorf("resolve local IP address for N2 failed: %+v", err)
		return false
	}
	localSCTPAddr.IPAddrs = append(localSCTPAddr.IPAddrs, *ipAddr)
	localSCTPAddr.Port = ngap_sctp_port
	n.LocalSctpAddress = localSCTPAddr

	// GTP bind address
	if !checkEmpty(gnbCfg.GtpBindAddress, "GTP bind address is empty") {
		return false
	}
	n.GtpBindAddress = gnbCfg.GtpBindAddress

	n.MetricsBindAddress = gnbCfg.MetricsBindAddress
	if n.MetricsBindAddress == "" {
		n.MetricsBindAddress = defaultMetricsListen
		logger.CtxLog.Warnln("metrics bind address is empty, set to default", n.MetricsBindAddress)
	}

	// Served cell
	cell := gnbCfg.Cell
	tac, ok := formatTac(cell.Tac)
	if !ok {
		return false
	}
	cell.Tac = tac
	for i := range n.NfInfo.Neighbours {
		tac, ok := formatTac(n.NfInfo.Neighbours[i].Tac)
		if !ok {
			return false
		}
		n.NfInfo.Neighbours[i].Tac = tac
		if n.NfInfo.Neighbours[i].GnbIdLength == 0 {
			n.NfInfo.Neighbours[i].GnbIdLength = n.NfInfo.GlobalGnbId.GnbIdLength
		}
	}

	rrcCfg, err := RrcCfgFromConfig(gnbCfg.Rrc, cell, n.NfInfo.Neighbours)
	if err != nil {
		logger.CtxLog.Errorf("RRC configuration: %+v", err)
		return false
	}
	n.Cfg = rrcCfg

	return true
}

// RrcCfgFromConfig converts the rrc section into the runtime configuration
// of the controller.
func RrcCfgFromConfig(rrc *factory.RrcConfig, cell context.CellInfo, neighbours []context.NeighbourGnb,
) (context.RrcCfg, error) {
	if rrc == nil {
		return context.RrcCfg{}, fmt.Errorf("no rrc section")
	}
	cfg := context.RrcCfg{
		Cell:               cell,
		InactivityTimeout:  rrc.InactivityTimeout,
		SweepInterval:      rrc.SweepInterval,
		EventQueueLen:      rrc.EventQueueLen,
		MaxUsers:           rrc.MaxUsers,
		Sr:                 pucchCfg(rrc.SchedulingRequest),
		Cqi:                pucchCfg(rrc.Cqi),
		Qos:                make(map[int64]context.QosClass, len(rrc.Qos)),
		SibRefreshInterval: rrc.SibRefreshInterval,
		Paging: context.PagingCfg{
			DefaultPagingCycle: rrc.Paging.DefaultPagingCycle,
			Nb:                 rrc.Paging.Nb,
			MaxPendingRecords:  rrc.Paging.MaxPendingRecords,
		},
		Mobility: context.MobilityCfg{
			A3Offset:         rrc.Mobility.A3Offset,
			ExecutionTimeout: rrc.Mobility.ExecutionTimeout,
			Neighbours:       rrc.Mobility.Neighbours,
		},
	}
	if cfg.Paging.DefaultPagingCycle == 0 {
		cfg.Paging.DefaultPagingCycle = context.DefaultPagingCycle
		cfg.Paging.Nb = context.DefaultPagingCycle
	}
	if cfg.Paging.MaxPendingRecords == 0 {
		cfg.Paging.MaxPendingRecords = context.DefaultMaxPagingRecords
	}
	if len(cfg.Mobility.Neighbours) == 0 {
		for _, nb := range neighbours {
			cfg.Mobility.Neighbours = append(cfg.Mobility.Neighbours, nb.Pci)
		}
	}

	pref := security.Preferences{
		AllowNullCiphering: rrc.Security.AllowNullCiphering,
		AllowNullIntegrity: rrc.Security.AllowNullIntegrity,
	}
	for _, name := range rrc.Security.CipheringPreference {
		alg, err := security.ParseCipheringAlgorithm(name)
		if err != nil {
			return context.RrcCfg{}, err
		}
		pref.Ciphering = append(pref.Ciphering, alg)
	}
	for _, name := range rrc.Security.IntegrityPreference {
		alg, err := security.ParseIntegrityAlgorithm(name)
		if err != nil {
			return context.RrcCfg{}, err
		}
		pref.Integrity = append(pref.Integrity, alg)
	}
	if len(pref.Ciphering) == 0 {
		pref.Ciphering = []security.CipheringAlgorithm{security.NEA2, security.NEA1}
		logger.CtxLog.Warnln("no ciphering preference, set to default", pref.Ciphering)
	}
	if len(pref.Integrity) == 0 {
		pref.Integrity = []security.IntegrityAlgorithm{security.NIA2, security.NIA1}
		logger.CtxLog.Warnln("no integrity preference, set to default", pref.Integrity)
	}
	cfg.Security = pref

	for _, q := range rrc.Qos {
		var mode message.RlcMode
		switch strings.ToLower(q.RlcMode) {
		case "am":
			mode = message.RlcAm
		case "um":
			mode = message.RlcUmBidirectional
		default:
			return context.RrcCfg{}, fmt.Errorf("5QI %d: unknown RLC mode %q", q.FiveQi, q.RlcMode)
		}
		cfg.Qos[q.FiveQi] = context.QosClass{
			FiveQi:             q.FiveQi,
			RlcMode:            mode,
			PdcpDiscardTimer:   q.PdcpDiscardTimer,
			Priority:           q.Priority,
			PrioritisedBitRate: q.PrioritisedBitRate,
			BucketSizeDuration: q.BucketSizeDuration,
		}
	}

	for i, sib := range rrc.Sibs {
		payload, err := hex.DecodeString(sib)
		if err != nil {
			return context.RrcCfg{}, fmt.Errorf("SIB %d: %+v", i, err)
		}
		cfg.Sibs = append(cfg.Sibs, payload)
	}
	return cfg, nil
}

func pucchCfg(c factory.PucchConfig) context.PucchCfg {
	return context.PucchCfg{
		Periods:            c.Period,
		NofPrb:             c.NofPrb,
		SfMapping:          c.SfMapping,
		Capacity:           c.Capacity,
		NPucchOffset:       c.NPucchOffset,
		DsrTransMax:        c.DsrTransMax,
		SimultaneousAckCqi: c.SimultaneousAckCqi,
	}
}

// Helper to check empty string config
func checkEmpty(val, msg string) bool {
	if val == "" {
		logger.CtxLog.Errorln(msg)
		return false
	}
	return true
}

func formatGlobalGnbId(id *context.GlobalGnbId) bool {
	if id.GnbIdLength == 0 {
		id.GnbIdLength = defaultGnbIdLength
		logger.CtxLog.Warnln("gNB ID length is not defined, set to default value", id.GnbIdLength)
	}
	if id.GnbIdLength < 22 || id.GnbIdLength > 32 {
		logger.CtxLog.Errorf("gNB ID length %d out of range [22, 32]", id.GnbIdLength)
		return false
	}
	if id.GnbIdLength < 32 && id.GnbId >= 1<<id.GnbIdLength {
		logger.CtxLog.Errorf("gNB ID 0x%x does not fit in %d bits", id.GnbId, id.GnbIdLength)
		return false
	}
	return true
}

func formatTac(tac string) (string, bool) {
	tacLength := len(tac)
	switch {
	case tacLength == 0:
		logger.CtxLog.Errorln("tac is mandatory")
		return "", false
	case tacLength < requiredTacLength:
		logger.CtxLog.Debugf("detected configuration Tac length < %d", requiredTacLength)
		tac = strings.Repeat("0", requiredTacLength-tacLength) + tac
		logger.CtxLog.Debugf("changed to %s", tac)
	case tacLength > requiredTacLength:
		logger.CtxLog.Errorf("detected configuration Tac length > %d", requiredTacLength)
		return "", false
	}
	return tac, true
}

func formatSupportedTAList(info *context.GnbNfInfo) bool {
	for taListIndex := range info.SupportedTaList {
		supportedTAItem := &info.SupportedTaList[taListIndex]

		tac, ok := formatTac(supportedTAItem.Tac)
		if !ok {
			return false
		}
		supportedTAItem.Tac = tac

		// Checking Sst and Sd
		for plmnListIndex := range supportedTAItem.BroadcastPlmnList {
			broadcastPLMNItem := &supportedTAItem.BroadcastPlmnList[plmnListIndex]

			for sliceListIndex := range broadcastPLMNItem.TaiSliceSupportList {
				sliceSupportItem := &broadcastPLMNItem.TaiSliceSupportList[sliceListIndex]

				// Sst
				sst := sliceSupportItem.Snssai.Sst
				if sst == 0 {
					logger.CtxLog.Errorln("sst is mandatory")
					return false
				}

				if sst > math.MaxUint8 {
					logger.CtxLog.Errorf("detect configuration sst length > %d", sst)
					return false
				}

				// Sd
				if sliceSupportItem.Snssai.Sd == "" {
					logger.CtxLog.Infoln("Snssai does not include sd")
					continue
				}
				sdLength := len(sliceSupportItem.Snssai.Sd)
				if sdLength > requiredSdLength {
					logger.CtxLog.Errorf("detected configuration sd length > %d", requiredSdLength)
					return false
				}
				if sdLength < requiredSdLength {
					logger.CtxLog.Debugf("detected configuration sd length < %d", requiredSdLength)
					sliceSupportItem.Snssai.Sd = strings.Repeat("0", 6-sdLength) + sliceSupportItem.Snssai.Sd
					logger.CtxLog.Debugf("change to %s", sliceSupportItem.Snssai.Sd)
				}
			}
		}
	}

	return true
}
