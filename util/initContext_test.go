// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"testing"
	"time"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/factory"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRrcConfig() *factory.RrcConfig {
	return &factory.RrcConfig{
		InactivityTimeout: 10 * time.Second,
		MaxUsers:          8,
		Security: factory.SecurityConfig{
			CipheringPreference: []string{"NEA2", "nea0"},
			IntegrityPreference: []string{"nia2"},
			AllowNullCiphering:  true,
		},
		SchedulingRequest: factory.PucchConfig{
			Period: []uint32{10}, NofPrb: 1, SfMapping: []uint32{0, 1}, Capacity: 2, DsrTransMax: 64,
		},
		Cqi: factory.PucchConfig{Period: []uint32{40}, NofPrb: 1, SfMapping: []uint32{0}, Capacity: 2},
		Qos: []factory.QosConfig{
			{FiveQi: 9, RlcMode: "am", Priority: 11},
			{FiveQi: 1, RlcMode: "UM", Priority: 6, PdcpDiscardTimer: 100},
		},
		Sibs: []string{"0a0b", "0c"},
	}
}

func TestRrcCfgFromConfig(t *testing.T) {
	cell := context.CellInfo{Pci: 1, CellId: 0x19b01, Tac: "000001"}
	neighbours := []context.NeighbourGnb{{Pci: 7}, {Pci: 9}}

	cfg, err := RrcCfgFromConfig(testRrcConfig(), cell, neighbours)
	require.NoError(t, err)

	assert.Equal(t, cell, cfg.Cell)
	assert.Equal(t, 10*time.Second, cfg.InactivityTimeout)
	assert.Equal(t, 8, cfg.MaxUsers)
	assert.Equal(t, []security.CipheringAlgorithm{security.NEA2, security.NEA0}, cfg.Security.Ciphering)
	assert.Equal(t, []security.IntegrityAlgorithm{security.NIA2}, cfg.Security.Integrity)
	assert.True(t, cfg.Security.AllowNullCiphering)
	assert.Equal(t, []uint32{10}, cfg.Sr.Periods)
	assert.Equal(t, uint32(64), cfg.Sr.DsrTransMax)
	assert.Equal(t, message.RlcAm, cfg.Qos[9].RlcMode)
	assert.Equal(t, message.RlcUmBidirectional, cfg.Qos[1].RlcMode)
	assert.Equal(t, uint32(100), cfg.Qos[1].PdcpDiscardTimer)
	assert.Equal(t, [][]byte{{0x0a, 0x0b}, {0x0c}}, cfg.Sibs)
	assert.Equal(t, []uint16{7, 9}, cfg.Mobility.Neighbours)
	assert.Equal(t, uint32(context.DefaultPagingCycle), cfg.Paging.DefaultPagingCycle)
	assert.Equal(t, context.DefaultMaxPagingRecords, cfg.Paging.MaxPendingRecords)

	_, err = context.NewRRCContext(cfg, context.LowerLayers{})
	assert.NoError(t, err)
}

func TestRrcCfgFromConfigDefaults(t *testing.T) {
	rrc := testRrcConfig()
	rrc.Security = factory.SecurityConfig{}
	rrc.Mobility.Neighbours = []uint16{3}

	cfg, err := RrcCfgFromConfig(rrc, context.CellInfo{}, []context.NeighbourGnb{{Pci: 7}})
	require.NoError(t, err)
	assert.Equal(t, []security.CipheringAlgorithm{security.NEA2, security.NEA1}, cfg.Security.Ciphering)
	assert.False(t, cfg.Security.AllowNullIntegrity)
	assert.Equal(t, []uint16{3}, cfg.Mobility.Neighbours)
}

func TestRrcCfgFromConfigErrors(t *testing.T) {
	_, err := RrcCfgFromConfig(nil, context.CellInfo{}, nil)
	assert.Error(t, err)

	rrc := testRrcConfig()
	rrc.Qos[0].RlcMode = "tm"
	_, err = RrcCfgFromConfig(rrc, context.CellInfo{}, nil)
	assert.Error(t, err)

	rrc = testRrcConfig()
	rrc.Sibs = []string{"xyz"}
	_, err = RrcCfgFromConfig(rrc, context.CellInfo{}, nil)
	assert.Error(t, err)

	rrc = testRrcConfig()
	rrc.Security.IntegrityPreference = []string{"eia2"}
	_, err = RrcCfgFromConfig(rrc, context.CellInfo{}, nil)
	assert.Error(t, err)
}

func TestFormatTac(t *testing.T) {
	tac, ok := formatTac("1")
	require.True(t, ok)
	assert.Equal(t, "000001", tac)
	_, ok = formatTac("")
	assert.False(t, ok)
	_, ok = formatTac("1234567")
	assert.False(t, ok)
}

func TestFormatGlobalGnbId(t *testing.T) {
	id := context.GlobalGnbId{GnbId: 0x19b}
	require.True(t, formatGlobalGnbId(&id))
	assert.Equal(t, uint8(22), id.GnbIdLength)

	assert.False(t, formatGlobalGnbId(&context.GlobalGnbId{GnbId: 1 << 22, GnbIdLength: 22}))
	assert.False(t, formatGlobalGnbId(&context.GlobalGnbId{GnbId: 1, GnbIdLength: 40}))
	assert.True(t, formatGlobalGnbId(&context.GlobalGnbId{GnbId: 0xffffffff, GnbIdLength: 32}))
}

func TestInitRrcContext(t *testing.T) {
	factory.GnbRrcConfig = factory.Config{Configuration: &factory.Configuration{
		GnbInfo: context.GnbNfInfo{
			GlobalGnbId: context.GlobalGnbId{PlmnId: context.PlmnId{Mcc: "208", Mnc: "93"}, GnbId: 0x19b},
			SupportedTaList: []context.SupportedTAItem{{
				Tac: "1",
				BroadcastPlmnList: []context.BroadcastPlmnItem{{
					PlmnId:              context.PlmnId{Mcc: "208", Mnc: "93"},
					TaiSliceSupportList: []context.SliceSupportItem{{Snssai: context.SnssaiItem{Sst: 1, Sd: "1"}}},
				}},
			}},
			Neighbours: []context.NeighbourGnb{{Pci: 7, GnbId: 0x19c, CellId: 0x19c01, Tac: "1"}},
		},
		AmfSctpAddresses: []context.AmfSctpAddresses{{IpAddresses: []string{"127.0.0.1"}}},
		LocalSctpAddress: "127.0.0.1",
		GtpBindAddress:   "127.0.0.1",
		Cell:             context.CellInfo{Pci: 1, CellId: 0x19b01, Tac: "1"},
		Rrc:              testRrcConfig(),
	}}
	defer func() { factory.GnbRrcConfig = factory.Config{} }()

	require.True(t, InitRrcContext())
	n := context.RRCSelf()
	require.NotEmpty(t, n.AmfSctpAddresses)
	assert.Equal(t, ngap_sctp_port, n.AmfSctpAddresses[len(n.AmfSctpAddresses)-1].Port)
	assert.Equal(t, "127.0.0.1", n.GtpBindAddress)
	assert.Equal(t, defaultMetricsListen, n.MetricsBindAddress)
	assert.Equal(t, "000001", n.NfInfo.SupportedTaList[0].Tac)
	assert.Equal(t, "000001", n.NfInfo.SupportedTaList[0].BroadcastPlmnList[0].TaiSliceSupportList[0].Snssai.Sd)
	assert.Equal(t, "000001", n.NfInfo.Neighbours[0].Tac)
	assert.Equal(t, uint8(22), n.NfInfo.Neighbours[0].GnbIdLength)
	assert.Equal(t, "000001", n.Cfg.Cell.Tac)
	assert.Equal(t, []uint16{7}, n.Cfg.Mobility.Neighbours)
}

func TestInitRrcContextMissing(t *testing.T) {
	factory.GnbRrcConfig = factory.Config{}
	assert.False(t, InitRrcContext())

	factory.GnbRrcConfig = factory.Config{Configuration: &factory.Configuration{}}
	defer func() { factory.GnbRrcConfig = factory.Config{} }()
	assert.False(t, InitRrcContext())
}
