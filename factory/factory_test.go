// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
info:
  version: 1.0.0
  description: gNB RRC test configuration
configuration:
  gnbInformation:
    globalGnbId:
      plmnId:
        mcc: "208"
        mnc: "93"
      gnbId: 411
      gnbIdLength: 22
    name: gnb-1
    supportedTaList:
      - tac: "1"
        broadcastPlmnList:
          - plmnId:
              mcc: "208"
              mnc: "93"
            taiSliceSupportList:
              - snssai:
                  sst: 1
                  sd: "10203"
    neighbours:
      - pci: 7
        gnbId: 412
        cellId: 105473
        tac: "000001"
  amfSctpAddresses:
    - ipList:
        - 127.0.0.1
      port: 38412
  localSctpAddress: 127.0.0.1
  gtpBindAddress: 127.0.0.1
  metricsBindAddress: 0.0.0.0:9089
  cell:
    pci: 1
    cellId: 105217
    nofPrb: 25
    tac: "000001"
  rrc:
    inactivityTimeout: 30s
    sweepInterval: 1s
    maxUsers: 64
    security:
      cipheringPreference: [nea2, nea1, nea0]
      integrityPreference: [nia2, nia1]
      allowNullCiphering: true
    schedulingRequest:
      period: [10, 20]
      nofPrb: 1
      sfMapping: [0, 1, 2]
      capacity: 4
      dsrTransMax: 64
    cqi:
      period: [40]
      nofPrb: 1
      sfMapping: [0, 1]
      capacity: 4
      simultaneousAckCqi: true
    qos:
      - fiveQi: 9
        rlcMode: am
        priority: 11
      - fiveQi: 1
        rlcMode: um
        priority: 6
        pdcpDiscardTimer: 100
    paging:
      defaultPagingCycle: 128
      nb: 32
      maxPendingRecords: 16
    sibs:
      - "0a0b0c"
      - "0d"
    mobility:
      a3Offset: 3
      executionTimeout: 2s
      neighbours: [7]
logger:
  gnbrrc:
    debugLevel: debug
  ngap:
    debugLevel: info
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gnbrrc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInitConfigFactory(t *testing.T) {
	require.NoError(t, InitConfigFactory(writeConfig(t, testConfig)))
	require.NoError(t, CheckConfigVersion())

	cfg := GnbRrcConfig.Configuration
	require.NotNil(t, cfg)
	assert.Equal(t, "gnb-1", cfg.GnbInfo.RanNodeName)
	assert.Equal(t, uint32(411), cfg.GnbInfo.GlobalGnbId.GnbId)
	require.Len(t, cfg.GnbInfo.Neighbours, 1)
	assert.Equal(t, uint16(7), cfg.GnbInfo.Neighbours[0].Pci)
	assert.Equal(t, uint16(1), cfg.Cell.Pci)

	rrc := cfg.Rrc
	require.NotNil(t, rrc)
	assert.Equal(t, 30*time.Second, rrc.InactivityTimeout)
	assert.Equal(t, []uint32{10, 20}, rrc.SchedulingRequest.Period)
	assert.Equal(t, uint32(64), rrc.SchedulingRequest.DsrTransMax)
	assert.True(t, rrc.Cqi.SimultaneousAckCqi)
	assert.Equal(t, []string{"nea2", "nea1", "nea0"}, rrc.Security.CipheringPreference)
	require.Len(t, rrc.Qos, 2)
	assert.Equal(t, "um", rrc.Qos[1].RlcMode)
	assert.Equal(t, 2*time.Second, rrc.Mobility.ExecutionTimeout)

	require.NotNil(t, GnbRrcConfig.Logger)
	require.NotNil(t, GnbRrcConfig.Logger.GNBRRC)
	assert.Equal(t, "debug", GnbRrcConfig.Logger.GNBRRC.DebugLevel)
	assert.Nil(t, GnbRrcConfig.Logger.Util)
}

func TestCheckConfigVersion(t *testing.T) {
	GnbRrcConfig = Config{Info: &Info{Version: "0.9.0"}}
	assert.Error(t, CheckConfigVersion())
	GnbRrcConfig = Config{}
	assert.Error(t, CheckConfigVersion())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Configuration: &Configuration{Rrc: &RrcConfig{
			SchedulingRequest: PucchConfig{Period: []uint32{10}, SfMapping: []uint32{0}},
			Cqi:               PucchConfig{Period: []uint32{40}, SfMapping: []uint32{0}},
		}}}
	}
	require.NoError(t, valid().Validate())

	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no configuration", func(c *Config) { c.Configuration = nil }},
		{"no rrc", func(c *Config) { c.Configuration.Rrc = nil }},
		{"no SR period", func(c *Config) { c.Configuration.Rrc.SchedulingRequest.Period = nil }},
		{"no CQI mapping", func(c *Config) { c.Configuration.Rrc.Cqi.SfMapping = nil }},
		{"bad ciphering", func(c *Config) { c.Configuration.Rrc.Security.CipheringPreference = []string{"aes"} }},
		{"bad integrity", func(c *Config) { c.Configuration.Rrc.Security.IntegrityPreference = []string{"nia7"} }},
		{"bad rlc mode", func(c *Config) { c.Configuration.Rrc.Qos = []QosConfig{{FiveQi: 9, RlcMode: "tm"}} }},
		{"bad sib", func(c *Config) { c.Configuration.Rrc.Sibs = []string{"zz"} }},
		{"paging without nb", func(c *Config) { c.Configuration.Rrc.Paging.DefaultPagingCycle = 32 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestInitConfigFactoryErrors(t *testing.T) {
	assert.Error(t, InitConfigFactory(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, InitConfigFactory(writeConfig(t, "info: [")))
	assert.Error(t, InitConfigFactory(writeConfig(t, "info:\n  version: 1.0.0\n")))
}
