// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/security"
	"github.com/omec-project/util/logger"
)

const (
	GNBRRC_EXPECTED_CONFIG_VERSION = "1.0.0"
)

type Config struct {
	Info          *Info          `yaml:"info"`
	Configuration *Configuration `yaml:"configuration"`
	Logger        *Logger        `yaml:"logger"`
}

type Info struct {
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type Logger struct {
	GNBRRC *logger.LogSetting `yaml:"gnbrrc"`
	NGAP   *logger.LogSetting `yaml:"ngap"`
	Aper   *logger.LogSetting `yaml:"aper"`
	Util   *logger.LogSetting `yaml:"util"`
}

type Configuration struct {
	GnbInfo            context.GnbNfInfo          `yaml:"gnbInformation"`
	AmfSctpAddresses   []context.AmfSctpAddresses `yaml:"amfSctpAddresses"`
	LocalSctpAddress   string                     `yaml:"localSctpAddress"`
	GtpBindAddress     string                     `yaml:"gtpBindAddress"`
	MetricsBindAddress string                     `yaml:"metricsBindAddress,omitempty"` // e.g. 0.0.0.0:9089
	Cell               context.CellInfo           `yaml:"cell"`
	Rrc                *RrcConfig                 `yaml:"rrc"`
}

type RrcConfig struct {
	InactivityTimeout  time.Duration  `yaml:"inactivityTimeout"`
	SweepInterval      time.Duration  `yaml:"sweepInterval,omitempty"`
	EventQueueLen      int            `yaml:"eventQueueLen,omitempty"`
	MaxUsers           int            `yaml:"maxUsers,omitempty"`
	Security           SecurityConfig `yaml:"security"`
	SchedulingRequest  PucchConfig    `yaml:"schedulingRequest"`
	Cqi                PucchConfig    `yaml:"cqi"`
	Qos                []QosConfig    `yaml:"qos"`
	Paging             PagingConfig   `yaml:"paging"`
	Sibs               []string       `yaml:"sibs"` // hex encoded
	SibRefreshInterval time.Duration  `yaml:"sibRefreshInterval,omitempty"`
	Mobility           MobilityConfig `yaml:"mobility"`
}

type SecurityConfig struct {
	CipheringPreference []string `yaml:"cipheringPreference"` // e.g. [nea2, nea1, nea0]
	IntegrityPreference []string `yaml:"integrityPreference"`
	AllowNullCiphering  bool     `yaml:"allowNullCiphering"`
	AllowNullIntegrity  bool     `yaml:"allowNullIntegrity"`
}

type PucchConfig struct {
	Period             []uint32 `yaml:"period"`
	NofPrb             uint32   `yaml:"nofPrb"`
	SfMapping          []uint32 `yaml:"sfMapping"`
	Capacity           uint32   `yaml:"capacity"`
	NPucchOffset       uint32   `yaml:"nPucchOffset,omitempty"`
	DsrTransMax        uint32   `yaml:"dsrTransMax,omitempty"`
	SimultaneousAckCqi bool     `yaml:"simultaneousAckCqi,omitempty"`
}

type QosConfig struct {
	FiveQi             int64  `yaml:"fiveQi"`
	RlcMode            string `yaml:"rlcMode"` // am or um
	PdcpDiscardTimer   uint32 `yaml:"pdcpDiscardTimer,omitempty"`
	Priority           uint8  `yaml:"priority"`
	PrioritisedBitRate uint32 `yaml:"prioritisedBitRate,omitempty"`
	BucketSizeDuration uint32 `yaml:"bucketSizeDuration,omitempty"`
}

type PagingConfig struct {
	DefaultPagingCycle uint32 `yaml:"defaultPagingCycle"`
	Nb                 uint32 `yaml:"nb"`
	MaxPendingRecords  int    `yaml:"maxPendingRecords,omitempty"`
}

type MobilityConfig struct {
	A3Offset         int           `yaml:"a3Offset"`
	ExecutionTimeout time.Duration `yaml:"executionTimeout,omitempty"`
	Neighbours       []uint16      `yaml:"neighbours"`
}

func (c *Config) getVersion() string {
	if c.Info != nil && c.Info.Version != "" {
		return c.Info.Version
	}
	return ""
}

// Validate checks the sections the RRC controller cannot start without.
func (c *Config) Validate() error {
	if c.Configuration == nil {
		return errors.New("no configuration section")
	}
	rrc := c.Configuration.Rrc
	if rrc == nil {
		return errors.New("no rrc section")
	}
	if len(rrc.SchedulingRequest.Period) == 0 || len(rrc.SchedulingRequest.SfMapping) == 0 {
		return errors.New("rrc.schedulingRequest: period and sfMapping are mandatory")
	}
	if len(rrc.Cqi.Period) == 0 || len(rrc.Cqi.SfMapping) == 0 {
		return errors.New("rrc.cqi: period and sfMapping are mandatory")
	}
	for _, name := range rrc.Security.CipheringPreference {
		if _, err := security.ParseCipheringAlgorithm(name); err != nil {
			return fmt.Errorf("rrc.security.cipheringPreference: %+v", err)
		}
	}
	for _, name := range rrc.Security.IntegrityPreference {
		if _, err := security.ParseIntegrityAlgorithm(name); err != nil {
			return fmt.Errorf("rrc.security.integrityPreference: %+v", err)
		}
	}
	for _, q := range rrc.Qos {
		if q.RlcMode != "am" && q.RlcMode != "um" {
			return fmt.Errorf("rrc.qos 5QI %d: rlcMode %q is not am or um", q.FiveQi, q.RlcMode)
		}
	}
	for i, sib := range rrc.Sibs {
		if _, err := hex.DecodeString(sib); err != nil {
			return fmt.Errorf("rrc.sibs[%d]: %+v", i, err)
		}
	}
	if p := rrc.Paging; p.DefaultPagingCycle != 0 && p.Nb == 0 {
		return errors.New("rrc.paging: nb is mandatory with defaultPagingCycle")
	}
	return nil
}
