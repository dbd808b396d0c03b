// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"fmt"
	"os"

	"github.com/omec-project/gnbrrc/logger"
	"gopkg.in/yaml.v2"
)

var GnbRrcConfig Config

func InitConfigFactory(f string) error {
	content, err := os.ReadFile(f)
	if err != nil {
		return err
	}

	GnbRrcConfig = Config{}
	if err = yaml.Unmarshal(content, &GnbRrcConfig); err != nil {
		return err
	}

	return GnbRrcConfig.Validate()
}

func CheckConfigVersion() error {
	currentVersion := GnbRrcConfig.getVersion()

	if currentVersion != GNBRRC_EXPECTED_CONFIG_VERSION {
		return fmt.Errorf("config version is [%s], but expected is [%s]",
			currentVersion, GNBRRC_EXPECTED_CONFIG_VERSION)
	}

	logger.CfgLog.Infof("config version [%s]", currentVersion)

	return nil
}
