// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/service"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var GNBRRC = &service.GNBRRC{}

var appLog *zap.SugaredLogger

func init() {
	appLog = logger.AppLog
}

func main() {
	app := cli.NewApp()
	app.Name = "gnbrrc"
	appLog.Infoln(app.Name)
	app.Usage = "-cfg gNB RRC configuration file"
	app.Action = action
	app.Flags = GNBRRC.GetCliCmd()
	if err := app.Run(os.Args); err != nil {
		appLog.Errorf("gNB RRC run Error: %v", err)
	}
}

func action(c *cli.Context) error {
	if err := GNBRRC.Initialize(c); err != nil {
		logger.CfgLog.Errorf("%+v", err)
		return fmt.Errorf("failed to initialize")
	}

	GNBRRC.Start()

	return nil
}
