// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log         *zap.Logger
	AppLog      *zap.SugaredLogger
	InitLog     *zap.SugaredLogger
	CfgLog      *zap.SugaredLogger
	CtxLog      *zap.SugaredLogger
	RrcLog      *zap.SugaredLogger
	SecLog      *zap.SugaredLogger
	MobLog      *zap.SugaredLogger
	PucchLog    *zap.SugaredLogger
	PagingLog   *zap.SugaredLogger
	L2Log       *zap.SugaredLogger
	NgapLog     *zap.SugaredLogger
	GtpLog      *zap.SugaredLogger
	MetricsLog  *zap.SugaredLogger
	UtilLog     *zap.SugaredLogger
	atomicLevel zap.AtomicLevel
)

func init() {
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	config := zap.Config{
		Level:            atomicLevel,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	encCfg := &config.EncoderConfig
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.LevelKey = "level"
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = "caller"
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encCfg.MessageKey = "message"
	encCfg.StacktraceKey = ""

	var err error
	log, err = config.Build()
	if err != nil {
		panic(err)
	}

	AppLog = log.Sugar().With("component", "GNBRRC", "category", "App")
	InitLog = log.Sugar().With("component", "GNBRRC", "category", "Init")
	CfgLog = log.Sugar().With("component", "GNBRRC", "category", "CFG")
	CtxLog = log.Sugar().With("component", "GNBRRC", "category", "Context")
	RrcLog = log.Sugar().With("component", "GNBRRC", "category", "RRC")
	SecLog = log.Sugar().With("component", "GNBRRC", "category", "SEC")
	MobLog = log.Sugar().With("component", "GNBRRC", "category", "Mobility")
	PucchLog = log.Sugar().With("component", "GNBRRC", "category", "PUCCH")
	PagingLog = log.Sugar().With("component", "GNBRRC", "category", "Paging")
	L2Log = log.Sugar().With("component", "GNBRRC", "category", "L2")
	NgapLog = log.Sugar().With("component", "GNBRRC", "category", "NGAP")
	GtpLog = log.Sugar().With("component", "GNBRRC", "category", "GTP")
	MetricsLog = log.Sugar().With("component", "GNBRRC", "category", "Metrics")
	UtilLog = log.Sugar().With("component", "GNBRRC", "category", "Util")
}

// GetLogger returns the base zap.Logger
func GetLogger() *zap.Logger {
	return log
}

// SetLogLevel sets the log level (panic|fatal|error|warn|info|debug)
func SetLogLevel(level zapcore.Level) {
	InitLog.Infoln("set log level:", level)
	atomicLevel.SetLevel(level)
}
