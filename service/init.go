// SPDX-FileCopyrightText: 2024 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	aperLogger "github.com/omec-project/aper/logger"
	rrcContext "github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/factory"
	gtpService "github.com/omec-project/gnbrrc/gtp/service"
	"github.com/omec-project/gnbrrc/logger"
	"github.com/omec-project/gnbrrc/metrics"
	"github.com/omec-project/gnbrrc/ngap"
	ngapService "github.com/omec-project/gnbrrc/ngap/service"
	"github.com/omec-project/gnbrrc/rrc/codec"
	"github.com/omec-project/gnbrrc/rrc/lower"
	rrcService "github.com/omec-project/gnbrrc/rrc/service"
	"github.com/omec-project/gnbrrc/util"
	ngapLogger "github.com/omec-project/ngap/logger"
	utilLogger "github.com/omec-project/util/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GNBRRC main struct
type GNBRRC struct {
	rrcWg         sync.WaitGroup
	metricsServer *http.Server
}

// Config holds configuration file path
type Config struct {
	cfg string
}

var config Config

var gnbRrcCli = []cli.Flag{
	cli.StringFlag{
		Name:     "cfg",
		Usage:    "gNB RRC config file",
		Required: true,
	},
}

func (*GNBRRC) GetCliCmd() (flags []cli.Flag) {
	return gnbRrcCli
}

// Initialize loads config and sets log levels
func (g *GNBRRC) Initialize(c *cli.Context) error {
	config = Config{cfg: c.String("cfg")}
	absPath, err := filepath.Abs(config.cfg)
	if err != nil {
		logger.CfgLog.Errorln(err)
		return err
	}
	if err := factory.InitConfigFactory(absPath); err != nil {
		return err
	}
	if err := factory.CheckConfigVersion(); err != nil {
		return err
	}
	g.setLogLevel()
	return nil
}

// setLogLevel configures log levels for all modules
func (g *GNBRRC) setLogLevel() {
	cfgLogger := factory.GnbRrcConfig.Logger
	if cfgLogger == nil {
		logger.InitLog.Warnln("gNB RRC config without log level setting")
		return
	}
	setModuleLogLevel(cfgLogger.GNBRRC, logger.InitLog, logger.SetLogLevel, "GNBRRC")
	setModuleLogLevel(cfgLogger.NGAP, ngapLogger.NgapLog, ngapLogger.SetLogLevel, "NGAP")
	setModuleLogLevel(cfgLogger.Aper, aperLogger.AperLog, aperLogger.SetLogLevel, "Aper")
	setModuleLogLevel(cfgLogger.Util, utilLogger.UtilLog, utilLogger.SetLogLevel, "Util (idgenerator, etc.)")
}

// setModuleLogLevel is a helper to reduce repetition in log level setup
func setModuleLogLevel(moduleCfg *utilLogger.LogSetting, logObj *zap.SugaredLogger, setLevel func(zapcore.Level), moduleName string) {
	if moduleCfg == nil || moduleCfg.DebugLevel == "" {
		logObj.Warnf("%s Log level not set. Default set to [info] level", moduleName)
		setLevel(zap.InfoLevel)
		return
	}
	level, err := zapcore.ParseLevel(moduleCfg.DebugLevel)
	if err != nil {
		logObj.Warnf("%s Log level [%s] is invalid, set to [info] level", moduleName, moduleCfg.DebugLevel)
		setLevel(zap.InfoLevel)
		return
	}
	logObj.Infof("%s Log level is set to [%s] level", moduleName, level)
	setLevel(level)
}

// newLowerLayers attaches the in-process radio stack. Downlink SDUs are
// only logged since no radio is attached.
func newLowerLayers(rrcCtx *rrcContext.RRCContext) rrcContext.LowerLayers {
	sink := func(rnti uint16, lcid uint32, sdu []byte) {
		logger.L2Log.Debugf("RNTI 0x%x LCID %d: %d bytes downlink", rnti, lcid, len(sdu))
	}
	return rrcContext.LowerLayers{
		Mac:   lower.NewMac(),
		Rlc:   lower.NewRlc(sink),
		Pdcp:  lower.NewPdcp(sink),
		Gtpu:  gtpService.NewGtpu(rrcCtx),
		Core:  ngap.NewNotifier(rrcCtx.NgapServer),
		Codec: codec.New(),
	}
}

// Start launches all services and handles graceful shutdown
func (g *GNBRRC) Start() {
	logger.InitLog.Infoln("server started")
	var cancel context.CancelFunc
	rrcCtx := rrcContext.RRCSelf()
	rrcCtx.Ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	if !util.InitRrcContext() {
		logger.InitLog.Errorln("initializing context failed")
		return
	}

	rrcCtx.NgapServer = rrcContext.NewNgapServer()
	rrcCtx.Metrics = metrics.NewCollector(nil)
	if err := rrcCtx.Init(rrcCtx.Cfg, newLowerLayers(rrcCtx)); err != nil {
		logger.InitLog.Errorf("initializing RRC failed: %+v", err)
		return
	}

	rrcCtx.Wg.Add(1)
	go g.ListenShutdownEvent(rrcCtx)
	if err := rrcService.Run(rrcCtx, &g.rrcWg); err != nil {
		logger.InitLog.Errorf("start RRC service failed: %+v", err)
		return
	}
	logger.InitLog.Infoln("RRC service running")
	if err := gtpService.Run(rrcCtx, &rrcCtx.Wg); err != nil {
		logger.InitLog.Errorf("start GTP-U service failed: %+v", err)
		return
	}
	logger.InitLog.Infoln("GTP service running")
	if err := ngapService.Run(rrcCtx, &rrcCtx.Wg); err != nil {
		logger.InitLog.Errorf("start NGAP service failed: %+v", err)
		return
	}
	logger.InitLog.Infoln("NGAP service running")
	g.startMetricsServer(rrcCtx)
	logger.InitLog.Infoln("gNB RRC running")

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
	<-signalChannel
	cancel()
	g.WaitRoutineStopped(rrcCtx)
}

func (g *GNBRRC) startMetricsServer(rrcCtx *rrcContext.RRCContext) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	g.metricsServer = &http.Server{
		Addr:              rrcCtx.MetricsBindAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rrcCtx.Wg.Add(1)
	go func() {
		defer util.RecoverWithLog(logger.MetricsLog)
		defer rrcCtx.Wg.Done()
		logger.MetricsLog.Infof("metrics served on %s", rrcCtx.MetricsBindAddress)
		if err := g.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.MetricsLog.Errorf("metrics server: %+v", err)
		}
	}()
}

// ListenShutdownEvent waits for shutdown and stops services
func (g *GNBRRC) ListenShutdownEvent(rrcCtx *rrcContext.RRCContext) {
	defer util.RecoverWithLog(logger.InitLog)
	defer rrcCtx.Wg.Done()
	<-rrcCtx.Ctx.Done()
	g.stopServiceConn(rrcCtx)
}

// WaitRoutineStopped waits for all goroutines and terminates
func (g *GNBRRC) WaitRoutineStopped(rrcCtx *rrcContext.RRCContext) {
	rrcCtx.Wg.Wait()
	time.Sleep(2 * time.Second)
	os.Exit(0)
}

// stopServiceConn releases every UE, then closes the interfaces the
// releases were reported on.
func (g *GNBRRC) stopServiceConn(rrcCtx *rrcContext.RRCContext) {
	logger.InitLog.Infoln("stopping service created by gNB RRC")
	rrcCtx.Stop()
	g.rrcWg.Wait()
	ngapService.Stop(rrcCtx)
	gtpService.Stop(rrcCtx)
	if g.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := g.metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.MetricsLog.Errorf("stop metrics server error: %+v", err)
		}
	}
}
