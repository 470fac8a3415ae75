// Package main runs the Vocap interactive shell against local storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/atinyakov/Vocap/internal/client/device"
	"github.com/atinyakov/Vocap/internal/client/shell"
	"github.com/atinyakov/Vocap/internal/client/storage"
	"github.com/atinyakov/Vocap/internal/logger"
	"github.com/atinyakov/Vocap/internal/models"
	"github.com/atinyakov/Vocap/internal/service"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

func main() {
	var (
		dataDir  string
		logLevel string
		showVer  bool
	)

	flag.StringVar(&dataDir, "data", "vocap-data", "directory for state and captures")
	flag.StringVar(&logLevel, "log", "error", "log level")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Vocap Client\nVersion: %s\nBuild Date: %s\n", or(version, "N/A"), or(buildDate, "N/A"))
		return
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		zapLogger.Fatal("cannot create data directory", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ls := storage.NewLocalStorage(filepath.Join(dataDir, storage.DefaultFile), zapLogger.Named("storage"))
	if err := ls.Load(); err != nil {
		zapLogger.Fatal("cannot load local state", zap.Error(err))
	}

	usage := service.NewUsageCounter(ls, time.Now, zapLogger.Named("usage"))
	entitlements := service.NewEntitlementStore(ls, zapLogger.Named("entitlement"))
	admission := service.NewAdmissionController(entitlements, usage, models.FreeLimits)
	billing := service.NewLocalBillingProvider(entitlements, service.DefaultPurchaseLatency, time.Now)
	memos := service.NewMemoService(ls, zapLogger.Named("memos"))
	if err := memos.Load(ctx); err != nil {
		zapLogger.Fatal("cannot load memos", zap.Error(err))
	}
	recorder := device.NewDictationRecorder(filepath.Join(dataDir, "captures"), time.Now)

	sh := &shell.Shell{
		Flow: service.NewRecordingFlow(admission, usage, entitlements, memos, recorder,
			device.TextTranscriber{}, time.Now, zapLogger.Named("recording")),
		Dictation:    recorder,
		Admission:    admission,
		Usage:        usage,
		Entitlements: entitlements,
		Subscription: service.NewSubscriptionService(billing, entitlements, 30*time.Second, zapLogger.Named("billing")),
		Memos:        memos,
		Preferences:  service.NewPreferences(ls, zapLogger.Named("preferences")),
		Wiper:        service.NewDataWiper(ls, memos, zapLogger),
	}
	sh.Run(ctx, os.Stdin, os.Stdout)
}

// or returns v if non-empty, otherwise def (equivalent to cmp.Or for two strings).
func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
