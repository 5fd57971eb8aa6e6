package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertof/go-ble-monitor/ble"
	"github.com/robertof/go-ble-monitor/collector"
	"github.com/robertof/go-ble-monitor/collector/model"
	"github.com/robertof/go-ble-monitor/dispatch"
	"github.com/robertof/go-ble-monitor/metrics"
	"github.com/robertof/go-ble-monitor/session"
	"github.com/robertof/go-ble-monitor/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
  zerolog.DurationFieldUnit = time.Second
  zerolog.TimeFieldFormat = time.RFC3339Nano

  log.Logger = log.Output(zerolog.ConsoleWriter{
    Out: os.Stderr,
    TimeFormat: "15:04:05.000",
  })

  cfg := ParseArgs()

  if cfg.Trace || os.Getenv("TRACE") != "" {
      zerolog.SetGlobalLevel(zerolog.TraceLevel)
  } else if cfg.Debug || os.Getenv("DEBUG") != "" {
      zerolog.SetGlobalLevel(zerolog.DebugLevel)
  } else {
      zerolog.SetGlobalLevel(zerolog.InfoLevel)
  }

  registry, err := newRegistry(cfg.Units)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to register device families")
  }

  dispatcher := dispatch.New(registry)

  if cfg.DiscoverDevices {
    doDeviceDiscovery(cfg, dispatcher)
    return
  }

  log.Info().
    Str("BindAddr", cfg.BindAddress).
    Array("Devices", utils.ToZeroLogArray(cfg.Devices)).
    Strs("Families", registry.Families()).
    Int("BluetoothDeviceID", cfg.BluetoothDeviceId).
    Interface("Session", cfg.Session).
    Msg("Starting with the specified configuration")

  bleHandle := initBle(cfg)
  defer bleHandle.Stop()

  promRegistry := prometheus.NewRegistry()

  ble.RegisterMetrics(promRegistry)
  session.RegisterMetrics(promRegistry)

  coll := collector.New(session.New(cfg.Session, dispatcher), collector.Options{
    Workers: cfg.Workers,
    StaleAfter: cfg.StaleAfter,
  })

  metrics.RegisterCollector(
    func() map[string]model.Observation {
      return coll.Store().Latest()
    },
    cfg.deviceNames(),
    promRegistry,
  )

  ctx, cancel := context.WithCancel(context.Background())
  ctx = ble.WrapContextWithSigHandler(ctx, cancel)

  go func() {
    defer cancel()

    if err := coll.Run(ctx, bleHandle); err != nil {
      log.Error().Err(err).Msg("Collector stopped")
    }
  }()

  log.Info().
      Str("ListenAddress", cfg.BindAddress).
      Msg("Starting Prometheus server")

  http.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

  server := &http.Server{Addr: cfg.BindAddress}

  go func() {
    <-ctx.Done()
    server.Close()
  }()

  if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
      log.Fatal().Err(err).Msg("Unable to bind on requested address")
  }

  log.Info().Msg("Shutting down")
}

func initBle(cfg config) *ble.Handle {
  var bleFlags ble.Flags

  if cfg.ActiveScan {
    bleFlags |= ble.FlagScanTypeActive
  }

  // only restrict the adapter when the user told us which devices they care about.
  if len(cfg.Devices) > 0 && !cfg.Session.ReportUnknown {
    bleFlags |= ble.FlagEnableDeviceAllowList
  }

  bleHandle, err := ble.Init(cfg.BluetoothDeviceId, bleFlags)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
  }

  if bleFlags & ble.FlagEnableDeviceAllowList == 0 {
    return bleHandle
  }

  deviceAddresses := make([]net.HardwareAddr, len(cfg.Devices))

  for i, dev := range cfg.Devices {
    deviceAddresses[i] = dev.Addr
  }

  err = bleHandle.SetAllowListedAddresses(deviceAddresses)

  if err != nil {
    log.Error().Err(err).Msg("Failed to set device allow list")
  }

  return bleHandle
}
