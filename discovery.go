package main

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"

	"github.com/robertof/go-ble-monitor/ble"
	"github.com/robertof/go-ble-monitor/device"
	"github.com/robertof/go-ble-monitor/dispatch"
)

type deviceInfo struct {
  name string
  connectable bool
  services map[string]bool
  family string
  reading string
  manufacturerData []byte
}

// discoveryLog accumulates what is known about every device seen during discovery.
type discoveryLog struct {
  dispatcher *dispatch.Dispatcher
  cfg device.SessionConfig
  devices map[string]*deviceInfo
}

func newDiscoveryLog(d *dispatch.Dispatcher, cfg device.SessionConfig) *discoveryLog {
  return &discoveryLog{
    dispatcher: d,
    cfg: cfg,
    devices: make(map[string]*deviceInfo),
  }
}

func (l *discoveryLog) observe(a ble.Advertisement) {
  if a.Addr() == nil {
    return
  }

  addr := a.Addr().String()
  info, ok := l.devices[addr]

  if !ok {
    info = &deviceInfo{services: make(map[string]bool)}
    l.devices[addr] = info
  }

  // merge
  if info.name == "" {
    info.name = a.LocalName()
  }

  info.connectable = a.Connectable()

  for _, uuid := range a.Services() {
    info.services[uuid.String()] = true
  }

  if md := a.ManufacturerData(); len(md) > 0 {
    info.manufacturerData = append([]byte(nil), md...)
  }

  if adv, err := ble.ToDevice(a); err == nil {
    if r, ok := l.dispatcher.Parse(l.cfg, adv); ok {
      info.family = r.Type
      info.reading = r.String()
    }
  }

  log.Debug().
    Str("Addr", addr).
    Str("Name", a.LocalName()).
    Bool("Connectable", a.Connectable()).
    Strs("Services", maps.Keys(info.services)).
    Hex("ManufacturerData", a.ManufacturerData()).
    Msg("Received device advertisement")
}

func (l *discoveryLog) report() {
  log.Info().Int("Found", len(l.devices)).Msg("Finished device discovery")

  addrs := maps.Keys(l.devices)
  sort.Strings(addrs)

  for _, addr := range addrs {
    info := l.devices[addr]
    services := maps.Keys(info.services)
    sort.Strings(services)

    ev := log.Info().
      Str("Addr", addr).
      Str("Name", info.name).
      Bool("Connectable", info.connectable).
      Strs("Services", services)

    if info.family != "" {
      ev = ev.Str("Family", info.family).Str("Reading", info.reading)
    } else {
      ev = ev.Hex("ManufacturerData", info.manufacturerData)
    }

    ev.Msg("Found device")
  }
}

func doDeviceDiscovery(cfg config, d *dispatch.Dispatcher) {
  log.Info().
    Dur("Duration", cfg.DiscoveryDuration).
    Msg("Starting in device discovery mode")

  handle, err := ble.Init(cfg.BluetoothDeviceId, ble.FlagScanTypeActive)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
  }

  defer handle.Stop()

  ctx := ble.WrapContextWithSigHandler(
    context.WithTimeout(
      context.Background(),
      cfg.DiscoveryDuration,
    ),
  )

  // go-ble invokes the handler from a single goroutine
  dl := newDiscoveryLog(d, cfg.Session)

  err = handle.ScanAll(ctx, dl.observe)

  if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
    log.Fatal().Err(err).Msg("Failed to initiate scan")
  }

  dl.report()
}
