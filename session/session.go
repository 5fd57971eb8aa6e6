// Package session applies the per-session policies that sit around decoding: duplicate
// filtering and reporting of devices nobody can decode.
package session

import (
  "bytes"
  "errors"
  "sync"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/rs/zerolog/log"

  "github.com/robertof/go-ble-monitor/device"
  "github.com/robertof/go-ble-monitor/dispatch"
  "github.com/robertof/go-ble-monitor/utils"
)

type Outcome string

const (
  OutcomeDecoded Outcome = "decoded"
  OutcomeDuplicate Outcome = "duplicate"
  OutcomeUnknown Outcome = "unknown"
  OutcomeMalformed Outcome = "malformed"
  OutcomeUnsupported Outcome = "unsupported"
  OutcomeCorrupted Outcome = "corrupted"
)

var advertisementsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
  Name: "ble_monitor_advertisements_total",
  Help: "Advertisements processed, by outcome.",
}, []string{"outcome"})

func RegisterMetrics(reg prometheus.Registerer) {
  reg.MustRegister(advertisementsCounter)
}

type lastSeen struct {
  packet byte
  data []byte
}

// Session owns the mutable state of a scanning session. It is safe for concurrent use.
type Session struct {
  cfg device.SessionConfig
  dispatcher *dispatch.Dispatcher

  mu sync.Mutex
  last map[string]lastSeen
  reported map[string]bool
}

func New(cfg device.SessionConfig, d *dispatch.Dispatcher) *Session {
  return &Session{
    cfg: cfg,
    dispatcher: d,
    last: make(map[string]lastSeen),
    reported: make(map[string]bool),
  }
}

func (s *Session) Config() device.SessionConfig {
  return s.cfg
}

// Process decodes adv and applies the session policies. The boolean is false when nothing
// should be published for this advertisement.
func (s *Session) Process(adv device.Advertisement) (device.Reading, Outcome, bool) {
  r, err := s.dispatcher.Decode(s.cfg, adv)
  outcome := classify(err)

  switch {
  case err != nil:
    s.reportUnknown(adv, err)
  case s.isDuplicate(r, adv.Data):
    outcome = OutcomeDuplicate
  }

  advertisementsCounter.WithLabelValues(string(outcome)).Inc()

  if outcome != OutcomeDecoded {
    return device.Reading{}, outcome, false
  }

  return r, outcome, true
}

func classify(err error) Outcome {
  switch {
  case err == nil:
    return OutcomeDecoded
  case errors.Is(err, dispatch.ErrNoDecoder):
    return OutcomeUnknown
  case utils.ErrorIsAnyOf(err, device.ErrCorruptedData, dispatch.ErrDecoderPanic):
    return OutcomeCorrupted
  case utils.ErrorIsAnyOf(err, device.ErrUnknownUnitCode, device.ErrInvalidData):
    return OutcomeUnsupported
  default:
    return OutcomeMalformed
  }
}

// a reading is a duplicate when the same device repeats the previous packet id with
// identical manufacturer data.
func (s *Session) isDuplicate(r device.Reading, data []byte) bool {
  if !s.cfg.FilterDuplicates {
    return false
  }

  s.mu.Lock()
  defer s.mu.Unlock()

  prev, seen := s.last[r.MAC]

  if seen && prev.packet == r.Packet && bytes.Equal(prev.data, data) {
    return true
  }

  s.last[r.MAC] = lastSeen{
    packet: r.Packet,
    data: append([]byte(nil), data...),
  }

  return false
}

func (s *Session) reportUnknown(adv device.Advertisement, err error) {
  if !s.cfg.ReportUnknown || !errors.Is(err, dispatch.ErrNoDecoder) {
    return
  }

  key, macErr := device.FormatMAC(adv.MAC)
  if macErr != nil {
    return
  }

  s.mu.Lock()
  already := s.reported[key]
  s.reported[key] = true
  s.mu.Unlock()

  if already {
    return
  }

  log.Info().
    Str("Addr", key).
    Int("RSSI", adv.RSSI).
    Hex("ManufacturerData", adv.Data).
    Msg("Received advertisement from unknown device")
}
