// Package dispatch routes manufacturer data to the decoder of its device family.
package dispatch

import (
  "errors"
  "fmt"

  pkgerrors "github.com/pkg/errors"
  "github.com/rs/zerolog/log"

  "github.com/robertof/go-ble-monitor/device"
)

// ErrNoDecoder is returned when no registered decoder accepts an advertisement.
var ErrNoDecoder = errors.New("no decoder")

// ErrDecoderPanic is returned when a decoder panics instead of failing.
var ErrDecoderPanic = errors.New("decoder panic")

const (
  companyIDOffset = 2
  // length prefix, AD type, company id
  minLength = companyIDOffset + 2
)

type Dispatcher struct {
  registry *Registry
}

func New(r *Registry) *Dispatcher {
  return &Dispatcher{registry: r}
}

// CompanyID extracts the little-endian company id following the AD header.
func CompanyID(data []byte) (uint16, error) {
  p := device.Payload(data)

  if err := p.Require(minLength); err != nil {
    return 0, err
  }

  return p.Uint16LE(companyIDOffset)
}

// Parse decodes adv with the first matching decoder and stamps the advertisement RSSI on
// the result. The boolean is false when no decoder produced a reading.
func (d *Dispatcher) Parse(cfg device.SessionConfig, adv device.Advertisement) (device.Reading, bool) {
  r, err := d.Decode(cfg, adv)

  if err != nil {
    log.Debug().
      Err(err).
      Hex("Addr", adv.MAC).
      Msg("dispatch: no reading for advertisement")

    return device.Reading{}, false
  }

  return r, true
}

// Decode is Parse with the reason of the failure. Errors wrap ErrNoDecoder when no family
// matched, or the error of the last decoder that was tried.
func (d *Dispatcher) Decode(cfg device.SessionConfig, adv device.Advertisement) (device.Reading, error) {
  if len(adv.MAC) != 6 {
    return device.Reading{}, pkgerrors.Wrapf(device.ErrMalformedLength,
      "dispatch: MAC address must be 6 bytes, got %d", len(adv.MAC))
  }

  companyID, err := CompanyID(adv.Data)

  if err != nil {
    return device.Reading{}, pkgerrors.Wrap(err, "dispatch")
  }

  decoders := d.registry.Lookup(companyID, adv.Data)

  if len(decoders) == 0 {
    return device.Reading{}, pkgerrors.Wrapf(ErrNoDecoder, "company 0x%04x", companyID)
  }

  for _, dec := range decoders {
    var r device.Reading
    r, err = safeDecode(dec, cfg, adv)

    if err == nil {
      r.RSSI = adv.RSSI
      return r, nil
    }

    log.Trace().
      Err(err).
      Str("Family", dec.Family()).
      Msg("dispatch: decoder rejected advertisement")
  }

  return device.Reading{}, err
}

func safeDecode(dec device.Decoder, cfg device.SessionConfig, adv device.Advertisement) (r device.Reading, err error) {
  defer func() {
    if p := recover(); p != nil {
      log.Error().
        Str("Family", dec.Family()).
        Hex("ManufacturerData", adv.Data).
        Interface("Panic", p).
        Msg("dispatch: decoder panicked")

      r, err = device.Reading{}, fmt.Errorf("%w: %s: %v", ErrDecoderPanic, dec.Family(), p)
    }
  }()

  return dec.Decode(cfg, adv.Data, adv.MAC)
}
