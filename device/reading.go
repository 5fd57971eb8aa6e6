package device

import (
  "fmt"
  "strings"

  "github.com/rs/zerolog"
)

type Measurement struct {
  Name string
  Value float64
  Unit string
}

func (m Measurement) String() string {
  if m.Unit == "" {
    return fmt.Sprintf("%s=%g", m.Name, m.Value)
  }

  return fmt.Sprintf("%s=%g%s", m.Name, m.Value, m.Unit)
}

type Reading struct {
  Type string
  Firmware string
  // lowercase hex, no separators
  MAC string
  Packet byte
  Measurements []Measurement
  Data bool
  RSSI int
}

// Value returns the value of the named measurement.
func (r Reading) Value(name string) (float64, bool) {
  for _, m := range r.Measurements {
    if m.Name == name {
      return m.Value, true
    }
  }

  return 0, false
}

func (r Reading) String() string {
  fields := make([]string, len(r.Measurements))

  for i, m := range r.Measurements {
    fields[i] = m.String()
  }

  return fmt.Sprintf("Reading[Type=%s,Firmware=%s,MAC=%s,Packet=%d,RSSI=%d,%v]",
    r.Type, r.Firmware, r.MAC, r.Packet, r.RSSI, strings.Join(fields, ","))
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (r Reading) MarshalZerologObject(e *zerolog.Event) {
  e.Str("type", r.Type).
    Str("firmware", r.Firmware).
    Str("mac", r.MAC).
    Uint8("packet", r.Packet)

  for _, m := range r.Measurements {
    e.Float64(m.Name, m.Value)
  }

  e.Bool("data", r.Data).Int("rssi", r.RSSI)
}
