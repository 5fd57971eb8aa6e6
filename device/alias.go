package device

import (
  "fmt"
  "net"
  "strings"

  "github.com/rs/zerolog/log"
)

type DeviceSpec map[string]string

const (
  DeviceSpecFieldName = "name"
  DeviceSpecFieldAddress = "addr"
)

func NewDeviceSpec(s string) DeviceSpec {
  spec := DeviceSpec{}
  entries := strings.Split(s, ",")

  for _, entry := range entries {
    parts := strings.SplitN(entry, "=", 2)

    if len(parts) != 2 {
      log.Warn().Str("Entry", entry).Msg("Skipping invalid device spec entry")
      continue
    }

    spec[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
  }

  return spec
}

func (ds DeviceSpec) Name() string {
  return ds[DeviceSpecFieldName]
}

func (ds DeviceSpec) Addr() string {
  return ds[DeviceSpecFieldAddress]
}

// Alias gives a known device a human readable name.
type Alias struct {
  Name string
  Addr net.HardwareAddr
}

func AliasFromSpec(spec DeviceSpec) (Alias, error) {
  hwAddr, err := net.ParseMAC(spec.Addr())
  if err != nil {
    return Alias{}, fmt.Errorf("invalid addr: %w", err)
  }

  if len(hwAddr) != 6 {
    return Alias{}, fmt.Errorf("invalid addr %q: not a 6 byte MAC address", spec.Addr())
  }

  a := Alias{Addr: hwAddr}

  if name := spec.Name(); name != "" {
    a.Name = name
  } else {
    a.Name = "ble-" + strings.ToLower(strings.ReplaceAll(spec.Addr(), ":", ""))
  }

  return a, nil
}

// Key returns the address in the same form as Reading.MAC.
func (a Alias) Key() string {
  key, _ := FormatMAC(a.Addr)
  return key
}

func (a Alias) String() string {
  return fmt.Sprintf("device[name=%q, addr=%v]", a.Name, a.Addr.String())
}
