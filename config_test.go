package main

import (
  "io"
  "os"
  "path/filepath"
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/robertof/go-ble-monitor/device"
  "github.com/robertof/go-ble-monitor/device/unitrend"
  "github.com/robertof/go-ble-monitor/dispatch"
)

func writeFile(t *testing.T, dir, name, content string) string {
  t.Helper()

  path := filepath.Join(dir, name)
  require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

  return path
}

func TestParseArgs_Defaults(t *testing.T) {
  cfg, err := parseArgs(nil, io.Discard)
  require.NoError(t, err)

  assert.Equal(t, "localhost:9102", cfg.BindAddress)
  assert.True(t, cfg.Session.FilterDuplicates)
  assert.False(t, cfg.Session.ReportUnknown)
  assert.False(t, cfg.DiscoverDevices)
  assert.Equal(t, 4, cfg.Workers)
  assert.Equal(t, []int{50, 60}, cfg.Units.WindSpeed.Codes())
  assert.Empty(t, cfg.Devices)
}

func TestParseArgs_Devices(t *testing.T) {
  cfg, err := parseArgs([]string{
    "-device", "name=anemometer,addr=11:22:33:44:55:66",
    "-device", "addr=aa:bb:cc:dd:ee:ff",
    "-discover",
  }, io.Discard)
  require.NoError(t, err)

  require.Len(t, cfg.Devices, 2)
  assert.Equal(t, "anemometer", cfg.Devices[0].Name)
  assert.Equal(t, "ble-aabbccddeeff", cfg.Devices[1].Name)
  assert.True(t, cfg.Session.Discovery)

  assert.Equal(t, map[string]string{
    "112233445566": "anemometer",
    "aabbccddeeff": "ble-aabbccddeeff",
  }, cfg.deviceNames())
}

func TestParseArgs_Invalid(t *testing.T) {
  cases := map[string][]string{
    "bad device": {"-device", "name=x,addr=nope"},
    "no workers": {"-workers", "0"},
    "unknown flag": {"-frobnicate"},
    "missing config": {"-config", filepath.Join(t.TempDir(), "missing.yaml")},
  }

  for name, args := range cases {
    _, err := parseArgs(args, io.Discard)
    assert.Error(t, err, name)
  }
}

func TestParseArgs_ConfigFile(t *testing.T) {
  dir := t.TempDir()

  writeFile(t, dir, "units.yaml", "wind_speed:\n  40: 0.44704\n")
  path := writeFile(t, dir, "config.yaml", `
session:
  report_unknown: true
  filter_duplicates: false
units_file: units.yaml
devices:
  - name=anemometer,addr=11:22:33:44:55:66
`)

  cfg, err := parseArgs([]string{"-config", path}, io.Discard)
  require.NoError(t, err)

  assert.True(t, cfg.Session.ReportUnknown)
  assert.False(t, cfg.Session.FilterDuplicates)
  assert.Equal(t, []int{40, 50, 60}, cfg.Units.WindSpeed.Codes())
  require.Len(t, cfg.Devices, 1)
  assert.Equal(t, "anemometer", cfg.Devices[0].Name)
}

func TestParseArgs_FlagsOverrideConfigFile(t *testing.T) {
  path := writeFile(t, t.TempDir(), "config.yaml", "session:\n  report_unknown: true\n")

  cfg, err := parseArgs([]string{"-config", path, "-report-unknown=false"}, io.Discard)
  require.NoError(t, err)

  assert.False(t, cfg.Session.ReportUnknown)
  // absent from the file, keeps the flag default
  assert.True(t, cfg.Session.FilterDuplicates)
}

func TestParseArgs_InvalidUnitsFile(t *testing.T) {
  dir := t.TempDir()

  writeFile(t, dir, "units.yaml", "wind_speed:\n  40: -1\n")
  path := writeFile(t, dir, "config.yaml", "units_file: units.yaml\n")

  _, err := parseArgs([]string{"-config", path}, io.Discard)
  assert.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
  cfg, err := parseArgs(nil, io.Discard)
  require.NoError(t, err)

  reg, err := newRegistry(cfg.Units)
  require.NoError(t, err)

  assert.Len(t, reg.Families(), 2)

  adv := device.Advertisement{
    Data: []byte{
      0x14, 0xff, 0xaa, 0xbb, 0x10, 0x05, 0x37, 0x20, 0x20, 0x31, 0x2e,
      0x35, 0x32, 0x4d, 0x2f, 0x53, 0x36, 0x30, 0x80, 0x04, 0x6c,
    },
    MAC: []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66},
    RSSI: -70,
  }

  r, ok := dispatch.New(reg).Parse(cfg.Session, adv)
  require.True(t, ok)

  assert.Equal(t, unitrend.Family, r.Type)
  assert.Equal(t, -70, r.RSSI)
}
