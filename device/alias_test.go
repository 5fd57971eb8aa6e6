package device_test

import (
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/robertof/go-ble-monitor/device"
)

func TestNewDeviceSpec(t *testing.T) {
  spec := device.NewDeviceSpec("name = garden, addr=11:22:33:44:55:66,bogus")

  assert.Equal(t, "garden", spec.Name())
  assert.Equal(t, "11:22:33:44:55:66", spec.Addr())
  assert.Len(t, spec, 2)
}

func TestAliasFromSpec(t *testing.T) {
  a, err := device.AliasFromSpec(device.NewDeviceSpec("addr=11:22:33:AA:BB:CC"))
  require.NoError(t, err)

  assert.Equal(t, "ble-112233aabbcc", a.Name)
  assert.Equal(t, "112233aabbcc", a.Key())

  a, err = device.AliasFromSpec(device.NewDeviceSpec("name=anemometer,addr=11:22:33:44:55:66"))
  require.NoError(t, err)
  assert.Equal(t, "anemometer", a.Name)

  _, err = device.AliasFromSpec(device.NewDeviceSpec("name=broken"))
  assert.Error(t, err)

  _, err = device.AliasFromSpec(device.NewDeviceSpec("addr=00:00:00:00:fe:80:00:00"))
  assert.Error(t, err)
}

func TestReading_Value(t *testing.T) {
  r := device.Reading{
    Measurements: []device.Measurement{
      {Name: "wind_speed", Value: 1.5, Unit: "m/s"},
      {Name: "temperature", Value: 25.9, Unit: "°C"},
    },
  }

  v, ok := r.Value("temperature")
  assert.True(t, ok)
  assert.Equal(t, 25.9, v)

  _, ok = r.Value("humidity")
  assert.False(t, ok)
}
