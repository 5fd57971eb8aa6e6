package ble

import (
  "errors"
  "fmt"
  "net"

  "github.com/robertof/go-ble-monitor/device"
)

const adTypeManufacturerData = 0xff

var ErrNoManufacturerData = errors.New("advertisement has no manufacturer data")

// ToDevice converts a go-ble advertisement to the decoder input. go-ble strips the AD
// header off manufacturer data, so it is rebuilt here: length prefix, AD type, payload.
func ToDevice(a Advertisement) (device.Advertisement, error) {
  md := a.ManufacturerData()

  if len(md) == 0 {
    return device.Advertisement{}, ErrNoManufacturerData
  }

  // the length prefix must fit in one byte and covers the AD type too.
  if len(md) > 0xfe {
    return device.Advertisement{}, fmt.Errorf("manufacturer data too long (%d bytes)", len(md))
  }

  if a.Addr() == nil {
    return device.Advertisement{}, errors.New("advertisement without address")
  }

  mac, err := net.ParseMAC(a.Addr().String())
  if err != nil {
    return device.Advertisement{}, fmt.Errorf("invalid advertisement address: %w", err)
  }

  data := make([]byte, 0, len(md) + 2)
  data = append(data, byte(len(md) + 1), adTypeManufacturerData)
  data = append(data, md...)

  return device.Advertisement{
    Data: data,
    MAC: mac,
    RSSI: a.RSSI(),
  }, nil
}
