// Package unitrend decodes advertisements of UNI-T (Uni-Trend) handheld meters.
//
// The UT363BT anemometer broadcasts its display as ASCII inside otherwise binary
// manufacturer data:
//
//   0      length prefix
//   1      AD type
//   2-3    company id, little-endian (0xbbaa)
//   3      reused as the packet id
//   4-8    fixed header
//   9-17   "<magnitude>M/S<unit code>"
//   18-19  raw temperature, little-endian, °C * 44.5
package unitrend

import (
  "github.com/pkg/errors"
  "github.com/rs/zerolog"

  "github.com/robertof/go-ble-monitor/device"
  "github.com/robertof/go-ble-monitor/units"
)

const (
  CompanyID = 0xbbaa

  Family = "UNI-T"
  Firmware = "UT363BT"

  // index 19 must be addressable
  MinLength = 20

  packetOffset = 3
  textOffset = 9
  textLength = 9
  temperatureOffset = 18

  separator = "M/S"
  temperatureDivisor = 44.5
)

type Decoder struct {
  // Units converts the displayed wind speed to m/s. Defaults to units.WindSpeed.
  Units units.Table
  // Logger receives the raw data trace. Defaults to the global logger.
  Logger *zerolog.Logger
}

func (d *Decoder) Family() string {
  return Family
}

func (d *Decoder) Decode(_ device.SessionConfig, data, mac []byte) (device.Reading, error) {
  device.TraceRawData(d.Logger, Family, data)

  r, err := d.decode(device.Payload(data), mac)

  if err != nil {
    return device.Reading{}, errors.Wrap(err, "unitrend")
  }

  return r, nil
}

func (d *Decoder) decode(p device.Payload, mac []byte) (r device.Reading, err error) {
  if err := p.Require(MinLength); err != nil {
    return r, err
  }

  macStr, err := device.FormatMAC(mac)
  if err != nil {
    return r, err
  }

  packet, err := p.Byte(packetOffset)
  if err != nil {
    return r, err
  }

  text, err := p.Window(textOffset, textLength)
  if err != nil {
    return r, err
  }

  magnitude, code, err := device.SplitNumbers(text, separator)
  if err != nil {
    return r, err
  }

  table := d.Units
  if table == nil {
    table = units.WindSpeed
  }

  windSpeed, err := table.Convert(magnitude, code)
  if err != nil {
    return r, err
  }

  rawTemp, err := p.Uint16LE(temperatureOffset)
  if err != nil {
    return r, err
  }

  return device.Reading{
    Type: Family,
    Firmware: Firmware,
    MAC: macStr,
    Packet: packet,
    Measurements: []device.Measurement{
      {Name: "wind_speed", Value: windSpeed, Unit: "m/s"},
      {Name: "temperature", Value: device.Round(float64(rawTemp) / temperatureDivisor, 1), Unit: "°C"},
    },
    Data: true,
  }, nil
}
