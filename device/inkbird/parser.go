package inkbird

import (
  "bytes"
  "strconv"

  "github.com/pkg/errors"
  "github.com/rs/zerolog"

  "github.com/robertof/go-ble-monitor/device"
  "github.com/robertof/go-ble-monitor/utils"
)

const (
  // iBBQ thermometers advertise with a zero company id.
  CompanyID = 0x0000

  Family = "Inkbird"

  packetOffset = 3
  macOffset = 6
  probesOffset = 12

  MinLength = probesOffset + 2
  MaxProbes = 6
)

// BBQDecoder decodes the advertisements of the iBBQ family of grill thermometers: company
// id, two reserved bytes, the device MAC and up to six little-endian probe temperatures in
// tenths of a degree.
type BBQDecoder struct {
  Logger *zerolog.Logger
}

func (d *BBQDecoder) Family() string {
  return Family
}

func (d *BBQDecoder) Decode(_ device.SessionConfig, data, mac []byte) (device.Reading, error) {
  device.TraceRawData(d.Logger, Family, data)

  r, err := parseBBQAdvertisement(device.Payload(data), mac)

  if err != nil {
    return device.Reading{}, errors.Wrap(err, "inkbird")
  }

  return r, nil
}

func parseBBQAdvertisement(p device.Payload, mac []byte) (reading device.Reading, err error) {
  if err := p.Require(MinLength); err != nil {
    return reading, err
  }

  if len(p) % 2 != 0 {
    return reading, errors.Wrapf(device.ErrMalformedLength,
      "unexpected data length (%d) for BBQ device, want an even length", len(p))
  }

  numOfTemperatureProbes := (len(p) - probesOffset) / 2

  if numOfTemperatureProbes > MaxProbes {
    return reading, errors.Wrapf(device.ErrInvalidData,
      "found more than %d temperature probes (%d), unknown device?", MaxProbes, numOfTemperatureProbes)
  }

  macStr, err := device.FormatMAC(mac)
  if err != nil {
    return reading, err
  }

  // check MAC address embedded in data
  macBytes, err := p.Window(macOffset, 6)
  if err != nil {
    return reading, err
  }

  if !bytes.Equal(macBytes, mac) && !bytes.Equal(utils.Reverse(macBytes), mac) {
    return reading, errors.Wrapf(device.ErrCorruptedData,
      "device MAC address (%x) does not match MAC embedded into data (%x)", mac, macBytes)
  }

  packet, err := p.Byte(packetOffset)
  if err != nil {
    return reading, err
  }

  reading.Measurements = make([]device.Measurement, 0, numOfTemperatureProbes)

  for i := 0; i < numOfTemperatureProbes; i += 1 {
    rawTemp, err := p.Int16LE(probesOffset + i * 2)
    if err != nil {
      return device.Reading{}, err
    }

    // unplugged probes report negative values
    var probeTemp float64

    if rawTemp > 0 {
      probeTemp = float64(rawTemp) / 10.0
    }

    reading.Measurements = append(reading.Measurements, device.Measurement{
      Name: "temperature_probe_" + strconv.Itoa(i + 1),
      Value: probeTemp,
      Unit: "°C",
    })
  }

  reading.Type = Family
  reading.Firmware = "iBBQ-" + strconv.Itoa(numOfTemperatureProbes)
  reading.MAC = macStr
  reading.Packet = packet
  reading.Data = true

  return reading, nil
}
