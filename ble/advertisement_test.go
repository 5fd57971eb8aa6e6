package ble_test

import (
  "errors"
  "reflect"
  "testing"

  ble_mod "github.com/go-ble/ble"
  "github.com/robertof/go-ble-monitor/ble"
  "github.com/robertof/go-ble-monitor/collector"
  "github.com/robertof/go-ble-monitor/device"
)

var _ collector.Source = (*ble.Handle)(nil)

func TestToDevice(t *testing.T) {
  manufacturerData := []byte{
    0xaa, 0xbb, 0x10, 0x05, 0x37, 0x20, 0x20, 0x31, 0x2e, 0x35,
    0x32, 0x4d, 0x2f, 0x53, 0x36, 0x30, 0x80, 0x04, 0x6c,
  }

  advertisement := FakeAdvertisement{
    manufacturerData: manufacturerData,
    addr: ble_mod.NewAddr("11:22:33:44:55:66"),
    rssi: -70,
  }

  got, err := ble.ToDevice(advertisement)

  if err != nil {
    t.Fatalf("ToDevice(%x) got error: %v", manufacturerData, err)
  }

  want := device.Advertisement{
    Data: append([]byte{0x14, 0xff}, manufacturerData...),
    MAC: []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66},
    RSSI: -70,
  }

  if !reflect.DeepEqual(got.Data, want.Data) || !reflect.DeepEqual([]byte(got.MAC), want.MAC) ||
     got.RSSI != want.RSSI {
    t.Fatalf("ToDevice(%x): got %+#v, wanted %+#v", manufacturerData, got, want)
  }

  // the converted data must not alias the adapter buffer
  got.Data[2] = 0x00

  if manufacturerData[0] != 0xaa {
    t.Fatalf("ToDevice(%x) shares memory with the advertisement", manufacturerData)
  }
}

func TestToDevice_NoManufacturerData(t *testing.T) {
  advertisement := FakeAdvertisement{
    addr: ble_mod.NewAddr("11:22:33:44:55:66"),
  }

  if _, err := ble.ToDevice(advertisement); !errors.Is(err, ble.ErrNoManufacturerData) {
    t.Fatalf("ToDevice() got error %v, wanted %v", err, ble.ErrNoManufacturerData)
  }
}

func TestToDevice_Invalid(t *testing.T) {
  cases := map[string]FakeAdvertisement{
    "no address": {manufacturerData: []byte{0x01, 0x02}},
    "bad address": {manufacturerData: []byte{0x01, 0x02}, addr: ble_mod.NewAddr("not-a-mac")},
    "oversized": {manufacturerData: make([]byte, 255), addr: ble_mod.NewAddr("11:22:33:44:55:66")},
  }

  for name, advertisement := range cases {
    if _, err := ble.ToDevice(advertisement); err == nil {
      t.Fatalf("ToDevice(%s): expected an error", name)
    }
  }
}

func TestFlags_String(t *testing.T) {
  cases := map[ble.Flags]string{
    0: "none",
    ble.FlagScanTypeActive: "active scan",
    ble.FlagScanTypeActive | ble.FlagEnableDeviceAllowList: "active scan, device allow-list",
  }

  for flags, want := range cases {
    if got := flags.String(); got != want {
      t.Fatalf("Flags(%d).String(): got %q, wanted %q", flags, got, want)
    }
  }
}

type FakeAdvertisement struct {
  name string
  manufacturerData []byte
  addr ble_mod.Addr
  rssi int
}

func (f FakeAdvertisement) LocalName() string {
  return f.name
}

func (f FakeAdvertisement) ManufacturerData() []byte {
  return f.manufacturerData
}

func (f FakeAdvertisement) ServiceData() []ble_mod.ServiceData {
  return nil
}

func (f FakeAdvertisement) Services() []ble_mod.UUID {
  return nil
}

func (f FakeAdvertisement) OverflowService() []ble_mod.UUID {
  return nil
}

func (f FakeAdvertisement) TxPowerLevel() int {
  return 0
}

func (f FakeAdvertisement) Connectable() bool {
  return false
}

func (f FakeAdvertisement) SolicitedService() []ble_mod.UUID {
  return nil
}

func (f FakeAdvertisement) RSSI() int {
  return f.rssi
}

func (f FakeAdvertisement) Addr() ble_mod.Addr {
  return f.addr
}
