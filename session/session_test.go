package session

import (
  "encoding/hex"
  "sync"
  "testing"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/testutil"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/robertof/go-ble-monitor/device"
  "github.com/robertof/go-ble-monitor/device/unitrend"
  "github.com/robertof/go-ble-monitor/dispatch"
)

const uniT = "14ffaabb1005372020312e35324d2f53363080046c"

var mac = []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}

func mustHex(t *testing.T, s string) []byte {
  t.Helper()

  b, err := hex.DecodeString(s)
  require.NoError(t, err)

  return b
}

func newSession(t *testing.T, cfg device.SessionConfig) *Session {
  t.Helper()

  reg := dispatch.NewRegistry()
  require.NoError(t, reg.Register(unitrend.CompanyID, &unitrend.Decoder{}))

  return New(cfg, dispatch.New(reg))
}

func count(outcome Outcome) float64 {
  return testutil.ToFloat64(advertisementsCounter.WithLabelValues(string(outcome)))
}

func TestProcess_Decoded(t *testing.T) {
  s := newSession(t, device.SessionConfig{})
  before := count(OutcomeDecoded)

  r, outcome, ok := s.Process(device.Advertisement{Data: mustHex(t, uniT), MAC: mac, RSSI: -70})
  require.True(t, ok)

  assert.Equal(t, OutcomeDecoded, outcome)
  assert.Equal(t, -70, r.RSSI)
  assert.Equal(t, before + 1, count(OutcomeDecoded))
}

func TestProcess_FilterDuplicates(t *testing.T) {
  s := newSession(t, device.SessionConfig{FilterDuplicates: true})
  adv := device.Advertisement{Data: mustHex(t, uniT), MAC: mac, RSSI: -70}

  _, _, ok := s.Process(adv)
  require.True(t, ok)

  _, outcome, ok := s.Process(adv)
  assert.False(t, ok)
  assert.Equal(t, OutcomeDuplicate, outcome)

  // a new measurement under the same packet id is not a duplicate
  changed := mustHex(t, uniT)
  changed[18] = 0x81

  _, _, ok = s.Process(device.Advertisement{Data: changed, MAC: mac})
  assert.True(t, ok)

  // other devices are tracked separately
  _, _, ok = s.Process(device.Advertisement{Data: mustHex(t, uniT), MAC: []byte{1, 2, 3, 4, 5, 6}})
  assert.True(t, ok)
}

func TestProcess_DuplicatesPassWhenFilterDisabled(t *testing.T) {
  s := newSession(t, device.SessionConfig{})
  adv := device.Advertisement{Data: mustHex(t, uniT), MAC: mac}

  for i := 0; i < 3; i++ {
    _, _, ok := s.Process(adv)
    assert.True(t, ok)
  }
}

func TestProcess_Outcomes(t *testing.T) {
  s := newSession(t, device.SessionConfig{ReportUnknown: true})

  cases := []struct {
    data string
    want Outcome
  }{
    {"05ff34120102", OutcomeUnknown},
    {"12ffaabb303030303030303030303030303030", OutcomeMalformed},
    {"14ffaabb002020322e373520202020201b01000000", OutcomeMalformed},
    {"14ffaabb1005372020312e35324d2f53373080046c", OutcomeUnsupported},
  }

  for _, tc := range cases {
    before := count(tc.want)

    r, outcome, ok := s.Process(device.Advertisement{Data: mustHex(t, tc.data), MAC: mac})
    assert.False(t, ok, tc.data)
    assert.Equal(t, tc.want, outcome, tc.data)
    assert.Equal(t, device.Reading{}, r)
    assert.Equal(t, before + 1, count(tc.want), tc.data)
  }
}

func TestProcess_ReportsUnknownOnce(t *testing.T) {
  s := newSession(t, device.SessionConfig{ReportUnknown: true})
  adv := device.Advertisement{Data: mustHex(t, "05ff34120102"), MAC: mac}

  s.Process(adv)
  s.Process(adv)

  assert.Len(t, s.reported, 1)
  assert.True(t, s.reported["112233445566"])
}

func TestProcess_Concurrent(t *testing.T) {
  s := newSession(t, device.SessionConfig{FilterDuplicates: true, ReportUnknown: true})
  known, unknown := mustHex(t, uniT), mustHex(t, "05ff34120102")

  var wg sync.WaitGroup

  for i := 0; i < 8; i++ {
    wg.Add(1)

    go func(i int) {
      defer wg.Done()

      devMAC := []byte{0, 0, 0, 0, 0, byte(i)}

      for j := 0; j < 50; j++ {
        s.Process(device.Advertisement{Data: known, MAC: devMAC})
        s.Process(device.Advertisement{Data: unknown, MAC: devMAC})
      }
    }(i)
  }

  wg.Wait()

  assert.Len(t, s.last, 8)
  assert.Len(t, s.reported, 8)
}

func TestRegisterMetrics(t *testing.T) {
  reg := prometheus.NewPedanticRegistry()
  RegisterMetrics(reg)

  s := newSession(t, device.SessionConfig{})
  s.Process(device.Advertisement{Data: mustHex(t, uniT), MAC: mac})

  n, err := testutil.GatherAndCount(reg, "ble_monitor_advertisements_total")
  require.NoError(t, err)
  assert.GreaterOrEqual(t, n, 1)
}
