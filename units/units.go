// Package units holds the unit-code conversion tables used by decoders to bring vendor
// specific units to SI.
package units

import (
  "sort"

  "github.com/pkg/errors"

  "github.com/robertof/go-ble-monitor/device"
)

// Table maps a vendor unit code to the factor converting a value in that unit to the SI
// unit of the measurement. Codes missing from a table never default to a factor.
type Table map[int]float64

// WindSpeed converts anemometer unit codes to m/s.
var WindSpeed = Table{
  50: 0.277778, // km/h
  60: 0.00508,  // ft/min
}

func (t Table) Factor(code int) (float64, error) {
  f, ok := t[code]

  if !ok {
    return 0, errors.Wrapf(device.ErrUnknownUnitCode, "unit code %d", code)
  }

  return f, nil
}

// Convert scales v, expressed in the unit identified by code, to SI.
func (t Table) Convert(v float64, code int) (float64, error) {
  f, err := t.Factor(code)

  if err != nil {
    return 0, err
  }

  return v * f, nil
}

// Merge returns a copy of t with the entries of extra added on top.
func (t Table) Merge(extra Table) Table {
  out := make(Table, len(t) + len(extra))

  for code, f := range t {
    out[code] = f
  }

  for code, f := range extra {
    out[code] = f
  }

  return out
}

// Codes returns the known codes in ascending order.
func (t Table) Codes() []int {
  codes := make([]int, 0, len(t))

  for code := range t {
    codes = append(codes, code)
  }

  sort.Ints(codes)

  return codes
}
