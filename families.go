package main

import (
	"github.com/robertof/go-ble-monitor/device/inkbird"
	"github.com/robertof/go-ble-monitor/device/unitrend"
	"github.com/robertof/go-ble-monitor/dispatch"
	"github.com/robertof/go-ble-monitor/units"
)

// newRegistry registers every supported device family.
func newRegistry(tables units.Tables) (*dispatch.Registry, error) {
  reg := dispatch.NewRegistry()

  if err := reg.Register(unitrend.CompanyID, &unitrend.Decoder{Units: tables.WindSpeed}); err != nil {
    return nil, err
  }

  if err := reg.Register(inkbird.CompanyID, &inkbird.BBQDecoder{}); err != nil {
    return nil, err
  }

  return reg, nil
}
