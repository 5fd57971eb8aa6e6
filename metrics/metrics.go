package metrics

import (
  "github.com/prometheus/client_golang/prometheus"
  "github.com/robertof/go-ble-monitor/collector/model"
)

var (
  descMeasurement = prometheus.NewDesc(
    "ble_monitor_measurement",
    "Latest measurement decoded from the device advertisements, in the unit given by the label.",
    []string{"name", "family", "firmware", "measurement", "unit"},
    nil,
  )

  descRSSI = prometheus.NewDesc(
    "ble_monitor_rssi_dbm",
    "Signal strength of the latest decoded advertisement.",
    []string{"name", "family", "firmware"},
    nil,
  )

  descPacket = prometheus.NewDesc(
    "ble_monitor_packet_id",
    "Packet identifier carried by the latest decoded advertisement.",
    []string{"name", "family", "firmware"},
    nil,
  )
)

type CollectFunc func() map[string]model.Observation

type collector struct {
  CollectFunc
  // MAC (as in device.Reading) -> human name
  names map[string]string
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
  prometheus.DescribeByCollect(c, ch)
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
  for mac, o := range c.CollectFunc() {
    name, ok := c.names[mac]
    if !ok {
      name = mac
    }

    r := o.Reading

    for _, m := range r.Measurements {
      measurement := prometheus.MustNewConstMetric(
        descMeasurement,
        prometheus.GaugeValue,
        m.Value,
        name,
        r.Type,
        r.Firmware,
        m.Name,
        m.Unit,
      )

      ch <- prometheus.NewMetricWithTimestamp(o.SeenAt, measurement)
    }

    rssi := prometheus.MustNewConstMetric(
      descRSSI,
      prometheus.GaugeValue,
      float64(r.RSSI),
      name,
      r.Type,
      r.Firmware,
    )

    ch <- prometheus.NewMetricWithTimestamp(o.SeenAt, rssi)

    packet := prometheus.MustNewConstMetric(
      descPacket,
      prometheus.GaugeValue,
      float64(r.Packet),
      name,
      r.Type,
      r.Firmware,
    )

    ch <- prometheus.NewMetricWithTimestamp(o.SeenAt, packet)
  }
}

// RegisterCollector exports the observations returned by f. names maps a reading MAC to
// the name used in the "name" label; unnamed devices are labelled with their MAC.
func RegisterCollector(f CollectFunc, names map[string]string, reg prometheus.Registerer) {
  c := &collector{
    CollectFunc: f,
    names: names,
  }

  reg.MustRegister(c)
}
