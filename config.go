package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/robertof/go-ble-monitor/collector"
	"github.com/robertof/go-ble-monitor/device"
	"github.com/robertof/go-ble-monitor/units"
)

type config struct {
  Debug, Trace bool
  BindAddress string
  DiscoverDevices bool
  DiscoveryDuration time.Duration
  BluetoothDeviceId int
  ActiveScan bool
  Workers int
  StaleAfter time.Duration
  ConfigFile string
  Session device.SessionConfig
  Units units.Tables
  Devices []device.Alias
}

// fileConfig is the layout of the optional YAML file passed with -config:
//
//   session:
//     report_unknown: true
//     filter_duplicates: true
//   units_file: units.yaml
//   devices:
//     - name=anemometer,addr=11:22:33:44:55:66
type fileConfig struct {
  Session device.SessionConfig `yaml:"session"`
  UnitsFile string `yaml:"units_file"`
  Devices []string `yaml:"devices"`
}

type boundDeviceList struct {
  list *[]device.Alias
}

func (d *boundDeviceList) String() string {
  return ""
}

func (d *boundDeviceList) Set(v string) error {
  alias, err := device.AliasFromSpec(device.NewDeviceSpec(v))
  if err != nil {
    return fmt.Errorf("failed to parse device: %w", err)
  }

  *d.list = append(*d.list, alias)

  return nil
}

func ParseArgs() config {
  cfg, err := parseArgs(os.Args[1:], os.Stderr)

  if errors.Is(err, flag.ErrHelp) {
    os.Exit(0)
  }

  if err != nil {
    fmt.Fprintf(os.Stderr, "Error: %v\n", err)
    os.Exit(1)
  }

  return cfg
}

func parseArgs(args []string, output io.Writer) (config, error) {
  var cfg config

  fs := flag.NewFlagSet("ble-monitor", flag.ContinueOnError)
  fs.SetOutput(output)

  fs.StringVar(&cfg.BindAddress, "bind", "localhost:9102", "Where the exporter will bind to")
  fs.IntVar(&cfg.BluetoothDeviceId, "bluetooth-device", 0, "Bluetooth (HCI) device ID")
  fs.BoolVar(&cfg.ActiveScan, "active-scan", false, "Request scan responses from the devices")
  fs.BoolVar(&cfg.DiscoverDevices, "discover", false, "Discover available BLE devices and quit")
  fs.DurationVar(&cfg.DiscoveryDuration, "discover-for", 5 * time.Second, "How long discovery runs for")
  fs.BoolVar(&cfg.Session.ReportUnknown, "report-unknown", false,
    "Log devices whose manufacturer data no decoder understands (once per device)")
  fs.BoolVar(&cfg.Session.FilterDuplicates, "filter-duplicates", true,
    "Drop repeated advertisements carrying the same data")
  fs.IntVar(&cfg.Workers, "workers", collector.DefaultWorkers, "Number of decoding workers")
  fs.DurationVar(&cfg.StaleAfter, "stale-after", 10 * time.Minute,
    "Stop exporting devices not heard of for this long. 0 exports them forever")
  fs.StringVar(&cfg.ConfigFile, "config", "", "Optional YAML configuration file")
  fs.Var(&boundDeviceList{list: &cfg.Devices}, "device",
    "Name a device in the form of `name=value,addr=value`. When given, only these devices are scanned")
  fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logs")
  fs.BoolVar(&cfg.Trace, "trace", false, "Enable trace logs")

  if err := fs.Parse(args); err != nil {
    return config{}, err
  }

  cfg.Units = units.Defaults()

  if cfg.ConfigFile != "" {
    set := make(map[string]bool)
    fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

    if err := cfg.applyFile(cfg.ConfigFile, set); err != nil {
      return config{}, err
    }
  }

  if cfg.Workers <= 0 {
    return config{}, errors.Errorf("-workers must be positive, got %d", cfg.Workers)
  }

  cfg.Session.Discovery = cfg.DiscoverDevices

  return cfg, nil
}

// applyFile loads path into cfg. Values given on the command line win over the file.
func (cfg *config) applyFile(path string, set map[string]bool) error {
  f, err := os.Open(path)
  if err != nil {
    return errors.Wrap(err, "cannot open config file")
  }

  defer f.Close()

  // keys missing from the file keep their flag defaults
  fc := fileConfig{Session: cfg.Session}

  if err := yaml.NewDecoder(f).Decode(&fc); err != nil && err != io.EOF {
    return errors.Wrapf(err, "failed to parse config file %q", path)
  }

  if !set["report-unknown"] {
    cfg.Session.ReportUnknown = fc.Session.ReportUnknown
  }

  if !set["filter-duplicates"] {
    cfg.Session.FilterDuplicates = fc.Session.FilterDuplicates
  }

  if !set["discover"] {
    cfg.DiscoverDevices = fc.Session.Discovery
  }

  if fc.UnitsFile != "" {
    unitsPath := fc.UnitsFile

    if !filepath.IsAbs(unitsPath) {
      unitsPath = filepath.Join(filepath.Dir(path), unitsPath)
    }

    tables, err := units.LoadFile(unitsPath)
    if err != nil {
      return err
    }

    cfg.Units = tables
  }

  // devices from the command line come first, so their names win on duplicate addresses
  for _, spec := range fc.Devices {
    alias, err := device.AliasFromSpec(device.NewDeviceSpec(spec))
    if err != nil {
      return errors.Wrapf(err, "config file %q: device %q", path, spec)
    }

    cfg.Devices = append(cfg.Devices, alias)
  }

  return nil
}

// deviceNames maps the reading MAC of every named device to its name.
func (cfg config) deviceNames() map[string]string {
  names := make(map[string]string, len(cfg.Devices))

  for _, alias := range cfg.Devices {
    if _, ok := names[alias.Key()]; !ok {
      names[alias.Key()] = alias.Name
    }
  }

  return names
}
