package units

import (
  "io"
  "math"
  "os"

  "github.com/pkg/errors"
  "gopkg.in/yaml.v3"
)

// Tables groups the conversion tables by measurement.
type Tables struct {
  WindSpeed Table `yaml:"wind_speed"`
}

// Defaults returns the built-in tables.
func Defaults() Tables {
  return Tables{
    WindSpeed: WindSpeed.Merge(nil),
  }
}

// Merge overlays the entries of extra on top of t.
func (t Tables) Merge(extra Tables) Tables {
  return Tables{
    WindSpeed: t.WindSpeed.Merge(extra.WindSpeed),
  }
}

func (t Tables) validate() error {
  for code, f := range t.WindSpeed {
    if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
      return errors.Errorf("wind_speed: invalid factor %v for unit code %d", f, code)
    }
  }

  return nil
}

// Load reads extra table entries from a YAML document and merges them over the defaults:
//
//   wind_speed:
//     40: 1.0
func Load(r io.Reader) (Tables, error) {
  var extra Tables

  if err := yaml.NewDecoder(r).Decode(&extra); err != nil && err != io.EOF {
    return Tables{}, errors.Wrap(err, "units: failed to parse tables")
  }

  if err := extra.validate(); err != nil {
    return Tables{}, errors.Wrap(err, "units")
  }

  return Defaults().Merge(extra), nil
}

func LoadFile(path string) (Tables, error) {
  f, err := os.Open(path)

  if err != nil {
    return Tables{}, errors.Wrapf(err, "units: cannot open %q", path)
  }

  defer f.Close()

  return Load(f)
}
