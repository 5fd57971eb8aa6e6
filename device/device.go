package device

import (
  "errors"
)

// Decode failure kinds. Every decoder failure wraps exactly one of these.
var (
  ErrMalformedLength = errors.New("malformed length")
  ErrMissingSeparator = errors.New("missing separator")
  ErrUnparseableNumber = errors.New("unparseable number")
  ErrUnknownUnitCode = errors.New("unknown unit code")

  ErrInvalidData = errors.New("invalid data")
  ErrCorruptedData = errors.New("corrupted data")
)

// SessionConfig holds the read-only settings of a scanning session. Decoders receive it
// but never look at it.
type SessionConfig struct {
  ReportUnknown bool `yaml:"report_unknown"`
  Discovery bool `yaml:"discovery"`
  FilterDuplicates bool `yaml:"filter_duplicates"`
}

// Advertisement is a single manufacturer-data observation. Data starts with the AD length
// prefix, followed by the AD type (0xff) and the vendor payload.
type Advertisement struct {
  Data []byte
  MAC []byte
  RSSI int
}

// Decoder turns the manufacturer data of one device family into a Reading.
//
// Decode must not modify data or mac, must not keep state between calls and must return
// either a complete Reading and a nil error, or the zero Reading and an error wrapping one
// of the failure kinds above.
type Decoder interface {
  Family() string
  Decode(cfg SessionConfig, data, mac []byte) (Reading, error)
}
