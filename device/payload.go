package device

import (
  "encoding/binary"
  "encoding/hex"
  "math"

  "github.com/pkg/errors"
  "github.com/rs/zerolog"
  "github.com/rs/zerolog/log"
)

// Payload wraps raw manufacturer data. Every accessor validates the requested window
// before indexing and reports ErrMalformedLength instead of going out of range.
type Payload []byte

// Require fails unless the payload is at least n bytes long.
func (p Payload) Require(n int) error {
  if len(p) < n {
    return errors.Wrapf(ErrMalformedLength, "need %d bytes, got %d", n, len(p))
  }

  return nil
}

func (p Payload) Byte(off int) (byte, error) {
  if off < 0 || off >= len(p) {
    return 0, errors.Wrapf(ErrMalformedLength, "byte at offset %d out of %d", off, len(p))
  }

  return p[off], nil
}

func (p Payload) Uint16LE(off int) (uint16, error) {
  b, err := p.Window(off, 2)

  if err != nil {
    return 0, err
  }

  return binary.LittleEndian.Uint16(b), nil
}

func (p Payload) Int16LE(off int) (int16, error) {
  v, err := p.Uint16LE(off)
  return int16(v), err
}

// Window returns the n bytes starting at off. The returned slice shares memory with the
// payload and must not be modified.
func (p Payload) Window(off, n int) ([]byte, error) {
  if off < 0 || n < 0 || off > len(p) || len(p) - off < n {
    return nil, errors.Wrapf(ErrMalformedLength,
      "window [%d:%d] out of %d bytes", off, off + n, len(p))
  }

  return p[off:off+n:off+n], nil
}

// Hex dumps the payload as lowercase hex without separators.
func (p Payload) Hex() string {
  return hex.EncodeToString(p)
}

// FormatMAC renders a 6 byte hardware address as lowercase hex without separators.
func FormatMAC(mac []byte) (string, error) {
  if len(mac) != 6 {
    return "", errors.Wrapf(ErrMalformedLength, "MAC address must be 6 bytes, got %d", len(mac))
  }

  return hex.EncodeToString(mac), nil
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
  pow := math.Pow(10, float64(places))
  return math.Round(v * pow) / pow
}

// TraceRawData emits the per-attempt diagnostic record for a decoder. A nil logger uses the
// global one.
func TraceRawData(logger *zerolog.Logger, family string, data []byte) {
  if logger == nil {
    logger = &log.Logger
  }

  logger.Trace().
    Str("Family", family).
    Msg(family + " raw mfg data: " + hex.EncodeToString(data))
}
