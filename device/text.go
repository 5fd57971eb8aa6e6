package device

import (
  "bytes"
  "math"
  "strconv"
  "strings"

  "github.com/pkg/errors"
)

const textCutset = " \x00"

// SplitNumbers decodes an embedded ASCII field of the form "<magnitude><sep><code>".
// Surrounding blanks and NULs on either side of the separator are ignored.
func SplitNumbers(window []byte, sep string) (magnitude float64, code int, err error) {
  idx := bytes.Index(window, []byte(sep))

  if idx < 0 {
    return 0, 0, errors.Wrapf(ErrMissingSeparator, "%q not found in %q", sep, window)
  }

  left := strings.Trim(string(window[:idx]), textCutset)
  right := strings.Trim(string(window[idx+len(sep):]), textCutset)

  magnitude, err = strconv.ParseFloat(left, 64)

  if err != nil || math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
    return 0, 0, errors.Wrapf(ErrUnparseableNumber, "magnitude %q", left)
  }

  code, err = strconv.Atoi(right)

  if err != nil {
    return 0, 0, errors.Wrapf(ErrUnparseableNumber, "unit code %q", right)
  }

  return magnitude, code, nil
}
