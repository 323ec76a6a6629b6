// Package number holds JSON-safe numeric types for reported values.
package number

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

const (
	posInf = "Infinity"
	negInf = "-Infinity"
	nan    = "NaN"
)

// Float is a float64 that survives JSON encoding when it is not finite.
// Infinities and NaN are written as the strings "Infinity", "-Infinity"
// and "NaN" and read back from them.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	if s, ok := nonFinite(float64(f)); ok {
		return json.Marshal(s)
	}
	return json.Marshal(float64(f))
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := Parse(s)
		if err != nil {
			return err
		}
		*f = Float(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Safe returns v itself when it is finite and its string form otherwise,
// for values stored in untyped payloads.
func Safe(v float64) any {
	if s, ok := nonFinite(v); ok {
		return s
	}
	return v
}

// Parse reads one of the non-finite string forms.
func Parse(s string) (float64, error) {
	switch s {
	case posInf:
		return math.Inf(1), nil
	case negInf:
		return math.Inf(-1), nil
	case nan:
		return math.NaN(), nil
	}
	return 0, fmt.Errorf("invalid number %q", s)
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsInf(v, 1):
		return posInf, true
	case math.IsInf(v, -1):
		return negInf, true
	case math.IsNaN(v):
		return nan, true
	}
	return "", false
}
