package formulas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the value bound to a variable. The zero Value is unset, which is
// distinct from a set value of zero.
type Value struct {
	v   float64
	set bool
}

// Num returns a set Value.
func Num(f float64) Value {
	return Value{v: f, set: true}
}

// Unset returns a Value that is awaiting input.
func Unset() Value {
	return Value{}
}

// Float64 returns the value and whether it is set.
func (v Value) Float64() (float64, bool) {
	return v.v, v.set
}

// IsSet returns whether v holds a number.
func (v Value) IsSet() bool {
	return v.set
}

// Equal returns whether v and w are both unset or both set to the same number.
// NaN equals NaN.
func (v Value) Equal(w Value) bool {
	if v.set != w.set {
		return false
	}
	return v.v == w.v || math.IsNaN(v.v) && math.IsNaN(w.v)
}

// String formats v for display. Unset values format as the empty string.
func (v Value) String() string {
	if !v.set {
		return ""
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}

// MarshalJSON encodes v as a number, or null if it is unset.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes a number, null, or a string. The empty string is
// unset; other strings must hold a finite number.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = Value{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*v = Value{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("variable value %q is not a number", s)
		}
		*v = Num(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Num(f)
	return nil
}
