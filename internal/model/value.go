package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value is an indicator reading that may not exist yet. The zero Value is
// absent; absent is distinct from a computed zero.
type Value struct {
	v  float64
	ok bool
}

// Some returns a present Value holding v.
func Some(v float64) Value { return Value{v: v, ok: true} }

// None returns an absent Value.
func None() Value { return Value{} }

// Get returns the value and whether it is present.
func (x Value) Get() (float64, bool) { return x.v, x.ok }

// Valid reports whether the value is present.
func (x Value) Valid() bool { return x.ok }

// Float returns the value, or 0 when absent.
func (x Value) Float() float64 { return x.v }

// String renders the value in shortest decimal form, or "" when absent.
func (x Value) String() string {
	if !x.ok {
		return ""
	}
	return strconv.FormatFloat(x.v, 'f', -1, 64)
}

var jsonNull = []byte("null")

// MarshalJSON encodes an absent value as null.
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return jsonNull, nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON decodes null as absent.
func (x *Value) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		*x = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*x = Some(f)
	return nil
}
