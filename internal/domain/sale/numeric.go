// internal/domain/sale/numeric.go
package sale

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	errAbsent     = errors.New("absent")
	errNotNumeric = errors.New("not a number")
	errNotInteger = errors.New("not an integer")
)

// Numeric keeps a client-supplied number as sent, whether it arrived as a
// JSON number or a numeric string, so validation can tell "missing" from
// "not a number" from "out of range".
type Numeric struct {
	raw     string
	present bool
}

// NewNumeric builds a Numeric from its textual form
func NewNumeric(s string) Numeric {
	s = strings.TrimSpace(s)
	return Numeric{raw: s, present: s != ""}
}

// NumericFromInt builds a Numeric from an int
func NumericFromInt(i int) Numeric {
	return NewNumeric(decimal.NewFromInt(int64(i)).String())
}

// UnmarshalJSON accepts numbers, numeric strings and null
func (n *Numeric) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = Numeric{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	*n = NewNumeric(s)
	return nil
}

// MarshalJSON writes a number when the value parses, a string otherwise
func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.present {
		return []byte("null"), nil
	}
	if d, err := decimal.NewFromString(n.raw); err == nil {
		return []byte(d.String()), nil
	}
	return json.Marshal(n.raw)
}

// Present reports whether a non-empty value was supplied
func (n Numeric) Present() bool {
	return n.present
}

// String returns the raw text
func (n Numeric) String() string {
	return n.raw
}

// Decimal parses the value as a decimal number
func (n Numeric) Decimal() (decimal.Decimal, error) {
	if !n.present {
		return decimal.Zero, errAbsent
	}
	d, err := decimal.NewFromString(n.raw)
	if err != nil {
		return decimal.Zero, errNotNumeric
	}
	return d, nil
}

// Int parses the value as a whole number
func (n Numeric) Int() (int, error) {
	d, err := n.Decimal()
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, errNotInteger
	}
	if !d.Abs().LessThanOrEqual(decimal.NewFromInt(1 << 31)) {
		return 0, errNotNumeric
	}
	return int(d.IntPart()), nil
}
