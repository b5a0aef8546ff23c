package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a numeric input that also accepts numeric-looking strings
// ("1,250.50", "₹ 300"), the way HTML forms tend to submit them.
type Amount float64

func (a Amount) Float64() float64 { return float64(a) }

var amountType = reflect.TypeOf(Amount(0))

// UnmarshalJSON reports bad input as a *json.UnmarshalTypeError so the decoder
// can attach the path of the offending field.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, jsonNull) {
		*a = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return &json.UnmarshalTypeError{Value: "string", Type: amountType}
		}
		v, err := ParseAmount(s)
		if err != nil {
			return &json.UnmarshalTypeError{Value: "string " + strconv.Quote(s), Type: amountType}
		}
		*a = Amount(v)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return &json.UnmarshalTypeError{Value: jsonKind(b), Type: amountType}
	}
	*a = Amount(d.InexactFloat64())
	return nil
}

func jsonKind(b []byte) string {
	if len(b) == 0 {
		return "value"
	}
	switch b[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	}
	return "number " + string(b)
}

// ParseAmount coerces user-formatted numbers. Blank input is zero.
func ParseAmount(in string) (float64, error) {
	s := strings.TrimSpace(in)
	for _, token := range []string{",", "₹", "INR", "Rs.", "Rs", "rs", " "} {
		s = strings.ReplaceAll(s, token, "")
	}
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, NewValidationError("", fmt.Sprintf("%q is not a number", in))
	}
	return d.InexactFloat64(), nil
}
