package models

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ID is an opaque identifier. Each backend chooses its own representation
// (decimal counters, integer keys, ObjectID hex) and converts at its boundary.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// UnmarshalJSON also accepts numeric ids, which forms built against the
// relational backend send unquoted.
func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return NewValidationError("", "invalid id")
		}
		*id = ID(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return NewValidationError("", "invalid id "+s)
	}
	*id = ID(n.String())
	return nil
}

// ParseID accepts a path or payload identifier.
func ParseID(field, s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewValidationError(field, "is required")
	}
	return ID(s), nil
}

// Date is a date/time input accepting RFC 3339 timestamps and plain
// "2006-01-02" dates as sent by HTML date inputs.
type Date struct {
	time.Time
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, NewValidationError(field, "invalid date "+s)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate("", s)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + strconv.Quote(s), Type: reflect.TypeOf(Date{})}
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return d.Time.MarshalJSON()
}

// DatePtr returns nil for absent, null or blank dates.
func DatePtr(o Optional[Date]) *time.Time {
	if !o.Set || o.Null || o.Value.IsZero() {
		return nil
	}
	t := o.Value.Time
	return &t
}
