// Package jsontime provides JSON-serializable time types.
package jsontime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// layouts are tried in order when decoding a string. Layouts without a zone
// are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	time.DateOnly,
}

// unixMilliThreshold separates numeric seconds from milliseconds: larger
// magnitudes are read as milliseconds.
const unixMilliThreshold = 2e10

// DateTime is a time.Time that accepts the timestamp shapes the engine
// backend emits: RFC 3339 with or without a zone, a space instead of 'T',
// a bare date, or a Unix number in seconds or milliseconds. It serializes
// as RFC 3339.
type DateTime time.Time

// Now returns the current time as DateTime.
func Now() DateTime {
	return DateTime(time.Now())
}

// Parse parses s in any of the accepted string layouts.
func Parse(s string) (DateTime, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTime(t), nil
		}
	}
	return DateTime{}, fmt.Errorf("jsontime: invalid datetime %q", s)
}

// FromUnix converts a Unix timestamp in seconds, or in milliseconds when its
// magnitude exceeds 2e10.
func FromUnix(v float64) DateTime {
	if math.Abs(v) > unixMilliThreshold {
		v /= 1000
	}
	sec, frac := math.Modf(v)
	return DateTime(time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC())
}

// Time returns the underlying time.Time value.
func (dt DateTime) Time() time.Time {
	return time.Time(dt)
}

// Before reports whether dt is before t.
func (dt DateTime) Before(t DateTime) bool {
	return time.Time(dt).Before(time.Time(t))
}

// After reports whether dt is after t.
func (dt DateTime) After(t DateTime) bool {
	return time.Time(dt).After(time.Time(t))
}

// Equal reports whether dt and t represent the same time instant.
func (dt DateTime) Equal(t DateTime) bool {
	return time.Time(dt).Equal(time.Time(t))
}

// IsZero reports whether dt represents the zero time instant.
func (dt DateTime) IsZero() bool {
	return time.Time(dt).IsZero()
}

// String returns the time formatted as RFC 3339.
func (dt DateTime) String() string {
	return time.Time(dt).Format(time.RFC3339Nano)
}

// UnmarshalJSON implements json.Unmarshaler.
func (dt *DateTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			*dt = FromUnix(n)
			return nil
		}
		v, err := Parse(s)
		if err != nil {
			return err
		}
		*dt = v
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("jsontime: invalid datetime %s", b)
	}
	*dt = FromUnix(n)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (dt DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(dt.String())
}

// MarshalText implements encoding.TextMarshaler.
func (dt DateTime) MarshalText() ([]byte, error) {
	return []byte(dt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (dt *DateTime) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*dt = v
	return nil
}
