package models

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FlexString decodes a JSON string, number, or null into a string. Xtream
// panels disagree on whether ids are quoted.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(strings.Trim(string(data), `"`))
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexInt decodes a JSON number or a numeric string into an int64.
// Empty strings, null, and non-numeric strings decode as zero.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = FlexInt(n)
		return nil
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil {
		*f = FlexInt(int64(x))
		return nil
	}
	*f = 0
	return nil
}

func (f FlexInt) String() string { return strconv.FormatInt(int64(f), 10) }

// AdultFlag is the is_adult marker resolved once at decode time.
type AdultFlag uint8

const (
	AdultAbsent AdultFlag = iota
	AdultNo
	AdultYes
)

// IsSet reports whether the marker evaluates truthy.
func (a AdultFlag) IsSet() bool { return a == AdultYes }

// UnmarshalJSON accepts true/false, 0/1, and their string forms.
func (a *AdultFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	s := strings.ToLower(strings.TrimSpace(strings.Trim(string(data), `"`)))
	switch s {
	case "", "null":
		*a = AdultAbsent
	case "1", "true", "yes":
		*a = AdultYes
	default:
		if n, err := strconv.ParseFloat(s, 64); err == nil && n != 0 {
			*a = AdultYes
			return nil
		}
		*a = AdultNo
	}
	return nil
}

// MarshalJSON writes the wire form clients expect ("0" / "1").
func (a AdultFlag) MarshalJSON() ([]byte, error) {
	switch a {
	case AdultYes:
		return []byte(`"1"`), nil
	case AdultNo:
		return []byte(`"0"`), nil
	default:
		return []byte("null"), nil
	}
}
