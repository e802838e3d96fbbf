package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Day is a day of the week. Monday is 1, matching registrar exports.
type Day int

const (
	Sunday Day = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// single-letter registrar codes; R is Thursday and U is Sunday.
var dayCodes = map[string]Day{
	"u": Sunday,
	"m": Monday,
	"t": Tuesday,
	"w": Wednesday,
	"r": Thursday,
	"f": Friday,
	"s": Saturday,
}

// String returns the three-letter name of the day.
func (d Day) String() string {
	if !d.Valid() {
		return "Day(" + strconv.Itoa(int(d)) + ")"
	}
	return dayNames[d]
}

// Valid reports whether d is one of the seven days.
func (d Day) Valid() bool { return d >= Sunday && d <= Saturday }

// ParseDay converts a day name, abbreviation, registrar code or ordinal.
func ParseDay(s string) (Day, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("empty day")
	}
	if n, err := strconv.Atoi(v); err == nil {
		d := Day(n)
		if !d.Valid() {
			return 0, fmt.Errorf("day %d out of range", n)
		}
		return d, nil
	}
	if d, ok := dayCodes[v]; ok {
		return d, nil
	}
	if len(v) >= 3 {
		for i, name := range dayNames {
			if strings.HasPrefix(v, strings.ToLower(name)) {
				return Day(i), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// MarshalJSON encodes the day by name.
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either a name or an ordinal.
func (d *Day) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		v := Day(n)
		if !v.Valid() {
			return fmt.Errorf("day %d out of range", n)
		}
		*d = v
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("day: %w", err)
	}
	v, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalYAML encodes the day by name.
func (d Day) MarshalYAML() (any, error) { return d.String(), nil }

// UnmarshalYAML accepts either a name or an ordinal.
func (d *Day) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("day: expected scalar at line %d", node.Line)
	}
	v, err := ParseDay(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
