package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinutesPerDay is the exclusive upper bound of a clock value, except that a
// window may end exactly at midnight.
const MinutesPerDay = 24 * 60

// Minutes counts minutes past midnight.
type Minutes int

var clockLayouts = []string{"3:04pm", "3pm", "15:04"}

// ParseClock parses a wall clock time such as "8:00am", "12:30 PM" or "14:05".
// A bare integer is read as minutes past midnight.
func ParseClock(s string) (Minutes, error) {
	v := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if v == "" {
		return 0, fmt.Errorf("empty time")
	}
	if n, err := strconv.Atoi(v); err == nil {
		return Minutes(n), nil
	}
	if v == "24:00" {
		return MinutesPerDay, nil
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return Minutes(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q", s)
}

// Clock formats the value as HH:MM, with a leading minus for negative values.
func (m Minutes) Clock() string {
	v := int(m)
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%02d:%02d", sign, v/60, v%60)
}

// UnmarshalJSON accepts a number of minutes or a clock string.
func (m *Minutes) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*m = Minutes(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("time: %w", err)
	}
	v, err := ParseClock(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// UnmarshalYAML accepts a number of minutes or a clock string.
func (m *Minutes) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("time: expected scalar at line %d", node.Line)
	}
	v, err := ParseClock(node.Value)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
