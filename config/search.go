package config

import (
	"errors"
	"time"
)

// SearchConfig bounds the work done per request.
type SearchConfig struct {
	// MaxResults caps schedules per request when the request sets no limit;
	// 0 means unlimited.
	MaxResults int `json:"max_results"`
	// TimeoutMS abandons a search after this long; 0 disables the timeout.
	TimeoutMS int `json:"timeout_ms"`
}

func (c SearchConfig) Validate() error {
	if c.MaxResults < 0 {
		return errors.New("max_results must not be negative")
	}
	if c.TimeoutMS < 0 {
		return errors.New("timeout_ms must not be negative")
	}
	return nil
}

func (c SearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
