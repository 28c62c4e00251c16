package config

import (
	"fmt"
	"time"
)

// Deadline is the per-request backend deadline.
func (c Config) Deadline() time.Duration { return time.Duration(c.DeadlineSeconds) * time.Second }

// IdleInterval is the worker's fallback poll period.
func (c Config) IdleInterval() time.Duration {
	return time.Duration(c.IdleIntervalMs) * time.Millisecond
}

// Location resolves Timezone; empty means the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ConnectTimeout is the dial timeout for p; zero means the transport default.
func (p Provider) ConnectTimeout() time.Duration {
	return time.Duration(p.ConnectTimeoutMs) * time.Millisecond
}
