package scheduler

import (
	"strings"
	"time"

	"github.com/smallbiznis/hullbook/internal/config"
)

const JobDailyDigest = "daily_digest"

// Config controls the scheduler loop and the digest schedule.
type Config struct {
	RunInterval time.Duration
	DigestCron  string
	Timezone    string

	DigestTimeout time.Duration
	// LockTTL outlives the digest day so a second replica never resends it.
	LockTTL time.Duration
	// MissedRunGrace drops digests that come due long after their slot, for
	// example after the process was down through the evening.
	MissedRunGrace time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval:    time.Minute,
		DigestCron:     "0 20 * * *",
		Timezone:       "UTC",
		DigestTimeout:  5 * time.Minute,
		LockTTL:        26 * time.Hour,
		MissedRunGrace: time.Hour,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if strings.TrimSpace(c.DigestCron) == "" {
		c.DigestCron = defaults.DigestCron
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = defaults.Timezone
	}
	if c.DigestTimeout <= 0 {
		c.DigestTimeout = defaults.DigestTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if c.MissedRunGrace <= 0 {
		c.MissedRunGrace = defaults.MissedRunGrace
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		DigestCron:    cfg.Digest.Cron,
		Timezone:      cfg.Digest.Timezone,
		DigestTimeout: cfg.Digest.Timeout,
	}.withDefaults()
}
