package poller

import "time"

// Config controls the detection poll loop.
type Config struct {
	Interval     time.Duration
	AccountBatch int
	LockTTL      time.Duration
	JobTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:     5 * time.Minute,
		AccountBatch: 50,
		LockTTL:      4 * time.Minute,
		JobTimeout:   time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.AccountBatch <= 0 {
		c.AccountBatch = defaults.AccountBatch
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
