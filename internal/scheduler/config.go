// Package scheduler runs the daemon's periodic maintenance jobs.
package scheduler

import "time"

// Config sets job intervals. A zero interval disables the job.
type Config struct {
	RefreshInterval time.Duration
	PruneInterval   time.Duration
	HealthInterval  time.Duration
	// HealthConcurrency bounds the health checks in flight during a sweep.
	HealthConcurrency int
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval:   time.Minute,
		PruneInterval:     time.Hour,
		HealthInterval:    15 * time.Minute,
		HealthConcurrency: 4,
	}
}
