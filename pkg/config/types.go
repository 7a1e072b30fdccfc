package config

import (
	"fmt"
	"time"
)

// Pipeline represents the full config for one ingest pipeline
type Pipeline struct {
	Name        string   `yaml:"name"`                  // Required: Unique identifier
	Description string   `yaml:"description,omitempty"` // Optional description
	Source      Source   `yaml:"source"`                // Required catalog API configuration
	Mirror      Mirror   `yaml:"mirror"`                // Flat-file mirror configuration
	Database    Database `yaml:"database"`              // Required relational store configuration
	Batch       Batch    `yaml:"batch"`                 // Paging window configuration
}

// Source represents the catalog API config
type Source struct {
	Endpoint       string `yaml:"endpoint"`                  // Required discover endpoint URL
	APIKey         string `yaml:"api_key"`                   // Required API key (query parameter auth)
	Language       string `yaml:"language,omitempty"`        // Language tag (default en-US)
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // Per-request timeout (default 10)
	Retry          Retry  `yaml:"retry,omitempty"`           // Per-page retry policy
	RateDelayMS    int    `yaml:"rate_delay_ms,omitempty"`   // Delay after a successful page (default 400)
}

// Retry defines the per-page retry policy. Exhausted attempts degrade the
// page to a skip, they never abort the batch.
type Retry struct {
	MaxAttempts  int     `yaml:"max_attempts,omitempty"`  // Attempts per page, total (default 3)
	DelaySeconds float64 `yaml:"delay_seconds,omitempty"` // Fixed sleep between attempts (default 2)
}

// Mirror defines the append-only flat-file destination
type Mirror struct {
	Path string `yaml:"path,omitempty"` // CSV path (default popular_movies.csv)
}

// Database defines the relational store connection parts
type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// DSN builds a postgres connection string from the parts.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Batch defines the outer paging window
type Batch struct {
	MaxPages      int `yaml:"max_pages,omitempty"`       // Page ceiling for a run (default 100)
	PagesPerBatch int `yaml:"pages_per_batch,omitempty"` // Pages collected per batch (default 5)
}

// Timeout returns the per-request timeout as a duration.
func (s Source) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Delay returns the fixed inter-attempt sleep as a duration.
func (r Retry) Delay() time.Duration {
	return time.Duration(r.DelaySeconds * float64(time.Second))
}

// RateDelay returns the post-success rate-limit delay as a duration.
func (s Source) RateDelay() time.Duration {
	return time.Duration(s.RateDelayMS) * time.Millisecond
}
