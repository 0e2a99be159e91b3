// Package bootstrap reads process configuration and wires the support engine
// for the Lambda, local server and CLI entry points.
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Lambda runtimes do not ship zoneinfo.
)

type Config struct {
	StateTable       string
	DynamoDBEndpoint string
	TaxonomyParam    string
	TaxonomyFile     string
	MaxMessageLen    int
	HistoryLimit     int
	MaxSessions      int
	ScanSegments     int
	Timezone         string
	Port             string
}

// Lookup returns the value for an environment key, or "" if unset.
type Lookup func(key string) string

// FromEnv reads Config from the process environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load reads Config through lookup. STATE_TABLE is required.
func Load(lookup Lookup) (Config, error) {
	cfg := Parse(lookup)
	if cfg.StateTable == "" {
		return Config{}, fmt.Errorf("bootstrap: required environment variable %s is not set", "STATE_TABLE")
	}
	return cfg, nil
}

// Parse reads Config through lookup, applying defaults but not checking
// required keys. Commands that never touch the transcript store use it directly.
func Parse(lookup Lookup) Config {
	return Config{
		StateTable:       strings.TrimSpace(lookup("STATE_TABLE")),
		DynamoDBEndpoint: strings.TrimSpace(lookup("DYNAMODB_ENDPOINT")),
		TaxonomyParam:    strings.TrimSpace(lookup("TAXONOMY_PARAM")),
		TaxonomyFile:     strings.TrimSpace(lookup("TAXONOMY_FILE")),
		MaxMessageLen:    envInt(lookup, "MAX_MESSAGE_LENGTH", 1000),
		HistoryLimit:     envInt(lookup, "HISTORY_LIMIT", 50),
		MaxSessions:      envInt(lookup, "MAX_SESSIONS", 100),
		ScanSegments:     envInt(lookup, "SCAN_SEGMENTS", 1),
		Timezone:         envString(lookup, "ANALYTICS_TIMEZONE", "UTC"),
		Port:             envString(lookup, "PORT", "8080"),
	}
}

// Location resolves the analytics time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load time zone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Addr returns the listen address for the local HTTP server.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func envString(lookup Lookup, key, def string) string {
	v := strings.TrimSpace(lookup(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(lookup Lookup, key string, def int) int {
	v := strings.TrimSpace(lookup(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
