package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration. Values come from the YAML file named
// by CONFIG_FILE when set, then from the environment, which always wins.
type Config struct {
	Port         string       `yaml:"port"`
	CORSOrigin   string       `yaml:"cors_origin"`
	MaxBodyBytes int64        `yaml:"max_body_bytes"`
	Search       SearchConfig `yaml:"search"`
	Neo4j        Neo4jConfig  `yaml:"neo4j"`
	NATS         NATSConfig   `yaml:"nats"`
}

// SearchConfig limits the public search endpoint per client IP.
type SearchConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// Neo4jConfig selects the registry backend. An empty URL keeps the registry
// in memory.
type Neo4jConfig struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Pass     string `yaml:"pass"`
	Database string `yaml:"database"`
}

// NATSConfig enables found-vehicle announcements and the search responder.
type NATSConfig struct {
	URL string `yaml:"url"`
}

func defaultConfig() Config {
	return Config{
		Port:         "8080",
		CORSOrigin:   "*",
		MaxBodyBytes: 1 << 20,
		Search:       SearchConfig{RatePerSecond: 2, Burst: 10},
		Neo4j:        Neo4jConfig{User: "neo4j"},
	}
}

func loadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.CORSOrigin = envOr("CORS_ORIGIN", cfg.CORSOrigin)
	cfg.Neo4j.URL = envOr("NEO4J_URL", cfg.Neo4j.URL)
	cfg.Neo4j.User = envOr("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Pass = envOr("NEO4J_PASS", cfg.Neo4j.Pass)
	cfg.Neo4j.Database = envOr("NEO4J_DATABASE", cfg.Neo4j.Database)
	cfg.NATS.URL = envOr("NATS_URL", cfg.NATS.URL)

	var err error
	if cfg.MaxBodyBytes, err = envInt("MAX_BODY_BYTES", cfg.MaxBodyBytes); err != nil {
		return cfg, err
	}
	if cfg.Search.RatePerSecond, err = envFloat("SEARCH_RATE", cfg.Search.RatePerSecond); err != nil {
		return cfg, err
	}
	burst, err := envInt("SEARCH_BURST", int64(cfg.Search.Burst))
	if err != nil {
		return cfg, err
	}
	cfg.Search.Burst = int(burst)
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
