// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Catalog) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Cinara API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// ApplicationURL is the externally reachable base URL of this deployment.
	// Used to build absolute links, e.g. issue attachment images embedded in
	// notifications.
	ApplicationURL string `env:"APPLICATION_URL" envDefault:"http://localhost:8080"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for session and identity signing
	SessionSecret  string `env:"SESSION_SECRET,required"`
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// External media catalog (TMDB-compatible REST API)
	CatalogAPIURL       string        `env:"CATALOG_API_URL"        envDefault:"https://api.themoviedb.org/3"`
	CatalogAPIKey       string        `env:"CATALOG_API_KEY,required"`
	CatalogLanguage     string        `env:"CATALOG_LANGUAGE"       envDefault:"en"`
	CatalogImageBaseURL string        `env:"CATALOG_IMAGE_BASE_URL" envDefault:"https://image.tmdb.org/t/p/w600_and_h900_bestv2"`
	CatalogCacheTTL     time.Duration `env:"CATALOG_CACHE_TTL"      envDefault:"6h"`

	// Feature flags gating the 4K request capability family
	Movie4KEnabled  bool `env:"MOVIE_4K_ENABLED"  envDefault:"false"`
	Series4KEnabled bool `env:"SERIES_4K_ENABLED" envDefault:"false"`

	// Outbound notification channels
	NotifyWebhookURL   string `env:"NOTIFY_WEBHOOK_URL"`
	NotifyWebhookToken string `env:"NOTIFY_WEBHOOK_TOKEN"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
