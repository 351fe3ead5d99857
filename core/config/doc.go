// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
// It is the construction path for every Config type in this module: the
// coordinator's certs.Config, the account manager's acmeaccount.Config, and
// the redis integration's connection Config all carry env tags and are
// loaded here (certs.NewFromEnv composes all three).
//
// Basic usage:
//
//	import (
//		"github.com/postalsys/certs/core/acmeaccount"
//		"github.com/postalsys/certs/core/certs"
//		"github.com/postalsys/certs/core/config"
//	)
//
//	func main() {
//		var cfg certs.Config
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var cfg1 certs.Config
//	config.Load(&cfg1) // Loads from environment
//
//	var cfg2 certs.Config
//	config.Load(&cfg2) // Returns cached value, cfg1 == cfg2
//
// Different types are cached independently:
//
//	// Each type has its own cache entry
//	config.MustLoad(&certs.Config{})
//	config.MustLoad(&acmeaccount.Config{})
package config
