// Package config loads typed application configuration from environment
// variables (with optional .env bootstrap for local development).
//
// Each component declares its own Config struct with `env` tags and loads it
// once at startup:
//
//	type Config struct {
//		Addr   string `env:"HTTP_ADDR" envDefault:":8080"`
//		Secret string `env:"WEBHOOK_SECRET,required"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Required variables that are missing make loading fail, so misconfiguration
// is a startup error rather than a per-request surprise.
package config
