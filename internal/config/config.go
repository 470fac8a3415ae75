// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file and environment
// variables. Environment variables win over the file, the file wins over flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the Postgres connection string. When empty the
	// key-value state is kept in a local JSON file.
	DatabaseDSN string

	// StoragePath is the location of the local JSON state file.
	StoragePath string

	// LogLevel is the zap level name.
	LogLevel string

	// BillingTimeout bounds every call to the billing provider.
	BillingTimeout time.Duration

	// PurchaseLatency is the simulated delay of the local billing provider.
	PurchaseLatency time.Duration

	// Config is the path to the Config file.
	Config string
}

// fileOptions mirrors Options in the config file, with durations as strings.
type fileOptions struct {
	Port            *string `json:"server_address"`
	DatabaseDSN     *string `json:"database_dsn"`
	StoragePath     *string `json:"storage_path"`
	LogLevel        *string `json:"log_level"`
	BillingTimeout  *string `json:"billing_timeout"`
	PurchaseLatency *string `json:"purchase_latency"`
}

// Parse reads flags from os.Args, then the config file and the environment.
// Invalid configuration terminates the process.
func Parse() *Options {
	opts, err := Load(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return opts
}

// Load builds Options from args, the config file they point at and getenv.
func Load(args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("vocap", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.StoragePath, "s", "vocap.json", "path to local state file")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.DurationVar(&options.BillingTimeout, "billing-timeout", 30*time.Second, "billing provider timeout")
	fs.DurationVar(&options.PurchaseLatency, "purchase-latency", 800*time.Millisecond, "simulated purchase latency")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if err := options.applyFile(options.Config); err != nil {
			return nil, err
		}
	}

	if err := options.applyEnv(getenv); err != nil {
		return nil, err
	}
	return options, nil
}

func (o *Options) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	var f fileOptions
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	setString(&o.Port, f.Port)
	setString(&o.DatabaseDSN, f.DatabaseDSN)
	setString(&o.StoragePath, f.StoragePath)
	setString(&o.LogLevel, f.LogLevel)
	if f.BillingTimeout != nil {
		if o.BillingTimeout, err = time.ParseDuration(*f.BillingTimeout); err != nil {
			return fmt.Errorf("billing_timeout: %w", err)
		}
	}
	if f.PurchaseLatency != nil {
		if o.PurchaseLatency, err = time.ParseDuration(*f.PurchaseLatency); err != nil {
			return fmt.Errorf("purchase_latency: %w", err)
		}
	}
	return nil
}

func (o *Options) applyEnv(getenv func(string) string) error {
	if v := getenv("SERVER_ADDRESS"); v != "" {
		o.Port = v
	}
	if v := getenv("DATABASE_DSN"); v != "" {
		o.DatabaseDSN = v
	}
	if v := getenv("STORAGE_PATH"); v != "" {
		o.StoragePath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}

	var err error
	if v := getenv("BILLING_TIMEOUT"); v != "" {
		if o.BillingTimeout, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("BILLING_TIMEOUT: %w", err)
		}
	}
	if v := getenv("PURCHASE_LATENCY"); v != "" {
		if o.PurchaseLatency, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("PURCHASE_LATENCY: %w", err)
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
