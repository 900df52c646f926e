// Copyright 2026 The msgpush Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the msgpush server.
// It handles loading and parsing YAML configuration files, applies environment
// overrides, and provides structured access to server, logging, option store
// and footer settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/msgpush/pusher/internal/constant"
)

// Supported option store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverJSONFile = "jsonfile"
	DriverS3       = "s3"
)

// Footer content policies.
const (
	PolicyTrusted  = "trusted"
	PolicySanitize = "sanitize"
)

// DefaultPort is the port used when none is configured.
const DefaultPort = 3000

// DefaultLanguage selects the message catalog entry for the footer label.
const DefaultLanguage = "zh-CN"

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the network host/interface on which the server will bind.
	// Default is empty ("") to bind all interfaces.
	Host string `yaml:"host" json:"-"`
	// Port is the network port on which the server will listen.
	Port int `yaml:"port" json:"-"`

	// Debug enables debug-level logging and gin debug mode.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile controls whether application logs are written to rotating files or stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogsMaxTotalSizeMB limits the total size (in MB) of log files under the logs directory.
	// When exceeded, the oldest log files are deleted until within the limit. Set to 0 to disable.
	LogsMaxTotalSizeMB int `yaml:"logs-max-total-size-mb" json:"logs-max-total-size-mb"`

	// Store selects and configures the option store the footer reads from.
	Store StoreConfig `yaml:"store" json:"store"`

	// Footer configures how the footer is resolved and rendered.
	Footer FooterConfig `yaml:"footer" json:"footer"`
}

// StoreConfig configures the read-only option store.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres, jsonfile or s3.
	Driver string `yaml:"driver" json:"driver"`

	// DSN is the data source name for sqlite and postgres, or the document
	// path for jsonfile.
	DSN string `yaml:"dsn" json:"-"`

	// Table is the SQL table holding key/value options.
	Table string `yaml:"table" json:"table"`

	// S3 configures the object store backend.
	S3 S3Config `yaml:"s3" json:"s3"`
}

// S3Config holds the object storage settings for the s3 driver.
type S3Config struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	Region    string `yaml:"region" json:"region"`
	AccessKey string `yaml:"access-key" json:"-"`
	SecretKey string `yaml:"secret-key" json:"-"`
	UseSSL    bool   `yaml:"use-ssl" json:"use-ssl"`
}

// FooterConfig configures footer resolution.
type FooterConfig struct {
	// Label overrides the localized service label shown in the default footer.
	Label string `yaml:"label" json:"label"`

	// Language selects the catalog entry for the label when Label is empty.
	Language string `yaml:"language" json:"language"`

	// Policy is "trusted" (stored markup is emitted verbatim) or "sanitize".
	Policy string `yaml:"policy" json:"policy"`
}

// LoadConfig reads a YAML configuration file from the given path,
// unmarshals it into a Config struct, applies environment variable overrides,
// and returns it.
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigOptional(configFile, false)
}

// LoadConfigOptional reads YAML from configFile.
// If optional is true and the file is missing or empty, it returns a default Config.
func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configFile)
	if err != nil {
		if optional && (os.IsNotExist(err) || errors.Is(err, syscall.EISDIR)) {
			cfg.ApplyEnv()
			cfg.Sanitize()
			if err = cfg.Validate(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) > 0 {
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ApplyEnv()
	cfg.Sanitize()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config populated with defaults. Absent YAML keys keep these values.
func Default() *Config {
	return &Config{
		Port: DefaultPort,
		Store: StoreConfig{
			Driver: DriverMemory,
			Table:  constant.OptionsTable,
		},
		Footer: FooterConfig{
			Language: DefaultLanguage,
			Policy:   PolicyTrusted,
		},
	}
}

// ApplyEnv overlays MSGPUSH_* environment variables onto the configuration.
// Callers load .env files beforehand so both sources are honored.
func (cfg *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("MSGPUSH_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v, ok := os.LookupEnv("MSGPUSH_DEBUG"); ok {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true")
	}
	if v := strings.TrimSpace(os.Getenv("MSGPUSH_STORE_DRIVER")); v != "" {
		cfg.Store.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("MSGPUSH_STORE_DSN")); v != "" {
		cfg.Store.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("MSGPUSH_S3_ACCESS_KEY")); v != "" {
		cfg.Store.S3.AccessKey = v
	}
	if v := strings.TrimSpace(os.Getenv("MSGPUSH_S3_SECRET_KEY")); v != "" {
		cfg.Store.S3.SecretKey = v
	}
	if v := os.Getenv("MSGPUSH_FOOTER_LABEL"); v != "" {
		cfg.Footer.Label = v
	}
}

// Sanitize normalizes all sections.
func (cfg *Config) Sanitize() {
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.LogsMaxTotalSizeMB < 0 {
		cfg.LogsMaxTotalSizeMB = 0
	}
	cfg.SanitizeStore()
	cfg.SanitizeFooter()
}

// SanitizeStore trims store settings and fills in the default driver and table.
func (cfg *Config) SanitizeStore() {
	s := &cfg.Store
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case "", "mem":
		s.Driver = DriverMemory
	case "sqlite3":
		s.Driver = DriverSQLite
	case "postgresql", "pg", "pgx":
		s.Driver = DriverPostgres
	case "json":
		s.Driver = DriverJSONFile
	case "minio", "object":
		s.Driver = DriverS3
	}
	s.DSN = strings.TrimSpace(s.DSN)
	s.Table = strings.TrimSpace(s.Table)
	if s.Table == "" {
		s.Table = constant.OptionsTable
	}
	s.S3.Endpoint = strings.TrimSpace(s.S3.Endpoint)
	s.S3.Bucket = strings.TrimSpace(s.S3.Bucket)
	s.S3.Prefix = strings.Trim(strings.TrimSpace(s.S3.Prefix), "/")
}

// SanitizeFooter fills in the default language and policy.
func (cfg *Config) SanitizeFooter() {
	f := &cfg.Footer
	f.Language = strings.TrimSpace(f.Language)
	if f.Language == "" {
		f.Language = DefaultLanguage
	}
	f.Policy = strings.ToLower(strings.TrimSpace(f.Policy))
	if f.Policy == "" {
		f.Policy = PolicyTrusted
	}
}

// Validate reports settings that cannot be served.
func (cfg *Config) Validate() error {
	switch cfg.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres, DriverJSONFile:
		if cfg.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn is required for driver %q", cfg.Store.Driver)
		}
	case DriverS3:
		if cfg.Store.S3.Endpoint == "" || cfg.Store.S3.Bucket == "" {
			return fmt.Errorf("config: store.s3.endpoint and store.s3.bucket are required for driver %q", DriverS3)
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", cfg.Store.Driver)
	}
	switch cfg.Footer.Policy {
	case PolicyTrusted, PolicySanitize:
	default:
		return fmt.Errorf("config: unknown footer policy %q", cfg.Footer.Policy)
	}
	return nil
}

// Address returns the host:port the server listens on.
func (cfg *Config) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
