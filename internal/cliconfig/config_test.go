package cliconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/bulkd/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != 9000 {
		t.Errorf("Port = %v, want 9000", cfg.Port)
	}
	if cfg.BulkSize != 3 {
		t.Errorf("BulkSize = %v, want 3", cfg.BulkSize)
	}
	if cfg.OutputDir != "." {
		t.Errorf("OutputDir = %v, want .", cfg.OutputDir)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{Port: 9000, BulkSize: 3, OutputDir: "/tmp/out", LogLevel: "debug", ShutdownTimeout: time.Second}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "ephemeral port", mutate: func(c *Config) { c.Port = 0 }},
		{name: "negative port", mutate: func(c *Config) { c.Port = -1 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "zero bulk size", mutate: func(c *Config) { c.BulkSize = 0 }, wantErr: true},
		{name: "negative bulk size", mutate: func(c *Config) { c.BulkSize = -2 }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.ShutdownTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_Validate_Derivations(t *testing.T) {
	cfg := Config{Port: 1, BulkSize: 1, ShutdownTimeout: time.Second}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.OutputDir != "." {
		t.Errorf("OutputDir = %v, want .", cfg.OutputDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestConfig_ListenAddr(t *testing.T) {
	if got := (Config{Port: 9000}).ListenAddr(); got != ":9000" {
		t.Errorf("ListenAddr() = %q, want :9000", got)
	}
	if got := (Config{Host: "127.0.0.1", Port: 80}).ListenAddr(); got != "127.0.0.1:80" {
		t.Errorf("ListenAddr() = %q, want 127.0.0.1:80", got)
	}
}

func TestApplyArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantPort     int
		wantBulkSize int
		wantErr      bool
	}{
		{name: "no args keeps values", args: nil, wantPort: 9000, wantBulkSize: 3},
		{name: "port only", args: []string{"9100"}, wantPort: 9100, wantBulkSize: 3},
		{name: "port and bulk size", args: []string{"9100", "5"}, wantPort: 9100, wantBulkSize: 5},
		{name: "bad port", args: []string{"http"}, wantErr: true},
		{name: "bad bulk size", args: []string{"9100", "many"}, wantErr: true},
		{name: "too many", args: []string{"1", "2", "3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := ApplyArgs(&cfg, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidConfig) {
					t.Errorf("ApplyArgs() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", cfg.Port, tt.wantPort)
			}
			if cfg.BulkSize != tt.wantBulkSize {
				t.Errorf("BulkSize = %v, want %v", cfg.BulkSize, tt.wantBulkSize)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger(nil, "verbose"); err == nil {
		t.Error("NewLogger with unknown level should fail")
	}
	l, err := NewLogger(nil, "warn")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if l.GetLevel().String() != "warn" {
		t.Errorf("level = %v, want warn", l.GetLevel())
	}
}
