package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Host:            "0.0.0.0",
				Port:            9200,
				BulkSize:        10,
				OutputDir:       "/var/log/bulkd",
				LogLevel:        "warn",
				MetricsAddr:     "127.0.0.1:9201",
				ShutdownTimeout: "1m",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Host:            "0.0.0.0",
				Port:            9200,
				BulkSize:        10,
				OutputDir:       "/var/log/bulkd",
				LogLevel:        "warn",
				MetricsAddr:     "127.0.0.1:9201",
				ShutdownTimeout: time.Minute,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Port:     9200,
				BulkSize: 10,
			},
			changed: map[string]bool{"port": true},
			initial: Config{Port: 9000, BulkSize: 3},
			expected: Config{
				Port:     9000, // unchanged because flag was set
				BulkSize: 10,
			},
		},
		{
			name:       "empty values keep initial",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
		},
		{
			name:       "invalid duration",
			fileConfig: FileConfig{ShutdownTimeout: "forever"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyFileConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
host = "127.0.0.1"
port = 9300
bulk_size = 4
output_dir = "/data/bulks"
log_level = "debug"
metrics_addr = ":9301"
shutdown_timeout = "15s"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}

	want := FileConfig{
		Host:            "127.0.0.1",
		Port:            9300,
		BulkSize:        4,
		OutputDir:       "/data/bulks",
		LogLevel:        "debug",
		MetricsAddr:     ":9301",
		ShutdownTimeout: "15s",
	}
	if fc != want {
		t.Errorf("LoadFileConfig() = %+v, want %+v", fc, want)
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFileConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("LoadFileConfig on missing file should fail")
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("bulk_size = [unterminated"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadFileConfig(bad); err == nil {
		t.Error("LoadFileConfig on malformed TOML should fail")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	p := DefaultConfigPath()
	if p == "" {
		t.Skip("no home directory")
	}
	if !strings.HasSuffix(p, filepath.Join(".bulkd", "config.toml")) {
		t.Errorf("DefaultConfigPath() = %q, want suffix .bulkd/config.toml", p)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !FileExists(path) {
		t.Error("FileExists() = false for existing file")
	}
	if FileExists(filepath.Join(dir, "absent")) {
		t.Error("FileExists() = true for missing file")
	}
}
