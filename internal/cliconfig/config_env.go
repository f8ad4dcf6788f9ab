package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (BULKD_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", os.Getenv("BULKD_HOST"), &cfg.Host)
	s.setString("output-dir", os.Getenv("BULKD_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("log-level", os.Getenv("BULKD_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("metrics-addr", os.Getenv("BULKD_METRICS_ADDR"), &cfg.MetricsAddr)

	if err := s.setIntFromString("port", os.Getenv("BULKD_PORT"), &cfg.Port); err != nil {
		return err
	}
	if err := s.setIntFromString("bulk-size", os.Getenv("BULKD_BULK_SIZE"), &cfg.BulkSize); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("BULKD_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	return nil
}
