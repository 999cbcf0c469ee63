package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test default values
	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.ServerName != "einvoice-filer" {
		t.Errorf("Expected default server name to be 'einvoice-filer', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 16*1024*1024 {
		t.Errorf("Expected default max file size to be 16MB, got %d", cfg.MaxFileSize)
	}

	if cfg.PortalURL != DefaultPortalURL {
		t.Errorf("Expected default portal URL to be '%s', got '%s'", DefaultPortalURL, cfg.PortalURL)
	}

	if cfg.Headless {
		t.Error("Expected filing browser to default to visible")
	}

	if cfg.DatabasePath != DefaultDatabase {
		t.Errorf("Expected default database path to be '%s', got '%s'", DefaultDatabase, cfg.DatabasePath)
	}

	// Test that the invoice directory is the current working directory by default
	currentDir, _ := os.Getwd()
	if cfg.InvoiceDirectory != currentDir {
		t.Errorf("Expected default invoice directory to be '%s', got '%s'", currentDir, cfg.InvoiceDirectory)
	}
}

func validTestConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Mode:             ModeStdio,
		Host:             DefaultHost,
		Port:             DefaultPort,
		InvoiceDirectory: t.TempDir(),
		MaxFileSize:      1024,
		PortalURL:        DefaultPortalURL,
		DatabasePath:     DefaultDatabase,
		LogLevel:         "info",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid stdio config",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid server mode",
			mutate: func(c *Config) { c.Mode = ModeServer },
		},
		{
			name:   "valid web mode",
			mutate: func(c *Config) { c.Mode = ModeWeb },
		},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid port in web mode",
			mutate:  func(c *Config) { c.Mode = ModeWeb; c.Port = 0 },
			wantErr: true,
		},
		{
			name:   "port ignored in stdio mode",
			mutate: func(c *Config) { c.Port = 0 },
		},
		{
			name:    "empty invoice directory",
			mutate:  func(c *Config) { c.InvoiceDirectory = "" },
			wantErr: true,
		},
		{
			name:    "non-positive max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: true,
		},
		{
			name:    "empty portal URL",
			mutate:  func(c *Config) { c.PortalURL = "" },
			wantErr: true,
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.DatabasePath = "" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfigValidateCreatesMissingDirectory(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.InvoiceDirectory = filepath.Join(t.TempDir(), "invoices")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	if _, err := os.Stat(cfg.InvoiceDirectory); err != nil {
		t.Errorf("expected invoice directory to be created: %v", err)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: 8081}
	if got := cfg.Address(); got != "127.0.0.1:8081" {
		t.Errorf("Expected address '127.0.0.1:8081', got '%s'", got)
	}
}

func TestConfigIsDebug(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	if !cfg.IsDebug() {
		t.Error("Expected IsDebug to be true for debug level")
	}

	cfg.LogLevel = "info"
	if cfg.IsDebug() {
		t.Error("Expected IsDebug to be false for info level")
	}
}
