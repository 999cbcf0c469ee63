package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"
	ModeWeb    = "web"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 16 * 1024 * 1024 // 16MB
	DefaultPortalURL   = "https://www.einvoice.nat.gov.tw/"
	DefaultDatabase    = "einvoice.db"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the e-invoice filer
type Config struct {
	// Serving configuration
	Mode string // "stdio", "server" or "web"
	Host string
	Port int

	// Invoice configuration
	InvoiceDirectory string
	MaxFileSize      int64 // Maximum PDF file size in bytes

	// Filing configuration
	PortalURL string
	Headless  bool

	// Staging store
	DatabasePath string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio, // Default to stdio mode for MCP compatibility
		Host:             DefaultHost,
		Port:             DefaultPort,
		InvoiceDirectory: currentDir,
		MaxFileSize:      DefaultMaxFileSize,
		PortalURL:        DefaultPortalURL,
		Headless:         false, // portal login stays manual, keep the browser visible
		DatabasePath:     DefaultDatabase,
		Version:          "1.0.0",
		ServerName:       "einvoice-filer",
		LogLevel:         DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.InvoiceDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.InvoiceDirectory); err == nil {
			cfg.InvoiceDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("EINVOICE")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.InvoiceDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("portalurl", cfg.PortalURL)
	viper.SetDefault("headless", cfg.Headless)
	viper.SetDefault("db", cfg.DatabasePath)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Serving mode: 'stdio' for MCP standard I/O, 'server' for MCP over HTTP, 'web' for the upload UI")
	pflag.String("host", cfg.Host, "Server host address (server and web modes)")
	pflag.Int("port", cfg.Port, "Server port (server and web modes)")
	pflag.String("dir", cfg.InvoiceDirectory, "Directory containing invoice PDF files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("portalurl", cfg.PortalURL, "E-invoice portal URL for form filing")
	pflag.Bool("headless", cfg.Headless, "Run the filing browser headless")
	pflag.String("db", cfg.DatabasePath, "Path of the staging database file")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("portalurl", pflag.Lookup("portalurl"))
	_ = viper.BindPFlag("headless", pflag.Lookup("headless"))
	_ = viper.BindPFlag("db", pflag.Lookup("db"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nE-Invoice Filer - extracts Taiwanese e-invoice fields from PDFs and stages them for portal filing\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/invoices                 "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=web --dir=/path/to/invoices      # upload UI\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # MCP server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  EINVOICE_MODE        Serving mode\n")
		fmt.Fprintf(os.Stderr, "  EINVOICE_HOST        Server host\n")
		fmt.Fprintf(os.Stderr, "  EINVOICE_PORT        Server port\n")
		fmt.Fprintf(os.Stderr, "  EINVOICE_DIR         Invoice directory\n")
		fmt.Fprintf(os.Stderr, "  EINVOICE_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  EINVOICE_MAXFILESIZE Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  EINVOICE_PORTALURL   Filing portal URL\n")
		fmt.Fprintf(os.Stderr, "  EINVOICE_HEADLESS    Headless filing browser\n")
		fmt.Fprintf(os.Stderr, "  EINVOICE_DB          Staging database path\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.InvoiceDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.PortalURL = viper.GetString("portalurl")
	cfg.Headless = viper.GetBool("headless")
	cfg.DatabasePath = viper.GetString("db")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer && c.Mode != ModeWeb {
		return errors.New("mode must be one of 'stdio', 'server' or 'web'")
	}

	// Validate port range (only for listening modes)
	if (c.Mode == ModeServer || c.Mode == ModeWeb) && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.InvoiceDirectory == "" {
		return errors.New("invoice directory cannot be empty")
	}

	// Check if the invoice directory exists, create if it doesn't
	if _, err := os.Stat(c.InvoiceDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.InvoiceDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create invoice directory %s: %w", c.InvoiceDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access invoice directory %s: %w", c.InvoiceDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.PortalURL == "" {
		return errors.New("portal URL cannot be empty")
	}

	if c.DatabasePath == "" {
		return errors.New("database path cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, InvoiceDirectory: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.InvoiceDirectory, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsWebMode returns true if the server is running the web upload UI
func (c *Config) IsWebMode() bool {
	return c.Mode == ModeWeb
}
