// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/stratastor/logger"
	"github.com/stratastor/afd/internal/constants"
	"gopkg.in/yaml.v3"
)

var (
	instance   *Config
	once       sync.Once
	configPath string // Tracks where the config was loaded from
)

// Config is the daemon's own ambient configuration — distinct from the
// AFD_CONFIG/DIR_CONFIG text files under p_work_dir/etc, which the
// runtime re-reads at startup and on each SIGHUP reload. This struct only
// governs how the afd binary itself starts up: where p_work_dir lives,
// how it logs, and how its embedded HTTP status server listens.
type Config struct {
	Server struct {
		Port      int    `mapstructure:"port"`
		LogLevel  string `mapstructure:"logLevel"`
		Daemonize bool   `mapstructure:"daemonize"`
	} `mapstructure:"server"`

	// WorkDir is p_work_dir: the root all other paths (etc/, fifodir/,
	// log/, files/) resolve relative to.
	WorkDir string `mapstructure:"workDir"`

	Health struct {
		Interval string `mapstructure:"interval"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"health"`

	Intervals struct {
		StatInterval         string `mapstructure:"statInterval"`         // not read anywhere; config files are re-read on SIGHUP
		AmgScanInterval      string `mapstructure:"amgScanInterval"`      // input-directory rescan
		MonitorPollInterval  string `mapstructure:"monitorPollInterval"`  // C7 remote-AFD pull
		StuckSweepInterval   string `mapstructure:"stuckSweepInterval"`   // aldad stuck-file sweep
	} `mapstructure:"intervals"`

	Logs struct {
		Path      string `mapstructure:"path"`
		Retention string `mapstructure:"retention"`
		Output    string `mapstructure:"output"` // stdout or file
	} `mapstructure:"logs"`

	Logger struct {
		LogLevel     string `mapstructure:"logLevel"`
		EnableSentry bool   `mapstructure:"enableSentry"`
		SentryDSN    string `mapstructure:"sentryDSN"`
	} `mapstructure:"logger"`

	Auth struct {
		UsersFile string `mapstructure:"usersFile"` // etc/afd.users
		LDAPURL   string `mapstructure:"ldapURL"`   // optional group-lookup backing
		BaseDN    string `mapstructure:"baseDN"`
	} `mapstructure:"auth"`

	Notify struct {
		WebhookURL     string `mapstructure:"webhookURL"`     // error-threshold webhook; not read anywhere, so no POST is sent
		ErrorThreshold int    `mapstructure:"errorThreshold"` // mirrors FSA max_errors default
	} `mapstructure:"notify"`

	Limits struct {
		MaxExecFileSubstitution int `mapstructure:"maxExecFileSubstitution"`
		RetrieveListStepSize    int `mapstructure:"retrieveListStepSize"`
		LinkMax                 int `mapstructure:"linkMax"`
	} `mapstructure:"limits"`

	Development struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"development"`

	Environment string `mapstructure:"environment"`
}

// LoadConfig loads the configuration with precedence rules.
func LoadConfig(configFilePath string) *Config {
	once.Do(func() {
		// Setup basic logger for initialization
		logConfig := logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
		l, err := logger.NewTag(logConfig, "config")
		if err != nil {
			fmt.Printf("Failed to create logger: %v\n", err)
			os.Exit(1)
		}

		// Reset viper to avoid any potential carryover
		viper.Reset()
		viper.SetConfigType("yaml")

		// Determine which config file to use with clear priorities
		dir, dirErr := GetConfigDir()
		if dirErr != nil {
			l.Error("Failed to resolve config directory", "err", dirErr)
			dir = "/etc/afd"
		}
		systemConfigPath := filepath.Join(dir, constants.ConfigFileName)

		if configFilePath != "" {
			// 1. Priority: Explicit path from command line
			configPath = configFilePath
		} else if envPath := os.Getenv("AFD_CONFIG_FILE"); envPath != "" {
			// 2. Priority: Environment variable
			configPath = envPath
		} else {
			// 3. Priority: Always default to system-wide config
			configPath = systemConfigPath
		}

		l.Info("Using config file", "path", configPath)

		// Convert to absolute path if possible for consistency
		absPath, err := filepath.Abs(configPath)
		if err == nil {
			configPath = absPath
		}

		// Set config file path for viper
		viper.SetConfigFile(configPath)

		// Set defaults
		viper.SetDefault("environment", "dev")
		viper.SetDefault("server.port", 8042)
		viper.SetDefault("server.logLevel", "debug")
		viper.SetDefault("server.daemonize", false)
		viper.SetDefault("workDir", "/var/afd")
		viper.SetDefault("health.interval", "30s")
		viper.SetDefault("health.endpoint", "/health")
		viper.SetDefault("intervals.statInterval", "5s")
		viper.SetDefault("intervals.amgScanInterval", "1s")
		viper.SetDefault("intervals.monitorPollInterval", "5s")
		viper.SetDefault("intervals.stuckSweepInterval", "1m")
		viper.SetDefault("logs.path", "/var/afd/log/afd.log")
		viper.SetDefault("logs.retention", "7d")
		viper.SetDefault("logs.output", "stdout")
		viper.SetDefault("logger.logLevel", "debug")
		viper.SetDefault("logger.enableSentry", false)
		viper.SetDefault("logger.sentryDSN", "")

		viper.SetDefault("auth.usersFile", "etc/afd.users")
		viper.SetDefault("auth.ldapURL", "")
		viper.SetDefault("auth.baseDN", "")

		viper.SetDefault("notify.webhookURL", "")
		viper.SetDefault("notify.errorThreshold", 10)

		viper.SetDefault("limits.maxExecFileSubstitution", 10)
		viper.SetDefault("limits.retrieveListStepSize", 50)
		viper.SetDefault("limits.linkMax", 1000)

		viper.SetDefault("development.enabled", false)

		// Bind environment variables
		viper.AutomaticEnv()
		viper.SetEnvPrefix("AFD")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		// Try to read the config file
		err = viper.ReadInConfig()

		// Handle missing or invalid config
		if err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				// File doesn't exist, create a default one
				l.Info(
					"Config file not found, creating default at system path",
					"path",
					systemConfigPath,
				)

				// Ensure parent directory exists
				if err := os.MkdirAll(dir, 0755); err != nil {
					l.Error("Failed to create config directory", "err", err)
				}

				// Use defaults for now
				var cfg Config
				if err := viper.Unmarshal(&cfg); err != nil {
					l.Error("Failed to unmarshal default configuration", "err", err)
				}

				instance = &cfg
				configPath = systemConfigPath

				// Save default config to the system path
				if err := SaveConfig(systemConfigPath); err != nil {
					l.Error("Failed to save default configuration", "err", err)
				}
			} else {
				// Some other error (parse error, etc.)
				l.Error("Error reading config file", "err", err)

				// Still use defaults
				var cfg Config
				if err := viper.Unmarshal(&cfg); err != nil {
					l.Error("Failed to unmarshal default configuration", "err", err)
				}

				instance = &cfg
			}
		} else {
			// Successfully loaded config
			l.Info("Config file loaded successfully", "path", viper.ConfigFileUsed())
			configPath = viper.ConfigFileUsed()

			var cfg Config
			if err := viper.Unmarshal(&cfg); err != nil {
				l.Error("Failed to parse configuration", "err", err)
			} else {
				instance = &cfg
			}
		}

		// Log config values for debugging
		l.Debug("Loaded configuration", "config", fmt.Sprintf("%+v", *instance))
	})

	return instance
}

// SaveConfig persists the current configuration to a specified path.
func SaveConfig(path string) error {
	if path == "" {
		// Determine default save location based on user privileges
		if os.Geteuid() == 0 {
			dir, err := GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to resolve system config directory: %w", err)
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create system config directory: %w", err)
			}
			path = filepath.Join(dir, constants.ConfigFileName)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			userConfigDir := filepath.Join(home, ".afd")
			if err := os.MkdirAll(userConfigDir, 0755); err != nil {
				return fmt.Errorf("failed to create user config directory: %w", err)
			}
			path = filepath.Join(userConfigDir, constants.ConfigFileName)
		}
	}

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Save configuration
	configYAML, err := yaml.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	if err := os.WriteFile(path, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to write configuration to file: %w", err)
	}

	// Update the tracked config path
	configPath = path

	return nil
}

// GetLoadedConfigPath returns the path of the currently loaded configuration file.
func GetLoadedConfigPath() string {
	return configPath
}

// GetConfig returns the current configuration instance.
func GetConfig() *Config {
	if instance == nil {
		return LoadConfig("")
	}
	return instance
}

func NewLoggerConfig(cfg *Config) logger.Config {
	if cfg == nil {
		return logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
	}

	return logger.Config{
		LogLevel:     cfg.Logger.LogLevel,
		EnableSentry: cfg.Logger.EnableSentry,
		SentryDSN:    cfg.Logger.SentryDSN,
	}
}
