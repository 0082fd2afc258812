// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-tiermigrate.
//
// go-tiermigrate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the CLI configuration settings.
type Config struct {
	Backend        string
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
	OutputFormat   string
	PolicyFile     string
	StatusFile     string
	Workers        int
	RestoreDays    int
	RateLimit      float64
	AuditLog       bool
	Verbose        bool
}

// InitConfig initializes the configuration using Viper.
// Configuration priority: flags > env vars > config file > defaults.
func InitConfig(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("backend", "s3")
	v.SetDefault("output-format", "text")
	v.SetDefault("policy-file", ".migration-policies.json")
	v.SetDefault("status-file", ".migration-status.jsonl")
	v.SetDefault("workers", 8)
	v.SetDefault("restore-days", 7)

	// Set config file search paths
	if cfgFile != "" {
		// Use config file from the flag if provided
		v.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory and current directory
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".tiermigrate")
		v.SetConfigType("yaml")
	}

	// Bind environment variables
	v.SetEnvPrefix("TIERMIGRATE")
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return v, nil
}

// GetConfig extracts the configuration from Viper into a Config struct.
func GetConfig(v *viper.Viper) *Config {
	return &Config{
		Backend:        v.GetString("backend"),
		Region:         v.GetString("region"),
		Endpoint:       v.GetString("endpoint"),
		AccessKey:      v.GetString("access-key"),
		SecretKey:      v.GetString("secret-key"),
		ForcePathStyle: v.GetBool("force-path-style"),
		OutputFormat:   v.GetString("output-format"),
		PolicyFile:     v.GetString("policy-file"),
		StatusFile:     v.GetString("status-file"),
		Workers:        v.GetInt("workers"),
		RestoreDays:    v.GetInt("restore-days"),
		RateLimit:      v.GetFloat64("rate-limit"),
		AuditLog:       v.GetBool("audit-log"),
		Verbose:        v.GetBool("verbose"),
	}
}

// GetStorageSettings converts Config to storage client settings map.
func (c *Config) GetStorageSettings() map[string]string {
	settings := make(map[string]string)

	if c.Region != "" {
		settings["region"] = c.Region
	}
	if c.Endpoint != "" {
		settings["endpoint"] = c.Endpoint
	}
	if c.AccessKey != "" {
		settings["accessKey"] = c.AccessKey
	}
	if c.SecretKey != "" {
		settings["secretKey"] = c.SecretKey
	}
	if c.ForcePathStyle {
		settings["forcePathStyle"] = "true"
	}

	return settings
}

// ValidateConfig validates the configuration.
func ValidateConfig(cfg *Config) error {
	switch cfg.Backend {
	case "s3", "memory":
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.Backend)
	}

	if cfg.OutputFormat != "text" && cfg.OutputFormat != "json" && cfg.OutputFormat != "table" {
		return ErrUnsupportedOutputFormat
	}
	if cfg.Workers < 1 || cfg.Workers > 16 {
		return ErrInvalidWorkers
	}
	if cfg.RestoreDays < 1 {
		return ErrInvalidRestoreDays
	}

	return nil
}

// maskSecret masks sensitive information, showing only first 4 characters.
func maskSecret(s string) string {
	if len(s) < 5 {
		return "****"
	}
	return s[:4] + "****"
}

// DisplayConfig formats and displays the current configuration.
func DisplayConfig(cfg *Config, format string) string {
	switch format {
	case string(FormatJSON):
		return formatConfigJSON(cfg)
	default:
		return formatConfigText(cfg)
	}
}

func formatConfigText(cfg *Config) string {
	var result string
	result += fmt.Sprintf("Backend: %s\n", cfg.Backend)
	if cfg.Region != "" {
		result += fmt.Sprintf("Region: %s\n", cfg.Region)
	}
	if cfg.Endpoint != "" {
		result += fmt.Sprintf("Endpoint: %s\n", cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		result += fmt.Sprintf("Access Key: %s\n", maskSecret(cfg.AccessKey))
	}
	if cfg.SecretKey != "" {
		result += fmt.Sprintf("Secret Key: %s\n", maskSecret(cfg.SecretKey))
	}
	result += fmt.Sprintf("Policy File: %s\n", cfg.PolicyFile)
	result += fmt.Sprintf("Status File: %s\n", cfg.StatusFile)
	result += fmt.Sprintf("Workers: %d\n", cfg.Workers)
	result += fmt.Sprintf("Restore Days: %d\n", cfg.RestoreDays)
	result += fmt.Sprintf("Output Format: %s\n", cfg.OutputFormat)
	return result
}

func formatConfigJSON(cfg *Config) string {
	result := "{\n"
	result += fmt.Sprintf("  \"backend\": %q,\n", cfg.Backend)
	if cfg.Region != "" {
		result += fmt.Sprintf("  \"region\": %q,\n", cfg.Region)
	}
	if cfg.Endpoint != "" {
		result += fmt.Sprintf("  \"endpoint\": %q,\n", cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		result += fmt.Sprintf("  \"access_key\": %q,\n", maskSecret(cfg.AccessKey))
	}
	if cfg.SecretKey != "" {
		result += fmt.Sprintf("  \"secret_key\": %q,\n", maskSecret(cfg.SecretKey))
	}
	result += fmt.Sprintf("  \"policy_file\": %q,\n", cfg.PolicyFile)
	result += fmt.Sprintf("  \"status_file\": %q,\n", cfg.StatusFile)
	result += fmt.Sprintf("  \"workers\": %d,\n", cfg.Workers)
	result += fmt.Sprintf("  \"restore_days\": %d,\n", cfg.RestoreDays)
	result += fmt.Sprintf("  \"output_format\": %q\n", cfg.OutputFormat)
	result += "}\n"
	return result
}
