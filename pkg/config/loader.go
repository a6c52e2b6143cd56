// Package config provides simple configuration loading
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form used by the CLI: one YAML document holding
// any number of data source configurations.
type File struct {
	DataSources []*Config `yaml:"datasources" json:"datasources"`
}

// Load loads a configuration from a YAML file
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Substitute environment variables
	content := string(data)
	content = substituteEnvVars(content)

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadFile loads and validates every data source configuration in a
// YAML file. Absent fields take the defaults from New.
func LoadFile(filePath string) ([]*Config, error) {
	var file File
	if err := Load(filePath, &file); err != nil {
		return nil, err
	}
	if len(file.DataSources) == 0 {
		return nil, fmt.Errorf("no datasources defined in %s", filePath)
	}

	for _, cfg := range file.DataSources {
		applyDefaults(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("datasource %q: %w", cfg.Name, err)
		}
	}
	return file.DataSources, nil
}

// applyDefaults fills zero-valued fields from the New defaults. YAML
// unmarshals into a zero Config, so absent keys land here as zeroes.
func applyDefaults(cfg *Config) {
	defaults := New(cfg.Name)
	if cfg.Properties == nil {
		cfg.Properties = make(Properties)
	}
	if cfg.Pool.Capacity == 0 {
		cfg.Pool.Capacity = defaults.Pool.Capacity
	}
	if cfg.Pool.BorrowTimeout == 0 {
		cfg.Pool.BorrowTimeout = defaults.Pool.BorrowTimeout
	}
	if cfg.Timeouts.Connect == 0 {
		cfg.Timeouts.Connect = defaults.Timeouts.Connect
	}
	if cfg.Timeouts.Validate == 0 {
		cfg.Timeouts.Validate = defaults.Timeouts.Validate
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
