// Package config reads the optional ingest.yaml project file. Values in the
// file sit between environment variables and built-in defaults in the
// precedence order.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Username           string `yaml:"username"`
	Database           string `yaml:"database"`
	ManagementDatabase string `yaml:"management_database,omitempty"`
	SSLMode            string `yaml:"sslmode"`
	AuthMethod         string `yaml:"auth_method,omitempty"`
	AzureTenantID      string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID      string `yaml:"azure_client_id,omitempty"`
	AWSRegion          string `yaml:"aws_region,omitempty"`
	GoogleInstance     string `yaml:"google_instance,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	TableName  string           `yaml:"table_name"`
	URL        string           `yaml:"url"`
	ChunkSize  int64            `yaml:"chunk_size"`
	Timeout    string           `yaml:"timeout"`
	Target     string           `yaml:"target"`
	Format     string           `yaml:"format"`
	Downloader string           `yaml:"downloader"`
}

const ConfigFileName = "ingest.yaml"

// Load reads ConfigFileName from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a project config from an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
