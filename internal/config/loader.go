// Package config loads application configuration from an optional YAML
// file with environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rpattn/regwatch/internal/db"
	"github.com/rpattn/regwatch/internal/detector"
	"github.com/rpattn/regwatch/internal/domain"
)

// Config is the full application configuration.
type Config struct {
	Server        ServerConfig     `mapstructure:"server"`
	Database      db.Config        `mapstructure:"database"`
	Data          DataConfig       `mapstructure:"data"`
	TrackedFields []string         `mapstructure:"tracked_fields"`
	LogLevel      string           `mapstructure:"log_level"`
	Enrichment    EnrichmentConfig `mapstructure:"enrichment"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DataConfig names the artifact directories.
type DataConfig struct {
	RawDir        string `mapstructure:"raw_dir"`
	SnapshotsDir  string `mapstructure:"snapshots_dir"`
	ChangeLogsDir string `mapstructure:"change_logs_dir"`
	SummariesDir  string `mapstructure:"summaries_dir"`
	EnrichedDir   string `mapstructure:"enriched_dir"`
}

// EnrichmentConfig holds the enrichment batch settings.
type EnrichmentConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads config.yaml from configPath, applying defaults first and
// environment overrides (prefix REGWATCH) last. A missing config file is
// fine; defaults plus environment carry a full configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("REGWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, field := range cfg.TrackedFields {
		if !validTrackedField(field) {
			return nil, fmt.Errorf("unknown tracked field %q", field)
		}
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	dbDefaults := db.DefaultConfig()
	v.SetDefault("database.host", dbDefaults.Host)
	v.SetDefault("database.port", dbDefaults.Port)
	v.SetDefault("database.user", dbDefaults.User)
	v.SetDefault("database.password", dbDefaults.Password)
	v.SetDefault("database.dbname", dbDefaults.DBName)
	v.SetDefault("database.sslmode", dbDefaults.SSLMode)

	v.SetDefault("data.raw_dir", "data/raw")
	v.SetDefault("data.snapshots_dir", "data/snapshots")
	v.SetDefault("data.change_logs_dir", "data/change_logs")
	v.SetDefault("data.summaries_dir", "data/summaries")
	v.SetDefault("data.enriched_dir", "data/enriched")

	v.SetDefault("tracked_fields", detector.DefaultTrackedFields())
	v.SetDefault("log_level", "info")
	v.SetDefault("enrichment.concurrency", 3)
}

// Any canonical field other than the identity key can be tracked.
func validTrackedField(field string) bool {
	if field == domain.FieldCIN {
		return false
	}
	for _, name := range domain.CanonicalFieldNames() {
		if name == field {
			return true
		}
	}
	return false
}
