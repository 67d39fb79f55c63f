package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DatasetConfig locates and describes the land-cover dataset tree. Root
// contains one subdirectory per vintage year. SRID is the reference system
// assumed for shapefile vintages (geopackages carry their own).
type DatasetConfig struct {
	Root      string `yaml:"root" mapstructure:"root"`
	SRID      int    `yaml:"srid" mapstructure:"srid"`
	CodeField string `yaml:"code_field" mapstructure:"code_field"`
}

// ExtractConfig configures buffer-composition extraction.
type ExtractConfig struct {
	RadiusMeters          float64 `yaml:"radius_m" mapstructure:"radius_m"`
	Segments              int     `yaml:"segments" mapstructure:"segments"`
	PointsSRID            int     `yaml:"points_srid" mapstructure:"points_srid"`
	MaxConcurrentVintages int     `yaml:"max_concurrent_vintages" mapstructure:"max_concurrent_vintages"`
}

// FetchConfig configures vintage archive downloads.
type FetchConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BytesPerSec int `yaml:"bytes_per_sec" mapstructure:"bytes_per_sec"`
}

// StoreConfig configures the extraction run store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LANDCOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a natural default still get one so that
	// AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("dataset.root", "")
	v.SetDefault("dataset.srid", 3035)
	v.SetDefault("dataset.code_field", "")
	v.SetDefault("extract.radius_m", 250.0)
	v.SetDefault("extract.segments", 64)
	v.SetDefault("extract.points_srid", 4326)
	v.SetDefault("extract.max_concurrent_vintages", 2)
	v.SetDefault("fetch.timeout_secs", 120)
	v.SetDefault("fetch.bytes_per_sec", 0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "landcover.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
