package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Feed modes.
const (
	// ModeFilter applies exclusions and writes the survivors.
	ModeFilter = "filter"
	// ModePaged applies exclusions, dedupes each market once and pages the result.
	ModePaged = "paged"
	// ModePasses applies exclusions and emits one template per dedupe pass.
	ModePasses = "passes"
)

// Config holds the full application configuration.
type Config struct {
	Log    LogConfig             `yaml:"log" mapstructure:"log"`
	Output OutputConfig          `yaml:"output" mapstructure:"output"`
	Dedupe DedupeConfig          `yaml:"dedupe" mapstructure:"dedupe"`
	Feeds  map[string]FeedConfig `yaml:"feeds" mapstructure:"feeds"`
}

// OutputConfig configures where templates are written.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	GeoJSON bool   `yaml:"geojson" mapstructure:"geojson"`
}

// DedupeConfig tunes the dedupe engine.
type DedupeConfig struct {
	Workers     int `yaml:"workers" mapstructure:"workers"`
	ParallelMin int `yaml:"parallel_min" mapstructure:"parallel_min"`
	LoadWorkers int `yaml:"load_workers" mapstructure:"load_workers"`
}

// FeedConfig describes one input feed and how its templates are produced.
type FeedConfig struct {
	Input           string        `yaml:"input" mapstructure:"input"`
	Mode            string        `yaml:"mode" mapstructure:"mode"`
	Sheet           string        `yaml:"sheet" mapstructure:"sheet"`
	HeaderRow       int           `yaml:"header_row" mapstructure:"header_row"`
	Delimiter       string        `yaml:"delimiter" mapstructure:"delimiter"`
	Charset         string        `yaml:"charset" mapstructure:"charset"`
	Columns         ColumnsConfig `yaml:"columns" mapstructure:"columns"`
	MarketDelimiter string        `yaml:"market_delimiter" mapstructure:"market_delimiter"`
	MarketToken     int           `yaml:"market_token" mapstructure:"market_token"`
	Exclusions      string        `yaml:"exclusions" mapstructure:"exclusions"`
	ThresholdMiles  float64       `yaml:"threshold_miles" mapstructure:"threshold_miles"`
	MaxPasses       int           `yaml:"max_passes" mapstructure:"max_passes"`
	PageSize        int           `yaml:"page_size" mapstructure:"page_size"`
	OutputPrefix    string        `yaml:"output_prefix" mapstructure:"output_prefix"`
}

// ColumnsConfig maps point fields to source column names.
type ColumnsConfig struct {
	ID        string   `yaml:"id" mapstructure:"id"`
	Name      string   `yaml:"name" mapstructure:"name"`
	Address   string   `yaml:"address" mapstructure:"address"`
	City      string   `yaml:"city" mapstructure:"city"`
	State     string   `yaml:"state" mapstructure:"state"`
	Zip       string   `yaml:"zip" mapstructure:"zip"`
	Latitude  string   `yaml:"latitude" mapstructure:"latitude"`
	Longitude string   `yaml:"longitude" mapstructure:"longitude"`
	Market    string   `yaml:"market" mapstructure:"market"`
	Priority  []string `yaml:"priority" mapstructure:"priority"`
}

// Validate checks a feed's mode-specific settings.
func (f FeedConfig) Validate() error {
	switch f.Mode {
	case ModeFilter:
	case ModePaged, ModePasses:
		if f.ThresholdMiles < 0 {
			return eris.Errorf("config: threshold_miles must be >= 0, got %v", f.ThresholdMiles)
		}
	default:
		return eris.Errorf("config: unknown mode %q (want %s, %s or %s)", f.Mode, ModeFilter, ModePaged, ModePasses)
	}
	if f.Input == "" {
		return eris.New("config: input is required")
	}
	if f.OutputPrefix == "" {
		return eris.New("config: output_prefix is required")
	}
	if f.PageSize < 0 {
		return eris.Errorf("config: page_size must be >= 0, got %d", f.PageSize)
	}
	return nil
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
	v.SetEnvPrefix("SEARCHTEMPLATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("output.dir", "Output")
	v.SetDefault("output.geojson", false)
	v.SetDefault("dedupe.workers", 0)
	v.SetDefault("dedupe.parallel_min", 512)
	v.SetDefault("dedupe.load_workers", 4)
	setFeedDefaults(v)

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

// setFeedDefaults registers the built-in feeds: the Arrow property
// inventory export and the Omni comp report in its iterative and simple
// paged forms.
func setFeedDefaults(v *viper.Viper) {
	v.SetDefault("feeds.arrow.input", "Data/Properties")
	v.SetDefault("feeds.arrow.mode", ModeFilter)
	v.SetDefault("feeds.arrow.sheet", "Property Inventory")
	v.SetDefault("feeds.arrow.header_row", 2)
	v.SetDefault("feeds.arrow.exclusions", "exclusions/arrow.yaml")
	v.SetDefault("feeds.arrow.output_prefix", "ArrowSearchTemplate")
	v.SetDefault("feeds.arrow.columns.id", "Property ID")
	v.SetDefault("feeds.arrow.columns.name", "Property Name")
	v.SetDefault("feeds.arrow.columns.address", "Property Address")
	v.SetDefault("feeds.arrow.columns.city", "City")
	v.SetDefault("feeds.arrow.columns.state", "State")
	v.SetDefault("feeds.arrow.columns.zip", "Zip Code")
	v.SetDefault("feeds.arrow.columns.latitude", "Latitude")
	v.SetDefault("feeds.arrow.columns.longitude", "Longitude")

	for _, name := range []string{"omni", "omni-paged"} {
		prefix := "feeds." + name + "."
		v.SetDefault(prefix+"input", "Data/Omni Major Market Comps.csv")
		v.SetDefault(prefix+"output_prefix", "OmniSearchTemplate")
		v.SetDefault(prefix+"columns.id", "Id")
		v.SetDefault(prefix+"columns.name", "Name")
		v.SetDefault(prefix+"columns.address", "Address")
		v.SetDefault(prefix+"columns.city", "City")
		v.SetDefault(prefix+"columns.state", "State")
		v.SetDefault(prefix+"columns.zip", "Zip")
		v.SetDefault(prefix+"columns.latitude", "Latitude.1")
		v.SetDefault(prefix+"columns.longitude", "Longitude.1")
		v.SetDefault(prefix+"columns.market", "FacilityName")
		v.SetDefault(prefix+"columns.priority", []string{"ALExistingBeds", "ILExistingBeds", "MCExistingBeds"})
	}

	v.SetDefault("feeds.omni.mode", ModePasses)
	v.SetDefault("feeds.omni.market_delimiter", ",")
	v.SetDefault("feeds.omni.market_token", 1)
	v.SetDefault("feeds.omni.threshold_miles", 10.5)
	v.SetDefault("feeds.omni.max_passes", 15)

	v.SetDefault("feeds.omni-paged.mode", ModePaged)
	v.SetDefault("feeds.omni-paged.threshold_miles", 1.0)
	v.SetDefault("feeds.omni-paged.page_size", 2000)
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
