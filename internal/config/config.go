package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mealcart/carecost-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Window   WindowConfig   `yaml:"window" mapstructure:"window"`
	Scope    string         `yaml:"scope" mapstructure:"scope"`
	Feeds    FeedsConfig    `yaml:"feeds" mapstructure:"feeds"`
	Taxonomy TaxonomyConfig `yaml:"taxonomy" mapstructure:"taxonomy"`
	Rollup   RollupConfig   `yaml:"rollup" mapstructure:"rollup"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// WindowConfig selects the analysis date window: either an explicit
// start/end pair or a rolling number of days ending yesterday.
type WindowConfig struct {
	Start       string `yaml:"start" mapstructure:"start"`
	End         string `yaml:"end" mapstructure:"end"`
	RollingDays int    `yaml:"rolling_days" mapstructure:"rolling_days"`
}

// Resolve computes the concrete window relative to now. An explicit
// start/end pair takes precedence over the rolling setting.
func (w WindowConfig) Resolve(now time.Time) (model.Window, error) {
	if w.Start != "" || w.End != "" {
		start, err := time.Parse("2006-01-02", w.Start)
		if err != nil {
			return model.Window{}, eris.Wrapf(err, "config: parse window.start %q", w.Start)
		}
		end, err := time.Parse("2006-01-02", w.End)
		if err != nil {
			return model.Window{}, eris.Wrapf(err, "config: parse window.end %q", w.End)
		}
		if end.Before(start) {
			return model.Window{}, eris.Errorf("config: window end %s before start %s", w.End, w.Start)
		}
		return model.Window{Start: start.UTC(), End: end.UTC()}, nil
	}

	if w.RollingDays <= 0 {
		return model.Window{}, eris.New("config: window requires start/end or rolling_days")
	}
	end := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	return model.Window{Start: end.AddDate(0, 0, -(w.RollingDays - 1)), End: end}, nil
}

// FeedsConfig locates the upstream dump files.
type FeedsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// TaxonomyConfig locates the optional external taxonomy file.
type TaxonomyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RollupConfig configures the grouping-dimension tuple.
type RollupConfig struct {
	Dimensions []string `yaml:"dimensions" mapstructure:"dimensions"`
}

// StoreConfig configures the optional result sink.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "", "sqlite", "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OutputConfig names the run's output files.
type OutputConfig struct {
	RowsPath  string `yaml:"rows_path" mapstructure:"rows_path"`
	AuditPath string `yaml:"audit_path" mapstructure:"audit_path"`
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
	v.SetConfigName("carecost")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CARECOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scope", "ghd")
	v.SetDefault("window.rolling_days", 30)
	v.SetDefault("feeds.dir", "feeds")
	v.SetDefault("rollup.dimensions", []string{"market_segment", "reason_group", "eta_care_reason"})
	v.SetDefault("store.driver", "")
	v.SetDefault("output.rows_path", "care_cost_rollup.json")
	v.SetDefault("output.audit_path", "care_cost_audit.json")
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
