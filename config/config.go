package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/plot/vg"

	"github.com/zalepa/infractions/dataset"
	"github.com/zalepa/infractions/pages"
	"github.com/zalepa/infractions/render"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Map      MapConfig      `yaml:"map" mapstructure:"map"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Render   RenderConfig   `yaml:"render" mapstructure:"render"`
	Download DownloadConfig `yaml:"download" mapstructure:"download"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the datasets. Each location is a path relative to Dir,
// an absolute path or an http(s) URL. An empty location disables the dataset.
type DataConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	Q1         string `yaml:"q1" mapstructure:"q1"`
	Q2         string `yaml:"q2" mapstructure:"q2"`
	Efficiency string `yaml:"efficiency" mapstructure:"efficiency"`
	Q3         string `yaml:"q3" mapstructure:"q3"`
	Q4         string `yaml:"q4" mapstructure:"q4"`
	Final      string `yaml:"final" mapstructure:"final"`
}

// MapConfig configures the region shapefile. Without one, maps fall back to
// capital-city markers.
type MapConfig struct {
	Boundaries string `yaml:"boundaries" mapstructure:"boundaries"`
	NameField  string `yaml:"name_field" mapstructure:"name_field"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// RenderConfig sets the size of saved charts, in inches.
type RenderConfig struct {
	WidthIn  float64 `yaml:"width_in" mapstructure:"width_in"`
	HeightIn float64 `yaml:"height_in" mapstructure:"height_in"`
}

// DownloadConfig configures the dataset downloader.
type DownloadConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
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
	v.SetEnvPrefix("INFRACTIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.q1", "Q1.csv")
	v.SetDefault("data.q2", "Q2.csv")
	v.SetDefault("data.efficiency", "state_efficiency_index.csv")
	v.SetDefault("data.q3", "Q3DATA.csv")
	v.SetDefault("data.q4", "Q4DATA.csv")
	v.SetDefault("data.final", "final.csv")
	v.SetDefault("map.boundaries", "")
	v.SetDefault("map.name_field", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("render.width_in", 10)
	v.SetDefault("render.height_in", 6)
	v.SetDefault("download.base_url", "")
	v.SetDefault("download.rate_per_sec", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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

// Validate checks the settings a command depends on.
func (c *Config) Validate(command string) error {
	var missing []string
	switch command {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			missing = append(missing, "server.port must be between 1 and 65535")
		}
	case "download":
		if c.Download.BaseURL == "" {
			missing = append(missing, "download.base_url is required")
		}
		if c.Download.RatePerSec <= 0 {
			missing = append(missing, "download.rate_per_sec must be positive")
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// Sources resolves the dataset locations for the pages.
func (c DataConfig) Sources() pages.Sources {
	locate := func(location string) dataset.Source {
		if location == "" {
			return nil
		}
		return dataset.Locate(c.Dir, location)
	}
	return pages.Sources{
		Monthly:        locate(c.Q1),
		MonthlyByYear:  locate(c.Q2),
		Efficiency:     locate(c.Efficiency),
		Detection:      locate(c.Q3),
		AgeOffences:    locate(c.Q4),
		AgeInfractions: locate(c.Final),
	}
}

// Files lists the configured dataset file names, skipping URLs and blanks.
func (c DataConfig) Files() []string {
	var out []string
	for _, f := range []string{c.Q1, c.Q2, c.Efficiency, c.Q3, c.Q4, c.Final} {
		if f == "" || strings.HasPrefix(f, "http://") || strings.HasPrefix(f, "https://") {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Size returns the chart size, or the default when unset.
func (c RenderConfig) Size() render.Size {
	if c.WidthIn <= 0 || c.HeightIn <= 0 {
		return render.DefaultSize
	}
	return render.Size{
		Width:  vg.Length(c.WidthIn) * vg.Inch,
		Height: vg.Length(c.HeightIn) * vg.Inch,
	}
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
