package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LOGSTATS"

type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Report    ReportConfig    `mapstructure:"report"`
	Server    ServerConfig    `mapstructure:"server"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=trace debug info warn warning error fatal panic"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

type ProcessorConfig struct {
	MaxLineBytes int `mapstructure:"max_line_bytes" validate:"min=1"`
}

type ReportConfig struct {
	Format string `mapstructure:"format" validate:"required,oneof=text json csv"`
	Title  string `mapstructure:"title"`
}

// ServerConfig configures the optional HTTP surface. An empty Addr disables it.
type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	ReadTimeout     int    `mapstructure:"read_timeout" validate:"min=1"`     // seconds
	WriteTimeout    int    `mapstructure:"write_timeout" validate:"min=1"`    // seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" validate:"min=1"` // seconds
}

// Enabled reports whether the report server should be started
func (s ServerConfig) Enabled() bool {
	return s.Addr != ""
}

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"format":         "report.format",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"max-line-bytes": "processor.max_line_bytes",
	"serve":          "server.addr",
}

// RegisterFlags adds the configuration flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("format", "text", "report format: text, json or csv")
	fs.String("log-level", "warn", "diagnostic log level")
	fs.String("log-format", "text", "diagnostic log format: text or json")
	fs.Int("max-line-bytes", 1024*1024, "maximum length of a single log line")
	fs.String("serve", "", "after reporting, serve the report over HTTP on this address")
}

// LoadConfig resolves configuration from defaults, an optional config file,
// LOGSTATS_* environment variables and explicitly set flags, in increasing
// order of precedence. fs may be nil.
func LoadConfig(configPath string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// An explicitly named config file must exist.
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if flag := fs.Lookup(name); flag != nil && flag.Changed {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("error binding flag %q: %w", name, err)
				}
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	normalize(&config)

	// Validate config
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
	v.SetDefault("processor.max_line_bytes", 1024*1024)
	v.SetDefault("report.format", "text")
	v.SetDefault("report.title", "Apache Log Analyzer")
	v.SetDefault("server.addr", "")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.shutdown_timeout", 10)
}

// normalize lower-cases the enumerated settings so "JSON" and "json" are
// the same choice wherever they come from.
func normalize(config *Config) {
	config.Logging.Level = strings.ToLower(strings.TrimSpace(config.Logging.Level))
	config.Logging.Format = strings.ToLower(strings.TrimSpace(config.Logging.Format))
	config.Report.Format = strings.ToLower(strings.TrimSpace(config.Report.Format))
}

func validateConfig(config *Config) error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, formatValidationError(e))
		}
		return errors.New(strings.Join(msgs, ", "))
	}
	return nil
}

// formatValidationError renders "Config.Report.Format" style namespaces as "report.format"
func formatValidationError(e validator.FieldError) string {
	field := e.Field()
	if parts := strings.Split(e.StructNamespace(), "."); len(parts) >= 2 {
		field = strings.ToLower(strings.Join(parts[1:], "."))
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, e.Param(), fmt.Sprint(e.Value()))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, e.Tag())
	}
}
