package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Init initializes the viper instance.
func Init() {
	v = viper.New()
}

// Viper returns the viper instance.
func Viper() *viper.Viper {
	return v
}

// Server configuration.
type Server struct {
	HTTP HTTPConfig `mapstructure:"http" yaml:"http"`
	GRPC GRPCConfig `mapstructure:"grpc" yaml:"grpc"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type GRPCConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Log configuration.
type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
	Path  string `mapstructure:"path" yaml:"path"`
	Debug bool   `mapstructure:"debug" yaml:"debug"`
}

// Skills configuration. Dir is the only setting the core requires;
// everything else tunes the executor.
type Skills struct {
	Dir           string        `mapstructure:"dir" yaml:"dir"`
	ExecTimeout   time.Duration `mapstructure:"exec_timeout" yaml:"exec_timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
}

// Config represents the application configuration.
type Config struct {
	Server Server `mapstructure:"server" yaml:"server"`
	Log    Log    `mapstructure:"log" yaml:"log"`
	Skills Skills `mapstructure:"skills" yaml:"skills"`
}

// LoadConfig loads configuration from viper and applies defaults. The
// skills root falls back to the SKILLS_DIR environment variable, then
// to ./skills.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := Viper().Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.Server.HTTP.Addr == "" {
		cfg.Server.HTTP.Addr = ":8080"
	}
	if cfg.Server.GRPC.Addr == "" {
		cfg.Server.GRPC.Addr = ":8081"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "INFO"
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = "./log"
	}
	if cfg.Skills.Dir == "" {
		if dir := os.Getenv("SKILLS_DIR"); dir != "" {
			cfg.Skills.Dir = dir
		} else {
			cfg.Skills.Dir = "./skills"
		}
	}
	if cfg.Skills.ExecTimeout <= 0 {
		cfg.Skills.ExecTimeout = 30 * time.Second
	}

	return cfg, nil
}
