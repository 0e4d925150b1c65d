// Package config loads keyforge settings from an optional YAML file, a .env file and
// KEYFORGE_ environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/joncooperworks/keyforge/crypto/keystore"
)

type Config struct {
	Log struct {
		// Level is a zerolog level name.
		Level string `mapstructure:"level"`
		// Format is auto, console or json.
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Executor struct {
		Workers int `mapstructure:"workers"`
		// Timeout bounds a single operation. Zero disables it.
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"executor"`

	Keystore struct {
		Backend  string `mapstructure:"backend"`
		Service  string `mapstructure:"service"`
		FileDir  string `mapstructure:"file_dir"`
		Password string `mapstructure:"password"`
	} `mapstructure:"keystore"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// ConfigFile is an explicit config file. When empty, keyforge.yaml is searched
	// in the working directory and $HOME/.config/keyforge, and a missing file is not an error.
	ConfigFile string
	// EnvFile is a dotenv file loaded before the environment is read. Defaults to ".env".
	// A missing file is not an error.
	EnvFile string
}

// Load reads the configuration.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KEYFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("keyforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/keyforge")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Executor.Workers <= 0 {
		return nil, fmt.Errorf("executor.workers must be positive, got %d", cfg.Executor.Workers)
	}
	if cfg.Executor.Timeout < 0 {
		return nil, fmt.Errorf("executor.timeout cannot be negative, got %s", cfg.Executor.Timeout)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
	v.SetDefault("executor.workers", runtime.GOMAXPROCS(0))
	v.SetDefault("executor.timeout", time.Duration(0))
	v.SetDefault("keystore.backend", "keyring")
	v.SetDefault("keystore.service", "keyforge")
	v.SetDefault("keystore.file_dir", "")
	v.SetDefault("keystore.password", "")
}

// KeystoreConfig converts the keystore section into a keystore.Config.
func (c *Config) KeystoreConfig() keystore.Config {
	return keystore.Config{
		Backend:     c.Keystore.Backend,
		ServiceName: c.Keystore.Service,
		FileDir:     c.Keystore.FileDir,
		Password:    c.Keystore.Password,
	}
}
