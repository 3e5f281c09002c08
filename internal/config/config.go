package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultFile = "coursekeep.yaml"

type Config struct {
	DownloadDir string        `mapstructure:"download_dir" yaml:"download_dir"`
	APIHost     string        `mapstructure:"api_host" yaml:"api_host"`
	Workers     int           `mapstructure:"workers" yaml:"workers"`
	Connections int           `mapstructure:"connections" yaml:"connections"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	AccessToken string        `mapstructure:"access_token" yaml:"access_token"`
	Retries     int           `mapstructure:"retries" yaml:"retries"`
	Proxy       string        `mapstructure:"proxy" yaml:"proxy"`
	Headers     []string      `mapstructure:"headers" yaml:"headers"`
	S3          S3Config      `mapstructure:"s3" yaml:"s3"`
	Serve       ServeConfig   `mapstructure:"serve" yaml:"serve"`
	Log         LogConfig     `mapstructure:"log" yaml:"log"`
}

type S3Config struct {
	Profile      string `mapstructure:"profile" yaml:"profile"`
	MirrorBucket string `mapstructure:"mirror_bucket" yaml:"mirror_bucket"`
	MirrorPrefix string `mapstructure:"mirror_prefix" yaml:"mirror_prefix"`
}

type ServeConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Load reads path, or coursekeep.yaml in the working directory when path is
// empty. A missing default file is fine; a missing explicit file is not.
// COURSEKEEP_* environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("download_dir", ".")
	v.SetDefault("api_host", "")
	v.SetDefault("workers", 2)
	v.SetDefault("connections", 4)
	v.SetDefault("timeout", 3*time.Minute)
	v.SetDefault("access_token", "")
	v.SetDefault("retries", 3)
	v.SetDefault("proxy", "")
	v.SetDefault("headers", []string{})
	v.SetDefault("s3.profile", "")
	v.SetDefault("s3.mirror_bucket", "")
	v.SetDefault("s3.mirror_prefix", "")
	v.SetDefault("serve.port", "8080")
	v.SetDefault("log.level", "info")

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	v.SetEnvPrefix("COURSEKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DownloadDir == "" {
		return errors.New("download_dir must not be empty")
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Connections <= 0 {
		c.Connections = 1
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.S3.MirrorPrefix != "" && c.S3.MirrorBucket == "" {
		return errors.New("s3.mirror_prefix requires s3.mirror_bucket")
	}
	return nil
}
