// Package config loads the daemon's database settings.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	"github.com/smsforge/sqlback"
)

const (
	configName = "smsforge"
	configType = "yaml"
	envPrefix  = "SMSFORGE"

	// keyringService is the OS keyring service the daemon's setup tool
	// stores database passwords under.
	keyringService = "smsforge-db"
)

type fileConfig struct {
	Database databaseConfig `mapstructure:"database"`
}

type databaseConfig struct {
	Driver   string            `mapstructure:"driver"`
	Host     string            `mapstructure:"host"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Name     string            `mapstructure:"name"`
	Options  map[string]string `mapstructure:"options"`
}

// Load reads the database configuration. path names a config file
// directly; when empty, smsforge.yaml is looked up in /etc/smsforge
// and the working directory. SMSFORGE_* environment variables
// override file values. A missing password is looked up in the OS
// keyring under the configured user.
func Load(path string) (sqlback.Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath("/etc/smsforge")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.driver", "odbc")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return sqlback.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	fc := fileConfig{}
	if err := v.Unmarshal(&fc); err != nil {
		return sqlback.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg := sqlback.Config{
		Driver:   fc.Database.Driver,
		Host:     fc.Database.Host,
		User:     fc.Database.User,
		Password: fc.Database.Password,
		Database: fc.Database.Name,
		Options:  fc.Database.Options,
	}

	if cfg.Password == "" && cfg.User != "" {
		// failure just means the password stays empty, which some
		// backends accept
		if pw, err := keyring.Get(keyringService, cfg.User); err == nil {
			cfg.Password = pw
		}
	}

	return cfg, nil
}
