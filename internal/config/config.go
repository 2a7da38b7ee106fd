// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of every environment override, e.g. MEDTRACKER_WEBSERVER_PORT.
	EnvPrefix = "MEDTRACKER"

	// EnvConfigJSON holds a JSON document merged over the file configuration.
	EnvConfigJSON = EnvPrefix + "_CONFIG_JSON"

	// FileName is the main configuration file inside the config directory.
	FileName = "main.toml"

	// EngineSQLite selects the pure go sqlite driver.
	EngineSQLite = "sqlite"
	// EngineMySQL selects the gorm mysql driver.
	EngineMySQL = "mysql"
	// EnginePostgres selects the gorm postgres driver.
	EnginePostgres = "postgres"

	// RedactedValue replaces secrets in configuration dumps.
	RedactedValue = "******"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, FileName))
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "medtracker")
	v.SetDefault("db.gormEngine", EngineSQLite)
	v.SetDefault("db.name", "medtracker.db")
	v.SetDefault("webserver.port", 5000) //nolint:mnd
	v.SetDefault("webserver.shutDownTime", 5) //nolint:mnd
	v.SetDefault("webserver.metricsPath", "/metrics")
	v.SetDefault("webserver.rateLimit.max", 120) //nolint:mnd
	v.SetDefault("webserver.rateLimit.expiration", time.Minute)
	v.SetDefault("webserver.rateLimit.table", "rate_limits")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.spec", "5 0 * * *")
	v.SetDefault("scheduler.runOnStart", true)
	v.SetDefault("log.logLevel", "info")
	v.SetDefault("log.appName", "medtracker")
	v.SetDefault("log.serviceName", "medtracker")
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read json config override")
	}

	return c, nil
}

// Redacted returns a copy of c with the database password and the
// datadog API key masked. Empty secrets stay empty.
func Redacted(c *Config) Config {
	r := *c

	if r.DB.Password != "" {
		r.DB.Password = RedactedValue
	}

	if r.Log.DataDog.APIKey != "" {
		r.Log.DataDog.APIKey = RedactedValue
	}

	return r
}

// DumpConfig config as TOML String, secrets redacted.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(Redacted(c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String, secrets redacted.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(Redacted(c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon can not start without
// and fills in the remaining defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	switch c.DB.GormEngine {
	case EngineSQLite, EngineMySQL, EnginePostgres:
	case "":
		c.DB.GormEngine = EngineSQLite
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	if c.DB.Name == "" {
		return errors.Wrap(ErrEmptyDBName, invalidErrMessage)
	}

	if c.Scheduler.Enabled && c.Scheduler.Spec == "" {
		return errors.Wrap(ErrEmptySchedulerSpec, invalidErrMessage)
	}

	return nil
}
