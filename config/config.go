// Package config loads the settings of a yardsim run from a YAML file, an
// optional .env file, and YARDSIM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/yardsim/scheduler"
	"github.com/sarchlab/yardsim/yard"
)

// EnvPrefix starts the name of every environment variable read by ApplyEnv.
const EnvPrefix = "YARDSIM_"

// Config holds the settings of a run.
type Config struct {
	Width     int             `yaml:"width"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Log       LogConfig       `yaml:"log"`
	Recording RecordingConfig `yaml:"recording"`
	Monitor   MonitorConfig   `yaml:"monitor"`
}

// StrategyConfig tunes the scheduler.
type StrategyConfig struct {
	Name        string  `yaml:"name"`
	MoneyWeight float64 `yaml:"money_weight"`
	CountWeight float64 `yaml:"count_weight"`
	Threshold   float64 `yaml:"threshold"`
	SizeClasses int     `yaml:"size_classes"`
}

// LogConfig tells where the event log goes.
type LogConfig struct {
	Path    string `yaml:"path"`
	Verbose bool   `yaml:"verbose"`
}

// RecordingConfig mirrors the event log into a database.
type RecordingConfig struct {
	Enabled    bool             `yaml:"enabled"`
	Name       string           `yaml:"name"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// ClickHouseConfig selects a ClickHouse server instead of SQLite when Host
// is set.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MonitorConfig controls the HTTP monitor.
type MonitorConfig struct {
	Enabled     bool `yaml:"enabled"`
	Port        int  `yaml:"port"`
	OpenBrowser bool `yaml:"open_browser"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	p := scheduler.DefaultParams()

	return Config{
		Width: 20,
		Strategy: StrategyConfig{
			Name:        p.Name,
			MoneyWeight: p.MoneyWeight,
			CountWeight: p.CountWeight,
			Threshold:   p.Threshold,
			SizeClasses: p.SizeClasses,
		},
		Log: LogConfig{
			Path: "log.txt",
		},
		Recording: RecordingConfig{
			ClickHouse: ClickHouseConfig{
				Port:     9000,
				Database: "default",
				Username: "default",
			},
		},
	}
}

// Params returns the scheduler parameters.
func (c Config) Params() scheduler.Params {
	return scheduler.Params{
		Name:        c.Strategy.Name,
		MoneyWeight: c.Strategy.MoneyWeight,
		CountWeight: c.Strategy.CountWeight,
		Threshold:   c.Strategy.Threshold,
		SizeClasses: c.Strategy.SizeClasses,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("%w: width must be positive, got %d",
			yard.ErrTypeMismatch, c.Width)
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		return fmt.Errorf("%w: invalid monitor port %d",
			yard.ErrTypeMismatch, c.Monitor.Port)
	}

	return c.Params().Validate()
}

// Load reads a YAML file on top of the defaults. Fields absent from the file
// keep their default value.
func Load(path string) (Config, error) {
	c := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}

	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w: %v", path, yard.ErrTypeMismatch, err)
	}

	return c, nil
}

// Resolve builds the settings of a run. The YAML file is optional. Variables
// from envFile are used only when the environment does not set them.
func Resolve(path, envFile string) (Config, error) {
	c := Default()

	if path != "" {
		var err error

		c, err = Load(path)
		if err != nil {
			return c, err
		}
	}

	env, err := readEnvFile(envFile)
	if err != nil {
		return c, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}

		v, ok := env[key]

		return v, ok
	}

	if err := ApplyEnv(&c, lookup); err != nil {
		return c, err
	}

	return c, c.Validate()
}

func readEnvFile(envFile string) (map[string]string, error) {
	if envFile == "" {
		return nil, nil
	}

	env, err := godotenv.Read(envFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	return env, err
}

// ApplyEnv overrides the settings with the YARDSIM_* variables found by
// lookup.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) error {
	p := envParser{lookup: lookup}

	p.setInt("WIDTH", &c.Width)
	p.setString("STRATEGY", &c.Strategy.Name)
	p.setFloat("MONEY_WEIGHT", &c.Strategy.MoneyWeight)
	p.setFloat("COUNT_WEIGHT", &c.Strategy.CountWeight)
	p.setFloat("THRESHOLD", &c.Strategy.Threshold)
	p.setInt("SIZE_CLASSES", &c.Strategy.SizeClasses)
	p.setString("LOG", &c.Log.Path)
	p.setBool("VERBOSE", &c.Log.Verbose)
	p.setBool("RECORD", &c.Recording.Enabled)
	p.setString("DB", &c.Recording.Name)
	p.setString("CLICKHOUSE_HOST", &c.Recording.ClickHouse.Host)
	p.setInt("CLICKHOUSE_PORT", &c.Recording.ClickHouse.Port)
	p.setString("CLICKHOUSE_DATABASE", &c.Recording.ClickHouse.Database)
	p.setString("CLICKHOUSE_USERNAME", &c.Recording.ClickHouse.Username)
	p.setString("CLICKHOUSE_PASSWORD", &c.Recording.ClickHouse.Password)
	p.setBool("MONITOR", &c.Monitor.Enabled)
	p.setInt("MONITOR_PORT", &c.Monitor.Port)
	p.setBool("OPEN_BROWSER", &c.Monitor.OpenBrowser)

	return p.err
}

type envParser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *envParser) get(name string) (string, string, bool) {
	if p.err != nil {
		return "", "", false
	}

	key := EnvPrefix + name
	v, ok := p.lookup(key)

	return key, v, ok
}

func (p *envParser) fail(key, v string, err error) {
	p.err = fmt.Errorf("%w: %s=%q: %v", yard.ErrTypeMismatch, key, v, err)
}

func (p *envParser) setString(name string, dst *string) {
	if _, v, ok := p.get(name); ok {
		*dst = v
	}
}

func (p *envParser) setInt(name string, dst *int) {
	key, v, ok := p.get(name)
	if !ok {
		return
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}

	*dst = n
}

func (p *envParser) setFloat(name string, dst *float64) {
	key, v, ok := p.get(name)
	if !ok {
		return
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return
	}

	*dst = f
}

func (p *envParser) setBool(name string, dst *bool) {
	key, v, ok := p.get(name)
	if !ok {
		return
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}

	*dst = b
}
