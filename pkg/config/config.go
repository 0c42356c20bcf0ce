package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rycus86/startpage-departures/pkg/timetables"
	"gopkg.in/yaml.v3"

	_ "time/tzdata"
)

const envPrefix = "STARTPAGE_"

const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	Listen   string `yaml:"listen"`
	Location string `yaml:"location"`

	Timetable TimetableConfig `yaml:"timetable"`
	Store     StoreConfig     `yaml:"store"`
}

// TimetableConfig selects where the timetable comes from (a file, a URL, or
// the bundled one when both are empty) and the scheduling constants.
type TimetableConfig struct {
	File   string `yaml:"file"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`

	GracePeriod        Duration `yaml:"grace_period"`
	CatchabilityWindow Duration `yaml:"catchability_window"`
	LeadTime           Duration `yaml:"lead_time"`
	RefreshInterval    Duration `yaml:"refresh_interval"`
}

type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`

	RedisAddress  string `yaml:"redis_address"`
	RedisPassword string `yaml:"redis_password"`
	RedisDatabase int    `yaml:"redis_database"`
	RedisKey      string `yaml:"redis_key"`
}

// Duration accepts Go duration strings ("10m", "15s") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func Default() *Config {
	return &Config{
		Listen:   ":8080",
		Location: "Local",
		Timetable: TimetableConfig{
			GracePeriod:        Duration(timetables.DefaultGracePeriod),
			CatchabilityWindow: Duration(timetables.DefaultCatchabilityWindow),
			LeadTime:           Duration(timetables.DefaultLeadTime),
			RefreshInterval:    Duration(timetables.DefaultRefreshInterval),
		},
		Store: StoreConfig{
			Kind:         StoreFile,
			Path:         "userdata.json",
			RedisAddress: "localhost:6379",
		},
	}
}

// Load reads the optional .env files and YAML file, then applies environment
// overrides on top of the defaults.
func Load(path string, envFiles ...string) (*Config, error) {
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := Default()

	if path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}

		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.applyEnvironment(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnvironment() error {
	setString(&c.Listen, "LISTEN")
	setString(&c.Location, "LOCATION")

	setString(&c.Timetable.File, "TIMETABLE_FILE")
	setString(&c.Timetable.URL, "TIMETABLE_URL")
	setString(&c.Timetable.APIKey, "API_KEY")

	durations := map[string]*Duration{
		"GRACE_PERIOD":        &c.Timetable.GracePeriod,
		"CATCHABILITY_WINDOW": &c.Timetable.CatchabilityWindow,
		"LEAD_TIME":           &c.Timetable.LeadTime,
		"REFRESH_INTERVAL":    &c.Timetable.RefreshInterval,
	}
	for key, target := range durations {
		if value := os.Getenv(envPrefix + key); value != "" {
			parsed, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
			}
			*target = Duration(parsed)
		}
	}

	setString(&c.Store.Kind, "STORE")
	setString(&c.Store.Path, "STORE_PATH")
	setString(&c.Store.RedisAddress, "REDIS_ADDRESS")
	setString(&c.Store.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Store.RedisKey, "REDIS_KEY")

	if value := os.Getenv(envPrefix + "REDIS_DATABASE"); value != "" {
		database, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %sREDIS_DATABASE: %w", envPrefix, err)
		}
		c.Store.RedisDatabase = database
	}

	return nil
}

func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store %s needs a path", c.Store.Kind)
		}
	case StoreRedis:
		if c.Store.RedisAddress == "" {
			return errors.New("store redis needs an address")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}

	if c.Timetable.GracePeriod < 0 || c.Timetable.CatchabilityWindow < 0 || c.Timetable.LeadTime < 0 {
		return errors.New("timetable durations must not be negative")
	}

	if _, err := c.LoadLocation(); err != nil {
		return err
	}

	return nil
}

func (c *Config) LoadLocation() (*time.Location, error) {
	location, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", c.Location, err)
	}

	return location, nil
}

func (c *Config) Policy() timetables.Policy {
	return timetables.Policy{
		GracePeriod:        c.Timetable.GracePeriod.Std(),
		CatchabilityWindow: c.Timetable.CatchabilityWindow.Std(),
		LeadTime:           c.Timetable.LeadTime.Std(),
	}
}

func setString(target *string, key string) {
	if value := os.Getenv(envPrefix + key); value != "" {
		*target = value
	}
}
