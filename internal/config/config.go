package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/phonginreallife/sentinel/internal/scheduler"
)

// Config holds all application configuration
type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	Store       StoreConfig       `mapstructure:"store"`
	Collections CollectionsConfig `mapstructure:"collections"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Auth        AuthConfig        `mapstructure:"auth"`
}

type StoreConfig struct {
	Backend     string        `mapstructure:"backend"` // bleve, postgres
	IndexPath   string        `mapstructure:"index_path"`
	DatabaseURL string        `mapstructure:"database_url"`
	RedisURL    string        `mapstructure:"redis_url"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// CollectionsConfig names the collection each resource lives in.
type CollectionsConfig struct {
	Action string `mapstructure:"action"`
	Team   string `mapstructure:"team"`
	User   string `mapstructure:"user"`
}

type SchedulerConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ForwardHeaders []string      `mapstructure:"forward_headers"`
}

type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	CookieName string `mapstructure:"cookie_name"`
}

// App holds the global config instance
var App Config

// LoadConfig loads configuration from file and environment variables
func LoadConfig(path string) error {
	logger := hclog.L().Named("config")

	// .env is optional; production sets real environment variables.
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("store.backend", "bleve")
	v.SetDefault("store.index_path", "./data/index")
	v.SetDefault("collections.action", "actions")
	v.SetDefault("collections.team", "teams")
	v.SetDefault("collections.user", "users")
	v.SetDefault("scheduler.api_url", "http://localhost:8000")
	v.SetDefault("scheduler.timeout", "30s")
	v.SetDefault("scheduler.forward_headers", scheduler.DefaultForwardHeaders)
	v.SetDefault("auth.cookie_name", "sentinel_session")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("sentinel")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("sentinel")

	// Standard names, e.g. DATABASE_URL instead of SENTINEL_STORE_DATABASE_URL
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("store.backend", "STORE_BACKEND")
	_ = v.BindEnv("store.index_path", "INDEX_PATH")
	_ = v.BindEnv("store.database_url", "DATABASE_URL")
	_ = v.BindEnv("store.redis_url", "REDIS_URL")
	_ = v.BindEnv("store.cache_ttl", "CACHE_TTL")
	_ = v.BindEnv("collections.action", "ACTION_INDEX")
	_ = v.BindEnv("collections.team", "TEAM_INDEX")
	_ = v.BindEnv("collections.user", "USER_INDEX")
	_ = v.BindEnv("scheduler.api_url", "SCHEDULER_API_URL")
	_ = v.BindEnv("scheduler.timeout", "SCHEDULER_TIMEOUT")
	_ = v.BindEnv("scheduler.forward_headers", "FORWARD_HEADERS")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("auth.cookie_name", "AUTH_COOKIE_NAME")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Info("no config file found, using defaults and environment variables")
		} else {
			return err
		}
	} else {
		logger.Info("loaded config", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	App = cfg
	return nil
}

// Validate checks the loaded configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.Store),
		validation.Field(&c.Collections),
		validation.Field(&c.Scheduler),
	)
}

func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Backend, validation.Required, validation.In("bleve", "postgres")),
		validation.Field(&s.DatabaseURL, validation.When(s.Backend == "postgres", validation.Required)),
		validation.Field(&s.CacheTTL, validation.Min(time.Duration(0))),
	)
}

func (c CollectionsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Action, validation.Required),
		validation.Field(&c.Team, validation.Required),
		validation.Field(&c.User, validation.Required),
	)
}

func (s SchedulerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.APIURL, validation.Required, is.URL),
		validation.Field(&s.Timeout, validation.Min(time.Second)),
	)
}
