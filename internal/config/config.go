package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server struct {
		Env      string `envconfig:"ENV" default:"development"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
		Port     string `envconfig:"PORT" default:"8080"`
		Host     string `envconfig:"HOST" default:"0.0.0.0"`
	} `envconfig:"SERVER"`

	App struct {
		Name string `envconfig:"NAME" default:"otasync"`
		CORS struct {
			Enable         bool     `envconfig:"ENABLE"`
			AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
			MaxAgeSeconds  int      `envconfig:"MAX_AGE_SECONDS" default:"300"`
		} `envconfig:"CORS"`
	} `envconfig:"APP"`

	Stayflexi struct {
		BaseURL          string        `envconfig:"BASE_URL" default:"https://app.stayflexi.com"`
		Email            string        `envconfig:"EMAIL"`
		Password         string        `envconfig:"PASSWORD"`
		Headless         bool          `envconfig:"HEADLESS" default:"true"`
		ProxyURL         string        `envconfig:"PROXY_URL"`
		NavigateTimeout  time.Duration `envconfig:"NAVIGATE_TIMEOUT" default:"30s"`
		ElementTimeout   time.Duration `envconfig:"ELEMENT_TIMEOUT" default:"10s"`
		SettleDelay      time.Duration `envconfig:"SETTLE_DELAY" default:"3s"`
		NavigateInterval time.Duration `envconfig:"NAVIGATE_INTERVAL" default:"1s"`
		RetryAttempts    int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
		RetryBackoff     time.Duration `envconfig:"RETRY_BACKOFF" default:"1s"`
		ArtifactDir      string        `envconfig:"ARTIFACT_DIR" default:"artifacts"`
	} `envconfig:"STAYFLEXI"`

	DB struct {
		Postgres struct {
			Host           string `envconfig:"HOST" default:"localhost"`
			Port           string `envconfig:"PORT" default:"5432"`
			Username       string `envconfig:"USER" default:"postgres"`
			Password       string `envconfig:"PASSWORD"`
			Name           string `envconfig:"NAME" default:"otasync"`
			SSLMode        string `envconfig:"SSL_MODE" default:"disable"`
			MaxRetry       int    `envconfig:"MAX_RETRY" default:"3"`
			RetryWaitTime  int    `envconfig:"RETRY_WAIT_TIME" default:"2"`
			MigrationTable string `envconfig:"MIGRATION_TABLE" default:"schema_migrations"`
			AutoMigrate    bool   `envconfig:"AUTO_MIGRATE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	Cache struct {
		Redis struct {
			Host     string `envconfig:"HOST"`
			Port     string `envconfig:"PORT" default:"6379"`
			Password string `envconfig:"PASSWORD"`
			DB       int    `envconfig:"DB"`
		} `envconfig:"REDIS"`
		TTL int `envconfig:"TTL" default:"604800"`
	} `envconfig:"CACHE"`

	Auth struct {
		ManagementHash   string `envconfig:"MANAGEMENT_HASH"`
		ReservationsHash string `envconfig:"RESERVATIONS_HASH"`
	} `envconfig:"AUTH"`

	External struct {
		Otel struct {
			Endpoint string `envconfig:"ENDPOINT"`
		} `envconfig:"OTEL"`
		S3 struct {
			BucketName      string `envconfig:"BUCKET_NAME"`
			APIEndpoint     string `envconfig:"API_ENDPOINT"`
			AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
			SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
			Region          string `envconfig:"REGION" default:"auto"`
			Directory       string `envconfig:"DIRECTORY" default:"otasync"`
		} `envconfig:"S3"`
	} `envconfig:"EXTERNAL"`

	Properties Properties `envconfig:"PROPERTIES"`
}

const prefix = "OTASYNC"

var (
	conf        Config
	once        sync.Once
	initialized bool
)

func Init() error {
	var err error

	once.Do(func() {
		if loadErr := godotenv.Load(".env"); loadErr != nil {
			log.Debug().Err(loadErr).Msg("Could not load .env file, continuing with existing environment variables")
		} else {
			log.Debug().Msg("Loaded variables from .env file into environment")
		}

		var loaded *Config
		loaded, err = Load()
		if err != nil {
			return
		}

		conf = *loaded
		initialized = true
	})

	if err != nil {
		return fmt.Errorf("failed to process environment variables: %w", err)
	}

	return nil
}

// Load reads the configuration from the environment without touching the package singleton.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(prefix, &c); err != nil {
		return nil, err
	}

	if len(c.Properties) == 0 {
		c.Properties = DefaultProperties()
	}

	return &c, nil
}

func Get() *Config {
	if !initialized {
		if err := Init(); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize configuration")
		}
	}

	return &conf
}
