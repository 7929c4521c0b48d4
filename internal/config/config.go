package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the whole runtime configuration, read from the environment.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"dev"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`

	DB       DBConfig       `ignored:"true"`
	Redis    RedisConfig    `ignored:"true"`
	JWT      JWTConfig      `ignored:"true"`
	Geocode  GeocodeConfig  `ignored:"true"`
	NewRelic NewRelicConfig `ignored:"true"`

	// FormDebounce is the pause before an address in the load form is geocoded.
	FormDebounce    time.Duration `envconfig:"FORM_DEBOUNCE" default:"500ms"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// DBConfig holds database connection parameters
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" required:"true"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxRetries    int           `envconfig:"DB_CONNECT_RETRIES" default:"5"`
	RetryInterval time.Duration `envconfig:"DB_RETRY_INTERVAL" default:"5s"`
}

// DSN renders the connection string understood by pgx.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type JWTConfig struct {
	Secret     string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	Expiration time.Duration `envconfig:"JWT_EXPIRATION" default:"24h"`
}

type GeocodeConfig struct {
	APIKey  string `envconfig:"GOOGLE_MAPS_API_KEY" required:"true"`
	BaseURL string `envconfig:"GOOGLE_MAPS_BASE_URL"`
	Region  string `envconfig:"GEOCODE_REGION" default:"in"`
}

// NewRelicConfig is optional; an empty license key disables the agent.
type NewRelicConfig struct {
	AppName    string `envconfig:"NEW_RELIC_APP_NAME" default:"loadboard"`
	LicenseKey string `envconfig:"NEW_RELIC_LICENSE_KEY"`
}

func (c NewRelicConfig) Enabled() bool {
	return c.LicenseKey != ""
}

// Load reads an optional .env file and then the process environment.
// A missing .env is not an error; the second return value reports whether
// one was loaded.
func Load(files ...string) (Config, bool, error) {
	loaded := godotenv.Load(files...) == nil

	var c Config
	// Sections are processed one by one so their variables keep flat names
	// (DB_HOST rather than DB_DB_HOST).
	for _, section := range []any{&c, &c.DB, &c.Redis, &c.JWT, &c.Geocode, &c.NewRelic} {
		if err := envconfig.Process("", section); err != nil {
			return Config{}, loaded, fmt.Errorf("failed to read configuration: %w", err)
		}
	}
	return c, loaded, nil
}
