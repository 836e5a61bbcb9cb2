package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendElasticsearch = "elasticsearch"
	BackendPostgres      = "postgres"
	BackendRedis         = "redis"

	minProductionSecretLength = 32
)

type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	MetricsPort string

	LogLevel  string
	LogFormat string

	StoreBackend string

	Elastic  ElasticConfig
	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	JWT      JWTConfig
	Auth     AuthConfig
}

type ElasticConfig struct {
	URL        string
	Username   string
	Password   string
	UsersIndex string
	TasksIndex string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the connection string understood by the pgx stdlib driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host          string
	Port          string
	RedisPassword string
	RedisDB       string
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

// Enabled reports whether task notifications should be published.
func (c RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

type JWTConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
}

type AuthConfig struct {
	BcryptCost             int
	AllowAdminSignup       bool
	BootstrapAdminUsername string
	BootstrapAdminPassword string
}

func Load() (*Config, error) {
	ttl, err := getDuration("JWT_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cost, err := getInt("BCRYPT_COST", 10)
	if err != nil {
		return nil, err
	}
	allowAdmin, err := getBool("AUTH_ALLOW_ADMIN_SIGNUP", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		AppName:     getEnv("APP_NAME", "task-tracker"),
		AppEnv:      getEnv("APP_ENV", "development"),
		AppPort:     getEnv("APP_PORT", "8087"),
		MetricsPort: getEnv("METRICS_PORT", "8088"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendElasticsearch)),

		Elastic: ElasticConfig{
			URL:        getEnv("ELASTIC_URL", "http://localhost:9200"),
			Username:   os.Getenv("ELASTIC_USERNAME"),
			Password:   os.Getenv("ELASTIC_PASSWORD"),
			UsersIndex: getEnv("ELASTIC_USERS_INDEX", "users"),
			TasksIndex: getEnv("ELASTIC_TASKS_INDEX", "tasks"),
		},

		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "task_tracker"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		Redis: RedisConfig{
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnv("REDIS_PORT", "6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnv("REDIS_DB", "0"),
		},

		RabbitMQ: RabbitMQConfig{
			URL:   os.Getenv("RABBITMQ_URL"),
			Queue: getEnv("RABBITMQ_QUEUE", "task_events"),
		},

		JWT: JWTConfig{
			Secret:    os.Getenv("JWT_SECRET"),
			Algorithm: strings.ToUpper(getEnv("JWT_ALGORITHM", "HS256")),
			TTL:       ttl,
		},

		Auth: AuthConfig{
			BcryptCost:             cost,
			AllowAdminSignup:       allowAdmin,
			BootstrapAdminUsername: os.Getenv("BOOTSTRAP_ADMIN_USERNAME"),
			BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
	}, nil
}

// Validate rejects configurations the API must not start with.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.AppEnv == "production" && len(c.JWT.Secret) < minProductionSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecretLength))
	}

	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not supported", c.JWT.Algorithm))
	}

	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}

	switch c.StoreBackend {
	case BackendElasticsearch, BackendPostgres, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND %q is not supported", c.StoreBackend))
	}

	if (c.Auth.BootstrapAdminUsername == "") != (c.Auth.BootstrapAdminPassword == "") {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_USERNAME and BOOTSTRAP_ADMIN_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
