package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultPort       = "8080"
	defaultRateLimit  = "60-M"
	defaultStrictness = "permissive"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	environment := os.Getenv("ENVIRONMENT")
	port := os.Getenv("PORT")

	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if environment == "" {
		environment = "development"
	}

	if port == "" {
		port = defaultPort
	}

	enabled, err := boolEnv("TUTORIA_ENABLED", true)
	if err != nil {
		return nil, err
	}

	offTopic, err := boolEnv("OFF_TOPIC_DETECTION", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:        environment,
		Port:               port,
		TutoriaAPIURL:      strings.TrimRight(os.Getenv("TUTORIA_API_URL"), "/"),
		TutoriaAPIToken:    os.Getenv("TUTORIA_API_TOKEN"),
		TutoriaEnabled:     enabled,
		JWTSecret:          jwtSecret,
		SessionStore:       SessionStoreKind(strings.ToLower(os.Getenv("SESSION_STORE"))),
		RedisURL:           os.Getenv("REDIS_URL"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RateLimit:          os.Getenv("RATE_LIMIT"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		AdminConfigURL:     os.Getenv("ADMIN_CONFIG_URL"),
		OffTopicDetection:  offTopic,
		OffTopicStrictness: os.Getenv("OFF_TOPIC_STRICTNESS"),
		CustomPrompt:       os.Getenv("CUSTOM_PROMPT"),
	}

	if cfg.RateLimit == "" {
		cfg.RateLimit = defaultRateLimit
	}

	if cfg.OffTopicStrictness == "" {
		cfg.OffTopicStrictness = defaultStrictness
	}

	if err := cfg.validateStore(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateStore() error {
	switch c.SessionStore {
	case "":
		c.SessionStore = StoreMemory
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL environment variable is required when SESSION_STORE=redis")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required when SESSION_STORE=postgres")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be one of memory, redis, postgres, got %q", c.SessionStore)
	}

	return nil
}

// reports whether the backend can be called at all
func (c *Config) BackendConfigured() bool {
	return c.TutoriaAPIURL != "" && c.TutoriaAPIToken != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func boolEnv(name string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", name, err)
	}

	return value, nil
}

func splitList(raw string) []string {
	var out []string

	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
