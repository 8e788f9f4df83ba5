package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	VisitsTransportHTTP     = "http"
	VisitsTransportRabbitMQ = "rabbitmq"
)

type RESTconfig struct {
	PORT           string
	AllowedOrigins []string
}

// StorefrontAPIConfig - удаленный API каталога, справочников и отзывов.
type StorefrontAPIConfig struct {
	URL     string
	Timeout time.Duration
}

type CatalogConfig struct {
	ProductsPageSize     int
	ProductsDefaultOrder string
	ReviewsPageSize      int
	SearchDebounce       time.Duration
}

type StdoutLogConfig struct {
	Level  string
	IsJSON bool
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

type RedisConfig struct {
	Enabled bool
	URL     string
	TTL     time.Duration
}

type RabbitMQConfig struct {
	URL string
}

// DBconfig - PostgreSQL для списка желаний. Пустой URL отключает список желаний.
type DBconfig struct {
	URL string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName         string
	Rest            RESTconfig
	StorefrontAPI   StorefrontAPIConfig
	Catalog         CatalogConfig
	StdoutLogger    StdoutLogConfig
	FluentBit       FluentBitConfig
	Redis           RedisConfig
	RabbitMQ        RabbitMQConfig
	VisitsTransport string
	Database        DBconfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Файл .env необязателен: если его нет, используются только переменные окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
		}
		log.Printf("Info: .env file not found (path: %v), using environment only.\n", envPath)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "storefront-service")
	cfg.Rest.PORT = getEnvAsString("PORT", "8080")
	cfg.Rest.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"})

	cfg.StorefrontAPI.URL = strings.TrimRight(os.Getenv("STOREFRONT_API_URL"), "/")
	if cfg.StorefrontAPI.URL == "" {
		return nil, fmt.Errorf("STOREFRONT_API_URL environment variable is required")
	}
	cfg.StorefrontAPI.Timeout = getEnvAsDuration("STOREFRONT_API_TIMEOUT", 10*time.Second)

	cfg.Catalog.ProductsPageSize = getEnvAsInt("PRODUCTS_PAGE_SIZE", 12)
	cfg.Catalog.ProductsDefaultOrder = getEnvAsString("PRODUCTS_DEFAULT_ORDER", "-created_at")
	cfg.Catalog.ReviewsPageSize = getEnvAsInt("REVIEWS_PAGE_SIZE", 20)
	cfg.Catalog.SearchDebounce = time.Duration(getEnvAsInt("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")
	cfg.StdoutLogger.IsJSON = getEnvAsBool("STDOUT_LOG_JSON", false)

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", false)
	if cfg.Redis.Enabled {
		cfg.Redis.URL = os.Getenv("REDIS_URL")
		if cfg.Redis.URL == "" {
			log.Println("WARNING: REDIS_ENABLED is true, but REDIS_URL is not set. Disabling reference cache.")
			cfg.Redis.Enabled = false
		}
	}
	cfg.Redis.TTL = getEnvAsDuration("REFERENCE_CACHE_TTL", 5*time.Minute)

	cfg.VisitsTransport = strings.ToLower(getEnvAsString("VISITS_TRANSPORT", VisitsTransportHTTP))
	switch cfg.VisitsTransport {
	case VisitsTransportHTTP:
	case VisitsTransportRabbitMQ:
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when VISITS_TRANSPORT=%s", VisitsTransportRabbitMQ)
		}
	default:
		return nil, fmt.Errorf("unsupported VISITS_TRANSPORT %q", cfg.VisitsTransport)
	}

	cfg.Database.URL = os.Getenv("DATABASE_URL")

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsDuration понимает формат time.ParseDuration ("30s", "5m").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valDuration, err := time.ParseDuration(valStr)
	if err != nil || valDuration <= 0 {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valDuration
}

// getEnvAsList - список через запятую, пустые элементы отбрасываются.
func getEnvAsList(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
