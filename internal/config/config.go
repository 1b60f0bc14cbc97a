package config // package config loads application configuration from environment variables

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the gateway's runtime configuration.  Each field maps to
// one environment variable; required variables are enforced by must() and
// missing values halt startup with a fatal log message.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to verify access tokens
	AMQPURL   string // RabbitMQ URL; empty disables event publishing

	// DefaultSeatPriceCents is charged for seats without an assigned
	// price, in currency minor units.
	DefaultSeatPriceCents uint32
}

// Load reads the gateway configuration.  A .env file in the working
// directory is honored when present.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:                   must("APP_ENV"),
		Port:                  must("APP_PORT"),
		DBUser:                must("DB_USER"),
		DBPass:                os.Getenv("DB_PASS"), // empty allowed
		DBHost:                must("DB_HOST"),
		DBPort:                must("DB_PORT"),
		DBName:                must("DB_NAME"),
		JWTSecret:             must("JWT_SECRET"),
		AMQPURL:               amqpURL(),
		DefaultSeatPriceCents: uint32(envInt("DEFAULT_SEAT_PRICE_CENTS", 100)),
	}
}

// ClientConfig holds everything the seat CLI needs to reach a gateway.
type ClientConfig struct {
	APIBaseURL string // REST root, e.g. "http://localhost:8080/api"
	SocketURL  string // realtime endpoint, e.g. "ws://localhost:8080/ws"
	Token      string // bearer credential; empty means unauthenticated

	DefaultSeatPriceCents uint32
}

// LoadClient reads client configuration with local-development defaults.
func LoadClient() ClientConfig {
	_ = godotenv.Load()
	return ClientConfig{
		APIBaseURL:            envStr("API_BASE_URL", "http://localhost:8080/api"),
		SocketURL:             envStr("SOCKET_URL", "ws://localhost:8080/ws"),
		Token:                 os.Getenv("TOKEN"),
		DefaultSeatPriceCents: uint32(envInt("DEFAULT_SEAT_PRICE_CENTS", 100)),
	}
}

// amqpURL resolves the broker URL from either conventional variable.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
