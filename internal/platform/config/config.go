// Package config carga la configuración del servicio desde variables de
// entorno (y un .env opcional en desarrollo).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cats-graphql/internal/platform/logger"
)

const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

type Config struct {
	Port string

	// AuthURL es la base del servicio de identidad (sin slash final).
	AuthURL         string
	IdentityTimeout time.Duration

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	DBDSN         string

	Log logger.Options

	// DevAuth habilita X-Debug-User-* en vez de verificar tokens contra AuthURL.
	DevAuth  bool
	GraphiQL bool
}

// Load lee el entorno. Junta todos los faltantes en un solo error.
func Load() (*Config, error) {
	// .env es opcional; en contenedores no existe.
	_ = godotenv.Load()

	var missing []string

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		AuthURL:         strings.TrimRight(getRequiredEnv("AUTH_URL", &missing), "/"),
		IdentityTimeout: getDuration("IDENTITY_TIMEOUT", 10*time.Second),
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		MongoDatabase:   getEnv("MONGO_DB", "cats"),
		Log: logger.Options{
			Level:  logger.ParseLevel(os.Getenv("LOG_LEVEL")),
			Format: logger.ParseFormat(os.Getenv("LOG_FORMAT")),
			App:    getEnv("APP_NAME", "cats-graphql"),
		},
		DevAuth:  getBool("DEV_AUTH", false),
		GraphiQL: getBool("GRAPHIQL", false),
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		cfg.MongoURI = getRequiredEnv("MONGO_URI", &missing)
	case StorePostgres:
		cfg.DBDSN = getRequiredEnv("DB_DSN", &missing)
	case StoreMemory:
	default:
		return nil, fmt.Errorf("config: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required env: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func getRequiredEnv(key string, missing *[]string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		*missing = append(*missing, key)
	}
	return v
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return b
}
