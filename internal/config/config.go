package config

import (
	"os"
)

type Config struct {
	Port            string
	Environment     string
	ProviderURL     string // identity provider base URL
	ProviderKey     string // service role key for admin plan lookups
	DatabaseURL     string
	ProviderJWKSURL string // Constructed from ProviderURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	LogDir          string // when set, server logs also go to rotated files here
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	providerURL := getEnv("AUTH_PROVIDER_URL", "")

	// Construct JWKS URL from the provider URL
	jwksURL := providerURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		ProviderURL:     providerURL,
		ProviderKey:     getEnv("AUTH_PROVIDER_KEY", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		ProviderJWKSURL: jwksURL,
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     tablePrefix,
		LogDir:          getEnv("LOG_DIR", ""),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	case "dev":
		return "dev_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
