package config

import "time"

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment       string
	Addr              string
	DatabaseURL       string
	MigrationsDir     string
	JWTSecret         string
	AccessTokenTTL    time.Duration
	RefreshGrace      time.Duration
	DenylistRedisAddr string
	DenylistRedisPass string
	DenylistRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:       GetString("APP_ENV", "development"),
		Addr:              GetString("API_ADDR", ":8000"),
		DatabaseURL:       GetString("DATABASE_URL", "postgres://photobook:photobook@db:5432/photobook?sslmode=disable"),
		MigrationsDir:     GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		JWTSecret:         GetString("JWT_SECRET", "supersecuresecret"),
		AccessTokenTTL:    GetDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshGrace:      GetDuration("REFRESH_GRACE", 336*time.Hour),
		DenylistRedisAddr: GetString("DENYLIST_REDIS_ADDR", ""),
		DenylistRedisPass: GetString("DENYLIST_REDIS_PASSWORD", ""),
		DenylistRedisDB:   GetInt("DENYLIST_REDIS_DB", 0),
	}
}
