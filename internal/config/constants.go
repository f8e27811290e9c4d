package config

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Environments
const (
	EnvDev        = "dev"
	EnvProduction = "production"
)

// Insecure example values from .env.example
const (
	exampleJWTSecret  = "generate_with_openssl_rand_hex_32"
	exampleDBPassword = "change_this_secure_password"
	minJWTSecretLen   = 32
)

// Client profile locations and defaults
const (
	ProfileDirName  = "opitemdb"
	ProfileFileName = "config.yaml"
	CacheFileName   = "cache.db"

	DefaultAPIURL       = "http://localhost:8080"
	DefaultCacheTTL     = "10m"
	DefaultQueryTimeout = "10s"
	DefaultQueryRetries = 2
	DefaultPageSize     = 24
)
