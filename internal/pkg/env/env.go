package env

import (
	"os"

	"github.com/joho/godotenv"
)

// Env holds the key/value pairs read from the .env file.
var Env map[string]string

// GetEnv returns the configured value for key, preferring the .env file over
// the process environment, and falling back to def.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file found. The relative candidates cover
// running from the repo root and from inside cmd/tubetalk or cmd/migrate.
func SetupEnvFile() {
	candidates := []string{
		".env",
		"../../.env",
		"../../../.env",
	}

	for _, candidate := range candidates {
		if parsed, err := godotenv.Read(candidate); err == nil {
			Env = parsed
			return
		}
	}

	panic("no .env file found in any of the expected locations")
}

// IsDev reports whether the app runs in development mode.
func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
