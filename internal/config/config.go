package config

import (
	"os"
	"strconv"
	"strings"

	"carte_challenge_echo/internal/loyalty"
	"carte_challenge_echo/internal/models"
)

// Defaults carried over from the original deployment
const (
	defaultGymLatitude  = 48.877053
	defaultGymLongitude = 2.817765
	defaultMaxDistanceM = 60
)

// Config gathers the environment-driven settings of the server and worker
type Config struct {
	Port     string
	Env      string
	LogLevel string

	FirebaseCredentialsPath string
	DatabaseURL             string
	RedisURL                string

	WebhookURL    string
	WebhookAPIKey string

	// Accrual tuning
	VisitsPerReward int

	// Default geofence used until a club saves its own
	DefaultGeofence models.ClubLocation
}

// Load reads configuration from the environment. Callers are expected to
// have loaded a .env file first when one exists.
func Load() Config {
	cfg := Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		WebhookURL:              os.Getenv("WEBHOOK_URL"),
		WebhookAPIKey:           os.Getenv("WEBHOOK_API_KEY"),
		VisitsPerReward:         getEnvInt("VISITS_PER_REWARD", loyalty.DefaultVisitsPerReward),
		DefaultGeofence: models.ClubLocation{
			Coordinates: models.Coordinates{
				Latitude:  getEnvFloat("GYM_LATITUDE", defaultGymLatitude),
				Longitude: getEnvFloat("GYM_LONGITUDE", defaultGymLongitude),
			},
			MaxDistanceMeters: getEnvFloat("GYM_MAX_DISTANCE_M", defaultMaxDistanceM),
		},
	}
	return cfg
}

// RewardConfig returns the accrual parameters in effect
func (c Config) RewardConfig() loyalty.RewardConfig {
	return loyalty.RewardConfig{VisitsPerReward: c.VisitsPerReward}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
