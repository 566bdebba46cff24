// Package config provides centralized default values for MicDrop
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database Configuration
	DBDriver                 string
	DBPath                   string
	TursoDatabaseURL         string
	TursoAuthToken           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Session / Security
	JWTSecret      string
	SessionTTL     time.Duration
	LeadGateSecret string

	// Lead capture
	CaptureMarkerTTL time.Duration

	// Analytics
	EventRetention       time.Duration
	RetentionSweepPeriod time.Duration
	RecentActivityLimit  int

	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string

	// Misc
	PublicBaseURL  string
	ConsentVersion string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database Configuration
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "micdrop.db")
	TursoDatabaseURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 50*time.Millisecond)

	// Session / Security
	JWTSecret = getEnvString("JWT_SECRET", "")
	SessionTTL = getEnvDuration("SESSION_TTL", 7*24*time.Hour)
	LeadGateSecret = getEnvString("LEAD_GATE_SECRET", "")

	// Lead capture marker lifetime (how long an unlock survives in the browser)
	CaptureMarkerTTL = time.Duration(getEnvInt("CAPTURE_MARKER_TTL_DAYS", 30)) * 24 * time.Hour

	// Analytics retention is an explicit decision, not unbounded by default
	EventRetention = time.Duration(getEnvInt("EVENT_RETENTION_DAYS", 365)) * 24 * time.Hour
	RetentionSweepPeriod = getEnvDuration("RETENTION_SWEEP_PERIOD", 6*time.Hour)
	RecentActivityLimit = getEnvInt("RECENT_ACTIVITY_LIMIT", 50)

	// Email (Resend)
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	EmailFrom = getEnvString("EMAIL_FROM", "onboarding@resend.dev")
	EmailFromName = getEnvString("EMAIL_FROM_NAME", "MicDrop")

	// Misc
	PublicBaseURL = getEnvString("PUBLIC_BASE_URL", "http://localhost:3000")
	ConsentVersion = getEnvString("CONSENT_VERSION", "1.0")
}

// GetSlowQueryThreshold returns the configured slow query threshold.
func GetSlowQueryThreshold() time.Duration {
	return SlowQueryThreshold
}
