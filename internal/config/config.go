package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string // snapshot image storage root (fs)

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string

	// Notification trigger. Empty SendgridKey selects the console mailer.
	SendgridKey string
	MailFrom    string
	MailSubject string

	// Server-side cap on submissions past a quiz's duration. By default the
	// client timer is trusted entirely; flipping this on rejects late
	// submissions instead.
	EnforceDuration bool

	// Default cadence for the client snapshot loop, advertised in the
	// attempt payload.
	SnapshotInterval time.Duration
}

// FromEnv loads configuration from the environment. A .env file in the
// working directory is honored when present.
func FromEnv() Config {
	_ = godotenv.Load()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:         addr,
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		BlobBasePath:     envOr("BLOB_BASE_PATH", "./data"),
		AuthSecret:       envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:        envOr("ADMIN_USER", "admin"),
		AdminPassHash:    envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		CORSOrigins:      csvOr("CORS_ORIGINS", "http://localhost:3000"),
		SendgridKey:      os.Getenv("SENDGRID_API_KEY"),
		MailFrom:         envOr("MAIL_FROM", "results@quizraft.local"),
		MailSubject:      envOr("MAIL_SUBJECT", "Your quiz results"),
		EnforceDuration:  envBool("ENFORCE_DURATION", false),
		SnapshotInterval: envDuration("SNAPSHOT_INTERVAL", 30*time.Second),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
