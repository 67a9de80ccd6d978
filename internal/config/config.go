package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses OTP and mail timeouts
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); the rest
// fall back to defaults that match the behavior of the registration desk.
type Config struct {
	Env          string        // application environment (e.g. "dev", "prod")
	Port         string        // HTTP port to listen on
	DBUser       string        // database username
	DBPass       string        // database password (optional)
	DBHost       string        // database host address
	DBPort       string        // database port number
	DBName       string        // database name
	JWTSecret    string        // secret used to sign bearer tokens
	AccessTTLMin int           // bearer token time‑to‑live in minutes
	BcryptCost   int           // bcrypt cost for password hashing
	OTPTTL       time.Duration // lifetime of a one-time code
	MailTimeout  time.Duration // upper bound for a single OTP email delivery

	Mail    MailConfig
	Storage StorageConfig
	Scanner string // fingerprint scanner backend: "mock" or "disabled"

	RabbitURL             string // broker URL for domain events; empty disables publishing
	EventsConsumerEnabled bool   // run the activation log consumer in-process
}

// MailConfig holds SMTP relay settings for OTP delivery.  When User or
// Password is empty the OTP is only logged (test mode).
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// StorageConfig selects and configures the photo blob store.
type StorageConfig struct {
	Driver    string // "minio" or "local"
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	UploadDir string // local driver root directory
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required variables cause the program to exit with a
// fatal log message.
func Load() Config {
	smtpUser := os.Getenv("SMTP_USER")
	return Config{
		Env:          must("APP_ENV"),                      // environment (dev/test/prod)
		Port:         must("APP_PORT"),                     // port to bind the HTTP server
		DBUser:       must("DB_USER"),                      // database user
		DBPass:       os.Getenv("DB_PASS"),                 // database password (empty allowed)
		DBHost:       must("DB_HOST"),                      // database host
		DBPort:       must("DB_PORT"),                      // database port
		DBName:       must("DB_NAME"),                      // database name
		JWTSecret:    must("JWT_SECRET"),                   // secret used for signing tokens
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),   // token TTL in minutes
		BcryptCost:   mustInt("BCRYPT_COST"),               // bcrypt cost factor
		OTPTTL:       envDur("OTP_TTL", 5*time.Minute),     // one-time code lifetime
		MailTimeout:  envDur("MAIL_TIMEOUT", 10*time.Second),

		Mail: MailConfig{
			Host:     envStr("SMTP_HOST", "smtp.gmail.com"),
			Port:     envInt("SMTP_PORT", 587),
			User:     smtpUser,
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envStr("FROM_EMAIL", smtpUser),
		},
		Storage: StorageConfig{
			Driver:    envStr("STORAGE_DRIVER", "local"),
			Endpoint:  envStr("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    envStr("MINIO_BUCKET", "voter-photos"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
			UploadDir: envStr("UPLOAD_DIR", "uploads"),
		},
		Scanner: envStr("SCANNER_MODE", "mock"),

		RabbitURL:             rabbitURL(),
		EventsConsumerEnabled: envBool("EVENTS_CONSUMER_ENABLED", false),
	}
}

// rabbitURL accepts either RABBITMQ_URL or AMQP_URL.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// AccessTTL returns the bearer token lifetime as a duration.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
