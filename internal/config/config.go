package config // package config loads application configuration from environment variables

import (
    "fmt"
    "os"
    "strings"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Optional integrations (Redis, RabbitMQ, SMTP,
// Twilio) are disabled when their variables are left empty.
type Config struct {
    Env          string // application environment (development, production)
    Port         string // HTTP port to listen on
    LogLevel     string // zerolog level name
    CORSOrigin   string // allowed CORS origin
    DBDriver     string // mysql | sqlite3
    DBUser       string // database username
    DBPass       string // database password (optional)
    DBHost       string // database host address
    DBPort       string // database port number
    DBName       string // database name
    DBPath       string // sqlite3 file path
    JWTSecret    string // secret used to sign JWTs
    AccessTTLMin int    // access token time‑to‑live in minutes
    BcryptCost   int    // bcrypt cost for password hashing
    RabbitURL    string // AMQP URL for audit events (optional)
    Email        EmailConfig
    SMS          SMSConfig
}

// EmailConfig carries SMTP credentials.  Delivery is disabled unless both
// Host and User are set.
type EmailConfig struct {
    Host     string
    Port     int
    User     string
    Password string
    From     string
    FromName string
}

// Enabled reports whether enough settings exist to send mail.
func (c EmailConfig) Enabled() bool { return c.Host != "" && c.User != "" }

// SMSConfig carries Twilio credentials.  Delivery is disabled unless the
// account SID and auth token are set.
type SMSConfig struct {
    AccountSID string
    AuthToken  string
    From       string
    BaseURL    string
}

// Enabled reports whether enough settings exist to send SMS.
func (c SMSConfig) Enabled() bool { return c.AccountSID != "" && c.AuthToken != "" }

// Load reads configuration values from environment variables.  Every
// missing required variable is reported in a single error so operators
// can fix the environment in one pass.
func Load() (Config, error) {
    var missing []string
    must := func(key string) string {
        v, ok := os.LookupEnv(key)
        if !ok || strings.TrimSpace(v) == "" {
            missing = append(missing, key)
        }
        return v
    }

    cfg := Config{
        Env:          getenv("APP_ENV", "development"),
        Port:         getenv("APP_PORT", getenv("PORT", "3000")),
        LogLevel:     getenv("LOG_LEVEL", "info"),
        CORSOrigin:   getenv("CORS_ORIGIN", "*"),
        DBDriver:     getenv("DB_DRIVER", "mysql"),
        DBPass:       os.Getenv("DB_PASS"),
        DBPath:       getenv("DB_PATH", "sunapee_sound.db"),
        JWTSecret:    must("JWT_SECRET"),
        AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 7*24*60),
        BcryptCost:   envInt("BCRYPT_COST", 10),
        RabbitURL:    getenv("RABBITMQ_URL", os.Getenv("AMQP_URL")),
        Email: EmailConfig{
            Host:     os.Getenv("EMAIL_HOST"),
            Port:     envInt("EMAIL_PORT", 587),
            User:     os.Getenv("EMAIL_USER"),
            Password: os.Getenv("EMAIL_PASSWORD"),
            FromName: getenv("EMAIL_FROM_NAME", "Sunapee Sound Project"),
        },
        SMS: SMSConfig{
            AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
            AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
            From:       os.Getenv("TWILIO_PHONE_NUMBER"),
            BaseURL:    getenv("TWILIO_API_BASE", "https://api.twilio.com"),
        },
    }
    cfg.Email.From = getenv("EMAIL_FROM", cfg.Email.User)

    switch cfg.DBDriver {
    case "mysql":
        cfg.DBUser = must("DB_USER")
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = getenv("DB_PORT", "3306")
        cfg.DBName = must("DB_NAME")
    case "sqlite3":
    default:
        return cfg, fmt.Errorf("invalid DB_DRIVER %q: must be mysql or sqlite3", cfg.DBDriver)
    }

    if len(missing) > 0 {
        return cfg, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
    }
    return cfg, nil
}

// IsProduction reports whether the service runs with production defaults.
func (c Config) IsProduction() bool {
    return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}
