package config

import (
	"crypto/sha256"
	"fmt"
	"log"
	"strings"

	"portal/internal/access"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the portal
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	DBDriver   string `mapstructure:"DB_DRIVER"` // postgres, mysql or memory
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSslMode  string `mapstructure:"DB_SSLMODE"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"` // comma separated
	CSRFSecure  bool   `mapstructure:"CSRF_SECURE"`  // set when served over HTTPS

	RankPRWhitelist int `mapstructure:"RANK_PR_WHITELIST"`
	RankMentor      int `mapstructure:"RANK_MENTOR"`
	RankAdmin       int `mapstructure:"RANK_ADMIN"`
	RankSuperadmin  int `mapstructure:"RANK_SUPERADMIN"`

	SMTPHost          string `mapstructure:"SMTP_HOST"`
	SMTPPort          int    `mapstructure:"SMTP_PORT"`
	SMTPUser          string `mapstructure:"SMTP_USER"`
	SMTPPassword      string `mapstructure:"SMTP_PASSWORD"`
	MailFrom          string `mapstructure:"MAIL_FROM"`
	MailOrgAddress    string `mapstructure:"MAIL_ORG_ADDRESS"`
	MailMentorAddress string `mapstructure:"MAIL_MENTOR_ADDRESS"`
	PublicBaseURL     string `mapstructure:"PUBLIC_BASE_URL"`
}

var defaults = map[string]interface{}{
	"PORT":                "8080",
	"GIN_MODE":            "debug",
	"DB_DRIVER":           "postgres",
	"DB_HOST":             "localhost",
	"DB_PORT":             "5432",
	"DB_USER":             "postgres",
	"DB_PASSWORD":         "postgres",
	"DB_NAME":             "postgres",
	"DB_SSLMODE":          "disable",
	"JWT_SECRET":          "",
	"CORS_ORIGINS":        "http://localhost:5173",
	"CSRF_SECURE":         false,
	"RANK_PR_WHITELIST":   1,
	"RANK_MENTOR":         2,
	"RANK_ADMIN":          3,
	"RANK_SUPERADMIN":     4,
	"SMTP_HOST":           "",
	"SMTP_PORT":           587,
	"SMTP_USER":           "",
	"SMTP_PASSWORD":       "",
	"MAIL_FROM":           "Purchase System <noreply@localhost>",
	"MAIL_ORG_ADDRESS":    "",
	"MAIL_MENTOR_ADDRESS": "",
	"PUBLIC_BASE_URL":     "http://localhost:8080",
}

// Load reads configs/.env when present and lets real environment variables override it.
func Load() (Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the portal cannot run with.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql", "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" && c.GinMode == "release" {
		return fmt.Errorf("JWT_SECRET is required in release mode")
	}
	if len(c.Origins()) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin")
	}
	if err := c.Ranks().Validate(); err != nil {
		return err
	}
	return nil
}

// Ranks returns the configured rank thresholds
func (c Config) Ranks() access.Ranks {
	return access.Ranks{
		PRWhitelist: c.RankPRWhitelist,
		Mentor:      c.RankMentor,
		Admin:       c.RankAdmin,
		Superadmin:  c.RankSuperadmin,
	}
}

// Origins splits CORS_ORIGINS into a list
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Secret returns the JWT signing secret, with a development fallback.
func (c Config) Secret() []byte {
	if c.JWTSecret == "" {
		return []byte("default_super_secret_key") // Development fallback only
	}
	return []byte(c.JWTSecret)
}

// CSRFKey derives the 32-byte anti-forgery key from the JWT secret.
func (c Config) CSRFKey() []byte {
	sum := sha256.Sum256(append([]byte("csrf:"), c.Secret()...))
	return sum[:]
}

// DSN builds the connection string for the configured SQL driver
func (c Config) DSN() string {
	if c.DBDriver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSslMode
}
