package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	JWTSecret   string

	TaxRate        decimal.Decimal
	ReportPageSize int

	KitchenTickInterval time.Duration
	KitchenDemoArrival  time.Duration
	PaymentDelay        time.Duration

	RabbitMQURL    string
	EventsExchange string

	CORSAllowedOrigins []string
	RestaurantName     string
	// Location is used for report day and hour buckets.
	Location *time.Location

	AdminEmail    string
	AdminPassword string
	// DefaultBranch is the seeded admin's branch and where demo arrivals land.
	DefaultBranch string

	ObjectStore ObjectStoreConfig
}

type ObjectStoreConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

// Enabled reports whether enough is configured to upload objects.
func (c ObjectStoreConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func Load() *Config {
	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8081"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-in-production"),

		TaxRate:        getEnvDecimal("TAX_RATE", decimal.RequireFromString("0.08")),
		ReportPageSize: getEnvInt("REPORT_PAGE_SIZE", 10),

		KitchenTickInterval: getEnvDuration("KITCHEN_TICK_INTERVAL", time.Second),
		KitchenDemoArrival:  getEnvDuration("KITCHEN_DEMO_ARRIVAL", 20*time.Second),
		PaymentDelay:        getEnvDuration("PAYMENT_DELAY", 0),

		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		EventsExchange: getEnv("EVENTS_EXCHANGE", "pos.events"),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		RestaurantName:     getEnv("RESTAURANT_NAME", "Plate to Pixel"),
		Location:           getEnvLocation("TIMEZONE", time.UTC),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin12345"),
		DefaultBranch: getEnv("DEFAULT_BRANCH", "Downtown"),

		ObjectStore: ObjectStoreConfig{
			Endpoint:        getEnv("OBJECT_STORE_ENDPOINT", ""),
			Region:          getEnv("OBJECT_STORE_REGION", "us-east-1"),
			AccessKeyID:     getEnv("OBJECT_STORE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("OBJECT_STORE_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("OBJECT_STORE_BUCKET", ""),
			PublicBaseURL:   getEnv("OBJECT_STORE_PUBLIC_BASE_URL", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("1s", "250ms") and treats "0" as zero.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	if v == "0" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvLocation(key string, fallback *time.Location) *time.Location {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		return fallback
	}
	return loc
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
