package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	// Comma separated IPs or CIDRs of reverse proxies whose forwarding headers are honoured.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`

	// Admin access.
	AdminEmail        string `mapstructure:"ADMIN_EMAIL"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`

	// Stripe.
	StripeKey             string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret   string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	Currency              string `mapstructure:"CURRENCY"`
	CheckoutExpiryMinutes int    `mapstructure:"CHECKOUT_EXPIRY_MINUTES"`
	SiteURL               string `mapstructure:"SITE_URL"`

	// Meeting rooms and Google Calendar.
	DefaultRoomID         string `mapstructure:"DEFAULT_ROOM_ID"`
	DefaultRoomName       string `mapstructure:"DEFAULT_ROOM_NAME"`
	GoogleCalendarID      string `mapstructure:"GOOGLE_CALENDAR_ID"`
	GoogleCredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	Timezone              string `mapstructure:"TIMEZONE"`
	BusinessOpenHour      int    `mapstructure:"BUSINESS_OPEN_HOUR"`
	BusinessCloseHour     int    `mapstructure:"BUSINESS_CLOSE_HOUR"`
	AvailabilityFailMode  string `mapstructure:"AVAILABILITY_FAIL_MODE"`
	WorkspaceAddress      string `mapstructure:"WORKSPACE_ADDRESS"`

	// Email.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	ManagerEmail string `mapstructure:"MANAGER_EMAIL"`

	// Firebase push to the manager topic. Disabled when the credentials file is empty.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	ManagerFCMTopic         string `mapstructure:"MANAGER_FCM_TOPIC"`

	// Kafka lifecycle events. Disabled when no brokers are configured.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("TRUSTED_PROXIES", "127.0.0.1,::1")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "merritt")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("ADMIN_EMAIL", "")
	viper.SetDefault("ADMIN_PASSWORD_HASH", "")
	viper.SetDefault("STRIPE_SECRET_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("CURRENCY", "cad")
	viper.SetDefault("CHECKOUT_EXPIRY_MINUTES", 30)
	viper.SetDefault("SITE_URL", "http://localhost:3000")
	viper.SetDefault("DEFAULT_ROOM_ID", "")
	viper.SetDefault("DEFAULT_ROOM_NAME", "Meeting Room")
	viper.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	viper.SetDefault("GOOGLE_CREDENTIALS_FILE", "")
	viper.SetDefault("TIMEZONE", "America/Vancouver")
	viper.SetDefault("BUSINESS_OPEN_HOUR", 8)
	viper.SetDefault("BUSINESS_CLOSE_HOUR", 18)
	viper.SetDefault("AVAILABILITY_FAIL_MODE", "open")
	viper.SetDefault("WORKSPACE_ADDRESS", "Merritt Workspace")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("MAIL_FROM", "")
	viper.SetDefault("MANAGER_EMAIL", "")
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("MANAGER_FCM_TOPIC", "workspace-managers")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "workspace.events")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// KafkaBrokerList splits the comma separated broker list.
func KafkaBrokerList() []string {
	return splitList(AppConfig.KafkaBrokers)
}

// TrustedProxyList splits the comma separated trusted proxy list.
func TrustedProxyList() []string {
	return splitList(AppConfig.TrustedProxies)
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
