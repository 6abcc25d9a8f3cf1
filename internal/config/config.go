package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Mpesa    MpesaConfig
	Registry RegistryConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Admin    AdminConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// MpesaConfig holds Daraja API credentials and endpoints. BaseURL may
// be set directly; otherwise it follows Environment.
type MpesaConfig struct {
	Environment    string
	BaseURL        string
	Shortcode      string
	Passkey        string
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
}

// RegistryConfig holds transaction-registry tuning
type RegistryConfig struct {
	TTLMinutes   int
	SweepMinutes int
}

// MongoDBConfig holds MongoDB-specific configuration for the donation
// archive. The archive is optional; the registry works without it.
type MongoDBConfig struct {
	Enabled  bool
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// AdminConfig holds the single configured admin account
type AdminConfig struct {
	Email        string
	PasswordHash string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()
	bindEnv()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if the config file is missing; env vars cover it
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Mpesa.BaseURL == "" {
		if config.Mpesa.Environment == "production" {
			config.Mpesa.BaseURL = "https://api.safaricom.co.ke"
		} else {
			config.Mpesa.BaseURL = "https://sandbox.safaricom.co.ke"
		}
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "3001")
	viper.SetDefault("Server.AllowedOrigins", []string{"http://localhost:3000"})
	viper.SetDefault("Mpesa.Environment", "sandbox")
	viper.SetDefault("Mpesa.CallbackURL", "https://yourdomain.com/api/mpesa/callback")
	viper.SetDefault("Registry.TTLMinutes", 15)
	viper.SetDefault("Registry.SweepMinutes", 5)
	viper.SetDefault("MongoDB.Enabled", false)
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "kabeba-donations")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("LogLevel", "info")
}

// bindEnv maps the flat environment variable names used in deployment
// onto the nested config keys.
func bindEnv() {
	viper.BindEnv("Server.Port", "PORT")
	viper.BindEnv("Server.AllowedOrigins", "ALLOWED_ORIGINS")
	viper.BindEnv("Mpesa.Environment", "MPESA_ENV")
	viper.BindEnv("Mpesa.BaseURL", "MPESA_BASE_URL")
	viper.BindEnv("Mpesa.Shortcode", "MPESA_SHORTCODE")
	viper.BindEnv("Mpesa.Passkey", "MPESA_PASSKEY")
	viper.BindEnv("Mpesa.ConsumerKey", "MPESA_CONSUMER_KEY")
	viper.BindEnv("Mpesa.ConsumerSecret", "MPESA_CONSUMER_SECRET")
	viper.BindEnv("Mpesa.CallbackURL", "MPESA_CALLBACK_URL")
	viper.BindEnv("Registry.TTLMinutes", "REGISTRY_TTL_MINUTES")
	viper.BindEnv("Registry.SweepMinutes", "REGISTRY_SWEEP_MINUTES")
	viper.BindEnv("MongoDB.Enabled", "MONGODB_ENABLED")
	viper.BindEnv("MongoDB.URI", "MONGODB_URI")
	viper.BindEnv("MongoDB.Database", "MONGODB_DATABASE")
	viper.BindEnv("JWT.Secret", "JWT_SECRET")
	viper.BindEnv("JWT.ExpiresIn", "JWT_EXPIRES_IN")
	viper.BindEnv("Admin.Email", "ADMIN_EMAIL")
	viper.BindEnv("Admin.PasswordHash", "ADMIN_PASSWORD_HASH")
	viper.BindEnv("LogLevel", "LOG_LEVEL")
}
