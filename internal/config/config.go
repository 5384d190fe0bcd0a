package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Profiles ProfilesConfig
	AWS      AWSConfig
}

// DatabaseConfig holds database configuration. An empty URL selects the
// file backend.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// ProfilesConfig holds the profile record file and flush cadence
type ProfilesConfig struct {
	DataFile         string
	AutosaveInterval time.Duration
}

// AWSConfig holds AWS/S3 configuration for snapshot backups. An empty
// bucket disables backups.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "dev")
	viper.SetDefault("DATA_FILE", "profiles.json")
	viper.SetDefault("AUTOSAVE_INTERVAL", "30s")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ACCESS_KEY_ID", "")
	viper.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	// Read from .env files based on environment
	env := viper.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev" // Use "dev" to match .env.dev filename
	}

	// Try to read .env file for the current environment
	viper.SetConfigName(".env." + env)
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// Read .env file (ignore error if file doesn't exist)
	_ = viper.ReadInConfig() // Ignore error - file may not exist

	// Environment variables override .env file values
	viper.AutomaticEnv()

	// Bind specific environment variable names
	viper.BindEnv("DATABASE_URL")
	viper.BindEnv("PORT")
	viper.BindEnv("ENVIRONMENT")
	viper.BindEnv("DATA_FILE")
	viper.BindEnv("AUTOSAVE_INTERVAL")
	viper.BindEnv("AWS_REGION")
	viper.BindEnv("AWS_ACCESS_KEY_ID")
	viper.BindEnv("AWS_SECRET_ACCESS_KEY")
	viper.BindEnv("S3_BUCKET")
	viper.BindEnv("S3_ENDPOINT")
	viper.BindEnv("ALLOWED_ORIGINS")

	var config Config
	config.Database.URL = viper.GetString("DATABASE_URL")
	config.Server.Port = viper.GetString("PORT")
	config.Server.Env = viper.GetString("ENVIRONMENT")
	config.Server.AllowedOrigins = strings.Split(viper.GetString("ALLOWED_ORIGINS"), ",")
	config.Profiles.DataFile = viper.GetString("DATA_FILE")
	config.Profiles.AutosaveInterval = viper.GetDuration("AUTOSAVE_INTERVAL")
	config.AWS.Region = viper.GetString("AWS_REGION")
	config.AWS.AccessKeyID = viper.GetString("AWS_ACCESS_KEY_ID")
	config.AWS.SecretAccessKey = viper.GetString("AWS_SECRET_ACCESS_KEY")
	config.AWS.S3Bucket = viper.GetString("S3_BUCKET")
	config.AWS.S3Endpoint = viper.GetString("S3_ENDPOINT")

	log.Info().
		Strs("allowed_origins", config.Server.AllowedOrigins).
		Str("data_file", config.Profiles.DataFile).
		Msg("configuration loaded")

	return &config, nil
}
