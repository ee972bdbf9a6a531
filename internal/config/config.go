package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	GPS       GPSConfig
	MQTT      MQTTConfig
	Redis     RedisConfig
	Breaker   BreakerConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
	// PublicWSURL is the websocketUrl advertised to HTTP-registered devices.
	// Empty means derive it from the incoming request.
	PublicWSURL string
}

type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

type GPSConfig struct {
	StaleTimeout           time.Duration
	SweepInterval          time.Duration
	ReportingInterval      int
	HighAccuracyMode       bool
	ETAHorizon             time.Duration
	ProgressStrategy       string // random or haversine
	ClearPreviousBinding   bool
	CommandSendBufferLimit int
}

type MQTTConfig struct {
	Enabled        bool
	Broker         string
	ClientID       string
	Username       string
	Password       string
	RegisterTopic  string
	LocationTopic  string
	StatusTopic    string
	HeartbeatTopic string
	BroadcastTopic string
	QoS            byte
}

type RedisConfig struct {
	Enabled          bool
	Host             string
	Port             string
	Password         string
	DB               int
	BroadcastChannel string
}

type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second per client IP
	GeneralBurst int
	DeviceRPS    float64 // Requests per second per device on ingestion endpoints
	DeviceBurst  int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENVIRONMENT", "development")

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "cargo-tracker.db")

	viper.SetDefault("GPS_STALE_TIMEOUT", 5*time.Minute)
	viper.SetDefault("GPS_SWEEP_INTERVAL", 60*time.Second)
	viper.SetDefault("GPS_REPORTING_INTERVAL", 30)
	viper.SetDefault("GPS_HIGH_ACCURACY_MODE", true)
	viper.SetDefault("GPS_ETA_HORIZON", 4*time.Hour)
	viper.SetDefault("GPS_PROGRESS_STRATEGY", "random")
	viper.SetDefault("GPS_CLEAR_PREVIOUS_BINDING", false)
	viper.SetDefault("GPS_COMMAND_BUFFER", 64)

	viper.SetDefault("MQTT_CLIENT_ID", "cargo-tracker")
	viper.SetDefault("MQTT_REGISTER_TOPIC", "gps/+/register")
	viper.SetDefault("MQTT_LOCATION_TOPIC", "gps/+/location")
	viper.SetDefault("MQTT_STATUS_TOPIC", "gps/+/status")
	viper.SetDefault("MQTT_HEARTBEAT_TOPIC", "gps/+/heartbeat")
	viper.SetDefault("MQTT_BROADCAST_TOPIC", "tracking/bookings")
	viper.SetDefault("MQTT_QOS", 1)

	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_BROADCAST_CHANNEL", "tracking:updates")

	viper.SetDefault("BREAKER_FAILURE_THRESHOLD", 5)
	viper.SetDefault("BREAKER_TIMEOUT", 30*time.Second)

	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 50)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 100)
	viper.SetDefault("RATE_LIMIT_DEVICE_RPS", 2)
	viper.SetDefault("RATE_LIMIT_DEVICE_BURST", 10)

	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"})
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})
	viper.SetDefault("CORS_EXPOSED_HEADERS", []string{"X-Request-ID"})
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
			PublicWSURL: viper.GetString("PUBLIC_WS_URL"),
		},
		Database: DatabaseConfig{
			Driver:     viper.GetString("DB_DRIVER"),
			Host:       viper.GetString("DB_HOST"),
			Port:       viper.GetString("DB_PORT"),
			User:       viper.GetString("DB_USER"),
			Password:   viper.GetString("DB_PASSWORD"),
			DBName:     viper.GetString("DB_NAME"),
			SSLMode:    viper.GetString("DB_SSLMODE"),
			SQLitePath: viper.GetString("SQLITE_PATH"),
		},
		GPS: GPSConfig{
			StaleTimeout:           viper.GetDuration("GPS_STALE_TIMEOUT"),
			SweepInterval:          viper.GetDuration("GPS_SWEEP_INTERVAL"),
			ReportingInterval:      viper.GetInt("GPS_REPORTING_INTERVAL"),
			HighAccuracyMode:       viper.GetBool("GPS_HIGH_ACCURACY_MODE"),
			ETAHorizon:             viper.GetDuration("GPS_ETA_HORIZON"),
			ProgressStrategy:       viper.GetString("GPS_PROGRESS_STRATEGY"),
			ClearPreviousBinding:   viper.GetBool("GPS_CLEAR_PREVIOUS_BINDING"),
			CommandSendBufferLimit: viper.GetInt("GPS_COMMAND_BUFFER"),
		},
		MQTT: MQTTConfig{
			Enabled:        viper.GetBool("MQTT_ENABLED"),
			Broker:         viper.GetString("MQTT_BROKER"),
			ClientID:       viper.GetString("MQTT_CLIENT_ID"),
			Username:       viper.GetString("MQTT_USERNAME"),
			Password:       viper.GetString("MQTT_PASSWORD"),
			RegisterTopic:  viper.GetString("MQTT_REGISTER_TOPIC"),
			LocationTopic:  viper.GetString("MQTT_LOCATION_TOPIC"),
			StatusTopic:    viper.GetString("MQTT_STATUS_TOPIC"),
			HeartbeatTopic: viper.GetString("MQTT_HEARTBEAT_TOPIC"),
			BroadcastTopic: viper.GetString("MQTT_BROADCAST_TOPIC"),
			QoS:            byte(viper.GetInt("MQTT_QOS")),
		},
		Redis: RedisConfig{
			Enabled:          viper.GetBool("REDIS_ENABLED"),
			Host:             viper.GetString("REDIS_HOST"),
			Port:             viper.GetString("REDIS_PORT"),
			Password:         viper.GetString("REDIS_PASSWORD"),
			DB:               viper.GetInt("REDIS_DB"),
			BroadcastChannel: viper.GetString("REDIS_BROADCAST_CHANNEL"),
		},
		Breaker: BreakerConfig{
			FailureThreshold: viper.GetUint32("BREAKER_FAILURE_THRESHOLD"),
			Timeout:          viper.GetDuration("BREAKER_TIMEOUT"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
			DeviceRPS:    viper.GetFloat64("RATE_LIMIT_DEVICE_RPS"),
			DeviceBurst:  viper.GetInt("RATE_LIMIT_DEVICE_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("database configuration is missing: set DB_HOST and DB_NAME")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.GPS.StaleTimeout <= 0 || c.GPS.SweepInterval <= 0 {
		return errors.New("GPS_STALE_TIMEOUT and GPS_SWEEP_INTERVAL must be positive")
	}
	switch c.GPS.ProgressStrategy {
	case "random", "haversine":
	default:
		return fmt.Errorf("unsupported GPS_PROGRESS_STRATEGY %q", c.GPS.ProgressStrategy)
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("MQTT_BROKER is required when MQTT_ENABLED=true")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return errors.New("REDIS_HOST is required when REDIS_ENABLED=true")
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
