package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultControlPlaneURL = "http://localhost:8000/api/v1"
	DefaultRequestTimeout  = 15 * time.Second
	DefaultLivenessTTL     = 30 * time.Second
)

type Config struct {
	Server       ServerConfig
	ControlPlane ControlPlaneConfig
	Fallback     FallbackConfig
	Dashboard    DashboardConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	MQTT         MQTTConfig
	Auth         AuthConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type ControlPlaneConfig struct {
	BaseURL     string
	Timeout     time.Duration
	LivenessTTL time.Duration
}

type FallbackConfig struct {
	Enabled      bool
	LatencyScale float64 // Multiplier applied to the simulated fallback latency
	DatasetPath  string  // Optional YAML file replacing the embedded dataset
}

type DashboardConfig struct {
	ChartTimezone string
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	EventsTopic string
	QoS         byte
}

type AuthConfig struct {
	TokenSweepInterval time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	viper.SetDefault("CONTROL_PLANE_URL", DefaultControlPlaneURL)
	viper.SetDefault("CONTROL_PLANE_TIMEOUT_SECONDS", int(DefaultRequestTimeout/time.Second))
	viper.SetDefault("LIVENESS_TTL_SECONDS", int(DefaultLivenessTTL/time.Second))
	viper.SetDefault("FALLBACK_LATENCY_SCALE", 1.0)
	viper.SetDefault("CHART_TIMEZONE", "Local")
	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 20.0)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)
	viper.SetDefault("MQTT_CLIENT_ID", "kernex-dashboard")
	viper.SetDefault("MQTT_EVENTS_TOPIC", "kernex/dashboard/events")
	viper.SetDefault("TOKEN_SWEEP_INTERVAL_SECONDS", 60)

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
		},
		ControlPlane: ControlPlaneConfig{
			BaseURL:     strings.TrimRight(viper.GetString("CONTROL_PLANE_URL"), "/"),
			Timeout:     time.Duration(viper.GetInt("CONTROL_PLANE_TIMEOUT_SECONDS")) * time.Second,
			LivenessTTL: time.Duration(viper.GetInt("LIVENESS_TTL_SECONDS")) * time.Second,
		},
		Fallback: FallbackConfig{
			Enabled:      viper.GetBool("MOCK_FALLBACK_ENABLED"),
			LatencyScale: viper.GetFloat64("FALLBACK_LATENCY_SCALE"),
			DatasetPath:  viper.GetString("FALLBACK_DATASET_PATH"),
		},
		Dashboard: DashboardConfig{
			ChartTimezone: viper.GetString("CHART_TIMEZONE"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
		MQTT: MQTTConfig{
			Broker:      viper.GetString("MQTT_BROKER"),
			ClientID:    viper.GetString("MQTT_CLIENT_ID"),
			Username:    viper.GetString("MQTT_USERNAME"),
			Password:    viper.GetString("MQTT_PASSWORD"),
			EventsTopic: viper.GetString("MQTT_EVENTS_TOPIC"),
			QoS:         byte(viper.GetUint("MQTT_QOS")),
		},
		Auth: AuthConfig{
			TokenSweepInterval: time.Duration(viper.GetInt("TOKEN_SWEEP_INTERVAL_SECONDS")) * time.Second,
		},
	}

	if config.ControlPlane.Timeout <= 0 {
		config.ControlPlane.Timeout = DefaultRequestTimeout
	}
	if config.ControlPlane.LivenessTTL <= 0 {
		config.ControlPlane.LivenessTTL = DefaultLivenessTTL
	}
	if config.Fallback.LatencyScale < 0 {
		config.Fallback.LatencyScale = 0
	}

	return config, nil
}

// ChartLocation resolves the timezone used for chart bucket labels.
func (c *DashboardConfig) ChartLocation() (*time.Location, error) {
	if c.ChartTimezone == "" || c.ChartTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.ChartTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid chart timezone %q: %w", c.ChartTimezone, err)
	}
	return loc, nil
}

// Enabled reports whether operator events should be published.
func (c *MQTTConfig) Enabled() bool {
	return c.Broker != ""
}
