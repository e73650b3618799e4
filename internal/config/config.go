// Package config provides application configuration from environment variables
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// DefaultAPIKey is the public, rate-limited NASA key used when none is configured
const DefaultAPIKey = "DEMO_KEY"

// AppConfig holds all application configuration
type AppConfig struct {
	ListenAddr  string
	NasaAPIBase string
	NasaAPIKey  string
	HTTPTimeout time.Duration
	LogLevel    string
	DatabaseURL string
	Viewer      ViewerSettings
	Defaults    PanelDefaults
	MQTT        MQTTSettings
}

// ViewerSettings describes the person looking at the dashboard
type ViewerSettings struct {
	Location *time.Location
	Locale   language.Tag
}

// PanelDefaults seeds the committed rover query at startup
type PanelDefaults struct {
	Rover string
	Sol   int
}

// MQTTSettings configures the optional panel state broadcast
type MQTTSettings struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
}

// Enabled reports whether a broker was configured
func (m MQTTSettings) Enabled() bool {
	return m.BrokerURL != ""
}

// LoadConfig loads configuration from the environment and an optional .env file
func LoadConfig() (*AppConfig, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LISTEN_ADDR", ":3000")
	v.SetDefault("NASA_API_BASE", "https://api.nasa.gov")
	v.SetDefault("NASA_API_KEY", DefaultAPIKey)
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("VIEWER_TIMEZONE", "Local")
	v.SetDefault("DISPLAY_LOCALE", "en-US")
	v.SetDefault("DEFAULT_ROVER", "curiosity")
	v.SetDefault("DEFAULT_SOL", 1000)
	v.SetDefault("MQTT_BROKER_URL", "")
	v.SetDefault("MQTT_CLIENT_ID", "mission-control")
	v.SetDefault("MQTT_TOPIC_PREFIX", "mission-control")
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	loc, err := time.LoadLocation(v.GetString("VIEWER_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid VIEWER_TIMEZONE: %w", err)
	}

	locale, err := language.Parse(v.GetString("DISPLAY_LOCALE"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_LOCALE: %w", err)
	}

	timeout := v.GetInt("HTTP_TIMEOUT_SECONDS")
	if timeout <= 0 {
		return nil, fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", timeout)
	}

	apiKey := strings.TrimSpace(v.GetString("NASA_API_KEY"))
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}

	return &AppConfig{
		ListenAddr:  v.GetString("LISTEN_ADDR"),
		NasaAPIBase: strings.TrimRight(v.GetString("NASA_API_BASE"), "/"),
		NasaAPIKey:  apiKey,
		HTTPTimeout: time.Duration(timeout) * time.Second,
		LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
		DatabaseURL: v.GetString("DATABASE_URL"),
		Viewer: ViewerSettings{
			Location: loc,
			Locale:   locale,
		},
		Defaults: PanelDefaults{
			Rover: strings.ToLower(v.GetString("DEFAULT_ROVER")),
			Sol:   v.GetInt("DEFAULT_SOL"),
		},
		MQTT: MQTTSettings{
			BrokerURL:   v.GetString("MQTT_BROKER_URL"),
			ClientID:    v.GetString("MQTT_CLIENT_ID"),
			TopicPrefix: strings.TrimRight(v.GetString("MQTT_TOPIC_PREFIX"), "/"),
		},
	}, nil
}
