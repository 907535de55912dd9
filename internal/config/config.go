package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-bulletin/internal/weather"
)

type AppConfig struct {
	OpenWeatherAPIKey  string `yaml:"openweather_api_key" validate:"required"`
	OpenWeatherBaseURL string `yaml:"openweather_base_url" validate:"omitempty,url"`
	OpenWeatherMapURL  string `yaml:"openweather_map_url" validate:"omitempty,url"`
	// Lang is passed to the provider for descriptions; Locale picks report labels.
	Lang   string `yaml:"lang"`
	Locale string `yaml:"locale" validate:"omitempty,oneof=en pt pt_br pt-BR pt_BR"`

	// UTCOffset is the fixed offset used for local dates and report times.
	UTCOffset      time.Duration          `yaml:"utc_offset" validate:"gte=-14h,lte=14h"`
	RequestTimeout time.Duration          `yaml:"request_timeout" validate:"gt=0"`
	MapTimeout     time.Duration          `yaml:"map_timeout" validate:"gt=0"`
	CacheWindow    time.Duration          `yaml:"cache_window" validate:"gt=0"`
	Rain           weather.RainThresholds `yaml:"rain"`

	// Delivery webhook.
	TextMeBotURL    string  `yaml:"textmebot_url" validate:"omitempty,url"`
	TextMeBotAPIKey string  `yaml:"textmebot_api_key"`
	Phone           string  `yaml:"phone" validate:"omitempty,e164"`
	DeliveryRate    float64 `yaml:"delivery_rate" validate:"gt=0"`
	DeliveryBurst   int     `yaml:"delivery_burst" validate:"gte=1"`

	// Location of the bulletin. LocationQuery, when set, is geocoded at
	// startup and Location is the fallback.
	Location       weather.Location `yaml:"location"`
	LocationQuery  string           `yaml:"location_query"`
	GeocoderAPIKey string           `yaml:"geocoder_api_key"`

	ReportCron   string   `yaml:"report_cron" validate:"required"`
	BulletinMode string   `yaml:"bulletin_mode" validate:"oneof=report digest both"`
	MapLayers    []string `yaml:"map_layers" validate:"dive,oneof=temp precipitation"`
	MapSpan      float64  `yaml:"map_span" validate:"gt=0,lte=20"`

	// In-memory report history retention.
	StoreMaxHistory int           `yaml:"store_max_history"` // max number of reports per location (0 = unlimited)
	StoreMaxAge     time.Duration `yaml:"store_max_age"`     // max age of reports (0 = unlimited)

	Port string `yaml:"port" validate:"required,numeric"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *AppConfig {
	return &AppConfig{
		Lang:           "pt_br",
		Locale:         "pt_br",
		UTCOffset:      weather.DefaultUTCOffset,
		RequestTimeout: 10 * time.Second,
		MapTimeout:     15 * time.Second,
		CacheWindow:    time.Hour,
		Rain:           weather.DefaultRainThresholds,

		DeliveryRate:  0.2,
		DeliveryBurst: 1,

		Location: weather.Location{
			Name:        "Goiânia",
			Coordinates: weather.Coordinates{Lat: -15.8942, Lon: -48.9293},
		},

		ReportCron:   "0 7 * * *",
		BulletinMode: "report",
		MapSpan:      2,

		StoreMaxHistory: 30,
		StoreMaxAge:     7 * 24 * time.Hour,

		Port: "8080",
	}
}

// Load reads configuration from an optional YAML file named by
// WEATHER_CONFIG_FILE, then from environment variables, which win.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := Defaults()

	if path := os.Getenv("WEATHER_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *AppConfig) error {
	var err error

	cfg.OpenWeatherAPIKey = getenvDefault("OPENWEATHER_API_KEY", cfg.OpenWeatherAPIKey)
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", cfg.OpenWeatherBaseURL)
	cfg.OpenWeatherMapURL = getenvDefault("OPENWEATHER_MAP_URL", cfg.OpenWeatherMapURL)
	cfg.Lang = getenvDefault("OPENWEATHER_LANG", cfg.Lang)
	cfg.Locale = getenvDefault("REPORT_LOCALE", cfg.Locale)

	if cfg.UTCOffset, err = getenvDuration("UTC_OFFSET", cfg.UTCOffset); err != nil {
		return err
	}
	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return err
	}
	if cfg.MapTimeout, err = getenvDuration("MAP_TIMEOUT", cfg.MapTimeout); err != nil {
		return err
	}
	if cfg.CacheWindow, err = getenvDuration("CACHE_WINDOW", cfg.CacheWindow); err != nil {
		return err
	}
	if cfg.Rain.Moderate, err = getenvFloat("RAIN_MODERATE_MM", cfg.Rain.Moderate); err != nil {
		return err
	}
	if cfg.Rain.Heavy, err = getenvFloat("RAIN_HEAVY_MM", cfg.Rain.Heavy); err != nil {
		return err
	}

	cfg.TextMeBotURL = getenvDefault("TEXTMEBOT_URL", cfg.TextMeBotURL)
	cfg.TextMeBotAPIKey = getenvDefault("TEXTMEBOT_API_KEY", cfg.TextMeBotAPIKey)
	cfg.Phone = getenvDefault("WHATSAPP_PHONE", cfg.Phone)
	if cfg.DeliveryRate, err = getenvFloat("DELIVERY_RATE", cfg.DeliveryRate); err != nil {
		return err
	}
	cfg.DeliveryBurst = getenvInt("DELIVERY_BURST", cfg.DeliveryBurst)

	cfg.Location.Name = getenvDefault("WEATHER_LOCATION_NAME", cfg.Location.Name)
	if cfg.Location.Coordinates.Lat, err = getenvFloat("WEATHER_LOCATION_LAT", cfg.Location.Coordinates.Lat); err != nil {
		return err
	}
	if cfg.Location.Coordinates.Lon, err = getenvFloat("WEATHER_LOCATION_LON", cfg.Location.Coordinates.Lon); err != nil {
		return err
	}
	cfg.LocationQuery = getenvDefault("WEATHER_LOCATION_QUERY", cfg.LocationQuery)
	cfg.GeocoderAPIKey = getenvDefault("GOOGLE_GEOCODING_API_KEY", cfg.GeocoderAPIKey)

	cfg.ReportCron = getenvDefault("REPORT_CRON", cfg.ReportCron)
	cfg.BulletinMode = strings.ToLower(getenvDefault("BULLETIN_MODE", cfg.BulletinMode))
	if v := os.Getenv("MAP_LAYERS"); v != "" {
		cfg.MapLayers = splitList(v)
	}
	if cfg.MapSpan, err = getenvFloat("MAP_SPAN", cfg.MapSpan); err != nil {
		return err
	}

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", cfg.StoreMaxHistory)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", cfg.StoreMaxAge); err != nil {
		return err
	}
	cfg.Port = getenvDefault("PORT", cfg.Port)

	return nil
}

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Zone returns the fixed zone for UTCOffset.
func (c *AppConfig) Zone() *time.Location {
	return weather.NewFixedZone(c.UTCOffset)
}

// DeliveryEnabled reports whether bulletins can be sent.
func (c *AppConfig) DeliveryEnabled() bool {
	return c.TextMeBotAPIKey != "" && c.Phone != ""
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
