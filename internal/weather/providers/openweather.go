package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-bulletin/internal/weather"
)

const (
	DefaultBaseURL    = "https://api.openweathermap.org/data/2.5"
	DefaultMapURL     = "https://maps.openweathermap.org/maps/2.0/wms"
	DefaultLang       = "pt_br"
	DefaultTimeout    = 10 * time.Second
	DefaultMapTimeout = 15 * time.Second
)

// MapLayer selects the overlay rendered by the map endpoint.
type MapLayer string

const (
	LayerTemp          MapLayer = "temp"
	LayerPrecipitation MapLayer = "precipitation"
)

// BoundingBox is expressed in decimal degrees.
type BoundingBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// BoundingBoxAround returns a square box of half-width span degrees centred on c.
func BoundingBoxAround(c weather.Coordinates, span float64) BoundingBox {
	return BoundingBox{
		MinLon: c.Lon - span,
		MinLat: c.Lat - span,
		MaxLon: c.Lon + span,
		MaxLat: c.Lat + span,
	}
}

func (b BoundingBox) String() string {
	parts := []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = strconv.FormatFloat(p, 'f', 4, 64)
	}
	return strings.Join(s, ",")
}

// OpenWeatherConfig holds the settings of an OpenWeatherProvider. Zero values
// fall back to the package defaults.
type OpenWeatherConfig struct {
	APIKey     string
	BaseURL    string
	MapURL     string
	Lang       string
	Zone       *time.Location
	Timeout    time.Duration
	MapTimeout time.Duration
}

// OpenWeatherProvider implements weather.Client for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	cfg     OpenWeatherConfig
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

var _ weather.Client = (*OpenWeatherProvider)(nil)

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig) *OpenWeatherProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MapURL == "" {
		cfg.MapURL = DefaultMapURL
	}
	if cfg.Lang == "" {
		cfg.Lang = DefaultLang
	}
	if cfg.Zone == nil {
		cfg.Zone = weather.NewFixedZone(weather.DefaultUTCOffset)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MapTimeout <= 0 {
		cfg.MapTimeout = DefaultMapTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &OpenWeatherProvider{
		name:    "openweathermap",
		cfg:     cfg,
		client:  client,
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// FetchCurrent calls the current weather endpoint.
func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, c weather.Coordinates) (weather.CurrentConditions, error) {
	body, err := p.get(ctx, "weather", c)
	if err != nil {
		return weather.CurrentConditions{}, weather.NewFetchError("current", err)
	}
	return weather.ParseCurrent(body, p.cfg.Zone)
}

// FetchForecast calls the 5 day / 3 hour forecast endpoint.
func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, c weather.Coordinates) ([]weather.ForecastSlot, error) {
	body, err := p.get(ctx, "forecast", c)
	if err != nil {
		return nil, weather.NewFetchError("forecast", err)
	}
	return weather.ToSlots(body, p.cfg.Zone)
}

func (p *OpenWeatherProvider) get(ctx context.Context, path string, c weather.Coordinates) ([]byte, error) {
	if p.cfg.APIKey == "" {
		return nil, errNoAPIKey
	}

	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))
	values.Set("appid", p.cfg.APIKey)
	values.Set("units", "metric")
	values.Set("lang", p.cfg.Lang)

	u := fmt.Sprintf("%s/%s?%s", p.cfg.BaseURL, path, values.Encode())
	return doRequest(ctx, p.client, p.circuit, p.cfg.Timeout, u)
}

// FetchMapImage downloads an overlay image for the bounding box. The body must
// sniff as an image; anything else is a FetchError.
func (p *OpenWeatherProvider) FetchMapImage(ctx context.Context, layer MapLayer, bbox BoundingBox) ([]byte, error) {
	if p.cfg.APIKey == "" {
		return nil, weather.NewFetchError("map", errNoAPIKey)
	}

	values := url.Values{}
	values.Set("service", "WMS")
	values.Set("request", "GetMap")
	values.Set("layers", string(layer))
	values.Set("bbox", bbox.String())
	values.Set("width", "512")
	values.Set("height", "512")
	values.Set("format", "image/png")
	values.Set("appid", p.cfg.APIKey)

	u := fmt.Sprintf("%s?%s", p.cfg.MapURL, values.Encode())
	body, err := doRequest(ctx, p.client, p.circuit, p.cfg.MapTimeout, u)
	if err != nil {
		return nil, weather.NewFetchError("map", err)
	}

	if mt := mimetype.Detect(body); !strings.HasPrefix(mt.String(), "image/") {
		return nil, weather.NewFetchError("map", fmt.Errorf("%w: content is %s", errUnexpected, mt.String()))
	}
	return body, nil
}
