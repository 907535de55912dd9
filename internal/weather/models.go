package weather

import (
	"fmt"
	"math"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Coordinates are signed decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"latitude"`
	Lon float64 `json:"lon" yaml:"lon" validate:"longitude"`
}

// Rounded returns the coordinates rounded to the given number of decimal places.
func (c Coordinates) Rounded(places int) Coordinates {
	p := math.Pow(10, float64(places))
	return Coordinates{
		Lat: math.Round(c.Lat*p) / p,
		Lon: math.Round(c.Lon*p) / p,
	}
}

// Key returns a canonical string key for indexing by coordinates.
func (c Coordinates) Key() string {
	r := c.Rounded(4)
	return fmt.Sprintf("%.4f,%.4f", r.Lat, r.Lon)
}

// Location is a named place resolved to coordinates.
type Location struct {
	Name        string      `json:"name" yaml:"name"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.Coordinates.Key()
}

// ForecastSlot is one 3-hour entry of the 5-day forecast.
// Timestamp is expressed in the configured fixed zone.
type ForecastSlot struct {
	Timestamp   time.Time `json:"timestamp"`
	Temp        float64   `json:"temp"`
	TempMax     float64   `json:"tempMax"`
	TempMin     float64   `json:"tempMin"`
	FeelsLike   float64   `json:"feelsLike"`
	Humidity    int       `json:"humidity"`
	Pressure    float64   `json:"pressureHpa"`
	CloudCover  int       `json:"cloudCover"`
	WindSpeed   float64   `json:"windSpeed"`
	WindDeg     float64   `json:"windDeg"`
	Description string    `json:"description"`
	Condition   Condition `json:"condition"`
	PrecipMM    float64   `json:"precipMm"`
}

// DailyAggregate is the rollup of all slots sharing one local calendar date.
type DailyAggregate struct {
	Date          time.Time `json:"date"` // local midnight
	TempMean      float64   `json:"tempMean"`
	TempMax       float64   `json:"tempMax"`
	TempMin       float64   `json:"tempMin"`
	PrecipTotal   float64   `json:"precipTotal"`
	HumidityMean  float64   `json:"humidityMean"`
	WindSpeedMean float64   `json:"windSpeedMean"`
	Slots         int       `json:"slots"`

	// Description of the first slot of the day.
	Description string `json:"description"`
}

// CurrentConditions is a single snapshot from the current weather endpoint.
type CurrentConditions struct {
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	ObservedAt  time.Time `json:"observedAt"`
	Temp        float64   `json:"temp"`
	FeelsLike   float64   `json:"feelsLike"`
	TempMax     float64   `json:"tempMax"`
	TempMin     float64   `json:"tempMin"`
	Humidity    int       `json:"humidity"`
	Pressure    float64   `json:"pressureHpa"`
	WindSpeed   float64   `json:"windSpeed"`
	WindDeg     float64   `json:"windDeg"`
	VisibilityM float64   `json:"visibilityM"`
	CloudCover  int       `json:"cloudCover"`
	Description string    `json:"description"`
	Condition   Condition `json:"condition"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
}

// Outlook bundles one round of fetches for a location.
// Current and Slots come from independent calls and are not reconciled.
type Outlook struct {
	Location Location          `json:"location"`
	Current  CurrentConditions `json:"current"`
	Slots    []ForecastSlot    `json:"slots,omitempty"`
	Daily    []DailyAggregate  `json:"daily,omitempty"`
	Today    *DailyAggregate   `json:"today,omitempty"`

	// ForecastErr is set when the forecast could not be used; the
	// outlook then carries current conditions only.
	ForecastErr error `json:"-"`
}
