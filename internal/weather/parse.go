package weather

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

type mainBlock struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type weatherBlock struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type windBlock struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

type cloudsBlock struct {
	All int `json:"all"`
}

type forecastItem struct {
	Dt      *int64         `json:"dt"`
	Main    *mainBlock     `json:"main"`
	Weather []weatherBlock `json:"weather"`
	Wind    windBlock      `json:"wind"`
	Clouds  cloudsBlock    `json:"clouds"`
	Rain    struct {
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
}

type currentPayload struct {
	Dt         int64          `json:"dt"`
	Name       string         `json:"name"`
	Main       mainBlock      `json:"main"`
	Weather    []weatherBlock `json:"weather"`
	Wind       windBlock      `json:"wind"`
	Clouds     cloudsBlock    `json:"clouds"`
	Visibility float64        `json:"visibility"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

// ToSlots decodes a 5-day / 3-hour forecast payload into slots expressed in zone.
// A payload without "list" or carrying an error code is a FetchError; an entry
// missing "main", "weather" or "dt" is a FormatError.
func ToSlots(raw []byte, zone *time.Location) ([]ForecastSlot, error) {
	top, err := topLevel("forecast", raw, "list")
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(top["list"], &items); err != nil {
		return nil, NewFetchError("forecast", fmt.Errorf("decode list: %w", err))
	}

	slots := make([]ForecastSlot, 0, len(items))
	for i, rawItem := range items {
		var item forecastItem
		if err := json.Unmarshal(rawItem, &item); err != nil {
			return nil, NewFetchError("forecast", fmt.Errorf("decode list entry %d: %w", i, err))
		}
		switch {
		case item.Dt == nil:
			return nil, &FormatError{Field: "dt", Index: i}
		case item.Main == nil:
			return nil, &FormatError{Field: "main", Index: i}
		case len(item.Weather) == 0:
			return nil, &FormatError{Field: "weather", Index: i}
		}

		slots = append(slots, ForecastSlot{
			Timestamp:   time.Unix(*item.Dt, 0).In(zone),
			Temp:        item.Main.Temp,
			TempMax:     item.Main.TempMax,
			TempMin:     item.Main.TempMin,
			FeelsLike:   item.Main.FeelsLike,
			Humidity:    item.Main.Humidity,
			Pressure:    item.Main.Pressure,
			CloudCover:  item.Clouds.All,
			WindSpeed:   item.Wind.Speed,
			WindDeg:     item.Wind.Deg,
			Description: item.Weather[0].Description,
			Condition:   MapCondition(item.Weather[0].Main),
			PrecipMM:    item.Rain.ThreeH,
		})
	}
	return slots, nil
}

// ParseCurrent decodes a current weather payload. Both "main" and a non-empty
// "weather" array are required.
func ParseCurrent(raw []byte, zone *time.Location) (CurrentConditions, error) {
	if _, err := topLevel("current", raw, "main", "weather"); err != nil {
		return CurrentConditions{}, err
	}

	var p currentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return CurrentConditions{}, NewFetchError("current", fmt.Errorf("decode: %w", err))
	}
	if len(p.Weather) == 0 {
		return CurrentConditions{}, NewFetchError("current", fmt.Errorf("%w: weather is empty", errMissingKeys))
	}

	cur := CurrentConditions{
		Name:        p.Name,
		Country:     p.Sys.Country,
		Temp:        p.Main.Temp,
		FeelsLike:   p.Main.FeelsLike,
		TempMax:     p.Main.TempMax,
		TempMin:     p.Main.TempMin,
		Humidity:    p.Main.Humidity,
		Pressure:    p.Main.Pressure,
		WindSpeed:   p.Wind.Speed,
		WindDeg:     p.Wind.Deg,
		VisibilityM: p.Visibility,
		CloudCover:  p.Clouds.All,
		Description: p.Weather[0].Description,
		Condition:   MapCondition(p.Weather[0].Main),
	}
	if p.Dt > 0 {
		cur.ObservedAt = time.Unix(p.Dt, 0).In(zone)
	}
	if p.Sys.Sunrise > 0 {
		cur.Sunrise = time.Unix(p.Sys.Sunrise, 0).In(zone)
	}
	if p.Sys.Sunset > 0 {
		cur.Sunset = time.Unix(p.Sys.Sunset, 0).In(zone)
	}
	return cur, nil
}

// topLevel decodes the object's keys, rejects embedded API errors and checks
// that every required key is present.
func topLevel(endpoint string, raw []byte, required ...string) (map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, NewFetchError(endpoint, fmt.Errorf("decode: %w", err))
	}
	if top == nil {
		return nil, NewFetchError(endpoint, fmt.Errorf("%w: empty body", errMissingKeys))
	}

	if cod, ok := top["cod"]; ok {
		code, err := strconv.Atoi(string(bytes.Trim(cod, `"`)))
		if err != nil || code != 200 {
			var msg string
			_ = json.Unmarshal(top["message"], &msg)
			return nil, NewFetchError(endpoint, fmt.Errorf("%w: cod=%s %s", errAPIStatus, cod, msg))
		}
	}

	for _, key := range required {
		v, ok := top[key]
		if !ok || string(v) == "null" {
			return nil, NewFetchError(endpoint, fmt.Errorf("%w: %s", errMissingKeys, key))
		}
	}
	return top, nil
}

// MapCondition normalizes the provider's weather group name.
func MapCondition(group string) Condition {
	switch group {
	case "Clear":
		return ConditionClear
	case "Clouds":
		return ConditionCloudy
	case "Rain", "Drizzle":
		return ConditionRain
	case "Snow":
		return ConditionSnow
	case "Thunderstorm":
		return ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust":
		return ConditionMist
	default:
		return ConditionUnknown
	}
}
