package report

import (
	"strings"

	"github.com/i474232898/weather-bulletin/internal/common"
	"github.com/i474232898/weather-bulletin/internal/weather"
)

// Labels carries every user-facing string of one output language.
type Labels struct {
	Title            string
	Temperature      string
	Conditions       string
	Precipitation    string
	Wind             string
	HumidityPressure string
	Sun              string

	Now        string
	FeelsLike  string
	Max        string
	Min        string
	Clouds     string
	Visibility string
	Today      string
	From       string
	Humidity   string
	Pressure   string
	Sunrise    string
	Sunset     string
	NoForecast string

	Rain [4]string // indexed by weather.RainIntensity

	Compass  [16]string
	Weekdays [7]string // Sunday first, like time.Weekday

	DigestTitle   string
	DigestTemp    string
	DigestClosing string
	Diagnostic    string

	TempMap   string
	PrecipMap string

	SlotColumns  []string
	DailyColumns []string
}

var english = Labels{
	Title:            "Weather Report",
	Temperature:      "Temperature",
	Conditions:       "Conditions",
	Precipitation:    "Precipitation",
	Wind:             "Wind",
	HumidityPressure: "Humidity & Pressure",
	Sun:              "Sun",

	Now:        "Now",
	FeelsLike:  "feels like",
	Max:        "Max",
	Min:        "Min",
	Clouds:     "Clouds",
	Visibility: "Visibility",
	Today:      "Today",
	From:       "from",
	Humidity:   "Humidity",
	Pressure:   "Pressure",
	Sunrise:    "Sunrise",
	Sunset:     "Sunset",
	NoForecast: "forecast unavailable, showing current conditions",

	Rain: [4]string{"no rain expected", "light rain", "moderate rain", "heavy rain"},

	Compass: [16]string{
		"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
	},
	Weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},

	DigestTitle:   "Weather Forecast",
	DigestTemp:    "Temp",
	DigestClosing: "Have a great day! ✨",
	Diagnostic:    "Error processing weather data",

	TempMap:   "🌡️ Temperature map",
	PrecipMap: "🌧️ Precipitation map",

	SlotColumns:  []string{"Date/Time", "Temp (°C)", "Max (°C)", "Min (°C)", "Humidity (%)", "Wind (m/s)", "Rain (mm)", "Description"},
	DailyColumns: []string{"Date", "Mean Temp (°C)", "Max Temp (°C)", "Min Temp (°C)", "Rain (mm)", "Humidity (%)", "Wind (m/s)"},
}

var portuguese = Labels{
	Title:            "Boletim do Tempo",
	Temperature:      "Temperatura",
	Conditions:       "Condições",
	Precipitation:    "Precipitação",
	Wind:             "Vento",
	HumidityPressure: "Umidade e Pressão",
	Sun:              "Sol",

	Now:        "Agora",
	FeelsLike:  "sensação",
	Max:        "Máxima",
	Min:        "Mínima",
	Clouds:     "Cobertura",
	Visibility: "Visibilidade",
	Today:      "Hoje",
	From:       "de",
	Humidity:   "Umidade",
	Pressure:   "Pressão",
	Sunrise:    "Nascer",
	Sunset:     "Pôr",
	NoForecast: "previsão indisponível, exibindo condições atuais",

	Rain: [4]string{"sem chuva prevista", "chuva fraca", "chuva moderada", "chuva forte"},

	Compass: [16]string{
		"N", "NNE", "NE", "ENE", "L", "ESE", "SE", "SSE",
		"S", "SSO", "SO", "OSO", "O", "ONO", "NO", "NNO",
	},
	Weekdays: [7]string{"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado"},

	DigestTitle:   "Previsão do Tempo",
	DigestTemp:    "Temp",
	DigestClosing: "Tenha um ótimo dia! ✨",
	Diagnostic:    "Erro ao processar dados do clima",

	TempMap:   "🌡️ Mapa de temperatura",
	PrecipMap: "🌧️ Mapa de precipitação",

	SlotColumns:  []string{"Data/Hora", "Temp (°C)", "Máx (°C)", "Mín (°C)", "Umidade (%)", "Vento (m/s)", "Chuva (mm)", "Descrição"},
	DailyColumns: []string{"Data", "Temp Média (°C)", "Temp Máx (°C)", "Temp Mín (°C)", "Chuva (mm)", "Umidade (%)", "Vento (m/s)"},
}

// LabelsFor returns the label set for locale, defaulting to English.
// Provider-style codes such as "pt_br" and "pt-BR" are both accepted.
func LabelsFor(locale string) Labels {
	switch strings.ToLower(strings.ReplaceAll(locale, "-", "_")) {
	case "pt", "pt_br":
		return portuguese
	default:
		return english
	}
}

// RainPhrase returns the phrase for an intensity bucket.
func (l Labels) RainPhrase(r weather.RainIntensity) string {
	if r < weather.RainNone || r > weather.RainHeavy {
		return l.Rain[weather.RainNone]
	}
	return l.Rain[r]
}

// CompassLabel returns the localized abbreviation for a compass point.
func (l Labels) CompassLabel(c weather.Compass) string {
	return l.Compass[c]
}

// iconFor picks the icon for c, guessing the condition from the free-text
// description when the provider group is unknown.
func iconFor(c weather.Condition, description string) string {
	if c == weather.ConditionUnknown {
		d := strings.ToLower(description)
		switch {
		case common.HasAny(d, "trovoada", "thunder", "tempestade", "storm"):
			c = weather.ConditionStorm
		case common.HasAny(d, "chuva", "garoa", "rain", "drizzle", "shower"):
			c = weather.ConditionRain
		case common.HasAny(d, "neve", "snow"):
			c = weather.ConditionSnow
		case common.HasAny(d, "névoa", "neblina", "mist", "fog", "haze"):
			c = weather.ConditionMist
		case common.HasAny(d, "nublado", "nuvens", "cloud"):
			c = weather.ConditionCloudy
		case common.HasAny(d, "limpo", "clear", "sunny"):
			c = weather.ConditionClear
		}
	}
	return conditionIcon(c)
}

func conditionIcon(c weather.Condition) string {
	switch c {
	case weather.ConditionClear:
		return "☀️"
	case weather.ConditionCloudy:
		return "☁️"
	case weather.ConditionRain:
		return "🌧️"
	case weather.ConditionSnow:
		return "❄️"
	case weather.ConditionStorm:
		return "⛈️"
	case weather.ConditionMist:
		return "🌫️"
	default:
		return "🌤️"
	}
}
