package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-bulletin/internal/weather"
)

var testZone = weather.NewFixedZone(weather.DefaultUTCOffset)

func fixedFormatter(locale string) *Formatter {
	f := NewFormatter(Options{Locale: locale, Zone: testZone})
	f.now = func() time.Time { return time.Date(2024, 3, 10, 9, 30, 0, 0, testZone) }
	return f
}

func sampleCurrent() weather.CurrentConditions {
	return weather.CurrentConditions{
		Name:        "Goiânia",
		Country:     "BR",
		Temp:        26.3,
		FeelsLike:   27.1,
		TempMax:     29.2,
		TempMin:     24.0,
		Humidity:    62,
		Pressure:    1013,
		WindSpeed:   2.6,
		WindDeg:     90,
		VisibilityM: 10000,
		CloudCover:  40,
		Description: "nuvens dispersas",
		Condition:   weather.ConditionCloudy,
		Sunrise:     time.Date(2024, 3, 10, 6, 10, 0, 0, testZone),
		Sunset:      time.Date(2024, 3, 10, 18, 30, 0, 0, testZone),
	}
}

func TestFormatTextPrecipitationBuckets(t *testing.T) {
	f := fixedFormatter("en")

	cases := []struct {
		precip float64
		want   string
	}{
		{0, "Today: no rain expected"},
		{3.2, "Today: 3.2 mm (light rain)"},
		{0.04, "Today: 0.04 mm (light rain)"},
		{4.99, "Today: 4.99 mm (light rain)"},
		{4.9999, "Today: 4.9999 mm (light rain)"},
		{5.0, "Today: 5.0 mm (moderate rain)"},
		{24.9, "Today: 24.9 mm (moderate rain)"},
		{24.99, "Today: 24.99 mm (moderate rain)"},
		{25.04, "Today: 25.0 mm (heavy rain)"},
		{25.0, "Today: 25.0 mm (heavy rain)"},
	}
	for _, tc := range cases {
		today := &weather.DailyAggregate{TempMax: 30.5, TempMin: 20.0, PrecipTotal: tc.precip}
		got := f.FormatText(sampleCurrent(), today)
		assert.Contains(t, got, tc.want, "precip %.2f", tc.precip)
	}
}

func TestFormatTextUsesTodayExtremes(t *testing.T) {
	f := fixedFormatter("en")
	today := &weather.DailyAggregate{TempMax: 30.5, TempMin: 20.0, PrecipTotal: 3.2}

	got := f.FormatText(sampleCurrent(), today)

	assert.Contains(t, got, "Max: 30.5°C | Min: 20.0°C")
	assert.Contains(t, got, "Now: 26.3°C (feels like 27.1°C)")
	assert.NotContains(t, got, "forecast unavailable")
}

func TestFormatTextWithoutForecastFallsBack(t *testing.T) {
	f := fixedFormatter("en")

	got := f.FormatText(sampleCurrent(), nil)

	assert.Contains(t, got, "Max: 29.2°C | Min: 24.0°C")
	assert.Contains(t, got, "Today: no rain expected")
	assert.Contains(t, got, "forecast unavailable")
}

func TestFormatTextSectionsAndDetails(t *testing.T) {
	f := fixedFormatter("en")
	got := f.FormatText(sampleCurrent(), nil)

	headings := []string{
		"*Weather Report - Goiânia, BR*",
		"*Temperature*",
		"*Conditions*",
		"*Precipitation*",
		"*Wind*",
		"*Humidity & Pressure*",
		"*Sun*",
	}
	last := -1
	for _, h := range headings {
		idx := strings.Index(got, h)
		require.GreaterOrEqual(t, idx, 0, "missing %q", h)
		assert.Greater(t, idx, last, "%q out of order", h)
		last = idx
	}

	assert.Contains(t, got, "📅 10/03/2024 09:30")
	assert.Contains(t, got, "Nuvens dispersas")
	assert.Contains(t, got, "Clouds: 40%")
	assert.Contains(t, got, "Visibility: 10.0 km")
	assert.Contains(t, got, "2.6 m/s from E (90°)")
	assert.Contains(t, got, "Humidity: 62%")
	assert.Contains(t, got, "Pressure: 1013.0 hPa")
	assert.Contains(t, got, "Sunrise: 06:10 | Sunset: 18:30")
}

func TestFormatTextWindCompassEdges(t *testing.T) {
	f := fixedFormatter("en")
	cases := map[float64]string{
		0:      "from N (0°)",
		11.24:  "from N (11°)",
		11.25:  "from NNE (11°)",
		348.75: "from N (349°)",
		359:    "from N (359°)",
		225:    "from SW (225°)",
	}
	for deg, want := range cases {
		cur := sampleCurrent()
		cur.WindDeg = deg
		assert.Contains(t, f.FormatText(cur, nil), want, "deg %.2f", deg)
	}
}

func TestFormatTextPortuguese(t *testing.T) {
	f := fixedFormatter("pt_BR")
	cur := sampleCurrent()
	cur.WindDeg = 270

	got := f.FormatText(cur, &weather.DailyAggregate{TempMax: 30, TempMin: 20, PrecipTotal: 7})

	assert.Contains(t, got, "*Boletim do Tempo - Goiânia, BR*")
	assert.Contains(t, got, "Hoje: 7.0 mm (chuva moderada)")
	assert.Contains(t, got, "de O (270°)")
}

func TestFormatTextMissingSunTimes(t *testing.T) {
	f := fixedFormatter("en")
	cur := sampleCurrent()
	cur.Sunrise, cur.Sunset = time.Time{}, time.Time{}

	assert.Contains(t, f.FormatText(cur, nil), "Sunrise: --:-- | Sunset: --:--")
}

func TestFormatDigest(t *testing.T) {
	f := fixedFormatter("en")
	days := []weather.DailyAggregate{
		{
			Date:          time.Date(2024, 3, 10, 0, 0, 0, 0, testZone),
			TempMin:       19.6,
			TempMax:       30.4,
			PrecipTotal:   0,
			HumidityMean:  64.6,
			WindSpeedMean: 2.25,
			Description:   "céu limpo",
		},
		{
			Date:          time.Date(2024, 3, 11, 0, 0, 0, 0, testZone),
			TempMin:       21,
			TempMax:       27,
			PrecipTotal:   12.5,
			HumidityMean:  80,
			WindSpeedMean: 3,
			Description:   "chuva moderada",
		},
	}

	got := f.FormatDigest("Goiânia", days)

	assert.True(t, strings.HasPrefix(got, "🌤️ *Weather Forecast - Goiânia*"))
	assert.Contains(t, got, "📅 *Sunday - 10/03*")
	assert.Contains(t, got, "🌡️ Temp: 20°C - 30°C")
	assert.Contains(t, got, "☀️ Céu limpo")
	assert.Contains(t, got, "💧 Humidity: 65%")
	assert.Contains(t, got, "📅 *Monday - 11/03*")
	assert.Contains(t, got, "🌧️ Chuva moderada")
	assert.Contains(t, got, "🌧️ 12.5 mm (moderate rain)")
	assert.True(t, strings.HasSuffix(got, "Have a great day! ✨"))
	assert.Equal(t, 1, strings.Count(got, "mm ("), "dry day must not print a rain line")
}

func TestFormatDigestRainAmountKeepsBucket(t *testing.T) {
	f := fixedFormatter("en")
	days := []weather.DailyAggregate{{
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, testZone),
		PrecipTotal: 24.99,
		Description: "chuva moderada",
	}}

	got := f.FormatDigest("Goiânia", days)
	assert.Contains(t, got, "🌧️ 24.99 mm (moderate rain)")
	assert.NotContains(t, got, "25.0 mm")
}

func TestDigestOrDiagnostic(t *testing.T) {
	f := fixedFormatter("en")

	got := f.DigestOrDiagnostic("Goiânia", nil, &weather.FormatError{Field: "main", Index: 2})
	assert.Equal(t, "Error processing weather data", got)

	wrapped := weather.NewFetchError("forecast", errors.New("boom"))
	got = f.DigestOrDiagnostic("Goiânia", nil, wrapped)
	assert.Contains(t, got, "Weather Forecast - Goiânia")
}

func TestRenderText(t *testing.T) {
	f := fixedFormatter("en")
	out := weather.Outlook{
		Location:    weather.Location{Name: "Goiânia"},
		Current:     sampleCurrent(),
		ForecastErr: errors.New("timeout"),
	}

	r := f.Render(Style("unknown"), out)

	assert.Equal(t, StyleText, r.Style)
	assert.True(t, r.Degraded)
	assert.Nil(t, r.Series)
	assert.Contains(t, r.Text, "Weather Report")
	assert.NotEqual(t, uuid.Nil, r.ID)
}

func TestRenderSeries(t *testing.T) {
	f := fixedFormatter("en")
	ts := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	slots := []weather.ForecastSlot{
		{Timestamp: ts, Temp: 25.04, TempMax: 28, TempMin: 20, Humidity: 70, WindSpeed: 3.44, PrecipMM: 1.56, Description: "chuva leve"},
		{Timestamp: ts.Add(3 * time.Hour), Temp: 27, TempMax: 30, TempMin: 22, Humidity: 60, WindSpeed: 2, Description: "céu limpo"},
	}
	out := weather.Outlook{
		Current: sampleCurrent(),
		Slots:   slots,
		Daily:   weather.DailyRollup(slots, testZone),
	}

	r := f.Render(StyleSeries, out)

	require.NotNil(t, r.Series)
	assert.Empty(t, r.Text)
	assert.False(t, r.Degraded)

	require.Len(t, r.Series.Slots.Rows, 2)
	assert.Equal(t, english.SlotColumns, r.Series.Slots.Columns)
	assert.Equal(t, []any{"2024-03-10 09:00", 25.0, 28.0, 20.0, 70, 3.4, 1.6, "Chuva leve"}, r.Series.Slots.Rows[0])

	require.Len(t, r.Series.Daily.Rows, 1)
	assert.Equal(t, "2024-03-10", r.Series.Daily.Rows[0][0])

	require.NotNil(t, r.Series.Stats)
	assert.Equal(t, 30.0, r.Series.Stats.TempMax)
	assert.Equal(t, 1, r.Series.Stats.RainySlots)
}

func TestLabelsFor(t *testing.T) {
	assert.Equal(t, "Boletim do Tempo", LabelsFor("pt-BR").Title)
	assert.Equal(t, "Boletim do Tempo", LabelsFor("pt").Title)
	assert.Equal(t, "Weather Report", LabelsFor("").Title)
	assert.Equal(t, "Weather Report", LabelsFor("fr").Title)
}
