package report

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-bulletin/internal/common"
	"github.com/i474232898/weather-bulletin/internal/weather"
)

// Style selects how a Report is presented.
type Style string

const (
	// StyleText is a multi-section message for chat delivery.
	StyleText Style = "text"
	// StyleSeries is a set of tables for chart rendering.
	StyleSeries Style = "series"
)

// Options configure a Formatter.
type Options struct {
	Locale string
	Zone   *time.Location
	Rain   weather.RainThresholds
}

// Formatter renders outlooks as text or chart-ready tables.
type Formatter struct {
	labels Labels
	zone   *time.Location
	rain   weather.RainThresholds
	now    func() time.Time
}

// NewFormatter creates a Formatter. Zero options fall back to English, the
// default fixed zone and the default rain thresholds.
func NewFormatter(opts Options) *Formatter {
	if opts.Zone == nil {
		opts.Zone = weather.NewFixedZone(weather.DefaultUTCOffset)
	}
	if opts.Rain.Moderate <= 0 || opts.Rain.Heavy <= opts.Rain.Moderate {
		opts.Rain = weather.DefaultRainThresholds
	}
	return &Formatter{
		labels: LabelsFor(opts.Locale),
		zone:   opts.Zone,
		rain:   opts.Rain,
		now:    time.Now,
	}
}

// Labels returns the label set in use.
func (f *Formatter) Labels() Labels {
	return f.labels
}

// Report is the artifact produced from one outlook.
type Report struct {
	ID          uuid.UUID        `json:"id"`
	Location    weather.Location `json:"location"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Style       Style            `json:"style"`
	Text        string           `json:"text,omitempty"`
	Series      *Series          `json:"series,omitempty"`

	// Degraded is set when the forecast was unavailable.
	Degraded bool `json:"degraded"`
}

// Series holds the tables behind the dashboard charts.
type Series struct {
	Slots Table                `json:"slots"`
	Daily Table                `json:"daily"`
	Stats *weather.SeriesStats `json:"stats,omitempty"`
}

// Render formats out in the given style.
func (f *Formatter) Render(style Style, out weather.Outlook) Report {
	r := Report{
		ID:          uuid.New(),
		Location:    out.Location,
		GeneratedAt: f.now().In(f.zone),
		Style:       style,
		Degraded:    out.ForecastErr != nil,
	}

	switch style {
	case StyleSeries:
		s := &Series{
			Slots: f.SlotTable(out.Slots),
			Daily: f.DailyTable(out.Daily),
		}
		if st, ok := weather.SummarizeSlots(out.Slots); ok {
			s.Stats = &st
		}
		r.Series = s
	default:
		r.Style = StyleText
		r.Text = f.FormatText(out.Current, out.Today)
	}
	return r
}

// FormatText renders the bulletin for current conditions and today's rollup.
// When today is nil the day's extremes come from current conditions and the
// precipitation total is 0.
func (f *Formatter) FormatText(cur weather.CurrentConditions, today *weather.DailyAggregate) string {
	l := f.labels

	tempMax, tempMin, precip := cur.TempMax, cur.TempMin, 0.0
	if today != nil {
		tempMax, tempMin, precip = today.TempMax, today.TempMin, today.PrecipTotal
	}

	var b strings.Builder

	// Header.
	place := cur.Name
	if cur.Country != "" {
		place = fmt.Sprintf("%s, %s", cur.Name, cur.Country)
	}
	fmt.Fprintf(&b, "%s *%s - %s*\n", conditionIcon(cur.Condition), l.Title, place)
	fmt.Fprintf(&b, "📅 %s\n", f.now().In(f.zone).Format("02/01/2006 15:04"))
	if today == nil {
		fmt.Fprintf(&b, "⚠️ %s\n", l.NoForecast)
	}

	// Temperature.
	fmt.Fprintf(&b, "\n🌡️ *%s*\n", l.Temperature)
	fmt.Fprintf(&b, "%s: %.1f°C (%s %.1f°C)\n", l.Now, cur.Temp, l.FeelsLike, cur.FeelsLike)
	fmt.Fprintf(&b, "%s: %.1f°C | %s: %.1f°C\n", l.Max, tempMax, l.Min, tempMin)

	// Conditions.
	fmt.Fprintf(&b, "\n%s *%s*\n", conditionIcon(cur.Condition), l.Conditions)
	fmt.Fprintf(&b, "%s\n", common.Capitalize(cur.Description))
	fmt.Fprintf(&b, "%s: %d%%\n", l.Clouds, cur.CloudCover)
	fmt.Fprintf(&b, "%s: %.1f km\n", l.Visibility, cur.VisibilityM/1000)

	// Precipitation.
	fmt.Fprintf(&b, "\n🌧️ *%s*\n", l.Precipitation)
	fmt.Fprintf(&b, "%s: %s\n", l.Today, f.precipPhrase(precip))

	// Wind.
	fmt.Fprintf(&b, "\n💨 *%s*\n", l.Wind)
	fmt.Fprintf(&b, "%.1f m/s %s %s (%d°)\n",
		cur.WindSpeed, l.From, l.CompassLabel(weather.CompassPoint(cur.WindDeg)), wholeDegrees(cur.WindDeg))

	// Humidity and pressure.
	fmt.Fprintf(&b, "\n💧 *%s*\n", l.HumidityPressure)
	fmt.Fprintf(&b, "%s: %d%%\n", l.Humidity, cur.Humidity)
	fmt.Fprintf(&b, "%s: %.1f hPa\n", l.Pressure, cur.Pressure)

	// Sun times.
	fmt.Fprintf(&b, "\n🌅 *%s*\n", l.Sun)
	fmt.Fprintf(&b, "%s: %s | %s: %s\n", l.Sunrise, f.clock(cur.Sunrise), l.Sunset, f.clock(cur.Sunset))

	return b.String()
}

// precipPhrase renders a precipitation total with its intensity phrase.
func (f *Formatter) precipPhrase(mm float64) string {
	r := weather.ClassifyRain(mm, f.rain)
	if r == weather.RainNone {
		return f.labels.RainPhrase(r)
	}
	return fmt.Sprintf("%s mm (%s)", f.rainAmount(mm), f.labels.RainPhrase(r))
}

// rainAmount prints mm with one decimal unless rounding would land it in a
// different intensity bucket, in which case more digits are kept.
func (f *Formatter) rainAmount(mm float64) string {
	want := weather.ClassifyRain(mm, f.rain)
	for prec := 1; prec <= 3; prec++ {
		s := strconv.FormatFloat(mm, 'f', prec, 64)
		if v, err := strconv.ParseFloat(s, 64); err == nil && weather.ClassifyRain(v, f.rain) == want {
			return s
		}
	}
	return strconv.FormatFloat(mm, 'f', -1, 64)
}

// FormatDigest renders a multi-day forecast, one block per local day.
func (f *Formatter) FormatDigest(city string, days []weather.DailyAggregate) string {
	l := f.labels

	var b strings.Builder
	fmt.Fprintf(&b, "🌤️ *%s - %s*\n\n", l.DigestTitle, city)

	for _, d := range days {
		date := d.Date.In(f.zone)
		fmt.Fprintf(&b, "📅 *%s - %s*\n", l.Weekdays[date.Weekday()], date.Format("02/01"))
		fmt.Fprintf(&b, "🌡️ %s: %.0f°C - %.0f°C\n", l.DigestTemp, d.TempMin, d.TempMax)
		fmt.Fprintf(&b, "%s %s\n", iconFor(weather.ConditionUnknown, d.Description), common.Capitalize(d.Description))
		if r := weather.ClassifyRain(d.PrecipTotal, f.rain); r != weather.RainNone {
			fmt.Fprintf(&b, "🌧️ %s mm (%s)\n", f.rainAmount(d.PrecipTotal), l.RainPhrase(r))
		}
		fmt.Fprintf(&b, "💨 %s: %.1f m/s\n", l.Wind, d.WindSpeedMean)
		fmt.Fprintf(&b, "💧 %s: %d%%\n\n", l.Humidity, int(math.Round(d.HumidityMean)))
	}

	b.WriteString(l.DigestClosing)
	return b.String()
}

// DigestOrDiagnostic renders the digest, substituting the fixed diagnostic
// text when the forecast payload had a missing field.
func (f *Formatter) DigestOrDiagnostic(city string, days []weather.DailyAggregate, forecastErr error) string {
	var fe *weather.FormatError
	if errors.As(forecastErr, &fe) {
		log.Printf("ERROR: cannot format forecast digest for %s: %v", city, forecastErr)
		return f.labels.Diagnostic
	}
	return f.FormatDigest(city, days)
}

func (f *Formatter) clock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.In(f.zone).Format("15:04")
}

func wholeDegrees(deg float64) int {
	d := int(math.Round(deg)) % 360
	if d < 0 {
		d += 360
	}
	return d
}
