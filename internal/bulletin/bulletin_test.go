package bulletin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-bulletin/internal/delivery"
	"github.com/i474232898/weather-bulletin/internal/report"
	"github.com/i474232898/weather-bulletin/internal/store"
	"github.com/i474232898/weather-bulletin/internal/weather"
	"github.com/i474232898/weather-bulletin/internal/weather/providers"
)

var (
	testZone = weather.NewFixedZone(weather.DefaultUTCOffset)
	goiania  = weather.Location{Name: "Goiânia", Coordinates: weather.Coordinates{Lat: -15.8942, Lon: -48.9293}}

	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
)

const currentBody = `{"cod":200,"dt":1710072000,"name":"Goiânia",
 "main":{"temp":26.3,"feels_like":27.1,"temp_min":24.0,"temp_max":29.2,"pressure":1013,"humidity":62},
 "weather":[{"main":"Clouds","description":"nuvens dispersas"}],
 "wind":{"speed":2.6,"deg":90},"clouds":{"all":40},"visibility":10000,
 "sys":{"country":"BR","sunrise":1710061800,"sunset":1710106200}}`

type sentImage struct {
	caption string
	size    int
}

type fakeChannel struct {
	texts   []string
	images  []sentImage
	failAll bool
}

func (f *fakeChannel) SendText(_ context.Context, dest, text string) error {
	if f.failAll {
		return &delivery.Error{Dest: dest, Err: errors.New("webhook down")}
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeChannel) SendImage(_ context.Context, dest string, image []byte, caption string) error {
	if f.failAll {
		return &delivery.Error{Dest: dest, Err: errors.New("webhook down")}
	}
	f.images = append(f.images, sentImage{caption: caption, size: len(image)})
	return nil
}

type fakeOutlooker struct {
	out weather.Outlook
	err error
}

func (f fakeOutlooker) Outlook(context.Context, weather.Location) (weather.Outlook, error) {
	return f.out, f.err
}

type fakeMaps struct {
	fail map[providers.MapLayer]error
}

func (f fakeMaps) FetchMapImage(_ context.Context, layer providers.MapLayer, _ providers.BoundingBox) ([]byte, error) {
	if err := f.fail[layer]; err != nil {
		return nil, err
	}
	return pngHeader, nil
}

func sampleOutlook() weather.Outlook {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, testZone)
	return weather.Outlook{
		Location: goiania,
		Current: weather.CurrentConditions{
			Name: "Goiânia", Country: "BR", Temp: 26.3, TempMax: 29, TempMin: 24,
			Description: "nuvens dispersas", Condition: weather.ConditionCloudy,
		},
		Daily: []weather.DailyAggregate{{Date: day, TempMin: 20, TempMax: 30.5, PrecipTotal: 3.2, Description: "chuva leve"}},
		Today: &weather.DailyAggregate{Date: day, TempMin: 20, TempMax: 30.5, PrecipTotal: 3.2},
	}
}

func newFormatter() *report.Formatter {
	return report.NewFormatter(report.Options{Locale: "en", Zone: testZone})
}

func TestRunReportMode(t *testing.T) {
	ch := &fakeChannel{}
	hist := store.NewMemoryStore(0, 0)
	job := NewJob(fakeOutlooker{out: sampleOutlook()}, newFormatter(), ch, nil, hist, Config{Location: goiania, Dest: "+55"})

	res, err := job.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ch.texts, 1)
	assert.Contains(t, ch.texts[0], "Today: 3.2 mm (light rain)")
	assert.Equal(t, 1, res.TextsSent)
	assert.Empty(t, res.DeliveryErrs)

	saved, err := hist.Latest(goiania)
	require.NoError(t, err)
	assert.Equal(t, res.Report.ID, saved.ID)
	assert.Equal(t, ch.texts[0], saved.Text)
}

func TestRunBothModes(t *testing.T) {
	ch := &fakeChannel{}
	job := NewJob(fakeOutlooker{out: sampleOutlook()}, newFormatter(), ch, nil, nil, Config{Location: goiania, Dest: "+55", Mode: ModeBoth})

	res, err := job.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ch.texts, 2)
	assert.Contains(t, ch.texts[0], "Weather Report")
	assert.Contains(t, ch.texts[1], "Weather Forecast - Goiânia")
	assert.Equal(t, 2, res.TextsSent)
}

func TestRunDigestWithFormatErrorSendsDiagnostic(t *testing.T) {
	out := sampleOutlook()
	out.Daily, out.Today = nil, nil
	out.ForecastErr = &weather.FormatError{Field: "main", Index: 0}

	ch := &fakeChannel{}
	job := NewJob(fakeOutlooker{out: out}, newFormatter(), ch, nil, nil, Config{Location: goiania, Dest: "+55", Mode: ModeDigest})

	_, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, ch.texts, 1)
	assert.Equal(t, "Error processing weather data", ch.texts[0])
}

func TestRunDigestWithoutForecastSendsReport(t *testing.T) {
	out := sampleOutlook()
	out.Daily, out.Today = nil, nil
	out.ForecastErr = weather.NewFetchError("forecast", context.DeadlineExceeded)

	ch := &fakeChannel{}
	job := NewJob(fakeOutlooker{out: out}, newFormatter(), ch, nil, nil, Config{Location: goiania, Dest: "+55", Mode: ModeBoth})

	res, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, ch.texts, 1)
	assert.Contains(t, ch.texts[0], "Today: no rain expected")
	assert.True(t, res.Report.Degraded)
}

func TestRunCurrentFailureIsFatal(t *testing.T) {
	ch := &fakeChannel{}
	hist := store.NewMemoryStore(0, 0)
	boom := weather.NewFetchError("current", errors.New("unexpected status 500"))
	job := NewJob(fakeOutlooker{err: boom}, newFormatter(), ch, nil, hist, Config{Location: goiania, Dest: "+55"})

	_, err := job.Run(context.Background())
	require.Error(t, err)
	assert.True(t, weather.IsFetchError(err))
	assert.Empty(t, ch.texts)

	_, err = hist.LatestAny()
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunDeliveryFailureIsNotFatal(t *testing.T) {
	ch := &fakeChannel{failAll: true}
	hist := store.NewMemoryStore(0, 0)
	job := NewJob(fakeOutlooker{out: sampleOutlook()}, newFormatter(), ch, fakeMaps{}, hist,
		Config{Location: goiania, Dest: "+55", MapLayers: []providers.MapLayer{providers.LayerTemp}})

	res, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.DeliveryErrs, 2)
	var derr *delivery.Error
	assert.ErrorAs(t, res.DeliveryErrs[0], &derr)
	assert.Zero(t, res.TextsSent)

	// The report is still kept.
	_, err = hist.Latest(goiania)
	assert.NoError(t, err)
}

func TestRunSendsMapsAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	ch := &fakeChannel{}
	maps := fakeMaps{fail: map[providers.MapLayer]error{
		providers.LayerPrecipitation: weather.NewFetchError("map", errors.New("unexpected status 401")),
	}}
	job := NewJob(fakeOutlooker{out: sampleOutlook()}, newFormatter(), ch, maps, nil, Config{
		Location:  goiania,
		Dest:      "+55",
		MapLayers: []providers.MapLayer{providers.LayerTemp, providers.LayerPrecipitation},
		TempDir:   dir,
	})

	res, err := job.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ch.images, 1)
	assert.Equal(t, "🌡️ Temperature map", ch.images[0].caption)
	assert.Equal(t, len(pngHeader), ch.images[0].size)
	assert.Equal(t, 1, res.ImagesSent)
	require.Len(t, res.MapErrs, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunForecastTimeoutStillReports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/forecast") {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(currentBody))
	}))
	defer srv.Close()

	owm := providers.NewOpenWeatherProvider(srv.Client(), providers.OpenWeatherConfig{
		APIKey:  "key",
		BaseURL: srv.URL,
		Zone:    testZone,
		Timeout: 100 * time.Millisecond,
	})
	ch := &fakeChannel{}
	job := NewJob(weather.NewService(owm, testZone), newFormatter(), ch, nil, nil, Config{Location: goiania, Dest: "+55"})

	res, err := job.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ch.texts, 1)
	assert.Contains(t, ch.texts[0], "Today: no rain expected")
	assert.Contains(t, ch.texts[0], "Max: 29.2°C | Min: 24.0°C")
	assert.True(t, res.Report.Degraded)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Both ")
	require.NoError(t, err)
	assert.Equal(t, ModeBoth, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeReport, m)

	_, err = ParseMode("weekly")
	assert.Error(t, err)
}
