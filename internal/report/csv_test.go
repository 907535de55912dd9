package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-bulletin/internal/weather"
)

func TestWriteCSV(t *testing.T) {
	ts := time.Date(2024, 3, 10, 9, 0, 0, 0, testZone)
	slots := []weather.ForecastSlot{
		{Timestamp: ts, Temp: 25.04, TempMin: 20, TempMax: 28, Humidity: 70, WindSpeed: 3.4, PrecipMM: 1.5, Description: "chuva leve, fraca"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, slots))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, utf8BOM))

	lines := strings.Split(strings.TrimSpace(string(out[len(utf8BOM):])), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,temp,temp_min,temp_max,humidity,wind_speed,precipitation,description", lines[0])
	assert.Equal(t, `2024-03-10T09:00:00-03:00,25.0,20.0,28.0,70,3.4,1.5,"chuva leve, fraca"`, lines[1])
}

func TestCSVRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 10, 9, 0, 0, 0, testZone)
	slots := []weather.ForecastSlot{
		{Timestamp: ts, Temp: 25, TempMin: 20, TempMax: 28, Humidity: 70, WindSpeed: 3.4, PrecipMM: 1.5, Description: "chuva leve"},
		{Timestamp: ts.Add(3 * time.Hour), Temp: 27.5, TempMin: 22, TempMax: 30, Humidity: 55, WindSpeed: 2, Description: "céu limpo"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, slots))

	got, err := ReadCSV(&buf, testZone)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range slots {
		assert.True(t, slots[i].Timestamp.Equal(got[i].Timestamp))
		assert.Equal(t, testZone, got[i].Timestamp.Location())
		assert.Equal(t, slots[i].Temp, got[i].Temp)
		assert.Equal(t, slots[i].TempMin, got[i].TempMin)
		assert.Equal(t, slots[i].TempMax, got[i].TempMax)
		assert.Equal(t, slots[i].Humidity, got[i].Humidity)
		assert.Equal(t, slots[i].WindSpeed, got[i].WindSpeed)
		assert.Equal(t, slots[i].PrecipMM, got[i].PrecipMM)
		assert.Equal(t, slots[i].Description, got[i].Description)
	}
}

func TestReadCSVWithoutBOM(t *testing.T) {
	in := "timestamp,temp,temp_min,temp_max,humidity,wind_speed,precipitation,description\n" +
		"2024-03-10T12:00:00Z,25.0,20.0,28.0,70,3.4,0.0,nublado\n"

	got, err := ReadCSV(strings.NewReader(in), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "nublado", got[0].Description)
}

func TestReadCSVRejectsBadInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("when,temp,temp_min,temp_max,humidity,wind_speed,precipitation,description\n"), nil)
	assert.ErrorIs(t, err, errBadHeader)

	bad := strings.Join(CSVHeader, ",") + "\n2024-03-10T12:00:00Z,warm,20,28,70,3.4,0,x\n"
	_, err = ReadCSV(strings.NewReader(bad), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv line 2")
	assert.Contains(t, err.Error(), "temp")
}
