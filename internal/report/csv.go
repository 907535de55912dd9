package report

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/i474232898/weather-bulletin/internal/weather"
)

// CSVHeader is the column layout of exported forecasts.
var CSVHeader = []string{
	"timestamp", "temp", "temp_min", "temp_max", "humidity", "wind_speed", "precipitation", "description",
}

// utf8BOM lets spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var errBadHeader = errors.New("csv header does not match the forecast layout")

// WriteCSV exports slots in order, one row each, with a header row.
func WriteCSV(w io.Writer, slots []weather.ForecastSlot) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, s := range slots {
		rec := []string{
			s.Timestamp.Format(time.RFC3339),
			fmtFloat1(s.Temp),
			fmtFloat1(s.TempMin),
			fmtFloat1(s.TempMax),
			strconv.Itoa(s.Humidity),
			fmtFloat1(s.WindSpeed),
			fmtFloat1(s.PrecipMM),
			s.Description,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV. Timestamps are moved into zone.
func ReadCSV(r io.Reader, zone *time.Location) ([]weather.ForecastSlot, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range CSVHeader {
		if header[i] != col {
			return nil, fmt.Errorf("%w: column %d is %q", errBadHeader, i, header[i])
		}
	}

	var slots []weather.ForecastSlot
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		s, err := parseRecord(rec, zone)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		slots = append(slots, s)
	}
	return slots, nil
}

func parseRecord(rec []string, zone *time.Location) (weather.ForecastSlot, error) {
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return weather.ForecastSlot{}, err
	}

	floats := make([]float64, 0, 5)
	for _, i := range []int{1, 2, 3, 5, 6} {
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return weather.ForecastSlot{}, fmt.Errorf("%s: %w", CSVHeader[i], err)
		}
		floats = append(floats, v)
	}
	humidity, err := strconv.Atoi(rec[4])
	if err != nil {
		return weather.ForecastSlot{}, fmt.Errorf("humidity: %w", err)
	}

	if zone != nil {
		ts = ts.In(zone)
	}
	return weather.ForecastSlot{
		Timestamp:   ts,
		Temp:        floats[0],
		TempMin:     floats[1],
		TempMax:     floats[2],
		Humidity:    humidity,
		WindSpeed:   floats[3],
		PrecipMM:    floats[4],
		Description: rec[7],
	}, nil
}

func fmtFloat1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
