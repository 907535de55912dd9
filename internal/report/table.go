package report

import (
	"math"

	"github.com/i474232898/weather-bulletin/internal/common"
	"github.com/i474232898/weather-bulletin/internal/weather"
)

// Table is a column-major-friendly view of records: localized column titles
// plus one row per record. Numbers are rounded to one decimal place.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// SlotTable lays out one row per forecast slot, in input order.
func (f *Formatter) SlotTable(slots []weather.ForecastSlot) Table {
	t := Table{
		Columns: f.labels.SlotColumns,
		Rows:    make([][]any, 0, len(slots)),
	}
	for _, s := range slots {
		t.Rows = append(t.Rows, []any{
			s.Timestamp.In(f.zone).Format("2006-01-02 15:04"),
			round1(s.Temp),
			round1(s.TempMax),
			round1(s.TempMin),
			s.Humidity,
			round1(s.WindSpeed),
			round1(s.PrecipMM),
			common.Capitalize(s.Description),
		})
	}
	return t
}

// DailyTable lays out one row per local day.
func (f *Formatter) DailyTable(days []weather.DailyAggregate) Table {
	t := Table{
		Columns: f.labels.DailyColumns,
		Rows:    make([][]any, 0, len(days)),
	}
	for _, d := range days {
		t.Rows = append(t.Rows, []any{
			d.Date.In(f.zone).Format("2006-01-02"),
			round1(d.TempMean),
			round1(d.TempMax),
			round1(d.TempMin),
			round1(d.PrecipTotal),
			round1(d.HumidityMean),
			round1(d.WindSpeedMean),
		})
	}
	return t
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
