package weather

import (
	"fmt"
	"sort"
	"time"
)

// DefaultUTCOffset is the fixed offset of the original deployment (UTC-3).
const DefaultUTCOffset = -3 * time.Hour

// NewFixedZone returns a zone with a fixed UTC offset and no daylight saving.
func NewFixedZone(offset time.Duration) *time.Location {
	secs := int(offset / time.Second)
	sign := "+"
	if secs < 0 {
		sign = "-"
	}
	abs := secs
	if abs < 0 {
		abs = -abs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, (abs%3600)/60)
	return time.FixedZone(name, secs)
}

// LocalDate returns midnight of t's calendar date in zone.
func LocalDate(t time.Time, zone *time.Location) time.Time {
	lt := t.In(zone)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, zone)
}

// DailyRollup groups slots by local calendar date and aggregates each group.
// The result is ordered by ascending date. Slot order inside a day is kept,
// so Description comes from the earliest slot as delivered by the provider.
func DailyRollup(slots []ForecastSlot, zone *time.Location) []DailyAggregate {
	if len(slots) == 0 {
		return nil
	}

	type dayKey string

	var (
		dayReadings = make(map[dayKey][]ForecastSlot)
		dayDates    = make(map[dayKey]time.Time)
	)

	for _, s := range slots {
		d := LocalDate(s.Timestamp, zone)
		k := dayKey(d.Format("2006-01-02"))
		dayReadings[k] = append(dayReadings[k], s)
		if _, exists := dayDates[k]; !exists {
			dayDates[k] = d
		}
	}

	keys := make([]string, 0, len(dayReadings))
	for k := range dayReadings {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	out := make([]DailyAggregate, 0, len(keys))
	for _, k := range keys {
		dk := dayKey(k)
		out = append(out, aggregateDay(dayDates[dk], dayReadings[dk]))
	}
	return out
}

// TodayRollup aggregates the slots whose local date equals date's local date.
// It returns nil when no slot matches; callers fall back to current conditions.
func TodayRollup(slots []ForecastSlot, date time.Time, zone *time.Location) *DailyAggregate {
	want := LocalDate(date, zone)

	var matched []ForecastSlot
	for _, s := range slots {
		if LocalDate(s.Timestamp, zone).Equal(want) {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	agg := aggregateDay(want, matched)
	return &agg
}

// aggregateDay combines the slots of one day. Means are unweighted; the day's
// extremes come from each slot's own max/min fields.
func aggregateDay(date time.Time, slots []ForecastSlot) DailyAggregate {
	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
		sumPrecip   float64
	)

	maxTemp := slots[0].TempMax
	minTemp := slots[0].TempMin

	for _, s := range slots {
		sumTemp += s.Temp
		sumHumidity += float64(s.Humidity)
		sumWind += s.WindSpeed
		if s.PrecipMM > 0 {
			sumPrecip += s.PrecipMM
		}

		if s.TempMax > maxTemp {
			maxTemp = s.TempMax
		}
		if s.TempMin < minTemp {
			minTemp = s.TempMin
		}
	}

	n := float64(len(slots))

	return DailyAggregate{
		Date:          date,
		TempMean:      sumTemp / n,
		TempMax:       maxTemp,
		TempMin:       minTemp,
		PrecipTotal:   sumPrecip,
		HumidityMean:  sumHumidity / n,
		WindSpeedMean: sumWind / n,
		Slots:         len(slots),
		Description:   slots[0].Description,
	}
}

// SeriesStats summarizes a whole slot series for dashboard headline figures.
type SeriesStats struct {
	TempMax    float64 `json:"tempMax"`
	TempMin    float64 `json:"tempMin"`
	TempMean   float64 `json:"tempMean"`
	TempRange  float64 `json:"tempRange"`
	RainMax    float64 `json:"rainMax"`
	RainTotal  float64 `json:"rainTotal"`
	RainySlots int     `json:"rainySlots"`
}

// SummarizeSlots computes SeriesStats. An empty series yields the zero value
// and false.
func SummarizeSlots(slots []ForecastSlot) (SeriesStats, bool) {
	if len(slots) == 0 {
		return SeriesStats{}, false
	}

	st := SeriesStats{
		TempMax: slots[0].TempMax,
		TempMin: slots[0].TempMin,
	}
	var sumTemp float64
	for _, s := range slots {
		sumTemp += s.Temp
		if s.TempMax > st.TempMax {
			st.TempMax = s.TempMax
		}
		if s.TempMin < st.TempMin {
			st.TempMin = s.TempMin
		}
		if s.PrecipMM > st.RainMax {
			st.RainMax = s.PrecipMM
		}
		if s.PrecipMM > 0 {
			st.RainTotal += s.PrecipMM
			st.RainySlots++
		}
	}
	st.TempMean = sumTemp / float64(len(slots))
	st.TempRange = st.TempMax - st.TempMin
	return st, true
}
