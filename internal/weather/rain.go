package weather

import "math"

// RainIntensity buckets a precipitation total.
type RainIntensity int

const (
	RainNone RainIntensity = iota
	RainLight
	RainModerate
	RainHeavy
)

func (r RainIntensity) String() string {
	switch r {
	case RainLight:
		return "light"
	case RainModerate:
		return "moderate"
	case RainHeavy:
		return "heavy"
	default:
		return "none"
	}
}

// RainThresholds are the lower bounds (mm) of the moderate and heavy buckets.
type RainThresholds struct {
	Moderate float64 `yaml:"moderate" validate:"gt=0"`
	Heavy    float64 `yaml:"heavy" validate:"gtfield=Moderate"`
}

// DefaultRainThresholds are 5 mm and 25 mm.
var DefaultRainThresholds = RainThresholds{Moderate: 5, Heavy: 25}

// ClassifyRain buckets mm: none at or below 0, then [0,Moderate) light,
// [Moderate,Heavy) moderate, [Heavy,inf) heavy. NaN counts as none.
func ClassifyRain(mm float64, t RainThresholds) RainIntensity {
	switch {
	case math.IsNaN(mm), mm <= 0:
		return RainNone
	case mm < t.Moderate:
		return RainLight
	case mm < t.Heavy:
		return RainModerate
	default:
		return RainHeavy
	}
}
