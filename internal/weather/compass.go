package weather

import "math"

// Compass is one of the 16 compass points, N = 0 going clockwise.
type Compass int

const (
	N Compass = iota
	NNE
	NE
	ENE
	E
	ESE
	SE
	SSE
	S
	SSW
	SW
	WSW
	W
	WNW
	NW
	NNW
)

var compassNames = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

func (c Compass) String() string {
	return compassNames[c]
}

// CompassPoint maps a wind direction in degrees to its 16-point sector using
// round(deg/22.5) mod 16. Any finite input wraps into range.
func CompassPoint(deg float64) Compass {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return N
	}
	idx := int(math.Round(deg/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return Compass(idx)
}
