package weather

import (
	"context"
)

// Client abstracts the weather data source. Implementations return a
// *FetchError for any retrieval failure and never a partially filled value.
type Client interface {
	FetchCurrent(ctx context.Context, c Coordinates) (CurrentConditions, error)
	FetchForecast(ctx context.Context, c Coordinates) ([]ForecastSlot, error)
}
