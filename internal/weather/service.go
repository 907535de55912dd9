package weather

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Service fetches provider data for a location and shapes it into an Outlook.
type Service struct {
	client Client
	zone   *time.Location
	now    func() time.Time
}

// NewService creates a new Service grouping days in zone.
func NewService(client Client, zone *time.Location) *Service {
	if zone == nil {
		zone = NewFixedZone(DefaultUTCOffset)
	}
	return &Service{
		client: client,
		zone:   zone,
		now:    time.Now,
	}
}

// Zone returns the fixed zone used for local dates.
func (s *Service) Zone() *time.Location {
	return s.zone
}

// Current delegates to the client.
func (s *Service) Current(ctx context.Context, c Coordinates) (CurrentConditions, error) {
	return s.client.FetchCurrent(ctx, c)
}

// Forecast delegates to the client.
func (s *Service) Forecast(ctx context.Context, c Coordinates) ([]ForecastSlot, error) {
	return s.client.FetchForecast(ctx, c)
}

// Daily fetches the forecast and rolls it up per local day.
func (s *Service) Daily(ctx context.Context, c Coordinates) ([]DailyAggregate, error) {
	slots, err := s.client.FetchForecast(ctx, c)
	if err != nil {
		return nil, err
	}
	return DailyRollup(slots, s.zone), nil
}

// Outlook fetches current conditions and the forecast for loc, one after the
// other. A current conditions failure is returned as an error since every
// report section depends on it. A forecast failure only degrades the result:
// ForecastErr is set and Slots, Daily and Today stay empty.
func (s *Service) Outlook(ctx context.Context, loc Location) (Outlook, error) {
	log.Printf("DEBUG: Outlook called for %s (%s)", loc.Name, loc.Key())

	cur, err := s.client.FetchCurrent(ctx, loc.Coordinates)
	if err != nil {
		log.Printf("ERROR: current weather fetch failed for %s: %v", loc.Key(), err)
		return Outlook{}, fmt.Errorf("current weather for %s: %w", loc.Key(), err)
	}

	out := Outlook{
		Location: loc,
		Current:  cur,
	}

	slots, err := s.client.FetchForecast(ctx, loc.Coordinates)
	if err != nil {
		log.Printf("forecast unavailable for %s, falling back to current conditions: %v", loc.Key(), err)
		out.ForecastErr = err
		return out, nil
	}

	out.Slots = slots
	out.Daily = DailyRollup(slots, s.zone)
	out.Today = TodayRollup(slots, s.now(), s.zone)
	if out.Today == nil {
		log.Printf("INFO: forecast for %s has no slots for today", loc.Key())
	}
	return out, nil
}
