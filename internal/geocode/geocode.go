// Package geocode turns free-text place names into coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-bulletin/internal/weather"
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 10 * time.Second

// DefaultLocation is used when a query cannot be resolved.
var DefaultLocation = weather.Location{
	Name:        "Goiânia",
	Coordinates: weather.Coordinates{Lat: -15.8942, Lon: -48.9293},
}

var (
	ErrEmptyQuery = errors.New("empty location query")
	ErrNotFound   = errors.New("location not found")
)

// Locator resolves a query such as "Goiânia, GO, Brasil" into a Location.
type Locator interface {
	Resolve(ctx context.Context, query string) (weather.Location, error)
}

// lookupFunc matches geocoder.Geocoding.
type lookupFunc func(geocoder.Address) (geocoder.Location, error)

// the geocoder package keeps its key in a package variable
var keyMu sync.Mutex

// setAPIKey writes the shared key only when it changes. The lock is never
// held across a lookup, so a hung request cannot stall other resolvers.
func setAPIKey(key string) {
	keyMu.Lock()
	defer keyMu.Unlock()
	if geocoder.ApiKey != key {
		geocoder.ApiKey = key
	}
}

// Resolver looks places up with the Google Geocoding API.
type Resolver struct {
	apiKey  string
	timeout time.Duration
	lookup  lookupFunc
}

// NewResolver creates a Resolver. A non-positive timeout uses DefaultTimeout.
func NewResolver(apiKey string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		apiKey:  apiKey,
		timeout: timeout,
		lookup:  geocoder.Geocoding,
	}
}

// Resolve geocodes query. The first comma-separated part names the location.
func (r *Resolver) Resolve(ctx context.Context, query string) (weather.Location, error) {
	addr, ok := parseQuery(query)
	if !ok {
		return weather.Location{}, ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		setAPIKey(r.apiKey)
		loc, err := r.lookup(addr)
		done <- result{loc, err}
	}()

	select {
	case <-ctx.Done():
		return weather.Location{}, fmt.Errorf("geocode %q: %w", query, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return weather.Location{}, fmt.Errorf("geocode %q: %w", query, res.err)
		}
		if res.loc.Latitude == 0 && res.loc.Longitude == 0 {
			return weather.Location{}, fmt.Errorf("geocode %q: %w", query, ErrNotFound)
		}
		return weather.Location{
			Name: addr.City,
			Coordinates: weather.Coordinates{
				Lat: res.loc.Latitude,
				Lon: res.loc.Longitude,
			},
		}, nil
	}
}

// parseQuery splits "city[, state][, country]".
func parseQuery(query string) (geocoder.Address, bool) {
	var parts []string
	for _, p := range strings.Split(query, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return geocoder.Address{}, false
	}

	addr := geocoder.Address{City: parts[0]}
	switch len(parts) {
	case 1:
	case 2:
		addr.Country = parts[1]
	default:
		addr.State = parts[1]
		addr.Country = parts[len(parts)-1]
	}
	return addr, true
}

// Fallback wraps a Locator and substitutes a default location on failure.
type Fallback struct {
	next Locator
	def  weather.Location
}

// NewFallback creates a Fallback around next.
func NewFallback(next Locator, def weather.Location) *Fallback {
	return &Fallback{next: next, def: def}
}

// Resolve never fails; the boolean reports whether the default was used.
func (f *Fallback) Resolve(ctx context.Context, query string) (weather.Location, bool) {
	loc, err := f.next.Resolve(ctx, query)
	if err != nil {
		log.Printf("INFO: using default location %s for %q: %v", f.def.Name, query, err)
		return f.def, true
	}
	return loc, false
}
