package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-bulletin/internal/bulletin"
	"github.com/i474232898/weather-bulletin/internal/report"
	"github.com/i474232898/weather-bulletin/internal/store"
	"github.com/i474232898/weather-bulletin/internal/weather"
)

var validate = validator.New()

// WeatherService is satisfied by *weather.Service.
type WeatherService interface {
	Current(ctx context.Context, c weather.Coordinates) (weather.CurrentConditions, error)
	Forecast(ctx context.Context, c weather.Coordinates) ([]weather.ForecastSlot, error)
	Daily(ctx context.Context, c weather.Coordinates) ([]weather.DailyAggregate, error)
	Outlook(ctx context.Context, loc weather.Location) (weather.Outlook, error)
}

// Locator is satisfied by *geocode.Fallback.
type Locator interface {
	Resolve(ctx context.Context, query string) (weather.Location, bool)
}

// BulletinRunner is satisfied by *bulletin.Job.
type BulletinRunner interface {
	Run(ctx context.Context) (bulletin.Result, error)
}

// ReportHistory is satisfied by *store.MemoryStore.
type ReportHistory interface {
	LatestAny() (report.Report, error)
}

// Deps are the collaborators behind the routes. Geocoder, Bulletin and
// History may be nil; their endpoints then answer with an error.
type Deps struct {
	Service   WeatherService
	Formatter *report.Formatter
	Geocoder  Locator
	Bulletin  BulletinRunner
	History   ReportHistory
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		loc, err := d.location(c)
		if err != nil {
			return err
		}

		cur, err := d.Service.Current(c.UserContext(), loc.Coordinates)
		if err != nil {
			return upstreamError(err)
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"current":  cur,
		})
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		loc, err := d.location(c)
		if err != nil {
			return err
		}

		slots, err := d.Service.Forecast(c.UserContext(), loc.Coordinates)
		if err != nil {
			return upstreamError(err)
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"table":    d.Formatter.SlotTable(slots),
		})
	})

	v1.Get("/weather/forecast/daily", func(c *fiber.Ctx) error {
		loc, err := d.location(c)
		if err != nil {
			return err
		}

		days, err := d.Service.Daily(c.UserContext(), loc.Coordinates)
		if err != nil {
			return upstreamError(err)
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"table":    d.Formatter.DailyTable(days),
		})
	})

	v1.Get("/weather/forecast/stats", func(c *fiber.Ctx) error {
		loc, err := d.location(c)
		if err != nil {
			return err
		}

		slots, err := d.Service.Forecast(c.UserContext(), loc.Coordinates)
		if err != nil {
			return upstreamError(err)
		}

		stats, ok := weather.SummarizeSlots(slots)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "forecast has no entries")
		}
		return c.JSON(fiber.Map{
			"location": loc,
			"stats":    stats,
		})
	})

	v1.Get("/weather/forecast.csv", func(c *fiber.Ctx) error {
		loc, err := d.location(c)
		if err != nil {
			return err
		}

		slots, err := d.Service.Forecast(c.UserContext(), loc.Coordinates)
		if err != nil {
			return upstreamError(err)
		}

		c.Attachment("weather_data.csv")
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return report.WriteCSV(c, slots)
	})

	v1.Get("/weather/report", func(c *fiber.Ctx) error {
		loc, err := d.location(c)
		if err != nil {
			return err
		}

		out, err := d.Service.Outlook(c.UserContext(), loc)
		if err != nil {
			return upstreamError(err)
		}

		switch c.Query("style", string(report.StyleText)) {
		case string(report.StyleSeries):
			return c.JSON(d.Formatter.Render(report.StyleSeries, out))
		case "digest":
			c.Type("txt", "utf-8")
			return c.SendString(d.Formatter.DigestOrDiagnostic(loc.Name, out.Daily, out.ForecastErr))
		case string(report.StyleText):
			c.Type("txt", "utf-8")
			return c.SendString(d.Formatter.FormatText(out.Current, out.Today))
		default:
			return fiber.NewError(fiber.StatusBadRequest, "style must be text, series or digest")
		}
	})

	v1.Post("/bulletins", func(c *fiber.Ctx) error {
		if d.Bulletin == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "bulletin delivery is not configured")
		}

		res, err := d.Bulletin.Run(c.UserContext())
		if err != nil {
			return upstreamError(err)
		}

		deliveryErrs := make([]string, 0, len(res.DeliveryErrs))
		for _, e := range res.DeliveryErrs {
			deliveryErrs = append(deliveryErrs, e.Error())
		}
		return c.JSON(fiber.Map{
			"report":         res.Report,
			"textsSent":      res.TextsSent,
			"imagesSent":     res.ImagesSent,
			"deliveryErrors": deliveryErrs,
		})
	})

	v1.Get("/bulletins/latest", func(c *fiber.Ctx) error {
		if d.History == nil {
			return fiber.NewError(fiber.StatusNotFound, "no report generated yet")
		}

		r, err := d.History.LatestAny()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no report generated yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load report")
		}
		return c.JSON(r)
	})
}

// location resolves the request's lat/lon pair or, failing that, its city.
func (d Deps) location(c *fiber.Ctx) (weather.Location, error) {
	if c.Query("lat") != "" || c.Query("lon") != "" {
		coords, err := parseCoordinates(c)
		if err != nil {
			return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return weather.Location{
			Name:        c.Query("name", coords.Key()),
			Coordinates: coords,
		}, nil
	}

	city := c.Query("city")
	if city == "" {
		return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "lat and lon, or city, are required")
	}
	if d.Geocoder == nil {
		return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "city lookup is not configured; use lat and lon")
	}

	loc, fallback := d.Geocoder.Resolve(c.UserContext(), city)
	if fallback {
		c.Set("X-Location-Fallback", "true")
	}
	return loc, nil
}

func parseCoordinates(c *fiber.Ctx) (weather.Coordinates, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return weather.Coordinates{}, errors.New("lat must be a decimal number")
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return weather.Coordinates{}, errors.New("lon must be a decimal number")
	}

	coords := weather.Coordinates{Lat: lat, Lon: lon}
	if err := validate.Struct(coords); err != nil {
		return weather.Coordinates{}, err
	}
	return coords, nil
}

// upstreamError maps provider failures to 502 and anything else to 500.
func upstreamError(err error) error {
	log.Printf("ERROR: request failed: %v", err)
	if weather.IsFetchError(err) {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to build weather data")
}
