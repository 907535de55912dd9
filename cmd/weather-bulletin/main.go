package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weather-bulletin/internal/api/http"
	"github.com/i474232898/weather-bulletin/internal/bulletin"
	"github.com/i474232898/weather-bulletin/internal/config"
	"github.com/i474232898/weather-bulletin/internal/delivery"
	"github.com/i474232898/weather-bulletin/internal/geocode"
	"github.com/i474232898/weather-bulletin/internal/report"
	"github.com/i474232898/weather-bulletin/internal/scheduler"
	"github.com/i474232898/weather-bulletin/internal/store"
	"github.com/i474232898/weather-bulletin/internal/weather"
	"github.com/i474232898/weather-bulletin/internal/weather/providers"
)

const appName = "weather-bulletin"

func main() {
	once := flag.Bool("once", false, "build and send one bulletin, then exit")
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	zone := cfg.Zone()

	// Shared HTTP client for outbound calls; each call carries its own timeout.
	httpClient := &http.Client{}

	owm := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
		APIKey:     cfg.OpenWeatherAPIKey,
		BaseURL:    cfg.OpenWeatherBaseURL,
		MapURL:     cfg.OpenWeatherMapURL,
		Lang:       cfg.Lang,
		Zone:       zone,
		Timeout:    cfg.RequestTimeout,
		MapTimeout: cfg.MapTimeout,
	})
	cached := providers.NewCachedClient(owm, cfg.CacheWindow)
	service := weather.NewService(cached, zone)

	formatter := report.NewFormatter(report.Options{
		Locale: cfg.Locale,
		Zone:   zone,
		Rain:   cfg.Rain,
	})

	// In-memory report history with configured retention.
	history := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	var locator httpapi.Locator
	loc := cfg.Location
	if cfg.GeocoderAPIKey != "" {
		fb := geocode.NewFallback(geocode.NewResolver(cfg.GeocoderAPIKey, cfg.RequestTimeout), cfg.Location)
		locator = fb
		if cfg.LocationQuery != "" {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
			loc, _ = fb.Resolve(ctx, cfg.LocationQuery)
			cancel()
		}
	}
	log.Printf("INFO: bulletin location is %s (%s)", loc.Name, loc.Key())

	job, err := newBulletin(cfg, loc, service, formatter, owm, history, httpClient)
	if err != nil {
		log.Fatalf("failed to configure bulletin: %v", err)
	}

	if *once {
		os.Exit(runOnce(job))
	}

	var runner scheduler.Runner
	if job != nil {
		runner = job
	}
	sched := scheduler.New(runner, cfg.ReportCron, zone, scheduler.DefaultRunTimeout)
	if err := sched.Every(cfg.CacheWindow, "cache purge", func() {
		log.Printf("INFO: purged %d cached responses", cached.Purge())
	}); err != nil {
		log.Fatalf("failed to schedule cache purge: %v", err)
	}
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(appName)

	deps := httpapi.Deps{
		Service:   service,
		Formatter: formatter,
		Geocoder:  locator,
		History:   history,
	}
	if job != nil {
		deps.Bulletin = job
	}
	httpapi.RegisterRoutes(app, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// newBulletin returns nil when delivery is not configured.
func newBulletin(cfg *config.AppConfig, loc weather.Location, service *weather.Service, formatter *report.Formatter,
	owm *providers.OpenWeatherProvider, history *store.MemoryStore, httpClient *http.Client) (*bulletin.Job, error) {
	if !cfg.DeliveryEnabled() {
		log.Println("INFO: TEXTMEBOT_API_KEY or WHATSAPP_PHONE not set; bulletin delivery disabled")
		return nil, nil
	}

	mode, err := bulletin.ParseMode(cfg.BulletinMode)
	if err != nil {
		return nil, err
	}

	channel := delivery.NewTextMeBot(httpClient, delivery.TextMeBotConfig{
		URL:           cfg.TextMeBotURL,
		APIKey:        cfg.TextMeBotAPIKey,
		RatePerSecond: cfg.DeliveryRate,
		Burst:         cfg.DeliveryBurst,
	})

	layers := make([]providers.MapLayer, 0, len(cfg.MapLayers))
	for _, l := range cfg.MapLayers {
		layers = append(layers, providers.MapLayer(l))
	}

	return bulletin.NewJob(service, formatter, channel, owm, history, bulletin.Config{
		Location:  loc,
		Dest:      cfg.Phone,
		Mode:      mode,
		MapLayers: layers,
		MapSpan:   cfg.MapSpan,
	}), nil
}

func runOnce(job *bulletin.Job) int {
	if job == nil {
		log.Println("ERROR: nothing to send; configure TEXTMEBOT_API_KEY and WHATSAPP_PHONE")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), scheduler.DefaultRunTimeout)
	defer cancel()

	res, err := job.Run(ctx)
	if err != nil {
		log.Printf("ERROR: bulletin failed: %v", err)
		return 1
	}
	for _, derr := range res.DeliveryErrs {
		log.Printf("ERROR: %v", derr)
	}
	log.Printf("INFO: bulletin sent: %d texts, %d images", res.TextsSent, res.ImagesSent)
	return 0
}
