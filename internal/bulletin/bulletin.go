// Package bulletin runs the fetch, format and deliver pipeline once.
package bulletin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/i474232898/weather-bulletin/internal/delivery"
	"github.com/i474232898/weather-bulletin/internal/report"
	"github.com/i474232898/weather-bulletin/internal/weather"
	"github.com/i474232898/weather-bulletin/internal/weather/providers"
)

// Mode selects which texts a run delivers.
type Mode string

const (
	ModeReport Mode = "report"
	ModeDigest Mode = "digest"
	ModeBoth   Mode = "both"
)

// DefaultMapSpan is the half-width in degrees of map overlays.
const DefaultMapSpan = 2.0

// Outlooker builds an outlook for a location. *weather.Service satisfies it.
type Outlooker interface {
	Outlook(ctx context.Context, loc weather.Location) (weather.Outlook, error)
}

// MapSource renders overlay images. *providers.OpenWeatherProvider satisfies it.
type MapSource interface {
	FetchMapImage(ctx context.Context, layer providers.MapLayer, bbox providers.BoundingBox) ([]byte, error)
}

// Recorder keeps generated reports. *store.MemoryStore satisfies it.
type Recorder interface {
	Save(r report.Report)
}

// Config describes one bulletin.
type Config struct {
	Location weather.Location
	Dest     string
	Mode     Mode

	// MapLayers lists the overlays sent after the text; empty disables maps.
	MapLayers []providers.MapLayer
	MapSpan   float64
	// TempDir holds map images between download and upload; "" uses os.TempDir.
	TempDir string
}

// Result summarizes a run. Delivery and map failures do not fail the run.
type Result struct {
	Report       report.Report
	TextsSent    int
	ImagesSent   int
	DeliveryErrs []error
	MapErrs      []error
}

// Job is a configured bulletin. Runs are serialized.
type Job struct {
	mu sync.Mutex

	outlooks  Outlooker
	formatter *report.Formatter
	channel   delivery.Channel
	maps      MapSource
	store     Recorder
	cfg       Config
}

// NewJob creates a Job. maps and store may be nil.
func NewJob(outlooks Outlooker, formatter *report.Formatter, channel delivery.Channel, maps MapSource, store Recorder, cfg Config) *Job {
	if cfg.Mode == "" {
		cfg.Mode = ModeReport
	}
	if cfg.MapSpan <= 0 {
		cfg.MapSpan = DefaultMapSpan
	}
	return &Job{
		outlooks:  outlooks,
		formatter: formatter,
		channel:   channel,
		maps:      maps,
		store:     store,
		cfg:       cfg,
	}
}

// Run builds the outlook, renders the texts for the configured mode and
// delivers them, followed by any map images. Only a current conditions
// failure is returned as an error.
func (j *Job) Run(ctx context.Context) (Result, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	loc := j.cfg.Location
	log.Printf("INFO: bulletin run started for %s (mode=%s)", loc.Name, j.cfg.Mode)

	out, err := j.outlooks.Outlook(ctx, loc)
	if err != nil {
		log.Printf("ERROR: bulletin for %s aborted: %v", loc.Name, err)
		return Result{}, fmt.Errorf("bulletin for %s: %w", loc.Name, err)
	}
	if out.ForecastErr != nil {
		log.Printf("INFO: bulletin for %s continues without forecast: %v", loc.Name, out.ForecastErr)
	}

	rep := j.formatter.Render(report.StyleText, out)
	texts := j.texts(rep, out)
	rep.Text = strings.Join(texts, "\n\n")

	res := Result{Report: rep}
	for _, text := range texts {
		if err := j.channel.SendText(ctx, j.cfg.Dest, text); err != nil {
			res.DeliveryErrs = append(res.DeliveryErrs, err)
			continue
		}
		res.TextsSent++
	}

	if j.maps != nil {
		j.sendMaps(ctx, loc, &res)
	}

	if j.store != nil {
		j.store.Save(rep)
	}

	log.Printf("INFO: bulletin run finished for %s: %d texts, %d images, %d delivery errors",
		loc.Name, res.TextsSent, res.ImagesSent, len(res.DeliveryErrs))
	return res, nil
}

func (j *Job) texts(rep report.Report, out weather.Outlook) []string {
	// A digest without days says nothing; the report text stands in for it.
	noDays := out.ForecastErr != nil && !weather.IsFormatError(out.ForecastErr)

	switch {
	case j.cfg.Mode == ModeDigest && !noDays:
		return []string{j.digest(out)}
	case j.cfg.Mode == ModeBoth && !noDays:
		return []string{rep.Text, j.digest(out)}
	default:
		return []string{rep.Text}
	}
}

func (j *Job) digest(out weather.Outlook) string {
	return j.formatter.DigestOrDiagnostic(j.cfg.Location.Name, out.Daily, out.ForecastErr)
}

func (j *Job) sendMaps(ctx context.Context, loc weather.Location, res *Result) {
	bbox := providers.BoundingBoxAround(loc.Coordinates, j.cfg.MapSpan)
	labels := j.formatter.Labels()

	for _, layer := range j.cfg.MapLayers {
		caption := labels.TempMap
		if layer == providers.LayerPrecipitation {
			caption = labels.PrecipMap
		}

		img, err := j.stageMap(ctx, layer, bbox)
		if err != nil {
			log.Printf("ERROR: map %s for %s unavailable: %v", layer, loc.Name, err)
			res.MapErrs = append(res.MapErrs, err)
			continue
		}

		if err := j.channel.SendImage(ctx, j.cfg.Dest, img, caption); err != nil {
			res.DeliveryErrs = append(res.DeliveryErrs, err)
			continue
		}
		res.ImagesSent++
	}
}

// stageMap downloads a layer into a temporary file and reads it back. The
// file is removed before returning.
func (j *Job) stageMap(ctx context.Context, layer providers.MapLayer, bbox providers.BoundingBox) ([]byte, error) {
	img, err := j.maps.FetchMapImage(ctx, layer, bbox)
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(j.cfg.TempDir, "weather-map-"+string(layer)+"-*"+mimetype.Detect(img).Extension())
	if err != nil {
		return nil, fmt.Errorf("stage map %s: %w", layer, err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("ERROR: cannot remove staged map %s: %v", path, err)
		}
	}()

	if _, err := f.Write(img); err != nil {
		f.Close()
		return nil, fmt.Errorf("stage map %s: %w", layer, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("stage map %s: %w", layer, err)
	}

	return os.ReadFile(path)
}

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeReport, ModeDigest, ModeBoth:
		return m, nil
	case "":
		return ModeReport, nil
	default:
		return "", fmt.Errorf("unknown bulletin mode %q", s)
	}
}
