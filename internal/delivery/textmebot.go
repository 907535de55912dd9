package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/time/rate"
)

const (
	DefaultTextMeBotURL = "https://api.textmebot.com/send.php"
	DefaultTimeout      = 10 * time.Second
	// DefaultRate allows one message every five seconds.
	DefaultRate  = 0.2
	DefaultBurst = 1
)

var (
	errNoAPIKey = errors.New("textmebot api key not configured")
	errNoDest   = errors.New("destination is empty")
	errNoImage  = errors.New("image is empty")
)

// TextMeBotConfig configures the TextMeBot webhook.
type TextMeBotConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration

	// RatePerSecond is the sustained send rate; Burst the bucket size.
	RatePerSecond float64
	Burst         int
}

// TextMeBot sends messages through the TextMeBot send.php webhook.
type TextMeBot struct {
	client  *http.Client
	cfg     TextMeBotConfig
	limiter *rate.Limiter
}

// NewTextMeBot creates a TextMeBot channel. Zero config values use defaults.
func NewTextMeBot(client *http.Client, cfg TextMeBotConfig) *TextMeBot {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.URL == "" {
		cfg.URL = DefaultTextMeBotURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	return &TextMeBot{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}
}

// SendText delivers text with a GET request.
func (t *TextMeBot) SendText(ctx context.Context, dest, text string) error {
	if err := t.precheck(dest); err != nil {
		return &Error{Dest: dest, Err: err}
	}

	q := neturl.Values{}
	q.Set("phone", dest)
	q.Set("apikey", t.cfg.APIKey)
	q.Set("text", text)

	if err := t.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.URL+"?"+q.Encode(), nil)
	}); err != nil {
		log.Printf("ERROR: textmebot text delivery to %s failed: %v", mask(dest), err)
		return &Error{Dest: dest, Err: err}
	}

	log.Printf("INFO: textmebot delivered %d characters to %s", len(text), mask(dest))
	return nil
}

// SendImage delivers an image with a caption as a multipart POST.
func (t *TextMeBot) SendImage(ctx context.Context, dest string, image []byte, caption string) error {
	if err := t.precheck(dest); err != nil {
		return &Error{Dest: dest, Err: err}
	}
	if len(image) == 0 {
		return &Error{Dest: dest, Err: errNoImage}
	}

	body, contentType, err := imageForm(dest, t.cfg.APIKey, image, caption)
	if err != nil {
		return &Error{Dest: dest, Err: err}
	}

	if err := t.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}); err != nil {
		log.Printf("ERROR: textmebot image delivery to %s failed: %v", mask(dest), err)
		return &Error{Dest: dest, Err: err}
	}

	log.Printf("INFO: textmebot delivered %d byte image to %s", len(image), mask(dest))
	return nil
}

func (t *TextMeBot) precheck(dest string) error {
	if t.cfg.APIKey == "" {
		return errNoAPIKey
	}
	if strings.TrimSpace(dest) == "" {
		return errNoDest
	}
	return nil
}

// do waits for the limiter, then performs one request under the timeout.
func (t *TextMeBot) do(ctx context.Context, build func(context.Context) (*http.Request, error)) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	req, err := build(ctx)
	if err != nil {
		return err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			// the URL carries the api key
			return uerr.Err
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func imageForm(dest, apiKey string, image []byte, caption string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "image"+mimetype.Detect(image).Extension())
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}

	for _, f := range [][2]string{{"caption", caption}, {"phone", dest}, {"apikey", apiKey}} {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
