package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

const maxPromptChars = 6000

// generator lets us stub the model backend in tests.
type generator interface {
	generate(ctx context.Context, model string, parts ...genai.Part) (string, error)
}

type Config struct {
	APIKey          string   // if empty, falls back to env GEMINI_API_KEY
	Models          []string // fallback chain, tried in order
	Temperature     float32
	MaxOutputTokens int32
	Cooldown        time.Duration // breaker cooldown after a rate limit
	MinCallInterval time.Duration // minimum spacing between outbound calls
	Timeout         time.Duration // per-call deadline
}

// Client implements Structurer on top of Gemini with a model fallback chain,
// a rate-limit circuit breaker, and a call throttle. Breaker and throttle
// state live on the client, shared by all its callers.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	limiter *rate.Limiter
	breaker *Breaker
	gen     generator
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{"gemini-2.0-flash", "gemini-2.0-flash-lite"}
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 1000
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	if cfg.MinCallInterval <= 0 {
		cfg.MinCallInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:     cfg,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(cfg.MinCallInterval), 1),
		breaker: NewBreaker("gemini", cfg.Cooldown, logger),
	}
	if cfg.APIKey == "" {
		logger.Warn("ai.not_configured", "hint", "set GEMINI_API_KEY to enable structuring")
		return c, nil
	}

	gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	c.gen = &geminiGenerator{
		client:          gc,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
	}
	return c, nil
}

// newClientWithGenerator wires a stub backend (tests).
func newClientWithGenerator(cfg Config, gen generator, logger *slog.Logger) *Client {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	if cfg.MinCallInterval <= 0 {
		cfg.MinCallInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{"primary", "fallback"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(cfg.MinCallInterval), 1),
		breaker: NewBreaker("gemini", cfg.Cooldown, logger),
		gen:     gen,
	}
}

// Structure implements Structurer. It returns nil on every failure mode:
// unconfigured client, open breaker, exhausted model chain, unparseable
// response. It never returns an error.
func (c *Client) Structure(ctx context.Context, req Request) *Structured {
	if c.gen == nil {
		c.logger.Debug("ai.structure.skipped", "reason", "not configured")
		return nil
	}
	if c.breaker.Open() {
		c.logger.Warn("ai.structure.short_circuited", "reason", "breaker open")
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Warn("ai.structure.throttle", "error", err)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := c.breaker.Execute(func() (string, error) {
		return c.callWithFallback(callCtx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			c.logger.Warn("ai.structure.short_circuited", "reason", "breaker open")
		} else {
			c.logger.Warn("ai.structure.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		}
		return nil
	}

	out, err := decodeStructured(text)
	if err != nil {
		c.logger.Warn("ai.structure.decode_failed", "error", err)
		return nil
	}

	c.logger.Info("ai.structure.ok",
		"has_amount", out.Amount != nil,
		"confidence", out.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// callWithFallback tries each model in order. A rate-limit error aborts the
// chain immediately (and is what opens the breaker); any other error moves
// on to the next model.
func (c *Client) callWithFallback(ctx context.Context, req Request) (string, error) {
	parts := buildParts(req)

	var lastErr error
	for _, model := range c.cfg.Models {
		c.logger.Debug("ai.model.attempt", "model", model)
		text, err := c.gen.generate(ctx, model, parts...)
		if err == nil {
			c.logger.Info("ai.model.ok", "model", model, "bytes", len(text))
			return text, nil
		}
		if IsRateLimit(err) {
			c.logger.Warn("ai.model.rate_limited", "model", model, "cooldown", c.cfg.Cooldown)
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		c.logger.Warn("ai.model.failed", "model", model, "error", err)
		lastErr = err
	}
	return "", fmt.Errorf("all models failed: %w", lastErr)
}

func buildParts(req Request) []genai.Part {
	text := req.RawText
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	amounts := req.Amounts
	if len(amounts) > 5 {
		amounts = amounts[:5]
	}
	dates := req.Dates
	if len(dates) > 3 {
		dates = dates[:3]
	}
	merchants := req.Merchants
	if len(merchants) > 3 {
		merchants = merchants[:3]
	}

	prompt := fmt.Sprintf(`You are an expert expense extractor. You have been provided with an OCR transcript and potentially an image of a receipt/invoice.

Your task is to extract the exact merchant, total amount, currency, date, and category.

OCR_TEXT:
<<<%s>>>

DETERMINISTIC CANDIDATES (use these as hints, but confirm against the document):
- AMOUNTS: %s
- DATES: %s
- MERCHANTS: %s

RULES:
1. MERCHANT: The name of the business.
2. AMOUNT: The GRAND TOTAL or TOTAL AMOUNT DUE. Avoid TAX, CHANGE, or SUBTOTAL.
3. CURRENCY: 3-letter code (AED, GBP, etc).
4. DATE: YYYY-MM-DD.
5. CATEGORY: Groceries, Food & Dining, Transport, Utilities, Shopping, Entertainment, Health, Services, Travel, Other.

Return ONLY a valid JSON object:
{
  "merchant": "name",
  "amount": 123.45,
  "currency": "AED",
  "date": "YYYY-MM-DD",
  "category": "...",
  "items": [],
  "language": "arabic|english|both",
  "confidence": 0.0-1.0,
  "notes": "..."
}`, text, mustJSON(amounts), mustJSON(dates), mustJSON(merchants))

	parts := []genai.Part{genai.Text(prompt)}
	if len(req.DocBytes) > 0 && req.DocMIME != "" {
		parts = append(parts, genai.Blob{MIMEType: req.DocMIME, Data: req.DocBytes})
	}
	return parts
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// geminiGenerator is the production backend.
type geminiGenerator struct {
	client          *genai.Client
	temperature     float32
	maxOutputTokens int32
}

func (g *geminiGenerator) generate(ctx context.Context, model string, parts ...genai.Part) (string, error) {
	m := g.client.GenerativeModel(model)
	m.SetTemperature(g.temperature)
	m.SetMaxOutputTokens(g.maxOutputTokens)

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from %s", model)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text in response from %s", model)
	}
	return b.String(), nil
}
