package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shibzan13/Damshiquebot/constants"
	"github.com/shibzan13/Damshiquebot/internal/preprocess"
)

// Result is the outcome of an OCR run. Failures are carried in the result
// (Success=false plus Err), never as a Go error: there is no text source
// below OCR to degrade to, so callers decide what a failure means.
type Result struct {
	RawText       string  `json:"raw_text"`
	Tokens        []Token `json:"tokens"`
	AvgConfidence float64 `json:"avg_confidence"`
	Pages         int     `json:"pages"`
	Success       bool    `json:"success"`
	Err           string  `json:"error,omitempty"`
}

type Config struct {
	Languages string // tesseract language list; if empty -> "ara+eng"
	DPI       int    // PDF rasterization DPI, default 300
}

type Extractor struct {
	cfg    Config
	engine func() (Engine, error)
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Languages == "" {
		cfg.Languages = "ara+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{
		cfg:    cfg,
		engine: func() (Engine, error) { return DefaultEngine(cfg.Languages) },
		logger: logger,
	}
}

// NewExtractorWithEngine wires an explicit engine (tests, alternate backends).
func NewExtractorWithEngine(cfg Config, engine Engine, logger *slog.Logger) *Extractor {
	e := NewExtractor(cfg, logger)
	e.engine = func() (Engine, error) { return engine, nil }
	return e
}

func failure(err string) Result {
	return Result{Success: false, Err: err}
}

// Run OCRs a document. PDFs are rendered page by page; images are enhanced
// in place. All temp artifacts are removed before Run returns.
func (e *Extractor) Run(ctx context.Context, path string, format constants.Format) Result {
	engine, err := e.engine()
	if err != nil || engine == nil {
		e.logger.Error("ocr.engine_unavailable", "error", err)
		return failure(ErrEngineUnavailable.Error())
	}

	switch format {
	case constants.PDF:
		return e.runPDF(ctx, engine, path)
	case constants.IMAGE:
		return e.runImage(ctx, engine, path)
	default:
		return failure(fmt.Sprintf("unsupported format: %q", format))
	}
}

func (e *Extractor) runImage(ctx context.Context, engine Engine, path string) Result {
	enhanced, cleanup := preprocess.EnhanceImage(path, e.logger)
	defer cleanup()

	tokens, err := engine.Recognize(ctx, enhanced)
	if err != nil {
		if errors.Is(err, ErrEngineUnavailable) {
			return failure(ErrEngineUnavailable.Error())
		}
		e.logger.Error("ocr.image.failed", "path", path, "error", err)
		return failure(err.Error())
	}
	if len(tokens) == 0 {
		return failure("No text detected")
	}

	res := Result{
		RawText:       joinTokens(tokens),
		Tokens:        tokens,
		AvgConfidence: meanConfidence(tokens),
		Pages:         1,
		Success:       true,
	}
	e.logger.Info("ocr.image.ok", "path", path, "tokens", len(tokens), "avg_confidence", res.AvgConfidence)
	return res
}

func (e *Extractor) runPDF(ctx context.Context, engine Engine, path string) Result {
	pages, cleanup, err := preprocess.RenderPDF(path, e.cfg.DPI, e.logger)
	if err != nil {
		e.logger.Error("ocr.pdf.render_failed", "path", path, "error", err)
		return failure(err.Error())
	}
	defer cleanup()

	var (
		b         strings.Builder
		allTokens []Token
		pageMeans []float64
	)
	for i, page := range pages {
		enhanced, clean := preprocess.EnhanceImage(page, e.logger)
		tokens, rerr := engine.Recognize(ctx, enhanced)
		clean()
		if rerr != nil {
			e.logger.Warn("ocr.pdf.page_failed", "page", i+1, "error", rerr)
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "--- Page %d ---\n", i+1)
		b.WriteString(joinTokens(tokens))
		allTokens = append(allTokens, tokens...)
		pageMeans = append(pageMeans, meanConfidence(tokens))
	}

	if len(allTokens) == 0 {
		return failure("No text extracted from PDF")
	}

	// Unweighted mean of per-page means, regardless of token counts.
	var sum float64
	for _, m := range pageMeans {
		sum += m
	}

	res := Result{
		RawText:       b.String(),
		Tokens:        allTokens,
		AvgConfidence: sum / float64(len(pageMeans)),
		Pages:         len(pages),
		Success:       true,
	}
	e.logger.Info("ocr.pdf.ok", "path", path, "pages", res.Pages, "tokens", len(allTokens), "avg_confidence", res.AvgConfidence)
	return res
}

func joinTokens(tokens []Token) string {
	lines := make([]string, 0, len(tokens))
	for _, t := range tokens {
		lines = append(lines, t.Text)
	}
	return strings.Join(lines, "\n")
}

func meanConfidence(tokens []Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var sum float64
	for _, t := range tokens {
		sum += t.Confidence
	}
	return sum / float64(len(tokens))
}
