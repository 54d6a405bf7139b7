// Package pipeline orchestrates one document's journey from file to
// finalized expense record: ingest, premium parse or OCR, deterministic
// candidates, optional AI structuring, validation and scoring. Each stage
// degrades to the next fallback on failure; only ingest and OCR are
// terminal.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shibzan13/Damshiquebot/constants"
	"github.com/shibzan13/Damshiquebot/internal/ai"
	"github.com/shibzan13/Damshiquebot/internal/candidates"
	"github.com/shibzan13/Damshiquebot/internal/ocr"
	"github.com/shibzan13/Damshiquebot/internal/premium"
	"github.com/shibzan13/Damshiquebot/internal/validate"
)

const (
	ocrEngineTag     = "tesseract"
	engineOnlySuffix = "_only"
	aiEngineSuffix   = "+gemini"

	minUsableText = 10

	// Premium text skips local OCR, so there is no measured OCR confidence
	// to feed the scorer. The parsed markdown is treated as high quality.
	premiumTextConfidence = 0.9

	// Documents above this size are not attached to the AI call.
	maxDocBytesForAI = 20 << 20
)

// TextSource is the premium parser contract.
type TextSource interface {
	Parse(ctx context.Context, path string) (string, error)
}

// OCRRunner is the local OCR contract.
type OCRRunner interface {
	Run(ctx context.Context, path string, format constants.Format) ocr.Result
}

type Config struct {
	PremiumTimeout time.Duration // default 90s
	OCRTimeout     time.Duration // default 120s
	AITimeout      time.Duration // default 75s
}

// Pipeline wires the stages together. premium and structurer are optional;
// a nil premium skips straight to OCR and a nil structurer always takes the
// deterministic fallback.
type Pipeline struct {
	cfg        Config
	premium    TextSource
	ocr        OCRRunner
	structurer ai.Structurer
	logger     *slog.Logger
	now        func() time.Time
}

func New(cfg Config, prem TextSource, ocrRunner OCRRunner, structurer ai.Structurer, logger *slog.Logger) *Pipeline {
	if cfg.PremiumTimeout <= 0 {
		cfg.PremiumTimeout = 90 * time.Second
	}
	if cfg.OCRTimeout <= 0 {
		cfg.OCRTimeout = 120 * time.Second
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 75 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		premium:    prem,
		ocr:        ocrRunner,
		structurer: structurer,
		logger:     logger,
		now:        time.Now,
	}
}

// Extract runs the full pipeline for one document. It always returns a
// complete Result; unexpected panics surface as status=FAIL with reason
// "pipeline_error".
func (p *Pipeline) Extract(ctx context.Context, path, mimeType, requesterID string) (result Result) {
	result = newResult(uuid.New().String(), requesterID)
	logger := p.logger.With("document_id", result.DocumentID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline.panic", "panic", r)
			result.fail("pipeline_error", fmt.Sprintf("%v", r))
		}
	}()

	start := time.Now()
	logger.Info("pipeline.start", "path", path, "mime", mimeType)

	// INGEST
	if _, err := os.Stat(path); err != nil {
		logger.Warn("pipeline.ingest.missing", "path", path, "error", err)
		return result.fail("file_not_found", "File not found: "+path)
	}
	format := constants.MapMIMEToFormat(mimeType)
	if format == "" {
		format = constants.MapExtToFormat(constants.NormalizeExt(pathExt(path)))
	}
	if format == "" {
		logger.Warn("pipeline.ingest.unsupported", "mime", mimeType)
		return result.fail("unsupported_mime", "Unsupported mime type: "+mimeType)
	}

	// PREMIUM_PARSE, then OCR when no usable premium text came back.
	rawText, textConfidence, source := p.acquireText(ctx, logger, path)
	if source == "" {
		res := p.runOCR(ctx, path, format)
		if !res.Success {
			logger.Warn("pipeline.ocr.failed", "error", res.Err)
			return result.fail("ocr_failed", res.Err)
		}
		result.RawText = res.RawText
		if len(res.RawText) < minUsableText {
			logger.Warn("pipeline.ocr.insufficient_text", "chars", len(res.RawText))
			return result.fail("insufficient_text", "OCR extracted too little text")
		}
		rawText, textConfidence, source = res.RawText, res.AvgConfidence, ocrEngineTag
	}
	result.RawText = rawText

	// CANDIDATE_EXTRACT
	set := candidates.ExtractAll(rawText)
	result.Candidates = set
	result.Language = string(set.Language)
	logger.Info("pipeline.candidates",
		"amounts", len(set.Amounts), "dates", len(set.Dates),
		"merchants", len(set.Merchants), "language", set.Language)

	// AI_STRUCTURE, with the deterministic composer as fallback.
	var (
		fields validate.Fields
		aiConf *float64
	)
	structured := p.structure(ctx, path, mimeType, rawText, set)
	if structured != nil {
		fields = validate.Fields{
			Merchant: structured.Merchant,
			Amount:   structured.Amount,
			Currency: structured.Currency,
			Date:     structured.Date,
			Category: structured.Category,
		}
		result.Items = structured.Items
		if result.Items == nil {
			result.Items = []string{}
		}
		if structured.Language != "" {
			result.Language = structured.Language
		}
		if structured.Notes != "" {
			notes := structured.Notes
			result.Notes = &notes
		}
		conf := structured.Confidence
		aiConf = &conf
		result.Engine = source + aiEngineSuffix
	} else {
		fields = composeFallback(set)
		notes := fallbackNotes
		result.Notes = &notes
		result.Engine = source
		if source == ocrEngineTag {
			result.Engine = source + engineOnlySuffix
		}
	}

	if fields.Amount != nil {
		if strings.Contains(strings.ToLower(rawText), "receipt") {
			result.DocumentType = "receipt"
		} else {
			result.DocumentType = "invoice"
		}
	}

	// VALIDATE_AND_SCORE
	outcome := validate.Evaluate(fields, set, textConfidence, aiConf)
	validate.ApplyDefaults(&fields, set.Language, p.now())

	result.Merchant = fields.Merchant
	result.Amount = fields.Amount
	result.Currency = fields.Currency
	result.Date = fields.Date
	result.Category = fields.Category
	result.Confidence = outcome.Confidence
	result.Status = outcome.Status
	result.NeedsReviewReason = outcome.NeedsReviewReason
	result.Validation = outcome.Fields

	logger.Info("pipeline.done",
		"status", result.Status,
		"confidence", result.Confidence,
		"engine", result.Engine,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result
}

// acquireText tries the premium parser. Every failure is swallowed and
// reported as "no source", leaving OCR to take over. Text shorter than the
// usable minimum is treated the same as no text.
func (p *Pipeline) acquireText(ctx context.Context, logger *slog.Logger, path string) (string, float64, string) {
	if p.premium == nil {
		return "", 0, ""
	}

	pctx, cancel := context.WithTimeout(ctx, p.cfg.PremiumTimeout)
	defer cancel()

	text, err := p.premium.Parse(pctx, path)
	if err != nil {
		logger.Warn("pipeline.premium.unavailable", "error", err)
		return "", 0, ""
	}
	if len(text) < minUsableText {
		logger.Warn("pipeline.premium.too_short", "chars", len(text))
		return "", 0, ""
	}
	logger.Info("pipeline.premium.ok", "chars", len(text))
	return text, premiumTextConfidence, premium.EngineTag
}

func (p *Pipeline) runOCR(ctx context.Context, path string, format constants.Format) ocr.Result {
	octx, cancel := context.WithTimeout(ctx, p.cfg.OCRTimeout)
	defer cancel()
	return p.ocr.Run(octx, path, format)
}

// structure calls the AI adapter with the original document attached for
// multimodal grounding. nil means the fallback composer takes over.
func (p *Pipeline) structure(ctx context.Context, path, mimeType, rawText string, set candidates.Set) *ai.Structured {
	if p.structurer == nil {
		return nil
	}

	req := ai.Request{
		RawText:   rawText,
		Amounts:   set.Amounts,
		Dates:     set.Dates,
		Merchants: set.Merchants,
	}
	if data, err := os.ReadFile(path); err == nil && len(data) <= maxDocBytesForAI {
		req.DocBytes = data
		req.DocMIME = mimeType
	}

	actx, cancel := context.WithTimeout(ctx, p.cfg.AITimeout)
	defer cancel()
	return p.structurer.Structure(actx, req)
}

func pathExt(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}
