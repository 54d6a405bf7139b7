package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/shibzan13/Damshiquebot/internal/common"
)

// ErrEngineUnavailable is the sticky failure reported when the OCR engine
// could not be initialized.
var ErrEngineUnavailable error = common.NewAppError("OCR_UNAVAILABLE", "engine not available", common.ErrUnavailable)

// Token is one recognized text line with its confidence and bounding box.
type Token struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Box        image.Rectangle `json:"bbox"`
}

// Engine lets us stub the OCR backend in tests.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) ([]Token, error)
}

// tesseractEngine wraps a single gosseract client. The client is not
// reentrant, so recognition is serialized with a mutex.
type tesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func (e *tesseractEngine) Recognize(ctx context.Context, imagePath string) ([]Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	tokens := make([]Token, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:       text,
			Confidence: b.Confidence / 100.0,
			Box:        b.Box,
		})
	}
	return tokens, nil
}

var (
	engineOnce sync.Once
	engineInst Engine
	engineErr  error
)

// DefaultEngine returns the process-wide tesseract engine, initializing it on
// first use. Concurrent first calls initialize exactly once; a failed
// initialization is cached and returned on every subsequent call rather than
// retried.
func DefaultEngine(languages string) (Engine, error) {
	engineOnce.Do(func() {
		client := gosseract.NewClient()
		langs := strings.Split(languages, "+")
		if err := client.SetLanguage(langs...); err != nil {
			_ = client.Close()
			engineErr = fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
			return
		}
		engineInst = &tesseractEngine{client: client}
	})
	return engineInst, engineErr
}
