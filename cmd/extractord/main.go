// extractord runs the extraction pipeline over a single document and prints
// the finalized record as JSON. Exit code is 0 only for a PASS.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/shibzan13/Damshiquebot/constants"
	"github.com/shibzan13/Damshiquebot/internal/ai"
	"github.com/shibzan13/Damshiquebot/internal/common"
	"github.com/shibzan13/Damshiquebot/internal/ocr"
	"github.com/shibzan13/Damshiquebot/internal/pipeline"
	"github.com/shibzan13/Damshiquebot/internal/premium"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "extractord <receipt-or-invoice-file>")
		os.Exit(2)
	}
	path := os.Args[1]
	mimeType := constants.DetectMIME(path)

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	structurer, err := ai.NewClient(ctx, ai.Config{
		APIKey:          cfg.AI.APIKey,
		Models:          cfg.AI.Models,
		Temperature:     cfg.AI.Temperature,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		Cooldown:        cfg.AI.Cooldown,
		MinCallInterval: cfg.AI.MinCallInterval,
		Timeout:         cfg.AI.Timeout,
	}, logger)
	if err != nil {
		logger.Error("init ai client", "error", err)
		os.Exit(1)
	}

	var premiumSource pipeline.TextSource
	if cfg.Premium.APIKey != "" {
		premiumSource = premium.NewClient(premium.Config{
			APIKey:       cfg.Premium.APIKey,
			BaseURL:      cfg.Premium.BaseURL,
			PollInterval: cfg.Premium.PollInterval,
			MaxPolls:     cfg.Premium.MaxPolls,
			Timeout:      cfg.Premium.Timeout,
		}, logger)
	}

	ocrRunner := ocr.NewExtractor(ocr.Config{
		Languages: cfg.OCR.Languages,
		DPI:       cfg.OCR.DPI,
	}, logger)

	p := pipeline.New(pipeline.Config{
		PremiumTimeout: cfg.Premium.Timeout,
		OCRTimeout:     cfg.OCR.Timeout,
		AITimeout:      cfg.AI.Timeout,
	}, premiumSource, ocrRunner, structurer, logger)

	start := time.Now()
	result := p.Extract(ctx, path, mimeType, "cli")

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	logger.Info("extraction finished",
		"status", result.Status,
		"confidence", result.Confidence,
		"engine", result.Engine,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if result.Status != constants.StatusPass {
		os.Exit(1)
	}
}
