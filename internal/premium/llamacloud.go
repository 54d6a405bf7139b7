// Package premium wraps the LlamaParse cloud document parser. It is an
// optional, higher-quality text source tried before local OCR; every failure
// here is recoverable and the pipeline degrades to OCR.
package premium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shibzan13/Damshiquebot/internal/common"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured error = common.NewAppError("PREMIUM_NOT_CONFIGURED", "premium parser not configured", common.ErrUnavailable)

// EngineTag identifies this text source in extraction results.
const EngineTag = "llama_cloud"

type Config struct {
	APIKey       string        // if empty, falls back to env LLAMA_CLOUD_API_KEY
	BaseURL      string        // default https://api.cloud.llamaindex.ai
	PollInterval time.Duration // default 2s
	MaxPolls     int           // default 30
	Timeout      time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("LLAMA_CLOUD_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloud.llamaindex.ai"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 30
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Parse uploads the document, waits for the parsing job, and returns the
// parsed markdown text.
func (c *Client) Parse(ctx context.Context, path string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	start := time.Now()
	jobID, err := c.upload(ctx, path)
	if err != nil {
		return "", common.WrapError(err, "upload")
	}
	c.logger.Info("premium.parse.start", "file", filepath.Base(path), "job_id", jobID)

	if err := c.waitForJob(ctx, jobID); err != nil {
		return "", err
	}

	text, err := c.fetchMarkdown(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("fetch result: %w", err)
	}

	c.logger.Info("premium.parse.ok",
		"job_id", jobID,
		"bytes", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (c *Client) upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			c.logger.Warn("premium.upload.close", "error", cerr)
		}
	}()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/parsing/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("upload returned no job id")
	}
	return out.ID, nil
}

func (c *Client) waitForJob(ctx context.Context, jobID string) error {
	for attempt := 0; attempt < c.cfg.MaxPolls; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.cfg.BaseURL+"/api/parsing/job/"+jobID, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		var out struct {
			Status string `json:"status"`
		}
		if err := c.do(req, &out); err != nil {
			return err
		}
		switch strings.ToUpper(out.Status) {
		case "SUCCESS", "COMPLETED":
			return nil
		case "ERROR", "FAILED":
			return fmt.Errorf("parsing job %s failed", jobID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
	return fmt.Errorf("parsing job %s did not finish after %d polls", jobID, c.cfg.MaxPolls)
}

func (c *Client) fetchMarkdown(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/api/parsing/job/"+jobID+"/result/markdown", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	var out struct {
		Markdown string `json:"markdown"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Markdown, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("premium.response_close", "error", cerr)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("llama cloud status %d: %s", resp.StatusCode, buf.String())
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
