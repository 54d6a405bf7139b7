package preprocess

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// RenderPDF rasterizes every page of the PDF at the given DPI and returns the
// rendered image paths in page order, plus a cleanup func that removes them.
// The caller must invoke cleanup on all exit paths once OCR is done.
func RenderPDF(path string, dpi int, logger *slog.Logger) ([]string, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dpi <= 0 {
		dpi = 300
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			logger.Warn("preprocess.pdf.close", "path", path, "error", cerr)
		}
	}()

	tmpDir, err := os.MkdirTemp("", "dq-pages-*")
	if err != nil {
		return nil, func() {}, fmt.Errorf("temp dir: %w", err)
	}
	cleanup := func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			logger.Warn("preprocess.pdf.cleanup", "dir", tmpDir, "error", rerr)
		}
	}

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		img, rerr := doc.ImageDPI(i, float64(dpi))
		if rerr != nil {
			logger.Warn("preprocess.pdf.render_page", "page", i+1, "error", rerr)
			continue
		}
		out := filepath.Join(tmpDir, fmt.Sprintf("page_%04d.png", i))
		if serr := imaging.Save(img, out); serr != nil {
			logger.Warn("preprocess.pdf.save_page", "page", i+1, "error", serr)
			continue
		}
		pages = append(pages, out)
	}

	if len(pages) == 0 {
		cleanup()
		return nil, func() {}, fmt.Errorf("no pages rendered from %s", filepath.Base(path))
	}

	logger.Debug("preprocess.pdf.rendered", "path", path, "pages", len(pages), "dpi", dpi)
	return pages, cleanup, nil
}
