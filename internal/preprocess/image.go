package preprocess

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const (
	minWidth    = 1500
	targetWidth = 2000
)

// EnhanceImage prepares a photo of a receipt for OCR: small images are
// upscaled to ~2000px with Catmull-Rom (cubic) resampling, then converted to
// grayscale, contrast-boosted and lightly sharpened. The enhanced copy is
// written next to a temp location; the returned cleanup removes it.
//
// Enhancement failures are never fatal: on any error the original path is
// returned unchanged with a no-op cleanup.
func EnhanceImage(path string, logger *slog.Logger) (string, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() {}

	img, err := imaging.Open(path)
	if err != nil {
		logger.Warn("preprocess.image.open_failed", "path", path, "error", err)
		return path, noop
	}

	if img.Bounds().Dx() < minWidth {
		img = imaging.Resize(img, targetWidth, 0, imaging.CatmullRom)
	}

	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.AdjustGamma(img, 1.1)
	img = imaging.Sharpen(img, 1.0)

	tmp, err := os.CreateTemp("", "dq-proc-*.png")
	if err != nil {
		logger.Warn("preprocess.image.temp_failed", "error", err)
		return path, noop
	}
	out := tmp.Name()
	if cerr := tmp.Close(); cerr != nil {
		logger.Warn("preprocess.image.temp_close", "error", cerr)
	}

	if err := imaging.Save(img, out); err != nil {
		logger.Warn("preprocess.image.save_failed", "path", out, "error", err)
		_ = os.Remove(out)
		return path, noop
	}

	logger.Debug("preprocess.image.enhanced", "src", filepath.Base(path), "out", out)
	return out, func() { _ = os.Remove(out) }
}
