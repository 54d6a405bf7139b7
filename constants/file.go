package constants

import (
	"path/filepath"
	"strings"
)

// Format is the coarse document kind the pipeline routes on.
type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
)

// AllowedExtensions holds the file extensions the pipeline accepts.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to a Format; "" if unsupported.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png":
		return IMAGE
	}
	return ""
}

// MapMIMEToFormat maps a mime type to a Format; "" if unsupported.
func MapMIMEToFormat(mimeType string) Format {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "application/pdf":
		return PDF
	case "image/jpeg", "image/jpg", "image/png":
		return IMAGE
	}
	return ""
}

// DetectMIME guesses a mime type from the file extension, for callers that
// only have a path (e.g. the CLI).
func DetectMIME(path string) string {
	switch NormalizeExt(filepath.Ext(path)) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	}
	return "application/octet-stream"
}
