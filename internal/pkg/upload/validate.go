package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// Only formats every target platform accepts are staged. SVG is excluded
// because it can carry scripts and nothing here sanitizes it.
var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateImageBySniff checks the filename extension and the first bytes of
// the file against the allow-list. The sniffed type wins over the extension,
// so a renamed HTML file never passes. Returns the detected mime type.
func ValidateImageBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", errors.New("only JPG, JPEG, PNG, GIF and WEBP images are supported")
	}

	detected := http.DetectContentType(head)

	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", errors.New("HTML content is not allowed")
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		return "", errors.New("SVG/XML content is not allowed")
	}

	if allowedMime[detected] {
		return detected, nil
	}
	return "", errors.New("unsupported file type")
}
