package mediastore

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/rwcarlsen/goexif/exif"
)

// maxDimension caps the longest edge before an image goes public. The
// platforms re-render anyway; shipping 40 MP originals only slows uploads.
const maxDimension = 2048

// hasLocationMetadata reports whether the file carries GPS EXIF tags.
// Absence of EXIF data is not an error.
func hasLocationMetadata(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return false
	}
	if _, err := x.Get(exif.GPSLatitude); err == nil {
		return true
	}
	if _, err := x.Get(exif.GPSLongitude); err == nil {
		return true
	}
	return false
}

// normalizeImage prepares a staged image for publication: applies the EXIF
// orientation, downscales oversized images, and re-encodes as JPEG, which
// drops all metadata. Returns the path of the normalized temp file; the
// caller owns its removal.
func normalizeImage(path string) (string, error) {
	if hasLocationMetadata(path) {
		log.Infof("stripping location metadata from %s before upload", filepath.Base(path))
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	img = capDimensions(img)

	out, err := os.CreateTemp("", "media-*.jpg")
	if err != nil {
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	if err := imaging.Save(img, out.Name(), imaging.JPEGQuality(90)); err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("encoding image: %w", err)
	}
	return out.Name(), nil
}

// capDimensions downscales the image so neither edge exceeds maxDimension.
func capDimensions(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}
