package selfie

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/disintegration/imaging"
)

// Normalize turns a raw uploaded photo into a size×size JPEG: decode with
// EXIF orientation applied, center-crop to a square (odd remainders bias the
// crop toward the top-left), Lanczos-resize, encode at the given quality.
// The caller owns all file I/O.
func Normalize(raw []byte, size, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	m := b.Dx()
	if b.Dy() < m {
		m = b.Dy()
	}

	cropped := imaging.CropAnchor(img, m, m, imaging.Center)
	resized := imaging.Resize(cropped, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveNormalized writes the normalized photo to path. Normalization failure
// is non-fatal: the raw upload is stored under the same path so the
// submission still ends up with a usable image.
func SaveNormalized(path string, raw []byte, size, quality int) error {
	out, err := Normalize(raw, size, quality)
	if err != nil {
		log.Printf("selfie: normalize failed, storing original upload: %v", err)
		out = raw
	}
	return os.WriteFile(path, out, 0o644)
}

// Ext returns the lowercased extension of filename without the dot, or ""
// when there is none.
func Ext(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// Allowed reports whether filename has one of the allowed extensions.
func Allowed(filename string, extensions []string) bool {
	ext := Ext(filename)
	if ext == "" {
		return false
	}
	for _, allowed := range extensions {
		if ext == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}
