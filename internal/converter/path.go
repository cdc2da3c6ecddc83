package converter

import (
	"path/filepath"
	"strings"
)

// DeductOutputPath swaps a trailing .jpg, .jpeg or .png (any case) for .webp.
// Any other path gets .webp appended so the source is never the target.
func DeductOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png":
		return strings.TrimSuffix(inputPath, ext) + ".webp"
	default:
		return inputPath + ".webp"
	}
}
