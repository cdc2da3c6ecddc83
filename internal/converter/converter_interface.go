package converter

type Converter interface {
	DeductOutputPath(inputPath string) string
	// Convert writes a WebP rendition next to sourcePath and returns its path.
	// The source is never modified.
	Convert(sourcePath string, quality int) (string, error)
}

// Prober gates conversion on environment capability.
type Prober interface {
	ConversionSupported() bool
}
