//go:build !vips

package library

import "fmt"

var _ Library = (*VipsLibrary)(nil)

// VipsLibrary stands in for the libvips backend in binaries built without
// the vips tag. It always reports itself as absent.
type VipsLibrary struct{}

func NewVipsLibrary(opts ...Option) Library {
	return &VipsLibrary{}
}

func (l *VipsLibrary) Name() string {
	return "vips"
}

func (l *VipsLibrary) Loaded() bool {
	return false
}

func (l *VipsLibrary) Open() (Session, error) {
	return nil, fmt.Errorf("binary built without libvips support (use -tags vips)")
}

func (l *VipsLibrary) Shutdown() {}
