package output

import (
	"context"
	"fmt"

	"github.com/SayaAndy/saya-today-webp-converter/config"
)

// OutputClient persists a finished upload under name.
type OutputClient interface {
	Store(ctx context.Context, name string, localPath string, contentType string) error
	ID(name string) string
}

var NewOutputClientMap = map[string]func(cfg *config.OutputConfig) (OutputClient, error){
	"local-unix": NewLocalUnixOutputClient,
	"b2":         NewB2OutputClient,
	"s3":         NewS3OutputClient,
}

func NewOutputClient(cfg *config.OutputConfig) (OutputClient, error) {
	newClient, ok := NewOutputClientMap[cfg.Storage.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	return newClient(cfg)
}
