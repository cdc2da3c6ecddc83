package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/SayaAndy/saya-today-webp-converter/config"
)

const contentTypeXattr = "user.upload.contenttype"

var _ OutputClient = (*LocalUnixOutputClient)(nil)

type LocalUnixOutputClient struct {
	path     string
	fileMode uint32
	dirMode  uint32
	attrMode string
}

func NewLocalUnixOutputClient(cfg *config.OutputConfig) (OutputClient, error) {
	if cfg.Storage.Type != "local-unix" {
		return nil, fmt.Errorf("invalid storage type for LocalUnixOutputClient")
	}
	localCfg := cfg.Storage.Config.(*config.OutputLocalUnixConfig)

	fpm, err := strconv.ParseInt(localCfg.FilePermissionMode, 8, 32)
	if err != nil {
		return nil, fmt.Errorf("fail to parse file permission mode as an octal number: %w", err)
	}

	dpm, err := strconv.ParseInt(localCfg.DirPermissionMode, 8, 32)
	if err != nil {
		return nil, fmt.Errorf("fail to parse directory permission mode as an octal number: %w", err)
	}

	switch localCfg.AttributesImplementation {
	case "xattr", "none", "":
	default:
		return nil, fmt.Errorf("unknown attributes implementation: %s", localCfg.AttributesImplementation)
	}

	return &LocalUnixOutputClient{localCfg.Path, uint32(fpm), uint32(dpm), localCfg.AttributesImplementation}, nil
}

func (c *LocalUnixOutputClient) resolve(name string) (string, error) {
	cleaned := filepath.Clean("/" + name)
	if cleaned == "/" {
		return "", fmt.Errorf("empty object name: %q", name)
	}
	return filepath.Join(c.path, cleaned), nil
}

func (c *LocalUnixOutputClient) Store(ctx context.Context, name string, localPath string, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := c.resolve(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), os.FileMode(c.dirMode)); err != nil {
		return fmt.Errorf("fail to mkdir parent directories for a path: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("fail to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(c.fileMode))
	if err != nil {
		return fmt.Errorf("fail to create a file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("fail to copy upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("fail to close a file: %w", err)
	}

	if c.attrMode == "xattr" {
		if err := unix.Setxattr(target, contentTypeXattr, []byte(contentType), 0); err != nil {
			return fmt.Errorf("fail to write %s xattribute: %w", contentTypeXattr, err)
		}
	}

	return nil
}

func (c *LocalUnixOutputClient) ID(name string) string {
	target, err := c.resolve(name)
	if err != nil {
		return ""
	}
	return "file://" + target
}

// ContentType reads back the type recorded by Store when xattrs are enabled.
func (c *LocalUnixOutputClient) ContentType(name string) (string, error) {
	target, err := c.resolve(name)
	if err != nil {
		return "", err
	}

	sz, err := unix.Getxattr(target, contentTypeXattr, nil)
	if err != nil {
		return "", fmt.Errorf("fail to get size of %s attribute: %w", contentTypeXattr, err)
	}
	value := make([]byte, sz)
	if _, err = unix.Getxattr(target, contentTypeXattr, value); err != nil {
		return "", fmt.Errorf("fail to get %s attribute: %w", contentTypeXattr, err)
	}
	return string(value), nil
}
