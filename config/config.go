package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultQuality          = 80
	DefaultNoticeTTLSeconds = 300
	DefaultMaxUploadBytes   = 32 << 20
	DefaultMaxPixels        = 40_000_000
)

type Config struct {
	Listen         string          `json:"Listen" validate:"required,hostname_port"`
	LogLevel       string          `json:"LogLevel" validate:"omitempty,oneof=debug info warn error"`
	UploadDir      string          `json:"UploadDir" validate:"required,min=1"`
	MaxUploadBytes int64           `json:"MaxUploadBytes" validate:"min=1"`
	Converter      ConverterConfig `json:"Converter" validate:"required"`
	Notice         NoticeConfig    `json:"Notice"`
	Output         OutputConfig    `json:"Output" validate:"required"`
}

type ConverterConfig struct {
	Library string `json:"Library" validate:"required,oneof=webp vips"`
	Quality int    `json:"Quality" validate:"min=0,max=100"`

	// MaxPixels caps width*height of a source image, checked from its header
	// before any pixel is decoded.
	MaxPixels int64 `json:"MaxPixels" validate:"min=1"`
}

type NoticeConfig struct {
	TTLSeconds int `json:"TTLSeconds" validate:"min=1"`
}

func (nc NoticeConfig) TTL() time.Duration {
	return time.Duration(nc.TTLSeconds) * time.Second
}

type OutputConfig struct {
	Storage StorageConfig `json:"Storage" validate:"required"`
}

type StorageConfig struct {
	Type   string `json:"Type" validate:"required,oneof=b2 s3 local-unix"`
	Config any    `json:"Config" validate:"required"`
}

func (sc *StorageConfig) UnmarshalJSON(data []byte) error {
	var tmp struct {
		Type   string          `json:"Type"`
		Config json.RawMessage `json:"Config"`
	}

	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}

	sc.Type = tmp.Type

	switch tmp.Type {
	case "b2":
		var b2Config B2Config
		if err := json.Unmarshal(tmp.Config, &b2Config); err != nil {
			return fmt.Errorf("unmarshal B2Config: %w", err)
		}
		sc.Config = &b2Config
	case "s3":
		var s3Config S3Config
		if err := json.Unmarshal(tmp.Config, &s3Config); err != nil {
			return fmt.Errorf("unmarshal S3Config: %w", err)
		}
		sc.Config = &s3Config
	case "local-unix":
		localConfig := OutputLocalUnixConfig{
			FilePermissionMode:       "644",
			DirPermissionMode:        "755",
			AttributesImplementation: "none",
		}
		if err := json.Unmarshal(tmp.Config, &localConfig); err != nil {
			return fmt.Errorf("unmarshal OutputLocalUnixConfig: %w", err)
		}
		sc.Config = &localConfig
	default:
		return fmt.Errorf("unsupported storage type: %s", tmp.Type)
	}

	return nil
}

type B2Config struct {
	BucketName     string `json:"BucketName" validate:"required,min=1"`
	Prefix         string `json:"Prefix"`
	KeyID          string `json:"KeyID" validate:"required"`
	ApplicationKey string `json:"ApplicationKey" validate:"required"`
}

type S3Config struct {
	BucketName      string `json:"BucketName" validate:"required,min=1"`
	Region          string `json:"Region" validate:"required,min=1"`
	Prefix          string `json:"Prefix"`
	Endpoint        string `json:"Endpoint" validate:"omitempty,url"`
	AccessKeyID     string `json:"AccessKeyID"`
	SecretAccessKey string `json:"SecretAccessKey"`
	UsePathStyle    bool   `json:"UsePathStyle"`
}

type OutputLocalUnixConfig struct {
	Path                     string `json:"Path" validate:"required,min=1"`
	FilePermissionMode       string `json:"FilePermissionMode" validate:"required,numeric"`
	DirPermissionMode        string `json:"DirPermissionMode" validate:"required,numeric"`
	AttributesImplementation string `json:"AttributesImplementation" validate:"oneof=xattr none"`
}

// Default returns a config with every optional field populated, to be
// overlaid by the JSON file.
func Default() *Config {
	return &Config{
		Listen:         ":8080",
		LogLevel:       "info",
		UploadDir:      os.TempDir(),
		MaxUploadBytes: DefaultMaxUploadBytes,
		Converter: ConverterConfig{
			Library:   "webp",
			Quality:   DefaultQuality,
			MaxPixels: DefaultMaxPixels,
		},
		Notice: NoticeConfig{TTLSeconds: DefaultNoticeTTLSeconds},
	}
}

func LoadConfig(path string, config *Config) error {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	expandedFileBytes := []byte(os.ExpandEnv(string(fileBytes)))

	if err = json.Unmarshal(expandedFileBytes, config); err != nil {
		return err
	}

	return nil
}

func InitConfig(path string) (*Config, error) {
	config := Default()
	if err := LoadConfig(path, config); err != nil {
		return nil, err
	}

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func Validate(config *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return err
	}

	// Storage.Config is an interface, so the validator does not descend into it.
	if err := validate.Struct(config.Output.Storage.Config); err != nil {
		return fmt.Errorf("invalid %s storage config: %w", config.Output.Storage.Type, err)
	}

	return nil
}
