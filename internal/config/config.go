package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Brownie44l1/fashion-api/internal/model"
	"github.com/Brownie44l1/fashion-api/internal/preprocess"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort                int           `mapstructure:"app_port"`
	AppLogLevel            string        `mapstructure:"app_log_level"`
	ModelPath              string        `mapstructure:"model_path"`
	ModelMetadataPath      string        `mapstructure:"model_metadata_path"`
	OnnxruntimeLibraryPath string        `mapstructure:"onnxruntime_library_path"`
	ModelMaxLoadRetries    int           `mapstructure:"model_max_load_retries"`
	ModelRetryBackoff      time.Duration `mapstructure:"model_retry_backoff"`
	ResizeMethod           string        `mapstructure:"resize_method"`
	MaxUploadBytes         int64         `mapstructure:"max_upload_bytes"`
	MaxImagePixels         int           `mapstructure:"max_image_pixels"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_port", 8080)
	v.SetDefault("app_log_level", "INFO")
	v.SetDefault("model_path", "models/model.onnx")
	v.SetDefault("model_metadata_path", "models/model_metadata.json")
	v.SetDefault("onnxruntime_library_path", "")
	v.SetDefault("model_max_load_retries", 3)
	v.SetDefault("model_retry_backoff", time.Second)
	v.SetDefault("resize_method", string(preprocess.ResizeBilinear))
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("max_image_pixels", 4096*4096)
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app_port", "APP_PORT", "PORT")
	v.BindEnv("app_log_level", "APP_LOG_LEVEL")
	v.BindEnv("model_path", "MODEL_PATH")
	v.BindEnv("model_metadata_path", "MODEL_METADATA_PATH")
	v.BindEnv("onnxruntime_library_path", "ONNXRUNTIME_LIBRARY_PATH")
	v.BindEnv("model_max_load_retries", "MODEL_MAX_LOAD_RETRIES")
	v.BindEnv("model_retry_backoff", "MODEL_RETRY_BACKOFF")
	v.BindEnv("resize_method", "RESIZE_METHOD")
	v.BindEnv("max_upload_bytes", "MAX_UPLOAD_BYTES")
	v.BindEnv("max_image_pixels", "MAX_IMAGE_PIXELS")
}

// Load builds the configuration from defaults, an optional config file and
// the environment, in increasing priority.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)
	bindEnvVars(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := preprocess.ParseResizeMethod(c.ResizeMethod); err != nil {
		return err
	}
	if c.ModelMaxLoadRetries < 0 {
		return fmt.Errorf("model_max_load_retries must not be negative, got %d", c.ModelMaxLoadRetries)
	}
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return fmt.Errorf("invalid app_port %d", c.AppPort)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("max_image_pixels must be positive")
	}
	switch strings.ToUpper(c.AppLogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR", "FATAL", "PANIC", "DISABLED":
	default:
		return fmt.Errorf("invalid app_log_level %q", c.AppLogLevel)
	}
	return nil
}

// Normalizer returns the preprocessing pipeline configured by c.
func (c *Config) Normalizer() preprocess.Normalizer {
	method, _ := preprocess.ParseResizeMethod(c.ResizeMethod)
	return preprocess.NewNormalizer(method)
}

// LoadOptions returns the model loader settings configured by c.
func (c *Config) LoadOptions() model.LoadOptions {
	return model.LoadOptions{
		ModelPath:    c.ModelPath,
		MetadataPath: c.ModelMetadataPath,
		LibraryPath:  c.OnnxruntimeLibraryPath,
		MaxRetries:   c.ModelMaxLoadRetries,
		RetryBackoff: c.ModelRetryBackoff,
	}
}
