package handler

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/config"

	"github.com/RiteshF7/instaauto/batch"
	"github.com/RiteshF7/instaauto/generators"
	"github.com/RiteshF7/instaauto/services"
)

// ConfigFile is the path of the YAML configuration.
type ConfigFile string

// DefaultConfigFile reads INSTAAUTO_CONFIG, defaulting to config/base.yaml.
func DefaultConfigFile() ConfigFile {
	if p := os.Getenv("INSTAAUTO_CONFIG"); p != "" {
		return ConfigFile(p)
	}
	return "config/base.yaml"
}

// HTTPConfig is the "http" section.
type HTTPConfig struct {
	Address        string        `yaml:"address"`
	StaticDir      string        `yaml:"static_dir"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// OverlayConfig is the "overlay" section. Colours are hex strings.
type OverlayConfig struct {
	Position string `yaml:"position"`
	Fill     string `yaml:"fill"`
	Shadow   string `yaml:"shadow"`
}

// Config is the typed application configuration.
type Config struct {
	HTTP       HTTPConfig            `yaml:"http"`
	Fonts      generators.FontConfig `yaml:"fonts"`
	Overlay    OverlayConfig         `yaml:"overlay"`
	Generation services.Config       `yaml:"generation"`
	Batch      batch.Config          `yaml:"batch"`
}

// NewConfigProvider returns a config.Provider for the YAML file. ${VAR:default}
// references are expanded from the environment.
func NewConfigProvider(file ConfigFile) (config.Provider, error) {
	return config.NewYAML(config.File(string(file)), config.Expand(os.LookupEnv))
}

// NewConfig populates Config from the provider and fills in defaults.
func NewConfig(provider config.Provider) (Config, error) {
	var cfg Config
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return Config{}, fmt.Errorf("populating config: %w", err)
	}
	cfg.setDefaults()
	if cfg.Generation.APIKey == "" {
		cfg.Generation.APIKey = os.Getenv(apiKeyEnv(cfg.Generation.Provider))
	}
	return cfg, nil
}

// apiKeyEnv names the environment variable holding the provider's key.
func apiKeyEnv(provider string) string {
	if strings.EqualFold(provider, services.ProviderOpenAI) {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":5000"
	}
	if c.HTTP.StaticDir == "" {
		c.HTTP.StaticDir = "static"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 30 * time.Second
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 3 * time.Minute
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = c.HTTP.RequestTimeout + 30*time.Second
	}
	if c.Overlay.Position == "" {
		c.Overlay.Position = string(generators.BottomCenter)
	}
	if c.Overlay.Fill == "" {
		c.Overlay.Fill = "#ffffff"
	}
	if c.Overlay.Shadow == "" {
		c.Overlay.Shadow = "#000000"
	}
	if c.Batch.OutputDir == "" {
		c.Batch.OutputDir = "images"
	}
	if c.Batch.Count == 0 {
		c.Batch.Count = 60
	}
	if c.Batch.Delay == 0 {
		c.Batch.Delay = 2 * time.Second
	}
	if c.Batch.CaptionDelay == 0 {
		c.Batch.CaptionDelay = time.Second
	}
	if c.Batch.LockFile == "" {
		c.Batch.LockFile = ".generate_images.lock"
	}
	if c.Batch.LockStaleAfter == 0 {
		c.Batch.LockStaleAfter = time.Hour
	}
}
