package config

import (
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "FIT_SCANNER_CONFIG"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	geminiModelsEnv = "GEMINI_MODELS"
	masterFileEnv   = "FIT_MASTER_FILE"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// LoggingConfig selects log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GeminiConfig wires the classifier: credential, model cascade, per-call timeout.
type GeminiConfig struct {
	APIKey         string   `yaml:"apiKey"`
	Models         []string `yaml:"models"`
	TimeoutSeconds int      `yaml:"timeoutSeconds"`
}

// CrawlerConfig governs outbound page fetches.
type CrawlerConfig struct {
	UserAgent      string `yaml:"userAgent"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// PipelineConfig locates the record store and sets pacing between subjects.
type PipelineConfig struct {
	MasterFile   string `yaml:"masterFile"`
	IntakeGlob   string `yaml:"intakeGlob"`
	DelaySeconds int    `yaml:"delaySeconds"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An explicit path wins over the FIT_SCANNER_CONFIG environment variable.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Gemini.Models) == 0 {
		cfg.Gemini.Models = defaultConfig().Gemini.Models
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelsEnv); v != "" {
		models := make([]string, 0)
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				models = append(models, name)
			}
		}
		if len(models) > 0 {
			c.Gemini.Models = models
		}
	}

	if v := os.Getenv(masterFileEnv); v != "" {
		c.Pipeline.MasterFile = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if len(override.Gemini.Models) > 0 {
		base.Gemini.Models = override.Gemini.Models
	}
	if override.Gemini.TimeoutSeconds > 0 {
		base.Gemini.TimeoutSeconds = override.Gemini.TimeoutSeconds
	}

	if override.Crawler.UserAgent != "" {
		base.Crawler.UserAgent = override.Crawler.UserAgent
	}
	if override.Crawler.TimeoutSeconds > 0 {
		base.Crawler.TimeoutSeconds = override.Crawler.TimeoutSeconds
	}

	if override.Pipeline.MasterFile != "" {
		base.Pipeline.MasterFile = override.Pipeline.MasterFile
	}
	if override.Pipeline.IntakeGlob != "" {
		base.Pipeline.IntakeGlob = override.Pipeline.IntakeGlob
	}
	if override.Pipeline.DelaySeconds > 0 {
		base.Pipeline.DelaySeconds = override.Pipeline.DelaySeconds
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Gemini: GeminiConfig{
			APIKey: "",
			Models: []string{
				"gemini-2.5-flash-lite",
				"gemini-2.0-flash-lite-preview-02-05",
				"gemini-flash-lite-latest",
				"gemini-2.5-flash",
				"gemini-2.0-flash",
				"gemini-flash-latest",
				"gemini-1.5-flash",
				"gemma-3-27b-it",
			},
			TimeoutSeconds: 60,
		},
		Crawler: CrawlerConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36" +
				" (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			TimeoutSeconds: 10,
		},
		Pipeline: PipelineConfig{
			MasterFile:   "data/base_professores.csv",
			IntakeGlob:   "data/novos_dados*.csv",
			DelaySeconds: 8,
		},
	}
}
