// Package config loads service configuration. Precedence, lowest to highest:
// built-in defaults, an optional YAML file, then environment variables. A
// .env file is loaded first when present so local runs need no exported
// shell state.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every knob the binaries share.
type Config struct {
	Port       int    `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`

	DocsDir      string `yaml:"docs_dir"`
	ArtifactsDir string `yaml:"artifacts_dir"`
	IndexName    string `yaml:"index_name"`
	AuditPath    string `yaml:"audit_path"`

	ChunkWindow  int `yaml:"chunk_window"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	TopK   int     `yaml:"top_k"`
	MinSim float64 `yaml:"min_sim"`

	Backend    string `yaml:"backend"` // "file" or "qdrant"
	QdrantAddr string `yaml:"qdrant_addr"`
	Collection string `yaml:"collection"`

	NATSAddr string `yaml:"nats_addr"`

	Provider    string `yaml:"provider"` // "openai" or "ollama"
	OpenAIKey   string `yaml:"openai_key"`
	OpenAIBase  string `yaml:"openai_base"`
	EmbedModel  string `yaml:"embed_model"`
	ChatModel   string `yaml:"chat_model"`
	OllamaAddr  string `yaml:"ollama_addr"`
	MetricsPort int    `yaml:"metrics_port"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:         8080,
		CORSOrigin:   "*",
		DocsDir:      "docs",
		ArtifactsDir: "artifacts",
		IndexName:    "regdocs",
		AuditPath:    "artifacts/audit_log.csv",
		ChunkWindow:  400,
		ChunkOverlap: 40,
		TopK:         5,
		MinSim:       0.30,
		Backend:      "file",
		QdrantAddr:   "localhost:6334",
		Collection:   "lexguard",
		NATSAddr:     "",
		Provider:     "openai",
		OpenAIBase:   "",
		EmbedModel:   "text-embedding-3-small",
		ChatModel:    "gpt-4o-mini",
		OllamaAddr:   "http://localhost:11434",
		MetricsPort:  9091,
	}
}

// Load builds the effective configuration. yamlPath may be empty or point at
// a missing file; only a file that exists but fails to parse is an error.
func Load(yamlPath string) (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", yamlPath, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: read %s: %w", yamlPath, err)
		}
	}

	applyEnv(&cfg)
	return cfg, cfg.validate()
}

func applyEnv(cfg *Config) {
	envInt("PORT", &cfg.Port)
	envStr("CORS_ORIGIN", &cfg.CORSOrigin)
	envStr("DOCS_DIR", &cfg.DocsDir)
	envStr("ARTIFACTS_DIR", &cfg.ArtifactsDir)
	envStr("INDEX_NAME", &cfg.IndexName)
	envStr("AUDIT_PATH", &cfg.AuditPath)
	envInt("CHUNK_WINDOW", &cfg.ChunkWindow)
	envInt("CHUNK_OVERLAP", &cfg.ChunkOverlap)
	envInt("TOP_K", &cfg.TopK)
	envFloat("MIN_SIM", &cfg.MinSim)
	envStr("INDEX_BACKEND", &cfg.Backend)
	envStr("QDRANT_ADDR", &cfg.QdrantAddr)
	envStr("QDRANT_COLLECTION", &cfg.Collection)
	envStr("NATS_ADDR", &cfg.NATSAddr)
	envStr("LLM_PROVIDER", &cfg.Provider)
	envStr("OPENAI_API_KEY", &cfg.OpenAIKey)
	envStr("OPENAI_BASE_URL", &cfg.OpenAIBase)
	envStr("EMBED_MODEL", &cfg.EmbedModel)
	envStr("CHAT_MODEL", &cfg.ChatModel)
	envStr("OLLAMA_ADDR", &cfg.OllamaAddr)
	envInt("METRICS_PORT", &cfg.MetricsPort)
}

func (c Config) validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("config: top_k must be positive, got %d", c.TopK)
	}
	if c.MinSim < -1 || c.MinSim > 1 {
		return fmt.Errorf("config: min_sim must be in [-1, 1], got %g", c.MinSim)
	}
	if c.ChunkOverlap >= c.ChunkWindow {
		return fmt.Errorf("config: chunk_overlap %d must be below chunk_window %d", c.ChunkOverlap, c.ChunkWindow)
	}
	switch c.Backend {
	case "file", "qdrant":
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	switch c.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	return nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
