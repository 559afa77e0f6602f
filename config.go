package docremedy

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/docremedy/llm"
)

// Config holds all configuration for the docremedy engine.
type Config struct {
	// LLM is the completion service used for analysis and questions.
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// HistoryDSN selects the upload history store: a SQLite file path or a
	// postgres:// URL. Empty disables history.
	HistoryDSN string `json:"history_dsn" yaml:"history_dsn"`

	// ValidatePDF runs a structural check before text extraction.
	ValidatePDF bool `json:"validate_pdf" yaml:"validate_pdf"`

	// MaxDocumentChars clips the document text sent for analysis. Zero sends
	// the whole text.
	MaxDocumentChars int `json:"max_document_chars" yaml:"max_document_chars" validate:"gte=0"`

	// Instruction replaces the built-in analysis preamble when set.
	Instruction string `json:"instruction,omitempty" yaml:"instruction,omitempty"`

	// PageSize is the default number of ranked documents per page.
	PageSize int `json:"page_size" yaml:"page_size" validate:"gte=0,lte=500"`
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	Provider    string        `json:"provider" yaml:"provider" validate:"required,oneof=openai groq ollama lmstudio openrouter xai gemini custom"`
	Model       string        `json:"model" yaml:"model"`
	BaseURL     string        `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKey      string        `json:"api_key" yaml:"api_key"`
	MaxRetries  int           `json:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
	Temperature float64       `json:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
}

// DefaultConfig returns a Config for the hosted OpenAI API with history
// disabled.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     120 * time.Second,
			Temperature: 0.2,
		},
		ValidatePDF:      true,
		MaxDocumentChars: 48000,
		PageSize:         10,
	}
}

// LoadConfig reads a YAML (or JSON) file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// apiKeyEnv maps providers to their conventional API key variable.
var apiKeyEnv = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"groq":       "GROQ_API_KEY",
	"gemini":     "GEMINI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"xai":        "XAI_API_KEY",
}

// ApplyEnv overrides fields from DOCREMEDY_* environment variables. When no
// API key is configured the provider's conventional variable is used.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("DOCREMEDY_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("DOCREMEDY_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("DOCREMEDY_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("DOCREMEDY_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("DOCREMEDY_HISTORY_DSN"); v != "" {
		c.HistoryDSN = v
	}
	if v := os.Getenv("DOCREMEDY_MAX_DOCUMENT_CHARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: DOCREMEDY_MAX_DOCUMENT_CHARS=%q", ErrInvalidConfig, v)
		}
		c.MaxDocumentChars = n
	}
	if v := os.Getenv("DOCREMEDY_VALIDATE_PDF"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: DOCREMEDY_VALIDATE_PDF=%q", ErrInvalidConfig, v)
		}
		c.ValidatePDF = b
	}
	if c.LLM.APIKey == "" {
		if name, ok := apiKeyEnv[c.LLM.Provider]; ok {
			c.LLM.APIKey = os.Getenv(name)
		}
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.LLM.Provider == "custom" && strings.TrimSpace(c.LLM.BaseURL) == "" {
		return fmt.Errorf("%w: custom provider requires base_url", ErrInvalidConfig)
	}
	return nil
}

func (c LLMConfig) provider() llm.Config {
	return llm.Config{
		Provider:   c.Provider,
		Model:      c.Model,
		BaseURL:    c.BaseURL,
		APIKey:     c.APIKey,
		MaxRetries: c.MaxRetries,
		Timeout:    c.Timeout,
	}
}
