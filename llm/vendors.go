package llm

import "context"

// vendor holds the defaults of an OpenAI-compatible hosted or local API.
type vendor struct {
	baseURL string
	model   string
	prefix  string
}

// vendors lists the OpenAI-compatible providers selectable by name. API keys
// come from Config; the root package resolves OPENAI_API_KEY and GROQ_API_KEY.
var vendors = map[string]vendor{
	"openai":     {baseURL: "https://api.openai.com", model: "gpt-4o-mini", prefix: "/v1"},
	"groq":       {baseURL: "https://api.groq.com/openai", model: "llama-3.3-70b-versatile", prefix: "/v1"},
	"ollama":     {baseURL: "http://localhost:11434", model: "llama3.1", prefix: "/v1"},
	"lmstudio":   {baseURL: "http://localhost:1234", prefix: "/v1"},
	"openrouter": {baseURL: "https://openrouter.ai/api", prefix: "/v1"},
	"xai":        {baseURL: "https://api.x.ai", model: "grok-2-latest", prefix: "/v1"},
}

// vendorProvider is an OpenAI-compatible provider with vendor defaults
// applied.
type vendorProvider struct {
	name string
	base openAICompatClient
}

func newVendor(name string, v vendor, cfg Config) *vendorProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = v.baseURL
	}
	if cfg.Model == "" {
		cfg.Model = v.model
	}
	return &vendorProvider{name: name, base: newOpenAICompatClientPrefix(cfg, v.prefix)}
}

func (p *vendorProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req)
}

func (p *vendorProvider) Name() string { return p.name }
