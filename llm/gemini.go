package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements Provider on the native Gemini API.
//
// Supported chat models:
//
//	gemini-2.0-flash   default, fast
//	gemini-2.5-flash   cheaper
//	gemini-2.5-pro     highest capability
//
// API key: set via config or GEMINI_API_KEY.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini provider. BaseURL, when set, overrides the API
// endpoint.
func NewGemini(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Chat maps system messages to the system instruction and replays earlier
// turns as chat history before sending the last user message.
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	name := req.Model
	if name == "" {
		name = p.model
	}
	model := p.client.GenerativeModel(name)
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	system, history, last, err := geminiTurns(req.Messages)
	if err != nil {
		return nil, err
	}
	if system != nil {
		model.SystemInstruction = system
	}

	var resp *genai.GenerateContentResponse
	if len(history) == 0 {
		resp, err = model.GenerateContent(ctx, last.Parts...)
	} else {
		cs := model.StartChat()
		cs.History = history
		resp, err = cs.SendMessage(ctx, last.Parts...)
	}
	if err != nil {
		return nil, fmt.Errorf("gemini: generating content: %w", err)
	}

	text, finish, err := geminiText(resp)
	if err != nil {
		return nil, err
	}
	out := &ChatResponse{
		Content:      text,
		Model:        name,
		FinishReason: finish,
	}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}

// Name implements the provider naming used in errors.
func (p *GeminiProvider) Name() string { return "gemini" }

// Close releases the underlying client.
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// geminiTurns splits chat messages into a system instruction, prior turns
// and the final user turn.
func geminiTurns(msgs []Message) (*genai.Content, []*genai.Content, *genai.Content, error) {
	var (
		system []genai.Part
		turns  []*genai.Content
	)
	for _, m := range msgs {
		switch m.Role {
		case "system":
			system = append(system, genai.Text(m.Content))
		case "assistant", "model":
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return nil, nil, nil, fmt.Errorf("gemini: last message must come from the user")
	}

	var sys *genai.Content
	if len(system) > 0 {
		sys = &genai.Content{Parts: system}
	}
	return sys, turns[:len(turns)-1], turns[len(turns)-1], nil
}

// geminiText extracts the text of the first candidate.
func geminiText(resp *genai.GenerateContentResponse) (string, string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", "", fmt.Errorf("gemini: no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", "", fmt.Errorf("gemini: no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", "", fmt.Errorf("gemini: no text parts in response")
	}
	return strings.Join(parts, ""), candidate.FinishReason.String(), nil
}
