package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantType string
	}{
		{"openai", "*llm.vendorProvider"},
		{"groq", "*llm.vendorProvider"},
		{"ollama", "*llm.vendorProvider"},
		{"lmstudio", "*llm.vendorProvider"},
		{"openrouter", "*llm.vendorProvider"},
		{"xai", "*llm.vendorProvider"},
		{"custom", "*llm.openAICompatProvider"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(context.Background(), Config{Provider: tt.provider, Model: "test-model"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, fmt.Sprintf("%T", p))
		})
	}
}

func TestNewProviderErrors(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "doesnotexist"})
	assert.EqualError(t, err, "unknown llm provider: doesnotexist")

	_, err = NewProvider(context.Background(), Config{})
	assert.EqualError(t, err, "llm provider not specified")

	_, err = NewProvider(context.Background(), Config{Provider: "gemini"})
	assert.ErrorContains(t, err, "API key is required")
}

func TestVendorDefaults(t *testing.T) {
	tests := []struct {
		provider  string
		wantURL   string
		wantModel string
	}{
		{"openai", "https://api.openai.com", "gpt-4o-mini"},
		{"groq", "https://api.groq.com/openai", "llama-3.3-70b-versatile"},
		{"ollama", "http://localhost:11434", "llama3.1"},
		{"lmstudio", "http://localhost:1234", ""},
		{"openrouter", "https://openrouter.ai/api", ""},
		{"xai", "https://api.x.ai", "grok-2-latest"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(context.Background(), Config{Provider: tt.provider})
			require.NoError(t, err)
			vp := p.(*vendorProvider)
			assert.Equal(t, tt.wantURL, vp.base.cfg.BaseURL)
			assert.Equal(t, tt.wantModel, vp.base.cfg.Model)
			assert.Equal(t, "/v1", vp.base.pathPrefix)
		})
	}
}

func TestExplicitSettingsPreserved(t *testing.T) {
	cfg := Config{Provider: "groq", Model: "mixtral", BaseURL: "http://my-server:9999", APIKey: "sk-test"}
	p, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)

	vp := p.(*vendorProvider)
	assert.Equal(t, "http://my-server:9999", vp.base.cfg.BaseURL)
	assert.Equal(t, "mixtral", vp.base.cfg.Model)
	assert.Equal(t, "sk-test", vp.base.cfg.APIKey)
}

func TestCustomProviderNoDefaultURL(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "custom", Model: "m"})
	require.NoError(t, err)
	assert.Empty(t, p.(*openAICompatProvider).base.cfg.BaseURL)
}

func chatServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body chatCompletionRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var body chatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		handler(w, r, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func okResponse(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"model":"m","choices":[{"message":{"content":%q},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`, content)
}

func TestChat_OpenAICompat(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, body chatCompletionRequest) {
		assert.Equal(t, "Bearer sk-1", r.Header.Get("Authorization"))
		assert.Equal(t, "default-model", body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
			assert.Equal(t, "hello", body.Messages[1].Content)
		}
		okResponse(w, "# Issue 1: x")
	})

	p := NewOpenAICompat(Config{BaseURL: srv.URL, Model: "default-model", APIKey: "sk-1"})
	resp, err := Complete(context.Background(), p, "be brief", "hello")
	require.NoError(t, err)
	assert.Equal(t, "# Issue 1: x", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 5, resp.TotalTokens)
}

func TestChat_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, _ chatCompletionRequest) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	p := NewOpenAICompat(Config{BaseURL: srv.URL})
	_, err := Complete(context.Background(), p, "", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM API error 503")
	assert.Equal(t, int32(1), calls.Load())
}

func TestChat_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, _ chatCompletionRequest) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		okResponse(w, "done")
	})

	p := &openAICompatProvider{base: newOpenAICompatClient(Config{BaseURL: srv.URL, MaxRetries: 2})}
	p.base.retryDelay = time.Millisecond
	p.base.rateDelay = time.Millisecond

	resp, err := Complete(context.Background(), p, "", "hi")
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChat_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, _ chatCompletionRequest) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	p := NewOpenAICompat(Config{BaseURL: srv.URL, MaxRetries: 3})
	_, err := Complete(context.Background(), p, "", "hi")
	assert.ErrorContains(t, err, "LLM API error 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestChat_NoChoices(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, _ chatCompletionRequest) {
		fmt.Fprint(w, `{"choices":[]}`)
	})
	_, err := Complete(context.Background(), NewOpenAICompat(Config{BaseURL: srv.URL}), "", "hi")
	assert.EqualError(t, err, "no choices in response")
}

func TestChat_EmptyMessages(t *testing.T) {
	_, err := NewOpenAICompat(Config{BaseURL: "http://unused"}).Chat(context.Background(), ChatRequest{})
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	s := &Static{Content: "ok"}
	resp, err := Complete(context.Background(), s, "sys", "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	require.Len(t, s.Requests(), 1)
	assert.Len(t, s.Requests()[0].Messages, 2)

	boom := errors.New("boom")
	_, err = (&Static{Err: boom}).Chat(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, boom)
}

func TestGeminiTurns(t *testing.T) {
	sys, history, last, err := geminiTurns([]Message{
		{Role: "system", Content: "rules"},
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
		{Role: "user", Content: "q2"},
	})
	require.NoError(t, err)
	require.NotNil(t, sys)
	assert.Equal(t, []genai.Part{genai.Text("rules")}, sys.Parts)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, []genai.Part{genai.Text("q2")}, last.Parts)

	_, _, _, err = geminiTurns([]Message{{Role: "system", Content: "only"}})
	assert.Error(t, err)
}

func TestGeminiText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []genai.Part{genai.Text("# Issue 1: "), genai.Text("Title")}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
	text, _, err := geminiText(resp)
	require.NoError(t, err)
	assert.Equal(t, "# Issue 1: Title", text)

	_, _, err = geminiText(&genai.GenerateContentResponse{})
	assert.Error(t, err)
	_, _, err = geminiText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)
}
