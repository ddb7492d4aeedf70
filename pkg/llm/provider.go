// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package llm provides a unified interface for Large Language Model
// providers. Supports multiple backends: Ollama, OpenAI-compatible APIs,
// Anthropic, and a mock for tests.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Provider defines the interface for LLM text generation.
type Provider interface {
	// Generate produces a completion for the given request.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider identifier.
	Name() string

	// Models returns available models for this provider.
	Models(ctx context.Context) ([]string, error)
}

// GenerateRequest represents a generation request. System carries the
// instruction prompt separately from the user content so providers can map
// it to their native system-message slot.
type GenerateRequest struct {
	System      string   `json:"system,omitempty"`
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`

	// JSONMode asks the provider to constrain output to a JSON object where
	// the backend supports it.
	JSONMode bool `json:"json_mode,omitempty"`
}

// GenerateResponse contains the LLM response.
type GenerateResponse struct {
	Text         string        `json:"text"`
	Model        string        `json:"model"`
	PromptTokens int           `json:"prompt_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	TotalTokens  int           `json:"total_tokens,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Done         bool          `json:"done"`
}

// ProviderConfig holds configuration for creating providers.
type ProviderConfig struct {
	// Provider type: "ollama", "openai", "anthropic", "mock"
	Type string `json:"type"`

	// BaseURL for the API endpoint
	BaseURL string `json:"base_url,omitempty"`

	// APIKey for authenticated providers (OpenAI, Anthropic)
	APIKey string `json:"api_key,omitempty"`

	// DefaultModel to use if not specified in requests
	DefaultModel string `json:"default_model,omitempty"`

	// Timeout for API requests
	Timeout time.Duration `json:"timeout,omitempty"`
}

// NewProvider creates a Provider based on configuration.
// Supported types: "ollama", "openai", "anthropic", "mock"
//
// Environment variables:
//   - OLLAMA_HOST: Ollama server URL (default: http://localhost:11434)
//   - OLLAMA_MODEL: Default Ollama model
//   - OPENAI_API_KEY: OpenAI API key
//   - OPENAI_BASE_URL: OpenAI-compatible API URL
//   - OPENAI_MODEL: Default OpenAI model
//   - ANTHROPIC_API_KEY: Anthropic API key
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	switch strings.ToLower(cfg.Type) {
	case "ollama", "local", "":
		return newOllamaProvider(cfg)
	case "openai", "openai-compatible":
		return newOpenAIProvider(cfg)
	case "anthropic", "claude":
		return newAnthropicProvider(cfg)
	case "mock", "test":
		return &MockProvider{model: cfg.DefaultModel}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s (supported: ollama, openai, anthropic, mock)", cfg.Type)
	}
}

// =============================================================================
// OLLAMA PROVIDER
// =============================================================================

type ollamaProvider struct {
	baseURL      string
	defaultModel string
	client       *http.Client
}

func newOllamaProvider(cfg ProviderConfig) (*ollamaProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	model := cfg.DefaultModel
	if model == "" {
		model = os.Getenv("OLLAMA_MODEL")
	}

	return &ollamaProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		defaultModel: model,
		client:       &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *ollamaProvider) Name() string { return "ollama" }

func (p *ollamaProvider) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama list models: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	models := make([]string, len(result.Models))
	for i, m := range result.Models {
		models[i] = m.Name
	}
	return models, nil
}

func (p *ollamaProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return nil, fmt.Errorf("ollama: model not specified (set OLLAMA_MODEL or pass in request)")
	}

	payload := map[string]any{
		"model":  model,
		"prompt": req.Prompt,
		"stream": false,
	}
	if req.System != "" {
		payload["system"] = req.System
	}
	if req.JSONMode {
		payload["format"] = "json"
	}
	options := map[string]any{}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		options["top_p"] = req.TopP
	}
	if len(options) > 0 {
		payload["options"] = options
	}

	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/api/generate", strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama generate error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Response        string `json:"response"`
		Model           string `json:"model"`
		Done            bool   `json:"done"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &GenerateResponse{
		Text:         result.Response,
		Model:        result.Model,
		PromptTokens: result.PromptEvalCount,
		OutputTokens: result.EvalCount,
		TotalTokens:  result.PromptEvalCount + result.EvalCount,
		Duration:     time.Since(start),
		Done:         result.Done,
	}, nil
}

// =============================================================================
// OPENAI-COMPATIBLE PROVIDER
// =============================================================================

type openaiProvider struct {
	baseURL      string
	apiKey       string
	defaultModel string
	client       *http.Client
}

func newOpenAIProvider(cfg ProviderConfig) (*openaiProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	model := cfg.DefaultModel
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &openaiProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		defaultModel: model,
		client:       &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai list models: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	models := make([]string, len(result.Data))
	for i, m := range result.Data {
		models[i] = m.ID
	}
	return models, nil
}

func (p *openaiProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := make([]map[string]string, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	payload := map[string]any{
		"model":    model,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		payload["top_p"] = req.TopP
	}
	if len(req.Stop) > 0 {
		payload["stop"] = req.Stop
	}
	if req.JSONMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai chat error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Model string `json:"model"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return &GenerateResponse{
		Text:         result.Choices[0].Message.Content,
		Model:        result.Model,
		PromptTokens: result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		TotalTokens:  result.Usage.TotalTokens,
		Duration:     time.Since(start),
		Done:         result.Choices[0].FinishReason == "stop",
	}, nil
}

// =============================================================================
// ANTHROPIC PROVIDER
// =============================================================================

type anthropicProvider struct {
	baseURL      string
	apiKey       string
	defaultModel string
	client       *http.Client
}

func newAnthropicProvider(cfg ProviderConfig) (*anthropicProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	model := cfg.DefaultModel
	if model == "" {
		model = os.Getenv("ANTHROPIC_MODEL")
	}
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}

	return &anthropicProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		defaultModel: model,
		client:       &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Models(ctx context.Context) ([]string, error) {
	// Anthropic doesn't have a models endpoint, return known models
	return []string{
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
		"claude-3-opus-20240229",
	}, nil
}

func (p *anthropicProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	payload := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
		"max_tokens": maxTokens,
	}
	if req.System != "" {
		payload["system"] = req.System
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		payload["top_p"] = req.TopP
	}
	if len(req.Stop) > 0 {
		payload["stop_sequences"] = req.Stop
	}

	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/messages", strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic generate error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Model      string `json:"model"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	var content string
	for _, c := range result.Content {
		if c.Type == "text" {
			content += c.Text
		}
	}

	return &GenerateResponse{
		Text:         content,
		Model:        result.Model,
		PromptTokens: result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
		TotalTokens:  result.Usage.InputTokens + result.Usage.OutputTokens,
		Duration:     time.Since(start),
		Done:         result.StopReason == "end_turn",
	}, nil
}

// =============================================================================
// MOCK PROVIDER (for testing)
// =============================================================================

// MockProvider is a test provider that returns predictable responses.
type MockProvider struct {
	model        string
	GenerateFunc func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Models(ctx context.Context) ([]string, error) {
	return []string{"mock-model"}, nil
}

func (p *MockProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if p.GenerateFunc != nil {
		return p.GenerateFunc(ctx, req)
	}
	return &GenerateResponse{
		Text:         fmt.Sprintf("[mock] Generated response for: %.50s...", req.Prompt),
		Model:        "mock-model",
		PromptTokens: len(req.Prompt) / 4,
		OutputTokens: 20,
		TotalTokens:  len(req.Prompt)/4 + 20,
		Duration:     10 * time.Millisecond,
		Done:         true,
	}, nil
}
