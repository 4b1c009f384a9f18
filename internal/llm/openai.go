package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.1
	defaultMaxTokens   = 1000
	defaultTimeout     = 30 * time.Second
)

const scoreSystemPrompt = "You are an expert expense matching system. " +
	"You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, " +
	"markdown formatting, or commentary before or after the JSON. " +
	"Start your response directly with { and end with }."

const analysisSystemPrompt = "You are an expert financial reconciliation analyst. " +
	"Assess expense matches across multiple systems and respond with ONLY a valid JSON object, " +
	"starting directly with { and ending with }."

// chatClient implements the Client interface against any
// chat-completions endpoint (OpenAI or an Azure deployment).
type chatClient struct {
	httpClient  *http.Client
	endpoint    string
	authHeader  string
	authValue   string
	model       string
	temperature float64
	maxTokens   int
}

// newOpenAIClient creates a client for the OpenAI API or a compatible
// endpoint.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return newChatClient(cfg, baseURL+"/chat/completions", "Authorization", "Bearer "+cfg.APIKey), nil
}

// newAzureOpenAIClient creates a client for an Azure OpenAI deployment.
// Azure routes by deployment name and authenticates with an api-key
// header instead of a bearer token.
func newAzureOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for the azure provider")
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimSuffix(cfg.BaseURL, "/"), cfg.Model, cfg.APIVersion)

	return newChatClient(cfg, endpoint, "api-key", cfg.APIKey), nil
}

func newChatClient(cfg Config, endpoint, authHeader, authValue string) *chatClient {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &chatClient{
		endpoint:    endpoint,
		authHeader:  authHeader,
		authValue:   authValue,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// ScoreCandidate sends a candidate scoring request to the model.
func (c *chatClient) ScoreCandidate(ctx context.Context, prompt string) (ScoreResponse, error) {
	content, err := c.complete(ctx, scoreSystemPrompt, prompt)
	if err != nil {
		return ScoreResponse{}, err
	}
	return parseScoreResponse(content)
}

// AnalyzeReconciliation sends an overall analysis request to the model.
func (c *chatClient) AnalyzeReconciliation(ctx context.Context, prompt string) (AnalysisResponse, error) {
	content, err := c.complete(ctx, analysisSystemPrompt, prompt)
	if err != nil {
		return AnalysisResponse{}, err
	}
	return parseAnalysisResponse(content)
}

// complete performs one chat-completion round trip and returns the raw
// assistant message.
func (c *chatClient) complete(ctx context.Context, system, user string) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.authHeader, c.authValue)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return response.Choices[0].Message.Content, nil
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
