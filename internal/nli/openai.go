package nli

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/epistemia/internal/model"
	"github.com/ppiankov/epistemia/internal/util"
	"github.com/ppiankov/epistemia/internal/worker"
)

// DefaultOllamaURL is the OpenAI-compatible endpoint of a local Ollama server
const DefaultOllamaURL = "http://localhost:11434/v1"

const systemPrompt = `You are a natural language inference classifier.
Given a PREMISE and a HYPOTHESIS, estimate independently:
- entailment: probability the premise entails the hypothesis
- contradiction: probability the premise contradicts the hypothesis
- neutral: probability the premise neither entails nor contradicts it
Respond with a single JSON object: {"entailment": <0-1>, "contradiction": <0-1>, "neutral": <0-1>}.
Judge only from the premise. Do not use outside knowledge.`

// OpenAIEngine classifies pairs with an OpenAI-compatible chat completion endpoint
type OpenAIEngine struct {
	client   *openai.Client
	config   model.NLIConfig
	endpoint string
	limiter  *worker.Limiter
	seed     *int
}

// NewOpenAIEngine creates a new OpenAI-backed engine
func NewOpenAIEngine(cfg model.NLIConfig, seed *int) (*OpenAIEngine, error) {
	if cfg.APIKey == "" {
		return nil, eris.New("nli: OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		},
	}

	return &OpenAIEngine{
		client:   openai.NewClientWithConfig(clientConfig),
		config:   cfg,
		endpoint: clientConfig.BaseURL,
		limiter:  worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		seed:     seed,
	}, nil
}

// Model returns the model name requests are sent to
func (e *OpenAIEngine) Model() string {
	return e.config.Model
}

// Classify implements Engine
func (e *OpenAIEngine) Classify(ctx context.Context, premise, hypothesis string) (model.NLIResult, error) {
	if err := e.limiter.Wait(ctx, e.endpoint); err != nil {
		return model.NLIResult{}, eris.Wrap(err, "nli: rate limit")
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, time.Duration(e.config.Timeout)*time.Second)
	defer cancel()

	// A zero temperature is dropped by omitempty, so the smallest positive
	// float stands in for greedy decoding
	req := openai.ChatCompletionRequest{
		Model: e.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "PREMISE: " + premise + "\nHYPOTHESIS: " + hypothesis},
		},
		MaxTokens:   100,
		Temperature: math.SmallestNonzeroFloat32,
		Seed:        e.seed,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := e.client.CreateChatCompletion(ctxWithTimeout, req)
	if err != nil {
		return model.NLIResult{}, eris.Wrap(err, "nli: chat completion")
	}
	if len(resp.Choices) == 0 {
		return model.NLIResult{}, eris.New("nli: empty response")
	}

	return parseResult(resp.Choices[0].Message.Content)
}

// parseResult decodes the probability triple, tolerating markdown fences
func parseResult(content string) (model.NLIResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var result model.NLIResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return model.NLIResult{}, eris.Wrapf(err, "nli: decode response %q", content)
	}

	result.Entailment = clamp(result.Entailment)
	result.Contradiction = clamp(result.Contradiction)
	result.Neutral = clamp(result.Neutral)
	return result, nil
}

func clamp(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
