package aiclient

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/coursesim/simcore/internal/aioracle"
)

// Client is the production aioracle.OracleClient, backed by a single
// go-openai client and a single shared circuit breaker.
type Client struct {
	sdk     *openai.Client
	breaker *circuitBreaker
}

// Option configures a Client beyond the required API key.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL       string
	breakerConfig CircuitBreakerConfig
}

// WithBaseURL points the client at an alternate endpoint — a self-hosted
// gateway, or a test server.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithCircuitBreaker overrides the default breaker thresholds.
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(o *clientOptions) { o.breakerConfig = config }
}

// New constructs a Client from an API key (§6's OPENAI_API_KEY).
func New(apiKey string, opts ...Option) *Client {
	options := clientOptions{breakerConfig: DefaultCircuitBreakerConfig()}
	for _, opt := range opts {
		opt(&options)
	}

	config := openai.DefaultConfig(apiKey)
	if options.baseURL != "" {
		config.BaseURL = options.baseURL
	}

	return &Client{
		sdk:     openai.NewClientWithConfig(config),
		breaker: newCircuitBreaker(options.breakerConfig),
	}
}

// CreateChatCompletion performs one direct, synchronous oracle call (C4),
// constraining the reply to aioracle.ResponseSchema via a JSON-schema
// response format built directly against the struct go-openai exposes,
// rather than round-tripped through a generic map[string]any node config
// the way the teacher's OpenAIResponsesExecutor does it — this client owns
// its schema outright.
func (c *Client) CreateChatCompletion(ctx context.Context, req aioracle.Request) (string, error) {
	schemaJSON, err := json.Marshal(aioracle.ResponseSchema())
	if err != nil {
		return "", fmt.Errorf("marshal response schema: %w", err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   aioracle.ResponseSchemaName,
				Schema: json.RawMessage(schemaJSON),
				Strict: true,
			},
		},
	}

	var resp openai.ChatCompletionResponse
	err = c.breaker.execute(func() error {
		var callErr error
		resp, callErr = c.sdk.CreateChatCompletion(ctx, chatReq)
		return callErr
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
