package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/dailylesson/lessonmail/pkg/config"
)

// OpenAI talks to any OpenAI-compatible chat completion endpoint
type OpenAI struct {
	client *openai.Client
	config config.LLMConfig
}

// NewOpenAI creates an OpenAI-compatible completer
func NewOpenAI(cfg config.LLMConfig) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	return &OpenAI{client: openai.NewClientWithConfig(clientConfig), config: cfg}
}

// Complete sends the prompt as a chat completion request
func (o *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:       o.config.Model,
		Temperature: float32(o.config.Temperature),
		MaxTokens:   o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if o.config.UseJSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if isOpenAIRateLimit(err) {
			return "", fmt.Errorf("openai request: %w", errors.Join(ErrRateLimited, err))
		}
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from llm")
	}
	return resp.Choices[0].Message.Content, nil
}

func isOpenAIRateLimit(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
