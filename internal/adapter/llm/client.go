package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/xiaot623/gogo/sdk/domain"
)

// Client generates replies with an OpenAI-compatible chat completions endpoint
// (OpenAI itself, LiteLLM, vLLM, ...).
type Client struct {
	client openai.Client
	model  string
}

var _ Generator = (*Client)(nil)

// NewClient creates a client for the endpoint at baseURL, e.g. http://localhost:4000/v1.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// CreateChatCompletion sends a chat completion request (non-streaming).
func (c *Client) CreateChatCompletion(ctx context.Context, req *domain.ChatRequest) (*Completion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(req))
	if err != nil {
		return nil, fmt.Errorf("LLM API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM API error: response has no choices")
	}

	choice := resp.Choices[0]
	return &Completion{
		Content:      choice.Message.Content,
		FinishReason: domain.FinishReason(choice.FinishReason),
		Usage:        toUsage(resp.Usage),
	}, nil
}

// CreateChatCompletionStream sends a streaming chat completion request.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req *domain.ChatRequest, callback StreamCallback) (*domain.CompletionUsage, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(req))
	defer stream.Close()

	var usage domain.CompletionUsage
	for stream.Next() {
		chunk := stream.Current()
		if chunk.Usage.TotalTokens > 0 {
			usage = toUsage(chunk.Usage)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		finish := domain.FinishReason(choice.FinishReason)
		if choice.Delta.Content == "" && finish == "" {
			continue
		}
		if err := callback(choice.Delta.Content, finish); err != nil {
			return nil, err
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	return &usage, nil
}

func (c *Client) params(req *domain.ChatRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: toMessages(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}
	if req.Seed != nil {
		params.Seed = openai.Int(int64(*req.Seed))
	}
	if req.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(*req.FrequencyPenalty)
	}
	if req.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(*req.PresencePenalty)
	}
	return params
}

// toMessages maps ChatML roles onto the three chat completion roles. Function
// roles have no tool call id to refer to, so they are sent as user turns.
func toMessages(messages []domain.ChatMLMessage) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			params = append(params, openai.SystemMessage(msg.Content))
		case domain.RoleAssistant:
			params = append(params, openai.AssistantMessage(msg.Content))
		default:
			params = append(params, openai.UserMessage(msg.Content))
		}
	}
	return params
}

func toUsage(u openai.CompletionUsage) domain.CompletionUsage {
	return domain.CompletionUsage{
		PromptTokens:     int(u.PromptTokens),
		CompletionTokens: int(u.CompletionTokens),
		TotalTokens:      int(u.TotalTokens),
	}
}
