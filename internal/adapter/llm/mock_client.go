package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/sdk/domain"
)

const chunkSize = 10

// MockClient is a deterministic Generator. Equal requests produce equal replies,
// and the streamed fragments concatenate to the non-streamed content.
type MockClient struct{}

// NewMockClient creates a new mock generator.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements Generator interface.
var _ Generator = (*MockClient)(nil)

// CreateChatCompletion returns a mock reply.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *domain.ChatRequest) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, finish := m.generateMockResponse(req)
	return &Completion{
		Content:      content,
		FinishReason: finish,
		Usage:        m.usage(req, content),
	}, nil
}

// CreateChatCompletionStream simulates a streaming reply.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *domain.ChatRequest, callback StreamCallback) (*domain.CompletionUsage, error) {
	content, finish := m.generateMockResponse(req)

	chunks := SplitIntoChunks(content, chunkSize)
	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var fr domain.FinishReason
		if i == len(chunks)-1 {
			fr = finish
		}
		if err := callback(chunk, fr); err != nil {
			return nil, err
		}
	}

	usage := m.usage(req, content)
	return &usage, nil
}

// generateMockResponse builds the reply text and its finish reason.
func (m *MockClient) generateMockResponse(req *domain.ChatRequest) (string, domain.FinishReason) {
	var content string
	finish := domain.FinishReasonStop

	switch {
	case len(req.Tools) > 0:
		content = fmt.Sprintf("[MOCK] I would call tool '%s' to help with this request.", req.Tools[0].Function.Name)
		finish = domain.FinishReasonToolCalls
	default:
		var lastUserMessage string
		for i := len(req.Messages) - 1; i >= 0; i-- {
			if req.Messages[i].Role == domain.RoleUser {
				lastUserMessage = req.Messages[i].Content
				break
			}
		}
		if lastUserMessage == "" {
			content = "[MOCK] This is a mock response."
		} else {
			content = fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUserMessage, 100))
		}
	}

	if req.Seed != nil {
		content += fmt.Sprintf(" (seed %d)", *req.Seed)
	}

	for _, stop := range req.Stop {
		if stop == "" {
			continue
		}
		if idx := strings.Index(content, stop); idx >= 0 {
			content = content[:idx]
		}
	}

	// Roughly four characters per token.
	if req.MaxTokens != nil && *req.MaxTokens >= 0 && len(content) > *req.MaxTokens*4 {
		content = content[:*req.MaxTokens*4]
		finish = domain.FinishReasonLength
	}

	return content, finish
}

func (m *MockClient) usage(req *domain.ChatRequest, content string) domain.CompletionUsage {
	prompt := 0
	for _, msg := range req.Messages {
		prompt += len(msg.Content) / 4
	}
	completion := len(content) / 4
	return domain.CompletionUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// SplitIntoChunks splits a string into chunks of approximately the given size.
// Chunks never split a UTF-8 sequence.
func SplitIntoChunks(s string, size int) []string {
	if len(s) == 0 {
		return []string{""}
	}

	var chunks []string
	for len(s) > 0 {
		end := size
		if end >= len(s) {
			chunks = append(chunks, s)
			break
		}
		for end < len(s) && !utf8RuneStart(s[end]) {
			end++
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
