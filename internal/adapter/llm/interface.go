// Package llm produces assistant replies for the stand-in session service.
package llm

import (
	"context"

	"github.com/xiaot623/gogo/sdk/domain"
)

// Completion is a complete generated reply.
type Completion struct {
	Content      string
	FinishReason domain.FinishReason
	Usage        domain.CompletionUsage
}

// StreamCallback receives each fragment of a streamed reply. finish is set on the last fragment.
type StreamCallback func(fragment string, finish domain.FinishReason) error

// Generator defines the interface for reply generation.
type Generator interface {
	// CreateChatCompletion generates a complete reply.
	CreateChatCompletion(ctx context.Context, req *domain.ChatRequest) (*Completion, error)

	// CreateChatCompletionStream generates the same reply as CreateChatCompletion,
	// delivering it fragment by fragment through callback.
	CreateChatCompletionStream(ctx context.Context, req *domain.ChatRequest, callback StreamCallback) (*domain.CompletionUsage, error)
}
