// Package domain defines the entities exchanged with the remote session service.
package domain

// ContextOverflow controls what the service does when a session exceeds its token budget.
type ContextOverflow string

const (
	ContextOverflowTruncate ContextOverflow = "truncate"
	ContextOverflowAdaptive ContextOverflow = "adaptive"
)

// Role represents the author of a ChatML message.
type Role string

const (
	RoleUser             Role = "user"
	RoleAssistant        Role = "assistant"
	RoleSystem           Role = "system"
	RoleFunction         Role = "function"
	RoleFunctionCall     Role = "function_call"
	RoleFunctionResponse Role = "function_response"
)

// SuggestionTarget represents who a suggestion is addressed to.
type SuggestionTarget string

const (
	SuggestionTargetUser  SuggestionTarget = "user"
	SuggestionTargetAgent SuggestionTarget = "agent"
)

// FinishReason represents why a chat completion stopped.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
)

// Ptr returns a pointer to v. Optional request fields are pointers.
func Ptr[T any](v T) *T {
	return &v
}
