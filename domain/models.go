package domain

import (
	"strings"
	"time"
)

// Session represents a conversational context between a user and an agent.
type Session struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id,omitempty"`
	AgentID         string          `json:"agent_id"`
	Situation       string          `json:"situation,omitempty"`
	Summary         string          `json:"summary,omitempty"`
	Metadata        map[string]any  `json:"metadata"`
	RenderTemplates bool            `json:"render_templates,omitempty"`
	TokenBudget     *int            `json:"token_budget,omitempty"`
	ContextOverflow ContextOverflow `json:"context_overflow,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at,omitzero"`
}

// ChatMLMessage is a single message of a session's history.
type ChatMLMessage struct {
	ID        string     `json:"id,omitempty"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Name      string     `json:"name,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitzero"`
}

// ToolCall represents a tool call made by the assistant.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction represents the function in a tool call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Suggestion is a piece of advice the service derived from a session.
type Suggestion struct {
	SessionID string           `json:"session_id"`
	Target    SuggestionTarget `json:"target"`
	Content   string           `json:"content"`
	MessageID string           `json:"message_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ChatResponse is the complete result of a non-streaming chat call.
type ChatResponse struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	FinishReason FinishReason      `json:"finish_reason"`
	Response     [][]ChatMLMessage `json:"response"`
	Usage        *CompletionUsage  `json:"usage,omitempty"`
	Jobs         []string          `json:"jobs,omitempty"`
	DocIDs       *DocIDs           `json:"doc_ids,omitempty"`
}

// Content returns the concatenated content of the first choice.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Response) == 0 {
		return ""
	}
	var b strings.Builder
	for _, msg := range r.Response[0] {
		b.WriteString(msg.Content)
	}
	return b.String()
}

// CompletionUsage represents token usage information.
type CompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// DocIDs lists the documents recalled while answering.
type DocIDs struct {
	AgentDocs []string `json:"agent_doc_ids"`
	UserDocs  []string `json:"user_doc_ids"`
}

// ChatChunk is one incremental fragment of a streaming chat response.
type ChatChunk struct {
	ID           string        `json:"id"`
	Index        int           `json:"index"`
	Delta        ChatMLMessage `json:"delta"`
	FinishReason FinishReason  `json:"finish_reason,omitempty"`
}

// ResourceCreatedResponse is returned by the service after creating a resource.
type ResourceCreatedResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Jobs      []string  `json:"jobs,omitempty"`
}

// ResourceUpdatedResponse is returned by the service after updating a resource.
type ResourceUpdatedResponse struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Jobs      []string  `json:"jobs,omitempty"`
}

// ResourceDeletedResponse is returned by the service after deleting a resource.
type ResourceDeletedResponse struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
	Jobs      []string  `json:"jobs,omitempty"`
}
