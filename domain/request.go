package domain

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	UserID          string          `json:"user_id"`
	AgentID         string          `json:"agent_id"`
	Situation       string          `json:"situation,omitempty"`
	Metadata        map[string]any  `json:"metadata"`
	RenderTemplates bool            `json:"render_templates,omitempty"`
	TokenBudget     *int            `json:"token_budget,omitempty"`
	ContextOverflow ContextOverflow `json:"context_overflow,omitempty"`
}

// ReplaceSessionRequest is the body of PUT /sessions/{id}. Every field replaces
// the stored value, including empty ones.
type ReplaceSessionRequest struct {
	Situation       string          `json:"situation"`
	Metadata        map[string]any  `json:"metadata"`
	TokenBudget     *int            `json:"token_budget"`
	ContextOverflow ContextOverflow `json:"context_overflow,omitempty"`
}

// PatchSessionRequest is the body of PATCH /sessions/{id}. Only set fields are
// sent; metadata keys are merged into the stored metadata.
type PatchSessionRequest struct {
	Situation       *string          `json:"situation,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
	TokenBudget     *int             `json:"token_budget,omitempty"`
	ContextOverflow *ContextOverflow `json:"context_overflow,omitempty"`
}

// ListSessionsParams are the query parameters of GET /sessions.
type ListSessionsParams struct {
	Limit          *int
	Offset         *int
	MetadataFilter map[string]any
}

// PageParams are the pagination parameters of the history and suggestions endpoints.
type PageParams struct {
	Limit  *int
	Offset *int
}

// ListResponse is the envelope of every list endpoint.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// Tool describes a function the model may call during chat.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction represents a function definition.
type ToolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// ResponseFormat constrains the shape of the model output.
type ResponseFormat struct {
	Type string `json:"type"` // text or json_object
}

// ChatRequest is the body of POST /sessions/{id}/chat.
type ChatRequest struct {
	Messages          []ChatMLMessage    `json:"messages"`
	Tools             []Tool             `json:"tools,omitempty"`
	ToolChoice        any                `json:"tool_choice,omitempty"`
	FrequencyPenalty  *float64           `json:"frequency_penalty,omitempty"`
	LengthPenalty     *float64           `json:"length_penalty,omitempty"`
	LogitBias         map[string]float64 `json:"logit_bias,omitempty"`
	MaxTokens         *int               `json:"max_tokens,omitempty"`
	PresencePenalty   *float64           `json:"presence_penalty,omitempty"`
	RepetitionPenalty *float64           `json:"repetition_penalty,omitempty"`
	ResponseFormat    *ResponseFormat    `json:"response_format,omitempty"`
	Seed              *int               `json:"seed,omitempty"`
	Stop              []string           `json:"stop,omitempty"`
	Stream            bool               `json:"stream,omitempty"`
	Temperature       *float64           `json:"temperature,omitempty"`
	TopP              *float64           `json:"top_p,omitempty"`
	Recall            *bool              `json:"recall,omitempty"`
	Remember          *bool              `json:"remember,omitempty"`
}

// ErrorResponse is the error body returned by the service.
type ErrorResponse struct {
	Error *APIErrorBody `json:"error"`
}

// APIErrorBody represents the error details.
type APIErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}
