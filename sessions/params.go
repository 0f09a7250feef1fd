package sessions

import "github.com/xiaot623/gogo/sdk/domain"

// CreateParams are the arguments of Create. UserID and AgentID are required.
type CreateParams struct {
	UserID          string
	AgentID         string
	Situation       string
	Metadata        map[string]any
	RenderTemplates bool
	TokenBudget     *int
	ContextOverflow domain.ContextOverflow
}

// ListParams are the arguments of List. Unset fields are not sent.
type ListParams struct {
	Limit          *int
	Offset         *int
	MetadataFilter map[string]any
}

// UpdateParams are the arguments of Update. With Overwrite the situation and
// metadata replace the stored values; otherwise set fields are merged in.
type UpdateParams struct {
	Situation       *string
	Metadata        map[string]any
	Overwrite       bool
	TokenBudget     *int
	ContextOverflow *domain.ContextOverflow
}

// PageParams paginate History and Suggestions.
type PageParams struct {
	Limit  *int
	Offset *int
}

// ChatParams are the arguments of Chat. Tuning values are sent as given.
type ChatParams struct {
	Messages          []domain.ChatMLMessage
	Tools             []domain.Tool
	ToolChoice        any
	FrequencyPenalty  *float64
	LengthPenalty     *float64
	LogitBias         map[string]float64
	MaxTokens         *int
	PresencePenalty   *float64
	RepetitionPenalty *float64
	ResponseFormat    *domain.ResponseFormat
	Seed              *int
	Stop              []string
	Stream            bool
	Temperature       *float64
	TopP              *float64
	Recall            *bool
	Remember          *bool
}

func (p ChatParams) request() *domain.ChatRequest {
	return &domain.ChatRequest{
		Messages:          p.Messages,
		Tools:             p.Tools,
		ToolChoice:        p.ToolChoice,
		FrequencyPenalty:  p.FrequencyPenalty,
		LengthPenalty:     p.LengthPenalty,
		LogitBias:         p.LogitBias,
		MaxTokens:         p.MaxTokens,
		PresencePenalty:   p.PresencePenalty,
		RepetitionPenalty: p.RepetitionPenalty,
		ResponseFormat:    p.ResponseFormat,
		Seed:              p.Seed,
		Stop:              p.Stop,
		Stream:            p.Stream,
		Temperature:       p.Temperature,
		TopP:              p.TopP,
		Recall:            p.Recall,
		Remember:          p.Remember,
	}
}

// ChatResult holds exactly one of Response (Stream false) or Stream.
type ChatResult struct {
	Response *domain.ChatResponse
	Stream   *ChatStream
}
