package domain

// SSE markers used by the chat stream.
const (
	SSEDone       = "[DONE]"
	SSEEventError = "error"
)

// StreamErrorData is the payload of an SSE error event or a WebSocket error frame.
type StreamErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Frame types of the WebSocket chat stream.
const (
	FrameTypeChunk = "chunk"
	FrameTypeDone  = "done"
	FrameTypeError = "error"
)

// StreamFrame is one message of the WebSocket chat stream.
type StreamFrame struct {
	Type    string     `json:"type"`
	Chunk   *ChatChunk `json:"chunk,omitempty"`
	Code    string     `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
}
