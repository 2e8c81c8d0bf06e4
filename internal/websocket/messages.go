package websocket

// FrameType discriminates outbound session frames.
type FrameType string

// Supported frame types. All stream frames of a turn precede its reply frame;
// at most one reply or terminal error per turn.
const (
	FrameTypeStream FrameType = "stream"
	FrameTypeReply  FrameType = "reply"
	FrameTypeError  FrameType = "error"
)

// Error codes carried by error frames.
const (
	ErrorCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrorCodeServerError     = "SERVER_ERROR"
)

// FallbackReply terminates a turn that captured no speech or whose generation
// produced nothing.
const FallbackReply = "No transcription or an error occurred."

// StreamFrame carries one completed sentence of the in-flight reply.
type StreamFrame struct {
	Type FrameType `json:"type"`
	Text string    `json:"text"`
}

// ReplyFrame terminates a turn with the full generated text.
type ReplyFrame struct {
	Type FrameType `json:"type"`
	Text string    `json:"text"`
}

// ErrorFrame reports a turn-level failure without closing the session.
type ErrorFrame struct {
	Type  FrameType  `json:"type"`
	Error FrameError `json:"error"`
}

// FrameError is the machine-readable error payload of an ErrorFrame.
type FrameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewStreamFrame creates a stream frame.
func NewStreamFrame(text string) StreamFrame {
	return StreamFrame{Type: FrameTypeStream, Text: text}
}

// NewReplyFrame creates a terminal reply frame.
func NewReplyFrame(text string) ReplyFrame {
	return ReplyFrame{Type: FrameTypeReply, Text: text}
}

// NewErrorFrame creates an error frame with a machine-readable code.
func NewErrorFrame(code, message string) ErrorFrame {
	return ErrorFrame{
		Type:  FrameTypeError,
		Error: FrameError{Code: code, Message: message},
	}
}
