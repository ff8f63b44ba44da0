package websocket

import (
	"encoding/json"
	"time"

	"github.com/remasto/remasto/server/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client-to-server control messages
const (
	MessageTypeStart        MessageType = "start"
	MessageTypePlaybackDone MessageType = "playback_done"
	MessageTypeRecordStart  MessageType = "record_start"
	MessageTypeRecordStop   MessageType = "record_stop"
	MessageTypeNext         MessageType = "next"
	MessageTypeEnd          MessageType = "end"
)

// Server-to-client messages
const (
	MessageTypeQuestion      MessageType = "question"
	MessageTypeSpeakingStart MessageType = "speaking_start"
	MessageTypeSpeakingEnd   MessageType = "speaking_end"
	MessageTypeListening     MessageType = "listening"
	MessageTypeRecording     MessageType = "recording"
	MessageTypeProcessing    MessageType = "processing"
	MessageTypeFeedback      MessageType = "feedback"
	MessageTypeReport        MessageType = "report"
	MessageTypeError         MessageType = "error"
)

// ControlMessage is the envelope for all client-to-server text frames.
// Binary frames carry raw answer audio and are only accepted while the
// session is recording.
type ControlMessage struct {
	Type MessageType `json:"type"`

	// Start fields
	Role  string `json:"role,omitempty"`
	Voice string `json:"voice,omitempty"`

	// RecordStart field
	MimeType string `json:"mime_type,omitempty"`
}

// BaseMessage defines the common structure for server-to-client frames.
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
}

// QuestionMessage announces the interviewer's next utterance. The audio
// follows as binary frames bracketed by speaking_start and speaking_end.
type QuestionMessage struct {
	BaseMessage
	InterviewID string `json:"interview_id"`
	Round       int    `json:"round"`
	Text        string `json:"text"`
}

// SpeakingMessage brackets the binary audio frames of one utterance.
type SpeakingMessage struct {
	BaseMessage
	Round      int `json:"round"`
	AudioBytes int `json:"audio_bytes,omitempty"`
}

// StatusMessage acknowledges a state change with no payload of its own
// (listening, recording, processing).
type StatusMessage struct {
	BaseMessage
	InterviewID string `json:"interview_id"`
}

// FeedbackMessage carries the transcribed answer and the interviewer's
// feedback for one round.
type FeedbackMessage struct {
	BaseMessage
	InterviewID string `json:"interview_id"`
	Round       int    `json:"round"`
	Answer      string `json:"answer"`
	Feedback    string `json:"feedback"`
}

// ReportMessage delivers the performance report when the interview ends.
type ReportMessage struct {
	BaseMessage
	InterviewID string                      `json:"interview_id"`
	Report      *entities.PerformanceReport `json:"report"`
}

// ErrorMessage reports a fault to the client. Code is the fault kind when
// the failure came from a collaborator, or a protocol error code.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{Type: t, Timestamp: time.Now().Unix()}
}

// mustMarshal serializes a server message. The message structs contain
// nothing that can fail to marshal.
func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"type":"error","code":"internal","message":"marshal failure"}`)
	}
	return data
}
