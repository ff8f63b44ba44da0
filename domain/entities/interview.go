package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InterviewStatus represents the single active status of an interview session.
type InterviewStatus string

const (
	StatusIdle       InterviewStatus = "idle"
	StatusStarting   InterviewStatus = "starting"
	StatusSpeaking   InterviewStatus = "speaking"
	StatusListening  InterviewStatus = "listening"
	StatusRecording  InterviewStatus = "recording"
	StatusProcessing InterviewStatus = "processing"
	StatusFeedback   InterviewStatus = "feedback"
	StatusCompleted  InterviewStatus = "completed"
	StatusFailed     InterviewStatus = "failed"
)

// MaxRounds is the number of question/answer exchanges before an interview
// completes on the next() event.
const MaxRounds = 5

// TurnKind tags a single transcript entry.
type TurnKind string

const (
	TurnQuestion TurnKind = "question"
	TurnAnswer   TurnKind = "answer"
	TurnFeedback TurnKind = "feedback"
)

// Turn is one entry of the append-only transcript log.
type Turn struct {
	Kind  TurnKind  `json:"kind" bson:"kind"`
	Round int       `json:"round" bson:"round"`
	Text  string    `json:"text" bson:"text"`
	At    time.Time `json:"at" bson:"at"`
}

// GeneratedTurn is the dialogue generator's output for one exchange: the next
// interviewer utterance, feedback on the prior answer, and the full updated
// transcript as the generator sees it.
type GeneratedTurn struct {
	Question   string `json:"question"`
	Feedback   string `json:"feedback"`
	Transcript string `json:"transcript"`
}

// Interview is the session entity. All transition methods are pure state
// manipulation: collaborator calls (generation, transcription, synthesis,
// report handoff) are performed by the usecase layer, which feeds results
// back in as events. Turns is append-only for the lifetime of the session;
// Transcript mirrors the generator's authoritative text and may only grow.
type Interview struct {
	ID         string          `json:"id" bson:"_id"`
	UserID     string          `json:"user_id" bson:"user_id"`
	Role       JobRole         `json:"role" bson:"role"`
	Voice      string          `json:"voice" bson:"voice"`
	Status     InterviewStatus `json:"status" bson:"status"`
	Round      int             `json:"round" bson:"round"`
	Turns      []Turn          `json:"turns" bson:"turns"`
	Transcript string          `json:"transcript" bson:"transcript"`
	Pending    *GeneratedTurn  `json:"pending,omitempty" bson:"-"`
	CreatedAt  time.Time       `json:"created_at" bson:"created_at"`
	EndedAt    *time.Time      `json:"ended_at,omitempty" bson:"ended_at,omitempty"`
}

// NewInterview creates an Idle session for a known role. An unknown role is
// rejected without creating any session state.
func NewInterview(userID string, role JobRole, voice string) (*Interview, error) {
	if !role.Valid() {
		return nil, &InvalidRoleError{Slug: string(role)}
	}
	return &Interview{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Voice:     voice,
		Status:    StatusIdle,
		Turns:     make([]Turn, 0),
		CreatedAt: time.Now(),
	}, nil
}

// Terminal reports whether the session accepts no further events.
func (iv *Interview) Terminal() bool {
	return iv.Status == StatusCompleted || iv.Status == StatusFailed
}

func (iv *Interview) guard(event string, from ...InterviewStatus) error {
	if iv.Terminal() {
		return ErrInterviewTerminal
	}
	for _, s := range from {
		if iv.Status == s {
			return nil
		}
	}
	return &InvalidTransitionError{Status: iv.Status, Event: event}
}

// Begin moves a fresh (or start-failed) session into Starting, after which
// the opening question must be generated.
func (iv *Interview) Begin() error {
	if err := iv.guard("start", StatusIdle); err != nil {
		return err
	}
	if iv.Pending != nil {
		// A pending utterance means this Idle was reached via a synthesis
		// failure; that path resumes through RetrySpeak, not start.
		return &InvalidTransitionError{Status: iv.Status, Event: "start"}
	}
	iv.Status = StatusStarting
	return nil
}

// StartFailed returns a session to Idle after a transient failure generating
// the opening question, so start can be retried.
func (iv *Interview) StartFailed() error {
	if err := iv.guard("start_failed", StatusStarting); err != nil {
		return err
	}
	iv.Status = StatusIdle
	return nil
}

// QuestionReady records the generated opening turn and moves to Speaking.
// The question is appended to the transcript log at speak time.
func (iv *Interview) QuestionReady(turn GeneratedTurn) error {
	if err := iv.guard("question_ready", StatusStarting); err != nil {
		return err
	}
	if err := iv.acceptTranscript(turn.Transcript); err != nil {
		return err
	}
	iv.Pending = &turn
	iv.appendTurn(TurnQuestion, turn.Question)
	iv.Status = StatusSpeaking
	return nil
}

// SpeechDelivered marks the end of question playback; the candidate may now
// record an answer.
func (iv *Interview) SpeechDelivered() error {
	if err := iv.guard("speech_delivered", StatusSpeaking); err != nil {
		return err
	}
	iv.Status = StatusListening
	return nil
}

// SpeechFailed returns the session to Idle after a synthesis failure. The
// pending turn is retained so the utterance can be retried via RetrySpeak.
func (iv *Interview) SpeechFailed() error {
	if err := iv.guard("speech_failed", StatusSpeaking); err != nil {
		return err
	}
	iv.Status = StatusIdle
	return nil
}

// RetrySpeak re-attempts synthesis of the retained pending utterance after a
// SpeechFailed recovery.
func (iv *Interview) RetrySpeak() error {
	if err := iv.guard("retry_speak", StatusIdle); err != nil {
		return err
	}
	if iv.Pending == nil {
		return &InvalidTransitionError{Status: iv.Status, Event: "retry_speak"}
	}
	iv.Status = StatusSpeaking
	return nil
}

// StartRecording begins capture of one candidate utterance.
func (iv *Interview) StartRecording() error {
	if err := iv.guard("record", StatusListening); err != nil {
		return err
	}
	iv.Status = StatusRecording
	return nil
}

// StopRecording finalizes the utterance and enters Processing, during which
// transcription and generation run.
func (iv *Interview) StopRecording() error {
	if err := iv.guard("stop", StatusRecording); err != nil {
		return err
	}
	iv.Status = StatusProcessing
	return nil
}

// AnswerProcessed appends the transcribed answer plus feedback, stages the
// next question, and enters Feedback. A shrinking generator transcript leaves
// the session in Processing and reports ErrTranscriptRegression so the round
// can be retried.
func (iv *Interview) AnswerProcessed(answer string, turn GeneratedTurn) error {
	if err := iv.guard("answer_processed", StatusProcessing); err != nil {
		return err
	}
	if err := iv.acceptTranscript(turn.Transcript); err != nil {
		return err
	}
	iv.appendTurn(TurnAnswer, answer)
	iv.appendTurn(TurnFeedback, turn.Feedback)
	iv.Pending = &turn
	iv.Status = StatusFeedback
	return nil
}

// ProcessingFailed returns to Listening after a transcription or generation
// fault so the candidate can re-record the same answer. Partial audio is the
// caller's to discard.
func (iv *Interview) ProcessingFailed() error {
	if err := iv.guard("processing_failed", StatusProcessing); err != nil {
		return err
	}
	iv.Status = StatusListening
	return nil
}

// Next advances past Feedback. The round counter increments exactly once per
// call; when it reaches MaxRounds the session completes, otherwise the staged
// question is appended and spoken. Returns true when the session completed.
func (iv *Interview) Next() (bool, error) {
	if err := iv.guard("next", StatusFeedback); err != nil {
		return false, err
	}
	iv.Round++
	if iv.Round >= MaxRounds {
		iv.complete()
		return true, nil
	}
	if iv.Pending != nil {
		iv.appendTurn(TurnQuestion, iv.Pending.Question)
	}
	iv.Status = StatusSpeaking
	return false, nil
}

// End terminates the session from any non-terminal state, freezing the
// transcript at its current value. The accumulated transcript is then handed
// to report generation by the caller.
func (iv *Interview) End() error {
	if iv.Terminal() {
		return ErrInterviewTerminal
	}
	iv.complete()
	return nil
}

// Fail marks the session permanently failed. Reserved for unrecoverable setup
// errors; transient collaborator faults resolve into recovery transitions.
func (iv *Interview) Fail() error {
	if iv.Terminal() {
		return ErrInterviewTerminal
	}
	iv.Status = StatusFailed
	now := time.Now()
	iv.EndedAt = &now
	return nil
}

func (iv *Interview) complete() {
	iv.Status = StatusCompleted
	now := time.Now()
	iv.EndedAt = &now
}

// FinalTranscript returns the generator's authoritative transcript, falling
// back to the rendered turn log when no generation ever completed.
func (iv *Interview) FinalTranscript() string {
	if iv.Transcript != "" {
		return iv.Transcript
	}
	return iv.RenderTranscript()
}

// RenderTranscript renders the turn log deterministically; rendering the same
// state twice yields identical output.
func (iv *Interview) RenderTranscript() string {
	var b strings.Builder
	for i, t := range iv.Turns {
		if i > 0 {
			b.WriteString("\n")
		}
		switch t.Kind {
		case TurnQuestion:
			b.WriteString("Q")
		case TurnAnswer:
			b.WriteString("A")
		case TurnFeedback:
			b.WriteString("F")
		}
		fmt.Fprintf(&b, "%d: %s", t.Round, t.Text)
	}
	return b.String()
}

func (iv *Interview) appendTurn(kind TurnKind, text string) {
	iv.Turns = append(iv.Turns, Turn{
		Kind:  kind,
		Round: iv.Round + 1,
		Text:  text,
		At:    time.Now(),
	})
}

// acceptTranscript adopts the generator's transcript after checking it did
// not shrink relative to what the session already holds.
func (iv *Interview) acceptTranscript(next string) error {
	if len(next) < len(iv.Transcript) {
		return ErrTranscriptRegression
	}
	iv.Transcript = next
	return nil
}
