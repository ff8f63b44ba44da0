package entities

import (
	"errors"
	"fmt"
)

// FaultKind classifies collaborator failures so the orchestrator can resolve
// each one into the correct recovery transition.
type FaultKind string

const (
	FaultDeviceAccess         FaultKind = "device_access"
	FaultTranscription        FaultKind = "transcription"
	FaultGeneration           FaultKind = "generation"
	FaultSynthesis            FaultKind = "synthesis"
	FaultTranscriptRegression FaultKind = "transcript_regression"
)

// Fault wraps a collaborator error with its classification. All external-call
// failures are converted to a Fault at the orchestrator boundary; nothing else
// crosses into transport code.
type Fault struct {
	Kind FaultKind
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// NewFault builds a Fault of the given kind.
func NewFault(kind FaultKind, err error) *Fault {
	return &Fault{Kind: kind, Err: err}
}

// FaultKindOf extracts the kind from err, or "" when err carries no Fault.
func FaultKindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

var (
	// ErrInterviewTerminal is returned for any event applied to a session
	// that already reached Completed or Failed.
	ErrInterviewTerminal = errors.New("interview is terminal")

	// ErrTranscriptRegression signals that the generator returned a transcript
	// shorter than the one it was given.
	ErrTranscriptRegression = errors.New("generated transcript shorter than prior transcript")
)

// InvalidTransitionError reports an event that is not accepted in the
// session's current status.
type InvalidTransitionError struct {
	Status InterviewStatus
	Event  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("event %q not allowed in status %q", e.Event, e.Status)
}
