package entities

import (
	"errors"
	"fmt"
	"testing"
)

func newTestInterview(t *testing.T) *Interview {
	t.Helper()
	iv, err := NewInterview("user-1", RoleVerificationEngineer, "Algenib")
	if err != nil {
		t.Fatalf("NewInterview failed: %v", err)
	}
	return iv
}

// runRound drives one full question/answer/feedback exchange. The question
// for round n is expected to already be staged (spoken or pending).
func runRound(t *testing.T, iv *Interview, n int) {
	t.Helper()
	if err := iv.SpeechDelivered(); err != nil {
		t.Fatalf("round %d: SpeechDelivered failed: %v", n, err)
	}
	if err := iv.StartRecording(); err != nil {
		t.Fatalf("round %d: StartRecording failed: %v", n, err)
	}
	if err := iv.StopRecording(); err != nil {
		t.Fatalf("round %d: StopRecording failed: %v", n, err)
	}
	turn := GeneratedTurn{
		Question:   fmt.Sprintf("Question %d", n+1),
		Feedback:   fmt.Sprintf("Feedback %d", n),
		Transcript: iv.Transcript + fmt.Sprintf("\nQ%d A%d F%d", n, n, n),
	}
	if err := iv.AnswerProcessed(fmt.Sprintf("Answer %d", n), turn); err != nil {
		t.Fatalf("round %d: AnswerProcessed failed: %v", n, err)
	}
}

func startInterview(t *testing.T, iv *Interview, firstQuestion string) {
	t.Helper()
	if err := iv.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if iv.Status != StatusStarting {
		t.Fatalf("Expected status %s, got %s", StatusStarting, iv.Status)
	}
	err := iv.QuestionReady(GeneratedTurn{
		Question:   firstQuestion,
		Feedback:   "",
		Transcript: "Q1: " + firstQuestion,
	})
	if err != nil {
		t.Fatalf("QuestionReady failed: %v", err)
	}
}

func TestNewInterviewRejectsUnknownRole(t *testing.T) {
	_, err := NewInterview("user-1", JobRole("Astrologer"), "Algenib")
	if err == nil {
		t.Fatal("Expected error for unknown role")
	}
	var invalid *InvalidRoleError
	if !errors.As(err, &invalid) {
		t.Errorf("Expected InvalidRoleError, got %T", err)
	}
}

func TestNewInterviewAllKnownRoles(t *testing.T) {
	for _, role := range Roles() {
		iv, err := NewInterview("user-1", role, "Algenib")
		if err != nil {
			t.Fatalf("NewInterview(%s) failed: %v", role, err)
		}
		if iv.Status != StatusIdle {
			t.Errorf("Expected initial status %s, got %s", StatusIdle, iv.Status)
		}
		if iv.Round != 0 {
			t.Errorf("Expected round 0, got %d", iv.Round)
		}
		if len(iv.Turns) != 0 {
			t.Errorf("Expected empty turn log, got %d turns", len(iv.Turns))
		}
	}
}

func TestStartAppendsExactlyOneQuestion(t *testing.T) {
	iv := newTestInterview(t)
	startInterview(t, iv, "Explain FSM coverage.")

	if iv.Status != StatusSpeaking {
		t.Errorf("Expected status %s, got %s", StatusSpeaking, iv.Status)
	}
	if len(iv.Turns) != 1 {
		t.Fatalf("Expected 1 turn, got %d", len(iv.Turns))
	}
	if got := iv.RenderTranscript(); got != "Q1: Explain FSM coverage." {
		t.Errorf("Unexpected rendered transcript: %q", got)
	}
}

func TestFiveFullRoundsComplete(t *testing.T) {
	iv := newTestInterview(t)
	startInterview(t, iv, "Question 1")

	for n := 1; n <= MaxRounds; n++ {
		runRound(t, iv, n)
		done, err := iv.Next()
		if err != nil {
			t.Fatalf("round %d: Next failed: %v", n, err)
		}
		if iv.Round != n {
			t.Errorf("round %d: expected round counter %d, got %d", n, n, iv.Round)
		}
		if n < MaxRounds {
			if done {
				t.Fatalf("round %d: completed early", n)
			}
			if iv.Status != StatusSpeaking {
				t.Fatalf("round %d: expected status %s, got %s", n, StatusSpeaking, iv.Status)
			}
		} else if !done {
			t.Fatal("Expected completion after max rounds")
		}
	}

	if iv.Status != StatusCompleted {
		t.Errorf("Expected status %s, got %s", StatusCompleted, iv.Status)
	}
	questions, answers, feedbacks := 0, 0, 0
	for _, turn := range iv.Turns {
		switch turn.Kind {
		case TurnQuestion:
			questions++
		case TurnAnswer:
			answers++
		case TurnFeedback:
			feedbacks++
		}
	}
	if questions != 5 || answers != 5 || feedbacks != 5 {
		t.Errorf("Expected 5 questions, 5 answers, 5 feedback entries; got %d/%d/%d",
			questions, answers, feedbacks)
	}
}

func TestTurnLogNeverShrinks(t *testing.T) {
	iv := newTestInterview(t)
	startInterview(t, iv, "Question 1")

	prev := 0
	for n := 1; n <= MaxRounds; n++ {
		runRound(t, iv, n)
		if len(iv.Turns) < prev {
			t.Fatalf("Turn log shrank from %d to %d", prev, len(iv.Turns))
		}
		prev = len(iv.Turns)
		if _, err := iv.Next(); err != nil {
			t.Fatalf("Next failed: %v", err)
		}
	}
}

func TestRenderTranscriptIdempotent(t *testing.T) {
	iv := newTestInterview(t)
	startInterview(t, iv, "Question 1")
	runRound(t, iv, 1)

	first := iv.RenderTranscript()
	second := iv.RenderTranscript()
	if first != second {
		t.Errorf("Rendering is not idempotent:\n%q\n%q", first, second)
	}
}

func TestEndFromAnyNonTerminalState(t *testing.T) {
	reach := map[InterviewStatus]func(iv *Interview){
		StatusSpeaking: func(iv *Interview) {},
		StatusListening: func(iv *Interview) {
			iv.SpeechDelivered()
		},
		StatusRecording: func(iv *Interview) {
			iv.SpeechDelivered()
			iv.StartRecording()
		},
		StatusProcessing: func(iv *Interview) {
			iv.SpeechDelivered()
			iv.StartRecording()
			iv.StopRecording()
		},
		StatusFeedback: func(iv *Interview) {
			runRoundQuiet(iv, 1)
		},
	}

	for status, drive := range reach {
		iv := newTestInterview(t)
		startInterview(t, iv, "Question 1")
		drive(iv)
		if iv.Status != status {
			t.Fatalf("Setup for %s landed in %s", status, iv.Status)
		}
		frozen := iv.FinalTranscript()
		if err := iv.End(); err != nil {
			t.Fatalf("End from %s failed: %v", status, err)
		}
		if iv.Status != StatusCompleted {
			t.Errorf("End from %s: expected %s, got %s", status, StatusCompleted, iv.Status)
		}
		if iv.FinalTranscript() != frozen {
			t.Errorf("End from %s mutated the transcript", status)
		}
	}
}

func runRoundQuiet(iv *Interview, n int) {
	iv.SpeechDelivered()
	iv.StartRecording()
	iv.StopRecording()
	iv.AnswerProcessed(fmt.Sprintf("Answer %d", n), GeneratedTurn{
		Question:   fmt.Sprintf("Question %d", n+1),
		Feedback:   fmt.Sprintf("Feedback %d", n),
		Transcript: iv.Transcript + fmt.Sprintf("\nQ%d A%d F%d", n, n, n),
	})
}

func TestTerminalSessionRejectsAllEvents(t *testing.T) {
	iv := newTestInterview(t)
	startInterview(t, iv, "Question 1")
	if err := iv.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	if err := iv.Begin(); !errors.Is(err, ErrInterviewTerminal) {
		t.Errorf("Begin after End: expected ErrInterviewTerminal, got %v", err)
	}
	if err := iv.SpeechDelivered(); !errors.Is(err, ErrInterviewTerminal) {
		t.Errorf("SpeechDelivered after End: expected ErrInterviewTerminal, got %v", err)
	}
	if _, err := iv.Next(); !errors.Is(err, ErrInterviewTerminal) {
		t.Errorf("Next after End: expected ErrInterviewTerminal, got %v", err)
	}
	if err := iv.End(); !errors.Is(err, ErrInterviewTerminal) {
		t.Errorf("Second End: expected ErrInterviewTerminal, got %v", err)
	}
}

func TestTranscriptRegressionKeepsProcessing(t *testing.T) {
	iv := newTestInterview(t)
	startInterview(t, iv, "A reasonably long opening question")
	iv.SpeechDelivered()
	iv.StartRecording()
	iv.StopRecording()

	err := iv.AnswerProcessed("Answer", GeneratedTurn{
		Question:   "Next",
		Feedback:   "Feedback",
		Transcript: "short",
	})
	if !errors.Is(err, ErrTranscriptRegression) {
		t.Fatalf("Expected ErrTranscriptRegression, got %v", err)
	}
	if iv.Status != StatusProcessing {
		t.Errorf("Expected status %s after regression, got %s", StatusProcessing, iv.Status)
	}

	// The retried round with a consistent transcript succeeds.
	err = iv.AnswerProcessed("Answer", GeneratedTurn{
		Question:   "Next",
		Feedback:   "Feedback",
		Transcript: iv.Transcript + "\nmore",
	})
	if err != nil {
		t.Fatalf("Retried AnswerProcessed failed: %v", err)
	}
	if iv.Status != StatusFeedback {
		t.Errorf("Expected status %s, got %s", StatusFeedback, iv.Status)
	}
}

func TestProcessingFailureReturnsToListening(t *testing.T) {
	iv := newTestInterview(t)
	startInterview(t, iv, "Question 1")
	iv.SpeechDelivered()
	iv.StartRecording()
	iv.StopRecording()

	if err := iv.ProcessingFailed(); err != nil {
		t.Fatalf("ProcessingFailed failed: %v", err)
	}
	if iv.Status != StatusListening {
		t.Fatalf("Expected status %s, got %s", StatusListening, iv.Status)
	}

	// Re-record the same answer and succeed.
	if err := iv.StartRecording(); err != nil {
		t.Fatalf("StartRecording after recovery failed: %v", err)
	}
	if err := iv.StopRecording(); err != nil {
		t.Fatalf("StopRecording after recovery failed: %v", err)
	}
	err := iv.AnswerProcessed("Answer 1", GeneratedTurn{
		Question:   "Question 2",
		Feedback:   "Feedback 1",
		Transcript: iv.Transcript + "\nQ1 A1 F1",
	})
	if err != nil {
		t.Fatalf("AnswerProcessed after recovery failed: %v", err)
	}
	if len(iv.Turns) != 3 {
		t.Errorf("Expected 3 turns after recovered round, got %d", len(iv.Turns))
	}
}

func TestSynthesisFailureRetainsPendingForRetry(t *testing.T) {
	iv := newTestInterview(t)
	startInterview(t, iv, "Question 1")

	if err := iv.SpeechFailed(); err != nil {
		t.Fatalf("SpeechFailed failed: %v", err)
	}
	if iv.Status != StatusIdle {
		t.Fatalf("Expected status %s, got %s", StatusIdle, iv.Status)
	}
	if iv.Pending == nil {
		t.Fatal("Expected pending turn to be retained")
	}

	// start is not accepted on a session parked by a synthesis failure.
	if err := iv.Begin(); err == nil {
		t.Error("Expected Begin to be rejected while a pending turn exists")
	}

	if err := iv.RetrySpeak(); err != nil {
		t.Fatalf("RetrySpeak failed: %v", err)
	}
	if iv.Status != StatusSpeaking {
		t.Errorf("Expected status %s, got %s", StatusSpeaking, iv.Status)
	}
}

func TestStartFailureIsRecoverable(t *testing.T) {
	iv := newTestInterview(t)
	if err := iv.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := iv.StartFailed(); err != nil {
		t.Fatalf("StartFailed failed: %v", err)
	}
	if iv.Status != StatusIdle {
		t.Fatalf("Expected status %s, got %s", StatusIdle, iv.Status)
	}
	if err := iv.Begin(); err != nil {
		t.Errorf("Begin retry failed: %v", err)
	}
}

func TestNextRejectedOutsideFeedback(t *testing.T) {
	iv := newTestInterview(t)
	startInterview(t, iv, "Question 1")

	if _, err := iv.Next(); err == nil {
		t.Error("Expected Next to be rejected in Speaking")
	}
	var invalid *InvalidTransitionError
	_, err := iv.Next()
	if !errors.As(err, &invalid) {
		t.Errorf("Expected InvalidTransitionError, got %v", err)
	}
}

func TestRoleSlugRoundTrip(t *testing.T) {
	for _, role := range Roles() {
		got, err := RoleFromSlug(role.Slug())
		if err != nil {
			t.Fatalf("RoleFromSlug(%s) failed: %v", role.Slug(), err)
		}
		if got != role {
			t.Errorf("Slug round trip: expected %s, got %s", role, got)
		}
	}
	if _, err := RoleFromSlug("barista"); err == nil {
		t.Error("Expected error for unknown slug")
	}
}
