package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/remasto/remasto/server/domain/entities"
	"github.com/remasto/remasto/server/domain/repositories"
)

// InterviewService executes the side effects around the interview entity:
// question generation, answer transcription, speech synthesis, and the
// report handoff on completion. The entity itself stays pure; every
// collaborator result is applied back as a transition.
type InterviewService struct {
	dialogue    repositories.DialogueGenerator
	transcriber repositories.SpeechTranscriber
	synthesizer repositories.SpeechSynthesizer
	reports     *ReportService
	logger      *zap.Logger
}

// NewInterviewService creates a new interview orchestrator.
func NewInterviewService(
	dialogue repositories.DialogueGenerator,
	transcriber repositories.SpeechTranscriber,
	synthesizer repositories.SpeechSynthesizer,
	reports *ReportService,
	logger *zap.Logger,
) *InterviewService {
	return &InterviewService{
		dialogue:    dialogue,
		transcriber: transcriber,
		synthesizer: synthesizer,
		reports:     reports,
		logger:      logger,
	}
}

// SpokenTurn is what the transport layer delivers for one interviewer
// utterance: the question text, feedback on the previous answer when
// there is one, and the synthesized audio to stream.
type SpokenTurn struct {
	Round    int
	Question string
	Feedback string
	Answer   string
	Audio    []byte
}

// Session binds one interview entity to the service. All methods are safe
// for concurrent use; transitions are applied under the session mutex and
// collaborator calls run outside it, so End can always interrupt. A result
// arriving after the session reached a terminal state is discarded.
type Session struct {
	svc *InterviewService

	mu        sync.Mutex
	interview *entities.Interview
}

// NewSession creates an idle session for the given role slug and voice.
func (s *InterviewService) NewSession(userID, roleSlug, voice string) (*Session, error) {
	role, err := entities.RoleFromSlug(roleSlug)
	if err != nil {
		return nil, err
	}
	if !repositories.ValidVoice(voice) {
		return nil, entities.NewFault(entities.FaultSynthesis, errors.New("unknown voice: "+voice))
	}
	iv, err := entities.NewInterview(userID, role, voice)
	if err != nil {
		return nil, err
	}
	s.logger.Info("interview session created",
		zap.String("interviewID", iv.ID),
		zap.String("userID", userID),
		zap.String("role", roleSlug))
	return &Session{svc: s, interview: iv}, nil
}

// ID returns the interview's identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interview.ID
}

// Status returns the interview's current status.
func (s *Session) Status() entities.InterviewStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interview.Status
}

// Start begins the interview and produces the opening question. When the
// session is idle with a retained utterance after a synthesis failure, it
// resumes by re-synthesizing that utterance instead of generating again.
func (s *Session) Start(ctx context.Context) (*SpokenTurn, error) {
	s.mu.Lock()
	if s.interview.Status == entities.StatusIdle && s.interview.Pending != nil {
		if err := s.interview.RetrySpeak(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		pending := *s.interview.Pending
		round := s.interview.Round + 1
		s.mu.Unlock()
		return s.speak(ctx, pending, round)
	}
	if err := s.interview.Begin(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	req := repositories.DialogueRequest{
		Role:         s.interview.Role,
		LatestAnswer: repositories.NoAnswerSentinel,
	}
	s.mu.Unlock()

	turn, err := s.svc.dialogue.NextTurn(ctx, req)

	s.mu.Lock()
	if s.interview.Terminal() {
		s.mu.Unlock()
		return nil, entities.ErrInterviewTerminal
	}
	if err != nil {
		s.svc.logger.Warn("opening question generation failed",
			zap.String("interviewID", s.interview.ID), zap.Error(err))
		_ = s.interview.StartFailed()
		s.mu.Unlock()
		return nil, entities.NewFault(entities.FaultGeneration, err)
	}
	if err := s.interview.QuestionReady(turn); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	round := s.interview.Round + 1
	s.mu.Unlock()

	return s.speak(ctx, turn, round)
}

// Delivered marks the current utterance as fully played back.
func (s *Session) Delivered() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interview.SpeechDelivered()
}

// StartRecording opens the answer capture window.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interview.StartRecording()
}

// DiscardRecording abandons an in-progress capture, for example when the
// utterance overflowed the recorder, and returns the session to listening
// so the answer can be re-recorded.
func (s *Session) DiscardRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.interview.StopRecording(); err != nil {
		return err
	}
	return s.interview.ProcessingFailed()
}

// ProcessAnswer transcribes the recorded utterance, feeds it to the
// dialogue generator, and applies feedback plus the staged next question.
// An empty transcription is not an error; the generator is told no answer
// was provided and the interview proceeds. A generator transcript that
// shrank is retried once before surfacing as a generation fault; on any
// fault the session returns to listening so the answer can be re-recorded.
func (s *Session) ProcessAnswer(ctx context.Context, audio []byte, mimeType string) (*SpokenTurn, error) {
	s.mu.Lock()
	if err := s.interview.StopRecording(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	interviewID := s.interview.ID
	s.mu.Unlock()

	text, err := s.svc.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return nil, s.processingFailed(entities.FaultTranscription, err)
	}
	answer := strings.TrimSpace(text)
	if answer == "" {
		s.svc.logger.Info("empty transcription, proceeding without an answer",
			zap.String("interviewID", interviewID))
		answer = repositories.NoAnswerSentinel
	}

	turn, err := s.generateAnswerTurn(ctx, answer)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &SpokenTurn{
		Round:    s.interview.Round + 1,
		Question: turn.Question,
		Feedback: turn.Feedback,
		Answer:   answer,
	}, nil
}

// generateAnswerTurn runs the dialogue generator and applies the result,
// retrying exactly once when the generator returns a shrinking transcript.
func (s *Session) generateAnswerTurn(ctx context.Context, answer string) (entities.GeneratedTurn, error) {
	for attempt := 0; attempt < 2; attempt++ {
		s.mu.Lock()
		if s.interview.Terminal() {
			s.mu.Unlock()
			return entities.GeneratedTurn{}, entities.ErrInterviewTerminal
		}
		req := repositories.DialogueRequest{
			Role:            s.interview.Role,
			PriorTranscript: s.interview.Transcript,
			LatestAnswer:    answer,
		}
		s.mu.Unlock()

		turn, err := s.svc.dialogue.NextTurn(ctx, req)

		s.mu.Lock()
		if s.interview.Terminal() {
			s.mu.Unlock()
			return entities.GeneratedTurn{}, entities.ErrInterviewTerminal
		}
		if err != nil {
			s.mu.Unlock()
			return entities.GeneratedTurn{}, s.processingFailed(entities.FaultGeneration, err)
		}
		err = s.interview.AnswerProcessed(answer, turn)
		if err == nil {
			s.mu.Unlock()
			return turn, nil
		}
		if !errors.Is(err, entities.ErrTranscriptRegression) {
			s.mu.Unlock()
			return entities.GeneratedTurn{}, err
		}
		s.svc.logger.Warn("generator transcript regressed, retrying round",
			zap.String("interviewID", s.interview.ID),
			zap.Int("attempt", attempt+1))
		s.mu.Unlock()
	}
	return entities.GeneratedTurn{}, s.processingFailed(entities.FaultGeneration, entities.ErrTranscriptRegression)
}

// Advance moves past feedback. It either synthesizes and returns the next
// question or, when the round limit is reached, completes the interview
// and returns the performance report.
func (s *Session) Advance(ctx context.Context) (*SpokenTurn, *entities.PerformanceReport, error) {
	s.mu.Lock()
	done, err := s.interview.Next()
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	if done {
		iv := s.snapshotLocked()
		s.mu.Unlock()
		return nil, s.svc.reports.Publish(ctx, iv), nil
	}
	if s.interview.Pending == nil {
		_ = s.interview.SpeechFailed()
		s.mu.Unlock()
		return nil, nil, entities.NewFault(entities.FaultGeneration, errors.New("no staged question to speak"))
	}
	pending := *s.interview.Pending
	round := s.interview.Round + 1
	s.mu.Unlock()

	turn, err := s.speak(ctx, pending, round)
	if err != nil {
		return nil, nil, err
	}
	return turn, nil, nil
}

// End terminates the session from any non-terminal state, freezes the
// transcript, and returns the performance report for what was covered.
func (s *Session) End(ctx context.Context) (*entities.PerformanceReport, error) {
	s.mu.Lock()
	if err := s.interview.End(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	iv := s.snapshotLocked()
	s.mu.Unlock()
	return s.svc.reports.Publish(ctx, iv), nil
}

// Fail marks the session permanently failed after an unrecoverable setup
// error, such as the caller's audio device being unavailable.
func (s *Session) Fail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interview.Fail()
}

// speak synthesizes one interviewer utterance. On synthesis failure the
// session parks in idle with the utterance retained, and Start resumes it.
func (s *Session) speak(ctx context.Context, turn entities.GeneratedTurn, round int) (*SpokenTurn, error) {
	s.mu.Lock()
	voice := s.interview.Voice
	s.mu.Unlock()

	audio, err := s.svc.synthesizer.Synthesize(ctx, turn.Question, voice)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interview.Terminal() {
		return nil, entities.ErrInterviewTerminal
	}
	if err != nil {
		s.svc.logger.Warn("speech synthesis failed, utterance retained",
			zap.String("interviewID", s.interview.ID), zap.Error(err))
		_ = s.interview.SpeechFailed()
		return nil, entities.NewFault(entities.FaultSynthesis, err)
	}
	return &SpokenTurn{Round: round, Question: turn.Question, Audio: audio}, nil
}

// processingFailed applies the listening recovery and wraps the cause.
func (s *Session) processingFailed(kind entities.FaultKind, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interview.Terminal() {
		return entities.ErrInterviewTerminal
	}
	_ = s.interview.ProcessingFailed()
	return entities.NewFault(kind, cause)
}

// snapshotLocked copies the entity for use outside the session mutex.
// Callers must hold s.mu.
func (s *Session) snapshotLocked() *entities.Interview {
	iv := *s.interview
	iv.Turns = append([]entities.Turn(nil), s.interview.Turns...)
	return &iv
}
