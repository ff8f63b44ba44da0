package llm

import (
	"context"
	"errors"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/remasto/remasto/server/domain/entities"
	"github.com/remasto/remasto/server/domain/repositories"
)

//go:embed interview_prompt.md
var interviewPrompt string

// Interviewer implements the DialogueGenerator contract on top of Gemini.
type Interviewer struct {
	generator contentGenerator
	logger    *zap.Logger
}

var _ repositories.DialogueGenerator = (*Interviewer)(nil)

// NewInterviewer creates a dialogue generator backed by the given client.
func NewInterviewer(client *Client, logger *zap.Logger) *Interviewer {
	return &Interviewer{generator: client, logger: logger}
}

// NextTurn produces the interviewer's next utterance for one exchange.
func (i *Interviewer) NextTurn(ctx context.Context, req repositories.DialogueRequest) (entities.GeneratedTurn, error) {
	if !req.Role.Valid() {
		return entities.GeneratedTurn{}, &entities.InvalidRoleError{Slug: string(req.Role)}
	}

	answer := strings.TrimSpace(req.LatestAnswer)
	if answer == "" {
		answer = repositories.NoAnswerSentinel
	}

	prompt := strings.NewReplacer(
		"{{JOB_ROLE}}", string(req.Role),
		"{{PRIOR_TRANSCRIPT}}", req.PriorTranscript,
		"{{LATEST_ANSWER}}", answer,
	).Replace(interviewPrompt)

	raw, err := i.generator.GenerateText(ctx, prompt)
	if err != nil {
		return entities.GeneratedTurn{}, err
	}

	var parsed struct {
		Question   string `json:"question"`
		Feedback   string `json:"feedback"`
		Transcript string `json:"transcript"`
	}
	if err := decodeJSON(raw, &parsed); err != nil {
		return entities.GeneratedTurn{}, err
	}
	if strings.TrimSpace(parsed.Question) == "" {
		return entities.GeneratedTurn{}, errors.New("generator returned no question")
	}

	i.logger.Debug("Dialogue turn generated",
		zap.String("role", string(req.Role)),
		zap.Int("transcript_length", len(parsed.Transcript)))

	return entities.GeneratedTurn{
		Question:   strings.TrimSpace(parsed.Question),
		Feedback:   strings.TrimSpace(parsed.Feedback),
		Transcript: strings.TrimSpace(parsed.Transcript),
	}, nil
}
