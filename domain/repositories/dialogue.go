package repositories

import (
	"context"

	"github.com/remasto/remasto/server/domain/entities"
)

// NoAnswerSentinel is passed as the latest answer on the very first call of a
// session, and whenever transcription yields no usable text. The interview
// always proceeds; an inaudible answer never aborts a round.
const NoAnswerSentinel = "none"

// DialogueRequest carries everything the generator needs for one exchange.
type DialogueRequest struct {
	Role            entities.JobRole
	PriorTranscript string
	// LatestAnswer is the transcribed candidate answer, or NoAnswerSentinel.
	LatestAnswer string
}

// DialogueGenerator abstracts the prompted generation service that produces
// the interviewer's next utterance. It must not repeat a question already
// present in the prior transcript; that is a service-side obligation, not
// mechanically enforced here.
type DialogueGenerator interface {
	NextTurn(ctx context.Context, req DialogueRequest) (entities.GeneratedTurn, error)
}
