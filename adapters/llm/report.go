package llm

import (
	"context"
	"strings"
	"time"

	_ "embed"

	"go.uber.org/zap"

	"github.com/remasto/remasto/server/domain/entities"
	"github.com/remasto/remasto/server/domain/repositories"
)

//go:embed report_prompt.md
var reportPrompt string

// ReportGenerator scores a finished transcript with Gemini.
type ReportGenerator struct {
	generator contentGenerator
	logger    *zap.Logger
}

var _ repositories.ReportGenerator = (*ReportGenerator)(nil)

func NewReportGenerator(client *Client, logger *zap.Logger) *ReportGenerator {
	return &ReportGenerator{generator: client, logger: logger}
}

// GenerateReport produces a scored performance report for a transcript.
func (r *ReportGenerator) GenerateReport(ctx context.Context, transcript string, role entities.JobRole) (*entities.PerformanceReport, error) {
	prompt := strings.NewReplacer(
		"{{JOB_ROLE}}", string(role),
		"{{TRANSCRIPT}}", transcript,
	).Replace(reportPrompt)

	raw, err := r.generator.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		OverallScore       int    `json:"overall_score"`
		Strengths          string `json:"strengths"`
		Weaknesses         string `json:"weaknesses"`
		ActionableFeedback string `json:"actionable_feedback"`
	}
	if err := decodeJSON(raw, &parsed); err != nil {
		return nil, err
	}

	r.logger.Info("Performance report generated",
		zap.String("role", string(role)),
		zap.Int("overall_score", parsed.OverallScore))

	return &entities.PerformanceReport{
		Role:               role,
		Transcript:         transcript,
		OverallScore:       clampScore(parsed.OverallScore),
		Strengths:          strings.TrimSpace(parsed.Strengths),
		Weaknesses:         strings.TrimSpace(parsed.Weaknesses),
		ActionableFeedback: strings.TrimSpace(parsed.ActionableFeedback),
		CreatedAt:          time.Now(),
	}, nil
}
