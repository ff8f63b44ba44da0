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

//go:embed resume_prompt.md
var resumePrompt string

// ResumeAnalyzer scores resumes against job descriptions with Gemini.
type ResumeAnalyzer struct {
	generator contentGenerator
	logger    *zap.Logger
}

var _ repositories.ResumeAnalyzer = (*ResumeAnalyzer)(nil)

func NewResumeAnalyzer(client *Client, logger *zap.Logger) *ResumeAnalyzer {
	return &ResumeAnalyzer{generator: client, logger: logger}
}

// AnalyzeResume scores one resume against one job description.
func (a *ResumeAnalyzer) AnalyzeResume(ctx context.Context, req repositories.ResumeAnalysisRequest) (*entities.ResumeAnalysis, error) {
	if strings.TrimSpace(req.Resume) == "" {
		return nil, errors.New("resume must not be empty")
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return nil, errors.New("job description must not be empty")
	}

	prompt := strings.NewReplacer(
		"{{JOB_TITLE}}", req.JobTitle,
		"{{JOB_DESCRIPTION}}", req.JobDescription,
		"{{RESUME}}", req.Resume,
	).Replace(resumePrompt)

	raw, err := a.generator.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		MatchScore      int      `json:"match_score"`
		MatchStrength   string   `json:"match_strength"`
		Summary         string   `json:"summary"`
		MatchedKeywords []string `json:"matched_keywords"`
		MissingKeywords []string `json:"missing_keywords"`
		Suggestions     []string `json:"suggestions"`
	}
	if err := decodeJSON(raw, &parsed); err != nil {
		return nil, err
	}

	score := clampScore(parsed.MatchScore)
	strength := entities.MatchStrength(strings.TrimSpace(parsed.MatchStrength))
	switch strength {
	case entities.MatchStrong, entities.MatchGood, entities.MatchNeedsImprovement:
	default:
		// The model occasionally invents categories; rebucket from the score.
		switch {
		case score >= 80:
			strength = entities.MatchStrong
		case score >= 60:
			strength = entities.MatchGood
		default:
			strength = entities.MatchNeedsImprovement
		}
	}

	a.logger.Info("Resume analyzed",
		zap.String("job_title", req.JobTitle),
		zap.Int("match_score", score))

	return &entities.ResumeAnalysis{
		MatchScore:      score,
		MatchStrength:   strength,
		Summary:         strings.TrimSpace(parsed.Summary),
		MatchedKeywords: parsed.MatchedKeywords,
		MissingKeywords: parsed.MissingKeywords,
		Suggestions:     parsed.Suggestions,
	}, nil
}
