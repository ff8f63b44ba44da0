package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/remasto/remasto/server/domain/entities"
	"github.com/remasto/remasto/server/domain/repositories"
)

// ResumeService scores resumes against job descriptions.
type ResumeService struct {
	analyzer repositories.ResumeAnalyzer
	logger   *zap.Logger
}

// NewResumeService creates a new resume service.
func NewResumeService(analyzer repositories.ResumeAnalyzer, logger *zap.Logger) *ResumeService {
	return &ResumeService{analyzer: analyzer, logger: logger}
}

// Analyze validates the inputs and runs the analyzer.
func (s *ResumeService) Analyze(ctx context.Context, req repositories.ResumeAnalysisRequest) (*entities.ResumeAnalysis, error) {
	if strings.TrimSpace(req.Resume) == "" {
		return nil, errors.New("resume text is required")
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return nil, errors.New("job description is required")
	}
	if strings.TrimSpace(req.JobTitle) == "" {
		req.JobTitle = "the role"
	}

	analysis, err := s.analyzer.AnalyzeResume(ctx, req)
	if err != nil {
		s.logger.Warn("resume analysis failed", zap.Error(err))
		return nil, err
	}
	s.logger.Info("resume analyzed",
		zap.String("jobTitle", req.JobTitle),
		zap.Int("matchScore", analysis.MatchScore))
	return analysis, nil
}
