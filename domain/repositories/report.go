package repositories

import (
	"context"

	"github.com/remasto/remasto/server/domain/entities"
)

// ReportGenerator scores a finished interview transcript for a role.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, transcript string, role entities.JobRole) (*entities.PerformanceReport, error)
}

// ResumeAnalysisRequest carries the inputs for one resume scoring.
type ResumeAnalysisRequest struct {
	JobTitle       string
	JobDescription string
	Resume         string
}

// ResumeAnalyzer scores a resume against a job description.
type ResumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, req ResumeAnalysisRequest) (*entities.ResumeAnalysis, error)
}
