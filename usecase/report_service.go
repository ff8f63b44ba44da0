package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/remasto/remasto/server/domain/entities"
	"github.com/remasto/remasto/server/domain/repositories"
)

// ReportService turns a finished interview into a performance report and
// persists it. Report generation never blocks interview completion: when
// the generator fails, a static fallback report is substituted.
type ReportService struct {
	generator repositories.ReportGenerator
	store     repositories.ReportRepository
	logger    *zap.Logger
}

// NewReportService creates a report service. store may be nil, in which
// case reports are returned to the caller but not persisted.
func NewReportService(
	generator repositories.ReportGenerator,
	store repositories.ReportRepository,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		generator: generator,
		store:     store,
		logger:    logger,
	}
}

// Publish generates the report for a finished interview, falling back to
// the static report when generation fails, and saves it best-effort.
func (s *ReportService) Publish(ctx context.Context, iv *entities.Interview) *entities.PerformanceReport {
	transcript := iv.FinalTranscript()

	report, err := s.generator.GenerateReport(ctx, transcript, iv.Role)
	if err != nil {
		s.logger.Warn("report generation failed, substituting fallback",
			zap.String("interviewID", iv.ID), zap.Error(err))
		report = fallbackReport()
	}

	report.InterviewID = iv.ID
	report.UserID = iv.UserID
	report.Role = iv.Role
	report.Transcript = transcript
	report.CreatedAt = time.Now()

	if s.store != nil {
		if err := s.store.Save(ctx, report); err != nil {
			s.logger.Error("failed to persist report",
				zap.String("interviewID", iv.ID), zap.Error(err))
		}
	}
	return report
}

// Get fetches a stored report by interview ID. Returns nil when the
// report does not exist or persistence is disabled.
func (s *ReportService) Get(ctx context.Context, interviewID string) (*entities.PerformanceReport, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.GetByInterviewID(ctx, interviewID)
}

// List fetches a user's stored reports, newest first.
func (s *ReportService) List(ctx context.Context, userID string) ([]*entities.PerformanceReport, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListByUserID(ctx, userID)
}

// fallbackReport is the report delivered when automated review is
// unavailable. It carries no score judgment beyond zero.
func fallbackReport() *entities.PerformanceReport {
	return &entities.PerformanceReport{
		OverallScore: 0,
		Strengths:    "The automated reviewer was unavailable, so strengths could not be assessed.",
		Weaknesses:   "The automated reviewer was unavailable, so weaknesses could not be assessed.",
		ActionableFeedback: "Your interview completed, but the performance review could not be " +
			"generated. The transcript below is preserved; please try generating the report again later.",
		Fallback: true,
	}
}
