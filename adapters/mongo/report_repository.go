package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/remasto/remasto/server/domain/entities"
	"github.com/remasto/remasto/server/domain/repositories"
)

type ReportRepository struct {
	collection *mongo.Collection
}

// NewReportRepository creates a MongoDB report repository. Reports are keyed
// by their interview ID, one report per interview.
func NewReportRepository(db *mongo.Database) repositories.ReportRepository {
	return &ReportRepository{
		collection: db.Collection("reports"),
	}
}

// Save upserts the report for its interview ID.
func (r *ReportRepository) Save(ctx context.Context, report *entities.PerformanceReport) error {
	if report == nil {
		return errors.New("report cannot be nil")
	}
	if report.InterviewID == "" {
		return errors.New("interview ID cannot be empty")
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"_id": report.InterviewID},
		report,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetByInterviewID returns the stored report, or nil when none exists.
func (r *ReportRepository) GetByInterviewID(ctx context.Context, interviewID string) (*entities.PerformanceReport, error) {
	if interviewID == "" {
		return nil, errors.New("interview ID cannot be empty")
	}

	var report entities.PerformanceReport
	err := r.collection.FindOne(ctx, bson.M{"_id": interviewID}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report %s: %w", interviewID, err)
	}
	return &report, nil
}

// ListByUserID returns the user's reports, most recent first.
func (r *ReportRepository) ListByUserID(ctx context.Context, userID string) ([]*entities.PerformanceReport, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var reports []*entities.PerformanceReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}
