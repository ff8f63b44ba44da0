package repositories

import (
	"context"

	"github.com/remasto/remasto/server/domain/entities"
)

// UserRepository defines data access methods for users
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id string) error
}

// ReportRepository persists performance reports keyed by interview ID.
type ReportRepository interface {
	Save(ctx context.Context, report *entities.PerformanceReport) error
	GetByInterviewID(ctx context.Context, interviewID string) (*entities.PerformanceReport, error)
	ListByUserID(ctx context.Context, userID string) ([]*entities.PerformanceReport, error)
}
