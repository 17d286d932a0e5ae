package port

import (
	"context"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
)

// FeedbackRepository persists feedback submissions.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback domain.Feedback) error
	List(ctx context.Context, limit, offset int) ([]domain.Feedback, error)
	Stats(ctx context.Context) (*domain.FeedbackStats, error)
}
