package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
)

const feedbackCommentMinLength = 10

// FeedbackService validates and stores feedback submissions, which may be
// anonymous or attributed to an authenticated user.
type FeedbackService struct {
	feedback port.FeedbackRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(feedback port.FeedbackRepository, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{
		feedback: feedback,
		logger:   logger,
		now:      time.Now,
	}
}

// FeedbackInput is the raw submission plus whatever identity the request had.
type FeedbackInput struct {
	Rating    int
	Comment   string
	Email     string
	UserID    string
	Username  string
	UserEmail string
	IPAddress *string
	UserAgent *string
}

// Submit validates and persists one feedback entry.
func (s *FeedbackService) Submit(ctx context.Context, input FeedbackInput) (*domain.Feedback, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, newValidationError("rating", "Rating must be a number between 1 and 5")
	}

	comment := strings.TrimSpace(input.Comment)
	if len(comment) < feedbackCommentMinLength {
		return nil, newValidationError("comment", fmt.Sprintf("Comment must be at least %d characters long", feedbackCommentMinLength))
	}

	email := normalizeEmail(input.Email)
	if email != "" && !emailPattern.MatchString(email) {
		return nil, newValidationError("email", "Invalid email format")
	}
	if email == "" {
		email = normalizeEmail(input.UserEmail)
	}

	username := input.Username
	if username == "" {
		username = "Anonymous"
	}

	entry := domain.Feedback{
		ID:        uuid.NewString(),
		Username:  username,
		Rating:    input.Rating,
		Comment:   comment,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		CreatedAt: s.now().UTC(),
	}
	if input.UserID != "" {
		userID := input.UserID
		entry.UserID = &userID
	}
	if email != "" {
		entry.Email = &email
	}

	if err := s.feedback.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}

	s.logger.Info("feedback submitted",
		zap.String("username", entry.Username),
		zap.Int("rating", entry.Rating),
		zap.Int("comment_length", len(entry.Comment)),
	)

	return &entry, nil
}

// List returns stored feedback newest first.
func (s *FeedbackService) List(ctx context.Context, limit, offset int) ([]domain.Feedback, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.feedback.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return entries, nil
}

// Stats aggregates all submissions.
func (s *FeedbackService) Stats(ctx context.Context) (*domain.FeedbackStats, error) {
	stats, err := s.feedback.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("feedback stats: %w", err)
	}
	return stats, nil
}
