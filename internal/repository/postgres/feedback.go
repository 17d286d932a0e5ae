package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
)

// FeedbackRepository implements port.FeedbackRepository using PostgreSQL.
type FeedbackRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewFeedbackRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewFeedbackRepository(exec pgExecutor) *FeedbackRepository {
	repo := &FeedbackRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// Create inserts a feedback row.
func (r *FeedbackRepository) Create(ctx context.Context, feedback domain.Feedback) error {
	stmt, args, err := r.builder.Insert("feedback").
		Columns("id", "user_id", "username", "email", "rating", "comment", "ip_address", "user_agent", "created_at").
		Values(
			feedback.ID,
			optionalString(feedback.UserID),
			feedback.Username,
			optionalString(feedback.Email),
			feedback.Rating,
			feedback.Comment,
			optionalString(feedback.IPAddress),
			optionalString(feedback.UserAgent),
			feedback.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert feedback sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}

	return nil
}

// List returns feedback entries newest first.
func (r *FeedbackRepository) List(ctx context.Context, limit, offset int) ([]domain.Feedback, error) {
	query := r.builder.
		Select("id", "user_id", "username", "email", "rating", "comment", "ip_address", "user_agent", "created_at").
		From("feedback").
		OrderBy("created_at DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list feedback sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Feedback, 0)
	for rows.Next() {
		var entry domain.Feedback
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Username,
			&entry.Email,
			&entry.Rating,
			&entry.Comment,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}

	return entries, nil
}

// Stats aggregates totals in one query.
func (r *FeedbackRepository) Stats(ctx context.Context) (*domain.FeedbackStats, error) {
	stmt, args, err := r.builder.
		Select("COUNT(*)", "COALESCE(AVG(rating), 0)", "MAX(created_at)").
		From("feedback").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feedback stats sql: %w", err)
	}

	var (
		stats domain.FeedbackStats
		last  *time.Time
	)
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&stats.Total, &stats.AverageRating, &last); err != nil {
		return nil, fmt.Errorf("scan feedback stats: %w", err)
	}
	stats.LastSubmission = last

	return &stats, nil
}

var _ port.FeedbackRepository = (*FeedbackRepository)(nil)
