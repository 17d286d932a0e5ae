package domain

import "time"

// Feedback is a single feedback submission. UserID and Email are nil for
// anonymous submissions.
type Feedback struct {
	ID        string
	UserID    *string
	Username  string
	Email     *string
	Rating    int
	Comment   string
	IPAddress *string
	UserAgent *string
	CreatedAt time.Time
}

// FeedbackStats aggregates all submissions.
type FeedbackStats struct {
	Total          int
	AverageRating  float64
	LastSubmission *time.Time
}
