package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anmol-chhetri-G/Security-Web/internal/core/domain"
	"github.com/anmol-chhetri-G/Security-Web/internal/core/port"
	"github.com/anmol-chhetri-G/Security-Web/internal/repository"
)

var sessionColumns = []string{
	"id",
	"user_id",
	"session_token",
	"refresh_token",
	"ip_address",
	"user_agent",
	"device_info",
	"is_active",
	"expires_at",
	"last_activity",
	"created_at",
}

// SessionRepository implements port.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	repo := &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance that executes statements within the supplied transaction.
func (r *SessionRepository) WithTx(tx pgx.Tx) *SessionRepository {
	if tx == nil {
		return r
	}
	return &SessionRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create persists a new session.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	deviceInfo, err := marshalDeviceInfo(session.DeviceInfo)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Insert("sessions").
		Columns(sessionColumns...).
		Values(
			session.ID,
			session.UserID,
			session.SessionToken,
			session.RefreshToken,
			optionalString(session.IPAddress),
			optionalString(session.UserAgent),
			deviceInfo,
			session.IsActive,
			session.ExpiresAt,
			session.LastActivity,
			session.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetActiveByToken resolves an active, unexpired session by its opaque token,
// joined with its owner.
func (r *SessionRepository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*domain.SessionWithUser, error) {
	query := r.joinedSelect().
		Where(squirrel.Eq{"s.session_token": token}).
		Where(squirrel.Eq{"s.is_active": true}).
		Where(squirrel.Gt{"s.expires_at": now})

	return r.queryJoined(ctx, query)
}

// GetActiveByRefreshToken resolves an active, unexpired session by its opaque
// refresh token, joined with its owner.
func (r *SessionRepository) GetActiveByRefreshToken(ctx context.Context, token string, now time.Time) (*domain.SessionWithUser, error) {
	query := r.joinedSelect().
		Where(squirrel.Eq{"s.refresh_token": token}).
		Where(squirrel.Eq{"s.is_active": true}).
		Where(squirrel.Gt{"s.expires_at": now})

	return r.queryJoined(ctx, query)
}

// TouchActivity bumps last_activity on an authenticated request.
func (r *SessionRepository) TouchActivity(ctx context.Context, sessionID string, at time.Time) error {
	stmt, args, err := r.builder.Update("sessions").
		Set("last_activity", at).
		Where(squirrel.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	return nil
}

// RotateToken swaps in a fresh session token and extends the expiry. The
// refresh token column is left untouched.
func (r *SessionRepository) RotateToken(ctx context.Context, sessionID string, newToken string, expiresAt time.Time, at time.Time) error {
	stmt, args, err := r.builder.Update("sessions").
		Set("session_token", newToken).
		Set("expires_at", expiresAt).
		Set("last_activity", at).
		Where(squirrel.Eq{"id": sessionID}).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build rotate session sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeactivateByToken marks the session inactive and returns the owning user id.
func (r *SessionRepository) DeactivateByToken(ctx context.Context, token string) (string, error) {
	stmt, args, err := r.builder.Update("sessions").
		Set("is_active", false).
		Where(squirrel.Eq{"session_token": token}).
		Suffix("RETURNING user_id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build deactivate session sql: %w", err)
	}

	var userID string
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&userID); err != nil {
		if err == pgx.ErrNoRows {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("deactivate session: %w", err)
	}

	return userID, nil
}

// DeactivateAllForUser marks every active session of the user inactive.
func (r *SessionRepository) DeactivateAllForUser(ctx context.Context, userID string) (int, error) {
	stmt, args, err := r.builder.Update("sessions").
		Set("is_active", false).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build deactivate sessions sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("deactivate sessions: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

// DeactivateExpired flips active-but-expired sessions to inactive.
func (r *SessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	stmt, args, err := r.builder.Update("sessions").
		Set("is_active", false).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.LtOrEq{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sweep sessions sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

// ListActiveByUser retrieves active, unexpired sessions ordered by last activity.
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]domain.Session, error) {
	stmt, args, err := r.builder.
		Select(sessionColumns...).
		From("sessions").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Gt{"expires_at": now}).
		OrderBy("last_activity DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sessions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepository) joinedSelect() squirrel.SelectBuilder {
	columns := prefixed("s", sessionColumns)
	columns = append(columns, "u.id", "u.username", "u.email", "u.role", "u.is_active")
	return r.builder.
		Select(columns...).
		From("sessions AS s").
		Join("users AS u ON u.id = s.user_id").
		Limit(1)
}

func (r *SessionRepository) queryJoined(ctx context.Context, query squirrel.SelectBuilder) (*domain.SessionWithUser, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		result     domain.SessionWithUser
		ipAddress  *string
		userAgent  *string
		deviceInfo []byte
	)

	if err := row.Scan(
		&result.ID,
		&result.UserID,
		&result.SessionToken,
		&result.RefreshToken,
		&ipAddress,
		&userAgent,
		&deviceInfo,
		&result.IsActive,
		&result.ExpiresAt,
		&result.LastActivity,
		&result.CreatedAt,
		&result.User.ID,
		&result.User.Username,
		&result.User.Email,
		&result.User.Role,
		&result.User.IsActive,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	result.IPAddress = ipAddress
	result.UserAgent = userAgent
	if info, err := unmarshalDeviceInfo(deviceInfo); err == nil {
		result.DeviceInfo = info
	}

	return &result, nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		session    domain.Session
		ipAddress  *string
		userAgent  *string
		deviceInfo []byte
	)

	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.SessionToken,
		&session.RefreshToken,
		&ipAddress,
		&userAgent,
		&deviceInfo,
		&session.IsActive,
		&session.ExpiresAt,
		&session.LastActivity,
		&session.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	session.IPAddress = ipAddress
	session.UserAgent = userAgent
	if info, err := unmarshalDeviceInfo(deviceInfo); err == nil {
		session.DeviceInfo = info
	}

	return &session, nil
}

func prefixed(alias string, columns []string) []string {
	result := make([]string, len(columns))
	for i, col := range columns {
		result[i] = alias + "." + col
	}
	return result
}

func marshalDeviceInfo(info map[string]any) ([]byte, error) {
	if len(info) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshal device info: %w", err)
	}
	return payload, nil
}

func unmarshalDeviceInfo(payload []byte) (map[string]any, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var info map[string]any
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, fmt.Errorf("unmarshal device info: %w", err)
	}
	return info, nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
