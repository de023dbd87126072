package repository

import (
	"database/sql"
	"time"

	"partner-portal-service/internal/models"
)

// SessionRepository is the session ledger: one row per issued access token,
// keyed by the token's jti. It is the authority consulted for revocation.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{
		db: db,
	}
}

// RecordLogin inserts a new active ledger row. Callers must supply a freshly
// generated tokenID; uniqueness of jti is the token issuer's responsibility.
func (r *SessionRepository) RecordLogin(userType string, userID int64, ipAddress, userAgent, tokenID string) error {
	query := `
		INSERT INTO login_sessions (user_type, user_id, ip_address, user_agent, token_id, login_time, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
	`

	if len(userAgent) > 255 {
		userAgent = userAgent[:255]
	}

	_, err := r.db.Exec(query, userType, userID, ipAddress, userAgent, tokenID, time.Now())
	return err
}

// Deactivate marks the active row for tokenID as logged out. Deactivating a
// token that is already inactive or unknown is a silent no-op, so logout is
// idempotent.
func (r *SessionRepository) Deactivate(tokenID string) error {
	query := `
		UPDATE login_sessions
		SET is_active = false, logout_time = $2
		WHERE token_id = $1 AND is_active = true
	`
	_, err := r.db.Exec(query, tokenID, time.Now())
	return err
}

// IsActive reports whether tokenID still has an active ledger row. A
// syntactically valid, unexpired token must still be rejected when this
// returns false.
func (r *SessionRepository) IsActive(tokenID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM login_sessions
			WHERE token_id = $1 AND is_active = true
		)
	`

	var active bool
	err := r.db.QueryRow(query, tokenID).Scan(&active)
	return active, err
}

// DeactivateUserSessions deactivates every active session for a user, for
// admin-forced logout when a partner account is disabled or deleted.
func (r *SessionRepository) DeactivateUserSessions(userType string, userID int64) error {
	query := `
		UPDATE login_sessions
		SET is_active = false, logout_time = $3
		WHERE user_type = $1 AND user_id = $2 AND is_active = true
	`
	_, err := r.db.Exec(query, userType, userID, time.Now())
	return err
}

// ListForUser returns recent ledger rows for a user, newest first.
func (r *SessionRepository) ListForUser(userType string, userID int64, limit int) ([]models.LoginSession, error) {
	query := `
		SELECT id, user_type, user_id, ip_address, user_agent, token_id, login_time, logout_time, is_active
		FROM login_sessions
		WHERE user_type = $1 AND user_id = $2
		ORDER BY login_time DESC
		LIMIT $3
	`

	rows, err := r.db.Query(query, userType, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.LoginSession
	for rows.Next() {
		var session models.LoginSession
		var logoutTime sql.NullTime

		err := rows.Scan(&session.ID, &session.UserType, &session.UserID, &session.IPAddress,
			&session.UserAgent, &session.TokenID, &session.LoginTime, &logoutTime, &session.IsActive)
		if err != nil {
			return nil, err
		}

		if logoutTime.Valid {
			session.LogoutTime = &logoutTime.Time
		}

		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}
