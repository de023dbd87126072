package repository

import (
	"database/sql"
	"fmt"
	"time"

	"partner-portal-service/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

// PaymentFilter narrows admin payment listings.
type PaymentFilter struct {
	PartnerID int64
	Status    string
	DueFrom   *time.Time
	DueTo     *time.Time
}

const paymentColumns = `id, partner_id, lead_id, amount, status, due_date, released_date, created_at`

func scanPayment(scan func(dest ...interface{}) error) (*models.Payment, error) {
	payment := &models.Payment{}
	var dueDate, releasedDate sql.NullTime

	err := scan(
		&payment.ID, &payment.PartnerID, &payment.LeadID, &payment.Amount,
		&payment.Status, &dueDate, &releasedDate, &payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		payment.DueDate = &dueDate.Time
	}
	if releasedDate.Valid {
		payment.ReleasedDate = &releasedDate.Time
	}

	return payment, nil
}

// ExistsForLead reports whether a payment row already exists for a lead.
// This is a fast path only. The unique index on lead_id is what actually
// guarantees at most one payment per lead.
func (r *PaymentRepository) ExistsForLead(leadID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM payments WHERE lead_id = $1)`, leadID).Scan(&exists)
	return exists, err
}

// Create inserts a pending payment for a converted lead. A concurrent insert
// for the same lead loses silently: ON CONFLICT DO NOTHING makes the second
// writer a no-op, and created reports whether this call inserted the row.
func (r *PaymentRepository) Create(payment *models.Payment) (created bool, err error) {
	query := `
		INSERT INTO payments (partner_id, lead_id, amount, status, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (lead_id) DO NOTHING
		RETURNING id
	`

	payment.Status = models.PaymentStatusPending
	payment.CreatedAt = time.Now()

	err = r.db.QueryRow(query, payment.PartnerID, payment.LeadID, payment.Amount,
		payment.Status, payment.DueDate, payment.CreatedAt).Scan(&payment.ID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create payment: %w", err)
	}
	return true, nil
}

// GetByID retrieves a single payment
func (r *PaymentRepository) GetByID(paymentID int64) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.db.QueryRow(query, paymentID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

// Release marks a pending payment as released. Releasing an already released
// payment is a silent no-op: the WHERE clause matches zero rows and the state
// stays Released. Release is one-way. released reports whether this call
// changed the row.
func (r *PaymentRepository) Release(paymentID int64) (released bool, err error) {
	result, err := r.db.Exec(`
		UPDATE payments
		SET status = $1, released_date = $2
		WHERE id = $3 AND status = $4
	`, models.PaymentStatusReleased, time.Now(), paymentID, models.PaymentStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to release payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		// Either already released or missing. Distinguish only the latter.
		var exists bool
		if err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, paymentID).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, models.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

// ListAdmin returns all payments matching the filter, newest first
func (r *PaymentRepository) ListAdmin(filter PaymentFilter) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.PartnerID != 0 {
		query += fmt.Sprintf(" AND partner_id = $%d", argIndex)
		args = append(args, filter.PartnerID)
		argIndex++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.DueFrom != nil {
		query += fmt.Sprintf(" AND due_date >= $%d", argIndex)
		args = append(args, *filter.DueFrom)
		argIndex++
	}
	if filter.DueTo != nil {
		query += fmt.Sprintf(" AND due_date <= $%d", argIndex)
		args = append(args, *filter.DueTo)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	return r.queryPayments(query, args...)
}

// ListForPartner returns a partner's own payments, newest first
func (r *PaymentRepository) ListForPartner(partnerID int64) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE partner_id = $1 ORDER BY created_at DESC`
	return r.queryPayments(query, partnerID)
}

func (r *PaymentRepository) queryPayments(query string, args ...interface{}) ([]models.Payment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	return payments, rows.Err()
}
