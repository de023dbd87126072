package repository

import (
	"database/sql"
	"fmt"
	"time"

	"partner-portal-service/internal/models"
)

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{
		db: db,
	}
}

// LeadFilter narrows admin lead listings.
type LeadFilter struct {
	PartnerID int64
	Status    models.LeadStatus
	DateFrom  *time.Time
	DateTo    *time.Time
}

const leadColumns = `id, partner_id, student_name, mobile, email, address, current_status, lead_status, created_at, conversion_date`

func scanLead(scan func(dest ...interface{}) error) (*models.Lead, error) {
	lead := &models.Lead{}
	var email, address sql.NullString
	var conversionDate sql.NullTime

	err := scan(
		&lead.ID, &lead.PartnerID, &lead.StudentName, &lead.Mobile, &email, &address,
		&lead.CurrentStatus, &lead.LeadStatus, &lead.CreatedAt, &conversionDate,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		lead.Email = &email.String
	}
	if address.Valid {
		lead.Address = &address.String
	}
	if conversionDate.Valid {
		lead.ConversionDate = &conversionDate.Time
	}

	return lead, nil
}

// Create inserts a new lead for a partner. Every lead starts Pending.
func (r *LeadRepository) Create(lead *models.Lead) error {
	query := `
		INSERT INTO leads (partner_id, student_name, mobile, email, address, current_status, lead_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	lead.LeadStatus = models.LeadStatusPending
	lead.CreatedAt = time.Now()

	return r.db.QueryRow(query, lead.PartnerID, lead.StudentName, lead.Mobile, lead.Email,
		lead.Address, lead.CurrentStatus, lead.LeadStatus, lead.CreatedAt).Scan(&lead.ID)
}

// GetByID retrieves a single lead
func (r *LeadRepository) GetByID(leadID int64) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.db.QueryRow(query, leadID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return lead, nil
}

// HasLeadWithMobile reports whether this partner already referred the same
// mobile number. Used only for the duplicate warning on lead creation.
func (r *LeadRepository) HasLeadWithMobile(partnerID int64, mobile string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM leads WHERE partner_id = $1 AND mobile = $2
		)
	`
	var exists bool
	err := r.db.QueryRow(query, partnerID, mobile).Scan(&exists)
	return exists, err
}

// ListAdmin returns all leads matching the filter, newest first
func (r *LeadRepository) ListAdmin(filter LeadFilter) ([]models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.PartnerID != 0 {
		query += fmt.Sprintf(" AND partner_id = $%d", argIndex)
		args = append(args, filter.PartnerID)
		argIndex++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND lead_status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.DateFrom != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, *filter.DateFrom)
		argIndex++
	}
	if filter.DateTo != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIndex)
		args = append(args, *filter.DateTo)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	return r.queryLeads(query, args...)
}

// ListForPartner returns a partner's own leads, newest first
func (r *LeadRepository) ListForPartner(partnerID int64) ([]models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE partner_id = $1 ORDER BY created_at DESC`
	return r.queryLeads(query, partnerID)
}

func (r *LeadRepository) queryLeads(query string, args ...interface{}) ([]models.Lead, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}

	return leads, rows.Err()
}

// ApplyTransition runs the lead status state machine against the stored row.
//
// The status update and the history append happen in one transaction, so the
// audit trail can never miss an entry for an applied change. conversion_date
// is set in the same UPDATE when the lead transitions into Converted and is
// never touched otherwise.
//
// Returns the fresh row and whether a genuine state change occurred this
// call. A no-op transition (old == new) succeeds with changed == false and
// writes nothing. Errors: models.ErrNotFound when the lead does not exist,
// models.ErrLeadConverted when the lead is already terminal.
func (r *LeadRepository) ApplyTransition(leadID int64, newStatus models.LeadStatus, actorType string, actorID int64) (*models.Lead, bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldStatus models.LeadStatus
	err = tx.QueryRow(`SELECT lead_status FROM leads WHERE id = $1`, leadID).Scan(&oldStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, models.ErrNotFound
		}
		return nil, false, err
	}

	switch models.CheckTransition(oldStatus, newStatus) {
	case models.TransitionRejected:
		return nil, false, models.ErrLeadConverted
	case models.TransitionNoop:
		lead, err := scanLead(tx.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE id = $1`, leadID).Scan)
		if err != nil {
			return nil, false, err
		}
		return lead, false, tx.Commit()
	}

	now := time.Now()

	_, err = tx.Exec(`
		UPDATE leads
		SET lead_status = $1,
		    conversion_date = CASE WHEN $1 = 'Converted' THEN $2 ELSE conversion_date END
		WHERE id = $3
	`, newStatus, now, leadID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update lead status: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO lead_status_history (lead_id, old_status, new_status, changed_by_type, changed_by_id, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, leadID, oldStatus, newStatus, actorType, actorID, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to record status history: %w", err)
	}

	lead, err := scanLead(tx.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE id = $1`, leadID).Scan)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transition: %w", err)
	}

	return lead, true, nil
}

// History returns the audit trail for a lead, oldest first
func (r *LeadRepository) History(leadID int64) ([]models.LeadStatusChange, error) {
	query := `
		SELECT id, lead_id, old_status, new_status, changed_by_type, changed_by_id, changed_at
		FROM lead_status_history
		WHERE lead_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []models.LeadStatusChange
	for rows.Next() {
		var change models.LeadStatusChange
		err := rows.Scan(&change.ID, &change.LeadID, &change.OldStatus, &change.NewStatus,
			&change.ChangedByType, &change.ChangedByID, &change.ChangedAt)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}

	return changes, rows.Err()
}
