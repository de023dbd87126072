package repository

import (
	"database/sql"
	"fmt"

	"partner-portal-service/internal/models"
)

type PartnerRepository struct {
	db *sql.DB
}

func NewPartnerRepository(db *sql.DB) *PartnerRepository {
	return &PartnerRepository{
		db: db,
	}
}

const partnerColumns = `id, name, mobile, email, password_hash, status, is_deleted, shop_name, profession, address, created_at`

func scanPartner(row *sql.Row) (*models.Partner, error) {
	partner := &models.Partner{}
	var email, shopName, profession, address sql.NullString

	err := row.Scan(
		&partner.ID, &partner.Name, &partner.Mobile, &email, &partner.PasswordHash,
		&partner.Status, &partner.IsDeleted, &shopName, &profession, &address, &partner.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	if email.Valid {
		partner.Email = &email.String
	}
	if shopName.Valid {
		partner.ShopName = &shopName.String
	}
	if profession.Valid {
		partner.Profession = &profession.String
	}
	if address.Valid {
		partner.Address = &address.String
	}

	return partner, nil
}

// GetByMobile retrieves a live partner by mobile number (the partner login
// id). Soft-deleted rows are excluded, which also keeps the lookup unique
// once a deleted partner's mobile has been reused.
func (r *PartnerRepository) GetByMobile(mobile string) (*models.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE mobile = $1 AND is_deleted = false`
	return scanPartner(r.db.QueryRow(query, mobile))
}

// GetByID retrieves a partner by primary key
func (r *PartnerRepository) GetByID(partnerID int64) (*models.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE id = $1`
	return scanPartner(r.db.QueryRow(query, partnerID))
}

// Create inserts a new partner. The caller supplies an already-hashed password.
// Returns models.ErrDuplicateMobile when the mobile is taken by a non-deleted
// partner.
func (r *PartnerRepository) Create(partner *models.Partner) error {
	existing, err := r.GetByMobile(partner.Mobile)
	if err != nil && err != models.ErrNotFound {
		return err
	}
	if existing != nil {
		return models.ErrDuplicateMobile
	}

	query := `
		INSERT INTO partners (name, mobile, email, password_hash, status, is_deleted, shop_name, profession, address, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	if partner.Status == "" {
		partner.Status = models.PartnerStatusActive
	}

	return r.db.QueryRow(query, partner.Name, partner.Mobile, partner.Email, partner.PasswordHash,
		partner.Status, partner.ShopName, partner.Profession, partner.Address).
		Scan(&partner.ID, &partner.CreatedAt)
}

// List returns a page of non-deleted partners, optionally filtered by status,
// together with the total count for pagination.
func (r *PartnerRepository) List(page, perPage int, status string) ([]models.Partner, int, error) {
	where := "is_deleted = false"
	args := []interface{}{}
	argIndex := 1

	if status == models.PartnerStatusActive || status == models.PartnerStatusInactive {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM partners WHERE ` + where
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	listQuery := fmt.Sprintf(`
		SELECT %s FROM partners
		WHERE %s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d
	`, partnerColumns, where, argIndex, argIndex+1)
	args = append(args, perPage, offset)

	rows, err := r.db.Query(listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var partners []models.Partner
	for rows.Next() {
		var partner models.Partner
		var email, shopName, profession, address sql.NullString

		err := rows.Scan(
			&partner.ID, &partner.Name, &partner.Mobile, &email, &partner.PasswordHash,
			&partner.Status, &partner.IsDeleted, &shopName, &profession, &address, &partner.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}

		if email.Valid {
			partner.Email = &email.String
		}
		if shopName.Valid {
			partner.ShopName = &shopName.String
		}
		if profession.Valid {
			partner.Profession = &profession.String
		}
		if address.Valid {
			partner.Address = &address.String
		}

		partners = append(partners, partner)
	}

	return partners, total, rows.Err()
}

// UpdateProfileAdmin updates the admin-editable fields of a partner profile.
// Mobile and password are intentionally not updatable here.
func (r *PartnerRepository) UpdateProfileAdmin(partnerID int64, name string, email *string, status string, shopName, profession, address *string) error {
	query := `
		UPDATE partners
		SET name = $2, email = $3, status = $4, shop_name = $5, profession = $6, address = $7
		WHERE id = $1 AND is_deleted = false
	`
	_, err := r.db.Exec(query, partnerID, name, email, status, shopName, profession, address)
	return err
}

// UpdateProfileSelf updates the partner-editable fields of their own profile.
func (r *PartnerRepository) UpdateProfileSelf(partnerID int64, name string, shopName, profession, email, address *string) error {
	query := `
		UPDATE partners
		SET name = $2, shop_name = $3, profession = $4, email = $5, address = $6
		WHERE id = $1 AND is_deleted = false
	`
	_, err := r.db.Exec(query, partnerID, name, shopName, profession, email, address)
	return err
}

// SetStatus activates or deactivates a partner account
func (r *PartnerRepository) SetStatus(partnerID int64, status string) error {
	query := `UPDATE partners SET status = $2 WHERE id = $1 AND is_deleted = false`
	_, err := r.db.Exec(query, partnerID, status)
	return err
}

// UpdatePassword replaces a partner's password hash
func (r *PartnerRepository) UpdatePassword(partnerID int64, passwordHash string) error {
	query := `UPDATE partners SET password_hash = $2 WHERE id = $1 AND is_deleted = false`
	_, err := r.db.Exec(query, partnerID, passwordHash)
	return err
}

// SoftDelete marks a partner deleted. Deleted partners cannot log in or
// create leads, but their rows (and their leads and payments) are kept.
func (r *PartnerRepository) SoftDelete(partnerID int64) error {
	query := `UPDATE partners SET is_deleted = true WHERE id = $1`
	_, err := r.db.Exec(query, partnerID)
	return err
}
