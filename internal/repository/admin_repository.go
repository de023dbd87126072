package repository

import (
	"database/sql"

	"partner-portal-service/internal/models"
)

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{
		db: db,
	}
}

// GetByEmail retrieves an admin by email
func (r *AdminRepository) GetByEmail(email string) (*models.Admin, error) {
	query := `
		SELECT id, email, password_hash, name, is_active, created_at
		FROM admins WHERE email = $1
		LIMIT 1
	`

	admin := &models.Admin{}
	err := r.db.QueryRow(query, email).Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Name, &admin.IsActive, &admin.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	return admin, nil
}

// GetByID retrieves an admin by ID
func (r *AdminRepository) GetByID(adminID int64) (*models.Admin, error) {
	query := `
		SELECT id, email, password_hash, name, is_active, created_at
		FROM admins WHERE id = $1
	`

	admin := &models.Admin{}
	err := r.db.QueryRow(query, adminID).Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Name, &admin.IsActive, &admin.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	return admin, nil
}

// Count returns the number of admin accounts
func (r *AdminRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&count)
	return count, err
}

// Create inserts a new admin account
func (r *AdminRepository) Create(admin *models.Admin) error {
	query := `
		INSERT INTO admins (email, password_hash, name, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.db.QueryRow(query, admin.Email, admin.PasswordHash, admin.Name, admin.IsActive).
		Scan(&admin.ID, &admin.CreatedAt)
}
