package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"partner-portal-service/internal/models"
)

// PartnerAdminStore is the partner management surface used by admins and by
// partners editing their own profile.
type PartnerAdminStore interface {
	GetByID(partnerID int64) (*models.Partner, error)
	Create(partner *models.Partner) error
	List(page, perPage int, status string) ([]models.Partner, int, error)
	UpdateProfileAdmin(partnerID int64, name string, email *string, status string, shopName, profession, address *string) error
	UpdateProfileSelf(partnerID int64, name string, shopName, profession, email, address *string) error
	SetStatus(partnerID int64, status string) error
	UpdatePassword(partnerID int64, passwordHash string) error
	SoftDelete(partnerID int64) error
}

// SessionRevoker force-logs-out a user's active sessions.
type SessionRevoker interface {
	DeactivateUserSessions(userType string, userID int64) error
}

type PartnerService struct {
	partners  PartnerAdminStore
	passwords *PasswordService
	sessions  SessionRevoker
}

func NewPartnerService(partners PartnerAdminStore, passwords *PasswordService, sessions SessionRevoker) *PartnerService {
	return &PartnerService{
		partners:  partners,
		passwords: passwords,
		sessions:  sessions,
	}
}

// revokeSessions kills the partner's active sessions after deactivation or
// deletion. Failure is logged, not returned: the account change already
// happened and per-request account checks block stale tokens anyway.
func (s *PartnerService) revokeSessions(partnerID int64) {
	if err := s.sessions.DeactivateUserSessions(models.UserTypePartner, partnerID); err != nil {
		logrus.WithError(err).WithField("partner_id", partnerID).Warn("Failed to revoke partner sessions")
	}
}

// Register creates a new partner account with a hashed password. The mobile
// number must not belong to an existing non-deleted partner.
func (s *PartnerService) Register(partner *models.Partner, password string) error {
	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		return err
	}
	partner.PasswordHash = hash

	if err := s.partners.Create(partner); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"partner_id": partner.ID,
		"mobile":     partner.Mobile,
	}).Info("Partner registered")

	return nil
}

// GetByID retrieves a single partner
func (s *PartnerService) GetByID(partnerID int64) (*models.Partner, error) {
	return s.partners.GetByID(partnerID)
}

// List returns a page of partners, optionally filtered by status
func (s *PartnerService) List(page, perPage int, status string) ([]models.Partner, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.partners.List(page, perPage, status)
}

// UpdateByAdmin applies an admin edit to a partner's profile and status
func (s *PartnerService) UpdateByAdmin(partnerID int64, name string, email *string, status string, shopName, profession, address *string) (*models.Partner, error) {
	if status != models.PartnerStatusActive && status != models.PartnerStatusInactive {
		return nil, fmt.Errorf("invalid partner status: %s", status)
	}
	if err := s.partners.UpdateProfileAdmin(partnerID, name, email, status, shopName, profession, address); err != nil {
		return nil, err
	}
	if status == models.PartnerStatusInactive {
		s.revokeSessions(partnerID)
	}
	return s.partners.GetByID(partnerID)
}

// UpdateOwnProfile applies a partner's edit to their own profile. Status and
// mobile are not editable by the partner.
func (s *PartnerService) UpdateOwnProfile(partnerID int64, name string, shopName, profession, email, address *string) (*models.Partner, error) {
	if err := s.partners.UpdateProfileSelf(partnerID, name, shopName, profession, email, address); err != nil {
		return nil, err
	}
	return s.partners.GetByID(partnerID)
}

// SetStatus activates or deactivates a partner account
func (s *PartnerService) SetStatus(partnerID int64, status string) error {
	if status != models.PartnerStatusActive && status != models.PartnerStatusInactive {
		return fmt.Errorf("invalid partner status: %s", status)
	}
	if _, err := s.partners.GetByID(partnerID); err != nil {
		return err
	}
	if err := s.partners.SetStatus(partnerID, status); err != nil {
		return err
	}
	if status == models.PartnerStatusInactive {
		s.revokeSessions(partnerID)
	}
	return nil
}

// ChangePassword verifies the partner's current password and stores a new
// hash. Other sessions stay valid; revocation is a separate logout concern.
func (s *PartnerService) ChangePassword(partnerID int64, currentPassword, newPassword string) error {
	partner, err := s.partners.GetByID(partnerID)
	if err != nil {
		return err
	}

	if err := s.passwords.VerifyPassword(currentPassword, partner.PasswordHash); err != nil {
		return models.ErrInvalidCredentials
	}

	if err := s.passwords.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.partners.UpdatePassword(partnerID, hash)
}

// ResetPassword sets a new password without the current one. Admin use only.
func (s *PartnerService) ResetPassword(partnerID int64, newPassword string) error {
	if _, err := s.partners.GetByID(partnerID); err != nil {
		return err
	}

	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.partners.UpdatePassword(partnerID, hash)
}

// Delete soft-deletes a partner. The row and its leads and payments are
// kept for reporting, but the partner can no longer log in.
func (s *PartnerService) Delete(partnerID int64) error {
	if _, err := s.partners.GetByID(partnerID); err != nil {
		return err
	}
	if err := s.partners.SoftDelete(partnerID); err != nil {
		return err
	}
	s.revokeSessions(partnerID)

	logrus.WithField("partner_id", partnerID).Info("Partner deleted")
	return nil
}
