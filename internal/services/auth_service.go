package services

import (
	"fmt"
	"time"

	"partner-portal-service/internal/models"
)

// AdminStore is the admin lookup surface the auth service needs.
type AdminStore interface {
	GetByEmail(email string) (*models.Admin, error)
	GetByID(adminID int64) (*models.Admin, error)
}

// PartnerStore is the partner lookup surface the auth service needs.
type PartnerStore interface {
	GetByMobile(mobile string) (*models.Partner, error)
	GetByID(partnerID int64) (*models.Partner, error)
}

// SessionStore is the session ledger. Every issued access token gets a row
// keyed by its jti, and the ledger is the revocation authority.
type SessionStore interface {
	RecordLogin(userType string, userID int64, ipAddress, userAgent, tokenID string) error
	Deactivate(tokenID string) error
	IsActive(tokenID string) (bool, error)
	ListForUser(userType string, userID int64, limit int) ([]models.LoginSession, error)
}

type AuthService struct {
	admins     AdminStore
	partners   PartnerStore
	sessions   SessionStore
	jwtService *JWTService
	passwords  *PasswordService
}

func NewAuthService(admins AdminStore, partners PartnerStore, sessions SessionStore, jwtService *JWTService, passwords *PasswordService) *AuthService {
	return &AuthService{
		admins:     admins,
		partners:   partners,
		sessions:   sessions,
		jwtService: jwtService,
		passwords:  passwords,
	}
}

// AdminLogin authenticates an admin by email and password and records the
// issued access token in the session ledger.
func (s *AuthService) AdminLogin(email, password, ipAddress, userAgent string) (*models.Admin, string, string, error) {
	admin, err := s.admins.GetByEmail(email)
	if err != nil {
		if err == models.ErrNotFound {
			return nil, "", "", models.ErrInvalidCredentials
		}
		return nil, "", "", fmt.Errorf("failed to look up admin: %w", err)
	}

	if err := s.passwords.VerifyPassword(password, admin.PasswordHash); err != nil {
		return nil, "", "", models.ErrInvalidCredentials
	}

	if !admin.IsActive {
		return nil, "", "", models.ErrAccountInactive
	}

	accessToken, refreshToken, err := s.issueTokens(models.UserTypeAdmin, admin.ID, admin.Name, ipAddress, userAgent)
	if err != nil {
		return nil, "", "", err
	}

	return admin, accessToken, refreshToken, nil
}

// PartnerLogin authenticates a partner by mobile number and password.
// Soft-deleted and inactive partners cannot log in.
func (s *AuthService) PartnerLogin(mobile, password, ipAddress, userAgent string) (*models.Partner, string, string, error) {
	partner, err := s.partners.GetByMobile(mobile)
	if err != nil {
		if err == models.ErrNotFound {
			return nil, "", "", models.ErrInvalidCredentials
		}
		return nil, "", "", fmt.Errorf("failed to look up partner: %w", err)
	}

	if err := s.passwords.VerifyPassword(password, partner.PasswordHash); err != nil {
		return nil, "", "", models.ErrInvalidCredentials
	}

	// A deleted partner is indistinguishable from a missing one.
	if partner.IsDeleted {
		return nil, "", "", models.ErrInvalidCredentials
	}
	if partner.Status != models.PartnerStatusActive {
		return nil, "", "", models.ErrAccountInactive
	}

	accessToken, refreshToken, err := s.issueTokens(models.UserTypePartner, partner.ID, partner.Name, ipAddress, userAgent)
	if err != nil {
		return nil, "", "", err
	}

	return partner, accessToken, refreshToken, nil
}

func (s *AuthService) issueTokens(userType string, userID int64, name, ipAddress, userAgent string) (string, string, error) {
	accessToken, jti, err := s.jwtService.GenerateAccessToken(userID, userType, name)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(userID, userType)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.sessions.RecordLogin(userType, userID, ipAddress, userAgent, jti); err != nil {
		return "", "", fmt.Errorf("failed to record login session: %w", err)
	}

	return accessToken, refreshToken, nil
}

// Refresh exchanges a valid refresh token for a new access token. The new
// token's jti is recorded as a fresh ledger row so it can be revoked later.
func (s *AuthService) Refresh(refreshToken, ipAddress, userAgent string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", models.ErrInvalidCredentials
	}

	name, err := s.accountName(claims.Role, claims.UserID)
	if err != nil {
		return "", err
	}

	accessToken, jti, err := s.jwtService.GenerateAccessToken(claims.UserID, claims.Role, name)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	if err := s.sessions.RecordLogin(claims.Role, claims.UserID, ipAddress, userAgent, jti); err != nil {
		return "", fmt.Errorf("failed to record login session: %w", err)
	}

	return accessToken, nil
}

// accountName re-verifies the account still exists and is usable before a
// refreshed token is issued.
func (s *AuthService) accountName(role string, userID int64) (string, error) {
	switch role {
	case models.UserTypeAdmin:
		admin, err := s.admins.GetByID(userID)
		if err != nil {
			return "", models.ErrInvalidCredentials
		}
		if !admin.IsActive {
			return "", models.ErrAccountInactive
		}
		return admin.Name, nil
	case models.UserTypePartner:
		partner, err := s.partners.GetByID(userID)
		if err != nil || partner.IsDeleted {
			return "", models.ErrInvalidCredentials
		}
		if partner.Status != models.PartnerStatusActive {
			return "", models.ErrAccountInactive
		}
		return partner.Name, nil
	}
	return "", models.ErrInvalidCredentials
}

// GetAdmin retrieves an admin account by id
func (s *AuthService) GetAdmin(adminID int64) (*models.Admin, error) {
	return s.admins.GetByID(adminID)
}

// GetPartner retrieves a partner account by id
func (s *AuthService) GetPartner(partnerID int64) (*models.Partner, error) {
	return s.partners.GetByID(partnerID)
}

// GetTokenExpiry returns the access token lifetime
func (s *AuthService) GetTokenExpiry() time.Duration {
	return s.jwtService.GetTokenExpiry()
}

// Sessions returns the caller's recent login history from the ledger.
func (s *AuthService) Sessions(role string, userID int64, limit int) ([]models.LoginSession, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.sessions.ListForUser(role, userID, limit)
}

// Logout revokes the presented access token by deactivating its ledger row.
// Revoking an already revoked token succeeds quietly.
func (s *AuthService) Logout(tokenID string) error {
	return s.sessions.Deactivate(tokenID)
}

// ValidateToken checks the token signature and the session ledger. A token
// whose jti has been deactivated is rejected even if the signature is valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	active, err := s.sessions.IsActive(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if !active {
		return nil, fmt.Errorf("session revoked")
	}

	return claims, nil
}
