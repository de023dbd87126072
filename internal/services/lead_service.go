package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"partner-portal-service/internal/models"
	"partner-portal-service/internal/repository"
)

// LeadStore is the lead persistence surface the lead service needs.
type LeadStore interface {
	Create(lead *models.Lead) error
	GetByID(leadID int64) (*models.Lead, error)
	HasLeadWithMobile(partnerID int64, mobile string) (bool, error)
	ListAdmin(filter repository.LeadFilter) ([]models.Lead, error)
	ListForPartner(partnerID int64) ([]models.Lead, error)
	ApplyTransition(leadID int64, newStatus models.LeadStatus, actorType string, actorID int64) (*models.Lead, bool, error)
	History(leadID int64) ([]models.LeadStatusChange, error)
}

type LeadService struct {
	leads    LeadStore
	payments *PaymentService
}

func NewLeadService(leads LeadStore, payments *PaymentService) *LeadService {
	return &LeadService{
		leads:    leads,
		payments: payments,
	}
}

// Create registers a new referral for a partner. If the partner already
// referred the same mobile number the lead is still created, but the caller
// gets a duplicate warning to surface to the user.
func (s *LeadService) Create(lead *models.Lead) (duplicate bool, err error) {
	duplicate, err = s.leads.HasLeadWithMobile(lead.PartnerID, lead.Mobile)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate lead: %w", err)
	}

	if err := s.leads.Create(lead); err != nil {
		return false, fmt.Errorf("failed to create lead: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"lead_id":    lead.ID,
		"partner_id": lead.PartnerID,
		"duplicate":  duplicate,
	}).Info("Lead created")

	return duplicate, nil
}

// UpdateStatus applies a status transition on behalf of an actor and, when
// the lead just entered Converted, derives the partner's payment. A no-op
// transition (same status) succeeds without touching history or payments.
//
// rawStatus is validated here, at the boundary: an unknown status never
// reaches the state machine. Errors: models.ErrInvalidLeadStatus,
// models.ErrNotFound, models.ErrLeadConverted.
func (s *LeadService) UpdateStatus(leadID int64, rawStatus, actorType string, actorID int64) (*models.Lead, error) {
	newStatus, err := models.ParseLeadStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	lead, changed, err := s.leads.ApplyTransition(leadID, newStatus, actorType, actorID)
	if err != nil {
		return nil, err
	}

	if changed {
		logrus.WithFields(logrus.Fields{
			"lead_id":    leadID,
			"new_status": newStatus,
			"actor_type": actorType,
			"actor_id":   actorID,
		}).Info("Lead status updated")
	}

	if changed && newStatus == models.LeadStatusConverted {
		if _, err := s.payments.DeriveForConversion(lead); err != nil {
			return nil, fmt.Errorf("lead converted but payment derivation failed: %w", err)
		}
	}

	return lead, nil
}

// GetByID retrieves a single lead
func (s *LeadService) GetByID(leadID int64) (*models.Lead, error) {
	return s.leads.GetByID(leadID)
}

// ListAdmin returns leads matching the admin filter
func (s *LeadService) ListAdmin(filter repository.LeadFilter) ([]models.Lead, error) {
	return s.leads.ListAdmin(filter)
}

// ListForPartner returns a partner's own leads
func (s *LeadService) ListForPartner(partnerID int64) ([]models.Lead, error) {
	return s.leads.ListForPartner(partnerID)
}

// History returns the audit trail of status changes for a lead
func (s *LeadService) History(leadID int64) ([]models.LeadStatusChange, error) {
	if _, err := s.leads.GetByID(leadID); err != nil {
		return nil, err
	}
	return s.leads.History(leadID)
}
