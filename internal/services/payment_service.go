package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"partner-portal-service/internal/models"
	"partner-portal-service/internal/repository"
)

// PaymentStore is the payment persistence surface the services need.
type PaymentStore interface {
	ExistsForLead(leadID int64) (bool, error)
	Create(payment *models.Payment) (bool, error)
	GetByID(paymentID int64) (*models.Payment, error)
	Release(paymentID int64) (bool, error)
	ListAdmin(filter repository.PaymentFilter) ([]models.Payment, error)
	ListForPartner(partnerID int64) ([]models.Payment, error)
}

// AmountConfig supplies payout parameters at derivation time, so config
// changes apply to all later conversions without a restart.
type AmountConfig interface {
	ConversionAmount() float64
	DueDays() int
}

type PaymentService struct {
	payments PaymentStore
	amounts  AmountConfig
}

func NewPaymentService(payments PaymentStore, amounts AmountConfig) *PaymentService {
	return &PaymentService{
		payments: payments,
		amounts:  amounts,
	}
}

// DeriveForConversion creates the pending payment owed for a freshly
// converted lead. At most one payment ever exists per lead: the existence
// check is a fast path and the unique index on lead_id settles races. The
// due date is the conversion date plus the configured number of days.
func (s *PaymentService) DeriveForConversion(lead *models.Lead) (*models.Payment, error) {
	if lead.ConversionDate == nil {
		logrus.WithField("lead_id", lead.ID).Warn("Converted lead has no conversion date, skipping payment derivation")
		return nil, nil
	}

	exists, err := s.payments.ExistsForLead(lead.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing payment: %w", err)
	}
	if exists {
		return nil, nil
	}

	dueDate := lead.ConversionDate.AddDate(0, 0, s.amounts.DueDays())
	payment := &models.Payment{
		PartnerID: lead.PartnerID,
		LeadID:    lead.ID,
		Amount:    s.amounts.ConversionAmount(),
		DueDate:   &dueDate,
	}

	created, err := s.payments.Create(payment)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	if !created {
		logrus.WithField("lead_id", lead.ID).Info("Payment already derived for lead")
		return nil, nil
	}

	logrus.WithFields(logrus.Fields{
		"lead_id":    lead.ID,
		"partner_id": lead.PartnerID,
		"payment_id": payment.ID,
		"amount":     payment.Amount,
	}).Info("Payment derived for converted lead")

	return payment, nil
}

// Release marks a pending payment released. Re-releasing is a no-op.
// released reports whether this call changed the payment.
func (s *PaymentService) Release(paymentID int64) (*models.Payment, bool, error) {
	released, err := s.payments.Release(paymentID)
	if err != nil {
		return nil, false, err
	}

	payment, err := s.payments.GetByID(paymentID)
	if err != nil {
		return nil, false, err
	}

	if released {
		logrus.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"partner_id": payment.PartnerID,
			"amount":     payment.Amount,
		}).Info("Payment released")
	}

	return payment, released, nil
}

// ListAdmin returns payments matching the admin filter
func (s *PaymentService) ListAdmin(filter repository.PaymentFilter) ([]models.Payment, error) {
	return s.payments.ListAdmin(filter)
}

// ListForPartner returns a partner's own payments
func (s *PaymentService) ListForPartner(partnerID int64) ([]models.Payment, error) {
	return s.payments.ListForPartner(partnerID)
}
