package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partner-portal-service/internal/models"
)

func newTestPaymentService() (*PaymentService, *fakePaymentStore) {
	payments := newFakePaymentStore()
	return NewPaymentService(payments, fakeAmounts{amount: 10000, dueDays: 15}), payments
}

func convertedLead(id, partnerID int64) *models.Lead {
	now := time.Now()
	return &models.Lead{
		ID:             id,
		PartnerID:      partnerID,
		LeadStatus:     models.LeadStatusConverted,
		ConversionDate: &now,
	}
}

func TestDeriveForConversion(t *testing.T) {
	svc, _ := newTestPaymentService()
	lead := convertedLead(1, 7)

	payment, err := svc.DeriveForConversion(lead)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, int64(7), payment.PartnerID)
	assert.Equal(t, int64(1), payment.LeadID)
	assert.Equal(t, 10000.0, payment.Amount)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	require.NotNil(t, payment.DueDate)
	assert.Equal(t, lead.ConversionDate.AddDate(0, 0, 15).Unix(), payment.DueDate.Unix())
}

func TestDeriveForConversionIsIdempotent(t *testing.T) {
	svc, payments := newTestPaymentService()
	lead := convertedLead(1, 7)

	first, err := svc.DeriveForConversion(lead)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.DeriveForConversion(lead)
	require.NoError(t, err)
	assert.Nil(t, second, "second derivation must be a no-op")
	assert.Len(t, payments.byID, 1)
}

func TestDeriveForConversionSkipsMissingConversionDate(t *testing.T) {
	svc, payments := newTestPaymentService()

	payment, err := svc.DeriveForConversion(&models.Lead{ID: 1, PartnerID: 7, LeadStatus: models.LeadStatusConverted})
	require.NoError(t, err)
	assert.Nil(t, payment)
	assert.Empty(t, payments.byID)
}

func TestDeriveAmountReadAtDerivationTime(t *testing.T) {
	payments := newFakePaymentStore()
	amounts := &mutableAmounts{amount: 10000, dueDays: 15}
	svc := NewPaymentService(payments, amounts)

	first, err := svc.DeriveForConversion(convertedLead(1, 7))
	require.NoError(t, err)
	assert.Equal(t, 10000.0, first.Amount)

	amounts.amount = 12500
	second, err := svc.DeriveForConversion(convertedLead(2, 7))
	require.NoError(t, err)
	assert.Equal(t, 12500.0, second.Amount, "config change must apply to later conversions")
	assert.Equal(t, 10000.0, payments.byLead[1].Amount, "existing payments keep their amount")
}

type mutableAmounts struct {
	amount  float64
	dueDays int
}

func (m *mutableAmounts) ConversionAmount() float64 { return m.amount }
func (m *mutableAmounts) DueDays() int              { return m.dueDays }

func TestReleasePayment(t *testing.T) {
	svc, _ := newTestPaymentService()
	payment, err := svc.DeriveForConversion(convertedLead(1, 7))
	require.NoError(t, err)

	released, changed, err := svc.Release(payment.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.PaymentStatusReleased, released.Status)
	assert.NotNil(t, released.ReleasedDate)
}

func TestReleaseIsIdempotent(t *testing.T) {
	svc, _ := newTestPaymentService()
	payment, err := svc.DeriveForConversion(convertedLead(1, 7))
	require.NoError(t, err)

	_, _, err = svc.Release(payment.ID)
	require.NoError(t, err)

	again, changed, err := svc.Release(payment.ID)
	require.NoError(t, err, "re-releasing must not error")
	assert.False(t, changed)
	assert.Equal(t, models.PaymentStatusReleased, again.Status)
}

func TestPaymentDueDateNullable(t *testing.T) {
	raw, err := json.Marshal(&models.Payment{ID: 1, Status: models.PaymentStatusPending})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"due_date":null`)
}

func TestReleaseNotFound(t *testing.T) {
	svc, _ := newTestPaymentService()

	_, _, err := svc.Release(99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
