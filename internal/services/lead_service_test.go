package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partner-portal-service/internal/models"
	"partner-portal-service/internal/repository"
)

type fakeLeadStore struct {
	leads   map[int64]*models.Lead
	history []models.LeadStatusChange
	nextID  int64
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{
		leads:  make(map[int64]*models.Lead),
		nextID: 1,
	}
}

func (f *fakeLeadStore) add(lead *models.Lead) *models.Lead {
	lead.ID = f.nextID
	f.nextID++
	if lead.LeadStatus == "" {
		lead.LeadStatus = models.LeadStatusPending
	}
	f.leads[lead.ID] = lead
	return lead
}

func (f *fakeLeadStore) Create(lead *models.Lead) error {
	lead.LeadStatus = models.LeadStatusPending
	lead.CreatedAt = time.Now()
	f.add(lead)
	return nil
}

func (f *fakeLeadStore) GetByID(leadID int64) (*models.Lead, error) {
	lead, ok := f.leads[leadID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *lead
	return &copied, nil
}

func (f *fakeLeadStore) HasLeadWithMobile(partnerID int64, mobile string) (bool, error) {
	for _, lead := range f.leads {
		if lead.PartnerID == partnerID && lead.Mobile == mobile {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLeadStore) ListAdmin(filter repository.LeadFilter) ([]models.Lead, error) {
	var out []models.Lead
	for _, lead := range f.leads {
		if filter.PartnerID != 0 && lead.PartnerID != filter.PartnerID {
			continue
		}
		if filter.Status != "" && lead.LeadStatus != filter.Status {
			continue
		}
		out = append(out, *lead)
	}
	return out, nil
}

func (f *fakeLeadStore) ListForPartner(partnerID int64) ([]models.Lead, error) {
	return f.ListAdmin(repository.LeadFilter{PartnerID: partnerID})
}

func (f *fakeLeadStore) ApplyTransition(leadID int64, newStatus models.LeadStatus, actorType string, actorID int64) (*models.Lead, bool, error) {
	lead, ok := f.leads[leadID]
	if !ok {
		return nil, false, models.ErrNotFound
	}

	switch models.CheckTransition(lead.LeadStatus, newStatus) {
	case models.TransitionRejected:
		return nil, false, models.ErrLeadConverted
	case models.TransitionNoop:
		copied := *lead
		return &copied, false, nil
	}

	now := time.Now()
	f.history = append(f.history, models.LeadStatusChange{
		LeadID:        leadID,
		OldStatus:     lead.LeadStatus,
		NewStatus:     newStatus,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangedAt:     now,
	})
	lead.LeadStatus = newStatus
	if newStatus == models.LeadStatusConverted {
		lead.ConversionDate = &now
	}
	copied := *lead
	return &copied, true, nil
}

func (f *fakeLeadStore) History(leadID int64) ([]models.LeadStatusChange, error) {
	var out []models.LeadStatusChange
	for _, change := range f.history {
		if change.LeadID == leadID {
			out = append(out, change)
		}
	}
	return out, nil
}

type fakePaymentStore struct {
	byID      map[int64]*models.Payment
	byLead    map[int64]*models.Payment
	nextID    int64
	createErr error
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{
		byID:   make(map[int64]*models.Payment),
		byLead: make(map[int64]*models.Payment),
		nextID: 1,
	}
}

func (f *fakePaymentStore) ExistsForLead(leadID int64) (bool, error) {
	_, ok := f.byLead[leadID]
	return ok, nil
}

func (f *fakePaymentStore) Create(payment *models.Payment) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	if _, ok := f.byLead[payment.LeadID]; ok {
		return false, nil
	}
	payment.ID = f.nextID
	f.nextID++
	payment.Status = models.PaymentStatusPending
	payment.CreatedAt = time.Now()
	copied := *payment
	f.byID[payment.ID] = &copied
	f.byLead[payment.LeadID] = &copied
	return true, nil
}

func (f *fakePaymentStore) GetByID(paymentID int64) (*models.Payment, error) {
	payment, ok := f.byID[paymentID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *payment
	return &copied, nil
}

func (f *fakePaymentStore) Release(paymentID int64) (bool, error) {
	payment, ok := f.byID[paymentID]
	if !ok {
		return false, models.ErrNotFound
	}
	if payment.Status == models.PaymentStatusReleased {
		return false, nil
	}
	now := time.Now()
	payment.Status = models.PaymentStatusReleased
	payment.ReleasedDate = &now
	return true, nil
}

func (f *fakePaymentStore) ListAdmin(filter repository.PaymentFilter) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range f.byID {
		if filter.PartnerID != 0 && payment.PartnerID != filter.PartnerID {
			continue
		}
		if filter.Status != "" && payment.Status != filter.Status {
			continue
		}
		out = append(out, *payment)
	}
	return out, nil
}

func (f *fakePaymentStore) ListForPartner(partnerID int64) ([]models.Payment, error) {
	return f.ListAdmin(repository.PaymentFilter{PartnerID: partnerID})
}

type fakeAmounts struct {
	amount  float64
	dueDays int
}

func (f fakeAmounts) ConversionAmount() float64 { return f.amount }
func (f fakeAmounts) DueDays() int              { return f.dueDays }

func newTestLeadService() (*LeadService, *fakeLeadStore, *fakePaymentStore) {
	leads := newFakeLeadStore()
	payments := newFakePaymentStore()
	paymentService := NewPaymentService(payments, fakeAmounts{amount: 10000, dueDays: 15})
	return NewLeadService(leads, paymentService), leads, payments
}

func TestUpdateStatusAppliesTransition(t *testing.T) {
	svc, leads, payments := newTestLeadService()
	lead := leads.add(&models.Lead{PartnerID: 3, StudentName: "Ravi", Mobile: "9876543210"})

	updated, err := svc.UpdateStatus(lead.ID, "In-Process", models.UserTypeAdmin, 1)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusInProcess, updated.LeadStatus)
	assert.Nil(t, updated.ConversionDate)

	history, err := svc.History(lead.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.LeadStatusPending, history[0].OldStatus)
	assert.Equal(t, models.LeadStatusInProcess, history[0].NewStatus)
	assert.Equal(t, models.UserTypeAdmin, history[0].ChangedByType)
	assert.Equal(t, int64(1), history[0].ChangedByID)

	assert.Empty(t, payments.byID, "no payment before conversion")
}

func TestUpdateStatusConversionDerivesPayment(t *testing.T) {
	svc, leads, payments := newTestLeadService()
	lead := leads.add(&models.Lead{PartnerID: 3, StudentName: "Ravi", Mobile: "9876543210"})

	updated, err := svc.UpdateStatus(lead.ID, "Converted", models.UserTypeAdmin, 1)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusConverted, updated.LeadStatus)
	require.NotNil(t, updated.ConversionDate)

	payment := payments.byLead[lead.ID]
	require.NotNil(t, payment, "conversion must derive a payment")
	assert.Equal(t, int64(3), payment.PartnerID)
	assert.Equal(t, 10000.0, payment.Amount)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	require.NotNil(t, payment.DueDate)
	assert.Equal(t, updated.ConversionDate.AddDate(0, 0, 15).Unix(), payment.DueDate.Unix())
}

func TestUpdateStatusNoopWritesNothing(t *testing.T) {
	svc, leads, payments := newTestLeadService()
	lead := leads.add(&models.Lead{PartnerID: 3, Mobile: "9876543210"})

	updated, err := svc.UpdateStatus(lead.ID, "Pending", models.UserTypeAdmin, 1)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusPending, updated.LeadStatus)

	assert.Empty(t, leads.history, "no-op must not write history")
	assert.Empty(t, payments.byID)
}

func TestUpdateStatusConvertedIsTerminal(t *testing.T) {
	svc, leads, _ := newTestLeadService()
	lead := leads.add(&models.Lead{PartnerID: 3, Mobile: "9876543210", LeadStatus: models.LeadStatusConverted})

	for _, next := range []string{"Pending", "In-Process", "Not Converted", "Converted"} {
		_, err := svc.UpdateStatus(lead.ID, next, models.UserTypeAdmin, 1)
		assert.ErrorIs(t, err, models.ErrLeadConverted, "transition to %q", next)
	}
	assert.Empty(t, leads.history)
}

func TestUpdateStatusInvalidStatusRejectedAtBoundary(t *testing.T) {
	svc, leads, _ := newTestLeadService()
	lead := leads.add(&models.Lead{PartnerID: 3, Mobile: "9876543210"})

	_, err := svc.UpdateStatus(lead.ID, "Done", models.UserTypeAdmin, 1)
	assert.ErrorIs(t, err, models.ErrInvalidLeadStatus)
	assert.Empty(t, leads.history)
}

func TestUpdateStatusLeadNotFound(t *testing.T) {
	svc, _, _ := newTestLeadService()

	_, err := svc.UpdateStatus(99, "Converted", models.UserTypeAdmin, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateStatusDerivationFailureSurfaces(t *testing.T) {
	leads := newFakeLeadStore()
	payments := newFakePaymentStore()
	payments.createErr = errors.New("db down")
	svc := NewLeadService(leads, NewPaymentService(payments, fakeAmounts{amount: 10000, dueDays: 15}))

	lead := leads.add(&models.Lead{PartnerID: 3, Mobile: "9876543210"})

	_, err := svc.UpdateStatus(lead.ID, "Converted", models.UserTypeAdmin, 1)
	assert.Error(t, err)
}

func TestCreateFlagsDuplicateMobile(t *testing.T) {
	svc, leads, _ := newTestLeadService()
	leads.add(&models.Lead{PartnerID: 3, Mobile: "9876543210"})

	duplicate, err := svc.Create(&models.Lead{PartnerID: 3, StudentName: "Second", Mobile: "9876543210"})
	require.NoError(t, err)
	assert.True(t, duplicate, "same partner, same mobile must warn")

	duplicate, err = svc.Create(&models.Lead{PartnerID: 4, StudentName: "Other", Mobile: "9876543210"})
	require.NoError(t, err)
	assert.False(t, duplicate, "different partner must not warn")
}
