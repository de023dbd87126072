package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadStatus(t *testing.T) {
	for _, status := range AllLeadStatuses {
		parsed, err := ParseLeadStatus(string(status))
		assert.NoError(t, err)
		assert.Equal(t, status, parsed)
	}
}

func TestParseLeadStatusInvalid(t *testing.T) {
	cases := []string{"", "pending", "converted", "InProcess", "Done", "Not-Converted"}
	for _, raw := range cases {
		_, err := ParseLeadStatus(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
		assert.True(t, errors.Is(err, ErrInvalidLeadStatus))
	}
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name string
		old  LeadStatus
		next LeadStatus
		want TransitionOutcome
	}{
		{"pending to in-process", LeadStatusPending, LeadStatusInProcess, TransitionApplied},
		{"pending to converted", LeadStatusPending, LeadStatusConverted, TransitionApplied},
		{"pending to not converted", LeadStatusPending, LeadStatusNotConverted, TransitionApplied},
		{"in-process to converted", LeadStatusInProcess, LeadStatusConverted, TransitionApplied},
		{"not converted back to pending", LeadStatusNotConverted, LeadStatusPending, TransitionApplied},
		{"not converted to converted", LeadStatusNotConverted, LeadStatusConverted, TransitionApplied},

		{"pending to pending", LeadStatusPending, LeadStatusPending, TransitionNoop},
		{"in-process to in-process", LeadStatusInProcess, LeadStatusInProcess, TransitionNoop},
		{"not converted to not converted", LeadStatusNotConverted, LeadStatusNotConverted, TransitionNoop},

		{"converted to pending", LeadStatusConverted, LeadStatusPending, TransitionRejected},
		{"converted to in-process", LeadStatusConverted, LeadStatusInProcess, TransitionRejected},
		{"converted to not converted", LeadStatusConverted, LeadStatusNotConverted, TransitionRejected},
		{"converted to converted", LeadStatusConverted, LeadStatusConverted, TransitionRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckTransition(tt.old, tt.next))
		})
	}
}
