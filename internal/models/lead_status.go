package models

import "fmt"

// LeadStatus is the workflow state of a lead.
type LeadStatus string

const (
	LeadStatusPending      LeadStatus = "Pending"
	LeadStatusInProcess    LeadStatus = "In-Process"
	LeadStatusConverted    LeadStatus = "Converted"
	LeadStatusNotConverted LeadStatus = "Not Converted"
)

// AllLeadStatuses lists the valid workflow states in their natural order.
var AllLeadStatuses = []LeadStatus{
	LeadStatusPending,
	LeadStatusInProcess,
	LeadStatusConverted,
	LeadStatusNotConverted,
}

// ParseLeadStatus validates a raw status string from the boundary layer.
func ParseLeadStatus(s string) (LeadStatus, error) {
	for _, status := range AllLeadStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLeadStatus, s)
}

// TransitionOutcome classifies an attempted status transition.
type TransitionOutcome int

const (
	// TransitionApplied means the status changes and a history row must be written.
	TransitionApplied TransitionOutcome = iota
	// TransitionNoop means old == new: succeed without a write or history row.
	TransitionNoop
	// TransitionRejected means the lead is already Converted; no change is allowed.
	TransitionRejected
)

// CheckTransition is the single source of truth for the lead state machine.
// Converted is terminal: every transition out of it is rejected, including
// re-asserting Converted. Any other pair is accepted, with old == new treated
// as a no-op.
func CheckTransition(old, next LeadStatus) TransitionOutcome {
	if old == LeadStatusConverted {
		return TransitionRejected
	}
	if old == next {
		return TransitionNoop
	}
	return TransitionApplied
}
