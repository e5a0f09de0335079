package models

import (
	"time"

	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

// Approval is a per-approver task record tracking one person's vote at a
// given level. Created in bulk by the instantiator; mutated exactly once by
// the decision that resolves it. The escalation_notified flag is a one-way
// deduplication latch owned by the monitor, not a workflow-state signal.
type Approval struct {
	ID                 string          `json:"id"`
	RequestID          string          `json:"request_id"`
	ApproverID         string          `json:"approver_id"`
	Level              int             `json:"level"`
	StepOrder          int             `json:"step_order"`
	Status             string          `json:"status"`
	Comments           string          `json:"comments,omitempty"`
	Timeout            *int            `json:"timeout_hours,omitempty"`
	Escalation         *ApproverTarget `json:"escalation,omitempty"`
	EscalationNotified bool            `json:"escalation_notified"`
	CreatedDate        time.Time       `json:"created_date"`
	ReviewedAt         *time.Time      `json:"reviewed_at,omitempty"`
}

// IsPending reports whether the approval still awaits a decision
func (a *Approval) IsPending() bool {
	return a.Status == constants.ApprovalStatusPending
}

// IsTerminal reports whether a decision has been recorded. Terminal
// approvals are immutable except for the monitor's bookkeeping flag.
func (a *Approval) IsTerminal() bool {
	switch a.Status {
	case constants.ApprovalStatusApproved, constants.ApprovalStatusRejected, constants.ApprovalStatusReturned:
		return true
	}
	return false
}

// IsOverdue reports whether a pending approval has sat past its configured
// timeout as of now. Approvals without a positive timeout never go overdue.
func (a *Approval) IsOverdue(now time.Time) bool {
	if !a.IsPending() || a.Timeout == nil || *a.Timeout <= 0 {
		return false
	}
	deadline := a.CreatedDate.Add(time.Duration(*a.Timeout) * time.Hour)
	return now.After(deadline)
}
