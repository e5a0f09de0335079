package models

import (
	"time"

	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

// Request is an organizational request routed through an approval chain.
// Once submitted into the pipeline the engine is the sole writer of the
// PendingApproval/Approved/Rejected transitions; sla_violation_notified is
// a monitor-owned deduplication latch.
type Request struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Category             string     `json:"category"`
	RequesterID          string     `json:"requester_id"`
	WorkflowID           *string    `json:"workflow_id,omitempty"`
	Status               string     `json:"status"`
	DueDate              *time.Time `json:"due_date,omitempty"`
	SubmittedAt          *time.Time `json:"submitted_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	SLAViolationNotified bool       `json:"sla_violation_notified"`
	CreatedDate          time.Time  `json:"created_date"`
}

// InFlightStatuses are the request states the SLA scan considers unresolved
var InFlightStatuses = []string{
	constants.RequestStatusSubmitted,
	constants.RequestStatusPendingApproval,
}

// IsInFlight reports whether the request is still moving through approval
func (r *Request) IsInFlight() bool {
	for _, s := range InFlightStatuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// IsOverdue reports whether an in-flight request has passed its due date
func (r *Request) IsOverdue(now time.Time) bool {
	return r.IsInFlight() && r.DueDate != nil && now.After(*r.DueDate)
}
