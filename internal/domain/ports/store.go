package ports

import (
	"context"
	"time"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
)

// WorkflowStore reads workflow definitions. Definitions are authored
// externally and read-only to the engine; GetWorkflow returns the steps
// hydrated and ordered by (level, step_order).
type WorkflowStore interface {
	GetWorkflow(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	ListActiveWorkflows(ctx context.Context) ([]*models.WorkflowDefinition, error)
}

// RequestStore reads and mutates request rows. The engine is the sole
// writer of the approval-pipeline status transitions.
type RequestStore interface {
	GetRequest(ctx context.Context, id string) (*models.Request, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// MarkSubmitted binds the chosen workflow and stamps submission time
	MarkSubmitted(ctx context.Context, id, workflowID, status string, at time.Time) error
	// FinalizeApproved sets the terminal Approved status with a completion stamp
	FinalizeApproved(ctx context.Context, id string, completedAt time.Time) error
	// ListOverdue returns in-flight requests whose due date passed and whose
	// SLA violation latch is still unset
	ListOverdue(ctx context.Context, now time.Time) ([]*models.Request, error)
	MarkSLAViolationNotified(ctx context.Context, ids []string) error
}

// ApprovalStore reads and mutates approval rows
type ApprovalStore interface {
	CreateApprovals(ctx context.Context, approvals []*models.Approval) error
	GetApproval(ctx context.Context, id string) (*models.Approval, error)
	// RecordDecision sets the terminal status, comments and review stamp on
	// a still-pending approval. Returns the number of rows changed so the
	// caller can detect a lost race against a concurrent decision.
	RecordDecision(ctx context.Context, id, status, comments string, reviewedAt time.Time) (int64, error)
	ListByRequestAndLevel(ctx context.Context, requestID string, level int) ([]*models.Approval, error)
	ListByRequest(ctx context.Context, requestID string) ([]*models.Approval, error)
	ListPendingForApprover(ctx context.Context, approverID string) ([]*models.Approval, error)
	// ListPendingAboveLevel returns pending approvals with level strictly
	// greater than the given level, ordered by level ascending
	ListPendingAboveLevel(ctx context.Context, requestID string, level int) ([]*models.Approval, error)
	HasPending(ctx context.Context, requestID string) (bool, error)
	// ListOverduePending returns pending approvals with a positive timeout
	// whose deadline has passed and whose escalation latch is still unset
	ListOverduePending(ctx context.Context, now time.Time) ([]*models.Approval, error)
	MarkEscalationNotified(ctx context.Context, ids []string) error
}

// Directory resolves users and role membership. Role fan-out is resolved
// at instantiation time for approvals and re-resolved at scan time for
// escalations, so membership changes are picked up dynamically.
type Directory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListRoleMembers(ctx context.Context, roleID string) ([]*models.User, error)
}
