package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/cihat41/ReqPortal-sub000/internal/domain"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/ports"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
	appErrors "github.com/cihat41/ReqPortal-sub000/pkg/errors"
)

// txRunner runs a function inside a store transaction. The persistence
// TransactionManager implements it; tests substitute a pass-through.
type txRunner interface {
	RunWithRetry(ctx context.Context, fn func(txCtx context.Context) error, maxRetries int) error
}

// ApprovalService governs the lifecycle of a single approval record and
// drives the request forward on each decision.
type ApprovalService struct {
	requests      ports.RequestStore
	approvals     ports.ApprovalStore
	progression   *LevelProgressionService
	notifications *NotificationService
	stateMachine  *domain.ApprovalStateMachine
	tx            txRunner
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	requests ports.RequestStore,
	approvals ports.ApprovalStore,
	progression *LevelProgressionService,
	notifications *NotificationService,
	tx txRunner,
) *ApprovalService {
	return &ApprovalService{
		requests:      requests,
		approvals:     approvals,
		progression:   progression,
		notifications: notifications,
		stateMachine:  domain.NewApprovalStateMachine(),
		tx:            tx,
	}
}

// Decide records a decision on behalf of an acting user. Only the assigned
// approver may decide their own approval; anyone else is refused before the
// decision path runs.
func (s *ApprovalService) Decide(ctx context.Context, approvalID, actorID string, decision domain.Decision, comments string) error {
	approval, err := s.approvals.GetApproval(ctx, approvalID)
	if err != nil || approval == nil {
		return appErrors.NewNotFoundError("approval", approvalID)
	}

	if approval.ApproverID != actorID {
		log.Printf("⚠️ User %s attempted to %s approval %s assigned to %s", actorID, decision, approvalID, approval.ApproverID)
		return appErrors.NewPermissionError(strings.ToLower(string(decision)), "approval")
	}

	if found := s.ProcessApproval(ctx, approvalID, decision, comments); !found {
		return appErrors.NewNotFoundError("approval", approvalID)
	}
	return nil
}

// ProcessApproval records a decision on a pending approval and advances the
// owning request. Returns false only when the approval record cannot be
// found; every other path, including downstream notification failures,
// returns true. A decision is recorded at most once: terminal approvals
// are left untouched.
func (s *ApprovalService) ProcessApproval(ctx context.Context, approvalID string, decision domain.Decision, comments string) bool {
	found := true

	err := s.tx.RunWithRetry(ctx, func(txCtx context.Context) error {
		approval, err := s.approvals.GetApproval(txCtx, approvalID)
		if err != nil || approval == nil {
			log.Printf("⚠️ Approval %s not found: %v", approvalID, err)
			found = false
			return nil
		}

		// Re-validate the status here rather than trusting the caller's
		// earlier check; the store's guarded update closes the remaining race.
		newStatus, err := s.stateMachine.Apply(approval.Status, decision)
		if err != nil {
			log.Printf("⚠️ Approval %s: %v", approvalID, err)
			return nil
		}

		now := time.Now().UTC()
		affected, err := s.approvals.RecordDecision(txCtx, approvalID, newStatus, comments, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			// A concurrent decision beat us to the row; leave it alone
			log.Printf("⚠️ Approval %s already decided, ignoring %s", approvalID, decision)
			return nil
		}

		approval.Status = newStatus
		approval.Comments = comments
		approval.ReviewedAt = &now

		return s.applyDecisionOutcome(txCtx, approval, decision, comments)
	}, 3)

	if err != nil {
		log.Printf("❌ Failed to process %s on approval %s: %v", decision, approvalID, err)
	}

	return found
}

// applyDecisionOutcome moves the owning request according to the decision
func (s *ApprovalService) applyDecisionOutcome(ctx context.Context, approval *models.Approval, decision domain.Decision, comments string) error {
	switch decision {
	case domain.DecisionReject:
		// Reject short-circuits all remaining levels; other pending
		// approvals are left untouched and never revisited.
		if err := s.requests.UpdateStatus(ctx, approval.RequestID, constants.RequestStatusRejected); err != nil {
			return err
		}
		if request, err := s.requests.GetRequest(ctx, approval.RequestID); err == nil && request != nil {
			s.notifications.NotifyRequestRejected(ctx, request, comments)
		}
		log.Printf("⛔ Request %s rejected at level %d", approval.RequestID, approval.Level)
		return nil

	case domain.DecisionReturn:
		// Returned bypasses level progression entirely: back to Draft for
		// re-editing, not a failure.
		if err := s.requests.UpdateStatus(ctx, approval.RequestID, constants.RequestStatusDraft); err != nil {
			return err
		}
		if request, err := s.requests.GetRequest(ctx, approval.RequestID); err == nil && request != nil {
			s.notifications.NotifyRequestReturned(ctx, request, comments)
		}
		log.Printf("↩️ Request %s returned to draft from level %d", approval.RequestID, approval.Level)
		return nil

	case domain.DecisionApprove:
		return s.progression.AdvanceAfterApproval(ctx, approval)

	default:
		log.Printf("⚠️ Unknown decision %q on approval %s", decision, approval.ID)
		return nil
	}
}

// GetPendingForApprover returns an approver's open tasks
func (s *ApprovalService) GetPendingForApprover(ctx context.Context, approverID string) ([]*models.Approval, error) {
	return s.approvals.ListPendingForApprover(ctx, approverID)
}

// GetApprovalsForRequest returns the full approval history of a request
func (s *ApprovalService) GetApprovalsForRequest(ctx context.Context, requestID string) ([]*models.Approval, error) {
	return s.approvals.ListByRequest(ctx, requestID)
}
