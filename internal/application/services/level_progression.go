package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/ports"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

// LevelProgressionService decides, after an Approved decision, whether the
// owning level is complete under the workflow's strategy and either
// activates the next level or finalizes the request.
type LevelProgressionService struct {
	workflows     ports.WorkflowStore
	requests      ports.RequestStore
	approvals     ports.ApprovalStore
	notifications *NotificationService
}

// NewLevelProgressionService creates a new LevelProgressionService
func NewLevelProgressionService(
	workflows ports.WorkflowStore,
	requests ports.RequestStore,
	approvals ports.ApprovalStore,
	notifications *NotificationService,
) *LevelProgressionService {
	return &LevelProgressionService{
		workflows:     workflows,
		requests:      requests,
		approvals:     approvals,
		notifications: notifications,
	}
}

// IsLevelCompleted evaluates the workflow's strategy against every approval
// at (request, level). An empty level is never complete. When no workflow
// is resolvable the strict rule applies: every approval must be Approved.
func (s *LevelProgressionService) IsLevelCompleted(ctx context.Context, requestID string, level int) (bool, error) {
	levelApprovals, err := s.approvals.ListByRequestAndLevel(ctx, requestID, level)
	if err != nil {
		return false, fmt.Errorf("failed to load approvals for request %s level %d: %w", requestID, level, err)
	}
	if len(levelApprovals) == 0 {
		return false, nil
	}

	approved := 0
	for _, a := range levelApprovals {
		if a.Status == constants.ApprovalStatusApproved {
			approved++
		}
	}
	total := len(levelApprovals)

	strategy := s.resolveStrategy(ctx, requestID)
	return strategySatisfied(strategy, approved, total), nil
}

// AdvanceAfterApproval re-evaluates the approval's level and moves the
// request forward: activate the minimum higher pending level, finalize as
// Approved after the last level, or re-assert PendingApproval while the
// level still waits for more decisions.
func (s *LevelProgressionService) AdvanceAfterApproval(ctx context.Context, approval *models.Approval) error {
	completed, err := s.IsLevelCompleted(ctx, approval.RequestID, approval.Level)
	if err != nil {
		return err
	}

	if !completed {
		// The level waits for more decisions at the same level
		return s.requests.UpdateStatus(ctx, approval.RequestID, constants.RequestStatusPendingApproval)
	}

	remaining, err := s.approvals.ListPendingAboveLevel(ctx, approval.RequestID, approval.Level)
	if err != nil {
		return fmt.Errorf("failed to load pending approvals above level %d: %w", approval.Level, err)
	}

	request, err := s.requests.GetRequest(ctx, approval.RequestID)
	if err != nil {
		return fmt.Errorf("failed to load request %s: %w", approval.RequestID, err)
	}

	if len(remaining) == 0 {
		// Final level cleared
		now := time.Now().UTC()
		if err := s.requests.FinalizeApproved(ctx, request.ID, now); err != nil {
			return err
		}
		s.notifications.NotifyRequestApproved(ctx, request)
		log.Printf("✅ Request %s fully approved after level %d", request.ID, approval.Level)
		return nil
	}

	// Activate the minimum remaining level; rows are ordered level ASC
	nextLevel := remaining[0].Level
	for _, a := range remaining {
		if a.Level != nextLevel {
			break
		}
		s.notifications.NotifyApprovalRequested(ctx, a.ApproverID, request)
	}

	log.Printf("▶️ Request %s advanced to approval level %d", request.ID, nextLevel)
	return s.requests.UpdateStatus(ctx, request.ID, constants.RequestStatusPendingApproval)
}

// resolveStrategy finds the applicable strategy via the request's bound
// workflow. Unresolvable workflow falls back to the strict all-approved
// rule, which strategySatisfied applies for an empty strategy.
func (s *LevelProgressionService) resolveStrategy(ctx context.Context, requestID string) string {
	request, err := s.requests.GetRequest(ctx, requestID)
	if err != nil || request == nil || request.WorkflowID == nil {
		log.Printf("⚠️ No workflow resolvable for request %s, using strict completion rule", requestID)
		return ""
	}

	workflow, err := s.workflows.GetWorkflow(ctx, *request.WorkflowID)
	if err != nil || workflow == nil {
		log.Printf("⚠️ Workflow %s not found for request %s, using strict completion rule", *request.WorkflowID, requestID)
		return ""
	}

	return workflow.Strategy
}

// strategySatisfied applies the completion test for a level. An unknown or
// unset strategy deliberately falls back to All rather than failing.
func strategySatisfied(strategy string, approved, total int) bool {
	switch strategy {
	case constants.StrategyAny:
		return approved >= 1
	case constants.StrategyMajority:
		// Strict majority: a tie is not sufficient
		return approved > total/2
	case constants.StrategyAll:
		return approved == total
	default:
		return approved == total
	}
}
