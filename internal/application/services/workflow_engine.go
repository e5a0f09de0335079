package services

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/ports"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
	"github.com/cihat41/ReqPortal-sub000/pkg/utils"
)

// WorkflowEngine expands a workflow definition into concrete per-approver
// approval tasks. Rows for every level are created in one pass; level
// transitions later work purely off existing Pending rows.
type WorkflowEngine struct {
	workflows     ports.WorkflowStore
	requests      ports.RequestStore
	approvals     ports.ApprovalStore
	directory     ports.Directory
	notifications *NotificationService
}

// NewWorkflowEngine creates a new WorkflowEngine
func NewWorkflowEngine(
	workflows ports.WorkflowStore,
	requests ports.RequestStore,
	approvals ports.ApprovalStore,
	directory ports.Directory,
	notifications *NotificationService,
) *WorkflowEngine {
	return &WorkflowEngine{
		workflows:     workflows,
		requests:      requests,
		approvals:     approvals,
		directory:     directory,
		notifications: notifications,
	}
}

// CreateApprovalsForRequest expands every step of the workflow into
// approval rows and notifies the first level's approvers. Returns the
// number of approvals created; a missing workflow or request is a logged
// no-op and zero is the caller's failure signal. Notification failures
// never abort creation and never roll back created rows.
func (e *WorkflowEngine) CreateApprovalsForRequest(ctx context.Context, requestID, workflowID string) int {
	workflow, err := e.workflows.GetWorkflow(ctx, workflowID)
	if err != nil || workflow == nil {
		log.Printf("⚠️ Cannot create approvals: workflow %s not found: %v", workflowID, err)
		return 0
	}
	if len(workflow.Steps) == 0 {
		log.Printf("⚠️ Workflow %s (%s) has no steps, nothing to instantiate", workflow.Name, workflowID)
		return 0
	}

	request, err := e.requests.GetRequest(ctx, requestID)
	if err != nil || request == nil {
		log.Printf("⚠️ Cannot create approvals: request %s not found: %v", requestID, err)
		return 0
	}

	steps := make([]models.WorkflowStep, len(workflow.Steps))
	copy(steps, workflow.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].Level != steps[j].Level {
			return steps[i].Level < steps[j].Level
		}
		return steps[i].StepOrder < steps[j].StepOrder
	})

	now := time.Now().UTC()
	var toCreate []*models.Approval
	for _, step := range steps {
		approvers := e.resolveApprovers(ctx, step.Approver)
		if len(approvers) == 0 {
			// Role with no members: the step is skipped, no Approval created
			log.Printf("⚠️ Step %s of workflow %s resolved to no approvers, skipping", step.ID, workflow.Name)
			continue
		}

		for _, approver := range approvers {
			toCreate = append(toCreate, &models.Approval{
				ID:          utils.GenerateID(),
				RequestID:   request.ID,
				ApproverID:  approver.ID,
				Level:       step.Level,
				StepOrder:   step.StepOrder,
				Status:      constants.ApprovalStatusPending,
				Timeout:     step.Timeout,
				Escalation:  step.Escalation,
				CreatedDate: now,
			})
		}
	}

	if len(toCreate) == 0 {
		log.Printf("⚠️ Workflow %s produced no approvals for request %s", workflow.Name, requestID)
		return 0
	}

	if err := e.approvals.CreateApprovals(ctx, toCreate); err != nil {
		log.Printf("❌ Failed to persist approvals for request %s: %v", requestID, err)
		return 0
	}

	// Only the minimum (first active) level's approvers are told now; later
	// levels sit dormant until level progression activates them.
	minLevel := toCreate[0].Level
	for _, a := range toCreate {
		if a.Level < minLevel {
			minLevel = a.Level
		}
	}

	notified := 0
	for _, a := range toCreate {
		if a.Level != minLevel {
			continue
		}
		e.notifications.NotifyApprovalRequested(ctx, a.ApproverID, request)
		notified++
	}

	log.Printf("✅ Created %d approvals for request %s (workflow %s), notified %d level-%d approvers",
		len(toCreate), requestID, workflow.Name, notified, minLevel)

	return len(toCreate)
}

// resolveApprovers expands an approver target into concrete users. A user
// target resolves to that user; a role target fans out to every current
// member.
func (e *WorkflowEngine) resolveApprovers(ctx context.Context, target models.ApproverTarget) []*models.User {
	switch target.Kind {
	case models.TargetUser:
		user, err := e.directory.GetUser(ctx, target.ID)
		if err != nil || user == nil {
			log.Printf("⚠️ Approver user %s not found: %v", target.ID, err)
			return nil
		}
		return []*models.User{user}
	case models.TargetRole:
		members, err := e.directory.ListRoleMembers(ctx, target.ID)
		if err != nil {
			log.Printf("⚠️ Failed to resolve members of role %s: %v", target.ID, err)
			return nil
		}
		return members
	default:
		log.Printf("⚠️ Unknown approver target kind %q", target.Kind)
		return nil
	}
}
