package services

import (
	"context"
	"log"
	"time"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/ports"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
	appErrors "github.com/cihat41/ReqPortal-sub000/pkg/errors"
	"github.com/cihat41/ReqPortal-sub000/pkg/utils"
)

// CreateRequestInput is the input for creating a draft request
type CreateRequestInput struct {
	Title    string
	Category string
	DueDate  *time.Time
}

// RequestService owns the submission pipeline: pick a workflow, bind it to
// the request and hand off to the instantiator.
type RequestService struct {
	requests  ports.RequestStore
	approvals ports.ApprovalStore
	selector  *WorkflowSelector
	engine    *WorkflowEngine
	creator   requestCreator
}

// requestCreator is the insert half of the request repository; split out
// so tests can fake it alongside the RequestStore port.
type requestCreator interface {
	CreateRequest(ctx context.Context, req *models.Request) error
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requests ports.RequestStore,
	approvals ports.ApprovalStore,
	selector *WorkflowSelector,
	engine *WorkflowEngine,
	creator requestCreator,
) *RequestService {
	return &RequestService{
		requests:  requests,
		approvals: approvals,
		selector:  selector,
		engine:    engine,
		creator:   creator,
	}
}

// Create inserts a new request in Draft status for the given requester
func (s *RequestService) Create(ctx context.Context, input CreateRequestInput, requesterID string) (*models.Request, error) {
	if input.Title == "" {
		return nil, appErrors.NewValidationError("title", "title is required")
	}

	request := &models.Request{
		ID:          utils.GenerateID(),
		Title:       input.Title,
		Category:    input.Category,
		RequesterID: requesterID,
		Status:      constants.RequestStatusDraft,
		DueDate:     input.DueDate,
		CreatedDate: time.Now().UTC(),
	}

	if err := s.creator.CreateRequest(ctx, request); err != nil {
		return nil, appErrors.NewInternalError("failed to create request", err)
	}

	return request, nil
}

// Submit pushes a draft request into the approval pipeline: the matching
// workflow is bound, approvals for every level are instantiated and the
// first level's approvers are notified.
func (s *RequestService) Submit(ctx context.Context, requestID, actorID string) (*models.Request, error) {
	request, err := s.requests.GetRequest(ctx, requestID)
	if err != nil || request == nil {
		return nil, appErrors.NewNotFoundError("request", requestID)
	}

	if request.RequesterID != actorID {
		return nil, appErrors.NewPermissionError("submit", "request")
	}

	if request.Status != constants.RequestStatusDraft {
		return nil, appErrors.NewValidationError("status", "only draft requests can be submitted")
	}

	hasPending, err := s.approvals.HasPending(ctx, requestID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to check for pending approvals", err)
	}
	if hasPending {
		return nil, appErrors.NewConflictError("request", "already has a pending approval")
	}

	workflow, err := s.selector.FindWorkflowForRequest(ctx, request)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to match workflows", err)
	}
	if workflow == nil {
		return nil, appErrors.NewValidationError("workflow", "no active approval workflow matches this request")
	}

	now := time.Now().UTC()
	if err := s.requests.MarkSubmitted(ctx, requestID, workflow.ID, constants.RequestStatusPendingApproval, now); err != nil {
		return nil, appErrors.NewInternalError("failed to submit request", err)
	}

	// Zero created approvals is the instantiator's failure signal
	if created := s.engine.CreateApprovalsForRequest(ctx, requestID, workflow.ID); created == 0 {
		if revertErr := s.requests.UpdateStatus(ctx, requestID, constants.RequestStatusDraft); revertErr != nil {
			log.Printf("❌ Failed to revert request %s to draft: %v", requestID, revertErr)
		}
		return nil, appErrors.NewInternalError("no approvals could be created for this request", nil)
	}

	return s.requests.GetRequest(ctx, requestID)
}

// Get loads a request by id
func (s *RequestService) Get(ctx context.Context, requestID string) (*models.Request, error) {
	request, err := s.requests.GetRequest(ctx, requestID)
	if err != nil || request == nil {
		return nil, appErrors.NewNotFoundError("request", requestID)
	}
	return request, nil
}
