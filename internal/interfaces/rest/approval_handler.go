package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cihat41/ReqPortal-sub000/internal/domain"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

// ApprovalService defines the interface for approval operations
type ApprovalService interface {
	Decide(ctx context.Context, approvalID, actorID string, decision domain.Decision, comments string) error
	GetPendingForApprover(ctx context.Context, approverID string) ([]*models.Approval, error)
	GetApprovalsForRequest(ctx context.Context, requestID string) ([]*models.Approval, error)
}

// ApprovalHandler handles approval decision API endpoints
type ApprovalHandler struct {
	svc ApprovalService
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(svc ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{svc: svc}
}

// ApprovalActionRequest represents an approve/reject/return request
type ApprovalActionRequest struct {
	Comments string `json:"comments"`
}

// Approve handles POST /api/approvals/:approvalId/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.decide(c, domain.DecisionApprove, "Approval granted")
}

// Reject handles POST /api/approvals/:approvalId/reject
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.decide(c, domain.DecisionReject, "Request rejected")
}

// Return handles POST /api/approvals/:approvalId/return
func (h *ApprovalHandler) Return(c *gin.Context) {
	h.decide(c, domain.DecisionReturn, "Request returned to requester")
}

func (h *ApprovalHandler) decide(c *gin.Context, decision domain.Decision, message string) {
	approvalID := c.Param("approvalId")
	user, ok := RequireUser(c)
	if !ok {
		return
	}

	var req ApprovalActionRequest
	_ = c.ShouldBindJSON(&req) // Optional comments

	if err := h.svc.Decide(c.Request.Context(), approvalID, user.ID, decision, req.Comments); err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseData: gin.H{
			"success":              true,
			constants.FieldMessage: message,
		},
	})
}

// GetPending handles GET /api/approvals/pending
func (h *ApprovalHandler) GetPending(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}

	approvals, err := h.svc.GetPendingForApprover(c.Request.Context(), user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{constants.ResponseData: approvals})
}

// GetHistory handles GET /api/requests/:requestId/approvals
func (h *ApprovalHandler) GetHistory(c *gin.Context) {
	requestID := c.Param("requestId")

	approvals, err := h.svc.GetApprovalsForRequest(c.Request.Context(), requestID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{constants.ResponseData: approvals})
}
