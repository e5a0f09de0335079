package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cihat41/ReqPortal-sub000/internal/application/services"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
	appErrors "github.com/cihat41/ReqPortal-sub000/pkg/errors"
)

// RequestService defines the interface for request operations
type RequestService interface {
	Create(ctx context.Context, input services.CreateRequestInput, requesterID string) (*models.Request, error)
	Submit(ctx context.Context, requestID, actorID string) (*models.Request, error)
	Get(ctx context.Context, requestID string) (*models.Request, error)
}

// RequestHandler handles request lifecycle API endpoints
type RequestHandler struct {
	svc RequestService
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(svc RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// CreateRequestBody represents the payload for creating a draft request
type CreateRequestBody struct {
	Title    string     `json:"title" binding:"required"`
	Category string     `json:"category"`
	DueDate  *time.Time `json:"due_date"`
}

// Create handles POST /api/requests
func (h *RequestHandler) Create(c *gin.Context) {
	user, ok := RequireUser(c)
	if !ok {
		return
	}

	var body CreateRequestBody
	if !BindJSON(c, &body) {
		return
	}

	request, err := h.svc.Create(c.Request.Context(), services.CreateRequestInput{
		Title:    body.Title,
		Category: body.Category,
		DueDate:  body.DueDate,
	}, user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{constants.ResponseData: request})
}

// Submit handles POST /api/requests/:requestId/submit
func (h *RequestHandler) Submit(c *gin.Context) {
	requestID := c.Param("requestId")
	user, ok := RequireUser(c)
	if !ok {
		return
	}

	request, err := h.svc.Submit(c.Request.Context(), requestID, user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseData: gin.H{
			"success":              true,
			constants.FieldMessage: "Request submitted for approval",
			"request":              request,
		},
	})
}

// Get handles GET /api/requests/:requestId
func (h *RequestHandler) Get(c *gin.Context) {
	requestID := c.Param("requestId")

	request, err := h.svc.Get(c.Request.Context(), requestID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if request == nil {
		RespondAppError(c, appErrors.NewNotFoundError("request", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{constants.ResponseData: request})
}
