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

// NotificationService builds and sends templated notifications for the
// approval pipeline. Delivery is best-effort: every failure is logged and
// swallowed, never propagated to the transition that triggered it.
type NotificationService struct {
	notifier  ports.Notifier
	directory ports.Directory
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifier ports.Notifier, directory ports.Directory) *NotificationService {
	return &NotificationService{
		notifier:  notifier,
		directory: directory,
	}
}

// NotifyApprovalRequested tells an approver they have a pending task
func (s *NotificationService) NotifyApprovalRequested(ctx context.Context, approverID string, request *models.Request) {
	requesterName := s.resolveName(ctx, request.RequesterID)

	s.send(ctx, models.Notification{
		RecipientID:      approverID,
		Title:            fmt.Sprintf("Approval needed: %s", request.Title),
		Body:             fmt.Sprintf("%s submitted a %s request '%s' that needs your approval.", requesterName, request.Category, request.Title),
		Link:             fmt.Sprintf("/requests/%s", request.ID),
		NotificationType: constants.NotificationTypeApprovalRequest,
	})
}

// NotifyRequestApproved tells the requester their request cleared the
// final level
func (s *NotificationService) NotifyRequestApproved(ctx context.Context, request *models.Request) {
	s.send(ctx, models.Notification{
		RecipientID:      request.RequesterID,
		Title:            fmt.Sprintf("Request approved: %s", request.Title),
		Body:             fmt.Sprintf("Your %s request '%s' has been fully approved.", request.Category, request.Title),
		Link:             fmt.Sprintf("/requests/%s", request.ID),
		NotificationType: constants.NotificationTypeRequestApproved,
	})
}

// NotifyRequestRejected tells the requester their request was rejected
func (s *NotificationService) NotifyRequestRejected(ctx context.Context, request *models.Request, comments string) {
	body := fmt.Sprintf("Your %s request '%s' was rejected.", request.Category, request.Title)
	if comments != "" {
		body = fmt.Sprintf("%s Reviewer comments: %s", body, comments)
	}

	s.send(ctx, models.Notification{
		RecipientID:      request.RequesterID,
		Title:            fmt.Sprintf("Request rejected: %s", request.Title),
		Body:             body,
		Link:             fmt.Sprintf("/requests/%s", request.ID),
		NotificationType: constants.NotificationTypeRequestRejected,
	})
}

// NotifyRequestReturned tells the requester their request went back to Draft
func (s *NotificationService) NotifyRequestReturned(ctx context.Context, request *models.Request, comments string) {
	body := fmt.Sprintf("Your %s request '%s' was returned for revision.", request.Category, request.Title)
	if comments != "" {
		body = fmt.Sprintf("%s Reviewer comments: %s", body, comments)
	}

	s.send(ctx, models.Notification{
		RecipientID:      request.RequesterID,
		Title:            fmt.Sprintf("Request returned: %s", request.Title),
		Body:             body,
		Link:             fmt.Sprintf("/requests/%s", request.ID),
		NotificationType: constants.NotificationTypeRequestReturned,
	})
}

// NotifyEscalation tells an escalation recipient that an approval sat
// pending past its timeout
func (s *NotificationService) NotifyEscalation(ctx context.Context, recipientID string, approval *models.Approval, request *models.Request) {
	approverName := s.resolveName(ctx, approval.ApproverID)

	s.send(ctx, models.Notification{
		RecipientID:      recipientID,
		Title:            fmt.Sprintf("Approval overdue: %s", request.Title),
		Body: fmt.Sprintf("The approval assigned to %s for request '%s' (level %d) has been pending for more than %d hours.",
			approverName, request.Title, approval.Level, derefInt(approval.Timeout)),
		Link:             fmt.Sprintf("/requests/%s", request.ID),
		NotificationType: constants.NotificationTypeEscalation,
	})
}

// NotifySLAViolation tells the requester their request blew past its due date
func (s *NotificationService) NotifySLAViolation(ctx context.Context, request *models.Request) {
	due := ""
	if request.DueDate != nil {
		due = request.DueDate.Format("2006-01-02")
	}

	s.send(ctx, models.Notification{
		RecipientID:      request.RequesterID,
		Title:            fmt.Sprintf("SLA violated: %s", request.Title),
		Body:             fmt.Sprintf("Your %s request '%s' is still unresolved past its due date (%s).", request.Category, request.Title, due),
		Link:             fmt.Sprintf("/requests/%s", request.ID),
		NotificationType: constants.NotificationTypeSLAViolation,
	})
}

func (s *NotificationService) send(ctx context.Context, n models.Notification) {
	n.CreatedDate = time.Now().UTC()
	if err := s.notifier.Send(ctx, n); err != nil {
		log.Printf("⚠️ Failed to send %s notification to %s: %v", n.NotificationType, n.RecipientID, err)
	}
}

func (s *NotificationService) resolveName(ctx context.Context, userID string) string {
	user, err := s.directory.GetUser(ctx, userID)
	if err != nil || user == nil {
		return "A colleague"
	}
	return user.Name
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
