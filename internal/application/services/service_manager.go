package services

import (
	"database/sql"
	"time"

	"github.com/cihat41/ReqPortal-sub000/internal/infrastructure/persistence"
)

// ServiceManager wires the repositories and services together
type ServiceManager struct {
	Auth          *AuthService
	Requests      *RequestService
	Approvals     *ApprovalService
	Engine        *WorkflowEngine
	Selector      *WorkflowSelector
	Monitor       *MonitorService
	Notifications *NotificationService

	WorkflowRepo     *persistence.WorkflowRepository
	RequestRepo      *persistence.RequestRepository
	ApprovalRepo     *persistence.ApprovalRepository
	UserRepo         *persistence.UserRepository
	NotificationRepo *persistence.NotificationRepository
}

// NewServiceManager builds the full service graph on top of a database
// connection. monitorInterval and monitorCron configure the escalation/SLA
// monitor's tick schedule.
func NewServiceManager(db *sql.DB, monitorInterval time.Duration, monitorCron string) *ServiceManager {
	workflowRepo := persistence.NewWorkflowRepository(db)
	requestRepo := persistence.NewRequestRepository(db)
	approvalRepo := persistence.NewApprovalRepository(db)
	userRepo := persistence.NewUserRepository(db)
	notificationRepo := persistence.NewNotificationRepository(db)
	txManager := persistence.NewTransactionManager(db)

	notifications := NewNotificationService(notificationRepo, userRepo)
	engine := NewWorkflowEngine(workflowRepo, requestRepo, approvalRepo, userRepo, notifications)
	progression := NewLevelProgressionService(workflowRepo, requestRepo, approvalRepo, notifications)
	approvals := NewApprovalService(requestRepo, approvalRepo, progression, notifications, txManager)
	selector := NewWorkflowSelector(workflowRepo, userRepo)
	requests := NewRequestService(requestRepo, approvalRepo, selector, engine, requestRepo)
	monitor := NewMonitorService(requestRepo, approvalRepo, userRepo, notifications, monitorInterval, monitorCron)
	authSvc := NewAuthService(userRepo)

	return &ServiceManager{
		Auth:          authSvc,
		Requests:      requests,
		Approvals:     approvals,
		Engine:        engine,
		Selector:      selector,
		Monitor:       monitor,
		Notifications: notifications,

		WorkflowRepo:     workflowRepo,
		RequestRepo:      requestRepo,
		ApprovalRepo:     approvalRepo,
		UserRepo:         userRepo,
		NotificationRepo: notificationRepo,
	}
}
