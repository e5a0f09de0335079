package constants

// Approval status constants
const (
	ApprovalStatusPending  = "Pending"
	ApprovalStatusApproved = "Approved"
	ApprovalStatusRejected = "Rejected"
	ApprovalStatusReturned = "Returned"
)

// Request status constants
const (
	RequestStatusDraft           = "Draft"
	RequestStatusSubmitted       = "Submitted"
	RequestStatusPendingApproval = "PendingApproval"
	RequestStatusApproved        = "Approved"
	RequestStatusRejected        = "Rejected"
)

// Approval strategy constants
const (
	StrategyAny      = "Any"
	StrategyAll      = "All"
	StrategyMajority = "Majority"
)

// Workflow step type constants (informational; parallelism follows level grouping)
const (
	StepTypeSequential = "sequential"
	StepTypeParallel   = "parallel"
)

// Notification type constants
const (
	NotificationTypeApprovalRequest = "approval_request"
	NotificationTypeRequestApproved = "request_approved"
	NotificationTypeRequestRejected = "request_rejected"
	NotificationTypeRequestReturned = "request_returned"
	NotificationTypeEscalation      = "escalation"
	NotificationTypeSLAViolation    = "sla_violation"
)

// Monitor defaults
const (
	MonitorDefaultIntervalMins = 15 // Minutes between escalation/SLA scan cycles
	MonitorScanTimeoutMins     = 10 // Maximum runtime for a single scan cycle
)

// HTTP context/header keys
const (
	ContextKeyUser      = "user"
	HeaderAuthorization = "Authorization"
)

// JSON response envelope keys
const (
	ResponseError = "error"
	ResponseData  = "data"
	FieldMessage  = "message"
)
