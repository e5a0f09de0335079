package constants

// Table names
const (
	TableUser         = "users"
	TableRole         = "roles"
	TableWorkflow     = "workflow_definitions"
	TableWorkflowStep = "workflow_steps"
	TableRequest      = "requests"
	TableApproval     = "approvals"
	TableNotification = "notifications"
)

// Shared field names used across queries
const (
	FieldID          = "id"
	FieldCreatedDate = "created_date"
	FieldStatus      = "status"
)
