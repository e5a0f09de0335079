package bootstrap

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

// InitializeSchema creates the engine's tables if they do not exist.
// The schema is fixed, so plain idempotent DDL is enough; ordering follows
// the FK dependencies.
func InitializeSchema(db *sql.DB) error {
	log.Println("🔧 Initializing schema...")

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			description VARCHAR(512) NULL
		)`, constants.TableRole),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role_id VARCHAR(64) NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_date DATETIME NOT NULL,
			INDEX idx_users_role (role_id),
			CONSTRAINT fk_users_role FOREIGN KEY (role_id) REFERENCES %s(id)
		)`, constants.TableUser, constants.TableRole),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(255) NULL,
			approval_strategy VARCHAR(32) NOT NULL DEFAULT '%s',
			conditions TEXT NULL,
			priority INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_date DATETIME NOT NULL,
			INDEX idx_workflows_active (is_active, priority)
		)`, constants.TableWorkflow, constants.StrategyAll),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			workflow_id VARCHAR(64) NOT NULL,
			level INT NOT NULL,
			step_order INT NOT NULL,
			step_type VARCHAR(32) NOT NULL DEFAULT '%s',
			approver_user_id VARCHAR(64) NULL,
			approver_role_id VARCHAR(64) NULL,
			timeout_hours INT NULL,
			escalation_user_id VARCHAR(64) NULL,
			escalation_role_id VARCHAR(64) NULL,
			INDEX idx_steps_workflow (workflow_id, level, step_order),
			CONSTRAINT fk_steps_workflow FOREIGN KEY (workflow_id) REFERENCES %s(id)
		)`, constants.TableWorkflowStep, constants.StepTypeSequential, constants.TableWorkflow),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(512) NOT NULL,
			category VARCHAR(255) NULL,
			requester_id VARCHAR(64) NOT NULL,
			workflow_id VARCHAR(64) NULL,
			status VARCHAR(32) NOT NULL DEFAULT '%s',
			due_date DATETIME NULL,
			submitted_at DATETIME NULL,
			completed_at DATETIME NULL,
			sla_violation_notified BOOLEAN NOT NULL DEFAULT false,
			created_date DATETIME NOT NULL,
			INDEX idx_requests_requester (requester_id),
			INDEX idx_requests_sla (status, due_date, sla_violation_notified)
		)`, constants.TableRequest, constants.RequestStatusDraft),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			request_id VARCHAR(64) NOT NULL,
			approver_id VARCHAR(64) NOT NULL,
			level INT NOT NULL,
			step_order INT NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT '%s',
			comments TEXT NULL,
			timeout_hours INT NULL,
			escalation_user_id VARCHAR(64) NULL,
			escalation_role_id VARCHAR(64) NULL,
			escalation_notified BOOLEAN NOT NULL DEFAULT false,
			created_date DATETIME NOT NULL,
			reviewed_at DATETIME NULL,
			INDEX idx_approvals_request (request_id, level),
			INDEX idx_approvals_approver (approver_id, status),
			INDEX idx_approvals_escalation (status, escalation_notified),
			CONSTRAINT fk_approvals_request FOREIGN KEY (request_id) REFERENCES %s(id)
		)`, constants.TableApproval, constants.ApprovalStatusPending, constants.TableRequest),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			recipient_id VARCHAR(64) NOT NULL,
			title VARCHAR(512) NOT NULL,
			body TEXT NULL,
			link VARCHAR(512) NULL,
			notification_type VARCHAR(64) NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT false,
			created_date DATETIME NOT NULL,
			INDEX idx_notifications_recipient (recipient_id, created_date)
		)`, constants.TableNotification),
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema initialization failed: %w", err)
		}
	}

	log.Println("✅ Schema ready")
	return nil
}
