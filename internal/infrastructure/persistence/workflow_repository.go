package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

const workflowColumns = "id, name, category, approval_strategy, conditions, priority, is_active, created_date"
const stepColumns = "id, workflow_id, level, step_order, step_type, approver_user_id, approver_role_id, timeout_hours, escalation_user_id, escalation_role_id"

// WorkflowRepository reads workflow definitions and their steps.
// Definitions are authored by administrators outside the engine; this
// repository is read-mostly (writes exist for bootstrap/seeding).
type WorkflowRepository struct {
	db *sql.DB
}

// NewWorkflowRepository creates a new WorkflowRepository
func NewWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// GetWorkflow loads a definition with its steps ordered by (level, step_order)
func (r *WorkflowRepository) GetWorkflow(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", workflowColumns, constants.TableWorkflow)
	row := conn(ctx, r.db).QueryRowContext(ctx, query, id)

	wf, err := scanWorkflow(row)
	if err != nil {
		return nil, err
	}

	steps, err := r.loadSteps(ctx, wf.ID)
	if err != nil {
		return nil, err
	}
	wf.Steps = steps

	return wf, nil
}

// ListActiveWorkflows returns every active definition with steps hydrated
func (r *WorkflowRepository) ListActiveWorkflows(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE is_active = true ORDER BY priority DESC, created_date ASC", workflowColumns, constants.TableWorkflow)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*models.WorkflowDefinition
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, wf := range workflows {
		steps, err := r.loadSteps(ctx, wf.ID)
		if err != nil {
			return nil, err
		}
		wf.Steps = steps
	}

	return workflows, nil
}

// CreateWorkflow inserts a definition and its steps (bootstrap/admin use)
func (r *WorkflowRepository) CreateWorkflow(ctx context.Context, wf *models.WorkflowDefinition) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", constants.TableWorkflow, workflowColumns)
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		wf.ID, wf.Name, wf.Category, wf.Strategy, wf.Conditions, wf.Priority, wf.IsActive, wf.CreatedDate)
	if err != nil {
		return err
	}

	for _, step := range wf.Steps {
		approverUser, approverRole := step.Approver.Columns()
		var escUser, escRole *string
		if step.Escalation != nil {
			escUser, escRole = step.Escalation.Columns()
		}

		stepQuery := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", constants.TableWorkflowStep, stepColumns)
		_, err := conn(ctx, r.db).ExecContext(ctx, stepQuery,
			step.ID, wf.ID, step.Level, step.StepOrder, step.StepType,
			approverUser, approverRole, step.Timeout, escUser, escRole)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *WorkflowRepository) loadSteps(ctx context.Context, workflowID string) ([]models.WorkflowStep, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE workflow_id = ? ORDER BY level ASC, step_order ASC",
		stepColumns, constants.TableWorkflowStep)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []models.WorkflowStep
	for rows.Next() {
		var step models.WorkflowStep
		var stepType sql.NullString
		var approverUser, approverRole, escUser, escRole sql.NullString
		var timeout sql.NullInt64

		err := rows.Scan(&step.ID, &step.WorkflowID, &step.Level, &step.StepOrder, &stepType,
			&approverUser, &approverRole, &timeout, &escUser, &escRole)
		if err != nil {
			return nil, err
		}

		step.StepType = stepType.String
		step.Timeout = models.NullInt64ToPtr(timeout)

		target, err := models.TargetFromColumns(models.NullStringToPtr(approverUser), models.NullStringToPtr(approverRole))
		if err != nil {
			return nil, fmt.Errorf("workflow step %s: %w", step.ID, err)
		}
		step.Approver = target

		if escUser.Valid || escRole.Valid {
			esc, err := models.TargetFromColumns(models.NullStringToPtr(escUser), models.NullStringToPtr(escRole))
			if err != nil {
				return nil, fmt.Errorf("workflow step %s escalation: %w", step.ID, err)
			}
			step.Escalation = &esc
		}

		steps = append(steps, step)
	}
	return steps, rows.Err()
}

func scanWorkflow(row rowScanner) (*models.WorkflowDefinition, error) {
	var wf models.WorkflowDefinition
	var conditions sql.NullString

	err := row.Scan(&wf.ID, &wf.Name, &wf.Category, &wf.Strategy, &conditions,
		&wf.Priority, &wf.IsActive, &wf.CreatedDate)
	if err != nil {
		return nil, err
	}

	wf.Conditions = conditions.String
	return &wf, nil
}
