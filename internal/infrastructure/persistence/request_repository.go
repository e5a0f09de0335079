package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

const requestColumns = "id, title, category, requester_id, workflow_id, status, due_date, submitted_at, completed_at, sla_violation_notified, created_date"

// RequestRepository persists request rows
type RequestRepository struct {
	db *sql.DB
}

// NewRequestRepository creates a new RequestRepository
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// CreateRequest inserts a new request in Draft status
func (r *RequestRepository) CreateRequest(ctx context.Context, req *models.Request) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		constants.TableRequest, requestColumns)

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		req.ID, req.Title, req.Category, req.RequesterID, req.WorkflowID, req.Status,
		req.DueDate, req.SubmittedAt, req.CompletedAt, req.SLAViolationNotified, req.CreatedDate)
	return err
}

// GetRequest loads a request by id
func (r *RequestRepository) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", requestColumns, constants.TableRequest)
	row := conn(ctx, r.db).QueryRowContext(ctx, query, id)
	return scanRequest(row)
}

// UpdateStatus sets the request status
func (r *RequestRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := fmt.Sprintf("UPDATE %s SET status = ? WHERE id = ?", constants.TableRequest)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, status, id)
	return err
}

// MarkSubmitted binds the chosen workflow and stamps submission time
func (r *RequestRepository) MarkSubmitted(ctx context.Context, id, workflowID, status string, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET workflow_id = ?, status = ?, submitted_at = ? WHERE id = ?", constants.TableRequest)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, workflowID, status, at, id)
	return err
}

// FinalizeApproved sets the terminal Approved status with a completion stamp
func (r *RequestRepository) FinalizeApproved(ctx context.Context, id string, completedAt time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET status = ?, completed_at = ? WHERE id = ?", constants.TableRequest)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, constants.RequestStatusApproved, completedAt, id)
	return err
}

// ListOverdue returns in-flight requests past their due date whose SLA
// violation latch is still unset
func (r *RequestRepository) ListOverdue(ctx context.Context, now time.Time) ([]*models.Request, error) {
	statuses := models.InFlightStatuses
	placeholders := strings.Repeat("?, ", len(statuses)-1) + "?"

	args := make([]interface{}, 0, len(statuses)+1)
	for _, s := range statuses {
		args = append(args, s)
	}
	args = append(args, now)

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE status IN (%s)
		  AND due_date IS NOT NULL AND due_date < ?
		  AND sla_violation_notified = false
		ORDER BY due_date ASC`,
		requestColumns, constants.TableRequest, placeholders)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// MarkSLAViolationNotified sets the SLA latch for a batch of requests
func (r *RequestRepository) MarkSLAViolationNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf("UPDATE %s SET sla_violation_notified = true WHERE id IN (%s)", constants.TableRequest, placeholders)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var req models.Request
	var workflowID sql.NullString
	var dueDate, submittedAt, completedAt sql.NullTime

	err := row.Scan(&req.ID, &req.Title, &req.Category, &req.RequesterID, &workflowID,
		&req.Status, &dueDate, &submittedAt, &completedAt, &req.SLAViolationNotified, &req.CreatedDate)
	if err != nil {
		return nil, err
	}

	req.WorkflowID = models.NullStringToPtr(workflowID)
	req.DueDate = models.NullTimeToPtr(dueDate)
	req.SubmittedAt = models.NullTimeToPtr(submittedAt)
	req.CompletedAt = models.NullTimeToPtr(completedAt)

	return &req, nil
}
