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

const approvalColumns = "id, request_id, approver_id, level, step_order, status, comments, timeout_hours, escalation_user_id, escalation_role_id, escalation_notified, created_date, reviewed_at"

// ApprovalRepository persists approval task records
type ApprovalRepository struct {
	db *sql.DB
}

// NewApprovalRepository creates a new ApprovalRepository
func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// CreateApprovals inserts all approvals for a request in one multi-row insert
func (r *ApprovalRepository) CreateApprovals(ctx context.Context, approvals []*models.Approval) error {
	if len(approvals) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(approvals))
	args := make([]interface{}, 0, len(approvals)*13)
	for _, a := range approvals {
		var escUser, escRole *string
		if a.Escalation != nil {
			escUser, escRole = a.Escalation.Columns()
		}
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			a.ID, a.RequestID, a.ApproverID, a.Level, a.StepOrder, a.Status, a.Comments,
			a.Timeout, escUser, escRole, a.EscalationNotified, a.CreatedDate, a.ReviewedAt,
		)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		constants.TableApproval, approvalColumns, strings.Join(placeholders, ", "))

	_, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// GetApproval loads a single approval by id
func (r *ApprovalRepository) GetApproval(ctx context.Context, id string) (*models.Approval, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", approvalColumns, constants.TableApproval)
	row := conn(ctx, r.db).QueryRowContext(ctx, query, id)
	return scanApproval(row)
}

// RecordDecision applies a terminal status to a still-pending approval.
// The status guard in the WHERE clause makes a decision single-shot: a
// second decision on the same row affects zero rows.
func (r *ApprovalRepository) RecordDecision(ctx context.Context, id, status, comments string, reviewedAt time.Time) (int64, error) {
	query := fmt.Sprintf(
		"UPDATE %s SET status = ?, comments = ?, reviewed_at = ? WHERE id = ? AND status = ?",
		constants.TableApproval)

	result, err := conn(ctx, r.db).ExecContext(ctx, query, status, comments, reviewedAt, id, constants.ApprovalStatusPending)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListByRequestAndLevel returns every approval at (request, level)
// regardless of status
func (r *ApprovalRepository) ListByRequestAndLevel(ctx context.Context, requestID string, level int) ([]*models.Approval, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE request_id = ? AND level = ? ORDER BY step_order ASC",
		approvalColumns, constants.TableApproval)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, requestID, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApprovals(rows)
}

// ListByRequest returns every approval for a request, ordered by level
func (r *ApprovalRepository) ListByRequest(ctx context.Context, requestID string) ([]*models.Approval, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE request_id = ? ORDER BY level ASC, step_order ASC",
		approvalColumns, constants.TableApproval)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApprovals(rows)
}

// ListPendingForApprover returns an approver's open tasks, oldest first
func (r *ApprovalRepository) ListPendingForApprover(ctx context.Context, approverID string) ([]*models.Approval, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE approver_id = ? AND status = ? ORDER BY created_date ASC",
		approvalColumns, constants.TableApproval)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, approverID, constants.ApprovalStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApprovals(rows)
}

// ListPendingAboveLevel returns pending approvals with level strictly
// greater than the given level, lowest level first
func (r *ApprovalRepository) ListPendingAboveLevel(ctx context.Context, requestID string, level int) ([]*models.Approval, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE request_id = ? AND status = ? AND level > ? ORDER BY level ASC, step_order ASC",
		approvalColumns, constants.TableApproval)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, requestID, constants.ApprovalStatusPending, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApprovals(rows)
}

// HasPending reports whether the request has any undecided approval
func (r *ApprovalRepository) HasPending(ctx context.Context, requestID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE request_id = ? AND status = ?)", constants.TableApproval)
	err := conn(ctx, r.db).QueryRowContext(ctx, query, requestID, constants.ApprovalStatusPending).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListOverduePending returns pending approvals past their timeout whose
// escalation latch is still unset
func (r *ApprovalRepository) ListOverduePending(ctx context.Context, now time.Time) ([]*models.Approval, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE status = ?
		  AND timeout_hours IS NOT NULL AND timeout_hours > 0
		  AND escalation_notified = false
		  AND DATE_ADD(created_date, INTERVAL timeout_hours HOUR) < ?
		ORDER BY created_date ASC`,
		approvalColumns, constants.TableApproval)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, constants.ApprovalStatusPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApprovals(rows)
}

// MarkEscalationNotified sets the escalation latch for a batch of approvals
func (r *ApprovalRepository) MarkEscalationNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf("UPDATE %s SET escalation_notified = true WHERE id IN (%s)", constants.TableApproval, placeholders)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApproval(row rowScanner) (*models.Approval, error) {
	var a models.Approval
	var comments sql.NullString
	var timeout sql.NullInt64
	var escUser, escRole sql.NullString
	var reviewedAt sql.NullTime

	err := row.Scan(&a.ID, &a.RequestID, &a.ApproverID, &a.Level, &a.StepOrder, &a.Status,
		&comments, &timeout, &escUser, &escRole, &a.EscalationNotified, &a.CreatedDate, &reviewedAt)
	if err != nil {
		return nil, err
	}

	a.Comments = comments.String
	if timeout.Valid {
		v := int(timeout.Int64)
		a.Timeout = &v
	}
	if escUser.Valid || escRole.Valid {
		target, err := models.TargetFromColumns(models.NullStringToPtr(escUser), models.NullStringToPtr(escRole))
		if err != nil {
			return nil, fmt.Errorf("approval %s: %w", a.ID, err)
		}
		a.Escalation = &target
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		a.ReviewedAt = &t
	}

	return &a, nil
}

func collectApprovals(rows *sql.Rows) ([]*models.Approval, error) {
	var approvals []*models.Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}
