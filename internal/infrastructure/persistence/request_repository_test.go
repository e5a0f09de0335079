package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

func TestListOverdue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRequestRepository(db)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-2 * time.Hour)
	created := now.Add(-48 * time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "title", "category", "requester_id", "workflow_id", "status",
		"due_date", "submitted_at", "completed_at", "sla_violation_notified", "created_date",
	}).AddRow("req-1", "New laptop", "IT", "u1", "wf-1", constants.RequestStatusPendingApproval,
		due, created, nil, false, created)

	mock.ExpectQuery("SELECT (.+) FROM requests").
		WithArgs(constants.RequestStatusSubmitted, constants.RequestStatusPendingApproval, now).
		WillReturnRows(rows)

	overdue, err := repo.ListOverdue(context.Background(), now)
	assert.NoError(t, err)
	assert.Len(t, overdue, 1)
	assert.Equal(t, "req-1", overdue[0].ID)
	assert.True(t, overdue[0].IsOverdue(now))
	assert.Equal(t, "wf-1", *overdue[0].WorkflowID)
}

func TestMarkSLAViolationNotified(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRequestRepository(db)

	query := fmt.Sprintf("UPDATE %s SET sla_violation_notified = true WHERE id IN (?)", constants.TableRequest)

	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkSLAViolationNotified(context.Background(), []string{"req-1"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeApproved(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRequestRepository(db)

	query := fmt.Sprintf("UPDATE %s SET status = ?, completed_at = ? WHERE id = ?", constants.TableRequest)
	completedAt := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(constants.RequestStatusApproved, completedAt, "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.FinalizeApproved(context.Background(), "req-1", completedAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRequestRepository(db)

	query := fmt.Sprintf("UPDATE %s SET status = ? WHERE id = ?", constants.TableRequest)

	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(constants.RequestStatusPendingApproval, "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateStatus(context.Background(), "req-1", constants.RequestStatusPendingApproval)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
