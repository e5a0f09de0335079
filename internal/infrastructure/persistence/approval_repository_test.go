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

func TestRecordDecision_SingleShot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewApprovalRepository(db)

	query := fmt.Sprintf(
		"UPDATE %s SET status = ?, comments = ?, reviewed_at = ? WHERE id = ? AND status = ?",
		constants.TableApproval)
	reviewedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// First decision lands
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(constants.ApprovalStatusApproved, "looks good", reviewedAt, "appr-1", constants.ApprovalStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.RecordDecision(context.Background(), "appr-1", constants.ApprovalStatusApproved, "looks good", reviewedAt)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Second decision on the now-terminal row affects nothing
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(constants.ApprovalStatusRejected, "too late", reviewedAt, "appr-1", constants.ApprovalStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err = repo.RecordDecision(context.Background(), "appr-1", constants.ApprovalStatusRejected, "too late", reviewedAt)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewApprovalRepository(db)

	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE request_id = ? AND status = ?)", constants.TableApproval)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("req-1", constants.ApprovalStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasPending(context.Background(), "req-1")
	assert.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("req-2", constants.ApprovalStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err = repo.HasPending(context.Background(), "req-2")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestListByRequestAndLevel(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewApprovalRepository(db)

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE request_id = ? AND level = ? ORDER BY step_order ASC",
		approvalColumns, constants.TableApproval)

	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "request_id", "approver_id", "level", "step_order", "status", "comments",
		"timeout_hours", "escalation_user_id", "escalation_role_id", "escalation_notified",
		"created_date", "reviewed_at",
	}).
		AddRow("a1", "req-1", "u1", 1, 1, constants.ApprovalStatusApproved, "ok", 24, nil, "role-mgr", false, created, created.Add(time.Hour)).
		AddRow("a2", "req-1", "u2", 1, 2, constants.ApprovalStatusPending, nil, nil, nil, nil, false, created, nil)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("req-1", 1).WillReturnRows(rows)

	approvals, err := repo.ListByRequestAndLevel(context.Background(), "req-1", 1)
	assert.NoError(t, err)
	assert.Len(t, approvals, 2)

	assert.Equal(t, "a1", approvals[0].ID)
	assert.Equal(t, 24, *approvals[0].Timeout)
	assert.NotNil(t, approvals[0].Escalation)
	assert.Equal(t, "role-mgr", approvals[0].Escalation.ID)
	assert.NotNil(t, approvals[0].ReviewedAt)

	assert.True(t, approvals[1].IsPending())
	assert.Nil(t, approvals[1].Timeout)
	assert.Nil(t, approvals[1].Escalation)
}

func TestMarkEscalationNotified_Batch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewApprovalRepository(db)

	query := fmt.Sprintf("UPDATE %s SET escalation_notified = true WHERE id IN (?, ?)", constants.TableApproval)

	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs("a1", "a2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err = repo.MarkEscalationNotified(context.Background(), []string{"a1", "a2"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEscalationNotified_EmptyBatchIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewApprovalRepository(db)

	err = repo.MarkEscalationNotified(context.Background(), nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
