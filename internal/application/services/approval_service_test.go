package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cihat41/ReqPortal-sub000/internal/domain"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
	appErrors "github.com/cihat41/ReqPortal-sub000/pkg/errors"
)

// chainFixture seeds a two-level workflow: two managers at level 1, one
// CFO at level 2, strategy as given.
func chainFixture(t *testing.T, strategy string) *engineFixture {
	t.Helper()
	managerRole := "role-manager"

	workflow := &models.WorkflowDefinition{
		ID:       "wf-1",
		Name:     "Spend Approval",
		Strategy: strategy,
		IsActive: true,
		Steps: []models.WorkflowStep{
			{ID: "step-1", WorkflowID: "wf-1", Level: 1, StepOrder: 1, Approver: models.RoleTarget(managerRole)},
			{ID: "step-2", WorkflowID: "wf-1", Level: 2, StepOrder: 1, Approver: models.UserTarget("user-cfo")},
		},
	}
	directory := newFakeDirectory(
		testUser("user-alice", "Alice", &managerRole),
		testUser("user-bob", "Bob", &managerRole),
		testUser("user-cfo", "Carol", nil),
		testUser("user-req", "Dave", nil),
	)
	requests := newFakeRequestStore(
		testRequest("req-1", "user-req", constants.RequestStatusSubmitted, strPtr("wf-1")),
	)
	f := newEngineFixture(newFakeWorkflowStore(workflow), requests, directory)

	created := f.engine.CreateApprovalsForRequest(context.Background(), "req-1", "wf-1")
	require.Equal(t, 3, created)
	return f
}

func TestProcessApproval_AllStrategyChainToFinalApproval(t *testing.T) {
	ctx := context.Background()
	f := chainFixture(t, constants.StrategyAll)

	alice := f.pendingApprovalsFor("user-alice")
	bob := f.pendingApprovalsFor("user-bob")
	require.Len(t, alice, 1)
	require.Len(t, bob, 1)

	// First manager approves: level 1 incomplete, request holds
	assert.True(t, f.service.ProcessApproval(ctx, alice[0].ID, domain.DecisionApprove, "fine by me"))
	req, _ := f.requests.GetRequest(ctx, "req-1")
	assert.Equal(t, constants.RequestStatusPendingApproval, req.Status)
	assert.Empty(t, f.notifier.sentTo("user-cfo"))

	// Second manager completes level 1, the CFO wakes up
	assert.True(t, f.service.ProcessApproval(ctx, bob[0].ID, domain.DecisionApprove, ""))
	assert.Len(t, f.notifier.sentTo("user-cfo"), 1)

	// CFO clears the final level
	cfo := f.pendingApprovalsFor("user-cfo")
	require.Len(t, cfo, 1)
	assert.True(t, f.service.ProcessApproval(ctx, cfo[0].ID, domain.DecisionApprove, "approved"))

	req, _ = f.requests.GetRequest(ctx, "req-1")
	assert.Equal(t, constants.RequestStatusApproved, req.Status)
	require.NotNil(t, req.CompletedAt)

	requesterMail := f.notifier.sentTo("user-req")
	require.Len(t, requesterMail, 1)
	assert.Equal(t, constants.NotificationTypeRequestApproved, requesterMail[0].NotificationType)
}

func TestProcessApproval_AnyStrategySingleDecisionAdvances(t *testing.T) {
	ctx := context.Background()
	f := chainFixture(t, constants.StrategyAny)

	alice := f.pendingApprovalsFor("user-alice")
	require.Len(t, alice, 1)

	assert.True(t, f.service.ProcessApproval(ctx, alice[0].ID, domain.DecisionApprove, ""))

	// One approval satisfies Any; level 2 activates while Bob's row stays
	// pending and is simply never revisited
	assert.Len(t, f.notifier.sentTo("user-cfo"), 1)
	bob := f.pendingApprovalsFor("user-bob")
	assert.Len(t, bob, 1)

	req, _ := f.requests.GetRequest(ctx, "req-1")
	assert.Equal(t, constants.RequestStatusPendingApproval, req.Status)
}

func TestProcessApproval_RejectShortCircuits(t *testing.T) {
	ctx := context.Background()
	f := chainFixture(t, constants.StrategyAll)

	alice := f.pendingApprovalsFor("user-alice")
	require.Len(t, alice, 1)

	assert.True(t, f.service.ProcessApproval(ctx, alice[0].ID, domain.DecisionReject, "over budget"))

	req, _ := f.requests.GetRequest(ctx, "req-1")
	assert.Equal(t, constants.RequestStatusRejected, req.Status)
	assert.Nil(t, req.CompletedAt)

	// The other approvals are left untouched, historically Pending
	rejected, _ := f.approvals.GetApproval(ctx, alice[0].ID)
	assert.Equal(t, constants.ApprovalStatusRejected, rejected.Status)
	assert.Equal(t, "over budget", rejected.Comments)
	assert.Len(t, f.pendingApprovalsFor("user-bob"), 1)
	assert.Len(t, f.pendingApprovalsFor("user-cfo"), 1)

	requesterMail := f.notifier.sentTo("user-req")
	require.Len(t, requesterMail, 1)
	assert.Equal(t, constants.NotificationTypeRequestRejected, requesterMail[0].NotificationType)
	assert.Contains(t, requesterMail[0].Body, "over budget")
}

func TestProcessApproval_ReturnSendsRequestBackToDraft(t *testing.T) {
	ctx := context.Background()
	f := chainFixture(t, constants.StrategyAll)

	alice := f.pendingApprovalsFor("user-alice")
	require.Len(t, alice, 1)

	assert.True(t, f.service.ProcessApproval(ctx, alice[0].ID, domain.DecisionReturn, "needs a quote attached"))

	req, _ := f.requests.GetRequest(ctx, "req-1")
	assert.Equal(t, constants.RequestStatusDraft, req.Status)

	returned, _ := f.approvals.GetApproval(ctx, alice[0].ID)
	assert.Equal(t, constants.ApprovalStatusReturned, returned.Status)

	requesterMail := f.notifier.sentTo("user-req")
	require.Len(t, requesterMail, 1)
	assert.Equal(t, constants.NotificationTypeRequestReturned, requesterMail[0].NotificationType)
}

func TestProcessApproval_SecondDecisionIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := chainFixture(t, constants.StrategyAll)

	alice := f.pendingApprovalsFor("user-alice")
	require.Len(t, alice, 1)

	assert.True(t, f.service.ProcessApproval(ctx, alice[0].ID, domain.DecisionApprove, "first"))
	first, _ := f.approvals.GetApproval(ctx, alice[0].ID)
	require.NotNil(t, first.ReviewedAt)
	firstReviewedAt := *first.ReviewedAt

	// A later Reject on the same record is a logged no-op, not an error
	assert.True(t, f.service.ProcessApproval(ctx, alice[0].ID, domain.DecisionReject, "second"))

	after, _ := f.approvals.GetApproval(ctx, alice[0].ID)
	assert.Equal(t, constants.ApprovalStatusApproved, after.Status)
	assert.Equal(t, "first", after.Comments)
	assert.Equal(t, firstReviewedAt, *after.ReviewedAt)

	req, _ := f.requests.GetRequest(ctx, "req-1")
	assert.NotEqual(t, constants.RequestStatusRejected, req.Status)
}

func TestProcessApproval_MissingApprovalReturnsFalse(t *testing.T) {
	f := chainFixture(t, constants.StrategyAll)

	found := f.service.ProcessApproval(context.Background(), "ap-missing", domain.DecisionApprove, "")
	assert.False(t, found)
	assert.Equal(t, 0, f.notifier.countByType(constants.NotificationTypeRequestApproved))
}

func TestDecide_OnlyAssignedApproverMayDecide(t *testing.T) {
	ctx := context.Background()
	f := chainFixture(t, constants.StrategyAll)

	alice := f.pendingApprovalsFor("user-alice")
	require.Len(t, alice, 1)

	// Another authenticated user cannot decide Alice's approval
	err := f.service.Decide(ctx, alice[0].ID, "user-bob", domain.DecisionApprove, "")
	var permErr *appErrors.PermissionError
	require.ErrorAs(t, err, &permErr)

	untouched, _ := f.approvals.GetApproval(ctx, alice[0].ID)
	assert.Equal(t, constants.ApprovalStatusPending, untouched.Status)
	req, _ := f.requests.GetRequest(ctx, "req-1")
	assert.Equal(t, constants.RequestStatusPendingApproval, req.Status)

	// The assigned approver goes through
	require.NoError(t, f.service.Decide(ctx, alice[0].ID, "user-alice", domain.DecisionApprove, "fine"))
	decided, _ := f.approvals.GetApproval(ctx, alice[0].ID)
	assert.Equal(t, constants.ApprovalStatusApproved, decided.Status)
	assert.Equal(t, "fine", decided.Comments)
}

func TestDecide_MissingApprovalIsNotFound(t *testing.T) {
	f := chainFixture(t, constants.StrategyAll)

	err := f.service.Decide(context.Background(), "ap-missing", "user-alice", domain.DecisionApprove, "")
	var notFound *appErrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestProcessApproval_StampsReviewTime(t *testing.T) {
	ctx := context.Background()
	f := chainFixture(t, constants.StrategyAny)

	alice := f.pendingApprovalsFor("user-alice")
	require.Len(t, alice, 1)
	require.Nil(t, alice[0].ReviewedAt)

	before := time.Now().UTC()
	assert.True(t, f.service.ProcessApproval(ctx, alice[0].ID, domain.DecisionApprove, ""))

	after, _ := f.approvals.GetApproval(ctx, alice[0].ID)
	require.NotNil(t, after.ReviewedAt)
	assert.False(t, after.ReviewedAt.Before(before))
}
