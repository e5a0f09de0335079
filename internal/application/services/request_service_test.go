package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
	appErrors "github.com/cihat41/ReqPortal-sub000/pkg/errors"
)

func requestServiceFixture(t *testing.T, workflows *fakeWorkflowStore) (*RequestService, *engineFixture) {
	t.Helper()
	directory := newFakeDirectory(
		testUser("user-req", "Dave", nil),
		testUser("user-cfo", "Carol", nil),
	)
	requests := newFakeRequestStore()
	f := newEngineFixture(workflows, requests, directory)
	selector := NewWorkflowSelector(workflows, directory)
	svc := NewRequestService(requests, f.approvals, selector, f.engine, requests)
	return svc, f
}

func singleStepWorkflow() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:       "wf-1",
		Name:     "Spend Approval",
		Strategy: constants.StrategyAll,
		Priority: 10,
		IsActive: true,
		Steps: []models.WorkflowStep{
			{ID: "step-1", WorkflowID: "wf-1", Level: 1, StepOrder: 1, Approver: models.UserTarget("user-cfo")},
		},
	}
}

func TestRequestService_CreateDraft(t *testing.T) {
	svc, f := requestServiceFixture(t, newFakeWorkflowStore(singleStepWorkflow()))

	req, err := svc.Create(context.Background(), CreateRequestInput{Title: "New laptop", Category: "Procurement"}, "user-req")
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusDraft, req.Status)
	assert.Equal(t, "user-req", req.RequesterID)
	assert.NotEmpty(t, req.ID)

	stored, err := f.requests.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, stored.ID)
}

func TestRequestService_CreateRequiresTitle(t *testing.T) {
	svc, _ := requestServiceFixture(t, newFakeWorkflowStore())

	_, err := svc.Create(context.Background(), CreateRequestInput{Category: "Procurement"}, "user-req")
	require.Error(t, err)
	var vErr *appErrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestRequestService_SubmitBindsWorkflowAndInstantiates(t *testing.T) {
	ctx := context.Background()
	svc, f := requestServiceFixture(t, newFakeWorkflowStore(singleStepWorkflow()))

	draft, err := svc.Create(ctx, CreateRequestInput{Title: "New laptop", Category: "Procurement"}, "user-req")
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, draft.ID, "user-req")
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusPendingApproval, submitted.Status)
	require.NotNil(t, submitted.WorkflowID)
	assert.Equal(t, "wf-1", *submitted.WorkflowID)
	assert.NotNil(t, submitted.SubmittedAt)

	assert.Len(t, f.pendingApprovalsFor("user-cfo"), 1)
	assert.Len(t, f.notifier.sentTo("user-cfo"), 1)
}

func TestRequestService_SubmitOnlyByRequester(t *testing.T) {
	ctx := context.Background()
	svc, _ := requestServiceFixture(t, newFakeWorkflowStore(singleStepWorkflow()))

	draft, err := svc.Create(ctx, CreateRequestInput{Title: "New laptop"}, "user-req")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, draft.ID, "user-cfo")
	require.Error(t, err)
	var pErr *appErrors.PermissionError
	assert.ErrorAs(t, err, &pErr)
}

func TestRequestService_SubmitOnlyFromDraft(t *testing.T) {
	ctx := context.Background()
	svc, f := requestServiceFixture(t, newFakeWorkflowStore(singleStepWorkflow()))

	draft, err := svc.Create(ctx, CreateRequestInput{Title: "New laptop"}, "user-req")
	require.NoError(t, err)
	require.NoError(t, f.requests.UpdateStatus(ctx, draft.ID, constants.RequestStatusRejected))

	_, err = svc.Submit(ctx, draft.ID, "user-req")
	require.Error(t, err)
	var vErr *appErrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestRequestService_SubmitWithoutMatchingWorkflowFails(t *testing.T) {
	ctx := context.Background()
	hrOnly := &models.WorkflowDefinition{
		ID:         "wf-hr",
		Name:       "HR Only",
		Conditions: `category == "HR"`,
		Priority:   10,
		IsActive:   true,
		Steps: []models.WorkflowStep{
			{ID: "step-1", WorkflowID: "wf-hr", Level: 1, StepOrder: 1, Approver: models.UserTarget("user-cfo")},
		},
	}
	svc, _ := requestServiceFixture(t, newFakeWorkflowStore(hrOnly))

	draft, err := svc.Create(ctx, CreateRequestInput{Title: "New laptop", Category: "Procurement"}, "user-req")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, draft.ID, "user-req")
	require.Error(t, err)
	var vErr *appErrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestRequestService_SubmitRevertsOnEmptyInstantiation(t *testing.T) {
	ctx := context.Background()

	// The workflow matches but its only step targets a user who does not
	// exist, so instantiation produces nothing
	ghost := singleStepWorkflow()
	ghost.Steps[0].Approver = models.UserTarget("user-ghost")
	svc, f := requestServiceFixture(t, newFakeWorkflowStore(ghost))

	draft, err := svc.Create(ctx, CreateRequestInput{Title: "New laptop", Category: "Procurement"}, "user-req")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, draft.ID, "user-req")
	require.Error(t, err)

	reloaded, err := f.requests.GetRequest(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusDraft, reloaded.Status)
}
