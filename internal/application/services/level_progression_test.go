package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

func TestStrategySatisfied(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		approved int
		total    int
		want     bool
	}{
		{"any, one of three", constants.StrategyAny, 1, 3, true},
		{"any, none", constants.StrategyAny, 0, 3, false},
		{"all, complete", constants.StrategyAll, 3, 3, true},
		{"all, one short", constants.StrategyAll, 2, 3, false},
		{"majority, two of three", constants.StrategyMajority, 2, 3, true},
		{"majority, one of three", constants.StrategyMajority, 1, 3, false},
		{"majority, tie of four is insufficient", constants.StrategyMajority, 2, 4, false},
		{"majority, three of four", constants.StrategyMajority, 3, 4, true},
		{"majority, single approver", constants.StrategyMajority, 1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, strategySatisfied(tt.strategy, tt.approved, tt.total))
		})
	}
}

func TestStrategySatisfied_UnknownFallsBackToAll(t *testing.T) {
	assert.False(t, strategySatisfied("Consensus", 2, 3))
	assert.True(t, strategySatisfied("Consensus", 3, 3))
	assert.False(t, strategySatisfied("", 1, 2))
	assert.True(t, strategySatisfied("", 2, 2))
}

// seedLevel creates approvals at a level directly in the fake store
func seedLevel(t *testing.T, f *engineFixture, requestID string, level, approved, pending int) []*models.Approval {
	t.Helper()
	var created []*models.Approval
	order := 1
	add := func(status string) {
		a := &models.Approval{
			ID:          fmt.Sprintf("ap-%s-%d-%d", requestID, level, order),
			RequestID:   requestID,
			ApproverID:  fmt.Sprintf("user-%d-%d", level, order),
			Level:       level,
			StepOrder:   order,
			Status:      status,
			CreatedDate: time.Now().UTC(),
		}
		require.NoError(t, f.approvals.CreateApprovals(context.Background(), []*models.Approval{a}))
		created = append(created, a)
		order++
	}
	for i := 0; i < approved; i++ {
		add(constants.ApprovalStatusApproved)
	}
	for i := 0; i < pending; i++ {
		add(constants.ApprovalStatusPending)
	}
	return created
}

func progressionFixture(strategy string) *engineFixture {
	workflow := &models.WorkflowDefinition{
		ID:       "wf-1",
		Name:     "Spend Approval",
		Strategy: strategy,
		IsActive: true,
	}
	requests := newFakeRequestStore(
		testRequest("req-1", "user-req", constants.RequestStatusPendingApproval, strPtr("wf-1")),
	)
	directory := newFakeDirectory(testUser("user-req", "Dave", nil))
	return newEngineFixture(newFakeWorkflowStore(workflow), requests, directory)
}

func TestIsLevelCompleted_EmptyLevelNeverCompletes(t *testing.T) {
	f := progressionFixture(constants.StrategyAny)

	done, err := f.progression.IsLevelCompleted(context.Background(), "req-1", 1)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestIsLevelCompleted_MajorityOfFourNeedsThree(t *testing.T) {
	ctx := context.Background()

	f := progressionFixture(constants.StrategyMajority)
	seedLevel(t, f, "req-1", 1, 2, 2)
	done, err := f.progression.IsLevelCompleted(ctx, "req-1", 1)
	require.NoError(t, err)
	assert.False(t, done, "2 of 4 is a tie, not a majority")

	f = progressionFixture(constants.StrategyMajority)
	seedLevel(t, f, "req-1", 1, 3, 1)
	done, err = f.progression.IsLevelCompleted(ctx, "req-1", 1)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestIsLevelCompleted_NoWorkflowUsesStrictRule(t *testing.T) {
	ctx := context.Background()

	workflow := &models.WorkflowDefinition{ID: "wf-1", Strategy: constants.StrategyAny, IsActive: true}
	requests := newFakeRequestStore(
		testRequest("req-1", "user-req", constants.RequestStatusPendingApproval, nil),
	)
	f := newEngineFixture(newFakeWorkflowStore(workflow), requests, newFakeDirectory())
	seedLevel(t, f, "req-1", 1, 1, 1)

	// Without a bound workflow the Any strategy is unreachable; every
	// approval must be Approved
	done, err := f.progression.IsLevelCompleted(ctx, "req-1", 1)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestAdvanceAfterApproval_ActivatesMinimumHigherLevel(t *testing.T) {
	ctx := context.Background()
	f := progressionFixture(constants.StrategyAll)
	level1 := seedLevel(t, f, "req-1", 1, 1, 0)
	level3 := seedLevel(t, f, "req-1", 3, 0, 1)
	seedLevel(t, f, "req-1", 5, 0, 1)

	require.NoError(t, f.progression.AdvanceAfterApproval(ctx, level1[0]))

	// Level 3 is the minimum pending level above 1; level 5 stays dormant
	assert.Len(t, f.notifier.sentTo(level3[0].ApproverID), 1)
	assert.Equal(t, 1, f.notifier.countByType(constants.NotificationTypeApprovalRequest))

	req, err := f.requests.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusPendingApproval, req.Status)
	assert.Nil(t, req.CompletedAt)
}

func TestAdvanceAfterApproval_FinalizesAfterLastLevel(t *testing.T) {
	ctx := context.Background()
	f := progressionFixture(constants.StrategyAll)
	level2 := seedLevel(t, f, "req-1", 2, 1, 0)

	require.NoError(t, f.progression.AdvanceAfterApproval(ctx, level2[0]))

	req, err := f.requests.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusApproved, req.Status)
	require.NotNil(t, req.CompletedAt)
	assert.WithinDuration(t, time.Now().UTC(), *req.CompletedAt, time.Minute)

	// The requester hears about the final approval
	sent := f.notifier.sentTo("user-req")
	require.Len(t, sent, 1)
	assert.Equal(t, constants.NotificationTypeRequestApproved, sent[0].NotificationType)
}

func TestAdvanceAfterApproval_IncompleteLevelHolds(t *testing.T) {
	ctx := context.Background()
	f := progressionFixture(constants.StrategyAll)
	approvals := seedLevel(t, f, "req-1", 1, 1, 1)
	seedLevel(t, f, "req-1", 2, 0, 1)

	require.NoError(t, f.progression.AdvanceAfterApproval(ctx, approvals[0]))

	// Nobody at level 2 is woken while level 1 still waits
	assert.Equal(t, 0, f.notifier.countByType(constants.NotificationTypeApprovalRequest))

	req, err := f.requests.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusPendingApproval, req.Status)
}
