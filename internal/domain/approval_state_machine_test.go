package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

func TestApprovalStateMachine_ValidTransitions(t *testing.T) {
	sm := NewApprovalStateMachine()

	tests := []struct {
		name     string
		from     string
		decision Decision
		want     string
	}{
		{"approve from pending", constants.ApprovalStatusPending, DecisionApprove, constants.ApprovalStatusApproved},
		{"reject from pending", constants.ApprovalStatusPending, DecisionReject, constants.ApprovalStatusRejected},
		{"return from pending", constants.ApprovalStatusPending, DecisionReturn, constants.ApprovalStatusReturned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sm.Apply(tt.from, tt.decision)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApprovalStateMachine_TerminalStatesRejectAllDecisions(t *testing.T) {
	sm := NewApprovalStateMachine()

	terminal := []string{
		constants.ApprovalStatusApproved,
		constants.ApprovalStatusRejected,
		constants.ApprovalStatusReturned,
	}

	for _, status := range terminal {
		assert.True(t, sm.IsTerminal(status), "expected %s to be terminal", status)

		for _, d := range []Decision{DecisionApprove, DecisionReject, DecisionReturn} {
			got, err := sm.Apply(status, d)
			assert.Error(t, err)
			// The status must not change on an invalid transition
			assert.Equal(t, status, got)
		}
	}
}

func TestApprovalStateMachine_PendingIsNotTerminal(t *testing.T) {
	sm := NewApprovalStateMachine()

	assert.False(t, sm.IsTerminal(constants.ApprovalStatusPending))
	assert.True(t, sm.CanApply(constants.ApprovalStatusPending, DecisionApprove))
}
