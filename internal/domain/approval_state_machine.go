package domain

import (
	"fmt"

	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

// Decision is an approver action resolving a pending approval
type Decision string

const (
	// DecisionApprove records a positive vote and may advance the level
	DecisionApprove Decision = "Approve"
	// DecisionReject fails the whole request immediately
	DecisionReject Decision = "Reject"
	// DecisionReturn sends the request back to Draft for re-editing
	DecisionReturn Decision = "Return"
)

// ApprovalStateMachine enforces valid approval status transitions.
// A decision may be recorded at most once: every transition leaves Pending
// and every resulting state is terminal.
//
// State diagram:
//
//	            Approve
//	              │
//	              ▼
//	[Pending] ─ Reject ──► [Rejected]
//	    │         │
//	    │         └──────► [Approved]
//	  Return
//	    │
//	    ▼
//	[Returned]
type ApprovalStateMachine struct {
	// transitions maps (current status, decision) -> next status
	transitions map[decisionKey]string
}

type decisionKey struct {
	status   string
	decision Decision
}

// NewApprovalStateMachine creates the state machine with the approval
// lifecycle rules.
func NewApprovalStateMachine() *ApprovalStateMachine {
	sm := &ApprovalStateMachine{
		transitions: make(map[decisionKey]string),
	}

	sm.addTransition(constants.ApprovalStatusPending, DecisionApprove, constants.ApprovalStatusApproved)
	sm.addTransition(constants.ApprovalStatusPending, DecisionReject, constants.ApprovalStatusRejected)
	sm.addTransition(constants.ApprovalStatusPending, DecisionReturn, constants.ApprovalStatusReturned)

	return sm
}

func (sm *ApprovalStateMachine) addTransition(from string, via Decision, to string) {
	sm.transitions[decisionKey{status: from, decision: via}] = to
}

// Apply attempts to resolve the current status with the given decision.
// Returns the new status or an error if the transition is invalid.
func (sm *ApprovalStateMachine) Apply(current string, decision Decision) (string, error) {
	next, ok := sm.transitions[decisionKey{status: current, decision: decision}]
	if !ok {
		return current, fmt.Errorf("invalid approval transition: cannot %s from %s", decision, current)
	}
	return next, nil
}

// CanApply checks whether a decision is valid without performing it
func (sm *ApprovalStateMachine) CanApply(current string, decision Decision) bool {
	_, ok := sm.transitions[decisionKey{status: current, decision: decision}]
	return ok
}

// IsTerminal returns true if no decision can be applied to the status
func (sm *ApprovalStateMachine) IsTerminal(status string) bool {
	for _, d := range []Decision{DecisionApprove, DecisionReject, DecisionReturn} {
		if sm.CanApply(status, d) {
			return false
		}
	}
	return true
}
