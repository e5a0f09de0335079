package models

import (
	"fmt"
	"time"
)

// TargetKind discriminates the two approver target variants.
type TargetKind string

const (
	// TargetUser addresses one specific user
	TargetUser TargetKind = "user"
	// TargetRole fans out to every current member of a role
	TargetRole TargetKind = "role"
)

// ApproverTarget is a tagged variant: a step (or escalation) names either
// one user or a whole role. Stored as two nullable FK columns; exactly one
// must be set.
type ApproverTarget struct {
	Kind TargetKind
	ID   string
}

// UserTarget creates a target addressing a single user
func UserTarget(userID string) ApproverTarget {
	return ApproverTarget{Kind: TargetUser, ID: userID}
}

// RoleTarget creates a target fanning out to a role's members
func RoleTarget(roleID string) ApproverTarget {
	return ApproverTarget{Kind: TargetRole, ID: roleID}
}

// TargetFromColumns builds an ApproverTarget from the nullable user/role FK
// pair a step row carries. Returns an error unless exactly one is set.
func TargetFromColumns(userID, roleID *string) (ApproverTarget, error) {
	switch {
	case userID != nil && roleID != nil:
		return ApproverTarget{}, fmt.Errorf("approver target has both user '%s' and role '%s'", *userID, *roleID)
	case userID != nil:
		return UserTarget(*userID), nil
	case roleID != nil:
		return RoleTarget(*roleID), nil
	default:
		return ApproverTarget{}, fmt.Errorf("approver target has neither user nor role")
	}
}

// Columns splits the target back into the nullable FK pair for persistence
func (t ApproverTarget) Columns() (userID, roleID *string) {
	id := t.ID
	if t.Kind == TargetUser {
		return &id, nil
	}
	return nil, &id
}

// WorkflowDefinition is an ordered, reusable approval policy. One strategy
// governs every level's completion test. Authored externally; read-only to
// the engine.
type WorkflowDefinition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Strategy    string         `json:"approval_strategy"` // Any | All | Majority
	Conditions  string         `json:"conditions"`        // expr-lang predicate; empty matches everything
	Priority    int            `json:"priority"`          // highest wins among matching workflows
	IsActive    bool           `json:"is_active"`
	Steps       []WorkflowStep `json:"steps"`
	CreatedDate time.Time      `json:"created_date"`
}

// WorkflowStep is one configured approver target within a level. Steps
// sharing a level execute as one parallel approval group.
type WorkflowStep struct {
	ID         string          `json:"id"`
	WorkflowID string          `json:"workflow_id"`
	Level      int             `json:"level"`
	StepOrder  int             `json:"step_order"`
	StepType   string          `json:"step_type"` // sequential | parallel (informational)
	Approver   ApproverTarget  `json:"approver"`
	Timeout    *int            `json:"timeout_hours,omitempty"`
	Escalation *ApproverTarget `json:"escalation,omitempty"`
}
