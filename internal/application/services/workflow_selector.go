package services

import (
	"context"
	"log"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/ports"
	"github.com/cihat41/ReqPortal-sub000/pkg/expression"
)

// WorkflowSelector picks the workflow that applies to a request: among the
// active definitions whose activation conditions match, the highest
// priority wins.
type WorkflowSelector struct {
	workflows ports.WorkflowStore
	directory ports.Directory
	engine    *expression.Engine
}

// NewWorkflowSelector creates a new WorkflowSelector
func NewWorkflowSelector(workflows ports.WorkflowStore, directory ports.Directory) *WorkflowSelector {
	return &WorkflowSelector{
		workflows: workflows,
		directory: directory,
		engine:    expression.NewEngine(),
	}
}

// FindWorkflowForRequest returns the highest-priority active workflow whose
// conditions match the request, or nil when none matches. A workflow with
// empty conditions matches every request in its scope; a condition that
// fails to evaluate is logged and treated as non-matching.
func (s *WorkflowSelector) FindWorkflowForRequest(ctx context.Context, request *models.Request) (*models.WorkflowDefinition, error) {
	workflows, err := s.workflows.ListActiveWorkflows(ctx)
	if err != nil {
		return nil, err
	}

	env := s.buildEnv(ctx, request)

	var best *models.WorkflowDefinition
	for _, wf := range workflows {
		if !s.matches(wf, env) {
			continue
		}
		if best == nil || wf.Priority > best.Priority {
			best = wf
		}
	}

	return best, nil
}

func (s *WorkflowSelector) matches(wf *models.WorkflowDefinition, env map[string]interface{}) bool {
	if wf.Conditions == "" {
		return true
	}

	ok, err := s.engine.EvaluateBool(wf.Conditions, env)
	if err != nil {
		log.Printf("⚠️ Workflow %s conditions failed to evaluate, treating as non-matching: %v", wf.Name, err)
		return false
	}
	return ok
}

func (s *WorkflowSelector) buildEnv(ctx context.Context, request *models.Request) map[string]interface{} {
	env := map[string]interface{}{
		"category":     request.Category,
		"title":        request.Title,
		"requester_id": request.RequesterID,
	}

	if requester, err := s.directory.GetUser(ctx, request.RequesterID); err == nil && requester != nil {
		env["requester_name"] = requester.Name
		env["requester_email"] = requester.Email
		if requester.RoleID != nil {
			env["requester_role_id"] = *requester.RoleID
		}
	}

	return env
}
