package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

// In-memory fakes of the store/directory/notifier ports for service tests.

type fakeWorkflowStore struct {
	workflows map[string]*models.WorkflowDefinition
}

func newFakeWorkflowStore(workflows ...*models.WorkflowDefinition) *fakeWorkflowStore {
	s := &fakeWorkflowStore{workflows: make(map[string]*models.WorkflowDefinition)}
	for _, wf := range workflows {
		s.workflows[wf.ID] = wf
	}
	return s
}

func (s *fakeWorkflowStore) GetWorkflow(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	wf, ok := s.workflows[id]
	if !ok {
		return nil, fmt.Errorf("workflow %s not found", id)
	}
	return wf, nil
}

func (s *fakeWorkflowStore) ListActiveWorkflows(_ context.Context) ([]*models.WorkflowDefinition, error) {
	var active []*models.WorkflowDefinition
	for _, wf := range s.workflows {
		if wf.IsActive {
			active = append(active, wf)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Priority > active[j].Priority })
	return active, nil
}

type fakeRequestStore struct {
	requests map[string]*models.Request
}

func newFakeRequestStore(requests ...*models.Request) *fakeRequestStore {
	s := &fakeRequestStore{requests: make(map[string]*models.Request)}
	for _, r := range requests {
		s.requests[r.ID] = r
	}
	return s
}

func (s *fakeRequestStore) CreateRequest(_ context.Context, req *models.Request) error {
	s.requests[req.ID] = req
	return nil
}

func (s *fakeRequestStore) GetRequest(_ context.Context, id string) (*models.Request, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s not found", id)
	}
	return req, nil
}

func (s *fakeRequestStore) UpdateStatus(_ context.Context, id, status string) error {
	req, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("request %s not found", id)
	}
	req.Status = status
	return nil
}

func (s *fakeRequestStore) MarkSubmitted(_ context.Context, id, workflowID, status string, at time.Time) error {
	req, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("request %s not found", id)
	}
	req.WorkflowID = &workflowID
	req.Status = status
	req.SubmittedAt = &at
	return nil
}

func (s *fakeRequestStore) FinalizeApproved(_ context.Context, id string, completedAt time.Time) error {
	req, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("request %s not found", id)
	}
	req.Status = constants.RequestStatusApproved
	req.CompletedAt = &completedAt
	return nil
}

func (s *fakeRequestStore) ListOverdue(_ context.Context, now time.Time) ([]*models.Request, error) {
	var overdue []*models.Request
	for _, req := range s.requests {
		if req.IsOverdue(now) && !req.SLAViolationNotified {
			overdue = append(overdue, req)
		}
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].ID < overdue[j].ID })
	return overdue, nil
}

func (s *fakeRequestStore) MarkSLAViolationNotified(_ context.Context, ids []string) error {
	for _, id := range ids {
		if req, ok := s.requests[id]; ok {
			req.SLAViolationNotified = true
		}
	}
	return nil
}

type fakeApprovalStore struct {
	approvals map[string]*models.Approval
}

func newFakeApprovalStore() *fakeApprovalStore {
	return &fakeApprovalStore{approvals: make(map[string]*models.Approval)}
}

func (s *fakeApprovalStore) CreateApprovals(_ context.Context, approvals []*models.Approval) error {
	for _, a := range approvals {
		s.approvals[a.ID] = a
	}
	return nil
}

func (s *fakeApprovalStore) GetApproval(_ context.Context, id string) (*models.Approval, error) {
	a, ok := s.approvals[id]
	if !ok {
		return nil, fmt.Errorf("approval %s not found", id)
	}
	return a, nil
}

func (s *fakeApprovalStore) RecordDecision(_ context.Context, id, status, comments string, reviewedAt time.Time) (int64, error) {
	a, ok := s.approvals[id]
	if !ok || a.Status != constants.ApprovalStatusPending {
		return 0, nil
	}
	a.Status = status
	a.Comments = comments
	a.ReviewedAt = &reviewedAt
	return 1, nil
}

func (s *fakeApprovalStore) ListByRequestAndLevel(_ context.Context, requestID string, level int) ([]*models.Approval, error) {
	var result []*models.Approval
	for _, a := range s.approvals {
		if a.RequestID == requestID && a.Level == level {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StepOrder < result[j].StepOrder })
	return result, nil
}

func (s *fakeApprovalStore) ListByRequest(_ context.Context, requestID string) ([]*models.Approval, error) {
	var result []*models.Approval
	for _, a := range s.approvals {
		if a.RequestID == requestID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Level != result[j].Level {
			return result[i].Level < result[j].Level
		}
		return result[i].StepOrder < result[j].StepOrder
	})
	return result, nil
}

func (s *fakeApprovalStore) ListPendingForApprover(_ context.Context, approverID string) ([]*models.Approval, error) {
	var result []*models.Approval
	for _, a := range s.approvals {
		if a.ApproverID == approverID && a.IsPending() {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedDate.Before(result[j].CreatedDate) })
	return result, nil
}

func (s *fakeApprovalStore) ListPendingAboveLevel(_ context.Context, requestID string, level int) ([]*models.Approval, error) {
	var result []*models.Approval
	for _, a := range s.approvals {
		if a.RequestID == requestID && a.IsPending() && a.Level > level {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Level != result[j].Level {
			return result[i].Level < result[j].Level
		}
		return result[i].StepOrder < result[j].StepOrder
	})
	return result, nil
}

func (s *fakeApprovalStore) HasPending(_ context.Context, requestID string) (bool, error) {
	for _, a := range s.approvals {
		if a.RequestID == requestID && a.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeApprovalStore) ListOverduePending(_ context.Context, now time.Time) ([]*models.Approval, error) {
	var result []*models.Approval
	for _, a := range s.approvals {
		if a.IsOverdue(now) && !a.EscalationNotified {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *fakeApprovalStore) MarkEscalationNotified(_ context.Context, ids []string) error {
	for _, id := range ids {
		if a, ok := s.approvals[id]; ok {
			a.EscalationNotified = true
		}
	}
	return nil
}

type fakeDirectory struct {
	users map[string]*models.User
}

func newFakeDirectory(users ...*models.User) *fakeDirectory {
	d := &fakeDirectory{users: make(map[string]*models.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) GetUser(_ context.Context, id string) (*models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return u, nil
}

func (d *fakeDirectory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s not found", email)
}

func (d *fakeDirectory) ListRoleMembers(_ context.Context, roleID string) ([]*models.User, error) {
	var members []*models.User
	for _, u := range d.users {
		if u.RoleID != nil && *u.RoleID == roleID && u.IsActive {
			members = append(members, u)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

// fakeNotifier captures sent notifications in order
type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *fakeNotifier) Send(_ context.Context, notification models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *fakeNotifier) sentTo(recipientID string) []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var result []models.Notification
	for _, s := range n.sent {
		if s.RecipientID == recipientID {
			result = append(result, s)
		}
	}
	return result
}

func (n *fakeNotifier) countByType(notificationType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, s := range n.sent {
		if s.NotificationType == notificationType {
			count++
		}
	}
	return count
}

// passthroughTx satisfies txRunner without a real database
type passthroughTx struct{}

func (passthroughTx) RunWithRetry(ctx context.Context, fn func(context.Context) error, _ int) error {
	return fn(ctx)
}

// engineFixture wires the full service graph on the in-memory fakes
type engineFixture struct {
	workflows     *fakeWorkflowStore
	requests      *fakeRequestStore
	approvals     *fakeApprovalStore
	directory     *fakeDirectory
	notifier      *fakeNotifier
	notifications *NotificationService
	engine        *WorkflowEngine
	progression   *LevelProgressionService
	service       *ApprovalService
}

func newEngineFixture(workflows *fakeWorkflowStore, requests *fakeRequestStore, directory *fakeDirectory) *engineFixture {
	approvals := newFakeApprovalStore()
	notifier := &fakeNotifier{}
	notifications := NewNotificationService(notifier, directory)
	engine := NewWorkflowEngine(workflows, requests, approvals, directory, notifications)
	progression := NewLevelProgressionService(workflows, requests, approvals, notifications)
	service := NewApprovalService(requests, approvals, progression, notifications, passthroughTx{})

	return &engineFixture{
		workflows:     workflows,
		requests:      requests,
		approvals:     approvals,
		directory:     directory,
		notifier:      notifier,
		notifications: notifications,
		engine:        engine,
		progression:   progression,
		service:       service,
	}
}

// pendingApprovalsFor returns the fixture's pending approvals for an approver
func (f *engineFixture) pendingApprovalsFor(approverID string) []*models.Approval {
	result, _ := f.approvals.ListPendingForApprover(context.Background(), approverID)
	return result
}
