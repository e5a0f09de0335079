package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/ports"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

// MonitorService is the escalation & SLA background monitor. It ticks on
// its own schedule, scanning for requests past their due date and
// approvals past their individual timeout, and raises each notification at
// most once via the per-record latches. Exactly one monitor instance is
// assumed to run per deployment; that invariant is a deployment concern,
// not enforced here.
type MonitorService struct {
	requests      ports.RequestStore
	approvals     ports.ApprovalStore
	directory     ports.Directory
	notifications *NotificationService

	interval time.Duration
	schedule cron.Schedule // optional cron override for tick times

	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	stopped  bool // Prevents double-close of stopChan
}

// NewMonitorService creates a new MonitorService ticking at the given
// interval. An empty cronExpr keeps the fixed interval; otherwise tick
// times follow the cron schedule.
func NewMonitorService(
	requests ports.RequestStore,
	approvals ports.ApprovalStore,
	directory ports.Directory,
	notifications *NotificationService,
	interval time.Duration,
	cronExpr string,
) *MonitorService {
	if interval <= 0 {
		interval = constants.MonitorDefaultIntervalMins * time.Minute
	}

	s := &MonitorService{
		requests:      requests,
		approvals:     approvals,
		directory:     directory,
		notifications: notifications,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}

	if cronExpr != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		schedule, err := parser.Parse(cronExpr)
		if err != nil {
			log.Printf("⚠️ Invalid monitor cron expression %q, falling back to %v interval: %v", cronExpr, interval, err)
		} else {
			s.schedule = schedule
		}
	}

	return s
}

// Start begins the monitor loop. Blocks until Stop is called; run it in
// its own goroutine.
func (s *MonitorService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Println("⏰ Escalation/SLA monitor starting...")

	// Run immediately on start
	s.runScans()

	for {
		timer := time.NewTimer(s.nextWait())
		select {
		case <-timer.C:
			s.runScans()
		case <-s.stopChan:
			timer.Stop()
			log.Println("⏰ Escalation/SLA monitor stopping...")
			s.wg.Wait() // Wait for an in-flight scan to finish
			log.Println("⏰ Escalation/SLA monitor stopped")
			return
		}
	}
}

// Stop gracefully stops the monitor between ticks
func (s *MonitorService) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
}

func (s *MonitorService) nextWait() time.Duration {
	if s.schedule != nil {
		return time.Until(s.schedule.Next(time.Now()))
	}
	return s.interval
}

// runScans executes one tick: the SLA scan, then the escalation scan. A
// scan-level failure is caught and logged; the next tick is the retry.
func (s *MonitorService) runScans() {
	s.wg.Add(1)
	defer s.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("🔥 Panic in monitor scan: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), constants.MonitorScanTimeoutMins*time.Minute)
	defer cancel()

	if err := s.runSLAScan(ctx); err != nil {
		log.Printf("❌ SLA scan failed: %v", err)
	}

	// Cooperative cancellation between scan phases
	if s.cancelRequested() {
		return
	}

	if err := s.runEscalationScan(ctx); err != nil {
		log.Printf("❌ Escalation scan failed: %v", err)
	}
}

func (s *MonitorService) cancelRequested() bool {
	select {
	case <-s.stopChan:
		return true
	default:
		return false
	}
}

// runSLAScan notifies requesters of in-flight requests past their due date.
// The sla_violation_notified latch makes the scan idempotent across ticks;
// flag updates are batched at the end of the scan. Notification and
// flag-setting are deliberately decoupled: a failed send is logged but the
// latch is still set, the flow the rest of the system expects.
func (s *MonitorService) runSLAScan(ctx context.Context) error {
	now := time.Now().UTC()

	overdue, err := s.requests.ListOverdue(ctx, now)
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		return nil
	}

	notified := make([]string, 0, len(overdue))
	for _, request := range overdue {
		s.notifications.NotifySLAViolation(ctx, request)
		notified = append(notified, request.ID)
	}

	if err := s.requests.MarkSLAViolationNotified(ctx, notified); err != nil {
		return err
	}

	log.Printf("📣 SLA scan: %d overdue requests notified", len(notified))
	return nil
}

// runEscalationScan notifies escalation targets of approvals pending past
// their timeout. Role targets are re-resolved at scan time so membership
// changes are picked up. Flag updates are batched at the end of the scan.
func (s *MonitorService) runEscalationScan(ctx context.Context) error {
	now := time.Now().UTC()

	overdue, err := s.approvals.ListOverduePending(ctx, now)
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		return nil
	}

	escalated := make([]string, 0, len(overdue))
	for _, approval := range overdue {
		request, err := s.requests.GetRequest(ctx, approval.RequestID)
		if err != nil || request == nil {
			log.Printf("⚠️ Request %s missing for overdue approval %s: %v", approval.RequestID, approval.ID, err)
			continue
		}

		for _, recipient := range s.resolveEscalationRecipients(ctx, approval) {
			s.notifications.NotifyEscalation(ctx, recipient, approval, request)
		}

		escalated = append(escalated, approval.ID)
	}

	if err := s.approvals.MarkEscalationNotified(ctx, escalated); err != nil {
		return err
	}

	log.Printf("📣 Escalation scan: %d overdue approvals escalated", len(escalated))
	return nil
}

// resolveEscalationRecipients snapshots the escalation target at scan time.
// An approval without a configured target is still latched (so it is not
// rescanned forever) but only logged.
func (s *MonitorService) resolveEscalationRecipients(ctx context.Context, approval *models.Approval) []string {
	if approval.Escalation == nil {
		log.Printf("⚠️ Approval %s is overdue but has no escalation target", approval.ID)
		return nil
	}

	switch approval.Escalation.Kind {
	case models.TargetUser:
		return []string{approval.Escalation.ID}
	case models.TargetRole:
		members, err := s.directory.ListRoleMembers(ctx, approval.Escalation.ID)
		if err != nil {
			log.Printf("⚠️ Failed to resolve escalation role %s for approval %s: %v", approval.Escalation.ID, approval.ID, err)
			return nil
		}
		recipients := make([]string, 0, len(members))
		for _, m := range members {
			recipients = append(recipients, m.ID)
		}
		return recipients
	default:
		log.Printf("⚠️ Unknown escalation target kind %q on approval %s", approval.Escalation.Kind, approval.ID)
		return nil
	}
}
