package bootstrap

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/cihat41/ReqPortal-sub000/internal/application/services"
	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/auth"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

//go:embed system_data.json
var systemDataJSON []byte

type systemData struct {
	Roles []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"roles"`
	Users []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		RoleID   string `json:"role_id"`
	} `json:"users"`
	Workflows []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Category string `json:"category"`
		Strategy string `json:"strategy"`
		Priority int    `json:"priority"`
		Steps    []struct {
			ID               string  `json:"id"`
			Level            int     `json:"level"`
			StepOrder        int     `json:"step_order"`
			ApproverUserID   *string `json:"approver_user_id"`
			ApproverRoleID   *string `json:"approver_role_id"`
			TimeoutHours     *int    `json:"timeout_hours"`
			EscalationUserID *string `json:"escalation_user_id"`
			EscalationRoleID *string `json:"escalation_role_id"`
		} `json:"steps"`
	} `json:"workflows"`
}

// InitializeSystemData ensures the seed roles, admin account and fallback
// workflow exist. Called during server startup before accepting requests;
// existing rows are left alone so the seed never clobbers live data.
func InitializeSystemData(svcMgr *services.ServiceManager) error {
	log.Println("🔧 Initializing system data...")
	ctx := context.Background()

	var data systemData
	if err := json.Unmarshal(systemDataJSON, &data); err != nil {
		return fmt.Errorf("failed to parse system_data.json: %w", err)
	}

	for _, r := range data.Roles {
		// INSERT fails on the PK when the role already exists; that is fine
		err := svcMgr.UserRepo.CreateRole(ctx, &models.Role{ID: r.ID, Name: r.Name, Description: r.Description})
		if err == nil {
			log.Printf("   ✅ Created role %s", r.Name)
		}
	}

	for _, u := range data.Users {
		exists, err := svcMgr.UserRepo.CheckUserExistsByEmail(ctx, u.Email)
		if err != nil {
			return fmt.Errorf("failed to check user %s: %w", u.Email, err)
		}
		if exists {
			continue
		}

		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", u.Email, err)
		}

		roleID := u.RoleID
		user := &models.User{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			PasswordHash: hash,
			RoleID:       &roleID,
			IsActive:     true,
			CreatedDate:  time.Now().UTC(),
		}
		if err := svcMgr.UserRepo.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
		log.Printf("   ✅ Created user %s", u.Email)
	}

	for _, w := range data.Workflows {
		if existing, err := svcMgr.WorkflowRepo.GetWorkflow(ctx, w.ID); err == nil && existing != nil {
			continue
		}

		wf := &models.WorkflowDefinition{
			ID:          w.ID,
			Name:        w.Name,
			Category:    w.Category,
			Strategy:    w.Strategy,
			Priority:    w.Priority,
			IsActive:    true,
			CreatedDate: time.Now().UTC(),
		}
		if wf.Strategy == "" {
			wf.Strategy = constants.StrategyAll
		}

		for _, s := range w.Steps {
			approver, err := models.TargetFromColumns(s.ApproverUserID, s.ApproverRoleID)
			if err != nil {
				return fmt.Errorf("workflow %s step %s: %w", w.ID, s.ID, err)
			}

			step := models.WorkflowStep{
				ID:         s.ID,
				WorkflowID: w.ID,
				Level:      s.Level,
				StepOrder:  s.StepOrder,
				StepType:   constants.StepTypeSequential,
				Approver:   approver,
				Timeout:    s.TimeoutHours,
			}
			if s.EscalationUserID != nil || s.EscalationRoleID != nil {
				escalation, err := models.TargetFromColumns(s.EscalationUserID, s.EscalationRoleID)
				if err != nil {
					return fmt.Errorf("workflow %s step %s escalation: %w", w.ID, s.ID, err)
				}
				step.Escalation = &escalation
			}
			wf.Steps = append(wf.Steps, step)
		}

		if err := svcMgr.WorkflowRepo.CreateWorkflow(ctx, wf); err != nil {
			return fmt.Errorf("failed to create workflow %s: %w", w.ID, err)
		}
		log.Printf("   ✅ Created workflow %s", w.Name)
	}

	return nil
}
