package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cihat41/ReqPortal-sub000/internal/domain/models"
	"github.com/cihat41/ReqPortal-sub000/pkg/constants"
)

const userColumns = "id, name, email, password_hash, role_id, is_active, created_date"

// UserRepository is the user/role directory. Role membership is modeled as
// users.role_id, so fan-out queries always see current membership.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUser loads a user by id
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", userColumns, constants.TableUser)
	row := conn(ctx, r.db).QueryRowContext(ctx, query, id)
	return scanUser(row)
}

// GetUserByEmail loads a user by email (login path)
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE email = ?", userColumns, constants.TableUser)
	row := conn(ctx, r.db).QueryRowContext(ctx, query, email)
	return scanUser(row)
}

// ListRoleMembers returns every active member of a role
func (r *UserRepository) ListRoleMembers(ctx context.Context, roleID string) ([]*models.User, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE role_id = ? AND is_active = true ORDER BY name ASC",
		userColumns, constants.TableUser)

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CheckUserExistsByEmail reports whether a user with the email exists
func (r *UserRepository) CheckUserExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE email = ?)", constants.TableUser)
	err := conn(ctx, r.db).QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CreateUser inserts a user (bootstrap/admin use)
func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)", constants.TableUser, userColumns)
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.RoleID, u.IsActive, u.CreatedDate)
	return err
}

// CreateRole inserts a role (bootstrap/admin use)
func (r *UserRepository) CreateRole(ctx context.Context, role *models.Role) error {
	query := fmt.Sprintf("INSERT INTO %s (id, name, description) VALUES (?, ?, ?)", constants.TableRole)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, role.ID, role.Name, role.Description)
	return err
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var roleID sql.NullString

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &roleID, &u.IsActive, &u.CreatedDate)
	if err != nil {
		return nil, err
	}

	u.RoleID = models.NullStringToPtr(roleID)
	return &u, nil
}
