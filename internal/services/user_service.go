package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/isdelr/webempresa/internal/models"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, role,
	is_active, is_staff, is_superuser, date_joined, last_login`

// UserInput carries the fields of a user that admins may set.
type UserInput struct {
	Username    string `json:"username" validate:"omitempty,max=150"`
	Email       string `json:"email" validate:"required,email,max=254"`
	FirstName   string `json:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" validate:"max=150"`
	Password    string `json:"password" validate:"omitempty,min=8"`
	Role        string `json:"role" validate:"omitempty,oneof=super_admin admin editor moderator viewer"`
	IsActive    *bool  `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// UserUpdate is a partial update of a user. Nil fields are left as they are.
type UserUpdate struct {
	Username    *string `json:"username,omitempty" validate:"omitempty,min=1,max=150"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Role        *string `json:"role,omitempty" validate:"omitempty,oneof=super_admin admin editor moderator viewer"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsStaff     *bool   `json:"is_staff,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByLogin(ctx context.Context, login string) (models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) (models.UserList, error)
	CreateUser(ctx context.Context, input UserInput) (models.User, error)
	UpdateUser(ctx context.Context, id string, input UserUpdate) (models.User, error)
	UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error
	SetPassword(ctx context.Context, login, newPassword string) error
	DeleteUser(ctx context.Context, id, actingUserID string) error
	ToggleStatus(ctx context.Context, id, actingUserID string) (models.User, error)
	AuthenticateUser(ctx context.Context, login, password string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db     *sqlx.DB
	events EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sqlx.DB, events EventServiceProvider) *UserService {
	return &UserService{db: db, events: events}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	if err != nil {
		return models.User{}, notFound(err, "user")
	}
	user.PrepareForAPI()
	return user, nil
}

// GetUserByLogin retrieves a user by username or email, including the password hash.
// An exact username match wins over an email match.
func (s *UserService) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind("SELECT "+userColumns+" FROM users WHERE username = ?"), login)
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.GetContext(ctx, &user, s.db.Rebind(
			"SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER(?) ORDER BY date_joined LIMIT 1"), login)
	}
	if err != nil {
		return models.User{}, notFound(err, "user")
	}
	return user, nil
}

// ListUsers returns one page of users, optionally filtered by a search term and role.
func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter) (models.UserList, error) {
	filter.PerPage = clamp(filter.PerPage, 1, 100)
	if filter.Page < 1 {
		filter.Page = 1
	}

	where := []string{"1 = 1"}
	var args []interface{}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		where = append(where, "(LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if filter.Role != "" {
		where = append(where, "role = ?")
		args = append(args, filter.Role)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.GetContext(ctx, &total, s.db.Rebind("SELECT COUNT(*) FROM users WHERE "+cond), args...); err != nil {
		return models.UserList{}, err
	}

	users := []models.User{}
	pageArgs := append(append([]interface{}{}, args...), filter.PerPage, pageOffset(filter.Page, filter.PerPage))
	err := s.db.SelectContext(ctx, &users, s.db.Rebind(
		"SELECT "+userColumns+" FROM users WHERE "+cond+" ORDER BY date_joined DESC, username LIMIT ? OFFSET ?"), pageArgs...)
	if err != nil {
		return models.UserList{}, err
	}
	for i := range users {
		users[i].PrepareForAPI()
	}

	return models.UserList{Users: users, Total: total, Page: filter.Page, PerPage: filter.PerPage}, nil
}

// CreateUser creates a new user, hashing their password. The username defaults to the email.
func (s *UserService) CreateUser(ctx context.Context, input UserInput) (models.User, error) {
	if input.Password == "" {
		return models.User{}, invalid("password is required")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(input.Email),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hashedPassword),
		Role:         input.Role,
		IsActive:     input.IsActive == nil || *input.IsActive,
		IsStaff:      input.IsStaff,
		IsSuperuser:  input.IsSuperuser,
		DateJoined:   timeNow(),
	}
	if user.Username == "" {
		user.Username = user.Email
	}
	if user.Role == "" {
		user.Role = models.RoleViewer
	}

	taken, err := exists(ctx, s.db, "SELECT id FROM users WHERE LOWER(email) = LOWER(?) OR username = ?", user.Email, user.Username)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, fmt.Errorf("email or username %w", ErrConflict)
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, email, first_name, last_name, password_hash, role, is_active, is_staff, is_superuser, date_joined)
		VALUES (:id, :username, :email, :first_name, :last_name, :password_hash, :role, :is_active, :is_staff, :is_superuser, :date_joined)`, user)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("email or username %w", ErrConflict)
		}
		return models.User{}, err
	}

	record(ctx, s.events, "user.create", "info", fmt.Sprintf("User '%s' created.", user.Username))
	user.PrepareForAPI()
	return user, nil
}

// UpdateUser applies the non-nil fields of input. A non-empty password is re-hashed.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UserUpdate) (models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			return models.User{}, invalid("email cannot be empty")
		}
		user.Email = email
	}
	if input.Username != nil && strings.TrimSpace(*input.Username) != "" {
		user.Username = strings.TrimSpace(*input.Username)
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Role != nil && *input.Role != "" {
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}
	if input.IsSuperuser != nil {
		user.IsSuperuser = *input.IsSuperuser
	}

	_, err = s.db.NamedExecContext(ctx, `
		UPDATE users SET username = :username, email = :email, first_name = :first_name, last_name = :last_name,
			role = :role, is_active = :is_active, is_staff = :is_staff, is_superuser = :is_superuser
		WHERE id = :id`, user)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("email or username %w", ErrConflict)
		}
		return models.User{}, err
	}

	if input.Password != nil && *input.Password != "" {
		if err := s.storePassword(ctx, id, *input.Password); err != nil {
			return models.User{}, err
		}
	}

	record(ctx, s.events, "user.update", "info", fmt.Sprintf("User '%s' updated.", user.Username))
	return s.GetUserByID(ctx, id)
}

// UpdatePassword verifies the current password, then hashes and sets a new password for a user.
func (s *UserService) UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	var hash string
	if err := s.db.GetContext(ctx, &hash, s.db.Rebind("SELECT password_hash FROM users WHERE id = ?"), id); err != nil {
		return notFound(err, "user")
	}

	// Check if the current password is correct
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(currentPassword)); err != nil {
		return invalid("current password is incorrect")
	}
	if len(newPassword) < 8 {
		return invalid("new password must be at least 8 characters")
	}
	return s.storePassword(ctx, id, newPassword)
}

// SetPassword replaces the password of the user matching login without checking the old one.
func (s *UserService) SetPassword(ctx context.Context, login, newPassword string) error {
	user, err := s.GetUserByLogin(ctx, login)
	if err != nil {
		return err
	}
	return s.storePassword(ctx, user.ID, newPassword)
}

func (s *UserService) storePassword(ctx context.Context, id, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind("UPDATE users SET password_hash = ? WHERE id = ?"), string(hashedPassword), id)
	return err
}

// DeleteUser removes a user from the database. Users cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, id, actingUserID string) error {
	if id == actingUserID {
		return invalid("cannot delete your own account")
	}
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM users WHERE id = ?"), id); err != nil {
		return err
	}
	record(ctx, s.events, "user.delete", "warn", fmt.Sprintf("User '%s' was deleted.", user.Username))
	return nil
}

// ToggleStatus flips is_active. Users cannot deactivate themselves.
func (s *UserService) ToggleStatus(ctx context.Context, id, actingUserID string) (models.User, error) {
	if id == actingUserID {
		return models.User{}, invalid("cannot change your own status")
	}
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE users SET is_active = ? WHERE id = ?"), !user.IsActive, id); err != nil {
		return models.User{}, err
	}
	state := "activated"
	if user.IsActive {
		state = "deactivated"
	}
	record(ctx, s.events, "user.status", "info", fmt.Sprintf("User '%s' %s.", user.Username, state))
	return s.GetUserByID(ctx, id)
}

// AuthenticateUser verifies a user's credentials (username or email) and stamps last_login.
func (s *UserService) AuthenticateUser(ctx context.Context, login, password string) (models.User, error) {
	user, err := s.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return models.User{}, ErrInactiveUser
	}

	now := timeNow()
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE users SET last_login = ? WHERE id = ?"), now, user.ID); err != nil {
		return models.User{}, err
	}
	user.LastLogin = &now

	// Don't send the password hash to the client
	user.PrepareForAPI()
	return user, nil
}
