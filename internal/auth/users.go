package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	dbutil "github.com/moz-herbarium/medplants/internal/db"
	"github.com/moz-herbarium/medplants/internal/models"
	"github.com/moz-herbarium/medplants/internal/paging"
	"github.com/moz-herbarium/medplants/internal/security"
	"gorm.io/gorm"
)

// DefaultUsersPerPage is the user list page size when none is requested.
const DefaultUsersPerPage = 10

// UserView is the public representation of a user. It never carries the password hash.
type UserView struct {
	ID             uint64     `json:"id"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	ProfileID      uint64     `json:"profile_id"`
	ProfileName    string     `json:"profile_name"`
	Active         bool       `json:"active"`
	LastLogin      *time.Time `json:"last_login"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until"`
	RegisteredAt   time.Time  `json:"registered_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ProfileView is the public representation of a profile.
type ProfileView struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UserPage is one page of users.
type UserPage struct {
	Items      []UserView  `json:"items"`
	Pagination paging.Meta `json:"pagination"`
}

// CreateUserInput holds the fields required to create a user.
type CreateUserInput struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	ProfileID uint64 `json:"profile_id"`
}

// UpdateUserInput holds an optional subset of updatable user fields.
type UpdateUserInput struct {
	FullName  *string `json:"full_name"`
	Email     *string `json:"email"`
	ProfileID *uint64 `json:"profile_id"`
	Active    *bool   `json:"active"`
	Password  *string `json:"password"`
}

func userView(user models.User) UserView {
	view := UserView{
		ID:             user.ID,
		FullName:       user.FullName,
		Email:          user.Email,
		ProfileID:      user.ProfileID,
		Active:         user.Active,
		LastLogin:      user.LastLogin,
		FailedAttempts: user.FailedAttempts,
		LockedUntil:    user.LockedUntil,
		RegisteredAt:   user.RegisteredAt,
		UpdatedAt:      user.UpdatedAt,
	}
	if user.Profile != nil {
		view.ProfileName = user.Profile.Name
	}
	return view
}

// ListUsers returns a page of users, optionally filtered by name or email substring.
func (s *Service) ListUsers(ctx context.Context, page, perPage int, search string) (UserPage, error) {
	params := paging.Normalize(page, perPage, DefaultUsersPerPage)
	conn := s.db.WithContext(ctx)

	base := conn.Model(&models.User{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := dbutil.ContainsPattern(conn, search)
		base = base.Where(
			dbutil.CaseInsensitiveLikeExpr(conn, "full_name")+" OR "+dbutil.CaseInsensitiveLikeExpr(conn, "email"),
			pattern, pattern,
		)
	}

	var total int64
	if errCount := base.Count(&total).Error; errCount != nil {
		return UserPage{}, apperr.Internal("count users failed", errCount)
	}

	var rows []models.User
	if errFind := base.
		Preload("Profile").
		Order("id ASC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&rows).Error; errFind != nil {
		return UserPage{}, apperr.Internal("list users failed", errFind)
	}

	items := make([]UserView, 0, len(rows))
	for _, row := range rows {
		items = append(items, userView(row))
	}
	return UserPage{Items: items, Pagination: params.Meta(total)}, nil
}

// GetUser returns a single user.
func (s *Service) GetUser(ctx context.Context, id uint64) (UserView, error) {
	var user models.User
	errFind := s.db.WithContext(ctx).Preload("Profile").Where("id = ?", id).First(&user).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return UserView{}, apperr.NotFound("user not found")
	}
	if errFind != nil {
		return UserView{}, apperr.Internal("load user failed", errFind)
	}
	return userView(user), nil
}

// CreateUser creates a user on behalf of an administrator.
func (s *Service) CreateUser(ctx context.Context, caller Principal, input CreateUserInput, client Client) (UserView, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := NormalizeEmail(input.Email)
	if fullName == "" || email == "" || input.Password == "" || input.ProfileID == 0 {
		return UserView{}, apperr.Validation("full_name, email, password and profile_id are required")
	}
	if !ValidEmail(email) {
		return UserView{}, apperr.Validation("invalid email format")
	}
	if errPassword := s.checkPassword(input.Password); errPassword != nil {
		return UserView{}, errPassword
	}
	hash, errHash := security.HashPassword(input.Password)
	if errHash != nil {
		return UserView{}, apperr.Internal("hash password failed", errHash)
	}

	var created models.User
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errTaken := ensureEmailFree(tx, email, 0); errTaken != nil {
			return errTaken
		}
		profile, errProfile := activeProfile(tx, input.ProfileID)
		if errProfile != nil {
			return errProfile
		}
		created = models.User{
			FullName:     fullName,
			Email:        email,
			PasswordHash: hash,
			ProfileID:    profile.ID,
			Active:       true,
			CreatedBy:    audit.Uint64Ptr(caller.UserID),
		}
		if errCreate := tx.Create(&created).Error; errCreate != nil {
			return apperr.FromStore(errCreate, "email already registered", "invalid user references")
		}
		created.Profile = profile

		entry := caller.Actor(client).Entry(audit.ActionCreateUser, "created user "+email, created.TableName(), created.ID)
		entry.NewData = map[string]any{
			"full_name":    created.FullName,
			"email":        created.Email,
			"profile_name": profile.Name,
		}
		s.audit.LogTx(tx, entry)
		return nil
	})
	if errTx != nil {
		return UserView{}, errTx
	}
	return userView(created), nil
}

// UpdateUser applies a partial update on behalf of an administrator.
func (s *Service) UpdateUser(ctx context.Context, caller Principal, id uint64, input UpdateUserInput, client Client) (UserView, error) {
	if input.FullName == nil && input.Email == nil && input.ProfileID == nil && input.Active == nil && input.Password == nil {
		return UserView{}, apperr.Validation("no fields to update")
	}

	updates := map[string]any{}
	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		if fullName == "" {
			return UserView{}, apperr.Validation("full_name cannot be empty")
		}
		updates["full_name"] = fullName
	}
	var email string
	if input.Email != nil {
		email = NormalizeEmail(*input.Email)
		if !ValidEmail(email) {
			return UserView{}, apperr.Validation("invalid email format")
		}
		updates["email"] = email
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if input.Password != nil {
		if errPassword := s.checkPassword(*input.Password); errPassword != nil {
			return UserView{}, errPassword
		}
		hash, errHash := security.HashPassword(*input.Password)
		if errHash != nil {
			return UserView{}, apperr.Internal("hash password failed", errHash)
		}
		updates["password_hash"] = hash
	}

	var updated models.User
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		errFind := tx.Preload("Profile").Where("id = ?", id).First(&existing).Error
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		if errFind != nil {
			return apperr.Internal("load user failed", errFind)
		}
		if input.Email != nil {
			if errTaken := ensureEmailFree(tx, email, id); errTaken != nil {
				return errTaken
			}
		}
		if input.ProfileID != nil {
			profile, errProfile := activeProfile(tx, *input.ProfileID)
			if errProfile != nil {
				return errProfile
			}
			updates["profile_id"] = profile.ID
		}
		updates["updated_by"] = audit.Uint64Ptr(caller.UserID)
		updates["updated_at"] = s.now().UTC()

		if errUpdate := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; errUpdate != nil {
			return apperr.FromStore(errUpdate, "email already registered", "invalid user references")
		}
		if errReload := tx.Preload("Profile").Where("id = ?", id).First(&updated).Error; errReload != nil {
			return apperr.Internal("reload user failed", errReload)
		}

		entry := caller.Actor(client).Entry(audit.ActionUpdateUser, "updated user "+updated.Email, updated.TableName(), updated.ID)
		entry.OldData = userView(existing)
		entry.NewData = userView(updated)
		s.audit.LogTx(tx, entry)
		return nil
	})
	if errTx != nil {
		return UserView{}, errTx
	}
	return userView(updated), nil
}

// ListProfiles returns every active profile.
func (s *Service) ListProfiles(ctx context.Context) ([]ProfileView, error) {
	var rows []models.UserProfile
	if errFind := s.db.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&rows).Error; errFind != nil {
		return nil, apperr.Internal("list profiles failed", errFind)
	}
	out := make([]ProfileView, 0, len(rows))
	for _, row := range rows {
		out = append(out, ProfileView{ID: row.ID, Name: row.Name, Description: row.Description})
	}
	return out, nil
}

// EnsureAdministrator creates an Administrator account unless the email is already registered.
// created reports whether a new row was written.
func (s *Service) EnsureAdministrator(ctx context.Context, fullName, email, password string) (created bool, err error) {
	email = NormalizeEmail(email)
	fullName = strings.TrimSpace(fullName)
	if !ValidEmail(email) {
		return false, apperr.Validation("invalid email format")
	}
	if fullName == "" {
		fullName = models.AdministratorProfile
	}
	if errPassword := s.checkPassword(password); errPassword != nil {
		return false, errPassword
	}
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return false, apperr.Internal("hash password failed", errHash)
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if errCount := tx.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; errCount != nil {
			return apperr.Internal("check email failed", errCount)
		}
		if count > 0 {
			return nil
		}
		var profile models.UserProfile
		if errProfile := tx.Where("name = ?", models.AdministratorProfile).First(&profile).Error; errProfile != nil {
			return apperr.Internal("load administrator profile failed", errProfile)
		}
		user := models.User{
			FullName:     fullName,
			Email:        email,
			PasswordHash: hash,
			ProfileID:    profile.ID,
			Active:       true,
		}
		if errCreate := tx.Create(&user).Error; errCreate != nil {
			return apperr.FromStore(errCreate, "email already registered", "invalid user references")
		}
		entry := audit.Actor{}.Entry(audit.ActionBootstrapAdminUser, "bootstrap administrator "+email, user.TableName(), user.ID)
		entry.NewData = map[string]any{"full_name": user.FullName, "email": user.Email, "profile_name": profile.Name}
		s.audit.LogTx(tx, entry)
		created = true
		return nil
	})
	return created, errTx
}

func (s *Service) checkPassword(password string) error {
	if len([]rune(password)) < s.policy.PasswordMinLength {
		return apperr.Validation("password too short").WithDetails(map[string]any{"min_length": s.policy.PasswordMinLength})
	}
	if len(password) > security.MaxPasswordBytes {
		return apperr.Validation("password too long").WithDetails(map[string]any{"max_bytes": security.MaxPasswordBytes})
	}
	return nil
}

func ensureEmailFree(tx *gorm.DB, email string, exceptID uint64) error {
	var count int64
	query := tx.Model(&models.User{}).Where("LOWER(email) = ?", email)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if errCount := query.Count(&count).Error; errCount != nil {
		return apperr.Internal("check email failed", errCount)
	}
	if count > 0 {
		return apperr.Conflict("email already registered")
	}
	return nil
}

func activeProfile(tx *gorm.DB, id uint64) (*models.UserProfile, error) {
	var profile models.UserProfile
	errFind := tx.Where("id = ? AND active = ?", id, true).First(&profile).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, apperr.Validation("profile not found or inactive")
	}
	if errFind != nil {
		return nil, apperr.Internal("load profile failed", errFind)
	}
	return &profile, nil
}
