// Package auth implements login, sessions, token verification and user management.
package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moz-herbarium/medplants/internal/apperr"
	"github.com/moz-herbarium/medplants/internal/audit"
	"github.com/moz-herbarium/medplants/internal/config"
	"github.com/moz-herbarium/medplants/internal/metrics"
	"github.com/moz-herbarium/medplants/internal/models"
	"github.com/moz-herbarium/medplants/internal/security"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Messages shared with the HTTP layer.
const (
	MsgInvalidCredentials = "invalid credentials"
	MsgInvalidToken       = "invalid or expired token"
	MsgTokenRequired      = "token required"
	MsgAccountLocked      = "account locked"
)

// Client describes where a request came from.
type Client struct {
	IP        string
	UserAgent string
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID      uint64
	Email       string
	ProfileName string
	SessionID   string
	ExpiresAt   time.Time
}

// IsAdmin reports whether the principal holds the Administrator profile.
func (p Principal) IsAdmin() bool {
	return p.ProfileName == models.AdministratorProfile
}

// Actor converts the principal into an audit actor.
func (p Principal) Actor(client Client) audit.Actor {
	return audit.Actor{UserID: audit.Uint64Ptr(p.UserID), OriginIP: client.IP, UserAgent: client.UserAgent}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	User      UserView  `json:"user"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service holds authentication and user operations.
type Service struct {
	db     *gorm.DB
	audit  *audit.Writer
	jwt    config.JWTConfig
	policy config.AuthPolicy
	now    func() time.Time
}

// NewService constructs an auth service.
func NewService(db *gorm.DB, auditWriter *audit.Writer, jwtCfg config.JWTConfig, policy config.AuthPolicy) *Service {
	return &Service{db: db, audit: auditWriter, jwt: jwtCfg, policy: policy, now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// ValidEmail reports whether email has an acceptable format.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login authenticates email/password, applies the lockout policy and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string, client Client) (LoginResult, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) || password == "" {
		metrics.LoginAttempts.WithLabelValues(metrics.LoginValidationError).Inc()
		return LoginResult{}, apperr.Validation("valid email and password are required")
	}

	now := s.now().UTC()
	var (
		result  LoginResult
		outcome = metrics.LoginInvalid
		authErr error
	)
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, profile, errLookup := findLoginUser(tx, email)
		if errLookup != nil {
			return errLookup
		}
		if user == nil {
			authErr = apperr.Authentication(MsgInvalidCredentials)
			return nil
		}
		if user.IsLocked(now) {
			outcome = metrics.LoginLocked
			authErr = apperr.Locked(MsgAccountLocked).WithDetails(map[string]any{"locked_until": user.LockedUntil.UTC()})
			return nil
		}

		actor := audit.Actor{UserID: audit.Uint64Ptr(user.ID), OriginIP: client.IP, UserAgent: client.UserAgent}
		if !security.CheckPassword(user.PasswordHash, password) {
			lockUntil := now.Add(s.policy.LockoutDuration)
			if errFail := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
				"failed_attempts": gorm.Expr("failed_attempts + 1"),
				"locked_until":    gorm.Expr("CASE WHEN failed_attempts + 1 >= ? THEN ? ELSE locked_until END", s.policy.LockoutThreshold, lockUntil),
			}).Error; errFail != nil {
				return apperr.Internal("record login failure failed", errFail)
			}
			s.audit.LogTx(tx, actor.Entry(audit.ActionLoginFailed, "failed login for "+email, user.TableName(), user.ID))
			authErr = apperr.Authentication(MsgInvalidCredentials)
			return nil
		}

		if errReset := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
			"last_login":      now,
			"failed_attempts": 0,
			"locked_until":    nil,
		}).Error; errReset != nil {
			return apperr.Internal("record login failed", errReset)
		}
		user.LastLogin = &now
		user.FailedAttempts = 0
		user.LockedUntil = nil

		sessionID := uuid.NewString()
		token, errToken := security.IssueToken(s.jwt.Secret, security.Claims{
			UserID:      user.ID,
			Email:       user.Email,
			ProfileName: profile.Name,
			SessionID:   sessionID,
		}, now, s.jwt.Expiry)
		if errToken != nil {
			return apperr.Internal("issue token failed", errToken)
		}
		session := models.Session{
			ID:        sessionID,
			UserID:    user.ID,
			TokenHash: security.HashToken(token),
			OriginIP:  client.IP,
			UserAgent: client.UserAgent,
			ExpiresAt: now.Add(s.jwt.Expiry),
			Active:    true,
			CreatedAt: now,
		}
		if errSession := tx.Create(&session).Error; errSession != nil {
			return apperr.Internal("create session failed", errSession)
		}

		s.audit.LogTx(tx, actor.Entry(audit.ActionLogin, "login "+email, session.TableName(), user.ID))

		outcome = metrics.LoginSuccess
		user.Profile = profile
		result = LoginResult{
			Token:     token,
			User:      userView(*user),
			SessionID: sessionID,
			ExpiresAt: session.ExpiresAt,
		}
		return nil
	})
	if errTx != nil {
		return LoginResult{}, errTx
	}
	metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	if authErr != nil {
		return LoginResult{}, authErr
	}
	return result, nil
}

// findLoginUser returns the active user with an active profile for email, or nil.
func findLoginUser(tx *gorm.DB, email string) (*models.User, *models.UserProfile, error) {
	var user models.User
	errFind := tx.Where("LOWER(email) = ? AND active = ?", email, true).First(&user).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if errFind != nil {
		return nil, nil, apperr.Internal("load user failed", errFind)
	}
	var profile models.UserProfile
	errProfile := tx.Where("id = ? AND active = ?", user.ProfileID, true).First(&profile).Error
	if errors.Is(errProfile, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if errProfile != nil {
		return nil, nil, apperr.Internal("load profile failed", errProfile)
	}
	return &user, &profile, nil
}

// ParseToken checks signature and expiry only.
func (s *Service) ParseToken(token string) (Principal, error) {
	claims, errParse := security.ParseToken(s.jwt.Secret, token, s.now())
	if errParse != nil {
		return Principal{}, apperr.Authentication(MsgInvalidToken)
	}
	return Principal{
		UserID:      claims.UserID,
		Email:       claims.Email,
		ProfileName: claims.ProfileName,
		SessionID:   claims.SessionID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Authenticate checks the token and that its session is still active.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	principal, errParse := s.ParseToken(token)
	if errParse != nil {
		return Principal{}, errParse
	}
	var session models.Session
	errFind := s.db.WithContext(ctx).Where("id = ?", principal.SessionID).First(&session).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return Principal{}, apperr.Authentication(MsgInvalidToken)
	}
	if errFind != nil {
		return Principal{}, apperr.Internal("load session failed", errFind)
	}
	if !session.Valid(s.now()) || session.UserID != principal.UserID || session.TokenHash != security.HashToken(token) {
		return Principal{}, apperr.Authentication(MsgInvalidToken)
	}
	return principal, nil
}

// Logout deactivates a session owned by the caller. Unknown, foreign or
// already inactive sessions are ignored.
func (s *Service) Logout(ctx context.Context, principal Principal, sessionID string, client Client) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = principal.SessionID
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("id = ? AND user_id = ? AND active = ?", sessionID, principal.UserID, true).
			Update("active", false)
		if res.Error != nil {
			return apperr.Internal("deactivate session failed", res.Error)
		}
		entry := principal.Actor(client).Entry(audit.ActionLogout, "logout "+principal.Email, models.Session{}.TableName(), principal.UserID)
		entry.NewData = map[string]any{"session_id": sessionID, "deactivated": res.RowsAffected > 0}
		s.audit.LogTx(tx, entry)
		return nil
	})
}

// Verify returns the current user behind a valid token.
func (s *Service) Verify(ctx context.Context, principal Principal) (UserView, error) {
	user, errUser := s.GetUser(ctx, principal.UserID)
	if errUser != nil {
		if apperr.KindOf(errUser) == apperr.KindNotFound {
			return UserView{}, apperr.Authentication(MsgInvalidToken)
		}
		return UserView{}, errUser
	}
	if !user.Active {
		return UserView{}, apperr.Authentication(MsgInvalidToken)
	}
	return user, nil
}
