package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/physical-edu/physical-backend/internal/cache"
	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/mail"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/repository"
	"github.com/rs/zerolog"
)

// AuthResult is returned by signup and signin.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// UserService handles accounts, credentials and the teacher approval workflow.
type UserService struct {
	cfg      *config.Config
	users    UserStore
	auth     *AuthService
	cache    cache.Store
	mailer   mail.Mailer
	notifier Notifier
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	cfg *config.Config,
	users UserStore,
	auth *AuthService,
	store cache.Store,
	mailer mail.Mailer,
	notifier Notifier,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		cfg:      cfg,
		users:    users,
		auth:     auth,
		cache:    store,
		mailer:   mailer,
		notifier: notifierOrNop(notifier),
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a student account. A requested role of "teacher" is kept
// as a pending request for an admin; any other value is ignored.
func (s *UserService) Signup(ctx context.Context, req *model.SignupRequest) (*AuthResult, error) {
	email := normalizeEmail(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		s.log.Warn().Str("email", email).Msg("Signup rejected, user exists")
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleStudent,
	}
	if model.Role(req.RequestedRole) == model.RoleTeacher {
		requested := model.RoleTeacher
		u.RequestedRole = &requested
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	cacheSet(ctx, s.cache, s.log, config.CacheKey.UserEmailKey(email), u.Record())
	public := *u
	public.PasswordHash = ""
	cacheSet(ctx, s.cache, s.log, config.CacheKey.UserKey(u.ID.String()), &public)

	token, err := s.auth.GenerateToken(u)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", u.ID.String()).Bool("teacher_request", u.HasPendingTeacherRequest()).Msg("User registered")
	if u.HasPendingTeacherRequest() {
		s.notifier.Notify(EventTeacherRequested, &public)
	}
	return &AuthResult{Token: token, User: &public}, nil
}

// Signin verifies credentials and issues an access token.
func (s *UserService) Signin(ctx context.Context, req *model.SigninRequest) (*AuthResult, error) {
	u, err := s.lookupByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if err := s.auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		s.log.Warn().Str("user_id", u.ID.String()).Msg("Signin rejected, wrong password")
		return nil, err
	}

	token, err := s.auth.GenerateToken(u)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	s.log.Info().Str("user_id", u.ID.String()).Msg("User signed in")
	return &AuthResult{Token: token, User: u}, nil
}

// ChangePassword replaces the password after checking the old one.
func (s *UserService) ChangePassword(ctx context.Context, req *model.ChangePasswordRequest) error {
	u, err := s.lookupByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if err := s.auth.CheckPassword(u.PasswordHash, req.OldPassword); err != nil {
		s.log.Warn().Str("user_id", u.ID.String()).Msg("Password change rejected, wrong old password")
		return err
	}
	return s.setPassword(ctx, u, req.NewPassword)
}

// ChangeEmail moves an account to a new email. Only the owner or an admin
// may change it.
func (s *UserService) ChangeEmail(ctx context.Context, caller *model.User, req *model.ChangeEmailRequest) (*model.User, error) {
	u, err := s.lookupByEmail(ctx, req.OldEmail)
	if err != nil {
		return nil, err
	}
	if caller.ID != u.ID && !caller.Role.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	oldEmail := u.Email
	newEmail := normalizeEmail(req.NewEmail)
	if newEmail != oldEmail {
		if err := s.users.UpdateEmail(ctx, u.ID, newEmail); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, ErrUserExists
			}
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("update email: %w", err)
		}
		u.Email = newEmail
	}

	cacheDelete(ctx, s.cache, s.log, config.CacheKey.UserEmailKey(oldEmail))
	cacheSet(ctx, s.cache, s.log, config.CacheKey.UserEmailKey(newEmail), u.Record())

	public := *u
	public.PasswordHash = ""
	cacheSet(ctx, s.cache, s.log, config.CacheKey.UserKey(u.ID.String()), &public)

	s.log.Info().Str("user_id", u.ID.String()).Msg("Email updated")
	return &public, nil
}

// RecoverPassword mails a reset link for the account.
func (s *UserService) RecoverPassword(ctx context.Context, email string) error {
	u, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.auth.GenerateResetToken(u)
	if err != nil {
		return err
	}
	link := s.cfg.FrontendBaseURL + "/reset-password?token=" + url.QueryEscape(token)

	msg := mail.Message{
		To:      u.Email,
		ToName:  strings.TrimSpace(u.FirstName + " " + u.LastName),
		Subject: "Reset your password",
		TextContent: fmt.Sprintf(
			"Hi %s,\r\n\r\nUse the link below to choose a new password. It expires in %s.\r\n\r\n%s\r\n",
			u.FirstName, s.cfg.ResetTokenExpiry, link),
		HTMLContent: fmt.Sprintf(
			`<p>Hi %s,</p><p>Use the link below to choose a new password. It expires in %s.</p><p><a href="%s">Reset password</a></p>`,
			u.FirstName, s.cfg.ResetTokenExpiry, link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID.String()).Msg("Failed to send recovery email")
		return fmt.Errorf("send recovery email: %w", err)
	}

	s.log.Info().Str("user_id", u.ID.String()).Msg("Password recovery email sent")
	return nil
}

// ResetPassword completes recovery with a reset token. A token is accepted
// only while the password it was issued against is unchanged.
func (s *UserService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	claims, err := s.auth.ParseResetToken(req.Token)
	if err != nil {
		return err
	}

	// Read the store directly: the stamp must match the current hash.
	u, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if u.ID.String() != claims.UserID || !claims.StampMatches(u.PasswordHash) {
		return ErrResetTokenInvalid
	}
	return s.setPassword(ctx, u, req.NewPassword)
}

// TeacherRequests lists accounts waiting for teacher approval.
func (s *UserService) TeacherRequests(ctx context.Context) ([]model.User, error) {
	return s.users.ListTeacherRequests(ctx)
}

// ApproveTeacher promotes a user to teacher on behalf of admin.
func (s *UserService) ApproveTeacher(ctx context.Context, admin *model.User, userID uuid.UUID) (*model.User, error) {
	u, err := s.users.ApproveTeacher(ctx, userID, admin.ID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn().Str("user_id", userID.String()).Msg("Teacher approval for unknown user")
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("approve teacher: %w", err)
	}

	// The email entry holds the old role next to the hash; drop it and let
	// the next credential flow reload it.
	cacheSet(ctx, s.cache, s.log, config.CacheKey.UserKey(u.ID.String()), u)
	cacheDelete(ctx, s.cache, s.log, config.CacheKey.UserEmailKey(u.Email))

	s.log.Info().
		Str("user_id", u.ID.String()).
		Str("approved_by", admin.ID.String()).
		Msg("Teacher approved")
	s.notifier.Notify(EventTeacherApproved, u)
	return u, nil
}

func (s *UserService) setPassword(ctx context.Context, u *model.User, password string) error {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	u.PasswordHash = hash
	cacheSet(ctx, s.cache, s.log, config.CacheKey.UserEmailKey(u.Email), u.Record())

	s.log.Info().Str("user_id", u.ID.String()).Msg("Password updated")
	return nil
}

// lookupByEmail reads a user with its hash through the email-keyed cache.
func (s *UserService) lookupByEmail(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	key := config.CacheKey.UserEmailKey(email)

	var rec model.UserRecord
	if cacheGet(ctx, s.cache, s.log, key, &rec) {
		return rec.ToUser(), nil
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn().Str("email", email).Msg("No user with email")
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	cacheSet(ctx, s.cache, s.log, key, u.Record())
	return u, nil
}
