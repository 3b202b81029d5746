package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-service/token"
	"github.com/jrsteele09/go-session-service/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the SessionService
type Repos struct {
	Users users.UserRepo // Repository for account records
}

// SessionService owns the credential session lifecycle: registration,
// password-verified login, refresh-token rotation, logout and per-request
// identity verification.
type SessionService struct {
	repos   Repos
	tokens  *token.Manager   // Mints and verifies both token classes
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// SessionServiceOption defines a function type to modify the SessionService instance.
type SessionServiceOption func(*SessionService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionServiceOption {
	return func(ss *SessionService) {
		ss.nowTime = nowFunc
	}
}

// NewSessionService initializes a new SessionService with required dependencies.
func NewSessionService(repos Repos, tokens *token.Manager, options ...SessionServiceOption) (*SessionService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewSessionService] Users repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewSessionService] token manager is required")
	}

	sessionService := &SessionService{
		repos:   repos,
		tokens:  tokens,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(sessionService)
	}

	return sessionService, nil
}

// Register validates the candidate record, ensures the username and email
// are not already owned, and creates the account with a hashed password.
// The returned representation carries neither the password hash nor a
// refresh token.
func (ss *SessionService) Register(ctx context.Context, req RegisterRequest) (*users.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)

	if fullName == "" || username == "" || email == "" || password == "" {
		return nil, errors.Wrap(ValidationErr, "all fields are required")
	}

	for _, identifier := range []string{username, email} {
		existing, err := ss.repos.Users.GetByUsernameOrEmail(ctx, identifier)
		if err != nil && !errors.Is(err, users.NotFoundErr) {
			log.Error().Err(err).Msg("register: uniqueness lookup failed")
			return nil, errors.Wrap(InternalErr, "uniqueness lookup")
		}
		if existing != nil {
			return nil, ConflictErr
		}
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		log.Error().Err(err).Msg("register: password hashing failed")
		return nil, errors.Wrap(InternalErr, "password hashing")
	}

	user := &users.User{
		ID:            uuid.New().String(),
		FullName:      fullName,
		Username:      username,
		Email:         email,
		AvatarURL:     strings.TrimSpace(req.AvatarURL),
		CoverImageURL: strings.TrimSpace(req.CoverImageURL),
		PasswordHash:  passwordHash,
		CreatedAt:     ss.nowTime(),
	}

	if err := ss.repos.Users.Create(ctx, user); err != nil {
		if errors.Is(err, users.DuplicateUserErr) {
			return nil, ConflictErr
		}
		log.Error().Err(err).Msg("register: create failed")
		return nil, errors.Wrap(InternalErr, "users.Create")
	}

	return user.Sanitized(), nil
}

// Login verifies the password for the account matching the identifier
// (username or email), mints a fresh access/refresh pair and persists the
// refresh token, replacing whatever was on file.
func (ss *SessionService) Login(ctx context.Context, identifier, password string) (*TokenPair, *users.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, nil, errors.Wrap(ValidationErr, "identifier and password are required")
	}

	user, err := ss.repos.Users.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, users.NotFoundErr) {
			return nil, nil, UnauthorizedErr
		}
		log.Error().Err(err).Msg("login: lookup failed")
		return nil, nil, errors.Wrap(InternalErr, "users.GetByUsernameOrEmail")
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, nil, UnauthorizedErr
	}

	pair, err := ss.issuePair(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("login: token issuance failed")
		return nil, nil, errors.Wrap(InternalErr, "issuePair")
	}

	if err := ss.repos.Users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		log.Error().Err(err).Msg("login: persisting refresh token failed")
		return nil, nil, errors.Wrap(InternalErr, "users.SetRefreshToken")
	}

	return pair, user.Sanitized(), nil
}

// Refresh rotates the refresh token: the presented token must verify as
// refresh-class and exactly equal the value on file for its subject. On
// success a new pair is minted and the new refresh token replaces the old
// one atomically, so of two racing refreshes with the same token exactly
// one succeeds. Every denial collapses to UnauthorizedErr; the underlying
// reason is logged only.
func (ss *SessionService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil, UnauthorizedErr
	}

	claims, err := ss.tokens.Verify(presented, token.ClassRefresh)
	if err != nil {
		log.Debug().Err(err).Msg("refresh: token rejected")
		return nil, UnauthorizedErr
	}

	user, err := ss.repos.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, users.NotFoundErr) {
			return nil, UnauthorizedErr
		}
		log.Error().Err(err).Msg("refresh: lookup failed")
		return nil, errors.Wrap(InternalErr, "users.GetByID")
	}

	if user.RefreshToken != presented {
		// A previously rotated-out token will never match the current
		// value on file - possible replay.
		log.Warn().Str("user_id", user.ID).Msg("refresh: stale or reused refresh token presented")
		return nil, UnauthorizedErr
	}

	pair, err := ss.issuePair(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("refresh: token issuance failed")
		return nil, errors.Wrap(InternalErr, "issuePair")
	}

	if err := ss.repos.Users.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken, presented); err != nil {
		if errors.Is(err, users.RefreshTokenMismatchErr) || errors.Is(err, users.NotFoundErr) {
			// Lost the rotation race - a concurrent refresh with the same
			// token already rotated it out.
			return nil, UnauthorizedErr
		}
		log.Error().Err(err).Msg("refresh: rotation failed")
		return nil, errors.Wrap(InternalErr, "users.UpdateRefreshToken")
	}

	return pair, nil
}

// Logout clears the refresh token on file so any outstanding refresh
// token for the account becomes permanently unusable. Repeating it on an
// already-logged-out account is a no-op success.
func (ss *SessionService) Logout(ctx context.Context, userID string) error {
	if err := ss.repos.Users.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, users.NotFoundErr) {
			return nil
		}
		log.Error().Err(err).Msg("logout: clearing refresh token failed")
		return errors.Wrap(InternalErr, "users.ClearRefreshToken")
	}
	return nil
}

// Authenticate verifies an access-class token and resolves the account it
// asserts. Used by the request gate; all denials collapse to
// UnauthorizedErr so callers cannot distinguish expired from invalid from
// account-missing.
func (ss *SessionService) Authenticate(ctx context.Context, rawAccessToken string) (*users.User, error) {
	rawAccessToken = strings.TrimSpace(rawAccessToken)
	if rawAccessToken == "" {
		return nil, UnauthorizedErr
	}

	claims, err := ss.tokens.Verify(rawAccessToken, token.ClassAccess)
	if err != nil {
		log.Debug().Err(err).Msg("authenticate: token rejected")
		return nil, UnauthorizedErr
	}

	user, err := ss.repos.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, users.NotFoundErr) {
			return nil, UnauthorizedErr
		}
		log.Error().Err(err).Msg("authenticate: lookup failed")
		return nil, errors.Wrap(InternalErr, "users.GetByID")
	}

	return user.Sanitized(), nil
}

func (ss *SessionService) issuePair(userID string) (*TokenPair, error) {
	accessToken, err := ss.tokens.Issue(userID, token.ClassAccess)
	if err != nil {
		return nil, errors.Wrap(err, "issue access token")
	}
	refreshToken, err := ss.tokens.Issue(userID, token.ClassRefresh)
	if err != nil {
		return nil, errors.Wrap(err, "issue refresh token")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
