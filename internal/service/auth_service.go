package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"loadboard/internal/authstate"
	"loadboard/internal/model"
	"loadboard/internal/repository"
	"loadboard/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const minPasswordLength = 6

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Principal is the caller behind a valid session token.
type Principal struct {
	model.Identity
	Role    string
	TokenID string
}

// AuthStateStream pushes identity changes per user.
type AuthStateStream interface {
	Publish(ctx context.Context, uid string, identity *model.Identity) error
	Subscribe(ctx context.Context, uid string, fn authstate.Listener) (func(), error)
}

// TokenRevoker remembers signed-out tokens.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService provides authentication related services
type AuthService interface {
	SignUp(ctx context.Context, email, password, name, role string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*Principal, error)
	OnAuthStateChanged(ctx context.Context, uid string, fn authstate.Listener) (func(), error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtUtil  *utils.JWTUtil
	stream   AuthStateStream
	revoker  TokenRevoker
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, stream AuthStateStream, revoker TokenRevoker, log zerolog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtUtil:  jwtUtil,
		stream:   stream,
		revoker:  revoker,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// SignUp creates the identity and its profile record, then signs the user in.
func (s *authService) SignUp(ctx context.Context, email, password, name, role string) (*Session, error) {
	const op = "sign up"
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, authErr(op, &model.ValidationError{Field: "email", Reason: "is required"})
	}
	if len(password) < minPasswordLength {
		return nil, authErr(op, &model.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)})
	}
	userRole, err := model.ParseRole(role)
	if err != nil {
		return nil, authErr(op, err)
	}

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, authErr(op, fmt.Errorf("failed to check existing user: %w", err))
	}
	if existingUser != nil {
		return nil, authErr(op, ErrUserAlreadyExists)
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, authErr(op, fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         userRole,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, authErr(op, ErrUserAlreadyExists)
		}
		return nil, authErr(op, fmt.Errorf("failed to create user in repository: %w", err))
	}
	s.log.Info().Str("uid", user.ID).Str("role", user.Role).Msg("user signed up")

	session, err := s.issue(ctx, user)
	if err != nil {
		return nil, authErr(op, err)
	}
	return session, nil
}

// SignIn checks the credentials and issues a new session token.
func (s *authService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	const op = "sign in"
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, authErr(op, fmt.Errorf("error finding user by email: %w", err))
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, authErr(op, ErrInvalidCredentials)
	}

	session, err := s.issue(ctx, user)
	if err != nil {
		return nil, authErr(op, err)
	}
	return session, nil
}

func (s *authService) issue(ctx context.Context, user *model.User) (*Session, error) {
	token, claims, err := s.jwtUtil.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.publish(ctx, user.ID, &model.Identity{UID: user.ID, Email: user.Email})
	return &Session{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// SignOut revokes the token and tells every open session of the user that
// it is signed out. Auth state is per user, so session streams on other
// devices move to the auth screens too; their tokens stay valid.
func (s *authService) SignOut(ctx context.Context, token string) error {
	const op = "sign out"
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		return authErr(op, ErrInvalidToken)
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return authErr(op, err)
	}
	s.publish(ctx, claims.UserID, nil)
	s.log.Info().Str("uid", claims.UserID).Msg("user signed out")
	return nil
}

// Authenticate resolves a session token to the current user.
func (s *authService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	const op = "authenticate"
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		return nil, authErr(op, ErrInvalidToken)
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, authErr(op, err)
	}
	if revoked {
		return nil, authErr(op, ErrTokenRevoked)
	}
	return &Principal{
		Identity: model.Identity{UID: claims.UserID, Email: claims.Email},
		Role:     claims.Role,
		TokenID:  claims.ID,
	}, nil
}

// OnAuthStateChanged subscribes fn to the auth-state changes of uid.
func (s *authService) OnAuthStateChanged(ctx context.Context, uid string, fn authstate.Listener) (func(), error) {
	unsubscribe, err := s.stream.Subscribe(ctx, uid, fn)
	if err != nil {
		return nil, authErr("watch auth state", err)
	}
	return unsubscribe, nil
}

// publish logs failures instead of returning them.
func (s *authService) publish(ctx context.Context, uid string, identity *model.Identity) {
	if err := s.stream.Publish(ctx, uid, identity); err != nil {
		s.log.Warn().Err(err).Str("uid", uid).Msg("failed to publish auth state")
	}
}
