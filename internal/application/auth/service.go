package auth

import (
	"context"
	"sync"
	"time"

	"github.com/bookme/auth-service/internal/domain"
	"github.com/bookme/auth-service/internal/logger"
)

// Caller-facing messages, kept stable for clients.
const (
	MsgRegistered  = "Registration successful! Please check your email for OTP verification."
	MsgVerified    = "Email verified successfully! You can now login."
	MsgOtpResent   = "OTP has been resent to your email"
	MsgLoggedOut   = "Logged out successfully"
	tokenTypeValue = "Bearer"
)

type Service struct {
	users  UserRepo
	hasher PasswordHasher
	signer TokenSigner
	otp    OtpManager
	tokens RefreshTokenStore
	pub    EventPublisher

	accessTTL     time.Duration
	notifyTimeout time.Duration

	// in-flight fire-and-forget notifications
	notifyWG sync.WaitGroup
}

type Config struct {
	AccessTTL     time.Duration
	NotifyTimeout time.Duration
}

func NewService(
	users UserRepo,
	hasher PasswordHasher,
	signer TokenSigner,
	otp OtpManager,
	tokens RefreshTokenStore,
	pub EventPublisher,
	cfg Config,
) *Service {
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	notifyTimeout := cfg.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &Service{
		users:         users,
		hasher:        hasher,
		signer:        signer,
		otp:           otp,
		tokens:        tokens,
		pub:           pub,
		accessTTL:     accessTTL,
		notifyTimeout: notifyTimeout,
	}
}

// AuthTokens is the common token output for handlers/DTO mapping.
type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string // "Bearer"
	ExpiresIn    int64  // seconds
}

// AuthResult pairs issued tokens with the user summary.
type AuthResult struct {
	User   domain.User
	Tokens AuthTokens
}

// issueTokens mints an access token and a rotated refresh token for a user.
// The store revokes every prior live refresh token inside one transaction,
// so at most one non-revoked token exists per user afterwards.
func (s *Service) issueTokens(ctx context.Context, u domain.User) (AuthTokens, error) {
	access, err := s.signer.SignAccessToken(u.Username, u.Role, s.accessTTL)
	if err != nil {
		return AuthTokens{}, domain.ErrTokenSignFailed(err)
	}

	refresh, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		TokenType:    tokenTypeValue,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// notify dispatches a notification off the request path. Delivery failure is
// logged and never rolls back the operation that triggered it.
func (s *Service) notify(event string, fn func(ctx context.Context) error) {
	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Logger.Error().Err(err).Str("event", event).Msg("notification publish failed")
		}
	}()
}

// DrainNotifications blocks until all in-flight notification publishes have
// finished. Called on shutdown and by tests.
func (s *Service) DrainNotifications() {
	s.notifyWG.Wait()
}

// SweepExpiredRefreshTokens deletes refresh tokens whose expiry has passed.
// Expired tokens are otherwise reaped only when presented, so a periodic
// sweep keeps the store bounded.
func (s *Service) SweepExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx)
}
