package auth

import (
	"context"
	"time"

	"github.com/bookme/auth-service/internal/domain"
)

/*
UserRepo
--------
Persistence port for the user directory.
Only describes WHAT the auth service needs, not HOW it's stored.
*/
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)
	SetEmailVerified(ctx context.Context, userID int64) error
}

/*
PasswordHasher
--------------
Abstracts bcrypt / argon2.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
TokenSigner
-----------
Issues and verifies access tokens (JWT).
Used by service + auth middleware. Stateless: an access token stays valid
until its own expiry; there is no server-side revocation for it.
*/
type TokenClaims struct {
	Username string
	Role     string
	Exp      time.Time
}

type TokenSigner interface {
	SignAccessToken(username string, role string, ttl time.Duration) (string, error)
	VerifyAccessToken(token string) (TokenClaims, error)
}

/*
OtpManager
----------
Pending one-time codes, keyed by email, backed by an expiring store.
*/
type OtpManager interface {
	GenerateAndStore(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) error
	Delete(ctx context.Context, email string) error
	Exists(ctx context.Context, email string) (bool, error)
	TTL() time.Duration
}

/*
RefreshTokenStore
-----------------
Durable refresh tokens with rotation-by-revocation: Issue revokes every
live token for the user before inserting the new one, in one transaction.
*/
type RefreshTokenStore interface {
	Issue(ctx context.Context, userID int64) (domain.RefreshToken, error)
	Verify(ctx context.Context, token string) (domain.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

/*
EventPublisher
--------------
Publishes notification events to RabbitMQ.
The email service consumes these and sends the actual mail; the auth
service does NOT send emails directly and never fails a flow over them.
*/
type EventPublisher interface {
	PublishOtpIssued(ctx context.Context, evt OtpIssuedEvent) error
	PublishWelcome(ctx context.Context, evt WelcomeEvent) error
}

/*
Event payloads
--------------
Strongly typed messages for MQ.
*/
type OtpIssuedEvent struct {
	Email      string
	Code       string
	TTLSeconds int64
}

type WelcomeEvent struct {
	Email    string
	Username string
}
