package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookme/auth-service/internal/domain"
)

// RefreshTokenRepo implements auth.RefreshTokenStore on Postgres.
// Issue runs revoke-all-then-insert inside one transaction so a crash in
// between can never leave two live tokens for the same user. The
// refresh_tokens_one_live_per_user partial unique index is what holds that
// invariant under concurrent logins: under READ COMMITTED both transactions
// can pass the revoke UPDATE without seeing each other's insert, so the
// second insert trips the index and the loser retries against the winner's
// now-committed row. Last committer wins.
type RefreshTokenRepo struct {
	db  *sql.DB
	ttl time.Duration

	now func() time.Time
}

func NewRefreshTokenRepo(db *sql.DB, ttl time.Duration) *RefreshTokenRepo {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RefreshTokenRepo{db: db, ttl: ttl, now: time.Now}
}

const tokenColumns = `id, user_id, token, expires_at, revoked, created_at`

func (r *RefreshTokenRepo) scanToken(row *sql.Row) (domain.RefreshToken, error) {
	var rt domain.RefreshToken
	err := row.Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.Revoked,
		&rt.CreatedAt,
	)
	return rt, err
}

const (
	oneLivePerUserIdx = "refresh_tokens_one_live_per_user"
	issueMaxRetries   = 3
)

func (r *RefreshTokenRepo) Issue(ctx context.Context, userID int64) (domain.RefreshToken, error) {
	for attempt := 0; ; attempt++ {
		rt, err := r.issueOnce(ctx, userID)
		if constraint, ok := uniqueViolation(err); ok && constraint == oneLivePerUserIdx {
			if attempt < issueMaxRetries {
				continue
			}
		}
		return rt, err
	}
}

func (r *RefreshTokenRepo) issueOnce(ctx context.Context, userID int64) (domain.RefreshToken, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.RefreshToken{}, domain.ErrDBUnavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	const revokeQ = `
UPDATE refresh_tokens
SET revoked = TRUE
WHERE user_id = $1 AND revoked = FALSE;
`
	if _, err := tx.ExecContext(ctx, revokeQ, userID); err != nil {
		return domain.RefreshToken{}, domain.ErrDBUnavailable(err)
	}

	const insertQ = `
INSERT INTO refresh_tokens (user_id, token, expires_at)
VALUES ($1, $2, $3)
RETURNING ` + tokenColumns + `;
`
	token := uuid.NewString()
	expiresAt := r.now().Add(r.ttl)

	var rt domain.RefreshToken
	err = tx.QueryRowContext(ctx, insertQ, userID, token, expiresAt).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.Revoked,
		&rt.CreatedAt,
	)
	if err != nil {
		return domain.RefreshToken{}, domain.ErrDBUnavailable(err)
	}

	if err := tx.Commit(); err != nil {
		return domain.RefreshToken{}, domain.ErrDBUnavailable(err)
	}
	return rt, nil
}

func (r *RefreshTokenRepo) Verify(ctx context.Context, token string) (domain.RefreshToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.RefreshToken{}, domain.ErrTokenInvalid()
	}

	const q = `
SELECT ` + tokenColumns + `
FROM refresh_tokens
WHERE token = $1
LIMIT 1;
`
	rt, err := r.scanToken(r.db.QueryRowContext(ctx, q, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RefreshToken{}, domain.ErrTokenInvalid()
		}
		return domain.RefreshToken{}, domain.ErrDBUnavailable(err)
	}

	if rt.Revoked {
		return domain.RefreshToken{}, domain.ErrTokenInvalid()
	}

	if rt.Expired(r.now()) {
		// Reap on access: expired rows are deleted, not just revoked,
		// to keep the store bounded.
		const delQ = `DELETE FROM refresh_tokens WHERE id = $1;`
		if _, err := r.db.ExecContext(ctx, delQ, rt.ID); err != nil {
			return domain.RefreshToken{}, domain.ErrDBUnavailable(err)
		}
		return domain.RefreshToken{}, domain.ErrTokenInvalid()
	}

	return rt, nil
}

func (r *RefreshTokenRepo) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrTokenInvalid()
	}

	// Idempotent in effect: revoking an already-revoked token succeeds.
	const q = `
UPDATE refresh_tokens
SET revoked = TRUE
WHERE token = $1;
`
	res, err := r.db.ExecContext(ctx, q, token)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrTokenInvalid()
	}
	return nil
}

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	const q = `
UPDATE refresh_tokens
SET revoked = TRUE
WHERE user_id = $1 AND revoked = FALSE;
`
	if _, err := r.db.ExecContext(ctx, q, userID); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

// DeleteByUser removes every token owned by the user. Account deletion
// cascades through here.
func (r *RefreshTokenRepo) DeleteByUser(ctx context.Context, userID int64) error {
	const q = `DELETE FROM refresh_tokens WHERE user_id = $1;`
	if _, err := r.db.ExecContext(ctx, q, userID); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

// DeleteExpired reaps rows whose expiry passed without ever being presented
// again. Called by the periodic sweep.
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM refresh_tokens WHERE expires_at < $1;`
	res, err := r.db.ExecContext(ctx, q, r.now())
	if err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
