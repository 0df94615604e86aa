package auth

import (
	"context"
	"strings"

	"github.com/bookme/auth-service/internal/domain"
	"github.com/bookme/auth-service/internal/logger"
)

// VerifyOtp consumes a pending code and marks the account's email verified.
// Verification is terminal: there is no path back to unverified.
func (s *Service) VerifyOtp(ctx context.Context, email, code string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", domain.ErrMissingField("email")
	}
	if code == "" {
		return "", domain.ErrMissingField("otp")
	}

	if err := s.otp.Verify(ctx, email, code); err != nil {
		return "", err
	}

	// Should not normally fail if the email was validated at registration.
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if err := s.users.SetEmailVerified(ctx, u.ID); err != nil {
		return "", err
	}

	s.notify("welcome", func(ctx context.Context) error {
		return s.pub.PublishWelcome(ctx, WelcomeEvent{
			Email:    u.Email,
			Username: u.Username,
		})
	})

	logger.Logger.Info().
		Int64("user_id", u.ID).
		Str("username", u.Username).
		Msg("email verified")

	return MsgVerified, nil
}

// ResendOtp supersedes any pending code with a fresh one. The old code is
// deleted before the new one is generated, so it can never verify again.
func (s *Service) ResendOtp(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", domain.ErrMissingField("email")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u.EmailVerified {
		return "", domain.ErrAlreadyVerified()
	}

	if err := s.otp.Delete(ctx, u.Email); err != nil {
		return "", err
	}

	code, err := s.otp.GenerateAndStore(ctx, u.Email)
	if err != nil {
		return "", err
	}

	s.notify("otp_issued", func(ctx context.Context) error {
		return s.pub.PublishOtpIssued(ctx, OtpIssuedEvent{
			Email:      u.Email,
			Code:       code,
			TTLSeconds: int64(s.otp.TTL().Seconds()),
		})
	})

	logger.Logger.Info().
		Int64("user_id", u.ID).
		Msg("otp resent")

	return MsgOtpResent, nil
}
