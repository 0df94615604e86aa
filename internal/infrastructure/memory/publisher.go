package memory

import (
	"context"

	"github.com/bookme/auth-service/internal/application/auth"
	"github.com/bookme/auth-service/internal/logger"
)

// NoopPublisher is the dev fallback when RabbitMQ is unavailable.
// Payloads are logged instead of published; codes stay out of the log.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishOtpIssued(ctx context.Context, evt auth.OtpIssuedEvent) error {
	logger.Logger.Info().
		Str("email", evt.Email).
		Int64("ttl_seconds", evt.TTLSeconds).
		Msg("noop publisher: otp issued")
	return nil
}

func (p *NoopPublisher) PublishWelcome(ctx context.Context, evt auth.WelcomeEvent) error {
	logger.Logger.Info().
		Str("email", evt.Email).
		Msg("noop publisher: welcome")
	return nil
}
