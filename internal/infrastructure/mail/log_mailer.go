// Package mail holds Mailer adapters. Real delivery is handled outside this
// service; LogMailer records what would have been sent.
package mail

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogMailer writes reset-code deliveries to the structured log instead of
// an SMTP server. The code itself is only logged at debug level.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mailer").Logger()}
}

func (m *LogMailer) SendResetCode(_ context.Context, to, code string, expiresAt time.Time) error {
	m.log.Info().Str("to", to).Time("expires_at", expiresAt).Msg("password reset code issued")
	m.log.Debug().Str("to", to).Str("code", code).Msg("password reset code")
	return nil
}
