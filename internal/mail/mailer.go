package mail

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Mailer delivers account emails. Transport is outside this service.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer records outgoing mail in the log instead of sending it.
type LogMailer struct {
	// ResetURL is the frontend page the token is appended to.
	ResetURL string
}

func (m LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	log.Info().Str("to", email).Str("link", m.ResetURL+"?token="+token).Msg("password reset mail")
	return nil
}
