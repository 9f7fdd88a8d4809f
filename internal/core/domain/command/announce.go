package command

import (
	"announcebot/internal/core/domain"
	"announcebot/internal/core/port"
	"announcebot/internal/core/service"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const announceDescription = "Sends a custom message to a specified channel."

// Announce starts the announcement flow for the invoking user.
type Announce struct {
	flow     port.AnnounceFlow
	notifier port.Notifier
	auth     service.Authorizer
	command  string

	l *zerolog.Logger
}

type AnnounceParams struct {
	Flow     port.AnnounceFlow
	Notifier port.Notifier
	Auth     service.Authorizer
	Command  string
}

func NewAnnounce(p AnnounceParams) *Announce {
	logger := log.With().
		Str("command", p.Command).
		Str("handler", "announce").
		Logger()

	return &Announce{
		flow:     p.Flow,
		notifier: p.Notifier,
		auth:     p.Auth,
		command:  p.Command,
		l:        &logger,
	}
}

func (a *Announce) GetCommand() string {
	return a.command
}

func (a *Announce) GetDescription() string {
	return announceDescription
}

func (a *Announce) Respond(ctx context.Context, timeout time.Duration, interaction *domain.Interaction) error {
	l := a.l.With().
		Str("interactionId", interaction.ID).
		Str("guildId", interaction.GuildID).
		Str("userId", interaction.UserID).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if a.auth != nil && !a.auth.IsAuthorized(ctx, interaction) {
		l.Debug().Msg("invoker not authorized")
		return nil
	}

	handle, err := a.flow.Start(ctx, interaction)
	if err != nil {
		return a.notifier.NotifyAndReturnError(ctx, fmt.Errorf("failed to start announcement: %w", err),
			interaction)
	}

	l.Debug().Str("flow", string(handle)).Msg("announcement flow started")

	return nil
}
