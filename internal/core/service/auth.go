package service

import (
	"announcebot/internal/core/domain"
	"announcebot/internal/core/port"
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Authorizer interface {
	IsAuthorized(ctx context.Context, interaction *domain.Interaction) bool
}

// RoleAuthorizer lets members holding an allowlisted role, or allowlisted users, invoke commands. An empty
// allowlist allows everyone.
type RoleAuthorizer struct {
	allowlist []string
	notifier  port.Notifier
}

func NewAuthorizer(notifier port.Notifier) (*RoleAuthorizer, error) {
	var list []string

	err := viper.UnmarshalKey("discord.allowed_role_ids", &list)
	if err != nil {
		return nil, errors.New("failed to load allowed role IDs")
	}

	return &RoleAuthorizer{
		allowlist: list,
		notifier:  notifier,
	}, nil
}

func (a *RoleAuthorizer) IsAuthorized(ctx context.Context, interaction *domain.Interaction) bool {
	if len(a.allowlist) == 0 {
		return true
	}

	for _, id := range a.allowlist {
		if id == interaction.UserID {
			return true
		}

		for _, role := range interaction.MemberRoles {
			if id == role {
				return true
			}
		}
	}

	err := a.notifier.NotifyAndReturnError(ctx, domain.ErrUnauthorized, interaction)
	log.Debug().Err(err).Str("userId", interaction.UserID).Msg("rejected unauthorized invoker")

	return false
}
