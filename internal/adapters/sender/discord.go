package sender

import (
	"announcebot/internal/core/domain"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

//go:generate mockery --name DiscordSession

// DiscordSession is the part of *discordgo.Session the sender talks to.
type DiscordSession interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend,
		options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit,
		options ...discordgo.RequestOption) (*discordgo.Message, error)
	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand,
		options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
}

const (
	sendPermission = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	// EmbedColor is the blue used for announcement embeds.
	EmbedColor = 0x3498db
)

type Discord struct {
	session DiscordSession
	botID   string
}

func NewDiscord(session DiscordSession) *Discord {
	return &Discord{session: session}
}

// SetBotUser records the bot's own user ID once the gateway reports ready.
func (d *Discord) SetBotUser(id string) {
	d.botID = id
}

func (d *Discord) ListSendableTextChannels(ctx context.Context, guildID string) ([]domain.ChannelDescriptor,
	error) {
	if d.botID == "" {
		return nil, domain.ErrGatewayNotConnected
	}

	channels, err := d.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("error fetching guild channels: %w", err)
	}

	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].Position < channels[j].Position
	})

	var eligible []domain.ChannelDescriptor

	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText && ch.Type != discordgo.ChannelTypeGuildNews {
			continue
		}

		perms, err := d.session.UserChannelPermissions(d.botID, ch.ID, discordgo.WithContext(ctx))
		if err != nil {
			log.Warn().Err(err).Str("channel", ch.ID).Msg("failed to resolve channel permissions")
			continue
		}

		if perms&sendPermission != sendPermission {
			continue
		}

		eligible = append(eligible, domain.ChannelDescriptor{ID: ch.ID, Name: ch.Name})
	}

	log.Debug().Str("guild", guildID).Int("channels", len(eligible)).Msg("listed sendable channels")

	return eligible, nil
}

func (d *Discord) ListAssignableRoles(ctx context.Context, guildID string) ([]domain.RoleDescriptor, error) {
	roles, err := d.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("error fetching guild roles: %w", err)
	}

	sort.SliceStable(roles, func(i, j int) bool {
		return roles[i].Position > roles[j].Position
	})

	var assignable []domain.RoleDescriptor

	for _, r := range roles {
		// the everyone role shares its ID with the guild
		if r.ID == guildID || r.Name == "@everyone" {
			continue
		}

		assignable = append(assignable, domain.RoleDescriptor{ID: r.ID, Name: r.Name})
	}

	return assignable, nil
}

func (d *Discord) PresentSelection(ctx context.Context, interaction *domain.Interaction,
	prompt domain.SelectPrompt) error {
	err := d.session.InteractionRespond(toDiscord(interaction), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    prompt.Content,
			Components: []discordgo.MessageComponent{selectRow(prompt)},
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Error().Err(err).Str("interaction", interaction.ID).Msg("failed to present selection")
		return err
	}

	return nil
}

func (d *Discord) PresentForm(ctx context.Context, interaction *domain.Interaction, form domain.Form) error {
	rows := make([]discordgo.MessageComponent, len(form.Fields))
	for i, field := range form.Fields {
		style := discordgo.TextInputShort
		if field.Multiline {
			style = discordgo.TextInputParagraph
		}

		rows[i] = discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  field.CustomID,
					Label:     field.Label,
					Style:     style,
					Required:  field.Required,
					MaxLength: field.MaxLength,
				},
			},
		}
	}

	err := d.session.InteractionRespond(toDiscord(interaction), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   form.CustomID,
			Title:      form.Title,
			Components: rows,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Error().Err(err).Str("interaction", interaction.ID).Msg("failed to present form")
		return err
	}

	return nil
}

func (d *Discord) PresentRoles(ctx context.Context, interaction *domain.Interaction,
	prompt domain.RolePrompt) error {
	buttons := make([]discordgo.MessageComponent, len(prompt.Actions))
	for i, action := range prompt.Actions {
		style := discordgo.SuccessButton
		if action.Style == domain.ActionSecondary {
			style = discordgo.SecondaryButton
		}

		buttons[i] = discordgo.Button{
			Label:    action.Label,
			Style:    style,
			CustomID: action.CustomID,
		}
	}

	err := d.session.InteractionRespond(toDiscord(interaction), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content: prompt.Select.Content,
			Components: []discordgo.MessageComponent{
				selectRow(prompt.Select),
				discordgo.ActionsRow{Components: buttons},
			},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Error().Err(err).Str("interaction", interaction.ID).Msg("failed to present role selection")
		return err
	}

	return nil
}

func (d *Discord) Acknowledge(ctx context.Context, interaction *domain.Interaction, text string) error {
	return d.reply(ctx, interaction, text)
}

func (d *Discord) Conclude(ctx context.Context, interaction *domain.Interaction, text string) error {
	return d.session.InteractionRespond(toDiscord(interaction), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    text,
			Components: []discordgo.MessageComponent{},
		},
	}, discordgo.WithContext(ctx))
}

func (d *Discord) Expire(ctx context.Context, interaction *domain.Interaction, text string) error {
	components := []discordgo.MessageComponent{}

	_, err := d.session.InteractionResponseEdit(toDiscord(interaction), &discordgo.WebhookEdit{
		Content:    &text,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error editing expired prompt: %w", err)
	}

	return nil
}

func (d *Discord) SendMessage(ctx context.Context, announcement domain.Announcement) (*domain.SendResult, error) {
	msg, err := d.session.ChannelMessageSendComplex(announcement.ChannelID, &discordgo.MessageSend{
		Content: announcement.MentionPrefix(),
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       announcement.Title,
				Description: announcement.Body,
				Color:       EmbedColor,
			},
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Roles: announcement.RoleIDs,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		if isForbidden(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrForbidden, err)
		}

		return nil, err
	}

	return &domain.SendResult{ChannelID: announcement.ChannelID, MessageID: msg.ID}, nil
}

func (d *Discord) NotifyAndReturnError(ctx context.Context, err error, interaction *domain.Interaction) error {
	log.Warn().Err(err).Str("interaction", interaction.ID).Msg("notifying user of error")

	if replyErr := d.reply(ctx, interaction, domain.UserMessage(err)); replyErr != nil {
		log.Error().Err(replyErr).Msg("failed to send error notification")
		return errors.Join(err, domain.ErrSendingReplyFailed)
	}

	return err
}

// RegisterCommand creates the slash command, scoped to one guild when guildID is set.
func (d *Discord) RegisterCommand(ctx context.Context, appID, guildID string, spec domain.CommandSpec) error {
	dmPermission := false

	_, err := d.session.ApplicationCommandCreate(appID, guildID, &discordgo.ApplicationCommand{
		Name:         spec.Name,
		Description:  spec.Description,
		DMPermission: &dmPermission,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error registering command %s: %w", spec.Name, err)
	}

	log.Info().Str("command", spec.Name).Str("guild", guildID).Msg("registered command")

	return nil
}

func (d *Discord) reply(ctx context.Context, interaction *domain.Interaction, text string) error {
	return d.session.InteractionRespond(toDiscord(interaction), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
}

func selectRow(prompt domain.SelectPrompt) discordgo.ActionsRow {
	options := make([]discordgo.SelectMenuOption, len(prompt.Options))
	for i, o := range prompt.Options {
		options[i] = discordgo.SelectMenuOption{
			Label:       o.Label,
			Value:       o.Value,
			Description: o.Description,
		}
	}

	minValues := prompt.MinValues

	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    prompt.CustomID,
				Placeholder: prompt.Placeholder,
				MinValues:   &minValues,
				MaxValues:   prompt.MaxValues,
				Options:     options,
			},
		},
	}
}

func toDiscord(interaction *domain.Interaction) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:      interaction.ID,
		AppID:   interaction.AppID,
		Token:   interaction.Token,
		GuildID: interaction.GuildID,
	}
}

func isForbidden(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}

	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return true
		}
	}

	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
}
