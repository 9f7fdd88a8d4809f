package handler

import (
	"announcebot/internal/core/domain"
	"announcebot/internal/core/port"
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Interaction routes inbound discordgo interactions to slash commands and announcement flow callbacks.
type Interaction struct {
	commandRegistry port.CommandRegistry
	flow            port.AnnounceFlow
	notifier        port.Notifier
	timeout         time.Duration
}

func NewInteraction(commandRegistry port.CommandRegistry, flow port.AnnounceFlow, notifier port.Notifier,
	timeout time.Duration) *Interaction {
	return &Interaction{
		commandRegistry: commandRegistry,
		flow:            flow,
		notifier:        notifier,
		timeout:         timeout,
	}
}

// Handle is registered with the discordgo session, which runs it on its own goroutine per event.
func (h *Interaction) Handle(_ *discordgo.Session, event *discordgo.InteractionCreate) {
	if event == nil || event.Interaction == nil {
		return
	}

	if err := h.Dispatch(context.Background(), event.Interaction); err != nil {
		log.Err(err).Str("interaction", event.ID).Msg("failed to handle interaction")
	}
}

func (h *Interaction) Dispatch(ctx context.Context, i *discordgo.Interaction) error {
	interaction := toInteraction(i)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return h.handleCommand(ctx, i, interaction)
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		return h.handleFlowStep(ctx, interaction, data.CustomID, func(step domain.Step,
			handle domain.FlowHandle) error {
			return h.handleComponent(ctx, step, handle, interaction, data.Values)
		})
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		return h.handleFlowStep(ctx, interaction, data.CustomID, func(step domain.Step,
			handle domain.FlowHandle) error {
			if step != domain.StepForm {
				return fmt.Errorf("%w: modal for step %s", domain.ErrUnknownInteraction, step)
			}

			fields := modalValues(data.Components)
			return h.flow.OnFormSubmitted(ctx, handle, interaction, fields[domain.FieldTitle],
				fields[domain.FieldBody])
		})
	default:
		log.Debug().Int("type", int(i.Type)).Msg("ignoring interaction type")
		return nil
	}
}

func (h *Interaction) handleCommand(ctx context.Context, i *discordgo.Interaction,
	interaction *domain.Interaction) error {
	name := i.ApplicationCommandData().Name

	log.Debug().Str("command", name).Str("user", interaction.UserID).Msg("received command")

	commandHandler, err := h.commandRegistry.Get(name)
	if err != nil {
		log.Debug().Str("command", name).Msg("no handler for command")
		return fmt.Errorf("no handler for command: %w", err)
	}

	if err := commandHandler.Respond(ctx, h.timeout, interaction); err != nil {
		return fmt.Errorf("failed to respond to command %s: %w", name, err)
	}

	return nil
}

func (h *Interaction) handleFlowStep(ctx context.Context, interaction *domain.Interaction, customID string,
	run func(step domain.Step, handle domain.FlowHandle) error) error {
	if !domain.IsFlowCustomID(customID) {
		log.Debug().Str("customId", customID).Msg("ignoring foreign component")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	step, handle, err := domain.ParseCustomID(customID)
	if err != nil {
		return h.notifier.NotifyAndReturnError(ctx, err, interaction)
	}

	err = run(step, handle)
	if err == nil || domain.IsTerminal(err) {
		return err
	}

	return h.notifier.NotifyAndReturnError(ctx, err, interaction)
}

func (h *Interaction) handleComponent(ctx context.Context, step domain.Step, handle domain.FlowHandle,
	interaction *domain.Interaction, values []string) error {
	switch step {
	case domain.StepChannel:
		if len(values) != 1 {
			return domain.NewValidationError("channel", "must be exactly one")
		}

		return h.flow.OnChannelSelected(ctx, handle, interaction, values[0])
	case domain.StepRoles:
		return h.flow.OnRolesSelected(ctx, handle, interaction, values)
	case domain.StepSend:
		_, err := h.flow.OnSendChosen(ctx, handle, interaction)
		return err
	case domain.StepSkip:
		_, err := h.flow.OnSkipChosen(ctx, handle, interaction)
		return err
	default:
		return fmt.Errorf("%w: component for step %s", domain.ErrUnknownInteraction, step)
	}
}

func toInteraction(i *discordgo.Interaction) *domain.Interaction {
	interaction := &domain.Interaction{
		ID:        i.ID,
		AppID:     i.AppID,
		Token:     i.Token,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
	}

	switch {
	case i.Member != nil && i.Member.User != nil:
		interaction.UserID = i.Member.User.ID
		interaction.Username = i.Member.User.Username
		interaction.MemberRoles = i.Member.Roles
	case i.User != nil:
		interaction.UserID = i.User.ID
		interaction.Username = i.User.Username
	}

	return interaction
}

func modalValues(components []discordgo.MessageComponent) map[string]string {
	values := make(map[string]string)

	for _, c := range components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}

		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}

	return values
}
