package port

import (
	"announcebot/internal/core/domain"
	"context"
)

// Gateway is everything the announcement flow needs from the chat platform.
type Gateway interface {
	Directory
	Presenter
	Notifier

	// SendMessage delivers the rendered announcement. A missing permission is reported as domain.ErrForbidden.
	SendMessage(ctx context.Context, announcement domain.Announcement) (*domain.SendResult, error)
}

type Directory interface {
	// ListSendableTextChannels returns the guild's text channels the bot may post in. An empty list is valid.
	ListSendableTextChannels(ctx context.Context, guildID string) ([]domain.ChannelDescriptor, error)
	// ListAssignableRoles returns the guild's mentionable roles without the implicit everyone role.
	ListAssignableRoles(ctx context.Context, guildID string) ([]domain.RoleDescriptor, error)
}

type Presenter interface {
	// PresentSelection answers the interaction with a private select prompt.
	PresentSelection(ctx context.Context, interaction *domain.Interaction, prompt domain.SelectPrompt) error
	// PresentForm answers the interaction with a form.
	PresentForm(ctx context.Context, interaction *domain.Interaction, form domain.Form) error
	// PresentRoles replaces the current prompt with the role selection and its actions.
	PresentRoles(ctx context.Context, interaction *domain.Interaction, prompt domain.RolePrompt) error
	// Acknowledge answers an intermediate interaction with a private note.
	Acknowledge(ctx context.Context, interaction *domain.Interaction, text string) error
	// Conclude replaces the current prompt with a final text and removes its controls.
	Conclude(ctx context.Context, interaction *domain.Interaction, text string) error
	// Expire marks the prompt of the original interaction inert after the flow timed out.
	Expire(ctx context.Context, interaction *domain.Interaction, text string) error
}

type Notifier interface {
	// NotifyAndReturnError sends a private error notification for the interaction and returns the error.
	NotifyAndReturnError(ctx context.Context, err error, interaction *domain.Interaction) error
}
