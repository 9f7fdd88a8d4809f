package port

import (
	"announcebot/internal/core/domain"
	"context"
)

// AnnounceFlow drives one announcement from channel selection to delivery. Every callback after Start is keyed
// by the handle Start returned.
type AnnounceFlow interface {
	Start(ctx context.Context, interaction *domain.Interaction) (domain.FlowHandle, error)
	OnChannelSelected(ctx context.Context, handle domain.FlowHandle, interaction *domain.Interaction,
		channelID string) error
	OnFormSubmitted(ctx context.Context, handle domain.FlowHandle, interaction *domain.Interaction,
		title, body string) error
	OnRolesSelected(ctx context.Context, handle domain.FlowHandle, interaction *domain.Interaction,
		roleIDs []string) error
	OnRolesChosen(ctx context.Context, handle domain.FlowHandle, interaction *domain.Interaction,
		roleIDs []string) (*domain.SendResult, error)
	OnSendChosen(ctx context.Context, handle domain.FlowHandle,
		interaction *domain.Interaction) (*domain.SendResult, error)
	OnSkipChosen(ctx context.Context, handle domain.FlowHandle,
		interaction *domain.Interaction) (*domain.SendResult, error)
}

// FlowRecorder observes flow lifecycle events.
type FlowRecorder interface {
	FlowStarted()
	FlowFinished(stage domain.Stage, reason error)
	StepRejected(step domain.Step, reason error)
}
