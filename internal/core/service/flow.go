package service

import (
	"announcebot/internal/core/domain"
	"announcebot/internal/core/port"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultIdleTimeout = 180 * time.Second
	expireTimeout      = 10 * time.Second
)

// AnnounceFlow is the interaction flow controller for announcements. Each flow is reachable only through the
// handle returned by Start, which the rendered prompts carry in their component IDs.
type AnnounceFlow struct {
	gateway     port.Gateway
	recorder    port.FlowRecorder
	idleTimeout time.Duration

	mu    sync.Mutex
	flows map[domain.FlowHandle]*flow

	l *zerolog.Logger
}

type flow struct {
	mu sync.Mutex

	state        domain.FlowState
	pendingRoles []string
	// prompt is the interaction whose original response shows the flow's controls.
	prompt *domain.Interaction

	timer      *time.Timer
	generation uint64
	stopped    bool
}

type AnnounceFlowParams struct {
	Gateway     port.Gateway
	Recorder    port.FlowRecorder
	IdleTimeout time.Duration
}

func NewAnnounceFlow(p AnnounceFlowParams) *AnnounceFlow {
	logger := log.With().
		Str("service", "announce_flow").
		Logger()

	idle := p.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	recorder := p.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &AnnounceFlow{
		gateway:     p.Gateway,
		recorder:    recorder,
		idleTimeout: idle,
		flows:       make(map[domain.FlowHandle]*flow),
		l:           &logger,
	}
}

func (a *AnnounceFlow) Start(ctx context.Context, interaction *domain.Interaction) (domain.FlowHandle, error) {
	if interaction.GuildID == "" {
		return "", domain.ErrNotInGuild
	}

	channels, err := a.gateway.ListSendableTextChannels(ctx, interaction.GuildID)
	if err != nil {
		return "", fmt.Errorf("failed to list channels: %w", err)
	}

	if len(channels) == 0 {
		return "", domain.ErrNoEligibleChannels
	}

	if len(channels) > domain.MaxSelectOptions {
		a.l.Warn().Int("channels", len(channels)).Msg("too many channels, truncating selection")
		channels = channels[:domain.MaxSelectOptions]
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to create flow handle: %w", err)
	}

	handle := domain.FlowHandle(id.String())
	f := &flow{
		state: domain.FlowState{
			Handle:            handle,
			InvokingUser:      interaction.UserID,
			GuildID:           interaction.GuildID,
			CandidateChannels: channels,
			Stage:             domain.AwaitingChannel,
			StartedAt:         time.Now(),
		},
		prompt: interaction,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	a.mu.Lock()
	a.flows[handle] = f
	a.mu.Unlock()

	if err := a.gateway.PresentSelection(ctx, interaction, channelPrompt(handle, channels)); err != nil {
		a.remove(handle)
		return "", fmt.Errorf("failed to present channel selection: %w", err)
	}

	a.arm(f)
	a.recorder.FlowStarted()

	a.l.Debug().Str("flow", string(handle)).Int("channels", len(channels)).Msg("awaiting channel")

	return handle, nil
}

func (a *AnnounceFlow) OnChannelSelected(ctx context.Context, handle domain.FlowHandle,
	interaction *domain.Interaction, channelID string) error {
	f, err := a.acquire(handle, interaction, domain.StepChannel, domain.AwaitingChannel, domain.AwaitingForm)
	if err != nil {
		return err
	}
	defer f.mu.Unlock()

	if f.state.Stage == domain.AwaitingForm {
		return a.reopenForm(ctx, f, interaction, channelID)
	}

	if !f.state.HasChannel(channelID) {
		err := domain.NewValidationError("channel", "is not available")
		a.recorder.StepRejected(domain.StepChannel, err)
		return err
	}

	if err := a.gateway.PresentForm(ctx, interaction, messageForm(handle)); err != nil {
		return fmt.Errorf("failed to present form: %w", err)
	}

	f.state.SelectedChannelID = channelID
	f.state.Stage = domain.AwaitingForm
	a.arm(f)

	a.l.Debug().Str("flow", string(handle)).Str("channel", f.state.ChannelName(channelID)).
		Msg("awaiting form")

	return nil
}

// reopenForm presents the form again when the already selected channel is picked a second time, after the
// form was dismissed or rejected. Picking another channel is stale. Callers hold f.mu.
func (a *AnnounceFlow) reopenForm(ctx context.Context, f *flow, interaction *domain.Interaction,
	channelID string) error {
	if channelID != f.state.SelectedChannelID {
		err := fmt.Errorf("%w: flow %s already targets channel %s", domain.ErrStaleInteraction, f.state.Handle,
			f.state.SelectedChannelID)
		a.recorder.StepRejected(domain.StepChannel, err)
		return err
	}

	if err := a.gateway.PresentForm(ctx, interaction, messageForm(f.state.Handle)); err != nil {
		return fmt.Errorf("failed to reopen form: %w", err)
	}

	a.arm(f)

	a.l.Debug().Str("flow", string(f.state.Handle)).Msg("form reopened")

	return nil
}

func (a *AnnounceFlow) OnFormSubmitted(ctx context.Context, handle domain.FlowHandle,
	interaction *domain.Interaction, title, body string) error {
	f, err := a.acquire(handle, interaction, domain.StepForm, domain.AwaitingForm)
	if err != nil {
		return err
	}
	defer f.mu.Unlock()

	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	if err := validateContent(title, body); err != nil {
		a.recorder.StepRejected(domain.StepForm, err)
		return err
	}

	roles, err := a.gateway.ListAssignableRoles(ctx, f.state.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list roles: %w", err)
	}

	if len(roles) > domain.MaxSelectOptions {
		a.l.Warn().Int("roles", len(roles)).Msg("too many roles, truncating selection")
		roles = roles[:domain.MaxSelectOptions]
	}

	if err := a.gateway.PresentRoles(ctx, interaction, rolePrompt(handle, roles)); err != nil {
		return fmt.Errorf("failed to present role selection: %w", err)
	}

	f.state.Title = title
	f.state.Body = body
	f.state.CandidateRoles = roles
	f.state.Stage = domain.AwaitingRoles
	a.arm(f)

	a.l.Debug().Str("flow", string(handle)).Int("roles", len(roles)).Msg("awaiting roles")

	return nil
}

// OnRolesSelected records the roles picked in the multi-select without sending. Picking the informational
// entry shown for guilds without roles sends right away with no mentions.
func (a *AnnounceFlow) OnRolesSelected(ctx context.Context, handle domain.FlowHandle,
	interaction *domain.Interaction, roleIDs []string) error {
	f, err := a.acquire(handle, interaction, domain.StepRoles, domain.AwaitingRoles)
	if err != nil {
		return err
	}
	defer f.mu.Unlock()

	if len(f.state.CandidateRoles) == 0 && slices.Contains(roleIDs, domain.NoRolesValue) {
		_, err := a.finalize(ctx, f, interaction, nil)
		return err
	}

	roles, err := a.checkRoles(f, roleIDs)
	if err != nil {
		return err
	}

	if err := a.gateway.Acknowledge(ctx, interaction, selectedRolesNote(roles)); err != nil {
		return fmt.Errorf("failed to acknowledge role selection: %w", err)
	}

	f.pendingRoles = roles
	a.arm(f)

	return nil
}

func (a *AnnounceFlow) OnRolesChosen(ctx context.Context, handle domain.FlowHandle,
	interaction *domain.Interaction, roleIDs []string) (*domain.SendResult, error) {
	f, err := a.acquire(handle, interaction, domain.StepSend, domain.AwaitingRoles)
	if err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	roles, err := a.checkRoles(f, roleIDs)
	if err != nil {
		return nil, err
	}

	return a.finalize(ctx, f, interaction, roles)
}

// OnSendChosen sends with the roles recorded by OnRolesSelected.
func (a *AnnounceFlow) OnSendChosen(ctx context.Context, handle domain.FlowHandle,
	interaction *domain.Interaction) (*domain.SendResult, error) {
	f, err := a.acquire(handle, interaction, domain.StepSend, domain.AwaitingRoles)
	if err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	return a.finalize(ctx, f, interaction, f.pendingRoles)
}

func (a *AnnounceFlow) OnSkipChosen(ctx context.Context, handle domain.FlowHandle,
	interaction *domain.Interaction) (*domain.SendResult, error) {
	f, err := a.acquire(handle, interaction, domain.StepSkip, domain.AwaitingRoles)
	if err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	return a.finalize(ctx, f, interaction, nil)
}

// Snapshot returns a copy of the flow's state.
func (a *AnnounceFlow) Snapshot(handle domain.FlowHandle) (domain.FlowState, bool) {
	a.mu.Lock()
	f, ok := a.flows[handle]
	a.mu.Unlock()

	if !ok {
		return domain.FlowState{}, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	state := f.state
	state.CandidateChannels = append([]domain.ChannelDescriptor(nil), f.state.CandidateChannels...)
	state.CandidateRoles = append([]domain.RoleDescriptor(nil), f.state.CandidateRoles...)
	state.SelectedRoleIDs = append([]string(nil), f.state.SelectedRoleIDs...)

	return state, true
}

// Shutdown stops every pending timer and forgets all flows.
func (a *AnnounceFlow) Shutdown() {
	a.mu.Lock()
	flows := a.flows
	a.flows = make(map[domain.FlowHandle]*flow)
	a.mu.Unlock()

	for _, f := range flows {
		f.mu.Lock()
		if f.timer != nil {
			f.timer.Stop()
		}
		f.generation++
		f.stopped = true
		f.mu.Unlock()
	}

	a.l.Debug().Msg("announcement flows stopped")
}

// finalize delivers the announcement and ends the flow. Callers hold f.mu.
func (a *AnnounceFlow) finalize(ctx context.Context, f *flow, interaction *domain.Interaction,
	roleIDs []string) (*domain.SendResult, error) {
	l := a.l.With().
		Str("flow", string(f.state.Handle)).
		Str("channel", f.state.SelectedChannelID).
		Int("roles", len(roleIDs)).
		Logger()

	announcement := domain.Announcement{
		ChannelID: f.state.SelectedChannelID,
		Title:     f.state.Title,
		Body:      f.state.Body,
		RoleIDs:   roleIDs,
	}

	result, err := a.gateway.SendMessage(ctx, announcement)
	if err != nil {
		var reason error
		if errors.Is(err, domain.ErrForbidden) {
			reason = fmt.Errorf("%w: %w", domain.ErrPermissionDenied, err)
		} else {
			reason = &domain.DeliveryError{ChannelID: announcement.ChannelID, Cause: err}
		}

		l.Warn().Err(err).Msg("failed to deliver announcement")
		a.terminate(f, domain.Aborted, reason)

		if err := a.gateway.Conclude(ctx, interaction, domain.UserMessage(reason)); err != nil {
			l.Err(err).Msg("failed to conclude prompt")
		}

		return nil, reason
	}

	f.state.SelectedRoleIDs = roleIDs
	a.terminate(f, domain.Completed, nil)

	l.Info().Str("message", result.MessageID).Msg("announcement delivered")

	if err := a.gateway.Conclude(ctx, interaction, result.Confirmation()); err != nil {
		l.Err(err).Msg("failed to conclude prompt")
	}

	return result, nil
}

// acquire returns the flow locked when it exists, belongs to the interacting user and sits at one of the
// expected stages. Anything else is a stale interaction and leaves the flow untouched.
func (a *AnnounceFlow) acquire(handle domain.FlowHandle, interaction *domain.Interaction, step domain.Step,
	expected ...domain.Stage) (*flow, error) {
	a.mu.Lock()
	f, ok := a.flows[handle]
	a.mu.Unlock()

	if !ok {
		err := fmt.Errorf("%w: unknown flow %s", domain.ErrStaleInteraction, handle)
		a.recorder.StepRejected(step, err)
		return nil, err
	}

	f.mu.Lock()

	if f.stopped {
		f.mu.Unlock()
		err := fmt.Errorf("%w: flow %s was shut down", domain.ErrStaleInteraction, handle)
		a.recorder.StepRejected(step, err)
		return nil, err
	}

	if f.state.InvokingUser != interaction.UserID {
		f.mu.Unlock()
		err := fmt.Errorf("%w: flow %s belongs to another user", domain.ErrStaleInteraction, handle)
		a.recorder.StepRejected(step, err)
		return nil, err
	}

	if !slices.Contains(expected, f.state.Stage) {
		stage := f.state.Stage
		f.mu.Unlock()
		err := fmt.Errorf("%w: flow %s is %s, not %s", domain.ErrStaleInteraction, handle, stage, expected[0])
		a.recorder.StepRejected(step, err)
		a.l.Debug().Str("flow", string(handle)).Str("step", string(step)).Msg("stale interaction")
		return nil, err
	}

	return f, nil
}

func (a *AnnounceFlow) checkRoles(f *flow, roleIDs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(roleIDs))
	roles := make([]string, 0, len(roleIDs))

	for _, id := range roleIDs {
		if !f.state.HasRole(id) {
			err := domain.NewValidationError("role", "is not available")
			a.recorder.StepRejected(domain.StepRoles, err)
			return nil, err
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		roles = append(roles, id)
	}

	return roles, nil
}

// arm restarts the idle window of a pending flow. Callers hold f.mu.
func (a *AnnounceFlow) arm(f *flow) {
	if f.timer != nil {
		f.timer.Stop()
	}

	f.generation++
	generation := f.generation
	handle := f.state.Handle

	f.timer = time.AfterFunc(a.idleTimeout, func() {
		a.expire(handle, generation)
	})
}

func (a *AnnounceFlow) expire(handle domain.FlowHandle, generation uint64) {
	a.mu.Lock()
	f, ok := a.flows[handle]
	a.mu.Unlock()

	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.generation != generation || f.state.Stage.IsTerminal() {
		return
	}

	a.l.Info().Str("flow", string(handle)).Str("stage", f.state.Stage.String()).Msg("flow timed out")
	a.terminate(f, domain.Aborted, domain.ErrTimedOut)

	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	if err := a.gateway.Expire(ctx, f.prompt, domain.UserMessage(domain.ErrTimedOut)); err != nil {
		a.l.Err(err).Str("flow", string(handle)).Msg("failed to disable expired prompt")
	}
}

// terminate moves the flow to a terminal stage and schedules its removal. Callers hold f.mu.
func (a *AnnounceFlow) terminate(f *flow, stage domain.Stage, reason error) {
	f.state.Stage = stage
	f.state.AbortReason = reason

	if f.timer != nil {
		f.timer.Stop()
	}

	f.generation++
	handle := f.state.Handle
	f.timer = time.AfterFunc(a.idleTimeout, func() {
		a.remove(handle)
	})

	a.recorder.FlowFinished(stage, reason)
}

func (a *AnnounceFlow) remove(handle domain.FlowHandle) {
	a.mu.Lock()
	delete(a.flows, handle)
	a.mu.Unlock()
}

func validateContent(title, body string) error {
	switch {
	case title == "":
		return domain.NewValidationError("title", "must not be empty")
	case body == "":
		return domain.NewValidationError("body", "must not be empty")
	case utf8.RuneCountInString(title) > domain.MaxTitleLength:
		return domain.NewValidationError("title", fmt.Sprintf("must be at most %d characters",
			domain.MaxTitleLength))
	case utf8.RuneCountInString(body) > domain.MaxBodyLength:
		return domain.NewValidationError("body", fmt.Sprintf("must be at most %d characters",
			domain.MaxBodyLength))
	}

	return nil
}

func channelPrompt(handle domain.FlowHandle, channels []domain.ChannelDescriptor) domain.SelectPrompt {
	options := make([]domain.Option, len(channels))
	for i, c := range channels {
		options[i] = domain.Option{Label: "#" + c.Name, Value: c.ID}
	}

	return domain.SelectPrompt{
		CustomID:    domain.CustomID(domain.StepChannel, handle),
		Content:     "Please select a channel to send the message to:",
		Placeholder: "Select a channel",
		Options:     options,
		MinValues:   1,
		MaxValues:   1,
	}
}

func messageForm(handle domain.FlowHandle) domain.Form {
	return domain.Form{
		CustomID: domain.CustomID(domain.StepForm, handle),
		Title:    "Message Content",
		Fields: []domain.FormField{
			{CustomID: domain.FieldTitle, Label: "Title", Required: true, MaxLength: domain.MaxTitleLength},
			{CustomID: domain.FieldBody, Label: "Body", Multiline: true, Required: true, MaxLength: domain.MaxBodyLength},
		},
	}
}

func rolePrompt(handle domain.FlowHandle, roles []domain.RoleDescriptor) domain.RolePrompt {
	options := make([]domain.Option, len(roles))
	for i, r := range roles {
		options[i] = domain.Option{Label: r.Name, Value: r.ID}
	}

	minValues, maxValues := 0, len(options)
	if len(options) == 0 {
		options = []domain.Option{{Label: "No roles available", Value: domain.NoRolesValue}}
		minValues, maxValues = 1, 1
	}

	return domain.RolePrompt{
		Select: domain.SelectPrompt{
			CustomID:    domain.CustomID(domain.StepRoles, handle),
			Content:     "Please select roles to mention (optional):",
			Placeholder: "Select roles to mention (optional)",
			Options:     options,
			MinValues:   minValues,
			MaxValues:   maxValues,
		},
		Actions: []domain.Action{
			{CustomID: domain.CustomID(domain.StepSend, handle), Label: "Send Message", Style: domain.ActionPrimary},
			{CustomID: domain.CustomID(domain.StepSkip, handle), Label: "Skip Role Mention",
				Style: domain.ActionSecondary},
		},
	}
}

func selectedRolesNote(roleIDs []string) string {
	if len(roleIDs) == 0 {
		return "Selected roles: None"
	}

	mentions := make([]string, len(roleIDs))
	for i, id := range roleIDs {
		mentions[i] = domain.RoleMention(id)
	}

	return "Selected roles: " + strings.Join(mentions, ", ")
}

type noopRecorder struct{}

func (noopRecorder) FlowStarted() {}

func (noopRecorder) FlowFinished(_ domain.Stage, _ error) {}

func (noopRecorder) StepRejected(_ domain.Step, _ error) {}
