package command

import (
	"announcebot/internal/core/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlow struct {
	mock.Mock
}

func (m *MockFlow) Start(ctx context.Context, interaction *domain.Interaction) (domain.FlowHandle, error) {
	args := m.Called(ctx, interaction)
	return domain.FlowHandle(args.String(0)), args.Error(1)
}

func (m *MockFlow) OnChannelSelected(context.Context, domain.FlowHandle, *domain.Interaction, string) error {
	panic("not used by the command")
}

func (m *MockFlow) OnFormSubmitted(context.Context, domain.FlowHandle, *domain.Interaction, string, string) error {
	panic("not used by the command")
}

func (m *MockFlow) OnRolesSelected(context.Context, domain.FlowHandle, *domain.Interaction, []string) error {
	panic("not used by the command")
}

func (m *MockFlow) OnRolesChosen(context.Context, domain.FlowHandle, *domain.Interaction,
	[]string) (*domain.SendResult, error) {
	panic("not used by the command")
}

func (m *MockFlow) OnSendChosen(context.Context, domain.FlowHandle, *domain.Interaction) (*domain.SendResult,
	error) {
	panic("not used by the command")
}

func (m *MockFlow) OnSkipChosen(context.Context, domain.FlowHandle, *domain.Interaction) (*domain.SendResult,
	error) {
	panic("not used by the command")
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyAndReturnError(ctx context.Context, err error, interaction *domain.Interaction) error {
	m.Called(ctx, err, interaction)
	return err
}

type stubAuthorizer bool

func (s stubAuthorizer) IsAuthorized(context.Context, *domain.Interaction) bool {
	return bool(s)
}

func TestAnnounce_Respond(t *testing.T) {
	interaction := &domain.Interaction{ID: "i-1", GuildID: "g-1", UserID: "u-1"}

	tests := []struct {
		name       string
		authorized bool
		startErr   error
		wantStart  bool
		wantNotify bool
	}{
		{
			name:       "starts the flow",
			authorized: true,
			wantStart:  true,
		},
		{
			name:       "unauthorized invoker",
			authorized: false,
		},
		{
			name:       "start failure is reported",
			authorized: true,
			startErr:   domain.ErrNoEligibleChannels,
			wantStart:  true,
			wantNotify: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := new(MockFlow)
			notifier := new(MockNotifier)

			if tt.wantStart {
				flow.On("Start", mock.Anything, interaction).Return("handle", tt.startErr).Once()
			}
			if tt.wantNotify {
				notifier.On("NotifyAndReturnError", mock.Anything,
					mock.MatchedBy(func(err error) bool {
						return assert.ObjectsAreEqual(domain.UserMessage(tt.startErr), domain.UserMessage(err))
					}), interaction).Once()
			}

			cmd := NewAnnounce(AnnounceParams{
				Flow:     flow,
				Notifier: notifier,
				Auth:     stubAuthorizer(tt.authorized),
				Command:  "sendmessage",
			})

			err := cmd.Respond(t.Context(), time.Second, interaction)
			if tt.startErr != nil {
				require.ErrorIs(t, err, tt.startErr)
			} else {
				require.NoError(t, err)
			}

			flow.AssertExpectations(t)
			notifier.AssertExpectations(t)
			if !tt.wantStart {
				flow.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAnnounce_Describe(t *testing.T) {
	cmd := NewAnnounce(AnnounceParams{Command: "sendmessage"})

	assert.Equal(t, "sendmessage", cmd.GetCommand())
	assert.Equal(t, "Sends a custom message to a specified channel.", cmd.GetDescription())
}
