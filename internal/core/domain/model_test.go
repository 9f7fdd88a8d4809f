package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncement_MentionPrefix(t *testing.T) {
	tests := []struct {
		name    string
		roleIDs []string
		want    string
	}{
		{
			name: "no roles, no prefix",
			want: "",
		},
		{
			name:    "single role",
			roleIDs: []string{"1"},
			want:    "<@&1>",
		},
		{
			name:    "one token per role",
			roleIDs: []string{"1", "2", "3"},
			want:    "<@&1> <@&2> <@&3>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Announcement{ChannelID: "c", Title: "t", Body: "b", RoleIDs: tt.roleIDs}
			got := a.MentionPrefix()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.roleIDs), strings.Count(got, "<@&"))
		})
	}
}

func TestSendResult_Confirmation(t *testing.T) {
	assert.Equal(t, "Message sent to <#42>!", SendResult{ChannelID: "42"}.Confirmation())
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "not in guild",
			err:  ErrNotInGuild,
			want: "This command can only be used in a server.",
		},
		{
			name: "wrapped no channels",
			err:  fmt.Errorf("failed to start announcement: %w", ErrNoEligibleChannels),
			want: "I don't have permission to send messages in any channel, or no text channels exist.",
		},
		{
			name: "validation",
			err:  NewValidationError("title", "must not be empty"),
			want: "The title must not be empty. Please try again.",
		},
		{
			name: "stale",
			err:  fmt.Errorf("%w: unknown flow", ErrStaleInteraction),
			want: "This prompt is no longer active. Run the command again to start over.",
		},
		{
			name: "permission denied",
			err:  fmt.Errorf("%w: %w", ErrPermissionDenied, ErrForbidden),
			want: "Error: I don't have permission to send messages to that channel.",
		},
		{
			name: "delivery error shows only a summary",
			err:  &DeliveryError{ChannelID: "1", Cause: errors.New(strings.Repeat("x", 300))},
			want: "An unexpected error occurred: " + strings.Repeat("x", summaryLength) + "…",
		},
		{
			name: "timed out",
			err:  ErrTimedOut,
			want: "This announcement timed out. Run the command again to start over.",
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: "Something went wrong, please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestDeliveryError(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&DeliveryError{ChannelID: "1", Cause: cause})

	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.ErrorIs(t, err, cause)
	assert.True(t, IsTerminal(err))
	assert.Equal(t, "delivering to channel 1: connection reset", err.Error())
}

func TestDeliveryError_Summary(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  string
	}{
		{name: "no cause", want: "unknown error"},
		{name: "short", cause: errors.New("connection reset"), want: "connection reset"},
		{
			name:  "ascii cut at limit",
			cause: errors.New(strings.Repeat("x", summaryLength+1)),
			want:  strings.Repeat("x", summaryLength) + "…",
		},
		{
			name:  "multi-byte rune is never split",
			cause: errors.New("x" + strings.Repeat("é", summaryLength)),
			want:  "x" + strings.Repeat("é", (summaryLength-1)/2) + "…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&DeliveryError{ChannelID: "1", Cause: tt.cause}).Summary()

			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(fmt.Errorf("%w: x", ErrPermissionDenied)))
	assert.True(t, IsTerminal(ErrTimedOut))
	assert.False(t, IsTerminal(ErrStaleInteraction))
	assert.False(t, IsTerminal(NewValidationError("body", "must not be empty")))
}
