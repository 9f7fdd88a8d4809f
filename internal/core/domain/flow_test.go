package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomID_RoundTrip(t *testing.T) {
	for _, step := range []Step{StepChannel, StepForm, StepRoles, StepSend, StepSkip} {
		id := CustomID(step, "abc-123")
		assert.True(t, IsFlowCustomID(id))
		assert.LessOrEqual(t, len(CustomID(step, "6ba7b810-9dad-11d1-80b4-00c04fd430c8")), 100)

		gotStep, gotHandle, err := ParseCustomID(id)
		require.NoError(t, err)
		assert.Equal(t, step, gotStep)
		assert.Equal(t, FlowHandle("abc-123"), gotHandle)
	}
}

func TestParseCustomID_Malformed(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "empty", id: ""},
		{name: "foreign prefix", id: "skillinstall:confirm:x"},
		{name: "missing handle", id: "announce:send:"},
		{name: "unknown step", id: "announce:delete:x"},
		{name: "too many parts", id: "announce:send:x:y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseCustomID(tt.id)
			require.ErrorIs(t, err, ErrMalformedCustomID)
		})
	}
}

func TestStage(t *testing.T) {
	assert.Equal(t, "awaiting_channel", AwaitingChannel.String())
	assert.Equal(t, "aborted", Aborted.String())
	assert.Equal(t, "stage(9)", Stage(9).String())

	assert.False(t, AwaitingRoles.IsTerminal())
	assert.True(t, Completed.IsTerminal())
	assert.True(t, Aborted.IsTerminal())

	// stages are ordered so transitions can only increase
	assert.Less(t, AwaitingChannel, AwaitingForm)
	assert.Less(t, AwaitingForm, AwaitingRoles)
	assert.Less(t, AwaitingRoles, Completed)
}

func TestFlowState_Lookups(t *testing.T) {
	state := FlowState{
		CandidateChannels: []ChannelDescriptor{{ID: "c1", Name: "general"}},
		CandidateRoles:    []RoleDescriptor{{ID: "r1", Name: "mods"}},
	}

	assert.True(t, state.HasChannel("c1"))
	assert.False(t, state.HasChannel("c2"))
	assert.Equal(t, "general", state.ChannelName("c1"))
	assert.Empty(t, state.ChannelName("c2"))
	assert.True(t, state.HasRole("r1"))
	assert.False(t, state.HasRole("r2"))
}
