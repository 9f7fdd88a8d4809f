package command

import (
	"announcebot/internal/core/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResponder struct {
	command string
}

func (m *MockResponder) Respond(_ context.Context, _ time.Duration, _ *domain.Interaction) error {
	return nil
}

func (m *MockResponder) GetCommand() string {
	return m.command
}

func (m *MockResponder) GetDescription() string {
	return "describes " + m.command
}

func TestRegister(t *testing.T) {
	cr := &Registry{}
	mr := &MockResponder{command: "test"}

	cr.Register(mr)
	assert.Len(t, cr.commands, 1)
}

func TestGetNotRegistered(t *testing.T) {
	cr := &Registry{}

	_, err := cr.Get("test")
	require.ErrorIs(t, err, domain.ErrRegistryNotReady)
}

func TestGetCommandNotFound(t *testing.T) {
	cr := &Registry{}
	mr := &MockResponder{command: "test"}

	cr.Register(mr)
	assert.Len(t, cr.commands, 1)

	_, err := cr.Get("foo")
	require.ErrorIs(t, err, domain.ErrCommandNotFound)
}

func TestGetCommandFound(t *testing.T) {
	cr := &Registry{}
	mr := &MockResponder{command: "test"}

	cr.Register(mr)
	assert.Len(t, cr.commands, 1)

	cmd, err := cr.Get("/Test")
	require.NoError(t, err)
	assert.NotNil(t, cmd)

	assert.Equal(t, "test", cmd.GetCommand())
}

func TestListCommands(t *testing.T) {
	cr := &Registry{}
	mr1 := &MockResponder{command: "foo"}
	mr2 := &MockResponder{command: "bar"}

	cr.Register(mr1)
	cr.Register(mr2)
	assert.Len(t, cr.commands, 2)

	list := cr.ListCommands()

	assert.Equal(t, []string{"bar", "foo"}, list)
}

func TestSpecs(t *testing.T) {
	cr := &Registry{}
	cr.Register(&MockResponder{command: "sendmessage"})

	assert.Equal(t, []domain.CommandSpec{
		{Name: "sendmessage", Description: "describes sendmessage"},
	}, cr.Specs())
}

func TestParseCommand(t *testing.T) {
	type TestCase struct {
		description string
		args        string
		want        string
	}

	testCases := []TestCase{
		{
			description: "should keep plain name",
			args:        "sendmessage",
			want:        "sendmessage",
		},
		{
			description: "should drop leading slash",
			args:        "/sendmessage",
			want:        "sendmessage",
		},
		{
			description: "should lowercase",
			args:        " SendMessage ",
			want:        "sendmessage",
		},
		{
			description: "empty on no input",
			args:        "",
			want:        "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			got := ParseCommand(testCase.args)

			assert.Equal(t, testCase.want, got)
		})
	}
}
