package port

import (
	"announcebot/internal/core/domain"
	"context"
	"time"
)

type Command interface {
	// Respond processes an invocation of the command within a specified timeout and answers the originating
	// interaction.
	Respond(ctx context.Context, timeout time.Duration, interaction *domain.Interaction) error
	// GetCommand retrieves the command identifier associated with a specific command handler.
	GetCommand() string
	// GetDescription returns the help text shown by the platform next to the command.
	GetDescription() string
}

type CommandRegistry interface {
	// Register adds a new command handler to the command registry.
	Register(handler Command)
	// Get retrieves a registered Command based on its string identifier or returns an error if not found.
	Get(command string) (Command, error)
	// ListCommands returns a list of all command identifiers currently registered in the command registry.
	ListCommands() []string
}
