package command

import (
	"announcebot/internal/core/domain"
	"announcebot/internal/core/port"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

type Registry struct {
	commands map[string]port.Command
}

func (r *Registry) Register(handler port.Command) {
	if r.commands == nil {
		r.commands = make(map[string]port.Command)
	}

	log.Info().Str("handler", handler.GetCommand()).Msg("adding command handler to registry")
	r.commands[ParseCommand(handler.GetCommand())] = handler
}

func (r *Registry) Get(command string) (port.Command, error) {
	log.Debug().Str("command", command).Msg("fetching command handler from registry")

	if r.commands == nil {
		return nil, domain.ErrRegistryNotReady
	}

	handler, ok := r.commands[ParseCommand(command)]
	if !ok {
		return nil, domain.ErrCommandNotFound
	}

	return handler, nil
}

func (r *Registry) ListCommands() []string {
	keys := make([]string, 0, len(r.commands))
	for k := range r.commands {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Specs returns the registration data for every registered command.
func (r *Registry) Specs() []domain.CommandSpec {
	specs := make([]domain.CommandSpec, 0, len(r.commands))
	for _, name := range r.ListCommands() {
		specs = append(specs, domain.CommandSpec{
			Name:        name,
			Description: r.commands[name].GetDescription(),
		})
	}

	return specs
}

// ParseCommand normalizes a command name as the platform reports it.
func ParseCommand(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}
