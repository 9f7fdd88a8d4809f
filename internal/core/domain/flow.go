package domain

import (
	"fmt"
	"strings"
	"time"
)

type Stage int

const (
	AwaitingChannel Stage = iota
	AwaitingForm
	AwaitingRoles
	Completed
	Aborted
)

func (s Stage) String() string {
	switch s {
	case AwaitingChannel:
		return "awaiting_channel"
	case AwaitingForm:
		return "awaiting_form"
	case AwaitingRoles:
		return "awaiting_roles"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

func (s Stage) IsTerminal() bool {
	return s == Completed || s == Aborted
}

// FlowHandle is the opaque token identifying one flow across callbacks.
type FlowHandle string

// FlowState is a snapshot of one announcement flow.
type FlowState struct {
	Handle            FlowHandle
	InvokingUser      string
	GuildID           string
	CandidateChannels []ChannelDescriptor
	SelectedChannelID string
	Title             string
	Body              string
	CandidateRoles    []RoleDescriptor
	SelectedRoleIDs   []string
	Stage             Stage
	AbortReason       error
	StartedAt         time.Time
}

func (f *FlowState) HasChannel(id string) bool {
	for _, c := range f.CandidateChannels {
		if c.ID == id {
			return true
		}
	}

	return false
}

func (f *FlowState) ChannelName(id string) string {
	for _, c := range f.CandidateChannels {
		if c.ID == id {
			return c.Name
		}
	}

	return ""
}

func (f *FlowState) HasRole(id string) bool {
	for _, r := range f.CandidateRoles {
		if r.ID == id {
			return true
		}
	}

	return false
}

// Option is a single label/value entry of a select prompt.
type Option struct {
	Label       string
	Value       string
	Description string
}

// SelectPrompt declares a select menu; the gateway decides how to draw it.
type SelectPrompt struct {
	CustomID    string
	Content     string
	Placeholder string
	Options     []Option
	MinValues   int
	MaxValues   int
}

type FormField struct {
	CustomID  string
	Label     string
	Multiline bool
	Required  bool
	MaxLength int
}

type Form struct {
	CustomID string
	Title    string
	Fields   []FormField
}

type ActionStyle int

const (
	ActionPrimary ActionStyle = iota
	ActionSecondary
)

type Action struct {
	CustomID string
	Label    string
	Style    ActionStyle
}

// RolePrompt is the role multi-select plus its send and skip actions.
type RolePrompt struct {
	Select  SelectPrompt
	Actions []Action
}

// NoRolesValue is the informational entry rendered when a guild has no assignable roles.
const NoRolesValue = "no_roles"

const (
	FieldTitle = "title"
	FieldBody  = "body"
)

// Step names the flow callback a component belongs to.
type Step string

const (
	StepChannel Step = "channel"
	StepForm    Step = "form"
	StepRoles   Step = "roles"
	StepSend    Step = "send"
	StepSkip    Step = "skip"
)

// CustomIDPrefix marks components owned by the announcement flow.
const CustomIDPrefix = "announce"

const customIDSeparator = ":"

// CustomID threads the flow handle through a rendered component.
func CustomID(step Step, handle FlowHandle) string {
	return strings.Join([]string{CustomIDPrefix, string(step), string(handle)}, customIDSeparator)
}

// ParseCustomID is the inverse of CustomID.
func ParseCustomID(id string) (Step, FlowHandle, error) {
	parts := strings.Split(id, customIDSeparator)
	if len(parts) != 3 || parts[0] != CustomIDPrefix || parts[2] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedCustomID, id)
	}

	step := Step(parts[1])
	switch step {
	case StepChannel, StepForm, StepRoles, StepSend, StepSkip:
	default:
		return "", "", fmt.Errorf("%w: unknown step %q", ErrMalformedCustomID, parts[1])
	}

	return step, FlowHandle(parts[2]), nil
}

func IsFlowCustomID(id string) bool {
	return strings.HasPrefix(id, CustomIDPrefix+customIDSeparator)
}
