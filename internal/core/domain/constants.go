package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrNotInGuild          = errors.New("command invoked outside of a guild")
	ErrNoEligibleChannels  = errors.New("no channels the bot can send to")
	ErrValidation          = errors.New("invalid input")
	ErrStaleInteraction    = errors.New("stale interaction")
	ErrPermissionDenied    = errors.New("missing permission to send to channel")
	ErrDeliveryFailed      = errors.New("failed to deliver message")
	ErrTimedOut            = errors.New("flow timed out")
	ErrUnauthorized        = errors.New("invoker not authorized")
	ErrForbidden           = errors.New("forbidden by platform")
	ErrSendingReplyFailed  = errors.New("failed to send reply")
	ErrUnknownInteraction  = errors.New("unknown interaction")
	ErrMalformedCustomID   = errors.New("malformed component id")
	ErrRegistryNotReady    = errors.New("can't fetch command, registry not initialized")
	ErrCommandNotFound     = errors.New("command not found")
	ErrGatewayNotConnected = errors.New("gateway not connected")
)

const (
	// MaxTitleLength is the embed title limit.
	MaxTitleLength = 256
	// MaxBodyLength is the text input limit for modal fields, below the embed description limit.
	MaxBodyLength = 4000
	// MaxSelectOptions is the number of entries a select prompt can hold.
	MaxSelectOptions = 25
)

// ValidationError rejects user input for one field.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DeliveryError carries the transport cause of a failed send.
type DeliveryError struct {
	ChannelID string
	Cause     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering to channel %s: %v", e.ChannelID, e.Cause)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

func (e *DeliveryError) Is(target error) bool {
	return target == ErrDeliveryFailed
}

// Summary is the part of the cause safe to show to a user.
func (e *DeliveryError) Summary() string {
	if e.Cause == nil {
		return "unknown error"
	}

	msg := e.Cause.Error()
	if len(msg) <= summaryLength {
		return msg
	}

	cut := summaryLength
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}

	return msg[:cut] + "…"
}

const summaryLength = 200

// IsTerminal reports whether err ended a flow. The flow's prompt has already been concluded
// when such an error is returned.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrDeliveryFailed) ||
		errors.Is(err, ErrTimedOut)
}

// UserMessage maps an error to the short private text shown to the invoking user.
func UserMessage(err error) string {
	var deliveryErr *DeliveryError
	var validationErr *ValidationError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInGuild):
		return "This command can only be used in a server."
	case errors.Is(err, ErrNoEligibleChannels):
		return "I don't have permission to send messages in any channel, or no text channels exist."
	case errors.Is(err, ErrUnauthorized):
		return "You are not allowed to use this command."
	case errors.As(err, &validationErr):
		return fmt.Sprintf("The %s %s. Please try again.", validationErr.Field, validationErr.Reason)
	case errors.Is(err, ErrValidation):
		return "That input is not valid. Please try again."
	case errors.Is(err, ErrStaleInteraction):
		return "This prompt is no longer active. Run the command again to start over."
	case errors.Is(err, ErrPermissionDenied):
		return "Error: I don't have permission to send messages to that channel."
	case errors.As(err, &deliveryErr):
		return "An unexpected error occurred: " + deliveryErr.Summary()
	case errors.Is(err, ErrTimedOut):
		return "This announcement timed out. Run the command again to start over."
	default:
		return "Something went wrong, please try again."
	}
}
