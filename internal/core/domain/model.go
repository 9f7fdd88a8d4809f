package domain

import (
	"fmt"
	"strings"
)

// Interaction is one inbound platform event addressed to the bot. ID and Token identify the
// interaction towards the gateway; everything else describes who triggered it and where.
type Interaction struct {
	ID          string
	AppID       string
	Token       string
	GuildID     string
	ChannelID   string
	UserID      string
	Username    string
	MemberRoles []string
}

type ChannelDescriptor struct {
	ID   string
	Name string
}

type RoleDescriptor struct {
	ID   string
	Name string
}

// Announcement is the rendered message delivered to the selected channel.
type Announcement struct {
	ChannelID string
	Title     string
	Body      string
	RoleIDs   []string
}

// MentionPrefix returns one role mention per role, space separated, or an empty string when
// no roles were chosen.
func (a Announcement) MentionPrefix() string {
	if len(a.RoleIDs) == 0 {
		return ""
	}

	mentions := make([]string, len(a.RoleIDs))
	for i, id := range a.RoleIDs {
		mentions[i] = RoleMention(id)
	}

	return strings.Join(mentions, " ")
}

type SendResult struct {
	ChannelID string
	MessageID string
}

// Confirmation is the text shown to the invoking user after a successful delivery.
func (r SendResult) Confirmation() string {
	return fmt.Sprintf("Message sent to %s!", ChannelMention(r.ChannelID))
}

// CommandSpec describes a slash command for registration with the platform.
type CommandSpec struct {
	Name        string
	Description string
}

func RoleMention(id string) string {
	return "<@&" + id + ">"
}

func ChannelMention(id string) string {
	return "<#" + id + ">"
}
