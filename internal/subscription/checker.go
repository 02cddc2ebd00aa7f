// Package subscription verifies membership in the required channels.
package subscription

import (
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"marathon-bot/internal/config"
)

// MembershipAPI is the slice of the telebot client the checker needs.
type MembershipAPI interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// Checker decides whether a user is subscribed to every required channel.
type Checker struct {
	api      MembershipAPI
	channels []config.Channel
}

// NewChecker creates a Checker for the configured required channels.
func NewChecker(api MembershipAPI, channels config.ChannelsConfig) *Checker {
	return &Checker{
		api:      api,
		channels: channels.Required(),
	}
}

// IsSubscribed reports whether the user is a member of all required
// channels. A failed lookup counts that channel as not subscribed but
// the remaining channels are still checked.
//
// If any channel ID is unconfigured, verification is skipped entirely
// and every user passes. That mode exists for development and is loud
// on purpose.
func (c *Checker) IsSubscribed(userID int64) bool {
	for _, ch := range c.channels {
		if ch.ID == 0 {
			log.Warn().
				Str("channel", ch.Name).
				Msg("Channel IDs are not configured, skipping subscription check")
			return true
		}
	}

	result := true
	for _, ch := range c.channels {
		member, err := c.api.ChatMemberOf(tele.ChatID(ch.ID), tele.ChatID(userID))
		if err != nil {
			// fail closed for this channel, keep checking the rest
			log.Error().
				Str("channel", ch.Name).
				Int64("channel_id", ch.ID).
				Int64("user_id", userID).
				Err(err).
				Msg("Failed to check channel membership")
			result = false
			continue
		}

		if !isMemberRole(member.Role) {
			log.Debug().
				Str("channel", ch.Name).
				Int64("user_id", userID).
				Str("role", string(member.Role)).
				Msg("User is not subscribed to channel")
			result = false
		}
	}

	return result
}

// isMemberRole reports whether the chat member role counts as subscribed.
func isMemberRole(role tele.MemberStatus) bool {
	switch role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true
	default:
		return false
	}
}
