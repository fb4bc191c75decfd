package voice

import (
	"github.com/diamondburned/arikawa/v3/discord"
)

type SessionContext struct {
	// Guild where the command was sent
	GID discord.GuildID
	// Voice channel the user is in
	Voice discord.ChannelID
	// Text channel the command was typed in
	Text discord.ChannelID
	// User who sent the command
	User discord.User
}

// Locator finds the voice channel a user is connected to,
// *state.State implements it
type Locator interface {
	VoiceState(gid discord.GuildID, uid discord.UserID) (*discord.VoiceState, error)
}

func CreateContext(l Locator, gid discord.GuildID, text discord.ChannelID, user discord.User) (SessionContext, error) {
	// We use the state to get the voice channel the user is in
	// which also ensures they are in a voice channel
	vs, err := l.VoiceState(gid, user.ID)
	if err != nil || vs == nil || !vs.ChannelID.IsValid() {
		return SessionContext{}, ErrNotInVoice
	}

	return SessionContext{
		GID:   gid,
		Voice: vs.ChannelID,
		Text:  text,
		User:  user,
	}, nil
}
