package voice

import (
	"errors"
	"fmt"

	"github.com/diamondburned/arikawa/v3/discord"
)

var (
	ErrConnection     = errors.New("voice connection failed")
	ErrNotConnected   = errors.New("not connected to a voice channel")
	ErrAlreadyPlaying = errors.New("audio is already playing")
	ErrNotPlaying     = errors.New("no audio is playing")
	ErrNotInVoice     = errors.New("user is not in a voice channel")
	ErrClosed         = errors.New("voice manager is closed")
)

// ConnectionError is returned when the transport fails to join
// or leave a voice channel
type ConnectionError struct {
	Op      string
	Channel discord.ChannelID
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to %s voice channel %s: %v", e.Op, e.Channel, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Err}
}
