package voice

import (
	"context"
	"errors"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
)

// Playback has this long to wind down after being stopped
const stopTimeout = 10 * time.Second

var errStopTimeout = errors.New("timed out waiting for playback to stop")

// Transport establishes voice connections
type Transport interface {
	Connect(ctx context.Context, gid discord.GuildID, ch discord.ChannelID) (Connection, error)
}

// Connection is a single joined voice channel. Play streams the file
// asynchronously and calls done exactly once, from another goroutine,
// when streaming stops for any reason. Nothing holding a lock the
// manager needs may wait on done.
//
// Stop returns once the connection is ready to Play again.
type Connection interface {
	Channel() discord.ChannelID
	Play(path string, done func(error)) error
	Stop() error
	Playing() bool
	Disconnect(ctx context.Context) error
}

// waitFinished blocks until the playback goroutine has closed finished,
// it is closed before done is called so this never waits on the manager
func waitFinished(finished <-chan struct{}, timeout time.Duration) error {
	if finished == nil {
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-finished:
		return nil
	case <-t.C:
		return errStopTimeout
	}
}
