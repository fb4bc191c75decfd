package voice

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/DisgoOrg/disgolink/lavalink"
	"github.com/DisgoOrg/snowflake"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/rs/zerolog"

	"jukebox/internal/log"
	"jukebox/pkg/lava"
)

const loadTimeout = 30 * time.Second

// LavalinkTransport joins voice through the gateway and lets a
// lavalink node stream the audio
type LavalinkTransport struct {
	state *state.State
	lava  *lava.Lava
}

func NewLavalinkTransport(s *state.State, l *lava.Lava) *LavalinkTransport {
	t := &LavalinkTransport{state: s, lava: l}

	s.AddHandler(func(e *gateway.VoiceStateUpdateEvent) {
		// Lavalink only cares about the bot's own voice state
		me, err := s.Me()
		if err != nil || e.UserID != me.ID {
			return
		}

		var chID *snowflake.Snowflake
		if e.ChannelID.IsValid() {
			id := snowflake.Snowflake(e.ChannelID.String())
			chID = &id
		}
		l.VoiceStateUpdate(lavalink.VoiceStateUpdate{
			GuildID:   snowflake.Snowflake(e.GuildID.String()),
			ChannelID: chID,
			SessionID: e.SessionID,
		})
	})
	s.AddHandler(func(e *gateway.VoiceServerUpdateEvent) {
		l.VoiceServerUpdate(lavalink.VoiceServerUpdate{
			Token:    e.Token,
			GuildID:  snowflake.Snowflake(e.GuildID.String()),
			Endpoint: &e.Endpoint,
		})
	})

	return t
}

func (t *LavalinkTransport) Connect(ctx context.Context, gid discord.GuildID, ch discord.ChannelID) (Connection, error) {
	t.lava.EnsurePlayerExists(gid)

	err := t.state.Gateway().Send(ctx, &gateway.UpdateVoiceStateCommand{
		GuildID:   gid,
		ChannelID: ch,
		SelfMute:  false,
		SelfDeaf:  true,
	})
	if err != nil {
		return nil, err
	}

	return &lavaConn{
		transport: t,
		gid:       gid,
		channel:   ch,
		log:       log.With().Uint64("gid", uint64(gid)).Str("transport", "lavalink").Logger(),
	}, nil
}

type lavaConn struct {
	mu        sync.Mutex
	transport *LavalinkTransport
	gid       discord.GuildID
	channel   discord.ChannelID
	log       zerolog.Logger
	cancel    context.CancelFunc
	finished  chan struct{}
}

func (c *lavaConn) Channel() discord.ChannelID {
	return c.channel
}

func (c *lavaConn) Play(path string, done func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing() {
		return ErrAlreadyPlaying
	}

	// The lavalink local source wants absolute paths
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), loadTimeout)
	defer cancelLoad()
	track, err := c.transport.lava.Load(loadCtx, abs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	c.cancel, c.finished = cancel, finished

	go func() {
		ce, err := c.transport.lava.Play(ctx, c.gid, track)
		c.log.Debug().Err(err).Str("event_type", ce.Type.String()).Str("reason", ce.Reason).Msg("track done")
		stopped := ctx.Err() != nil
		cancel()
		close(finished)

		if stopped {
			done(nil)
			return
		}
		if err == nil {
			err = ce.Err()
		}
		done(err)
	}()
	return nil
}

func (c *lavaConn) Stop() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	finished := c.finished
	c.mu.Unlock()

	return waitFinished(finished, stopTimeout)
}

func (c *lavaConn) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing()
}

func (c *lavaConn) playing() bool {
	if c.finished == nil {
		return false
	}
	select {
	case <-c.finished:
		return false
	default:
		return true
	}
}

func (c *lavaConn) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	finished := c.finished
	c.mu.Unlock()

	if finished != nil {
		select {
		case <-finished:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Clear the player
	if err := c.transport.lava.Close(c.gid); err != nil {
		c.log.Error().Err(err).Msg("error closing lava")
	}

	// Leave the server
	return c.transport.state.Gateway().Send(ctx, &gateway.UpdateVoiceStateCommand{
		GuildID:   c.gid,
		ChannelID: discord.ChannelID(discord.NullSnowflake),
		SelfMute:  true,
		SelfDeaf:  true,
	})
}
