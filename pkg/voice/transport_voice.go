package voice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/voice"
	"github.com/rs/zerolog"

	"jukebox/internal/log"
	"jukebox/pkg/ffmpeg"
	"jukebox/pkg/ogg"
)

// VoiceTransport sends audio over discord's voice UDP connection,
// files are encoded to opus by ffmpeg
type VoiceTransport struct {
	state   *state.State
	encoder ffmpeg.Encoder
}

func NewVoiceTransport(s *state.State, enc ffmpeg.Encoder) *VoiceTransport {
	voice.AddIntents(s)
	return &VoiceTransport{state: s, encoder: enc}
}

func (t *VoiceTransport) Connect(ctx context.Context, gid discord.GuildID, ch discord.ChannelID) (Connection, error) {
	v, err := voice.NewSession(t.state)
	if err != nil {
		return nil, fmt.Errorf("cannot create voice session: %w", err)
	}

	if err := v.JoinChannelAndSpeak(ctx, ch, false, true); err != nil {
		// Make sure discord doesn't think we're still joining
		if leaveErr := v.Leave(context.Background()); leaveErr != nil {
			log.Debug().Err(leaveErr).Msg("failed to leave after join failure")
		}
		return nil, err
	}

	return &voiceConn{
		session: v,
		encoder: t.encoder,
		channel: ch,
		log:     log.With().Uint64("gid", uint64(gid)).Str("transport", "ffmpeg").Logger(),
	}, nil
}

type voiceConn struct {
	mu      sync.Mutex
	session *voice.Session
	encoder ffmpeg.Encoder
	channel discord.ChannelID
	log     zerolog.Logger
	// Cancels the piping of audio to the voice session
	cancel context.CancelFunc
	// Closed once the pipe goroutine stops writing
	finished chan struct{}
}

func (c *voiceConn) Channel() discord.ChannelID {
	return c.channel
}

func (c *voiceConn) Play(path string, done func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing() {
		return ErrAlreadyPlaying
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := c.encoder.Encode(ctx, path)
	if err != nil {
		cancel()
		return err
	}

	finished := make(chan struct{})
	c.cancel, c.finished = cancel, finished

	go func() {
		err := c.pipe(ctx, stream)
		cancel()
		close(finished)
		done(err)
	}()
	return nil
}

func (c *voiceConn) pipe(ctx context.Context, stream *ffmpeg.Stream) error {
	c.log.Debug().Msg("piping audio")
	dec := ogg.NewDecoder()
	decErr := dec.Decode(ctx, c.session, stream)
	waitErr := stream.Wait()
	c.log.Debug().Err(decErr).Dur("position", dec.Position()).Msg("audio pipe done")

	if ctx.Err() != nil {
		// We were stopped
		return nil
	}
	// Only return the error if the process wasn't killed manually by us
	// or due to the connection already being closed
	if decErr != nil && !isClosedConn(decErr) {
		return decErr
	}
	if waitErr != nil && !isSignalKilled(waitErr) {
		return waitErr
	}
	return nil
}

func (c *voiceConn) Stop() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	finished := c.finished
	c.mu.Unlock()

	return waitFinished(finished, stopTimeout)
}

func (c *voiceConn) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing()
}

func (c *voiceConn) playing() bool {
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

func (c *voiceConn) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	finished := c.finished
	c.mu.Unlock()

	// Wait for the pipe to stop writing before closing the session
	if finished != nil {
		select {
		case <-finished:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.session.Leave(ctx)
}

// Util

func isSignalKilled(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	return ok && status.Signaled() && status.Signal() == syscall.SIGKILL
}

func isClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection")
}
