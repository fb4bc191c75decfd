package voice

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/rs/zerolog"

	"jukebox/internal/log"
)

type session struct {
	// Mutex serialises every operation on the session, an
	// operation holds it for its whole duration, including
	// waiting on the transport
	mu sync.Mutex
	// Guild the session belongs to
	gid discord.GuildID
	// The current connection, nil when disconnected
	conn Connection
	// Channel the connection was made to
	channel discord.ChannelID
	// Whether audio is playing and the name of the file
	playing bool
	file    string
	since   time.Time
	// Incremented on every play so completions of
	// older tracks can be recognised
	generation uint64
	// Specific log for this session
	log zerolog.Logger
}

func newSession(gid discord.GuildID) *session {
	return &session{
		gid:   gid,
		since: time.Now(),
		log:   log.With().Uint64("gid", uint64(gid)).Logger(),
	}
}

// Internal, the caller must hold the mutex

func (s *session) state() State {
	switch {
	case s.conn == nil:
		return Disconnected
	case s.playing:
		return ConnectedPlaying
	default:
		return ConnectedIdle
	}
}

func (s *session) status() SessionStatus {
	return SessionStatus{
		GID:     s.gid,
		Channel: s.channel,
		State:   s.state(),
		File:    s.file,
		Since:   s.since,
	}
}

func (s *session) setIdle() {
	s.playing = false
	s.file = ""
	s.since = time.Now()
}

func (s *session) reset() {
	s.conn = nil
	s.channel = discord.NullChannelID
	s.setIdle()
}

// teardown stops any playback and disconnects, the session is
// reset even if disconnecting fails
func (s *session) teardown(ctx context.Context) error {
	conn, ch := s.conn, s.channel
	if s.playing {
		if err := conn.Stop(); err != nil {
			s.log.Warn().Err(err).Msg("failed to stop playback before disconnecting")
		}
	}
	s.reset()

	s.log.Debug().Interface("channel", ch).Msg("disconnecting")
	if err := conn.Disconnect(ctx); err != nil {
		return &ConnectionError{Op: "leave", Channel: ch, Err: err}
	}
	return nil
}

func (s *session) play(path string, done func(uint64, error)) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	if s.playing {
		return ErrAlreadyPlaying
	}

	s.generation++
	gen := s.generation
	err := s.conn.Play(path, func(err error) {
		done(gen, err)
	})
	if err != nil {
		return fmt.Errorf("failed to play %s: %w", filepath.Base(path), err)
	}

	s.playing = true
	s.file = filepath.Base(path)
	s.since = time.Now()
	s.log.Debug().Str("file", s.file).Uint64("generation", gen).Msg("playing file")
	return nil
}

func (s *session) stop() error {
	if !s.playing {
		return ErrNotPlaying
	}

	s.log.Debug().Str("file", s.file).Msg("stopping playback")
	s.setIdle()
	if err := s.conn.Stop(); err != nil {
		s.log.Warn().Err(err).Msg("transport failed to stop")
	}
	return nil
}

// complete applies a finished playback if it belongs to
// the current generation
func (s *session) complete(gen uint64, err error) {
	if gen != s.generation || !s.playing {
		s.log.Debug().Uint64("generation", gen).Uint64("current", s.generation).Msg("ignoring stale completion")
		return
	}

	if err != nil {
		s.log.Error().Err(err).Str("file", s.file).Msg("playback failed")
	} else {
		s.log.Debug().Str("file", s.file).Msg("playback finished")
	}
	s.setIdle()
}
