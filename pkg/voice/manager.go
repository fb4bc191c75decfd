package voice

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"

	"jukebox/internal/log"
)

const DefaultJoinTimeout = 60 * time.Second

type completion struct {
	gid        discord.GuildID
	generation uint64
	err        error
}

// Manager owns one voice session per guild, every session
// holds at most one connection and plays at most one file
type Manager struct {
	// Mutex only guards the map, each session has its own
	mu          sync.Mutex
	sessions    map[discord.GuildID]*session
	transport   Transport
	joinTimeout time.Duration
	// Playback completions are applied by a single goroutine
	completions chan completion
	// abort - closed when the manager is closing
	// done  - closed when the completion goroutine exits
	abort, done chan struct{}
	closeOnce   sync.Once
}

func NewManager(t Transport, joinTimeout time.Duration) *Manager {
	if joinTimeout <= 0 {
		joinTimeout = DefaultJoinTimeout
	}

	m := &Manager{
		sessions:    make(map[discord.GuildID]*session),
		transport:   t,
		joinTimeout: joinTimeout,
		completions: make(chan completion),
		abort:       make(chan struct{}),
		done:        make(chan struct{}),
	}
	go m.processCompletions()
	return m
}

// Public

// Join connects to the voice channel in the context, moving
// from the current channel if the session is elsewhere
func (m *Manager) Join(ctx context.Context, sc SessionContext) (JoinResult, error) {
	if m.closed() {
		return Joined, ErrClosed
	}

	s := m.session(sc.GID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil && s.channel == sc.Voice {
		return AlreadyConnected, nil
	}

	res := Joined
	if s.conn != nil {
		res = Moved
		if err := s.teardown(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to leave previous channel")
		}
	}

	timeout, cancel := context.WithTimeout(ctx, m.joinTimeout)
	defer cancel()

	s.log.Debug().Interface("channel", sc.Voice).Str("result", res.String()).Msg("joining voice")
	conn, err := m.transport.Connect(timeout, sc.GID, sc.Voice)
	if err != nil {
		s.reset()
		return res, &ConnectionError{Op: "join", Channel: sc.Voice, Err: err}
	}

	s.conn = conn
	s.channel = sc.Voice
	s.setIdle()
	return res, nil
}

// Leave disconnects from the guild's voice channel. The session is
// disconnected afterwards even if the transport returns an error.
func (m *Manager) Leave(ctx context.Context, gid discord.GuildID) error {
	s := m.existing(gid)
	if s == nil {
		return ErrNotConnected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotConnected
	}

	timeout, cancel := context.WithTimeout(ctx, m.joinTimeout)
	defer cancel()

	err := s.teardown(timeout)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to disconnect cleanly")
	}
	return err
}

// Play starts streaming the file at path, it returns once
// playback has started
func (m *Manager) Play(gid discord.GuildID, path string) error {
	s := m.existing(gid)
	if s == nil {
		return ErrNotConnected
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.play(path, m.completer(gid))
}

// Stop halts playback, the session is idle once it returns
func (m *Manager) Stop(gid discord.GuildID) error {
	s := m.existing(gid)
	if s == nil {
		return ErrNotPlaying
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop()
}

// Replace plays the file, stopping whatever is playing first
func (m *Manager) Replace(gid discord.GuildID, path string) error {
	s := m.existing(gid)
	if s == nil {
		return ErrNotConnected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotConnected
	}
	if s.playing {
		s.stop()
	}
	return s.play(path, m.completer(gid))
}

func (m *Manager) Status(gid discord.GuildID) SessionStatus {
	s := m.existing(gid)
	if s == nil {
		return SessionStatus{GID: gid, State: Disconnected}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

// Snapshot returns the status of every session, ordered by guild
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	snap := Snapshot{Sessions: make([]SessionStatus, 0, len(sessions))}
	for _, s := range sessions {
		s.mu.Lock()
		snap.Sessions = append(snap.Sessions, s.status())
		s.mu.Unlock()
	}
	sort.Slice(snap.Sessions, func(i, j int) bool {
		return snap.Sessions[i].GID < snap.Sessions[j].GID
	})
	return snap
}

// Close leaves every voice channel and stops processing completions
func (m *Manager) Close(ctx context.Context) error {
	var err error
	m.closeOnce.Do(func() {
		close(m.abort)
		<-m.done

		m.mu.Lock()
		sessions := make([]*session, 0, len(m.sessions))
		for _, s := range m.sessions {
			sessions = append(sessions, s)
		}
		m.mu.Unlock()

		for _, s := range sessions {
			s.mu.Lock()
			if s.conn != nil {
				if leaveErr := s.teardown(ctx); leaveErr != nil {
					s.log.Error().Err(leaveErr).Msg("failed to leave voice on close")
					err = leaveErr
				}
			}
			s.mu.Unlock()
		}
	})
	return err
}

// Private

func (m *Manager) session(gid discord.GuildID) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[gid]
	if !ok {
		s = newSession(gid)
		m.sessions[gid] = s
	}
	return s
}

func (m *Manager) existing(gid discord.GuildID) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[gid]
}

func (m *Manager) closed() bool {
	select {
	case <-m.abort:
		return true
	default:
		return false
	}
}

// completer returns the callback given to the transport, it only
// hands the result over to the completion goroutine
func (m *Manager) completer(gid discord.GuildID) func(uint64, error) {
	return func(gen uint64, err error) {
		select {
		case m.completions <- completion{gid: gid, generation: gen, err: err}:
		case <-m.abort:
		}
	}
}

func (m *Manager) processCompletions() {
	defer close(m.done)

	for {
		select {
		case c := <-m.completions:
			s := m.existing(c.gid)
			if s == nil {
				log.Warn().Uint64("gid", uint64(c.gid)).Msg("completion for unknown session")
				continue
			}
			s.mu.Lock()
			s.complete(c.generation, c.err)
			s.mu.Unlock()
		case <-m.abort:
			return
		}
	}
}
