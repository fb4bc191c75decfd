// Package lava plays local files through a lavalink node
package lava

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DisgoOrg/disgolink/lavalink"
	simpleLog "github.com/DisgoOrg/log"
	"github.com/DisgoOrg/snowflake"
	"github.com/diamondburned/arikawa/v3/discord"
	"golang.org/x/time/rate"

	"jukebox/internal/log"
)

var (
	ErrNoPlayer       = errors.New("no player exists")
	ErrNoRestClient   = errors.New("no rest client available")
	ErrNoNode         = errors.New("node doesn't exist")
	ErrTrackNotLoaded = errors.New("lavalink could not load the file")
)

type Lava struct {
	l  lavalink.Lavalink
	rl *rate.Limiter
}

func NewLava(ctx context.Context, conf Config) (*Lava, error) {
	custL := simpleLog.Default()
	custL.SetLevel(simpleLog.LevelFatal)
	l := lavalink.New(
		lavalink.WithLogger(custL),
		lavalink.WithUserID(snowflake.Snowflake(conf.AppID.String())),
	)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	node, err := l.AddNode(ctx, lavalink.NodeConfig{
		Name:     "jukebox",
		Host:     conf.Host,
		Port:     conf.Port,
		Password: conf.Pass,
		Secure:   false,
	})
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("node could not be added")
	}

	return &Lava{
		l:  l,
		rl: rate.NewLimiter(50, 1),
	}, nil
}

// Load resolves a file on the lavalink host into a track, the
// node must have its local source enabled
func (l *Lava) Load(ctx context.Context, path string) (lavalink.AudioTrack, error) {
	rc := l.l.BestRestClient()
	if rc == nil {
		return nil, ErrNoRestClient
	}
	if err := l.rl.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := rc.LoadItem(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if resp.Exception != nil {
		return nil, fmt.Errorf("resp has friendly exception: %w", resp.Exception)
	}
	if resp.LoadType != lavalink.LoadTypeTrackLoaded || len(resp.Tracks) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrTrackNotLoaded, path, resp.LoadType)
	}

	t, err := l.l.DecodeTrack(resp.Tracks[0].Track)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("title", t.Info().Title).Dur("length", ParseDuration(t.Info().Length)).Msg("loaded track")
	return t, nil
}

func (l *Lava) EnsurePlayerExists(guildID discord.GuildID) {
	l.l.Player(snowflake.Snowflake(guildID.String()))
}

// Play blocks until the track ends or the context is done
func (l *Lava) Play(ctx context.Context, guildID discord.GuildID, t lavalink.AudioTrack) (CloseEvent, error) {
	n := l.l.BestNode()
	if n == nil {
		return CloseEvent{Type: TrackEnd}, ErrNoNode
	}

	p := l.l.Player(snowflake.Snowflake(guildID.String()))
	if p == nil {
		return CloseEvent{Type: TrackEnd}, ErrNoPlayer
	}

	listener := newCloseListener()
	p.AddListener(listener)
	defer p.RemoveListener(listener)

	t.SetPosition(0)
	err := p.Play(t)
	if err != nil {
		return CloseEvent{Type: TrackEnd}, err
	}

	ce := CloseEvent{Type: TrackEnd, Reason: "context done"}
	select {
	case <-ctx.Done():
	case e := <-listener.quit:
		ce = e
	}

	return ce, p.Stop()
}

func (l *Lava) Close(guildID discord.GuildID) error {
	p := l.l.ExistingPlayer(snowflake.Snowflake(guildID.String()))
	if p == nil {
		return nil
	}

	if p.Node().Status() != lavalink.Connected {
		return nil
	}
	return p.Destroy()
}

// Shutdown closes the connections to every node
func (l *Lava) Shutdown() {
	l.l.Close()
}

func (l *Lava) VoiceServerUpdate(vsu lavalink.VoiceServerUpdate) {
	l.l.VoiceServerUpdate(vsu)
}

func (l *Lava) VoiceStateUpdate(vsu lavalink.VoiceStateUpdate) {
	l.l.VoiceStateUpdate(vsu)
}
