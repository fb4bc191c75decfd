package jukebox

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"

	"jukebox/internal/config"
	"jukebox/internal/log"
	"jukebox/pkg/catalog"
	"jukebox/pkg/ffmpeg"
	"jukebox/pkg/keepalive"
	"jukebox/pkg/lava"
	"jukebox/pkg/voice"
)

const closeTimeout = 10 * time.Second

// Run starts the keep-alive server and the bot, it blocks until
// the process is interrupted
func Run(ctx context.Context, conf config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Music folder
	cat := catalog.New(conf.MusicDir)
	created, err := cat.Ensure()
	if err != nil {
		log.Error().Err(err).Str("dir", conf.MusicDir).Msg("could not create music folder")
	} else if created {
		log.Info().Str("dir", conf.MusicDir).Msg("created music folder")
	}

	// FFmpeg is only needed when we encode the audio ourselves
	if conf.Transport == config.TransportFFmpeg && conf.InstallFFmpeg {
		ffmpeg.EnsureInstalled(ctx, conf.FFmpegPath)
	}

	s := state.New("Bot " + conf.Token)

	// Ensure the overlaying discord application exists,
	// this fails early if the token is invalid
	app, err := s.CurrentApplication()
	if err != nil {
		return fmt.Errorf("invalid discord token: %w", err)
	}

	t, closeTransport, err := newTransport(ctx, s, conf, app.ID)
	if err != nil {
		return err
	}
	defer closeTransport()

	m := voice.NewManager(t, conf.JoinTimeout)
	c := newClient(s, &dispatcher{
		discord: s,
		manager: m,
		catalog: cat,
		prefix:  conf.Prefix,
	})

	// Start the keep-alive server in the background
	ka := keepalive.New(keepalive.Options{
		Catalog: cat,
		Voice:   m,
		Online:  c.Online,
		FFmpeg: func(ctx context.Context) bool {
			return ffmpeg.Available(ctx, conf.FFmpegPath)
		},
		TokenConfigured: conf.Token != "",
		Prefix:          conf.Prefix,
	})
	go func() {
		if err := ka.ListenAndServe(ctx, conf.Addr()); err != nil {
			log.Error().Err(err).Msg("keep-alive server stopped")
		}
	}()

	// Run the bot
	if err := s.Open(ctx); err != nil {
		return err
	}
	log.Info().Str("transport", conf.Transport).Msg("bot loading...")

	err = s.Gateway().Send(ctx, &gateway.UpdatePresenceCommand{
		Status: discord.OnlineStatus,
		Activities: []discord.Activity{{
			Name: conf.Prefix + "aide",
			Type: discord.ListeningActivity,
		}},
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not set presence")
	}

	log.Info().Str("user", app.Name).Msg("bot ready")
	<-ctx.Done() // block until Ctrl+C

	closeCtx, cancelClose := context.WithTimeout(context.Background(), closeTimeout)
	defer cancelClose()
	if err := m.Close(closeCtx); err != nil {
		log.Error().Err(err).Msg("failed to leave voice channels")
	}
	return s.Close()
}

func newTransport(ctx context.Context, s *state.State, conf config.Config, appID discord.AppID) (voice.Transport, func(), error) {
	switch conf.Transport {
	case config.TransportLavalink:
		l, err := lava.NewLava(ctx, lava.Config{
			Host:  conf.LavalinkHost,
			Port:  conf.LavalinkPort,
			Pass:  conf.LavalinkPass,
			AppID: appID,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to lavalink: %w", err)
		}
		return voice.NewLavalinkTransport(s, l), l.Shutdown, nil
	default:
		enc := ffmpeg.NewEncoder(conf.FFmpegPath)
		return voice.NewVoiceTransport(s, enc), func() {}, nil
	}
}
