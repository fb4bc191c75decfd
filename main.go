package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"jukebox/internal/config"
	"jukebox/internal/log"
	"jukebox/pkg/jukebox"
)

var (
	flagMusicDir  string
	flagPrefix    string
	flagTransport string
	flagPort      int
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "jukebox",
	Short: "Jukebox plays local MP3 files in discord voice channels",
	Long: `Jukebox is a discord bot which plays MP3 files from a local folder
into voice channels. It also serves a small keep-alive website.`,
	SilenceUsage: true,
	RunE:         runBot,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagMusicDir, "music-dir", "", "folder containing the MP3 files (overrides $MUSIC_DIR)")
	pf.IntVar(&flagPort, "port", 0, "keep-alive server port (overrides $PORT)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (overrides $LOG_LEVEL)")

	f := rootCmd.Flags()
	f.StringVar(&flagPrefix, "prefix", "", "command prefix (overrides $COMMAND_PREFIX)")
	f.StringVar(&flagTransport, "transport", "", "voice transport, ffmpeg or lavalink (overrides $VOICE_TRANSPORT)")

	rootCmd.AddCommand(serveCmd, ffmpegCmd, listCmd)
}

// applyFlags overrides the environment config with any flags given
func applyFlags(c *config.Config) error {
	if flagMusicDir != "" {
		c.MusicDir = flagMusicDir
	}
	if flagPrefix != "" {
		c.Prefix = flagPrefix
	}
	if flagTransport != "" {
		c.Transport = flagTransport
	}
	if flagPort != 0 {
		c.Port = flagPort
	}
	if flagLogLevel != "" {
		c.LogLevel = flagLogLevel
	}

	if err := log.SetLevel(c.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", c.LogLevel).Msg("invalid log level")
	}
	return c.Validate()
}

func runBot(cmd *cobra.Command, args []string) error {
	conf, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid config, is $DISCORD_TOKEN set?")
	}
	if err := applyFlags(&conf); err != nil {
		return err
	}

	log.Info().Str("music_dir", conf.MusicDir).Str("transport", conf.Transport).
		Str("addr", conf.Addr()).Msg("starting bot")
	return jukebox.Run(cmd.Context(), conf)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}
