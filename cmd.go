package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"jukebox/internal/config"
	"jukebox/internal/log"
	"jukebox/internal/pretty"
	"jukebox/pkg/catalog"
	"jukebox/pkg/ffmpeg"
	"jukebox/pkg/keepalive"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the keep-alive website without the bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadOptional()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		srv := keepalive.New(keepalive.Options{
			Catalog: catalog.New(conf.MusicDir),
			FFmpeg: func(ctx context.Context) bool {
				return ffmpeg.Available(ctx, conf.FFmpegPath)
			},
			TokenConfigured: conf.Token != "",
			Prefix:          conf.Prefix,
		})
		log.Info().Str("addr", conf.Addr()).Msg("serving keep-alive website")
		return srv.ListenAndServe(ctx, conf.Addr())
	},
}

var ffmpegCmd = &cobra.Command{
	Use:   "ffmpeg",
	Short: "Check or install ffmpeg",
}

var ffmpegCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Print the installed ffmpeg version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadOptional()
		if err != nil {
			return err
		}

		v, err := ffmpeg.Version(cmd.Context(), conf.FFmpegPath)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var ffmpegInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install ffmpeg using whatever the host supports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ffmpeg.Detect()
		log.Info().Stringer("platform", p).Msg("installing ffmpeg")

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		res, err := ffmpeg.NewInstaller(p).Install(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("ffmpeg installed with %s\n", res.Method)
		if res.RestartRequired {
			fmt.Println("restart the host for ffmpeg to become available")
		}
		return nil
	},
}

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the music library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadOptional()
		if err != nil {
			return err
		}

		cat := catalog.New(conf.MusicDir)
		if !cat.Exists() {
			return fmt.Errorf("music folder %s does not exist", cat.Dir())
		}
		files := cat.List()

		if listJSON {
			return pretty.Print(os.Stdout, files)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Name", "Size", "Length", "Modified"})
		for _, f := range files {
			length := text.FgHiBlack.Sprint("?")
			if d, err := catalog.Duration(f); err == nil {
				length = pretty.Duration(d)
			} else {
				log.Debug().Err(err).Str("file", f.Name).Msg("could not read duration")
			}
			t.AppendRow(table.Row{f.Name, pretty.Size(f.Size), length, f.ModTime.Format("02/01/2006 15:04")})
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d files", len(files))})
		t.Render()
		return nil
	},
}

func init() {
	ffmpegCmd.AddCommand(ffmpegCheckCmd, ffmpegInstallCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the files as JSON")
}

func loadOptional() (config.Config, error) {
	conf, err := config.LoadOptional()
	if err != nil {
		return config.Config{}, err
	}
	if err := applyFlags(&conf); err != nil {
		return config.Config{}, err
	}
	return conf, nil
}

