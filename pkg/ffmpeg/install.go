package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"jukebox/internal/log"
)

const (
	StaticURL = "https://johnvansickle.com/ffmpeg/builds/ffmpeg-git-amd64-static.tar.xz"

	nixConfig = `{ pkgs }: {
    deps = [
        pkgs.ffmpeg
    ];
}
`
)

var (
	ErrUnsupportedPlatform = errors.New("ffmpeg can only be installed on linux")
	ErrInstallFailed       = errors.New("all ffmpeg installation methods failed")
)

// Runner runs a command to completion
type Runner func(ctx context.Context, name string, args ...string) error

// Result describes a successful installation
type Result struct {
	Method string
	// The binary only becomes available after the host restarts
	RestartRequired bool
}

type strategy struct {
	name    string
	restart bool
	install func(ctx context.Context) error
}

// Installer tries each installation method for the platform
// in turn until one of them works
type Installer struct {
	Platform Platform
	GOOS     string
	// BinDir is where the static binary is installed, it is
	// prepended to $PATH
	BinDir string
	// StaticURL is the tar.xz archive containing a static build
	StaticURL string
	// NixConfig is the replit.nix file written as a last resort
	NixConfig string
	Run       Runner
	Client    *http.Client
}

func NewInstaller(p Platform) *Installer {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Installer{
		Platform:  p,
		GOOS:      runtime.GOOS,
		BinDir:    filepath.Join(home, "bin"),
		StaticURL: StaticURL,
		NixConfig: "replit.nix",
		Run:       run,
		Client:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// Install tries every method once, in order
func (i *Installer) Install(ctx context.Context) (Result, error) {
	if i.GOOS != "linux" {
		return Result{}, ErrUnsupportedPlatform
	}

	var errs []error
	for _, s := range i.strategies() {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		log.Info().Str("method", s.name).Str("platform", i.Platform.String()).Msg("attempting to install ffmpeg")
		err := s.install(ctx)
		if err != nil {
			log.Warn().Err(err).Str("method", s.name).Msg("ffmpeg installation method failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}

		log.Info().Str("method", s.name).Bool("restart_required", s.restart).Msg("ffmpeg installed")
		return Result{Method: s.name, RestartRequired: s.restart}, nil
	}

	return Result{}, errors.Join(append([]error{ErrInstallFailed}, errs...)...)
}

func (i *Installer) strategies() []strategy {
	if i.Platform == Render {
		return []strategy{
			{name: "apt-get", install: i.aptGet},
			{name: "static", install: i.static},
		}
	}

	s := []strategy{
		{name: "apt", install: i.apt},
		{name: "nix", install: i.nix},
		{name: "conda", install: i.conda},
		{name: "static", install: i.static},
	}
	if i.Platform == Replit {
		s = append(s, strategy{name: "replit.nix", restart: true, install: i.writeNixConfig})
	}
	return s
}

// Methods

func (i *Installer) apt(ctx context.Context) error {
	if err := i.Run(ctx, "apt", "update"); err != nil {
		return err
	}
	return i.Run(ctx, "apt", "install", "-y", "ffmpeg")
}

func (i *Installer) aptGet(ctx context.Context) error {
	if err := i.Run(ctx, "sudo", "apt-get", "update"); err != nil {
		return err
	}
	return i.Run(ctx, "sudo", "apt-get", "install", "-y", "ffmpeg")
}

func (i *Installer) nix(ctx context.Context) error {
	return i.Run(ctx, "nix-env", "-iA", "nixpkgs.ffmpeg")
}

func (i *Installer) conda(ctx context.Context) error {
	return i.Run(ctx, "conda", "install", "-c", "conda-forge", "ffmpeg", "-y")
}

func (i *Installer) static(ctx context.Context) error {
	path, err := i.downloadStatic(ctx)
	if err != nil {
		return err
	}
	log.Debug().Str("path", path).Msg("static ffmpeg extracted")
	return prependPath(i.BinDir)
}

func (i *Installer) writeNixConfig(context.Context) error {
	return os.WriteFile(i.NixConfig, []byte(nixConfig), 0o644)
}

// Util

func run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		log.Debug().Err(err).Str("cmd", name).Strs("args", args).Bytes("output", out).Msg("command failed")
		return err
	}
	return nil
}

func prependPath(dir string) error {
	current := os.Getenv("PATH")
	for _, p := range filepath.SplitList(current) {
		if p == dir {
			return nil
		}
	}
	if current == "" {
		return os.Setenv("PATH", dir)
	}
	return os.Setenv("PATH", dir+string(os.PathListSeparator)+current)
}

// EnsureInstalled installs ffmpeg if it isn't available yet. Failures
// are logged, the bot can still start without it.
func EnsureInstalled(ctx context.Context, bin string) bool {
	if v, err := Version(ctx, bin); err == nil {
		log.Info().Str("version", v).Msg("ffmpeg is already installed")
		return true
	}

	log.Warn().Msg("ffmpeg not found, installing...")
	res, err := NewInstaller(Detect()).Install(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not install ffmpeg, playback will fail")
		return false
	}
	if res.RestartRequired {
		log.Warn().Str("method", res.Method).Msg("ffmpeg will be available after a restart")
		return false
	}

	v, err := Version(ctx, bin)
	if err != nil {
		log.Warn().Err(err).Str("method", res.Method).Msg("ffmpeg installed but verification failed")
		return false
	}
	log.Info().Str("version", v).Msg("ffmpeg verified")
	return true
}
