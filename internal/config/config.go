// Package config loads the bot configuration from the environment
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	TransportFFmpeg   = "ffmpeg"
	TransportLavalink = "lavalink"

	tokenKey = "DISCORD_TOKEN"
)

var ErrUnknownTransport = errors.New("unknown voice transport")

type Config struct {
	// Discord
	Token  string `env:"DISCORD_TOKEN,required,notEmpty"`
	Prefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	// Music library
	MusicDir string `env:"MUSIC_DIR" envDefault:"./music"`

	// Voice
	Transport   string        `env:"VOICE_TRANSPORT" envDefault:"ffmpeg"`
	JoinTimeout time.Duration `env:"JOIN_TIMEOUT" envDefault:"60s"`
	FFmpegPath  string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`

	// Lavalink, only needed by the lavalink transport
	LavalinkHost string `env:"LAVALINK_HOST" envDefault:"localhost"`
	LavalinkPort string `env:"LAVALINK_PORT" envDefault:"2333"`
	LavalinkPass string `env:"LAVALINK_PASS"`

	// Keep-alive server
	HTTPHost string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"PORT" envDefault:"5000"`

	InstallFFmpeg bool   `env:"INSTALL_FFMPEG" envDefault:"true"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"debug"`
}

// Load reads the .env file if one exists and parses the process environment.
// A missing $DISCORD_TOKEN is an error.
func Load() (Config, error) {
	loadDotEnv()
	return Parse(env.ToMap(os.Environ()))
}

// LoadOptional is Load for commands which never connect to discord,
// the token is left empty when it isn't set
func LoadOptional() (Config, error) {
	loadDotEnv()
	return ParseOptional(env.ToMap(os.Environ()))
}

// Parse builds the config from the given environment
func Parse(environ map[string]string) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, env.Options{Environment: environ}); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func ParseOptional(environ map[string]string) (Config, error) {
	if environ[tokenKey] != "" {
		return Parse(environ)
	}

	withToken := make(map[string]string, len(environ)+1)
	for k, v := range environ {
		withToken[k] = v
	}
	withToken[tokenKey] = "unset"

	c, err := Parse(withToken)
	if err != nil {
		return Config{}, err
	}
	c.Token = ""
	return c, nil
}

func (c Config) Validate() error {
	switch c.Transport {
	case TransportFFmpeg, TransportLavalink:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Transport)
	}
	if c.JoinTimeout <= 0 {
		return fmt.Errorf("join timeout must be positive: %s", c.JoinTimeout)
	}
	if c.Prefix == "" {
		return errors.New("command prefix must not be empty")
	}
	return nil
}

// Addr is the keep-alive server listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.Port))
}

func loadDotEnv() {
	// The variables may come from the host instead
	_ = godotenv.Load()
}
