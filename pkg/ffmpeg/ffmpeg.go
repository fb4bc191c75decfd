// Package ffmpeg finds, installs and runs the ffmpeg binary
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

const (
	// Binary is the default executable name
	Binary = "ffmpeg"

	versionTimeout = 10 * time.Second
)

var ErrNotInstalled = errors.New("ffmpeg is not installed")

// Version runs `ffmpeg -version` and returns the first line of output
func Version(ctx context.Context, bin string) (string, error) {
	if bin == "" {
		bin = Binary
	}
	if _, err := exec.LookPath(bin); err != nil {
		return "", ErrNotInstalled
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, bin, "-version").Output()
	if err != nil {
		return "", err
	}

	line, _, _ := bufio.NewReader(bytes.NewReader(out)).ReadLine()
	return strings.TrimSpace(string(line)), nil
}

// Available reports whether ffmpeg can be run
func Available(ctx context.Context, bin string) bool {
	_, err := Version(ctx, bin)
	return err == nil
}
