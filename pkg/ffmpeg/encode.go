package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Encoder converts audio files into an ogg/opus stream suitable for
// discord, 48kHz stereo in 20ms frames
type Encoder struct {
	Bin     string
	Bitrate string
}

func NewEncoder(bin string) Encoder {
	if bin == "" {
		bin = Binary
	}
	return Encoder{Bin: bin, Bitrate: "96k"}
}

func (e Encoder) args(file string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-threads", "1",
		"-i", file, "-vn",
		"-c:a", "libopus", "-b:a", e.Bitrate, "-vbr", "off", "-application", "audio",
		"-frame_duration", "20", "-ar", "48000", "-ac", "2",
		"-f", "opus", "-",
	}
}

// Stream is a running ffmpeg process, reading from it yields ogg pages
type Stream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
}

// Encode starts ffmpeg on the file, the process is killed when ctx is done
func (e Encoder) Encode(ctx context.Context, file string) (*Stream, error) {
	s := &Stream{cmd: exec.CommandContext(ctx, e.Bin, e.args(file)...)}
	s.cmd.Stderr = &s.stderr

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	s.stdout = stdout

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return s, nil
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Wait waits for ffmpeg to exit, it must be called once reading is done
func (s *Stream) Wait() error {
	// Drain so ffmpeg doesn't block writing to a full pipe
	_, _ = io.Copy(io.Discard, s.stdout)

	err := s.cmd.Wait()
	if err != nil {
		if msg := strings.TrimSpace(s.stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}
