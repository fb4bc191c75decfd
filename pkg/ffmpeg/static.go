package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/mholt/archives"

	"jukebox/internal/log"
)

var errBinaryNotInArchive = errors.New("ffmpeg binary not found in archive")

// downloadStatic fetches the static build and extracts the ffmpeg
// binary into the bin dir
func (i *Installer) downloadStatic(ctx context.Context) (string, error) {
	if err := os.MkdirAll(i.BinDir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(i.BinDir, "ffmpeg-*.tar.xz")
	if err != nil {
		return "", err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	log.Info().Str("url", i.StaticURL).Msg("downloading static ffmpeg")
	if err := i.download(ctx, tmp); err != nil {
		return "", err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	dst := filepath.Join(i.BinDir, Binary)
	if err := extractBinary(ctx, path.Base(i.StaticURL), tmp, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (i *Installer) download(ctx context.Context, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.StaticURL, nil)
	if err != nil {
		return err
	}
	resp, err := i.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status downloading ffmpeg: %s", resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// extractBinary copies the first regular file named ffmpeg from the archive to dst
func extractBinary(ctx context.Context, name string, src io.Reader, dst string) error {
	format, reader, err := archives.Identify(ctx, name, src)
	if err != nil {
		return fmt.Errorf("cannot identify archive format: %w", err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return fmt.Errorf("format does not support extraction")
	}

	found := false
	err = extractor.Extract(ctx, reader, func(ctx context.Context, f archives.FileInfo) error {
		if found || f.IsDir() || f.Name() != Binary || !f.Mode().IsRegular() {
			return nil
		}

		in, err := f.Open()
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		found = true
		return out.Close()
	})
	if err != nil {
		return err
	}
	if !found {
		return errBinaryNotInArchive
	}
	return os.Chmod(dst, 0o755)
}
