package ffmpeg

import "os"

type Platform int

const (
	Unknown Platform = iota
	Replit
	Render
)

func (p Platform) String() string {
	switch p {
	case Replit:
		return "replit"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Detect works out which hosting platform we are running on
func Detect() Platform {
	return DetectFrom(os.Getenv, func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	})
}

func DetectFrom(getenv func(string) string, exists func(string) bool) Platform {
	if getenv("RENDER") != "" {
		return Render
	}
	if getenv("REPLIT_DB_URL") != "" || exists("/home/runner") {
		return Replit
	}
	return Unknown
}
