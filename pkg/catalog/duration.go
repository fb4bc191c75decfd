package catalog

import (
	"os"
	"time"

	"github.com/gopxl/beep/v2/mp3"
)

// Duration decodes the MP3 frame headers of the file to find its length
func Duration(f AudioFile) (time.Duration, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return 0, err
	}

	// The streamer takes ownership of the file
	streamer, format, err := mp3.Decode(file)
	if err != nil {
		file.Close()
		return 0, err
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}
