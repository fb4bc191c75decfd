package ogg

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the fixed part of a page, before the segment table
	HeaderSize = 27
	// A lacing value below this ends a packet
	MaxSegmentSize = 255
	MaxPacketSize  = MaxSegmentSize * 255
	// MaxPageSize is 65307 bytes, the header plus a full segment table and its data
	MaxPageSize = HeaderSize + MaxSegmentSize + MaxPacketSize
	// Opus granule positions always count 48kHz samples
	SampleRate = 48000
)

var capturePattern = []byte("OggS")

// pageHeader holds the fields of an ogg page header the decoder uses
type pageHeader struct {
	// Sample position at the end of the page
	Granule uint64
	// Stream the page belongs to
	Serial uint32
	// Length of the segment table which follows the header
	Segments int
}

// parseHeader validates the fixed header of a page, b must hold HeaderSize bytes
func parseHeader(b []byte) (pageHeader, error) {
	if len(b) != HeaderSize {
		return pageHeader{}, fmt.Errorf("%w: header is %d bytes", ErrInvalidPage, len(b))
	}
	if !bytes.Equal(b[:4], capturePattern) {
		return pageHeader{}, fmt.Errorf("%w: bad capture pattern %q", ErrInvalidPage, b[:4])
	}
	if b[4] != 0 {
		return pageHeader{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidPage, b[4])
	}

	h := pageHeader{
		Granule:  binary.LittleEndian.Uint64(b[6:14]),
		Serial:   binary.LittleEndian.Uint32(b[14:18]),
		Segments: int(b[26]),
	}
	if h.Segments < 1 {
		return pageHeader{}, fmt.Errorf("%w: empty segment table", ErrInvalidPage)
	}
	return h, nil
}
