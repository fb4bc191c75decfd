// Package ogg unwraps the opus packets of an ogg stream, e.g. the output of
// ffmpeg, so they can be written to a voice connection one packet at a time
package ogg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

var ErrInvalidPage = errors.New("invalid ogg page")

type Decoder struct {
	// buffer holds the page we are reading from the src
	buffer []byte
	// src is the reader which contains the ogg data
	src io.Reader
	// granule of the last page read, for opus this is the sample position
	granule atomic.Uint64
}

func NewDecoder() *Decoder {
	return &Decoder{
		buffer: make([]byte, MaxPageSize),
	}
}

// Public

// Decode writes every packet in src to dst until src is exhausted or
// the context is cancelled
func (d *Decoder) Decode(ctx context.Context, dst io.Writer, src io.Reader) error {
	d.src = src
	err := d.decode(ctx, dst)
	if err == io.EOF {
		return nil
	}
	return err
}

// Position is the timestamp of the last page decoded
func (d *Decoder) Position() time.Duration {
	return time.Duration(float64(d.granule.Load()) / SampleRate * float64(time.Second))
}

// Private

func (d *Decoder) decode(ctx context.Context, dst io.Writer) error {
	var nsegs int
	var packetBuf, segTblBuf []byte

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		// Read in the data from the src
		granule, err := d.readPage(&packetBuf, &segTblBuf, &nsegs)
		if err != nil {
			return err
		}
		d.granule.Store(granule)

		// Write the data to the destination
		err = d.writePage(packetBuf, segTblBuf[:nsegs], dst)
		if err != nil {
			return err
		}
	}
}

func (d *Decoder) readPage(packetBuf, segTblBuf *[]byte, nsegs *int) (uint64, error) {
	headerBuf := d.buffer[:HeaderSize]
	_, err := io.ReadFull(d.src, headerBuf)
	if err != nil {
		return 0, err
	}
	header, err := parseHeader(headerBuf)
	if err != nil {
		return 0, err
	}

	// Read in the segment table based on the number of segments we have
	*nsegs = header.Segments
	*segTblBuf = d.buffer[HeaderSize : HeaderSize+*nsegs]
	_, err = io.ReadFull(d.src, *segTblBuf)
	if err != nil {
		return 0, unexpected(err)
	}
	// Calculate the length of the packet data
	var pageDataLen = 0
	for _, l := range *segTblBuf {
		pageDataLen += int(l)
	}
	// Populate the packet buf with the packet data
	*packetBuf = d.buffer[HeaderSize+*nsegs : HeaderSize+*nsegs+pageDataLen]
	_, err = io.ReadFull(d.src, *packetBuf)
	if err != nil {
		return 0, unexpected(err)
	}

	return header.Granule, nil
}

func (d *Decoder) writePage(packetBuf, segTbl []byte, dst io.Writer) error {
	// Segment index
	var ixseg int
	// Start and end of our location in the packet buffer
	// which we then write in to the destination buffer
	var start, end int

	for ixseg < len(segTbl) {
		// Get the full packet size, a segment of 255 bytes means
		// the packet continues into the next segment
		for ixseg < len(segTbl) {
			segment := segTbl[ixseg]
			end += int(segment)
			ixseg++
			if segment < MaxSegmentSize {
				break
			}
		}
		// Write the packet to the destination
		if end > start {
			_, err := dst.Write(packetBuf[start:end])
			if err != nil {
				return fmt.Errorf("failed to write a packet: %w", err)
			}
		}
		// Reset the start position to where we are
		start = end
	}
	return nil
}

// A page which ends part way through is corrupt rather than finished
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
