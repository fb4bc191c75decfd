package lava

import (
	"fmt"

	"github.com/DisgoOrg/disgolink/lavalink"
)

type CloseType int

const (
	TrackEnd CloseType = iota
	TrackException
	TrackStuck
	WebsocketClosed
)

func (t CloseType) String() string {
	switch t {
	case TrackEnd:
		return "track end"
	case TrackException:
		return "track exception"
	case TrackStuck:
		return "track stuck"
	case WebsocketClosed:
		return "websocket closed"
	default:
		return fmt.Sprintf("close type %d", int(t))
	}
}

type CloseEvent struct {
	Type   CloseType
	Reason string
}

// Err is nil if the track ended normally
func (e CloseEvent) Err() error {
	if e.Type == TrackEnd && e.Reason != "LOAD_FAILED" {
		return nil
	}
	return fmt.Errorf("%s: %s", e.Type, e.Reason)
}

var _ lavalink.PlayerEventListener = (*closeListener)(nil)

// closeListener reports the first event which ends a track,
// later events are dropped
type closeListener struct {
	quit chan CloseEvent
}

func newCloseListener() closeListener {
	return closeListener{quit: make(chan CloseEvent, 1)}
}

func (cl closeListener) send(e CloseEvent) {
	select {
	case cl.quit <- e:
	default:
	}
}

func (cl closeListener) OnPlayerPause(p lavalink.Player) {}

func (cl closeListener) OnPlayerResume(p lavalink.Player) {}

func (cl closeListener) OnPlayerUpdate(p lavalink.Player, s lavalink.PlayerState) {}

func (cl closeListener) OnTrackStart(p lavalink.Player, t lavalink.AudioTrack) {}

func (cl closeListener) OnTrackEnd(p lavalink.Player, t lavalink.AudioTrack, endReason lavalink.AudioTrackEndReason) {
	cl.send(CloseEvent{
		Type:   TrackEnd,
		Reason: string(endReason),
	})
}

func (cl closeListener) OnTrackException(p lavalink.Player, t lavalink.AudioTrack, e lavalink.FriendlyException) {
	cl.send(CloseEvent{
		Type:   TrackException,
		Reason: e.Error(),
	})
}

func (cl closeListener) OnTrackStuck(p lavalink.Player, t lavalink.AudioTrack, thresholdMs lavalink.Duration) {
	cl.send(CloseEvent{
		Type:   TrackStuck,
		Reason: fmt.Sprintf("threshold ms: %s", thresholdMs.String()),
	})
}

func (cl closeListener) OnWebSocketClosed(p lavalink.Player, code int, reason string, byRemote bool) {
	cl.send(CloseEvent{
		Type:   WebsocketClosed,
		Reason: fmt.Sprintf("code: %d reason: %s byRemote: %v", code, reason, byRemote),
	})
}
