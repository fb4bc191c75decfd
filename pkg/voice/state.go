package voice

import (
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
)

type State int

const (
	Disconnected State = iota
	ConnectedIdle
	ConnectedPlaying
)

func (s State) String() string {
	switch s {
	case ConnectedIdle:
		return "connected"
	case ConnectedPlaying:
		return "playing"
	default:
		return "disconnected"
	}
}

// JoinResult describes what Join had to do to get into the channel
type JoinResult int

const (
	Joined JoinResult = iota
	AlreadyConnected
	Moved
)

func (r JoinResult) String() string {
	switch r {
	case AlreadyConnected:
		return "already connected"
	case Moved:
		return "moved"
	default:
		return "joined"
	}
}

// SessionStatus is a copy of a guild's session state
type SessionStatus struct {
	GID     discord.GuildID
	Channel discord.ChannelID
	State   State
	// File is the name of the file playing, if any
	File string
	// Since is when the current state was entered
	Since time.Time
}

func (s SessionStatus) Connected() bool {
	return s.State != Disconnected
}

func (s SessionStatus) Playing() bool {
	return s.State == ConnectedPlaying
}

// Snapshot is the status of every known session
type Snapshot struct {
	Sessions []SessionStatus
}

func (s Snapshot) Connected() bool {
	for _, ss := range s.Sessions {
		if ss.Connected() {
			return true
		}
	}
	return false
}

func (s Snapshot) Playing() bool {
	for _, ss := range s.Sessions {
		if ss.Playing() {
			return true
		}
	}
	return false
}
