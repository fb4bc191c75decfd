package jukebox

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
)

// Discord limits custom ids to 100 characters
const maxCustomID = 100

var ErrUnknownIntent = errors.New("unknown interaction intent")

type IntentKind int

const (
	JoinAndPlay IntentKind = iota + 1
	ShowStatus
	ShowList
)

func (k IntentKind) String() string {
	switch k {
	case JoinAndPlay:
		return "join_and_play"
	case ShowStatus:
		return "show_status"
	case ShowList:
		return "show_list"
	default:
		return "unknown"
	}
}

const (
	prefixPlay       = "play:"
	prefixPlayHashed = "playh:"
	idStatus         = "status"
	idList           = "list"
)

// Intent is what a button asks the bot to do. Buttons carry
// it in their custom id.
type Intent struct {
	Kind IntentKind
	// File to play for JoinAndPlay
	File string
	// Hash of the file name when the name is too long to fit
	// in a custom id, File is empty in that case
	Hash string
}

func PlayIntent(file string) Intent {
	return Intent{Kind: JoinAndPlay, File: file}
}

func (i Intent) CustomID() string {
	switch i.Kind {
	case JoinAndPlay:
		if i.File == "" {
			return prefixPlayHashed + i.Hash
		}
		if id := prefixPlay + i.File; len(id) <= maxCustomID {
			return id
		}
		return prefixPlayHashed + hashName(i.File)
	case ShowStatus:
		return idStatus
	case ShowList:
		return idList
	default:
		return ""
	}
}

// Matches reports whether the intent refers to the named file
func (i Intent) Matches(name string) bool {
	if i.File != "" {
		return i.File == name
	}
	return i.Hash != "" && i.Hash == hashName(name)
}

func ParseIntent(id string) (Intent, error) {
	switch {
	case id == idStatus:
		return Intent{Kind: ShowStatus}, nil
	case id == idList:
		return Intent{Kind: ShowList}, nil
	case strings.HasPrefix(id, prefixPlay) && len(id) > len(prefixPlay):
		return Intent{Kind: JoinAndPlay, File: strings.TrimPrefix(id, prefixPlay)}, nil
	case strings.HasPrefix(id, prefixPlayHashed) && len(id) > len(prefixPlayHashed):
		return Intent{Kind: JoinAndPlay, Hash: strings.TrimPrefix(id, prefixPlayHashed)}, nil
	default:
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, id)
	}
}

func hashName(name string) string {
	h := fnv.New64a()
	h.Write([]byte(name))
	return fmt.Sprintf("%016x", h.Sum64())
}
