package jukebox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"

	"jukebox/pkg/catalog"
	"jukebox/pkg/voice"
)

const (
	testGuild   = discord.GuildID(1)
	testText    = discord.ChannelID(5)
	lounge      = discord.ChannelID(10)
	studio      = discord.ChannelID(20)
	inLounge    = discord.UserID(100)
	inStudio    = discord.UserID(200)
	notInVoice  = discord.UserID(300)
	errJoinText = "permission denied"
)

type fakeDiscord struct{}

func (fakeDiscord) VoiceState(_ discord.GuildID, uid discord.UserID) (*discord.VoiceState, error) {
	switch uid {
	case inLounge:
		return &discord.VoiceState{UserID: uid, ChannelID: lounge}, nil
	case inStudio:
		return &discord.VoiceState{UserID: uid, ChannelID: studio}, nil
	default:
		return nil, errors.New("not found")
	}
}

func (fakeDiscord) Channel(id discord.ChannelID) (*discord.Channel, error) {
	switch id {
	case lounge:
		return &discord.Channel{ID: id, Name: "Lounge"}, nil
	case studio:
		return &discord.Channel{ID: id, Name: "Studio"}, nil
	default:
		return nil, errors.New("unknown channel")
	}
}

type fakeTransport struct {
	mu         sync.Mutex
	events     []string
	connectErr error
}

func (f *fakeTransport) record(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf(format, args...))
}

func (f *fakeTransport) history() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.events, ", ")
}

func (f *fakeTransport) Connect(_ context.Context, _ discord.GuildID, ch discord.ChannelID) (voice.Connection, error) {
	f.record("connect %d", ch)
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return &fakeConn{t: f, ch: ch}, nil
}

type fakeConn struct {
	t  *fakeTransport
	ch discord.ChannelID
}

func (c *fakeConn) Channel() discord.ChannelID { return c.ch }

func (c *fakeConn) Play(path string, done func(error)) error {
	c.t.record("play %s", filepath.Base(path))
	return nil
}

func (c *fakeConn) Stop() error {
	c.t.record("stop")
	return nil
}

func (c *fakeConn) Playing() bool { return false }

func (c *fakeConn) Disconnect(context.Context) error {
	c.t.record("disconnect %d", c.ch)
	return nil
}

func newTestDispatcher(t *testing.T, files ...string) (*dispatcher, *fakeTransport) {
	t.Helper()

	dir := t.TempDir()
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("audio"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ft := &fakeTransport{}
	m := voice.NewManager(ft, time.Second)
	t.Cleanup(func() {
		m.Close(context.Background())
	})

	return &dispatcher{
		discord: fakeDiscord{},
		manager: m,
		catalog: catalog.New(dir),
		prefix:  "!",
	}, ft
}

func run(d *dispatcher, uid discord.UserID, content string) reply {
	name, args, ok := d.parse(content)
	if !ok {
		return reply{}
	}
	return d.command(context.Background(), name, request{
		GID:     testGuild,
		Channel: testText,
		User:    discord.User{ID: uid, Username: "user"},
		Args:    args,
	})
}

func expectContent(t *testing.T, r reply, want string) {
	t.Helper()
	if !strings.Contains(r.content, want) {
		t.Errorf("reply %q does not contain %q", r.content, want)
	}
}

func TestParse(t *testing.T) {
	d := &dispatcher{prefix: "!"}

	tests := []struct {
		content, name, args string
		ok                  bool
	}{
		{"!play  my song ", "play", "my song", true},
		{"!JOIN", "join", "", true},
		{"!", "", "", false},
		{"hello", "", "", false},
		{"?play a", "", "", false},
	}
	for _, tc := range tests {
		name, args, ok := d.parse(tc.content)
		if name != tc.name || args != tc.args || ok != tc.ok {
			t.Errorf("parse(%q) = %q, %q, %v", tc.content, name, args, ok)
		}
	}
}

func TestCommandsHaveMethods(t *testing.T) {
	d, _ := newTestDispatcher(t)
	for _, cmd := range commands {
		r := run(d, inLounge, "!"+cmd.Name)
		if strings.Contains(r.content, "Command not found") {
			t.Errorf("%s is not dispatched", cmd.Name)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)
	r := run(d, inLounge, "!dance")
	expectContent(t, r, "Command not found")
	expectContent(t, r, "`!play`")
}

func TestJoin(t *testing.T) {
	d, ft := newTestDispatcher(t)

	expectContent(t, run(d, notInVoice, "!join"), "must be in a voice channel")
	expectContent(t, run(d, inLounge, "!join"), "Joined **Lounge**")
	expectContent(t, run(d, inLounge, "!join"), "Already connected to **Lounge**")
	expectContent(t, run(d, inStudio, "!join"), "Joined **Studio**")

	if h := ft.history(); h != "connect 10, disconnect 10, connect 20" {
		t.Errorf("history = %s", h)
	}
}

func TestJoinFailure(t *testing.T) {
	d, ft := newTestDispatcher(t)
	ft.connectErr = errors.New(errJoinText)

	r := run(d, inLounge, "!join")
	expectContent(t, r, "Could not join the voice channel: "+errJoinText)
}

func TestPlayFlow(t *testing.T) {
	d, ft := newTestDispatcher(t, "song.mp3", "other.mp3")

	expectContent(t, run(d, inLounge, "!play"), "Please specify a filename")
	expectContent(t, run(d, inLounge, "!play song"), "Use `!join` first")

	run(d, inLounge, "!join")
	expectContent(t, run(d, inLounge, "!play sogn"), "File `sogn.mp3` not found")
	expectContent(t, run(d, inLounge, "!play song"), "Now playing: `song.mp3`")
	expectContent(t, run(d, inLounge, "!play other.mp3"), "Already playing audio")
	expectContent(t, run(d, inLounge, "!stop"), "Stopped audio playback")
	expectContent(t, run(d, inLounge, "!stop"), "No audio is currently playing")
	expectContent(t, run(d, inLounge, "!leave"), "Left the voice channel")
	expectContent(t, run(d, inLounge, "!leave"), "not connected to any voice channel")
	expectContent(t, run(d, inLounge, "!stop"), "not connected to any voice channel")

	want := "connect 10, play song.mp3, stop, disconnect 10"
	if h := ft.history(); h != want {
		t.Errorf("history = %s, want %s", h, want)
	}
}

func TestPlaySuggestions(t *testing.T) {
	d, _ := newTestDispatcher(t, "sunrise.mp3")
	run(d, inLounge, "!join")

	expectContent(t, run(d, inLounge, "!play sunrse"), "Did you mean: `sunrise.mp3`?")
}

func TestList(t *testing.T) {
	d, _ := newTestDispatcher(t)
	expectContent(t, run(d, inLounge, "!list"), "No MP3 files found")

	names := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		names = append(names, fmt.Sprintf("track%02d.mp3", i))
	}
	d, _ = newTestDispatcher(t, names...)

	r := run(d, inLounge, "!list")
	if len(r.embeds) != 1 {
		t.Fatalf("expected an embed, got %+v", r)
	}
	if !strings.Contains(r.embeds[0].Description, "30 files") {
		t.Errorf("description = %q", r.embeds[0].Description)
	}
	if len(r.embeds[0].Fields) != 2 {
		t.Errorf("expected a note about the hidden files")
	}

	if len(r.components) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(r.components))
	}
	buttons := 0
	for _, c := range r.components {
		row := c.(*discord.ActionRowComponent)
		if len(*row) > buttonsInRow {
			t.Errorf("row has %d buttons", len(*row))
		}
		buttons += len(*row)
	}
	if buttons != maxButtons {
		t.Errorf("expected %d buttons, got %d", maxButtons, buttons)
	}

	first := (*r.components[0].(*discord.ActionRowComponent))[0].(*discord.ButtonComponent)
	if first.Label != "track00" || first.CustomID != "play:track00.mp3" {
		t.Errorf("unexpected first button %+v", first)
	}
}

func TestListMissingFolder(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.catalog = catalog.New(filepath.Join(t.TempDir(), "missing"))
	expectContent(t, run(d, inLounge, "!list"), "Music folder not found")
}

func TestButtonLabelTruncated(t *testing.T) {
	long := strings.Repeat("é", 100)
	label := buttonLabel(catalog.AudioFile{Name: long + ".mp3"})
	if n := len([]rune(label)); n != maxLabel {
		t.Errorf("label has %d runes", n)
	}
	if !strings.HasSuffix(label, "...") {
		t.Errorf("label = %q", label)
	}
}

func TestStatus(t *testing.T) {
	d, _ := newTestDispatcher(t, "a.mp3", "b.mp3")

	r := run(d, inLounge, "!status")
	expectContent(t, r, "Voice: Not connected")
	expectContent(t, r, "Music files: 2 MP3s available")
	if strings.Contains(r.content, "Audio:") {
		t.Error("audio state is only shown when connected")
	}

	run(d, inLounge, "!join")
	run(d, inLounge, "!play a")
	r = run(d, inLounge, "!status")
	expectContent(t, r, "Voice: Connected to Lounge")
	expectContent(t, r, "Audio: Playing")
}

func TestAide(t *testing.T) {
	d, _ := newTestDispatcher(t)

	for _, content := range []string{"!aide", "!help"} {
		r := run(d, inLounge, content)
		if len(r.embeds) != 1 || len(r.components) != 1 {
			t.Fatalf("%s: expected an embed with buttons, got %+v", content, r)
		}
		if !strings.Contains(r.embeds[0].Fields[0].Value, "`!play <file>`") {
			t.Errorf("%s: audio commands missing play: %q", content, r.embeds[0].Fields[0].Value)
		}

		row := *r.components[0].(*discord.ActionRowComponent)
		ids := []string{
			string(row[0].(*discord.ButtonComponent).CustomID),
			string(row[1].(*discord.ButtonComponent).CustomID),
		}
		if ids[0] != "list" || ids[1] != "status" {
			t.Errorf("%s: button ids = %v", content, ids)
		}
	}
}

func click(d *dispatcher, uid discord.UserID, id string) reply {
	intent, err := ParseIntent(id)
	if err != nil {
		return textReply("bad intent: %v", err)
	}
	return d.interaction(context.Background(), intent, request{
		GID:     testGuild,
		Channel: testText,
		User:    discord.User{ID: uid, Username: "user"},
	})
}

func TestJoinAndPlay(t *testing.T) {
	d, ft := newTestDispatcher(t, "a.mp3", "b.mp3")

	r := click(d, inLounge, "play:a.mp3")
	if !r.ephemeral {
		t.Error("button replies should be ephemeral")
	}
	expectContent(t, r, "Joined **Lounge** and playing **a**")

	// Same channel, the current file is replaced
	expectContent(t, click(d, inLounge, "play:b.mp3"), "Playing **b**")

	// Another channel, the bot moves
	expectContent(t, click(d, inStudio, "play:a.mp3"), "Joined **Studio** and playing **a**")

	want := "connect 10, play a.mp3, stop, play b.mp3, stop, disconnect 10, connect 20, play a.mp3"
	if h := ft.history(); h != want {
		t.Errorf("history = %s, want %s", h, want)
	}
}

func TestJoinAndPlaySkipsPlayWhenJoinFails(t *testing.T) {
	d, ft := newTestDispatcher(t, "a.mp3")
	ft.connectErr = errors.New(errJoinText)

	expectContent(t, click(d, inLounge, "play:a.mp3"), "Could not join the channel")
	if h := ft.history(); h != "connect 10" {
		t.Errorf("history = %s", h)
	}
	if st := d.manager.Status(testGuild); st.State != voice.Disconnected {
		t.Errorf("state = %s", st.State)
	}
}

func TestJoinAndPlayPreconditions(t *testing.T) {
	d, ft := newTestDispatcher(t, "a.mp3")

	expectContent(t, click(d, notInVoice, "play:a.mp3"), "must be in a voice channel")
	expectContent(t, click(d, inLounge, "play:gone.mp3"), "File `gone.mp3` not found")
	if h := ft.history(); h != "" {
		t.Errorf("nothing should reach the transport, got %s", h)
	}
}

func TestJoinAndPlayHashedName(t *testing.T) {
	long := strings.Repeat("x", 120) + ".mp3"
	d, ft := newTestDispatcher(t, long)

	id := PlayIntent(long).CustomID()
	expectContent(t, click(d, inLounge, id), "and playing")
	if !strings.HasSuffix(ft.history(), "play "+long) {
		t.Errorf("history = %s", ft.history())
	}
}

func TestShowIntents(t *testing.T) {
	d, _ := newTestDispatcher(t, "a.mp3")

	r := click(d, inLounge, "status")
	if !r.ephemeral || len(r.embeds) != 1 {
		t.Fatalf("unexpected status reply %+v", r)
	}
	if r.embeds[0].Fields[0].Value != "Not connected" {
		t.Errorf("voice field = %q", r.embeds[0].Fields[0].Value)
	}

	r = click(d, inLounge, "list")
	if !r.ephemeral || len(r.embeds) != 1 || len(r.components) != 1 {
		t.Fatalf("unexpected list reply %+v", r)
	}
	if r.embeds[0].Color != colourGreen {
		t.Errorf("colour = %v", r.embeds[0].Color)
	}
}
