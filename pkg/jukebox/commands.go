package jukebox

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/diamondburned/arikawa/v3/discord"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"jukebox/internal/log"
	"jukebox/pkg/catalog"
	"jukebox/pkg/voice"
)

var titleCaser = cases.Title(language.English)

type command struct {
	Name        string
	Arg         string
	Description string
	// Audio commands control the voice session
	Audio bool
}

func (c command) usage() string {
	if c.Arg == "" {
		return c.Name
	}
	return fmt.Sprintf("%s <%s>", c.Name, c.Arg)
}

var commands = []command{
	{Name: "join", Description: "Join your voice channel", Audio: true},
	{Name: "play", Arg: "file", Description: "Play an MP3 file", Audio: true},
	{Name: "stop", Description: "Stop playback", Audio: true},
	{Name: "leave", Description: "Leave the voice channel", Audio: true},
	{Name: "list", Description: "See every available file"},
	{Name: "status", Description: "Bot status"},
	{Name: "aide", Description: "Show this help"},
}

var aliases = map[string]string{
	"help": "aide",
}

func init() {
	d := reflect.ValueOf(&dispatcher{})
	for _, cmd := range commands {
		// We get the method for the command we want
		v := d.MethodByName(titleCaser.String(cmd.Name))
		if !v.IsValid() {
			log.Fatal().Str("command", cmd.Name).Msg("command does not exist")
		}
	}
}

// Discord is what the dispatcher needs to know about the guild,
// *state.State implements it
type Discord interface {
	voice.Locator
	Channel(id discord.ChannelID) (*discord.Channel, error)
}

// request is a parsed text command
type request struct {
	GID     discord.GuildID
	Channel discord.ChannelID
	User    discord.User
	Args    string
}

// dispatcher turns commands and button clicks into voice session
// operations and renders the replies
type dispatcher struct {
	discord Discord
	manager *voice.Manager
	catalog *catalog.Catalog
	prefix  string
}

// parse splits a message into the command name and its arguments,
// ok is false if the message isn't a command
func (d *dispatcher) parse(content string) (name, args string, ok bool) {
	if !strings.HasPrefix(content, d.prefix) {
		return "", "", false
	}
	content = strings.TrimPrefix(content, d.prefix)
	name, args, _ = strings.Cut(content, " ")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(args), true
}

func (d *dispatcher) command(ctx context.Context, name string, r request) reply {
	if alias, ok := aliases[name]; ok {
		name = alias
	}

	known := false
	for _, cmd := range commands {
		known = known || cmd.Name == name
	}
	if !known {
		log.Debug().Str("command", name).Msg("unknown command")
		return d.unknown()
	}

	// We get the method for the command we want
	v := reflect.ValueOf(d).MethodByName(titleCaser.String(name))
	if !v.IsValid() {
		log.Error().Str("command", name).Msg("invalid command received")
		return d.unknown()
	}

	log.Info().Str("user", r.User.Username).Str("command", name).Str("args", r.Args).
		Interface("guild", r.GID).Interface("channel", r.Channel).Msg("command")
	out := v.Call([]reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(r)})
	return out[0].Interface().(reply)
}

func (d *dispatcher) unknown() reply {
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, fmt.Sprintf("`%s%s`", d.prefix, cmd.Name))
	}
	return textReply("❌ Command not found! Available commands: %s", strings.Join(names, ", "))
}

func (d *dispatcher) channelName(id discord.ChannelID) string {
	ch, err := d.discord.Channel(id)
	if err != nil {
		log.Debug().Err(err).Interface("channel", id).Msg("could not get channel")
		return id.Mention()
	}
	return ch.Name
}

// Command functions

func (d *dispatcher) Join(ctx context.Context, r request) reply {
	sc, err := voice.CreateContext(d.discord, r.GID, r.Channel, r.User)
	if err != nil {
		return textReply("❌ You must be in a voice channel!")
	}

	res, err := d.manager.Join(ctx, sc)
	if err != nil {
		log.Error().Err(err).Msg("failed to join voice channel")
		return textReply("❌ Could not join the voice channel: %s", errorCause(err))
	}

	name := d.channelName(sc.Voice)
	if res == voice.AlreadyConnected {
		return textReply("✅ Already connected to **%s**!", name)
	}
	return textReply("✅ Joined **%s** - ready to play music!", name)
}

func (d *dispatcher) Leave(ctx context.Context, r request) reply {
	err := d.manager.Leave(ctx, r.GID)
	switch {
	case errors.Is(err, voice.ErrNotConnected):
		return textReply("❌ Bot is not connected to any voice channel!")
	case err != nil:
		log.Error().Err(err).Msg("failed to leave voice channel")
		return textReply("⚠️ Left the voice channel, but disconnecting failed: %s", errorCause(err))
	default:
		return textReply("✅ Left the voice channel")
	}
}

func (d *dispatcher) Play(ctx context.Context, r request) reply {
	if r.Args == "" {
		return textReply("❌ Please specify a filename! Usage: `%splay <filename>`", d.prefix)
	}

	switch d.manager.Status(r.GID).State {
	case voice.Disconnected:
		return textReply("❌ Bot is not connected to any voice channel! Use `%sjoin` first.", d.prefix)
	case voice.ConnectedPlaying:
		return textReply("❌ Already playing audio! Use `%sstop` to stop current playback.", d.prefix)
	}

	f, err := d.catalog.Resolve(r.Args)
	if err != nil {
		return notFoundReply(err)
	}

	return d.playReply(f, d.manager.Play(r.GID, f.Path))
}

func (d *dispatcher) playReply(f catalog.AudioFile, err error) reply {
	switch {
	case errors.Is(err, voice.ErrNotConnected):
		return textReply("❌ Bot is not connected to any voice channel! Use `%sjoin` first.", d.prefix)
	case errors.Is(err, voice.ErrAlreadyPlaying):
		return textReply("❌ Already playing audio! Use `%sstop` to stop current playback.", d.prefix)
	case err != nil:
		log.Error().Err(err).Str("file", f.Name).Msg("failed to play file")
		return textReply("❌ Failed to play audio: %s", err)
	default:
		return textReply("🎵 Now playing: `%s`", f.Name)
	}
}

func notFoundReply(err error) reply {
	var nf *catalog.NotFoundError
	if !errors.As(err, &nf) {
		return textReply("❌ %s", err)
	}

	msg := fmt.Sprintf("❌ File `%s` not found in music folder!", nf.Name)
	if len(nf.Suggestions) > 0 {
		msg += fmt.Sprintf("\nDid you mean: `%s`?", strings.Join(nf.Suggestions, "`, `"))
	}
	return reply{content: msg}
}

func (d *dispatcher) Stop(ctx context.Context, r request) reply {
	if d.manager.Status(r.GID).State == voice.Disconnected {
		return textReply("❌ Bot is not connected to any voice channel!")
	}

	err := d.manager.Stop(r.GID)
	switch {
	case errors.Is(err, voice.ErrNotPlaying):
		return textReply("❌ No audio is currently playing!")
	case err != nil:
		log.Error().Err(err).Msg("failed to stop audio")
		return textReply("❌ Failed to stop audio: %s", err)
	default:
		return textReply("⏹️ Stopped audio playback")
	}
}

func (d *dispatcher) List(ctx context.Context, r request) reply {
	if !d.catalog.Exists() {
		return textReply("❌ Music folder not found!")
	}

	files := d.catalog.List()
	if len(files) == 0 {
		return textReply("📁 No MP3 files found in the music folder")
	}

	return reply{
		embeds:     []discord.Embed{listEmbed(files)},
		components: playButtons(files),
	}
}

func (d *dispatcher) Status(ctx context.Context, r request) reply {
	return reply{content: d.status(r.GID).text()}
}

func (d *dispatcher) Aide(ctx context.Context, r request) reply {
	return reply{
		embeds:     []discord.Embed{helpEmbed(d.prefix)},
		components: helpButtons(),
	}
}

func (d *dispatcher) status(gid discord.GuildID) status {
	st := d.manager.Status(gid)
	s := status{
		state:    st.State,
		files:    d.catalog.Count(),
		noFolder: !d.catalog.Exists(),
	}
	if st.Connected() {
		s.channel = d.channelName(st.Channel)
	}
	return s
}

// Interactions, the replies are only shown to the user who clicked

func (d *dispatcher) interaction(ctx context.Context, i Intent, r request) reply {
	log.Info().Str("user", r.User.Username).Str("intent", i.Kind.String()).Str("file", i.File).
		Interface("guild", r.GID).Msg("interaction")

	var resp reply
	switch i.Kind {
	case JoinAndPlay:
		resp = d.joinAndPlay(ctx, i, r)
	case ShowStatus:
		resp = reply{embeds: []discord.Embed{d.status(r.GID).embed()}}
	case ShowList:
		resp = d.List(ctx, r)
		if len(resp.embeds) > 0 {
			resp.embeds[0].Color = colourGreen
		}
	default:
		resp = textReply("❌ Unknown action")
	}

	resp.ephemeral = true
	return resp
}

func (d *dispatcher) joinAndPlay(ctx context.Context, i Intent, r request) reply {
	sc, err := voice.CreateContext(d.discord, r.GID, r.Channel, r.User)
	if err != nil {
		return textReply("❌ You must be in a voice channel!")
	}

	f, err := d.resolveIntent(i)
	if err != nil {
		return notFoundReply(err)
	}

	res, err := d.manager.Join(ctx, sc)
	if err != nil {
		log.Error().Err(err).Msg("failed to join voice channel")
		return textReply("❌ Could not join the channel: %s", errorCause(err))
	}

	if err := d.manager.Replace(r.GID, f.Path); err != nil {
		log.Error().Err(err).Str("file", f.Name).Msg("failed to play file")
		return textReply("❌ Playback error: %s", err)
	}

	if res == voice.AlreadyConnected {
		return textReply("🎵 Playing **%s**", f.Title())
	}
	return textReply("🎵 Joined **%s** and playing **%s**", d.channelName(sc.Voice), f.Title())
}

func (d *dispatcher) resolveIntent(i Intent) (catalog.AudioFile, error) {
	if i.File != "" {
		return d.catalog.Resolve(i.File)
	}
	for _, f := range d.catalog.List() {
		if i.Matches(f.Name) {
			return f, nil
		}
	}
	return catalog.AudioFile{}, &catalog.NotFoundError{Name: i.Hash}
}

// errorCause strips the connection error down to what went wrong
func errorCause(err error) error {
	var connErr *voice.ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Err
	}
	return err
}
