package jukebox

import (
	"fmt"
	"strings"

	"github.com/diamondburned/arikawa/v3/discord"

	"jukebox/pkg/catalog"
	"jukebox/pkg/voice"
)

const (
	colourBlurple = discord.Color(0x7289da)
	colourGreen   = discord.Color(0x43b581)

	// Discord allows 5 rows of 5 buttons per message
	maxButtons   = 25
	buttonsInRow = 5
	maxLabel     = 80
)

// reply is a message to send back to the user
type reply struct {
	content    string
	embeds     []discord.Embed
	components discord.ContainerComponents
	ephemeral  bool
}

func textReply(format string, args ...interface{}) reply {
	return reply{content: fmt.Sprintf(format, args...)}
}

func buttonLabel(f catalog.AudioFile) string {
	label := f.Title()
	if r := []rune(label); len(r) > maxLabel {
		label = string(r[:maxLabel-3]) + "..."
	}
	return label
}

// playButtons creates a button for each of the first 25 files
func playButtons(files []catalog.AudioFile) discord.ContainerComponents {
	if len(files) > maxButtons {
		files = files[:maxButtons]
	}

	rows := make(discord.ContainerComponents, 0, (len(files)+buttonsInRow-1)/buttonsInRow)
	var row discord.ActionRowComponent
	for i, f := range files {
		row = append(row, &discord.ButtonComponent{
			Label:    buttonLabel(f),
			CustomID: discord.ComponentID(PlayIntent(f.Name).CustomID()),
			Style:    discord.SuccessButtonStyle(),
			Emoji:    &discord.ComponentEmoji{Name: "🎵"},
		})
		if len(row) == buttonsInRow || i == len(files)-1 {
			r := row
			rows = append(rows, &r)
			row = nil
		}
	}
	return rows
}

func listEmbed(files []catalog.AudioFile) discord.Embed {
	embed := discord.Embed{
		Title:       "🎵 Music Library",
		Description: fmt.Sprintf("**%d files available**\n\nClick a button to play instantly:", len(files)),
		Color:       colourBlurple,
		Fields: []discord.EmbedField{{
			Name:  "🤖 Automatic",
			Value: "• The bot will join your voice channel by itself\n• No commands to type, just click!",
		}},
		Footer: &discord.EmbedFooter{Text: "💡 You must be in a voice channel for this to work"},
	}
	if len(files) > maxButtons {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:  "⚠️ Note",
			Value: fmt.Sprintf("Only the first %d files are shown. Total: %d files.", maxButtons, len(files)),
		})
	}
	return embed
}

func helpEmbed(prefix string) discord.Embed {
	var audio, info strings.Builder
	for _, cmd := range commands {
		line := fmt.Sprintf("`%s%s` - %s\n", prefix, cmd.usage(), cmd.Description)
		if cmd.Audio {
			audio.WriteString(line)
		} else {
			info.WriteString(line)
		}
	}

	return discord.Embed{
		Title:       "🎵 Discord Music Bot",
		Description: "Here are all the available commands:",
		Color:       colourBlurple,
		Fields: []discord.EmbedField{
			{Name: "📻 Audio commands", Value: strings.TrimSpace(audio.String())},
			{Name: "📋 Info commands", Value: strings.TrimSpace(info.String())},
		},
	}
}

func helpButtons() discord.ContainerComponents {
	return discord.ContainerComponents{
		&discord.ActionRowComponent{
			&discord.ButtonComponent{
				Label:    "🎵 Show music",
				CustomID: discord.ComponentID(Intent{Kind: ShowList}.CustomID()),
				Style:    discord.PrimaryButtonStyle(),
			},
			&discord.ButtonComponent{
				Label:    "ℹ️ Bot status",
				CustomID: discord.ComponentID(Intent{Kind: ShowStatus}.CustomID()),
				Style:    discord.SecondaryButtonStyle(),
			},
		},
	}
}

// status is what the status command and button show
type status struct {
	channel string
	state   voice.State
	files   int
	// The music folder could not be read
	noFolder bool
}

func (s status) voiceText() string {
	if s.state == voice.Disconnected {
		return "Not connected"
	}
	return "Connected to " + s.channel
}

func (s status) audioText() string {
	if s.state == voice.ConnectedPlaying {
		return "Playing"
	}
	return "Stopped"
}

func (s status) filesText() string {
	if s.noFolder {
		return "Unable to check"
	}
	return fmt.Sprintf("%d MP3s available", s.files)
}

func (s status) text() string {
	var b strings.Builder
	b.WriteString("🤖 **Bot Status:**\n")
	fmt.Fprintf(&b, "• Voice: %s\n", s.voiceText())
	if s.state != voice.Disconnected {
		fmt.Fprintf(&b, "• Audio: %s\n", s.audioText())
	}
	fmt.Fprintf(&b, "• Music files: %s\n", s.filesText())
	return b.String()
}

func (s status) embed() discord.Embed {
	embed := discord.Embed{Title: "🤖 Bot Status", Color: colourBlurple}
	embed.Fields = append(embed.Fields, discord.EmbedField{Name: "🔊 Voice", Value: s.voiceText(), Inline: true})
	if s.state != voice.Disconnected {
		embed.Fields = append(embed.Fields, discord.EmbedField{Name: "🎵 Audio", Value: s.audioText(), Inline: true})
	}
	embed.Fields = append(embed.Fields, discord.EmbedField{Name: "📁 Music", Value: s.filesText(), Inline: true})
	return embed
}
