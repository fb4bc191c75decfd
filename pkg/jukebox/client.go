package jukebox

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/json/option"

	"jukebox/internal/log"
)

// Commands may wait on a voice connection for a while
const commandTimeout = 2 * time.Minute

type client struct {
	state      *state.State
	dispatcher *dispatcher
	limiter    *limiter
	online     atomic.Bool
}

func newClient(s *state.State, d *dispatcher) *client {
	c := &client{
		state:      s,
		dispatcher: d,
		limiter:    newLimiter(defaultUserRate, defaultUserBurst),
	}

	s.AddIntents(gateway.IntentGuilds | gateway.IntentGuildMessages | gateway.IntentMessageContent | gateway.IntentGuildVoiceStates)

	// Add handlers for events
	s.AddHandler(readyEvent(c))
	s.AddHandler(messageCreateEvent(c))
	s.AddHandler(interactionCreateEvent(c))
	return c
}

// Online reports whether the gateway session is ready
func (c *client) Online() bool {
	return c.online.Load()
}

func readyEvent(c *client) interface{} {
	return func(e *gateway.ReadyEvent) {
		c.online.Store(true)
		log.Info().Str("user", e.User.Username).Int("guilds", len(e.Guilds)).Msg("bot connected to discord")
	}
}

func messageCreateEvent(c *client) interface{} {
	return func(e *gateway.MessageCreateEvent) {
		// Ignore bots and direct messages
		if e.Author.Bot || !e.GuildID.IsValid() {
			return
		}
		name, args, ok := c.dispatcher.parse(e.Content)
		if !ok {
			return
		}
		if !c.limiter.Allow(e.Author.ID) {
			log.Warn().Str("user", e.Author.Username).Str("command", name).Msg("user is rate limited")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		resp := c.dispatcher.command(ctx, name, request{
			GID:     e.GuildID,
			Channel: e.ChannelID,
			User:    e.Author,
			Args:    args,
		})
		c.send(e.ChannelID, resp)
	}
}

func interactionCreateEvent(c *client) interface{} {
	return func(e *gateway.InteractionCreateEvent) {
		// We only want button clicks
		bi, ok := e.Data.(*discord.ButtonInteraction)
		if !ok || !e.GuildID.IsValid() {
			return
		}
		user := e.Sender()
		if user == nil {
			return
		}
		if !c.limiter.Allow(user.ID) {
			log.Warn().Str("user", user.Username).Str("custom_id", string(bi.CustomID)).Msg("user is rate limited")
			return
		}

		intent, err := ParseIntent(string(bi.CustomID))
		if err != nil {
			log.Error().Err(err).Msg("invalid interaction received")
			return
		}

		// Joining can take longer than discord waits for a response
		// so we defer it and edit the response afterwards
		c.deferResp(e)

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		resp := c.dispatcher.interaction(ctx, intent, request{
			GID:     e.GuildID,
			Channel: e.ChannelID,
			User:    *user,
		})
		c.editResp(e, resp)
	}
}

// Sending responses

func (c *client) send(ch discord.ChannelID, r reply) {
	data := api.SendMessageData{
		Content:    r.content,
		Embeds:     r.embeds,
		Components: r.components,
	}
	if _, err := c.state.SendMessageComplex(ch, data); err != nil {
		log.Error().Err(err).Interface("channel", ch).Str("content", r.content).Msg("failed to send message")
	}
}

func (c *client) deferResp(e *gateway.InteractionCreateEvent) {
	data := api.InteractionResponse{
		Type: api.DeferredMessageInteractionWithSource,
		Data: &api.InteractionResponseData{
			Flags: discord.EphemeralMessage,
		},
	}
	if err := c.state.RespondInteraction(e.ID, e.Token, data); err != nil {
		log.Error().Err(err).Interface("id", e.ID).Msg("failed to defer response")
	}
}

func (c *client) editResp(e *gateway.InteractionCreateEvent, r reply) {
	data := api.EditInteractionResponseData{
		Content: option.NewNullableString(r.content),
	}
	if len(r.embeds) > 0 {
		data.Embeds = &r.embeds
	}
	if len(r.components) > 0 {
		data.Components = &r.components
	}

	if _, err := c.state.EditInteractionResponse(e.AppID, e.Token, data); err != nil {
		log.Error().Err(err).Interface("id", e.ID).Str("resp", r.content).Msg("failed to edit response")
	}
}
