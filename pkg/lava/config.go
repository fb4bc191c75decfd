package lava

import "github.com/diamondburned/arikawa/v3/discord"

type Config struct {
	Host  string
	Port  string
	Pass  string
	AppID discord.AppID
}
