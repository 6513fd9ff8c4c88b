package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/leafcare/planty/internal/logging"
)

// DiscordSender posts notifications to one Discord channel.
type DiscordSender struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordSender(token, channelID string) (*DiscordSender, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("open discord session: %w", err)
	}
	logging.Info("notify", "discord sender connected")
	return &DiscordSender{session: session, channelID: channelID}, nil
}

func (s *DiscordSender) Send(text string) error {
	if _, err := s.session.ChannelMessageSend(s.channelID, text); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

// Close shuts down the underlying session.
func (s *DiscordSender) Close() error {
	return s.session.Close()
}
