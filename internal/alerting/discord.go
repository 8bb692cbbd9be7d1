package alerting

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"memeconomy/internal/storage"
)

const (
	crashEmbedColor = 0xe74c3c
	alertEmbedColor = 0xf1c40f
)

// DiscordNotifier announces crashes to a channel and delivers alert triggers
// as direct messages. Only the REST API is used; no gateway connection is
// opened.
type DiscordNotifier struct {
	session        *discordgo.Session
	crashChannelID string
	logger         zerolog.Logger
}

// NewDiscordNotifier constructs a notifier from a bot token.
func NewDiscordNotifier(botToken, crashChannelID string, logger zerolog.Logger) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordNotifier{
		session:        session,
		crashChannelID: crashChannelID,
		logger:         logger.With().Str("component", "notifier_discord").Logger(),
	}, nil
}

// NotifyCrash posts a crash announcement embed to the configured channel.
func (n *DiscordNotifier) NotifyCrash(ctx context.Context, token storage.Token) error {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf(":chart_with_downwards_trend: %s has crashed", token.Symbol),
		Description: fmt.Sprintf("%s fell below the crash floor and has been delisted from trading.", token.Name),
		Color:       crashEmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Last price", Value: token.PricePerUnit.String(), Inline: true},
			{Name: "Total supply", Value: token.TotalSupply.String(), Inline: true},
		},
	}

	if _, err := n.session.ChannelMessageSendEmbed(n.crashChannelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send crash announcement: %w", err)
	}

	n.logger.Info().Str("symbol", token.Symbol).Msg("crash announcement sent")
	return nil
}

// NotifyAlert DMs the user who registered the alert.
func (n *DiscordNotifier) NotifyAlert(ctx context.Context, discordID string, token storage.Token, alert storage.Alert, price decimal.Decimal) error {
	channel, err := n.session.UserChannelCreate(discordID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}

	comparison := "risen above"
	if alert.Direction == storage.AlertUnder {
		comparison = "fallen below"
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf(":bell: %s price alert", token.Symbol),
		Description: fmt.Sprintf("%s has %s your target of %s; current price %s.",
			token.Symbol, comparison, alert.TargetPrice.String(), price.String()),
		Color: alertEmbedColor,
	}

	if _, err := n.session.ChannelMessageSendEmbed(channel.ID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send alert dm: %w", err)
	}

	n.logger.Info().Str("discord_id", discordID).Str("symbol", token.Symbol).Msg("alert dm sent")
	return nil
}

var _ Notifier = (*DiscordNotifier)(nil)
