package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"royalwager/domain/entities"
	"royalwager/events"
)

const (
	colorSuccess = 0x57F287
	colorDanger  = 0xED4245
	colorWarning = 0xFEE75C
)

// EmbedSender is the slice of the discordgo session the notifier needs
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts wager results to a Discord channel.
// It only observes events and never feeds back into wager state.
type DiscordNotifier struct {
	sender    EmbedSender
	channelID string
}

// NewDiscordNotifier creates a notifier posting to channelID
func NewDiscordNotifier(sender EmbedSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{sender: sender, channelID: channelID}
}

// NewDiscordSession opens a bot session for the notifier
func NewDiscordSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return session, nil
}

// Subscribe registers the notifier on the local bus
func (n *DiscordNotifier) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeWagerStateChange, n.HandleEvent)
}

// HandleEvent posts an embed for completed, cancelled and disputed wagers
func (n *DiscordNotifier) HandleEvent(ctx context.Context, event events.Event) {
	e, ok := event.(events.WagerStateChangeEvent)
	if !ok {
		return
	}

	embed := BuildWagerResultEmbed(e)
	if embed == nil {
		return
	}

	if _, err := n.sender.ChannelMessageSendEmbed(n.channelID, embed); err != nil {
		log.WithFields(log.Fields{
			"wagerId":   e.WagerID,
			"channelId": n.channelID,
			"error":     err,
		}).Error("Failed to post wager result to Discord")
		return
	}

	log.WithFields(log.Fields{
		"wagerId":   e.WagerID,
		"newStatus": e.NewStatus,
	}).Debug("Posted wager result to Discord")
}

// BuildWagerResultEmbed renders a state change, or nil when the change is not announced
func BuildWagerResultEmbed(e events.WagerStateChangeEvent) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "💰 Stake",
				Value:  e.Amount.String() + " SOL",
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Wager ID: %d", e.WagerID),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	switch e.NewStatus {
	case entities.WagerStatusCompleted:
		embed.Title = "🏆 Wager Completed"
		embed.Color = colorSuccess
		if e.WinnerID != nil {
			embed.Description = fmt.Sprintf("**%s** won the series", shortWallet(*e.WinnerID))
		}
	case entities.WagerStatusCancelled:
		embed.Title = "❌ Wager Cancelled"
		embed.Color = colorDanger
		embed.Description = "Deposits will be refunded"
	case entities.WagerStatusDisputed:
		embed.Title = "⚠️ Wager Disputed"
		embed.Color = colorWarning
		embed.Description = "An operator will review the result"
	default:
		return nil
	}

	if e.Reason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📜 Reason",
			Value: e.Reason,
		})
	}
	return embed
}

func shortWallet(wallet string) string {
	if len(wallet) <= 10 {
		return wallet
	}
	return wallet[:4] + "…" + wallet[len(wallet)-4:]
}
