package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"scalperbot/models"
)

// Notifier delivers a signal alert to its destination.
type Notifier interface {
	SendSignal(event *models.SignalEvent) error
}

// TelegramNotifier sends Markdown alerts through the Telegram bot API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegramNotifier initializes the Telegram bot.
func NewTelegramNotifier(botToken string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}

	logger := log.With().Str("component", "telegram").Logger()
	logger.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}, nil
}

// SendSignal formats the event and sends it to the configured chat.
func (n *TelegramNotifier) SendSignal(event *models.SignalEvent) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatSignalMessage(event))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

// FormatSignalMessage builds the Markdown alert text for a signal.
func FormatSignalMessage(event *models.SignalEvent) string {
	return fmt.Sprintf(`*%s* 🎯

📊 *Pair:* `+"`%s`"+`
💰 *Price:* `+"`%.6f`"+`
🎯 *TP:* `+"`%.6f`"+`
🛑 *SL:* `+"`%.6f`"+`

📈 *Indicators:*
• RSI: `+"`%.2f`"+`
• EMA short: `+"`%.6f`"+`
• EMA long: `+"`%.6f`"+`
• Volume: `+"`%.0f`"+` (avg: `+"`%.0f`"+`)

⏰ *Timeframe:* %s
🕐 *Time:* %s UTC`,
		event.Direction.Label(),
		event.Symbol,
		event.Price,
		event.TakeProfit,
		event.StopLoss,
		event.RSI,
		event.EMAShort,
		event.EMALong,
		event.Volume,
		event.VolumeAvg,
		event.Timeframe,
		event.Timestamp.UTC().Format("2006-01-02 15:04:05"),
	)
}
