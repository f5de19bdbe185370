package notify

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/polyai/polytrader/internal/journal"
	"github.com/polyai/polytrader/internal/logger"
)

// sender is the slice of the Telegram bot API the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers best-effort outbound alerts to a single Telegram chat.
// Delivery is at-most-once: failures are logged and reported as false,
// never raised.
type Notifier struct {
	bot    sender
	chatID int64
	logger *logger.Logger
}

// New builds a notifier. With an empty token or zero chat id the notifier
// is disabled and Send returns false without network I/O.
func New(botToken string, chatID int64, log *logger.Logger) *Notifier {
	n := &Notifier{chatID: chatID, logger: log}
	if botToken == "" || chatID == 0 {
		return n
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Error("telegram bot init failed, notifications disabled", "error", err)
		return n
	}
	log.Info("telegram notifier connected", "username", bot.Self.UserName)
	n.bot = bot
	return n
}

func (n *Notifier) Enabled() bool {
	return n.bot != nil && n.chatID != 0
}

// Send delivers one message and reports whether delivery succeeded.
func (n *Notifier) Send(text string) bool {
	if !n.Enabled() {
		return false
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("send telegram message", "error", err)
		return false
	}
	return true
}

func (n *Notifier) TradeTaken(question, tokenID string, amount decimal.Decimal, ts time.Time) bool {
	return n.Send(FormatTradeTaken(question, tokenID, amount, ts))
}

func (n *Notifier) TradeResult(question string, result journal.Result) bool {
	return n.Send(FormatTradeResult(question, result))
}

// FormatTradeTaken renders the trade-taken alert. Pure function of its
// inputs so it can be asserted without network access.
func FormatTradeTaken(question, tokenID string, amount decimal.Decimal, ts time.Time) string {
	return fmt.Sprintf("✅ Trade taken\n• Market: %s\n• Token: %s\n• Size: $%s\n• Time: %s",
		question, tokenID, amount.StringFixed(2), ts.UTC().Format("2006-01-02 15:04:05 UTC"))
}

// FormatTradeResult renders the settlement alert with a distinct marker for
// wins versus everything else.
func FormatTradeResult(question string, result journal.Result) string {
	marker := "⚠️"
	if result == journal.ResultWin {
		marker = "🏆"
	}
	return fmt.Sprintf("%s Trade %s\n• Market: %s", marker, result, question)
}
