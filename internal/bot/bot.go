package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/polyai/polytrader/internal/journal"
	"github.com/polyai/polytrader/internal/logger"
)

// api is the slice of the Telegram bot API the command loop needs. It is
// satisfied by *tgbotapi.BotAPI and by the fakes in the tests.
type api interface {
	GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Journal is the read-only view of the trade store the bot answers from.
type Journal interface {
	OpenTrades() []journal.Trade
	Recent(limit int) []journal.Trade
	PnLSummary() (pnl decimal.Decimal, wins, losses int)
}

// BalanceSource reads the wallet balance. May be nil; balance lines then
// render as n/a.
type BalanceSource interface {
	GetUSDCBalance(ctx context.Context) (decimal.Decimal, error)
}

// Bot is the operator-facing command loop over Telegram long polling.
//
// The update cursor is process-local and not persisted: within one session
// no update is dispatched twice, across restarts redelivery is possible.
// All commands are read-only, so redelivery is harmless.
type Bot struct {
	api       api
	journal   Journal
	balance   BalanceSource
	allowChat int64
	timeout   time.Duration
	backoff   time.Duration
	logger    *logger.Logger

	// sleep is injectable so tests drive the loop without real delays.
	sleep func(ctx context.Context, d time.Duration)

	offset int
}

// Options carries the tunables of the run loop.
type Options struct {
	// AllowChat restricts processing to updates from this chat id when
	// non-zero; updates from any other chat are silently dropped.
	AllowChat int64
	// PollTimeout is the server-side long-poll wait.
	PollTimeout time.Duration
	// Backoff is the fixed sleep after a failed poll.
	Backoff time.Duration
}

func New(a api, j Journal, balance BalanceSource, opts Options, log *logger.Logger) *Bot {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	return &Bot{
		api:       a,
		journal:   j,
		balance:   balance,
		allowChat: opts.AllowChat,
		timeout:   opts.PollTimeout,
		backoff:   opts.Backoff,
		logger:    log,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Run polls for updates until the context is canceled. Transport failures
// back off and retry; they never terminate the loop.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("command bot started", "poll_timeout", b.timeout.String())

	for {
		if ctx.Err() != nil {
			b.logger.Info("command bot stopped")
			return
		}

		cfg := tgbotapi.NewUpdate(b.offset)
		cfg.Timeout = int(b.timeout / time.Second)

		updates, err := b.api.GetUpdates(cfg)
		if err != nil {
			b.logger.Warn("poll failed, backing off", "error", err)
			b.sleep(ctx, b.backoff)
			continue
		}

		for _, upd := range updates {
			// The cursor advances unconditionally so a malformed update
			// is skipped rather than retried forever.
			b.offset = upd.UpdateID + 1
			b.dispatch(ctx, upd)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Always acknowledge, even for unknown or disallowed callbacks, so the
	// provider clears its pending UI state.
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Warn("answer callback query", "error", err)
	}

	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	if !b.chatAllowed(chatID) {
		return
	}

	if cmd, ok := parseCommand(cq.Data); ok {
		b.reply(ctx, chatID, cmd)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || !b.chatAllowed(msg.Chat.ID) {
		return
	}

	cmd, ok := parseCommand(msg.Text)
	if !ok {
		return
	}
	b.reply(ctx, msg.Chat.ID, cmd)
}

func (b *Bot) chatAllowed(chatID int64) bool {
	return b.allowChat == 0 || chatID == b.allowChat
}

type command string

const (
	cmdHelp      command = "help"
	cmdStatus    command = "status"
	cmdBalance   command = "balance"
	cmdPositions command = "positions"
	cmdRecent    command = "recent"
	cmdPnL       command = "pnl"
)

// parseCommand maps raw text to one of the known commands. Parsing is
// case-insensitive and tolerates a @botname suffix; non-command or unknown
// text reports false and is ignored by the caller.
func parseCommand(text string) (command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}

	word := strings.Fields(text)[0]
	if at := strings.Index(word, "@"); at >= 0 {
		word = word[:at]
	}

	switch strings.ToLower(word) {
	case "/start", "/help":
		return cmdHelp, true
	case "/status":
		return cmdStatus, true
	case "/balance":
		return cmdBalance, true
	case "/positions":
		return cmdPositions, true
	case "/recent":
		return cmdRecent, true
	case "/pnl":
		return cmdPnL, true
	}
	return "", false
}

func (b *Bot) reply(ctx context.Context, chatID int64, cmd command) {
	var text string
	switch cmd {
	case cmdHelp:
		text = b.helpText()
	case cmdStatus:
		text = b.statusText(ctx)
	case cmdBalance:
		text = b.balanceText(ctx)
	case cmdPositions:
		text = b.positionsText()
	case cmdRecent:
		text = b.recentText()
	case cmdPnL:
		text = b.pnlText()
	default:
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = commandKeyboard()

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send reply", "command", string(cmd), "error", err)
	}
}

// commandKeyboard re-offers the full command set as quick-action buttons on
// every reply.
func commandKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Status", "/status"),
			tgbotapi.NewInlineKeyboardButtonData("💰 Balance", "/balance"),
			tgbotapi.NewInlineKeyboardButtonData("📈 PnL", "/pnl"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Positions", "/positions"),
			tgbotapi.NewInlineKeyboardButtonData("🕐 Recent", "/recent"),
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", "/help"),
		),
	)
}
