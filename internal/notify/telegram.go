package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends alerts as chat messages to a fixed chat.
type TelegramNotifier struct {
	token    string
	chatID   int64
	endpoint string
	client   *http.Client
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
// timeout bounds each Bot API request.
func NewTelegramNotifier(token string, chatID int64, timeout time.Duration) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TelegramNotifier{
		token:    token,
		chatID:   chatID,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// ctxClient attaches ctx to every Bot API request, which tgbotapi does not.
type ctxClient struct {
	ctx    context.Context
	client *http.Client
}

func (c ctxClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}

// Notify authorizes the bot and sends the alert text. The bot is created per
// call because the network is only up while notifying.
func (t *TelegramNotifier) Notify(ctx context.Context, a Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, ctxClient{ctx: ctx, client: t.client})
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatMessage(a))
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
