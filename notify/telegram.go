package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender messages every chat id, or posts to the channel when no chat
// ids are configured. The bot client is created on first use so a Telegram
// outage at startup does not block the API.
type TelegramSender struct {
	token    string
	chatIDs  []int64
	channel  string
	endpoint string
	client   *http.Client

	mu  sync.Mutex
	api *tgbotapi.BotAPI
}

func NewTelegramSender(token string, chatIDs []int64, channel string, timeout time.Duration) *TelegramSender {
	return &TelegramSender{
		token:    token,
		chatIDs:  chatIDs,
		channel:  channel,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// WithEndpoint overrides the Bot API endpoint format, e.g. "http://host/bot%s/%s".
func (s *TelegramSender) WithEndpoint(endpoint string) *TelegramSender {
	s.endpoint = endpoint
	return s
}

func (s *TelegramSender) Name() string { return "telegram" }

func (s *TelegramSender) bot() (*tgbotapi.BotAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api != nil {
		return s.api, nil
	}
	api, err := tgbotapi.NewBotAPIWithClient(s.token, s.endpoint, s.client)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	s.api = api
	return api, nil
}

// Send returns once every destination was tried or ctx is done, whichever
// comes first. The bot client has no context support, so the calls run in
// their own goroutine: each is bounded by the http client timeout and no new
// chat is started after ctx is done.
func (s *TelegramSender) Send(ctx context.Context, msg Message) error {
	if len(s.chatIDs) == 0 && s.channel == "" {
		return errors.New("telegram: no chat ids or channel configured")
	}
	done := make(chan error, 1)
	go func() { done <- s.sendAll(ctx, msg.Text) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("telegram: %w", ctx.Err())
	}
}

func (s *TelegramSender) sendAll(ctx context.Context, text string) error {
	api, err := s.bot()
	if err != nil {
		return err
	}

	if len(s.chatIDs) == 0 {
		_, err := api.Send(tgbotapi.NewMessageToChannel(s.channel, text))
		if err != nil {
			return fmt.Errorf("send to %s: %w", s.channel, err)
		}
		return nil
	}

	var errs []error
	for _, chatID := range s.chatIDs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			errs = append(errs, fmt.Errorf("send to %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}
