// Package telegram implements chat.Transport over the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/julianstephens/journalbot/internal/chat"
	"github.com/julianstephens/journalbot/internal/constants"
	apperrors "github.com/julianstephens/journalbot/internal/errors"
	"github.com/julianstephens/journalbot/internal/logger"
)

// API is the subset of *tgbotapi.BotAPI the transport uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Transport serves exactly one chat. Updates from any other chat are
// dropped before they reach the bot.
type Transport struct {
	api    API
	chatID int64
}

// New connects to Telegram with the given bot token.
func New(token string, chatID int64) (*Transport, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", classify(err))
	}
	logger.Info("connected to telegram", "bot", api.Self.UserName)
	return NewWithAPI(api, chatID), nil
}

// NewWithAPI wraps an existing API client.
func NewWithAPI(api API, chatID int64) *Transport {
	return &Transport{api: api, chatID: chatID}
}

func (t *Transport) ChatID() int64 {
	return t.chatID
}

// Updates long-polls Telegram until ctx is cancelled. The returned channel
// is closed once polling stops.
func (t *Transport) Updates(ctx context.Context) (<-chan chat.Event, error) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = constants.TelegramPollTimeout
	updates := t.api.GetUpdatesChan(cfg)

	out := make(chan chat.Event)
	go func() {
		defer close(out)
		defer t.api.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				ev, ok := t.convert(u)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// convert maps an update to an event. Updates that are not from the
// principal, or carry nothing the bot understands, are dropped.
func (t *Transport) convert(u tgbotapi.Update) (chat.Event, bool) {
	if cb := u.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != t.chatID {
			logger.Debug("dropping callback from unknown chat", "data", cb.Data)
			return chat.Event{}, false
		}
		// Answer right away so the client stops showing a spinner.
		if _, err := t.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			logger.Debug("failed to answer callback", "error", err)
		}
		return chat.Callback(cb.Data, cb.Message.MessageID), true
	}

	msg := u.Message
	if msg == nil {
		return chat.Event{}, false
	}
	if msg.Chat == nil || msg.Chat.ID != t.chatID {
		logger.Debug("dropping message from unknown chat")
		return chat.Event{}, false
	}

	switch {
	case msg.IsCommand():
		return chat.Command(msg.Command()), true
	case len(msg.Photo) > 0:
		best := largestPhoto(msg.Photo)
		url, err := t.api.GetFileDirectURL(best.FileID)
		if err != nil {
			logger.Warn("failed to resolve photo url", "file", best.FileID, "error", err)
			return chat.Event{}, false
		}
		return chat.Photo(url), true
	case msg.Text != "":
		return chat.Text(msg.Text), true
	}
	return chat.Event{}, false
}

func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, p := range sizes[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}

// Send delivers r to the principal.
func (t *Transport) Send(ctx context.Context, r chat.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.api.Send(t.chattable(r))
	if err != nil && isNotModified(err) {
		return nil
	}
	return classify(err)
}

func (t *Transport) chattable(r chat.Reply) tgbotapi.Chattable {
	if r.EditMessageID != 0 {
		edit := tgbotapi.NewEditMessageText(t.chatID, r.EditMessageID, r.Text)
		if len(r.Buttons) > 0 {
			markup := inlineKeyboard(r.Buttons)
			edit.ReplyMarkup = &markup
		}
		return edit
	}

	msg := tgbotapi.NewMessage(t.chatID, r.Text)
	switch {
	case len(r.Buttons) > 0:
		msg.ReplyMarkup = inlineKeyboard(r.Buttons)
	case len(r.Options) > 0:
		msg.ReplyMarkup = replyKeyboard(r.Options)
	case r.RemoveOptions:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	return msg
}

func inlineKeyboard(rows [][]chat.Button) tgbotapi.InlineKeyboardMarkup {
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		kb = append(kb, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}

func replyKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(options))
	for _, o := range options {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(o)))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	return kb
}

func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) &&
		apiErr.Code == http.StatusBadRequest &&
		strings.Contains(apiErr.Message, "message is not modified")
}

// classify marks errors worth retrying: network failures, rate limits and
// server-side errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return apperrors.Transient(err)
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Transient(err)
	}
	return err
}
