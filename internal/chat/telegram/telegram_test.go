package telegram

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/julianstephens/journalbot/internal/chat"
	apperrors "github.com/julianstephens/journalbot/internal/errors"
)

const principal int64 = 42

type fakeAPI struct {
	updates  chan tgbotapi.Update
	sent     []tgbotapi.Chattable
	answered []string
	sendErr  error
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() { f.stopped = true }

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.answered = append(f.answered, cb.CallbackQueryID)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	if fileID == "broken" {
		return "", errors.New("file not found")
	}
	return "https://files.example/" + fileID, nil
}

func message(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}}
}

func command(chatID int64, name string) tgbotapi.Update {
	u := message(chatID, "/"+name)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name) + 1}}
	return u
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name   string
		update tgbotapi.Update
		want   chat.Event
		ok     bool
	}{
		{"text", message(principal, "a quiet day"), chat.Text("a quiet day"), true},
		{"command", command(principal, "start"), chat.Command("start"), true},
		{"stranger text", message(7, "hello"), chat.Event{}, false},
		{"stranger command", command(7, "start"), chat.Event{}, false},
		{"empty update", tgbotapi.Update{}, chat.Event{}, false},
		{
			"photo picks largest size",
			tgbotapi.Update{Message: &tgbotapi.Message{
				Chat: &tgbotapi.Chat{ID: principal},
				Photo: []tgbotapi.PhotoSize{
					{FileID: "small", Width: 90, Height: 60},
					{FileID: "large", Width: 1280, Height: 960},
					{FileID: "medium", Width: 320, Height: 240},
				},
			}},
			chat.Photo("https://files.example/large"),
			true,
		},
		{
			"unresolvable photo",
			tgbotapi.Update{Message: &tgbotapi.Message{
				Chat:  &tgbotapi.Chat{ID: principal},
				Photo: []tgbotapi.PhotoSize{{FileID: "broken", Width: 10, Height: 10}},
			}},
			chat.Event{},
			false,
		},
		{
			"callback",
			tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb1",
				Data:    "toggle_s",
				Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: principal}},
			}},
			chat.Callback("toggle_s", 99),
			true,
		},
		{
			"stranger callback",
			tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb2",
				Data:    "toggle_s",
				Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: 7}},
			}},
			chat.Event{},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewWithAPI(newFakeAPI(), principal)
			got, ok := tr.convert(tt.update)
			if ok != tt.ok {
				t.Fatalf("convert() ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("convert() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCallbackIsAnswered(t *testing.T) {
	api := newFakeAPI()
	tr := NewWithAPI(api, principal)
	tr.convert(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "done_checkboxes",
		Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: principal}},
	}})
	if len(api.answered) != 1 || api.answered[0] != "cb1" {
		t.Errorf("answered = %v, want [cb1]", api.answered)
	}
}

func TestUpdatesStream(t *testing.T) {
	api := newFakeAPI()
	tr := NewWithAPI(api, principal)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := tr.Updates(ctx)
	if err != nil {
		t.Fatalf("Updates() failed: %v", err)
	}
	api.updates <- message(7, "ignored")
	api.updates <- message(principal, "hello")

	select {
	case ev := <-events:
		if ev != chat.Text("hello") {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Error("channel should be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestSendMarkup(t *testing.T) {
	api := newFakeAPI()
	tr := NewWithAPI(api, principal)
	ctx := context.Background()

	replies := []chat.Reply{
		{Text: "plain"},
		{Text: "options", Options: []string{"Yes, update it", "No, cancel"}},
		{Text: "buttons", Buttons: [][]chat.Button{{{Label: "S", Data: "toggle_s"}}, {{Label: "Go", Data: "done"}}}},
		{Text: "remove", RemoveOptions: true},
		{Text: "edit", EditMessageID: 12, Buttons: [][]chat.Button{{{Label: "S", Data: "toggle_s"}}}},
	}
	for _, r := range replies {
		if err := tr.Send(ctx, r); err != nil {
			t.Fatalf("Send(%q) failed: %v", r.Text, err)
		}
	}

	plain := api.sent[0].(tgbotapi.MessageConfig)
	if plain.ChatID != principal || plain.Text != "plain" || plain.ReplyMarkup != nil {
		t.Errorf("plain message = %+v", plain)
	}

	opts := api.sent[1].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if len(opts.Keyboard) != 2 || opts.Keyboard[1][0].Text != "No, cancel" || !opts.OneTimeKeyboard {
		t.Errorf("reply keyboard = %+v", opts)
	}

	inline := api.sent[2].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if len(inline.InlineKeyboard) != 2 || *inline.InlineKeyboard[0][0].CallbackData != "toggle_s" {
		t.Errorf("inline keyboard = %+v", inline)
	}

	if _, ok := api.sent[3].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardRemove); !ok {
		t.Errorf("expected keyboard removal, got %T", api.sent[3].(tgbotapi.MessageConfig).ReplyMarkup)
	}

	edit := api.sent[4].(tgbotapi.EditMessageTextConfig)
	if edit.MessageID != 12 || edit.ChatID != principal || edit.ReplyMarkup == nil {
		t.Errorf("edit = %+v", edit)
	}
}

func TestSendErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantErr   bool
		transient bool
	}{
		{"ok", nil, false, false},
		{"rate limited", &tgbotapi.Error{Code: 429, Message: "Too Many Requests"}, true, true},
		{"server error", &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}, true, true},
		{"chat not found", &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, true, false},
		{"not modified", &tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"}, false, false},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true, true},
		{"other", errors.New("boom"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.sendErr = tt.err
			err := NewWithAPI(api, principal).Send(context.Background(), chat.Reply{Text: "x"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := apperrors.IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.transient)
			}
		})
	}
}

func TestSendCancelled(t *testing.T) {
	api := newFakeAPI()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewWithAPI(api, principal).Send(ctx, chat.Reply{Text: "x"}); err == nil {
		t.Error("Send() should fail on a cancelled context")
	}
	if len(api.sent) != 0 {
		t.Error("nothing should be sent on a cancelled context")
	}
}
