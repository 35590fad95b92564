// Package session runs the diary conversation: a state machine fed one
// chat event at a time that returns the replies to send.
//
// A Machine is not safe for concurrent use; the bot's event loop owns it.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/julianstephens/journalbot/internal/chat"
	"github.com/julianstephens/journalbot/internal/logger"
	"github.com/julianstephens/journalbot/internal/models"
	"github.com/julianstephens/journalbot/internal/synchronizer"
	"github.com/julianstephens/journalbot/internal/validation"
)

// Journal is the part of the synchronizer the conversation drives.
type Journal interface {
	TodayEntry() (models.DiaryEntry, bool)
	Commit(ctx context.Context, d *models.Draft) (string, error)
	PatchField(ctx context.Context, pageID string, field models.Field, text string) (synchronizer.MergeResult, error)
	PatchProperties(ctx context.Context, pageID string, flags models.Flags, icon string) error
	PatchIcon(ctx context.Context, date, pageID, icon string) error
	PatchPhotos(ctx context.Context, pageID string, refs []string) error
}

type Machine struct {
	journal Journal
	icons   validation.IconRanges

	state State
	draft *models.Draft
	// entry is today's page, captured when an update session starts.
	entry models.DiaryEntry
	// photoMark counts the draft photos that existed when Photos was entered.
	photoMark int
}

func New(journal Journal, icons validation.IconRanges) *Machine {
	if icons == nil {
		icons = validation.DefaultIconRanges()
	}
	return &Machine{journal: journal, icons: icons, state: Idle}
}

func (m *Machine) State() State {
	return m.state
}

// Draft returns the draft in progress, nil outside a conversation.
func (m *Machine) Draft() *models.Draft {
	return m.draft
}

// Handle advances the conversation by one event.
func (m *Machine) Handle(ctx context.Context, ev chat.Event) []chat.Reply {
	before := m.state
	replies := m.handle(ctx, ev)
	if m.state != before {
		logger.Debug("session transition", "from", before, "to", m.state, "event", ev.Kind)
	}
	return replies
}

func (m *Machine) handle(ctx context.Context, ev chat.Event) []chat.Reply {
	if ev.Kind == chat.EventCommand {
		switch ev.Command {
		case "start":
			return m.start()
		case "cancel":
			if !m.state.Active() {
				return nil
			}
			m.end()
			return []chat.Reply{{Text: msgCancelled, RemoveOptions: true}}
		}
		return nil
	}

	switch m.state {
	case AskingResumeOrNew:
		return m.onResumeOrNew(ev)
	case Memorable:
		return m.onText(ev, func(text string) []chat.Reply {
			m.draft.Memorable = text
			m.state = Grateful
			return []chat.Reply{{Text: msgAskGrateful}}
		})
	case Grateful:
		return m.onText(ev, func(text string) []chat.Reply {
			m.draft.Grateful = text
			m.state = Worries
			return []chat.Reply{{Text: msgAskWorries}}
		})
	case Worries:
		return m.onText(ev, func(text string) []chat.Reply {
			if !validation.IsNegativeAnswer(text) {
				m.draft.Worries = text
			}
			return m.askCheckboxes(0)
		})
	case Checkboxes:
		return m.onCheckbox(ctx, ev)
	case Emoji:
		return m.onText(ev, func(text string) []chat.Reply {
			return m.onEmoji(ctx, text)
		})
	case Photos:
		return m.onPhoto(ctx, ev)
	case UpdateMenu:
		return m.onMenu(ev)
	case UpdateMemorable:
		return m.onText(ev, func(text string) []chat.Reply {
			return m.patchField(ctx, models.FieldMemorable, text)
		})
	case UpdateGrateful:
		return m.onText(ev, func(text string) []chat.Reply {
			return m.patchField(ctx, models.FieldGrateful, text)
		})
	case UpdateWorries:
		return m.onText(ev, func(text string) []chat.Reply {
			return m.patchField(ctx, models.FieldWorries, text)
		})
	}
	return nil
}

// onText runs fn for text events and ignores everything else.
func (m *Machine) onText(ev chat.Event, fn func(string) []chat.Reply) []chat.Reply {
	if ev.Kind != chat.EventText {
		return nil
	}
	return fn(ev.Text)
}

func (m *Machine) end() {
	m.state = Ended
	m.draft = nil
	m.entry = models.DiaryEntry{}
	m.photoMark = 0
}

func (m *Machine) start() []chat.Reply {
	m.end()
	if entry, ok := m.journal.TodayEntry(); ok {
		m.entry = entry
		m.state = AskingResumeOrNew
		return []chat.Reply{{Text: msgAlreadyWritten, Options: []string{OptionUpdate, OptionCancel}}}
	}
	m.draft = models.NewDraft(false)
	m.state = Memorable
	return []chat.Reply{{Text: msgWelcome, RemoveOptions: true}}
}

func (m *Machine) onResumeOrNew(ev chat.Event) []chat.Reply {
	if ev.Kind != chat.EventText {
		return nil
	}
	switch ev.Text {
	case OptionUpdate:
		m.draft = models.NewDraft(true)
		return []chat.Reply{m.menu()}
	case OptionCancel:
		m.end()
		return []chat.Reply{{Text: msgKeepEntry, RemoveOptions: true}}
	}
	return nil
}

func (m *Machine) menu() chat.Reply {
	m.state = UpdateMenu
	return chat.Reply{Text: msgMenu, Buttons: menuButtons}
}

// askCheckboxes shows the flag buttons, replacing message editID when set.
func (m *Machine) askCheckboxes(editID int) []chat.Reply {
	m.state = Checkboxes
	return []chat.Reply{{Text: msgAskCheckboxes, Buttons: checkboxButtons(m.draft.Flags), EditMessageID: editID}}
}

func (m *Machine) onCheckbox(ctx context.Context, ev chat.Event) []chat.Reply {
	if ev.Kind != chat.EventCallback {
		return nil
	}
	f := &m.draft.Flags
	switch ev.Data {
	case ToggleS:
		f.S = !f.S
	case ToggleSleep:
		f.SleepSeparate = !f.SleepSeparate
	case ToggleTears:
		f.Tears = !f.Tears
	case DoneCheckboxes:
		replies := []chat.Reply{{Text: msgCheckboxesDone, EditMessageID: ev.MessageID}}
		if !m.draft.IsUpdateMode() {
			return append(replies, m.askEmoji())
		}
		if err := m.journal.PatchProperties(ctx, m.entry.DocumentID, m.draft.Flags, m.draft.Icon); err != nil {
			logger.Error("failed to patch checkboxes", "page", m.entry.DocumentID, "error", err)
			replies = append(replies, chat.Reply{Text: msgSaveFlagsFailed})
		}
		return append(replies, m.menu())
	default:
		return nil
	}
	return []chat.Reply{{Text: msgAskCheckboxes, Buttons: checkboxButtons(*f), EditMessageID: ev.MessageID}}
}

func (m *Machine) askEmoji() chat.Reply {
	m.state = Emoji
	return chat.Reply{Text: msgAskEmoji, Options: []string{OptionSkip}}
}

func (m *Machine) onEmoji(ctx context.Context, text string) []chat.Reply {
	var replies []chat.Reply
	icon := strings.TrimSpace(text)
	valid := false
	switch {
	case text == OptionSkip:
		replies = append(replies, chat.Reply{Text: msgSkipEmoji, RemoveOptions: true})
	case m.icons.IsValidIcon(icon):
		valid = true
		m.draft.Icon = icon
		replies = append(replies, chat.Reply{Text: iconSet(icon), RemoveOptions: true})
	default:
		replies = append(replies, chat.Reply{Text: msgBadEmoji, RemoveOptions: true})
	}

	if !m.draft.IsUpdateMode() {
		return append(replies, m.askPhotos())
	}
	if valid {
		if err := m.journal.PatchIcon(ctx, m.entry.Date, m.entry.DocumentID, icon); err != nil {
			logger.Error("failed to patch icon", "page", m.entry.DocumentID, "error", err)
			replies = append(replies, chat.Reply{Text: msgSaveIconFailed})
		}
	}
	return append(replies, m.menu())
}

func (m *Machine) askPhotos() chat.Reply {
	m.state = Photos
	m.photoMark = len(m.draft.Photos)
	return chat.Reply{Text: msgAskPhotos, Options: []string{OptionDone}}
}

func (m *Machine) onPhoto(ctx context.Context, ev chat.Event) []chat.Reply {
	switch {
	case ev.Kind == chat.EventPhoto && ev.PhotoRef != "":
		m.draft.AddPhoto(ev.PhotoRef)
		return []chat.Reply{{Text: msgPhotoAdded}}
	case ev.Kind == chat.EventText && ev.Text == OptionDone:
		if m.draft.IsUpdateMode() {
			return m.finishUpdatePhotos(ctx)
		}
		return m.commit(ctx)
	}
	return nil
}

func (m *Machine) finishUpdatePhotos(ctx context.Context) []chat.Reply {
	fresh := m.draft.PhotosSince(m.photoMark)
	m.photoMark = len(m.draft.Photos)

	reply := chat.Reply{Text: msgNoNewPhotos, RemoveOptions: true}
	if len(fresh) > 0 {
		reply.Text = msgPhotosAdded
		if err := m.journal.PatchPhotos(ctx, m.entry.DocumentID, fresh); err != nil {
			logger.Error("failed to append photos", "page", m.entry.DocumentID, "count", len(fresh), "error", err)
			reply.Text = msgSavePhotosFailed
		}
	}
	return []chat.Reply{reply, m.menu()}
}

func (m *Machine) commit(ctx context.Context) []chat.Reply {
	draft := m.draft
	m.end()

	_, err := m.journal.Commit(ctx, draft)
	switch {
	case err == nil:
		return []chat.Reply{{Text: msgSaved, Options: []string{"/start"}}}
	case errors.Is(err, synchronizer.ErrEntryExists):
		logger.Warn("commit refused, entry already exists")
		return []chat.Reply{{Text: msgAlreadySaved, RemoveOptions: true}}
	default:
		logger.Error("failed to save diary entry", "error", err)
		return []chat.Reply{{Text: msgSaveFailed, RemoveOptions: true}}
	}
}

func (m *Machine) onMenu(ev chat.Event) []chat.Reply {
	if ev.Kind != chat.EventCallback {
		return nil
	}
	switch ev.Data {
	case MenuMemorable:
		return m.askUpdate(models.FieldMemorable, UpdateMemorable)
	case MenuGrateful:
		return m.askUpdate(models.FieldGrateful, UpdateGrateful)
	case MenuWorries:
		return m.askUpdate(models.FieldWorries, UpdateWorries)
	case MenuPhotos:
		return []chat.Reply{m.askPhotos()}
	case MenuCheckboxes:
		return m.askCheckboxes(ev.MessageID)
	case MenuEmoji:
		return []chat.Reply{m.askEmoji()}
	case MenuFinish:
		m.end()
		return []chat.Reply{{Text: msgFinished, EditMessageID: ev.MessageID}}
	}
	return nil
}

func (m *Machine) askUpdate(field models.Field, next State) []chat.Reply {
	m.state = next
	return []chat.Reply{{Text: updatePrompts[field], RemoveOptions: true}}
}

func (m *Machine) patchField(ctx context.Context, field models.Field, text string) []chat.Reply {
	heading := synchronizer.Headings[field]
	var reply chat.Reply

	res, err := m.journal.PatchField(ctx, m.entry.DocumentID, field, text)
	switch {
	case errors.Is(err, synchronizer.ErrDocumentRead):
		logger.Warn("could not read page for update", "page", m.entry.DocumentID, "field", field, "error", err)
		reply.Text = msgReadFailed
	case err != nil:
		logger.Error("failed to update section", "page", m.entry.DocumentID, "field", field, "error", err)
		reply.Text = msgSaveTextFailed
	case res == synchronizer.Merged:
		m.draft.SetText(field, text)
		reply.Text = sectionUpdated(heading)
	default:
		m.draft.SetText(field, text)
		reply.Text = sectionAppended(heading)
	}
	return []chat.Reply{reply, m.menu()}
}
