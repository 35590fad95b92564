// Package chat defines the transport-neutral messages exchanged with the
// diary's single user.
package chat

import (
	"context"

	apperrors "github.com/julianstephens/journalbot/internal/errors"
)

type EventKind int

const (
	EventText EventKind = iota
	EventPhoto
	EventCallback
	EventCommand
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventPhoto:
		return "photo"
	case EventCallback:
		return "callback"
	case EventCommand:
		return "command"
	}
	return "unknown"
}

// Event is one inbound message or button press from the principal.
type Event struct {
	Kind      EventKind
	Text      string // EventText
	Command   string // EventCommand, without the leading slash
	Data      string // EventCallback
	PhotoRef  string // EventPhoto, a fetchable URL
	MessageID int    // message that carried the pressed button
}

func Text(s string) Event { return Event{Kind: EventText, Text: s} }

func Command(name string) Event { return Event{Kind: EventCommand, Command: name} }

func Photo(ref string) Event { return Event{Kind: EventPhoto, PhotoRef: ref} }

func Callback(data string, messageID int) Event {
	return Event{Kind: EventCallback, Data: data, MessageID: messageID}
}

// Button is one inline button; Data comes back as a callback event.
type Button struct {
	Label string
	Data  string
}

// Reply is one outbound message.
//
// Options are quick replies shown one per row that send their label as
// text. Buttons are inline rows. When EditMessageID is set the reply
// replaces the text and buttons of that earlier message instead.
type Reply struct {
	Text          string
	Options       []string
	Buttons       [][]Button
	RemoveOptions bool
	EditMessageID int
}

// Transport connects the bot to a chat service.
type Transport interface {
	// Updates streams events from the principal until ctx ends.
	Updates(ctx context.Context) (<-chan Event, error)
	// Send delivers a reply to the principal.
	Send(ctx context.Context, r Reply) error
}

// IsTransient reports whether a failed Send may succeed later.
func IsTransient(err error) bool {
	return apperrors.IsTransient(err)
}
