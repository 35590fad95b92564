package session

// State is a position in the diary conversation.
type State int

const (
	Idle State = iota
	AskingResumeOrNew
	Memorable
	Grateful
	Worries
	Checkboxes
	Emoji
	Photos
	UpdateMenu
	UpdateMemorable
	UpdateGrateful
	UpdateWorries
	Ended
)

var stateNames = [...]string{
	Idle:              "idle",
	AskingResumeOrNew: "asking_resume_or_new",
	Memorable:         "memorable",
	Grateful:          "grateful",
	Worries:           "worries",
	Checkboxes:        "checkboxes",
	Emoji:             "emoji",
	Photos:            "photos",
	UpdateMenu:        "update_menu",
	UpdateMemorable:   "update_memorable",
	UpdateGrateful:    "update_grateful",
	UpdateWorries:     "update_worries",
	Ended:             "ended",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Active reports whether a conversation is in progress.
func (s State) Active() bool {
	return s != Idle && s != Ended
}
