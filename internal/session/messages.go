package session

import (
	"fmt"

	"github.com/julianstephens/journalbot/internal/chat"
	"github.com/julianstephens/journalbot/internal/models"
)

// Quick replies
const (
	OptionUpdate = "Yes, update it"
	OptionCancel = "No, cancel"
	OptionSkip   = "Skip"
	OptionDone   = "Done"
)

// Callback data
const (
	ToggleS        = "toggle_s"
	ToggleSleep    = "toggle_sleep"
	ToggleTears    = "toggle_tears"
	DoneCheckboxes = "done_checkboxes"

	MenuMemorable  = "update_memorable"
	MenuGrateful   = "update_grateful"
	MenuWorries    = "update_worries"
	MenuPhotos     = "update_photos"
	MenuCheckboxes = "update_checkboxes"
	MenuEmoji      = "update_emoji"
	MenuFinish     = "finish_updating"
)

const (
	msgAlreadyWritten = "You've already made an entry for today. Would you like to update it?"
	msgWelcome        = "Hi! Let's get started with today's entry.\n\nHow was the day? You can write down anything you want here."
	msgKeepEntry      = "Okay, I won't change anything."
	msgAskGrateful    = "Thank you. Now, what are you grateful for today?"
	msgAskWorries     = "Got it. Anything you're worried about? You can type 'none' if not."
	msgAskCheckboxes  = "Set your options for today:"
	msgCheckboxesDone = "Checkboxes saved!"
	msgAskEmoji       = "Would you like to add an emoji icon for today's entry? If so, send one now. Otherwise, press Skip."
	msgSkipEmoji      = "No problem, skipping the icon."
	msgBadEmoji       = "That doesn't look like a single emoji. Let's skip it for now."
	msgAskPhotos      = "You can now send photos for today. Select multiple from your gallery or send them one by one. Press 'Done' when you're finished."
	msgPhotoAdded     = "Photo added! Send another, or press 'Done'."
	msgPhotosAdded    = "Pics added!"
	msgNoNewPhotos    = "No new pics this time."
	msgSaved          = "I've saved your new diary entry to Notion. Talk to you tomorrow!"
	msgAlreadySaved   = "Today's entry already exists, so I didn't create another one. Send /start to update it."
	msgMenu           = "What would you like to update?"
	msgFinished       = "All done. Your entry has been updated!"
	msgCancelled      = "Okay, cancelled."
	msgReadFailed     = "Could not retrieve the entry from Notion to update. Nothing was changed, you can try again."

	msgSaveFailed       = "I couldn't save your entry to Notion. Please try again later."
	msgSaveFlagsFailed  = "I couldn't save the checkboxes to Notion."
	msgSaveIconFailed   = "I couldn't save the icon to Notion."
	msgSavePhotosFailed = "I couldn't add the pics to Notion."
	msgSaveTextFailed   = "I couldn't save that to Notion."
)

var updatePrompts = map[models.Field]string{
	models.FieldMemorable: "Okay, send me the new text to add for the 'How was the day?' section.",
	models.FieldGrateful:  "Got it. What new things are you grateful for today?",
	models.FieldWorries:   "Okay, what worries would you like to add?",
}

func sectionUpdated(heading string) string {
	return fmt.Sprintf("'%s' section updated!", heading)
}

func sectionAppended(heading string) string {
	return fmt.Sprintf("Couldn't find the original section, so I added a new '%s' section!", heading)
}

func iconSet(icon string) string {
	return fmt.Sprintf("Icon set to %s!", icon)
}

func mark(on bool) string {
	if on {
		return "✅"
	}
	return "⬜️"
}

func checkboxButtons(f models.Flags) [][]chat.Button {
	return [][]chat.Button{
		{{Label: mark(f.S) + " S", Data: ToggleS}},
		{{Label: mark(f.SleepSeparate) + " Sleep separate", Data: ToggleSleep}},
		{{Label: mark(f.Tears) + " Tears", Data: ToggleTears}},
		{{Label: "Continue ➡️", Data: DoneCheckboxes}},
	}
}

var menuButtons = [][]chat.Button{
	{{Label: "📝 Edit 'How was the day?'", Data: MenuMemorable}},
	{{Label: "🙏 Edit 'Grateful for'", Data: MenuGrateful}},
	{{Label: "😟 Edit Worries", Data: MenuWorries}},
	{{Label: "🖼️ Add Pics", Data: MenuPhotos}},
	{{Label: "☑️ Edit Checkboxes", Data: MenuCheckboxes}},
	{{Label: "🙂 Edit Emoji", Data: MenuEmoji}},
	{{Label: "✅ Finish Updating", Data: MenuFinish}},
}
