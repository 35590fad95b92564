package models

// Field names a free-text section of a diary page.
type Field string

const (
	FieldMemorable Field = "memorable"
	FieldGrateful  Field = "grateful"
	FieldWorries   Field = "worries"
)

// TextFields is the order sections are written to a new page.
var TextFields = []Field{FieldMemorable, FieldGrateful, FieldWorries}

// Flags are the three independent day checkboxes.
type Flags struct {
	S             bool `json:"s"`
	SleepSeparate bool `json:"sleep_separate"`
	Tears         bool `json:"tears"`
}

// Draft collects one conversation's answers. It lives only as long as the
// conversation and is never persisted.
type Draft struct {
	Memorable string
	Grateful  string
	Worries   string
	Photos    []string
	Flags     Flags
	Icon      string

	isUpdate bool
}

// NewDraft starts a draft. updateMode is fixed for the draft's lifetime and
// selects the terminal action: page creation or patching the existing page.
func NewDraft(updateMode bool) *Draft {
	return &Draft{isUpdate: updateMode}
}

// IsUpdateMode reports whether the draft amends an existing page.
func (d *Draft) IsUpdateMode() bool {
	return d.isUpdate
}

// Text returns the draft's value for a free-text field.
func (d *Draft) Text(f Field) string {
	switch f {
	case FieldMemorable:
		return d.Memorable
	case FieldGrateful:
		return d.Grateful
	case FieldWorries:
		return d.Worries
	}
	return ""
}

// SetText stores text for a free-text field.
func (d *Draft) SetText(f Field, text string) {
	switch f {
	case FieldMemorable:
		d.Memorable = text
	case FieldGrateful:
		d.Grateful = text
	case FieldWorries:
		d.Worries = text
	}
}

// AddPhoto appends a photo reference. Photos are never removed.
func (d *Draft) AddPhoto(ref string) {
	d.Photos = append(d.Photos, ref)
}

// PhotosSince returns the photos added after the first n.
func (d *Draft) PhotosSince(n int) []string {
	if n >= len(d.Photos) {
		return nil
	}
	return d.Photos[n:]
}
