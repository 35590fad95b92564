package models

import "testing"

func TestDiaryEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   DiaryEntry
		wantErr bool
	}{
		{name: "valid", entry: DiaryEntry{Date: "2025-01-02", DocumentID: "abc"}},
		{name: "valid with icon", entry: DiaryEntry{Date: "2025-01-02", DocumentID: "abc", Icon: "🌙"}},
		{name: "missing date", entry: DiaryEntry{DocumentID: "abc"}, wantErr: true},
		{name: "bad date", entry: DiaryEntry{Date: "02/01/2025", DocumentID: "abc"}, wantErr: true},
		{name: "missing document", entry: DiaryEntry{Date: "2025-01-02"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDraftTextFields(t *testing.T) {
	d := NewDraft(false)
	for _, f := range TextFields {
		d.SetText(f, string(f)+" text")
	}
	if d.Memorable != "memorable text" || d.Grateful != "grateful text" || d.Worries != "worries text" {
		t.Errorf("SetText stored %+v", d)
	}
	for _, f := range TextFields {
		if got := d.Text(f); got != string(f)+" text" {
			t.Errorf("Text(%s) = %q", f, got)
		}
	}
	if d.Text(Field("unknown")) != "" {
		t.Error("Text(unknown) should be empty")
	}
}

func TestDraftUpdateModeIsFixed(t *testing.T) {
	if NewDraft(false).IsUpdateMode() {
		t.Error("NewDraft(false).IsUpdateMode() = true")
	}
	if !NewDraft(true).IsUpdateMode() {
		t.Error("NewDraft(true).IsUpdateMode() = false")
	}
}

func TestDraftPhotosSince(t *testing.T) {
	d := NewDraft(true)
	d.AddPhoto("a")
	d.AddPhoto("b")
	mark := len(d.Photos)
	if got := d.PhotosSince(mark); got != nil {
		t.Errorf("PhotosSince(mark) before new photos = %v, want nil", got)
	}
	d.AddPhoto("c")
	got := d.PhotosSince(mark)
	if len(got) != 1 || got[0] != "c" {
		t.Errorf("PhotosSince(mark) = %v, want [c]", got)
	}
	if len(d.PhotosSince(0)) != 3 {
		t.Errorf("PhotosSince(0) = %v, want all three", d.PhotosSince(0))
	}
}
