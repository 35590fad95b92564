// Package synchronizer turns collected drafts into diary pages and merges
// later amendments into them.
//
// Every heading this package writes is immediately followed by exactly one
// paragraph; PatchField relies on that to find a section's text.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/journalbot/internal/clock"
	"github.com/julianstephens/journalbot/internal/constants"
	"github.com/julianstephens/journalbot/internal/index"
	"github.com/julianstephens/journalbot/internal/logger"
	"github.com/julianstephens/journalbot/internal/models"
	"github.com/julianstephens/journalbot/internal/notion"
	"github.com/julianstephens/journalbot/internal/utils"
)

var (
	// ErrEntryExists is returned by Commit when today already has a page.
	ErrEntryExists = errors.New("an entry already exists for today")
	// ErrDocumentRead is returned when a page's blocks cannot be fetched.
	ErrDocumentRead = errors.New("could not read the diary page")
)

// DocumentClient is the document store the synchronizer writes to.
type DocumentClient interface {
	CreatePage(ctx context.Context, props notion.Properties, icon string, children []notion.Block) (string, error)
	PatchPageProperties(ctx context.Context, pageID string, props notion.Properties, icon string) error
	AppendBlocks(ctx context.Context, pageID string, blocks []notion.Block) error
	QueryBlocks(ctx context.Context, pageID string) ([]notion.Block, error)
	UpdateParagraph(ctx context.Context, blockID, text string) error
}

// MergeResult says how PatchField placed the new text.
type MergeResult int

const (
	// Merged means the text was joined onto the section's paragraph.
	Merged MergeResult = iota
	// Appended means a new heading and paragraph were added at the end.
	Appended
)

// Headings maps each free-text field to its section heading.
var Headings = map[models.Field]string{
	models.FieldMemorable: constants.HeadingMemorable,
	models.FieldGrateful:  constants.HeadingGrateful,
	models.FieldWorries:   constants.HeadingWorries,
}

type Synchronizer struct {
	docs  DocumentClient
	index *index.Index
	clock clock.Clock
	loc   *time.Location
	tag   string
}

func New(docs DocumentClient, idx *index.Index, clk clock.Clock, loc *time.Location, tag string) *Synchronizer {
	if tag == "" {
		tag = constants.DefaultDiaryTag
	}
	return &Synchronizer{docs: docs, index: idx, clock: clk, loc: loc, tag: tag}
}

// Today returns the date key for the current day in the configured zone.
func (s *Synchronizer) Today() string {
	return utils.DateKey(s.clock.Now(), s.loc)
}

// TodayEntry returns today's indexed entry, if any.
func (s *Synchronizer) TodayEntry() (models.DiaryEntry, bool) {
	return s.index.Get(s.Today())
}

// Commit creates today's page from a finished draft and registers it.
// It refuses without touching the document store if today already has an
// entry.
func (s *Synchronizer) Commit(ctx context.Context, d *models.Draft) (string, error) {
	now := s.clock.Now()
	date := utils.DateKey(now, s.loc)
	if s.index.Has(date) {
		return "", ErrEntryExists
	}

	props := notion.Properties{
		constants.PropertyTitle:  notion.TitleProperty(utils.PageTitle(now, s.loc)),
		constants.PropertyTags:   notion.TagsProperty(s.tag),
		constants.PropertyPhotos: notion.CheckboxProperty(len(d.Photos) > 0),
	}
	for name, v := range flagProperties(d.Flags) {
		props[name] = v
	}

	id, createErr := s.docs.CreatePage(ctx, props, d.Icon, pageBlocks(d))
	if id == "" {
		if createErr == nil {
			createErr = errors.New("no page id returned")
		}
		return "", fmt.Errorf("create page: %w", createErr)
	}
	logger.Info("diary page created", "date", date, "page", id, "photos", len(d.Photos))

	// A page that exists remotely is registered even when its content is
	// incomplete, so a retry cannot create a second page for the date.
	entry := models.DiaryEntry{Date: date, DocumentID: id, Icon: d.Icon, CreatedAt: now.UTC(), UpdatedAt: now.UTC()}
	if _, err := s.index.Add(ctx, entry); err != nil {
		s.index.Remember(entry)
		logger.Error("diary page not persisted to index", "date", date, "page", id, "error", err)
		if createErr == nil {
			createErr = fmt.Errorf("page %s created but not indexed: %w", id, err)
		}
	}
	if createErr != nil {
		return id, fmt.Errorf("create page: %w", createErr)
	}
	return id, nil
}

func pageBlocks(d *models.Draft) []notion.Block {
	var blocks []notion.Block
	for _, f := range models.TextFields {
		if text := d.Text(f); text != "" {
			blocks = append(blocks, notion.Heading(Headings[f]), notion.Paragraph(text))
		}
	}
	if len(d.Photos) > 0 {
		blocks = append(blocks, notion.Heading(constants.HeadingPhotos))
		for _, ref := range d.Photos {
			blocks = append(blocks, notion.ExternalImage(ref))
		}
	}
	return blocks
}

func flagProperties(f models.Flags) notion.Properties {
	return notion.Properties{
		constants.PropertyS:             notion.CheckboxProperty(f.S),
		constants.PropertySleepSeparate: notion.CheckboxProperty(f.SleepSeparate),
		constants.PropertyTears:         notion.CheckboxProperty(f.Tears),
	}
}

// PatchField adds text to a section of an existing page. If the block right
// after the section heading is a paragraph, the new text is joined onto it
// after a blank line; otherwise a fresh heading and paragraph are appended.
func (s *Synchronizer) PatchField(ctx context.Context, pageID string, field models.Field, text string) (MergeResult, error) {
	heading, ok := Headings[field]
	if !ok {
		return 0, fmt.Errorf("unknown field %q", field)
	}

	blocks, err := s.docs.QueryBlocks(ctx, pageID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDocumentRead, err)
	}

	if target, ok := paragraphAfter(blocks, heading); ok {
		merged := target.PlainText() + "\n\n" + text
		if err := s.docs.UpdateParagraph(ctx, target.ID, merged); err != nil {
			return 0, fmt.Errorf("update %q: %w", heading, err)
		}
		return Merged, nil
	}

	if err := s.docs.AppendBlocks(ctx, pageID, []notion.Block{notion.Heading(heading), notion.Paragraph(text)}); err != nil {
		return 0, fmt.Errorf("append %q: %w", heading, err)
	}
	return Appended, nil
}

// paragraphAfter finds the first heading titled heading and returns the
// block after it when that block is a paragraph.
func paragraphAfter(blocks []notion.Block, heading string) (notion.Block, bool) {
	for i, b := range blocks {
		if !b.IsHeading() || b.PlainText() != heading {
			continue
		}
		if i+1 < len(blocks) && blocks[i+1].Type == notion.BlockParagraph {
			return blocks[i+1], true
		}
		return notion.Block{}, false
	}
	return notion.Block{}, false
}

// PatchProperties overwrites the three day flags, and the icon when one is
// given. Repeating the call has no further effect.
func (s *Synchronizer) PatchProperties(ctx context.Context, pageID string, flags models.Flags, icon string) error {
	if err := s.docs.PatchPageProperties(ctx, pageID, flagProperties(flags), icon); err != nil {
		return fmt.Errorf("patch properties: %w", err)
	}
	return nil
}

// PatchIcon sets only the page icon and mirrors it in the index.
func (s *Synchronizer) PatchIcon(ctx context.Context, date, pageID, icon string) error {
	if err := s.docs.PatchPageProperties(ctx, pageID, nil, icon); err != nil {
		return fmt.Errorf("patch icon: %w", err)
	}
	if err := s.index.SetIcon(ctx, date, icon); err != nil {
		return fmt.Errorf("index icon: %w", err)
	}
	return nil
}

// PatchPhotos appends one image per ref and marks the page as having photos.
func (s *Synchronizer) PatchPhotos(ctx context.Context, pageID string, refs []string) error {
	if len(refs) == 0 {
		return nil
	}
	blocks := make([]notion.Block, len(refs))
	for i, ref := range refs {
		blocks[i] = notion.ExternalImage(ref)
	}
	if err := s.docs.AppendBlocks(ctx, pageID, blocks); err != nil {
		return fmt.Errorf("append photos: %w", err)
	}
	photos := notion.Properties{constants.PropertyPhotos: notion.CheckboxProperty(true)}
	if err := s.docs.PatchPageProperties(ctx, pageID, photos, ""); err != nil {
		return fmt.Errorf("mark photos: %w", err)
	}
	return nil
}
