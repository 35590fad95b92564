package notion

import (
	"strings"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	"github.com/julianstephens/journalbot/internal/constants"
)

const (
	BlockHeading1  = string(notionapi.BlockTypeHeading1)
	BlockHeading2  = string(notionapi.BlockTypeHeading2)
	BlockHeading3  = string(notionapi.BlockTypeHeading3)
	BlockParagraph = string(notionapi.BlockTypeParagraph)
	BlockImage     = string(notionapi.BlockTypeImage)
)

// Block is the flattened view of a top-level block the diary reads and
// writes. Text is set for headings and paragraphs, URL for external images.
type Block struct {
	ID   string
	Type string
	Text string
	URL  string
}

// Heading builds a level-two heading block.
func Heading(text string) Block {
	return Block{Type: BlockHeading2, Text: text}
}

func Paragraph(text string) Block {
	return Block{Type: BlockParagraph, Text: text}
}

// ExternalImage builds an image block pointing at url.
func ExternalImage(url string) Block {
	return Block{Type: BlockImage, URL: url}
}

// IsHeading reports whether b is a heading of any level.
func (b Block) IsHeading() bool {
	switch b.Type {
	case BlockHeading1, BlockHeading2, BlockHeading3:
		return true
	}
	return false
}

func (b Block) PlainText() string {
	return b.Text
}

func basic(t notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: t}
}

// toAPI converts a block for a create or append request. Only the block
// types the diary writes are supported.
func toAPI(b Block) notionapi.Block {
	switch b.Type {
	case BlockHeading1:
		return &notionapi.Heading1Block{BasicBlock: basic(notionapi.BlockTypeHeading1), Heading1: notionapi.Heading{RichText: RichTexts(b.Text)}}
	case BlockHeading3:
		return &notionapi.Heading3Block{BasicBlock: basic(notionapi.BlockTypeHeading3), Heading3: notionapi.Heading{RichText: RichTexts(b.Text)}}
	case BlockImage:
		return &notionapi.ImageBlock{
			BasicBlock: basic(notionapi.BlockTypeImage),
			Image: notionapi.Image{
				Caption:  []notionapi.RichText{},
				Type:     notionapi.FileTypeExternal,
				External: &notionapi.FileObject{URL: b.URL},
			},
		}
	case BlockParagraph:
		return &notionapi.ParagraphBlock{BasicBlock: basic(notionapi.BlockTypeParagraph), Paragraph: notionapi.Paragraph{RichText: RichTexts(b.Text)}}
	}
	return &notionapi.Heading2Block{BasicBlock: basic(notionapi.BlockTypeHeading2), Heading2: notionapi.Heading{RichText: RichTexts(b.Text)}}
}

func toAPIBlocks(blocks []Block) []notionapi.Block {
	out := make([]notionapi.Block, len(blocks))
	for i, b := range blocks {
		out[i] = toAPI(b)
	}
	return out
}

// fromAPI flattens a block read back from a page. Block types the diary
// does not understand keep their type and id only.
func fromAPI(b notionapi.Block) Block {
	out := Block{ID: string(b.GetID()), Type: string(b.GetType())}
	switch v := b.(type) {
	case *notionapi.Heading1Block:
		out.Text = joinRuns(v.Heading1.RichText)
	case *notionapi.Heading2Block:
		out.Text = joinRuns(v.Heading2.RichText)
	case *notionapi.Heading3Block:
		out.Text = joinRuns(v.Heading3.RichText)
	case *notionapi.ParagraphBlock:
		out.Text = joinRuns(v.Paragraph.RichText)
	case *notionapi.ImageBlock:
		if v.Image.External != nil {
			out.URL = v.Image.External.URL
		}
	}
	return out
}

// joinRuns concatenates every run, preferring the API's plain text.
func joinRuns(runs []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range runs {
		switch {
		case rt.PlainText != "":
			sb.WriteString(rt.PlainText)
		case rt.Text != nil:
			sb.WriteString(rt.Text.Content)
		}
	}
	return sb.String()
}

// RichTexts splits text into runs the API accepts. An empty string yields
// no runs.
func RichTexts(text string) []notionapi.RichText {
	runs := []notionapi.RichText{}
	for len(text) > 0 {
		cut := len(text)
		if utf8.RuneCountInString(text) > constants.NotionMaxTextRun {
			cut = 0
			for i := 0; i < constants.NotionMaxTextRun; i++ {
				_, size := utf8.DecodeRuneInString(text[cut:])
				cut += size
			}
		}
		runs = append(runs, notionapi.RichText{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: text[:cut]}})
		text = text[cut:]
	}
	return runs
}

type (
	Properties = notionapi.Properties
	Property   = notionapi.Property
)

func TitleProperty(text string) Property {
	return notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: RichTexts(text)}
}

func TagsProperty(tags ...string) Property {
	opts := make([]notionapi.Option, len(tags))
	for i, t := range tags {
		opts[i] = notionapi.Option{Name: t}
	}
	return notionapi.MultiSelectProperty{Type: notionapi.PropertyTypeMultiSelect, MultiSelect: opts}
}

func CheckboxProperty(v bool) Property {
	return notionapi.CheckboxProperty{Type: notionapi.PropertyTypeCheckbox, Checkbox: v}
}

// EmojiIcon returns nil for an empty emoji so the icon is left untouched.
func EmojiIcon(emoji string) *notionapi.Icon {
	if emoji == "" {
		return nil
	}
	e := notionapi.Emoji(emoji)
	return &notionapi.Icon{Type: "emoji", Emoji: &e}
}

// pageIcon returns the emoji of a page icon, or "" for file icons.
func pageIcon(icon *notionapi.Icon) string {
	if icon == nil || icon.Type != "emoji" || icon.Emoji == nil {
		return ""
	}
	return string(*icon.Emoji)
}
