package synchronizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/jomei/notionapi"

	"github.com/julianstephens/journalbot/internal/notion"
)

// fakeDocs is an in-memory document store.
type fakeDocs struct {
	mu     sync.Mutex
	pages  map[string]*fakePage
	nextID int

	createErr error
	// partialErr is returned together with the id of a page that was created.
	partialErr error
	queryErr   error
	patchErr   error

	creates int
	patches []patchCall
}

type fakePage struct {
	props  notion.Properties
	icon   string
	blocks []notion.Block
}

type patchCall struct {
	pageID string
	props  notion.Properties
	icon   string
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{pages: map[string]*fakePage{}}
}

func (f *fakeDocs) withBlocks(blocks ...notion.Block) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("page-%d", f.nextID)
	for i := range blocks {
		blocks[i].ID = fmt.Sprintf("%s-b%d", id, i)
	}
	f.pages[id] = &fakePage{props: notion.Properties{}, blocks: blocks}
	return id
}

func (f *fakeDocs) CreatePage(_ context.Context, props notion.Properties, icon string, children []notion.Block) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("page-%d", f.nextID)
	f.pages[id] = &fakePage{props: props, icon: icon, blocks: append([]notion.Block(nil), children...)}
	return id, f.partialErr
}

func (f *fakeDocs) PatchPageProperties(_ context.Context, pageID string, props notion.Properties, icon string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patchCall{pageID, props, icon})
	if f.patchErr != nil {
		return f.patchErr
	}
	p, ok := f.pages[pageID]
	if !ok {
		return fmt.Errorf("no page %s", pageID)
	}
	for k, v := range props {
		p.props[k] = v
	}
	if icon != "" {
		p.icon = icon
	}
	return nil
}

func (f *fakeDocs) AppendBlocks(_ context.Context, pageID string, blocks []notion.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[pageID]
	if !ok {
		return fmt.Errorf("no page %s", pageID)
	}
	for _, b := range blocks {
		b.ID = fmt.Sprintf("%s-b%d", pageID, len(p.blocks))
		p.blocks = append(p.blocks, b)
	}
	return nil
}

func (f *fakeDocs) QueryBlocks(_ context.Context, pageID string) ([]notion.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	p, ok := f.pages[pageID]
	if !ok {
		return nil, fmt.Errorf("no page %s", pageID)
	}
	return append([]notion.Block(nil), p.blocks...), nil
}

func (f *fakeDocs) UpdateParagraph(_ context.Context, blockID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pages {
		for i := range p.blocks {
			if p.blocks[i].ID == blockID {
				p.blocks[i].Text = text
				return nil
			}
		}
	}
	return fmt.Errorf("no block %s", blockID)
}

func (f *fakeDocs) page(id string) *fakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pages[id]
}

func checkbox(p notion.Property) bool {
	cb, ok := p.(notionapi.CheckboxProperty)
	return ok && cb.Checkbox
}
