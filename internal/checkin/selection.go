package checkin

import (
	"fmt"
	"slices"
	"strings"

	"github.com/thebtf/emocheck/internal/catalog"
	"github.com/thebtf/emocheck/pkg/models"
)

// ColorPicker tracks a capped, ordered set of color clouds.
// Adding beyond the cap is a no-op.
type ColorPicker struct {
	cat   *catalog.Catalog
	ids   []string
	limit int
}

// NewColorPicker creates a picker allowing at most limit colors.
func NewColorPicker(cat *catalog.Catalog, limit int) *ColorPicker {
	return &ColorPicker{cat: cat, limit: limit}
}

// Add selects id unless it is already selected or the cap is reached.
// It reports whether the selection changed.
func (p *ColorPicker) Add(id string) (bool, error) {
	if _, ok := p.cat.Color(id); !ok {
		return false, fmt.Errorf("%w: unknown color %q", models.ErrInvalidPayload, id)
	}
	if slices.Contains(p.ids, id) || len(p.ids) >= p.limit {
		return false, nil
	}
	p.ids = append(p.ids, id)
	return true, nil
}

// Toggle deselects id if selected, otherwise behaves like Add.
func (p *ColorPicker) Toggle(id string) (bool, error) {
	if i := slices.Index(p.ids, id); i >= 0 {
		p.ids = slices.Delete(p.ids, i, i+1)
		return true, nil
	}
	return p.Add(id)
}

// Selected returns the selected color ids in selection order.
func (p *ColorPicker) Selected() []string {
	return slices.Clone(p.ids)
}

// Selection builds the session value with the emotion of each color.
func (p *ColorPicker) Selection() *models.ColorSelection {
	sel := &models.ColorSelection{
		ColorIDs: slices.Clone(p.ids),
		Emotions: make([]string, 0, len(p.ids)),
	}
	for _, id := range p.ids {
		col, _ := p.cat.Color(id)
		sel.Emotions = append(sel.Emotions, col.Emotion)
	}
	return sel
}

// SafeSpaceBuilder tracks a capped, ordered set of safe-space items.
type SafeSpaceBuilder struct {
	cat   *catalog.Catalog
	ids   []string
	limit int
}

// NewSafeSpaceBuilder creates a builder allowing at most limit items.
func NewSafeSpaceBuilder(cat *catalog.Catalog, limit int) *SafeSpaceBuilder {
	return &SafeSpaceBuilder{cat: cat, limit: limit}
}

// Add selects id unless it is already selected or the cap is reached.
func (b *SafeSpaceBuilder) Add(id string) (bool, error) {
	if _, ok := b.cat.SpaceItem(id); !ok {
		return false, fmt.Errorf("%w: unknown safe-space item %q", models.ErrInvalidPayload, id)
	}
	if slices.Contains(b.ids, id) || len(b.ids) >= b.limit {
		return false, nil
	}
	b.ids = append(b.ids, id)
	return true, nil
}

// Toggle deselects id if selected, otherwise behaves like Add.
func (b *SafeSpaceBuilder) Toggle(id string) (bool, error) {
	if i := slices.Index(b.ids, id); i >= 0 {
		b.ids = slices.Delete(b.ids, i, i+1)
		return true, nil
	}
	return b.Add(id)
}

// Selected returns the selected item ids in selection order.
func (b *SafeSpaceBuilder) Selected() []string {
	return slices.Clone(b.ids)
}

// Description summarizes which categories are present, in fixed category order.
func (b *SafeSpaceBuilder) Description() string {
	present := make(map[models.SpaceCategory]bool)
	for _, id := range b.ids {
		it, _ := b.cat.SpaceItem(id)
		present[it.Category] = true
	}
	var parts []string
	for _, cat := range models.SpaceCategories {
		if present[cat] {
			parts = append(parts, b.cat.SpacePhrase(cat))
		}
	}
	return "A safe space with " + strings.Join(parts, ", ")
}

// Selection builds the session value.
func (b *SafeSpaceBuilder) Selection() *models.SafeSpaceSelection {
	sel := &models.SafeSpaceSelection{
		Description: b.Description(),
		ItemIDs:     slices.Clone(b.ids),
		Items:       make([]models.SpaceItem, 0, len(b.ids)),
	}
	for _, id := range b.ids {
		it, _ := b.cat.SpaceItem(id)
		sel.Items = append(sel.Items, models.SpaceItem{ID: it.ID, Name: it.Name, Category: it.Category})
	}
	return sel
}
