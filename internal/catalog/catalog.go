// Package catalog holds the read-only check-in catalog: moods, colors,
// safe-space items, expression modes, prompt tables and clinical codes.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/thebtf/emocheck/pkg/models"
)

//go:embed default.yml
var defaultYAML []byte

// Code is one code and its display text.
type Code struct {
	Code    string `yaml:"code" json:"code"`
	Display string `yaml:"display" json:"display"`
}

// Mood is a selectable mood.
type Mood struct {
	ID               string `yaml:"id" json:"id"`
	Label            string `yaml:"label" json:"label"`
	Emoji            string `yaml:"emoji" json:"emoji"`
	Color            string `yaml:"color" json:"color"`
	Code             Code   `yaml:"code" json:"code"`
	DefaultIntensity int    `yaml:"default_intensity" json:"default_intensity"`
}

// Color is a color cloud and the emotion it stands for.
type Color struct {
	ID          string `yaml:"id" json:"id"`
	Hex         string `yaml:"hex" json:"hex"`
	Emotion     string `yaml:"emotion" json:"emotion"`
	Description string `yaml:"description" json:"description"`
}

// SpaceItem is a safe-space building block.
type SpaceItem struct {
	ID       string               `yaml:"id" json:"id"`
	Name     string               `yaml:"name" json:"name"`
	Emoji    string               `yaml:"emoji" json:"emoji"`
	Category models.SpaceCategory `yaml:"category" json:"category"`
}

// ExpressionMode is an expression activity and its minimum age.
type ExpressionMode struct {
	ID          models.ExpressionMode `yaml:"id" json:"id"`
	Title       string                `yaml:"title" json:"title"`
	Description string                `yaml:"description" json:"description"`
	MinAge      int                   `yaml:"min_age" json:"min_age"`
}

// PromptTable holds the base prompt sequence and mood-specific prompts.
type PromptTable struct {
	ByMood map[string][]models.Prompt `yaml:"by_mood"`
	Base   []models.Prompt            `yaml:"base"`
}

// FieldCodes are the LOINC codes of observation fields.
type FieldCodes struct {
	EmotionalState Code `yaml:"emotional_state"`
	MoodIntensity  Code `yaml:"mood_intensity"`
	CopingStrategy Code `yaml:"coping_strategy"`
	TriggerEvent   Code `yaml:"trigger_event"`
	SupportNeeded  Code `yaml:"support_needed"`
}

// Systems are the code-system URIs used in observations.
type Systems struct {
	Category string `yaml:"category"`
	LOINC    string `yaml:"loinc"`
	SNOMED   string `yaml:"snomed"`
	UCUM     string `yaml:"ucum"`
	Colors   string `yaml:"colors"`
}

// Config is the top-level YAML structure.
type Config struct {
	SpacePhrases    map[models.SpaceCategory]string `yaml:"space_phrases"`
	Prompts         PromptTable                     `yaml:"prompts"`
	Systems         Systems                         `yaml:"systems"`
	FieldCodes      FieldCodes                      `yaml:"field_codes"`
	Moods           []Mood                          `yaml:"moods"`
	Colors          []Color                         `yaml:"colors"`
	SpaceItems      []SpaceItem                     `yaml:"space_items"`
	ExpressionModes []ExpressionMode                `yaml:"expression_modes"`
}

// Catalog is an immutable, indexed view of a Config.
// It is safe for concurrent use; callers must not modify returned slices.
type Catalog struct {
	moods  map[string]*Mood
	colors map[string]*Color
	items  map[string]*SpaceItem
	modes  map[models.ExpressionMode]*ExpressionMode
	cfg    Config
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It is parsed once per process.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load reads the YAML override at path and returns a Catalog.
// If path is empty or the file does not exist, Load returns Default().
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", path).Msg("Catalog override not found, using embedded default")
			return Default(), nil
		}
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("moods", len(c.cfg.Moods)).Msg("Loaded catalog override")
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return build(cfg)
}

func build(cfg Config) (*Catalog, error) {
	c := &Catalog{
		moods:  make(map[string]*Mood, len(cfg.Moods)),
		colors: make(map[string]*Color, len(cfg.Colors)),
		items:  make(map[string]*SpaceItem, len(cfg.SpaceItems)),
		modes:  make(map[models.ExpressionMode]*ExpressionMode, len(cfg.ExpressionModes)),
		cfg:    cfg,
	}

	if len(cfg.Moods) == 0 {
		return nil, errors.New("no moods defined")
	}
	for i := range c.cfg.Moods {
		m := &c.cfg.Moods[i]
		if _, dup := c.moods[m.ID]; dup {
			return nil, fmt.Errorf("duplicate mood %q", m.ID)
		}
		if m.DefaultIntensity < models.ScaleMin || m.DefaultIntensity > models.ScaleMax {
			return nil, fmt.Errorf("mood %q: default intensity %d out of range", m.ID, m.DefaultIntensity)
		}
		c.moods[m.ID] = m
	}
	for i := range c.cfg.Colors {
		col := &c.cfg.Colors[i]
		if _, dup := c.colors[col.ID]; dup {
			return nil, fmt.Errorf("duplicate color %q", col.ID)
		}
		c.colors[col.ID] = col
	}
	for i := range c.cfg.SpaceItems {
		it := &c.cfg.SpaceItems[i]
		if _, dup := c.items[it.ID]; dup {
			return nil, fmt.Errorf("duplicate space item %q", it.ID)
		}
		if !validCategory(it.Category) {
			return nil, fmt.Errorf("space item %q: unknown category %q", it.ID, it.Category)
		}
		c.items[it.ID] = it
	}
	for i := range c.cfg.ExpressionModes {
		m := &c.cfg.ExpressionModes[i]
		if m.ID.Kind() == "" {
			return nil, fmt.Errorf("unknown expression mode %q", m.ID)
		}
		c.modes[m.ID] = m
	}

	if err := validatePrompts(cfg.Prompts.Base); err != nil {
		return nil, fmt.Errorf("base prompts: %w", err)
	}
	for mood, prompts := range cfg.Prompts.ByMood {
		if _, ok := c.moods[mood]; !ok {
			return nil, fmt.Errorf("prompts for unknown mood %q", mood)
		}
		if err := validatePrompts(prompts); err != nil {
			return nil, fmt.Errorf("prompts for %s: %w", mood, err)
		}
	}
	return c, nil
}

func validCategory(cat models.SpaceCategory) bool {
	for _, known := range models.SpaceCategories {
		if cat == known {
			return true
		}
	}
	return false
}

func validatePrompts(prompts []models.Prompt) error {
	for _, p := range prompts {
		if p.ID == "" || p.Question == "" {
			return errors.New("prompt without id or question")
		}
		switch p.Type {
		case models.PromptChoice:
			if len(p.Options) == 0 {
				return fmt.Errorf("choice prompt %q has no options", p.ID)
			}
		case models.PromptScale, models.PromptText:
		default:
			return fmt.Errorf("prompt %q: unknown type %q", p.ID, p.Type)
		}
	}
	return nil
}

// Mood returns a mood by id. Returns (nil, false) if not found.
func (c *Catalog) Mood(id string) (*Mood, bool) {
	m, ok := c.moods[id]
	return m, ok
}

// Color returns a color by id. Returns (nil, false) if not found.
func (c *Catalog) Color(id string) (*Color, bool) {
	col, ok := c.colors[id]
	return col, ok
}

// SpaceItem returns a safe-space item by id. Returns (nil, false) if not found.
func (c *Catalog) SpaceItem(id string) (*SpaceItem, bool) {
	it, ok := c.items[id]
	return it, ok
}

// ExpressionMode returns an expression mode by id. Returns (nil, false) if not found.
func (c *Catalog) ExpressionMode(id models.ExpressionMode) (*ExpressionMode, bool) {
	m, ok := c.modes[id]
	return m, ok
}

// EmotionCode returns the SNOMED code for a mood id.
func (c *Catalog) EmotionCode(moodID string) (Code, bool) {
	m, ok := c.moods[moodID]
	if !ok || m.Code.Code == "" {
		return Code{}, false
	}
	return m.Code, true
}

// SpacePhrase returns the description phrase for a safe-space category.
func (c *Catalog) SpacePhrase(cat models.SpaceCategory) string {
	return c.cfg.SpacePhrases[cat]
}

// Moods returns all moods in definition order.
func (c *Catalog) Moods() []Mood { return c.cfg.Moods }

// Colors returns all colors in definition order.
func (c *Catalog) Colors() []Color { return c.cfg.Colors }

// SpaceItems returns all safe-space items in definition order.
func (c *Catalog) SpaceItems() []SpaceItem { return c.cfg.SpaceItems }

// ExpressionModes returns all expression modes in definition order.
func (c *Catalog) ExpressionModes() []ExpressionMode { return c.cfg.ExpressionModes }

// ModesForAge returns the expression modes available at age, in definition order.
func (c *Catalog) ModesForAge(age int) []ExpressionMode {
	var out []ExpressionMode
	for _, m := range c.cfg.ExpressionModes {
		if age >= m.MinAge {
			out = append(out, m)
		}
	}
	return out
}

// BasePrompts returns the fixed base prompt sequence.
func (c *Catalog) BasePrompts() []models.Prompt { return c.cfg.Prompts.Base }

// MoodPrompts returns the mood-specific prompts for moodID, or nil.
func (c *Catalog) MoodPrompts(moodID string) []models.Prompt {
	return c.cfg.Prompts.ByMood[moodID]
}

// FieldCodes returns the observation field codes.
func (c *Catalog) FieldCodes() FieldCodes { return c.cfg.FieldCodes }

// Systems returns the code-system URIs.
func (c *Catalog) Systems() Systems { return c.cfg.Systems }
