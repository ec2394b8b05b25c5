// Package refdata resolves hero and item ids to display names and icon URLs
// from the embedded static catalogs. Unknown ids resolve to deterministic
// fallbacks instead of failing.
package refdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed data/*.json
var files embed.FS

type Format string

const (
	FormatWebP Format = "webp"
	FormatPNG  Format = "png"
)

type Icon struct {
	PNG  string `json:"png,omitempty"`
	WebP string `json:"webp,omitempty"`
}

type Entity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
	Icon Icon   `json:"icon"`
}

type Catalog struct {
	fallback string
	byID     map[int64]Entity
	ordered  []Entity
}

type heroRecord struct {
	ID        *int64  `json:"id"`
	Name      *string `json:"name"`
	ClassName string  `json:"class_name"`
	Images    struct {
		Small     string `json:"icon_image_small"`
		SmallWebP string `json:"icon_image_small_webp"`
	} `json:"images"`
}

type itemRecord struct {
	ID        *int64 `json:"id"`
	Name      string `json:"name"`
	ClassName string `json:"class_name"`
	Image     string `json:"image"`
	ImageWebP string `json:"image_webp"`
}

func newCatalog(fallback string, entities []Entity) *Catalog {
	c := &Catalog{fallback: fallback, byID: make(map[int64]Entity, len(entities))}
	for _, e := range entities {
		c.byID[e.ID] = e
	}
	for _, e := range c.byID {
		c.ordered = append(c.ordered, e)
	}
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].ID < c.ordered[j].ID })
	return c
}

// ParseHeroes builds a hero catalog; records without an id or name are skipped.
func ParseHeroes(data []byte) (*Catalog, error) {
	var records []heroRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode heroes: %w", err)
	}
	entities := make([]Entity, 0, len(records))
	for _, r := range records {
		if r.ID == nil || r.Name == nil {
			continue
		}
		entities = append(entities, Entity{
			ID:   *r.ID,
			Name: *r.Name,
			Slug: r.ClassName,
			Icon: Icon{PNG: r.Images.Small, WebP: r.Images.SmallWebP},
		})
	}
	return newCatalog("Hero", entities), nil
}

// ParseItems builds an item catalog. A blank name falls back to the class
// name, then to the generic item label.
func ParseItems(data []byte) (*Catalog, error) {
	var records []itemRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	entities := make([]Entity, 0, len(records))
	for _, r := range records {
		if r.ID == nil {
			continue
		}
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = r.ClassName
		}
		if name == "" {
			name = fallbackName("Item", *r.ID)
		}
		entities = append(entities, Entity{
			ID:   *r.ID,
			Name: name,
			Slug: r.ClassName,
			Icon: Icon{PNG: strings.TrimSpace(r.Image), WebP: strings.TrimSpace(r.ImageWebP)},
		})
	}
	return newCatalog("Item", entities), nil
}

func fallbackName(kind string, id int64) string {
	return fmt.Sprintf("%s #%d", kind, id)
}

func (c *Catalog) Lookup(id int64) (Entity, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Name returns the display name, or "Hero #<id>" / "Item #<id>" for unknown ids.
func (c *Catalog) Name(id int64) string {
	if e, ok := c.byID[id]; ok {
		return e.Name
	}
	return fallbackName(c.fallback, id)
}

// IconURL returns the preferred icon format, falling back to the other one.
// Unknown ids and entities without icons report false.
func (c *Catalog) IconURL(id int64, prefer Format) (string, bool) {
	e, ok := c.byID[id]
	if !ok {
		return "", false
	}
	first, second := e.Icon.WebP, e.Icon.PNG
	if prefer == FormatPNG {
		first, second = second, first
	}
	switch {
	case first != "":
		return first, true
	case second != "":
		return second, true
	}
	return "", false
}

func (c *Catalog) All() []Entity {
	return append([]Entity(nil), c.ordered...)
}

func (c *Catalog) Len() int {
	return len(c.byID)
}

func mustLoad(name string, parse func([]byte) (*Catalog, error)) *Catalog {
	data, err := files.ReadFile("data/" + name)
	if err != nil {
		panic(err)
	}
	c, err := parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

var (
	Heroes = sync.OnceValue(func() *Catalog { return mustLoad("heroes.json", ParseHeroes) })
	Items  = sync.OnceValue(func() *Catalog { return mustLoad("items.json", ParseItems) })
)

func HeroName(id int64) string { return Heroes().Name(id) }

func ItemName(id int64) string { return Items().Name(id) }

func HeroIconURL(id int64, prefer Format) (string, bool) { return Heroes().IconURL(id, prefer) }

func ItemIconURL(id int64, prefer Format) (string, bool) { return Items().IconURL(id, prefer) }
