// Package testutil provides catalog fixtures and generators for tests.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/museumhub/pkg/catalog"
)

// SampleCatalogJSON is a small hand-written catalog covering every lesson
// variant, a hidden museum, and the legacy field aliases.
const SampleCatalogJSON = `{
  "museums": [
    {
      "id": "m1",
      "name": "Museum of Fine Arts",
      "location": "Boston, MA",
      "description": "Art from every corner of the world.",
      "introVideoUrl": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
      "lessons": [
        {
          "id": "l1",
          "title": "Impressionism Walkthrough",
          "type": "guided",
          "author": "Curatorial staff",
          "pages": [
            {"kind": "text", "text": "# Welcome\nImpressionism began in Paris."},
            {"kind": "image", "url": "https://example.org/monet.jpg", "caption": "Water Lilies"},
            {"kind": "video", "url": "https://youtu.be/dQw4w9WgXcQ", "description": "A short film."}
          ]
        },
        {
          "id": "l2",
          "title": "Gallery Tour",
          "type": "video",
          "url": "https://www.youtube.com/embed/dQw4w9WgXcQ"
        },
        {
          "id": "l3",
          "title": "Art History 101",
          "type": "external",
          "url": "https://www.coursera.org/learn/art-history",
          "note": "Free to audit."
        }
      ]
    },
    {
      "id": "m2",
      "name": "Natural History Museum",
      "location": "London",
      "description": "Dinosaurs and minerals.",
      "visible": true,
      "lessons": [
        {
          "id": "l4",
          "title": "Fossils",
          "type": "custom",
          "content": [
            {"type": "text", "text": "Fossils form over millions of years."}
          ]
        }
      ]
    },
    {
      "id": "m3",
      "name": "Closed Annex",
      "location": "Nowhere",
      "description": "Not open yet.",
      "visible": false,
      "lessons": []
    }
  ]
}`

// SampleCatalog parses SampleCatalogJSON, failing the test on error.
func SampleCatalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(SampleCatalogJSON))
	if err != nil {
		t.Fatalf("parsing sample catalog: %v", err)
	}
	return c
}

// Document mirrors the catalog JSON format for building fixtures.
type Document struct {
	Museums []MuseumFixture `json:"museums"`
}

// MuseumFixture is one museum in a Document.
type MuseumFixture struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Location    string          `json:"location,omitempty"`
	Description string          `json:"description,omitempty"`
	Visible     *bool           `json:"visible,omitempty"`
	Lessons     []LessonFixture `json:"lessons"`
}

// LessonFixture is one lesson in a MuseumFixture.
type LessonFixture struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Type  string        `json:"type"`
	URL   string        `json:"url,omitempty"`
	Pages []PageFixture `json:"pages,omitempty"`
}

// PageFixture is one page of a guided LessonFixture.
type PageFixture struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// JSON encodes the document.
func (d Document) JSON() []byte {
	data, err := json.Marshal(d)
	if err != nil {
		panic(fmt.Sprintf("marshaling fixture: %v", err))
	}
	return data
}

// GeneratorConfig controls catalog generation.
type GeneratorConfig struct {
	Seed             int64                // Random seed for determinism (0 = use current time)
	IDPrefix         string               // Prefix for museum ids (default: "M")
	Museums          int                  // Number of museums (default: 3)
	LessonsPerMuseum int                  // Lessons per museum (default: 4)
	MaxPages         int                  // Upper bound for guided page counts (default: 5)
	HiddenEvery      int                  // Every Nth museum is hidden (0 = none)
	TypeMix          []catalog.LessonType // Lesson type distribution (nil = all guided)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:             42,
		IDPrefix:         "M",
		Museums:          3,
		LessonsPerMuseum: 4,
		MaxPages:         5,
		TypeMix:          []catalog.LessonType{catalog.TypeGuided},
	}
}

// Generator creates catalog documents.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "M"
	}
	if cfg.Museums <= 0 {
		cfg.Museums = 3
	}
	if cfg.LessonsPerMuseum < 0 {
		cfg.LessonsPerMuseum = 0
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	if len(cfg.TypeMix) == 0 {
		cfg.TypeMix = []catalog.LessonType{catalog.TypeGuided}
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Document builds a catalog document. Lesson ids are unique across the
// whole catalog.
func (g *Generator) Document() Document {
	doc := Document{Museums: make([]MuseumFixture, 0, g.cfg.Museums)}
	for i := 0; i < g.cfg.Museums; i++ {
		id := fmt.Sprintf("%s%d", g.cfg.IDPrefix, i+1)
		m := MuseumFixture{
			ID:          id,
			Name:        fmt.Sprintf("Museum %d", i+1),
			Location:    "Somewhere",
			Description: "Generated museum",
		}
		if g.cfg.HiddenEvery > 0 && (i+1)%g.cfg.HiddenEvery == 0 {
			hidden := false
			m.Visible = &hidden
		}
		for j := 0; j < g.cfg.LessonsPerMuseum; j++ {
			m.Lessons = append(m.Lessons, g.lesson(fmt.Sprintf("%s-L%d", id, j+1)))
		}
		doc.Museums = append(doc.Museums, m)
	}
	return doc
}

// Catalog generates and parses a catalog, failing the test on error.
func (g *Generator) Catalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse(g.Document().JSON())
	if err != nil {
		t.Fatalf("parsing generated catalog: %v", err)
	}
	return c
}

func (g *Generator) lesson(id string) LessonFixture {
	typ := g.cfg.TypeMix[g.rng.Intn(len(g.cfg.TypeMix))]
	l := LessonFixture{ID: id, Title: "Lesson " + id, Type: string(typ)}
	switch typ {
	case catalog.TypeVideo:
		l.URL = "https://youtu.be/abcdefghijk"
	case catalog.TypeExternal:
		l.URL = "https://example.org/course/" + id
	default:
		n := 1 + g.rng.Intn(g.cfg.MaxPages)
		l.Pages = GuidedPages(n)
	}
	return l
}

// GuidedPages returns n text pages.
func GuidedPages(n int) []PageFixture {
	pages := make([]PageFixture, n)
	for i := range pages {
		pages[i] = PageFixture{Kind: "text", Text: fmt.Sprintf("Page %d", i+1)}
	}
	return pages
}

// SingleGuided builds a one-museum catalog with one guided lesson of n
// pages: museum "m1", lesson "l1".
func SingleGuided(t testing.TB, n int) *catalog.Catalog {
	t.Helper()
	doc := Document{Museums: []MuseumFixture{{
		ID:   "m1",
		Name: "Museum One",
		Lessons: []LessonFixture{{
			ID: "l1", Title: "Guided One", Type: "guided", Pages: GuidedPages(n),
		}},
	}}}
	c, err := catalog.Parse(doc.JSON())
	if err != nil {
		t.Fatalf("parsing single-guided catalog: %v", err)
	}
	return c
}
