package catalog_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/vanderheijden86/museumhub/pkg/catalog"
	"github.com/vanderheijden86/museumhub/pkg/testutil"
	"pgregory.net/rapid"
)

func TestParse_Sample(t *testing.T) {
	c := testutil.SampleCatalog(t)

	testutil.AssertMuseumIDs(t, c.Museums(), "m1", "m2", "m3")
	testutil.AssertNoDuplicateIDs(t, c)
	testutil.AssertGuidedInvariants(t, c)

	if got := c.TotalLessonCount(); got != 4 {
		t.Errorf("expected 4 lessons, got %d", got)
	}

	m1, err := c.FindMuseum("m1")
	if err != nil {
		t.Fatalf("FindMuseum(m1): %v", err)
	}
	if m1.IntroVideoURL == "" {
		t.Error("expected intro video url to be set")
	}
	if !m1.Visible {
		t.Error("museum without visible field should be visible")
	}
}

func TestParse_LessonVariants(t *testing.T) {
	c := testutil.SampleCatalog(t)

	tests := []struct {
		museum, lesson string
		want           catalog.LessonType
		pages          int
	}{
		{"m1", "l1", catalog.TypeGuided, 3},
		{"m1", "l2", catalog.TypeVideo, 0},
		{"m1", "l3", catalog.TypeExternal, 0},
		{"m2", "l4", catalog.TypeGuided, 1}, // "custom" + "content" aliases
	}
	for _, tt := range tests {
		t.Run(tt.lesson, func(t *testing.T) {
			l, err := c.FindLesson(tt.museum, tt.lesson)
			if err != nil {
				t.Fatalf("FindLesson: %v", err)
			}
			if l.Type() != tt.want {
				t.Errorf("expected type %s, got %s", tt.want, l.Type())
			}
			if l.PageCount() != tt.pages {
				t.Errorf("expected %d pages, got %d", tt.pages, l.PageCount())
			}
		})
	}

	l1, _ := c.FindLesson("m1", "l1")
	g := l1.Content.(catalog.Guided)
	if g.Author != "Curatorial staff" {
		t.Errorf("expected author, got %q", g.Author)
	}
	kinds := []catalog.PageKind{catalog.PageText, catalog.PageImage, catalog.PageVideo}
	for i, p := range g.Pages {
		if p.Kind != kinds[i] {
			t.Errorf("page %d: expected %s, got %s", i, kinds[i], p.Kind)
		}
	}
}

func TestVisibleMuseums_FiltersHiddenKeepsOrder(t *testing.T) {
	c := testutil.SampleCatalog(t)
	testutil.AssertMuseumIDs(t, c.VisibleMuseums(), "m1", "m2")

	// Hidden museums still resolve.
	if _, err := c.FindMuseum("m3"); err != nil {
		t.Errorf("hidden museum should still be found: %v", err)
	}
}

func TestVisibleMuseums_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "museums")
		doc := testutil.Document{Museums: []testutil.MuseumFixture{}}
		var want []string
		for i := 0; i < n; i++ {
			id := "m" + strings.Repeat("x", i+1)
			m := testutil.MuseumFixture{ID: id, Name: id}
			switch rapid.IntRange(0, 2).Draw(t, "visibility") {
			case 0: // absent
				want = append(want, id)
			case 1:
				v := true
				m.Visible = &v
				want = append(want, id)
			case 2:
				v := false
				m.Visible = &v
			}
			doc.Museums = append(doc.Museums, m)
		}

		c, err := catalog.Parse(doc.JSON())
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		got := c.VisibleMuseums()
		if len(got) != len(want) {
			t.Fatalf("expected %d visible, got %d", len(want), len(got))
		}
		for i := range got {
			if got[i].ID != want[i] {
				t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i].ID)
			}
		}
	})
}

func TestFind_NotFound(t *testing.T) {
	c := testutil.SampleCatalog(t)

	if _, err := c.FindMuseum("nope"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound for museum, got %v", err)
	}
	if _, err := c.FindLesson("m1", "nope"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound for lesson, got %v", err)
	}
	if _, err := c.FindLesson("nope", "l1"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound for lesson in unknown museum, got %v", err)
	}
	// A lesson id from another museum does not resolve.
	if _, err := c.FindLesson("m2", "l1"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign lesson, got %v", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"invalid json", `{"museums": [`, nil},
		{"missing museums", `{"items": []}`, catalog.ErrMissingMuseums},
		{"null museums", `{"museums": null}`, catalog.ErrMissingMuseums},
		{"museum without id", `{"museums": [{"name": "A"}]}`, catalog.ErrMissingField},
		{"museum without name", `{"museums": [{"id": "a"}]}`, catalog.ErrMissingField},
		{"lesson without id", `{"museums": [{"id": "a", "name": "A", "lessons": [{"type": "video", "url": "u"}]}]}`, catalog.ErrMissingField},
		{"lesson without type", `{"museums": [{"id": "a", "name": "A", "lessons": [{"id": "l"}]}]}`, catalog.ErrMissingField},
		{"video without url", `{"museums": [{"id": "a", "name": "A", "lessons": [{"id": "l", "type": "video"}]}]}`, catalog.ErrMissingField},
		{"unknown lesson type", `{"museums": [{"id": "a", "name": "A", "lessons": [{"id": "l", "type": "podcast"}]}]}`, catalog.ErrUnknownType},
		{"unknown page kind", `{"museums": [{"id": "a", "name": "A", "lessons": [{"id": "l", "type": "guided", "pages": [{"kind": "audio"}]}]}]}`, catalog.ErrUnknownType},
		{"guided without pages", `{"museums": [{"id": "a", "name": "A", "lessons": [{"id": "l", "type": "guided"}]}]}`, catalog.ErrNoPages},
		{"duplicate museum", `{"museums": [{"id": "a", "name": "A"}, {"id": "a", "name": "B"}]}`, catalog.ErrDuplicateID},
		{"duplicate lesson", `{"museums": [{"id": "a", "name": "A", "lessons": [{"id": "l", "type": "external", "url": "u"}, {"id": "l", "type": "external", "url": "v"}]}]}`, catalog.ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := catalog.Parse([]byte(tt.doc))
			if err == nil {
				t.Fatalf("expected error, got catalog with %d museums", len(c.Museums()))
			}
			var le *catalog.LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %T: %v", err, err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_SameLessonIDAcrossMuseums(t *testing.T) {
	doc := `{"museums": [
		{"id": "a", "name": "A", "lessons": [{"id": "intro", "type": "external", "url": "u"}]},
		{"id": "b", "name": "B", "lessons": [{"id": "intro", "type": "external", "url": "v"}]}
	]}`
	c, err := catalog.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("lesson ids only need to be unique within a museum: %v", err)
	}
	if c.TotalLessonCount() != 2 {
		t.Errorf("expected 2 lessons, got %d", c.TotalLessonCount())
	}
}

func TestParse_EmptyCatalog(t *testing.T) {
	c, err := catalog.Parse([]byte(`{"museums": []}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(c.Museums()) != 0 || c.TotalLessonCount() != 0 {
		t.Error("expected empty catalog")
	}
}

func TestLoadError_Message(t *testing.T) {
	err := &catalog.LoadError{Source: "content.json", Err: catalog.ErrMissingMuseums}
	if !strings.Contains(err.Error(), "content.json") {
		t.Errorf("expected source in message, got %q", err.Error())
	}
	if !errors.Is(err, catalog.ErrMissingMuseums) {
		t.Error("expected LoadError to unwrap to its cause")
	}
}
