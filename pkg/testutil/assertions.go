package testutil

import (
	"testing"

	"github.com/vanderheijden86/museumhub/pkg/catalog"
)

// AssertMuseumIDs verifies the museums and their order.
func AssertMuseumIDs(t *testing.T, museums []*catalog.Museum, expected ...string) {
	t.Helper()
	if len(museums) != len(expected) {
		t.Fatalf("expected %d museums %v, got %d", len(expected), expected, len(museums))
	}
	for i, m := range museums {
		if m.ID != expected[i] {
			t.Errorf("museum %d: expected %q, got %q", i, expected[i], m.ID)
		}
	}
}

// AssertNoDuplicateIDs verifies museum ids are unique and lesson ids are
// unique within each museum.
func AssertNoDuplicateIDs(t *testing.T, c *catalog.Catalog) {
	t.Helper()
	seen := make(map[string]bool)
	for _, m := range c.Museums() {
		if seen[m.ID] {
			t.Errorf("duplicate museum ID: %s", m.ID)
		}
		seen[m.ID] = true
		lessons := make(map[string]bool)
		for _, l := range m.Lessons {
			if lessons[l.ID] {
				t.Errorf("duplicate lesson ID %s in museum %s", l.ID, m.ID)
			}
			lessons[l.ID] = true
		}
	}
}

// AssertGuidedInvariants verifies every guided lesson has at least one page
// with a known kind.
func AssertGuidedInvariants(t *testing.T, c *catalog.Catalog) {
	t.Helper()
	for _, m := range c.Museums() {
		for _, l := range m.Lessons {
			g, ok := l.Content.(catalog.Guided)
			if !ok {
				continue
			}
			if len(g.Pages) == 0 {
				t.Errorf("guided lesson %s/%s has no pages", m.ID, l.ID)
			}
			for i, p := range g.Pages {
				switch p.Kind {
				case catalog.PageText, catalog.PageImage, catalog.PageVideo:
				default:
					t.Errorf("lesson %s/%s page %d has kind %q", m.ID, l.ID, i, p.Kind)
				}
			}
		}
	}
}
