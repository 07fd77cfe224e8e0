package catalog

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/museumhub/pkg/debug"
)

// Validation failures wrapped by LoadError.
var (
	ErrMissingMuseums = errors.New(`document has no "museums" field`)
	ErrMissingField   = errors.New("missing required field")
	ErrDuplicateID    = errors.New("duplicate id")
	ErrUnknownType    = errors.New("unknown type")
	ErrNoPages        = errors.New("guided lesson has no pages")
)

// LoadError reports a catalog that could not be fetched, parsed or
// validated. Source names where the document came from when known.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return "loading catalog: " + e.Err.Error()
	}
	return fmt.Sprintf("loading catalog from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type rawDocument struct {
	Museums *[]rawMuseum `json:"museums"`
}

type rawMuseum struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Location      string      `json:"location"`
	Description   string      `json:"description"`
	ImageURL      string      `json:"imageUrl"`
	IntroVideoURL string      `json:"introVideoUrl"`
	IntroVideo    string      `json:"introVideo"`
	Visible       *bool       `json:"visible"`
	Lessons       []rawLesson `json:"lessons"`
}

type rawLesson struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Note        string    `json:"note"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	Author      string    `json:"author"`
	Pages       []rawPage `json:"pages"`
	Content     []rawPage `json:"content"`
}

type rawPage struct {
	Kind        string `json:"kind"`
	Type        string `json:"type"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

// Parse builds a Catalog from a JSON document of the form
// {"museums": [...]}. It validates required fields, lesson and page types,
// and id uniqueness. Nothing is filtered: hidden museums are kept.
func Parse(raw []byte) (*Catalog, error) {
	var doc rawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &LoadError{Err: fmt.Errorf("parsing JSON: %w", err)}
	}
	if doc.Museums == nil {
		return nil, &LoadError{Err: ErrMissingMuseums}
	}

	c := &Catalog{
		museums: make([]*Museum, 0, len(*doc.Museums)),
		index:   make(map[string]*Museum, len(*doc.Museums)),
	}
	lessonOwners := make(map[string]string)

	for i, rm := range *doc.Museums {
		m, err := buildMuseum(rm)
		if err != nil {
			return nil, &LoadError{Err: fmt.Errorf("museum[%d]: %w", i, err)}
		}
		if _, dup := c.index[m.ID]; dup {
			return nil, &LoadError{Err: fmt.Errorf("museum %q: %w", m.ID, ErrDuplicateID)}
		}
		for _, l := range m.Lessons {
			if owner, seen := lessonOwners[l.ID]; seen {
				debug.Log("lesson id %q appears in museums %q and %q; completion is shared", l.ID, owner, m.ID)
				continue
			}
			lessonOwners[l.ID] = m.ID
		}
		c.museums = append(c.museums, m)
		c.index[m.ID] = m
	}

	debug.Log("catalog parsed: %d museums, %d lessons", len(c.museums), c.TotalLessonCount())
	return c, nil
}

func buildMuseum(rm rawMuseum) (*Museum, error) {
	if strings.TrimSpace(rm.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrMissingField)
	}
	if strings.TrimSpace(rm.Name) == "" {
		return nil, fmt.Errorf("museum %q: name: %w", rm.ID, ErrMissingField)
	}

	m := &Museum{
		ID:            rm.ID,
		Name:          rm.Name,
		Location:      rm.Location,
		Description:   rm.Description,
		ImageURL:      rm.ImageURL,
		IntroVideoURL: firstNonEmpty(rm.IntroVideoURL, rm.IntroVideo),
		Visible:       rm.Visible == nil || *rm.Visible,
		Lessons:       make([]*Lesson, 0, len(rm.Lessons)),
		lessonIndex:   make(map[string]*Lesson, len(rm.Lessons)),
	}

	for j, rl := range rm.Lessons {
		l, err := buildLesson(rl)
		if err != nil {
			return nil, fmt.Errorf("museum %q: lesson[%d]: %w", rm.ID, j, err)
		}
		if _, dup := m.lessonIndex[l.ID]; dup {
			return nil, fmt.Errorf("museum %q: lesson %q: %w", rm.ID, l.ID, ErrDuplicateID)
		}
		m.Lessons = append(m.Lessons, l)
		m.lessonIndex[l.ID] = l
	}
	return m, nil
}

func buildLesson(rl rawLesson) (*Lesson, error) {
	if strings.TrimSpace(rl.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrMissingField)
	}
	if strings.TrimSpace(rl.Type) == "" {
		return nil, fmt.Errorf("lesson %q: type: %w", rl.ID, ErrMissingField)
	}

	l := &Lesson{
		ID:          rl.ID,
		Title:       rl.Title,
		Description: rl.Description,
		Note:        rl.Note,
	}

	switch strings.ToLower(rl.Type) {
	case "video", "youtube":
		if rl.URL == "" {
			return nil, fmt.Errorf("lesson %q: url: %w", rl.ID, ErrMissingField)
		}
		l.Content = Video{URL: rl.URL, Author: rl.Author}
	case "external":
		if rl.URL == "" {
			return nil, fmt.Errorf("lesson %q: url: %w", rl.ID, ErrMissingField)
		}
		l.Content = External{URL: rl.URL}
	case "guided", "custom":
		rawPages := rl.Pages
		if len(rawPages) == 0 {
			rawPages = rl.Content
		}
		if len(rawPages) == 0 {
			return nil, fmt.Errorf("lesson %q: %w", rl.ID, ErrNoPages)
		}
		pages := make([]Page, 0, len(rawPages))
		for k, rp := range rawPages {
			p, err := buildPage(rp)
			if err != nil {
				return nil, fmt.Errorf("lesson %q: page[%d]: %w", rl.ID, k, err)
			}
			pages = append(pages, p)
		}
		l.Content = Guided{Author: rl.Author, Pages: pages}
	default:
		return nil, fmt.Errorf("lesson %q: %q: %w", rl.ID, rl.Type, ErrUnknownType)
	}
	return l, nil
}

func buildPage(rp rawPage) (Page, error) {
	kind := strings.ToLower(firstNonEmpty(rp.Kind, rp.Type))
	p := Page{
		Text:        rp.Text,
		URL:         rp.URL,
		Caption:     rp.Caption,
		Description: rp.Description,
	}
	switch kind {
	case "text":
		p.Kind = PageText
	case "image":
		p.Kind = PageImage
	case "video", "youtube":
		p.Kind = PageVideo
	case "":
		return Page{}, fmt.Errorf("kind: %w", ErrMissingField)
	default:
		return Page{}, fmt.Errorf("%q: %w", kind, ErrUnknownType)
	}
	return p, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
