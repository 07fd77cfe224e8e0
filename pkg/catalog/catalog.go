// Package catalog holds the in-memory museum catalog: museums, their
// lessons, and the pages of guided lessons. A Catalog is built once by
// Parse and is read-only afterwards; a reload replaces it wholesale.
package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every lookup miss.
var ErrNotFound = errors.New("not found")

// LessonType names a lesson variant.
type LessonType string

const (
	TypeVideo    LessonType = "video"
	TypeExternal LessonType = "external"
	TypeGuided   LessonType = "guided"
)

// PageKind names what a guided page shows.
type PageKind string

const (
	PageText  PageKind = "text"
	PageImage PageKind = "image"
	PageVideo PageKind = "video"
)

// Content is the variant part of a lesson. The set of implementations is
// closed: Video, External and Guided.
type Content interface {
	Type() LessonType
	isContent()
}

// Video is a single video shown in place.
type Video struct {
	URL    string
	Author string
}

// External points at a course hosted elsewhere (Udemy, Coursera, ...).
type External struct {
	URL string
}

// Guided is a sequence of pages viewed one at a time.
type Guided struct {
	Author string
	Pages  []Page
}

func (Video) Type() LessonType    { return TypeVideo }
func (External) Type() LessonType { return TypeExternal }
func (Guided) Type() LessonType   { return TypeGuided }

func (Video) isContent()    {}
func (External) isContent() {}
func (Guided) isContent()   {}

// Page is one page of a guided lesson.
type Page struct {
	Kind        PageKind
	Text        string
	URL         string
	Caption     string
	Description string
}

// Lesson is one entry in a museum's lesson list.
type Lesson struct {
	ID          string
	Title       string
	Description string
	Note        string
	Content     Content
}

// Type returns the lesson's variant.
func (l *Lesson) Type() LessonType {
	return l.Content.Type()
}

// PageCount returns the number of pages for guided lessons and 0 otherwise.
func (l *Lesson) PageCount() int {
	if g, ok := l.Content.(Guided); ok {
		return len(g.Pages)
	}
	return 0
}

// Museum is a catalog entry and its ordered lessons.
type Museum struct {
	ID            string
	Name          string
	Location      string
	Description   string
	ImageURL      string
	IntroVideoURL string
	Visible       bool
	Lessons       []*Lesson

	lessonIndex map[string]*Lesson
}

// FindLesson returns the lesson with the given id.
func (m *Museum) FindLesson(id string) (*Lesson, error) {
	if l, ok := m.lessonIndex[id]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("lesson %q in museum %q: %w", id, m.ID, ErrNotFound)
}

// Catalog is the full loaded set of museums.
type Catalog struct {
	museums []*Museum
	index   map[string]*Museum
}

// Museums returns every museum in catalog order, hidden ones included.
func (c *Catalog) Museums() []*Museum {
	if c == nil {
		return nil
	}
	return c.museums
}

// VisibleMuseums returns the museums not marked visible=false, preserving
// catalog order. Visibility is a presentation filter; hidden museums can
// still be looked up.
func (c *Catalog) VisibleMuseums() []*Museum {
	if c == nil {
		return nil
	}
	out := make([]*Museum, 0, len(c.museums))
	for _, m := range c.museums {
		if m.Visible {
			out = append(out, m)
		}
	}
	return out
}

// FindMuseum returns the museum with the given id.
func (c *Catalog) FindMuseum(id string) (*Museum, error) {
	if c != nil {
		if m, ok := c.index[id]; ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("museum %q: %w", id, ErrNotFound)
}

// FindLesson returns a lesson by its museum and lesson id.
func (c *Catalog) FindLesson(museumID, lessonID string) (*Lesson, error) {
	m, err := c.FindMuseum(museumID)
	if err != nil {
		return nil, err
	}
	return m.FindLesson(lessonID)
}

// TotalLessonCount sums lessons over all museums, hidden ones included.
func (c *Catalog) TotalLessonCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, m := range c.museums {
		n += len(m.Lessons)
	}
	return n
}
