// Package viewer is the view-state machine: a Cursor value naming what is on
// screen, and a Controller that maps (cursor, action) to a new cursor plus
// render instructions. Transitions never mutate a cursor; side effects go
// through the injected progress.Store only.
package viewer

import "fmt"

// State is the cursor's screen.
type State int

const (
	StateHome State = iota
	StateMuseumDetail
	StateLessonView
)

func (s State) String() string {
	switch s {
	case StateHome:
		return "home"
	case StateMuseumDetail:
		return "museum"
	case StateLessonView:
		return "lesson"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cursor identifies which museum, lesson and page is displayed. The zero
// value is the home screen.
type Cursor struct {
	state    State
	museumID string
	lessonID string
	page     int
}

// Home returns the home-screen cursor.
func Home() Cursor {
	return Cursor{}
}

func museumCursor(museumID string) Cursor {
	return Cursor{state: StateMuseumDetail, museumID: museumID}
}

func lessonCursor(museumID, lessonID string) Cursor {
	return Cursor{state: StateLessonView, museumID: museumID, lessonID: lessonID}
}

func (c Cursor) withPage(page int) Cursor {
	c.page = page
	return c
}

func (c Cursor) State() State     { return c.state }
func (c Cursor) MuseumID() string { return c.museumID }
func (c Cursor) LessonID() string { return c.lessonID }
func (c Cursor) PageIndex() int   { return c.page }
func (c Cursor) IsHome() bool     { return c.state == StateHome }
func (c Cursor) InLesson() bool   { return c.state == StateLessonView }
func (c Cursor) InMuseum() bool   { return c.state == StateMuseumDetail }

func (c Cursor) String() string {
	switch c.state {
	case StateMuseumDetail:
		return "museum:" + c.museumID
	case StateLessonView:
		return fmt.Sprintf("lesson:%s/%s#%d", c.museumID, c.lessonID, c.page)
	default:
		return "home"
	}
}
