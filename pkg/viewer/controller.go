package viewer

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/museumhub/pkg/catalog"
	"github.com/vanderheijden86/museumhub/pkg/debug"
	"github.com/vanderheijden86/museumhub/pkg/progress"
)

var (
	// ErrNotFound is catalog.ErrNotFound; either works with errors.Is.
	ErrNotFound = catalog.ErrNotFound
	// ErrInvalidAction is returned for an action the current state does
	// not accept.
	ErrInvalidAction = errors.New("action not valid here")
)

// Action is a user event fed to Controller.Apply.
type Action interface {
	isAction()
}

type (
	SelectMuseum struct{ ID string }
	SelectLesson struct{ ID string }
	Next         struct{}
	Prev         struct{}
	Close        struct{} // lesson -> museum
	Back         struct{} // museum -> home
	MarkComplete struct{}
	OpenExternal struct{}
)

func (SelectMuseum) isAction() {}
func (SelectLesson) isAction() {}
func (Next) isAction()         {}
func (Prev) isAction()         {}
func (Close) isAction()        {}
func (Back) isAction()         {}
func (MarkComplete) isAction() {}
func (OpenExternal) isAction() {}

// ViewKind says what to draw.
type ViewKind int

const (
	ViewHome ViewKind = iota
	ViewMuseumDetail
	ViewVideo
	ViewExternal
	ViewGuidedPage
)

// Render is what the UI needs to draw the cursor's screen.
type Render struct {
	View    ViewKind
	Museums []*catalog.Museum // ViewHome: visible museums
	Museum  *catalog.Museum
	Lesson  *catalog.Lesson
	Page    *catalog.Page

	PageIndex int
	PageCount int
	CanPrev   bool
	CanNext   bool
	Completed bool

	// OpenURL is set when the UI should hand a URL to the visitor.
	OpenURL string
	Notice  string
}

// Result is the outcome of a transition.
type Result struct {
	Cursor Cursor
	Render Render
	// Warnings carries persistence failures; they never fail a transition.
	Warnings []error
}

// Notices shown after completion actions.
const (
	NoticeCompleted        = "Lesson marked as complete!"
	NoticeAlreadyCompleted = "Lesson already completed."
	NoticeOpenedExternal   = "Opened in your browser or copied; it is now listed under In Progress."
)

// Controller applies actions to cursors against a catalog and a progress
// store.
type Controller struct {
	catalog  *catalog.Catalog
	progress progress.Store
}

// NewController returns a controller over c that records progress in p.
func NewController(c *catalog.Catalog, p progress.Store) *Controller {
	return &Controller{catalog: c, progress: p}
}

// Catalog returns the catalog the controller renders.
func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

// Progress returns the injected store.
func (c *Controller) Progress() progress.Store {
	return c.progress
}

// Apply performs action a from cursor cur. On error the returned Result
// carries cur unchanged and no side effects have happened.
func (c *Controller) Apply(cur Cursor, a Action) (Result, error) {
	res, err := c.apply(cur, a)
	if err != nil {
		debug.Log("viewer: %T from %s rejected: %v", a, cur, err)
		return Result{Cursor: cur}, err
	}
	for _, w := range res.Warnings {
		debug.Log("viewer: %T from %s: %v", a, cur, w)
	}
	return res, nil
}

func (c *Controller) apply(cur Cursor, a Action) (Result, error) {
	switch a := a.(type) {
	case SelectMuseum:
		if !cur.IsHome() {
			return Result{}, fmt.Errorf("select museum from %s: %w", cur.state, ErrInvalidAction)
		}
		m, err := c.catalog.FindMuseum(a.ID)
		if err != nil {
			return Result{}, err
		}
		var res Result
		res.warn(c.progress.RecordActivity(progress.ActionVisited, m.ID, m.Name))
		return c.finish(res, museumCursor(m.ID))

	case SelectLesson:
		if !cur.InMuseum() {
			return Result{}, fmt.Errorf("select lesson from %s: %w", cur.state, ErrInvalidAction)
		}
		l, err := c.catalog.FindLesson(cur.museumID, a.ID)
		if err != nil {
			return Result{}, err
		}
		var res Result
		res.warn(c.progress.RecordActivity(progress.ActionStarted, l.ID, l.Title))
		next := lessonCursor(cur.museumID, l.ID)
		switch content := l.Content.(type) {
		case catalog.Video, catalog.External:
			// Completion needs an explicit MarkComplete.
		case catalog.Guided:
			if len(content.Pages) == 1 {
				c.completeOnLastPage(&res, l)
			}
		default:
			return Result{}, fmt.Errorf("lesson %q has unsupported content %T", l.ID, content)
		}
		return c.finish(res, next)

	case Next, Prev:
		_, l, err := c.resolveLesson(cur)
		if err != nil {
			return Result{}, err
		}
		g, ok := l.Content.(catalog.Guided)
		if !ok {
			return Result{}, fmt.Errorf("paging a %s lesson: %w", l.Type(), ErrInvalidAction)
		}
		var res Result
		next := cur
		if _, forward := a.(Next); forward {
			if cur.page+1 < len(g.Pages) {
				next = cur.withPage(cur.page + 1)
				if next.page == len(g.Pages)-1 {
					c.completeOnLastPage(&res, l)
				}
			}
		} else if cur.page > 0 {
			next = cur.withPage(cur.page - 1)
		}
		return c.finish(res, next)

	case Close:
		if !cur.InLesson() {
			return Result{}, fmt.Errorf("close from %s: %w", cur.state, ErrInvalidAction)
		}
		if _, err := c.catalog.FindMuseum(cur.museumID); err != nil {
			return Result{}, err
		}
		return c.finish(Result{}, museumCursor(cur.museumID))

	case Back:
		if !cur.InMuseum() {
			return Result{}, fmt.Errorf("back from %s: %w", cur.state, ErrInvalidAction)
		}
		return c.finish(Result{}, Home())

	case MarkComplete:
		_, l, err := c.resolveLesson(cur)
		if err != nil {
			return Result{}, err
		}
		var res Result
		out, werr := c.progress.MarkCompleted(l.ID, l.Title)
		res.warn(werr)
		res, err = c.finish(res, cur)
		if out == progress.AlreadyCompleted {
			res.Render.Notice = NoticeAlreadyCompleted
		} else {
			res.Render.Notice = NoticeCompleted
		}
		return res, err

	case OpenExternal:
		m, l, err := c.resolveLesson(cur)
		if err != nil {
			return Result{}, err
		}
		ext, ok := l.Content.(catalog.External)
		if !ok {
			return Result{}, fmt.Errorf("opening a %s lesson externally: %w", l.Type(), ErrInvalidAction)
		}
		var res Result
		res.warn(c.progress.MarkInProgress(m.ID, l.ID))
		res, err = c.finish(res, cur)
		res.Render.OpenURL = ext.URL
		res.Render.Notice = NoticeOpenedExternal
		return res, err

	default:
		return Result{}, fmt.Errorf("%T: %w", a, ErrInvalidAction)
	}
}

// completeOnLastPage applies the guided-lesson policy: reaching the last
// page completes the lesson.
func (c *Controller) completeOnLastPage(res *Result, l *catalog.Lesson) {
	out, err := c.progress.MarkCompleted(l.ID, l.Title)
	res.warn(err)
	if err == nil && out == progress.NewlyCompleted {
		res.Render.Notice = NoticeCompleted
	}
}

func (c *Controller) finish(res Result, next Cursor) (Result, error) {
	notice := res.Render.Notice
	r, err := c.Render(next)
	if err != nil {
		return Result{}, err
	}
	if notice != "" {
		r.Notice = notice
	}
	res.Cursor = next
	res.Render = r
	return res, nil
}

func (r *Result) warn(err error) {
	if err != nil {
		r.Warnings = append(r.Warnings, err)
	}
}

func (c *Controller) resolveLesson(cur Cursor) (*catalog.Museum, *catalog.Lesson, error) {
	if !cur.InLesson() {
		return nil, nil, fmt.Errorf("no lesson open in %s: %w", cur.state, ErrInvalidAction)
	}
	m, err := c.catalog.FindMuseum(cur.museumID)
	if err != nil {
		return nil, nil, err
	}
	l, err := m.FindLesson(cur.lessonID)
	if err != nil {
		return nil, nil, err
	}
	return m, l, nil
}

// Render builds the render instruction for cur without changing anything.
func (c *Controller) Render(cur Cursor) (Render, error) {
	switch cur.state {
	case StateHome:
		return Render{View: ViewHome, Museums: c.catalog.VisibleMuseums()}, nil

	case StateMuseumDetail:
		m, err := c.catalog.FindMuseum(cur.museumID)
		if err != nil {
			return Render{}, err
		}
		return Render{View: ViewMuseumDetail, Museum: m}, nil

	case StateLessonView:
		m, l, err := c.resolveLesson(cur)
		if err != nil {
			return Render{}, err
		}
		r := Render{Museum: m, Lesson: l, Completed: c.progress.IsCompleted(l.ID)}
		switch content := l.Content.(type) {
		case catalog.Video:
			r.View = ViewVideo
			r.OpenURL = catalog.WatchURL(content.URL)
		case catalog.External:
			r.View = ViewExternal
		case catalog.Guided:
			if cur.page < 0 || cur.page >= len(content.Pages) {
				return Render{}, fmt.Errorf("page %d of lesson %q: %w", cur.page, l.ID, ErrNotFound)
			}
			r.View = ViewGuidedPage
			r.Page = &content.Pages[cur.page]
			r.PageIndex = cur.page
			r.PageCount = len(content.Pages)
			r.CanPrev = cur.page > 0
			r.CanNext = cur.page < len(content.Pages)-1
		default:
			return Render{}, fmt.Errorf("lesson %q has unsupported content %T", l.ID, content)
		}
		return r, nil

	default:
		return Render{}, fmt.Errorf("cursor state %s: %w", cur.state, ErrInvalidAction)
	}
}

// Resolve maps a cursor onto the current catalog, falling back to the
// nearest ancestor that still exists. Used after a catalog reload: a removed
// lesson falls back to its museum, a removed museum to home, and a page
// index past a shortened lesson is clamped to the last page.
func (c *Controller) Resolve(cur Cursor) Cursor {
	switch cur.state {
	case StateLessonView:
		l, err := c.catalog.FindLesson(cur.museumID, cur.lessonID)
		if err != nil {
			return c.Resolve(museumCursor(cur.museumID))
		}
		if n := l.PageCount(); n > 0 && cur.page >= n {
			return cur.withPage(n - 1)
		}
		if l.PageCount() == 0 {
			return cur.withPage(0)
		}
		return cur
	case StateMuseumDetail:
		if _, err := c.catalog.FindMuseum(cur.museumID); err != nil {
			return Home()
		}
		return cur
	default:
		return Home()
	}
}
