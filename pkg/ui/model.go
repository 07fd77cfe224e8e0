// Package ui is the mh terminal interface: a bubbletea model that loads
// the catalog, drives the viewer.Controller from key presses, and renders
// the museum grid, museum detail, lesson views, progress summary and the
// lesson request form.
package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/museumhub/pkg/catalog"
	"github.com/vanderheijden86/museumhub/pkg/debug"
	"github.com/vanderheijden86/museumhub/pkg/loader"
	"github.com/vanderheijden86/museumhub/pkg/progress"
	"github.com/vanderheijden86/museumhub/pkg/request"
	"github.com/vanderheijden86/museumhub/pkg/viewer"
	"github.com/vanderheijden86/museumhub/pkg/watcher"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Section is a top-level tab.
type Section int

const (
	SectionMuseums Section = iota
	SectionProgress
	SectionRequest
)

func (s Section) String() string {
	switch s {
	case SectionProgress:
		return "Progress"
	case SectionRequest:
		return "Request"
	default:
		return "Museums"
	}
}

// ParseSection maps a config value to a Section; unknown values give
// SectionMuseums.
func ParseSection(s string) Section {
	switch s {
	case "progress":
		return SectionProgress
	case "request":
		return SectionRequest
	default:
		return SectionMuseums
	}
}

type loadState int

const (
	loadPending loadState = iota
	loadFailed
	loadReady
)

// Progress is the store surface the UI reads.
type Progress interface {
	progress.Store
	InProgress() []progress.LessonRef
	RecentActivity(n int) []progress.ActivityEntry
	CompletedInMuseum(m *catalog.Museum) int
}

// Options configures NewModel. Reloader and Progress are required.
type Options struct {
	Reloader       *loader.Reloader
	Progress       Progress
	Watcher        *watcher.Watcher
	Recipient      string
	RecentActivity int
	StartSection   Section

	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	// Now defaults to time.Now.
	Now func() time.Time
}

type catalogLoadedMsg struct {
	catalog *catalog.Catalog
	err     error
}

type catalogChangedMsg struct {
	event watcher.Event
}

// Model is the top-level bubbletea model.
type Model struct {
	reloader  *loader.Reloader
	progress  Progress
	watcher   *watcher.Watcher
	recipient string
	recentN   int
	copyFn    func(string) error
	now       func() time.Time

	theme    Theme
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model
	md       *MarkdownRenderer

	state   loadState
	loadErr error

	ctrl   *viewer.Controller
	cursor viewer.Cursor
	render viewer.Render

	section     Section
	selMuseum   int
	selLesson   int
	selProgress int

	draft    *RequestDraft
	form     *huh.Form
	lastMail *request.Message

	status      string
	statusIsErr bool

	width  int
	height int
}

// NewModel returns a model that starts loading the catalog on Init.
func NewModel(opts Options) Model {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RecentActivity <= 0 {
		opts.RecentActivity = 5
	}

	theme := DefaultTheme(lipgloss.DefaultRenderer())
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.PrimaryBold

	m := Model{
		reloader:  opts.Reloader,
		progress:  opts.Progress,
		watcher:   opts.Watcher,
		recipient: opts.Recipient,
		recentN:   opts.RecentActivity,
		copyFn:    opts.Clipboard,
		now:       opts.Now,
		theme:     theme,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		viewport:  viewport.New(defaultWidth, defaultHeight-5),
		md:        NewMarkdownRenderer(defaultWidth - 4),
		section:   opts.StartSection,
		cursor:    viewer.Home(),
		width:     defaultWidth,
		height:    defaultHeight,
	}
	m.resetForm()
	return m
}

// Init starts the catalog load and, when configured, the file watch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.loadCatalog(), m.waitForChange()}
	if m.section == SectionRequest {
		cmds = append(cmds, m.form.Init())
	}
	return tea.Batch(cmds...)
}

func (m Model) loadCatalog() tea.Cmd {
	r := m.reloader
	return func() tea.Msg {
		c, err := r.Load(context.Background())
		return catalogLoadedMsg{catalog: c, err: err}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	events := m.watcher.Events()
	return func() tea.Msg {
		return catalogChangedMsg{event: <-events}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = m.bodyHeight()
		m.md.SetWidth(msg.Width - 4)
		m.form = m.form.WithWidth(msg.Width - 4)
		m.refreshContent()
		return m, nil

	case spinner.TickMsg:
		if m.state != loadPending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case catalogLoadedMsg:
		m.handleLoaded(msg)
		return m, nil

	case catalogChangedMsg:
		switch msg.event.Kind {
		case watcher.EventChanged:
			m.setStatus("Catalog changed, reloading…", false)
			return m, tea.Batch(m.loadCatalog(), m.waitForChange())
		default:
			m.setStatus(fmt.Sprintf("Catalog watch: %v", msg.event.Err), true)
			return m, m.waitForChange()
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.section == SectionRequest && m.state == loadReady {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m *Model) handleLoaded(msg catalogLoadedMsg) {
	c := msg.catalog
	if msg.err != nil {
		// The reloader keeps the last good catalog across failed reloads.
		c = m.reloader.Current()
		if c == nil {
			m.state = loadFailed
			m.loadErr = msg.err
			return
		}
		m.setStatus("Reload failed: "+msg.err.Error(), true)
		if m.ctrl != nil && m.ctrl.Catalog() == c {
			return
		}
	}

	reloaded := m.ctrl != nil
	m.ctrl = viewer.NewController(c, m.progress)
	m.state = loadReady
	m.loadErr = nil
	m.cursor = m.ctrl.Resolve(m.cursor)
	m.rerender()
	if reloaded && msg.err == nil {
		m.setStatus("Catalog reloaded", false)
	}
	debug.Log("ui: catalog ready after %d fetches, cursor %s", m.reloader.Loads(), m.cursor)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.state {
	case loadPending:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	case loadFailed:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Retry):
			m.state = loadPending
			m.loadErr = nil
			return m, tea.Batch(m.spinner.Tick, m.loadCatalog())
		}
		return m, nil
	}

	// The form owns the keyboard while it is shown; esc leaves it.
	if m.section == SectionRequest {
		if msg.Type == tea.KeyEsc {
			m.section = SectionMuseums
			return m, nil
		}
		return m.updateForm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Home):
		m.section = SectionMuseums
		return m, nil
	case key.Matches(msg, m.keys.Progress):
		m.section = SectionProgress
		return m, nil
	case key.Matches(msg, m.keys.Request):
		m.section = SectionRequest
		return m, m.form.Init()
	}

	if m.section == SectionProgress {
		m.handleProgressKey(msg)
		return m, nil
	}

	switch m.cursor.State() {
	case viewer.StateHome:
		m.handleHomeKey(msg)
	case viewer.StateMuseumDetail:
		m.handleMuseumKey(msg)
	case viewer.StateLessonView:
		return m.handleLessonKey(msg)
	}
	return m, nil
}

func (m *Model) handleHomeKey(msg tea.KeyMsg) {
	museums := m.render.Museums
	if len(museums) == 0 {
		return
	}
	cols := m.gridColumns()
	switch {
	case key.Matches(msg, m.keys.Left):
		if m.selMuseum > 0 {
			m.selMuseum--
		}
	case key.Matches(msg, m.keys.Right):
		if m.selMuseum < len(museums)-1 {
			m.selMuseum++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selMuseum-cols >= 0 {
			m.selMuseum -= cols
		}
	case key.Matches(msg, m.keys.Down):
		if m.selMuseum+cols < len(museums) {
			m.selMuseum += cols
		}
	case key.Matches(msg, m.keys.Select):
		m.apply(viewer.SelectMuseum{ID: museums[m.selMuseum].ID})
	}
}

func (m *Model) handleProgressKey(msg tea.KeyMsg) {
	items := m.inProgressLessons()
	m.selProgress = clamp(m.selProgress, len(items))
	switch {
	case key.Matches(msg, m.keys.Back):
		m.section = SectionMuseums
	case key.Matches(msg, m.keys.Up):
		if m.selProgress > 0 {
			m.selProgress--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selProgress < len(items)-1 {
			m.selProgress++
		}
	case key.Matches(msg, m.keys.Select):
		if m.selProgress < len(items) {
			m.openLesson(items[m.selProgress])
		}
	}
}

type lessonRef struct {
	museum *catalog.Museum
	lesson *catalog.Lesson
}

// inProgressLessons lists opened, not yet completed lessons that still
// exist in the catalog.
func (m Model) inProgressLessons() []lessonRef {
	c := m.ctrl.Catalog()
	var out []lessonRef
	for _, ref := range m.progress.InProgress() {
		if m.progress.IsCompleted(ref.LessonID) {
			continue
		}
		mu, err := c.FindMuseum(ref.MuseumID)
		if err != nil {
			continue
		}
		l, err := mu.FindLesson(ref.LessonID)
		if err != nil {
			continue
		}
		out = append(out, lessonRef{museum: mu, lesson: l})
	}
	return out
}

// openLesson jumps from anywhere to a lesson through the museum that
// holds it, recording the visit and start like a manual walk would.
func (m *Model) openLesson(ref lessonRef) {
	saved := m.cursor
	m.cursor = viewer.Home()
	if !m.apply(viewer.SelectMuseum{ID: ref.museum.ID}) {
		m.cursor = saved
		m.rerender()
		return
	}
	m.section = SectionMuseums
	m.apply(viewer.SelectLesson{ID: ref.lesson.ID})
}

func (m *Model) handleMuseumKey(msg tea.KeyMsg) {
	mu := m.render.Museum
	switch {
	case key.Matches(msg, m.keys.Back):
		m.apply(viewer.Back{})
	case key.Matches(msg, m.keys.Up):
		if m.selLesson > 0 {
			m.selLesson--
		}
	case key.Matches(msg, m.keys.Down):
		if mu != nil && m.selLesson < len(mu.Lessons)-1 {
			m.selLesson++
		}
	case key.Matches(msg, m.keys.Select):
		if mu != nil && m.selLesson < len(mu.Lessons) {
			m.apply(viewer.SelectLesson{ID: mu.Lessons[m.selLesson].ID})
		}
	case key.Matches(msg, m.keys.Copy):
		if mu != nil && mu.IntroVideoURL != "" {
			m.copyURL(catalog.WatchURL(mu.IntroVideoURL))
		}
	}
}

func (m Model) handleLessonKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	guided := m.render.View == viewer.ViewGuidedPage
	switch {
	case key.Matches(msg, m.keys.Back):
		m.apply(viewer.Close{})
	case guided && key.Matches(msg, m.keys.Next):
		m.apply(viewer.Next{})
	case guided && key.Matches(msg, m.keys.Prev):
		m.apply(viewer.Prev{})
	case key.Matches(msg, m.keys.Complete):
		m.apply(viewer.MarkComplete{})
	case m.render.View == viewer.ViewExternal && key.Matches(msg, m.keys.Open):
		if m.apply(viewer.OpenExternal{}) && m.render.OpenURL != "" {
			u := m.render.OpenURL
			if err := m.copyFn(u); err != nil {
				m.setStatus(fmt.Sprintf("Open this link in your browser: %s (listed under In Progress)", u), false)
			} else {
				m.setStatus("📋 Copied "+u+"; listed under In Progress", false)
			}
		}
	case key.Matches(msg, m.keys.Copy):
		if u := m.lessonURL(); u != "" {
			m.copyURL(u)
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// lessonURL is the URL the copy key hands out on the current lesson screen.
func (m Model) lessonURL() string {
	r := m.render
	switch r.View {
	case viewer.ViewVideo:
		return r.OpenURL
	case viewer.ViewExternal:
		if ext, ok := r.Lesson.Content.(catalog.External); ok {
			return ext.URL
		}
	case viewer.ViewGuidedPage:
		if r.Page == nil || r.Page.URL == "" {
			return ""
		}
		if r.Page.Kind == catalog.PageVideo {
			return catalog.WatchURL(r.Page.URL)
		}
		return r.Page.URL
	}
	return ""
}

// apply runs a on the controller and reports whether it was accepted.
func (m *Model) apply(a viewer.Action) bool {
	prev := m.cursor
	res, err := m.ctrl.Apply(m.cursor, a)
	if err != nil {
		switch {
		case errors.Is(err, viewer.ErrNotFound):
			m.setStatus("Not found: "+err.Error(), true)
		default:
			m.setStatus(err.Error(), true)
		}
		return false
	}

	m.cursor = res.Cursor
	m.render = res.Render
	switch {
	case len(res.Warnings) > 0:
		m.setStatus("Progress not saved: "+res.Warnings[0].Error(), true)
	case res.Render.Notice != "":
		m.setStatus(res.Render.Notice, false)
	default:
		m.clearStatus()
	}

	m.syncSelection(prev)
	m.refreshContent()
	return true
}

// syncSelection keeps list highlights on the item the visitor came from.
func (m *Model) syncSelection(prev viewer.Cursor) {
	switch m.cursor.State() {
	case viewer.StateHome:
		for i, mu := range m.render.Museums {
			if mu.ID == prev.MuseumID() {
				m.selMuseum = i
			}
		}
		m.selMuseum = clamp(m.selMuseum, len(m.render.Museums))
	case viewer.StateMuseumDetail:
		if prev.IsHome() {
			m.selLesson = 0
		}
		if m.render.Museum != nil {
			for i, l := range m.render.Museum.Lessons {
				if prev.InLesson() && l.ID == prev.LessonID() {
					m.selLesson = i
				}
			}
			m.selLesson = clamp(m.selLesson, len(m.render.Museum.Lessons))
		}
	case viewer.StateLessonView:
		if prev.LessonID() != m.cursor.LessonID() || prev.PageIndex() != m.cursor.PageIndex() {
			m.viewport.GotoTop()
		}
	}
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// rerender recomputes the render for the current cursor without an action,
// used after a catalog (re)load.
func (m *Model) rerender() {
	r, err := m.ctrl.Render(m.cursor)
	if err != nil {
		m.cursor = viewer.Home()
		r, _ = m.ctrl.Render(m.cursor)
	}
	m.render = r
	m.selMuseum = clamp(m.selMuseum, len(r.Museums))
	if r.Museum != nil {
		m.selLesson = clamp(m.selLesson, len(r.Museum.Lessons))
	}
	m.refreshContent()
}

func (m *Model) copyURL(u string) {
	if err := m.copyFn(u); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard unavailable; link: %s", u), true)
		return
	}
	m.setStatus("📋 Copied "+u, false)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusIsErr = isErr
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusIsErr = false
}

func (m *Model) resetForm() {
	m.draft = &RequestDraft{}
	m.form = NewRequestForm(m.draft).WithWidth(m.width - 4)
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	fm, cmd := m.form.Update(msg)
	if f, ok := fm.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.submitRequest()
		m.resetForm()
		return m, m.form.Init()
	case huh.StateAborted:
		m.resetForm()
		m.section = SectionMuseums
		return m, nil
	}
	return m, cmd
}

// submitRequest composes the request from the draft and hands the mailto
// link to the clipboard.
func (m *Model) submitRequest() {
	msg, err := request.Compose(m.recipient, m.draft.Topic, m.draft.Details, m.now())
	if err != nil {
		m.setStatus("Request not sent: "+err.Error(), true)
		return
	}
	m.lastMail = &msg
	if err := m.copyFn(msg.MailtoURL()); err != nil {
		m.setStatus("Clipboard unavailable; open the link below in your mail client", true)
		return
	}
	m.setStatus("📋 Request copied as a mailto: link; paste it into your browser or mail client", false)
}

// Cursor returns the current view cursor.
func (m Model) Cursor() viewer.Cursor {
	return m.cursor
}

// Section returns the active tab.
func (m Model) Section() Section {
	return m.section
}

// Stop releases the watcher, if any.
func (m Model) Stop() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
}

func (m Model) bodyHeight() int {
	// header, blank, status, help
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	return h
}
