package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/museumhub/internal/storage"
	"github.com/vanderheijden86/museumhub/pkg/loader"
	"github.com/vanderheijden86/museumhub/pkg/progress"
	"github.com/vanderheijden86/museumhub/pkg/testutil"
	"github.com/vanderheijden86/museumhub/pkg/viewer"
	"github.com/vanderheijden86/museumhub/pkg/watcher"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeClipboard struct {
	copied []string
	err    error
}

func (f *fakeClipboard) write(s string) error {
	if f.err != nil {
		return f.err
	}
	f.copied = append(f.copied, s)
	return nil
}

func (f *fakeClipboard) last() string {
	if len(f.copied) == 0 {
		return ""
	}
	return f.copied[len(f.copied)-1]
}

type harness struct {
	path  string
	store *progress.KVStore
	clip  *fakeClipboard
}

func newHarness(t *testing.T, kv storage.KV) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "content.json")
	if err := os.WriteFile(path, []byte(testutil.SampleCatalogJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if kv == nil {
		kv = storage.NewMemory()
	}
	return &harness{
		path:  path,
		store: progress.NewKVStore(kv, progress.WithClock(func() time.Time { return fixedNow })),
		clip:  &fakeClipboard{},
	}
}

func (h *harness) model(t *testing.T) Model {
	t.Helper()
	m := NewModel(Options{
		Reloader:  loader.NewReloader(loader.FileSource{Path: h.path}),
		Progress:  h.store,
		Recipient: "curators@example.org",
		Clipboard: h.clip.write,
		Now:       func() time.Time { return fixedNow },
	})
	return send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func newLoadedModel(t *testing.T) (Model, *harness) {
	t.Helper()
	h := newHarness(t, nil)
	m := h.model(t)
	m = send(t, m, m.loadCatalog()())
	if m.state != loadReady {
		t.Fatalf("expected catalog to load, got state %d (%v)", m.state, m.loadErr)
	}
	return m, h
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	nm, _ := m.Update(msg)
	return nm.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func openLesson(t *testing.T, m Model, downs int) Model {
	t.Helper()
	m = send(t, m, keyEnter)
	for i := 0; i < downs; i++ {
		m = send(t, m, keyDown)
	}
	m = send(t, m, keyEnter)
	if !m.Cursor().InLesson() {
		t.Fatalf("expected a lesson to be open, cursor %s (status %q)", m.Cursor(), m.status)
	}
	return m
}

func TestModel_LoadsCatalogAndShowsHome(t *testing.T) {
	m, _ := newLoadedModel(t)

	view := m.View()
	for _, want := range []string{"Museum of Fine Arts", "Natural History Museum", "0 of 3 lessons completed", "0 of 1 lessons completed"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected home view to contain %q", want)
		}
	}
	if strings.Contains(view, "Closed Annex") {
		t.Error("hidden museum must not be shown")
	}
}

func TestModel_PendingShowsSpinner(t *testing.T) {
	h := newHarness(t, nil)
	m := h.model(t)

	if !strings.Contains(m.View(), "Loading museums") {
		t.Error("expected loading message before the catalog arrives")
	}
	if m.Cursor() != viewer.Home() {
		t.Errorf("unexpected cursor %s", m.Cursor())
	}
}

func TestModel_LoadFailureAndRetry(t *testing.T) {
	h := newHarness(t, nil)
	if err := os.Remove(h.path); err != nil {
		t.Fatal(err)
	}
	m := h.model(t)
	m = send(t, m, m.loadCatalog()())

	if m.state != loadFailed {
		t.Fatalf("expected failed state, got %d", m.state)
	}
	view := m.View()
	if !strings.Contains(view, "Could not load museums") || !strings.Contains(view, "retry") {
		t.Errorf("expected error screen with retry hint, got:\n%s", view)
	}

	if err := os.WriteFile(h.path, []byte(testutil.SampleCatalogJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	nm, cmd := m.Update(runes("r"))
	m = nm.(Model)
	if cmd == nil || m.state != loadPending {
		t.Fatalf("expected retry to start a load, state %d", m.state)
	}
	m = send(t, m, m.loadCatalog()())
	if m.state != loadReady {
		t.Fatalf("expected retry to succeed, got state %d (%v)", m.state, m.loadErr)
	}
}

func TestModel_GuidedLessonCompletesOnLastPage(t *testing.T) {
	m, h := newLoadedModel(t)

	m = openLesson(t, m, 0)
	if m.Cursor().LessonID() != "l1" || m.Cursor().PageIndex() != 0 {
		t.Fatalf("unexpected cursor %s", m.Cursor())
	}
	if !strings.Contains(m.View(), "Page 1 of 3") {
		t.Error("expected page indicator")
	}

	m = send(t, m, runes("n"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.Cursor().PageIndex() != 2 {
		t.Fatalf("expected last page, got %d", m.Cursor().PageIndex())
	}
	if !h.store.IsCompleted("l1") {
		t.Error("expected lesson completed on reaching the last page")
	}
	if m.status != viewer.NoticeCompleted {
		t.Errorf("expected completion notice, got %q", m.status)
	}

	// Past the end is a no-op.
	m = send(t, m, runes("n"))
	if m.Cursor().PageIndex() != 2 {
		t.Errorf("expected to stay on the last page, got %d", m.Cursor().PageIndex())
	}

	m = send(t, m, runes("p"))
	if m.Cursor().PageIndex() != 1 {
		t.Errorf("expected page 1 after prev, got %d", m.Cursor().PageIndex())
	}

	m = send(t, m, keyEsc)
	if !m.Cursor().InMuseum() || m.selLesson != 0 {
		t.Fatalf("expected museum detail with l1 selected, cursor %s sel %d", m.Cursor(), m.selLesson)
	}
	if !strings.Contains(m.View(), "✓") {
		t.Error("expected completed lesson to be checked in the list")
	}

	m = send(t, m, keyEsc)
	if !m.Cursor().IsHome() {
		t.Fatalf("expected home, got %s", m.Cursor())
	}
	if !strings.Contains(m.View(), "1 of 3 lessons completed") {
		t.Error("expected card to count the completed lesson")
	}
}

func TestModel_VideoLessonCopyAndComplete(t *testing.T) {
	m, h := newLoadedModel(t)
	m = openLesson(t, m, 1)

	if m.render.View != viewer.ViewVideo {
		t.Fatalf("expected video view, got %d", m.render.View)
	}
	m = send(t, m, runes("y"))
	if got := h.clip.last(); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("expected watch URL copied, got %q", got)
	}
	if h.store.IsCompleted("l2") {
		t.Fatal("video lessons must not complete on open")
	}

	// Paging keys do nothing on a video lesson.
	before := m.Cursor()
	m = send(t, m, runes("n"))
	if m.Cursor() != before {
		t.Errorf("cursor moved on a video lesson: %s", m.Cursor())
	}

	m = send(t, m, runes("c"))
	if !h.store.IsCompleted("l2") || m.status != viewer.NoticeCompleted {
		t.Errorf("expected completion, status %q", m.status)
	}
	m = send(t, m, runes("c"))
	if m.status != viewer.NoticeAlreadyCompleted {
		t.Errorf("expected already-completed notice, got %q", m.status)
	}
}

func TestModel_ExternalLessonOpensInProgress(t *testing.T) {
	m, h := newLoadedModel(t)
	m = openLesson(t, m, 2)

	m = send(t, m, runes("o"))
	if got := h.clip.last(); got != "https://www.coursera.org/learn/art-history" {
		t.Errorf("expected course URL copied, got %q", got)
	}
	refs := h.store.InProgress()
	if len(refs) != 1 || refs[0] != (progress.LessonRef{MuseumID: "m1", LessonID: "l3"}) {
		t.Fatalf("unexpected in-progress list %+v", refs)
	}

	m = send(t, m, runes("2"))
	if m.Section() != SectionProgress {
		t.Fatalf("expected progress section, got %s", m.Section())
	}
	view := m.View()
	if !strings.Contains(view, "Art History 101 · Museum of Fine Arts") {
		t.Errorf("expected in-progress entry, got:\n%s", view)
	}
}

func TestModel_InProgressEntryReopensLesson(t *testing.T) {
	m, h := newLoadedModel(t)
	m = openLesson(t, m, 2)
	m = send(t, m, runes("o"))
	m = send(t, m, keyEsc)
	m = send(t, m, keyEsc)
	if !m.Cursor().IsHome() {
		t.Fatalf("expected home, got %s", m.Cursor())
	}

	m = send(t, m, runes("2"))
	if !strings.Contains(m.View(), "▸ ↗ Art History 101") {
		t.Errorf("expected the first in-progress entry to be selected:\n%s", m.View())
	}
	m = send(t, m, keyDown)
	m = send(t, m, keyEnter)

	if m.Section() != SectionMuseums {
		t.Fatalf("expected the lesson to open in the museums section, got %s", m.Section())
	}
	cur := m.Cursor()
	if !cur.InLesson() || cur.MuseumID() != "m1" || cur.LessonID() != "l3" {
		t.Fatalf("expected lesson m1/l3, got %s", cur)
	}
	if m.render.View != viewer.ViewExternal {
		t.Errorf("expected external lesson view, got %v", m.render.View)
	}
	recent := h.store.RecentActivity(2)
	if len(recent) != 2 || recent[0].Action != progress.ActionStarted || recent[1].Action != progress.ActionVisited {
		t.Errorf("expected visit then start to be recorded, got %+v", recent)
	}

	// Closing returns to the museum with the lesson highlighted.
	m = send(t, m, keyEsc)
	if m.selLesson != 2 {
		t.Errorf("expected lesson row 2 selected, got %d", m.selLesson)
	}
}

func TestModel_ProgressSectionEnterWithNothingInProgress(t *testing.T) {
	m, _ := newLoadedModel(t)
	m = send(t, m, runes("2"))
	m = send(t, m, keyEnter)
	if m.Section() != SectionProgress || !m.Cursor().IsHome() {
		t.Errorf("enter on an empty list must do nothing, section %s cursor %s", m.Section(), m.Cursor())
	}
}

func TestModel_ProgressSection(t *testing.T) {
	m, _ := newLoadedModel(t)
	m = openLesson(t, m, 1)
	m = send(t, m, runes("c"))

	m = send(t, m, runes("2"))
	view := m.View()
	for _, want := range []string{
		"Lessons completed  1 / 4",
		"Museums explored   1",
		"Visited Museum of Fine Arts",
		"Started Gallery Tour",
		"Completed Gallery Tour",
		"Today",
		"Nothing in progress.",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("expected progress view to contain %q", want)
		}
	}

	m = send(t, m, keyEsc)
	if m.Section() != SectionMuseums || !m.Cursor().InLesson() {
		t.Errorf("expected to return to the open lesson, section %s cursor %s", m.Section(), m.Cursor())
	}
}

func TestModel_RequestSection(t *testing.T) {
	m, h := newLoadedModel(t)

	m = send(t, m, runes("3"))
	if m.Section() != SectionRequest {
		t.Fatalf("expected request section, got %s", m.Section())
	}
	if !strings.Contains(m.View(), "curators@example.org") {
		t.Error("expected recipient in request view")
	}

	// Empty topic is rejected.
	m.submitRequest()
	if !m.statusIsErr || len(h.clip.copied) != 0 {
		t.Errorf("expected rejection without copying, status %q", m.status)
	}

	m.draft.Topic = "Egyptian art"
	m.draft.Details = "Scarabs, please."
	m.submitRequest()
	if m.lastMail == nil || m.lastMail.Subject != "Museum Lesson Request: Egyptian art" {
		t.Fatalf("unexpected composed mail %+v", m.lastMail)
	}
	if got := h.clip.last(); !strings.HasPrefix(got, "mailto:curators@example.org?subject=Museum%20Lesson%20Request%3A%20Egyptian%20art") {
		t.Errorf("unexpected mailto link %q", got)
	}

	// Digits go to the form while it is focused; esc leaves it.
	m = send(t, m, runes("1"))
	if m.Section() != SectionRequest {
		t.Error("expected digits to be typed into the form")
	}
	m = send(t, m, keyEsc)
	if m.Section() != SectionMuseums {
		t.Errorf("expected esc to leave the form, got %s", m.Section())
	}
}

func TestModel_ReloadResolvesCursor(t *testing.T) {
	m, h := newLoadedModel(t)
	m = openLesson(t, m, 0)
	m = send(t, m, runes("n"))

	trimmed := `{"museums": [{"id": "m1", "name": "Museum of Fine Arts", "location": "Boston", "description": "d",
		"lessons": [{"id": "l2", "title": "Gallery Tour", "type": "video", "url": "https://youtu.be/dQw4w9WgXcQ"}]}]}`
	if err := os.WriteFile(h.path, []byte(trimmed), 0o644); err != nil {
		t.Fatal(err)
	}
	m = send(t, m, m.loadCatalog()())
	if !m.Cursor().InMuseum() || m.Cursor().MuseumID() != "m1" {
		t.Fatalf("expected fallback to the museum, got %s", m.Cursor())
	}
	if m.status != "Catalog reloaded" {
		t.Errorf("unexpected status %q", m.status)
	}

	if err := os.WriteFile(h.path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	before := m.Cursor()
	m = send(t, m, m.loadCatalog()())
	if m.state != loadReady || m.Cursor() != before {
		t.Errorf("failed reload must keep the current catalog, state %d cursor %s", m.state, m.Cursor())
	}
	if !strings.HasPrefix(m.status, "Reload failed") {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestModel_FailedLoadFallsBackToLastGoodCatalog(t *testing.T) {
	h := newHarness(t, nil)
	m := h.model(t)

	// Another load through the shared reloader succeeded before this one
	// failed; the model has not seen a catalog yet.
	if _, err := m.reloader.Load(context.Background()); err != nil {
		t.Fatalf("priming load: %v", err)
	}
	if err := os.WriteFile(h.path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	m = send(t, m, m.loadCatalog()())

	if m.state != loadReady {
		t.Fatalf("expected the last good catalog to be shown, state %d (%v)", m.state, m.loadErr)
	}
	if m.reloader.LastError() == nil {
		t.Error("expected the failed fetch to be recorded")
	}
	if !strings.HasPrefix(m.status, "Reload failed") {
		t.Errorf("unexpected status %q", m.status)
	}
	if !strings.Contains(m.View(), "Museum of Fine Arts") {
		t.Error("expected the home grid from the last good catalog")
	}
}

func TestModel_WatcherEvents(t *testing.T) {
	m, _ := newLoadedModel(t)

	nm, cmd := m.Update(catalogChangedMsg{event: watcher.Event{Kind: watcher.EventChanged}})
	m = nm.(Model)
	if cmd == nil || !strings.Contains(m.status, "reloading") {
		t.Errorf("expected reload to be scheduled, status %q", m.status)
	}

	m = send(t, m, catalogChangedMsg{event: watcher.Event{Kind: watcher.EventRemoved, Err: watcher.ErrFileRemoved}})
	if !m.statusIsErr || !strings.Contains(m.status, "removed") {
		t.Errorf("expected removal to be reported, status %q", m.status)
	}
}

func TestModel_GridNavigation(t *testing.T) {
	m, _ := newLoadedModel(t)
	if m.gridColumns() != 2 {
		t.Fatalf("expected 2 columns at width 100, got %d", m.gridColumns())
	}

	m = send(t, m, runes("l"))
	if m.selMuseum != 1 {
		t.Errorf("expected second card selected, got %d", m.selMuseum)
	}
	m = send(t, m, runes("l"))
	if m.selMuseum != 1 {
		t.Errorf("expected selection to stop at the last card, got %d", m.selMuseum)
	}
	m = send(t, m, keyDown)
	if m.selMuseum != 1 {
		t.Errorf("expected no row below, got %d", m.selMuseum)
	}

	m = send(t, m, keyEnter)
	if m.Cursor().MuseumID() != "m2" {
		t.Fatalf("expected m2 opened, got %s", m.Cursor())
	}
	m = send(t, m, keyEsc)
	if m.selMuseum != 1 {
		t.Errorf("expected selection kept on the museum just left, got %d", m.selMuseum)
	}
}

func TestModel_ClipboardUnavailable(t *testing.T) {
	m, h := newLoadedModel(t)
	h.clip.err = errors.New("no clipboard")
	m = openLesson(t, m, 1)

	m = send(t, m, runes("y"))
	if !m.statusIsErr || !strings.Contains(m.status, "youtube.com/watch") {
		t.Errorf("expected the link in the status when copying fails, got %q", m.status)
	}
}

type failingKV struct {
	*storage.Memory
}

func (failingKV) Set(string, string) error { return errors.New("disk full") }

func TestModel_PersistenceFailureIsReported(t *testing.T) {
	h := newHarness(t, failingKV{storage.NewMemory()})
	m := h.model(t)
	m = send(t, m, m.loadCatalog()())

	m = send(t, m, keyEnter)
	if !m.Cursor().InMuseum() {
		t.Fatalf("navigation must succeed despite storage errors, cursor %s", m.Cursor())
	}
	if !m.statusIsErr || !strings.Contains(m.status, "Progress not saved") {
		t.Errorf("expected persistence warning, got %q", m.status)
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newLoadedModel(t)

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestParseSection(t *testing.T) {
	tests := map[string]Section{
		"":         SectionMuseums,
		"home":     SectionMuseums,
		"progress": SectionProgress,
		"request":  SectionRequest,
		"gallery":  SectionMuseums,
	}
	for in, want := range tests {
		if got := ParseSection(in); got != want {
			t.Errorf("ParseSection(%q) = %s, want %s", in, got, want)
		}
	}
}
