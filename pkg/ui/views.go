package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/museumhub/pkg/catalog"
	"github.com/vanderheijden86/museumhub/pkg/metrics"
	"github.com/vanderheijden86/museumhub/pkg/progress"
	"github.com/vanderheijden86/museumhub/pkg/viewer"
)

const cardHeight = 8 // border + 6 content lines

// View renders the whole screen.
func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()
	var body string
	switch m.state {
	case loadPending:
		body = fmt.Sprintf("\n  %s Loading museums from %s…", m.spinner.View(), m.reloader.Source().Location())
	case loadFailed:
		body = m.renderLoadError()
	default:
		switch m.section {
		case SectionProgress:
			body = m.renderProgress()
		case SectionRequest:
			body = m.renderRequest()
		default:
			body = m.renderMuseums()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatus(),
		m.help.View(m.contextKeys()),
	)
}

func (m Model) renderHeader() string {
	t := m.theme
	title := t.Header.Render("🏛  Museum Hub")
	var tabs []string
	for i, s := range []Section{SectionMuseums, SectionProgress, SectionRequest} {
		label := fmt.Sprintf(" %d %s ", i+1, s)
		if s == m.section {
			tabs = append(tabs, t.PrimaryBold.Underline(true).Render(label))
		} else {
			tabs = append(tabs, t.MutedText.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", strings.Join(tabs, " ")) + "\n"
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	s := truncate(m.status, m.width-2)
	if m.statusIsErr {
		return m.theme.ErrorText.Render(s)
	}
	return m.theme.Notice.Render(s)
}

func (m Model) renderLoadError() string {
	t := m.theme
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(t.ErrorText.Render("  Could not load museums"))
	sb.WriteString("\n\n  ")
	sb.WriteString(truncate(m.loadErr.Error(), m.width-4))
	sb.WriteString("\n\n")
	sb.WriteString(t.MutedText.Render("  Press r to retry or q to quit."))
	return sb.String()
}

func (m Model) renderMuseums() string {
	switch m.render.View {
	case viewer.ViewHome:
		return m.renderHome()
	case viewer.ViewMuseumDetail:
		return m.renderMuseumDetail()
	default:
		return m.renderLesson()
	}
}

func (m Model) gridColumns() int {
	cols := m.width / (CardWidth + SpaceSM)
	if cols < 1 {
		cols = 1
	}
	return cols
}

func (m Model) cardWidth() int {
	if m.gridColumns() == 1 {
		w := m.width - SpaceSM
		if w < CardMinWidth {
			w = CardMinWidth
		}
		if w > CardWidth {
			w = CardWidth
		}
		return w
	}
	return CardWidth
}

func (m Model) renderHome() string {
	museums := m.render.Museums
	if len(museums) == 0 {
		return "\n" + m.theme.MutedText.Render("  No museums available yet.")
	}

	cols := m.gridColumns()
	rowsFit := m.bodyHeight() / cardHeight
	if rowsFit < 1 {
		rowsFit = 1
	}
	selRow := m.selMuseum / cols
	firstRow := 0
	if selRow >= rowsFit {
		firstRow = selRow - rowsFit + 1
	}

	var rows []string
	for start := firstRow * cols; start < len(museums) && len(rows) < rowsFit; start += cols {
		end := start + cols
		if end > len(museums) {
			end = len(museums)
		}
		var cards []string
		for i := start; i < end; i++ {
			cards = append(cards, m.renderCard(museums[i], i == m.selMuseum))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCard(mu *catalog.Museum, selected bool) string {
	t := m.theme
	inner := m.cardWidth() - 4

	done := m.progress.CompletedInMuseum(mu)
	total := len(mu.Lessons)

	lines := []string{
		t.PrimaryBold.Render(truncate(mu.Name, inner)),
		t.MutedText.Render(truncate("📍 "+mu.Location, inner)),
	}
	desc := wrapLines(mu.Description, inner, 2)
	for len(desc) < 2 {
		desc = append(desc, "")
	}
	lines = append(lines, desc...)
	lines = append(lines,
		RenderProgressBar(done, total, inner, t),
		truncate(fmt.Sprintf("%d of %d lessons completed", done, total), inner),
	)

	style := t.Card
	if selected {
		style = t.SelectedCard
	}
	return style.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

func (m Model) renderMuseumDetail() string {
	t := m.theme
	mu := m.render.Museum
	if mu == nil {
		return ""
	}
	width := m.width - 2

	var sb strings.Builder
	sb.WriteString(t.PrimaryBold.Render(truncate(mu.Name, width)))
	sb.WriteString("\n")
	sb.WriteString(t.MutedText.Render(truncate("📍 "+mu.Location, width)))
	sb.WriteString("\n")
	for _, line := range wrapLines(mu.Description, width, 3) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if mu.IntroVideoURL != "" {
		sb.WriteString(t.MutedText.Render(truncate("▶ Intro video: "+catalog.WatchURL(mu.IntroVideoURL), width)))
		sb.WriteString("\n")
	}
	done := m.progress.CompletedInMuseum(mu)
	sb.WriteString(fmt.Sprintf("%s %d of %d lessons completed\n", RenderProgressBar(done, len(mu.Lessons), 20, t), done, len(mu.Lessons)))
	sb.WriteString(RenderDivider(width))
	sb.WriteString("\n")

	if len(mu.Lessons) == 0 {
		sb.WriteString(t.MutedText.Render("No lessons yet."))
		return sb.String()
	}

	for i, l := range mu.Lessons {
		check := RenderCheck(m.progress.IsCompleted(l.ID), t)
		badge := RenderLessonBadge(l.Type(), t)
		title := truncate(l.Title, width-lipgloss.Width(badge)-8)
		line := fmt.Sprintf("%s %s %s", check, badge, title)
		if l.Description != "" {
			room := width - lipgloss.Width(line) - 5
			if room > 10 {
				line += t.MutedText.Render(" · " + truncate(l.Description, room))
			}
		}
		if i == m.selLesson {
			sb.WriteString(t.Selected.Render(line))
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderLesson() string {
	t := m.theme
	r := m.render
	if r.Lesson == nil {
		return ""
	}
	width := m.width - 2

	var sb strings.Builder
	sb.WriteString(t.MutedText.Render(truncate(r.Museum.Name, width)))
	sb.WriteString("\n")
	head := RenderLessonBadge(r.Lesson.Type(), t) + " " + t.PrimaryBold.Render(truncate(r.Lesson.Title, width-12))
	if r.Completed {
		head += " " + t.SuccessText.Render("✓ Completed")
	}
	sb.WriteString(head)
	sb.WriteString("\n")
	if r.View == viewer.ViewGuidedPage {
		sb.WriteString(renderPageDots(r.PageIndex, r.PageCount, t))
		sb.WriteString(t.MutedText.Render(fmt.Sprintf("  Page %d of %d", r.PageIndex+1, r.PageCount)))
		sb.WriteString("\n")
	}
	sb.WriteString(RenderDivider(width))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	return sb.String()
}

func renderPageDots(idx, n int, t Theme) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i == idx {
			sb.WriteString(t.PrimaryBold.Render("●"))
		} else {
			sb.WriteString(t.MutedText.Render("○"))
		}
	}
	return sb.String()
}

// refreshContent fills the lesson viewport for the current render.
func (m *Model) refreshContent() {
	m.viewport.Width = m.width
	m.viewport.Height = m.bodyHeight() - 4
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	if m.render.Lesson == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(m.lessonBody())
}

func (m Model) lessonBody() string {
	t := m.theme
	r := m.render
	l := r.Lesson

	var sb strings.Builder
	section := func(md string) {
		if strings.TrimSpace(md) == "" {
			return
		}
		sb.WriteString(m.md.Render(md))
		sb.WriteString("\n\n")
	}
	line := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(t.MutedText.Render(label))
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	switch r.View {
	case viewer.ViewVideo:
		section(l.Description)
		v, _ := l.Content.(catalog.Video)
		line("▶ Watch: ", r.OpenURL)
		line("By ", v.Author)
		sb.WriteString("\n")
		section(l.Note)
		sb.WriteString(t.MutedText.Render("y copies the link · c marks the lesson complete"))

	case viewer.ViewExternal:
		section(l.Description)
		ext, _ := l.Content.(catalog.External)
		line("🔗 ", ext.URL)
		sb.WriteString("\n")
		section(l.Note)
		sb.WriteString(t.MutedText.Render("o opens the course (copies the link and lists it under In Progress) · c marks it complete"))

	case viewer.ViewGuidedPage:
		if r.PageIndex == 0 {
			section(l.Description)
			if g, ok := l.Content.(catalog.Guided); ok {
				line("By ", g.Author)
			}
		}
		p := r.Page
		switch p.Kind {
		case catalog.PageText:
			section(p.Text)
		case catalog.PageImage:
			line("🖼  ", p.Caption)
			line("   ", p.URL)
			sb.WriteString("\n")
			section(p.Description)
		case catalog.PageVideo:
			line("▶ ", p.Caption)
			line("   ", catalog.WatchURL(p.URL))
			sb.WriteString("\n")
			section(p.Description)
		}
		if !r.CanNext && !r.Completed {
			sb.WriteString(t.MutedText.Render("Last page."))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) renderProgress() string {
	t := m.theme
	c := m.ctrl.Catalog()
	stats := m.progress.Stats(c)
	width := m.width - 2

	var sb strings.Builder
	sb.WriteString(t.PrimaryBold.Render("Your progress"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  Lessons completed  %d / %d  %s\n",
		stats.CompletedCount, stats.TotalLessonCount,
		RenderProgressBar(stats.CompletedCount, stats.TotalLessonCount, 20, t)))
	sb.WriteString(fmt.Sprintf("  Museums explored   %d\n\n", stats.MuseumsVisitedCount))

	sb.WriteString(t.PrimaryBold.Render("Recent activity"))
	sb.WriteString("\n")
	recent := m.progress.RecentActivity(m.recentN)
	if len(recent) == 0 {
		sb.WriteString(t.MutedText.Render("  No activity yet. Open a museum to get started."))
		sb.WriteString("\n")
	}
	now := m.now()
	for _, e := range recent {
		when := t.MutedText.Render(" · " + FormatDayRel(e.Time(), now))
		sb.WriteString("  " + activityIcon(e.Action, t) + " " + truncate(activityText(e), width-24) + when + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(t.PrimaryBold.Render("In progress"))
	sb.WriteString("\n")
	items := m.inProgressLessons()
	sel := clamp(m.selProgress, len(items))
	for i, it := range items {
		line := truncate(it.lesson.Title+" · "+it.museum.Name, width-4)
		if i == sel {
			sb.WriteString(t.PrimaryBold.Render("▸ ↗ " + line))
		} else {
			sb.WriteString("  " + t.MutedText.Render("↗ ") + line)
		}
		sb.WriteString("\n")
	}
	if len(items) == 0 {
		sb.WriteString(t.MutedText.Render("  Nothing in progress."))
		sb.WriteString("\n")
	}
	return sb.String()
}

func activityIcon(a progress.Action, t Theme) string {
	switch a {
	case progress.ActionCompleted:
		return t.SuccessText.Render("✓")
	case progress.ActionStarted:
		return t.Renderer.NewStyle().Foreground(t.InProgress).Render("▶")
	default:
		return t.MutedText.Render("🏛")
	}
}

func activityText(e progress.ActivityEntry) string {
	switch e.Action {
	case progress.ActionCompleted:
		return "Completed " + e.Title
	case progress.ActionStarted:
		return "Started " + e.Title
	default:
		return "Visited " + e.Title
	}
}

func (m Model) renderRequest() string {
	t := m.theme
	var sb strings.Builder
	sb.WriteString(t.PrimaryBold.Render("Request a lesson"))
	sb.WriteString("\n")
	sb.WriteString(t.MutedText.Render("Tell the curators what you would like to learn. Requests go to " + m.recipient + "."))
	sb.WriteString("\n\n")
	sb.WriteString(m.form.View())
	if m.lastMail != nil {
		sb.WriteString("\n\n")
		sb.WriteString(t.MutedText.Render("Last request: " + m.lastMail.Subject))
		sb.WriteString("\n")
		sb.WriteString(t.MutedText.Render(truncate(m.lastMail.MailtoURL(), m.width-2)))
	}
	return sb.String()
}

func (m Model) contextKeys() contextKeys {
	k := m.keys
	sections := []key.Binding{k.Home, k.Progress, k.Request}

	var short []key.Binding
	switch {
	case m.state == loadPending:
		short = []key.Binding{k.Quit}
	case m.state == loadFailed:
		short = []key.Binding{k.Retry, k.Quit}
	case m.section == SectionRequest:
		short = []key.Binding{k.Back}
	case m.section == SectionProgress:
		short = append([]key.Binding{k.Select, k.Up, k.Down, k.Back}, sections...)
	default:
		switch m.render.View {
		case viewer.ViewHome:
			short = []key.Binding{k.Select, k.Left, k.Right}
		case viewer.ViewMuseumDetail:
			short = []key.Binding{k.Select, k.Up, k.Down, k.Back}
		case viewer.ViewGuidedPage:
			short = []key.Binding{k.Next, k.Prev, k.Complete, k.Back}
		case viewer.ViewVideo:
			short = []key.Binding{k.Copy, k.Complete, k.Back}
		case viewer.ViewExternal:
			short = []key.Binding{k.Open, k.Copy, k.Complete, k.Back}
		}
		short = append(short, k.Help, k.Quit)
	}

	return contextKeys{
		short: short,
		full:  [][]key.Binding{short, sections},
	}
}
