//go:build !gui

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/metcalfc/rsvp/internal/nav"
	"github.com/metcalfc/rsvp/internal/player"
	"github.com/metcalfc/rsvp/internal/settings"
	"github.com/metcalfc/rsvp/internal/text"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	completeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	countdownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#88AAFF"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)
)

// arrowRepeat is how soon a second sentence jump must follow the first to
// keep playback running.
const arrowRepeat = 500 * time.Millisecond

type model struct {
	r        *reading
	settings *settings.Store

	quitting bool
	width    int
	height   int

	search    textinput.Model
	searching bool
	results   *nav.Results

	showChapters  bool
	chapterCursor int

	progress  progress.Model
	message   string
	lastArrow time.Time
}

// playerMsg carries a player event into the update loop.
type playerMsg player.Event

type searchMsg struct {
	query string
	hits  []int
	err   error
}

func newModel(r *reading, store *settings.Store) model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search"
	ti.CharLimit = 64

	return model{
		r:        r,
		settings: store,
		width:    80,
		height:   24,
		search:   ti,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func waitForEvent(ch <-chan player.Event) tea.Cmd {
	return func() tea.Msg {
		return playerMsg(<-ch)
	}
}

func runSearch(tokens []string, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hits, err := nav.Search(ctx, tokens, query)
		return searchMsg{query: query, hits: hits, err: err}
	}
}

func (m model) Init() tea.Cmd {
	m.r.player.Play()
	return waitForEvent(m.r.events)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case playerMsg:
		return m, waitForEvent(m.r.events)

	case searchMsg:
		return m.onSearch(msg), nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width-4, 10)
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.searching:
			return m.updateSearch(msg)
		case m.showChapters:
			return m.updateChapters(msg), nil
		}
		return m.updateReading(msg)
	}
	return m, nil
}

func (m model) updateReading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.r.player
	m.message = ""

	switch msg.String() {
	case " ":
		p.Toggle()

	case "+", "=", "up":
		m.adjustWPM(settings.WPMStep)

	case "-", "down":
		m.adjustWPM(-settings.WPMStep)

	case "left":
		m.pauseUnlessRepeat()
		p.SeekTo(text.PrevSentence(m.r.sentences, p.Snapshot().Index))

	case "right":
		m.pauseUnlessRepeat()
		p.SeekTo(text.NextSentence(m.r.sentences, p.Snapshot().Index, len(m.r.book.Tokens)))

	case "[":
		p.Rewind()

	case "]":
		p.Skip()

	case "r":
		p.Reread()

	case "b":
		index := p.Snapshot().Index
		if _, err := m.r.bookmarks.Add(context.Background(), m.r.docID(), index); err != nil {
			m.message = "bookmark failed: " + err.Error()
		} else {
			m.message = "bookmarked " + nav.Label(index)
		}

	case "B":
		m.nextBookmark()

	case "/":
		m.searching = true
		m.search.Reset()
		return m, m.search.Focus()

	case "n":
		if m.results != nil {
			if i, ok := m.results.Next(); ok {
				p.SeekTo(i)
				m.message = m.matchText()
			}
		}

	case "N":
		if m.results != nil {
			if i, ok := m.results.Prev(); ok {
				p.SeekTo(i)
				m.message = m.matchText()
			}
		}

	case "c":
		if len(m.r.chapters) > 0 {
			p.Pause()
			m.showChapters = true
			m.chapterCursor = max(m.r.chapters.At(p.Snapshot().Index), 0)
		}

	case "o":
		m.toggle(settings.FlagORP)
	case "k":
		m.toggle(settings.FlagBionicReading)
	case "x":
		m.toggle(settings.FlagContextualHybrid)
	case "w":
		m.toggle(settings.FlagWarmup)
	case "p":
		m.toggle(settings.FlagPunctuationDelays)
	case "s":
		m.toggle(settings.FlagSmartPause)
	case "t":
		m.toggle(settings.FlagTTS)
	case "g":
		m.toggle(settings.FlagReadingGoals)
	case "f":
		m.toggle(settings.FlagFocusTimer)
	case "d":
		m.toggle(settings.FlagDarkMode)

	case "q", "Q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) pauseUnlessRepeat() {
	now := time.Now()
	if now.Sub(m.lastArrow) > arrowRepeat {
		m.r.player.Pause()
	}
	m.lastArrow = now
}

func (m *model) adjustWPM(delta int) {
	if _, err := m.settings.AdjustWPM(delta); err != nil {
		m.message = "settings not saved: " + err.Error()
	}
}

func (m *model) toggle(f settings.Flag) {
	s, err := m.settings.ToggleFlag(f)
	if err != nil {
		m.message = "settings not saved: " + err.Error()
		return
	}
	state := "off"
	if s.Enabled(f) {
		state = "on"
	}
	m.message = f.String() + " " + state
}

func (m *model) nextBookmark() {
	marks, err := m.r.bookmarks.List(context.Background(), m.r.docID())
	if err != nil {
		m.message = "bookmarks: " + err.Error()
		return
	}
	if len(marks) == 0 {
		m.message = "no bookmarks (b to add)"
		return
	}
	index := m.r.player.Snapshot().Index
	target := marks[0]
	for _, b := range marks {
		if b.Position > index {
			target = b
			break
		}
	}
	m.r.player.SeekTo(target.Position)
	m.message = target.Label
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		query := strings.TrimSpace(m.search.Value())
		if query == "" {
			m.results = nil
			return m, nil
		}
		m.message = "searching..."
		return m, runSearch(m.r.book.Tokens, query)
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m model) onSearch(msg searchMsg) model {
	if msg.err != nil {
		m.message = "search: " + msg.err.Error()
		return m
	}
	m.results = nav.NewResults(msg.query, msg.hits, m.r.player.Snapshot().Index)
	i, ok := m.results.Current()
	if !ok {
		m.message = fmt.Sprintf("no matches for %q", msg.query)
		return m
	}
	m.r.player.SeekTo(i)
	m.message = m.matchText()
	return m
}

func (m model) matchText() string {
	return fmt.Sprintf("%q match %d/%d (n/N)", m.results.Query, m.results.Position(), m.results.Len())
}

func (m model) updateChapters(msg tea.KeyMsg) model {
	switch msg.String() {
	case "up", "k":
		if m.chapterCursor > 0 {
			m.chapterCursor--
		}
	case "down", "j":
		if m.chapterCursor < len(m.r.chapters)-1 {
			m.chapterCursor++
		}
	case "enter":
		if start, ok := m.r.chapters.Start(m.chapterCursor); ok {
			m.r.player.SeekTo(start)
		}
		m.showChapters = false
	case "esc", "c", "q":
		m.showChapters = false
	}
	return m
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if len(m.r.book.Tokens) == 0 {
		return "No text to read.\n"
	}

	s := m.settings.Current()
	snap := m.r.player.Snapshot()

	var sb strings.Builder
	sb.WriteString(m.statusLine(snap, s))
	sb.WriteString("\n")

	var body string
	switch {
	case m.showChapters:
		body = m.chapterList()
	case snap.Finished():
		body = m.finishedView()
	case snap.State == player.Countdown:
		body = anchorText(countdownStyle.Render(fmt.Sprint(snap.Countdown)), 0, m.width)
	case s.ContextualHybrid && !snap.State.Active():
		body = m.contextView(snap, s)
	default:
		body = m.wordLine(snap.Word, s)
	}

	// Reserve 4 lines: status, progress, message and controls.
	avail := max(m.height-4, 1)
	bodyLines := strings.Count(body, "\n") + 1
	vPad := max((avail-bodyLines)/2, 0)
	sb.WriteString(strings.Repeat("\n", vPad))
	sb.WriteString(body)
	sb.WriteString(strings.Repeat("\n", max(avail-vPad-bodyLines+1, 1)))

	sb.WriteString(m.progress.ViewAs(snap.Progress()))
	sb.WriteString("\n")
	switch {
	case m.searching:
		sb.WriteString(m.search.View())
	case m.message != "":
		sb.WriteString(messageStyle.Render(m.message))
	}
	sb.WriteString("\n")
	sb.WriteString(controlsStyle.Render(m.controls()))
	return sb.String()
}

func (m model) statusLine(snap player.Snapshot, s settings.Settings) string {
	wpm := s.WPM
	if snap.State == player.Playing {
		wpm = snap.EffectiveWPM
	}
	parts := []string{
		fmt.Sprintf("Word %d/%d", min(snap.Index+1, snap.Total), snap.Total),
		fmt.Sprintf("%d WPM", wpm),
		fmt.Sprintf("~%d min left", text.MinutesRemaining(snap.Total, snap.Index, s.WPM)),
	}
	if title := m.r.chapters.Title(snap.Index); title != "" {
		parts = append(parts, title)
	}
	if snap.FocusActive {
		parts = append(parts, "focus "+clock(snap.FocusRemaining))
	}
	status := strings.Join(parts, " | ")
	switch snap.State {
	case player.Paused, player.Idle:
		status += pausedStyle.Render(" [PAUSED]")
	case player.Finished:
		status += completeStyle.Render(" [DONE]")
	}
	return statusStyle.Render(status)
}

func clock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func (m model) controls() string {
	if m.showChapters {
		return "↑/↓: select  ENTER: jump  ESC: close"
	}
	return "SPACE: play/pause  ↑/↓: speed  ←/→: sentence  [/]: -/+10  /: search  b/B: bookmark  c: chapters  r: reread  Q: quit"
}

// palette returns the plain and focus-letter styles for the settings.
func palette(s settings.Settings) (plain, focus lipgloss.Style) {
	fg := lipgloss.Color("#FFFFFF")
	if !s.DarkMode {
		fg = lipgloss.Color("#111111")
	}
	plain = lipgloss.NewStyle().Foreground(fg)
	focus = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(s.ORPColor))
	return plain, focus
}

// formatWord styles a token: bionic emphasis, or the ORP letter in the
// focus color.
func formatWord(word string, s settings.Settings) string {
	plain, focus := palette(s)
	if s.BionicReading {
		bold, rest := text.BionicSplit(word)
		return plain.Bold(true).Render(bold) + plain.Render(rest)
	}
	if !s.ORPEnabled {
		return plain.Render(word)
	}
	before, letter, after := text.SplitORP(word)
	return plain.Render(before) + focus.Render(letter) + plain.Render(after)
}

func (m model) wordLine(word string, s settings.Settings) string {
	before, _, _ := text.SplitORP(word)
	return anchorText(formatWord(word, s), runewidth.StringWidth(before), m.width)
}

// anchorText pads styled so the cell at offset lands in the middle of a
// line of width cells. Wide runes count as two cells.
func anchorText(styled string, offset, width int) string {
	pad := max(width/2-offset, 0)
	return strings.Repeat(" ", pad) + styled
}

func (m model) contextView(snap player.Snapshot, s settings.Settings) string {
	window, at := text.ContextWindow(m.r.book.Tokens, snap.Index, text.ContextRadius)
	plain, focus := palette(s)
	parts := make([]string, len(window))
	for i, w := range window {
		if i == at {
			parts[i] = focus.Underline(true).Render(w)
			continue
		}
		parts[i] = plain.Render(w)
	}
	width := max(m.width-4, 20)
	return lipgloss.NewStyle().Width(width).Padding(0, 2).Render(strings.Join(parts, " "))
}

func (m model) chapterList() string {
	var sb strings.Builder
	sb.WriteString(statusStyle.Render("Chapters"))
	sb.WriteString("\n")
	// Keep the cursor visible in short terminals.
	rows := max(m.height-8, 3)
	first := max(m.chapterCursor-rows/2, 0)
	last := min(first+rows, len(m.r.chapters))
	for i := first; i < last; i++ {
		line := fmt.Sprintf("  %s  (%d)", m.r.chapters[i].Title, m.r.chapters[i].StartIndex)
		if i == m.chapterCursor {
			line = selectedStyle.Render("> " + strings.TrimPrefix(line, "  "))
		}
		sb.WriteString(line)
		if i < last-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m model) finishedView() string {
	sum := m.r.tracker.Summary()
	lines := []string{
		completeStyle.Render("Reading complete!"),
		fmt.Sprintf("%d words in %s, average %d WPM", sum.Words, sum.Elapsed.Round(time.Second), sum.AvgWPM),
		controlsStyle.Render("r or SPACE: read again  Q: quit"),
	}
	for i, l := range lines {
		lines[i] = anchorText(l, lipgloss.Width(l)/2, m.width)
	}
	return strings.Join(lines, "\n")
}

func runReader(a *app, r *reading) error {
	p := tea.NewProgram(newModel(r, a.settings), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
