//go:build gui

package main

import (
	"context"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/metcalfc/rsvp/internal/nav"
	"github.com/metcalfc/rsvp/internal/player"
	"github.com/metcalfc/rsvp/internal/settings"
	"github.com/metcalfc/rsvp/internal/text"
)

var (
	darkBackground  = color.RGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xFF}
	lightBackground = color.RGBA{R: 0xF5, G: 0xF5, B: 0xF0, A: 0xFF}
	darkForeground  = color.White
	lightForeground = color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xFF}
	defaultFocus    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// parseHexColor turns #RRGGBB into a color, falling back to red.
func parseHexColor(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return defaultFocus
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return defaultFocus
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}

func foreground(s settings.Settings) color.Color {
	if s.DarkMode {
		return darkForeground
	}
	return lightForeground
}

func background(s settings.Settings) color.Color {
	if s.DarkMode {
		return darkBackground
	}
	return lightBackground
}

func createWordDisplay(word string, s settings.Settings, windowWidth float32) *fyne.Container {
	before, letter, after := text.SplitORP(word)
	focusColor := parseHexColor(s.ORPColor)
	if !s.ORPEnabled {
		focusColor = foreground(s)
	}
	fontSize := float32(s.FontSize)

	beforeText := canvas.NewText(before, foreground(s))
	beforeText.TextSize = fontSize
	beforeText.TextStyle.Bold = true

	focusText := canvas.NewText(letter, focusColor)
	focusText.TextSize = fontSize
	focusText.TextStyle.Bold = true

	afterText := canvas.NewText(after, foreground(s))
	afterText.TextSize = fontSize
	afterText.TextStyle.Bold = true

	if s.BionicReading {
		bold, rest := text.BionicSplit(word)
		beforeText.Text = ""
		focusText.Text = bold
		focusText.Color = foreground(s)
		afterText.Text = rest
		afterText.TextStyle.Bold = false
	}

	beforeSize := beforeText.MinSize()
	focusSize := focusText.MinSize()

	// Anchor the focus letter at the horizontal center.
	centerX := windowWidth / 2
	beforeX := max(centerX-beforeSize.Width, 0)
	focusX := centerX
	afterX := centerX + focusSize.Width

	c := &fyne.Container{
		Layout:  &centerVerticalLayout{},
		Objects: []fyne.CanvasObject{beforeText, focusText, afterText},
	}
	beforeText.Move(fyne.NewPos(beforeX, 0))
	focusText.Move(fyne.NewPos(focusX, 0))
	afterText.Move(fyne.NewPos(afterX, 0))
	return c
}

type centerVerticalLayout struct{}

func (l *centerVerticalLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var maxH float32
	for _, o := range objects {
		maxH = max(maxH, o.MinSize().Height)
	}
	return fyne.NewSize(0, maxH)
}

func (l *centerVerticalLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	var maxH float32
	for _, o := range objects {
		maxH = max(maxH, o.MinSize().Height)
	}
	y := max((size.Height-maxH)/2, 0)

	// X is set by createWordDisplay.
	for _, o := range objects {
		o.Move(fyne.NewPos(o.Position().X, y))
		o.Resize(o.MinSize())
	}
}

type window struct {
	r        *reading
	settings *settings.Store
	w        fyne.Window

	status   *widget.Label
	message  *widget.Label
	word     *fyne.Container
	backdrop *canvas.Rectangle
	toc      *container.Split

	mu        sync.Mutex
	lastArrow time.Time
	results   *nav.Results
}

func (g *window) update() {
	s := g.settings.Current()
	snap := g.r.player.Snapshot()

	width := g.w.Canvas().Size().Width
	if width <= 0 {
		width = 800
	}

	g.backdrop.FillColor = background(s)
	g.backdrop.Refresh()

	var content fyne.CanvasObject
	switch {
	case len(g.r.book.Tokens) == 0:
		content = widget.NewLabel("No text to read.")
	case snap.Finished():
		sum := g.r.tracker.Summary()
		l := widget.NewLabel(fmt.Sprintf("Reading complete! %d words in %s, average %d WPM. R or SPACE to read again.",
			sum.Words, sum.Elapsed.Round(time.Second), sum.AvgWPM))
		l.Alignment = fyne.TextAlignCenter
		content = container.NewCenter(l)
	case snap.State == player.Countdown:
		t := canvas.NewText(strconv.Itoa(snap.Countdown), parseHexColor(s.ORPColor))
		t.TextSize = float32(s.FontSize)
		t.TextStyle.Bold = true
		content = container.NewCenter(t)
	case s.ContextualHybrid && !snap.State.Active():
		nearby, _ := text.ContextWindow(g.r.book.Tokens, snap.Index, text.ContextRadius)
		l := widget.NewLabel(strings.Join(nearby, " "))
		l.Wrapping = fyne.TextWrapWord
		l.Alignment = fyne.TextAlignCenter
		content = container.NewVBox(l, createWordDisplay(snap.Word, s, width))
	default:
		content = createWordDisplay(snap.Word, s, width)
	}
	g.word.Objects = []fyne.CanvasObject{content}
	g.word.Refresh()

	g.status.SetText(statusText(snap, s, g.r.chapters))
}

func statusText(snap player.Snapshot, s settings.Settings, chapters nav.Chapters) string {
	wpm := s.WPM
	if snap.State == player.Playing {
		wpm = snap.EffectiveWPM
	}
	parts := []string{
		fmt.Sprintf("Word %d/%d", min(snap.Index+1, snap.Total), snap.Total),
		fmt.Sprintf("%d WPM", wpm),
		fmt.Sprintf("Font: %d", s.FontSize),
		fmt.Sprintf("~%d min left", text.MinutesRemaining(snap.Total, snap.Index, s.WPM)),
	}
	if title := chapters.Title(snap.Index); title != "" {
		parts = append(parts, title)
	}
	if snap.FocusActive {
		secs := int(snap.FocusRemaining / time.Second)
		parts = append(parts, fmt.Sprintf("focus %02d:%02d", secs/60, secs%60))
	}
	status := strings.Join(parts, " | ")
	switch snap.State {
	case player.Paused, player.Idle:
		status += " [PAUSED]"
	case player.Finished:
		status += " [DONE]"
	}
	return status
}

func (g *window) say(msg string) {
	g.message.SetText(msg)
}

func (g *window) pauseUnlessRepeat() {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	if now.Sub(g.lastArrow) > 500*time.Millisecond {
		g.r.player.Pause()
	}
	g.lastArrow = now
}

func (g *window) toggle(f settings.Flag) {
	s, err := g.settings.ToggleFlag(f)
	if err != nil {
		g.say("settings not saved: " + err.Error())
		return
	}
	state := "off"
	if s.Enabled(f) {
		state = "on"
	}
	g.say(f.String() + " " + state)
}

func (g *window) onKey(key *fyne.KeyEvent) {
	p := g.r.player
	switch key.Name {
	case fyne.KeySpace:
		p.Toggle()
	case fyne.KeyUp:
		_, _ = g.settings.AdjustWPM(settings.WPMStep)
	case fyne.KeyDown:
		_, _ = g.settings.AdjustWPM(-settings.WPMStep)
	case fyne.KeyLeft:
		g.pauseUnlessRepeat()
		p.SeekTo(text.PrevSentence(g.r.sentences, p.Snapshot().Index))
	case fyne.KeyRight:
		g.pauseUnlessRepeat()
		p.SeekTo(text.NextSentence(g.r.sentences, p.Snapshot().Index, len(g.r.book.Tokens)))
	case fyne.KeyF11:
		g.w.SetFullScreen(!g.w.FullScreen())
	case fyne.KeyEscape:
		g.w.Close()
	}
}

func (g *window) onRune(ch rune) {
	p := g.r.player
	switch ch {
	case '+', '=':
		_, _ = g.settings.AdjustFontSize(settings.FontSizeStep)
	case '-':
		_, _ = g.settings.AdjustFontSize(-settings.FontSizeStep)
	case '[':
		p.Rewind()
	case ']':
		p.Skip()
	case 'r', 'R':
		p.Reread()
	case 'b':
		index := p.Snapshot().Index
		if _, err := g.r.bookmarks.Add(context.Background(), g.r.docID(), index); err != nil {
			g.say("bookmark failed: " + err.Error())
		} else {
			g.say("bookmarked " + nav.Label(index))
		}
	case 'B':
		g.nextBookmark()
	case '/':
		g.showSearch()
	case 'n':
		g.stepResult(true)
	case 'N':
		g.stepResult(false)
	case 'c', 'T':
		if g.toc != nil {
			if g.toc.Leading.Visible() {
				g.toc.Leading.Hide()
			} else {
				p.Pause()
				g.toc.Leading.Show()
			}
			g.toc.Refresh()
		}
	case 'o':
		g.toggle(settings.FlagORP)
	case 'k':
		g.toggle(settings.FlagBionicReading)
	case 'x':
		g.toggle(settings.FlagContextualHybrid)
	case 'w':
		g.toggle(settings.FlagWarmup)
	case 'p':
		g.toggle(settings.FlagPunctuationDelays)
	case 's':
		g.toggle(settings.FlagSmartPause)
	case 't':
		g.toggle(settings.FlagTTS)
	case 'g':
		g.toggle(settings.FlagReadingGoals)
	case 'f':
		g.toggle(settings.FlagFocusTimer)
	case 'd':
		g.toggle(settings.FlagDarkMode)
	case 'q', 'Q':
		g.w.Close()
	}
}

func (g *window) nextBookmark() {
	marks, err := g.r.bookmarks.List(context.Background(), g.r.docID())
	if err != nil {
		g.say("bookmarks: " + err.Error())
		return
	}
	if len(marks) == 0 {
		g.say("no bookmarks (b to add)")
		return
	}
	index := g.r.player.Snapshot().Index
	target := marks[0]
	for _, b := range marks {
		if b.Position > index {
			target = b
			break
		}
	}
	g.r.player.SeekTo(target.Position)
	g.say(target.Label)
}

func (g *window) showSearch() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("search")
	var popup *widget.PopUp
	entry.OnSubmitted = func(query string) {
		popup.Hide()
		query = strings.TrimSpace(query)
		if query == "" {
			return
		}
		tokens := g.r.book.Tokens
		from := g.r.player.Snapshot().Index
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			hits, err := nav.Search(ctx, tokens, query)
			fyne.Do(func() {
				if err != nil {
					g.say("search: " + err.Error())
					return
				}
				g.results = nav.NewResults(query, hits, from)
				g.jumpResult(g.results.Current())
			})
		}()
	}
	popup = widget.NewModalPopUp(entry, g.w.Canvas())
	popup.Resize(fyne.NewSize(300, entry.MinSize().Height))
	popup.Show()
	g.w.Canvas().Focus(entry)
}

func (g *window) stepResult(forward bool) {
	if g.results == nil {
		return
	}
	if forward {
		g.jumpResult(g.results.Next())
	} else {
		g.jumpResult(g.results.Prev())
	}
}

func (g *window) jumpResult(i int, ok bool) {
	if !ok {
		g.say(fmt.Sprintf("no matches for %q", g.results.Query))
		return
	}
	g.r.player.SeekTo(i)
	g.say(fmt.Sprintf("%q match %d/%d (n/N)", g.results.Query, g.results.Position(), g.results.Len()))
}

func (g *window) chapterList() fyne.CanvasObject {
	list := widget.NewList(
		func() int { return len(g.r.chapters) },
		func() fyne.CanvasObject { return widget.NewLabel("Title") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(g.r.chapters[id].Title)
		},
	)
	list.OnSelected = func(id widget.ListItemID) {
		if start, ok := g.r.chapters.Start(id); ok {
			g.r.player.SeekTo(start)
		}
		g.toc.Leading.Hide()
		g.toc.Refresh()
		list.UnselectAll()
	}
	return container.NewBorder(
		widget.NewLabel("Chapters"),
		widget.NewLabel("Click to jump • C to close"),
		nil, nil,
		list,
	)
}

func runReader(a *app, r *reading) error {
	fa := fyneapp.New()
	g := &window{
		r:        r,
		settings: a.settings,
		w:        fa.NewWindow("rsvp - " + r.book.Document.Title),
		status:   widget.NewLabel(""),
		message:  widget.NewLabel(""),
		word:     container.NewStack(),
		backdrop: canvas.NewRectangle(background(a.settings.Current())),
	}
	g.status.Alignment = fyne.TextAlignCenter
	g.message.Alignment = fyne.TextAlignCenter

	controls := widget.NewLabel("SPACE: play/pause  ↑/↓: speed  +/-: font  ←/→: sentence  [/]: -/+10  /: search  b/B: bookmark  C: chapters  R: reread  Q: quit")
	controls.Alignment = fyne.TextAlignCenter

	body := container.NewBorder(
		g.status,
		container.NewVBox(g.message, controls),
		nil, nil,
		container.NewStack(g.backdrop, g.word),
	)

	var content fyne.CanvasObject = body
	if len(r.chapters) > 0 {
		g.toc = container.NewHSplit(g.chapterList(), body)
		g.toc.Offset = 0.3
		g.toc.Leading.Hide()
		content = g.toc
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-r.events:
				fyne.Do(g.update)
			}
		}
	}()
	unsubscribe := a.settings.Subscribe(func(settings.Settings) {
		fyne.Do(g.update)
	})
	defer unsubscribe()

	g.w.Canvas().SetOnTypedKey(g.onKey)
	g.w.Canvas().SetOnTypedRune(g.onRune)
	g.w.SetOnClosed(func() {
		close(done)
		r.player.Pause()
	})
	g.w.Resize(fyne.NewSize(800, 600))
	g.w.SetContent(content)

	// The window has no size until it is shown.
	go func() {
		time.Sleep(100 * time.Millisecond)
		fyne.Do(g.update)
	}()

	g.w.ShowAndRun()
	return nil
}
