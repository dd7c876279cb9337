// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tui is a terminal front end for a studio session. The canvas is
// drawn scaled into the terminal; the mouse drags elements and single
// keys trigger the session actions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/gogpu/adstudio"
	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/export"
	"github.com/gogpu/adstudio/studio"
)

// Help is the key summary shown in the title row.
const Help = "[t]ext [e]dit [a]rrange [n]ext [1]1200x628 [2]1080x1080 [q]uit"

// Editor drives a session from a tcell screen.
type Editor struct {
	screen  tcell.Screen
	session *studio.Session
	sink    export.Sink

	ctx    context.Context
	cancel context.CancelFunc
	jobs   sync.WaitGroup

	// canvas units per terminal cell
	scaleX, scaleY float64

	// button 1 state of the last mouse event
	pressed bool

	editing bool
	editID  string
	draft   []rune

	mu     sync.Mutex
	status string
}

// New creates an editor for session. Exports are written to sink.
// The screen must already be initialized.
func New(screen tcell.Screen, session *studio.Session, sink export.Sink) *Editor {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Editor{
		screen:  screen,
		session: session,
		sink:    sink,
		ctx:     ctx,
		cancel:  cancel,
	}
	e.layout()
	return e
}

// Run processes events until the user quits or ctx is done.
func (e *Editor) Run(ctx context.Context) error {
	e.screen.EnableMouse()
	defer e.screen.DisableMouse()
	defer e.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = e.screen.PostEvent(tcell.NewEventInterrupt(errQuit))
	})
	defer stop()

	e.Draw()
	for {
		ev := e.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if !e.HandleEvent(ev) {
			return ctx.Err()
		}
		e.Draw()
	}
}

// Close cancels running collaborator calls and waits for them.
func (e *Editor) Close() {
	e.cancel()
	e.jobs.Wait()
}

// Wait blocks until background actions started so far have finished.
func (e *Editor) Wait() {
	e.jobs.Wait()
}

var errQuit = errors.New("tui: quit")

// HandleEvent applies one event. It returns false when the editor
// should exit.
func (e *Editor) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		e.layout()
		e.screen.Sync()
	case *tcell.EventInterrupt:
		if ev.Data() == errQuit {
			return false
		}
	case *tcell.EventMouse:
		e.handleMouse(ev)
	case *tcell.EventKey:
		if e.editing {
			e.handleEditKey(ev)
			return true
		}
		return e.handleKey(ev)
	}
	return true
}

func (e *Editor) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEsc, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	switch ev.Rune() {
	case 'q':
		return false
	case 't':
		el := e.session.AddText()
		e.setStatus("added text " + shortID(el.ID))
	case 'e':
		e.beginEdit()
	case 'a':
		e.background("arrange", func(ctx context.Context) string {
			if !e.session.Arrange(ctx) {
				return "no layout suggestions"
			}
			return fmt.Sprintf("%d layout suggestion(s), applied %q", len(e.session.Suggestions()), e.suggestionLabel())
		})
	case 'n':
		e.nextSuggestion()
	case '1', '2':
		target := export.Preset1200x628
		if ev.Rune() == '2' {
			target = export.Preset1080x1080
		}
		e.background("export", func(ctx context.Context) string {
			if err := e.session.Export(ctx, target, e.sink); err != nil {
				return "export failed: " + err.Error()
			}
			return "exported " + target.FileName()
		})
	}
	return true
}

func (e *Editor) beginEdit() {
	el, ok := e.session.Selected()
	if !ok || el.Kind != canvas.KindText {
		e.setStatus("select a text element to edit")
		return
	}
	e.editing = true
	e.editID = el.ID
	e.draft = []rune(el.Content)
}

func (e *Editor) handleEditKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEsc:
		e.editing = false
		e.setStatus("edit cancelled")
	case tcell.KeyEnter:
		e.editing = false
		id, content := e.editID, string(e.draft)
		e.background("compliance", func(ctx context.Context) string {
			issues := e.session.EditText(ctx, id, content)
			if len(issues) == 0 {
				return "text updated"
			}
			return fmt.Sprintf("text updated, %d compliance issue(s)", len(issues))
		})
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(e.draft); n > 0 {
			e.draft = e.draft[:n-1]
		}
	case tcell.KeyRune:
		e.draft = append(e.draft, ev.Rune())
	}
}

func (e *Editor) nextSuggestion() {
	variants := e.session.Suggestions()
	if len(variants) == 0 {
		e.setStatus("no suggestions, press a first")
		return
	}
	next := (e.session.AppliedSuggestion() + 1) % len(variants)
	if err := e.session.ApplySuggestion(next); err != nil {
		e.setStatus(err.Error())
		return
	}
	e.setStatus(fmt.Sprintf("suggestion %d/%d: %s", next+1, len(variants), variants[next].Label))
}

func (e *Editor) suggestionLabel() string {
	i := e.session.AppliedSuggestion()
	variants := e.session.Suggestions()
	if i < 0 || i >= len(variants) {
		return ""
	}
	return variants[i].Label
}

// background runs fn off the event loop and posts a redraw when done.
func (e *Editor) background(name string, fn func(ctx context.Context) string) {
	e.setStatus(name + "...")
	e.jobs.Add(1)
	go func() {
		defer e.jobs.Done()
		msg := fn(e.ctx)
		adstudio.Logger().Debug("tui: action finished", "action", name, "status", msg)
		e.setStatus(msg)
		_ = e.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()
}

// handleMouse starts a drag on a button press. While the controller
// holds capture every event goes to it, wherever the press began.
func (e *Editor) handleMouse(ev *tcell.EventMouse) {
	ptr := e.session.Pointer()
	cx, cy := ev.Position()
	p := canvas.Pt(float64(cx)*e.scaleX, float64(cy)*e.scaleY)
	down := ev.Buttons()&tcell.Button1 != 0
	pressed := down && !e.pressed
	e.pressed = down

	switch {
	case ptr.Captured() && down:
		ptr.Move(p)
	case ptr.Captured():
		ptr.Up(p)
	case pressed:
		if ptr.Down(p) {
			if el, ok := e.session.Selected(); ok {
				e.setStatus("selected " + string(el.Kind) + " " + shortID(el.ID))
			}
		}
	}
}

// layout recomputes the cell scale. Row 0 is the title and the last
// row the status line; the canvas fills the rows between.
func (e *Editor) layout() {
	w, h := e.screen.Size()
	rows := max(h-2, 1)
	cols := max(w, 1)
	size := e.session.Size()
	e.scaleX = size.W / float64(cols)
	e.scaleY = size.H / float64(rows)
	e.session.Pointer().SetOrigin(canvas.Pt(0, e.scaleY))
}

func (e *Editor) setStatus(s string) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// Status returns the last status message.
func (e *Editor) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

var (
	styleTitle    = tcell.StyleDefault.Reverse(true)
	styleCanvas   = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	styleText     = tcell.StyleDefault.Background(tcell.ColorLightYellow).Foreground(tcell.ColorBlack)
	styleImage    = tcell.StyleDefault.Background(tcell.ColorLightBlue).Foreground(tcell.ColorBlack)
	styleLogo     = tcell.StyleDefault.Background(tcell.ColorLightGreen).Foreground(tcell.ColorBlack)
	styleSelected = tcell.StyleDefault.Background(tcell.ColorOrange).Foreground(tcell.ColorBlack)
	styleIssue    = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// Draw renders the whole screen.
func (e *Editor) Draw() {
	s := e.screen
	s.Clear()
	w, h := s.Size()

	size := e.session.Size()
	title := fmt.Sprintf(" adstudio %gx%g  %s", size.W, size.H, Help)
	fill(s, 0, 0, w, 1, styleTitle)
	drawString(s, 0, 0, w, title, styleTitle)

	fill(s, 0, 1, w, h-2, styleCanvas)
	e.drawElements(w, h)

	e.drawStatus(w, h-1)
	s.Show()
}

func (e *Editor) drawElements(w, h int) {
	elems := e.session.Store().Snapshot()
	// lower Z first so the topmost element is drawn last, as hit testing sees it
	slices.SortStableFunc(elems, func(a, b canvas.Element) int { return a.Z - b.Z })
	sel, hasSel := e.session.Pointer().Selected()

	for _, el := range elems {
		x0 := int(math.Floor(el.X / e.scaleX))
		y0 := 1 + int(math.Floor(el.Y/e.scaleY))
		x1 := max(int(math.Ceil((el.X+el.W)/e.scaleX)), x0+1)
		y1 := max(1+int(math.Ceil((el.Y+el.H)/e.scaleY)), y0+1)
		x1 = min(x1, w)
		y1 = min(y1, h-1)

		style := styleImage
		label := string(el.Kind)
		switch el.Kind {
		case canvas.KindText:
			style = styleText
			label = el.Content
			if e.editing && el.ID == e.editID {
				label = string(e.draft) + "_"
			}
		case canvas.KindLogo:
			style = styleLogo
		}
		if hasSel && el.ID == sel {
			style = styleSelected
		}
		fill(e.screen, x0, y0, x1-x0, y1-y0, style)
		drawString(e.screen, x0, y0, x1-x0, label, style)
	}
}

func (e *Editor) drawStatus(w, y int) {
	var parts []string
	if el, ok := e.session.Selected(); ok {
		parts = append(parts, fmt.Sprintf("%s %s @%g,%g", el.Kind, shortID(el.ID), el.X, el.Y))
	}
	if e.editing {
		parts = append(parts, "editing: Enter to apply, Esc to cancel")
	}
	if e.session.LoadingBackground() {
		parts = append(parts, "removing background...")
	}
	if msg := e.Status(); msg != "" {
		parts = append(parts, msg)
	}
	line := strings.Join(parts, " | ")
	x := drawString(e.screen, 0, y, w, line, tcell.StyleDefault)

	if issues := e.session.Feedback(); len(issues) > 0 {
		if x > 0 {
			x += drawString(e.screen, x, y, w-x, " | ", tcell.StyleDefault)
		}
		drawString(e.screen, x, y, w-x, strings.Join(issues, "; "), styleIssue)
	}
}

func fill(s tcell.Screen, x, y, w, h int, style tcell.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			s.SetContent(col, row, ' ', nil, style)
		}
	}
}

// drawString writes str at (x, y) truncated to width cells and returns
// the number of cells used.
func drawString(s tcell.Screen, x, y, width int, str string, style tcell.Style) int {
	if width <= 0 {
		return 0
	}
	if runewidth.StringWidth(str) > width {
		str = runewidth.Truncate(str, width, "…")
	}
	used := 0
	for _, r := range str {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		s.SetContent(x+used, y, r, nil, style)
		used += rw
	}
	return used
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
