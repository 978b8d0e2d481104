// Package term renders frames into a terminal with tcell.
package term

import (
	"context"
	"errors"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/zeusync/worldmirror/internal/render"
)

// ErrQuit is returned by WaitQuit when the user asks to leave.
var ErrQuit = errors.New("term: quit requested")

// DefaultScale is the number of terminal columns per world unit.
const DefaultScale = 2.0

var (
	styleRemote  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleLocal   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleOverlay = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Renderer draws world positions centered on the screen. Cells are roughly
// twice as tall as they are wide, so Y is halved.
type Renderer struct {
	screen tcell.Screen
	scale  float64
}

// Open initializes the terminal screen.
func Open(scale float64) (*Renderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return New(screen, scale), nil
}

// New wraps an initialized screen.
func New(screen tcell.Screen, scale float64) *Renderer {
	if scale <= 0 {
		scale = DefaultScale
	}
	screen.HideCursor()
	return &Renderer{screen: screen, scale: scale}
}

// Render draws f and shows it.
func (r *Renderer) Render(f render.Frame) error {
	r.screen.Clear()
	width, height := r.screen.Size()

	for row, line := range f.Overlay {
		if row >= height {
			break
		}
		r.text(0, row, line, styleOverlay)
	}

	for _, item := range f.Items {
		x, y := r.project(item.Position.X, item.Position.Y, width, height)
		if x < 0 || y < 0 || x >= width || y >= height {
			continue
		}
		style := styleRemote
		if item.Local {
			style = styleLocal
		}
		glyph := item.Glyph
		if glyph == 0 {
			glyph = '@'
		}
		r.screen.SetContent(x, y, glyph, nil, style)
	}

	r.screen.Show()
	return nil
}

// Cell returns the screen cell the world position (wx, wy) maps to.
func (r *Renderer) Cell(wx, wy float64) (int, int) {
	width, height := r.screen.Size()
	return r.project(wx, wy, width, height)
}

// WaitQuit blocks until the user presses q, Esc or Ctrl-C (ErrQuit) or ctx
// is done (nil).
func (r *Renderer) WaitQuit(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = r.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		switch ev := r.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			r.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				return ErrQuit
			}
		}
	}
}

// Close restores the terminal.
func (r *Renderer) Close() {
	r.screen.Fini()
}

func (r *Renderer) project(wx, wy float64, width, height int) (int, int) {
	x := width/2 + int(math.Round(wx*r.scale))
	y := height/2 + int(math.Round(wy*r.scale/2))
	return x, y
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
