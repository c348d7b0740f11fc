package widget

import (
	"log"
)

// ToolbarOptions selects which built-in pane controls are active. Disabled
// controls still render but ignore activation.
type ToolbarOptions struct {
	Prev     bool
	Next     bool
	Fit      bool
	OneToOne bool
	ZoomIn   bool
	ZoomOut  bool
	Rotate   bool
	Flip     bool
}

// Options configures a Pane at construction time.
type Options struct {
	// URLResolver maps a page index to the image URL the pane loads.
	URLResolver func(index int) string

	Toolbar ToolbarOptions

	TransitionAnimation bool
	ShowTitle           bool
	ShowZoomTooltip     bool
}

// Control is an extra toolbar entry injected next to the built-ins.
type Control struct {
	ID          string
	Tooltip     string
	OnActivate  func()
	Activatable bool
}

// Pane is a multi-page image viewing surface. Callers hold the handle they
// were given at construction; the pane is never looked up by position.
type Pane struct {
	opts     Options
	controls []Control
	index    int
	pages    int
	visible  bool

	oneToOneFn func()
	onHide     func()
}

func NewPane(opts Options) *Pane {
	return &Pane{opts: opts}
}

func (p *Pane) SetPageCount(n int) {
	if n < 0 {
		n = 0
	}
	p.pages = n
	if p.index >= n {
		p.index = 0
	}
}

func (p *Pane) PageCount() int { return p.pages }

func (p *Pane) CurrentIndex() int { return p.index }

func (p *Pane) SetIndex(i int) {
	if i < 0 || i >= p.pages {
		return
	}
	p.index = i
}

// URLFor resolves the image URL for a page through the configured resolver.
func (p *Pane) URLFor(index int) string {
	if p.opts.URLResolver == nil {
		return ""
	}
	return p.opts.URLResolver(index)
}

func (p *Pane) Show() {
	p.visible = true
}

func (p *Pane) Hide() {
	if !p.visible {
		return
	}
	p.visible = false
	if p.onHide != nil {
		p.onHide()
	}
}

func (p *Pane) Visible() bool { return p.visible }

// OnHide registers a callback fired whenever the pane leaves the screen,
// regardless of which path hid it.
func (p *Pane) OnHide(fn func()) {
	p.onHide = fn
}

// BindOneToOne replaces the action of the built-in 1:1 control.
func (p *Pane) BindOneToOne(fn func()) {
	p.oneToOneFn = fn
}

// ActivateOneToOne triggers whatever the 1:1 control is bound to.
func (p *Pane) ActivateOneToOne() {
	if p.oneToOneFn != nil {
		p.oneToOneFn()
	}
}

// InsertControlAfter places a control after the named anchor. Inserting a
// control whose ID is already present is a no-op, so repeated pane setup
// never duplicates entries. A missing anchor is logged and the control is
// appended at the end.
func (p *Pane) InsertControlAfter(anchorID string, c Control) {
	for _, existing := range p.controls {
		if existing.ID == c.ID {
			return
		}
	}
	for i, existing := range p.controls {
		if existing.ID == anchorID {
			p.controls = append(p.controls[:i+1], append([]Control{c}, p.controls[i+1:]...)...)
			return
		}
	}
	if anchorID != "" && anchorID != ControlOneToOne {
		log.Printf("widget: anchor control %q not found, appending %q", anchorID, c.ID)
	}
	p.controls = append(p.controls, c)
}

// ControlOneToOne is the ID of the built-in 1:1 zoom control that custom
// controls anchor to.
const ControlOneToOne = "one-to-one"

func (p *Pane) Controls() []Control {
	return p.controls
}

// ActivateControl runs the named control if it is activatable.
func (p *Pane) ActivateControl(id string) bool {
	for _, c := range p.controls {
		if c.ID == id {
			if !c.Activatable || c.OnActivate == nil {
				return false
			}
			c.OnActivate()
			return true
		}
	}
	return false
}

func (p *Pane) Toolbar() ToolbarOptions {
	return p.opts.Toolbar
}
