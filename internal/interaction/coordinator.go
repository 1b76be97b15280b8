// Package interaction arbitrates which subsystem owns an active pointer
// gesture: crosshair inspection, drawing-tool creation/editing, or
// neither. It is the only owner of the interaction mode; the crosshair
// controller and drawing tools only react to calls routed through it. It
// also debounces persistence of in-progress drawing edits so rapid drags
// coalesce into one repository write per drawing.
package interaction

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"chartkit/internal/crosshair"
	"chartkit/internal/drawing"
	"chartkit/internal/model"
)

// DefaultDebounceWindow is the quiescence period after the last edit to a
// drawing before its config is written to the repository.
const DefaultDebounceWindow = time.Second

// axisEdgeBand is the pixel band along the right/bottom axis inside which
// the cursor switches to a resize shape.
const axisEdgeBand = 16.0

// Params tunes the coordinator.
type Params struct {
	Variant        Variant
	DebounceWindow time.Duration

	// Canvas dimensions for axis-edge cursor detection. Zero disables
	// edge cursors.
	CanvasWidth  float64
	CanvasHeight float64
}

func (p *Params) defaults() {
	if p.DebounceWindow == 0 {
		p.DebounceWindow = DefaultDebounceWindow
	}
}

// Coordinator is the interaction mode state machine for one chart
// session. Guarded by a mutex: gesture callbacks arrive from the session
// event loop while debounce timers fire from the runtime timer goroutine.
type Coordinator struct {
	mu     sync.Mutex
	params Params

	mode     Mode
	cursor   Cursor
	dragging bool

	cross *crosshair.Controller
	conv  drawing.Converter
	repo  model.DrawingRepository

	tools    []drawing.Tool
	active   drawing.Tool // tool owning the current drag or hover proximity
	adding   drawing.Tool // creation in progress
	selected drawing.Tool

	// Debounced persistence, keyed by drawing ID. Each entry has its own
	// timer; edits to one drawing never reset another's.
	timers  map[string]*time.Timer
	pending map[string]model.DrawingConfig
	closed  bool

	// OnModeChange fires after every mode transition.
	OnModeChange func(from, to Mode)

	// OnPersistFlush fires after a debounced edit is written through.
	OnPersistFlush func()

	// OnPersistDiscard fires once per pending edit dropped by Close.
	OnPersistDiscard func()

	// OnDrawingAdded fires after a completed creation gesture is stored.
	OnDrawingAdded func(id string)

	// OnCursorChange fires when the derived cursor shape changes.
	OnCursorChange func(c Cursor)

	unsubscribe func()
}

// New creates a Coordinator. cross may not be nil; repo may be nil for
// hosts without persistence (drawing edits then stay in memory).
func New(cross *crosshair.Controller, conv drawing.Converter, repo model.DrawingRepository, params Params) *Coordinator {
	params.defaults()
	c := &Coordinator{
		params:  params,
		cross:   cross,
		conv:    conv,
		repo:    repo,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]model.DrawingConfig),
	}
	if repo != nil {
		c.mu.Lock()
		c.reloadLocked()
		c.mu.Unlock()
		c.unsubscribe = repo.Subscribe(c.onRepoChange)
	}
	return c
}

// SetCanvas updates the canvas dimensions used for axis-edge cursor
// detection after a host resize.
func (c *Coordinator) SetCanvas(width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.CanvasWidth = width
	c.params.CanvasHeight = height
}

// Mode returns the current interaction mode.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// CursorShape returns the current desktop cursor shape.
func (c *Coordinator) CursorShape() Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Tools returns the live tool list (shared; callers must not mutate).
func (c *Coordinator) Tools() []drawing.Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tools
}

// Selected returns the currently selected tool, if any.
func (c *Coordinator) Selected() drawing.Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// ── Gesture entry points ──

// PanStart routes a pan gesture's origin. A hit on an existing drawing
// enters drawing-tool mode and forcibly hides the crosshair; otherwise
// the gesture is left to the host's chart panning.
func (c *Coordinator) PanStart(pos model.Offset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeCrosshair {
		// Crosshair owns the pointer; a pan cannot start underneath it.
		return
	}

	tool := c.hitLocked(pos)
	if tool == nil || !tool.DragStart(pos, c.conv) {
		return
	}
	c.active = tool
	c.dragging = true
	c.cross.Exit()
	c.setModeLocked(ModeDrawingTool)
	c.refreshCursorLocked(pos)
}

// PanUpdate advances an active drawing drag and schedules its debounced
// persistence.
func (c *Coordinator) PanUpdate(pos model.Offset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeDrawingTool || !c.dragging || c.active == nil {
		return
	}
	c.active.DragUpdate(pos, c.conv)
	c.schedulePersistLocked(c.active.Config())
}

// PanEnd completes an active drawing drag and returns to idle.
func (c *Coordinator) PanEnd(pos model.Offset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishDragLocked(pos)
}

// PanCancel aborts an active drawing drag and returns to idle.
func (c *Coordinator) PanCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishDragLocked(model.Offset{})
}

func (c *Coordinator) finishDragLocked(pos model.Offset) {
	if c.mode != ModeDrawingTool {
		return
	}
	if c.active != nil {
		c.active.DragEnd()
		c.selected = c.active
	}
	c.dragging = false
	c.active = nil
	c.setModeLocked(ModeNone)
	c.refreshCursorLocked(pos)
}

// LongPressStart begins crosshair inspection. Guarded: a long-press while
// a drawing drag is active is ignored.
func (c *Coordinator) LongPressStart(pos model.Offset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeNone {
		return
	}
	c.setModeLocked(ModeCrosshair)
	c.cross.LongPressStart(pos)
}

// LongPressUpdate moves an active crosshair inspection.
func (c *Coordinator) LongPressUpdate(pos model.Offset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeCrosshair {
		return
	}
	c.cross.LongPressUpdate(pos)
}

// LongPressEnd finishes crosshair inspection. The gesture system's
// terminal velocity, when non-zero, carries into the closing animation.
func (c *Coordinator) LongPressEnd(terminalVX, terminalVY float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeCrosshair {
		return
	}
	c.cross.LongPressEnd(terminalVX, terminalVY)
	c.setModeLocked(ModeNone)
}

// Hover handles a buttonless pointer move. Compact surfaces never react.
// On desktop, proximity to a drawing engages drawing-tool mode (so the
// next pan grabs it) and hides the crosshair; elsewhere the move feeds
// crosshair hovering.
func (c *Coordinator) Hover(pos model.Offset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.params.Variant != VariantDesktop {
		return
	}
	if c.dragging || c.mode == ModeCrosshair {
		return
	}

	tool := c.hitLocked(pos)
	if tool != nil {
		c.active = tool
		if c.mode != ModeDrawingTool {
			c.cross.Exit()
			c.setModeLocked(ModeDrawingTool)
		}
		c.refreshCursorLocked(pos)
		return
	}

	// Left drawing proximity: return to idle before crosshair hovering.
	if c.mode == ModeDrawingTool {
		c.active = nil
		c.setModeLocked(ModeNone)
	}
	c.refreshCursorLocked(pos)
	c.cross.Hover(pos)
}

// HoverExit handles the pointer leaving the canvas.
func (c *Coordinator) HoverExit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.params.Variant != VariantDesktop {
		return
	}
	if c.mode == ModeDrawingTool && !c.dragging {
		c.active = nil
		c.setModeLocked(ModeNone)
	}
	c.cross.Exit()
	c.setCursorLocked(CursorDefault)
}

// Tap hit-tests drawings and updates the selection. It reports the hit
// tool (nil when the tap landed on empty chart) without changing the
// persisted mode. While a creation gesture is active, taps feed it
// instead.
func (c *Coordinator) Tap(pos model.Offset) drawing.Tool {
	c.mu.Lock()

	if c.adding != nil {
		cfg, done := c.advanceCreationLocked(pos)
		adding := c.adding
		c.mu.Unlock()
		if done {
			c.persistNewDrawing(cfg)
		}
		return adding
	}

	tool := c.hitLocked(pos)
	for _, t := range c.tools {
		if t == tool {
			t.SetState(drawing.StateSelected)
		} else if t.State() == drawing.StateSelected {
			t.SetState(drawing.StateNormal)
		}
	}
	c.selected = tool
	c.refreshCursorLocked(pos)
	c.mu.Unlock()
	return tool
}

// ── Drawing creation ──

// StartAdding begins a creation gesture for the named tool kind. Any
// previous unfinished creation is discarded.
func (c *Coordinator) StartAdding(toolName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tool, err := drawing.NewTool(toolName, "")
	if err != nil {
		return err
	}
	c.adding = tool
	return nil
}

// Adding returns the in-progress creation tool, if any.
func (c *Coordinator) Adding() drawing.Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adding
}

// advanceCreationLocked feeds one tap into the active creation gesture.
// On completion the drawing receives a fresh identifier and the
// "currently adding" selection clears; the caller persists the returned
// config after releasing the mutex.
func (c *Coordinator) advanceCreationLocked(pos model.Offset) (model.DrawingConfig, bool) {
	if !c.adding.CreateTap(pos, c.conv) {
		return model.DrawingConfig{}, false
	}

	cfg := c.adding.Config()
	cfg.ID = uuid.NewString()
	finished, err := drawing.FromConfig(cfg)
	if err == nil {
		c.tools = append(c.tools, finished)
	}
	c.adding = nil
	return cfg, true
}

// persistNewDrawing appends a completed creation to the repository. Must
// run without the mutex held: repositories fire change listeners
// synchronously, and onRepoChange takes the lock again.
func (c *Coordinator) persistNewDrawing(cfg model.DrawingConfig) {
	if c.repo == nil {
		return
	}
	if err := c.repo.Add(cfg); err != nil {
		log.Printf("[interaction] add drawing %s: %v", cfg.ID, err)
	} else if c.OnDrawingAdded != nil {
		c.OnDrawingAdded(cfg.ID)
	}
}

// ── Internals ──

// hitLocked returns the topmost drawing hit at pos (later drawings sit
// above earlier ones).
func (c *Coordinator) hitLocked(pos model.Offset) drawing.Tool {
	for i := len(c.tools) - 1; i >= 0; i-- {
		if c.tools[i].HitTest(pos, c.conv) {
			return c.tools[i]
		}
	}
	return nil
}

func (c *Coordinator) setModeLocked(next Mode) {
	if next == c.mode {
		return
	}
	prev := c.mode
	c.mode = next
	if c.OnModeChange != nil {
		c.OnModeChange(prev, next)
	}
}

// refreshCursorLocked recomputes the desktop cursor shape from the
// current mode, hit result and axis-edge proximity.
func (c *Coordinator) refreshCursorLocked(pos model.Offset) {
	if c.params.Variant != VariantDesktop {
		return
	}

	next := CursorDefault
	switch {
	case c.dragging:
		next = CursorGrabbing
	case c.mode == ModeDrawingTool:
		next = CursorPointer
	case c.params.CanvasWidth > 0 && pos.X > c.params.CanvasWidth-axisEdgeBand:
		next = CursorNSResize
	case c.params.CanvasHeight > 0 && pos.Y > c.params.CanvasHeight-axisEdgeBand:
		next = CursorEWResize
	}
	c.setCursorLocked(next)
}

func (c *Coordinator) setCursorLocked(next Cursor) {
	if next == c.cursor {
		return
	}
	c.cursor = next
	if c.OnCursorChange != nil {
		c.OnCursorChange(next)
	}
}

// onRepoChange re-materializes tools from repository items. Skipped while
// a drag is editing geometry locally; the repository will be consistent
// again after the debounced write lands.
func (c *Coordinator) onRepoChange() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragging || c.closed {
		return
	}
	c.reloadLocked()
}

func (c *Coordinator) reloadLocked() {
	items := c.repo.Items()
	tools := make([]drawing.Tool, 0, len(items))
	for _, cfg := range items {
		tool, err := drawing.FromConfig(cfg)
		if err != nil {
			log.Printf("[interaction] skipping config %s: %v", cfg.ID, err)
			continue
		}
		tools = append(tools, tool)
	}
	c.tools = tools
	c.active = nil
	c.selected = nil
}

// Close cancels all pending debounce timers without flushing. Edits still
// inside their quiescence window are lost.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	discarded := len(c.pending)
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
		delete(c.pending, id)
	}
	if c.OnPersistDiscard != nil {
		for i := 0; i < discarded; i++ {
			c.OnPersistDiscard()
		}
	}
}
