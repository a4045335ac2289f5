package composition

import (
	"sync"

	"github.com/google/uuid"
)

// Composition is the top-level document: a grid of layers x columns plus
// global render settings. The render thread is its single owner; mutations
// from other goroutines must go through Command (see controller.go).
type Composition struct {
	mu sync.Mutex

	UniqueID uuid.UUID
	Name     string

	Width, Height int
	FPS           float64
	Background    RGBA

	MasterOpacity float64
	MasterSpeed   float64

	EnvironmentEffectStackID string

	columns int
	layers  []*Layer
	nextID  uint32
}

// New creates a composition with the given render size, FPS, and number of
// columns, and no layers.
func New(width, height int, fps float64, columns int) *Composition {
	return &Composition{
		UniqueID:      uuid.New(),
		Width:         width,
		Height:        height,
		FPS:           fps,
		MasterOpacity: 1.0,
		MasterSpeed:   1.0,
		Background:    RGBA{0, 0, 0, 1},
		columns:       columns,
	}
}

// Columns returns the number of clip-slot columns shared by every layer.
func (c *Composition) Columns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.columns
}

// Layers returns a snapshot slice of the current layers, bottom-first.
func (c *Composition) Layers() []*Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Layer, len(c.layers))
	copy(out, c.layers)
	return out
}

// Layer looks up a layer by ID.
func (c *Composition) Layer(id uint32) *Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layerLocked(id)
}

func (c *Composition) layerLocked(id uint32) *Layer {
	for _, l := range c.layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// AddLayer appends a new layer at the top of the z-order and returns its ID.
func (c *Composition) AddLayer(name string) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.layers = append(c.layers, NewLayer(id, name, c.columns))
	return id
}

// RemoveLayer removes the layer with the given ID, collapsing z-order
// indices. Returns false if no such layer exists.
func (c *Composition) RemoveLayer(id uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.layers {
		if l.ID == id {
			c.layers = append(c.layers[:i], c.layers[i+1:]...)
			return true
		}
	}
	return false
}

// AddColumn appends one clip slot to every layer.
func (c *Composition) AddColumn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.columns++
	for _, l := range c.layers {
		l.addColumn()
	}
}

// RemoveColumn removes column idx from every layer. Clearing one layer's
// slot in that column never affects other layers' slots in other columns.
func (c *Composition) RemoveColumn(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx < 0 || idx >= c.columns {
		return
	}
	c.columns--
	for _, l := range c.layers {
		l.removeColumn(idx)
	}
}

// AnySolo reports whether at least one layer is soloed.
func (c *Composition) AnySolo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.layers {
		if l.Solo {
			return true
		}
	}
	return false
}

// Trigger applies the trigger policy for (layer, slot): Toggle and
// OneShot flip the slot's active state; Flash activates the slot (a
// press), which Release ends. A OneShot slot is also deactivated by
// NotifyClipEnded.
func (c *Composition) Trigger(layerID uint32, column int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.layerLocked(layerID)
	if l == nil {
		return &CompositionError{Operation: "trigger", Details: "unknown layer"}
	}
	slot := l.Slot(column)
	if slot == nil {
		return &CompositionError{Operation: "trigger", Details: "unknown column"}
	}

	switch slot.Trigger {
	case TriggerFlash:
		// Flash is driven by press/release from the caller; a bare
		// Trigger() call behaves like a press.
		c.activateLocked(l, column)
	default: // Toggle and OneShot both toggle on trigger
		if slot.IsActive() {
			c.deactivateLocked(l)
		} else {
			c.activateLocked(l, column)
		}
	}
	return nil
}

// Release ends a Flash trigger's press, deactivating the slot if it is
// still the one that was pressed.
func (c *Composition) Release(layerID uint32, column int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.layerLocked(layerID)
	if l == nil {
		return
	}
	if active, ok := l.ActiveColumn(); ok && active == column {
		c.deactivateLocked(l)
	}
}

// Stop deactivates the layer's active slot using its configured transition.
func (c *Composition) Stop(layerID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.layerLocked(layerID)
	if l == nil {
		return
	}
	c.deactivateLocked(l)
}

// NotifyClipEnded is called by the clip-playback subsystem when a OneShot
// clip reaches its end; it deactivates the slot exactly like Stop.
func (c *Composition) NotifyClipEnded(layerID uint32, column int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.layerLocked(layerID)
	if l == nil {
		return
	}
	if active, ok := l.ActiveColumn(); ok && active == column {
		slot := l.Slot(column)
		if slot != nil && slot.Trigger == TriggerOneShot {
			c.deactivateLocked(l)
		}
	}
}

func (c *Composition) activateLocked(l *Layer, column int) {
	from, hadActive := l.ActiveColumn()
	if hadActive && from == column {
		return
	}

	for _, s := range l.slots {
		if s != nil {
			s.active = false
		}
	}
	slot := l.Slot(column)
	if slot == nil {
		return
	}
	slot.active = true
	l.activeColumn = column

	switch l.Transition.Kind {
	case TransitionFade:
		l.Transition.fromSlot = from
		if !hadActive {
			l.Transition.fromSlot = -1
		}
		l.Transition.toSlot = column
		l.Transition.progress = 0
	default: // Cut
		l.Transition.progress = 1
		l.Transition.fromSlot = -1
		l.Transition.toSlot = column
	}
}

func (c *Composition) deactivateLocked(l *Layer) {
	if _, ok := l.ActiveColumn(); !ok {
		return
	}
	l.deactivateAll()
	l.Transition.progress = 1
	l.Transition.fromSlot = -1
	l.Transition.toSlot = -1
}

// TransitionState reports the current cross-fade state for a layer, for
// the compositor to consume each frame: (fromColumn, toColumn, t). When
// not mid-fade, fromColumn is -1 and t is 1.
func (l *Layer) TransitionState() (from, to int, t float64) {
	return l.Transition.fromSlot, l.Transition.toSlot, l.Transition.progress
}

// Tick advances every layer's transition progress by dt seconds. It
// produces no I/O.
func (c *Composition) Tick(dtSeconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.layers {
		if l.Transition.Kind != TransitionFade || l.Transition.progress >= 1 {
			continue
		}
		if l.Transition.FadeMS <= 0 {
			l.Transition.progress = 1
			l.Transition.fromSlot = -1
			continue
		}
		l.Transition.progress += dtSeconds * 1000 / l.Transition.FadeMS
		if l.Transition.progress >= 1 {
			l.Transition.progress = 1
			l.Transition.fromSlot = -1
		}
	}
}
