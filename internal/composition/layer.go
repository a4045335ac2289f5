package composition

// Layer is a z-ordered track holding a fixed number of clip slots, a
// transform, blend mode, and effect-stack attachment point.
type Layer struct {
	ID      uint32
	Name    string
	Opacity float64
	Blend   BlendMode
	Bypass  bool
	Solo    bool
	Volume  float64 // reserved, unused by the render path

	Transform Transform2D

	EffectStackID string

	Transition Transition

	slots        []*ClipSlot
	activeColumn int // -1 when no slot is active
}

// NewLayer creates a layer with the given number of empty columns.
func NewLayer(id uint32, name string, columns int) *Layer {
	l := &Layer{
		ID:           id,
		Name:         name,
		Opacity:      1.0,
		Volume:       1.0,
		Transform:    DefaultTransform(),
		Transition:   Transition{progress: 1, fromSlot: -1, toSlot: -1},
		activeColumn: -1,
		slots:        make([]*ClipSlot, columns),
	}
	for i := range l.slots {
		l.slots[i] = NewClipSlot(uint32(i))
	}
	return l
}

// Columns returns the number of clip slots this layer holds.
func (l *Layer) Columns() int { return len(l.slots) }

// Slot returns the slot at the given column index, or nil if out of range.
func (l *Layer) Slot(column int) *ClipSlot {
	if column < 0 || column >= len(l.slots) {
		return nil
	}
	return l.slots[column]
}

// ActiveColumn returns the index of the active slot, and false if none.
func (l *Layer) ActiveColumn() (int, bool) {
	if l.activeColumn < 0 {
		return 0, false
	}
	return l.activeColumn, true
}

// addColumn appends one empty slot to the layer.
func (l *Layer) addColumn() {
	l.slots = append(l.slots, NewClipSlot(uint32(len(l.slots))))
}

// removeColumn drops the slot at idx, shifting later slots down and
// adjusting the active-column index if needed.
func (l *Layer) removeColumn(idx int) {
	if idx < 0 || idx >= len(l.slots) {
		return
	}
	l.slots = append(l.slots[:idx], l.slots[idx+1:]...)
	switch {
	case l.activeColumn == idx:
		l.activeColumn = -1
	case l.activeColumn > idx:
		l.activeColumn--
	}
}

// deactivateAll clears the active flag on every slot without touching
// clip payloads.
func (l *Layer) deactivateAll() {
	for _, s := range l.slots {
		if s != nil {
			s.active = false
		}
	}
	l.activeColumn = -1
}
