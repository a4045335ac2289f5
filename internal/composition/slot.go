package composition

// ClipSlot is one grid cell: a trigger policy plus an optional Clip
// payload. A nil Clip means the slot is empty.
type ClipSlot struct {
	ID      uint32
	Name    string
	Trigger TriggerMode
	Speed   float64
	Opacity float64

	EffectStackID string // empty when the slot has no clip-scope effect stack

	Clip   *Clip
	active bool
}

// NewClipSlot returns an empty slot with sensible defaults.
func NewClipSlot(id uint32) *ClipSlot {
	return &ClipSlot{
		ID:      id,
		Trigger: TriggerToggle,
		Speed:   1.0,
		Opacity: 1.0,
	}
}

// IsActive reports whether this slot is the layer's currently active one.
func (s *ClipSlot) IsActive() bool { return s != nil && s.active }

// Clear removes the slot's clip payload and deactivates it.
func (s *ClipSlot) Clear() {
	s.Clip = nil
	s.active = false
}
