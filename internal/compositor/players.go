package compositor

import (
	"github.com/immersive-av/immersive-server/internal/clipplayer"
	"github.com/immersive-av/immersive-server/internal/composition"
)

// syncPlayers starts a clip player for every slot that is either active
// or the "from" side of an in-progress fade, and stops players for slots
// that are neither, keeping exactly one decoder thread per active clip
// in step with the composition's live transition state rather than a
// static trigger event.
func (e *Environment) syncPlayers() {
	needed := make(map[slotKey]bool)

	for _, layer := range e.comp.Layers() {
		from, to, _ := layer.TransitionState()
		if to >= 0 {
			needed[slotKey{layer.ID, to}] = true
		}
		if from >= 0 {
			needed[slotKey{layer.ID, from}] = true
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for key := range needed {
		if _, ok := e.players[key]; ok {
			continue
		}
		layer := e.comp.Layer(key.layerID)
		if layer == nil {
			continue
		}
		slot := layer.Slot(key.column)
		if slot == nil || slot.Clip == nil {
			continue
		}
		player, err := e.startPlayer(key, slot)
		if err != nil {
			e.log.WithError(err).WithField("layer", key.layerID).Warn("failed to start clip player")
			continue
		}
		e.players[key] = player
	}

	for key, player := range e.players {
		if needed[key] {
			continue
		}
		player.Stop()
		delete(e.players, key)
		delete(e.lastFrame, key)
	}
}

func (e *Environment) startPlayer(key slotKey, slot *composition.ClipSlot) (*clipplayer.ClipPlayer, error) {
	decoder, err := newDecoderForClip(slot.Clip)
	if err != nil {
		return nil, err
	}
	loop := composition.LoopNone
	if slot.Clip.Kind == composition.ClipVideo {
		loop = slot.Clip.Loop
	}
	speedFn := func() float64 { return slot.Speed * e.masterSpeed() }
	player := clipplayer.NewClipPlayer(decoder, loop, speedFn, e.log)

	fps := slot.Clip.FPS
	if fps <= 0 {
		fps = e.comp.FPS
	}
	player.Start(fps)
	return player, nil
}

func (e *Environment) masterSpeed() float64 {
	speed := e.comp.MasterSpeed
	if speed <= 0 {
		return 1
	}
	return speed
}

// latestFrame returns the most recent frame posted for key, falling back
// to the last cached frame when the mailbox has nothing new (so a
// LoopNone clip frozen on its last frame, or a clip mid-decode, still
// renders something), and nil if nothing has ever been decoded.
func (e *Environment) latestFrame(key slotKey) *clipplayer.Frame {
	e.mu.Lock()
	player, ok := e.players[key]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	if f := player.Mailbox().Take(); f != nil {
		if f.Error {
			e.mu.Lock()
			cached := e.lastFrame[key]
			e.mu.Unlock()
			return cached
		}
		e.mu.Lock()
		e.lastFrame[key] = f
		e.mu.Unlock()
		return f
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFrame[key]
}
