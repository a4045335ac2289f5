// Package compositor renders a Composition's active layers into a
// single environment texture each tick: collect each enabled layer's
// latest clip frame, blend in z-order with per-layer transforms and
// cross-fade transitions, run the environment effect stack, and hand
// the result to an Output.
package compositor

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/immersive-av/immersive-server/internal/bpm"
	"github.com/immersive-av/immersive-server/internal/clipplayer"
	"github.com/immersive-av/immersive-server/internal/composition"
	"github.com/immersive-av/immersive-server/internal/effects"
)

type slotKey struct {
	layerID uint32
	column  int
}

// Environment owns the environment texture, the per-slot clip-player
// lifecycle, and the effect stacks attached at clip/layer/environment
// scope. It is driven by a single render-thread caller: one producer
// per entity, never shared across goroutines.
type Environment struct {
	comp  *composition.Composition
	clock *bpm.Clock
	log   *logrus.Entry

	mu         sync.Mutex
	players    map[slotKey]*clipplayer.ClipPlayer
	lastFrame  map[slotKey]*clipplayer.Frame
	clipStacks map[slotKey]*effects.EffectStack
	layerStack map[uint32]*effects.EffectStack
	envStack   *effects.EffectStack

	buffer        []byte
	width, height int
}

// NewEnvironment builds an Environment over comp. clock supplies the
// shared BPM/beat timing effect automation reads; log may be nil.
func NewEnvironment(comp *composition.Composition, clock *bpm.Clock, log *logrus.Entry) *Environment {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Environment{
		comp:       comp,
		clock:      clock,
		log:        log.WithField("component", "compositor"),
		players:    make(map[slotKey]*clipplayer.ClipPlayer),
		lastFrame:  make(map[slotKey]*clipplayer.Frame),
		clipStacks: make(map[slotKey]*effects.EffectStack),
		layerStack: make(map[uint32]*effects.EffectStack),
	}
}

// ClipEffectStack returns (creating if absent) the effect stack attached
// to one clip slot.
func (e *Environment) ClipEffectStack(layerID uint32, column int) *effects.EffectStack {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := slotKey{layerID, column}
	s, ok := e.clipStacks[key]
	if !ok {
		s = effects.NewEffectStack("clip")
		e.clipStacks[key] = s
	}
	return s
}

// LayerEffectStack returns (creating if absent) the effect stack
// attached to one layer.
func (e *Environment) LayerEffectStack(layerID uint32) *effects.EffectStack {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.layerStack[layerID]
	if !ok {
		s = effects.NewEffectStack("layer")
		e.layerStack[layerID] = s
	}
	return s
}

// EnvironmentEffectStack returns (creating if absent) the single
// environment-scope effect stack.
func (e *Environment) EnvironmentEffectStack() *effects.EffectStack {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.envStack == nil {
		e.envStack = effects.NewEffectStack("environment")
	}
	return e.envStack
}

// Close stops every running clip player.
func (e *Environment) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.players {
		p.Stop()
	}
	e.players = make(map[slotKey]*clipplayer.ClipPlayer)
}

// Frame returns a copy of the most recently rendered environment buffer.
func (e *Environment) Frame() (buf []byte, width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]byte, len(e.buffer))
	copy(out, e.buffer)
	return out, e.width, e.height
}

// Tick advances the BPM clock and the composition's transition state,
// reconciles clip-player lifecycles against the current active/fading
// slots, renders the environment texture, and runs the environment
// effect stack in place.
func (e *Environment) Tick(dt time.Duration) {
	e.clock.Advance(dt)
	e.comp.Tick(dt.Seconds())
	e.syncPlayers()
	e.render()
	e.runEnvironmentEffects(dt)
}

// timing builds the effects.Timing snapshot for the current tick.
func (e *Environment) timing(dt time.Duration) effects.Timing {
	return effects.Timing{
		NowSeconds: e.clock.ElapsedSeconds(),
		DtSeconds:  dt.Seconds(),
		BPM:        e.clock.BPM(),
		BeatPhase:  e.clock.BeatPhase(),
		BarPhase:   e.clock.BarPhase(),
		BeatIndex:  e.clock.BeatIndex(),
		BarIndex:   e.clock.BarIndex(),
	}
}

func (e *Environment) runEnvironmentEffects(dt time.Duration) {
	e.mu.Lock()
	stack := e.envStack
	e.mu.Unlock()
	if stack == nil || len(stack.Instances()) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer = stack.Process(e.buffer, e.width, e.height, e.timing(dt))
}
