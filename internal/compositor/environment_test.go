package compositor

import (
	"testing"
	"time"

	"github.com/immersive-av/immersive-server/internal/bpm"
	"github.com/immersive-av/immersive-server/internal/composition"
)

func solidSlot(comp *composition.Composition, layerID uint32, column int, c composition.RGBA) {
	layer := comp.Layer(layerID)
	slot := layer.Slot(column)
	slot.Clip = &composition.Clip{Kind: composition.ClipSolidColor, Color: c, Width: 8, Height: 8}
}

func waitForPixel(t *testing.T, env *Environment, deadline time.Duration, check func(r, g, b, a byte) bool) (byte, byte, byte, byte) {
	t.Helper()
	end := time.Now().Add(deadline)
	var r, g, b, a byte
	for time.Now().Before(end) {
		env.Tick(10 * time.Millisecond)
		buf, w, h := env.Frame()
		if len(buf) == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		idx := (h/2*w + w/2) * 4
		r, g, b, a = buf[idx], buf[idx+1], buf[idx+2], buf[idx+3]
		if check(r, g, b, a) {
			return r, g, b, a
		}
		time.Sleep(5 * time.Millisecond)
	}
	return r, g, b, a
}

// TestTriggerToggleRendersSolidColor covers spec.md §8 scenario 1: a
// 2-layer x 4-column composition with only (L=0,C=0) populated renders
// pure red once triggered, and the background again once triggered off.
func TestTriggerToggleRendersSolidColor(t *testing.T) {
	comp := composition.New(8, 8, 30, 4)
	l0 := comp.AddLayer("bottom")
	comp.AddLayer("top")
	solidSlot(comp, l0, 0, composition.RGBA{R: 1, A: 1})

	env := NewEnvironment(comp, bpm.NewClock(), nil)
	defer env.Close()

	if err := comp.Trigger(l0, 0); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	r, g, b, a := waitForPixel(t, env, time.Second, func(r, g, b, a byte) bool {
		return r > 200 && g < 20 && b < 20 && a > 200
	})
	if !(r > 200 && g < 20 && b < 20 && a > 200) {
		t.Fatalf("expected opaque red after trigger, got (%d,%d,%d,%d)", r, g, b, a)
	}

	if err := comp.Trigger(l0, 0); err != nil {
		t.Fatalf("Trigger (off): %v", err)
	}
	r, g, b, a = waitForPixel(t, env, time.Second, func(r, g, b, a byte) bool {
		return r == 0 && g == 0 && b == 0 && a == 0
	})
	if !(r == 0 && g == 0 && b == 0 && a == 0) {
		t.Fatalf("expected background color after toggling off, got (%d,%d,%d,%d)", r, g, b, a)
	}
}

// TestFadeTransitionBlendsColors covers spec.md §8 scenario 2: fading
// from red to blue over 500ms yields roughly equal red/blue contribution
// at the midpoint.
func TestFadeTransitionBlendsColors(t *testing.T) {
	comp := composition.New(8, 8, 30, 2)
	l0 := comp.AddLayer("layer")
	comp.Layer(l0).Transition = composition.Transition{Kind: composition.TransitionFade, FadeMS: 500}
	solidSlot(comp, l0, 0, composition.RGBA{R: 1, A: 1})
	solidSlot(comp, l0, 1, composition.RGBA{B: 1, A: 1})

	env := NewEnvironment(comp, bpm.NewClock(), nil)
	defer env.Close()

	if err := comp.Trigger(l0, 0); err != nil {
		t.Fatalf("Trigger A: %v", err)
	}
	// Let the red clip player establish its first frame before starting
	// the timed fade, so the 250ms sample below isn't skewed by decoder
	// startup latency.
	waitForPixel(t, env, time.Second, func(r, g, b, a byte) bool { return r > 200 })

	if err := comp.Trigger(l0, 1); err != nil {
		t.Fatalf("Trigger B: %v", err)
	}

	const step = 10 * time.Millisecond
	elapsed := time.Duration(0)
	for elapsed < 250*time.Millisecond {
		env.Tick(step)
		elapsed += step
	}

	buf, w, h := env.Frame()
	idx := (h/2*w + w/2) * 4
	r, b := buf[idx], buf[idx+2]
	if r < 100 || r > 160 {
		t.Fatalf("expected red channel near half intensity at t=250ms, got %d", r)
	}
	if b < 100 || b > 160 {
		t.Fatalf("expected blue channel near half intensity at t=250ms, got %d", b)
	}
}

// TestBypassedLayerEffectStackIsPassthrough covers spec.md §8's
// "zero active effects copies input to output bit-exactly" property at
// the environment scope: an environment effect stack with every
// instance bypassed must not alter the rendered frame.
func TestBypassedEnvironmentEffectStackIsPassthrough(t *testing.T) {
	comp := composition.New(4, 4, 30, 1)
	l0 := comp.AddLayer("layer")
	solidSlot(comp, l0, 0, composition.RGBA{R: 1, G: 0.5, A: 1})

	env := NewEnvironment(comp, bpm.NewClock(), nil)
	defer env.Close()

	stack := env.EnvironmentEffectStack()
	stack.Append("invert", "invert-bypassed")
	for _, inst := range stack.Instances() {
		inst.Bypassed = true
	}

	if err := comp.Trigger(l0, 0); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	r, _, _, _ := waitForPixel(t, env, time.Second, func(r, g, b, a byte) bool { return r > 200 })
	if r < 200 {
		t.Fatalf("expected red channel to pass through unmodified, got %d", r)
	}
}

// TestSoloIsolatesLayer covers §4.1's solo tie-break: when any layer is
// soloed, non-soloed layers contribute nothing to the environment.
func TestSoloIsolatesLayer(t *testing.T) {
	comp := composition.New(4, 4, 30, 1)
	l0 := comp.AddLayer("bottom")
	l1 := comp.AddLayer("top")
	solidSlot(comp, l0, 0, composition.RGBA{R: 1, A: 1})
	solidSlot(comp, l1, 0, composition.RGBA{G: 1, A: 1})
	comp.Layer(l1).Solo = true

	env := NewEnvironment(comp, bpm.NewClock(), nil)
	defer env.Close()

	if err := comp.Trigger(l0, 0); err != nil {
		t.Fatalf("Trigger l0: %v", err)
	}
	if err := comp.Trigger(l1, 0); err != nil {
		t.Fatalf("Trigger l1: %v", err)
	}

	r, g, _, _ := waitForPixel(t, env, time.Second, func(r, g, b, a byte) bool { return g > 200 })
	if g < 200 {
		t.Fatalf("expected soloed green layer visible, got g=%d", g)
	}
	if r > 20 {
		t.Fatalf("expected non-soloed red layer excluded, got r=%d", r)
	}
}

// TestBypassLayerSkipped covers §4.1: a bypassed layer contributes no
// pixels even when its slot is active.
func TestBypassLayerSkipped(t *testing.T) {
	comp := composition.New(4, 4, 30, 1)
	l0 := comp.AddLayer("layer")
	comp.Layer(l0).Bypass = true
	solidSlot(comp, l0, 0, composition.RGBA{R: 1, A: 1})

	env := NewEnvironment(comp, bpm.NewClock(), nil)
	defer env.Close()

	if err := comp.Trigger(l0, 0); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	for i := 0; i < 10; i++ {
		env.Tick(10 * time.Millisecond)
		time.Sleep(5 * time.Millisecond)
	}
	buf, w, h := env.Frame()
	idx := (h/2*w + w/2) * 4
	if buf[idx] > 20 {
		t.Fatalf("expected bypassed layer to contribute nothing, got r=%d", buf[idx])
	}
}
