package composition

import (
	"strings"
	"testing"
)

func TestTriggerTogglesSingleActiveSlot(t *testing.T) {
	c := New(1920, 1080, 30, 4)
	layerID := c.AddLayer("Layer 1")

	if err := c.Trigger(layerID, 0); err != nil {
		t.Fatalf("trigger slot 0: %v", err)
	}
	l := c.Layer(layerID)
	if active, ok := l.ActiveColumn(); !ok || active != 0 {
		t.Fatalf("expected slot 0 active, got %d (ok=%v)", active, ok)
	}

	// Triggering a different slot in Cut mode switches the active slot
	// immediately; only one slot may ever be active at once.
	if err := c.Trigger(layerID, 2); err != nil {
		t.Fatalf("trigger slot 2: %v", err)
	}
	if active, ok := l.ActiveColumn(); !ok || active != 2 {
		t.Fatalf("expected slot 2 active after switch, got %d (ok=%v)", active, ok)
	}
	if l.Slot(0).IsActive() {
		t.Fatalf("slot 0 should have deactivated when slot 2 took over")
	}

	// Triggering the already-active slot toggles it off.
	if err := c.Trigger(layerID, 2); err != nil {
		t.Fatalf("re-trigger slot 2: %v", err)
	}
	if _, ok := l.ActiveColumn(); ok {
		t.Fatalf("expected no active slot after toggling off")
	}
}

func TestTriggerUnknownLayerOrColumnErrors(t *testing.T) {
	c := New(640, 480, 30, 2)
	if err := c.Trigger(999, 0); err == nil {
		t.Fatalf("expected error for unknown layer")
	}
	layerID := c.AddLayer("Layer 1")
	if err := c.Trigger(layerID, 99); err == nil {
		t.Fatalf("expected error for out-of-range column")
	}
}

func TestFadeTransitionProgressesOverTicks(t *testing.T) {
	c := New(1920, 1080, 30, 2)
	layerID := c.AddLayer("Layer 1")
	l := c.Layer(layerID)
	l.Transition = Transition{Kind: TransitionFade, FadeMS: 500}

	c.Trigger(layerID, 0)
	from, to, tProg := l.TransitionState()
	if from != -1 || to != 0 || tProg != 0 {
		t.Fatalf("expected fresh fade-in from -1, got from=%d to=%d t=%v", from, to, tProg)
	}

	c.Tick(0.25) // 250ms of a 500ms fade
	_, _, tProg = l.TransitionState()
	if tProg < 0.49 || tProg > 0.51 {
		t.Fatalf("expected progress ~0.5 after half the fade duration, got %v", tProg)
	}

	c.Tick(0.25) // completes the fade
	from, _, tProg = l.TransitionState()
	if tProg != 1 || from != -1 {
		t.Fatalf("expected fade complete (t=1, from=-1), got from=%d t=%v", from, tProg)
	}

	// Switching to slot 1 starts a new fade from slot 0.
	c.Trigger(layerID, 1)
	from, to, tProg = l.TransitionState()
	if from != 0 || to != 1 || tProg != 0 {
		t.Fatalf("expected fade from 0 to 1 at t=0, got from=%d to=%d t=%v", from, to, tProg)
	}
}

func TestCutTransitionSwitchesInstantly(t *testing.T) {
	c := New(1920, 1080, 30, 2)
	layerID := c.AddLayer("Layer 1")
	l := c.Layer(layerID)
	// Cut is the zero-value Transition.Kind.

	c.Trigger(layerID, 0)
	_, to, tProg := l.TransitionState()
	if to != 0 || tProg != 1 {
		t.Fatalf("expected instant cut to slot 0, got to=%d t=%v", to, tProg)
	}
}

func TestFlashTriggerPressAndRelease(t *testing.T) {
	c := New(640, 480, 30, 2)
	layerID := c.AddLayer("Layer 1")
	l := c.Layer(layerID)
	l.Slot(0).Trigger = TriggerFlash

	c.Trigger(layerID, 0)
	if !l.Slot(0).IsActive() {
		t.Fatalf("expected flash slot active on press")
	}
	c.Release(layerID, 0)
	if l.Slot(0).IsActive() {
		t.Fatalf("expected flash slot inactive after release")
	}
}

func TestOneShotEndsOnClipNotification(t *testing.T) {
	c := New(640, 480, 30, 2)
	layerID := c.AddLayer("Layer 1")
	l := c.Layer(layerID)
	l.Slot(0).Trigger = TriggerOneShot

	c.Trigger(layerID, 0)
	if !l.Slot(0).IsActive() {
		t.Fatalf("expected one-shot slot active after trigger")
	}
	c.NotifyClipEnded(layerID, 0)
	if l.Slot(0).IsActive() {
		t.Fatalf("expected one-shot slot to deactivate once its clip ended")
	}
}

func TestAddRemoveColumnKeepsLayersInSync(t *testing.T) {
	c := New(640, 480, 30, 2)
	layerID := c.AddLayer("Layer 1")
	c.AddColumn()
	if got := c.Columns(); got != 3 {
		t.Fatalf("expected 3 columns after add, got %d", got)
	}
	if got := c.Layer(layerID).Columns(); got != 3 {
		t.Fatalf("expected layer to gain a column, got %d", got)
	}

	c.Trigger(layerID, 2)
	c.RemoveColumn(1)
	if got := c.Columns(); got != 2 {
		t.Fatalf("expected 2 columns after remove, got %d", got)
	}
	// The previously-active column 2 shifted down to index 1.
	if active, ok := c.Layer(layerID).ActiveColumn(); !ok || active != 1 {
		t.Fatalf("expected active column to shift to 1, got %d (ok=%v)", active, ok)
	}
}

func TestAnySolo(t *testing.T) {
	c := New(640, 480, 30, 1)
	l1 := c.AddLayer("Layer 1")
	c.AddLayer("Layer 2")
	if c.AnySolo() {
		t.Fatalf("expected no solo initially")
	}
	c.Layer(l1).Solo = true
	if !c.AnySolo() {
		t.Fatalf("expected AnySolo true once a layer is soloed")
	}
}

func TestControllerDrainAppliesQueuedCommands(t *testing.T) {
	c := New(640, 480, 30, 2)
	layerID := c.AddLayer("Layer 1")
	ctl := NewController(c, 8)

	ctl.Enqueue(TriggerCommand(layerID, 1))
	ctl.Enqueue(StopCommand(layerID))
	ctl.Enqueue(TriggerCommand(layerID, 0))

	ctl.Drain()

	if active, ok := c.Layer(layerID).ActiveColumn(); !ok || active != 0 {
		t.Fatalf("expected slot 0 active after draining commands, got %d (ok=%v)", active, ok)
	}
}

func TestXMLRoundTrip(t *testing.T) {
	c := New(1920, 1080, 29.97, 3)
	c.Name = "Demo Show"
	c.MasterOpacity = 0.8
	c.MasterSpeed = 1.5
	c.Background = RGBA{0.1, 0.2, 0.3, 1}

	l1 := c.AddLayer("Background")
	layer1 := c.Layer(l1)
	layer1.Blend = BlendMultiply
	layer1.Opacity = 0.75
	layer1.Transform = Transform2D{PosX: 10, PosY: -5, ScaleX: 1.2, ScaleY: 1.2, RotationRad: 0.1, AnchorX: 0.5, AnchorY: 0.5}
	layer1.Slot(0).Clip = &Clip{
		Kind: ClipVideo, Path: `C:\clips\loop & <fade>.mp4`, Width: 1280, Height: 720,
		DurationS: 12.5, FPS: 30, Loop: LoopPingPong,
	}
	layer1.Slot(1).Clip = &Clip{Kind: ClipSolidColor, Color: RGBA{1, 0, 0, 1}}

	l2 := c.AddLayer("Generators")
	layer2 := c.Layer(l2)
	layer2.Slot(2).Clip = &Clip{
		Kind: ClipGenerator, GeneratorKind: GeneratorPlasma,
		Parameters: map[string]float64{"speed": 2.0},
	}
	c.Trigger(l1, 0)

	data, err := ToXML(c)
	if err != nil {
		t.Fatalf("ToXML: %v", err)
	}
	if !strings.Contains(string(data), "loop &amp; &lt;fade&gt;") {
		t.Fatalf("expected clip path to be XML-escaped, got:\n%s", data)
	}

	out, err := FromXML(data)
	if err != nil {
		t.Fatalf("FromXML: %v", err)
	}

	if out.Name != c.Name {
		t.Errorf("Name mismatch: got %q want %q", out.Name, c.Name)
	}
	if out.Width != c.Width || out.Height != c.Height || out.FPS != c.FPS {
		t.Errorf("render size/fps mismatch: got %dx%d@%v", out.Width, out.Height, out.FPS)
	}
	if out.MasterOpacity != c.MasterOpacity || out.MasterSpeed != c.MasterSpeed {
		t.Errorf("master params mismatch: got opacity=%v speed=%v", out.MasterOpacity, out.MasterSpeed)
	}
	if len(out.Layers()) != 2 {
		t.Fatalf("expected 2 layers after round trip, got %d", len(out.Layers()))
	}

	outL1 := out.Layers()[0]
	if outL1.Blend != BlendMultiply || outL1.Opacity != 0.75 {
		t.Errorf("layer 1 params mismatch: blend=%v opacity=%v", outL1.Blend, outL1.Opacity)
	}
	if outL1.Transform.PosX != 10 || outL1.Transform.RotationRad != 0.1 {
		t.Errorf("layer 1 transform mismatch: %+v", outL1.Transform)
	}
	clip0 := outL1.Slot(0).Clip
	if clip0 == nil || clip0.Path != `C:\clips\loop & <fade>.mp4` || clip0.Loop != LoopPingPong {
		t.Errorf("clip 0 round trip mismatch: %+v", clip0)
	}
	clip1 := outL1.Slot(1).Clip
	if clip1 == nil || clip1.Kind != ClipSolidColor || clip1.Color.R != 1 {
		t.Errorf("clip 1 (solid color) round trip mismatch: %+v", clip1)
	}

	outL2 := out.Layers()[1]
	genClip := outL2.Slot(2).Clip
	if genClip == nil || genClip.Kind != ClipGenerator || genClip.GeneratorKind != GeneratorPlasma {
		t.Errorf("generator clip round trip mismatch: %+v", genClip)
	}
	if genClip.Parameters["speed"] != 2.0 {
		t.Errorf("generator speed param mismatch: %+v", genClip.Parameters)
	}
}

func TestBlendModeStringAllValues(t *testing.T) {
	cases := []struct {
		b    BlendMode
		want string
	}{
		{BlendNormal, "Normal"},
		{BlendAdd, "Add"},
		{BlendMultiply, "Multiply"},
		{BlendScreen, "Screen"},
		{BlendOverlay, "Overlay"},
	}
	for _, tc := range cases {
		if got := tc.b.String(); got != tc.want {
			t.Errorf("BlendMode(%d).String() = %q, want %q", tc.b, got, tc.want)
		}
	}
}
