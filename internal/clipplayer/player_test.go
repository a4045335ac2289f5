package clipplayer

import (
	"testing"
	"time"

	"github.com/immersive-av/immersive-server/internal/composition"
)

func TestMailboxDropsStaleFrame(t *testing.T) {
	var m Mailbox
	m.Post(&Frame{PTS: 1})
	m.Post(&Frame{PTS: 2}) // overwrites the first before it's ever read

	got := m.Take()
	if got == nil || got.PTS != 2 {
		t.Fatalf("expected the most recent post (PTS=2), got %+v", got)
	}
	if m.Take() != nil {
		t.Fatalf("expected mailbox empty after Take")
	}
}

func TestSyntheticVideoDecoderRespectsNativeSize(t *testing.T) {
	d := NewSyntheticVideoDecoder(64, 32, 10, 30)
	w, h := d.NativeSize()
	if w != 64 || h != 32 {
		t.Fatalf("expected 64x32, got %dx%d", w, h)
	}
	frame, err := d.DecodeAt(1.5)
	if err != nil {
		t.Fatalf("DecodeAt: %v", err)
	}
	if len(frame.Pix) != 64*32*4 {
		t.Fatalf("expected %d pixel bytes, got %d", 64*32*4, len(frame.Pix))
	}
}

func TestApplyLoopModeNoneFreezesAtDuration(t *testing.T) {
	elapsed, dir := applyLoopMode(composition.LoopNone, 12, 10, 1)
	if elapsed != 10 || dir != 1 {
		t.Fatalf("expected freeze at duration (10, 1), got (%v, %v)", elapsed, dir)
	}
}

func TestApplyLoopModeLoopWraps(t *testing.T) {
	elapsed, dir := applyLoopMode(composition.LoopLoop, 12, 10, 1)
	if elapsed != 2 || dir != 1 {
		t.Fatalf("expected wrap to 2, got (%v, %v)", elapsed, dir)
	}
}

func TestApplyLoopModePingPongReverses(t *testing.T) {
	elapsed, dir := applyLoopMode(composition.LoopPingPong, 12, 10, 1)
	if elapsed != 8 || dir != -1 {
		t.Fatalf("expected reflection to 8 with reversed direction, got (%v, %v)", elapsed, dir)
	}
}

func TestClipPlayerPauseStopsPosting(t *testing.T) {
	decoder := NewSyntheticVideoDecoder(4, 4, 1, 30)
	p := NewClipPlayer(decoder, composition.LoopLoop, func() float64 { return 1 }, nil)
	p.Start(30)
	defer p.Stop()

	time.Sleep(40 * time.Millisecond)
	if p.Mailbox().Take() == nil {
		t.Fatalf("expected at least one frame posted before pausing")
	}

	p.TogglePause()
	time.Sleep(20 * time.Millisecond)
	p.Mailbox().Take() // drain whatever raced in before the pause landed

	time.Sleep(60 * time.Millisecond)
	if p.Mailbox().Take() != nil {
		t.Fatalf("expected no frames posted while paused")
	}
}

func TestGeneratorDecoderRendersRequestedSize(t *testing.T) {
	d := NewGeneratorDecoder(composition.GeneratorColorBars, 16, 8, nil)
	frame, err := d.DecodeAt(0)
	if err != nil {
		t.Fatalf("DecodeAt: %v", err)
	}
	if frame.Width != 16 || frame.Height != 8 {
		t.Fatalf("expected 16x8, got %dx%d", frame.Width, frame.Height)
	}
}
