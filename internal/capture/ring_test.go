package capture

import (
	"testing"
	"time"
)

func TestAlignRow(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 0},
		{256, 256},
		{257, 512},
		{4 * 100, 512}, // 400 -> next multiple of 256
	}
	for _, c := range cases {
		if got := alignRow(c.in); got != c.want {
			t.Errorf("alignRow(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestRingDeliversDepaddedFrame(t *testing.T) {
	backend := newFakeBackend(3, 2) // non-aligned row width forces padding
	out := make(chan []byte, 4)
	r := NewRing(backend, 3, 2, 1000, out) // high fps so throttle never blocks the test

	now := time.Now()
	r.Tick(now)                     // queue -> Pending
	r.Tick(now.Add(time.Millisecond)) // Pending -> Mapping
	r.Tick(now.Add(2 * time.Millisecond)) // Mapping -> Ready
	r.Tick(now.Add(3 * time.Millisecond)) // Ready -> delivered, Available

	select {
	case blob := <-out:
		if len(blob) != 3*4*2 {
			t.Fatalf("expected depadded length %d, got %d", 3*4*2, len(blob))
		}
		for _, b := range blob {
			if b != 0x42 {
				t.Fatalf("expected all bytes 0x42, found %x", b)
			}
		}
	default:
		t.Fatal("expected a delivered frame on out")
	}

	if r.FramesCaptured() != 1 {
		t.Fatalf("expected FramesCaptured=1, got %d", r.FramesCaptured())
	}
}

func TestRingThrottles(t *testing.T) {
	backend := newFakeBackend(4, 4)
	out := make(chan []byte, 8)
	r := NewRing(backend, 4, 4, 30, out) // throttle ~33ms between queues

	now := time.Now()
	r.Tick(now) // queues slot 0 -> Pending
	r.Tick(now.Add(time.Millisecond)) // still within throttle window

	if r.availableCount() != 2 {
		t.Fatalf("expected only one buffer queued within the throttle window, got availableCount=%d", r.availableCount())
	}
}

func (r *Ring) availableCount() int {
	n := 0
	for _, s := range r.states {
		if s == Available {
			n++
		}
	}
	return n
}

func TestRingSkipsOnBackendFailure(t *testing.T) {
	backend := newFakeBackend(2, 2)
	backend.fail = true
	out := make(chan []byte, 2)
	r := NewRing(backend, 2, 2, 1000, out)

	r.Tick(time.Now())
	if r.FramesSkipped() == 0 {
		t.Fatal("expected FramesSkipped > 0 on backend failure")
	}
}
