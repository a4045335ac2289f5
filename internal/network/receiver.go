package network

import (
	"sync/atomic"
	"time"

	"github.com/immersive-av/immersive-server/internal/applog"
)

// pollInterval is how often the receiver goroutine polls its FrameSource
// for a new frame when none has arrived yet.
const pollInterval = 4 * time.Millisecond

// receiver is the symmetric receive side: one goroutine polls the
// FrameSource and copies each frame into a small ring, dropping the
// oldest on overflow; callers pop buffered frames oldest first via Take.
type receiver struct {
	source FrameSource
	ring   *frameRing
	stop   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// NewReceiver starts the receiver goroutine, using depth as the ring
// capacity (clamped to >=1 by newFrameRing).
func NewReceiver(name string, source FrameSource, depth int) Receiver {
	r := &receiver{
		source: source,
		ring:   newFrameRing(depth),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.run(name)
	return r
}

func (r *receiver) run(name string) {
	log := applog.For("network").WithField("ingress", name)
	defer close(r.done)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			f, ok := r.source.TryReceive()
			if !ok {
				continue
			}
			if f.Width <= 0 || f.Height <= 0 {
				log.Warn("dropped malformed frame")
				continue
			}
			r.ring.push(f)
		}
	}
}

// Take pops the oldest buffered frame, or ok=false if the ring is empty.
func (r *receiver) Take() (Frame, bool) {
	return r.ring.pop()
}

func (r *receiver) Close() error {
	if r.closed.CompareAndSwap(false, true) {
		close(r.stop)
	}
	return r.source.Close()
}
