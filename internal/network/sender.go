package network

import (
	"sync/atomic"

	"github.com/immersive-av/immersive-server/internal/applog"
)

// senderChanDepth bounds the capture→sender handoff channel; it only
// needs to be bounded and non-blocking from the render side, not any
// particular depth.
const senderChanDepth = 4

// sender is the background publish goroutine: it owns the network
// producer handle, blocks on its channel, and publishes each received
// frame synchronously. The render thread never joins it synchronously.
type sender struct {
	sink   FrameSink
	frames chan Frame
	done   chan struct{}
	stop   chan struct{}

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewSender starts the sender goroutine publishing to sink. name
// identifies the egress in log lines (e.g. "ndi", "omt").
func NewSender(name string, sink FrameSink) Sender {
	s := &sender{
		sink:   sink,
		frames: make(chan Frame, senderChanDepth),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
	go s.run(name)
	return s
}

func (s *sender) run(name string) {
	log := applog.For("network").WithField("egress", name)
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case f := <-s.frames:
			if err := s.sink.Publish(f); err != nil {
				log.WithError(err).Warn("publish failed")
				continue
			}
			s.sent.Add(1)
		}
	}
}

// Send attempts a non-blocking handoff to the sender goroutine. Returns
// false (and increments the dropped counter) if the channel is full or
// the sender has been closed.
func (s *sender) Send(f Frame) bool {
	select {
	case <-s.stop:
		s.dropped.Add(1)
		return false
	default:
	}
	select {
	case s.frames <- f:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

func (s *sender) FramesSent() uint64    { return s.sent.Load() }
func (s *sender) FramesDropped() uint64 { return s.dropped.Load() }

// Close signals shutdown without blocking on the sender goroutine's
// exit; it still returns sink.Close()'s error so callers can log it.
func (s *sender) Close() error {
	close(s.stop)
	return s.sink.Close()
}
