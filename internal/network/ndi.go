package network

import "fmt"

// NDISenderConfig names an NDI sender; receivers discover it as
// "HOST (NAME)".
type NDISenderConfig struct {
	Name string
	Host string
}

func (c NDISenderConfig) Address() string {
	return fmt.Sprintf("%s (%s)", c.Host, c.Name)
}

// NewNDISender builds a Sender bound to cfg. As with OMT, the real NDI
// SDK binding is stood in for by the in-process loopback, so the rest
// of the egress pipeline (capture pump, sender goroutine, counters) is
// fully exercised without it.
func NewNDISender(cfg NDISenderConfig) (Sender, FrameSource) {
	sink, source := NewLoopback()
	return NewSender("ndi:"+cfg.Name, sink), source
}

// NewNDIReceiver starts a Receiver over source, labelled with the NDI
// address; it opens no network connection. ringDepth <1 is clamped to
// DefaultRingDepth.
func NewNDIReceiver(address string, source FrameSource, ringDepth int) Receiver {
	if ringDepth < 1 {
		ringDepth = DefaultRingDepth
	}
	return NewReceiver("ndi:"+address, source, ringDepth)
}
