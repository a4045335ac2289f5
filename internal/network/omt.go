package network

import (
	"fmt"
	"net"
)

// OMT auto-allocates a port in this implementation-defined range.
const (
	omtPortLow  = 6400
	omtPortHigh = 6600
)

// AllocateOMTPort finds a free TCP port in the OMT range by probing
// each candidate with a transient listener, the same approach the
// stdlib itself uses for ":0" ephemeral binding but constrained to the
// documented range so OMT receivers can be configured with a known
// window.
func AllocateOMTPort() (int, error) {
	for p := omtPortLow; p <= omtPortHigh; p++ {
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", p))
		if err != nil {
			continue
		}
		l.Close()
		return p, nil
	}
	return 0, fmt.Errorf("no free OMT port in [%d,%d]", omtPortLow, omtPortHigh)
}

// OMTSenderConfig names and addresses an OMT sender; receivers address
// it by "omt://host:port".
type OMTSenderConfig struct {
	Name string
	Host string
	Port int
}

func (c OMTSenderConfig) Address() string {
	return fmt.Sprintf("omt://%s:%d", c.Host, c.Port)
}

// NewOMTSender builds a Sender bound to cfg. The real OMT SDK would open
// a listening socket on cfg.Port and register cfg.Name via mDNS; here
// the transport is the in-process loopback, standing in for that SDK
// binding.
func NewOMTSender(cfg OMTSenderConfig) (Sender, FrameSource) {
	sink, source := NewLoopback()
	return NewSender("omt:"+cfg.Name, sink), source
}

// NewOMTReceiver starts a Receiver over source, labelled with an
// "omt://host:port" address; it opens no network connection. ringDepth
// <1 is clamped to DefaultRingDepth.
func NewOMTReceiver(address string, source FrameSource, ringDepth int) Receiver {
	if ringDepth < 1 {
		ringDepth = DefaultRingDepth
	}
	return NewReceiver("omt:"+address, source, ringDepth)
}
