package gpu

import "time"

// PixelFormat enumerates the pixel layouts an Output can accept; this
// engine only ever produces PixelFormatRGBA, but the type is kept as an
// enum rather than a bare bool since a capture backend may negotiate
// other layouts.
type PixelFormat int

const (
	PixelFormatRGBA PixelFormat = iota
)

// DisplayConfig is the hardware-independent configuration an Output
// backend is asked to honor.
type DisplayConfig struct {
	Width       int
	Height      int
	RefreshRate int
	PixelFormat PixelFormat
	VSync       bool
	Fullscreen  bool
}

// FrameSnapshot is one rendered output frame plus metadata, handed from
// the compositor to an Output (window presentation) or a capture sender.
type FrameSnapshot struct {
	Buffer    []byte
	Width     int
	Height    int
	Format    PixelFormat
	Timestamp time.Time
}

// Output is the minimal interface a presentation backend (window,
// headless capture-only sink) must implement.
type Output interface {
	Start() error
	Stop() error
	Close() error
	IsStarted() bool

	SetDisplayConfig(config DisplayConfig) error
	GetDisplayConfig() DisplayConfig
	UpdateFrame(buffer []byte) error

	GetFrameCount() uint64
	GetRefreshRate() int
}
