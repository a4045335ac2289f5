package output

import (
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/immersive-av/immersive-server/internal/gpu"
)

// StopAllFunc is invoked once when the operator presses Escape in any
// output window; it must stop every other output and return control to
// the editor surface.
type StopAllFunc func()

// Window presents a Screen's rendered pixels via Ebiten: a
// RunGame-goroutine-plus-vsync-channel handshake, F11 fullscreen toggle,
// and a single Escape-stops-everything contract.
type Window struct {
	name string

	running     bool
	image       *ebiten.Image
	width       int
	height      int
	format      gpu.PixelFormat
	fullscreen  bool
	windowedW   int
	windowedH   int
	frameBuffer []byte
	bufferMutex sync.RWMutex
	frameCount  uint64
	refreshRate int
	vsyncChan   chan struct{}

	onStopAll StopAllFunc
	log       *logrus.Entry
}

// NewWindow constructs a Window sized for width x height RGBA frames.
// onStopAll may be nil, in which case Escape only stops this window.
func NewWindow(name string, width, height int, onStopAll StopAllFunc, log *logrus.Entry) *Window {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Window{
		name:        name,
		width:       width,
		height:      height,
		format:      gpu.PixelFormatRGBA,
		windowedW:   width,
		windowedH:   height,
		frameBuffer: make([]byte, width*height*4),
		refreshRate: 60,
		vsyncChan:   make(chan struct{}, 1),
		onStopAll:   onStopAll,
		log:         log.WithField("window", name),
	}
}

// Start opens the window and blocks until Ebiten renders its first frame.
func (w *Window) Start() error {
	if w.running {
		return nil
	}
	w.running = true
	ebiten.SetWindowSize(w.windowedW, w.windowedH)
	ebiten.SetWindowTitle(w.name)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if w.fullscreen {
		ebiten.SetFullscreen(true)
	}

	go func() {
		if err := ebiten.RunGame(w); err != nil {
			w.log.WithError(err).Warn("output window terminated")
		}
	}()

	<-w.vsyncChan
	return nil
}

func (w *Window) Stop() error {
	w.running = false
	return nil
}

func (w *Window) Close() error {
	return w.Stop()
}

func (w *Window) UpdateFrame(data []byte) error {
	w.bufferMutex.Lock()
	copy(w.frameBuffer, data)
	w.bufferMutex.Unlock()
	return nil
}

func (w *Window) SetDisplayConfig(config gpu.DisplayConfig) error {
	w.bufferMutex.Lock()
	defer w.bufferMutex.Unlock()

	width, height := config.Width, config.Height
	if width <= 0 {
		width = w.width
	}
	if height <= 0 {
		height = w.height
	}
	w.width, w.height = width, height
	w.format = config.PixelFormat

	newSize := w.width * w.height * 4
	if len(w.frameBuffer) != newSize {
		w.frameBuffer = make([]byte, newSize)
	}

	w.windowedW, w.windowedH = w.width, w.height
	w.fullscreen = config.Fullscreen
	ebiten.SetFullscreen(w.fullscreen)
	if !w.fullscreen {
		ebiten.SetWindowSize(w.windowedW, w.windowedH)
	}
	if w.image != nil {
		w.image.Dispose()
		w.image = nil
	}
	return nil
}

func (w *Window) GetDisplayConfig() gpu.DisplayConfig {
	return gpu.DisplayConfig{
		Width:       w.width,
		Height:      w.height,
		RefreshRate: w.refreshRate,
		PixelFormat: w.format,
		VSync:       true,
		Fullscreen:  w.fullscreen,
	}
}

func (w *Window) GetFrameCount() uint64 { return w.frameCount }
func (w *Window) GetRefreshRate() int   { return w.refreshRate }
func (w *Window) IsStarted() bool       { return w.running }

// GetSnapshot returns the most recently presented frame, for capture
// egress paths that read back from the presented window rather than an
// offscreen render target.
func (w *Window) GetSnapshot() gpu.FrameSnapshot {
	w.bufferMutex.RLock()
	defer w.bufferMutex.RUnlock()
	buf := make([]byte, len(w.frameBuffer))
	copy(buf, w.frameBuffer)
	return gpu.FrameSnapshot{Buffer: buf, Width: w.width, Height: w.height, Format: w.format, Timestamp: time.Now()}
}

// Update implements ebiten.Game. F11 toggles fullscreen; Escape stops all
// outputs and returns to the editor surface.
func (w *Window) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	if !w.running {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		w.bufferMutex.Lock()
		w.fullscreen = !w.fullscreen
		ebiten.SetFullscreen(w.fullscreen)
		if !w.fullscreen {
			ebiten.SetWindowSize(w.windowedW, w.windowedH)
		}
		w.bufferMutex.Unlock()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.log.Info("escape pressed, stopping all outputs")
		if w.onStopAll != nil {
			w.onStopAll()
		}
		return ebiten.Termination
	}

	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.image == nil {
		w.image = ebiten.NewImage(w.width, w.height)
	}

	w.bufferMutex.RLock()
	if len(w.frameBuffer) == w.width*w.height*4 {
		w.image.WritePixels(w.frameBuffer)
	}
	w.bufferMutex.RUnlock()
	screen.DrawImage(w.image, nil)

	w.frameCount++
	select {
	case w.vsyncChan <- struct{}{}:
	default:
	}
}

func (w *Window) Layout(_, _ int) (int, int) {
	return w.width, w.height
}

var _ gpu.Output = (*Window)(nil)
