// Command server runs the real-time media-composition and
// projection-mapping pipeline: composition controller, clip-playback,
// GPU compositor, effect automation, per-screen output, and
// capture/network egress.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/immersive-av/immersive-server/internal/appconfig"
	"github.com/immersive-av/immersive-server/internal/applog"
	"github.com/immersive-av/immersive-server/internal/bpm"
	"github.com/immersive-av/immersive-server/internal/capture"
	"github.com/immersive-av/immersive-server/internal/composition"
	"github.com/immersive-av/immersive-server/internal/compositor"
	"github.com/immersive-av/immersive-server/internal/gpu"
	"github.com/immersive-av/immersive-server/internal/network"
	"github.com/immersive-av/immersive-server/internal/output"
	"github.com/immersive-av/immersive-server/internal/presets"
)

func main() {
	projectPath := flag.String("project", "", "path to a composition XML file to load on startup")
	presetName := flag.String("preset", "", "name of a saved composition preset to load on startup")
	savePresetOnExit := flag.String("save-preset", "", "name to save the running composition under on exit")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	ndiEnabled := flag.Bool("ndi", false, "enable NDI egress of the environment texture")
	omtEnabled := flag.Bool("omt", false, "enable OMT egress of the environment texture")
	gpuEnabled := flag.Bool("gpu", false, "capture the environment texture through a Vulkan readback device instead of the CPU software backend")
	flag.Parse()

	applog.SetLevel(*logLevel)
	log := applog.For("server")

	prefs, err := appconfig.Load()
	if err != nil {
		log.WithError(err).Warn("failed to load preferences, using defaults")
	}

	var presetStore *presets.Store
	if dir, err := appconfig.Dir(); err != nil {
		log.WithError(err).Warn("failed to resolve preset directory")
	} else if presetStore, err = presets.NewStore(filepath.Join(dir, "presets")); err != nil {
		log.WithError(err).Warn("failed to open preset store")
	}

	comp := composition.New(1920, 1080, prefs.TargetFPS, 4)
	switch {
	case *projectPath != "":
		data, err := os.ReadFile(*projectPath)
		if err != nil {
			log.WithError(err).Fatal("failed to read project file")
		}
		loaded, err := composition.FromXML(data)
		if err != nil {
			log.WithError(err).Fatal("failed to parse project file")
		}
		comp = loaded
		prefs.LastProjectPath = *projectPath
	case *presetName != "" && presetStore != nil:
		data, err := presetStore.Load(*presetName, "xml")
		if err != nil {
			log.WithError(err).Fatal("failed to load preset")
		}
		loaded, err := composition.FromXML(data)
		if err != nil {
			log.WithError(err).Fatal("failed to parse preset")
		}
		comp = loaded
	}

	clock := bpm.NewClock()
	env := compositor.NewEnvironment(comp, clock, log)
	defer env.Close()

	controller := composition.NewController(comp, 32)

	screen := output.NewScreen("main", comp.Width, comp.Height)
	screen.Slices = []output.Slice{{
		InputRect:  output.Rect{X: 0, Y: 0, W: 1, H: 1},
		OutputRect: output.Rect{X: 0, Y: 0, W: 1, H: 1},
		Warp:       output.WarpIdentity,
	}}

	win := output.NewWindow("immersive-server", screen.Width, screen.Height, func() {
		log.Info("escape pressed, stopping all outputs")
		for _, l := range comp.Layers() {
			comp.Stop(l.ID)
		}
	}, log)
	if err := win.Start(); err != nil {
		log.WithError(err).Warn("window backend unavailable, continuing headless")
		win = nil
	}
	if win != nil {
		defer win.Close()
	}

	// Each sender is closed by its own supervised goroutine below, once
	// the errgroup's shared context is cancelled, rather than by a plain
	// defer here.
	senders := startEgress(ndiEnabled, omtEnabled, prefs)

	captureOut := make(chan []byte, 4)
	var ring *capture.Ring
	var gpuDevice *gpu.Device
	var gpuBackend *gpu.ReadbackBackend
	if len(senders) > 0 {
		source := func() []byte {
			buf, _, _ := env.Frame()
			return buf
		}
		var backend capture.Backend
		if *gpuEnabled {
			dev, err := gpu.OpenDevice("immersive-server")
			if err != nil {
				log.WithError(err).Warn("vulkan device unavailable, falling back to software capture")
				backend = capture.NewSoftwareBackend(comp.Width, comp.Height, source)
			} else {
				rb, err := gpu.NewReadbackBackend(dev, comp.Width, comp.Height, source)
				if err != nil {
					log.WithError(err).Warn("vulkan readback backend unavailable, falling back to software capture")
					dev.Close()
					backend = capture.NewSoftwareBackend(comp.Width, comp.Height, source)
				} else {
					gpuDevice = dev
					gpuBackend = rb
					backend = rb
					log.Info("capturing environment texture through the Vulkan readback device")
				}
			}
		} else {
			backend = capture.NewSoftwareBackend(comp.Width, comp.Height, source)
		}
		ring = capture.NewRing(backend, comp.Width, comp.Height, 30, captureOut)
	}
	defer func() {
		if gpuBackend != nil {
			gpuBackend.Close()
		}
		if gpuDevice != nil {
			gpuDevice.Close()
		}
	}()

	targetFPS := comp.FPS
	if targetFPS <= 0 {
		targetFPS = 60
	}
	frameInterval := time.Duration(float64(time.Second) / targetFPS)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The render loop and one closer goroutine per egress sender run as
	// siblings under one errgroup, the same shape the prism runner uses
	// to bound its per-bundle worker goroutines: once the signal context
	// is cancelled the render loop returns nil and every closer closes
	// its sender; g.Wait then reports the first Close error, if any.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runRenderLoop(gctx, renderLoopDeps{
			controller: controller,
			env:        env,
			win:        win,
			screen:     screen,
			ring:       ring,
			captureOut: captureOut,
			senders:    senders,
			interval:   frameInterval,
			fps:        targetFPS,
			log:        log,
		})
	})
	for _, s := range senders {
		s := s
		g.Go(func() error {
			<-gctx.Done()
			return s.Close()
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("subsystem goroutine reported an error during shutdown")
	}

	if *savePresetOnExit != "" && presetStore != nil {
		data, err := composition.ToXML(comp)
		if err != nil {
			log.WithError(err).Warn("failed to serialize composition preset")
		} else if err := presetStore.Save(*savePresetOnExit, "xml", data); err != nil {
			log.WithError(err).Warn("failed to save composition preset")
		} else if presetStore.CopyPath(presets.KindUser, *savePresetOnExit, "xml") {
			log.Info("copied saved preset path to clipboard")
		}
	}

	if err := appconfig.Save(prefs); err != nil {
		log.WithError(err).Warn("failed to save preferences")
	}
	log.Info("server stopped")
}

// renderLoopDeps bundles the render loop's collaborators so runRenderLoop
// stays a plain function the errgroup can supervise like any other
// subsystem goroutine, instead of a main-local closure.
type renderLoopDeps struct {
	controller *composition.Controller
	env        *compositor.Environment
	win        *output.Window
	screen     *output.Screen
	ring       *capture.Ring
	captureOut chan []byte
	senders    []network.Sender
	interval   time.Duration
	fps        float64
	log        *logrus.Entry
}

// runRenderLoop drives the fixed-tick render loop until ctx is cancelled
// (by a shutdown signal, or by a sibling subsystem goroutine failing).
// It returns nil on a clean, context-driven exit so errgroup.Wait doesn't
// report ordinary shutdown as an error.
func runRenderLoop(ctx context.Context, d renderLoopDeps) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.WithField("fps", d.fps).Info("render loop starting")

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			d.log.Info("shutdown signal received")
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			d.controller.Drain()
			d.env.Tick(dt)

			buf, w, h := d.env.Frame()
			if d.win != nil {
				rendered := output.RenderScreen(buf, w, h, d.screen)
				_ = d.win.UpdateFrame(rendered)
			}
			if d.ring != nil {
				d.ring.Tick(now)
			}
			drainCaptured(d.captureOut, d.senders)
		}
	}
}

func startEgress(ndiEnabled, omtEnabled *bool, prefs appconfig.Preferences) []network.Sender {
	var senders []network.Sender
	if *ndiEnabled || prefs.NDIEnabled {
		sink, _ := network.NewLoopback()
		senders = append(senders, network.NewSender("ndi", sink))
	}
	if *omtEnabled || prefs.OMTEnabled {
		sink, _ := network.NewLoopback()
		senders = append(senders, network.NewSender("omt", sink))
	}
	return senders
}

// rgbaToBGRA returns a copy of buf with the R and B channels swapped,
// since the environment buffer is RGBA8 but network egress carries BGRA.
func rgbaToBGRA(buf []byte) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	for i := 0; i+3 < len(out); i += 4 {
		out[i], out[i+2] = out[i+2], out[i]
	}
	return out
}

func drainCaptured(captureOut chan []byte, senders []network.Sender) {
	select {
	case frame := <-captureOut:
		bgra := rgbaToBGRA(frame)
		for _, s := range senders {
			s.Send(network.Frame{Pix: bgra})
		}
	default:
	}
}
