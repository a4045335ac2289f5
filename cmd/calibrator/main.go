// Command calibrator drives the Gray-code projector/camera calibration
// sequence: display reference and Gray-code patterns on each configured
// projector, decode camera correspondences, fit a homography, detect
// projector overlaps, and export blend masks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/immersive-av/immersive-server/internal/applog"
	"github.com/immersive-av/immersive-server/internal/calibration"
	"github.com/immersive-av/immersive-server/internal/network"
	"github.com/immersive-av/immersive-server/internal/output"
)

// windowDisplayer adapts an output.Window to calibration.Displayer,
// stretching a single-channel grayscale pattern into the window's RGBA
// frame buffer.
type windowDisplayer struct {
	win *output.Window
}

func (d *windowDisplayer) Display(pix []byte, width, height int) error {
	rgba := make([]byte, width*height*4)
	for i, v := range pix {
		o := i * 4
		rgba[o], rgba[o+1], rgba[o+2], rgba[o+3] = v, v, v, 255
	}
	return d.win.UpdateFrame(rgba)
}

func main() {
	projectorCount := flag.Int("projectors", 1, "number of projectors to calibrate")
	width := flag.Int("width", 1024, "projector horizontal resolution")
	height := flag.Int("height", 768, "projector vertical resolution")
	outDir := flag.String("out", "./calibration-output", "directory to write blend masks to")
	cameraSource := flag.String("camera", "", "omt:// or ndi source address for the calibration camera feed")
	curveName := flag.String("blend-curve", "smoothstep", "overlap blend curve: linear, gamma, cosine, smoothstep")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	applog.SetLevel(*logLevel)
	log := applog.For("calibrator")

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create output directory")
	}

	curve := parseCurve(*curveName)

	if *cameraSource != "" {
		log.WithField("source", *cameraSource).Warn("camera ingest SDK binding is out of scope; using loopback stand-in")
	}
	_, camSource := network.NewLoopback()

	progress := calibration.NewProgress(os.Stdout)
	session := calibration.NewSession(camSource, progress)

	var projectors []calibration.ProjectorConfig
	var windows []*output.Window
	for i := 0; i < *projectorCount; i++ {
		win := output.NewWindow(fmt.Sprintf("calibrator-projector-%d", i), *width, *height, nil, log)
		if err := win.Start(); err != nil {
			log.WithError(err).Warn("projector window backend unavailable, continuing headless")
		} else {
			windows = append(windows, win)
		}
		projectors = append(projectors, calibration.ProjectorConfig{
			Index:   i,
			Width:   *width,
			Height:  *height,
			Display: &windowDisplayer{win: win},
		})
	}
	defer func() {
		for _, w := range windows {
			w.Close()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := session.Run(ctx, projectors)
	if err != nil {
		log.WithError(err).Error("calibration aborted")
		os.Exit(1)
	}

	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			overlap := calibration.DetectOverlap(results[i].Correspondences, results[j].Correspondences, *width, *height, curve)
			if err := exportOverlapMasks(*outDir, results[i].Index, results[j].Index, overlap); err != nil {
				log.WithError(err).Warnf("failed to export blend masks for projectors %d/%d", i, j)
			}
		}
	}

	if calibration.CopySummary(results) {
		log.Info("copied calibration summary to clipboard")
	}
	log.WithField("projectors", len(results)).Info("calibration complete")
}

func parseCurve(name string) calibration.BlendCurve {
	switch name {
	case "linear":
		return calibration.CurveLinear
	case "gamma":
		return calibration.CurveGamma
	case "cosine":
		return calibration.CurveCosine
	default:
		return calibration.CurveSmoothstep
	}
}

func exportOverlapMasks(outDir string, a, b int, overlap calibration.OverlapRegion) error {
	pathA := filepath.Join(outDir, fmt.Sprintf("blend_%d_%d_a.png", a, b))
	pathB := filepath.Join(outDir, fmt.Sprintf("blend_%d_%d_b.png", a, b))
	if err := calibration.ExportBlendMask(pathA, overlap.Width, overlap.Height, overlap.WeightA); err != nil {
		return err
	}
	return calibration.ExportBlendMask(pathB, overlap.Width, overlap.Height, overlap.WeightB)
}
