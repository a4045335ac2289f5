package compositor

import (
	"github.com/immersive-av/immersive-server/internal/composition"
)

// render runs the per-frame compositing algorithm: clear to
// background, then for each layer bottom-to-top, skip by bypass/solo,
// render either a single active clip or a cross-fading pair, routing
// through clip- and layer-scope effect stacks before compositing into
// the environment with the layer's transform and blend mode.
func (e *Environment) render() {
	e.mu.Lock()
	width, height := e.comp.Width, e.comp.Height
	if width != e.width || height != e.height {
		e.width, e.height = width, height
		e.buffer = make([]byte, width*height*4)
	}
	bg := e.comp.Background
	e.mu.Unlock()

	buf := e.buffer
	br := byte(clamp01(bg.R) * 255)
	bgc := byte(clamp01(bg.G) * 255)
	bb := byte(clamp01(bg.B) * 255)
	ba := byte(clamp01(bg.A) * 255)
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i], buf[i+1], buf[i+2], buf[i+3] = br, bgc, bb, ba
	}

	anySolo := e.comp.AnySolo()
	masterOpacity := clamp01(e.comp.MasterOpacity)

	for _, layer := range e.comp.Layers() {
		if layer.Bypass {
			continue
		}
		if anySolo && !layer.Solo {
			continue
		}
		e.renderLayer(layer, masterOpacity)
	}
}

func (e *Environment) renderLayer(layer *composition.Layer, masterOpacity float64) {
	from, to, t := layer.TransitionState()
	layerOpacity := clamp01(layer.Opacity) * masterOpacity

	if from >= 0 {
		e.renderSlotIntoEnvironment(layer, from, (1-t)*layerOpacity)
		e.renderSlotIntoEnvironment(layer, to, t*layerOpacity)
		return
	}
	if to >= 0 {
		e.renderSlotIntoEnvironment(layer, to, layerOpacity)
	}
}

func (e *Environment) renderSlotIntoEnvironment(layer *composition.Layer, column int, weight float64) {
	if weight <= 0 {
		return
	}
	slot := layer.Slot(column)
	if slot == nil || slot.Clip == nil {
		return
	}

	key := slotKey{layer.ID, column}
	frame := e.latestFrame(key)
	if frame == nil || frame.Error {
		return
	}

	pix := frame.Pix
	w, h := frame.Width, frame.Height

	if clipStack := e.clipStacks[key]; clipStack != nil && len(clipStack.Instances()) > 0 {
		pix = clipStack.Process(pix, w, h, e.timing(0))
	}
	if layerStack := e.layerStack[layer.ID]; layerStack != nil && len(layerStack.Instances()) > 0 {
		pix = layerStack.Process(pix, w, h, e.timing(0))
	}

	sizeScaleX := float64(w) / float64(e.width)
	sizeScaleY := float64(h) / float64(e.height)
	slotWeight := weight * clamp01(slot.Opacity)

	for y := 0; y < e.height; y++ {
		envV := (float64(y) + 0.5) / float64(e.height)
		for x := 0; x < e.width; x++ {
			envU := (float64(x) + 0.5) / float64(e.width)

			u, v, ok := sampleTransform(envU, envV, layer.Transform, sizeScaleX, sizeScaleY)
			if !ok {
				continue
			}

			sx := int(u * float64(w))
			sy := int(v * float64(h))
			if sx < 0 {
				sx = 0
			}
			if sx >= w {
				sx = w - 1
			}
			if sy < 0 {
				sy = 0
			}
			if sy >= h {
				sy = h - 1
			}

			srcIdx := (sy*w + sx) * 4
			if srcIdx+3 >= len(pix) {
				continue
			}
			sr := float64(pix[srcIdx]) / 255
			sg := float64(pix[srcIdx+1]) / 255
			sb := float64(pix[srcIdx+2]) / 255
			sa := float64(pix[srcIdx+3]) / 255 * slotWeight

			dstIdx := (y*e.width + x) * 4
			blendPixel(e.buffer, dstIdx, sr, sg, sb, sa, layer.Blend)
		}
	}
}
