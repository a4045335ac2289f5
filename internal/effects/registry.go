package effects

// Registry maps an effect_type name to a factory constructing a fresh
// EffectType instance, a constructor map since each entry needs its own
// independent state rather than a shared constant value.
var Registry = map[string]func() EffectType{
	"invert":              func() EffectType { return &invertEffect{} },
	"brightness_contrast": func() EffectType { return &brightnessContrastEffect{} },
	"mirror_h":            func() EffectType { return &mirrorHEffect{} },
}

type invertEffect struct{}

func (invertEffect) Name() string { return "invert" }
func (invertEffect) ParamsMetadata() []ParamMeta {
	return []ParamMeta{{Name: "amount", Label: "Amount", Default: FloatValue(1), Min: 0, Max: 1, HasMinMax: true}}
}
func (invertEffect) Process(in, out []byte, width, height int, params map[string]ParamValue) {
	amount := 1.0
	if p, ok := params["amount"]; ok {
		amount = p.AsFloat()
	}
	for i := 0; i+3 < len(in) && i+3 < len(out); i += 4 {
		out[i] = lerpByte(in[i], 255-in[i], amount)
		out[i+1] = lerpByte(in[i+1], 255-in[i+1], amount)
		out[i+2] = lerpByte(in[i+2], 255-in[i+2], amount)
		out[i+3] = in[i+3]
	}
}

type brightnessContrastEffect struct{}

func (brightnessContrastEffect) Name() string { return "brightness_contrast" }
func (brightnessContrastEffect) ParamsMetadata() []ParamMeta {
	return []ParamMeta{
		{Name: "brightness", Label: "Brightness", Default: FloatValue(0), Min: -1, Max: 1, HasMinMax: true},
		{Name: "contrast", Label: "Contrast", Default: FloatValue(1), Min: 0, Max: 2, HasMinMax: true},
	}
}
func (brightnessContrastEffect) Process(in, out []byte, width, height int, params map[string]ParamValue) {
	brightness := params["brightness"].AsFloat()
	contrast := 1.0
	if p, ok := params["contrast"]; ok {
		contrast = p.AsFloat()
	}
	for i := 0; i+3 < len(in) && i+3 < len(out); i += 4 {
		out[i] = applyBC(in[i], brightness, contrast)
		out[i+1] = applyBC(in[i+1], brightness, contrast)
		out[i+2] = applyBC(in[i+2], brightness, contrast)
		out[i+3] = in[i+3]
	}
}

func applyBC(c byte, brightness, contrast float64) byte {
	v := float64(c) / 255
	v = (v-0.5)*contrast + 0.5 + brightness
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return byte(v * 255)
}

type mirrorHEffect struct{}

func (mirrorHEffect) Name() string { return "mirror_h" }
func (mirrorHEffect) ParamsMetadata() []ParamMeta {
	return nil
}
func (mirrorHEffect) Process(in, out []byte, width, height int, params map[string]ParamValue) {
	for y := 0; y < height; y++ {
		rowStart := y * width * 4
		for x := 0; x < width; x++ {
			srcIdx := rowStart + x*4
			dstIdx := rowStart + (width-1-x)*4
			if srcIdx+3 >= len(in) || dstIdx+3 >= len(out) {
				continue
			}
			out[dstIdx] = in[srcIdx]
			out[dstIdx+1] = in[srcIdx+1]
			out[dstIdx+2] = in[srcIdx+2]
			out[dstIdx+3] = in[srcIdx+3]
		}
	}
}

func lerpByte(a, b byte, t float64) byte {
	v := float64(a) + (float64(b)-float64(a))*t
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}
