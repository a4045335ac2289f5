// Package gpu owns the Vulkan device, pipeline cache, and texture/readback
// plumbing: one logical device, render targets, and pipeline variants
// cached by blend pass. cmd/server uses it for the optional -gpu capture
// readback (ReadbackBackend), and internal/output uses its Output and
// PixelFormat types; compositing itself runs on the CPU and nothing
// outside this package creates a RenderTarget or RenderPass.
package gpu

import vk "github.com/goki/vulkan"

// BlendFactor mirrors the subset of VkBlendFactor this engine drives,
// named independently of vulkan's own constants so callers outside this
// package never import goki/vulkan directly.
type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDstColor
	BlendFactorOneMinusDstColor
)

// blendFactorToVulkan maps BlendFactor to VkBlendFactor.
var blendFactorToVulkan = map[BlendFactor]vk.BlendFactor{
	BlendFactorZero:             vk.BlendFactorZero,
	BlendFactorOne:              vk.BlendFactorOne,
	BlendFactorSrcAlpha:         vk.BlendFactorSrcAlpha,
	BlendFactorOneMinusSrcAlpha: vk.BlendFactorOneMinusSrcAlpha,
	BlendFactorDstColor:         vk.BlendFactorDstColor,
	BlendFactorOneMinusDstColor: vk.BlendFactorOneMinusDstColor,
}

func toVkBlendFactor(f BlendFactor) vk.BlendFactor { return blendFactorToVulkan[f] }

// BlendPass selects which pair of (src, dst) blend factors a pipeline
// variant uses, one per composition.BlendMode plus the second pass of the
// Overlay two-pass emulation.
type BlendPass int

const (
	BlendPassNormal BlendPass = iota
	BlendPassAdd
	BlendPassMultiply
	BlendPassScreen
	BlendPassOverlayA
	BlendPassOverlayB
)

func blendFactorsFor(pass BlendPass) (src, dst BlendFactor) {
	switch pass {
	case BlendPassAdd:
		return BlendFactorSrcAlpha, BlendFactorOne
	case BlendPassMultiply:
		return BlendFactorDstColor, BlendFactorZero
	case BlendPassScreen:
		return BlendFactorOne, BlendFactorOneMinusSrcAlpha
	case BlendPassOverlayA:
		return BlendFactorOne, BlendFactorZero // render to scratch, unblended
	case BlendPassOverlayB:
		return BlendFactorSrcAlpha, BlendFactorOneMinusSrcAlpha
	default: // BlendPassNormal
		return BlendFactorSrcAlpha, BlendFactorOneMinusSrcAlpha
	}
}
