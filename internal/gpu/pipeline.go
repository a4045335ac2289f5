package gpu

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// RenderPass wraps a single render pass + framebuffer targeting one
// RenderTarget, plus a pipeline-layout and a cache of pipeline variants
// keyed by this engine's BlendPass enum.
type RenderPass struct {
	device *Device
	target *RenderTarget

	handle      vk.RenderPass
	framebuffer vk.Framebuffer
	layout      vk.PipelineLayout

	vertModule vk.ShaderModule
	fragModule vk.ShaderModule

	variants map[BlendPass]vk.Pipeline
}

// NewRenderPass creates a render pass over target's color+depth
// attachments, using TransformVertexSPIRV as the vertex stage and
// fragSPIRV as the fragment stage for every blend variant.
func NewRenderPass(d *Device, target *RenderTarget, fragSPIRV []byte) (*RenderPass, error) {
	rp := &RenderPass{device: d, target: target, variants: make(map[BlendPass]vk.Pipeline)}

	if err := rp.createRenderPass(); err != nil {
		return nil, err
	}
	if err := rp.createFramebuffer(); err != nil {
		return nil, err
	}
	if err := rp.createShaders(fragSPIRV); err != nil {
		return nil, err
	}
	if err := rp.createLayout(); err != nil {
		return nil, err
	}
	return rp, nil
}

func (rp *RenderPass) createRenderPass() error {
	color := vk.AttachmentDescription{
		Format:         vk.FormatR8g8b8a8Unorm,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutTransferSrcOptimal,
	}
	depth := vk.AttachmentDescription{
		Format:         vk.FormatD32Sfloat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	colorRef := vk.AttachmentReference{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal}
	depthRef := vk.AttachmentReference{Attachment: 1, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorRef},
		PDepthStencilAttachment: &depthRef,
	}
	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 2,
		PAttachments:    []vk.AttachmentDescription{color, depth},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}
	var handle vk.RenderPass
	if res := vk.CreateRenderPass(rp.device.Handle, &info, nil, &handle); res != vk.Success {
		return &Error{Operation: "create render pass", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	rp.handle = handle
	return nil
}

func (rp *RenderPass) createFramebuffer() error {
	attachments := []vk.ImageView{rp.target.ColorView, rp.target.DepthView}
	info := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.handle,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           uint32(rp.target.Width),
		Height:          uint32(rp.target.Height),
		Layers:          1,
	}
	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(rp.device.Handle, &info, nil, &fb); res != vk.Success {
		return &Error{Operation: "create framebuffer", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	rp.framebuffer = fb
	return nil
}

func (rp *RenderPass) createShaders(fragSPIRV []byte) error {
	vert, err := rp.device.createShaderModule(TransformVertexSPIRV)
	if err != nil {
		return err
	}
	rp.vertModule = vert

	frag, err := rp.device.createShaderModule(fragSPIRV)
	if err != nil {
		vk.DestroyShaderModule(rp.device.Handle, vert, nil)
		return err
	}
	rp.fragModule = frag
	return nil
}

func (d *Device) createShaderModule(code []byte) (vk.ShaderModule, error) {
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(d.Handle, &info, nil, &module); res != vk.Success {
		return nil, &Error{Operation: "create shader module", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	return module, nil
}

func sliceUint32(data []byte) []uint32 {
	out := make([]uint32, (len(data)+3)/4)
	for i := range out {
		for b := 0; b < 4 && i*4+b < len(data); b++ {
			out[i] |= uint32(data[i*4+b]) << (8 * b)
		}
	}
	return out
}

func (rp *RenderPass) createLayout() error {
	info := vk.PipelineLayoutCreateInfo{SType: vk.StructureTypePipelineLayoutCreateInfo}
	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(rp.device.Handle, &info, nil, &layout); res != vk.Success {
		return &Error{Operation: "create pipeline layout", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	rp.layout = layout
	return nil
}

// GetOrCreatePipeline returns the cached pipeline variant for pass,
// building it on first use. internal/compositor does not call it; it
// blends on the CPU (see internal/compositor/blend.go).
func (rp *RenderPass) GetOrCreatePipeline(pass BlendPass) (vk.Pipeline, error) {
	if p, ok := rp.variants[pass]; ok {
		return p, nil
	}
	p, err := rp.createPipelineVariant(pass)
	if err != nil {
		return nil, err
	}
	rp.variants[pass] = p
	return p, nil
}

func (rp *RenderPass) createPipelineVariant(pass BlendPass) (vk.Pipeline, error) {
	vertStage := vk.PipelineShaderStageCreateInfo{
		SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageVertexBit,
		Module: rp.vertModule, PName: "main\x00",
	}
	fragStage := vk.PipelineShaderStageCreateInfo{
		SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageFragmentBit,
		Module: rp.fragModule, PName: "main\x00",
	}
	stages := []vk.PipelineShaderStageCreateInfo{vertStage, fragStage}

	// Full-screen triangle: no vertex buffer, positions derive from
	// gl_VertexIndex in the shader, so the vertex input state is empty.
	vertexInput := vk.PipelineVertexInputStateCreateInfo{SType: vk.StructureTypePipelineVertexInputStateCreateInfo}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType: vk.StructureTypePipelineInputAssemblyStateCreateInfo, Topology: vk.PrimitiveTopologyTriangleList,
	}

	viewport := vk.Viewport{X: 0, Y: 0, Width: float32(rp.target.Width), Height: float32(rp.target.Height), MinDepth: 0, MaxDepth: 1}
	scissor := vk.Rect2D{Offset: vk.Offset2D{X: 0, Y: 0}, Extent: vk.Extent2D{Width: uint32(rp.target.Width), Height: uint32(rp.target.Height)}}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType: vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1, PViewports: []vk.Viewport{viewport},
		ScissorCount: 1, PScissors: []vk.Rect2D{scissor},
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType: vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill, CullMode: vk.CullModeFlags(vk.CullModeNone),
		FrontFace: vk.FrontFaceCounterClockwise, LineWidth: 1.0,
	}
	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType: vk.StructureTypePipelineMultisampleStateCreateInfo, RasterizationSamples: vk.SampleCount1Bit, MinSampleShading: 1.0,
	}
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType: vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable: vk.False, DepthWriteEnable: vk.False,
	}

	src, dst := blendFactorsFor(pass)
	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: toVkBlendFactor(src),
		DstColorBlendFactor: toVkBlendFactor(dst),
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: toVkBlendFactor(src),
		DstAlphaBlendFactor: toVkBlendFactor(dst),
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	colorBlending := vk.PipelineColorBlendStateCreateInfo{
		SType: vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1, PAttachments: []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType: vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)), PDynamicStates: dynamicStates,
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType: vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)), PStages: stages,
		PVertexInputState: &vertexInput, PInputAssemblyState: &inputAssembly,
		PViewportState: &viewportState, PRasterizationState: &rasterizer,
		PMultisampleState: &multisampling, PDepthStencilState: &depthStencil,
		PColorBlendState: &colorBlending, PDynamicState: &dynamicState,
		Layout: rp.layout, RenderPass: rp.handle, Subpass: 0,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(rp.device.Handle, nil, 1, []vk.GraphicsPipelineCreateInfo{info}, nil, pipelines); res != vk.Success {
		return nil, &Error{Operation: "create pipeline variant", Details: fmt.Sprintf("pass=%d VkResult=%d", pass, res)}
	}
	return pipelines[0], nil
}

// Destroy releases the render pass, framebuffer, shader modules, layout
// and every cached pipeline variant.
func (rp *RenderPass) Destroy() {
	d := rp.device.Handle
	for _, p := range rp.variants {
		vk.DestroyPipeline(d, p, nil)
	}
	if rp.layout != nil {
		vk.DestroyPipelineLayout(d, rp.layout, nil)
	}
	if rp.fragModule != nil {
		vk.DestroyShaderModule(d, rp.fragModule, nil)
	}
	if rp.vertModule != nil {
		vk.DestroyShaderModule(d, rp.vertModule, nil)
	}
	if rp.framebuffer != nil {
		vk.DestroyFramebuffer(d, rp.framebuffer, nil)
	}
	if rp.handle != nil {
		vk.DestroyRenderPass(d, rp.handle, nil)
	}
}
