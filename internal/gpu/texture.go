package gpu

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// alignRow rounds rowBytes up to spec.md §4.6's 256-byte readback
// alignment; internal/capture.Ring applies the identical rounding on
// the consuming side so a Backend's padded output de-pads cleanly.
func alignRow(rowBytes int) int {
	const rowAlignment = 256
	if rowBytes%rowAlignment == 0 {
		return rowBytes
	}
	return (rowBytes/rowAlignment + 1) * rowAlignment
}

// RenderTarget is a single offscreen color+depth attachment pair sized to
// the composition's configured resolution — the environment texture or a
// ping-pong effect scratch texture.
type RenderTarget struct {
	device *Device

	Width, Height int
	ColorImage    vk.Image
	colorMemory   vk.DeviceMemory
	ColorView     vk.ImageView
	DepthImage    vk.Image
	depthMemory   vk.DeviceMemory
	DepthView     vk.ImageView
}

// NewRenderTarget allocates a color (RGBA8 unorm) and depth (D32 float)
// image pair of the given size. The color image is also a transfer
// source and sampleable, so a render target can double as a texture
// input to a later pass; the depth image is attachment-only.
func NewRenderTarget(d *Device, width, height int) (*RenderTarget, error) {
	rt := &RenderTarget{device: d, Width: width, Height: height}

	color, colorMem, err := d.createImage(width, height, vk.FormatR8g8b8a8Unorm,
		vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit|vk.ImageUsageTransferSrcBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	rt.ColorImage, rt.colorMemory = color, colorMem
	rt.ColorView, err = d.createImageView(color, vk.FormatR8g8b8a8Unorm, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}

	depth, depthMem, err := d.createImage(width, height, vk.FormatD32Sfloat,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	rt.DepthImage, rt.depthMemory = depth, depthMem
	rt.DepthView, err = d.createImageView(depth, vk.FormatD32Sfloat, vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return nil, err
	}

	return rt, nil
}

func (d *Device) createImage(width, height int, format vk.Format, usage vk.ImageUsageFlags, props vk.MemoryPropertyFlags) (vk.Image, vk.DeviceMemory, error) {
	info := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent:    vk.Extent3D{Width: uint32(width), Height: uint32(height), Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var image vk.Image
	if res := vk.CreateImage(d.Handle, &info, nil, &image); res != vk.Success {
		return nil, nil, &Error{Operation: "create image", Details: fmt.Sprintf("VkResult=%d", res)}
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.Handle, image, &reqs)
	reqs.Deref()

	typeIdx, err := d.FindMemoryType(reqs.MemoryTypeBits, props)
	if err != nil {
		return nil, nil, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: typeIdx,
	}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(d.Handle, &allocInfo, nil, &mem); res != vk.Success {
		return nil, nil, &Error{Operation: "allocate image memory", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	vk.BindImageMemory(d.Handle, image, mem, 0)
	return image, mem, nil
}

func (d *Device) createImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(d.Handle, &info, nil, &view); res != vk.Success {
		return nil, &Error{Operation: "create image view", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	return view, nil
}

// Destroy releases both image/view/memory pairs.
func (rt *RenderTarget) Destroy() {
	d := rt.device.Handle
	if rt.ColorView != nil {
		vk.DestroyImageView(d, rt.ColorView, nil)
	}
	if rt.ColorImage != nil {
		vk.DestroyImage(d, rt.ColorImage, nil)
	}
	if rt.colorMemory != nil {
		vk.FreeMemory(d, rt.colorMemory, nil)
	}
	if rt.DepthView != nil {
		vk.DestroyImageView(d, rt.DepthView, nil)
	}
	if rt.DepthImage != nil {
		vk.DestroyImage(d, rt.DepthImage, nil)
	}
	if rt.depthMemory != nil {
		vk.FreeMemory(d, rt.depthMemory, nil)
	}
}

// ReadbackBuffer is a host-visible staging buffer sized to hold one
// RGBA8 frame; ReadbackBackend keeps one per slot as the staging side
// of internal/capture's triple-buffered async reader (see capture.Ring).
type ReadbackBuffer struct {
	device *Device
	Buffer vk.Buffer
	memory vk.DeviceMemory
	size   vk.DeviceSize
}

// NewReadbackBuffer allocates a host-visible, host-coherent buffer large
// enough for one width*height RGBA8 frame, padded to spec.md §4.6's
// 256-byte row alignment so CopyFrom's output matches what
// internal/capture.Ring expects from every Backend.
func NewReadbackBuffer(d *Device, width, height int) (*ReadbackBuffer, error) {
	pitch := alignRow(width * 4)
	size := vk.DeviceSize(pitch * height)
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		SharingMode: vk.SharingModeExclusive,
	}
	var buf vk.Buffer
	if res := vk.CreateBuffer(d.Handle, &info, nil, &buf); res != vk.Success {
		return nil, &Error{Operation: "create readback buffer", Details: fmt.Sprintf("VkResult=%d", res)}
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.Handle, buf, &reqs)
	reqs.Deref()

	typeIdx, err := d.FindMemoryType(reqs.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	allocInfo := vk.MemoryAllocateInfo{SType: vk.StructureTypeMemoryAllocateInfo, AllocationSize: reqs.Size, MemoryTypeIndex: typeIdx}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(d.Handle, &allocInfo, nil, &mem); res != vk.Success {
		return nil, &Error{Operation: "allocate readback memory", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	vk.BindBufferMemory(d.Handle, buf, mem, 0)

	return &ReadbackBuffer{device: d, Buffer: buf, memory: mem, size: size}, nil
}

// CopyFrom records (on the given command buffer, already in the
// recording state) a copy from src into this readback buffer, rows
// padded to the buffer's own 256-byte-aligned pitch via BufferRowLength.
// It does not submit; the caller is responsible for submission/fence
// waiting — see ReadbackBackend for the async triple-buffered user.
func (rb *ReadbackBuffer) CopyFrom(cmd vk.CommandBuffer, src vk.Image, width, height int) {
	pitch := alignRow(width * 4)
	region := vk.BufferImageCopy{
		BufferRowLength:   uint32(pitch / 4),
		BufferImageHeight: uint32(height),
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: uint32(width), Height: uint32(height), Depth: 1},
	}
	vk.CmdCopyImageToBuffer(cmd, src, vk.ImageLayoutTransferSrcOptimal, rb.Buffer, 1, []vk.BufferImageCopy{region})
}

// Map copies the first len(out) bytes of the buffer's current contents
// into out (len(out) must be at most rb.size), mapping and unmapping
// host memory around the copy.
func (rb *ReadbackBuffer) Map(out []byte) {
	var data unsafe.Pointer
	vk.MapMemory(rb.device.Handle, rb.memory, 0, rb.size, 0, &data)
	copy(out, (*[1 << 30]byte)(data)[:len(out)])
	vk.UnmapMemory(rb.device.Handle, rb.memory)
}

// Destroy releases the buffer and its memory.
func (rb *ReadbackBuffer) Destroy() {
	if rb.Buffer != nil {
		vk.DestroyBuffer(rb.device.Handle, rb.Buffer, nil)
	}
	if rb.memory != nil {
		vk.FreeMemory(rb.device.Handle, rb.memory, nil)
	}
}

// UploadBuffer is a host-visible staging buffer used to push a CPU-side
// RGBA8 frame onto the device ahead of a CmdCopyBufferToImage, the
// mirror image of ReadbackBuffer's device-to-host direction.
type UploadBuffer struct {
	device *Device
	Buffer vk.Buffer
	memory vk.DeviceMemory
	size   vk.DeviceSize
}

// NewUploadBuffer allocates a host-visible, host-coherent buffer large
// enough for one width*height RGBA8 frame, usable as a
// CmdCopyBufferToImage source.
func NewUploadBuffer(d *Device, width, height int) (*UploadBuffer, error) {
	size := vk.DeviceSize(width * height * 4)
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		SharingMode: vk.SharingModeExclusive,
	}
	var buf vk.Buffer
	if res := vk.CreateBuffer(d.Handle, &info, nil, &buf); res != vk.Success {
		return nil, &Error{Operation: "create upload buffer", Details: fmt.Sprintf("VkResult=%d", res)}
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.Handle, buf, &reqs)
	reqs.Deref()

	typeIdx, err := d.FindMemoryType(reqs.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	allocInfo := vk.MemoryAllocateInfo{SType: vk.StructureTypeMemoryAllocateInfo, AllocationSize: reqs.Size, MemoryTypeIndex: typeIdx}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(d.Handle, &allocInfo, nil, &mem); res != vk.Success {
		return nil, &Error{Operation: "allocate upload memory", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	vk.BindBufferMemory(d.Handle, buf, mem, 0)

	return &UploadBuffer{device: d, Buffer: buf, memory: mem, size: size}, nil
}

// Write copies data (which must be at least len(data) <= the buffer's
// allocated size) into the staging buffer's host-visible memory.
func (ub *UploadBuffer) Write(data []byte) {
	var ptr unsafe.Pointer
	vk.MapMemory(ub.device.Handle, ub.memory, 0, ub.size, 0, &ptr)
	copy((*[1 << 30]byte)(ptr)[:len(data)], data)
	vk.UnmapMemory(ub.device.Handle, ub.memory)
}

// CopyInto records (on cmd, already recording) a buffer-to-image copy
// from this staging buffer into dst, which must already be in
// TransferDstOptimal layout.
func (ub *UploadBuffer) CopyInto(cmd vk.CommandBuffer, dst vk.Image, width, height int) {
	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: uint32(width), Height: uint32(height), Depth: 1},
	}
	vk.CmdCopyBufferToImage(cmd, ub.Buffer, dst, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

// Destroy releases the buffer and its memory.
func (ub *UploadBuffer) Destroy() {
	if ub.Buffer != nil {
		vk.DestroyBuffer(ub.device.Handle, ub.Buffer, nil)
	}
	if ub.memory != nil {
		vk.FreeMemory(ub.device.Handle, ub.memory, nil)
	}
}

// transitionImageLayout records a pipeline barrier moving image between
// the transfer layouts this package's upload/readback round-trip needs:
// a fresh image starts Undefined, moves to TransferDstOptimal to receive
// an upload, then to TransferSrcOptimal so ReadbackBuffer.CopyFrom can
// read it back, and cycles back to TransferDstOptimal for the next
// frame's upload.
func transitionImageLayout(cmd vk.CommandBuffer, image vk.Image, oldLayout, newLayout vk.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: ^uint32(0),
		DstQueueFamilyIndex: ^uint32(0),
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var srcStage, dstStage vk.PipelineStageFlags
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutTransferSrcOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	default: // TransferSrcOptimal -> TransferDstOptimal, next frame's upload
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	}

	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}
