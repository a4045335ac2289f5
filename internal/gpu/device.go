package gpu

import (
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"
)

// Error is the typed-error shape used for GPU operations.
type Error struct {
	Operation string
	Details   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gpu %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("gpu %s failed: %s", e.Operation, e.Details)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	vulkanInitOnce sync.Once
	vulkanInitErr  error
)

// Device owns the Vulkan instance, physical/logical device, graphics
// queue, and a single reset-capable command pool — the bring-up sequence
// every offscreen render target in this engine shares, adapted from the
// teacher's VulkanBackend.initVulkan.
type Device struct {
	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	Handle         vk.Device
	GraphicsQueue  vk.Queue
	QueueFamily    uint32
	CommandPool    vk.CommandPool

	memProps vk.PhysicalDeviceMemoryProperties
}

// OpenDevice performs one-time Vulkan loader init (safe to call from
// multiple goroutines, guarded by a sync.Once) and brings up a single
// logical device with a graphics-capable queue.
func OpenDevice(appName string) (*Device, error) {
	vulkanInitOnce.Do(func() {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			vulkanInitErr = err
			return
		}
		vulkanInitErr = vk.Init()
	})
	if vulkanInitErr != nil {
		return nil, &Error{Operation: "loader init", Details: "vkGetInstanceProcAddr", Err: vulkanInitErr}
	}

	d := &Device{}
	if err := d.createInstance(appName); err != nil {
		return nil, err
	}
	if err := d.selectPhysicalDevice(); err != nil {
		return nil, err
	}
	if err := d.createLogicalDevice(); err != nil {
		return nil, err
	}
	if err := d.createCommandPool(); err != nil {
		return nil, err
	}
	vk.GetPhysicalDeviceMemoryProperties(d.PhysicalDevice, &d.memProps)
	return d, nil
}

func (d *Device) createInstance(appName string) error {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   appName + "\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "immersive-server\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.MakeVersion(1, 1, 0),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return &Error{Operation: "create instance", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	d.Instance = instance
	vk.InitInstance(instance)
	return nil
}

func (d *Device) selectPhysicalDevice() error {
	var count uint32
	vk.EnumeratePhysicalDevices(d.Instance, &count, nil)
	if count == 0 {
		return &Error{Operation: "select physical device", Details: "no Vulkan-capable GPUs found"}
	}
	devices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(d.Instance, &count, devices)

	for _, dev := range devices {
		var qCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, &qCount, nil)
		families := make([]vk.QueueFamilyProperties, qCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, &qCount, families)

		for i, qf := range families {
			qf.Deref()
			if qf.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
				d.PhysicalDevice = dev
				d.QueueFamily = uint32(i)
				return nil
			}
		}
	}
	return &Error{Operation: "select physical device", Details: "no GPU exposes a graphics queue"}
}

func (d *Device) createLogicalDevice() error {
	priority := float32(1.0)
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.QueueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{priority},
	}
	deviceInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queueInfo},
	}

	var device vk.Device
	if res := vk.CreateDevice(d.PhysicalDevice, &deviceInfo, nil, &device); res != vk.Success {
		return &Error{Operation: "create device", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	d.Handle = device

	var queue vk.Queue
	vk.GetDeviceQueue(device, d.QueueFamily, 0, &queue)
	d.GraphicsQueue = queue
	return nil
}

func (d *Device) createCommandPool() error {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.QueueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(d.Handle, &info, nil, &pool); res != vk.Success {
		return &Error{Operation: "create command pool", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	d.CommandPool = pool
	return nil
}

// AllocateCommandBuffer allocates a single primary command buffer from
// the device's shared command pool, the same allocation shape the
// teacher's VulkanBackend.createCommandBuffer uses for its one
// submit-and-wait buffer, generalized here so each readback slot can own
// its own buffer instead of sharing one.
func (d *Device) AllocateCommandBuffer() (vk.CommandBuffer, error) {
	info := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.CommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	bufs := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(d.Handle, &info, bufs); res != vk.Success {
		return nil, &Error{Operation: "allocate command buffer", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	return bufs[0], nil
}

// CreateFence creates a fence, optionally pre-signaled so a caller's
// first WaitForFences on it returns immediately (the teacher's
// createFence always pre-signals for exactly this reason).
func (d *Device) CreateFence(signaled bool) (vk.Fence, error) {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo, Flags: flags}
	var fence vk.Fence
	if res := vk.CreateFence(d.Handle, &info, nil, &fence); res != vk.Success {
		return nil, &Error{Operation: "create fence", Details: fmt.Sprintf("VkResult=%d", res)}
	}
	return fence, nil
}

// FindMemoryType locates a device memory type index matching both the
// image/buffer's type filter bitmask and the requested property flags.
func (d *Device) FindMemoryType(typeFilter uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	d.memProps.Deref()
	for i := uint32(0); i < d.memProps.MemoryTypeCount; i++ {
		d.memProps.MemoryTypes[i].Deref()
		if typeFilter&(1<<i) != 0 && d.memProps.MemoryTypes[i].PropertyFlags&props == props {
			return i, nil
		}
	}
	return 0, &Error{Operation: "find memory type", Details: "no compatible memory type"}
}

// Close tears down the command pool, logical device and instance in
// reverse creation order.
func (d *Device) Close() {
	if d.CommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(d.Handle, d.CommandPool, nil)
	}
	if d.Handle != nil {
		vk.DeviceWaitIdle(d.Handle)
		vk.DestroyDevice(d.Handle, nil)
	}
	if d.Instance != nil {
		vk.DestroyInstance(d.Instance, nil)
	}
}
