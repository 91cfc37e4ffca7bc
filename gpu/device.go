// Package gpu provides an optional headless, GPU-accelerated
// automaton3d.Capability backend, built on the same wgpu compute
// pipeline patterns the host module's voxel raytracer uses for its
// buffer-compression and Hi-Z passes — but with no window surface,
// since a simulation kernel has nothing to present.
package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Device wraps the adapter/device/queue triple a headless compute
// pipeline needs. Unlike the host module's windowed GpuState, Device
// never requests a surface.
type Device struct {
	instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
}

// OpenDevice requests a high-performance adapter with no compatible
// surface requirement, then a logical device and its default queue.
func OpenDevice() (*Device, error) {
	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("gpu: requesting adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "automaton3d compute device",
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("gpu: requesting device: %w", err)
	}

	return &Device{
		instance: instance,
		Adapter:  adapter,
		Device:   device,
		Queue:    device.GetQueue(),
	}, nil
}

// Close releases the device and instance. Pipelines and buffers created
// from it must be released first.
func (d *Device) Close() {
	d.Device.Release()
	d.instance.Release()
}
