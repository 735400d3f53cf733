package nemo

import (
	"fmt"
	"os"
	"strings"
)

const (
	AcceleratorGPU = "gpu"
	AcceleratorCPU = "cpu"
)

type Device struct {
	Accelerator string
	Index       int
}

func (d Device) String() string {
	if d.Accelerator == AcceleratorGPU {
		return fmt.Sprintf("cuda:%d", d.Index)
	}
	return AcceleratorCPU
}

// SelectDevice returns cuda:0 only when a whole GPU is requested and one is visible.
func SelectDevice(numGPUs float64, gpuVisible func() bool) Device {
	if numGPUs >= 1 && gpuVisible != nil && gpuVisible() {
		return Device{Accelerator: AcceleratorGPU, Index: 0}
	}
	return Device{Accelerator: AcceleratorCPU}
}

func GPUVisible() bool {
	switch v := strings.ToLower(strings.TrimSpace(os.Getenv("NVIDIA_VISIBLE_DEVICES"))); v {
	case "", "void", "none":
	default:
		return true
	}
	_, err := os.Stat("/dev/nvidia0")
	return err == nil
}
