// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package texcanvas

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

type halProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p halProvider) Device() gpucontext.Device             { return p.device }
func (p halProvider) Queue() gpucontext.Queue               { return p.queue }
func (p halProvider) Adapter() gpucontext.Adapter           { return nil }
func (p halProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (p halProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "noop"}
}
func (p halProvider) HalDevice() any { return p.device }
func (p halProvider) HalQueue() any  { return p.queue }

func TestNewFromProvider(t *testing.T) {
	if _, err := NewFromProvider(nil, 1, 1); !errors.Is(err, ErrNilProvider) {
		t.Errorf("NewFromProvider(nil) error = %v, want ErrNilProvider", err)
	}

	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer instance.Destroy()
	open, err := instance.EnumerateAdapters(nil)[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	defer open.Device.Destroy()

	p := halProvider{device: open.Device, queue: open.Queue}
	if _, err := NewFromProvider(p, 0, 1); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewFromProvider(0x1) error = %v, want ErrInvalidDimensions", err)
	}

	c, err := NewFromProvider(p, 4, 4)
	if err != nil {
		t.Fatalf("NewFromProvider() error = %v", err)
	}
	tex, err := c.Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if tex == nil {
		t.Fatal("Flush() texture = nil")
	}
	if p, _ := c.Progress(); p != 1 {
		t.Errorf("Progress() = %v, want 1", p)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
