// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package texcanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/backend/native"
)

// ErrNilProvider is returned when a nil DeviceProvider is passed.
var ErrNilProvider = errors.New("texcanvas: nil DeviceProvider")

// NewFromProvider creates a Canvas that shares the host application's GPU
// device. The canvas owns the uploader and backend it creates and closes
// them in Close.
func NewFromProvider(provider gpucontext.DeviceProvider, width, height int, opts ...Option) (*Canvas, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	b, err := native.NewFromProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("texcanvas: %w", err)
	}
	u, err := texstream.New(b)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	c, err := New(u, width, height, opts...)
	if err != nil {
		u.Close()
		_ = b.Close()
		return nil, err
	}
	c.owned = ownedStack{u: u, b: b}
	return c, nil
}

type ownedStack struct {
	u *texstream.Uploader
	b *native.Backend
}

func (s ownedStack) Close() error {
	s.u.Close()
	return s.b.Close()
}
