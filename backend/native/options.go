// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

// Option configures a Backend.
type Option func(*options)

type options struct {
	budgetMB int
	label    string
}

func defaultOptions() options {
	return options{label: "texstream_cache"}
}

// WithBudgetMB limits the GPU memory of textures the backend creates,
// mip chains included. Zero, the default, means no limit.
func WithBudgetMB(mb int) Option {
	return func(o *options) {
		o.budgetMB = mb
	}
}

// WithLabel sets the debug label prefix of created textures.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}
