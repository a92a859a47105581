// Package texstream uploads CPU pixel buffers into GPU textures
// progressively, a bounded number of rows per frame, without blocking the
// caller or stalling rendering.
//
// # Overview
//
// An Uploader keeps a table of caches. Each cache owns backend texture
// storage, the most recently submitted pixel payload, and the progress of
// writing that payload into the texture:
//
//	u, err := texstream.New(software.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer u.Close()
//
//	h, err := u.Allocate(1024, 1024, texstream.FormatRGBA8, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = u.SetRowsPerTick(h, 256)
//	_ = u.Submit(h, pixels, 0)
//
//	// once per frame
//	_ = u.Tick(h)
//	if done, _ := u.IsComplete(h); done {
//	    tex, _ := u.Materialize(h, texstream.MipBase, texstream.FilterLinear)
//	    _ = tex
//	}
//
// # Scheduling
//
// A tick hands one row range to the Backend and issues the backend's copy
// entry point through an Issuer. ImmediateIssuer runs copies inline;
// QueueIssuer defers them to a render goroutine. Progress is observed only
// through the backend's rows-written counter.
//
// Ticks can be driven three ways: explicit Tick calls, frame-boundary
// bindings fired by ReachFrameBoundary or RunFrameEvents, or HasFinished
// polling on unbound caches.
//
// # Lifecycle
//
// Caches are never finalized implicitly. Release, Job.Close, or
// Uploader.Close tear a cache down in a fixed order: the materialized
// texture is destroyed, the frame-boundary binding is dropped, and only then
// is backend storage freed. Copies issued before Release that run after it
// are dropped.
//
// # Backends
//
// backend/software keeps textures in memory and is deterministic.
// backend/native writes into gogpu/wgpu HAL textures with Queue.WriteTexture.
// Package backend selects among registered implementations by name.
package texstream
