// Package backend selects texstream backends by name.
//
// Backend packages register a factory from init(), so importing them for
// side effects makes them available:
//
//	import (
//		"github.com/gogpu/texstream/backend"
//		_ "github.com/gogpu/texstream/backend/native"
//		_ "github.com/gogpu/texstream/backend/software"
//	)
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b, name, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	u, err := texstream.New(b)
//
// Default tries "native" first. Its factory opens a Vulkan device and
// fails on machines without one, in which case "software" is used.
//
// # Available Backends
//
// - "software": in-memory textures, always available
// - "native": gogpu/wgpu HAL textures written with Queue.WriteTexture
package backend
