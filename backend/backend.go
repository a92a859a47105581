package backend

import (
	"errors"

	"github.com/gogpu/texstream"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or its factory failed.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// NameSoftware is the name of the in-memory software backend.
	NameSoftware = "software"

	// NameNative is the name of the Pure Go GPU backend (gogpu/wgpu HAL).
	NameNative = "native"
)

// Factory creates a new backend instance. Factories that need hardware
// return an error when it is missing.
type Factory func() (texstream.Backend, error)
