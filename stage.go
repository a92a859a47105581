package texstream

import "fmt"

// SubmitFlags modify how Submit treats a payload.
type SubmitFlags uint8

const (
	// SubmitCopy asks for the payload to be copied instead of viewed.
	// Not supported: Submit returns ErrCopyUnsupported.
	SubmitCopy SubmitFlags = 1 << iota
)

// Submit stages one full image of pixels for the cache. The payload must
// be exactly width*height*BytesPerPixel bytes; it is consumed row by row by
// later ticks.
//
// The slice is held as a view, not a copy. The caller must keep it valid
// and unmodified until the upload completes or the cache is released.
//
// A new payload is accepted when the cache is idle or its previous upload
// completed; otherwise Submit returns ErrUploadInProgress.
func (u *Uploader) Submit(h Handle, pixels []byte, flags SubmitFlags) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	c, err := u.lookupLocked(h)
	if err != nil {
		return err
	}
	if flags&SubmitCopy != 0 {
		return ErrCopyUnsupported
	}
	if err := u.observeLocked(c); err != nil {
		return err
	}

	if want := c.format.ImageBytes(c.width, c.height); len(pixels) != want {
		return fmt.Errorf("%w: handle %d expects %d bytes (%dx%d %s), got %d",
			ErrSizeMismatch, h, want, c.width, c.height, c.format, len(pixels))
	}

	switch c.state {
	case StateStaged, StateTicking:
		return fmt.Errorf("%w: handle %d at row %d of %d",
			ErrUploadInProgress, h, c.rowsWritten, c.height)
	}

	c.stage = pixels
	c.rowsWritten = 0
	c.rowsScheduled = 0
	c.state = StateStaged

	Logger().Debug("texstream: pixels staged", "handle", h, "bytes", len(pixels))
	return nil
}
