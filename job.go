package texstream

import "fmt"

// Job owns one cache and releases it deterministically on Close.
// Use it with defer:
//
//	job, err := texstream.NewJob(u, 1024, 1024, texstream.FormatRGBA8, false)
//	if err != nil {
//	    return err
//	}
//	defer job.Close()
//
// Job is not safe for concurrent use; the Uploader underneath is.
type Job struct {
	u      *Uploader
	handle Handle
	after  FrameBoundary
	closed bool
}

// QueueOptions control how QueueWrite schedules the upload.
type QueueOptions struct {
	// Copy requests copy-on-submit. Not supported.
	Copy bool

	// After binds the job to a frame boundary; ticks are then issued each
	// time the boundary is reached. Empty issues the first tick at once and
	// leaves further ticks to HasFinished polling.
	After FrameBoundary
}

// NewJob allocates a new texture cache.
func NewJob(u *Uploader, width, height int, format PixelFormat, mip bool) (*Job, error) {
	h, err := u.Allocate(width, height, format, mip)
	if err != nil {
		return nil, err
	}
	return &Job{u: u, handle: h}, nil
}

// WrapExisting allocates a cache that updates existing in place.
func WrapExisting(u *Uploader, existing any, width, height int, format PixelFormat) (*Job, error) {
	h, err := u.AllocateFromExisting(existing, width, height, format)
	if err != nil {
		return nil, err
	}
	return &Job{u: u, handle: h}, nil
}

// WritePixelsAsync starts uploading pixels and returns the job tracking it.
// A nil existing texture allocates a new one.
func WritePixelsAsync(u *Uploader, existing any, width, height int, format PixelFormat, pixels []byte, after FrameBoundary) (*Job, error) {
	var (
		job *Job
		err error
	)
	if existing == nil {
		job, err = NewJob(u, width, height, format, false)
	} else {
		job, err = WrapExisting(u, existing, width, height, format)
	}
	if err != nil {
		return nil, err
	}
	if err := job.QueueWrite(pixels, QueueOptions{After: after}); err != nil {
		_ = job.Close()
		return nil, err
	}
	return job, nil
}

// Handle returns the job's cache handle.
func (j *Job) Handle() Handle { return j.handle }

// Uploader returns the uploader the job belongs to.
func (j *Job) Uploader() *Uploader { return j.u }

// SetRowsPerTick sets how many rows each tick transfers.
func (j *Job) SetRowsPerTick(rows int) error {
	if j.closed {
		return j.closedErr()
	}
	return j.u.SetRowsPerTick(j.handle, rows)
}

// QueueWrite stages pixels and schedules their upload.
func (j *Job) QueueWrite(pixels []byte, opts QueueOptions) error {
	if j.closed {
		return j.closedErr()
	}
	if opts.Copy {
		return ErrCopyUnsupported
	}
	if err := j.u.Submit(j.handle, pixels, 0); err != nil {
		return err
	}

	if opts.After != "" {
		if j.after != opts.After {
			if err := j.u.BindFrameBoundary(j.handle, opts.After, BindPersistent); err != nil {
				return err
			}
			j.after = opts.After
		}
		return nil
	}
	return j.u.Tick(j.handle)
}

// HasFinished reports whether the upload completed, driving it when the
// job is not bound to a frame boundary.
func (j *Job) HasFinished() (bool, error) {
	if j.closed {
		return false, j.closedErr()
	}
	return j.u.HasFinished(j.handle)
}

// Progress returns the fraction of rows written.
func (j *Job) Progress() (float64, error) {
	if j.closed {
		return 0, j.closedErr()
	}
	return j.u.Progress(j.handle)
}

// Texture materializes the job's texture.
func (j *Job) Texture(mip MipPolicy, filter FilterPolicy) (*Texture, error) {
	if j.closed {
		return nil, j.closedErr()
	}
	return j.u.Materialize(j.handle, mip, filter)
}

// Close releases the cache. It is idempotent.
func (j *Job) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	return j.u.Release(j.handle)
}

func (j *Job) closedErr() error {
	return fmt.Errorf("%w: job for handle %d is closed", ErrUsage, j.handle)
}
