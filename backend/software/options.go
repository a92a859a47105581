package software

// Option configures a Backend.
type Option func(*options)

type options struct {
	budgetMB int
	lazy     bool
}

// WithBudgetMB limits the bytes held by textures the backend creates.
// Wrapped textures are owned by the caller and not counted.
// Zero, the default, means no limit.
func WithBudgetMB(mb int) Option {
	return func(o *options) {
		o.budgetMB = mb
	}
}

// WithLazyStorage defers allocating texture memory until the first copy
// runs. Until then BackendTextureHandle returns nil.
func WithLazyStorage() Option {
	return func(o *options) {
		o.lazy = true
	}
}
