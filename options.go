package texstream

// DefaultCapacity is the default number of registry slots.
// Kept small so that leaked caches surface early.
const DefaultCapacity = 200

// Option configures an Uploader during creation.
//
// Example:
//
//	q := &texstream.QueueIssuer{}
//	u, err := texstream.New(backend, texstream.WithIssuer(q.Issue))
type Option func(*options)

// options holds optional configuration for Uploader creation.
type options struct {
	issuer      Issuer
	capacity    int
	debug       bool
	pollDriving bool
}

// defaultOptions returns the default uploader options.
func defaultOptions() options {
	return options{
		issuer:      ImmediateIssuer,
		capacity:    DefaultCapacity,
		pollDriving: true,
	}
}

// WithIssuer sets how copy entry points reach the graphics queue.
// The default, ImmediateIssuer, runs them inline.
func WithIssuer(issuer Issuer) Option {
	return func(o *options) {
		if issuer != nil {
			o.issuer = issuer
		}
	}
}

// WithCapacity sets the number of registry slots. Values < 1 keep the default.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithDebug makes operations on unknown handles panic instead of
// returning ErrNotFound.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithPollDriving controls whether HasFinished issues the next tick for
// unbound caches. Enabled by default.
func WithPollDriving(enabled bool) Option {
	return func(o *options) {
		o.pollDriving = enabled
	}
}
