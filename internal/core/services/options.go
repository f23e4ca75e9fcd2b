package services

import "time"

type options struct {
	now func() time.Time
}

// Option configures a service.
type Option func(*options)

// WithClock overrides the time source used for timestamps and windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
