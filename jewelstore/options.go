package jewelstore

import (
	"time"

	"github.com/0xRadioAc7iv/go-jewelstore/internal"
)

type Option func(*options)

type options struct {
	cfg         *internal.Config
	dialTimeout time.Duration
}

func WithHost(host string) Option {
	return func(o *options) {
		o.cfg.Host = host
	}
}

func WithPort(port int) Option {
	return func(o *options) {
		o.cfg.Port = port
	}
}

// WithDialTimeout bounds how long Connect waits for the server. Zero means
// no timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = d
	}
}
