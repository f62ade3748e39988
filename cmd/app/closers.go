package main

import (
	"sync"

	"github.com/rs/zerolog"
)

// closers releases process resources in reverse order of acquisition. Both
// the signal handler and the normal exit path call Close; only the first call
// does any work.
type closers struct {
	mu    sync.Mutex
	once  sync.Once
	names []string
	fns   []func() error
	log   *zerolog.Logger
}

func newClosers(log *zerolog.Logger) *closers {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &closers{log: log}
}

func (c *closers) Push(name string, fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
	c.fns = append(c.fns, fn)
}

// Close runs every registered function, last pushed first. Failures are
// logged and do not stop the remaining closes.
func (c *closers) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i := len(c.fns) - 1; i >= 0; i-- {
			if err := c.fns[i](); err != nil {
				c.log.Error().Err(err).Str("resource", c.names[i]).Msg("close failed")
				continue
			}
			c.log.Debug().Str("resource", c.names[i]).Msg("closed")
		}
	})
}
