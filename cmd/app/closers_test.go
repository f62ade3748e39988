//go:build !integration

package main

import (
	"errors"
	"sync"
	"testing"
)

func TestClosers_ReverseOrderOnce(t *testing.T) {
	c := newClosers(nil)
	var order []string
	c.Push("repo", func() error { order = append(order, "repo"); return nil })
	c.Push("redis", func() error { order = append(order, "redis"); return errors.New("conn reset") })
	c.Push("audit", func() error { order = append(order, "audit"); return nil })

	// signal handler and main racing to shut down
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()
	c.Close()

	if len(order) != 3 || order[0] != "audit" || order[1] != "redis" || order[2] != "repo" {
		t.Fatalf("unexpected close order: %v", order)
	}
}
