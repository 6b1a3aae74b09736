package main

import (
	"fmt"

	md2blog "github.com/alnah/go-md2blog"
)

// poolAdapter exposes md2blog.ConverterPool through the Pool interface.
type poolAdapter struct {
	pool *md2blog.ConverterPool
}

// Compile-time check that poolAdapter implements Pool.
var _ Pool = (*poolAdapter)(nil)

// Acquire gets a converter from the pool, creating one if needed.
func (a *poolAdapter) Acquire() (CLIConverter, error) {
	conv, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Release returns a converter to the pool.
// Panics if conv did not come from this pool (programmer error).
func (a *poolAdapter) Release(conv CLIConverter) {
	c, ok := conv.(*md2blog.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", conv))
	}
	a.pool.Release(c)
}

// Size returns the pool capacity.
func (a *poolAdapter) Size() int {
	return a.pool.Size()
}
