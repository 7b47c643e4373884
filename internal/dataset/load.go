package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Options bundles fetch and decode settings for Load.
type Options struct {
	Fetch  FetchOptions
	Decode DecodeOptions
}

// Load resolves source, reads it from disk or over HTTP and decodes it.
// Any failure is returned as a *LoadError.
func Load(ctx context.Context, source string, opt Options) (*Dataset, error) {
	location, err := Resolve(source)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	var rc io.ReadCloser
	if IsRemote(location) {
		rc, err = fetch(ctx, location, opt.Fetch)
	} else {
		rc, err = os.Open(location)
	}
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	defer rc.Close()

	ds, err := Decode(rc, location, opt.Decode)
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("decode: %w", err)}
	}
	ds.source = source
	return ds, nil
}

// LoaderFunc produces the dataset for a Handle.
type LoaderFunc func(ctx context.Context) (*Dataset, error)

// Handle is the process-wide, lazily populated dataset. The loader's
// result, success or failure, is kept and returned to every later caller.
// A load aborted because the caller's context ended is not kept; the next
// caller loads again.
type Handle struct {
	mu     sync.Mutex
	loaded bool
	load   LoaderFunc
	ds     *Dataset
	err    error
}

// NewHandle wraps a loader.
func NewHandle(load LoaderFunc) *Handle {
	return &Handle{load: load}
}

// Get returns the dataset, loading it on first use. Concurrent callers wait
// for the load in progress.
func (h *Handle) Get(ctx context.Context) (*Dataset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded {
		return h.ds, h.err
	}
	ds, err := h.load(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	h.ds, h.err, h.loaded = ds, err, true
	return ds, err
}
