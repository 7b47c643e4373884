package analysis

import "errors"

// ErrEmptyResult classifies a result with nothing to show. Engines return
// empty results rather than this error; presentation layers that cannot
// handle an empty result wrap it.
var ErrEmptyResult = errors.New("empty result")
