package seglist

import "github.com/pkg/errors"

// ErrOutOfMemory is returned from any operation that required the region
// provider to grow the heap when the provider refused. The heap's internal
// state is unchanged when this error is returned.
var ErrOutOfMemory error = errors.New("out of memory")
