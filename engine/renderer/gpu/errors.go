package gpu

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrOutOfDate    = errors.New("surface out of date")
	ErrSuboptimal   = errors.New("surface suboptimal")
	ErrSurfaceLost  = errors.New("surface lost")
	ErrDeviceLost   = errors.New("device lost")
	ErrTimeout      = errors.New("timeout")
	ErrOutOfMemory  = errors.New("out of memory")
	ErrUnsupported  = errors.New("unsupported layer, extension or feature")
	ErrInvalidUsage = errors.New("invalid usage")
	ErrFailed       = errors.New("substrate call failed")
)

// ResultError carries the native result of a failed substrate call. It
// unwraps to one of the sentinel errors of this package.
type ResultError struct {
	Op          string
	Code        int32
	Description string
	Err         error
}

func (e *ResultError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s: %v (%d)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Description, e.Code)
}

func (e *ResultError) Unwrap() error {
	return e.Err
}
