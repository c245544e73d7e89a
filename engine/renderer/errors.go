package renderer

import (
	"github.com/pkg/errors"
)

var (
	// ErrSurfaceOutOfDate reports that the swapchain no longer matches the
	// surface. The render targets must be recreated before the next frame.
	ErrSurfaceOutOfDate = errors.New("presentation surface out of date")

	ErrNoSuitableDevice  = errors.New("no physical device meets the requirements")
	ErrNoDepthFormat     = errors.New("no supported depth attachment format")
	ErrUnsupportedExtent = errors.New("surface extent not supported")
	ErrNoMemoryType      = errors.New("no suitable memory type")
	ErrNotMappable       = errors.New("allocation is not host visible")
	ErrEmptyMesh         = errors.New("mesh has no vertices")

	ErrNoShaderStages   = errors.New("pipeline has no shader stages")
	ErrNoPipelineLayout = errors.New("pipeline has no layout")
	ErrNoRenderPass     = errors.New("pipeline has no render pass")
)

type surfaceOutOfDate struct {
	cause error
}

func (e *surfaceOutOfDate) Error() string {
	return ErrSurfaceOutOfDate.Error() + ": " + e.cause.Error()
}

func (e *surfaceOutOfDate) Is(target error) bool {
	return target == ErrSurfaceOutOfDate
}

func (e *surfaceOutOfDate) Unwrap() error {
	return e.cause
}

// IsRecoverable reports whether err only requires the render targets to be
// recreated.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSurfaceOutOfDate)
}
