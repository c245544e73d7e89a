package renderer

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/math"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

const undefinedExtent = ^uint32(0)

type SwapchainOptions struct {
	// PresentMode is used when the surface supports it, FIFO otherwise.
	PresentMode gpu.PresentMode
}

type DepthAttachment struct {
	Image  *AllocatedImage
	View   gpu.ImageView
	Format gpu.Format
}

type Swapchain struct {
	Handle      gpu.Swapchain
	ImageFormat gpu.SurfaceFormat
	PresentMode gpu.PresentMode
	Extent      gpu.Extent2D
	Images      []gpu.Image
	Views       []gpu.ImageView
	Depth       DepthAttachment
}

func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

func chooseSurfaceFormat(formats []gpu.SurfaceFormat) gpu.SurfaceFormat {
	for _, format := range formats {
		// Preferred formats
		if format.Format == gpu.FormatB8G8R8A8Srgb && format.ColorSpace == gpu.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

func choosePresentMode(modes []gpu.PresentMode, preferred gpu.PresentMode) gpu.PresentMode {
	for _, mode := range modes {
		if mode == preferred {
			return mode
		}
	}
	return gpu.PresentModeFifo
}

func chooseExtent(caps gpu.SurfaceCapabilities, desired gpu.Extent2D) (gpu.Extent2D, error) {
	extent := desired
	if caps.CurrentExtent.Width != undefinedExtent {
		extent = caps.CurrentExtent
	}

	// Clamp to the value allowed by the GPU.
	extent.Width = math.Clamp(extent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width)
	extent.Height = math.Clamp(extent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height)
	if extent.Width == 0 || extent.Height == 0 {
		return extent, errors.Wrapf(ErrUnsupportedExtent, "%dx%d", extent.Width, extent.Height)
	}
	return extent, nil
}

func chooseImageCount(caps gpu.SurfaceCapabilities) uint32 {
	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}
	return imageCount
}

// CreateSwapchain creates the swapchain for the context surface, one view per
// image and a device local depth attachment of the same extent. Every object
// registers its own teardown with dq in creation order.
func CreateSwapchain(ctx *Context, desired gpu.Extent2D, opts SwapchainOptions, dq *containers.DeletionQueue) (*Swapchain, error) {
	sub, device := ctx.Sub, ctx.Device

	support, err := sub.SurfaceSupport(ctx.PhysicalDevice.Handle, ctx.Surface)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query swapchain support")
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return nil, errors.Wrap(gpu.ErrUnsupported, "surface reports no formats or present modes")
	}

	extent, err := chooseExtent(support.Capabilities, desired)
	if err != nil {
		return nil, err
	}

	swapchain := &Swapchain{
		ImageFormat: chooseSurfaceFormat(support.Formats),
		PresentMode: choosePresentMode(support.PresentModes, opts.PresentMode),
		Extent:      extent,
	}
	if swapchain.PresentMode != opts.PresentMode {
		core.LogWarn("Present mode %s not supported, falling back to %s.", opts.PresentMode, swapchain.PresentMode)
	}

	handle, err := sub.CreateSwapchain(device, gpu.SwapchainInfo{
		Surface:       ctx.Surface,
		MinImageCount: chooseImageCount(support.Capabilities),
		Format:        swapchain.ImageFormat,
		Extent:        extent,
		Usage:         gpu.ImageUsageColorAttachment,
		PresentMode:   swapchain.PresentMode,
		PreTransform:  support.Capabilities.CurrentTransform,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create swapchain")
	}
	swapchain.Handle = handle
	dq.Push(func() { sub.DestroySwapchain(device, handle) })

	// Images
	images, err := sub.SwapchainImages(device, handle)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get swapchain images")
	}
	swapchain.Images = images

	// Views
	for i, image := range images {
		view, err := sub.CreateImageView(device, gpu.ImageViewInfo{
			Image:  image,
			Format: swapchain.ImageFormat.Format,
			Aspect: gpu.ImageAspectColor,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create view for swapchain image %d", i)
		}
		swapchain.Views = append(swapchain.Views, view)
		dq.Push(func() { sub.DestroyImageView(device, view) })
	}

	// Depth resources
	depthImage, err := ctx.Allocator.CreateImage(gpu.ImageInfo{
		Format:      ctx.DepthFormat,
		Extent:      gpu.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
		Usage:       gpu.ImageUsageDepthStencilAttachment,
		MipLevels:   1,
		ArrayLayers: 1,
	}, MemoryGPUOnly)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create depth image")
	}
	alloc := ctx.Allocator
	dq.Push(func() { alloc.DestroyImage(depthImage) })

	depthView, err := sub.CreateImageView(device, gpu.ImageViewInfo{
		Image:  depthImage.Image,
		Format: ctx.DepthFormat,
		Aspect: gpu.ImageAspectDepth,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create depth image view")
	}
	dq.Push(func() { sub.DestroyImageView(device, depthView) })
	swapchain.Depth = DepthAttachment{Image: depthImage, View: depthView, Format: ctx.DepthFormat}

	core.LogInfo("Swapchain created: %dx%d, %d images, present mode %s.", extent.Width, extent.Height, len(images), swapchain.PresentMode)
	return swapchain, nil
}
