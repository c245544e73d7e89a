package renderer

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

// CreateRenderPass creates the main pass: a cleared color attachment that ends
// up ready for presentation and a cleared depth attachment.
func CreateRenderPass(ctx *Context, colorFormat, depthFormat gpu.Format, dq *containers.DeletionQueue) (gpu.RenderPass, error) {
	sub, device := ctx.Sub, ctx.Device

	attachments := []gpu.AttachmentDescription{
		// Color attachment
		{
			Format:         colorFormat,
			Samples:        gpu.SampleCount1,
			LoadOp:         gpu.AttachmentLoadOpClear,
			StoreOp:        gpu.AttachmentStoreOpStore,
			StencilLoadOp:  gpu.AttachmentLoadOpDontCare,
			StencilStoreOp: gpu.AttachmentStoreOpDontCare,
			InitialLayout:  gpu.ImageLayoutUndefined,
			FinalLayout:    gpu.ImageLayoutPresentSrc,
		},
		// Depth attachment
		{
			Format:         depthFormat,
			Samples:        gpu.SampleCount1,
			LoadOp:         gpu.AttachmentLoadOpClear,
			StoreOp:        gpu.AttachmentStoreOpDontCare,
			StencilLoadOp:  gpu.AttachmentLoadOpDontCare,
			StencilStoreOp: gpu.AttachmentStoreOpDontCare,
			InitialLayout:  gpu.ImageLayoutUndefined,
			FinalLayout:    gpu.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	subpass := gpu.SubpassDescription{
		ColorAttachments: []gpu.AttachmentReference{
			{Attachment: 0, Layout: gpu.ImageLayoutColorAttachmentOptimal},
		},
		DepthStencilAttachment: &gpu.AttachmentReference{
			Attachment: 1,
			Layout:     gpu.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	dependency := gpu.SubpassDependency{
		SrcSubpass:    gpu.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  gpu.PipelineStageColorAttachmentOutput | gpu.PipelineStageEarlyFragmentTests,
		DstStageMask:  gpu.PipelineStageColorAttachmentOutput | gpu.PipelineStageEarlyFragmentTests,
		DstAccessMask: gpu.AccessColorAttachmentWrite | gpu.AccessDepthStencilAttachmentWrite,
	}

	pass, err := sub.CreateRenderPass(device, gpu.RenderPassInfo{
		Attachments:  attachments,
		Subpasses:    []gpu.SubpassDescription{subpass},
		Dependencies: []gpu.SubpassDependency{dependency},
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to create render pass")
	}
	dq.Push(func() { sub.DestroyRenderPass(device, pass) })
	return pass, nil
}

// CreateFramebuffers creates one framebuffer per swapchain image, each with
// the image view and the shared depth view.
func CreateFramebuffers(ctx *Context, pass gpu.RenderPass, swapchain *Swapchain, dq *containers.DeletionQueue) ([]gpu.Framebuffer, error) {
	sub, device := ctx.Sub, ctx.Device

	framebuffers := make([]gpu.Framebuffer, 0, len(swapchain.Views))
	for i, view := range swapchain.Views {
		fb, err := sub.CreateFramebuffer(device, gpu.FramebufferInfo{
			RenderPass:  pass,
			Attachments: []gpu.ImageView{view, swapchain.Depth.View},
			Width:       swapchain.Extent.Width,
			Height:      swapchain.Extent.Height,
			Layers:      1,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create framebuffer %d", i)
		}
		framebuffers = append(framebuffers, fb)
		dq.Push(func() { sub.DestroyFramebuffer(device, fb) })
	}
	return framebuffers, nil
}

// RenderTargets groups the resources that depend on the surface extent.
type RenderTargets struct {
	Swapchain    *Swapchain
	Framebuffers []gpu.Framebuffer
}

// CreateRenderTargets builds the swapchain and its framebuffers for pass. All
// teardown goes into dq, which is expected to be scoped to the swapchain so
// it can be flushed on resize.
func CreateRenderTargets(ctx *Context, pass gpu.RenderPass, desired gpu.Extent2D, opts SwapchainOptions, dq *containers.DeletionQueue) (*RenderTargets, error) {
	swapchain, err := CreateSwapchain(ctx, desired, opts, dq)
	if err != nil {
		return nil, err
	}
	framebuffers, err := CreateFramebuffers(ctx, pass, swapchain, dq)
	if err != nil {
		return nil, err
	}
	return &RenderTargets{Swapchain: swapchain, Framebuffers: framebuffers}, nil
}
