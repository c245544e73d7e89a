package renderer

import (
	"fmt"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

type FrameState int

const (
	FrameIdle FrameState = iota
	FrameWaitFence
	FrameAcquiring
	FrameRecording
	FrameSubmitted
	FramePresenting
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameWaitFence:
		return "wait-fence"
	case FrameAcquiring:
		return "acquiring"
	case FrameRecording:
		return "recording"
	case FrameSubmitted:
		return "submitted"
	case FramePresenting:
		return "presenting"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// FrameData is the set of objects one frame slot records and synchronizes
// with.
type FrameData struct {
	CommandPool       gpu.CommandPool
	MainCommandBuffer gpu.CommandBuffer
	// PresentSemaphore is signaled when the acquired image is ready.
	PresentSemaphore gpu.Semaphore
	// RenderSemaphore is signaled when rendering to the image has finished.
	RenderSemaphore gpu.Semaphore
	// RenderFence is signaled when the slot's submission has completed.
	RenderFence gpu.Fence
	State       FrameState
	inFlight    bool
}

type FrameInput struct {
	Targets        *RenderTargets
	RenderPass     gpu.RenderPass
	ViewProjection mgl32.Mat4
	Objects        []RenderObject
}

// FrameExecutor drives acquire, record, submit and present for a ring of
// frame slots.
type FrameExecutor struct {
	ctx         *Context
	frames      []*FrameData
	frameNumber uint64
}

// NewFrameExecutor creates framesInFlight slots, each with a resettable
// command pool and buffer, a fence created signaled and two semaphores.
func NewFrameExecutor(ctx *Context, framesInFlight int, dq *containers.DeletionQueue) (*FrameExecutor, error) {
	if framesInFlight < 1 {
		framesInFlight = 1
	}
	sub, device := ctx.Sub, ctx.Device
	fe := &FrameExecutor{ctx: ctx}

	for i := 0; i < framesInFlight; i++ {
		frame := &FrameData{}

		pool, err := sub.CreateCommandPool(device, gpu.CommandPoolInfo{
			QueueFamily:        ctx.GraphicsQueueFamily,
			ResetCommandBuffer: true,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create command pool for frame %d", i)
		}
		dq.Push(func() { sub.DestroyCommandPool(device, pool) })
		frame.CommandPool = pool

		cmd, err := sub.AllocateCommandBuffer(device, pool)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to allocate command buffer for frame %d", i)
		}
		frame.MainCommandBuffer = cmd

		// Signaled so the first wait returns immediately.
		fence, err := sub.CreateFence(device, true)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create render fence for frame %d", i)
		}
		dq.Push(func() { sub.DestroyFence(device, fence) })
		frame.RenderFence = fence

		present, err := sub.CreateSemaphore(device)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create present semaphore for frame %d", i)
		}
		dq.Push(func() { sub.DestroySemaphore(device, present) })
		frame.PresentSemaphore = present

		render, err := sub.CreateSemaphore(device)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create render semaphore for frame %d", i)
		}
		dq.Push(func() { sub.DestroySemaphore(device, render) })
		frame.RenderSemaphore = render

		fe.frames = append(fe.frames, frame)
	}
	core.LogInfo("Frame executor created with %d frame(s) in flight.", framesInFlight)
	return fe, nil
}

func (fe *FrameExecutor) FrameNumber() uint64 {
	return fe.frameNumber
}

func (fe *FrameExecutor) FramesInFlight() int {
	return len(fe.frames)
}

// CurrentFrame is the slot the next Draw will use.
func (fe *FrameExecutor) CurrentFrame() *FrameData {
	return fe.frames[fe.frameNumber%uint64(len(fe.frames))]
}

// ClearColor is the background of a frame: blue pulsing with a 120 frame
// period.
func ClearColor(frameNumber uint64) gpu.ClearValue {
	flash := float32(gomath.Abs(gomath.Sin(float64(frameNumber) / 120.0)))
	return gpu.ClearColor(0, 0, flash, 1)
}

// Draw renders and presents one frame. A surface that no longer matches the
// swapchain yields an error for which IsRecoverable is true; the frame counter
// only advances once the frame has been submitted.
func (fe *FrameExecutor) Draw(in FrameInput) error {
	sub, device := fe.ctx.Sub, fe.ctx.Device
	frame := fe.CurrentFrame()
	swapchain := in.Targets.Swapchain

	// wait until the GPU has finished rendering the last frame of this slot.
	frame.State = FrameWaitFence
	if err := sub.WaitForFence(device, frame.RenderFence, gpu.MaxTimeout); err != nil {
		frame.State = FrameIdle
		return errors.Wrap(err, "failed to wait for render fence")
	}
	frame.inFlight = false

	frame.State = FrameAcquiring
	imageIndex, err := sub.AcquireNextImage(device, swapchain.Handle, gpu.MaxTimeout, frame.PresentSemaphore)
	if err != nil {
		frame.State = FrameIdle
		if errors.Is(err, gpu.ErrOutOfDate) {
			return &surfaceOutOfDate{cause: err}
		}
		return errors.Wrap(err, "failed to acquire swapchain image")
	}

	// The fence is reset only once work is guaranteed to be submitted with it.
	if err := sub.ResetFence(device, frame.RenderFence); err != nil {
		frame.State = FrameIdle
		return errors.Wrap(err, "failed to reset render fence")
	}

	frame.State = FrameRecording
	if err := fe.record(frame.MainCommandBuffer, in, imageIndex); err != nil {
		frame.State = FrameIdle
		return err
	}

	err = sub.QueueSubmit(fe.ctx.GraphicsQueue, gpu.SubmitInfo{
		WaitSemaphores:   []gpu.Semaphore{frame.PresentSemaphore},
		WaitStages:       []gpu.PipelineStageFlags{gpu.PipelineStageColorAttachmentOutput},
		CommandBuffers:   []gpu.CommandBuffer{frame.MainCommandBuffer},
		SignalSemaphores: []gpu.Semaphore{frame.RenderSemaphore},
	}, frame.RenderFence)
	if err != nil {
		return errors.Wrap(err, "failed to submit frame")
	}
	frame.State = FrameSubmitted
	frame.inFlight = true

	frame.State = FramePresenting
	err = sub.QueuePresent(fe.ctx.GraphicsQueue, gpu.PresentInfo{
		WaitSemaphores: []gpu.Semaphore{frame.RenderSemaphore},
		Swapchain:      swapchain.Handle,
		ImageIndex:     imageIndex,
	})
	frame.State = FrameIdle
	fe.frameNumber++

	if err != nil {
		if errors.Is(err, gpu.ErrOutOfDate) || errors.Is(err, gpu.ErrSuboptimal) {
			return &surfaceOutOfDate{cause: err}
		}
		return errors.Wrap(err, "failed to present swapchain image")
	}
	return nil
}

func (fe *FrameExecutor) record(cmd gpu.CommandBuffer, in FrameInput, imageIndex uint32) error {
	sub := fe.ctx.Sub
	extent := in.Targets.Swapchain.Extent

	if err := sub.ResetCommandBuffer(cmd); err != nil {
		return errors.Wrap(err, "failed to reset command buffer")
	}
	if err := sub.BeginCommandBuffer(cmd, true); err != nil {
		return errors.Wrap(err, "failed to begin command buffer")
	}

	sub.CmdBeginRenderPass(cmd, gpu.RenderPassBeginInfo{
		RenderPass:  in.RenderPass,
		Framebuffer: in.Targets.Framebuffers[imageIndex],
		RenderArea:  gpu.Rect2D{Extent: extent},
		ClearValues: []gpu.ClearValue{ClearColor(fe.frameNumber), gpu.ClearDepthStencil(1.0, 0)},
	})
	sub.CmdSetViewport(cmd, FullViewport(extent))
	sub.CmdSetScissor(cmd, gpu.Rect2D{Extent: extent})

	fe.drawObjects(cmd, in.ViewProjection, in.Objects)

	sub.CmdEndRenderPass(cmd)
	if err := sub.EndCommandBuffer(cmd); err != nil {
		return errors.Wrap(err, "failed to end command buffer")
	}
	return nil
}

func (fe *FrameExecutor) drawObjects(cmd gpu.CommandBuffer, viewProj mgl32.Mat4, objects []RenderObject) {
	sub := fe.ctx.Sub

	var (
		lastMaterial *Material
		lastMesh     *Mesh
	)
	for _, obj := range batchByMaterial(objects) {
		if obj.Material == nil || obj.Mesh == nil || obj.Mesh.VertexBuffer == nil {
			continue
		}
		// only bind the pipeline if it doesn't match the already bound one
		if obj.Material != lastMaterial {
			sub.CmdBindPipeline(cmd, obj.Material.Pipeline)
			lastMaterial = obj.Material
		}

		if obj.Material.PushConstantStages != 0 {
			constants := MeshPushConstants{RenderMatrix: viewProj.Mul4(obj.Transform)}
			sub.CmdPushConstants(cmd, obj.Material.Layout, obj.Material.PushConstantStages, 0, constants.Bytes())
		}

		if obj.Mesh != lastMesh {
			sub.CmdBindVertexBuffer(cmd, obj.Mesh.VertexBuffer.Buffer, 0)
			lastMesh = obj.Mesh
		}

		sub.CmdDraw(cmd, obj.Mesh.VertexCount(), 1, 0, 0)
	}
}

// batchByMaterial groups objects by material. Groups appear in the order their
// material is first seen and objects keep their relative order.
func batchByMaterial(objects []RenderObject) []RenderObject {
	index := make(map[*Material]int)
	var groups [][]RenderObject
	for _, obj := range objects {
		i, ok := index[obj.Material]
		if !ok {
			i = len(groups)
			index[obj.Material] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], obj)
	}

	batched := make([]RenderObject, 0, len(objects))
	for _, g := range groups {
		batched = append(batched, g...)
	}
	return batched
}

// WaitIdle waits for every submitted frame to complete.
func (fe *FrameExecutor) WaitIdle() error {
	for _, frame := range fe.frames {
		if !frame.inFlight {
			continue
		}
		if err := fe.ctx.Sub.WaitForFence(fe.ctx.Device, frame.RenderFence, gpu.MaxTimeout); err != nil {
			return errors.Wrap(err, "failed to wait for in-flight frame")
		}
		frame.inFlight = false
	}
	return nil
}
