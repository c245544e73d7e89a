package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

func (b *Backend) CreateCommandPool(device gpu.Device, info gpu.CommandPoolInfo) (gpu.CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: info.QueueFamily,
	}
	if info.ResetCommandBuffer {
		poolCreateInfo.Flags = vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit)
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(b.devices.get(uint64(device)), &poolCreateInfo, nil, &pool); res != vk.Success {
		return 0, resultError("vkCreateCommandPool", res)
	}
	return gpu.CommandPool(b.pools.add(pool)), nil
}

func (b *Backend) DestroyCommandPool(device gpu.Device, pool gpu.CommandPool) {
	p, ok := b.pools.remove(uint64(pool))
	if !ok {
		return
	}
	for h, cb := range b.commandBuffers.objects {
		if cb.pool == uint64(pool) {
			delete(b.commandBuffers.objects, h)
		}
	}
	vk.DestroyCommandPool(b.devices.get(uint64(device)), p, nil)
}

func (b *Backend) AllocateCommandBuffer(device gpu.Device, pool gpu.CommandPool) (gpu.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        b.pools.get(uint64(pool)),
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(b.devices.get(uint64(device)), &allocateInfo, buffers); res != vk.Success {
		return 0, resultError("vkAllocateCommandBuffers", res)
	}
	return gpu.CommandBuffer(b.commandBuffers.add(commandBuffer{handle: buffers[0], pool: uint64(pool)})), nil
}

func (b *Backend) cmd(h gpu.CommandBuffer) vk.CommandBuffer {
	return b.commandBuffers.get(uint64(h)).handle
}

func (b *Backend) ResetCommandBuffer(cmd gpu.CommandBuffer) error {
	return resultError("vkResetCommandBuffer", vk.ResetCommandBuffer(b.cmd(cmd), 0))
}

func (b *Backend) BeginCommandBuffer(cmd gpu.CommandBuffer, oneTimeSubmit bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return resultError("vkBeginCommandBuffer", vk.BeginCommandBuffer(b.cmd(cmd), &beginInfo))
}

func (b *Backend) EndCommandBuffer(cmd gpu.CommandBuffer) error {
	return resultError("vkEndCommandBuffer", vk.EndCommandBuffer(b.cmd(cmd)))
}

func (b *Backend) CmdBeginRenderPass(cmd gpu.CommandBuffer, info gpu.RenderPassBeginInfo) {
	clearValues := make([]vk.ClearValue, len(info.ClearValues))
	for i, cv := range info.ClearValues {
		if cv.IsDepth {
			clearValues[i].SetDepthStencil(cv.Depth, cv.Stencil)
		} else {
			clearValues[i].SetColor(cv.Color[:])
		}
	}
	beginInfo := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      b.passes.get(uint64(info.RenderPass)),
		Framebuffer:     b.framebuffers.get(uint64(info.Framebuffer)),
		RenderArea:      toRect(info.RenderArea),
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(b.cmd(cmd), &beginInfo, vk.SubpassContentsInline)
}

func (b *Backend) CmdEndRenderPass(cmd gpu.CommandBuffer) {
	vk.CmdEndRenderPass(b.cmd(cmd))
}

func (b *Backend) CmdSetViewport(cmd gpu.CommandBuffer, viewport gpu.Viewport) {
	vk.CmdSetViewport(b.cmd(cmd), 0, 1, []vk.Viewport{toViewport(viewport)})
}

func (b *Backend) CmdSetScissor(cmd gpu.CommandBuffer, scissor gpu.Rect2D) {
	vk.CmdSetScissor(b.cmd(cmd), 0, 1, []vk.Rect2D{toRect(scissor)})
}

func (b *Backend) CmdBindPipeline(cmd gpu.CommandBuffer, pipeline gpu.Pipeline) {
	vk.CmdBindPipeline(b.cmd(cmd), vk.PipelineBindPointGraphics, b.pipelines.get(uint64(pipeline)))
}

func (b *Backend) CmdBindVertexBuffer(cmd gpu.CommandBuffer, buffer gpu.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(b.cmd(cmd), 0, 1, []vk.Buffer{b.buffers.get(uint64(buffer))}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (b *Backend) CmdPushConstants(cmd gpu.CommandBuffer, layout gpu.PipelineLayout, stages gpu.ShaderStageFlags, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(
		b.cmd(cmd),
		b.layouts.get(uint64(layout)),
		vk.ShaderStageFlags(stages),
		offset,
		uint32(len(data)),
		unsafe.Pointer(&data[0]))
}

func (b *Backend) CmdDraw(cmd gpu.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(b.cmd(cmd), vertexCount, instanceCount, firstVertex, firstInstance)
}

func (b *Backend) QueueSubmit(queue gpu.Queue, info gpu.SubmitInfo, fence gpu.Fence) error {
	submitInfo := vk.SubmitInfo{
		SType: vk.StructureTypeSubmitInfo,
	}

	// Command buffer(s) to be executed.
	cmds := make([]vk.CommandBuffer, len(info.CommandBuffers))
	for i, c := range info.CommandBuffers {
		cmds[i] = b.cmd(c)
	}
	submitInfo.CommandBufferCount = uint32(len(cmds))
	submitInfo.PCommandBuffers = cmds

	// Each wait semaphore waits on the matching stage.
	submitInfo.WaitSemaphoreCount = uint32(len(info.WaitSemaphores))
	submitInfo.PWaitSemaphores = b.semaphoreList(info.WaitSemaphores)
	stages := make([]vk.PipelineStageFlags, len(info.WaitStages))
	for i, s := range info.WaitStages {
		stages[i] = vk.PipelineStageFlags(s)
	}
	submitInfo.PWaitDstStageMask = stages

	submitInfo.SignalSemaphoreCount = uint32(len(info.SignalSemaphores))
	submitInfo.PSignalSemaphores = b.semaphoreList(info.SignalSemaphores)

	res := vk.QueueSubmit(b.queues.get(uint64(queue)), 1, []vk.SubmitInfo{submitInfo}, b.fences.get(uint64(fence)))
	return resultError("vkQueueSubmit", res)
}
