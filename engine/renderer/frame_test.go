package renderer

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

func outOfDate(op string) error {
	return &gpu.ResultError{Op: op, Code: -1000001004, Description: "VK_ERROR_OUT_OF_DATE_KHR", Err: gpu.ErrOutOfDate}
}

func TestDrawFenceProtocol(t *testing.T) {
	for _, framesInFlight := range []int{1, 2} {
		r := newTestRig(t, framesInFlight)
		obj := RenderObject{Mesh: r.mesh, Material: r.material, Transform: mgl32.Ident4()}

		for i := 0; i < 5; i++ {
			if err := r.frames.Draw(r.input(obj)); err != nil {
				t.Fatalf("[%d in flight] expected frame %d to draw; got %v", framesInFlight, i, err)
			}
		}
		if r.frames.FrameNumber() != 5 {
			t.Fatalf("[%d in flight] expected frame number 5; got %d", framesInFlight, r.frames.FrameNumber())
		}

		// A submitted fence must have completed before it is reset again.
		pending := map[uint64]bool{}
		for i, c := range r.fake.Calls {
			switch c.Op {
			case "QueueSubmit":
				pending[uint64(c.Args[1].(gpu.Fence))] = true
			case "FenceSignaled":
				delete(pending, c.Handle)
			case "ResetFence":
				if pending[c.Handle] {
					t.Fatalf("[%d in flight] expected fence %d to signal before the reset at call %d", framesInFlight, c.Handle, i)
				}
			}
		}

		ops := r.fake.Ops()
		order := []string{"WaitForFence", "AcquireNextImage", "ResetFence", "BeginCommandBuffer", "QueueSubmit", "QueuePresent"}
		for i := 1; i < len(order); i++ {
			if indexOf(ops, order[i-1]) > indexOf(ops, order[i]) {
				t.Fatalf("[%d in flight] expected %s before %s; got %v", framesInFlight, order[i-1], order[i], ops)
			}
		}
		if fences := len(r.fake.CallsTo("CreateFence")); fences != framesInFlight {
			t.Fatalf("[%d in flight] expected %d fences; got %d", framesInFlight, framesInFlight, fences)
		}
		r.shutdown(t)
	}
}

func TestDrawSubmitsWithSemaphores(t *testing.T) {
	r := newTestRig(t, 1)
	frame := r.frames.CurrentFrame()
	if err := r.frames.Draw(r.input()); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}

	submit := r.fake.CallsTo("QueueSubmit")[0]
	info := submit.Args[0].(gpu.SubmitInfo)
	if len(info.WaitSemaphores) != 1 || info.WaitSemaphores[0] != frame.PresentSemaphore {
		t.Fatalf("expected submit to wait on the present semaphore; got %v", info.WaitSemaphores)
	}
	if info.WaitStages[0] != gpu.PipelineStageColorAttachmentOutput {
		t.Fatalf("expected wait at color attachment output; got %v", info.WaitStages)
	}
	if len(info.SignalSemaphores) != 1 || info.SignalSemaphores[0] != frame.RenderSemaphore {
		t.Fatalf("expected submit to signal the render semaphore; got %v", info.SignalSemaphores)
	}
	if submit.Args[1].(gpu.Fence) != frame.RenderFence {
		t.Fatalf("expected submit with the render fence; got %v", submit.Args[1])
	}

	present := r.fake.CallsTo("QueuePresent")[0].Args[0].(gpu.PresentInfo)
	if len(present.WaitSemaphores) != 1 || present.WaitSemaphores[0] != frame.RenderSemaphore {
		t.Fatalf("expected present to wait on the render semaphore; got %v", present.WaitSemaphores)
	}
	if present.Swapchain != r.targets.Swapchain.Handle {
		t.Fatalf("expected present to swapchain %d; got %d", r.targets.Swapchain.Handle, present.Swapchain)
	}
	if frame.State != FrameIdle {
		t.Fatalf("expected the frame to be idle after present; got %s", frame.State)
	}
	r.shutdown(t)
}

func TestDrawBindsPipelineOncePerMaterial(t *testing.T) {
	r := newTestRig(t, 1)
	other := r.scene.CreateMaterial("other", r.material.Pipeline, r.material.Layout, r.material.PushConstantStages)
	objects := []RenderObject{
		{Mesh: r.mesh, Material: r.material, Transform: mgl32.Ident4()},
		{Mesh: r.mesh, Material: other, Transform: mgl32.Ident4()},
		{Mesh: r.mesh, Material: r.material, Transform: mgl32.Translate3D(1, 0, 0)},
	}
	if err := r.frames.Draw(r.input(objects...)); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}

	if got := r.fake.Count("CmdBindPipeline"); got != 2 {
		t.Fatalf("expected 2 pipeline binds; got %d", got)
	}
	if got := r.fake.Count("CmdDraw"); got != 3 {
		t.Fatalf("expected 3 draws; got %d", got)
	}
	if got := r.fake.Count("CmdBindVertexBuffer"); got != 1 {
		t.Fatalf("expected the shared vertex buffer bound once; got %d", got)
	}
	if got := r.fake.Count("CmdPushConstants"); got != 3 {
		t.Fatalf("expected push constants per draw; got %d", got)
	}
	draw := r.fake.CallsTo("CmdDraw")[0]
	if draw.Args[0].(uint32) != 3 || draw.Args[1].(uint32) != 1 {
		t.Fatalf("expected 3 vertices and 1 instance; got %v", draw.Args)
	}
	r.shutdown(t)
}

func TestDrawPushesRenderMatrix(t *testing.T) {
	r := newTestRig(t, 1)
	model := mgl32.Translate3D(0, 0, -2)
	viewProj := mgl32.Perspective(mgl32.DegToRad(70), 1700.0/900.0, 0.1, 200)

	in := r.input(RenderObject{Mesh: r.mesh, Material: r.material, Transform: model})
	in.ViewProjection = viewProj
	if err := r.frames.Draw(in); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}

	push := r.fake.CallsTo("CmdPushConstants")[0]
	if push.Args[1].(gpu.ShaderStageFlags) != gpu.ShaderStageVertex {
		t.Fatalf("expected vertex stage push constants; got %v", push.Args[1])
	}
	exp := MeshPushConstants{RenderMatrix: viewProj.Mul4(model)}
	if !bytes.Equal(push.Args[3].([]byte), exp.Bytes()) {
		t.Fatal("expected the pushed matrix to be view projection times model")
	}
	r.shutdown(t)
}

func TestDrawSkipsPushConstantsWithoutRange(t *testing.T) {
	r := newTestRig(t, 1)
	plain := r.scene.CreateMaterial("plain", r.material.Pipeline, r.material.Layout, 0)
	if err := r.frames.Draw(r.input(RenderObject{Mesh: r.mesh, Material: plain, Transform: mgl32.Ident4()})); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if r.fake.Count("CmdPushConstants") != 0 {
		t.Fatal("expected no push constants")
	}
	if r.fake.Count("CmdDraw") != 1 {
		t.Fatalf("expected 1 draw; got %d", r.fake.Count("CmdDraw"))
	}
	r.shutdown(t)
}

func TestDrawClearValues(t *testing.T) {
	r := newTestRig(t, 1)
	for i := 0; i < 2; i++ {
		if err := r.frames.Draw(r.input()); err != nil {
			t.Fatalf("expected no error; got %v", err)
		}
	}
	passes := r.fake.CallsTo("CmdBeginRenderPass")
	for frame, call := range passes {
		info := call.Args[0].(gpu.RenderPassBeginInfo)
		if info.ClearValues[0] != ClearColor(uint64(frame)) {
			t.Fatalf("expected clear color %v; got %v", ClearColor(uint64(frame)), info.ClearValues[0])
		}
		if !info.ClearValues[1].IsDepth || info.ClearValues[1].Depth != 1.0 {
			t.Fatalf("expected depth cleared to 1; got %+v", info.ClearValues[1])
		}
		if info.RenderArea.Extent != r.targets.Swapchain.Extent {
			t.Fatalf("expected render area %v; got %v", r.targets.Swapchain.Extent, info.RenderArea.Extent)
		}
	}
	r.shutdown(t)
}

func TestClearColor(t *testing.T) {
	if c := ClearColor(0); c.Color != [4]float32{0, 0, 0, 1} {
		t.Fatalf("expected black at frame 0; got %v", c.Color)
	}
	c := ClearColor(120)
	if c.Color[2] < 0.84 || c.Color[2] > 0.85 {
		t.Fatalf("expected blue of |sin(1)| at frame 120; got %f", c.Color[2])
	}
	if c.Color[0] != 0 || c.Color[1] != 0 || c.Color[3] != 1 {
		t.Fatalf("expected only the blue channel to change; got %v", c.Color)
	}
}

func TestDrawAcquireOutOfDate(t *testing.T) {
	r := newTestRig(t, 1)
	r.fake.AcquireResults = []error{outOfDate("AcquireNextImage")}

	err := r.frames.Draw(r.input())
	if !IsRecoverable(err) {
		t.Fatalf("expected a recoverable error; got %v", err)
	}
	if !errors.Is(err, gpu.ErrOutOfDate) {
		t.Fatalf("expected the cause to be kept; got %v", err)
	}
	if r.fake.Count("ResetFence") != 0 {
		t.Fatal("expected the fence to stay signaled after a failed acquire")
	}
	if r.fake.Count("QueueSubmit") != 0 {
		t.Fatal("expected nothing to be submitted")
	}
	if r.frames.FrameNumber() != 0 {
		t.Fatalf("expected frame number 0; got %d", r.frames.FrameNumber())
	}

	r.recreate(t)
	if err := r.frames.Draw(r.input(RenderObject{Mesh: r.mesh, Material: r.material, Transform: mgl32.Ident4()})); err != nil {
		t.Fatalf("expected the next frame to draw; got %v", err)
	}
	if r.frames.FrameNumber() != 1 {
		t.Fatalf("expected frame number 1; got %d", r.frames.FrameNumber())
	}
	r.shutdown(t)
}

func TestDrawPresentOutOfDate(t *testing.T) {
	for _, cause := range []error{outOfDate("QueuePresent"), &gpu.ResultError{Op: "QueuePresent", Code: 1000001003, Err: gpu.ErrSuboptimal}} {
		r := newTestRig(t, 1)
		r.fake.PresentResults = []error{cause}

		err := r.frames.Draw(r.input())
		if !IsRecoverable(err) {
			t.Fatalf("expected a recoverable error for %v; got %v", cause, err)
		}
		if r.frames.FrameNumber() != 1 {
			t.Fatalf("expected the submitted frame to count; got %d", r.frames.FrameNumber())
		}

		r.recreate(t)
		if err := r.frames.Draw(r.input()); err != nil {
			t.Fatalf("expected the next frame to draw; got %v", err)
		}
		r.shutdown(t)
	}
}

func TestDrawDeviceLostIsFatal(t *testing.T) {
	r := newTestRig(t, 1)
	r.fake.FailNext("QueueSubmit", &gpu.ResultError{Op: "QueueSubmit", Code: -4, Err: gpu.ErrDeviceLost})

	err := r.frames.Draw(r.input())
	if err == nil || IsRecoverable(err) {
		t.Fatalf("expected a fatal error; got %v", err)
	}
	if !errors.Is(err, gpu.ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost; got %v", err)
	}
	if r.frames.FrameNumber() != 0 {
		t.Fatalf("expected frame number 0; got %d", r.frames.FrameNumber())
	}
	if err := r.frames.WaitIdle(); err != nil {
		t.Fatalf("expected nothing in flight to wait on; got %v", err)
	}
	r.shutdown(t)
}

func TestDrawAcquireSuboptimalIsNotRecoverable(t *testing.T) {
	r := newTestRig(t, 1)
	r.fake.AcquireResults = []error{&gpu.ResultError{Op: "AcquireNextImage", Code: 1000001003, Err: gpu.ErrSuboptimal}}

	err := r.frames.Draw(r.input())
	if err == nil || IsRecoverable(err) {
		t.Fatalf("expected a suboptimal acquire to be reported as a failure; got %v", err)
	}
	if !errors.Is(err, gpu.ErrSuboptimal) {
		t.Fatalf("expected ErrSuboptimal; got %v", err)
	}
	if r.frames.CurrentFrame().State != FrameIdle {
		t.Fatalf("expected the frame to be idle; got %s", r.frames.CurrentFrame().State)
	}
	r.shutdown(t)
}

func TestDrawFailureLeavesFrameIdle(t *testing.T) {
	for _, op := range []string{"ResetFence", "BeginCommandBuffer"} {
		r := newTestRig(t, 1)
		r.fake.FailNext(op, &gpu.ResultError{Op: op, Code: -2, Err: gpu.ErrOutOfMemory})

		err := r.frames.Draw(r.input())
		if err == nil {
			t.Fatalf("expected %s to fail the frame; got nil", op)
		}
		if IsRecoverable(err) {
			t.Fatalf("expected a fatal error from %s; got %v", op, err)
		}
		if got := r.frames.CurrentFrame().State; got != FrameIdle {
			t.Fatalf("expected the frame to be idle after %s failed; got %s", op, got)
		}
		if r.fake.Count("QueueSubmit") != 0 {
			t.Fatalf("expected nothing to be submitted after %s failed", op)
		}
		r.shutdown(t)
	}
}

func TestFrameStateString(t *testing.T) {
	specs := map[FrameState]string{
		FrameIdle:       "idle",
		FrameWaitFence:  "wait-fence",
		FrameAcquiring:  "acquiring",
		FrameRecording:  "recording",
		FrameSubmitted:  "submitted",
		FramePresenting: "presenting",
		FrameState(42):  "FrameState(42)",
	}
	for state, exp := range specs {
		if state.String() != exp {
			t.Fatalf("expected %s; got %s", exp, state.String())
		}
	}
}
