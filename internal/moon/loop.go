package moon

import "github.com/taigrr/moon/internal/dom"

// LoopState is the render loop's lifecycle state.
type LoopState int

const (
	LoopUnstarted LoopState = iota
	LoopScheduled
	LoopStopped
)

func (s LoopState) String() string {
	switch s {
	case LoopUnstarted:
		return "unstarted"
	case LoopScheduled:
		return "scheduled"
	case LoopStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// tick is the frame callback. It always schedules the next frame first;
// only teardown stops the loop.
func (i *Instance) tick() {
	if i.state == LoopStopped {
		return
	}
	i.frame = i.env.Scheduler.RequestAnimationFrame(i.tick)
	i.state = LoopScheduled
	i.draw(i.visible)
}

// draw advances and renders one frame when the area is on screen.
func (i *Instance) draw(visible bool) {
	if !visible || i.body == nil {
		return
	}
	i.body.Rotation.Y += i.cfg.RotationSpeed
	i.surface.Render(i.scene, i.camera)
	dom.Invalidate(i.env.Scheduler)
}

func (i *Instance) stopLoop() {
	if i.frame != 0 {
		i.env.Scheduler.CancelAnimationFrame(i.frame)
		i.frame = 0
	}
	i.state = LoopStopped
}
