package moon

import "github.com/taigrr/moon/internal/dom"

func (i *Instance) observeResize() {
	win := i.env.Window
	id := win.AddEventListener(dom.EventResize, i.onResize)
	i.guard.add(stageListeners, func() {
		win.RemoveEventListener(dom.EventResize, id)
		if i.resizeTimer != 0 {
			i.env.Scheduler.ClearTimeout(i.resizeTimer)
			i.resizeTimer = 0
		}
	})
}

// onResize collapses a burst of resize events into one applySize once the
// events stop for ResizeDebounce.
func (i *Instance) onResize() {
	if i.closed {
		return
	}
	if i.resizeTimer != 0 {
		i.env.Scheduler.ClearTimeout(i.resizeTimer)
	}
	i.resizeTimer = i.env.Scheduler.SetTimeout(func() {
		i.resizeTimer = 0
		i.applySize()
	}, i.cfg.ResizeDebounce)
}

func (i *Instance) observeVisibility() {
	obs := i.env.Window.NewIntersectionObserver(i.onIntersect, dom.IntersectionOptions{
		Threshold: i.cfg.VisibilityThreshold,
	})
	obs.Observe(i.mounts.Area)
	i.guard.add(stageObserver, obs.Disconnect)
}

func (i *Instance) onIntersect(entries []dom.IntersectionEntry) {
	if i.closed || len(entries) == 0 {
		return
	}
	i.visible = entries[len(entries)-1].IsIntersecting
}
