package moon

import (
	"log/slog"
	"sync"
)

// stage orders releases. Listeners and observers go first so nothing can
// call back into the instance while its resources are freed.
type stage int

const (
	stageListeners stage = iota // resize listener, debounce timer, texture fetch
	stageObserver
	stageLoop
	stageDetach
	stageBody
	stageSurface
	numStages
)

// guard records a release for everything acquired and runs them once, in
// stage order and last-in first-out within a stage.
type guard struct {
	once     sync.Once
	releases [numStages][]func()
	done     bool
	log      *slog.Logger
}

func (g *guard) add(s stage, release func()) {
	if g.done {
		g.run(release)
		return
	}
	g.releases[s] = append(g.releases[s], release)
}

func (g *guard) release() {
	g.once.Do(func() {
		g.done = true
		for s := range g.releases {
			fns := g.releases[s]
			for j := len(fns) - 1; j >= 0; j-- {
				g.run(fns[j])
			}
			g.releases[s] = nil
		}
	})
}

// run calls one release; a panicking release does not stop the rest.
func (g *guard) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log := g.log
			if log == nil {
				log = slog.Default()
			}
			log.Error("release failed", "panic", r)
		}
	}()
	fn()
}
