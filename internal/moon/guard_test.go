package moon

import (
	"slices"
	"testing"
)

func TestGuardOrder(t *testing.T) {
	var got []string
	rec := func(s string) func() { return func() { got = append(got, s) } }

	g := guard{log: discardLogger()}
	g.add(stageSurface, rec("surface"))
	g.add(stageBody, rec("body"))
	g.add(stageListeners, rec("listener-1"))
	g.add(stageLoop, rec("loop"))
	g.add(stageListeners, rec("listener-2"))
	g.add(stageObserver, rec("observer"))
	g.add(stageDetach, rec("detach"))

	g.release()
	g.release()

	want := []string{"listener-2", "listener-1", "observer", "loop", "detach", "body", "surface"}
	if !slices.Equal(got, want) {
		t.Errorf("release order = %v, want %v", got, want)
	}
}

func TestGuardPanicIsolation(t *testing.T) {
	ran := false
	g := guard{log: discardLogger()}
	g.add(stageSurface, func() { ran = true })
	g.add(stageObserver, func() { panic("disconnect failed") })

	g.release()
	if !ran {
		t.Error("release after a panicking one did not run")
	}
}

func TestGuardAddAfterRelease(t *testing.T) {
	g := guard{log: discardLogger()}
	g.release()

	ran := false
	g.add(stageBody, func() { ran = true })
	if !ran {
		t.Error("acquisition after release was not released immediately")
	}
}
