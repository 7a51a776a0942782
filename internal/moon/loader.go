package moon

import (
	"context"
	"errors"

	"github.com/taigrr/moon/pkg/render"
)

// Material parameters for the textured and fallback moon.
const (
	Roughness     = 0.8
	Metalness     = 0.1
	FallbackColor = 0xaaaaaa
)

// loadTexture starts the one texture fetch. Cancelling it is part of
// teardown.
func (i *Instance) loadTexture(url string) {
	if i.env.Textures == nil {
		i.onTexture(url, TextureResult{Err: errNoLoader})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	i.guard.add(stageListeners, cancel)
	i.env.Textures.Load(ctx, url, func(res TextureResult) {
		i.onTexture(url, res)
	})
}

func (i *Instance) onTexture(url string, res TextureResult) {
	if res.Err == nil && res.Texture == nil {
		res.Err = errors.New("moon: loader returned no texture")
	}

	var mat *render.StandardMaterial
	if res.Err != nil {
		i.log.Error("load moon texture", "url", url, "err", res.Err)
		mat = &render.StandardMaterial{
			Color:     render.Hex(FallbackColor),
			Roughness: Roughness,
		}
	} else {
		mat = &render.StandardMaterial{
			Map:       res.Texture,
			Roughness: Roughness,
			Metalness: Metalness,
		}
	}
	i.createBody(mat)
}

// createBody adds the moon to the scene and starts the loop. It runs at
// most once per instance; later calls only release mat.
func (i *Instance) createBody(mat *render.StandardMaterial) {
	if i.closed || i.body != nil {
		mat.Dispose()
		return
	}

	geo := NewBodyGeometry()
	body := render.NewMesh(geo, mat)
	body.Rotation = InitialRotation
	i.scene.Add(body)
	i.body = body
	i.guard.add(stageBody, func() {
		geo.Dispose()
		mat.Dispose()
		i.scene.Remove(body)
	})

	i.tick()
}
