package assets

import (
	"context"
	"image"
	"log/slog"

	"github.com/taigrr/moon/internal/moon"
	"github.com/taigrr/moon/pkg/render"
)

// Poster runs a function on the UI loop.
type Poster interface {
	Post(fn func())
}

// TextureLoader loads textures for the moon. Results are delivered through
// the Poster so callbacks run on the UI loop.
type TextureLoader struct {
	Fetcher *Fetcher
	Cache   *Cache // optional
	Loop    Poster
	MaxSize int
	Logger  *slog.Logger
}

// Load fetches url in the background, or takes it from the cache, and
// posts the result to done. If ctx is cancelled before the fetch finishes,
// done is never called.
func (l *TextureLoader) Load(ctx context.Context, url string, done func(moon.TextureResult)) {
	if l.Cache != nil {
		if img, ok := l.Cache.Get(url); ok {
			l.deliver(ctx, url, done, loaded(url, img))
			return
		}
	}

	go func() {
		img, err := l.Fetcher.FetchImage(ctx, url, l.MaxSize)
		if err != nil {
			l.deliver(ctx, url, done, moon.TextureResult{Err: err})
			return
		}
		if l.Cache != nil {
			l.Cache.Put(url, img)
		}
		l.deliver(ctx, url, done, loaded(url, img))
	}()
}

func loaded(name string, img image.Image) moon.TextureResult {
	tex := render.TextureFromImage(img)
	tex.Name = name
	return moon.TextureResult{Texture: tex}
}

func (l *TextureLoader) deliver(ctx context.Context, url string, done func(moon.TextureResult), res moon.TextureResult) {
	l.Loop.Post(func() {
		if ctx.Err() != nil {
			l.logger().Debug("texture load cancelled", "url", url)
			if res.Texture != nil {
				res.Texture.Dispose()
			}
			return
		}
		done(res)
	})
}

func (l *TextureLoader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
