package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/moon/internal/assets"
	"github.com/taigrr/moon/internal/config"
	"github.com/taigrr/moon/internal/moon"
	"github.com/taigrr/moon/internal/page"
	"github.com/taigrr/moon/internal/ui"
)

// openLog returns a logger writing to the configured file.
func openLog(cfg config.Config) (*slog.Logger, func(), error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return log, func() { f.Close() }, nil
}

func run(ctx context.Context, cfg config.Config, mouse bool) error {
	log, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Assets
	reg := assets.NewRegistry(cfg.AssetBase, cfg.Assets)
	textureURL := reg.Resolve(cfg.TextureURL)
	cache := assets.NewCache()
	fetcher := &assets.Fetcher{}
	projects := []string{
		reg.URL(assets.ProjectOne),
		reg.URL(assets.ProjectTwo),
		reg.URL(assets.ProjectThree),
	}
	locs := reg.URLs()
	if !slices.Contains(locs, textureURL) {
		locs = append(locs, textureURL)
	}
	if err := assets.Preload(ctx, fetcher, cache, locs, cfg.MaxTextureSize); err != nil {
		log.Error("preload assets", "error", err)
	}
	log.Info("assets preloaded", "count", cache.Len())

	// Create terminal
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	if mouse {
		fmt.Fprint(os.Stdout, "\x1b[?1003h") // any-event mouse tracking
		fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode
	}

	cleanup := func() {
		if mouse {
			fmt.Fprint(os.Stdout, "\x1b[?1003l")
			fmt.Fprint(os.Stdout, "\x1b[?1006l")
		}
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	loop := ui.NewLoop(ui.Options{FPS: cfg.FPS, Logger: log})
	p := page.New(page.Options{
		Width:         width,
		Height:        height,
		PixelRatio:    cfg.PixelRatio,
		FPS:           cfg.FPS,
		Scheduler:     loop,
		Images:        cache,
		ProjectImages: projects,
		FinePointer:   mouse,
		Logger:        log,
	})

	page.SetBackground(p, reg.URL(assets.Stars), reg.URL(assets.FooterMoon))
	page.InitializeCustomCursor(p)
	page.InitializeNavigation(p)
	page.HoverEffect(p)

	mc := cfg.Moon()
	mc.TextureURL = textureURL
	inst := moon.Start(moon.MountsFrom(p), moon.Env{
		Window:    p,
		Document:  p,
		Scheduler: loop,
		Textures: &assets.TextureLoader{
			Fetcher: fetcher,
			Cache:   cache,
			Loop:    loop,
			MaxSize: cfg.MaxTextureSize,
			Logger:  log,
		},
		Logger: log,
	}, moon.WithConfig(mc))
	if inst == nil {
		log.Warn("moon mount points missing; page runs without the moon")
	}

	loop.OnPaint(func() {
		p.Draw(term)
		if err := term.Display(); err != nil {
			log.Error("display", "error", err)
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Event handler
	go func() {
		for ev := range term.Events() {
			if key, ok := ev.(uv.KeyPressEvent); ok && key.MatchString("q", "escape", "ctrl+c") {
				cancel()
				return
			}
			if size, ok := ev.(uv.WindowSizeEvent); ok {
				loop.Post(func() {
					term.Erase()
					term.Resize(size.Width, size.Height)
				})
			}
			loop.Post(func() { p.HandleEvent(ev) })
		}
	}()

	loop.Post(func() {}) // first paint
	err = loop.Run(ctx)

	if inst != nil {
		inst.Teardown()
	}
	log.Info("shutdown", "reason", context.Cause(ctx))
	return err
}
