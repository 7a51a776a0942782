// moon - a one-page site in the terminal with a rotating moon.
//
// Controls:
//
//	Mouse wheel / arrows / j,k  - Scroll
//	PgUp / PgDn / Space         - Scroll a page
//	1-4                         - Jump to a section
//	Click nav links             - Smooth-scroll to a section
//	q / Esc / Ctrl-C            - Quit
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/moon/internal/config"
	"github.com/taigrr/moon/internal/moon"
	"github.com/taigrr/moon/pkg/models"
)

var version = "dev"

type flags struct {
	config     string
	texture    string
	fps        int
	pixelRatio float64
	logFile    string
	logLevel   string
	noMouse    bool
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "moon",
		Short: "A terminal page with a rotating moon",
		Long: "moon renders a scrolling one-page site in the terminal. The about section\n" +
			"hosts a textured moon that spins while it is on screen.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, !f.noMouse)
		},
	}

	fl := cmd.PersistentFlags()
	fl.StringVarP(&f.config, "config", "c", "", "YAML config file")
	fl.StringVar(&f.texture, "texture", "", "moon texture path or URL")
	fl.IntVar(&f.fps, "fps", 60, "target frames per second")
	fl.Float64Var(&f.pixelRatio, "pixel-ratio", 2, "render supersampling factor")
	fl.StringVar(&f.logFile, "log-file", "", "log file (the terminal owns stdout)")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.Flags().BoolVar(&f.noMouse, "no-mouse", false, "disable mouse tracking and the custom cursor")

	cmd.AddCommand(exportCmd(), configCmd(&f))
	return cmd
}

// loadConfig reads the config file and applies flags the user set.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return cfg, err
	}

	fl := cmd.Flags()
	if fl.Changed("texture") {
		cfg.TextureURL = f.texture
	}
	if fl.Changed("fps") {
		cfg.FPS = f.fps
	}
	if fl.Changed("pixel-ratio") {
		cfg.PixelRatio = f.pixelRatio
	}
	if fl.Changed("log-file") {
		cfg.Log.File = f.logFile
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <out.glb>",
		Short: "Write the moon geometry as a binary glTF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create %s: %w", args[0], err)
			}
			defer out.Close()

			mesh := moon.NewBodyGeometry()
			if err := models.WriteGLB(out, mesh); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d vertices, %d triangles)\n",
				args[0], mesh.VertexCount(), mesh.TriangleCount())
			return out.Close()
		},
	}
}

func configCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}
}
