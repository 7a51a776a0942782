package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("moon %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moon.glb")
	out := execute(t, "export", path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("glTF")) {
		t.Errorf("not a GLB file: % x", data[:min(len(data), 4)])
	}
	if !strings.Contains(out, "triangles") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "moon.yaml")
	if err := os.WriteFile(file, []byte("fps: 24\nrotation_speed: 0.001\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"defaults", nil, []string{"fps: 60", "pixel_ratio: 2"}},
		{"file", []string{"--config", file}, []string{"fps: 24", "rotation_speed: 0.001"}},
		{"flags override file", []string{"--config", file, "--fps", "30", "--texture", "moon.png"}, []string{"fps: 30", "texture_url: moon.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := execute(t, append([]string{"config"}, tt.args...)...)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q in\n%s", w, out)
				}
			}
		})
	}
}
